package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/forgo/campusfeed/internal/authz"
	"github.com/forgo/campusfeed/internal/service"
	"github.com/forgo/campusfeed/internal/session"
	"github.com/forgo/campusfeed/internal/storage"
)

func TestMapServiceError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{service.ErrEmailDomain, http.StatusUnprocessableEntity},
		{service.ErrUsernameInvalid, http.StatusUnprocessableEntity},
		{service.ErrPasswordTooShort, http.StatusUnprocessableEntity},
		{service.ErrPasswordTooLong, http.StatusUnprocessableEntity},
		{service.ErrBioTooLong, http.StatusUnprocessableEntity},
		{service.ErrPostContentRequired, http.StatusUnprocessableEntity},
		{service.ErrPostContentTooLong, http.StatusUnprocessableEntity},
		{service.ErrInvalidRole, http.StatusUnprocessableEntity},
		{service.ErrRoleDowngrade, http.StatusUnprocessableEntity},
		{service.ErrUploadTooLarge, http.StatusBadRequest},
		{service.ErrUploadType, http.StatusBadRequest},
		{service.ErrEmailAlreadyExists, http.StatusConflict},
		{service.ErrAccountNotFound, http.StatusNotFound},
		{service.ErrPostNotFound, http.StatusNotFound},
		{service.ErrInvalidCredentials, http.StatusUnauthorized},
		{session.ErrUnauthenticated, http.StatusUnauthorized},
		{authz.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("%w: put avatars/x.png", storage.ErrStorage), http.StatusBadGateway},
		{errors.New("pq: connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, MapServiceError(tt.err).Status)
		})
	}

	assert.Nil(t, MapServiceError(nil))
}

func TestMapServiceError_HidesDetails(t *testing.T) {
	t.Parallel()

	storageErr := MapServiceError(fmt.Errorf("%w: s3: AccessDenied for key secret/path", storage.ErrStorage))
	assert.Equal(t, "upload failed", storageErr.Detail)

	internal := MapServiceError(errors.New("dial tcp 10.0.0.5:5432: refused"))
	assert.NotContains(t, internal.Detail, "10.0.0.5")
}

func TestMapLoginError_SameForUnknownAndWrong(t *testing.T) {
	t.Parallel()

	unknown := MapLoginError(service.ErrAccountNotFound)
	wrong := MapLoginError(service.ErrInvalidCredentials)

	assert.Equal(t, *unknown, *wrong)
	assert.Equal(t, http.StatusUnauthorized, unknown.Status)
	assert.Equal(t, "authentication failed", unknown.Detail)

	// infrastructure failures are not disguised as bad credentials
	assert.Equal(t, http.StatusInternalServerError, MapLoginError(context.DeadlineExceeded).Status)
}

func TestHealth(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rr := env.do(jsonRequest(http.MethodGet, "/health", ""), nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	env.pingErr = errors.New("db down")
	rr = env.do(jsonRequest(http.MethodGet, "/health", ""), nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
