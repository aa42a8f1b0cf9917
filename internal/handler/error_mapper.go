package handler

import (
	"errors"
	"log/slog"

	"github.com/forgo/campusfeed/internal/authz"
	"github.com/forgo/campusfeed/internal/model"
	"github.com/forgo/campusfeed/internal/service"
	"github.com/forgo/campusfeed/internal/session"
	"github.com/forgo/campusfeed/internal/storage"
)

// MapServiceError converts a service error to a ProblemDetails response.
// Errors it does not recognise are logged and reported as a generic 500.
func MapServiceError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	switch {
	// ===== Authentication → 401 =====
	case errors.Is(err, service.ErrInvalidCredentials):
		return model.NewAuthenticationFailedError()
	case errors.Is(err, session.ErrUnauthenticated):
		return model.NewUnauthorizedError("authentication required")

	// ===== Authorization → 403 =====
	case errors.Is(err, authz.ErrForbidden):
		return model.NewForbiddenError("not allowed")

	// ===== Not Found → 404 =====
	case errors.Is(err, service.ErrAccountNotFound):
		return model.NewNotFoundError("account")
	case errors.Is(err, service.ErrPostNotFound):
		return model.NewNotFoundError("post")

	// ===== Conflict → 409 =====
	case errors.Is(err, service.ErrEmailAlreadyExists):
		return model.NewConflictError(err.Error())

	// ===== Validation → 422 =====
	case errors.Is(err, service.ErrEmailDomain):
		return fieldError("email", err)
	case errors.Is(err, service.ErrUsernameInvalid):
		return fieldError("username", err)
	case errors.Is(err, service.ErrPasswordTooShort),
		errors.Is(err, service.ErrPasswordTooLong):
		return fieldError("password", err)
	case errors.Is(err, service.ErrBioTooLong):
		return fieldError("bio", err)
	case errors.Is(err, service.ErrPostContentRequired),
		errors.Is(err, service.ErrPostContentTooLong):
		return fieldError("content", err)
	case errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrRoleDowngrade):
		return fieldError("role", err)

	// ===== Upload → 400 =====
	case errors.Is(err, service.ErrUploadTooLarge),
		errors.Is(err, service.ErrUploadType):
		return model.NewUploadError(err.Error())

	// ===== Storage → 502, never echoed =====
	case errors.Is(err, storage.ErrStorage):
		return model.NewStorageError()
	}

	slog.Error("unhandled service error", slog.Any("error", err))
	return model.NewInternalError("")
}

// MapLoginError collapses every login failure into one answer so callers
// cannot tell an unknown email from a wrong password.
func MapLoginError(err error) *model.ProblemDetails {
	if errors.Is(err, service.ErrAccountNotFound) || errors.Is(err, service.ErrInvalidCredentials) {
		return model.NewAuthenticationFailedError()
	}
	return MapServiceError(err)
}

func fieldError(field string, err error) *model.ProblemDetails {
	return model.NewValidationError([]model.FieldError{{Field: field, Message: err.Error()}})
}
