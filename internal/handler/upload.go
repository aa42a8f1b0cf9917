package handler

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/forgo/campusfeed/internal/model"
	"github.com/forgo/campusfeed/internal/service"
)

// multipartMemory is how much of a form is held in memory before parts
// spill to temporary files
const multipartMemory = 8 << 20

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// parseMultipart reads a form carrying up to files uploads of maxBytes each
func parseMultipart(w http.ResponseWriter, r *http.Request, files int, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, int64(files)*maxBytes+1<<20)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return service.ErrUploadTooLarge
		}
		return fmt.Errorf("parse form: %w", err)
	}
	return nil
}

// formFile returns the named upload, or nil when the field is absent
func formFile(r *http.Request, field string, maxBytes int64) (*service.Upload, error) {
	f, hdr, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", field, err)
	}
	defer func() { _ = f.Close() }()

	// one byte over the limit is enough for the size check downstream
	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", field, err)
	}
	return &service.Upload{Filename: hdr.Filename, Data: data}, nil
}

// formValue returns a pointer to the named text field, nil when absent
func formValue(r *http.Request, field string) *string {
	if r.MultipartForm == nil {
		return nil
	}
	values, ok := r.MultipartForm.Value[field]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}

// writeFormError reports a form that could not be read. Oversized bodies
// get the upload error, anything else is a bad request.
func writeFormError(w http.ResponseWriter, err error) {
	if errors.Is(err, service.ErrUploadTooLarge) {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteError(w, model.NewBadRequestError("invalid multipart form"))
}
