package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/forgo/campusfeed/internal/storage"
)

// DefaultMaxUploadBytes caps image uploads when no limit is configured
const DefaultMaxUploadBytes = 5 << 20

// Upload is raw file content received from a client
type Upload struct {
	Filename string
	Data     []byte
}

// checkUpload validates an upload before anything is written
func checkUpload(u *Upload, maxBytes int64) (*storage.Image, error) {
	img, err := storage.NewImage(u.Data, maxBytes)
	switch {
	case errors.Is(err, storage.ErrTooLarge):
		return nil, ErrUploadTooLarge
	case errors.Is(err, storage.ErrUnsupportedType):
		return nil, ErrUploadType
	case err != nil:
		return nil, err
	}
	return img, nil
}

// putImage stores img and returns its public URL. Backend failures are
// logged here and surface only as storage.ErrStorage.
func putImage(ctx context.Context, blobs storage.BlobStore, img *storage.Image, accountID string, kind storage.Kind, at time.Time) (string, error) {
	if blobs == nil {
		return "", fmt.Errorf("%w: no blob store configured", storage.ErrStorage)
	}

	url, err := storage.Store(ctx, blobs, img, accountID, kind, at)
	if err != nil {
		slog.Error("image upload failed", "kind", kind, "account_id", accountID, "error", err)
		if errors.Is(err, storage.ErrStorage) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", storage.ErrStorage, err)
	}
	return url, nil
}
