// Package storage holds the blob stores that keep avatar, banner and post
// images. Entities only ever store the public URL a store returns.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrStorage wraps any failure of the underlying blob backend.
	ErrStorage = errors.New("storage error")

	// ErrTooLarge indicates an upload above the configured size limit.
	ErrTooLarge = errors.New("upload too large")

	// ErrUnsupportedType indicates an upload that is not an accepted image.
	ErrUnsupportedType = errors.New("unsupported upload type")
)

// BlobStore persists bytes under a key and returns a public URL for them
type BlobStore interface {
	Put(ctx context.Context, data []byte, contentType, key string) (string, error)
}

// Kind identifies what an upload is used for
type Kind string

const (
	KindAvatar Kind = "avatar"
	KindBanner Kind = "banner"
	KindPost   Kind = "post"
)

// prefix returns the folder an upload kind lives under
func (k Kind) prefix() string {
	switch k {
	case KindPost:
		return "posts"
	case KindAvatar:
		return "avatars"
	case KindBanner:
		return "banners"
	}
	return "misc"
}

// imageExtensions are the accepted sniffed content types
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Image is a validated image upload ready to be stored
type Image struct {
	Data        []byte
	ContentType string
	Ext         string
}

// NewImage sniffs data and accepts it only if it is a supported image no
// larger than maxBytes. The client-declared content type is ignored.
func NewImage(data []byte, maxBytes int64) (*Image, error) {
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, len(data), maxBytes)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrUnsupportedType)
	}

	contentType := http.DetectContentType(data)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	return &Image{Data: bytes.Clone(data), ContentType: contentType, Ext: ext}, nil
}

// Key builds the object key <folder>/<accountID>-<kind>-<unixMillis><ext>
func Key(accountID string, kind Kind, at time.Time, ext string) string {
	return fmt.Sprintf("%s/%s-%s-%d%s", kind.prefix(), sanitizeKeyPart(accountID), kind, at.UnixMilli(), ext)
}

// Store puts img under a key derived from the owner, kind and time
func Store(ctx context.Context, store BlobStore, img *Image, accountID string, kind Kind, at time.Time) (string, error) {
	return store.Put(ctx, img.Data, img.ContentType, Key(accountID, kind, at, img.Ext))
}

// sanitizeKeyPart keeps record ids such as "account:abc" usable as path parts
func sanitizeKeyPart(s string) string {
	out := []byte(s)
	for i, c := range out {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			out[i] = '_'
		}
	}
	return string(out)
}
