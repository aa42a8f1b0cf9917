package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by a Store when the token has no live record
var ErrNotFound = errors.New("session not found")

// Record is the server-side state behind a token
type Record struct {
	AccountID string    `json:"account_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the record is past its deadline at now
func (r Record) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Store persists session records keyed by token.
// Load returns ErrNotFound for unknown or expired tokens, Delete is
// idempotent and Touch moves the expiry of a live record.
type Store interface {
	Save(ctx context.Context, token string, rec Record) error
	Load(ctx context.Context, token string) (*Record, error)
	Delete(ctx context.Context, token string) error
	Touch(ctx context.Context, token string, expiresAt time.Time) error
}
