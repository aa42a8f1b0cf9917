package service

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/forgo/campusfeed/internal/authz"
	"github.com/forgo/campusfeed/internal/model"
	"github.com/forgo/campusfeed/internal/storage"
)

// ProfileService handles profile reads and self-service updates
type ProfileService struct {
	accounts       AccountRepository
	blobs          storage.BlobStore
	maxUploadBytes int64
	now            func() time.Time
}

// ProfileServiceConfig holds configuration for the profile service
type ProfileServiceConfig struct {
	Accounts       AccountRepository
	Blobs          storage.BlobStore
	MaxUploadBytes int64
}

// NewProfileService creates a new profile service
func NewProfileService(cfg ProfileServiceConfig) *ProfileService {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	return &ProfileService{
		accounts:       cfg.Accounts,
		blobs:          cfg.Blobs,
		maxUploadBytes: cfg.MaxUploadBytes,
		now:            time.Now,
	}
}

// ProfileUpdate is a partial update. Nil fields are left unchanged.
type ProfileUpdate struct {
	Username *string
	Bio      *string
	Avatar   *Upload
	Banner   *Upload
}

// GetProfile returns the profile view of an account
func (s *ProfileService) GetProfile(ctx context.Context, accountID string) (*model.ProfileView, error) {
	acc, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, ErrAccountNotFound
	}
	return acc.ToProfileView(), nil
}

// UpdateProfile applies req to the principal's own account. Images are
// stored before the row is written, so a failed upload leaves the
// account untouched.
func (s *ProfileService) UpdateProfile(ctx context.Context, p authz.Principal, req ProfileUpdate) (*model.ProfileView, error) {
	var patch model.ProfilePatch

	if req.Username != nil {
		username, err := validateUsername(*req.Username)
		if err != nil {
			return nil, err
		}
		patch.Username = &username
	}

	if req.Bio != nil {
		if utf8.RuneCountInString(*req.Bio) > model.MaxBioLength {
			return nil, ErrBioTooLong
		}
		bio := authz.SanitizeBio(p.Role, *req.Bio)
		patch.Bio = &bio
	}

	var avatar, banner *storage.Image
	var err error
	if req.Avatar != nil {
		if avatar, err = checkUpload(req.Avatar, s.maxUploadBytes); err != nil {
			return nil, err
		}
	}
	if req.Banner != nil {
		if banner, err = checkUpload(req.Banner, s.maxUploadBytes); err != nil {
			return nil, err
		}
	}

	if patch.IsEmpty() && avatar == nil && banner == nil {
		return s.GetProfile(ctx, p.AccountID)
	}

	// Confirm the account exists before spending an upload on it
	acc, err := s.accounts.GetByID(ctx, p.AccountID)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, ErrAccountNotFound
	}

	now := s.now()
	if avatar != nil {
		url, err := putImage(ctx, s.blobs, avatar, p.AccountID, storage.KindAvatar, now)
		if err != nil {
			return nil, err
		}
		patch.Avatar = &url
	}
	if banner != nil {
		url, err := putImage(ctx, s.blobs, banner, p.AccountID, storage.KindBanner, now)
		if err != nil {
			return nil, err
		}
		patch.Banner = &url
	}

	updated, err := s.accounts.UpdateProfile(ctx, p.AccountID, patch)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrAccountNotFound
	}
	return updated.ToProfileView(), nil
}
