package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/forgo/campusfeed/internal/authz"
	"github.com/forgo/campusfeed/internal/model"
	"github.com/forgo/campusfeed/internal/storage"
)

// PostRepository defines the interface for post storage.
// GetByID returns nil, nil when nothing matches and Delete reports
// whether a post was removed.
type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id string) (*model.Post, error)
	ListRecent(ctx context.Context, limit int) ([]*model.FeedItem, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// FeedService handles posts and the feed
type FeedService struct {
	posts          PostRepository
	blobs          storage.BlobStore
	maxUploadBytes int64
	now            func() time.Time
}

// FeedServiceConfig holds configuration for the feed service
type FeedServiceConfig struct {
	Posts          PostRepository
	Blobs          storage.BlobStore
	MaxUploadBytes int64
}

// NewFeedService creates a new feed service
func NewFeedService(cfg FeedServiceConfig) *FeedService {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	return &FeedService{
		posts:          cfg.Posts,
		blobs:          cfg.Blobs,
		maxUploadBytes: cfg.MaxUploadBytes,
		now:            time.Now,
	}
}

// CreatePost publishes a post. The optional image is stored first.
func (s *FeedService) CreatePost(ctx context.Context, authorID, content string, image *Upload) (*model.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrPostContentRequired
	}
	if utf8.RuneCountInString(content) > model.MaxPostContentLength {
		return nil, ErrPostContentTooLong
	}

	post := &model.Post{
		AuthorID: authorID,
		Content:  content,
	}

	if image != nil {
		img, err := checkUpload(image, s.maxUploadBytes)
		if err != nil {
			return nil, err
		}
		url, err := putImage(ctx, s.blobs, img, authorID, storage.KindPost, s.now())
		if err != nil {
			return nil, err
		}
		post.ImageURL = &url
	}

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// ListRecent returns the newest posts with their authors.
// limit is clamped to [1, 100]; zero or negative means 100.
func (s *FeedService) ListRecent(ctx context.Context, limit int) ([]*model.FeedItem, error) {
	if limit <= 0 || limit > model.MaxFeedPageSize {
		limit = model.MaxFeedPageSize
	}

	items, err := s.posts.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*model.FeedItem{}
	}
	return items, nil
}

// DeletePost removes a post if p owns it or moderates
func (s *FeedService) DeletePost(ctx context.Context, p authz.Principal, postID string) error {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return ErrPostNotFound
	}

	if err := authz.Authorize(p, authz.ActionDeletePost, post.AuthorID); err != nil {
		return err
	}

	deleted, err := s.posts.Delete(ctx, postID)
	if err != nil {
		return err
	}
	if !deleted {
		// lost a race with another delete
		return ErrPostNotFound
	}
	return nil
}
