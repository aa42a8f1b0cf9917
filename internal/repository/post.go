package repository

import (
	"context"
	"errors"

	"github.com/forgo/campusfeed/internal/database"
	"github.com/forgo/campusfeed/internal/model"
)

// PostRepository handles feed post data access on SurrealDB
type PostRepository struct {
	db database.Database
}

// NewPostRepository creates a new post repository
func NewPostRepository(db database.Database) *PostRepository {
	return &PostRepository{db: db}
}

// Create inserts a post authored by post.AuthorID
func (r *PostRepository) Create(ctx context.Context, post *model.Post) error {
	query := `
		CREATE post CONTENT {
			author: type::record($author),
			content: $content,
			image_url: $image_url,
			created_on: time::now()
		}
	`
	vars := map[string]interface{}{
		"author":    post.AuthorID,
		"content":   post.Content,
		"image_url": stringOrNil(post.ImageURL),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return err
	}
	record, err := database.FirstRecord(result)
	if err != nil {
		return err
	}
	created, err := parsePost(record)
	if err != nil {
		return err
	}

	post.ID = created.ID
	post.CreatedOn = created.CreatedOn
	return nil
}

// GetByID retrieves a post. Returns nil, nil when absent.
func (r *PostRepository) GetByID(ctx context.Context, id string) (*model.Post, error) {
	if !hasTable(id, "post") {
		return nil, nil
	}

	result, err := r.db.QueryOne(ctx, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": id})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return parsePost(result)
}

// ListRecent returns the newest posts joined with their authors
func (r *PostRepository) ListRecent(ctx context.Context, limit int) ([]*model.FeedItem, error) {
	query := `
		SELECT
			id,
			content,
			image_url,
			created_on,
			author AS author_id,
			author.username AS author_username,
			author.avatar AS author_avatar,
			author.role AS author_role
		FROM post
		ORDER BY created_on DESC, id DESC
		LIMIT $limit
	`

	results, err := r.db.Query(ctx, query, map[string]interface{}{"limit": limit})
	if err != nil {
		return nil, err
	}

	rows := database.Records(results, 0)
	items := make([]*model.FeedItem, 0, len(rows))
	for _, row := range rows {
		data, ok := row.(map[string]interface{})
		if !ok {
			return nil, errors.New("unexpected feed result format")
		}
		post, err := parsePost(data)
		if err != nil {
			return nil, err
		}
		items = append(items, &model.FeedItem{
			Post: *post,
			Author: model.AuthorSummary{
				ID:       post.AuthorID,
				Username: getString(data, "author_username"),
				Avatar:   getStringPtr(data, "author_avatar"),
				Role:     model.Role(getString(data, "author_role")),
			},
		})
	}
	return items, nil
}

// Delete removes a post and reports whether a row was removed
func (r *PostRepository) Delete(ctx context.Context, id string) (bool, error) {
	if !hasTable(id, "post") {
		return false, nil
	}

	results, err := r.db.Query(ctx, `DELETE type::record($id) RETURN BEFORE`, map[string]interface{}{"id": id})
	if err != nil {
		return false, err
	}
	return len(database.Records(results, 0)) > 0, nil
}

func parsePost(result interface{}) (*model.Post, error) {
	data, ok := result.(map[string]interface{})
	if !ok {
		return nil, errors.New("unexpected post result format")
	}

	author := data["author"]
	if a, ok := data["author_id"]; ok {
		author = a
	}

	return &model.Post{
		ID:        convertSurrealID(data["id"]),
		AuthorID:  convertSurrealID(author),
		Content:   getString(data, "content"),
		ImageURL:  getStringPtr(data, "image_url"),
		CreatedOn: parseTime(data["created_on"]),
	}, nil
}
