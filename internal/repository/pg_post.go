package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/forgo/campusfeed/internal/database"
	"github.com/forgo/campusfeed/internal/model"
)

// PostgresPostRepository handles feed post data access on Postgres
type PostgresPostRepository struct {
	db database.DBTX
}

// NewPostgresPostRepository creates a Postgres-backed post repository
func NewPostgresPostRepository(db database.DBTX) *PostgresPostRepository {
	return &PostgresPostRepository{db: db}
}

// Create inserts a post authored by post.AuthorID
func (r *PostgresPostRepository) Create(ctx context.Context, post *model.Post) error {
	author, ok := parsePostgresID(post.AuthorID)
	if !ok {
		return fmt.Errorf("%w: author %q", database.ErrNotFound, post.AuthorID)
	}

	query :=
		`INSERT INTO posts (author_id, content, image_url)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_on`

	var id int64
	if err := r.db.QueryRowContext(ctx, query, author, post.Content, nullString(post.ImageURL)).
		Scan(&id, &post.CreatedOn); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	post.ID = strconv.FormatInt(id, 10)
	return nil
}

// GetByID retrieves a post. Returns nil, nil when absent.
func (r *PostgresPostRepository) GetByID(ctx context.Context, id string) (*model.Post, error) {
	key, ok := parsePostgresID(id)
	if !ok {
		return nil, nil
	}

	var (
		post     model.Post
		postID   int64
		authorID int64
		image    sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, author_id, content, image_url, created_on FROM posts WHERE id = $1`, key).
		Scan(&postID, &authorID, &post.Content, &image, &post.CreatedOn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	post.ID = strconv.FormatInt(postID, 10)
	post.AuthorID = strconv.FormatInt(authorID, 10)
	post.ImageURL = stringPtr(image)
	return &post, nil
}

// ListRecent returns the newest posts joined with their authors
func (r *PostgresPostRepository) ListRecent(ctx context.Context, limit int) ([]*model.FeedItem, error) {
	query :=
		`SELECT p.id, p.author_id, p.content, p.image_url, p.created_on,
		        a.username, a.avatar, a.role
		 FROM posts p
		 JOIN accounts a ON a.id = p.author_id
		 ORDER BY p.created_on DESC, p.id DESC
		 LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	items := make([]*model.FeedItem, 0, limit)
	for rows.Next() {
		var (
			item             model.FeedItem
			postID, authorID int64
			image, avatar    sql.NullString
			role             string
		)
		if err := rows.Scan(&postID, &authorID, &item.Post.Content, &image, &item.Post.CreatedOn,
			&item.Author.Username, &avatar, &role); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		item.Post.ID = strconv.FormatInt(postID, 10)
		item.Post.AuthorID = strconv.FormatInt(authorID, 10)
		item.Post.ImageURL = stringPtr(image)
		item.Author.ID = item.Post.AuthorID
		item.Author.Avatar = stringPtr(avatar)
		item.Author.Role = model.Role(role)
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return items, nil
}

// Delete removes a post and reports whether a row was removed
func (r *PostgresPostRepository) Delete(ctx context.Context, id string) (bool, error) {
	key, ok := parsePostgresID(id)
	if !ok {
		return false, nil
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, key)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}
