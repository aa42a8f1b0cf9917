package model

import "time"

// Feed constraints
const (
	MaxPostContentLength = 500
	MaxFeedPageSize      = 100
)

// Post represents a feed post
type Post struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	ImageURL  *string   `json:"image_url,omitempty"`
	CreatedOn time.Time `json:"created_on"`
}

// AuthorSummary provides the author fields shown next to a post
type AuthorSummary struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Avatar   *string `json:"avatar,omitempty"`
	Role     Role    `json:"role"`
}

// FeedItem is a post joined with its author
type FeedItem struct {
	Post   Post          `json:"post"`
	Author AuthorSummary `json:"author"`
}
