// Package models contains data structures for the application's domain records.
//
// All records are shaped by the remote backend's schema; this application
// reads and writes them through the table API but owns none of them.
package models

import "time"

// Post represents a blog post row in the remote "posts" table.
type Post struct {
	ID        string    `json:"id,omitempty"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"image_url,omitempty"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	// ViewCount is not a column; computed at read time from post_views.
	ViewCount int64 `json:"-"`
}

// Comment represents a comment row in the remote "comments" table.
type Comment struct {
	ID        string    `json:"id,omitempty"`
	Content   string    `json:"content"`
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// PostView is an append-only row in the remote "post_views" table.
// The application inserts these fire-and-forget and never mutates them.
type PostView struct {
	ID        string    `json:"id,omitempty"`
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}
