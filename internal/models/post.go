package models

import "time"

// Post represents a unit of authored content in the simulation
type Post struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	AuthorID uint   `json:"author_id" gorm:"index"` // ID of the actor who authored the post
	Content  string `json:"content"`

	// Parent references for threaded content. Immutable once set.
	ReplyToID *uint `json:"reply_to_id,omitempty" gorm:"index"`
	QuoteOfID *uint `json:"quote_of_id,omitempty" gorm:"index"`

	// Engagement counters. These only ever increment; decrements are not
	// part of the simulation model.
	ReplyCount    int `json:"reply_count"`
	QuoteCount    int `json:"quote_count"`
	RepostCount   int `json:"repost_count"`
	FavoriteCount int `json:"favorite_count"`
	BookmarkCount int `json:"bookmark_count"`

	CreatedAt time.Time `json:"created_at"`
}

// CreatePostRequest defines the request body for seeding a new post
type CreatePostRequest struct {
	AuthorHandle string `json:"author_handle" validate:"required,min=2,max=50"`
	Content      string `json:"content" validate:"required,min=1,max=280"`
}
