package models

import "time"

// Follow represents a directed follow edge between two actors
type Follow struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FollowerID  uint      `json:"follower_id" gorm:"index;uniqueIndex:idx_follower_following"`
	FollowingID uint      `json:"following_id" gorm:"index;uniqueIndex:idx_follower_following"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateFollowRequest defines the request body for creating a follow edge
type CreateFollowRequest struct {
	FollowerHandle string `json:"follower_handle" validate:"required,min=2,max=50"`
}
