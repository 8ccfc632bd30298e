package models

import "gorm.io/gorm"

// Actor represents a simulated persona account
type Actor struct {
	gorm.Model  `json:"-"`
	ID          uint   `json:"id" gorm:"primaryKey"`
	Handle      string `json:"handle" gorm:"uniqueIndex"` // Unique human-readable handle, e.g. "ada_lovelace"
	DisplayName string `json:"display_name"`
	Persona     string `json:"persona"` // Free-text behavioral profile fed to the decision agent
	Tone        string `json:"tone"`    // Tone-of-voice descriptor used by the rewrite step
	Bio         string `json:"bio"`
}

// CreateActorRequest defines the request body for creating a new actor
type CreateActorRequest struct {
	Handle      string `json:"handle" validate:"required,min=2,max=50"`
	DisplayName string `json:"display_name" validate:"required,min=1,max=80"`
	Persona     string `json:"persona" validate:"required,min=1"`
	Tone        string `json:"tone" validate:"required,min=1,max=200"`
	Bio         string `json:"bio,omitempty" validate:"omitempty,max=500"`
}

// ActorProfile is an actor together with its derived social counts
type ActorProfile struct {
	Actor          Actor `json:"actor"`
	FollowersCount int64 `json:"followers_count"`
	FollowingCount int64 `json:"following_count"`
}
