package models

import "time"

// ReactionKind is the category of a reaction record
type ReactionKind string

const (
	ReactionFavorite ReactionKind = "favorite"
	ReactionRepost   ReactionKind = "repost"
)

// Reaction represents a favorite or repost linking an actor to a post
type Reaction struct {
	ID      uint         `json:"id" gorm:"primaryKey"`
	Kind    ReactionKind `json:"kind" gorm:"index:idx_reaction_actor_post"`
	ActorID uint         `json:"actor_id" gorm:"index:idx_reaction_actor_post"`
	PostID  uint         `json:"post_id" gorm:"index:idx_reaction_actor_post"`

	// OriginState is a JSON snapshot of the post as it looked when the
	// reaction was recorded.
	OriginState string `json:"origin_state"`

	CreatedAt time.Time `json:"created_at"`
}
