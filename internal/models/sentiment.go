package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Sentiment represents the decision agent's free-text verdict about a
// stimulus, stored in MongoDB as a simulation artifact. Records are
// insert-only; the rolling window rate limiter counts them per actor.
type Sentiment struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ActorID   uint               `json:"actor_id" bson:"actor_id"`
	PostID    uint               `json:"post_id" bson:"post_id"`
	Verdict   string             `json:"verdict" bson:"verdict"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}
