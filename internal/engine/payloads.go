package engine

import (
	"time"

	"github.com/anonto42/persona-sim/backend/internal/models"
)

// InteractionArgs is the payload of the six interaction intents. ActorHandle
// travels alongside ActorID as a consistency guard: handlers abort when the
// resolved actor's handle does not match.
type InteractionArgs struct {
	ActorID     uint
	ActorHandle string
	PostID      uint

	// Text is the agent's draft for content-producing intents (reply,
	// quote) or the seed content of a tweet.
	Text string

	// Verdict is the agent's take on the stimulus, forwarded to the
	// rewrite step so the generated text matches the sentiment.
	Verdict string

	// Compose runs a tweet's text through the rewrite step instead of
	// posting it verbatim. Used by the simulation pulse.
	Compose bool

	// Depth counts cascade hops since the seeding interaction.
	Depth int
}

// EmbedArgs is the payload of the embedding intents, carrying the mutated
// post, the reaction (if any) and the acting actor.
type EmbedArgs struct {
	ActorID     uint
	ActorHandle string
	Post        models.Post
	Reaction    *models.Reaction
	IntentLabel string

	// Context optionally overrides the post content when composing the
	// embedded sentence. The mute handler uses it to carry thread
	// ancestry.
	Context string

	Timestamp time.Time
	Depth     int
}

// BroadcastArgs is the payload of the broadcast intent
type BroadcastArgs struct {
	ActorID     uint
	ActorHandle string
	Post        models.Post
	IntentLabel string
	Context     string
	Timestamp   time.Time
	Depth       int
}
