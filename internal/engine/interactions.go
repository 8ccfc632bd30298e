package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/persona-sim/backend/internal/agent"
	"github.com/anonto42/persona-sim/backend/internal/memory"
	"github.com/anonto42/persona-sim/backend/internal/models"
	"github.com/anonto42/persona-sim/backend/internal/repositories"
	"go.uber.org/zap"
)

// MemoryIndex is the narrow interface to the per-actor embedding index
type MemoryIndex interface {
	Insert(ctx context.Context, handle string, rec memory.Record) error
	Search(ctx context.Context, handle, query string, k int) ([]memory.Snippet, error)
}

// How many similar snippets the rewrite step gets to see.
const rewriteRecallLimit = 5

// How far up a thread the mute handler walks for context.
const ancestryDepth = 5

// Interactions holds the six interaction handlers. Each handler is a
// terminal action triggered by its intent: lookup, idempotency check,
// transactional mutation, then a follow-up embed task. A failure anywhere is
// fatal to that task only; nothing is retried.
type Interactions struct {
	actors    repositories.ActorRepository
	posts     repositories.PostRepository
	reactions repositories.ReactionRepository
	memory    MemoryIndex
	agent     agent.DecisionAgent
	queue     *Queue
	logger    *zap.Logger
}

// NewInteractions creates a new Interactions set
func NewInteractions(
	actors repositories.ActorRepository,
	posts repositories.PostRepository,
	reactions repositories.ReactionRepository,
	mem MemoryIndex,
	decider agent.DecisionAgent,
	queue *Queue,
	logger *zap.Logger,
) *Interactions {
	return &Interactions{
		actors:    actors,
		posts:     posts,
		reactions: reactions,
		memory:    mem,
		agent:     decider,
		queue:     queue,
		logger:    logger,
	}
}

// Register subscribes every interaction handler on the queue
func (h *Interactions) Register(q *Queue) {
	q.On(IntentTweet, h.ExecuteTweet)
	q.On(IntentReply, h.ExecuteReply)
	q.On(IntentQuote, h.ExecuteQuote)
	q.On(IntentRetweet, h.ExecuteRetweet)
	q.On(IntentLike, h.ExecuteLike)
	q.On(IntentDND, h.ExecuteDND)
}

// ExecuteLike records a favorite reaction
func (h *Interactions) ExecuteLike(ctx context.Context, task Task) {
	h.react(ctx, task, models.ReactionFavorite)
}

// ExecuteRetweet records a repost reaction
func (h *Interactions) ExecuteRetweet(ctx context.Context, task Task) {
	h.react(ctx, task, models.ReactionRepost)
}

// ExecuteReply creates a reply post in the actor's voice
func (h *Interactions) ExecuteReply(ctx context.Context, task Task) {
	h.produce(ctx, task, "reply")
}

// ExecuteQuote creates a quote post in the actor's voice
func (h *Interactions) ExecuteQuote(ctx context.Context, task Task) {
	h.produce(ctx, task, "quote")
}

// ExecuteTweet creates a fresh post with no parent
func (h *Interactions) ExecuteTweet(ctx context.Context, task Task) {
	args, ok := h.args(task)
	if !ok {
		return
	}
	actor, err := h.resolveActor(args)
	if err != nil {
		h.logger.Error("tweet lookup failed", zap.String("task_id", task.ID), zap.Error(err))
		return
	}

	content := args.Text
	if args.Compose {
		content, err = h.rewrite(ctx, actor, args)
		if err != nil {
			h.logger.Error("tweet rewrite failed",
				zap.String("task_id", task.ID),
				zap.String("actor", actor.Handle),
				zap.Error(err),
			)
			return
		}
	}

	post := &models.Post{AuthorID: actor.ID, Content: content}
	if err := h.posts.CreatePost(post); err != nil {
		h.logger.Error("failed to create tweet",
			zap.String("task_id", task.ID),
			zap.String("actor", actor.Handle),
			zap.Error(err),
		)
		return
	}

	h.queue.Send(IntentEmbedOpinion, EmbedArgs{
		ActorID:     actor.ID,
		ActorHandle: actor.Handle,
		Post:        *post,
		IntentLabel: "tweet",
		Timestamp:   time.Now().UTC(),
		Depth:       args.Depth,
	})
}

// ExecuteDND embeds a muted marker into the actor's index without touching
// the database. The suppression is soft: similarity search may still surface
// the conversation later if it ranks high enough.
func (h *Interactions) ExecuteDND(ctx context.Context, task Task) {
	args, ok := h.args(task)
	if !ok {
		return
	}
	actor, err := h.resolveActor(args)
	if err != nil {
		h.logger.Error("mute lookup failed", zap.String("task_id", task.ID), zap.Error(err))
		return
	}

	chain, err := h.posts.GetAncestry(args.PostID, ancestryDepth)
	if err != nil {
		h.logger.Error("mute ancestry lookup failed",
			zap.String("task_id", task.ID),
			zap.Uint("post_id", args.PostID),
			zap.Error(err),
		)
		return
	}

	var thread string
	for _, p := range chain {
		if thread != "" {
			thread += " / "
		}
		thread += p.Content
	}

	h.queue.Send(IntentEmbedOpinion, EmbedArgs{
		ActorID:     actor.ID,
		ActorHandle: actor.Handle,
		Post:        chain[0],
		IntentLabel: "muted",
		Context:     thread,
		Timestamp:   time.Now().UTC(),
		Depth:       args.Depth,
	})
}

// react is the shared body of the favorite and repost handlers
func (h *Interactions) react(ctx context.Context, task Task, kind models.ReactionKind) {
	args, ok := h.args(task)
	if !ok {
		return
	}
	actor, post, err := h.lookup(args)
	if err != nil {
		h.logger.Error("reaction lookup failed",
			zap.String("task_id", task.ID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return
	}

	// Idempotency guard. Check-then-act is intentionally not atomic with
	// the create below; see DESIGN.md.
	exists, err := h.reactions.HasReaction(kind, actor.ID, post.ID)
	if err != nil {
		h.logger.Error("reaction existence check failed",
			zap.String("task_id", task.ID),
			zap.String("actor", actor.Handle),
			zap.Error(err),
		)
		return
	}
	if exists {
		h.logger.Warn("reaction already exists, skipping",
			zap.String("task_id", task.ID),
			zap.String("kind", string(kind)),
			zap.String("actor", actor.Handle),
			zap.Uint("post_id", post.ID),
		)
		return
	}

	snapshot, err := json.Marshal(post)
	if err != nil {
		h.logger.Error("failed to snapshot post", zap.String("task_id", task.ID), zap.Error(err))
		return
	}
	reaction := &models.Reaction{
		Kind:        kind,
		ActorID:     actor.ID,
		PostID:      post.ID,
		OriginState: string(snapshot),
	}
	if err := h.reactions.CreateReactionAndIncrement(reaction); err != nil {
		h.logger.Error("failed to record reaction",
			zap.String("task_id", task.ID),
			zap.String("kind", string(kind)),
			zap.String("actor", actor.Handle),
			zap.Error(err),
		)
		return
	}

	// Reflect the increment locally so the embedded snapshot matches the
	// stored counters.
	switch kind {
	case models.ReactionFavorite:
		post.FavoriteCount++
	case models.ReactionRepost:
		post.RepostCount++
	}

	h.queue.Send(IntentEmbedReaction, EmbedArgs{
		ActorID:     actor.ID,
		ActorHandle: actor.Handle,
		Post:        *post,
		Reaction:    reaction,
		IntentLabel: string(kind),
		Timestamp:   time.Now().UTC(),
		Depth:       args.Depth,
	})
}

// produce is the shared body of the reply and quote handlers
func (h *Interactions) produce(ctx context.Context, task Task, label string) {
	args, ok := h.args(task)
	if !ok {
		return
	}
	actor, parent, err := h.lookup(args)
	if err != nil {
		h.logger.Error("content lookup failed",
			zap.String("task_id", task.ID),
			zap.String("label", label),
			zap.Error(err),
		)
		return
	}

	text, err := h.rewrite(ctx, actor, args)
	if err != nil {
		// Rewrite failure is fatal to this task: without a voice-matched
		// text the post is not created at all.
		h.logger.Error("rewrite failed",
			zap.String("task_id", task.ID),
			zap.String("label", label),
			zap.String("actor", actor.Handle),
			zap.Error(err),
		)
		return
	}

	post := &models.Post{AuthorID: actor.ID, Content: text}
	counter := repositories.CounterReplies
	if label == "quote" {
		post.QuoteOfID = &parent.ID
		counter = repositories.CounterQuotes
	} else {
		post.ReplyToID = &parent.ID
	}

	if err := h.posts.CreatePostAndIncrementParent(post, parent.ID, counter); err != nil {
		h.logger.Error("failed to create post",
			zap.String("task_id", task.ID),
			zap.String("label", label),
			zap.String("actor", actor.Handle),
			zap.Error(err),
		)
		return
	}

	h.queue.Send(IntentEmbedOpinion, EmbedArgs{
		ActorID:     actor.ID,
		ActorHandle: actor.Handle,
		Post:        *post,
		IntentLabel: label,
		Timestamp:   time.Now().UTC(),
		Depth:       args.Depth,
	})
}

// rewrite runs the draft through the agent's rewrite capability, supplying
// up to five similar snippets from the actor's own memory for voice.
func (h *Interactions) rewrite(ctx context.Context, actor *models.Actor, args InteractionArgs) (string, error) {
	var snippets []string
	recalled, err := h.memory.Search(ctx, actor.Handle, args.Text, rewriteRecallLimit)
	if err != nil && !errors.Is(err, memory.ErrIndexNotFound) {
		return "", err
	}
	for _, snip := range recalled {
		snippets = append(snippets, snip.Text)
	}

	return h.agent.Rewrite(ctx, agent.RewriteRequest{
		Handle:   actor.Handle,
		Persona:  actor.Persona,
		Tone:     actor.Tone,
		Draft:    args.Text,
		Verdict:  args.Verdict,
		Snippets: snippets,
	})
}

func (h *Interactions) args(task Task) (InteractionArgs, bool) {
	args, ok := task.Payload.(InteractionArgs)
	if !ok {
		h.logger.Error("unexpected payload type",
			zap.String("task_id", task.ID),
			zap.String("intent", string(task.Intent)),
		)
	}
	return args, ok
}

// lookup resolves the acting actor and the target post
func (h *Interactions) lookup(args InteractionArgs) (*models.Actor, *models.Post, error) {
	actor, err := h.resolveActor(args)
	if err != nil {
		return nil, nil, err
	}
	post, err := h.posts.GetPostByID(args.PostID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve post %d: %w", args.PostID, err)
	}
	return actor, post, nil
}

// resolveActor loads the actor and verifies the payload handle matches, as a
// consistency guard against stale or crossed task payloads.
func (h *Interactions) resolveActor(args InteractionArgs) (*models.Actor, error) {
	actor, err := h.actors.GetActorByID(args.ActorID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve actor %d: %w", args.ActorID, err)
	}
	if actor.Handle != args.ActorHandle {
		return nil, fmt.Errorf("actor %d handle mismatch: have %q, task says %q", args.ActorID, actor.Handle, args.ActorHandle)
	}
	return actor, nil
}
