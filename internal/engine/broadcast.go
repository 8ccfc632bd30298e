package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/anonto42/persona-sim/backend/internal/agent"
	"github.com/anonto42/persona-sim/backend/internal/memory"
	"github.com/anonto42/persona-sim/backend/internal/models"
	"github.com/anonto42/persona-sim/backend/internal/ratelimit"
	"github.com/anonto42/persona-sim/backend/internal/repositories"
	"go.uber.org/zap"
)

// How many similar snippets a follower's decision prompt gets to see.
const decisionRecallLimit = 10

// ReactionLimiter decides whether an actor may record another reaction.
// Implemented by ratelimit.RollingWindowLimiter.
type ReactionLimiter interface {
	Consume(ctx context.Context, actorID uint) error
}

// Broadcaster offers every embedded interaction to the acting actor's
// followers as a stimulus. Followers are visited sequentially and in
// isolation: one follower's failure never aborts the batch, and the loop
// returns nothing (fire-and-forget).
type Broadcaster struct {
	follows    repositories.FollowRepository
	sentiments repositories.SentimentRepository
	memory     MemoryIndex
	agent      agent.DecisionAgent
	limiter    ReactionLimiter
	queue      *Queue

	// maxDepth bounds the self-scheduling cascade (handler -> embed ->
	// broadcast -> handler ...). Zero disables the bound.
	maxDepth int

	logger *zap.Logger
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(
	follows repositories.FollowRepository,
	sentiments repositories.SentimentRepository,
	mem MemoryIndex,
	decider agent.DecisionAgent,
	limiter ReactionLimiter,
	queue *Queue,
	maxDepth int,
	logger *zap.Logger,
) *Broadcaster {
	return &Broadcaster{
		follows:    follows,
		sentiments: sentiments,
		memory:     mem,
		agent:      decider,
		limiter:    limiter,
		queue:      queue,
		maxDepth:   maxDepth,
		logger:     logger,
	}
}

// Register subscribes the broadcaster on the queue
func (b *Broadcaster) Register(q *Queue) {
	q.On(IntentBroadcast, b.HandleBroadcast)
}

// HandleBroadcast visits every follower of the acting actor
func (b *Broadcaster) HandleBroadcast(ctx context.Context, task Task) {
	args, ok := task.Payload.(BroadcastArgs)
	if !ok {
		b.logger.Error("unexpected payload type",
			zap.String("task_id", task.ID),
			zap.String("intent", string(task.Intent)),
		)
		return
	}

	if b.maxDepth > 0 && args.Depth >= b.maxDepth {
		b.logger.Info("cascade depth limit reached, not broadcasting",
			zap.String("task_id", task.ID),
			zap.String("actor", args.ActorHandle),
			zap.Int("depth", args.Depth),
		)
		return
	}

	followers, err := b.follows.GetFollowers(args.ActorID)
	if err != nil {
		b.logger.Error("failed to load followers",
			zap.String("task_id", task.ID),
			zap.String("actor", args.ActorHandle),
			zap.Error(err),
		)
		return
	}

	for i := range followers {
		follower := &followers[i]
		if err := b.visit(ctx, follower, args); err != nil {
			if errors.Is(err, ratelimit.ErrRateLimited) {
				b.logger.Info("follower rate limited, skipping",
					zap.String("task_id", task.ID),
					zap.String("follower", follower.Handle),
				)
			} else {
				b.logger.Error("broadcast to follower failed",
					zap.String("task_id", task.ID),
					zap.String("follower", follower.Handle),
					zap.Error(err),
				)
			}
			continue
		}
	}
}

// visit gives one follower its turn: rate limit check, memory recall, agent
// decision, optional scheduling, sentiment persistence.
func (b *Broadcaster) visit(ctx context.Context, follower *models.Actor, args BroadcastArgs) error {
	if err := b.limiter.Consume(ctx, follower.ID); err != nil {
		return err
	}

	var snippets []string
	recalled, err := b.memory.Search(ctx, follower.Handle, args.Context, decisionRecallLimit)
	if err != nil && !errors.Is(err, memory.ErrIndexNotFound) {
		return fmt.Errorf("failed to recall memory for %s: %w", follower.Handle, err)
	}
	for _, snip := range recalled {
		snippets = append(snippets, snip.Text)
	}

	followersCount, err := b.follows.GetFollowersCount(follower.ID)
	if err != nil {
		return fmt.Errorf("failed to count followers of %s: %w", follower.Handle, err)
	}
	followingCount, err := b.follows.GetFollowingCount(follower.ID)
	if err != nil {
		return fmt.Errorf("failed to count following of %s: %w", follower.Handle, err)
	}

	decision, err := b.agent.Decide(ctx, agent.Stimulus{
		Handle:         follower.Handle,
		DisplayName:    follower.DisplayName,
		Persona:        follower.Persona,
		Tone:           follower.Tone,
		Bio:            follower.Bio,
		FollowersCount: followersCount,
		FollowingCount: followingCount,
		IntentLabel:    args.IntentLabel,
		Context:        args.Context,
		Snippets:       snippets,
	})
	if err != nil {
		return fmt.Errorf("decision failed for %s: %w", follower.Handle, err)
	}

	if decision.Action != nil {
		b.scheduleAction(follower, args, decision)
	}

	// The verdict is persisted whether or not an action was scheduled.
	if err := b.sentiments.CreateSentiment(ctx, &models.Sentiment{
		ActorID: follower.ID,
		PostID:  args.Post.ID,
		Verdict: decision.Verdict,
	}); err != nil {
		return fmt.Errorf("failed to persist sentiment for %s: %w", follower.Handle, err)
	}
	return nil
}

// scheduleAction maps the agent's typed action onto a queued interaction.
// Ignore schedules nothing; the verdict alone is the outcome.
func (b *Broadcaster) scheduleAction(follower *models.Actor, args BroadcastArgs, decision *agent.Decision) {
	action := decision.Action

	var intent Intent
	switch action.Type {
	case agent.ActionLike:
		intent = IntentLike
	case agent.ActionRetweet:
		intent = IntentRetweet
	case agent.ActionReply:
		intent = IntentReply
	case agent.ActionQuote:
		intent = IntentQuote
	case agent.ActionMute:
		intent = IntentDND
	case agent.ActionIgnore:
		return
	default:
		b.logger.Error("agent returned unmapped action",
			zap.String("follower", follower.Handle),
			zap.String("action", string(action.Type)),
		)
		return
	}

	b.queue.Schedule(intent, action.Delay(), InteractionArgs{
		ActorID:     follower.ID,
		ActorHandle: follower.Handle,
		PostID:      args.Post.ID,
		Text:        action.Text(),
		Verdict:     decision.Verdict,
		Depth:       args.Depth + 1,
	})
}
