package engine

import (
	"context"
	"fmt"

	"github.com/anonto42/persona-sim/backend/internal/memory"
	"go.uber.org/zap"
)

// EmbedPipeline turns completed interactions into natural-language sentences
// in the acting actor's memory index, then hands the interaction to the
// broadcaster. Embedding and broadcasting are chained with Send: there is no
// simulated latency between them.
type EmbedPipeline struct {
	memory MemoryIndex
	queue  *Queue
	logger *zap.Logger
}

// NewEmbedPipeline creates a new EmbedPipeline
func NewEmbedPipeline(mem MemoryIndex, queue *Queue, logger *zap.Logger) *EmbedPipeline {
	return &EmbedPipeline{memory: mem, queue: queue, logger: logger}
}

// Register subscribes the pipeline on the queue
func (p *EmbedPipeline) Register(q *Queue) {
	q.On(IntentEmbedReaction, p.HandleEmbed)
	q.On(IntentEmbedOpinion, p.HandleEmbed)
}

// HandleEmbed inserts one interaction summary into the actor's index and
// emits the broadcast task. An embedding failure is fatal to this task: the
// interaction is not broadcast.
func (p *EmbedPipeline) HandleEmbed(ctx context.Context, task Task) {
	args, ok := task.Payload.(EmbedArgs)
	if !ok {
		p.logger.Error("unexpected payload type",
			zap.String("task_id", task.ID),
			zap.String("intent", string(task.Intent)),
		)
		return
	}

	sentence := describeInteraction(args)
	rec := memory.Record{
		URL:       fmt.Sprintf("sim://posts/%d", args.Post.ID),
		Type:      args.IntentLabel,
		Text:      sentence,
		Username:  args.ActorHandle,
		Timestamp: args.Timestamp,
	}
	if err := p.memory.Insert(ctx, args.ActorHandle, rec); err != nil {
		p.logger.Error("failed to embed interaction",
			zap.String("task_id", task.ID),
			zap.String("actor", args.ActorHandle),
			zap.String("label", args.IntentLabel),
			zap.Error(err),
		)
		return
	}

	p.queue.Send(IntentBroadcast, BroadcastArgs{
		ActorID:     args.ActorID,
		ActorHandle: args.ActorHandle,
		Post:        args.Post,
		IntentLabel: args.IntentLabel,
		Context:     sentence,
		Timestamp:   args.Timestamp,
		Depth:       args.Depth,
	})
}

// describeInteraction renders one interaction as a natural-language sentence
// for the memory index.
func describeInteraction(args EmbedArgs) string {
	content := args.Post.Content
	if args.Context != "" {
		content = args.Context
	}
	switch args.IntentLabel {
	case "favorite":
		return fmt.Sprintf("@%s favorited a post: %q", args.ActorHandle, content)
	case "repost":
		return fmt.Sprintf("@%s reposted a post: %q", args.ActorHandle, content)
	case "reply":
		return fmt.Sprintf("@%s replied: %q", args.ActorHandle, content)
	case "quote":
		return fmt.Sprintf("@%s quoted a post, saying: %q", args.ActorHandle, content)
	case "muted":
		return fmt.Sprintf("@%s muted a conversation: %q", args.ActorHandle, content)
	default:
		return fmt.Sprintf("@%s posted: %q", args.ActorHandle, content)
	}
}
