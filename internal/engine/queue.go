package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Intent is the category of a queued interaction task
type Intent string

const (
	IntentTweet   Intent = "TWEET"
	IntentReply   Intent = "REPLY"
	IntentQuote   Intent = "QUOTE"
	IntentRetweet Intent = "RETWEET"
	IntentLike    Intent = "LIKE"
	IntentDND     Intent = "DND"

	// Internal intents chaining the pipeline together.
	IntentEmbedReaction Intent = "EMBED_REACTION"
	IntentEmbedOpinion  Intent = "EMBED_OPINION"
	IntentBroadcast     Intent = "BROADCAST"
)

// Task is an ephemeral unit of work. Tasks live only in process memory and
// are lost on restart.
type Task struct {
	ID      string
	Intent  Intent
	Payload interface{}
}

// Handler consumes one task. Handlers own their error handling; anything
// they fail to catch is recovered and logged by the queue without affecting
// other handlers of the same task.
type Handler func(ctx context.Context, task Task)

// Queue is the in-process publish/subscribe backbone of the simulation. It
// supports immediate and delayed dispatch, multiple subscribers per intent,
// no retries, no dead-letter and no cancellation of scheduled tasks. It is
// constructed once at startup and injected into every component.
type Queue struct {
	mu       sync.RWMutex
	handlers map[Intent][]Handler
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	logger   *zap.Logger
}

// NewQueue creates a new Queue
func NewQueue(logger *zap.Logger) *Queue {
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		handlers: make(map[Intent][]Handler),
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger,
	}
}

// On registers a handler for an intent. Multiple handlers may subscribe to
// the same intent; all of them run for every matching task.
func (q *Queue) On(intent Intent, handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[intent] = append(q.handlers[intent], handler)
}

// Send dispatches a task immediately (zero delay)
func (q *Queue) Send(intent Intent, payload interface{}) {
	q.Schedule(intent, 0, payload)
}

// Schedule arranges for the payload to be delivered to every subscriber of
// the intent after at least delay elapses. The delay is advisory; delivery
// happens on a timer goroutine, not a hard deadline.
func (q *Queue) Schedule(intent Intent, delay time.Duration, payload interface{}) {
	task := Task{
		ID:      uuid.NewString(),
		Intent:  intent,
		Payload: payload,
	}
	q.logger.Debug("task scheduled",
		zap.String("task_id", task.ID),
		zap.String("intent", string(intent)),
		zap.Duration("delay", delay),
	)

	q.wg.Add(1)
	time.AfterFunc(delay, func() {
		defer q.wg.Done()
		q.deliver(task)
	})
}

// Drain blocks until every dispatched task has been delivered. Used by
// shutdown and by tests.
func (q *Queue) Drain() {
	q.wg.Wait()
}

// Close stops delivery of pending tasks
func (q *Queue) Close() {
	q.cancel()
}

func (q *Queue) deliver(task Task) {
	select {
	case <-q.ctx.Done():
		return
	default:
	}

	q.mu.RLock()
	handlers := make([]Handler, len(q.handlers[task.Intent]))
	copy(handlers, q.handlers[task.Intent])
	q.mu.RUnlock()

	if len(handlers) == 0 {
		q.logger.Warn("no handlers for intent",
			zap.String("task_id", task.ID),
			zap.String("intent", string(task.Intent)),
		)
		return
	}

	for _, handler := range handlers {
		q.run(handler, task)
	}
}

// run executes one handler, containing panics so a broken subscriber never
// stops the remaining handlers of the same task.
func (q *Queue) run(handler Handler, task Task) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("task handler panicked",
				zap.String("task_id", task.ID),
				zap.String("intent", string(task.Intent)),
				zap.Any("panic", r),
			)
		}
	}()
	handler(q.ctx, task)
}
