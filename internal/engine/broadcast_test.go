package engine

import (
	"context"
	"testing"

	"github.com/anonto42/persona-sim/backend/internal/agent"
	"github.com/anonto42/persona-sim/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type broadcastFixture struct {
	queue      *Queue
	actors     *fakeActorRepo
	follows    *fakeFollowRepo
	sentiments *fakeSentimentRepo
	memory     *fakeMemory
	agent      *fakeAgent
	limiter    *fakeLimiter
}

// newBroadcastFixture sets up an author (ID 100) with three followers.
func newBroadcastFixture(t *testing.T) (*broadcastFixture, *Broadcaster) {
	t.Helper()

	fix := &broadcastFixture{
		queue: NewQueue(zap.NewNop()),
		actors: newFakeActorRepo(
			models.Actor{ID: 100, Handle: "author"},
			models.Actor{ID: 1, Handle: "f1"},
			models.Actor{ID: 2, Handle: "f2"},
			models.Actor{ID: 3, Handle: "f3"},
		),
		sentiments: &fakeSentimentRepo{},
		memory:     newFakeMemory(),
		agent:      &fakeAgent{},
		limiter:    &fakeLimiter{},
	}
	fix.follows = newFakeFollowRepo(fix.actors)
	for _, id := range []uint{1, 2, 3} {
		require.NoError(t, fix.follows.CreateFollow(&models.Follow{FollowerID: id, FollowingID: 100}))
	}
	t.Cleanup(fix.queue.Close)

	b := NewBroadcaster(
		fix.follows, fix.sentiments, fix.memory, fix.agent, fix.limiter, fix.queue, 0, zap.NewNop(),
	)
	return fix, b
}

func broadcastTask(depth int) Task {
	return Task{
		ID:     "bcast",
		Intent: IntentBroadcast,
		Payload: BroadcastArgs{
			ActorID:     100,
			ActorHandle: "author",
			Post:        models.Post{ID: 1, AuthorID: 100, Content: "hi"},
			IntentLabel: "tweet",
			Context:     `@author posted: "hi"`,
			Depth:       depth,
		},
	}
}

func TestFanoutIsolatesFollowerFailures(t *testing.T) {
	fix, b := newBroadcastFixture(t)
	fix.agent.failFor = map[string]bool{"f2": true}

	b.HandleBroadcast(context.Background(), broadcastTask(0))
	fix.queue.Drain()

	assert.Len(t, fix.sentiments.byActor(1), 1, "f1 gets its turn")
	assert.Empty(t, fix.sentiments.byActor(2), "f2 failed")
	assert.Len(t, fix.sentiments.byActor(3), 1, "f3 still gets its turn after f2 failed")
}

func TestRateLimitedFollowerIsSkipped(t *testing.T) {
	fix, b := newBroadcastFixture(t)
	fix.limiter.limited = map[uint]bool{2: true}

	b.HandleBroadcast(context.Background(), broadcastTask(0))
	fix.queue.Drain()

	assert.Len(t, fix.sentiments.byActor(1), 1)
	assert.Empty(t, fix.sentiments.byActor(2), "rate limited follower records nothing")
	assert.Len(t, fix.sentiments.byActor(3), 1)
}

func TestVerdictPersistedWithoutAction(t *testing.T) {
	fix, b := newBroadcastFixture(t)
	fix.agent.decision = &agent.Decision{Verdict: "interesting but not for me"}

	b.HandleBroadcast(context.Background(), broadcastTask(0))
	fix.queue.Drain()

	for _, id := range []uint{1, 2, 3} {
		sentiments := fix.sentiments.byActor(id)
		require.Len(t, sentiments, 1)
		assert.Equal(t, "interesting but not for me", sentiments[0].Verdict)
	}
}

func TestIgnoreSchedulesNothing(t *testing.T) {
	fix, b := newBroadcastFixture(t)
	fix.agent.decision = &agent.Decision{
		Action:  &agent.Action{Type: agent.ActionIgnore, Ignore: &agent.IgnoreParams{Reason: "off topic"}},
		Verdict: "off topic",
	}

	var scheduled []Task
	for _, intent := range []Intent{IntentLike, IntentReply, IntentQuote, IntentRetweet, IntentDND} {
		fix.queue.On(intent, func(_ context.Context, task Task) {
			scheduled = append(scheduled, task)
		})
	}

	b.HandleBroadcast(context.Background(), broadcastTask(0))
	fix.queue.Drain()

	assert.Empty(t, scheduled)
	assert.Len(t, fix.sentiments.byActor(1), 1, "verdict still persisted")
}

func TestMuteSchedulesDNDTask(t *testing.T) {
	fix, b := newBroadcastFixture(t)
	fix.agent.decideFor = map[string]*agent.Decision{
		"f1": {
			Action:  &agent.Action{Type: agent.ActionMute, Mute: &agent.MuteParams{Reason: "too noisy"}},
			Verdict: "too noisy",
		},
	}

	got := make(chan Task, 1)
	fix.queue.On(IntentDND, func(_ context.Context, task Task) { got <- task })

	b.HandleBroadcast(context.Background(), broadcastTask(0))
	fix.queue.Drain()

	select {
	case task := <-got:
		args, ok := task.Payload.(InteractionArgs)
		require.True(t, ok)
		assert.Equal(t, uint(1), args.ActorID)
		assert.Equal(t, "f1", args.ActorHandle)
		assert.Equal(t, 1, args.Depth, "cascade depth advances by one")
	default:
		t.Fatal("expected a DND task for f1")
	}
}

func TestCascadeDepthBound(t *testing.T) {
	fix := &broadcastFixture{
		queue:      NewQueue(zap.NewNop()),
		actors:     newFakeActorRepo(models.Actor{ID: 100, Handle: "author"}, models.Actor{ID: 1, Handle: "f1"}),
		sentiments: &fakeSentimentRepo{},
		memory:     newFakeMemory(),
		agent:      &fakeAgent{},
		limiter:    &fakeLimiter{},
	}
	fix.follows = newFakeFollowRepo(fix.actors)
	require.NoError(t, fix.follows.CreateFollow(&models.Follow{FollowerID: 1, FollowingID: 100}))
	t.Cleanup(fix.queue.Close)

	b := NewBroadcaster(
		fix.follows, fix.sentiments, fix.memory, fix.agent, fix.limiter, fix.queue, 3, zap.NewNop(),
	)

	b.HandleBroadcast(context.Background(), broadcastTask(3))
	fix.queue.Drain()

	assert.Empty(t, fix.sentiments.byActor(1), "broadcast at the depth cap visits nobody")
}
