package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/anonto42/persona-sim/backend/internal/agent"
	"github.com/anonto42/persona-sim/backend/internal/memory"
	"github.com/anonto42/persona-sim/backend/internal/models"
	"github.com/anonto42/persona-sim/backend/internal/ratelimit"
)

// In-memory fakes over the repository interfaces, shared by the engine
// tests.

type fakeActorRepo struct {
	mu     sync.Mutex
	actors map[uint]models.Actor
}

func newFakeActorRepo(actors ...models.Actor) *fakeActorRepo {
	repo := &fakeActorRepo{actors: make(map[uint]models.Actor)}
	for _, a := range actors {
		repo.actors[a.ID] = a
	}
	return repo
}

func (r *fakeActorRepo) CreateActor(actor *models.Actor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actors[actor.ID] = *actor
	return nil
}

func (r *fakeActorRepo) GetActorByID(id uint) (*models.Actor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	actor, ok := r.actors[id]
	if !ok {
		return nil, fmt.Errorf("actor %d not found", id)
	}
	return &actor, nil
}

func (r *fakeActorRepo) GetActorByHandle(handle string) (*models.Actor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, actor := range r.actors {
		if actor.Handle == handle {
			a := actor
			return &a, nil
		}
	}
	return nil, fmt.Errorf("actor %q not found", handle)
}

func (r *fakeActorRepo) GetActors() ([]models.Actor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Actor
	for _, actor := range r.actors {
		out = append(out, actor)
	}
	return out, nil
}

type fakePostRepo struct {
	mu     sync.Mutex
	nextID uint
	posts  map[uint]models.Post
}

func newFakePostRepo(posts ...models.Post) *fakePostRepo {
	repo := &fakePostRepo{posts: make(map[uint]models.Post), nextID: 1}
	for _, p := range posts {
		repo.posts[p.ID] = p
		if p.ID >= repo.nextID {
			repo.nextID = p.ID + 1
		}
	}
	return repo
}

func (r *fakePostRepo) CreatePost(post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	post.ID = r.nextID
	r.nextID++
	post.CreatedAt = time.Now()
	r.posts[post.ID] = *post
	return nil
}

func (r *fakePostRepo) CreatePostAndIncrementParent(post *models.Post, parentID uint, counter string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	parent, ok := r.posts[parentID]
	if !ok {
		return fmt.Errorf("parent post %d not found", parentID)
	}
	post.ID = r.nextID
	r.nextID++
	post.CreatedAt = time.Now()
	r.posts[post.ID] = *post
	switch counter {
	case "reply_count":
		parent.ReplyCount++
	case "quote_count":
		parent.QuoteCount++
	default:
		return fmt.Errorf("unknown counter %q", counter)
	}
	r.posts[parentID] = parent
	return nil
}

func (r *fakePostRepo) GetPostByID(id uint) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return nil, fmt.Errorf("post %d not found", id)
	}
	return &post, nil
}

func (r *fakePostRepo) GetPostsByAuthorID(authorID uint, limit int) ([]models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Post
	for _, post := range r.posts {
		if post.AuthorID == authorID {
			out = append(out, post)
		}
	}
	return out, nil
}

func (r *fakePostRepo) GetAncestry(id uint, maxDepth int) ([]models.Post, error) {
	var chain []models.Post
	next := &id
	for depth := 0; next != nil && depth <= maxDepth; depth++ {
		post, err := r.GetPostByID(*next)
		if err != nil {
			return nil, err
		}
		chain = append(chain, *post)
		switch {
		case post.ReplyToID != nil:
			next = post.ReplyToID
		case post.QuoteOfID != nil:
			next = post.QuoteOfID
		default:
			next = nil
		}
	}
	return chain, nil
}

func (r *fakePostRepo) incrementCounter(postID uint, kind models.ReactionKind) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[postID]
	if !ok {
		return fmt.Errorf("post %d not found", postID)
	}
	switch kind {
	case models.ReactionFavorite:
		post.FavoriteCount++
	case models.ReactionRepost:
		post.RepostCount++
	}
	r.posts[postID] = post
	return nil
}

type fakeReactionRepo struct {
	mu        sync.Mutex
	nextID    uint
	reactions []models.Reaction
	posts     *fakePostRepo
}

func newFakeReactionRepo(posts *fakePostRepo) *fakeReactionRepo {
	return &fakeReactionRepo{posts: posts, nextID: 1}
}

func (r *fakeReactionRepo) HasReaction(kind models.ReactionKind, actorID, postID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reaction := range r.reactions {
		if reaction.Kind == kind && reaction.ActorID == actorID && reaction.PostID == postID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeReactionRepo) CreateReactionAndIncrement(reaction *models.Reaction) error {
	if err := r.posts.incrementCounter(reaction.PostID, reaction.Kind); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	reaction.ID = r.nextID
	r.nextID++
	reaction.CreatedAt = time.Now()
	r.reactions = append(r.reactions, *reaction)
	return nil
}

func (r *fakeReactionRepo) GetReactionsByPostID(postID uint) ([]models.Reaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Reaction
	for _, reaction := range r.reactions {
		if reaction.PostID == postID {
			out = append(out, reaction)
		}
	}
	return out, nil
}

type fakeFollowRepo struct {
	mu      sync.Mutex
	follows []models.Follow
	actors  *fakeActorRepo
}

func newFakeFollowRepo(actors *fakeActorRepo) *fakeFollowRepo {
	return &fakeFollowRepo{actors: actors}
}

func (r *fakeFollowRepo) CreateFollow(follow *models.Follow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.follows = append(r.follows, *follow)
	return nil
}

func (r *fakeFollowRepo) DeleteFollow(followerID, followingID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, f := range r.follows {
		if f.FollowerID == followerID && f.FollowingID == followingID {
			r.follows = append(r.follows[:i], r.follows[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("follow relationship not found")
}

func (r *fakeFollowRepo) IsFollowing(followerID, followingID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.follows {
		if f.FollowerID == followerID && f.FollowingID == followingID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeFollowRepo) GetFollowers(actorID uint) ([]models.Actor, error) {
	r.mu.Lock()
	ids := []uint{}
	for _, f := range r.follows {
		if f.FollowingID == actorID {
			ids = append(ids, f.FollowerID)
		}
	}
	r.mu.Unlock()

	var out []models.Actor
	for _, id := range ids {
		actor, err := r.actors.GetActorByID(id)
		if err != nil {
			return nil, err
		}
		out = append(out, *actor)
	}
	return out, nil
}

func (r *fakeFollowRepo) GetFollowing(actorID uint) ([]models.Actor, error) {
	r.mu.Lock()
	ids := []uint{}
	for _, f := range r.follows {
		if f.FollowerID == actorID {
			ids = append(ids, f.FollowingID)
		}
	}
	r.mu.Unlock()

	var out []models.Actor
	for _, id := range ids {
		actor, err := r.actors.GetActorByID(id)
		if err != nil {
			return nil, err
		}
		out = append(out, *actor)
	}
	return out, nil
}

func (r *fakeFollowRepo) GetFollowersCount(actorID uint) (int64, error) {
	followers, err := r.GetFollowers(actorID)
	return int64(len(followers)), err
}

func (r *fakeFollowRepo) GetFollowingCount(actorID uint) (int64, error) {
	following, err := r.GetFollowing(actorID)
	return int64(len(following)), err
}

type fakeSentimentRepo struct {
	mu         sync.Mutex
	sentiments []models.Sentiment
}

func (r *fakeSentimentRepo) CreateSentiment(_ context.Context, sentiment *models.Sentiment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sentiment.CreatedAt.IsZero() {
		sentiment.CreatedAt = time.Now().UTC()
	}
	r.sentiments = append(r.sentiments, *sentiment)
	return nil
}

func (r *fakeSentimentRepo) GetSentimentsByActorID(_ context.Context, actorID uint, limit int64) ([]models.Sentiment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Sentiment
	for _, s := range r.sentiments {
		if s.ActorID == actorID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSentimentRepo) CountSentimentsSince(_ context.Context, actorID uint, since time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, s := range r.sentiments {
		if s.ActorID == actorID && !s.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *fakeSentimentRepo) byActor(actorID uint) []models.Sentiment {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Sentiment
	for _, s := range r.sentiments {
		if s.ActorID == actorID {
			out = append(out, s)
		}
	}
	return out
}

// fakeMemory records inserts and serves canned snippets. Search returns
// memory.ErrIndexNotFound until the handle has at least one insert.
type fakeMemory struct {
	mu      sync.Mutex
	records map[string][]memory.Record
}

func newFakeMemory() *fakeMemory {
	return &fakeMemory{records: make(map[string][]memory.Record)}
}

func (m *fakeMemory) Insert(_ context.Context, handle string, rec memory.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[handle] = append(m.records[handle], rec)
	return nil
}

func (m *fakeMemory) Search(_ context.Context, handle, query string, k int) ([]memory.Snippet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	recs, ok := m.records[handle]
	if !ok {
		return nil, memory.ErrIndexNotFound
	}
	var out []memory.Snippet
	for i, rec := range recs {
		if i >= k {
			break
		}
		out = append(out, memory.Snippet{Record: rec})
	}
	return out, nil
}

func (m *fakeMemory) inserted(handle string) []memory.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]memory.Record(nil), m.records[handle]...)
}

// fakeAgent returns a fixed decision, or an error for handles listed in
// failFor. Rewrite echoes the draft with a prefix unless rewriteErr is set.
type fakeAgent struct {
	mu         sync.Mutex
	decision   *agent.Decision
	decideFor  map[string]*agent.Decision
	failFor    map[string]bool
	rewriteErr error
	stimuli    []agent.Stimulus
}

func (a *fakeAgent) Decide(_ context.Context, stim agent.Stimulus) (*agent.Decision, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stimuli = append(a.stimuli, stim)
	if a.failFor[stim.Handle] {
		return nil, fmt.Errorf("agent blew up for %s", stim.Handle)
	}
	if d, ok := a.decideFor[stim.Handle]; ok {
		return d, nil
	}
	if a.decision != nil {
		return a.decision, nil
	}
	return &agent.Decision{Verdict: "meh"}, nil
}

func (a *fakeAgent) Rewrite(_ context.Context, req agent.RewriteRequest) (string, error) {
	if a.rewriteErr != nil {
		return "", a.rewriteErr
	}
	return "[" + req.Handle + "] " + req.Draft, nil
}

// fakeLimiter rate-limits the actor IDs in the limited set.
type fakeLimiter struct {
	mu      sync.Mutex
	limited map[uint]bool
	err     error
}

func (l *fakeLimiter) Consume(_ context.Context, actorID uint) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	if l.limited[actorID] {
		return fmt.Errorf("actor %d: %w", actorID, ratelimit.ErrRateLimited)
	}
	return nil
}
