package memory

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testDims = 4

// hashEmbedder produces deterministic vectors so nearest-neighbour order is
// predictable without a model: identical texts embed identically and texts
// sharing a first byte land close together.
type hashEmbedder struct{}

func (hashEmbedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, testDims)
	for i, r := range text {
		v[i%testDims] += float32(r) / 1000
	}
	return v, nil
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "memory.db")
	store, err := NewStore(path, hashEmbedder{}, testDims, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSearchBeforeInsertReturnsTypedError(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Search(context.Background(), "ada", "anything", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIndexNotFound)
}

func TestInsertThenSearch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	records := []Record{
		{URL: "sim://posts/1", Type: "favorite", Text: "liked a post about compilers", Username: "ada", Timestamp: now},
		{URL: "sim://posts/2", Type: "reply", Text: "replied about gardening tips", Username: "ada", Timestamp: now.Add(time.Minute)},
	}
	for _, rec := range records {
		require.NoError(t, store.Insert(ctx, "ada", rec))
	}

	snippets, err := store.Search(ctx, "ada", "liked a post about compilers", 2)
	require.NoError(t, err)
	require.Len(t, snippets, 2)

	closest := snippets[0]
	assert.Equal(t, "sim://posts/1", closest.URL)
	assert.Equal(t, "favorite", closest.Type)
	assert.Equal(t, "ada", closest.Username)
	assert.True(t, closest.Timestamp.Equal(now))
	assert.LessOrEqual(t, closest.Distance, snippets[1].Distance)
}

func TestIndexesAreIsolatedPerHandle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, "ada", Record{
		URL: "sim://posts/1", Type: "favorite", Text: "hello", Username: "ada", Timestamp: time.Now(),
	}))

	_, err := store.Search(ctx, "grace", "hello", 5)
	assert.ErrorIs(t, err, ErrIndexNotFound, "grace has no index of her own")

	snippets, err := store.Search(ctx, "ada", "hello", 5)
	require.NoError(t, err)
	assert.Len(t, snippets, 1)
}

func TestSearchCapsDefaultK(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, "ada", Record{
		URL: "sim://posts/1", Type: "tweet", Text: "one", Username: "ada", Timestamp: time.Now(),
	}))

	snippets, err := store.Search(ctx, "ada", "one", 0)
	require.NoError(t, err)
	assert.Len(t, snippets, 1)
}

func TestSanitizeHandle(t *testing.T) {
	meta, vtab := tableNames("Ada-Lovelace.42")
	assert.Equal(t, "mem_ada_lovelace_42", meta)
	assert.Equal(t, "mem_ada_lovelace_42_vec", vtab)
}
