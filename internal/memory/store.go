package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

func init() {
	// Register the sqlite-vec extension with the mattn/go-sqlite3 driver.
	vec.Auto()
}

// ErrIndexNotFound reports that an actor has no embedding index yet. It is a
// typed sentinel so callers never have to pattern-match error text.
var ErrIndexNotFound = errors.New("embedding index not found")

// Record is one embedded interaction summary. Field order is stable:
// {url, type, text, username, timestamp} is the schema the index writes on
// every insert and schema drift across writes is not tolerated.
type Record struct {
	URL       string
	Type      string
	Text      string
	Username  string
	Timestamp time.Time
}

// Snippet is a Record returned from similarity search together with its
// cosine distance to the query (smaller is closer).
type Snippet struct {
	Record
	Distance float64
}

// Embedder converts text into an embedding vector.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Store keeps one similarity-searchable index per actor handle, backed by
// SQLite with the sqlite-vec extension. Indexes are created lazily on first
// insert.
type Store struct {
	db       *sql.DB
	embedder Embedder
	dims     int
	mu       sync.Mutex
	logger   *zap.Logger
}

// NewStore opens (or creates) the SQLite database at path
func NewStore(path string, embedder Embedder, dims int, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open memory database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping memory database: %w", err)
	}
	return &Store{db: db, embedder: embedder, dims: dims, logger: logger}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert embeds the record text and stores it in the actor's index, creating
// the index on first use.
func (s *Store) Insert(ctx context.Context, handle string, rec Record) error {
	embedding, err := s.embedder.EmbedText(ctx, rec.Text)
	if err != nil {
		return fmt.Errorf("failed to embed text for %s: %w", handle, err)
	}
	blob, err := vec.SerializeFloat32(embedding)
	if err != nil {
		return fmt.Errorf("failed to serialize embedding: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.indexExists(handle)
	if err != nil {
		return err
	}
	if !exists {
		if err := s.createIndex(handle); err != nil {
			return err
		}
		s.logger.Info("created embedding index", zap.String("handle", handle))
	}

	meta, vtab := tableNames(handle)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin memory transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (url, type, text, username, timestamp) VALUES (?, ?, ?, ?, ?)", meta),
		rec.URL, rec.Type, rec.Text, rec.Username, rec.Timestamp.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert record for %s: %w", handle, err)
	}
	rowID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted row id: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (rowid, embedding) VALUES (?, ?)", vtab),
		rowID, blob,
	); err != nil {
		return fmt.Errorf("failed to insert embedding for %s: %w", handle, err)
	}
	return tx.Commit()
}

// Search embeds the query and returns the k nearest records from the actor's
// index, closest first. Returns ErrIndexNotFound when the actor has no index
// yet.
func (s *Store) Search(ctx context.Context, handle, query string, k int) ([]Snippet, error) {
	if k <= 0 {
		k = 10
	}

	s.mu.Lock()
	exists, err := s.indexExists(handle)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("no index for %s: %w", handle, ErrIndexNotFound)
	}

	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query for %s: %w", handle, err)
	}
	blob, err := vec.SerializeFloat32(embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize query embedding: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	meta, vtab := tableNames(handle)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT m.url, m.type, m.text, m.username, m.timestamp, v.distance
		FROM %s v JOIN %s m ON m.id = v.rowid
		WHERE v.embedding MATCH ? AND v.k = ?
		ORDER BY v.distance`, vtab, meta),
		blob, k,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search index for %s: %w", handle, err)
	}
	defer rows.Close()

	var snippets []Snippet
	for rows.Next() {
		var snip Snippet
		var ts string
		if err := rows.Scan(&snip.URL, &snip.Type, &snip.Text, &snip.Username, &ts, &snip.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan search row: %w", err)
		}
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			snip.Timestamp = parsed
		}
		snippets = append(snippets, snip)
	}
	return snippets, rows.Err()
}

// indexExists checks sqlite_master for the actor's metadata table instead of
// interpreting "no such table" driver errors.
func (s *Store) indexExists(handle string) (bool, error) {
	meta, _ := tableNames(handle)
	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", meta,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check index existence for %s: %w", handle, err)
	}
	return count > 0, nil
}

func (s *Store) createIndex(handle string) error {
	meta, vtab := tableNames(handle)
	if _, err := s.db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			url TEXT NOT NULL,
			type TEXT NOT NULL,
			text TEXT NOT NULL,
			username TEXT NOT NULL,
			timestamp TEXT NOT NULL
		)`, meta)); err != nil {
		return fmt.Errorf("failed to create index table for %s: %w", handle, err)
	}
	if _, err := s.db.Exec(fmt.Sprintf(
		"CREATE VIRTUAL TABLE IF NOT EXISTS %s USING vec0(embedding float[%d])", vtab, s.dims,
	)); err != nil {
		return fmt.Errorf("failed to create vector table for %s: %w", handle, err)
	}
	return nil
}

// tableNames maps an actor handle to its metadata and vector table names.
// Handles are sanitized to a safe identifier charset before being spliced
// into SQL.
func tableNames(handle string) (string, string) {
	base := "mem_" + sanitizeHandle(handle)
	return base, base + "_vec"
}

func sanitizeHandle(handle string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(handle) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
