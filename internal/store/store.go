// Package store persists document passages and their embeddings in SQLite
// and serves similarity search over them.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"docqa/internal/embedding"
	"docqa/internal/logging"
)

// Passage is a stored document fragment.
type Passage struct {
	ID        int64
	Content   string
	Source    string
	Score     float64
	CreatedAt time.Time
}

// DocumentStore holds indexed passages in a SQLite database. An optional
// embedding engine enables semantic search; without one, search degrades
// to keyword matching.
type DocumentStore struct {
	db        *sql.DB
	mu        sync.RWMutex
	dbPath    string
	engine    embedding.Engine
	vectorExt bool
}

// NewDocumentStore initializes the SQLite database at the given path.
func NewDocumentStore(path string, engine embedding.Engine) (*DocumentStore, error) {
	timer := logging.StartTimer(logging.CategoryStore, "NewDocumentStore")
	defer timer.Stop()

	logging.Store("Initializing DocumentStore at path: %s", path)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite journal_mode=WAL: %v", err)
	}
	// synchronous=NORMAL is safe with WAL and much faster than FULL.
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite synchronous=NORMAL: %v", err)
	}

	s := &DocumentStore{db: db, dbPath: path, engine: engine}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	s.detectVecExtension()
	if s.vectorExt {
		logging.Store("sqlite-vec extension detected and enabled")
	} else {
		logging.StoreDebug("sqlite-vec extension not available; similarity ranked in-process")
	}

	logging.Store("DocumentStore initialization complete")
	return s, nil
}

// initialize creates the required tables.
func (s *DocumentStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS passages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		content TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		embedding TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_passages_source ON passages(source);

	CREATE TABLE IF NOT EXISTS session_turns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_session_turns_session ON session_turns(session_id);

	CREATE TABLE IF NOT EXISTS session_summaries (
		session_id TEXT PRIMARY KEY,
		summary TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// detectVecExtension attempts to create a vec0 virtual table to see if
// sqlite-vec is available.
func (s *DocumentStore) detectVecExtension() {
	if s.db == nil {
		return
	}
	if _, err := s.db.Exec("CREATE VIRTUAL TABLE IF NOT EXISTS vec_probe USING vec0(embedding float[4])"); err == nil {
		s.vectorExt = true
		_, _ = s.db.Exec("DROP TABLE IF EXISTS vec_probe")
		return
	}
	s.vectorExt = false
}

// AddPassage stores a single passage, embedding it when an engine is
// configured.
func (s *DocumentStore) AddPassage(ctx context.Context, content, source string) error {
	return s.AddPassages(ctx, []string{content}, source)
}

// AddPassages stores a batch of passages under a shared source label.
// Embeddings are generated in one batch call when an engine is configured.
func (s *DocumentStore) AddPassages(ctx context.Context, contents []string, source string) error {
	timer := logging.StartTimer(logging.CategoryStore, "AddPassages")
	defer timer.Stop()

	if len(contents) == 0 {
		return nil
	}

	var vectors [][]float32
	if s.engine != nil {
		var err error
		vectors, err = s.engine.EmbedBatch(ctx, contents)
		if err != nil {
			return fmt.Errorf("failed to embed passages: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("INSERT INTO passages (content, source, embedding) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, content := range contents {
		var embJSON sql.NullString
		if vectors != nil {
			data, merr := json.Marshal(vectors[i])
			if merr != nil {
				return fmt.Errorf("failed to marshal embedding: %w", merr)
			}
			embJSON = sql.NullString{String: string(data), Valid: true}
		}
		if _, err := stmt.Exec(content, source, embJSON); err != nil {
			return fmt.Errorf("failed to insert passage: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	logging.Store("Stored %d passages (source=%s)", len(contents), source)
	return nil
}

// Search returns the k passages most relevant to the query. With an
// embedding engine it ranks by cosine similarity; otherwise it falls back
// to keyword matching.
func (s *DocumentStore) Search(ctx context.Context, query string, k int) ([]Passage, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Search")
	defer timer.Stop()

	if k <= 0 {
		k = 5
	}

	if s.engine == nil {
		return s.KeywordSearch(ctx, query, k)
	}

	queryVec, err := s.engine.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, content, source, embedding, created_at FROM passages WHERE embedding IS NOT NULL")
	if err != nil {
		return nil, fmt.Errorf("search query failed: %w", err)
	}
	defer rows.Close()

	var passages []Passage
	var corpus [][]float32
	for rows.Next() {
		var p Passage
		var embJSON string
		if err := rows.Scan(&p.ID, &p.Content, &p.Source, &embJSON, &p.CreatedAt); err != nil {
			continue
		}
		var vec []float32
		if err := json.Unmarshal([]byte(embJSON), &vec); err != nil {
			logging.StoreDebug("Skipping passage %d with unreadable embedding: %v", p.ID, err)
			continue
		}
		passages = append(passages, p)
		corpus = append(corpus, vec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search scan failed: %w", err)
	}

	results, err := embedding.FindTopK(queryVec, corpus, k)
	if err != nil {
		return nil, err
	}

	out := make([]Passage, 0, len(results))
	for _, r := range results {
		p := passages[r.Index]
		p.Score = r.Similarity
		out = append(out, p)
	}

	logging.StoreDebug("Search returned %d of %d candidate passages", len(out), len(passages))
	return out, nil
}

// KeywordSearch matches passages containing any query keyword, newest first.
func (s *DocumentStore) KeywordSearch(ctx context.Context, query string, limit int) ([]Passage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 5
	}

	keywords := strings.Fields(strings.ToLower(query))
	if len(keywords) == 0 {
		return nil, nil
	}

	var conditions []string
	var args []interface{}
	for _, kw := range keywords {
		conditions = append(conditions, "LOWER(content) LIKE ?")
		args = append(args, "%"+kw+"%")
	}

	sqlQuery := fmt.Sprintf(
		"SELECT id, content, source, created_at FROM passages WHERE %s ORDER BY created_at DESC LIMIT ?",
		strings.Join(conditions, " OR "),
	)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}
	defer rows.Close()

	var results []Passage
	for rows.Next() {
		var p Passage
		if err := rows.Scan(&p.ID, &p.Content, &p.Source, &p.CreatedAt); err != nil {
			continue
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

// Count returns the number of stored passages.
func (s *DocumentStore) Count() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM passages").Scan(&count)
	return count, err
}

// Sources returns the distinct source labels in the store.
func (s *DocumentStore) Sources() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT DISTINCT source FROM passages ORDER BY source")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []string
	for rows.Next() {
		var src string
		if err := rows.Scan(&src); err != nil {
			continue
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// DeleteSource removes all passages under a source label. Returns the
// number of passages removed.
func (s *DocumentStore) DeleteSource(ctx context.Context, source string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM passages WHERE source = ?", source)
	if err != nil {
		return 0, fmt.Errorf("failed to delete source %s: %w", source, err)
	}
	return res.RowsAffected()
}

// Close closes the database connection.
func (s *DocumentStore) Close() error {
	logging.Store("Closing DocumentStore database connection")
	return s.db.Close()
}
