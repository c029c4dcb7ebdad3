// Package transcript keeps a SQLite record of every chat exchange made by
// the rgi client. It implements llm.Recorder.
package transcript

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/luckenco/rgi/llm"
)

var (
	ErrNotFound  = errors.New("transcript: not found")
	ErrAmbiguous = errors.New("transcript: id prefix matches more than one entry")
)

// Store is safe for concurrent use; sql.DB does the pooling.
type Store struct {
	db *sql.DB
}

var _ llm.Recorder = (*Store)(nil)

// Open opens or creates the database at path, creating parent directories.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("transcript: create directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("transcript: open: %w", err)
	}
	return newStore(db)
}

// OpenInMemory returns a store that lives as long as the process. Useful for tests.
func OpenInMemory() (*Store, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("transcript: open: %w", err)
	}
	// every new connection would get its own empty database
	db.SetMaxOpenConns(1)
	return newStore(db)
}

func newStore(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	const schema = `
		CREATE TABLE IF NOT EXISTS exchanges (
			id TEXT PRIMARY KEY,
			provider TEXT NOT NULL,
			model TEXT NOT NULL,
			stream INTEGER NOT NULL,
			request BLOB,
			response BLOB,
			content TEXT NOT NULL,
			reasoning TEXT NOT NULL,
			finish_reason TEXT NOT NULL,
			prompt_tokens INTEGER NOT NULL,
			completion_tokens INTEGER NOT NULL,
			total_tokens INTEGER NOT NULL,
			error TEXT NOT NULL,
			error_category TEXT NOT NULL,
			started_at INTEGER NOT NULL,
			duration_ns INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_exchanges_started
		ON exchanges(started_at DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("transcript: create schema: %w", err)
	}
	return nil
}

// Entry is a stored exchange.
type Entry struct {
	ID       string
	Provider string
	Model    string
	Stream   bool

	// Request and Response are only loaded by Get.
	Request  []byte
	Response []byte

	Content      string
	Reasoning    string
	FinishReason string

	PromptTokens     int
	CompletionTokens int
	TotalTokens      int

	Error         string
	ErrorCategory string

	StartedAt time.Time
	Duration  time.Duration
}

// Record stores ex. An exchange without an ID gets a fresh one.
func (s *Store) Record(ctx context.Context, ex llm.Exchange) error {
	id := ex.ID
	if id == "" {
		id = uuid.NewString()
	}
	var prompt, completion, total int
	if ex.Usage != nil {
		prompt, completion, total = ex.Usage.PromptTokens, ex.Usage.CompletionTokens, ex.Usage.TotalTokens
	}
	var errText, category string
	if ex.Err != nil {
		errText = ex.Err.Error()
		category = string(llm.CategoryOf(ex.Err))
	}
	started := ex.Started
	if started.IsZero() {
		started = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO exchanges (
			id, provider, model, stream, request, response,
			content, reasoning, finish_reason,
			prompt_tokens, completion_tokens, total_tokens,
			error, error_category, started_at, duration_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, ex.Provider, ex.Model, ex.Stream, ex.Request, ex.Response,
		ex.Content, ex.Reasoning, string(ex.FinishReason),
		prompt, completion, total,
		errText, category, started.UnixNano(), int64(ex.Duration),
	)
	if err != nil {
		return fmt.Errorf("transcript: insert %s: %w", id, err)
	}
	return nil
}

const summaryColumns = `id, provider, model, stream, content, reasoning, finish_reason,
	prompt_tokens, completion_tokens, total_tokens, error, error_category, started_at, duration_ns`

// List returns up to limit entries, newest first. A non-positive limit
// means 20.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+summaryColumns+` FROM exchanges ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("transcript: list: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("transcript: list: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("transcript: list: %w", err)
	}
	return out, nil
}

// Get loads one entry with its bodies. id may be a unique prefix.
func (s *Store) Get(ctx context.Context, id string) (Entry, error) {
	if id == "" {
		return Entry{}, ErrNotFound
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+summaryColumns+`, request, response FROM exchanges WHERE substr(id, 1, length(?)) = ? LIMIT 2`,
		id, id)
	if err != nil {
		return Entry{}, fmt.Errorf("transcript: get %s: %w", id, err)
	}
	defer rows.Close()

	var found []Entry
	for rows.Next() {
		var e Entry
		var stream int
		var started, dur int64
		if err := rows.Scan(&e.ID, &e.Provider, &e.Model, &stream, &e.Content, &e.Reasoning, &e.FinishReason,
			&e.PromptTokens, &e.CompletionTokens, &e.TotalTokens, &e.Error, &e.ErrorCategory, &started, &dur,
			&e.Request, &e.Response); err != nil {
			return Entry{}, fmt.Errorf("transcript: get %s: %w", id, err)
		}
		e.Stream = stream != 0
		e.StartedAt = time.Unix(0, started)
		e.Duration = time.Duration(dur)
		if e.ID == id {
			return e, nil
		}
		found = append(found, e)
	}
	if err := rows.Err(); err != nil {
		return Entry{}, fmt.Errorf("transcript: get %s: %w", id, err)
	}
	switch len(found) {
	case 0:
		return Entry{}, ErrNotFound
	case 1:
		return found[0], nil
	}
	return Entry{}, ErrAmbiguous
}

func scanSummary(rows *sql.Rows) (Entry, error) {
	var e Entry
	var stream int
	var started, dur int64
	err := rows.Scan(&e.ID, &e.Provider, &e.Model, &stream, &e.Content, &e.Reasoning, &e.FinishReason,
		&e.PromptTokens, &e.CompletionTokens, &e.TotalTokens, &e.Error, &e.ErrorCategory, &started, &dur)
	if err != nil {
		return Entry{}, err
	}
	e.Stream = stream != 0
	e.StartedAt = time.Unix(0, started)
	e.Duration = time.Duration(dur)
	return e, nil
}
