package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"rustdocs/internal/model"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB

	mu    sync.RWMutex
	runID string
}

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at INTEGER,
			targets JSON
		);`,
		`CREATE TABLE IF NOT EXISTS docs (
			key TEXT PRIMARY KEY,
			run_id TEXT,
			kind TEXT,
			fqpath TEXT,
			file TEXT,
			signature TEXT,
			answer TEXT,
			created_at INTEGER
		);`,
		`CREATE INDEX IF NOT EXISTS idx_docs_run ON docs(run_id);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) BeginRun(ctx context.Context, targets []string) (string, error) {
	id := uuid.NewString()
	encoded, err := json.Marshal(targets)
	if err != nil {
		return "", err
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO runs (id, started_at, targets) VALUES (?, ?, ?)`,
		id, time.Now().UnixMilli(), string(encoded)); err != nil {
		return "", fmt.Errorf("failed to record run: %w", err)
	}

	s.mu.Lock()
	s.runID = id
	s.mu.Unlock()
	return id, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	var answer string
	err := s.db.QueryRowContext(ctx, `SELECT answer FROM docs WHERE key = ?`, key).Scan(&answer)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return answer, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, key string, item *model.Item, answer string) error {
	s.mu.RLock()
	runID := s.runID
	s.mu.RUnlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO docs (key, run_id, kind, fqpath, file, signature, answer, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			run_id=excluded.run_id,
			kind=excluded.kind,
			fqpath=excluded.fqpath,
			file=excluded.file,
			signature=excluded.signature,
			answer=excluded.answer,
			created_at=excluded.created_at
	`, key, runID, string(item.Kind), item.FQPath, item.File, item.Signature, answer, time.Now().UnixMilli())
	return err
}

// ListRuns returns all runs, newest first, with the number of answers each
// one stored.
func (s *SQLiteStore) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.started_at, r.targets, COUNT(d.key)
		FROM runs r LEFT JOIN docs d ON d.run_id = r.id
		GROUP BY r.id
		ORDER BY r.started_at DESC, r.rowid DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r       Run
			started int64
			targets string
		)
		if err := rows.Scan(&r.ID, &started, &targets, &r.Answers); err != nil {
			return nil, err
		}
		r.StartedAt = time.UnixMilli(started)
		if err := json.Unmarshal([]byte(targets), &r.Targets); err != nil {
			return nil, fmt.Errorf("run %s: bad targets: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
