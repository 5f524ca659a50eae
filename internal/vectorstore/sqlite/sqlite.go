// Package sqlite persists the fragment collection in a SQLite database under
// a directory. Vectors are stored as little-endian float32 blobs and searched
// by brute-force cosine similarity.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/simiyu-dess/OnboardIQ/internal/domain"
	"github.com/simiyu-dess/OnboardIQ/internal/vectorstore"
)

const dbFile = "fragments.db"

const schema = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS fragments (
	id          TEXT PRIMARY KEY,
	document_id TEXT NOT NULL,
	content     TEXT NOT NULL,
	source      TEXT NOT NULL,
	page        INTEGER,
	idx         INTEGER NOT NULL,
	embedding   BLOB NOT NULL
);`

// Storage is a vectorstore.Storage backed by a SQLite file in Dir.
type Storage struct {
	mu        sync.Mutex
	dir       string
	db        *sql.DB
	dimension int
}

// NewStorage returns a store rooted at dir. Nothing touches the disk until Init.
func NewStorage(dir string) *Storage {
	return &Storage{dir: dir}
}

func (s *Storage) path() string { return filepath.Join(s.dir, dbFile) }

// open returns the live handle, opening an existing database file on demand.
// It returns nil without error when no database exists and create is false.
func (s *Storage) open(ctx context.Context, create bool) (*sql.DB, error) {
	if s.db != nil {
		return s.db, nil
	}
	if _, err := os.Stat(s.path()); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		if !create {
			return nil, nil
		}
		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", s.path())
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection serializes writers and keeps the file lock simple.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	var stored int
	err = db.QueryRowContext(ctx, `SELECT CAST(value AS INTEGER) FROM meta WHERE key = 'dimension'`).Scan(&stored)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		_ = db.Close()
		return nil, fmt.Errorf("read dimension: %w", err)
	default:
		s.dimension = stored
	}
	s.db = db
	return db, nil
}

func (s *Storage) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	db, err := s.open(ctx, true)
	if err != nil {
		return err
	}
	if s.dimension != 0 {
		if s.dimension != dimension {
			return fmt.Errorf("collection has dimension %d, got %d", s.dimension, dimension)
		}
		return nil
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO meta(key, value) VALUES ('dimension', ?)`, fmt.Sprint(dimension)); err != nil {
		return fmt.Errorf("write dimension: %w", err)
	}
	s.dimension = dimension
	return nil
}

func (s *Storage) Upsert(ctx context.Context, fragments []domain.Fragment, vectors [][]float64) error {
	if len(fragments) != len(vectors) {
		return errors.New("fragments and vectors length mismatch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	db, err := s.open(ctx, false)
	if err != nil {
		return err
	}
	if db == nil || s.dimension == 0 {
		return vectorstore.ErrNotInitialized
	}
	for _, v := range vectors {
		if len(v) != s.dimension {
			return errors.New("vector dimension mismatch")
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO fragments(id, document_id, content, source, page, idx, embedding) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, f := range fragments {
		var page sql.NullInt64
		if f.Page != nil {
			page = sql.NullInt64{Int64: int64(*f.Page), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, f.ID, f.DocumentID, f.Content, f.Source, page, f.Index, encodeVector(vectors[i])); err != nil {
			return fmt.Errorf("insert %s: %w", f.ID, err)
		}
	}
	return tx.Commit()
}

func (s *Storage) Search(ctx context.Context, vector []float64, topK int) ([]domain.SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	db, err := s.open(ctx, false)
	if err != nil {
		return nil, err
	}
	if db == nil {
		return nil, vectorstore.ErrNotInitialized
	}
	rows, err := db.QueryContext(ctx, `SELECT id, document_id, content, source, page, idx, embedding FROM fragments ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		frags  []domain.Fragment
		scores []float64
	)
	for rows.Next() {
		var (
			f    domain.Fragment
			page sql.NullInt64
			blob []byte
		)
		if err := rows.Scan(&f.ID, &f.DocumentID, &f.Content, &f.Source, &page, &f.Index, &blob); err != nil {
			return nil, err
		}
		if page.Valid {
			p := int(page.Int64)
			f.Page = &p
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("fragment %s: %w", f.ID, err)
		}
		frags = append(frags, f)
		scores = append(scores, vectorstore.Cosine(vec, vector))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	idxs := vectorstore.Rank(scores, topK)
	results := make([]domain.SearchResult, 0, len(idxs))
	for _, j := range idxs {
		results = append(results, domain.SearchResult{Fragment: frags[j], Score: scores[j]})
	}
	return results, nil
}

func (s *Storage) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	db, err := s.open(ctx, false)
	if err != nil || db == nil {
		return 0, err
	}
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fragments`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Storage) Exists(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	db, err := s.open(ctx, false)
	if err != nil {
		return false, err
	}
	return db != nil && s.dimension != 0, nil
}

// Drop closes the database and removes the store directory.
func (s *Storage) Drop(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.closeLocked(); err != nil {
		return err
	}
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("remove %s: %w", s.dir, err)
	}
	return nil
}

// Close releases the database handle. The store reopens on next use.
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

func (s *Storage) closeLocked() error {
	s.dimension = 0
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func encodeVector(v []float64) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(float32(x)))
	}
	return buf
}

func decodeVector(b []byte) ([]float64, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid vector blob length %d", len(b))
	}
	out := make([]float64, len(b)/4)
	for i := range out {
		out[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:])))
	}
	return out, nil
}
