// Package sqlite keeps an index build in an embedded SQLite database
// (modernc.org/sqlite, no cgo). Vectors are stored as little-endian float64
// blobs and ranked by cosine similarity in Go.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"scriptsum/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS chunk_vectors (
	build_id    TEXT    NOT NULL,
	chunk_id    TEXT    NOT NULL,
	document_id TEXT    NOT NULL,
	idx         INTEGER NOT NULL,
	text        TEXT    NOT NULL,
	embedding   BLOB    NOT NULL,
	PRIMARY KEY (build_id, chunk_id)
);`

// Storage is one index build inside a SQLite database.
type Storage struct {
	db        *sql.DB
	ownsDB    bool
	buildID   string
	dimension int
}

// Open opens dsn (":memory:" for a private in-memory database) and returns a
// Storage that closes the database on Close.
func Open(dsn string) (*Storage, error) {
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection so ":memory:" is a single database
	db.SetMaxOpenConns(1)
	s := New(db)
	s.ownsDB = true
	return s, nil
}

// New returns a Storage for a new build inside an existing database.
func New(db *sql.DB) *Storage {
	return &Storage{db: db, buildID: uuid.NewString()}
}

func (s *Storage) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	s.dimension = dimension
	return s.Clear(ctx)
}

func (s *Storage) Upsert(ctx context.Context, chunks []domain.Chunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	if s.dimension == 0 {
		return errors.New("storage not initialized")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO chunk_vectors (build_id, chunk_id, document_id, idx, text, embedding)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (build_id, chunk_id) DO UPDATE SET
			document_id = excluded.document_id, idx = excluded.idx,
			text = excluded.text, embedding = excluded.embedding`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, c := range chunks {
		if len(vectors[i]) != s.dimension {
			return errors.New("vector dimension mismatch")
		}
		if _, err := stmt.ExecContext(ctx, s.buildID, c.ChunkID, c.DocumentID, c.Index, c.Text, encode(vectors[i])); err != nil {
			return fmt.Errorf("insert chunk %s: %w", c.ChunkID, err)
		}
	}
	return tx.Commit()
}

func (s *Storage) Search(ctx context.Context, vector []float64, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = 4
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT chunk_id, document_id, idx, text, embedding FROM chunk_vectors WHERE build_id = ? ORDER BY idx`, s.buildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	qn := norm(vector)
	var results []domain.SearchResult
	for rows.Next() {
		var c domain.Chunk
		var blob []byte
		if err := rows.Scan(&c.ChunkID, &c.DocumentID, &c.Index, &c.Text, &blob); err != nil {
			return nil, err
		}
		v := decode(blob)
		score := 0.0
		if n := norm(v); n > 0 && qn > 0 {
			score = dot(v, vector) / (n * qn)
		}
		results = append(results, domain.SearchResult{Chunk: c, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (s *Storage) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chunk_vectors WHERE build_id = ?`, s.buildID)
	return err
}

// Close removes this build's rows, and closes the database if Open created it.
func (s *Storage) Close() error {
	if s.ownsDB {
		return s.db.Close()
	}
	if s.dimension == 0 {
		return nil
	}
	return s.Clear(context.Background())
}

func encode(v []float64) []byte {
	buf := make([]byte, 8*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(x))
	}
	return buf
}

func decode(b []byte) []float64 {
	v := make([]float64, len(b)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[8*i:]))
	}
	return v
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func norm(v []float64) float64 { return math.Sqrt(dot(v, v)) }
