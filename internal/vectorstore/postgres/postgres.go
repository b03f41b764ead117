// Package postgres stores index builds in PostgreSQL with the pgvector
// extension and ranks chunks with the cosine distance operator.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"scriptsum/internal/domain"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Storage is one index build in a shared pgvector table.
type Storage struct {
	db        *sql.DB
	table     string
	buildID   string
	dimension int
}

// OpenDB opens a PostgreSQL connection pool through lib/pq.
func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// New returns a Storage for a new build in table.
func New(db *sql.DB, table string) (*Storage, error) {
	if table == "" {
		table = "script_chunks"
	}
	if !identPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Storage{db: db, table: table, buildID: uuid.NewString()}, nil
}

func (s *Storage) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			build_id    UUID   NOT NULL,
			chunk_id    TEXT   NOT NULL,
			document_id TEXT   NOT NULL,
			idx         INT    NOT NULL,
			text        TEXT   NOT NULL,
			embedding   vector NOT NULL,
			PRIMARY KEY (build_id, chunk_id)
		)`, s.table),
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("init pgvector: %w", err)
		}
	}
	s.dimension = dimension
	return nil
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
	q := fmt.Sprintf(`INSERT INTO %s (build_id, chunk_id, document_id, idx, text, embedding)
		VALUES ($1, $2, $3, $4, $5, $6::vector)
		ON CONFLICT (build_id, chunk_id) DO UPDATE SET
			document_id = EXCLUDED.document_id, idx = EXCLUDED.idx,
			text = EXCLUDED.text, embedding = EXCLUDED.embedding`, s.table)
	for i, c := range chunks {
		if len(vectors[i]) != s.dimension {
			return errors.New("vector dimension mismatch")
		}
		if _, err := tx.ExecContext(ctx, q, s.buildID, c.ChunkID, c.DocumentID, c.Index, c.Text, VectorLiteral(vectors[i])); err != nil {
			return fmt.Errorf("insert chunk %s: %w", c.ChunkID, err)
		}
	}
	return tx.Commit()
}

func (s *Storage) Search(ctx context.Context, vector []float64, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = 4
	}
	q := fmt.Sprintf(`SELECT chunk_id, document_id, idx, text, 1 - (embedding <=> $1::vector) AS score
		FROM %s WHERE build_id = $2
		ORDER BY embedding <=> $1::vector
		LIMIT $3`, s.table)
	rows, err := s.db.QueryContext(ctx, q, VectorLiteral(vector), s.buildID, topK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []domain.SearchResult
	for rows.Next() {
		var r domain.SearchResult
		var score sql.NullFloat64
		if err := rows.Scan(&r.Chunk.ChunkID, &r.Chunk.DocumentID, &r.Chunk.Index, &r.Chunk.Text, &score); err != nil {
			return nil, err
		}
		r.Score = score.Float64
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *Storage) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE build_id = $1`, s.table), s.buildID)
	return err
}

// Close removes this build's rows. The pool belongs to the caller.
func (s *Storage) Close() error {
	if s.dimension == 0 {
		return nil
	}
	return s.Clear(context.Background())
}

// VectorLiteral formats v in pgvector's text input form, e.g. "[1,0.5,-2]".
func VectorLiteral(v []float64) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, x := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
	}
	b.WriteByte(']')
	return b.String()
}
