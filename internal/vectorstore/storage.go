package vectorstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"scriptsum/internal/config"
	"scriptsum/internal/domain"
	"scriptsum/internal/vectorstore/memory"
	"scriptsum/internal/vectorstore/postgres"
	"scriptsum/internal/vectorstore/qdrant"
	"scriptsum/internal/vectorstore/sqlite"
)

// Factory creates an empty store for one index build.
type Factory func(ctx context.Context) (domain.VectorStore, error)

// NewFactory selects the store implementation from cfg. The returned cleanup
// releases shared resources such as connection pools.
func NewFactory(ctx context.Context, cfg config.VectorStoreConfig) (Factory, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Type {
	case "memory", "":
		return func(context.Context) (domain.VectorStore, error) {
			return memory.NewStorage(), nil
		}, noop, nil
	case "sqlite":
		dsn := ":memory:"
		if cfg.SQLite != nil && cfg.SQLite.DSN != "" {
			dsn = cfg.SQLite.DSN
		}
		if dsn == ":memory:" {
			// private database per build
			return func(context.Context) (domain.VectorStore, error) {
				return sqlite.Open(dsn)
			}, noop, nil
		}
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		db.SetMaxOpenConns(1)
		return func(context.Context) (domain.VectorStore, error) {
			return sqlite.New(db), nil
		}, db.Close, nil
	case "qdrant":
		if cfg.Qdrant == nil {
			return nil, nil, fmt.Errorf("qdrant config missing")
		}
		qcfg := qdrant.Config{
			URL:              cfg.Qdrant.URL,
			APIKey:           cfg.Qdrant.APIKey,
			CollectionPrefix: cfg.Qdrant.CollectionPrefix,
			Distance:         cfg.Qdrant.Distance,
			Timeout:          time.Duration(cfg.Qdrant.TimeoutSecs) * time.Second,
		}
		return func(context.Context) (domain.VectorStore, error) {
			return qdrant.NewStorage(qcfg), nil
		}, noop, nil
	case "postgres":
		if cfg.Postgres == nil || cfg.Postgres.DSN == "" {
			return nil, nil, fmt.Errorf("postgres config missing")
		}
		db, err := postgres.OpenDB(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, nil, err
		}
		table := cfg.Postgres.Table
		return func(context.Context) (domain.VectorStore, error) {
			return postgres.New(db, table)
		}, db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown vector store: %s", cfg.Type)
	}
}
