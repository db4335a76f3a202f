package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ViktorTassen/conflictology-server-go/internal/config"
	"github.com/ViktorTassen/conflictology-server-go/internal/game"
)

const gamesSchema = `
CREATE TABLE IF NOT EXISTS games (
    id         TEXT PRIMARY KEY,
    version    BIGINT NOT NULL,
    snapshot   JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore is the pgx-backed GameStore. Optimistic concurrency rides on
// the version column: an Update that matches zero rows lost the race.
// Snapshot fan-out still goes through the in-process notifier; this store
// targets a single server node in front of the database.
type PostgresStore struct {
	pool     *pgxpool.Pool
	logger   *zap.Logger
	notifier *notifier
}

// NewPostgresStore connects a pool per the database config and ensures the
// games table exists.
func NewPostgresStore(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, gamesSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure games table: %w", err)
	}

	logger.Info("postgres store initialized",
		zap.Int32("max_conns", cfg.MaxConns),
		zap.Int32("min_conns", cfg.MinConns),
	)
	return &PostgresStore{
		pool:     pool,
		logger:   logger,
		notifier: newNotifier(),
	}, nil
}

// Create persists a new game at version 1.
func (s *PostgresStore) Create(ctx context.Context, g *game.Game) (int64, error) {
	snapshot, err := game.MarshalSnapshot(g)
	if err != nil {
		return 0, err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO games (id, version, snapshot) VALUES ($1, 1, $2)`,
		g.ID, snapshot,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrGameExists
		}
		return 0, fmt.Errorf("insert game: %w", err)
	}
	return 1, nil
}

// Get returns the latest committed snapshot and its version.
func (s *PostgresStore) Get(ctx context.Context, id string) (*game.Game, int64, error) {
	var snapshot []byte
	var version int64
	err := s.pool.QueryRow(ctx,
		`SELECT snapshot, version FROM games WHERE id = $1`, id,
	).Scan(&snapshot, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, 0, ErrGameNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("select game: %w", err)
	}

	g, err := game.UnmarshalSnapshot(snapshot)
	if err != nil {
		return nil, 0, err
	}
	return g, version, nil
}

// Update commits g iff the stored version still equals expected.
func (s *PostgresStore) Update(ctx context.Context, g *game.Game, expected int64) (int64, error) {
	snapshot, err := game.MarshalSnapshot(g)
	if err != nil {
		return 0, err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE games SET snapshot = $2, version = version + 1, updated_at = now()
		 WHERE id = $1 AND version = $3`,
		g.ID, snapshot, expected,
	)
	if err != nil {
		return 0, fmt.Errorf("update game: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either the id is gone or someone else committed first.
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM games WHERE id = $1)`, g.ID,
		).Scan(&exists); err != nil {
			return 0, fmt.Errorf("check game existence: %w", err)
		}
		if !exists {
			return 0, ErrGameNotFound
		}
		return 0, ErrConcurrentModification
	}

	s.notifier.publish(g)
	return expected + 1, nil
}

// Delete removes the snapshot and closes its watchers.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM games WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrGameNotFound
	}
	s.notifier.closeGame(id)
	return nil
}

// Watch subscribes to committed snapshots for the game id.
func (s *PostgresStore) Watch(id string) (<-chan *game.Game, func()) {
	return s.notifier.subscribe(id)
}

// Close shuts down subscriptions and the pool.
func (s *PostgresStore) Close() {
	s.notifier.closeAll()
	s.pool.Close()
}

// isUniqueViolation reports whether err is a primary key collision
// (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
