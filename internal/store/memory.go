package store

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/ViktorTassen/conflictology-server-go/internal/game"
)

// MemoryStore is the in-process GameStore used for single-node deployments
// and tests. Every read returns a clone, every stored snapshot is a clone of
// the caller's game, so the committed state is never aliased.
type MemoryStore struct {
	logger *zap.Logger

	mu       sync.RWMutex
	games    map[string]*storedGame
	notifier *notifier
}

type storedGame struct {
	game    *game.Game
	version int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		logger:   logger,
		games:    make(map[string]*storedGame),
		notifier: newNotifier(),
	}
}

// Create persists a new game at version 1.
func (s *MemoryStore) Create(ctx context.Context, g *game.Game) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.games[g.ID]; exists {
		return 0, ErrGameExists
	}
	s.games[g.ID] = &storedGame{game: g.Clone(), version: 1}
	s.logger.Debug("game snapshot created", zap.String("game_id", g.ID))
	return 1, nil
}

// Get returns a clone of the latest snapshot and its version.
func (s *MemoryStore) Get(ctx context.Context, id string) (*game.Game, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.games[id]
	if !ok {
		return nil, 0, ErrGameNotFound
	}
	return st.game.Clone(), st.version, nil
}

// Update commits g when the stored version matches expected; a mismatch is
// a lost CAS race and the caller must re-read and retry.
func (s *MemoryStore) Update(ctx context.Context, g *game.Game, expected int64) (int64, error) {
	s.mu.Lock()
	st, ok := s.games[g.ID]
	if !ok {
		s.mu.Unlock()
		return 0, ErrGameNotFound
	}
	if st.version != expected {
		s.mu.Unlock()
		s.logger.Debug("optimistic lock conflict",
			zap.String("game_id", g.ID),
			zap.Int64("expected", expected),
			zap.Int64("actual", st.version),
		)
		return 0, ErrConcurrentModification
	}
	st.game = g.Clone()
	st.version++
	version := st.version
	s.mu.Unlock()

	s.notifier.publish(g)
	return version, nil
}

// Delete removes the snapshot and closes its watchers.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.games[id]; !ok {
		s.mu.Unlock()
		return ErrGameNotFound
	}
	delete(s.games, id)
	s.mu.Unlock()

	s.notifier.closeGame(id)
	return nil
}

// Watch subscribes to committed snapshots for the game id.
func (s *MemoryStore) Watch(id string) (<-chan *game.Game, func()) {
	return s.notifier.subscribe(id)
}

// Close shuts down all subscriptions.
func (s *MemoryStore) Close() {
	s.notifier.closeAll()
}
