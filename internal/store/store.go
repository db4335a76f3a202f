// Package store persists game snapshots with optimistic per-game versioning.
// The engine is a pure transition function; all serialization of concurrent
// commands for one game id happens here, via compare-and-swap on a version
// number.
package store

import (
	"context"
	"errors"

	"github.com/ViktorTassen/conflictology-server-go/internal/game"
)

var (
	// ErrGameNotFound is returned when no snapshot exists for the id.
	ErrGameNotFound = errors.New("game not found")
	// ErrConcurrentModification is returned when an Update loses the CAS
	// race. Callers re-read the latest snapshot and retry a bounded number
	// of times.
	ErrConcurrentModification = errors.New("concurrent modification")
	// ErrGameExists is returned when Create collides with an existing id.
	ErrGameExists = errors.New("game already exists")
)

// GameStore is atomic read-modify-write per game id plus a subscription
// channel for committed snapshots.
type GameStore interface {
	// Create persists a brand new game at version 1.
	Create(ctx context.Context, g *game.Game) (int64, error)
	// Get returns a private copy of the latest committed snapshot and its
	// version.
	Get(ctx context.Context, id string) (*game.Game, int64, error)
	// Update commits g if and only if the stored version still equals
	// expected, returning the new version. On success the snapshot is
	// broadcast to watchers.
	Update(ctx context.Context, g *game.Game, expected int64) (int64, error)
	// Delete removes the snapshot and closes its watchers.
	Delete(ctx context.Context, id string) error
	// Watch subscribes to committed snapshots for a game id. The returned
	// cancel func must be called to release the subscription.
	Watch(id string) (<-chan *game.Game, func())
	// Close releases underlying resources.
	Close()
}
