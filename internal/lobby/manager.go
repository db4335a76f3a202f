// Package lobby tracks tables across their lifecycle so clients can browse
// and join games without holding a game snapshot. It is an index over the
// store, not a source of truth: the game aggregate always wins.
package lobby

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TableState is the coarse lifecycle phase shown in listings.
type TableState string

const (
	TableStateOpen       TableState = "OPEN"
	TableStateInProgress TableState = "IN_PROGRESS"
	TableStateFinished   TableState = "FINISHED"
)

// Table is one tracked game.
type Table struct {
	GameID      string
	HostName    string
	PlayerCount int
	MaxPlayers  int
	State       TableState
	CreateTime  time.Time

	mu sync.Mutex
}

// TableSnapshot is a consistent copy of a table for external use.
type TableSnapshot struct {
	GameID      string     `json:"game_id"`
	HostName    string     `json:"host_name"`
	PlayerCount int        `json:"player_count"`
	MaxPlayers  int        `json:"max_players"`
	State       TableState `json:"state"`
	CreateTime  time.Time  `json:"create_time"`
}

// Snapshot returns a consistent copy of the table state.
func (t *Table) Snapshot() TableSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return TableSnapshot{
		GameID:      t.GameID,
		HostName:    t.HostName,
		PlayerCount: t.PlayerCount,
		MaxPlayers:  t.MaxPlayers,
		State:       t.State,
		CreateTime:  t.CreateTime,
	}
}

// Manager manages the table listing.
type Manager struct {
	tables map[string]*Table
	mu     sync.RWMutex
	logger *zap.Logger
}

// NewManager creates an empty lobby.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		tables: make(map[string]*Table),
		logger: logger,
	}
}

// Register adds a newly created game as an open table with the host seated.
func (m *Manager) Register(gameID, hostName string, maxPlayers int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tables[gameID] = &Table{
		GameID:      gameID,
		HostName:    hostName,
		PlayerCount: 1,
		MaxPlayers:  maxPlayers,
		State:       TableStateOpen,
		CreateTime:  time.Now(),
	}

	m.logger.Info("table opened",
		zap.String("game_id", gameID),
		zap.String("host", hostName),
	)
}

// PlayerJoined bumps the seat count for a table, if it is still tracked.
func (m *Manager) PlayerJoined(gameID string) {
	m.mu.RLock()
	t, ok := m.tables[gameID]
	m.mu.RUnlock()
	if !ok {
		return
	}
	t.mu.Lock()
	t.PlayerCount++
	t.mu.Unlock()
}

// MarkStarted moves a table out of the open listing.
func (m *Manager) MarkStarted(gameID string) {
	m.setState(gameID, TableStateInProgress)
}

// MarkFinished records that the table's game is over. A rematch vote moves it
// back via MarkStarted.
func (m *Manager) MarkFinished(gameID string) {
	m.setState(gameID, TableStateFinished)
}

func (m *Manager) setState(gameID string, state TableState) {
	m.mu.RLock()
	t, ok := m.tables[gameID]
	m.mu.RUnlock()
	if !ok {
		return
	}
	t.mu.Lock()
	changed := t.State != state
	t.State = state
	t.mu.Unlock()

	if changed {
		m.logger.Info("table state changed",
			zap.String("game_id", gameID),
			zap.String("state", string(state)),
		)
	}
}

// Remove drops a table from the listing.
func (m *Manager) Remove(gameID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tables[gameID]; !ok {
		return
	}
	delete(m.tables, gameID)
	m.logger.Info("table removed", zap.String("game_id", gameID))
}

// OpenTables returns joinable tables, oldest first.
func (m *Manager) OpenTables() []TableSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	open := make([]TableSnapshot, 0, len(m.tables))
	for _, t := range m.tables {
		snap := t.Snapshot()
		if snap.State == TableStateOpen && snap.PlayerCount < snap.MaxPlayers {
			open = append(open, snap)
		}
	}
	sort.Slice(open, func(i, j int) bool {
		return open[i].CreateTime.Before(open[j].CreateTime)
	})
	return open
}

// ActiveCount returns the number of tables that have not finished.
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, t := range m.tables {
		if t.Snapshot().State != TableStateFinished {
			count++
		}
	}
	return count
}
