package store

import (
	"sync"

	"github.com/ViktorTassen/conflictology-server-go/internal/game"
)

// notifier fans committed snapshots out to per-game subscribers. Sends are
// non-blocking: a subscriber that cannot keep up drops intermediate
// snapshots and still sees the latest on its next receive.
type notifier struct {
	mu   sync.Mutex
	subs map[string]map[int]chan *game.Game
	next int
}

func newNotifier() *notifier {
	return &notifier{subs: make(map[string]map[int]chan *game.Game)}
}

func (n *notifier) subscribe(gameID string) (<-chan *game.Game, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch := make(chan *game.Game, 8)
	if n.subs[gameID] == nil {
		n.subs[gameID] = make(map[int]chan *game.Game)
	}
	id := n.next
	n.next++
	n.subs[gameID][id] = ch

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if sub, ok := n.subs[gameID][id]; ok {
			delete(n.subs[gameID], id)
			close(sub)
			if len(n.subs[gameID]) == 0 {
				delete(n.subs, gameID)
			}
		}
	}
	return ch, cancel
}

func (n *notifier) publish(g *game.Game) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs[g.ID] {
		select {
		case ch <- g.Clone():
		default:
		}
	}
}

func (n *notifier) closeGame(gameID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for id, ch := range n.subs[gameID] {
		delete(n.subs[gameID], id)
		close(ch)
	}
	delete(n.subs, gameID)
}

func (n *notifier) closeAll() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for gameID, subs := range n.subs {
		for id, ch := range subs {
			delete(subs, id)
			close(ch)
		}
		delete(n.subs, gameID)
	}
}
