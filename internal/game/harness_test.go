package game

import (
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"
)

// newTestGame starts a game with the given player names. Player ids are p1,
// p2, ... in seat order and shuffles are deterministic.
func newTestGame(t *testing.T, names ...string) (*Engine, *Game) {
	t.Helper()
	e := NewEngineWithSeed(zaptest.NewLogger(t), 42)
	g := e.NewGame("test-game", "p1", names[0])
	for i, name := range names[1:] {
		if err := e.AddPlayer(g, PlayerID(fmt.Sprintf("p%d", i+2)), name); err != nil {
			t.Fatalf("add player %s: %v", name, err)
		}
	}
	if err := e.Start(g); err != nil {
		t.Fatalf("start game: %v", err)
	}
	return e, g
}

// setCoins adjusts a player's stack through the treasury so the coin supply
// stays conserved.
func setCoins(t *testing.T, g *Game, id PlayerID, coins int) {
	t.Helper()
	p := g.PlayerByID(id)
	delta := coins - p.Coins
	if delta > g.Treasury {
		t.Fatalf("treasury cannot fund %d coins for %s", coins, id)
	}
	g.Treasury -= delta
	p.Coins = coins
}

// rigCard swaps a specific character into the player's hand slot, taking the
// copy from the deck or another hand so the 15-card multiset is untouched.
func rigCard(t *testing.T, g *Game, id PlayerID, slot int, ch Character) {
	t.Helper()
	p := g.PlayerByID(id)
	if p.Cards[slot].Character == ch {
		return
	}
	out := p.Cards[slot].Character
	for i, c := range g.Deck.Cards {
		if c.Character == ch {
			g.Deck.Cards[i].Character = out
			p.Cards[slot].Character = ch
			return
		}
	}
	for _, other := range g.Players {
		if other.ID == id {
			continue
		}
		for i, c := range other.Cards {
			if !c.Eliminated && c.Character == ch {
				other.Cards[i].Character = out
				p.Cards[slot].Character = ch
				return
			}
		}
	}
	t.Fatalf("no free copy of %s to rig into %s", ch, id)
}

// rigAway guarantees the player holds no live copy of ch, swapping any such
// card for a different character from the deck.
func rigAway(t *testing.T, g *Game, id PlayerID, ch Character) {
	t.Helper()
	p := g.PlayerByID(id)
	for slot, c := range p.Cards {
		if c.Eliminated || c.Character != ch {
			continue
		}
		for i, dc := range g.Deck.Cards {
			if dc.Character != ch {
				g.Deck.Cards[i].Character = ch
				p.Cards[slot].Character = dc.Character
				break
			}
		}
		if p.Cards[slot].Character == ch {
			t.Fatalf("deck holds nothing but %s, cannot rig away", ch)
		}
	}
}

// mustInvariants fails the test if either conservation law is broken.
func mustInvariants(t *testing.T, g *Game) {
	t.Helper()
	if err := g.CheckInvariants(); err != nil {
		t.Fatalf("invariant violated: %v", err)
	}
}

// countLog returns how many log lines contain the substring.
func countLog(g *Game, substr string) int {
	n := 0
	for _, line := range g.Log {
		if strings.Contains(line, substr) {
			n++
		}
	}
	return n
}
