package game

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// MarshalSnapshot encodes a game for durable storage. JSON keeps the stored
// snapshot inspectable and matches the store's JSONB column.
func MarshalSnapshot(g *Game) ([]byte, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("marshal game %s: %w", g.ID, err)
	}
	return data, nil
}

// UnmarshalSnapshot decodes a stored game snapshot.
func UnmarshalSnapshot(data []byte) (*Game, error) {
	var g Game
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("unmarshal game snapshot: %w", err)
	}
	return &g, nil
}

// Checksum computes a deterministic digest of the game state, independent of
// map iteration order. Two states with the same checksum are the same
// committed state; a clone that drifts from its source is a bug the digest
// makes visible.
func (g *Game) Checksum() string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "GAME:%s|%s|%d|%d|%d|%d|%t|%s\n",
		g.ID, g.Phase, g.CurrentPlayer, g.Treasury, g.CoinSupply, g.Deck.Len(), g.ResumeAction, g.Winner)

	for _, p := range g.Players {
		fmt.Fprintf(&buf, "PLAYER:%s|%s|%d", p.ID, p.Name, p.Coins)
		for _, c := range p.Cards {
			fmt.Fprintf(&buf, "|%s:%t", c.Character, c.Eliminated)
		}
		buf.WriteByte('\n')
	}

	// The deck is shuffled state, but its multiset is part of the committed
	// snapshot. Order-insensitive so a reshuffle of the same cards digests
	// identically only when nothing else changed.
	deck := make([]string, 0, g.Deck.Len())
	for _, c := range g.Deck.Cards {
		deck = append(deck, string(c.Character))
	}
	sort.Strings(deck)
	fmt.Fprintf(&buf, "DECK:%s\n", strings.Join(deck, ","))

	if g.Pending != nil {
		fmt.Fprintf(&buf, "PENDING:%s|%s|%s|%s\n",
			g.Pending.Kind, g.Pending.Initiator, g.Pending.Target, g.Pending.Claim)
	}
	if g.Block != nil {
		fmt.Fprintf(&buf, "BLOCK:%s|%s\n", g.Block.Blocker, g.Block.Claim)
	}

	responded := make([]string, 0, len(g.Responded))
	for id := range g.Responded {
		responded = append(responded, string(id))
	}
	sort.Strings(responded)
	fmt.Fprintf(&buf, "RESPONDED:%s\n", strings.Join(responded, ","))

	losses := make([]string, 0, len(g.LossQueue))
	for _, id := range g.LossQueue {
		losses = append(losses, string(id))
	}
	// Queue order matters, do not sort.
	fmt.Fprintf(&buf, "LOSSES:%s\n", strings.Join(losses, ","))

	for _, c := range g.ExchangeDrawn {
		fmt.Fprintf(&buf, "DRAWN:%s\n", c.Character)
	}

	votes := make([]string, 0, len(g.NewGameVotes))
	for id := range g.NewGameVotes {
		votes = append(votes, string(id))
	}
	sort.Strings(votes)
	fmt.Fprintf(&buf, "VOTES:%s\n", strings.Join(votes, ","))

	fmt.Fprintf(&buf, "LOG:%d\n", len(g.Log))

	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:])
}
