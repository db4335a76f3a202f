package game

import (
	"fmt"
)

// GamePhase is the state-machine phase of a game.
type GamePhase string

const (
	// PhaseSetup covers the lobby: players join until the host starts.
	PhaseSetup GamePhase = "SETUP"
	// PhaseAwaitingAction waits for the current player to declare an action.
	PhaseAwaitingAction GamePhase = "AWAITING_ACTION"
	// PhaseAwaitingResponses waits for every other alive player to pass,
	// challenge or block the declared action.
	PhaseAwaitingResponses GamePhase = "AWAITING_RESPONSES"
	// PhaseAwaitingBlockResponse waits for the initiator to accept or
	// challenge a declared block.
	PhaseAwaitingBlockResponse GamePhase = "AWAITING_BLOCK_RESPONSE"
	// PhaseAwaitingInfluenceLoss waits for the player at the head of the
	// loss queue to pick a card to flip.
	PhaseAwaitingInfluenceLoss GamePhase = "AWAITING_INFLUENCE_LOSS"
	// PhaseAwaitingExchange waits for the exchanging player to pick which
	// cards to keep.
	PhaseAwaitingExchange GamePhase = "AWAITING_EXCHANGE"
	// PhaseGameOver is terminal; only new-game votes are accepted.
	PhaseGameOver GamePhase = "GAME_OVER"
)

// PendingAction is the action currently in flight. It exists from declaration
// until the action fully resolves and the turn advances.
type PendingAction struct {
	Kind      ActionKind `json:"kind"`
	Initiator PlayerID   `json:"initiator"`
	Target    PlayerID   `json:"target,omitempty"`
	Claim     Character  `json:"claim,omitempty"`
}

// PendingBlock is an unresolved block against the pending action.
type PendingBlock struct {
	Blocker PlayerID  `json:"blocker"`
	Claim   Character `json:"claim"`
}

// Game is the aggregate root. It is mutated exclusively through Engine
// commands; the store layer persists and versions whole snapshots.
type Game struct {
	ID         string    `json:"id"`
	Players    []*Player `json:"players"`
	Deck       *Deck     `json:"deck"`
	Treasury   int       `json:"treasury"`
	CoinSupply int       `json:"coin_supply"`

	CurrentPlayer int       `json:"current_player"`
	Phase         GamePhase `json:"phase"`

	Pending   *PendingAction    `json:"pending,omitempty"`
	Block     *PendingBlock     `json:"block,omitempty"`
	Responded map[PlayerID]bool `json:"responded,omitempty"`

	// LossQueue holds players who still owe an influence loss, processed
	// FIFO. A player can appear twice (challenge loss plus action damage).
	LossQueue []PlayerID `json:"loss_queue,omitempty"`

	// ResumeAction marks that the pending action's effect must still be
	// applied once the loss queue drains (a failed challenge against the
	// initiator's claim keeps the action alive).
	ResumeAction bool `json:"resume_action,omitempty"`

	// ExchangeDrawn holds the cards drawn for a pending exchange. The
	// exchanging player chooses from their live cards plus these.
	ExchangeDrawn []Card `json:"exchange_drawn,omitempty"`

	Log    []string `json:"log"`
	Winner PlayerID `json:"winner,omitempty"`

	NewGameVotes map[PlayerID]bool `json:"new_game_votes,omitempty"`
}

// PlayerByID returns the player with the given id, or nil.
func (g *Game) PlayerByID(id PlayerID) *Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// AlivePlayers returns the players still holding influence, in turn order.
func (g *Game) AlivePlayers() []*Player {
	alive := make([]*Player, 0, len(g.Players))
	for _, p := range g.Players {
		if !p.Eliminated() {
			alive = append(alive, p)
		}
	}
	return alive
}

// currentPlayerRef returns the player whose turn it is.
func (g *Game) currentPlayerRef() *Player {
	return g.Players[g.CurrentPlayer]
}

// appendLog records a committed event in the narrative log.
func (g *Game) appendLog(format string, args ...interface{}) {
	g.Log = append(g.Log, fmt.Sprintf(format, args...))
}

// playerName resolves an id to its display name for narration.
func (g *Game) playerName(id PlayerID) string {
	if p := g.PlayerByID(id); p != nil {
		return p.Name
	}
	return string(id)
}

// Clone returns a deep copy of the game. Engine commands are applied to
// clones so a rejected command can never leak partial mutation into the
// committed snapshot.
func (g *Game) Clone() *Game {
	cp := *g

	cp.Players = make([]*Player, len(g.Players))
	for i, p := range g.Players {
		pc := *p
		pc.Cards = append([]Card(nil), p.Cards...)
		cp.Players[i] = &pc
	}

	if g.Deck != nil {
		cp.Deck = &Deck{Cards: append([]Card(nil), g.Deck.Cards...)}
	}
	if g.Pending != nil {
		pa := *g.Pending
		cp.Pending = &pa
	}
	if g.Block != nil {
		pb := *g.Block
		cp.Block = &pb
	}
	if g.Responded != nil {
		cp.Responded = make(map[PlayerID]bool, len(g.Responded))
		for k, v := range g.Responded {
			cp.Responded[k] = v
		}
	}
	cp.LossQueue = append([]PlayerID(nil), g.LossQueue...)
	cp.ExchangeDrawn = append([]Card(nil), g.ExchangeDrawn...)
	cp.Log = append([]string(nil), g.Log...)
	if g.NewGameVotes != nil {
		cp.NewGameVotes = make(map[PlayerID]bool, len(g.NewGameVotes))
		for k, v := range g.NewGameVotes {
			cp.NewGameVotes[k] = v
		}
	}
	return &cp
}

// CheckInvariants verifies the two global conservation laws: the 15-card
// court multiset and the fixed coin supply. It is the primary test oracle
// and is cheap enough for the dispatcher to run on every commit in debug
// deployments.
func (g *Game) CheckInvariants() error {
	if g.Phase == PhaseSetup {
		return nil
	}

	counts := make(map[Character]int, len(AllCharacters))
	total := 0
	for _, c := range g.Deck.Cards {
		counts[c.Character]++
		total++
	}
	for _, p := range g.Players {
		for _, c := range p.Cards {
			counts[c.Character]++
			total++
		}
	}
	// Exchange-drawn cards live outside both deck and hand while the choice
	// is pending.
	for _, c := range g.ExchangeDrawn {
		counts[c.Character]++
		total++
	}
	for _, ch := range AllCharacters {
		if counts[ch] != copiesPerCharacter {
			return fmt.Errorf("card invariant violated: %d copies of %s (want %d)", counts[ch], ch, copiesPerCharacter)
		}
	}
	if want := len(AllCharacters) * copiesPerCharacter; total != want {
		return fmt.Errorf("card invariant violated: %d cards in play (want %d)", total, want)
	}

	coins := g.Treasury
	for _, p := range g.Players {
		if p.Coins < 0 {
			return fmt.Errorf("coin invariant violated: %s holds negative coins", p.Name)
		}
		coins += p.Coins
	}
	if coins != g.CoinSupply {
		return fmt.Errorf("coin invariant violated: %d coins in circulation (want %d)", coins, g.CoinSupply)
	}
	return nil
}
