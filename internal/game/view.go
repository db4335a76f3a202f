package game

// GameView is the snapshot pushed to a single player. Other players' live
// cards are redacted; eliminated cards are face up for everyone.
type GameView struct {
	GameID        string             `json:"game_id"`
	Phase         GamePhase          `json:"phase"`
	CurrentPlayer PlayerID           `json:"current_player,omitempty"`
	Players       []PlayerView       `json:"players"`
	DeckCount     int                `json:"deck_count"`
	Treasury      int                `json:"treasury"`
	Pending       *PendingAction     `json:"pending,omitempty"`
	Block         *PendingBlock      `json:"block,omitempty"`
	Responded     []PlayerID         `json:"responded,omitempty"`
	AwaitingLoss  PlayerID           `json:"awaiting_loss,omitempty"`
	Exchange      []Character        `json:"exchange,omitempty"`
	Log           []string           `json:"log"`
	Winner        PlayerID           `json:"winner,omitempty"`
	NewGameVotes  []PlayerID         `json:"new_game_votes,omitempty"`
}

// PlayerView is one seat as seen by the viewer.
type PlayerView struct {
	ID         PlayerID   `json:"id"`
	Name       string     `json:"name"`
	Coins      int        `json:"coins"`
	Cards      []CardView `json:"cards"`
	Influence  int        `json:"influence"`
	Eliminated bool       `json:"eliminated"`
	You        bool       `json:"you,omitempty"`
}

// CardView is a hand slot; Character is empty for another player's live card.
type CardView struct {
	Character  Character `json:"character,omitempty"`
	Eliminated bool      `json:"eliminated"`
}

// View renders the game for one viewer, hiding what they must not see.
func (g *Game) View(viewer PlayerID) GameView {
	v := GameView{
		GameID:    g.ID,
		Phase:     g.Phase,
		DeckCount: g.Deck.Len(),
		Treasury:  g.Treasury,
		Log:       append([]string(nil), g.Log...),
		Winner:    g.Winner,
	}
	if g.Phase != PhaseSetup && g.Phase != PhaseGameOver && len(g.Players) > 0 {
		v.CurrentPlayer = g.Players[g.CurrentPlayer].ID
	}
	if g.Pending != nil {
		pa := *g.Pending
		v.Pending = &pa
	}
	if g.Block != nil {
		pb := *g.Block
		v.Block = &pb
	}
	for id := range g.Responded {
		v.Responded = append(v.Responded, id)
	}
	if len(g.LossQueue) > 0 {
		v.AwaitingLoss = g.LossQueue[0]
	}
	if g.Phase == PhaseAwaitingExchange && g.Pending != nil && g.Pending.Initiator == viewer {
		for _, p := range g.Players {
			if p.ID != viewer {
				continue
			}
			for _, c := range p.Cards {
				if !c.Eliminated {
					v.Exchange = append(v.Exchange, c.Character)
				}
			}
		}
		for _, c := range g.ExchangeDrawn {
			v.Exchange = append(v.Exchange, c.Character)
		}
	}
	for id := range g.NewGameVotes {
		v.NewGameVotes = append(v.NewGameVotes, id)
	}

	v.Players = make([]PlayerView, 0, len(g.Players))
	for _, p := range g.Players {
		pv := PlayerView{
			ID:         p.ID,
			Name:       p.Name,
			Coins:      p.Coins,
			Influence:  p.Influence(),
			Eliminated: p.Eliminated(),
			You:        p.ID == viewer,
		}
		for _, c := range p.Cards {
			cv := CardView{Eliminated: c.Eliminated}
			if c.Eliminated || p.ID == viewer {
				cv.Character = c.Character
			}
			pv.Cards = append(pv.Cards, cv)
		}
		v.Players = append(v.Players, pv)
	}
	return v
}
