package game

// PlayerID uniquely identifies a player within a game.
type PlayerID string

// handSize is the number of hand slots each player holds. Slots persist after
// elimination with the card face up.
const handSize = 2

// Player is a seat at the table: coins, hand slots and derived elimination
// status. Turn order is the order players joined, fixed at game start.
type Player struct {
	ID    PlayerID `json:"id"`
	Name  string   `json:"name"`
	Coins int      `json:"coins"`
	Cards []Card   `json:"cards"`
}

// Eliminated reports whether the player has lost all influence. A player with
// no dealt cards (pre-start) is not considered eliminated.
func (p *Player) Eliminated() bool {
	if len(p.Cards) == 0 {
		return false
	}
	for _, c := range p.Cards {
		if !c.Eliminated {
			return false
		}
	}
	return true
}

// Influence returns the number of non-eliminated cards the player holds.
func (p *Player) Influence() int {
	n := 0
	for _, c := range p.Cards {
		if !c.Eliminated {
			n++
		}
	}
	return n
}

// liveCardIndex returns the index of the first non-eliminated card matching
// ch, or -1 if the player holds none.
func (p *Player) liveCardIndex(ch Character) int {
	for i, c := range p.Cards {
		if !c.Eliminated && c.Character == ch {
			return i
		}
	}
	return -1
}

// soleLiveCardIndex returns the index of the only non-eliminated card, or -1
// if the player holds zero or more than one.
func (p *Player) soleLiveCardIndex() int {
	idx := -1
	for i, c := range p.Cards {
		if c.Eliminated {
			continue
		}
		if idx != -1 {
			return -1
		}
		idx = i
	}
	return idx
}
