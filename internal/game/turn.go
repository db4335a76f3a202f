package game

// advanceTurn is the single authority for turn progression. It clears all
// per-turn resolution state, moves the cursor to the next alive player and
// reopens the action window. No other code path moves the cursor.
func (g *Game) advanceTurn() {
	g.Pending = nil
	g.Block = nil
	g.Responded = nil
	g.LossQueue = nil
	g.ResumeAction = false
	if len(g.ExchangeDrawn) > 0 {
		// An exchange that never completed returns its draws.
		g.Deck.Cards = append(g.Deck.Cards, g.ExchangeDrawn...)
		g.ExchangeDrawn = nil
	}

	if g.Phase == PhaseGameOver {
		return
	}

	next := g.nextAliveIndex(g.CurrentPlayer)
	if next == -1 {
		// The win check after the last elimination ends the game before
		// this can happen.
		g.Phase = PhaseGameOver
		return
	}
	g.CurrentPlayer = next
	g.Phase = PhaseAwaitingAction
}

// nextAliveIndex returns the index of the first non-eliminated player after
// from, cycling past the end, or -1 if nobody else is alive.
func (g *Game) nextAliveIndex(from int) int {
	n := len(g.Players)
	for step := 1; step <= n; step++ {
		idx := (from + step) % n
		if !g.Players[idx].Eliminated() {
			return idx
		}
	}
	return -1
}
