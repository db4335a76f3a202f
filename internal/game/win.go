package game

// checkWin detects single-survivor termination. Called after every influence
// loss; when at most one player remains alive the game becomes terminal and
// the winner is recorded.
func (g *Game) checkWin() bool {
	alive := g.AlivePlayers()
	if len(alive) > 1 {
		return false
	}
	g.Phase = PhaseGameOver
	g.Pending = nil
	g.Block = nil
	g.Responded = nil
	g.LossQueue = nil
	g.ResumeAction = false
	// An aborted exchange returns its drawn cards so the court stays at 15.
	g.Deck.Cards = append(g.Deck.Cards, g.ExchangeDrawn...)
	g.ExchangeDrawn = nil
	if len(alive) == 1 {
		g.Winner = alive[0].ID
		g.appendLog("%s wins the game", alive[0].Name)
	}
	return true
}
