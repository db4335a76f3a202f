package game

import (
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestViewRedactsOtherHands(t *testing.T) {
	_, g := newTestGame(t, "Alice", "Bob")
	g.PlayerByID("p2").Cards[0].Eliminated = true

	v := g.View("p1")

	for _, pv := range v.Players {
		switch pv.ID {
		case "p1":
			if !pv.You {
				t.Fatalf("viewer not marked")
			}
			for i, cv := range pv.Cards {
				if cv.Character == "" {
					t.Fatalf("own card %d redacted", i)
				}
			}
		case "p2":
			if pv.You {
				t.Fatalf("Bob marked as viewer")
			}
			if pv.Cards[0].Character == "" {
				t.Fatalf("eliminated card should be face up")
			}
			if pv.Cards[1].Character != "" {
				t.Fatalf("Bob's live card leaked to Alice")
			}
			if pv.Influence != 1 {
				t.Fatalf("influence %d, want 1", pv.Influence)
			}
		}
	}
	if v.DeckCount != g.Deck.Len() {
		t.Fatalf("deck count %d, want %d", v.DeckCount, g.Deck.Len())
	}
	if v.CurrentPlayer != "p1" {
		t.Fatalf("current player %s, want p1", v.CurrentPlayer)
	}
}

func TestViewExchangeOptionsOnlyForInitiator(t *testing.T) {
	e, g := newTestGame(t, "Alice", "Bob")

	if err := e.SubmitAction(g, "p1", ActionExchange, ""); err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if err := e.Respond(g, "p2", ResponsePass, ""); err != nil {
		t.Fatalf("pass: %v", err)
	}

	if got := g.View("p1").Exchange; len(got) != 4 {
		t.Fatalf("initiator sees %d exchange options, want 4", len(got))
	}
	if got := g.View("p2").Exchange; len(got) != 0 {
		t.Fatalf("bystander sees %d exchange options, want 0", len(got))
	}
}

func TestViewHidesCurrentPlayerOutsidePlay(t *testing.T) {
	e := NewEngineWithSeed(zaptest.NewLogger(t), 7)
	g := e.NewGame("g", "p1", "Alice")
	if got := g.View("p1").CurrentPlayer; got != "" {
		t.Fatalf("setup view exposes current player %s", got)
	}
}
