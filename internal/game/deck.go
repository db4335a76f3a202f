package game

import "math/rand"

// Deck is the face-down court deck. Order is significant: Draw takes from the
// end of the slice.
type Deck struct {
	Cards []Card `json:"cards"`
}

// NewDeck builds an unshuffled deck with three copies of each character.
func NewDeck() *Deck {
	cards := make([]Card, 0, len(AllCharacters)*copiesPerCharacter)
	for _, ch := range AllCharacters {
		for i := 0; i < copiesPerCharacter; i++ {
			cards = append(cards, Card{Character: ch})
		}
	}
	return &Deck{Cards: cards}
}

// Len returns the number of cards remaining in the deck.
func (d *Deck) Len() int {
	return len(d.Cards)
}

// Shuffle applies a uniform random permutation to the deck.
func (d *Deck) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(d.Cards), func(i, j int) {
		d.Cards[i], d.Cards[j] = d.Cards[j], d.Cards[i]
	})
}

// Draw removes and returns the top card. Drawing from an empty deck returns
// ErrInsufficientCards; under the fixed 15-card configuration this indicates
// a broken invariant rather than a normal game state.
func (d *Deck) Draw() (Card, error) {
	if len(d.Cards) == 0 {
		return Card{}, ErrInsufficientCards
	}
	idx := len(d.Cards) - 1
	card := d.Cards[idx]
	d.Cards = d.Cards[:idx]
	return card, nil
}

// ReturnAndReshuffle inserts card back into the deck and reshuffles, so the
// returned card's position cannot be inferred from deck order. Used when a
// proven-true claim launders its revealed card.
func (d *Deck) ReturnAndReshuffle(card Card, rng *rand.Rand) {
	card.Eliminated = false
	d.Cards = append(d.Cards, card)
	d.Shuffle(rng)
}
