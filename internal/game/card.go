package game

// Character is one of the five court characters in the game.
type Character string

const (
	CharacterDuke       Character = "DUKE"
	CharacterAssassin   Character = "ASSASSIN"
	CharacterCaptain    Character = "CAPTAIN"
	CharacterAmbassador Character = "AMBASSADOR"
	CharacterContessa   Character = "CONTESSA"
)

// AllCharacters lists every character in deck-building order.
var AllCharacters = []Character{
	CharacterDuke,
	CharacterAssassin,
	CharacterCaptain,
	CharacterAmbassador,
	CharacterContessa,
}

// copiesPerCharacter is the number of copies of each character in the court
// deck. The full deck is therefore 15 cards regardless of player count.
const copiesPerCharacter = 3

// Card is a single character card. A card is owned by exactly one place at a
// time: the deck or a player's hand slot. Eliminated cards stay in their hand
// slot face up.
type Card struct {
	Character  Character `json:"character"`
	Eliminated bool      `json:"eliminated"`
}

func (c Character) String() string {
	return string(c)
}

// ValidCharacter reports whether ch names one of the five court characters.
func ValidCharacter(ch Character) bool {
	for _, known := range AllCharacters {
		if ch == known {
			return true
		}
	}
	return false
}
