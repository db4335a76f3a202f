package game

// ActionKind identifies one of the seven turn actions.
type ActionKind string

const (
	ActionIncome      ActionKind = "INCOME"
	ActionForeignAid  ActionKind = "FOREIGN_AID"
	ActionTax         ActionKind = "TAX"
	ActionSteal       ActionKind = "STEAL"
	ActionAssassinate ActionKind = "ASSASSINATE"
	ActionExchange    ActionKind = "EXCHANGE"
	ActionCoup        ActionKind = "COUP"
)

// ActionSpec is one row of the static action catalog: what an action costs,
// which character claim backs it, and who may block it.
type ActionSpec struct {
	Kind           ActionKind
	Cost           int
	Claim          Character // empty if the action claims nothing (unchallengeable)
	BlockableBy    []Character
	RequiresTarget bool
}

// Challengeable reports whether declaring the action asserts a character
// claim that other players may challenge.
func (s ActionSpec) Challengeable() bool {
	return s.Claim != ""
}

// Blockable reports whether any character can block the action.
func (s ActionSpec) Blockable() bool {
	return len(s.BlockableBy) > 0
}

// BlockableWith reports whether ch is a legal blocking claim for the action.
func (s ActionSpec) BlockableWith(ch Character) bool {
	for _, b := range s.BlockableBy {
		if b == ch {
			return true
		}
	}
	return false
}

var actionCatalog = map[ActionKind]ActionSpec{
	ActionIncome: {
		Kind: ActionIncome,
	},
	ActionForeignAid: {
		Kind:        ActionForeignAid,
		BlockableBy: []Character{CharacterDuke},
	},
	ActionTax: {
		Kind:  ActionTax,
		Claim: CharacterDuke,
	},
	ActionSteal: {
		Kind:           ActionSteal,
		Claim:          CharacterCaptain,
		BlockableBy:    []Character{CharacterCaptain, CharacterAmbassador},
		RequiresTarget: true,
	},
	ActionAssassinate: {
		Kind:           ActionAssassinate,
		Cost:           3,
		Claim:          CharacterAssassin,
		BlockableBy:    []Character{CharacterContessa},
		RequiresTarget: true,
	},
	ActionExchange: {
		Kind:  ActionExchange,
		Claim: CharacterAmbassador,
	},
	ActionCoup: {
		Kind:           ActionCoup,
		Cost:           7,
		RequiresTarget: true,
	},
}

// LookupAction returns the catalog entry for kind.
func LookupAction(kind ActionKind) (ActionSpec, bool) {
	spec, ok := actionCatalog[kind]
	return spec, ok
}

// mustCoupThreshold is the coin count at or above which a player's only legal
// action is coup.
const mustCoupThreshold = 10

// MustCoup reports whether the player is forced to coup this turn.
func MustCoup(p *Player) bool {
	return p.Coins >= mustCoupThreshold
}

// CanAfford reports whether the player can pay the action's up-front cost.
func CanAfford(spec ActionSpec, p *Player) bool {
	return p.Coins >= spec.Cost
}
