package game

import "errors"

// Engine errors. Every command is validated fully before any mutation is
// applied; a command that returns one of these leaves the game unchanged.
var (
	ErrNotYourTurn          = errors.New("not your turn")
	ErrMustCoup             = errors.New("player has 10 or more coins and must coup")
	ErrInsufficientCoins    = errors.New("insufficient coins")
	ErrInvalidTarget        = errors.New("invalid target")
	ErrUnknownAction        = errors.New("unknown action")
	ErrNoPendingAction      = errors.New("no pending action")
	ErrNotEligibleResponder = errors.New("not an eligible responder")
	ErrAlreadyResponded     = errors.New("already responded")
	ErrAlreadyResolved      = errors.New("pending item already resolved")
	ErrWrongPhase           = errors.New("wrong phase for command")
	ErrInvalidCardSelection = errors.New("invalid card selection")
	ErrWrongSelectionCount  = errors.New("wrong number of cards selected")
	ErrInsufficientCards    = errors.New("deck exhausted")
	ErrGameFull             = errors.New("game is full")
	ErrGameStarted          = errors.New("game already started")
	ErrNotEnoughPlayers     = errors.New("not enough players")
	ErrNoSuchPlayer         = errors.New("no such player in game")
	ErrAlreadyVoted         = errors.New("already voted for a new game")
)
