package server

import (
	"github.com/ViktorTassen/conflictology-server-go/internal/game"
	"github.com/ViktorTassen/conflictology-server-go/internal/lobby"
)

// CommandType identifies a boundary command.
type CommandType string

const (
	CmdCreateGame      CommandType = "CREATE_GAME"
	CmdJoinGame        CommandType = "JOIN_GAME"
	CmdStartGame       CommandType = "START_GAME"
	CmdSubmitAction    CommandType = "SUBMIT_ACTION"
	CmdRespond         CommandType = "RESPOND"
	CmdRespondToBlock  CommandType = "RESPOND_TO_BLOCK"
	CmdChooseInfluence CommandType = "CHOOSE_INFLUENCE"
	CmdChooseExchange  CommandType = "CHOOSE_EXCHANGE"
	CmdVoteNewGame     CommandType = "VOTE_NEW_GAME"
	CmdListGames       CommandType = "LIST_GAMES"
)

// Command is the wire envelope for every player command. Unused fields are
// omitted per command type.
type Command struct {
	Type     CommandType   `json:"type"`
	GameID   string        `json:"game_id,omitempty"`
	PlayerID game.PlayerID `json:"player_id,omitempty"`

	// CREATE_GAME / JOIN_GAME
	Name string `json:"name,omitempty"`

	// SUBMIT_ACTION
	Action game.ActionKind `json:"action,omitempty"`
	Target game.PlayerID   `json:"target,omitempty"`

	// RESPOND
	Response  game.ResponseKind `json:"response,omitempty"`
	Character game.Character    `json:"character,omitempty"`

	// RESPOND_TO_BLOCK
	Challenge bool `json:"challenge,omitempty"`

	// CHOOSE_INFLUENCE
	CardIndex int `json:"card_index"`

	// CHOOSE_EXCHANGE
	Keep []int `json:"keep,omitempty"`
}

// Result is the reply to a successfully committed command. Tables is set
// only for LIST_GAMES.
type Result struct {
	GameID   string                `json:"game_id,omitempty"`
	PlayerID game.PlayerID         `json:"player_id,omitempty"`
	Version  int64                 `json:"version,omitempty"`
	View     *game.GameView        `json:"view,omitempty"`
	Tables   []lobby.TableSnapshot `json:"tables,omitempty"`
}
