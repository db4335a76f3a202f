package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ViktorTassen/conflictology-server-go/internal/game"
	"github.com/ViktorTassen/conflictology-server-go/internal/lobby"
	"github.com/ViktorTassen/conflictology-server-go/internal/store"
)

// maxCommitAttempts bounds optimistic-lock retries. A command that loses the
// CAS race this many times surfaces ErrConcurrentModification to the caller.
const maxCommitAttempts = 3

// Dispatcher is the boundary adapter between player commands and the engine:
// read the latest committed snapshot, apply the pure transition, commit it
// back under optimistic concurrency, broadcast via the store's watchers.
type Dispatcher struct {
	store    store.GameStore
	engine   *game.Engine
	lobby    *lobby.Manager
	logger   *zap.Logger
	deadline time.Duration
}

// NewDispatcher wires a dispatcher. A non-zero responseDeadline arms an
// auto-pass timer whenever a commit leaves a response window open.
func NewDispatcher(st store.GameStore, engine *game.Engine, lb *lobby.Manager, responseDeadline time.Duration, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		store:    st,
		engine:   engine,
		lobby:    lb,
		logger:   logger,
		deadline: responseDeadline,
	}
}

// Dispatch validates and applies one command, returning the submitting
// player's redacted view of the committed state.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command) (*Result, error) {
	switch cmd.Type {
	case CmdCreateGame:
		return d.createGame(ctx, cmd)
	case CmdJoinGame:
		return d.joinGame(ctx, cmd)
	case CmdStartGame:
		return d.commit(ctx, cmd, func(g *game.Game) error {
			return d.engine.Start(g)
		})
	case CmdSubmitAction:
		return d.commit(ctx, cmd, func(g *game.Game) error {
			return d.engine.SubmitAction(g, cmd.PlayerID, cmd.Action, cmd.Target)
		})
	case CmdRespond:
		return d.commit(ctx, cmd, func(g *game.Game) error {
			return d.engine.Respond(g, cmd.PlayerID, cmd.Response, cmd.Character)
		})
	case CmdRespondToBlock:
		return d.commit(ctx, cmd, func(g *game.Game) error {
			return d.engine.RespondToBlock(g, cmd.PlayerID, cmd.Challenge)
		})
	case CmdChooseInfluence:
		return d.commit(ctx, cmd, func(g *game.Game) error {
			return d.engine.ChooseInfluence(g, cmd.PlayerID, cmd.CardIndex)
		})
	case CmdChooseExchange:
		return d.commit(ctx, cmd, func(g *game.Game) error {
			return d.engine.ChooseExchangeKeep(g, cmd.PlayerID, cmd.Keep)
		})
	case CmdVoteNewGame:
		return d.commit(ctx, cmd, func(g *game.Game) error {
			return d.engine.VoteNewGame(g, cmd.PlayerID)
		})
	case CmdListGames:
		return &Result{Tables: d.lobby.OpenTables()}, nil
	default:
		return nil, fmt.Errorf("unknown command type %q", cmd.Type)
	}
}

// createGame seats the host in a fresh setup-phase game.
func (d *Dispatcher) createGame(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Name == "" {
		return nil, errors.New("name is required")
	}
	gameID := uuid.NewString()
	playerID := game.PlayerID(uuid.NewString())
	g := d.engine.NewGame(gameID, playerID, cmd.Name)

	version, err := d.store.Create(ctx, g)
	if err != nil {
		return nil, err
	}
	d.lobby.Register(gameID, cmd.Name, game.MaxPlayers)

	view := g.View(playerID)
	return &Result{
		GameID:   gameID,
		PlayerID: playerID,
		Version:  version,
		View:     &view,
	}, nil
}

// joinGame seats a new player, assigning a fresh id.
func (d *Dispatcher) joinGame(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Name == "" {
		return nil, errors.New("name is required")
	}
	playerID := game.PlayerID(uuid.NewString())
	cmd.PlayerID = playerID
	res, err := d.commit(ctx, cmd, func(g *game.Game) error {
		return d.engine.AddPlayer(g, playerID, cmd.Name)
	})
	if err != nil {
		return nil, err
	}
	d.lobby.PlayerJoined(cmd.GameID)
	return res, nil
}

// commit runs the read-apply-update loop with bounded retries. The engine
// mutates a store-private clone, so a rejected command or lost race never
// touches the committed snapshot.
func (d *Dispatcher) commit(ctx context.Context, cmd Command, apply func(*game.Game) error) (*Result, error) {
	var lastErr error
	for attempt := 0; attempt < maxCommitAttempts; attempt++ {
		g, version, err := d.store.Get(ctx, cmd.GameID)
		if err != nil {
			return nil, err
		}
		if err := apply(g); err != nil {
			return nil, err
		}

		newVersion, err := d.store.Update(ctx, g, version)
		if errors.Is(err, store.ErrConcurrentModification) {
			lastErr = err
			d.logger.Debug("commit lost optimistic race, retrying",
				zap.String("game_id", cmd.GameID),
				zap.String("command", string(cmd.Type)),
				zap.Int("attempt", attempt+1),
			)
			continue
		}
		if err != nil {
			return nil, err
		}

		d.syncLobby(g)
		d.armResponseDeadline(g, newVersion)
		if ce := d.logger.Check(zap.DebugLevel, "command committed"); ce != nil {
			ce.Write(
				zap.String("game_id", cmd.GameID),
				zap.String("command", string(cmd.Type)),
				zap.Int64("version", newVersion),
				zap.String("state_checksum", g.Checksum()),
			)
		}
		view := g.View(cmd.PlayerID)
		return &Result{
			GameID:   cmd.GameID,
			PlayerID: cmd.PlayerID,
			Version:  newVersion,
			View:     &view,
		}, nil
	}
	return nil, lastErr
}

// syncLobby reflects the committed phase into the table listing.
func (d *Dispatcher) syncLobby(g *game.Game) {
	switch g.Phase {
	case game.PhaseGameOver:
		d.lobby.MarkFinished(g.ID)
	case game.PhaseSetup:
		// Still open for seats.
	default:
		d.lobby.MarkStarted(g.ID)
	}
}

// armResponseDeadline schedules synthetic passes when a commit leaves a
// response window open. The timer is version-guarded: if anything else
// commits first, the expiry is a no-op.
func (d *Dispatcher) armResponseDeadline(g *game.Game, version int64) {
	if d.deadline <= 0 {
		return
	}
	if g.Phase != game.PhaseAwaitingResponses && g.Phase != game.PhaseAwaitingBlockResponse {
		return
	}
	gameID := g.ID
	time.AfterFunc(d.deadline, func() {
		d.forceResolve(gameID, version)
	})
}

// forceResolve applies the timeout policy: every responder who has not
// spoken is passed on their behalf; a silent initiator accepts the block.
func (d *Dispatcher) forceResolve(gameID string, version int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	g, current, err := d.store.Get(ctx, gameID)
	if err != nil || current != version {
		return
	}

	switch g.Phase {
	case game.PhaseAwaitingResponses:
		for _, p := range g.Players {
			if p.Eliminated() || g.Pending == nil || p.ID == g.Pending.Initiator || g.Responded[p.ID] {
				continue
			}
			if err := d.engine.Respond(g, p.ID, game.ResponsePass, ""); err != nil {
				// A challenge or block may have resolved the window
				// mid-loop; stop forcing.
				break
			}
		}
	case game.PhaseAwaitingBlockResponse:
		if g.Pending != nil {
			_ = d.engine.RespondToBlock(g, g.Pending.Initiator, false)
		}
	default:
		return
	}

	if _, err := d.store.Update(ctx, g, version); err != nil {
		if !errors.Is(err, store.ErrConcurrentModification) {
			d.logger.Warn("timeout resolution failed",
				zap.String("game_id", gameID),
				zap.Error(err),
			)
		}
		return
	}
	d.syncLobby(g)
	d.logger.Info("response window timed out, auto-resolved",
		zap.String("game_id", gameID),
	)
}
