package game

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Player counts supported by a single court deck.
const (
	MinPlayers = 2
	MaxPlayers = 6
)

// startingCoins is each player's opening stack.
const startingCoins = 2

// defaultCoinSupply is the bank's total coin count for up to six players.
// treasury + sum(player coins) equals this at every committed transition.
const defaultCoinSupply = 50

// ResponseKind is a responder's reply to a pending action.
type ResponseKind string

const (
	ResponsePass      ResponseKind = "PASS"
	ResponseChallenge ResponseKind = "CHALLENGE"
	ResponseBlock     ResponseKind = "BLOCK"
)

// Engine drives games through the resolution state machine. Commands are
// pure state transitions: each method validates fully against the supplied
// game and either mutates it to the next committed state or returns a typed
// error leaving it untouched. The engine holds no per-game state of its own;
// serialization per game id is the store layer's job.
type Engine struct {
	logger *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewEngine creates an engine with a time-seeded shuffle source.
func NewEngine(logger *zap.Logger) *Engine {
	return &Engine{
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewEngineWithSeed creates an engine with a deterministic shuffle source.
func NewEngineWithSeed(logger *zap.Logger, seed int64) *Engine {
	return &Engine{
		logger: logger,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// shuffleDeck and returnAndReshuffle serialize rng access: the dispatcher
// serializes commands per game, but different games share one engine.
func (e *Engine) shuffleDeck(d *Deck) {
	e.mu.Lock()
	defer e.mu.Unlock()
	d.Shuffle(e.rng)
}

func (e *Engine) returnAndReshuffle(d *Deck, card Card) {
	e.mu.Lock()
	defer e.mu.Unlock()
	d.ReturnAndReshuffle(card, e.rng)
}

// NewGame creates a game in setup with the host seated first.
func (e *Engine) NewGame(id string, hostID PlayerID, hostName string) *Game {
	g := &Game{
		ID:         id,
		Phase:      PhaseSetup,
		CoinSupply: defaultCoinSupply,
		Deck:       NewDeck(),
		Players: []*Player{
			{ID: hostID, Name: hostName},
		},
	}
	e.logger.Info("game created",
		zap.String("game_id", id),
		zap.String("host", hostName),
	)
	return g
}

// AddPlayer seats a player during setup. Turn order is join order.
func (e *Engine) AddPlayer(g *Game, id PlayerID, name string) error {
	if g.Phase != PhaseSetup {
		return ErrGameStarted
	}
	if len(g.Players) >= MaxPlayers {
		return ErrGameFull
	}
	if g.PlayerByID(id) != nil {
		return fmt.Errorf("%w: id %s already seated", ErrInvalidTarget, id)
	}
	g.Players = append(g.Players, &Player{ID: id, Name: name})
	return nil
}

// Start deals two cards to every seat, seeds stacks and the treasury, and
// opens the first action window.
func (e *Engine) Start(g *Game) error {
	if g.Phase != PhaseSetup {
		return ErrGameStarted
	}
	if len(g.Players) < MinPlayers {
		return ErrNotEnoughPlayers
	}

	deck := NewDeck()
	e.shuffleDeck(deck)
	for _, p := range g.Players {
		p.Cards = make([]Card, 0, handSize)
		for i := 0; i < handSize; i++ {
			card, err := deck.Draw()
			if err != nil {
				return err
			}
			p.Cards = append(p.Cards, card)
		}
		p.Coins = startingCoins
	}
	g.Deck = deck
	g.Treasury = g.CoinSupply - startingCoins*len(g.Players)
	g.CurrentPlayer = 0
	g.Phase = PhaseAwaitingAction
	g.appendLog("game started with %d players", len(g.Players))
	g.appendLog("%s's turn", g.currentPlayerRef().Name)

	e.logger.Info("game started",
		zap.String("game_id", g.ID),
		zap.Int("players", len(g.Players)),
		zap.Int("treasury", g.Treasury),
	)
	return nil
}

// SubmitAction admits the current player's declared action. Unchallengeable,
// unblockable actions resolve immediately; everything else opens a response
// window. Up-front costs (assassinate, coup) are deducted here and never
// refunded.
func (e *Engine) SubmitAction(g *Game, playerID PlayerID, kind ActionKind, target PlayerID) error {
	if g.Phase != PhaseAwaitingAction {
		return ErrWrongPhase
	}
	actor := g.currentPlayerRef()
	if actor.ID != playerID {
		return ErrNotYourTurn
	}
	spec, ok := LookupAction(kind)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAction, kind)
	}
	if MustCoup(actor) && kind != ActionCoup {
		return ErrMustCoup
	}
	if !CanAfford(spec, actor) {
		return fmt.Errorf("%w: %s costs %d, have %d", ErrInsufficientCoins, kind, spec.Cost, actor.Coins)
	}

	var targetPlayer *Player
	if spec.RequiresTarget {
		if target == "" {
			return fmt.Errorf("%w: %s requires a target", ErrInvalidTarget, kind)
		}
		if target == playerID {
			return fmt.Errorf("%w: cannot target yourself", ErrInvalidTarget)
		}
		targetPlayer = g.PlayerByID(target)
		if targetPlayer == nil {
			return fmt.Errorf("%w: no such player %s", ErrInvalidTarget, target)
		}
		if targetPlayer.Eliminated() {
			return fmt.Errorf("%w: %s is eliminated", ErrInvalidTarget, targetPlayer.Name)
		}
	} else {
		target = ""
	}

	g.Pending = &PendingAction{
		Kind:      kind,
		Initiator: playerID,
		Target:    target,
		Claim:     spec.Claim,
	}

	switch kind {
	case ActionIncome:
		e.creditCoins(g, actor, 1)
		g.appendLog("%s takes income (+1 coin, now %d)", actor.Name, actor.Coins)
		g.advanceTurn()
		g.appendLog("%s's turn", g.currentPlayerRef().Name)
		return nil

	case ActionCoup:
		e.debitCoins(g, actor, spec.Cost)
		g.appendLog("%s pays 7 coins to launch a coup against %s", actor.Name, targetPlayer.Name)
		g.LossQueue = append(g.LossQueue, target)
		e.processLossQueue(g)
		return nil

	case ActionAssassinate:
		// The contract is paid the instant it is declared; a lost
		// challenge or a standing block never refunds it.
		e.debitCoins(g, actor, spec.Cost)
		g.appendLog("%s pays 3 coins to assassinate %s, claiming the Assassin", actor.Name, targetPlayer.Name)

	case ActionForeignAid:
		g.appendLog("%s requests foreign aid", actor.Name)
	case ActionTax:
		g.appendLog("%s claims the Duke and demands tax", actor.Name)
	case ActionSteal:
		g.appendLog("%s claims the Captain to steal from %s", actor.Name, targetPlayer.Name)
	case ActionExchange:
		g.appendLog("%s claims the Ambassador to exchange cards", actor.Name)
	}

	g.Responded = make(map[PlayerID]bool)
	g.Phase = PhaseAwaitingResponses

	e.logger.Debug("action declared",
		zap.String("game_id", g.ID),
		zap.String("player", actor.Name),
		zap.String("action", string(kind)),
		zap.String("target", string(target)),
	)
	return nil
}

// Respond records one responder's pass, challenge or block against the
// pending action. A challenge or block short-circuits the remaining votes.
func (e *Engine) Respond(g *Game, playerID PlayerID, kind ResponseKind, claim Character) error {
	if g.Phase != PhaseAwaitingResponses {
		// A responder racing a resolved challenge or block gets told the
		// window closed rather than that their command made no sense.
		if g.Pending != nil && g.Pending.Initiator != playerID &&
			(g.Phase == PhaseAwaitingBlockResponse || g.Phase == PhaseAwaitingInfluenceLoss || g.Phase == PhaseAwaitingExchange) {
			return ErrAlreadyResolved
		}
		// Same race, one step later: the claim resolved all the way
		// through the turn advance before this response arrived.
		if g.Phase == PhaseAwaitingAction && g.Pending == nil {
			return ErrAlreadyResolved
		}
		return ErrWrongPhase
	}
	if g.Pending == nil {
		return ErrNoPendingAction
	}
	responder := g.PlayerByID(playerID)
	if responder == nil {
		return ErrNoSuchPlayer
	}
	if responder.Eliminated() || playerID == g.Pending.Initiator {
		return ErrNotEligibleResponder
	}
	if g.Responded[playerID] {
		return ErrAlreadyResponded
	}

	spec, _ := LookupAction(g.Pending.Kind)

	switch kind {
	case ResponsePass:
		g.Responded[playerID] = true
		if e.allResponded(g) {
			e.applyActionEffect(g)
		}
		return nil

	case ResponseChallenge:
		if !spec.Challengeable() {
			return fmt.Errorf("%w: %s cannot be challenged", ErrNotEligibleResponder, g.Pending.Kind)
		}
		g.appendLog("%s challenges %s's claim to the %s",
			responder.Name, g.playerName(g.Pending.Initiator), g.Pending.Claim)
		e.resolveChallenge(g, playerID, g.Pending.Initiator, g.Pending.Claim, false)
		return nil

	case ResponseBlock:
		if !ValidCharacter(claim) {
			return fmt.Errorf("%w: unknown character %q", ErrNotEligibleResponder, claim)
		}
		if !spec.Blockable() {
			return fmt.Errorf("%w: %s cannot be blocked", ErrNotEligibleResponder, g.Pending.Kind)
		}
		if !spec.BlockableWith(claim) {
			return fmt.Errorf("%w: %s does not block %s", ErrNotEligibleResponder, claim, g.Pending.Kind)
		}
		// Targeted actions can only be blocked by their target.
		if g.Pending.Target != "" && playerID != g.Pending.Target {
			return fmt.Errorf("%w: only %s may block this", ErrNotEligibleResponder, g.playerName(g.Pending.Target))
		}
		// A block pauses the original vote entirely.
		g.Responded = nil
		g.Block = &PendingBlock{Blocker: playerID, Claim: claim}
		g.Phase = PhaseAwaitingBlockResponse
		g.appendLog("%s claims the %s and blocks", responder.Name, claim)
		return nil

	default:
		return fmt.Errorf("%w: unknown response %q", ErrNotEligibleResponder, kind)
	}
}

// RespondToBlock lets the initiator accept or challenge a declared block.
func (e *Engine) RespondToBlock(g *Game, playerID PlayerID, challenge bool) error {
	if g.Phase != PhaseAwaitingBlockResponse {
		return ErrWrongPhase
	}
	if g.Pending == nil || g.Block == nil {
		return ErrNoPendingAction
	}
	if playerID != g.Pending.Initiator {
		return ErrNotEligibleResponder
	}

	if !challenge {
		g.appendLog("%s accepts the block; %s is cancelled",
			g.playerName(playerID), actionNarration(g.Pending.Kind))
		g.advanceTurn()
		g.appendLog("%s's turn", g.currentPlayerRef().Name)
		return nil
	}

	g.appendLog("%s challenges %s's claim to the %s",
		g.playerName(playerID), g.playerName(g.Block.Blocker), g.Block.Claim)
	e.resolveChallenge(g, playerID, g.Block.Blocker, g.Block.Claim, true)
	return nil
}

// ChooseInfluence flips one of the choosing player's live cards. The player
// must be at the head of the loss queue.
func (e *Engine) ChooseInfluence(g *Game, playerID PlayerID, cardIndex int) error {
	if g.Phase != PhaseAwaitingInfluenceLoss {
		return ErrWrongPhase
	}
	if len(g.LossQueue) == 0 || g.LossQueue[0] != playerID {
		return ErrNotYourTurn
	}
	p := g.PlayerByID(playerID)
	if p == nil {
		return ErrNoSuchPlayer
	}
	if cardIndex < 0 || cardIndex >= len(p.Cards) {
		return fmt.Errorf("%w: index %d out of range", ErrInvalidCardSelection, cardIndex)
	}
	if p.Cards[cardIndex].Eliminated {
		return fmt.Errorf("%w: card %d already eliminated", ErrInvalidCardSelection, cardIndex)
	}

	g.LossQueue = g.LossQueue[1:]
	e.eliminateCard(g, p, cardIndex)
	if g.checkWin() {
		return nil
	}
	e.processLossQueue(g)
	return nil
}

// ChooseExchangeKeep finishes an exchange: keep holds indices into the
// player's live cards followed by the drawn cards, and must select exactly
// as many cards as the player had live before the exchange.
func (e *Engine) ChooseExchangeKeep(g *Game, playerID PlayerID, keep []int) error {
	if g.Phase != PhaseAwaitingExchange {
		return ErrWrongPhase
	}
	if g.Pending == nil || g.Pending.Initiator != playerID {
		return ErrNotEligibleResponder
	}
	p := g.PlayerByID(playerID)
	if p == nil {
		return ErrNoSuchPlayer
	}

	liveIdx := make([]int, 0, handSize)
	options := make([]Card, 0, handSize+len(g.ExchangeDrawn))
	for i, c := range p.Cards {
		if !c.Eliminated {
			liveIdx = append(liveIdx, i)
			options = append(options, c)
		}
	}
	options = append(options, g.ExchangeDrawn...)

	if len(keep) != len(liveIdx) {
		return fmt.Errorf("%w: keep %d of %d live slots", ErrWrongSelectionCount, len(keep), len(liveIdx))
	}
	seen := make(map[int]bool, len(keep))
	for _, idx := range keep {
		if idx < 0 || idx >= len(options) {
			return fmt.Errorf("%w: index %d out of range", ErrInvalidCardSelection, idx)
		}
		if seen[idx] {
			return fmt.Errorf("%w: index %d selected twice", ErrInvalidCardSelection, idx)
		}
		seen[idx] = true
	}

	// Kept cards fill the live slots in selection order; the rest return to
	// the deck face down.
	for i, idx := range keep {
		p.Cards[liveIdx[i]] = options[idx]
	}
	g.ExchangeDrawn = nil
	for idx, card := range options {
		if !seen[idx] {
			e.returnAndReshuffle(g.Deck, card)
		}
	}

	g.appendLog("%s completes the exchange and returns %d cards to the court deck",
		p.Name, len(options)-len(keep))
	g.advanceTurn()
	g.appendLog("%s's turn", g.currentPlayerRef().Name)
	return nil
}

// VoteNewGame registers a rematch vote after game over. A unanimous roster
// re-deals with the same seats.
func (e *Engine) VoteNewGame(g *Game, playerID PlayerID) error {
	if g.Phase != PhaseGameOver {
		return ErrWrongPhase
	}
	if g.PlayerByID(playerID) == nil {
		return ErrNoSuchPlayer
	}
	if g.NewGameVotes[playerID] {
		return ErrAlreadyVoted
	}
	if g.NewGameVotes == nil {
		g.NewGameVotes = make(map[PlayerID]bool, len(g.Players))
	}
	g.NewGameVotes[playerID] = true
	g.appendLog("%s votes for a new game (%d/%d)", g.playerName(playerID), len(g.NewGameVotes), len(g.Players))

	if len(g.NewGameVotes) < len(g.Players) {
		return nil
	}
	return e.resetForNewGame(g)
}

// resetForNewGame re-deals the same roster in the same seats.
func (e *Engine) resetForNewGame(g *Game) error {
	g.Phase = PhaseSetup
	g.Winner = ""
	g.NewGameVotes = nil
	g.Treasury = 0
	g.Log = append(g.Log, "the table votes to play again")
	for _, p := range g.Players {
		p.Coins = 0
		p.Cards = nil
	}
	return e.Start(g)
}

// allResponded reports whether every eligible responder has passed.
func (e *Engine) allResponded(g *Game) bool {
	for _, p := range g.Players {
		if p.Eliminated() || p.ID == g.Pending.Initiator {
			continue
		}
		if !g.Responded[p.ID] {
			return false
		}
	}
	return true
}

// applyActionEffect commits the pending action's success effect: credit
// coins, queue influence loss, or open the exchange. Runs when every
// responder passed, or when a challenge against the initiator's claim
// failed and the loss queue drained.
func (e *Engine) applyActionEffect(g *Game) {
	actor := g.PlayerByID(g.Pending.Initiator)
	g.ResumeAction = false

	switch g.Pending.Kind {
	case ActionForeignAid:
		e.creditCoins(g, actor, 2)
		g.appendLog("%s receives foreign aid (+2 coins, now %d)", actor.Name, actor.Coins)

	case ActionTax:
		e.creditCoins(g, actor, 3)
		g.appendLog("%s collects tax (+3 coins, now %d)", actor.Name, actor.Coins)

	case ActionSteal:
		target := g.PlayerByID(g.Pending.Target)
		if target.Eliminated() {
			// Target fell to the failed block challenge this resolution.
			g.appendLog("the theft from %s is moot", target.Name)
			break
		}
		amount := target.Coins
		if amount > 2 {
			amount = 2
		}
		target.Coins -= amount
		actor.Coins += amount
		g.appendLog("%s steals %d coins from %s", actor.Name, amount, target.Name)

	case ActionAssassinate:
		target := g.PlayerByID(g.Pending.Target)
		if target.Eliminated() {
			// Target already fell to an earlier loss this resolution.
			g.appendLog("the assassination of %s is moot", target.Name)
			break
		}
		g.appendLog("the assassination of %s succeeds", target.Name)
		g.LossQueue = append(g.LossQueue, target.ID)
		e.processLossQueue(g)
		return

	case ActionExchange:
		if g.Deck.Len() == 0 {
			// Cannot occur with a 15-card court; log and fall through to
			// the turn advance so the game is not wedged.
			g.appendLog("the court deck is exhausted; %s's exchange fizzles", actor.Name)
			e.logger.Error("deck exhausted during exchange",
				zap.String("game_id", g.ID),
			)
			break
		}
		drawn := make([]Card, 0, 2)
		for i := 0; i < 2 && g.Deck.Len() > 0; i++ {
			card, _ := g.Deck.Draw()
			drawn = append(drawn, card)
		}
		g.ExchangeDrawn = drawn
		g.Phase = PhaseAwaitingExchange
		g.appendLog("%s draws %d cards from the court deck", actor.Name, len(drawn))
		return
	}

	g.advanceTurn()
	g.appendLog("%s's turn", g.currentPlayerRef().Name)
}

// resolveChallenge is the shared challenge algorithm for both action claims
// and block claims (againstBlock selects which). If the accused holds the
// claimed character the claim is proven true: the card is laundered back
// into the deck, a replacement is drawn into the same slot, and the accuser
// owes an influence loss. Otherwise the accused owes the loss and the
// claimed thing (action or block) is cancelled.
func (e *Engine) resolveChallenge(g *Game, accuser, accused PlayerID, claim Character, againstBlock bool) {
	accusedPlayer := g.PlayerByID(accused)
	slot := accusedPlayer.liveCardIndex(claim)

	if slot >= 0 {
		// Claim is true. Launder: the revealed card's exact identity
		// becomes unknowable again.
		revealed := accusedPlayer.Cards[slot]
		e.returnAndReshuffle(g.Deck, revealed)
		replacement, err := g.Deck.Draw()
		if err != nil {
			// Unreachable: the return above put a card back first.
			e.logger.Error("deck empty after laundering",
				zap.String("game_id", g.ID),
				zap.Error(err),
			)
		} else {
			accusedPlayer.Cards[slot] = replacement
		}
		g.appendLog("%s reveals the %s: the challenge fails; the card is shuffled back and replaced",
			accusedPlayer.Name, claim)

		// The claim stands: a proven block cancels the action, a proven
		// action resumes once the accuser pays their card.
		g.ResumeAction = !againstBlock
		if againstBlock {
			g.Block = nil
			g.Pending = nil
		}
		g.LossQueue = append(g.LossQueue, accuser)
		e.processLossQueue(g)
		return
	}

	// Claim is false: the bluff is exposed and the claimed thing dies with
	// it.
	g.appendLog("%s cannot show the %s: the challenge succeeds", accusedPlayer.Name, claim)
	if againstBlock {
		// The block collapses and the original action resumes.
		g.Block = nil
		g.ResumeAction = true
	} else {
		g.Pending = nil
		g.ResumeAction = false
	}
	g.LossQueue = append(g.LossQueue, accused)
	e.processLossQueue(g)
}

// processLossQueue drives pending influence losses. Players with a single
// live card lose it automatically; a player with a real choice parks the
// game in PhaseAwaitingInfluenceLoss until they pick. When the queue drains
// the resolution either resumes the surviving action or advances the turn.
func (e *Engine) processLossQueue(g *Game) {
	for len(g.LossQueue) > 0 {
		p := g.PlayerByID(g.LossQueue[0])
		if p == nil || p.Eliminated() {
			g.LossQueue = g.LossQueue[1:]
			continue
		}
		if sole := p.soleLiveCardIndex(); sole >= 0 {
			// Routed through the same elimination path as a manual
			// selection for a uniform log trail.
			g.LossQueue = g.LossQueue[1:]
			e.eliminateCard(g, p, sole)
			if g.checkWin() {
				return
			}
			continue
		}
		g.Phase = PhaseAwaitingInfluenceLoss
		return
	}

	if g.ResumeAction && g.Pending != nil {
		e.applyActionEffect(g)
		return
	}
	g.advanceTurn()
	g.appendLog("%s's turn", g.currentPlayerRef().Name)
}

// eliminateCard flips a card face up and narrates the loss.
func (e *Engine) eliminateCard(g *Game, p *Player, idx int) {
	p.Cards[idx].Eliminated = true
	g.appendLog("%s loses influence: the %s is revealed", p.Name, p.Cards[idx].Character)
	if p.Eliminated() {
		g.appendLog("%s is out of the game", p.Name)
		e.logger.Info("player eliminated",
			zap.String("game_id", g.ID),
			zap.String("player", p.Name),
		)
	}
}

// creditCoins moves coins from the treasury to a player, clamped to what the
// treasury holds so the fixed supply is conserved.
func (e *Engine) creditCoins(g *Game, p *Player, n int) {
	if n > g.Treasury {
		n = g.Treasury
	}
	g.Treasury -= n
	p.Coins += n
}

// debitCoins moves coins from a player back to the treasury. Affordability
// is validated before any call.
func (e *Engine) debitCoins(g *Game, p *Player, n int) {
	p.Coins -= n
	g.Treasury += n
}

// actionNarration renders an action kind for log lines.
func actionNarration(kind ActionKind) string {
	switch kind {
	case ActionIncome:
		return "the income"
	case ActionForeignAid:
		return "the foreign aid"
	case ActionTax:
		return "the tax"
	case ActionSteal:
		return "the steal"
	case ActionAssassinate:
		return "the assassination"
	case ActionExchange:
		return "the exchange"
	case ActionCoup:
		return "the coup"
	}
	return string(kind)
}
