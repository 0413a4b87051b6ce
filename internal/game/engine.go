package game

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jianghu-duel/duel-server-go/internal/errors"
	"github.com/jianghu-duel/duel-server-go/internal/game/catalog"
	"github.com/jianghu-duel/duel-server-go/internal/game/effects"
	"github.com/jianghu-duel/duel-server-go/internal/game/rules"
	"github.com/jianghu-duel/duel-server-go/internal/game/state"
	"github.com/jianghu-duel/duel-server-go/internal/game/targeting"
	"github.com/jianghu-duel/duel-server-go/internal/game/turn"
	"go.uber.org/zap"
)

// RNG is the randomness an engine needs: dodge rolls and deck shuffles.
type RNG interface {
	Float64() float64
	Intn(n int) int
}

// globalRand forwards to the goroutine-safe math/rand top-level source so a
// single Engine can serve many matches concurrently.
type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }
func (globalRand) Intn(n int) int   { return rand.Intn(n) }

// Config holds the match rules an Engine enforces.
type Config struct {
	GCDBaseline  int
	DrawPerTurn  int
	StartingHand int
	// EventRetentionTurns keeps events of the current turn and the N turns
	// before it; 0 keeps all.
	EventRetentionTurns int
	DeckComposition     []catalog.DeckEntry
}

// DefaultConfig returns the standard match rules.
func DefaultConfig() Config {
	return Config{
		GCDBaseline:         state.GCDBaseline,
		DrawPerTurn:         1,
		StartingHand:        state.StartingHand,
		EventRetentionTurns: 0,
		DeckComposition:     catalog.DefaultComposition,
	}
}

// Engine applies player actions to game states. It holds no per-match data:
// every call takes a state and returns a new one, leaving the input intact.
type Engine struct {
	logger   *zap.Logger
	cfg      Config
	catalog  *catalog.Catalog
	legality *rules.LegalityChecker
	rng      RNG
	now      func() time.Time
	newID    func() string
}

// Option customizes an Engine.
type Option func(*Engine)

// WithConfig replaces the default match rules.
func WithConfig(cfg Config) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// WithRNG injects the randomness source, mainly for deterministic tests.
func WithRNG(rng RNG) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithClock injects the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator injects the generator used for event and card instance ids.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// NewEngine creates an engine over the given catalog.
func NewEngine(logger *zap.Logger, cat *catalog.Catalog, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		logger:   logger,
		cfg:      DefaultConfig(),
		catalog:  cat,
		legality: rules.NewLegalityChecker(cat),
		rng:      globalRand{},
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog returns the catalog the engine plays from.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Config returns the engine's match rules.
func (e *Engine) Config() Config {
	return e.cfg
}

func (e *Engine) env(s *state.GameState) *effects.Env {
	return &effects.Env{State: s, RNG: e.rng, Now: e.now, NewID: e.newID}
}

// NewMatch deals a fresh match between the given users. The first user
// starts.
func (e *Engine) NewMatch(userIDs []string) (*state.GameState, error) {
	if len(userIDs) != state.PlayerCount {
		return nil, apperrors.Newf(apperrors.CodeNotEnoughPlayers, "a match needs %d players, got %d", state.PlayerCount, len(userIDs))
	}
	deck, err := e.catalog.BuildDeck(e.cfg.DeckComposition, e.newID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidArgument, "build deck", err)
	}
	catalog.Shuffle(deck, e.rng)

	s := &state.GameState{
		Version: 1,
		Turn:    1,
		Players: make([]state.PlayerState, len(userIDs)),
		Deck:    deck,
	}
	for i, id := range userIDs {
		s.Players[i] = state.PlayerState{UserID: id, HP: state.MaxHP, GCD: e.cfg.GCDBaseline}
	}
	for i := range s.Players {
		effects.DrawCards(s, i, e.cfg.StartingHand)
	}

	e.logger.Info("match dealt",
		zap.Strings("players", userIDs),
		zap.Int("deck_size", len(s.Deck)),
	)
	return s, nil
}

// PlayCard plays the card instance from the player's hand. The input state is
// left unchanged; on success a new state with a bumped version is returned.
func (e *Engine) PlayCard(s *state.GameState, playerIndex int, instanceID string) (*state.GameState, error) {
	card, err := e.legality.CheckPlayCard(s, playerIndex, instanceID)
	if err != nil {
		e.logger.Debug("play rejected",
			zap.Int("player_index", playerIndex),
			zap.String("instance_id", instanceID),
			zap.String("code", string(apperrors.GetCode(err))),
		)
		return nil, err
	}

	next := s.Clone()
	env := e.env(next)
	player := env.Player(playerIndex)

	idx := player.HandIndex(instanceID)
	inst := player.Hand[idx]
	player.Hand = append(player.Hand[:idx], player.Hand[idx+1:]...)
	player.GCD -= card.GCDCost

	env.Emit(state.GameEvent{
		Type:           state.EventPlayCard,
		ActorUserID:    player.UserID,
		TargetUserID:   env.Player(targeting.CardTargetIndex(card, playerIndex)).UserID,
		CardID:         card.ID,
		CardName:       card.Name,
		CardInstanceID: inst.InstanceID,
	})

	effects.BreakOnPlay(env, playerIndex)
	effects.ApplyOnPlayDamage(env, playerIndex)
	if !env.Over() {
		effects.ResolveCard(env, effects.NewPlay(env, card, inst, playerIndex))
	}

	next.Discard = append(next.Discard, inst)
	env.CheckGameOver()
	next.Version++
	e.pruneEvents(next)

	e.logger.Debug("card played",
		zap.String("card_id", card.ID),
		zap.Int("player_index", playerIndex),
		zap.Int("version", next.Version),
		zap.Bool("game_over", next.GameOver),
	)
	return next, nil
}

// PassTurn ends the active player's turn and runs the start of the next one.
func (e *Engine) PassTurn(s *state.GameState) (*state.GameState, error) {
	return e.PassTurnAs(s, s.ActivePlayerIndex)
}

// PassTurnAs is PassTurn on behalf of a seat, rejecting seats that are not
// active.
func (e *Engine) PassTurnAs(s *state.GameState, playerIndex int) (*state.GameState, error) {
	if err := e.legality.CheckPassTurn(s, playerIndex); err != nil {
		return nil, err
	}

	next := s.Clone()
	env := e.env(next)
	env.Emit(state.GameEvent{
		Type:         state.EventEndTurn,
		ActorUserID:  next.ActivePlayer().UserID,
		TargetUserID: next.ActivePlayer().UserID,
	})

	m := turn.NewMachine(env, turn.Config{GCDBaseline: e.cfg.GCDBaseline, DrawPerTurn: e.cfg.DrawPerTurn})
	m.OnStep = func(phase turn.Phase, step turn.Step) {
		e.logger.Debug("turn step",
			zap.Stringer("phase", phase),
			zap.Stringer("step", step),
			zap.Int("turn", next.Turn),
		)
	}
	phase := m.Run()

	next.Version++
	e.pruneEvents(next)

	e.logger.Debug("turn passed",
		zap.Int("turn", next.Turn),
		zap.Int("active_player_index", next.ActivePlayerIndex),
		zap.Stringer("phase", phase),
	)
	return next, nil
}

// pruneEvents drops events older than the retention window.
func (e *Engine) pruneEvents(s *state.GameState) {
	keep := e.cfg.EventRetentionTurns
	if keep <= 0 {
		return
	}
	oldest := s.Turn - keep
	kept := s.Events[:0]
	for _, ev := range s.Events {
		if ev.Turn >= oldest {
			kept = append(kept, ev)
		}
	}
	s.Events = kept
}
