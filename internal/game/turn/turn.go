// Package turn runs the hand-off between two turns: the end phase of the
// player passing and the start phase of the player taking over.
package turn

import (
	"fmt"

	"github.com/jianghu-duel/duel-server-go/internal/game/effects"
	"github.com/jianghu-duel/duel-server-go/internal/game/rules"
	"github.com/jianghu-duel/duel-server-go/internal/game/state"
)

// Phase is a broad state of the match between player actions.
type Phase int

const (
	PhaseActiveTurn Phase = iota
	PhaseEnd
	PhaseStart
	PhaseGameOver
)

var phaseNames = map[Phase]string{
	PhaseActiveTurn: "ACTIVE_TURN",
	PhaseEnd:        "END_PHASE",
	PhaseStart:      "START_PHASE",
	PhaseGameOver:   "GAME_OVER",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// Step is one ordered unit of work inside a phase.
type Step int

const (
	StepEndScheduled Step = iota
	StepChannelSweep
	StepEndTick
	StepHandOff
	StepRefillGCD
	StepStartScheduled
	StepStartTick
	StepStartEffects
	StepDraw
)

var stepNames = map[Step]string{
	StepEndScheduled:   "END_SCHEDULED",
	StepChannelSweep:   "CHANNEL_SWEEP",
	StepEndTick:        "END_TICK",
	StepHandOff:        "HAND_OFF",
	StepRefillGCD:      "REFILL_GCD",
	StepStartScheduled: "START_SCHEDULED",
	StepStartTick:      "START_TICK",
	StepStartEffects:   "START_EFFECTS",
	StepDraw:           "DRAW",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("STEP_%d", int(s))
}

type turnEntry struct {
	phase Phase
	step  Step
}

var sequence = []turnEntry{
	{PhaseEnd, StepEndScheduled},
	{PhaseEnd, StepChannelSweep},
	{PhaseEnd, StepEndTick},
	{PhaseEnd, StepHandOff},
	{PhaseStart, StepRefillGCD},
	{PhaseStart, StepStartScheduled},
	{PhaseStart, StepStartTick},
	{PhaseStart, StepStartEffects},
	{PhaseStart, StepDraw},
}

// Config holds the turn constants.
type Config struct {
	GCDBaseline int
	DrawPerTurn int
}

// DefaultConfig returns the standard match rules.
func DefaultConfig() Config {
	return Config{GCDBaseline: state.GCDBaseline, DrawPerTurn: 1}
}

// Machine walks one pass through the end and start phases.
type Machine struct {
	env   *effects.Env
	cfg   Config
	phase Phase
	index int

	// OnStep, when set, is called after each completed step.
	OnStep func(Phase, Step)
}

// NewMachine creates a machine positioned at the active turn.
func NewMachine(env *effects.Env, cfg Config) *Machine {
	return &Machine{env: env, cfg: cfg, phase: PhaseActiveTurn}
}

// Phase returns the phase the machine is currently in.
func (m *Machine) Phase() Phase {
	return m.phase
}

// Advance runs the next step. It returns false once the machine has settled
// in the next player's active turn or the match is over.
func (m *Machine) Advance() bool {
	if m.env.Over() {
		m.phase = PhaseGameOver
		return false
	}
	if m.index >= len(sequence) {
		m.phase = PhaseActiveTurn
		return false
	}

	entry := sequence[m.index]
	m.phase = entry.phase
	m.run(entry.step)
	m.index++
	if m.OnStep != nil {
		m.OnStep(entry.phase, entry.step)
	}
	return true
}

// Run drives the machine to completion and returns the phase it settled in.
func (m *Machine) Run() Phase {
	for m.Advance() {
	}
	return m.phase
}

func (m *Machine) run(step Step) {
	env := m.env
	s := env.State
	switch step {
	case StepEndScheduled:
		effects.ApplyScheduledDamage(env, state.PhaseTurnEnd)
	case StepChannelSweep:
		effects.ApplyChannelTicks(env, s.ActivePlayerIndex)
	case StepEndTick:
		effects.Tick(env.Player(s.ActivePlayerIndex), state.PhaseTurnEnd)
		effects.CleanupExpired(env, s.ActivePlayerIndex)
	case StepHandOff:
		s.Turn++
		s.ActivePlayerIndex = (s.ActivePlayerIndex + 1) % len(s.Players)
	case StepRefillGCD:
		env.Player(s.ActivePlayerIndex).GCD = m.cfg.GCDBaseline
	case StepStartScheduled:
		effects.ApplyScheduledDamage(env, state.PhaseTurnStart)
	case StepStartTick:
		effects.Tick(env.Player(s.ActivePlayerIndex), state.PhaseTurnStart)
		effects.CleanupExpired(env, s.ActivePlayerIndex)
	case StepStartEffects:
		effects.ApplyStartTurnEffects(env, s.ActivePlayerIndex)
	case StepDraw:
		effects.DrawCards(s, s.ActivePlayerIndex, DrawCount(env.Player(s.ActivePlayerIndex), m.cfg.DrawPerTurn))
	default:
		panic(fmt.Sprintf("turn: unhandled step %s", step))
	}
}

// DrawCount is the number of cards the player draws at the start of a turn
// after DRAW_REDUCTION.
func DrawCount(p *state.PlayerState, perTurn int) int {
	n := perTurn - int(rules.SumValue(p, state.BuffDrawReduction))
	if n < 0 {
		return 0
	}
	return n
}
