package turn

import (
	"fmt"
	"testing"
	"time"

	"github.com/jianghu-duel/duel-server-go/internal/game/effects"
	"github.com/jianghu-duel/duel-server-go/internal/game/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedRoll float64

func (r fixedRoll) Float64() float64 { return float64(r) }

func newEnv(s *state.GameState) *effects.Env {
	n := 0
	return &effects.Env{
		State: s,
		RNG:   fixedRoll(0.99),
		Now:   func() time.Time { return time.Unix(0, 0) },
		NewID: func() string {
			n++
			return fmt.Sprintf("e%d", n)
		},
	}
}

func newState() *state.GameState {
	return &state.GameState{
		Turn: 1,
		Players: []state.PlayerState{
			{UserID: "A", HP: 100, GCD: 0},
			{UserID: "B", HP: 100, GCD: 1},
		},
		Deck: []state.CardInstance{{InstanceID: "d1", CardID: "x"}, {InstanceID: "d2", CardID: "x"}},
	}
}

func marker(id int, tickOn state.Phase, remaining int, effs ...state.BuffEffect) state.ActiveBuff {
	return state.ActiveBuff{BuffID: id, Effects: effs, Remaining: remaining, TickOn: tickOn}
}

func TestPhaseAndStepNames(t *testing.T) {
	assert.Equal(t, "END_PHASE", PhaseEnd.String())
	assert.Equal(t, "GAME_OVER", PhaseGameOver.String())
	assert.Equal(t, "PHASE_9", Phase(9).String())
	assert.Equal(t, "CHANNEL_SWEEP", StepChannelSweep.String())
	assert.Equal(t, "STEP_42", Step(42).String())
}

func TestRunHandsTurnToOpponent(t *testing.T) {
	s := newState()
	m := NewMachine(newEnv(s), DefaultConfig())
	var steps []Step
	m.OnStep = func(_ Phase, st Step) { steps = append(steps, st) }

	assert.Equal(t, PhaseActiveTurn, m.Run())

	assert.Equal(t, 2, s.Turn)
	assert.Equal(t, 1, s.ActivePlayerIndex)
	assert.Equal(t, state.GCDBaseline, s.Players[1].GCD)
	assert.Equal(t, 0, s.Players[0].GCD)
	require.Len(t, s.Players[1].Hand, 1)
	assert.Equal(t, "d1", s.Players[1].Hand[0].InstanceID)
	assert.Len(t, s.Deck, 1)
	assert.Len(t, steps, len(sequence))
	assert.Equal(t, StepEndScheduled, steps[0])
	assert.Equal(t, StepDraw, steps[len(steps)-1])
}

func TestRunAlternatesSeats(t *testing.T) {
	s := newState()
	NewMachine(newEnv(s), DefaultConfig()).Run()
	NewMachine(newEnv(s), DefaultConfig()).Run()

	assert.Equal(t, 3, s.Turn)
	assert.Equal(t, 0, s.ActivePlayerIndex)
	assert.Len(t, s.Players[0].Hand, 1)
}

func TestTicksOnlyTheMatchingSide(t *testing.T) {
	s := newState()
	s.Players[0].Buffs = []state.ActiveBuff{
		marker(1, state.PhaseTurnEnd, 1),
		marker(2, state.PhaseTurnStart, 1),
	}
	s.Players[1].Buffs = []state.ActiveBuff{
		marker(3, state.PhaseTurnStart, 1),
		marker(4, state.PhaseTurnEnd, 1),
	}

	NewMachine(newEnv(s), DefaultConfig()).Run()

	require.Len(t, s.Players[0].Buffs, 1)
	assert.Equal(t, 2, s.Players[0].Buffs[0].BuffID)
	assert.Equal(t, 1, s.Players[0].Buffs[0].Remaining)
	require.Len(t, s.Players[1].Buffs, 1)
	assert.Equal(t, 4, s.Players[1].Buffs[0].BuffID)

	var expired []int
	for _, ev := range s.Events {
		if ev.Type == state.EventBuffExpired {
			expired = append(expired, ev.BuffID)
		}
	}
	assert.Equal(t, []int{1, 3}, expired)
}

func TestGameOverStopsTheHandOff(t *testing.T) {
	s := newState()
	s.Players[1].HP = 5
	s.Players[0].Buffs = []state.ActiveBuff{
		marker(14, state.PhaseTurnEnd, 1, state.BuffEffect{Type: state.BuffFenglaiChannel}),
	}
	m := NewMachine(newEnv(s), DefaultConfig())
	var steps []Step
	m.OnStep = func(_ Phase, st Step) { steps = append(steps, st) }

	assert.Equal(t, PhaseGameOver, m.Run())

	assert.True(t, s.GameOver)
	assert.Equal(t, "A", s.WinnerUserID)
	assert.Equal(t, 1, s.Turn)
	assert.Equal(t, 0, s.ActivePlayerIndex)
	assert.Equal(t, []Step{StepEndScheduled, StepChannelSweep}, steps)
	assert.Len(t, s.Players[0].Buffs, 1)
}

func TestStartTurnDamageCanEndTheMatch(t *testing.T) {
	s := newState()
	s.Players[1].HP = 3
	s.Players[1].Buffs = []state.ActiveBuff{
		marker(9, state.PhaseTurnEnd, 2, state.BuffEffect{Type: state.BuffStartTurnDamage, Value: 5}),
	}

	phase := NewMachine(newEnv(s), DefaultConfig()).Run()

	assert.Equal(t, PhaseGameOver, phase)
	assert.Equal(t, "A", s.WinnerUserID)
	assert.Equal(t, 2, s.Turn)
	assert.Empty(t, s.Players[1].Hand)
}

func TestDrawReduction(t *testing.T) {
	s := newState()
	s.Players[1].Buffs = []state.ActiveBuff{
		marker(12, state.PhaseTurnEnd, 1, state.BuffEffect{Type: state.BuffDrawReduction, Value: 1}),
	}

	NewMachine(newEnv(s), DefaultConfig()).Run()

	assert.Empty(t, s.Players[1].Hand)
	assert.Len(t, s.Deck, 2)
}

func TestDrawCount(t *testing.T) {
	p := &state.PlayerState{}
	assert.Equal(t, 1, DrawCount(p, 1))

	p.Buffs = []state.ActiveBuff{marker(1, state.PhaseTurnEnd, 1, state.BuffEffect{Type: state.BuffDrawReduction, Value: 2})}
	assert.Equal(t, 0, DrawCount(p, 1))
	assert.Equal(t, 1, DrawCount(p, 3))
}

func TestDrawSkippedOnFullHandOrEmptyDeck(t *testing.T) {
	s := newState()
	s.Players[1].Hand = make([]state.CardInstance, state.MaxHandSize)
	NewMachine(newEnv(s), DefaultConfig()).Run()
	assert.Len(t, s.Players[1].Hand, state.MaxHandSize)
	assert.Len(t, s.Deck, 2)

	s = newState()
	s.Deck = nil
	NewMachine(newEnv(s), DefaultConfig()).Run()
	assert.Empty(t, s.Players[1].Hand)
}
