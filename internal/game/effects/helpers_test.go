package effects

import (
	"fmt"
	"time"

	"github.com/jianghu-duel/duel-server-go/internal/game/state"
)

// stubRNG returns a fixed roll.
type stubRNG float64

func (r stubRNG) Float64() float64 { return float64(r) }

// noDodge rolls above every dodge chance used in these tests.
const noDodge = stubRNG(0.999)

func twoPlayers() *state.GameState {
	return &state.GameState{
		Players: []state.PlayerState{
			{UserID: "A", HP: 100, GCD: state.GCDBaseline},
			{UserID: "B", HP: 100, GCD: state.GCDBaseline},
		},
	}
}

func testEnv(s *state.GameState, rng stubRNG) *Env {
	n := 0
	return &Env{
		State: s,
		RNG:   rng,
		Now:   func() time.Time { return time.UnixMilli(1700000000000) },
		NewID: func() string {
			n++
			return fmt.Sprintf("ev-%d", n)
		},
	}
}

func activeBuff(id int, tickOn state.Phase, remaining int, effects ...state.BuffEffect) state.ActiveBuff {
	return state.ActiveBuff{
		BuffID:         id,
		Name:           fmt.Sprintf("buff-%d", id),
		Category:       state.CategoryBuff,
		Effects:        effects,
		Remaining:      remaining,
		TickOn:         tickOn,
		SourceCardID:   fmt.Sprintf("card-%d", id),
		SourceCardName: fmt.Sprintf("Card %d", id),
	}
}

func eventsOf(s *state.GameState, t state.EventType) []state.GameEvent {
	var out []state.GameEvent
	for _, ev := range s.Events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func play(env *Env, card *state.Card, source int) *Play {
	p := NewPlay(env, card, state.CardInstance{InstanceID: "inst-1", CardID: card.ID}, source)
	ResolveCard(env, p)
	return p
}
