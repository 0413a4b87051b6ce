// Package effects resolves card effects and runs the buff lifecycle. Every
// handler mutates the state held by an Env and appends audit events to it.
package effects

import (
	"time"

	"github.com/google/uuid"
	"github.com/jianghu-duel/duel-server-go/internal/game/combat"
	"github.com/jianghu-duel/duel-server-go/internal/game/rules"
	"github.com/jianghu-duel/duel-server-go/internal/game/state"
	"github.com/jianghu-duel/duel-server-go/internal/game/targeting"
)

// Env is the working set of one state transition. The State it holds is owned
// by the caller for the duration of the transition.
type Env struct {
	State *state.GameState
	RNG   rules.RNG
	Now   func() time.Time
	NewID func() string
}

// NewEnv builds an Env with wall-clock time and uuid event ids.
func NewEnv(s *state.GameState, rng rules.RNG) *Env {
	return &Env{
		State: s,
		RNG:   rng,
		Now:   time.Now,
		NewID: uuid.NewString,
	}
}

// Player returns the seat at index.
func (e *Env) Player(index int) *state.PlayerState {
	return &e.State.Players[index]
}

// Emit stamps ev with an id, timestamp and the current turn, then appends it.
func (e *Env) Emit(ev state.GameEvent) {
	ev.ID = e.NewID()
	ev.Timestamp = e.Now().UnixMilli()
	ev.Turn = e.State.Turn
	e.State.Events = append(e.State.Events, ev)
}

// Over reports whether the match has ended.
func (e *Env) Over() bool {
	return e.State.GameOver
}

// CheckGameOver ends the match when any player is at 0 HP. The surviving
// player wins; if both are at 0 the match is recorded as a draw with no
// winner.
func (e *Env) CheckGameOver() bool {
	s := e.State
	if s.GameOver {
		return true
	}
	dead := -1
	deadCount := 0
	for i := range s.Players {
		if s.Players[i].HP <= 0 {
			if dead < 0 {
				dead = i
			}
			deadCount++
		}
	}
	switch deadCount {
	case 0:
		return false
	case 1:
		s.GameOver = true
		s.WinnerUserID = s.Players[targeting.Enemy(dead)].UserID
	default:
		s.GameOver = true
		s.WinnerUserID = ""
	}
	return true
}

// source describes where an HP change came from, for event payloads.
type source struct {
	cardID     string
	cardName   string
	instanceID string
	effect     string
	buff       *state.ActiveBuff
}

func (src source) fill(ev *state.GameEvent) {
	ev.CardID = src.cardID
	ev.CardName = src.cardName
	ev.CardInstanceID = src.instanceID
	ev.EffectType = src.effect
	if src.buff != nil {
		ev.BuffID = src.buff.BuffID
		ev.BuffName = src.buff.Name
		ev.BuffCategory = src.buff.Category
		ev.AppliedAtTurn = src.buff.AppliedAtTurn
	}
}

// damage resolves base damage from actor onto target through combat math and
// emits exactly one DAMAGE event carrying the HP actually removed. A blocked
// hit removes nothing and still emits a zero event. Returns the HP removed.
func (e *Env) damage(actor, target, base int, blocked bool, src source) int {
	applied := 0
	if !blocked {
		amount := combat.ResolveDamage(e.Player(actor), e.Player(target), base)
		applied = combat.ApplyDamage(e.Player(target), amount)
	}
	ev := state.GameEvent{
		Type:         state.EventDamage,
		ActorUserID:  e.Player(actor).UserID,
		TargetUserID: e.Player(target).UserID,
		Value:        applied,
	}
	src.fill(&ev)
	e.Emit(ev)
	e.CheckGameOver()
	return applied
}

// heal resolves base healing onto target and emits exactly one HEAL event
// carrying the HP actually restored.
func (e *Env) heal(actor, target, base int, src source) int {
	amount := combat.ResolveHeal(e.Player(target), base)
	applied := combat.ApplyHeal(e.Player(target), amount)
	ev := state.GameEvent{
		Type:         state.EventHeal,
		ActorUserID:  e.Player(actor).UserID,
		TargetUserID: e.Player(target).UserID,
		Value:        applied,
	}
	src.fill(&ev)
	e.Emit(ev)
	return applied
}
