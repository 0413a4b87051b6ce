package effects

import (
	"math"

	"github.com/jianghu-duel/duel-server-go/internal/game/rules"
	"github.com/jianghu-duel/duel-server-go/internal/game/state"
	"github.com/jianghu-duel/duel-server-go/internal/game/targeting"
)

// ApplyScheduledDamage fires the current SCHEDULED_DAMAGE stage of every buff
// of both players, in seat order, when the stage is eligible for phase.
func ApplyScheduledDamage(env *Env, phase state.Phase) {
	for owner := range env.State.Players {
		if env.Over() {
			return
		}
		applyScheduledFor(env, owner, phase)
	}
}

// scheduledStages returns the buff's SCHEDULED_DAMAGE effects in order.
func scheduledStages(b *state.ActiveBuff) []state.BuffEffect {
	var stages []state.BuffEffect
	for _, e := range b.Effects {
		if e.Type == state.BuffScheduledDamage {
			stages = append(stages, e)
		}
	}
	return stages
}

// stageEligible reports whether a stage fires in phase given whose turn it is.
func stageEligible(stage state.BuffEffect, phase state.Phase, ownerIsActive bool) bool {
	if stage.When != phase {
		return false
	}
	switch stage.TurnOf {
	case state.TurnOfOwner:
		return ownerIsActive
	case state.TurnOfEnemy:
		return !ownerIsActive
	default:
		return true
	}
}

func applyScheduledFor(env *Env, owner int, phase state.Phase) {
	ownerIsActive := env.State.ActivePlayerIndex == owner
	p := env.Player(owner)
	for i := range p.Buffs {
		if env.Over() {
			return
		}
		b := &p.Buffs[i]
		stages := scheduledStages(b)
		if b.StageIndex >= len(stages) {
			continue
		}
		stage := stages[b.StageIndex]
		if !stageEligible(stage, phase, ownerIsActive) {
			continue
		}

		target := targeting.ResolveStageTarget(owner, stage.StageTarget)
		blocked := false
		if target != owner {
			tp := env.Player(target)
			blocked = rules.BlocksEnemyTargeting(tp) || rules.ShouldDodge(tp, env.RNG)
		}

		b.StageIndex++
		src := buffSource(b, state.BuffScheduledDamage)
		dealt := env.damage(owner, target, int(stage.Value), blocked, src)
		if dealt > 0 && stage.LifestealPct > 0 && !env.Over() {
			steal := int(math.Floor(float64(dealt) * stage.LifestealPct))
			if steal > 0 {
				env.heal(owner, owner, steal, src)
			}
		}
	}
}
