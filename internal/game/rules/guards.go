// Package rules holds the stateless guard predicates evaluated over a player's
// active buffs and the precondition gate run before any action mutates state.
package rules

import (
	"fmt"

	"github.com/jianghu-duel/duel-server-go/internal/game/state"
)

// RNG is the random source behind dodge rolls. *rand.Rand satisfies it.
type RNG interface {
	Float64() float64
}

// HasEffect reports whether any active buff carries an effect of type t.
func HasEffect(p *state.PlayerState, t state.BuffEffectType) bool {
	for _, b := range p.Buffs {
		for _, e := range b.Effects {
			if e.Type == t {
				return true
			}
		}
	}
	return false
}

// FirstValue returns the value of the first effect of type t across the
// player's buffs, in buff order.
func FirstValue(p *state.PlayerState, t state.BuffEffectType) (float64, bool) {
	for _, b := range p.Buffs {
		for _, e := range b.Effects {
			if e.Type == t {
				return e.Value, true
			}
		}
	}
	return 0, false
}

// SumValue adds the values of every effect of type t.
func SumValue(p *state.PlayerState, t state.BuffEffectType) float64 {
	var sum float64
	for _, b := range p.Buffs {
		for _, e := range b.Effects {
			if e.Type == t {
				sum += e.Value
			}
		}
	}
	return sum
}

// DodgeChance sums DODGE_NEXT chances across all buffs.
func DodgeChance(p *state.PlayerState) float64 {
	var chance float64
	for _, b := range p.Buffs {
		for _, e := range b.Effects {
			if e.Type == state.BuffDodgeNext {
				chance += e.Chance
			}
		}
	}
	return chance
}

// ShouldDodge rolls once against the player's cumulative dodge chance.
// No roll is consumed when the player has no dodge.
func ShouldDodge(p *state.PlayerState, rng RNG) bool {
	chance := DodgeChance(p)
	if chance <= 0 {
		return false
	}
	return rng.Float64() < chance
}

// HasUntargetable reports whether p carries UNTARGETABLE.
func HasUntargetable(p *state.PlayerState) bool {
	return HasEffect(p, state.BuffUntargetable)
}

// HasStealth reports whether p carries STEALTH.
func HasStealth(p *state.PlayerState) bool {
	return HasEffect(p, state.BuffStealth)
}

// BlocksEnemyTargeting reports whether enemy-originated effects miss p.
func BlocksEnemyTargeting(p *state.PlayerState) bool {
	return HasUntargetable(p) || HasStealth(p)
}

// HasControlImmunity reports whether p is immune to new control effects.
func HasControlImmunity(p *state.PlayerState) bool {
	return HasEffect(p, state.BuffControlImmune)
}

// HasSilence reports whether p is silenced.
func HasSilence(p *state.PlayerState) bool {
	return HasEffect(p, state.BuffSilence)
}

// IsControlled reports whether p carries any lock effect.
func IsControlled(p *state.PlayerState) bool {
	for _, b := range p.Buffs {
		for _, e := range b.Effects {
			if IsLockEffect(e.Type) {
				return true
			}
		}
	}
	return false
}

// IsAlwaysSelfEffect reports whether a card effect always lands on the caster
// regardless of the card's target.
func IsAlwaysSelfEffect(t state.EffectType) bool {
	switch t {
	case state.EffectDraw,
		state.EffectCleanse,
		state.EffectFenglaiChannel,
		state.EffectWujianChannel,
		state.EffectXinzhengChannel:
		return true
	case state.EffectDamage,
		state.EffectHeal,
		state.EffectBonusDamageIfTargetHPGT:
		return false
	default:
		panic(fmt.Sprintf("rules: unhandled effect type %q", t))
	}
}

// IsEnemyEffect reports whether an effect resolved from source onto target is
// enemy-directed.
func IsEnemyEffect(source, target int, t state.EffectType) bool {
	if IsAlwaysSelfEffect(t) {
		return false
	}
	return target != source
}

// ShouldSkipDueToDodge cancels enemy-directed effects of a dodged card.
func ShouldSkipDueToDodge(dodged, isEnemy bool) bool {
	return dodged && isEnemy
}

// BlocksNewBuffByUntargetable reports whether an enemy-sourced buff is
// refused by the target's UNTARGETABLE.
func BlocksNewBuffByUntargetable(target *state.PlayerState, isEnemy bool) bool {
	return isEnemy && HasUntargetable(target)
}

// BlocksControlByImmunity reports whether an effect of type t is refused by
// CONTROL_IMMUNE. Only CONTROL is affected.
func BlocksControlByImmunity(t state.BuffEffectType, target *state.PlayerState) bool {
	return t == state.BuffControl && HasControlImmunity(target)
}

// BlocksBuffByImmunity applies BlocksControlByImmunity to every effect of a
// buff definition.
func BlocksBuffByImmunity(def *state.BuffDefinition, target *state.PlayerState) bool {
	for _, e := range def.Effects {
		if BlocksControlByImmunity(e.Type, target) {
			return true
		}
	}
	return false
}

// IsLockEffect reports whether a buff effect prevents playing cards without
// an override, which is also the set CLEANSE removes.
func IsLockEffect(t state.BuffEffectType) bool {
	switch t {
	case state.BuffControl, state.BuffAttackLock:
		return true
	case state.BuffDamageReduction,
		state.BuffDamageMultiplier,
		state.BuffHealReduction,
		state.BuffUntargetable,
		state.BuffStealth,
		state.BuffSilence,
		state.BuffControlImmune,
		state.BuffDodgeNext,
		state.BuffScheduledDamage,
		state.BuffStartTurnDamage,
		state.BuffStartTurnHeal,
		state.BuffOnPlayDamage,
		state.BuffDrawReduction,
		state.BuffFenglaiChannel,
		state.BuffWujianChannel,
		state.BuffXinzhengChannel:
		return false
	default:
		panic(fmt.Sprintf("rules: unhandled buff effect type %q", t))
	}
}
