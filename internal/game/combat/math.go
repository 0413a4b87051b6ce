// Package combat computes final damage and heal amounts after buff
// modifiers.
//
// Only the first matching modifier on each side counts: a second
// DAMAGE_MULTIPLIER on the source or a second DAMAGE_REDUCTION on the target
// is ignored.
package combat

import (
	"math"

	"github.com/jianghu-duel/duel-server-go/internal/game/rules"
	"github.com/jianghu-duel/duel-server-go/internal/game/state"
)

// ResolveDamage returns floor(base x multiplier(source) x (1 - reduction(target))),
// never below zero. A nil source applies no multiplier.
func ResolveDamage(source, target *state.PlayerState, base int) int {
	mult := 1.0
	if source != nil {
		if v, ok := rules.FirstValue(source, state.BuffDamageMultiplier); ok {
			mult = v
		}
	}
	reduction, _ := rules.FirstValue(target, state.BuffDamageReduction)
	return floorNonNegative(float64(base) * mult * (1 - reduction))
}

// ResolveHeal returns floor(base x (1 - healReduction(target))), never below
// zero.
func ResolveHeal(target *state.PlayerState, base int) int {
	reduction, _ := rules.FirstValue(target, state.BuffHealReduction)
	return floorNonNegative(float64(base) * (1 - reduction))
}

// ApplyDamage subtracts amount from the player's HP, clamped at zero, and
// returns the HP actually removed.
func ApplyDamage(p *state.PlayerState, amount int) int {
	before := p.HP
	p.HP = clamp(p.HP-amount, 0, state.MaxHP)
	return before - p.HP
}

// ApplyHeal adds amount to the player's HP, clamped at MaxHP, and returns the
// HP actually restored.
func ApplyHeal(p *state.PlayerState, amount int) int {
	before := p.HP
	p.HP = clamp(p.HP+amount, 0, state.MaxHP)
	return p.HP - before
}

func floorNonNegative(v float64) int {
	// Guard against 10*(1-0.4) landing a hair under 6.
	f := math.Floor(v + 1e-9)
	if f < 0 {
		return 0
	}
	return int(f)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
