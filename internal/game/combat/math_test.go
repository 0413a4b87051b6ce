package combat

import (
	"testing"

	"github.com/jianghu-duel/duel-server-go/internal/game/state"
	"github.com/stretchr/testify/assert"
)

func player(effects ...state.BuffEffect) *state.PlayerState {
	p := &state.PlayerState{HP: 100}
	for i, e := range effects {
		p.Buffs = append(p.Buffs, state.ActiveBuff{BuffID: i + 1, Remaining: 1, Effects: []state.BuffEffect{e}})
	}
	return p
}

func TestResolveDamage(t *testing.T) {
	tests := []struct {
		name   string
		source *state.PlayerState
		target *state.PlayerState
		base   int
		want   int
	}{
		{"plain", player(), player(), 10, 10},
		{"reduction 0.4", player(), player(state.BuffEffect{Type: state.BuffDamageReduction, Value: 0.4}), 10, 6},
		{"multiplier 2", player(state.BuffEffect{Type: state.BuffDamageMultiplier, Value: 2}), player(), 10, 20},
		{"both", player(state.BuffEffect{Type: state.BuffDamageMultiplier, Value: 2}), player(state.BuffEffect{Type: state.BuffDamageReduction, Value: 0.4}), 10, 12},
		{"floors", player(), player(state.BuffEffect{Type: state.BuffDamageReduction, Value: 0.5}), 5, 2},
		{"full reduction", player(), player(state.BuffEffect{Type: state.BuffDamageReduction, Value: 1}), 10, 0},
		{"over reduction clamps to zero", player(), player(state.BuffEffect{Type: state.BuffDamageReduction, Value: 1.5}), 10, 0},
		{"nil source", nil, player(), 7, 7},
		{"only first reduction counts", player(), player(
			state.BuffEffect{Type: state.BuffDamageReduction, Value: 0.5},
			state.BuffEffect{Type: state.BuffDamageReduction, Value: 0.9},
		), 10, 5},
		{"only first multiplier counts", player(
			state.BuffEffect{Type: state.BuffDamageMultiplier, Value: 2},
			state.BuffEffect{Type: state.BuffDamageMultiplier, Value: 3},
		), player(), 10, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveDamage(tt.source, tt.target, tt.base))
		})
	}
}

func TestResolveHeal(t *testing.T) {
	assert.Equal(t, 60, ResolveHeal(player(), 60))
	assert.Equal(t, 30, ResolveHeal(player(state.BuffEffect{Type: state.BuffHealReduction, Value: 0.5}), 60))
	assert.Equal(t, 1, ResolveHeal(player(state.BuffEffect{Type: state.BuffHealReduction, Value: 0.5}), 3))
	assert.Equal(t, 0, ResolveHeal(player(state.BuffEffect{Type: state.BuffHealReduction, Value: 2}), 10))
}

func TestApplyClamps(t *testing.T) {
	p := &state.PlayerState{HP: 90}
	assert.Equal(t, 10, ApplyHeal(p, 60))
	assert.Equal(t, 100, p.HP)

	p.HP = 5
	assert.Equal(t, 5, ApplyDamage(p, 12))
	assert.Equal(t, 0, p.HP)

	assert.Equal(t, 0, ApplyDamage(p, 3))
	assert.Equal(t, 0, ApplyHeal(&state.PlayerState{HP: 100}, 5))
}
