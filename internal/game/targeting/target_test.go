package targeting

import (
	"testing"

	"github.com/jianghu-duel/duel-server-go/internal/game/state"
	"github.com/stretchr/testify/assert"
)

func TestEnemy(t *testing.T) {
	assert.Equal(t, 1, Enemy(0))
	assert.Equal(t, 0, Enemy(1))
}

func TestCardTargetIndex(t *testing.T) {
	self := &state.Card{Target: state.TargetSelf}
	opp := &state.Card{Target: state.TargetOpponent}

	assert.Equal(t, 0, CardTargetIndex(self, 0))
	assert.Equal(t, 1, CardTargetIndex(opp, 0))
	assert.Equal(t, 0, CardTargetIndex(opp, 1))
}

func TestResolveTarget(t *testing.T) {
	tests := []struct {
		name     string
		cardIdx  int
		player   int
		override state.Target
		want     int
	}{
		{"no override keeps card target", 1, 0, "", 1},
		{"self override", 1, 0, state.TargetSelf, 0},
		{"opponent override", 0, 0, state.TargetOpponent, 1},
		{"opponent override from seat 1", 1, 1, state.TargetOpponent, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveTarget(tt.cardIdx, tt.player, tt.override))
		})
	}
}

func TestResolveStageTarget(t *testing.T) {
	assert.Equal(t, 0, ResolveStageTarget(0, state.StageTargetSelf))
	assert.Equal(t, 1, ResolveStageTarget(0, state.StageTargetEnemy))
	assert.Equal(t, 1, ResolveStageTarget(0, ""))
}
