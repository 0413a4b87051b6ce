// Package targeting maps card and effect target declarations onto player
// seats. The game is strictly two-player.
package targeting

import "github.com/jianghu-duel/duel-server-go/internal/game/state"

// Enemy returns the seat opposing playerIndex.
func Enemy(playerIndex int) int {
	return 1 - playerIndex
}

// CardTargetIndex returns the seat a card aims at by default.
func CardTargetIndex(card *state.Card, playerIndex int) int {
	if card.Target == state.TargetSelf {
		return playerIndex
	}
	return Enemy(playerIndex)
}

// ResolveTarget applies a per-effect override to the card-level target.
// An empty override keeps the card-level target.
func ResolveTarget(cardTargetIndex, playerIndex int, override state.Target) int {
	switch override {
	case state.TargetSelf:
		return playerIndex
	case state.TargetOpponent:
		return Enemy(playerIndex)
	default:
		return cardTargetIndex
	}
}

// ResolveStageTarget returns the seat a scheduled stage hits, relative to the
// buff owner.
func ResolveStageTarget(ownerIndex int, target state.StageTarget) int {
	if target == state.StageTargetSelf {
		return ownerIndex
	}
	return Enemy(ownerIndex)
}
