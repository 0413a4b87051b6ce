package effects

import (
	"github.com/jianghu-duel/duel-server-go/internal/game/state"
	"github.com/jianghu-duel/duel-server-go/internal/game/targeting"
)

// AddBuff installs a fresh instance of def on the target. Any active buff
// with the same id is dropped and the new instance goes to the end of the
// list. Effects are deep-copied from the definition.
func AddBuff(env *Env, actorIndex, targetIndex int, def *state.BuffDefinition, card *state.Card) {
	p := env.Player(targetIndex)
	inst := state.ActiveBuff{
		BuffID:        def.BuffID,
		Name:          def.Name,
		Category:      def.Category,
		Effects:       append([]state.BuffEffect(nil), def.Effects...),
		Remaining:     def.Duration,
		TickOn:        def.TickOn,
		BreakOnPlay:   def.BreakOnPlay,
		AppliedAtTurn: env.State.Turn,
	}
	if card != nil {
		inst.SourceCardID = card.ID
		inst.SourceCardName = card.Name
	}

	kept := make([]state.ActiveBuff, 0, len(p.Buffs)+1)
	for _, b := range p.Buffs {
		if b.BuffID != def.BuffID {
			kept = append(kept, b)
		}
	}
	p.Buffs = append(kept, inst)

	env.emitApplied(actorIndex, targetIndex, &inst)
}

func (e *Env) emitApplied(actorIndex, targetIndex int, b *state.ActiveBuff) {
	e.Emit(state.GameEvent{
		Type:          state.EventBuffApplied,
		ActorUserID:   e.Player(actorIndex).UserID,
		TargetUserID:  e.Player(targetIndex).UserID,
		CardID:        b.SourceCardID,
		CardName:      b.SourceCardName,
		Value:         b.Remaining,
		BuffID:        b.BuffID,
		BuffName:      b.Name,
		BuffCategory:  b.Category,
		AppliedAtTurn: b.AppliedAtTurn,
	})
}

// Tick decrements every buff that ticks on phase.
func Tick(p *state.PlayerState, phase state.Phase) {
	for i := range p.Buffs {
		if p.Buffs[i].TickOn == phase {
			p.Buffs[i].Remaining--
		}
	}
}

// CleanupExpired removes buffs with no remaining ticks and reports each one.
func CleanupExpired(env *Env, playerIndex int) {
	removeBuffs(env, playerIndex, func(b *state.ActiveBuff) bool { return b.Remaining <= 0 })
}

// BreakOnPlay removes the player's buffs that end when they play a card.
func BreakOnPlay(env *Env, playerIndex int) {
	removeBuffs(env, playerIndex, func(b *state.ActiveBuff) bool { return b.BreakOnPlay })
}

func removeBuffs(env *Env, playerIndex int, drop func(*state.ActiveBuff) bool) {
	p := env.Player(playerIndex)
	kept := make([]state.ActiveBuff, 0, len(p.Buffs))
	var removed []state.ActiveBuff
	for i := range p.Buffs {
		if drop(&p.Buffs[i]) {
			removed = append(removed, p.Buffs[i])
			continue
		}
		kept = append(kept, p.Buffs[i])
	}
	p.Buffs = kept
	for i := range removed {
		env.emitExpired(playerIndex, &removed[i])
	}
}

// emitExpired reports a removed buff using the provenance stored on the
// instance.
func (e *Env) emitExpired(playerIndex int, b *state.ActiveBuff) {
	userID := e.Player(playerIndex).UserID
	e.Emit(state.GameEvent{
		Type:          state.EventBuffExpired,
		ActorUserID:   userID,
		TargetUserID:  userID,
		CardID:        b.SourceCardID,
		CardName:      b.SourceCardName,
		BuffID:        b.BuffID,
		BuffName:      b.Name,
		BuffCategory:  b.Category,
		AppliedAtTurn: b.AppliedAtTurn,
	})
}

// ApplyStartTurnEffects resolves START_TURN_DAMAGE and START_TURN_HEAL on the
// player whose turn is starting. Damage is attributed to the opponent, whose
// multiplier applies.
func ApplyStartTurnEffects(env *Env, playerIndex int) {
	enemy := targeting.Enemy(playerIndex)
	p := env.Player(playerIndex)
	for i := 0; i < len(p.Buffs); i++ {
		b := p.Buffs[i]
		for _, e := range b.Effects {
			if env.Over() {
				return
			}
			switch e.Type {
			case state.BuffStartTurnDamage:
				env.damage(enemy, playerIndex, int(e.Value), false, buffSource(&b, e.Type))
			case state.BuffStartTurnHeal:
				env.heal(playerIndex, playerIndex, int(e.Value), buffSource(&b, e.Type))
			}
		}
	}
}

// ApplyOnPlayDamage hurts a player who plays a card while carrying
// ON_PLAY_DAMAGE. Damage is attributed to the opponent.
func ApplyOnPlayDamage(env *Env, playerIndex int) {
	enemy := targeting.Enemy(playerIndex)
	p := env.Player(playerIndex)
	for i := 0; i < len(p.Buffs); i++ {
		b := p.Buffs[i]
		for _, e := range b.Effects {
			if env.Over() {
				return
			}
			if e.Type == state.BuffOnPlayDamage {
				env.damage(enemy, playerIndex, int(e.Value), false, buffSource(&b, e.Type))
			}
		}
	}
}

func buffSource(b *state.ActiveBuff, t state.BuffEffectType) source {
	return source{
		cardID:   b.SourceCardID,
		cardName: b.SourceCardName,
		effect:   string(t),
		buff:     b,
	}
}
