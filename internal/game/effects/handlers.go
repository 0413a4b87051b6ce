package effects

import (
	"fmt"

	"github.com/jianghu-duel/duel-server-go/internal/game/rules"
	"github.com/jianghu-duel/duel-server-go/internal/game/state"
	"github.com/jianghu-duel/duel-server-go/internal/game/targeting"
)

// Play is one card being resolved.
type Play struct {
	Card        *state.Card
	Instance    state.CardInstance
	SourceIndex int
	// TargetIndex is the card-level default target.
	TargetIndex int
	// Dodged cancels every enemy-directed effect and buff of the card.
	Dodged bool
	// TargetHPAtPlay is the default target's HP before any effect resolved.
	TargetHPAtPlay int
}

// NewPlay resolves the card-level target, snapshots its HP and rolls the
// card's single dodge check. Only cards aimed at the opponent can be dodged.
func NewPlay(env *Env, card *state.Card, inst state.CardInstance, sourceIndex int) *Play {
	target := targeting.CardTargetIndex(card, sourceIndex)
	p := &Play{
		Card:           card,
		Instance:       inst,
		SourceIndex:    sourceIndex,
		TargetIndex:    target,
		TargetHPAtPlay: env.Player(target).HP,
	}
	if card.Target == state.TargetOpponent {
		p.Dodged = rules.ShouldDodge(env.Player(target), env.RNG)
	}
	return p
}

func (p *Play) source(effect string) source {
	return source{
		cardID:     p.Card.ID,
		cardName:   p.Card.Name,
		instanceID: p.Instance.InstanceID,
		effect:     effect,
	}
}

// ResolveCard runs the card's immediate effects in order, then grants its
// buffs. Resolution stops at the first lethal effect.
func ResolveCard(env *Env, p *Play) {
	ApplyImmediateEffects(env, p)
	if env.Over() {
		return
	}
	ApplyCardBuffs(env, p)
}

// ApplyImmediateEffects dispatches every immediate effect of the card.
func ApplyImmediateEffects(env *Env, p *Play) {
	for _, eff := range p.Card.Effects {
		if env.Over() {
			return
		}
		target := targeting.ResolveTarget(p.TargetIndex, p.SourceIndex, eff.ApplyTo)
		if rules.IsAlwaysSelfEffect(eff.Type) {
			target = p.SourceIndex
		}
		enemy := rules.IsEnemyEffect(p.SourceIndex, target, eff.Type)
		if rules.ShouldSkipDueToDodge(p.Dodged, enemy) {
			continue
		}

		switch eff.Type {
		case state.EffectDamage:
			handleDamage(env, p, target, eff.Value, enemy, string(eff.Type))
		case state.EffectBonusDamageIfTargetHPGT:
			handleBonusDamage(env, p, target, eff, enemy)
		case state.EffectHeal:
			env.heal(p.SourceIndex, target, eff.Value, p.source(string(eff.Type)))
		case state.EffectDraw:
			DrawCards(env.State, p.SourceIndex, eff.Value)
		case state.EffectCleanse:
			Cleanse(env, p.SourceIndex)
		case state.EffectFenglaiChannel, state.EffectWujianChannel, state.EffectXinzhengChannel:
			handleChannelStart(env, p, eff.Type)
		default:
			panic(fmt.Sprintf("effects: unhandled effect type %q", eff.Type))
		}
	}
}

func handleDamage(env *Env, p *Play, target, base int, enemy bool, effect string) {
	blocked := enemy && rules.BlocksEnemyTargeting(env.Player(target))
	env.damage(p.SourceIndex, target, base, blocked, p.source(effect))
}

// handleBonusDamage compares against the HP snapshot taken when the card was
// played, so earlier effects of the same card cannot disable the bonus.
func handleBonusDamage(env *Env, p *Play, target int, eff state.CardEffect, enemy bool) {
	if p.TargetHPAtPlay <= eff.Threshold {
		return
	}
	handleDamage(env, p, target, eff.Value, enemy, string(eff.Type))
}

// DrawCards moves up to n cards from the front of the deck into the player's
// hand, stopping silently at an empty deck or a full hand. Returns the
// number drawn.
func DrawCards(s *state.GameState, playerIndex, n int) int {
	p := &s.Players[playerIndex]
	drawn := 0
	for drawn < n && len(s.Deck) > 0 && len(p.Hand) < state.MaxHandSize {
		p.Hand = append(p.Hand, s.Deck[0])
		s.Deck = s.Deck[1:]
		drawn++
	}
	return drawn
}

// Cleanse strips lock effects from the player's own buffs. A buff left with
// no effects is removed and reported as expired. A buff that keeps other
// effects is reported as expired in its old shape and applied in its new one.
func Cleanse(env *Env, playerIndex int) {
	p := env.Player(playerIndex)
	kept := make([]state.ActiveBuff, 0, len(p.Buffs))
	var expired, reshaped []state.ActiveBuff
	for _, b := range p.Buffs {
		effects := make([]state.BuffEffect, 0, len(b.Effects))
		for _, e := range b.Effects {
			if !rules.IsLockEffect(e.Type) {
				effects = append(effects, e)
			}
		}
		if len(effects) == len(b.Effects) {
			kept = append(kept, b)
			continue
		}
		expired = append(expired, b)
		if len(effects) == 0 {
			continue
		}
		b.Effects = effects
		kept = append(kept, b)
		reshaped = append(reshaped, b)
	}
	p.Buffs = kept
	for i := range expired {
		env.emitExpired(playerIndex, &expired[i])
	}
	for i := range reshaped {
		env.emitApplied(playerIndex, playerIndex, &reshaped[i])
	}
}

// ApplyCardBuffs grants each buff of the card. An explicit applyTo on the
// buff overrides the card-level target.
func ApplyCardBuffs(env *Env, p *Play) {
	for i := range p.Card.Buffs {
		def := &p.Card.Buffs[i]
		target := p.TargetIndex
		if def.ApplyTo != "" {
			target = targeting.ResolveTarget(p.TargetIndex, p.SourceIndex, def.ApplyTo)
		}
		enemy := target != p.SourceIndex
		if rules.ShouldSkipDueToDodge(p.Dodged, enemy) {
			continue
		}
		tp := env.Player(target)
		if rules.BlocksNewBuffByUntargetable(tp, enemy) || (enemy && rules.HasStealth(tp)) {
			continue
		}
		if rules.BlocksBuffByImmunity(def, tp) {
			continue
		}
		AddBuff(env, p.SourceIndex, target, def, p.Card)
	}
}
