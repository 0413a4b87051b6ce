package effects

import (
	"fmt"

	"github.com/jianghu-duel/duel-server-go/internal/game/rules"
	"github.com/jianghu-duel/duel-server-go/internal/game/state"
	"github.com/jianghu-duel/duel-server-go/internal/game/targeting"
)

// channelTick is a fixed damage/heal pair dealt by a channel.
type channelTick struct {
	Damage int
	Heal   int
}

// channelStart returns what a channel deals the moment its card is played.
func channelStart(t state.EffectType) channelTick {
	switch t {
	case state.EffectFenglaiChannel:
		return channelTick{}
	case state.EffectWujianChannel:
		return channelTick{Damage: 10, Heal: 3}
	case state.EffectXinzhengChannel:
		return channelTick{}
	default:
		panic(fmt.Sprintf("effects: %q is not a channel", t))
	}
}

// channelSweep returns what a channel buff deals at the end of each of its
// owner's turns.
func channelSweep(t state.BuffEffectType) channelTick {
	switch t {
	case state.BuffFenglaiChannel:
		return channelTick{Damage: 10}
	case state.BuffWujianChannel:
		return channelTick{Damage: 10, Heal: 3}
	case state.BuffXinzhengChannel:
		return channelTick{Damage: 5}
	default:
		panic(fmt.Sprintf("effects: %q is not a channel", t))
	}
}

// handleChannelStart deals a channel's immediate tick. The enemy blocks the
// damage the same way it blocks DAMAGE; the caster's heal always lands.
func handleChannelStart(env *Env, p *Play, t state.EffectType) {
	tick := channelStart(t)
	src := p.source(string(t))
	enemy := targeting.Enemy(p.SourceIndex)
	if tick.Damage > 0 {
		blocked := rules.BlocksEnemyTargeting(env.Player(enemy))
		env.damage(p.SourceIndex, enemy, tick.Damage, blocked, src)
	}
	if tick.Heal > 0 && !env.Over() {
		env.heal(p.SourceIndex, p.SourceIndex, tick.Heal, src)
	}
}

// ApplyChannelTicks sweeps the owner's channel buffs against the opponent at
// the end of the owner's turn. A stealthed, untargetable or dodging opponent
// takes a zero hit.
func ApplyChannelTicks(env *Env, owner int) {
	enemy := targeting.Enemy(owner)
	p := env.Player(owner)
	for i := range p.Buffs {
		b := &p.Buffs[i]
		for _, e := range b.Effects {
			if env.Over() {
				return
			}
			if !e.Type.IsChannel() {
				continue
			}
			tick := channelSweep(e.Type)
			src := buffSource(b, e.Type)
			if tick.Damage > 0 {
				tp := env.Player(enemy)
				blocked := rules.BlocksEnemyTargeting(tp) || rules.ShouldDodge(tp, env.RNG)
				env.damage(owner, enemy, tick.Damage, blocked, src)
			}
			if tick.Heal > 0 && !env.Over() {
				env.heal(owner, owner, tick.Heal, src)
			}
		}
	}
}
