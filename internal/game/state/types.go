// Package state holds the data model shared by every part of the duel engine:
// match state, players, catalog definitions, runtime buffs and audit events.
package state

// CardType classifies a card for display and deck building.
type CardType string

const (
	CardTypeAttack  CardType = "ATTACK"
	CardTypeSupport CardType = "SUPPORT"
	CardTypeControl CardType = "CONTROL"
	CardTypeStance  CardType = "STANCE"
	CardTypeChannel CardType = "CHANNEL"
)

// Target is the side a card or effect is aimed at, relative to the caster.
type Target string

const (
	// TargetSelf aims at the caster.
	TargetSelf Target = "SELF"
	// TargetOpponent aims at the other player.
	TargetOpponent Target = "OPPONENT"
)

// BuffCategory is the display category of a buff.
type BuffCategory string

const (
	CategoryBuff   BuffCategory = "BUFF"
	CategoryDebuff BuffCategory = "DEBUFF"
)

// Phase is a turn boundary on which buffs tick and scheduled stages fire.
type Phase string

const (
	PhaseTurnStart Phase = "TURN_START"
	PhaseTurnEnd   Phase = "TURN_END"
)

// TurnOf gates a scheduled stage on whose turn it currently is, relative to
// the buff owner.
type TurnOf string

const (
	TurnOfOwner TurnOf = "OWNER"
	TurnOfEnemy TurnOf = "ENEMY"
)

// StageTarget selects who receives a scheduled damage stage, relative to the
// buff owner.
type StageTarget string

const (
	StageTargetSelf  StageTarget = "SELF"
	StageTargetEnemy StageTarget = "ENEMY"
)

// EffectType tags an immediate card effect. The set is closed: every value is
// listed in AllEffectTypes and every consumer switches over all of them.
type EffectType string

const (
	EffectDamage                  EffectType = "DAMAGE"
	EffectHeal                    EffectType = "HEAL"
	EffectDraw                    EffectType = "DRAW"
	EffectCleanse                 EffectType = "CLEANSE"
	EffectBonusDamageIfTargetHPGT EffectType = "BONUS_DAMAGE_IF_TARGET_HP_GT"
	EffectFenglaiChannel          EffectType = "FENGLAI_CHANNEL"
	EffectWujianChannel           EffectType = "WUJIAN_CHANNEL"
	EffectXinzhengChannel         EffectType = "XINZHENG_CHANNEL"
)

// AllEffectTypes lists every card effect type.
var AllEffectTypes = []EffectType{
	EffectDamage,
	EffectHeal,
	EffectDraw,
	EffectCleanse,
	EffectBonusDamageIfTargetHPGT,
	EffectFenglaiChannel,
	EffectWujianChannel,
	EffectXinzhengChannel,
}

// Valid reports whether t is a known card effect type.
func (t EffectType) Valid() bool {
	for _, known := range AllEffectTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IsChannel reports whether t is one of the channel-start markers.
func (t EffectType) IsChannel() bool {
	return t == EffectFenglaiChannel || t == EffectWujianChannel || t == EffectXinzhengChannel
}

// BuffEffectType tags an effect carried by a buff. The set is closed in the
// same way as EffectType.
type BuffEffectType string

const (
	BuffDamageReduction  BuffEffectType = "DAMAGE_REDUCTION"
	BuffDamageMultiplier BuffEffectType = "DAMAGE_MULTIPLIER"
	BuffHealReduction    BuffEffectType = "HEAL_REDUCTION"
	BuffUntargetable     BuffEffectType = "UNTARGETABLE"
	BuffStealth          BuffEffectType = "STEALTH"
	BuffAttackLock       BuffEffectType = "ATTACK_LOCK"
	BuffControl          BuffEffectType = "CONTROL"
	BuffSilence          BuffEffectType = "SILENCE"
	BuffControlImmune    BuffEffectType = "CONTROL_IMMUNE"
	BuffDodgeNext        BuffEffectType = "DODGE_NEXT"
	BuffScheduledDamage  BuffEffectType = "SCHEDULED_DAMAGE"
	BuffStartTurnDamage  BuffEffectType = "START_TURN_DAMAGE"
	BuffStartTurnHeal    BuffEffectType = "START_TURN_HEAL"
	BuffOnPlayDamage     BuffEffectType = "ON_PLAY_DAMAGE"
	BuffDrawReduction    BuffEffectType = "DRAW_REDUCTION"
	BuffFenglaiChannel   BuffEffectType = "FENGLAI_CHANNEL"
	BuffWujianChannel    BuffEffectType = "WUJIAN_CHANNEL"
	BuffXinzhengChannel  BuffEffectType = "XINZHENG_CHANNEL"
)

// AllBuffEffectTypes lists every buff effect type.
var AllBuffEffectTypes = []BuffEffectType{
	BuffDamageReduction,
	BuffDamageMultiplier,
	BuffHealReduction,
	BuffUntargetable,
	BuffStealth,
	BuffAttackLock,
	BuffControl,
	BuffSilence,
	BuffControlImmune,
	BuffDodgeNext,
	BuffScheduledDamage,
	BuffStartTurnDamage,
	BuffStartTurnHeal,
	BuffOnPlayDamage,
	BuffDrawReduction,
	BuffFenglaiChannel,
	BuffWujianChannel,
	BuffXinzhengChannel,
}

// Valid reports whether t is a known buff effect type.
func (t BuffEffectType) Valid() bool {
	for _, known := range AllBuffEffectTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IsChannel reports whether t marks an end-of-turn channel tick.
func (t BuffEffectType) IsChannel() bool {
	return t == BuffFenglaiChannel || t == BuffWujianChannel || t == BuffXinzhengChannel
}
