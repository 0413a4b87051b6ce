package catalog

import "github.com/jianghu-duel/duel-server-go/internal/game/state"

// Buffs placed on the opponent tick at the end of the opponent's own turn so
// they cover one full enemy turn per point of duration. Buffs placed on the
// caster tick when the caster's next turn starts.
func debuff(id int, name, desc string, duration int, effects ...state.BuffEffect) state.BuffDefinition {
	return state.BuffDefinition{
		BuffID:      id,
		Name:        name,
		Description: desc,
		Category:    state.CategoryDebuff,
		Duration:    duration,
		TickOn:      state.PhaseTurnEnd,
		Effects:     effects,
	}
}

func buff(id int, name, desc string, duration int, effects ...state.BuffEffect) state.BuffDefinition {
	return state.BuffDefinition{
		BuffID:      id,
		Name:        name,
		Description: desc,
		Category:    state.CategoryBuff,
		Duration:    duration,
		TickOn:      state.PhaseTurnStart,
		Effects:     effects,
	}
}

func breakOnPlay(d state.BuffDefinition) state.BuffDefinition {
	d.BreakOnPlay = true
	return d
}

func marker(t state.BuffEffectType) state.BuffEffect {
	return state.BuffEffect{Type: t}
}

func valued(t state.BuffEffectType, v float64) state.BuffEffect {
	return state.BuffEffect{Type: t, Value: v}
}

// builtinCards is the shipped card set, in display order.
func builtinCards() []state.Card {
	return []state.Card{
		// Basic attacks
		{
			ID:          "jianpo_xukong",
			Name:        "剑破虚空",
			Description: "造成10点伤害",
			Type:        state.CardTypeAttack,
			Target:      state.TargetOpponent,
			GCDCost:     1,
			Effects:     []state.CardEffect{{Type: state.EffectDamage, Value: 10}},
		},
		{
			ID:          "sanhuan_taoyue",
			Name:        "三环套月",
			Description: "造成5点伤害\n抽一张牌",
			Type:        state.CardTypeAttack,
			Target:      state.TargetOpponent,
			GCDCost:     1,
			Effects: []state.CardEffect{
				{Type: state.EffectDamage, Value: 5},
				{Type: state.EffectDraw, Value: 1},
			},
		},
		{
			ID:          "baizu",
			Name:        "百足",
			Description: "造成5点伤害\n对手每个回合开始时受到5点伤害，持续5个回合",
			Type:        state.CardTypeAttack,
			Target:      state.TargetOpponent,
			GCDCost:     1,
			Effects:     []state.CardEffect{{Type: state.EffectDamage, Value: 5}},
			Buffs: []state.BuffDefinition{
				debuff(1001, "百足", "回合开始时受到5点伤害", 5, valued(state.BuffStartTurnDamage, 5)),
			},
		},

		// Control
		{
			ID:          "mohe_wuliang",
			Name:        "摩诃无量",
			Description: "造成10点伤害\n【控制】目标1个回合",
			Type:        state.CardTypeControl,
			Target:      state.TargetOpponent,
			GCDCost:     1,
			Effects:     []state.CardEffect{{Type: state.EffectDamage, Value: 10}},
			Buffs: []state.BuffDefinition{
				debuff(1002, "摩诃无量", "击倒", 1, marker(state.BuffControl)),
			},
		},
		{
			ID:          "shengsi_jie",
			Name:        "生死劫",
			Description: "造成2点伤害\n【控制】目标1个回合\n【减疗】3个回合",
			Type:        state.CardTypeControl,
			Target:      state.TargetOpponent,
			GCDCost:     1,
			Effects:     []state.CardEffect{{Type: state.EffectDamage, Value: 2}},
			Buffs: []state.BuffDefinition{
				debuff(1003, "生死劫", "无法行动\n受到治疗降低50%", 3,
					marker(state.BuffControl),
					valued(state.BuffHealReduction, 0.5),
				),
			},
		},
		{
			ID:          "chan_xiao",
			Name:        "蟾啸",
			Description: "造成10点伤害\n【沉默】目标1个回合",
			Type:        state.CardTypeControl,
			Target:      state.TargetOpponent,
			GCDCost:     1,
			Effects:     []state.CardEffect{{Type: state.EffectDamage, Value: 10}},
			Buffs: []state.BuffDefinition{
				debuff(1004, "沉默", "无法使用卡牌", 1, marker(state.BuffSilence)),
			},
		},
		{
			ID:          "da_shizi_hou",
			Name:        "大狮子吼",
			Description: "【控制】目标1个回合\n下个回合目标抽卡数量-1",
			Type:        state.CardTypeControl,
			Target:      state.TargetOpponent,
			GCDCost:     1,
			Effects:     []state.CardEffect{},
			Buffs: []state.BuffDefinition{
				debuff(1005, "大狮子吼", "无法行动\n下回合抽卡-1", 1,
					marker(state.BuffControl),
					valued(state.BuffDrawReduction, 1),
				),
			},
		},
		{
			ID:          "jiangchun_zhuxiu",
			Name:        "绛唇珠袖",
			Description: "目标每次使用卡牌时受到3点伤害，持续3个回合",
			Type:        state.CardTypeControl,
			Target:      state.TargetOpponent,
			GCDCost:     1,
			Effects:     []state.CardEffect{},
			Buffs: []state.BuffDefinition{
				debuff(1006, "绛唇", "每次使用卡牌时受到3点伤害", 3, valued(state.BuffOnPlayDamage, 3)),
			},
		},

		// Cleanse and defence
		{
			ID:          "jiru_feng",
			Name:        "疾如风",
			Description: "解控\n抽两张牌",
			Type:        state.CardTypeSupport,
			Target:      state.TargetSelf,
			GCDCost:     1,
			Effects: []state.CardEffect{
				{Type: state.EffectCleanse, AllowWhileControlled: true},
				{Type: state.EffectDraw, Value: 2, AllowWhileControlled: true},
			},
		},
		{
			ID:          "sanliu_xia",
			Name:        "散流霞",
			Description: "解控\n抽1张牌\n恢复10点生命值\n【不可选中】一回合",
			Type:        state.CardTypeSupport,
			Target:      state.TargetSelf,
			GCDCost:     1,
			Effects: []state.CardEffect{
				{Type: state.EffectCleanse, AllowWhileControlled: true},
				{Type: state.EffectDraw, Value: 1, AllowWhileControlled: true},
				{Type: state.EffectHeal, Value: 10, AllowWhileControlled: true},
			},
			Buffs: []state.BuffDefinition{
				breakOnPlay(buff(1007, "不可选中", "无法成为卡牌目标", 1, marker(state.BuffUntargetable))),
			},
		},
		{
			ID:          "que_ta_zhi",
			Name:        "鹊踏枝",
			Description: "解控\n免疫控制\n下次受到伤害有70%概率闪避",
			Type:        state.CardTypeSupport,
			Target:      state.TargetSelf,
			GCDCost:     1,
			Effects:     []state.CardEffect{{Type: state.EffectCleanse, AllowWhileControlled: true}},
			Buffs: []state.BuffDefinition{
				buff(1008, "鹊踏枝", "免疫控制\n下次受击有70%概率闪避", 1,
					marker(state.BuffControlImmune),
					state.BuffEffect{Type: state.BuffDodgeNext, Chance: 0.7},
				),
			},
		},

		// Sustain
		{
			ID:          "fengxiu_diang",
			Name:        "风袖低昂",
			Description: "恢复60点生命值\n受到伤害降低50%，持续2回合",
			Type:        state.CardTypeSupport,
			Target:      state.TargetSelf,
			GCDCost:     1,
			Effects:     []state.CardEffect{{Type: state.EffectHeal, Value: 60}},
			Buffs: []state.BuffDefinition{
				buff(1009, "风袖", "受到伤害降低50%", 2, valued(state.BuffDamageReduction, 0.5)),
			},
		},
		{
			ID:          "qionglong_huasheng",
			Name:        "穹隆化生",
			Description: "抽2张牌\n恢复10点生命值\n免疫控制2回合",
			Type:        state.CardTypeSupport,
			Target:      state.TargetSelf,
			GCDCost:     1,
			Effects: []state.CardEffect{
				{Type: state.EffectDraw, Value: 2},
				{Type: state.EffectHeal, Value: 10},
			},
			Buffs: []state.BuffDefinition{
				buff(1010, "化生", "免疫控制", 2, marker(state.BuffControlImmune)),
			},
		},

		// Stealth
		{
			ID:          "anchen_misan",
			Name:        "暗尘弥散",
			Description: "抽2张牌\n【隐身】1回合",
			Type:        state.CardTypeSupport,
			Target:      state.TargetSelf,
			GCDCost:     1,
			Effects:     []state.CardEffect{{Type: state.EffectDraw, Value: 2, AllowWhileControlled: true}},
			Buffs: []state.BuffDefinition{
				breakOnPlay(buff(1011, "隐身", "无法被指定为卡牌目标", 1, marker(state.BuffStealth))),
			},
		},
		{
			ID:          "fuguang_lueying",
			Name:        "浮光掠影",
			Description: "【隐身】4回合\n下2回合抽卡-1",
			Type:        state.CardTypeSupport,
			Target:      state.TargetSelf,
			GCDCost:     1,
			Effects:     []state.CardEffect{},
			Buffs: []state.BuffDefinition{
				breakOnPlay(buff(1012, "浮光掠影", "隐身\n抽卡数量减少", 4,
					marker(state.BuffStealth),
					valued(state.BuffDrawReduction, 1),
				)),
			},
		},
		{
			ID:          "tiandi_wuji",
			Name:        "天地无极",
			Description: "造成5点伤害\n自身【隐身】1回合",
			Type:        state.CardTypeAttack,
			Target:      state.TargetOpponent,
			GCDCost:     1,
			Effects:     []state.CardEffect{{Type: state.EffectDamage, Value: 5}},
			Buffs: []state.BuffDefinition{
				selfApplied(breakOnPlay(buff(1013, "隐身", "无法被指定为卡牌目标", 1, marker(state.BuffStealth)))),
			},
		},

		// Channels
		{
			ID:          "fenglai_wushan",
			Name:        "风来吴山",
			Description: "持续运功，回合结束时对敌造成10点伤害\n免疫控制",
			Type:        state.CardTypeChannel,
			Target:      state.TargetSelf,
			GCDCost:     1,
			Effects:     []state.CardEffect{{Type: state.EffectFenglaiChannel}},
			Buffs: []state.BuffDefinition{
				channel(1014, "风来吴山", 1, marker(state.BuffFenglaiChannel)),
				buff(1015, "免控", "免疫控制", 1, marker(state.BuffControlImmune)),
			},
		},
		{
			ID:          "wu_jianyu",
			Name:        "无间狱",
			Description: "造成10点伤害并回复3点生命值\n下个回合开始时再造成10点伤害并吸取30%",
			Type:        state.CardTypeChannel,
			Target:      state.TargetSelf,
			GCDCost:     1,
			Effects:     []state.CardEffect{{Type: state.EffectWujianChannel}},
			Buffs: []state.BuffDefinition{
				buff(1016, "无间狱", "下个回合开始时造成10点伤害并吸取生命", 1, state.BuffEffect{
					Type:         state.BuffScheduledDamage,
					Value:        10,
					When:         state.PhaseTurnStart,
					TurnOf:       state.TurnOfOwner,
					StageTarget:  state.StageTargetEnemy,
					LifestealPct: 0.3,
				}),
			},
		},
		{
			ID:          "xinzheng",
			Name:        "心诤",
			Description: "持续运功，回合结束时对目标造成5点伤害，持续2回合\n免疫控制",
			Type:        state.CardTypeChannel,
			Target:      state.TargetSelf,
			GCDCost:     1,
			Effects:     []state.CardEffect{{Type: state.EffectXinzhengChannel}},
			Buffs: []state.BuffDefinition{
				channel(1017, "心诤", 2, marker(state.BuffXinzhengChannel)),
				buff(1018, "免控", "免疫控制", 2, marker(state.BuffControlImmune)),
			},
		},

		// Burst
		{
			ID:          "nuwa_butian",
			Name:        "女娲补天",
			Description: "造成伤害提升100%\n受到伤害降低50%",
			Type:        state.CardTypeStance,
			Target:      state.TargetSelf,
			GCDCost:     1,
			Effects:     []state.CardEffect{},
			Buffs: []state.BuffDefinition{
				buff(1019, "女娲补天", "造成伤害提升100%\n受到伤害降低50%", 1,
					valued(state.BuffDamageMultiplier, 2),
					valued(state.BuffDamageReduction, 0.5),
				),
			},
		},
		{
			ID:          "taxingxing",
			Name:        "踏星行",
			Description: "抽2张牌\n获得60%闪避，持续2回合",
			Type:        state.CardTypeSupport,
			Target:      state.TargetSelf,
			GCDCost:     1,
			Effects:     []state.CardEffect{{Type: state.EffectDraw, Value: 2}},
			Buffs: []state.BuffDefinition{
				buff(1020, "踏星", "受到伤害时有60%概率闪避", 2, state.BuffEffect{Type: state.BuffDodgeNext, Chance: 0.6}),
			},
		},

		// Misc
		{
			ID:          "zhuiming_jian",
			Name:        "追命箭",
			Description: "造成15点伤害\n目标生命值高于70时额外造成5点伤害",
			Type:        state.CardTypeAttack,
			Target:      state.TargetOpponent,
			GCDCost:     1,
			Effects: []state.CardEffect{
				{Type: state.EffectDamage, Value: 15},
				{Type: state.EffectBonusDamageIfTargetHPGT, Value: 5, Threshold: 70},
			},
		},
		{
			ID:          "quye_duanchou",
			Name:        "驱夜断愁",
			Description: "造成4点伤害\n回复2点生命值",
			Type:        state.CardTypeAttack,
			Target:      state.TargetOpponent,
			GCDCost:     1,
			Effects: []state.CardEffect{
				{Type: state.EffectDamage, Value: 4},
				{Type: state.EffectHeal, Value: 2, ApplyTo: state.TargetSelf},
			},
		},
	}
}

// channel builds a caster-side buff whose marker is swept at the end of each
// of the caster's turns.
func channel(id int, name string, duration int, effects ...state.BuffEffect) state.BuffDefinition {
	d := buff(id, name, "运功", duration, effects...)
	d.TickOn = state.PhaseTurnEnd
	return d
}

func selfApplied(d state.BuffDefinition) state.BuffDefinition {
	d.ApplyTo = state.TargetSelf
	return d
}
