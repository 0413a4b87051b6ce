package catalog

import (
	"fmt"

	"github.com/jianghu-duel/duel-server-go/internal/game/state"
)

// DeckEntry is the number of copies of one card in a deck.
type DeckEntry struct {
	CardID string
	Count  int
}

// DefaultComposition is the shared deck used by every match.
var DefaultComposition = []DeckEntry{
	{"jianpo_xukong", 6},
	{"sanhuan_taoyue", 6},

	{"mohe_wuliang", 4},
	{"shengsi_jie", 4},
	{"chan_xiao", 4},

	{"jiru_feng", 4},
	{"sanliu_xia", 4},
	{"que_ta_zhi", 3},

	{"fengxiu_diang", 4},
	{"anchen_misan", 3},

	{"fenglai_wushan", 2},
	{"wu_jianyu", 2},
	{"baizu", 3},

	{"nuwa_butian", 2},

	{"fuguang_lueying", 3},
	{"jiangchun_zhuxiu", 3},
	{"da_shizi_hou", 3},
	{"qionglong_huasheng", 3},
	{"taxingxing", 3},
	{"zhuiming_jian", 3},
	{"xinzheng", 2},
	{"tiandi_wuji", 3},
	{"quye_duanchou", 3},
}

// Intner is the random source used for shuffling. *rand.Rand satisfies it.
type Intner interface {
	Intn(n int) int
}

// BuildDeck expands a composition into card instances, unshuffled. Every
// card id must exist in the catalog.
func (c *Catalog) BuildDeck(composition []DeckEntry, newID func() string) ([]state.CardInstance, error) {
	total := 0
	for _, e := range composition {
		if _, ok := c.Card(e.CardID); !ok {
			return nil, fmt.Errorf("unknown card id in deck: %s", e.CardID)
		}
		if e.Count < 0 {
			return nil, fmt.Errorf("negative count for %s", e.CardID)
		}
		total += e.Count
	}

	deck := make([]state.CardInstance, 0, total)
	for _, e := range composition {
		for i := 0; i < e.Count; i++ {
			deck = append(deck, state.CardInstance{InstanceID: newID(), CardID: e.CardID})
		}
	}
	return deck, nil
}

// Shuffle permutes deck in place with Fisher-Yates.
func Shuffle(deck []state.CardInstance, rng Intner) {
	for i := len(deck) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		deck[i], deck[j] = deck[j], deck[i]
	}
}
