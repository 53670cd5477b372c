package poker

import (
	"math/rand"
	"testing"

	"github.com/luca-patrignani/zkpoker/common"
	"github.com/paulhankin/poker"
	"github.com/stretchr/testify/require"
)

func hand(t *testing.T, s string) [7]Card {
	t.Helper()
	cards, err := ParseCards(s)
	require.NoError(t, err)
	require.Len(t, cards, 7)
	var out [7]Card
	copy(out[:], cards)
	return out
}

func TestEvaluateRankings(t *testing.T) {
	tests := []struct {
		name    string
		cards   string
		ranking HandRanking
		kickers [5]uint8
	}{
		{"royal flush", "Ah Kh Qh Jh Th 2c 3d", RoyalFlush, [5]uint8{14}},
		{"straight flush", "9s 8s 7s 6s 5s Ad Ac", StraightFlush, [5]uint8{9}},
		{"steel wheel", "As 2s 3s 4s 5s Kd Kc", StraightFlush, [5]uint8{5}},
		{"four of a kind", "7c 7d 7h 7s Kd 2c 3c", FourOfAKind, [5]uint8{7, 13}},
		{"full house", "Qc Qd Qh 9s 9d 9c 2h", FullHouse, [5]uint8{12, 9}},
		{"flush", "Ad 9d 7d 4d 2d Ks Qs", Flush, [5]uint8{14, 9, 7, 4, 2}},
		{"broadway", "Tc Jd Qh Ks Ad 2c 3c", Straight, [5]uint8{14}},
		{"wheel", "Ac 2d 3h 4s 5d Kc 9h", Straight, [5]uint8{5}},
		{"six high beats wheel", "Ac 2d 3h 4s 5d 6c 9h", Straight, [5]uint8{6}},
		{"three of a kind", "8c 8d 8h As 4d 2c 6c", ThreeOfAKind, [5]uint8{8, 14, 6}},
		{"two pair", "Kc Kd 4h 4s 2d 2c Ac", TwoPair, [5]uint8{13, 4, 14}},
		{"one pair", "Jc Jd 9h 7s 4d 3c 2h", OnePair, [5]uint8{11, 9, 7, 4}},
		{"high card", "Ac Qd 9h 7s 4d 3c 2h", HighCard, [5]uint8{14, 12, 9, 7, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Evaluate(hand(t, tt.cards))
			require.NoError(t, err)
			require.Equal(t, tt.ranking, v.Ranking)
			require.Equal(t, tt.kickers, v.Kickers)
		})
	}
}

func TestEvaluateRejectsBadCards(t *testing.T) {
	cards := hand(t, "Ac Qd 9h 7s 4d 3c 2h")
	cards[6] = cards[0]
	_, err := Evaluate(cards)
	require.ErrorIs(t, err, common.ErrDuplicateCard)

	cards = hand(t, "Ac Qd 9h 7s 4d 3c 2h")
	cards[3] = Card{}
	_, err = Evaluate(cards)
	require.ErrorIs(t, err, common.ErrCardOutOfRange)
}

func TestScoreRoundTripAndOrder(t *testing.T) {
	a := HandValue{Ranking: OnePair, Kickers: [5]uint8{14, 13, 12, 11}}
	b := HandValue{Ranking: TwoPair, Kickers: [5]uint8{3, 2, 4}}
	require.Equal(t, a, HandValueFromScore(a.Score()))
	require.Equal(t, -1, Compare(a, b), "a higher ranking wins regardless of kickers")
	require.Less(t, a.Score(), b.Score())

	c := HandValue{Ranking: OnePair, Kickers: [5]uint8{14, 13, 12, 10}}
	require.Equal(t, 1, Compare(a, c))
	require.Equal(t, 0, Compare(a, a))
}

func toPaulhankin(t *testing.T, cards [7]Card) [7]poker.Card {
	t.Helper()
	var out [7]poker.Card
	for i, c := range cards {
		pc, err := poker.MakeCard(poker.Suit(c.suit), poker.Rank(c.rank))
		require.NoError(t, err)
		out[i] = pc
	}
	return out
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// The evaluator must order random hands exactly like an independent one.
func TestEvaluateMatchesPaulhankin(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	draw := func() ([7]Card, [7]Card) {
		perm := rng.Perm(52)
		var a, b [7]Card
		for i := 0; i < 7; i++ {
			a[i] = MustCard(uint8(perm[i]))
			b[i] = MustCard(uint8(perm[7+i]))
		}
		return a, b
	}
	for i := 0; i < 2000; i++ {
		a, b := draw()
		va, err := Evaluate(a)
		require.NoError(t, err)
		vb, err := Evaluate(b)
		require.NoError(t, err)

		pa, pb := toPaulhankin(t, a), toPaulhankin(t, b)
		want := sign(int(poker.Eval7(&pa)) - int(poker.Eval7(&pb)))
		require.Equal(t, want, Compare(va, vb), "%v vs %v", a, b)
		require.Equal(t, want, sign(int(va.Score())-int(vb.Score())))
	}
}

func TestDescribe(t *testing.T) {
	cards := hand(t, "Kc Kd 7h 7s 2d 3c 9h")
	desc, err := Describe(cards[:])
	require.NoError(t, err)
	require.NotEmpty(t, desc)
}
