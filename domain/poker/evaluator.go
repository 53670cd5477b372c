package poker

import (
	"sort"

	"github.com/luca-patrignani/zkpoker/common"
	"github.com/paulhankin/poker"
	"github.com/pkg/errors"
)

// HandRanking is the category of a five-card hand, weakest first.
type HandRanking uint8

const (
	HighCard HandRanking = iota
	OnePair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

var rankingNames = [...]string{
	"high card", "one pair", "two pair", "three of a kind", "straight",
	"flush", "full house", "four of a kind", "straight flush", "royal flush",
}

func (r HandRanking) String() string {
	if int(r) < len(rankingNames) {
		return rankingNames[r]
	}
	return "unknown"
}

// Valid reports whether r is one of the ten rankings.
func (r HandRanking) Valid() bool {
	return r <= RoyalFlush
}

// HandValue is a ranking plus five tie-breaking card values (2..14, ace
// high), most significant first and zero padded.
type HandValue struct {
	Ranking HandRanking `json:"ranking"`
	Kickers [5]uint8    `json:"kickers"`
}

// Score packs the value as ranking<<20 followed by the kickers in four-bit
// digits. Scores order exactly like Compare.
func (h HandValue) Score() uint64 {
	s := uint64(h.Ranking)
	for _, k := range h.Kickers {
		s = s<<4 | uint64(k)
	}
	return s
}

// HandValueFromScore unpacks a score produced by Score.
func HandValueFromScore(score uint64) HandValue {
	var h HandValue
	for i := len(h.Kickers) - 1; i >= 0; i-- {
		h.Kickers[i] = uint8(score & 0xf)
		score >>= 4
	}
	h.Ranking = HandRanking(score)
	return h
}

// Compare returns 1 if a beats b, -1 if b beats a and 0 on a tie.
func Compare(a, b HandValue) int {
	if a.Ranking != b.Ranking {
		if a.Ranking > b.Ranking {
			return 1
		}
		return -1
	}
	for i := range a.Kickers {
		if a.Kickers[i] != b.Kickers[i] {
			if a.Kickers[i] > b.Kickers[i] {
				return 1
			}
			return -1
		}
	}
	return 0
}

// Evaluate returns the best five-card hand out of two hole cards and five
// community cards. Duplicate or face-down cards are rejected.
func Evaluate(cards [7]Card) (HandValue, error) {
	ids := make([]uint8, len(cards))
	for i, c := range cards {
		if c.rank == 0 || c.rank > 13 || c.suit > 3 {
			return HandValue{}, errors.Wrapf(common.ErrCardOutOfRange, "card %d", i)
		}
		ids[i] = c.ID()
	}
	var seen [52]bool
	for _, id := range ids {
		if seen[id] {
			return HandValue{}, errors.Wrapf(common.ErrDuplicateCard, "card %s", MustCard(id).Notation())
		}
		seen[id] = true
	}

	var best HandValue
	first := true
	var hand [5]Card
	for skipA := 0; skipA < 7; skipA++ {
		for skipB := skipA + 1; skipB < 7; skipB++ {
			n := 0
			for i := 0; i < 7; i++ {
				if i != skipA && i != skipB {
					hand[n] = cards[i]
					n++
				}
			}
			v := evaluate5(hand)
			if first || Compare(v, best) > 0 {
				best, first = v, false
			}
		}
	}
	return best, nil
}

// EvaluateHand is Evaluate for a seat's hole cards and the board.
func EvaluateHand(hole [2]Card, board [5]Card) (HandValue, error) {
	return Evaluate([7]Card{hole[0], hole[1], board[0], board[1], board[2], board[3], board[4]})
}

func evaluate5(cards [5]Card) HandValue {
	var values [5]uint8
	flush := true
	for i, c := range cards {
		values[i] = c.value()
		if c.suit != cards[0].suit {
			flush = false
		}
	}
	sort.Slice(values[:], func(i, j int) bool { return values[i] > values[j] })

	high, straight := straightHigh(values)

	// Group values by multiplicity, larger groups first, then higher values.
	counts := map[uint8]int{}
	for _, v := range values {
		counts[v]++
	}
	type group struct {
		value uint8
		count int
	}
	groups := make([]group, 0, len(counts))
	for v, n := range counts {
		groups = append(groups, group{v, n})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].count != groups[j].count {
			return groups[i].count > groups[j].count
		}
		return groups[i].value > groups[j].value
	})

	var h HandValue
	kick := func(vs ...uint8) {
		copy(h.Kickers[:], vs)
	}
	groupValues := func() []uint8 {
		out := make([]uint8, len(groups))
		for i, g := range groups {
			out[i] = g.value
		}
		return out
	}

	switch {
	case straight && flush:
		h.Ranking = StraightFlush
		if high == 14 {
			h.Ranking = RoyalFlush
		}
		kick(high)
	case groups[0].count == 4:
		h.Ranking = FourOfAKind
		kick(groupValues()...)
	case groups[0].count == 3 && groups[1].count == 2:
		h.Ranking = FullHouse
		kick(groupValues()...)
	case flush:
		h.Ranking = Flush
		kick(values[:]...)
	case straight:
		h.Ranking = Straight
		kick(high)
	case groups[0].count == 3:
		h.Ranking = ThreeOfAKind
		kick(groupValues()...)
	case groups[0].count == 2 && groups[1].count == 2:
		h.Ranking = TwoPair
		kick(groupValues()...)
	case groups[0].count == 2:
		h.Ranking = OnePair
		kick(groupValues()...)
	default:
		h.Ranking = HighCard
		kick(values[:]...)
	}
	return h
}

// straightHigh reports whether descending values form a straight and its
// high card. A-2-3-4-5 is a straight to the five.
func straightHigh(values [5]uint8) (uint8, bool) {
	for i := 1; i < 5; i++ {
		if values[i] == values[i-1] {
			return 0, false
		}
	}
	if values[0]-values[4] == 4 {
		return values[0], true
	}
	if values == [5]uint8{14, 5, 4, 3, 2} {
		return 5, true
	}
	return 0, false
}

// Describe returns a human-readable description of the best hand in cards,
// such as "two pair, kings and sevens".
func Describe(cards []Card) (string, error) {
	converted := make([]poker.Card, len(cards))
	for i, c := range cards {
		pc, err := poker.MakeCard(poker.Suit(c.suit), poker.Rank(c.rank))
		if err != nil {
			return "", errors.Wrapf(common.ErrCardOutOfRange, "card %d: %v", i, err)
		}
		converted[i] = pc
	}
	return poker.Describe(converted)
}
