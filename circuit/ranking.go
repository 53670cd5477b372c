package circuit

import (
	"github.com/consensys/gnark/frontend"
)

// scoreBits bounds a packed hand score: a four-bit ranking above five
// four-bit kickers, as in poker.HandValue.Score.
const scoreBits = 24

// Ranking codes, weakest first, shared with poker.HandRanking.
const (
	rankOnePair = iota + 1
	rankTwoPair
	rankThreeOfAKind
	rankStraight
	rankFlush
	rankFullHouse
	rankFourOfAKind
	rankStraightFlush
	rankRoyalFlush
)

// cardBits is a card id split into one-hot indicators. value is indexed by
// the card's value, 2 through 14 with the ace high; entries 0 and 1 stay zero.
type cardBits struct {
	value [15]frontend.Variable
	suit  [4]frontend.Variable
}

// decomposeCard splits id = 13*suit + rank - 1. The circuit is unsatisfiable
// unless id is in [0, 52).
func decomposeCard(api frontend.API, id frontend.Variable) *cardBits {
	c := &cardBits{}
	for v := range c.value {
		c.value[v] = 0
	}
	for s := range c.suit {
		c.suit[s] = 0
	}
	hits := frontend.Variable(0)
	for s := 0; s < 4; s++ {
		for r := 0; r < 13; r++ {
			hit := api.IsZero(api.Sub(id, 13*s+r))
			v := r + 1
			if r == 0 {
				v = 14
			}
			c.value[v] = api.Add(c.value[v], hit)
			c.suit[s] = api.Add(c.suit[s], hit)
			hits = api.Add(hits, hit)
		}
	}
	api.AssertIsEqual(hits, 1)
	return c
}

// assertDistinct makes the circuit unsatisfiable if two ids are equal.
func assertDistinct(api frontend.API, ids []frontend.Variable) {
	prod := frontend.Variable(1)
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			prod = api.Mul(prod, api.Sub(ids[i], ids[j]))
		}
	}
	api.AssertIsDifferent(prod, 0)
}

// evaluateFive returns the packed score of five distinct cards.
func evaluateFive(api frontend.API, hand [5]*cardBits) frontend.Variable {
	var counts [15]frontend.Variable
	for v := 2; v <= 14; v++ {
		n := frontend.Variable(0)
		for _, c := range hand {
			n = api.Add(n, c.value[v])
		}
		counts[v] = n
	}

	flush := frontend.Variable(0)
	for s := 0; s < 4; s++ {
		n := frontend.Variable(0)
		for _, c := range hand {
			n = api.Add(n, c.suit[s])
		}
		flush = api.Add(flush, api.IsZero(api.Sub(n, 5)))
	}

	// A straight fills the five values below its high card. The wheel plays
	// the ace low.
	straight, high, broadway := frontend.Variable(0), frontend.Variable(0), frontend.Variable(0)
	for h := 5; h <= 14; h++ {
		n := counts[14]
		if h > 5 {
			n = counts[h-4]
		}
		for v := h - 3; v <= h; v++ {
			n = api.Add(n, counts[v])
		}
		hit := api.IsZero(api.Sub(n, 5))
		straight = api.Add(straight, hit)
		high = api.Add(high, api.Mul(hit, h))
		if h == 14 {
			broadway = hit
		}
	}

	// Distinct values are appended as hex digits, larger groups first and
	// higher values first within a group.
	var groups [5]frontend.Variable
	kickers, distinct := frontend.Variable(0), frontend.Variable(0)
	for n := 4; n >= 1; n-- {
		groups[n] = 0
		for v := 14; v >= 2; v-- {
			hit := api.IsZero(api.Sub(counts[v], n))
			kickers = api.Add(kickers, api.Mul(hit, api.Add(api.Mul(kickers, 15), v)))
			groups[n] = api.Add(groups[n], hit)
			distinct = api.Add(distinct, hit)
		}
	}
	pad := frontend.Variable(0)
	for d := 2; d <= 5; d++ {
		pad = api.Add(pad, api.Mul(api.IsZero(api.Sub(distinct, d)), 1<<(4*(5-d))))
	}
	kickers = api.Mul(kickers, pad)

	fullHouse := api.Mul(groups[3], groups[2])
	twoPair := api.IsZero(api.Sub(groups[2], 2))
	onePair := api.Sub(groups[2], api.Mul(twoPair, 2), fullHouse)
	straightFlush := api.Mul(straight, flush)
	royal := api.Mul(broadway, flush)

	ranking := api.Add(
		api.Mul(royal, rankRoyalFlush),
		api.Mul(api.Sub(straightFlush, royal), rankStraightFlush),
		api.Mul(groups[4], rankFourOfAKind),
		api.Mul(fullHouse, rankFullHouse),
		api.Mul(api.Sub(flush, straightFlush), rankFlush),
		api.Mul(api.Sub(straight, straightFlush), rankStraight),
		api.Mul(api.Sub(groups[3], fullHouse), rankThreeOfAKind),
		api.Mul(twoPair, rankTwoPair),
		api.Mul(onePair, rankOnePair),
	)
	kick := api.Select(straight, api.Mul(high, 1<<16), kickers)
	return api.Add(api.Mul(ranking, 1<<20), kick)
}

// bestOfSeven returns the highest score among the 21 five-card hands of
// seven distinct cards.
func bestOfSeven(api frontend.API, cards [7]*cardBits) frontend.Variable {
	best := frontend.Variable(0)
	for skipA := 0; skipA < 7; skipA++ {
		for skipB := skipA + 1; skipB < 7; skipB++ {
			var hand [5]*cardBits
			n := 0
			for i, c := range cards {
				if i != skipA && i != skipB {
					hand[n] = c
					n++
				}
			}
			s := evaluateFive(api, hand)
			best = api.Select(atLeast(api, s, best), s, best)
		}
	}
	return best
}

// atLeast returns 1 when a >= b, for scores below 2^scoreBits.
func atLeast(api frontend.API, a, b frontend.Variable) frontend.Variable {
	bits := api.ToBinary(api.Add(api.Sub(a, b), 1<<scoreBits), scoreBits+1)
	return bits[scoreBits]
}

// rankingOf extracts the ranking nibble of a score.
func rankingOf(api frontend.API, score frontend.Variable) frontend.Variable {
	bits := api.ToBinary(score, scoreBits)
	return api.FromBinary(bits[20:]...)
}
