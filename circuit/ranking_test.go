package circuit

import (
	"math/rand"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/test"
	"github.com/luca-patrignani/zkpoker/domain/poker"
	"github.com/stretchr/testify/require"
)

// bestHand exposes the score of seven cards.
type bestHand struct {
	Cards [7]frontend.Variable
	Score frontend.Variable `gnark:",public"`
}

func (c *bestHand) Define(api frontend.API) error {
	assertDistinct(api, c.Cards[:])
	var seven [7]*cardBits
	for i, id := range c.Cards {
		seven[i] = decomposeCard(api, id)
	}
	api.AssertIsEqual(c.Score, bestOfSeven(api, seven))
	return nil
}

func ids(t *testing.T, s string) []uint8 {
	t.Helper()
	cs, err := poker.ParseCards(s)
	require.NoError(t, err)
	out := make([]uint8, len(cs))
	for i, c := range cs {
		out[i] = c.ID()
	}
	return out
}

func bestHandAssignment(t *testing.T, seven []uint8) (*bestHand, poker.HandValue) {
	t.Helper()
	require.Len(t, seven, 7)
	var cards [7]poker.Card
	a := &bestHand{}
	for i, id := range seven {
		cards[i] = poker.MustCard(id)
		a.Cards[i] = uint64(id)
	}
	v, err := poker.Evaluate(cards)
	require.NoError(t, err)
	a.Score = v.Score()
	return a, v
}

func TestBestOfSevenMatchesEvaluate(t *testing.T) {
	hands := []string{
		"Ah Kh Qh Jh Th 2c 3d",
		"9s 8s 7s 6s 5s Ad Ac",
		"As 2s 3s 4s 5s Kd Kc",
		"7c 7d 7h 7s Kd 2c 3c",
		"Qc Qd Qh 9s 9d 9c 2h",
		"Ad 9d 7d 4d 2d Ks Qs",
		"Tc Jd Qh Ks Ad 2c 3c",
		"Ac 2d 3h 4s 5d Kc 9h",
		"Ac 2d 3h 4s 5d 6c 9h",
		"8c 8d 8h As 4d 2c 6c",
		"Kc Kd 4h 4s 2d 2c Ac",
		"Jc Jd 9h 7s 4d 3c 2h",
		"Ac Qd 9h 7s 4d 3c 2h",
	}
	for _, s := range hands {
		a, v := bestHandAssignment(t, ids(t, s))
		require.NoError(t, test.IsSolved(&bestHand{}, a, ecc.BN254.ScalarField()), "%s: %s", s, v.Ranking)
	}

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 40; i++ {
		perm := rng.Perm(52)
		seven := make([]uint8, 7)
		for j := range seven {
			seven[j] = uint8(perm[j])
		}
		a, v := bestHandAssignment(t, seven)
		require.NoError(t, test.IsSolved(&bestHand{}, a, ecc.BN254.ScalarField()), "%v: %s", seven, v.Ranking)
	}
}

func TestBestOfSevenRejectsOtherScores(t *testing.T) {
	a, v := bestHandAssignment(t, ids(t, "Ac 2d 3h 4s 5d Kc 9h"))
	require.Equal(t, poker.Straight, v.Ranking)

	// Scoring the wheel as ace high.
	a.Score = poker.HandValue{Ranking: poker.Straight, Kickers: [5]uint8{14}}.Score()
	require.Error(t, test.IsSolved(&bestHand{}, a, ecc.BN254.ScalarField()))

	a.Score = v.Score() + 1
	require.Error(t, test.IsSolved(&bestHand{}, a, ecc.BN254.ScalarField()))
}

func TestBestOfSevenRejectsBadCards(t *testing.T) {
	a, _ := bestHandAssignment(t, ids(t, "Jc Jd 9h 7s 4d 3c 2h"))
	a.Cards[6] = a.Cards[0]
	require.Error(t, test.IsSolved(&bestHand{}, a, ecc.BN254.ScalarField()))

	a, _ = bestHandAssignment(t, ids(t, "Jc Jd 9h 7s 4d 3c 2h"))
	a.Cards[6] = uint64(52)
	require.Error(t, test.IsSolved(&bestHand{}, a, ecc.BN254.ScalarField()))
}
