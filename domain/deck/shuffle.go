package deck

import (
	"math/big"

	"github.com/luca-patrignani/zkpoker/commitment"
	"github.com/luca-patrignani/zkpoker/field"
	"go.dedis.ch/kyber/v4/suites"
	"go.dedis.ch/kyber/v4/util/random"
)

const (
	packBits    = 6
	packPerHalf = Size / 2
)

var suite = suites.MustFind("Ed25519")

// Shuffle draws a uniformly random permutation with a Fisher-Yates pass fed by
// the suite's random stream.
func Shuffle() Permutation {
	var p Permutation
	for i := range p {
		p[i] = uint8(i)
	}
	stream := suite.RandomStream()
	for i := Size - 1; i > 0; i-- {
		j := random.Int(big.NewInt(int64(i+1)), stream).Int64()
		p[i], p[j] = p[j], p[i]
	}
	return p
}

// Identity returns the unshuffled deck.
func Identity() Permutation {
	var p Permutation
	for i := range p {
		p[i] = uint8(i)
	}
	return p
}

// Compose applies the second player's shuffle on top of the first:
// position k of the final deck holds first[second[k]].
func Compose(first, second Permutation) Permutation {
	var out Permutation
	for k := range out {
		out[k] = first[second[k]]
	}
	return out
}

// Pack folds the permutation into two field elements of 26 six-bit digits
// each, least significant digit first.
func Pack(p Permutation) [2]field.Element {
	var out [2]field.Element
	for half := 0; half < 2; half++ {
		acc := new(big.Int)
		for i := packPerHalf - 1; i >= 0; i-- {
			acc.Lsh(acc, packBits)
			acc.Or(acc, big.NewInt(int64(p[half*packPerHalf+i])))
		}
		out[half].SetBigInt(acc)
	}
	return out
}

// Commit binds the permutation under salt.
func Commit(p Permutation, salt field.Element) (commitment.Commitment, error) {
	packed := Pack(p)
	return commitment.Deck.Commit(packed[:], salt)
}

// Deal returns the cards of the dealt window of a composed deck.
func (p Permutation) Deal() (hole [2][2]uint8, board [5]uint8) {
	for seat := 0; seat < 2; seat++ {
		pos := HolePositions(seat)
		hole[seat] = [2]uint8{p[pos[0]], p[pos[1]]}
	}
	for i := range board {
		board[i] = p[CommunityPosition(i)]
	}
	return hole, board
}
