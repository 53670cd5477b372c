package deck

import (
	"math/big"
	"testing"

	"github.com/luca-patrignani/zkpoker/common"
	"github.com/luca-patrignani/zkpoker/field"
	"github.com/stretchr/testify/require"
)

func TestShuffleIsPermutation(t *testing.T) {
	for i := 0; i < 20; i++ {
		p := Shuffle()
		if err := ValidatePermutation(p[:]); err != nil {
			t.Fatalf("shuffle %d: %v", i, err)
		}
	}
}

func TestValidatePermutationErrors(t *testing.T) {
	p := Identity()
	p[3] = 4
	require.ErrorIs(t, ValidatePermutation(p[:]), common.ErrDuplicateCard)

	p = Identity()
	p[0] = 60
	require.ErrorIs(t, ValidatePermutation(p[:]), common.ErrCardOutOfRange)

	p = Identity()
	require.ErrorIs(t, ValidatePermutation(p[:51]), common.ErrDeckSize)
}

func TestComposeKeepsPermutation(t *testing.T) {
	a, b := Shuffle(), Shuffle()
	c := Compose(a, b)
	require.NoError(t, ValidatePermutation(c[:]))
	require.Equal(t, a, Compose(a, Identity()))
}

func TestPackLayout(t *testing.T) {
	p := Identity()
	packed := Pack(p)

	want := new(big.Int)
	for i := 25; i >= 0; i-- {
		want.Lsh(want, 6)
		want.Or(want, big.NewInt(int64(i)))
	}
	require.Zero(t, want.Cmp(field.ElementToBigInt(packed[0])))

	q := p
	q[0], q[1] = q[1], q[0]
	require.NotEqual(t, Pack(p), Pack(q))
}

func TestCommitBindsOrder(t *testing.T) {
	salt := field.ElementFromUint64(9)
	p := Shuffle()
	q := p
	q[50], q[51] = q[51], q[50]
	c1, err := Commit(p, salt)
	require.NoError(t, err)
	c2, err := Commit(q, salt)
	require.NoError(t, err)
	require.NotEqual(t, c1, c2)
}

func TestLayout(t *testing.T) {
	require.Equal(t, [2]int{0, 2}, HolePositions(0))
	require.Equal(t, [2]int{1, 3}, HolePositions(1))
	require.Equal(t, 4, CommunityPosition(0))
	require.Equal(t, 8, CommunityPosition(4))
	require.Equal(t, []int{9, 10, 11}, []int{BurnPosition(0), BurnPosition(1), BurnPosition(2)})

	hole, board := Identity().Deal()
	require.Equal(t, [2]uint8{0, 2}, hole[0])
	require.Equal(t, [2]uint8{1, 3}, hole[1])
	require.Equal(t, [5]uint8{4, 5, 6, 7, 8}, board)

	s, ok := StreetAt(1)
	require.True(t, ok)
	require.Equal(t, Street{Offset: 3, Count: 1}, s)
	_, ok = StreetAt(3)
	require.False(t, ok)
}

func TestCheckDealWindow(t *testing.T) {
	require.NoError(t, CheckDealWindow(0, 9))
	require.ErrorIs(t, CheckDealWindow(1, 9), common.ErrDealPositions)
	require.ErrorIs(t, CheckDealWindow(0, 8), common.ErrDealPositions)
}

func TestCheckDistinct(t *testing.T) {
	require.NoError(t, CheckDistinct(1, 2, 3))
	require.ErrorIs(t, CheckDistinct(1, 2, 1), common.ErrDuplicateCard)
	require.ErrorIs(t, CheckDistinct(NoCard), common.ErrCardOutOfRange)
}
