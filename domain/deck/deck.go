package deck

import (
	"github.com/luca-patrignani/zkpoker/common"
	"github.com/pkg/errors"
)

const (
	// Size is the number of cards in a deck.
	Size = 52
	// NoCard marks an unused card slot in reveal signals.
	NoCard = 52

	// DealStart is the first deck position dealt.
	DealStart = 0
	// DealCount covers both hands and the five community cards.
	DealCount = 9

	communityStart = 4
	burnStart      = DealStart + DealCount
)

// Permutation maps a deck position to a card id.
type Permutation [Size]uint8

// ValidatePermutation checks that perm holds every card id in [0, 52) exactly
// once.
func ValidatePermutation(perm []uint8) error {
	if len(perm) != Size {
		return errors.Wrapf(common.ErrDeckSize, "got %d cards", len(perm))
	}
	var seen [Size]bool
	for pos, card := range perm {
		if card >= Size {
			return errors.Wrapf(common.ErrCardOutOfRange, "position %d holds %d", pos, card)
		}
		if seen[card] {
			return errors.Wrapf(common.ErrDuplicateCard, "card %d at position %d", card, pos)
		}
		seen[card] = true
	}
	for card, ok := range seen {
		if !ok {
			return errors.Wrapf(common.ErrMissingCard, "card %d", card)
		}
	}
	return nil
}

// CheckDealWindow rejects a deal that does not start at the top of the deck
// and cover exactly both hands and the board.
func CheckDealWindow(start, count uint64) error {
	if start != DealStart || count != DealCount {
		return errors.Wrapf(common.ErrDealPositions, "dealt %d cards from position %d", count, start)
	}
	return nil
}

// HolePositions returns the deck positions of a seat's hole cards. Cards are
// dealt alternately, starting with seat 0.
func HolePositions(seat int) [2]int {
	return [2]int{DealStart + seat, DealStart + seat + 2}
}

// CommunityPosition returns the deck position of community card index i.
func CommunityPosition(i int) int {
	return communityStart + i
}

// BurnPosition returns the deck position burned before street (0 flop, 1
// turn, 2 river). Burns sit after the dealt window and never shift the
// community indices.
func BurnPosition(street int) int {
	return burnStart + street
}

// Street describes one community reveal.
type Street struct {
	Offset int
	Count  int
}

var streets = [3]Street{{Offset: 0, Count: 3}, {Offset: 3, Count: 1}, {Offset: 4, Count: 1}}

// StreetAt returns the reveal of street (0 flop, 1 turn, 2 river).
func StreetAt(street int) (Street, bool) {
	if street < 0 || street >= len(streets) {
		return Street{}, false
	}
	return streets[street], true
}

// CheckDistinct rejects repeated or out-of-range card ids.
func CheckDistinct(cards ...uint8) error {
	var seen [Size]bool
	for _, c := range cards {
		if c >= Size {
			return errors.Wrapf(common.ErrCardOutOfRange, "card %d", c)
		}
		if seen[c] {
			return errors.Wrapf(common.ErrDuplicateCard, "card %d", c)
		}
		seen[c] = true
	}
	return nil
}
