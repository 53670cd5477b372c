package poker

import (
	"fmt"
	"strings"

	"github.com/luca-patrignani/zkpoker/common"
	"github.com/luca-patrignani/zkpoker/domain/deck"
	"github.com/pkg/errors"
	"github.com/pterm/pterm"
)

// Card suit constants (0-3)
const (
	Club    = 0 // ♣ (black)
	Diamond = 1 // ♦ (red)
	Heart   = 2 // ♥ (red)
	Spade   = 3 // ♠ (black)
)

// Card rank constants for face cards and ace
const (
	Jack  = 11 // J
	Queen = 12 // Q
	King  = 13 // K
	Ace   = 1  // A (low in straights, high in value)
)

// FaceDown is the display character for hidden cards
const (
	FaceDown = "▓"
)

// Card represents a playing card with suit and rank.
// Rank 0 indicates a face-down or uninitialized card.
type Card struct {
	suit uint8 // 0-3: clubs, diamonds, hearts, spades
	rank uint8 // 1-13: ace through king (0 = face down)
}

// NewCard creates a new Card with validation.
//
// Parameters:
//   - suit: 0-3 (Club, Diamond, Heart, Spade)
//   - rank: 1-13 (Ace=1, 2-10=face value, Jack=11, Queen=12, King=13)
//
// Returns the Card or an error if suit or rank is invalid.
func NewCard(suit uint8, rank uint8) (Card, error) {
	if suit > 3 || rank == 0 || rank > 13 {
		return Card{}, errors.Wrapf(common.ErrCardOutOfRange, "suit %d rank %d", suit, rank)
	}
	return Card{suit: suit, rank: rank}, nil
}

// CardFromID decodes a deck card id: suit = id / 13, rank = id % 13 + 1.
func CardFromID(id uint8) (Card, error) {
	if id >= deck.Size {
		return Card{}, errors.Wrapf(common.ErrCardOutOfRange, "card id %d", id)
	}
	return Card{suit: id / 13, rank: id%13 + 1}, nil
}

// MustCard is CardFromID for ids known to be valid.
func MustCard(id uint8) Card {
	c, err := CardFromID(id)
	if err != nil {
		panic(err)
	}
	return c
}

// ID returns the deck card id of c.
func (c Card) ID() uint8 {
	return c.suit*13 + c.rank - 1
}

// Suit returns the suit value of the Card (0-3: clubs, diamonds, hearts, spades).
func (c Card) Suit() uint8 {
	return c.suit
}

// Rank returns the rank value of the Card (1-13: ace through king).
func (c Card) Rank() uint8 {
	return c.rank
}

// value is the rank used for comparisons, with the ace high at 14.
func (c Card) value() uint8 {
	if c.rank == Ace {
		return 14
	}
	return c.rank
}

var (
	rankLetters = "A23456789TJQK"
	suitLetters = "cdhs"
)

// ParseCard reads the two-letter notation used by hand histories, such as
// "Ah", "Td" or "2c".
func ParseCard(s string) (Card, error) {
	if len(s) != 2 {
		return Card{}, errors.Wrapf(common.ErrCardOutOfRange, "card %q", s)
	}
	r := strings.IndexByte(rankLetters, strings.ToUpper(s[:1])[0])
	su := strings.IndexByte(suitLetters, strings.ToLower(s[1:])[0])
	if r < 0 || su < 0 {
		return Card{}, errors.Wrapf(common.ErrCardOutOfRange, "card %q", s)
	}
	return Card{suit: uint8(su), rank: uint8(r + 1)}, nil
}

// ParseCards parses a space or comma separated list of cards.
func ParseCards(s string) ([]Card, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' })
	out := make([]Card, 0, len(fields))
	for _, f := range fields {
		c, err := ParseCard(f)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Notation returns the two-letter form read by ParseCard.
func (c Card) Notation() string {
	if c.rank == 0 {
		return "??"
	}
	return string(rankLetters[c.rank-1]) + string(suitLetters[c.suit])
}

// String returns a human-readable representation of the Card using suit symbols
// (♣, ♦, ♥, ♠) and rank abbreviations (A, J, Q, K, or number).
func (c Card) String() string {
	if c.rank == 0 {
		return FaceDown
	}
	var suit string
	switch c.suit {
	case Club:
		suit = pterm.Black("♣")
	case Diamond:
		suit = pterm.LightRed("♦")
	case Heart:
		suit = pterm.LightRed("♥")
	case Spade:
		suit = pterm.Black("♠")
	default:
		suit = "?"
	}

	var rankStr string
	switch c.rank {
	case Ace:
		rankStr = "A"
	case Jack:
		rankStr = "J"
	case Queen:
		rankStr = "Q"
	case King:
		rankStr = "K"
	default:
		rankStr = fmt.Sprintf("%d", c.rank)
	}
	return rankStr + suit
}

// MarshalText encodes the card in notation form.
func (c Card) MarshalText() ([]byte, error) {
	return []byte(c.Notation()), nil
}

func (c *Card) UnmarshalText(b []byte) error {
	parsed, err := ParseCard(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
