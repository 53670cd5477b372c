// Package commitment implements the hiding and binding commitments players
// publish for their seeds, decks and cards.
//
// A commitment is MiMC(values..., salt) over the BN254 scalar field. The
// native hash matches gnark's in-circuit MiMC, so a circuit can recompute the
// same value from its private witness.
package commitment

import (
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/luca-patrignani/zkpoker/field"
	"github.com/pkg/errors"
)

var (
	ErrArity   = errors.New("commitment: wrong number of values")
	ErrEncoded = errors.New("commitment: invalid encoding")
)

// Commitment is the canonical big-endian encoding of a field element.
type Commitment [field.ElementSize]byte

// FromElement encodes e as a commitment.
func FromElement(e field.Element) Commitment {
	return Commitment(field.ElementToBytes(e))
}

// Element returns the field element the commitment encodes.
func (c Commitment) Element() field.Element {
	var e field.Element
	e.SetBytes(c[:])
	return e
}

// IsZero reports whether c was never set.
func (c Commitment) IsZero() bool {
	return c == Commitment{}
}

func (c Commitment) String() string {
	return "0x" + hex.EncodeToString(c[:])
}

func (c Commitment) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Commitment) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Parse decodes a 0x-prefixed hex commitment.
func Parse(s string) (Commitment, error) {
	var c Commitment
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return c, errors.Wrap(ErrEncoded, err.Error())
	}
	if _, err := field.ElementFromBytes(raw); err != nil {
		return c, errors.Wrap(ErrEncoded, err.Error())
	}
	copy(c[:], raw)
	return c, nil
}

// Hash absorbs inputs into a fresh MiMC sponge and returns the digest.
func Hash(inputs ...field.Element) field.Element {
	h := mimc.NewMiMC()
	for i := range inputs {
		b := inputs[i].Bytes()
		// Write only fails on non-canonical blocks, which Bytes never produces.
		_, _ = h.Write(b[:])
	}
	var out field.Element
	out.SetBytes(h.Sum(nil))
	return out
}

// Scheme commits to a fixed number of values plus one salt.
type Scheme struct {
	arity int
}

// NewScheme returns a scheme committing to exactly arity values.
func NewScheme(arity int) (*Scheme, error) {
	if arity <= 0 {
		return nil, errors.Errorf("commitment: arity must be positive, got %d", arity)
	}
	return &Scheme{arity: arity}, nil
}

func mustScheme(arity int) *Scheme {
	s, err := NewScheme(arity)
	if err != nil {
		panic(err)
	}
	return s
}

var (
	// Seed binds a dealer-selection seed.
	Seed = mustScheme(1)
	// HoleCards binds a player's two private cards.
	HoleCards = mustScheme(2)
	// Deck binds a shuffled permutation packed into two field elements.
	Deck = mustScheme(2)
	// CommunityCards binds the five board cards.
	CommunityCards = mustScheme(5)
)

// Arity returns the number of values the scheme commits to.
func (s *Scheme) Arity() int { return s.arity }

// Commit hashes values and salt. It fails before hashing if the number of
// values does not match the scheme.
func (s *Scheme) Commit(values []field.Element, salt field.Element) (Commitment, error) {
	if len(values) != s.arity {
		return Commitment{}, errors.Wrapf(ErrArity, "want %d, got %d", s.arity, len(values))
	}
	in := make([]field.Element, 0, s.arity+1)
	in = append(in, values...)
	in = append(in, salt)
	return FromElement(Hash(in...)), nil
}

// Verify recomputes the commitment and compares it in constant time.
func (s *Scheme) Verify(c Commitment, values []field.Element, salt field.Element) (bool, error) {
	got, err := s.Commit(values, salt)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(got[:], c[:]) == 1, nil
}

// CommitUint64 is Commit for small integer values such as card ids.
func (s *Scheme) CommitUint64(values []uint64, salt field.Element) (Commitment, error) {
	return s.Commit(toElements(values), salt)
}

// VerifyUint64 is Verify for small integer values.
func (s *Scheme) VerifyUint64(c Commitment, values []uint64, salt field.Element) (bool, error) {
	return s.Verify(c, toElements(values), salt)
}

func toElements(values []uint64) []field.Element {
	out := make([]field.Element, len(values))
	for i, v := range values {
		out[i] = field.ElementFromUint64(v)
	}
	return out
}

// RandomSalt draws a uniformly random salt.
func RandomSalt() (field.Element, error) {
	var salt field.Element
	if _, err := salt.SetRandom(); err != nil {
		return salt, errors.Wrap(err, "commitment: sampling salt")
	}
	return salt, nil
}
