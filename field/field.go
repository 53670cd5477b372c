// Package field implements the BN254 arithmetic the verifier and the
// commitment scheme are built on: canonical scalar encodings, G1/G2 point
// decoding with curve and subgroup validation, and the pairing check.
//
// Encodings are big-endian and canonical. Values at or above the field
// modulus are rejected instead of being reduced, so every byte string has at
// most one meaning.
package field

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/pkg/errors"
)

// ElementSize is the byte length of an encoded scalar.
const ElementSize = fr.Bytes

var (
	ErrInvalidEncoding = errors.New("field: invalid encoding length")
	ErrNonCanonical    = errors.New("field: value not reduced modulo the field order")
	ErrNotOnCurve      = errors.New("field: point not on curve")
	ErrNotInSubgroup   = errors.New("field: point not in prime-order subgroup")
	ErrOverflow        = errors.New("field: value does not fit in 64 bits")
)

// Element is a scalar of the BN254 scalar field.
type Element = fr.Element

// ScalarModulus returns r, the order of the BN254 scalar field.
func ScalarModulus() *big.Int {
	return fr.Modulus()
}

// ElementFromUint64 embeds v into the scalar field.
func ElementFromUint64(v uint64) Element {
	var e Element
	e.SetUint64(v)
	return e
}

// ElementFromBytes decodes a 32-byte big-endian canonical scalar.
func ElementFromBytes(b []byte) (Element, error) {
	var e Element
	if len(b) != ElementSize {
		return e, errors.Wrapf(ErrInvalidEncoding, "scalar of %d bytes", len(b))
	}
	v := new(big.Int).SetBytes(b)
	if v.Cmp(fr.Modulus()) >= 0 {
		return e, ErrNonCanonical
	}
	e.SetBigInt(v)
	return e, nil
}

// ElementToBytes returns the canonical encoding of e.
func ElementToBytes(e Element) [ElementSize]byte {
	return e.Bytes()
}

// ElementFromDecimal parses a base-10 string such as the ones produced by
// snarkjs for public signals.
func ElementFromDecimal(s string) (Element, error) {
	var e Element
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return e, errors.Wrapf(ErrInvalidEncoding, "decimal scalar %q", s)
	}
	if v.Cmp(fr.Modulus()) >= 0 {
		return e, ErrNonCanonical
	}
	e.SetBigInt(v)
	return e, nil
}

// ElementFromBigInt embeds v, rejecting negative or unreduced values.
func ElementFromBigInt(v *big.Int) (Element, error) {
	var e Element
	if v.Sign() < 0 || v.Cmp(fr.Modulus()) >= 0 {
		return e, ErrNonCanonical
	}
	e.SetBigInt(v)
	return e, nil
}

// ElementToUint64 returns e as a uint64 when it fits.
func ElementToUint64(e Element) (uint64, error) {
	if !e.IsUint64() {
		return 0, ErrOverflow
	}
	return e.Uint64(), nil
}

// ElementToBigInt returns the integer representative of e in [0, r).
func ElementToBigInt(e Element) *big.Int {
	return e.BigInt(new(big.Int))
}
