package field

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fp"
	"github.com/pkg/errors"
)

// Encoded point sizes. G1 is x|y, G2 is x.a1|x.a0|y.a1|y.a0, every coordinate
// a 32-byte big-endian base field element. The all-zero string is the point
// at infinity.
const (
	coordSize = fp.Bytes
	G1Size    = 2 * coordSize
	G2Size    = 4 * coordSize
)

type (
	G1 = bn254.G1Affine
	G2 = bn254.G2Affine
	GT = bn254.GT
)

func coordFromBytes(b []byte) (fp.Element, error) {
	var e fp.Element
	v := new(big.Int).SetBytes(b)
	if v.Cmp(fp.Modulus()) >= 0 {
		return e, ErrNonCanonical
	}
	e.SetBigInt(v)
	return e, nil
}

func coordFromDecimal(s string) (fp.Element, error) {
	var e fp.Element
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return e, errors.Wrapf(ErrInvalidEncoding, "decimal coordinate %q", s)
	}
	if v.Cmp(fp.Modulus()) >= 0 {
		return e, ErrNonCanonical
	}
	e.SetBigInt(v)
	return e, nil
}

func checkG1(p *G1) error {
	if !p.IsOnCurve() {
		return ErrNotOnCurve
	}
	if !p.IsInSubGroup() {
		return ErrNotInSubgroup
	}
	return nil
}

func checkG2(p *G2) error {
	if !p.IsOnCurve() {
		return ErrNotOnCurve
	}
	if !p.IsInSubGroup() {
		return ErrNotInSubgroup
	}
	return nil
}

// G1FromBytes decodes and validates a G1 point.
func G1FromBytes(b []byte) (G1, error) {
	var p G1
	if len(b) != G1Size {
		return p, errors.Wrapf(ErrInvalidEncoding, "g1 point of %d bytes", len(b))
	}
	var err error
	if p.X, err = coordFromBytes(b[:coordSize]); err != nil {
		return G1{}, err
	}
	if p.Y, err = coordFromBytes(b[coordSize:]); err != nil {
		return G1{}, err
	}
	if err := checkG1(&p); err != nil {
		return G1{}, err
	}
	return p, nil
}

// G1ToBytes encodes p as x|y.
func G1ToBytes(p G1) [G1Size]byte {
	var out [G1Size]byte
	x, y := p.X.Bytes(), p.Y.Bytes()
	copy(out[:coordSize], x[:])
	copy(out[coordSize:], y[:])
	return out
}

// G1FromDecimal builds a G1 point from affine decimal coordinates.
func G1FromDecimal(x, y string) (G1, error) {
	var p G1
	var err error
	if p.X, err = coordFromDecimal(x); err != nil {
		return G1{}, err
	}
	if p.Y, err = coordFromDecimal(y); err != nil {
		return G1{}, err
	}
	if err := checkG1(&p); err != nil {
		return G1{}, err
	}
	return p, nil
}

// G2FromBytes decodes and validates a G2 point, including the subgroup check
// G2 needs because its cofactor is not one.
func G2FromBytes(b []byte) (G2, error) {
	var p G2
	if len(b) != G2Size {
		return p, errors.Wrapf(ErrInvalidEncoding, "g2 point of %d bytes", len(b))
	}
	coords := make([]fp.Element, 4)
	for i := range coords {
		c, err := coordFromBytes(b[i*coordSize : (i+1)*coordSize])
		if err != nil {
			return G2{}, err
		}
		coords[i] = c
	}
	p.X.A1, p.X.A0, p.Y.A1, p.Y.A0 = coords[0], coords[1], coords[2], coords[3]
	if err := checkG2(&p); err != nil {
		return G2{}, err
	}
	return p, nil
}

// G2ToBytes encodes p as x.a1|x.a0|y.a1|y.a0.
func G2ToBytes(p G2) [G2Size]byte {
	var out [G2Size]byte
	for i, c := range []fp.Element{p.X.A1, p.X.A0, p.Y.A1, p.Y.A0} {
		b := c.Bytes()
		copy(out[i*coordSize:], b[:])
	}
	return out
}

// G2FromDecimal builds a G2 point from decimal coordinates given in snarkjs
// order: each coordinate as (a0, a1).
func G2FromDecimal(x0, x1, y0, y1 string) (G2, error) {
	var p G2
	var err error
	for _, c := range []struct {
		dst *fp.Element
		s   string
	}{{&p.X.A0, x0}, {&p.X.A1, x1}, {&p.Y.A0, y0}, {&p.Y.A1, y1}} {
		if *c.dst, err = coordFromDecimal(c.s); err != nil {
			return G2{}, err
		}
	}
	if err := checkG2(&p); err != nil {
		return G2{}, err
	}
	return p, nil
}

// ValidateG1 reports whether p is a usable G1 point.
func ValidateG1(p G1) error { return checkG1(&p) }

// ValidateG2 reports whether p is a usable G2 point.
func ValidateG2(p G2) error { return checkG2(&p) }

// G1Generator returns the standard generator of G1.
func G1Generator() G1 {
	_, _, g1, _ := bn254.Generators()
	return g1
}

// G2Generator returns the standard generator of G2.
func G2Generator() G2 {
	_, _, _, g2 := bn254.Generators()
	return g2
}

// G1Add returns a + b.
func G1Add(a, b G1) G1 {
	var ja, jb bn254.G1Jac
	ja.FromAffine(&a)
	jb.FromAffine(&b)
	ja.AddAssign(&jb)
	var out G1
	out.FromJacobian(&ja)
	return out
}

// G1ScalarMul returns s·p.
func G1ScalarMul(p G1, s Element) G1 {
	var out G1
	out.ScalarMultiplication(&p, s.BigInt(new(big.Int)))
	return out
}

// G1Neg returns -p.
func G1Neg(p G1) G1 {
	var out G1
	out.Neg(&p)
	return out
}

// Pair computes the product of pairings e(p[i], q[i]).
func Pair(p []G1, q []G2) (GT, error) {
	if len(p) != len(q) {
		return GT{}, errors.Errorf("field: pairing input lengths differ: %d g1, %d g2", len(p), len(q))
	}
	return bn254.Pair(p, q)
}

// PairingCheck reports whether Π e(p[i], q[i]) == 1.
func PairingCheck(p []G1, q []G2) (bool, error) {
	if len(p) != len(q) || len(p) == 0 {
		return false, errors.Errorf("field: pairing input lengths invalid: %d g1, %d g2", len(p), len(q))
	}
	return bn254.PairingCheck(p, q)
}
