package zk

import (
	"github.com/luca-patrignani/zkpoker/field"
	"github.com/pkg/errors"
)

// PublicSignals is the ordered public input vector of a proof.
type PublicSignals []field.Element

// SignalsFromUint64 builds a signal vector from small integers.
func SignalsFromUint64(values ...uint64) PublicSignals {
	out := make(PublicSignals, len(values))
	for i, v := range values {
		out[i] = field.ElementFromUint64(v)
	}
	return out
}

// Uint64 returns signal i as an integer.
func (s PublicSignals) Uint64(i int) (uint64, error) {
	if i < 0 || i >= len(s) {
		return 0, errors.Wrapf(ErrInvalidPublicInputs, "signal %d of %d", i, len(s))
	}
	v, err := field.ElementToUint64(s[i])
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidPublicInputs, "signal %d: %v", i, err)
	}
	return v, nil
}

// Equal reports whether both vectors hold the same elements.
func (s PublicSignals) Equal(other PublicSignals) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if !s[i].Equal(&other[i]) {
			return false
		}
	}
	return true
}

// Bytes concatenates the canonical encodings of every signal.
func (s PublicSignals) Bytes() []byte {
	out := make([]byte, 0, len(s)*field.ElementSize)
	for i := range s {
		b := field.ElementToBytes(s[i])
		out = append(out, b[:]...)
	}
	return out
}

// SignalsFromBytes splits b into 32-byte canonical scalars.
func SignalsFromBytes(b []byte) (PublicSignals, error) {
	if len(b)%field.ElementSize != 0 {
		return nil, errors.Wrapf(ErrInvalidPublicInputs, "%d bytes is not a multiple of %d", len(b), field.ElementSize)
	}
	out := make(PublicSignals, len(b)/field.ElementSize)
	for i := range out {
		e, err := field.ElementFromBytes(b[i*field.ElementSize : (i+1)*field.ElementSize])
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidPublicInputs, "signal %d: %v", i, err)
		}
		out[i] = e
	}
	return out, nil
}

// Verify runs the Groth16 check
//
//	e(-A, B) · e(alpha, beta) · e(vk_x, gamma) · e(C, delta) == 1
//
// with vk_x = IC[0] + Σ signals[i]·IC[i+1]. A well-formed proof that does not
// satisfy the equation yields (false, nil); malformed input yields an error.
func Verify(vk *VerificationKey, proof Proof, signals PublicSignals) (bool, error) {
	if vk == nil || len(vk.IC) == 0 {
		return false, errors.Wrap(ErrInvalidVerificationKey, "missing key")
	}
	if len(signals)+1 != len(vk.IC) {
		return false, errors.Wrapf(ErrInvalidPublicInputs, "key expects %d signals, got %d", vk.NumPublic(), len(signals))
	}
	if err := proof.validate(); err != nil {
		return false, err
	}

	vkX := vk.IC[0]
	for i := range signals {
		vkX = field.G1Add(vkX, field.G1ScalarMul(vk.IC[i+1], signals[i]))
	}

	ok, err := field.PairingCheck(
		[]field.G1{field.G1Neg(proof.A), vk.Alpha, vkX, proof.C},
		[]field.G2{proof.B, vk.Beta, vk.Gamma, vk.Delta},
	)
	if err != nil {
		return false, errors.Wrap(ErrInvalidPairingInputs, err.Error())
	}
	return ok, nil
}
