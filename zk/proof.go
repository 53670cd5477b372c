// Package zk verifies Groth16 proofs over BN254 and keeps the verification
// keys of the game's circuits.
package zk

import (
	"encoding/binary"

	"github.com/luca-patrignani/zkpoker/field"
	"github.com/pkg/errors"
)

var (
	ErrInvalidProofStructure  = errors.New("zk: invalid proof structure")
	ErrInvalidVerificationKey = errors.New("zk: invalid verification key")
	ErrInvalidPublicInputs    = errors.New("zk: invalid public inputs")
	ErrInvalidPoint           = errors.New("zk: invalid curve point")
	ErrInvalidPairingInputs   = errors.New("zk: invalid pairing inputs")
)

// ProofSize is the length of an encoded proof: A (G1), B (G2), C (G1).
const ProofSize = 2*field.G1Size + field.G2Size

// Proof is a Groth16 proof.
type Proof struct {
	A field.G1
	B field.G2
	C field.G1
}

// ProofFromBytes decodes A|B|C and validates every point.
func ProofFromBytes(b []byte) (Proof, error) {
	var p Proof
	if len(b) != ProofSize {
		return p, errors.Wrapf(ErrInvalidProofStructure, "proof of %d bytes", len(b))
	}
	var err error
	if p.A, err = field.G1FromBytes(b[:field.G1Size]); err != nil {
		return Proof{}, errors.Wrapf(ErrInvalidPoint, "proof.A: %v", err)
	}
	if p.B, err = field.G2FromBytes(b[field.G1Size : field.G1Size+field.G2Size]); err != nil {
		return Proof{}, errors.Wrapf(ErrInvalidPoint, "proof.B: %v", err)
	}
	if p.C, err = field.G1FromBytes(b[field.G1Size+field.G2Size:]); err != nil {
		return Proof{}, errors.Wrapf(ErrInvalidPoint, "proof.C: %v", err)
	}
	return p, nil
}

// Bytes encodes the proof as A|B|C.
func (p Proof) Bytes() []byte {
	out := make([]byte, 0, ProofSize)
	a, b, c := field.G1ToBytes(p.A), field.G2ToBytes(p.B), field.G1ToBytes(p.C)
	out = append(out, a[:]...)
	out = append(out, b[:]...)
	return append(out, c[:]...)
}

// validate rejects points that are off the curve, outside the subgroup, or
// the identity.
func (p *Proof) validate() error {
	if p.A.IsInfinity() || p.B.IsInfinity() || p.C.IsInfinity() {
		return errors.Wrap(ErrInvalidPoint, "proof contains the identity")
	}
	if err := field.ValidateG1(p.A); err != nil {
		return errors.Wrapf(ErrInvalidPoint, "proof.A: %v", err)
	}
	if err := field.ValidateG2(p.B); err != nil {
		return errors.Wrapf(ErrInvalidPoint, "proof.B: %v", err)
	}
	if err := field.ValidateG1(p.C); err != nil {
		return errors.Wrapf(ErrInvalidPoint, "proof.C: %v", err)
	}
	return nil
}

// VerificationKey is a Groth16 verification key. IC holds one point per public
// signal plus the constant term at IC[0].
type VerificationKey struct {
	Alpha field.G1
	Beta  field.G2
	Gamma field.G2
	Delta field.G2
	IC    []field.G1
}

// NumPublic returns how many public signals the key expects.
func (vk *VerificationKey) NumPublic() int {
	if len(vk.IC) == 0 {
		return 0
	}
	return len(vk.IC) - 1
}

// Validate checks the key's structure and points.
func (vk *VerificationKey) Validate() error {
	if len(vk.IC) == 0 {
		return errors.Wrap(ErrInvalidVerificationKey, "empty IC")
	}
	if vk.Alpha.IsInfinity() || vk.Beta.IsInfinity() || vk.Gamma.IsInfinity() || vk.Delta.IsInfinity() {
		return errors.Wrap(ErrInvalidVerificationKey, "key contains the identity")
	}
	if err := field.ValidateG1(vk.Alpha); err != nil {
		return errors.Wrapf(ErrInvalidVerificationKey, "alpha: %v", err)
	}
	for name, q := range map[string]field.G2{"beta": vk.Beta, "gamma": vk.Gamma, "delta": vk.Delta} {
		if err := field.ValidateG2(q); err != nil {
			return errors.Wrapf(ErrInvalidVerificationKey, "%s: %v", name, err)
		}
	}
	for i := range vk.IC {
		if err := field.ValidateG1(vk.IC[i]); err != nil {
			return errors.Wrapf(ErrInvalidVerificationKey, "ic[%d]: %v", i, err)
		}
	}
	return nil
}

const vkHeaderSize = field.G1Size + 3*field.G2Size + 4

// VerificationKeyFromBytes decodes alpha|beta|gamma|delta|n|IC[n].
func VerificationKeyFromBytes(b []byte) (*VerificationKey, error) {
	if len(b) < vkHeaderSize {
		return nil, errors.Wrapf(ErrInvalidVerificationKey, "key of %d bytes", len(b))
	}
	vk := new(VerificationKey)
	var err error
	off := 0
	if vk.Alpha, err = field.G1FromBytes(b[off : off+field.G1Size]); err != nil {
		return nil, errors.Wrapf(ErrInvalidVerificationKey, "alpha: %v", err)
	}
	off += field.G1Size
	for _, dst := range []*field.G2{&vk.Beta, &vk.Gamma, &vk.Delta} {
		if *dst, err = field.G2FromBytes(b[off : off+field.G2Size]); err != nil {
			return nil, errors.Wrapf(ErrInvalidVerificationKey, "g2 at %d: %v", off, err)
		}
		off += field.G2Size
	}
	n := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if len(b)-off != n*field.G1Size {
		return nil, errors.Wrapf(ErrInvalidVerificationKey, "declared %d IC points, have %d bytes", n, len(b)-off)
	}
	vk.IC = make([]field.G1, n)
	for i := 0; i < n; i++ {
		if vk.IC[i], err = field.G1FromBytes(b[off : off+field.G1Size]); err != nil {
			return nil, errors.Wrapf(ErrInvalidVerificationKey, "ic[%d]: %v", i, err)
		}
		off += field.G1Size
	}
	if err := vk.Validate(); err != nil {
		return nil, err
	}
	return vk, nil
}

// Bytes encodes the key in the layout read by VerificationKeyFromBytes.
func (vk *VerificationKey) Bytes() []byte {
	out := make([]byte, 0, vkHeaderSize+len(vk.IC)*field.G1Size)
	alpha := field.G1ToBytes(vk.Alpha)
	out = append(out, alpha[:]...)
	for _, q := range []field.G2{vk.Beta, vk.Gamma, vk.Delta} {
		enc := field.G2ToBytes(q)
		out = append(out, enc[:]...)
	}
	out = binary.BigEndian.AppendUint32(out, uint32(len(vk.IC)))
	for _, p := range vk.IC {
		enc := field.G1ToBytes(p)
		out = append(out, enc[:]...)
	}
	return out
}
