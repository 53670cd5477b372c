package circuit

import (
	"io"
	"os"
	"path/filepath"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend/groth16"
	groth16bn254 "github.com/consensys/gnark/backend/groth16/bn254"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/consensys/gnark/logger"
	"github.com/luca-patrignani/zkpoker/field"
	"github.com/luca-patrignani/zkpoker/zk"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

func init() {
	// gnark logs every compilation and proof at debug level.
	logger.Set(zerolog.New(io.Discard))
}

// SetLogger routes gnark's own logging to l.
func SetLogger(l zerolog.Logger) {
	logger.Set(l)
}

// Empty returns the circuit definition of id, ready to compile.
func Empty(id zk.CircuitID) (frontend.Circuit, error) {
	switch id {
	case zk.CircuitDealer:
		return &Dealer{}, nil
	case zk.CircuitShuffle:
		return &Shuffle{}, nil
	case zk.CircuitDeal:
		return &Deal{}, nil
	case zk.CircuitBet:
		return &Bet{}, nil
	case zk.CircuitReveal:
		return &Reveal{}, nil
	case zk.CircuitShowdown:
		return &Showdown{}, nil
	}
	return nil, errors.Errorf("circuit: unknown circuit %q", id)
}

// Compile builds the R1CS of id over the BN254 scalar field.
func Compile(id zk.CircuitID) (constraint.ConstraintSystem, error) {
	c, err := Empty(id)
	if err != nil {
		return nil, err
	}
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, c, frontend.IgnoreUnconstrainedInputs())
	if err != nil {
		return nil, errors.Wrapf(err, "circuit: compiling %s", id)
	}
	return ccs, nil
}

// Keys is the compiled circuit of one proof class with its Groth16 keys.
type Keys struct {
	ID zk.CircuitID
	CS constraint.ConstraintSystem
	PK groth16.ProvingKey
	VK groth16.VerifyingKey
}

// Setup compiles id and runs a local, single-party Groth16 setup. Keys made
// this way are for development and tests only: whoever ran the setup can
// forge proofs.
func Setup(id zk.CircuitID) (*Keys, error) {
	ccs, err := Compile(id)
	if err != nil {
		return nil, err
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, errors.Wrapf(err, "circuit: setup of %s", id)
	}
	return &Keys{ID: id, CS: ccs, PK: pk, VK: vk}, nil
}

// Prove produces a proof for assignment together with its public signals.
func (k *Keys) Prove(assignment frontend.Circuit) (zk.Proof, zk.PublicSignals, error) {
	w, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return zk.Proof{}, nil, errors.Wrapf(err, "circuit: witness for %s", k.ID)
	}
	proof, err := groth16.Prove(k.CS, k.PK, w)
	if err != nil {
		return zk.Proof{}, nil, errors.Wrapf(err, "circuit: proving %s", k.ID)
	}
	pub, err := w.Public()
	if err != nil {
		return zk.Proof{}, nil, errors.Wrap(err, "circuit: public witness")
	}
	vec, ok := pub.Vector().(fr.Vector)
	if !ok {
		return zk.Proof{}, nil, errors.Errorf("circuit: unexpected witness vector %T", pub.Vector())
	}
	p, err := ExportProof(proof)
	if err != nil {
		return zk.Proof{}, nil, err
	}
	return p, zk.PublicSignals(vec), nil
}

// VerificationKey converts the gnark key into the engine's representation.
func (k *Keys) VerificationKey() (*zk.VerificationKey, error) {
	return ExportVerificationKey(k.VK)
}

// ExportVerificationKey converts a BN254 gnark verifying key. The circuits of
// this package do not use gnark's commitment extension, so the key is a plain
// Groth16 key.
func ExportVerificationKey(vk groth16.VerifyingKey) (*zk.VerificationKey, error) {
	bvk, ok := vk.(*groth16bn254.VerifyingKey)
	if !ok {
		return nil, errors.Errorf("circuit: verifying key %T is not bn254", vk)
	}
	out := &zk.VerificationKey{
		Alpha: bvk.G1.Alpha,
		Beta:  bvk.G2.Beta,
		Gamma: bvk.G2.Gamma,
		Delta: bvk.G2.Delta,
		IC:    append([]field.G1(nil), bvk.G1.K...),
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// ExportProof converts a BN254 gnark proof.
func ExportProof(p groth16.Proof) (zk.Proof, error) {
	bp, ok := p.(*groth16bn254.Proof)
	if !ok {
		return zk.Proof{}, errors.Errorf("circuit: proof %T is not bn254", p)
	}
	return zk.Proof{A: bp.Ar, B: bp.Bs, C: bp.Krs}, nil
}

func keyPaths(dir string, id zk.CircuitID) (cs, pk, vk string) {
	base := filepath.Join(dir, string(id))
	return base + ".r1cs", base + ".pk", base + ".vk.json"
}

// Save writes the constraint system, the proving key and a snarkjs
// verification key under dir.
func (k *Keys) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "circuit: creating key dir")
	}
	csPath, pkPath, vkPath := keyPaths(dir, k.ID)
	for path, w := range map[string]io.WriterTo{csPath: k.CS, pkPath: k.PK} {
		if err := writeTo(path, w); err != nil {
			return err
		}
	}
	vk, err := k.VerificationKey()
	if err != nil {
		return err
	}
	raw, err := vk.MarshalSnarkJS()
	if err != nil {
		return errors.Wrap(err, "circuit: encoding verification key")
	}
	return errors.Wrap(os.WriteFile(vkPath, raw, 0o644), "circuit: writing verification key")
}

func writeTo(path string, w io.WriterTo) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "circuit: creating %s", path)
	}
	defer f.Close()
	if _, err := w.WriteTo(f); err != nil {
		return errors.Wrapf(err, "circuit: writing %s", path)
	}
	return nil
}

// Load reads keys previously written by Save. The gnark verifying key is not
// reloaded; VerificationKeyFile returns the snarkjs file to install instead.
func Load(dir string, id zk.CircuitID) (*Keys, error) {
	csPath, pkPath, _ := keyPaths(dir, id)
	ccs := groth16.NewCS(ecc.BN254)
	if err := readFrom(csPath, ccs); err != nil {
		return nil, err
	}
	pk := groth16.NewProvingKey(ecc.BN254)
	if err := readFrom(pkPath, pk); err != nil {
		return nil, err
	}
	return &Keys{ID: id, CS: ccs, PK: pk}, nil
}

// VerificationKeyFile returns the path of the snarkjs verification key of id.
func VerificationKeyFile(dir string, id zk.CircuitID) string {
	_, _, vk := keyPaths(dir, id)
	return vk
}

func readFrom(path string, r io.ReaderFrom) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "circuit: opening %s", path)
	}
	defer f.Close()
	if _, err := r.ReadFrom(f); err != nil {
		return errors.Wrapf(err, "circuit: reading %s", path)
	}
	return nil
}

// Suite holds the keys of every proof class.
type Suite map[zk.CircuitID]*Keys

// SetupAll runs Setup for every circuit the engine verifies.
func SetupAll() (Suite, error) {
	s := make(Suite, len(zk.Circuits))
	for _, id := range zk.Circuits {
		k, err := Setup(id)
		if err != nil {
			return nil, err
		}
		s[id] = k
	}
	return s, nil
}

// Install registers every verification key of the suite.
func (s Suite) Install(reg *zk.Registry) error {
	for _, id := range zk.Circuits {
		k, ok := s[id]
		if !ok {
			continue
		}
		vk, err := k.VerificationKey()
		if err != nil {
			return err
		}
		if err := reg.Set(id, vk); err != nil {
			return err
		}
	}
	return nil
}
