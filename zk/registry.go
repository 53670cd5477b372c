package zk

import (
	"sort"
	"sync"

	"github.com/luca-patrignani/zkpoker/common"
	"github.com/pkg/errors"
)

// CircuitID names a proof class. Each class has exactly one verification key.
type CircuitID string

const (
	CircuitDealer   CircuitID = "dealer"
	CircuitShuffle  CircuitID = "shuffle"
	CircuitDeal     CircuitID = "deal"
	CircuitBet      CircuitID = "bet"
	CircuitReveal   CircuitID = "reveal"
	CircuitShowdown CircuitID = "showdown"
)

// Circuits lists every proof class the engine verifies.
var Circuits = []CircuitID{CircuitDealer, CircuitShuffle, CircuitDeal, CircuitBet, CircuitReveal, CircuitShowdown}

// Valid reports whether id is a known proof class.
func (id CircuitID) Valid() bool {
	for _, c := range Circuits {
		if c == id {
			return true
		}
	}
	return false
}

// Registry holds the verification keys. A key may be set once per circuit and
// is read-only afterwards.
type Registry struct {
	mu   sync.RWMutex
	keys map[CircuitID]*VerificationKey
}

func NewRegistry() *Registry {
	return &Registry{keys: make(map[CircuitID]*VerificationKey)}
}

// Set installs the key for id.
func (r *Registry) Set(id CircuitID, vk *VerificationKey) error {
	if !id.Valid() {
		return errors.Wrapf(common.ErrUnknownCircuit, "circuit %q", id)
	}
	if err := vk.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.keys[id]; ok {
		return errors.Wrapf(common.ErrKeyAlreadySet, "circuit %q", id)
	}
	r.keys[id] = vk
	return nil
}

// Get returns the key for id.
func (r *Registry) Get(id CircuitID) (*VerificationKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	vk, ok := r.keys[id]
	if !ok {
		return nil, errors.Wrapf(common.ErrUnknownCircuit, "circuit %q", id)
	}
	return vk, nil
}

// Installed returns the circuits that have a key, sorted.
func (r *Registry) Installed() []CircuitID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]CircuitID, 0, len(r.keys))
	for id := range r.keys {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Check verifies proof against the key of id and translates the outcome into
// engine errors: a wrong signal count is ErrSignalShape, a malformed proof is
// ErrMalformedProof and a failed pairing is ErrProofRejected.
func (r *Registry) Check(id CircuitID, proof Proof, signals PublicSignals) error {
	vk, err := r.Get(id)
	if err != nil {
		return err
	}
	ok, err := Verify(vk, proof, signals)
	switch {
	case errors.Is(err, ErrInvalidPublicInputs):
		return errors.Wrapf(common.ErrSignalShape, "%s: %v", id, err)
	case err != nil:
		return errors.Wrapf(common.ErrMalformedProof, "%s: %v", id, err)
	case !ok:
		return errors.Wrapf(common.ErrProofRejected, "%s", id)
	}
	return nil
}
