package circuit

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"
)

// hash absorbs values into an in-circuit MiMC sponge. It matches
// commitment.Hash on the same inputs.
func hash(api frontend.API, values ...frontend.Variable) (frontend.Variable, error) {
	h, err := mimc.NewMiMC(api)
	if err != nil {
		return nil, err
	}
	h.Write(values...)
	return h.Sum(), nil
}

func assertCommitment(api frontend.API, want frontend.Variable, values ...frontend.Variable) error {
	got, err := hash(api, values...)
	if err != nil {
		return err
	}
	api.AssertIsEqual(got, want)
	return nil
}

// pack folds six-bit digits into one variable, least significant first.
func pack(api frontend.API, digits []frontend.Variable) frontend.Variable {
	acc := frontend.Variable(0)
	for i := len(digits) - 1; i >= 0; i-- {
		acc = api.Add(api.Mul(acc, 64), digits[i])
	}
	return acc
}

// selectAt returns values[idx]. The circuit is unsatisfiable unless idx is a
// valid index.
func selectAt(api frontend.API, values []frontend.Variable, idx frontend.Variable) frontend.Variable {
	out := frontend.Variable(0)
	hits := frontend.Variable(0)
	for j, v := range values {
		hit := api.IsZero(api.Sub(idx, j))
		out = api.Add(out, api.Mul(hit, v))
		hits = api.Add(hits, hit)
	}
	api.AssertIsEqual(hits, 1)
	return out
}

// assertNonNegative constrains v to [0, 2^bits).
func assertNonNegative(api frontend.API, v frontend.Variable, bits int) {
	api.ToBinary(v, bits)
}

// assertNonNegativeWhen constrains v to [0, 2^64) when sel is 1 and nothing
// when sel is 0.
func assertNonNegativeWhen(api frontend.API, sel, v frontend.Variable) {
	api.ToBinary(api.Mul(sel, v), 64)
}

// bind places a public input in a quadratic constraint so its verification
// key point is not the identity and the proof commits to its value.
func bind(api frontend.API, vars ...frontend.Variable) {
	for _, v := range vars {
		sq := api.Mul(v, v)
		api.AssertIsEqual(api.Sub(sq, api.Mul(v, v)), 0)
	}
}
