package zk

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/luca-patrignani/zkpoker/field"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SnarkJSProof is the proof.json layout written by snarkjs.
type SnarkJSProof struct {
	PiA      []string   `json:"pi_a"`
	PiB      [][]string `json:"pi_b"`
	PiC      []string   `json:"pi_c"`
	Protocol string     `json:"protocol"`
	Curve    string     `json:"curve,omitempty"`
}

// SnarkJSVerificationKey is the verification_key.json layout written by snarkjs.
type SnarkJSVerificationKey struct {
	Protocol string     `json:"protocol"`
	Curve    string     `json:"curve"`
	NPublic  int        `json:"nPublic"`
	VkAlpha1 []string   `json:"vk_alpha_1"`
	VkBeta2  [][]string `json:"vk_beta_2"`
	VkGamma2 [][]string `json:"vk_gamma_2"`
	VkDelta2 [][]string `json:"vk_delta_2"`
	IC       [][]string `json:"IC"`
}

func g1FromSnarkJS(p []string) (field.G1, error) {
	if len(p) < 2 {
		return field.G1{}, errors.Errorf("g1 point needs 2 coordinates, got %d", len(p))
	}
	if len(p) == 3 && p[2] == "0" {
		return field.G1{}, nil
	}
	return field.G1FromDecimal(p[0], p[1])
}

func g2FromSnarkJS(p [][]string) (field.G2, error) {
	if len(p) < 2 || len(p[0]) != 2 || len(p[1]) != 2 {
		return field.G2{}, errors.New("g2 point needs 2x2 coordinates")
	}
	return field.G2FromDecimal(p[0][0], p[0][1], p[1][0], p[1][1])
}

func g1ToSnarkJS(p field.G1) []string {
	if p.IsInfinity() {
		return []string{"0", "1", "0"}
	}
	return []string{p.X.String(), p.Y.String(), "1"}
}

func g2ToSnarkJS(p field.G2) [][]string {
	return [][]string{
		{p.X.A0.String(), p.X.A1.String()},
		{p.Y.A0.String(), p.Y.A1.String()},
		{"1", "0"},
	}
}

func checkHeader(protocol, curve string) error {
	if protocol != "" && protocol != "groth16" {
		return errors.Errorf("unsupported protocol %q", protocol)
	}
	if curve != "" && curve != "bn128" && curve != "bn254" {
		return errors.Errorf("unsupported curve %q", curve)
	}
	return nil
}

// ParseSnarkJSVerificationKey decodes a snarkjs verification_key.json.
func ParseSnarkJSVerificationKey(data []byte) (*VerificationKey, error) {
	var raw SnarkJSVerificationKey
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrapf(ErrInvalidVerificationKey, "json: %v", err)
	}
	if err := checkHeader(raw.Protocol, raw.Curve); err != nil {
		return nil, errors.Wrap(ErrInvalidVerificationKey, err.Error())
	}
	if raw.NPublic != 0 && raw.NPublic+1 != len(raw.IC) {
		return nil, errors.Wrapf(ErrInvalidVerificationKey, "nPublic %d with %d IC points", raw.NPublic, len(raw.IC))
	}
	vk := &VerificationKey{IC: make([]field.G1, len(raw.IC))}
	var err error
	if vk.Alpha, err = g1FromSnarkJS(raw.VkAlpha1); err != nil {
		return nil, errors.Wrapf(ErrInvalidVerificationKey, "alpha: %v", err)
	}
	for _, g := range []struct {
		name string
		dst  *field.G2
		src  [][]string
	}{{"beta", &vk.Beta, raw.VkBeta2}, {"gamma", &vk.Gamma, raw.VkGamma2}, {"delta", &vk.Delta, raw.VkDelta2}} {
		if *g.dst, err = g2FromSnarkJS(g.src); err != nil {
			return nil, errors.Wrapf(ErrInvalidVerificationKey, "%s: %v", g.name, err)
		}
	}
	for i, p := range raw.IC {
		if vk.IC[i], err = g1FromSnarkJS(p); err != nil {
			return nil, errors.Wrapf(ErrInvalidVerificationKey, "ic[%d]: %v", i, err)
		}
	}
	if err := vk.Validate(); err != nil {
		return nil, err
	}
	return vk, nil
}

// MarshalSnarkJS encodes the key as a snarkjs verification_key.json.
func (vk *VerificationKey) MarshalSnarkJS() ([]byte, error) {
	raw := SnarkJSVerificationKey{
		Protocol: "groth16",
		Curve:    "bn128",
		NPublic:  vk.NumPublic(),
		VkAlpha1: g1ToSnarkJS(vk.Alpha),
		VkBeta2:  g2ToSnarkJS(vk.Beta),
		VkGamma2: g2ToSnarkJS(vk.Gamma),
		VkDelta2: g2ToSnarkJS(vk.Delta),
		IC:       make([][]string, len(vk.IC)),
	}
	for i, p := range vk.IC {
		raw.IC[i] = g1ToSnarkJS(p)
	}
	return json.MarshalIndent(raw, "", "  ")
}

// ParseSnarkJSProof decodes a snarkjs proof.json.
func ParseSnarkJSProof(data []byte) (Proof, error) {
	var raw SnarkJSProof
	if err := json.Unmarshal(data, &raw); err != nil {
		return Proof{}, errors.Wrapf(ErrInvalidProofStructure, "json: %v", err)
	}
	if err := checkHeader(raw.Protocol, raw.Curve); err != nil {
		return Proof{}, errors.Wrap(ErrInvalidProofStructure, err.Error())
	}
	var (
		p   Proof
		err error
	)
	if p.A, err = g1FromSnarkJS(raw.PiA); err != nil {
		return Proof{}, errors.Wrapf(ErrInvalidPoint, "pi_a: %v", err)
	}
	if p.B, err = g2FromSnarkJS(raw.PiB); err != nil {
		return Proof{}, errors.Wrapf(ErrInvalidPoint, "pi_b: %v", err)
	}
	if p.C, err = g1FromSnarkJS(raw.PiC); err != nil {
		return Proof{}, errors.Wrapf(ErrInvalidPoint, "pi_c: %v", err)
	}
	return p, nil
}

// MarshalSnarkJS encodes the proof as a snarkjs proof.json.
func (p Proof) MarshalSnarkJS() ([]byte, error) {
	return json.MarshalIndent(SnarkJSProof{
		PiA:      g1ToSnarkJS(p.A),
		PiB:      g2ToSnarkJS(p.B),
		PiC:      g1ToSnarkJS(p.C),
		Protocol: "groth16",
		Curve:    "bn128",
	}, "", "  ")
}

// ParseSnarkJSPublicSignals decodes a snarkjs public.json (an array of
// decimal strings).
func ParseSnarkJSPublicSignals(data []byte) (PublicSignals, error) {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrapf(ErrInvalidPublicInputs, "json: %v", err)
	}
	out := make(PublicSignals, len(raw))
	for i, s := range raw {
		e, err := field.ElementFromDecimal(s)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidPublicInputs, "signal %d: %v", i, err)
		}
		out[i] = e
	}
	return out, nil
}

// MarshalSnarkJS encodes the signals as a snarkjs public.json.
func (s PublicSignals) MarshalSnarkJS() ([]byte, error) {
	raw := make([]string, len(s))
	for i := range s {
		raw[i] = field.ElementToBigInt(s[i]).String()
	}
	return json.Marshal(raw)
}
