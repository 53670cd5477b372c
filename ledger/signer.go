package ledger

import (
	"encoding/hex"

	"github.com/pkg/errors"
	"go.dedis.ch/kyber/v4"
	"go.dedis.ch/kyber/v4/sign/schnorr"
	"go.dedis.ch/kyber/v4/suites"
	"go.dedis.ch/kyber/v4/util/key"
)

var suite = suites.MustFind("Ed25519")

// Signer signs journal blocks with an Ed25519 Schnorr key.
type Signer struct {
	pair *key.Pair
}

// NewSigner draws a fresh key pair.
func NewSigner() *Signer {
	return &Signer{pair: key.NewKeyPair(suite)}
}

// SignerFromHex restores a signer from the hex private scalar written by
// PrivateHex.
func SignerFromHex(s string) (*Signer, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "ledger: decoding private key")
	}
	priv := suite.Scalar()
	if err := priv.UnmarshalBinary(b); err != nil {
		return nil, errors.Wrap(err, "ledger: invalid private key")
	}
	return &Signer{pair: &key.Pair{Private: priv, Public: suite.Point().Mul(priv, nil)}}, nil
}

func (s *Signer) PrivateHex() (string, error) {
	b, err := s.pair.Private.MarshalBinary()
	if err != nil {
		return "", errors.Wrap(err, "ledger: encoding private key")
	}
	return hex.EncodeToString(b), nil
}

func (s *Signer) Public() kyber.Point {
	return s.pair.Public
}

func (s *Signer) Sign(msg []byte) ([]byte, error) {
	sig, err := schnorr.Sign(suite, s.pair.Private, msg)
	return sig, errors.Wrap(err, "ledger: signing")
}

// PublicHex encodes a public key.
func PublicHex(p kyber.Point) (string, error) {
	b, err := p.MarshalBinary()
	if err != nil {
		return "", errors.Wrap(err, "ledger: encoding public key")
	}
	return hex.EncodeToString(b), nil
}

// PublicFromHex decodes a public key written by PublicHex.
func PublicFromHex(s string) (kyber.Point, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "ledger: decoding public key")
	}
	p := suite.Point()
	if err := p.UnmarshalBinary(b); err != nil {
		return nil, errors.Wrap(err, "ledger: invalid public key")
	}
	return p, nil
}
