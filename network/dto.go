package network

import (
	"encoding/hex"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/luca-patrignani/zkpoker/commitment"
	"github.com/luca-patrignani/zkpoker/common"
	"github.com/luca-patrignani/zkpoker/domain/poker"
	"github.com/luca-patrignani/zkpoker/field"
	"github.com/luca-patrignani/zkpoker/ledger"
	"github.com/luca-patrignani/zkpoker/stats"
	"github.com/luca-patrignani/zkpoker/zk"
	"github.com/pkg/errors"
)

// proofRequest carries a proof either as hex or as a snarkjs object.
type proofRequest struct {
	Proof   string              `json:"proof,omitempty"`
	SnarkJS jsoniter.RawMessage `json:"snarkjs,omitempty"`
	Signals []string            `json:"signals"`
}

func (p *proofRequest) bundle() (poker.ProofBundle, error) {
	var (
		proof zk.Proof
		err   error
	)
	switch {
	case len(p.SnarkJS) > 0:
		proof, err = zk.ParseSnarkJSProof(p.SnarkJS)
	case p.Proof != "":
		var raw []byte
		raw, err = hex.DecodeString(strings.TrimPrefix(p.Proof, "0x"))
		if err == nil {
			proof, err = zk.ProofFromBytes(raw)
		}
	default:
		err = errors.New("no proof")
	}
	if err != nil {
		return poker.ProofBundle{}, errors.Wrapf(common.ErrMalformedProof, "%v", err)
	}
	signals := make(zk.PublicSignals, len(p.Signals))
	for i, s := range p.Signals {
		e, err := field.ElementFromDecimal(s)
		if err != nil {
			return poker.ProofBundle{}, errors.Wrapf(common.ErrInvalidSignal, "signal %d: %v", i, err)
		}
		signals[i] = e
	}
	return poker.ProofBundle{Proof: proof, Signals: signals}, nil
}

// proofResponse renders a bundle the way requests carry it.
func proofResponse(b poker.ProofBundle) proofRequest {
	signals := make([]string, len(b.Signals))
	for i := range b.Signals {
		signals[i] = b.Signals[i].String()
	}
	return proofRequest{Proof: hex.EncodeToString(b.Proof.Bytes()), Signals: signals}
}

type startRequest struct {
	Session         poker.SessionID          `json:"session"`
	Players         [2]string                `json:"players"`
	BuyIns          [2]int64                 `json:"buy_ins"`
	SeedCommitments [2]commitment.Commitment `json:"seed_commitments"`
	Dealer          proofRequest             `json:"dealer"`
}

func (r *startRequest) toDomain() (poker.StartRequest, error) {
	b, err := r.Dealer.bundle()
	if err != nil {
		return poker.StartRequest{}, err
	}
	return poker.StartRequest{
		Session:         r.Session,
		Players:         r.Players,
		BuyIns:          r.BuyIns,
		SeedCommitments: r.SeedCommitments,
		Dealer:          b,
	}, nil
}

type playerRequest struct {
	Player string `json:"player" binding:"required"`
}

type provenRequest struct {
	Player string       `json:"player" binding:"required"`
	Proof  proofRequest `json:"proof"`
}

type actionRequest struct {
	Player string        `json:"player" binding:"required"`
	Action string        `json:"action" binding:"required"`
	Amount int64         `json:"amount"`
	Proof  *proofRequest `json:"proof,omitempty"`
}

func (r *actionRequest) toDomain() (poker.Action, *poker.ProofBundle, error) {
	a := poker.Action{Type: poker.ActionType(strings.ToLower(r.Action)), Amount: r.Amount}
	if r.Proof == nil {
		return a, nil, nil
	}
	b, err := r.Proof.bundle()
	if err != nil {
		return a, nil, err
	}
	return a, &b, nil
}

type claimResponse struct {
	Game   *poker.GameState `json:"game"`
	Amount int64            `json:"amount"`
}

type journalResponse struct {
	Session   poker.SessionID `json:"session"`
	PublicKey string          `json:"public_key"`
	Valid     bool            `json:"valid"`
	Error     string          `json:"error,omitempty"`
	Blocks    []ledger.Block  `json:"blocks"`
}

type statsResponse struct {
	stats.PlayerStats
	WinRate float64 `json:"win_rate"`
}

type keysResponse struct {
	Installed []zk.CircuitID `json:"installed"`
}
