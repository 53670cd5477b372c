package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/luca-patrignani/zkpoker/domain/poker"
	"github.com/pkg/errors"
	"go.dedis.ch/kyber/v4"
	"go.dedis.ch/kyber/v4/sign/schnorr"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrTampered is returned by Verify and Decode when the chain does not hold
// together.
var ErrTampered = errors.New("ledger: journal tampered")

// Journal is the block chain of one session.
type Journal struct {
	mu      sync.RWMutex
	session poker.SessionID
	blocks  []Block
}

// New creates a journal holding only the genesis block of session.
func New(session poker.SessionID, now time.Time) *Journal {
	j := &Journal{session: session}
	genesis := Block{
		Index:     0,
		Timestamp: now.Unix(),
		PrevHash:  "0",
		Entry: Entry{
			Transition: genesisTransition,
			Extra:      map[string]string{"session": fmt.Sprint(session)},
		},
	}
	genesis.Hash = calculateHash(genesis)
	j.blocks = append(j.blocks, genesis)
	return j
}

func (j *Journal) Session() poker.SessionID {
	return j.session
}

// Append links e after the latest block. A nil signer leaves the block
// unsigned.
func (j *Journal) Append(e Entry, now time.Time, signer *Signer) (Block, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	latest := j.blocks[len(j.blocks)-1]
	b := Block{
		Index:     latest.Index + 1,
		Timestamp: now.Unix(),
		PrevHash:  latest.Hash,
		Entry:     e,
	}
	b.Hash = calculateHash(b)
	if signer != nil {
		sig, err := signer.Sign([]byte(b.Hash))
		if err != nil {
			return Block{}, err
		}
		b.Signature = sig
	}
	if err := validateBlock(b, latest, nil); err != nil {
		return Block{}, errors.Wrap(err, "ledger: invalid block")
	}
	j.blocks = append(j.blocks, b)
	return b, nil
}

// Latest returns the most recent block.
func (j *Journal) Latest() Block {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.blocks[len(j.blocks)-1]
}

// ByIndex returns the block at index.
func (j *Journal) ByIndex(index int) (Block, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if index < 0 || index >= len(j.blocks) {
		return Block{}, errors.Errorf("ledger: index %d out of range", index)
	}
	return j.blocks[index], nil
}

// Blocks returns a copy of the chain.
func (j *Journal) Blocks() []Block {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return append([]Block(nil), j.blocks...)
}

func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.blocks)
}

// Verify checks the genesis block and every link of the chain. When pub is
// not nil every block after the genesis must carry a valid signature by it.
func (j *Journal) Verify(pub kyber.Point) error {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return verifyChain(j.blocks, pub)
}

func verifyChain(blocks []Block, pub kyber.Point) error {
	if len(blocks) == 0 {
		return errors.Wrap(ErrTampered, "empty journal")
	}
	genesis := blocks[0]
	if genesis.Index != 0 || genesis.PrevHash != "0" || genesis.Entry.Transition != genesisTransition {
		return errors.Wrap(ErrTampered, "invalid genesis block")
	}
	if genesis.Hash != calculateHash(genesis) {
		return errors.Wrap(ErrTampered, "invalid genesis hash")
	}
	for i := 1; i < len(blocks); i++ {
		if err := validateBlock(blocks[i], blocks[i-1], pub); err != nil {
			return errors.Wrapf(err, "block %d", i)
		}
	}
	return nil
}

func validateBlock(current, previous Block, pub kyber.Point) error {
	if current.Index != previous.Index+1 {
		return errors.Wrapf(ErrTampered, "invalid index: expected %d, got %d", previous.Index+1, current.Index)
	}
	if current.PrevHash != previous.Hash {
		return errors.Wrapf(ErrTampered, "invalid prev hash: expected %s, got %s", previous.Hash, current.PrevHash)
	}
	if expected := calculateHash(current); current.Hash != expected {
		return errors.Wrapf(ErrTampered, "invalid hash: expected %s, got %s", expected, current.Hash)
	}
	if pub == nil {
		return nil
	}
	if len(current.Signature) == 0 {
		return errors.Wrap(ErrTampered, "missing signature")
	}
	if err := schnorr.Verify(suite, pub, []byte(current.Hash), current.Signature); err != nil {
		return errors.Wrapf(ErrTampered, "bad signature: %v", err)
	}
	return nil
}

// calculateHash hashes every field of the block except Hash and Signature.
func calculateHash(b Block) string {
	entry, _ := json.Marshal(b.Entry)
	data := fmt.Sprintf("%d|%d|%s|%s", b.Index, b.Timestamp, b.PrevHash, entry)
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

type encoded struct {
	Session poker.SessionID `json:"session"`
	Blocks  []Block         `json:"blocks"`
}

// Encode serialises the journal for storage.
func (j *Journal) Encode() ([]byte, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	b, err := json.Marshal(encoded{Session: j.session, Blocks: j.blocks})
	return b, errors.Wrap(err, "ledger: encoding journal")
}

// Decode restores a journal written by Encode and checks its links. Signatures
// are left to Verify.
func Decode(data []byte) (*Journal, error) {
	var e encoded
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, errors.Wrap(err, "ledger: decoding journal")
	}
	if err := verifyChain(e.Blocks, nil); err != nil {
		return nil, err
	}
	return &Journal{session: e.Session, blocks: e.Blocks}, nil
}
