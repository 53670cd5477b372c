package poker

import (
	"crypto/sha256"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Snapshot serializes the game state.
func Snapshot(g *GameState) ([]byte, error) {
	return json.Marshal(g)
}

// Restore rebuilds a game state from a snapshot.
func Restore(data []byte) (*GameState, error) {
	var g GameState
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, errors.Wrap(err, "restore game state")
	}
	return &g, nil
}

// Digest is the SHA-256 of the state snapshot, recorded by the journal
// after each transition.
func Digest(g *GameState) ([32]byte, error) {
	b, err := Snapshot(g)
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(b), nil
}
