package ledger

// Block is one journal entry linked to the previous block by PrevHash.
type Block struct {
	Index     int    `json:"index"`
	Timestamp int64  `json:"timestamp"`
	PrevHash  string `json:"prev_hash"`
	Hash      string `json:"hash"`
	Entry     Entry  `json:"entry"`
	// Signature is the Schnorr signature of Hash. The genesis block is
	// never signed.
	Signature []byte `json:"signature,omitempty"`
}

// Entry describes a committed transition.
type Entry struct {
	Transition string `json:"transition"`
	Actor      string `json:"actor,omitempty"`
	Phase      string `json:"phase"`
	Version    uint64 `json:"version"`
	// State is the hex digest of the game snapshot after the transition.
	State string `json:"state,omitempty"`
	// Proof is the fingerprint of the proof that drove the transition.
	Proof string            `json:"proof,omitempty"`
	Extra map[string]string `json:"extra,omitempty"`
}

const genesisTransition = "genesis"
