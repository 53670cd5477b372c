// Package ledger keeps the audit journal of a session: an append-only chain of
// blocks, one per committed transition, each linked to its predecessor by
// hash and signed by the engine's Schnorr key.
//
// A journal records what happened, not the game itself. Every block carries
// the transition name, the caller, the phase reached, the state version and
// the digest of the resulting game snapshot, so a stored game can be checked
// against the journal with poker.Digest. Verify walks the whole chain and
// fails on the first block whose index, link, hash or signature is wrong.
package ledger
