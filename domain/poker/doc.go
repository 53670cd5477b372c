// Package poker implements the domain logic of a heads-up Texas Hold'em hand
// whose hidden information is handled by commitments and zero-knowledge
// proofs.
//
// # Core Types
//
// GameState: the complete state of one hand, with both seats, the pot, the
// phase and every commitment the players made.
//
// Manager: applies the transitions. Each transition checks the phase, the
// caller, the shape and content of the public signals and finally the proof,
// then returns a new GameState. A failed transition returns an error and
// leaves its input untouched.
//
// Card: a playing card with suit and rank.
//
// Action: a player's move (fold, check, call, bet, raise, all-in).
//
// # Game Flow
//
// Setup → Blinds → Shuffle → Deal → Preflop → Flop → Turn → River → Showdown → Complete.
// A fold, or a turn left to expire, ends the hand from any betting phase.
// Flop, Turn and River open with a community reveal before betting resumes.
//
// # Hand Evaluation
//
// Evaluate picks the best five of seven cards. Its packed Score is the value
// the showdown circuit compares, so both sides agree on the winner.
package poker
