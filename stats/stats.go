// Package stats keeps the running per-player statistics updated when a game
// completes.
package stats

// PlayerStats is the record of one address. GamesPlayed only grows.
type PlayerStats struct {
	Address       string `json:"address"`
	GamesPlayed   uint64 `json:"games_played"`
	GamesWon      uint64 `json:"games_won"`
	TotalWinnings int64  `json:"total_winnings"`
	BiggestPot    int64  `json:"biggest_pot"`
	// CurrentStreak is positive for consecutive wins, negative for
	// consecutive losses.
	CurrentStreak int64 `json:"current_streak"`
}

// Result is one player's outcome of a completed game.
type Result struct {
	Player string `json:"player"`
	Won    bool   `json:"won"`
	Pot    int64  `json:"pot"`
}

// New returns the empty record of address.
func New(address string) PlayerStats {
	return PlayerStats{Address: address}
}

// Apply records one completed game.
func (s *PlayerStats) Apply(won bool, pot int64) {
	s.GamesPlayed++
	if !won {
		if s.CurrentStreak >= 0 {
			s.CurrentStreak = -1
		} else {
			s.CurrentStreak--
		}
		return
	}
	s.GamesWon++
	s.TotalWinnings += pot
	if pot > s.BiggestPot {
		s.BiggestPot = pot
	}
	if s.CurrentStreak <= 0 {
		s.CurrentStreak = 1
	} else {
		s.CurrentStreak++
	}
}

// WinRate is GamesWon over GamesPlayed, zero before the first game.
func (s PlayerStats) WinRate() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.GamesWon) / float64(s.GamesPlayed)
}
