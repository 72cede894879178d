package game

import (
	"fmt"
	"strings"
)

// Setup flow bounds on the table size.
const (
	MIN_PLAYERS = 3
	MAX_PLAYERS = 20
)

type WordPair struct {
	Civilian string `json:"civilian" mapstructure:"civilian"`
	Spy      string `json:"spy" mapstructure:"spy"`
}

func (wp WordPair) Valid() bool {
	return strings.TrimSpace(wp.Civilian) != "" && strings.TrimSpace(wp.Spy) != ""
}

type GameSettings struct {
	TotalPlayers int      `json:"total_players"`
	SpyCount     int      `json:"spy_count"`
	BlankCount   int      `json:"blank_count"`
	WordPair     WordPair `json:"word_pair"`
}

func (s GameSettings) CivilianCount() int {
	return s.TotalPlayers - s.SpyCount - s.BlankCount
}

// Validate checks the role-count invariant: no negative counts and at least
// one civilian. It does not enforce the setup bounds, see ValidateBounds.
func (s GameSettings) Validate() error {
	if s.SpyCount < 0 || s.BlankCount < 0 {
		return fmt.Errorf("%w: negative role count (spies=%d, blanks=%d)", ErrInvalidSettings, s.SpyCount, s.BlankCount)
	}

	if s.SpyCount+s.BlankCount >= s.TotalPlayers {
		return fmt.Errorf(
			"%w: %d spies and %d blanks leave no civilian among %d players",
			ErrInvalidSettings, s.SpyCount, s.BlankCount, s.TotalPlayers,
		)
	}

	if !s.WordPair.Valid() {
		return fmt.Errorf("%w: civilian and spy words must both be set", ErrInvalidSettings)
	}

	return nil
}

// ValidateBounds additionally enforces the table size accepted by the setup flow.
func (s GameSettings) ValidateBounds() error {
	if s.TotalPlayers < MIN_PLAYERS || s.TotalPlayers > MAX_PLAYERS {
		return fmt.Errorf("%w: total players must be between %d and %d, got %d", ErrInvalidSettings, MIN_PLAYERS, MAX_PLAYERS, s.TotalPlayers)
	}

	return s.Validate()
}

// RecommendedCounts returns the house-rule spy and blank counts for a table size.
func RecommendedCounts(total int) (spies, blanks int) {
	switch {
	case total <= 4:
		return 1, 0
	case total <= 5:
		return 1, 1
	case total <= 6:
		return 2, 0
	case total <= 8:
		return 2, 1
	case total <= 10:
		return 3, 1
	case total <= 12:
		return 3, 2
	default:
		// 13 人以上按比例
		return int(float64(total) / 3.5), total / 5
	}
}

// ClampSettings pulls manually edited counts back into range: spies never
// exceed half the table, and blanks then spies are lowered until a civilian
// remains.
func ClampSettings(s GameSettings) GameSettings {
	maxSpies := max(1, s.TotalPlayers/2)
	if s.SpyCount > maxSpies {
		s.SpyCount = maxSpies
	}

	if s.SpyCount < 0 {
		s.SpyCount = 0
	}

	if s.BlankCount < 0 {
		s.BlankCount = 0
	}

	if s.SpyCount+s.BlankCount >= s.TotalPlayers {
		s.BlankCount = max(0, s.TotalPlayers-s.SpyCount-1)
	}

	if s.SpyCount+s.BlankCount >= s.TotalPlayers {
		s.SpyCount = max(0, s.TotalPlayers-s.BlankCount-1)
	}

	return s
}
