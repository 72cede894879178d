package game

import (
	"math/rand/v2"
)

// IntNer is the randomness source used for shuffling. *rand.Rand satisfies it.
type IntNer interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int {
	return rand.IntN(n)
}

// DefaultRand draws from the math/rand/v2 global generator.
var DefaultRand IntNer = globalRand{}

// AssignRoles deals a fresh roster: the exact role multiset from settings,
// shuffled with Fisher-Yates, ids 1..N in the shuffled order.
func AssignRoles(settings GameSettings, rng IntNer) ([]Player, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	if rng == nil {
		rng = DefaultRand
	}

	roles := make([]Role, 0, settings.TotalPlayers)
	for range settings.SpyCount {
		roles = append(roles, ROLE_SPY)
	}
	for range settings.BlankCount {
		roles = append(roles, ROLE_BLANK)
	}
	for range settings.CivilianCount() {
		roles = append(roles, ROLE_CIVILIAN)
	}

	for i := len(roles) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		roles[i], roles[j] = roles[j], roles[i]
	}

	players := make([]Player, len(roles))
	for i, role := range roles {
		players[i] = Player{
			ID:   i + 1,
			Role: role,
			Word: wordFor(role, settings.WordPair),
		}
	}

	return players, nil
}

func wordFor(role Role, pair WordPair) string {
	switch role {
	case ROLE_CIVILIAN:
		return pair.Civilian
	case ROLE_SPY:
		return pair.Spy
	default:
		return ""
	}
}
