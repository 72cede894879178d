package game

// Role is the secret identity dealt to a player at round start.
type Role string

// 玩家身份
const (
	ROLE_CIVILIAN Role = "Civilian"
	ROLE_SPY      Role = "Spy"
	ROLE_BLANK    Role = "Blank" // no word at all
)

// Winner is the side that won the round. WINNER_NONE is the only
// non-terminal value.
type Winner string

const (
	WINNER_NONE     Winner = "None"
	WINNER_CIVILIAN Winner = "Civilian"
	WINNER_SPY      Winner = "Spy"
	WINNER_BLANK    Winner = "Blank"
)

type Player struct {
	// 1-based, stable for the round
	ID   int    `json:"id"`
	Role Role   `json:"role,omitempty"`
	Word string `json:"word,omitempty"`

	IsEliminated bool `json:"is_eliminated"`
	// Set together with IsEliminated so the result screen can flip the card.
	IsRevealed bool `json:"is_revealed"`
}

// Result is the terminal state of a round, kept intact for post-game display.
type Result struct {
	Winner   Winner   `json:"winner"`
	WordPair WordPair `json:"word_pair"`
	Players  []Player `json:"players"`
}

func copyPlayers(players []Player) []Player {
	out := make([]Player, len(players))
	copy(out, players)
	return out
}

// sanitizePlayer hides role and word of a player whose card is still face down.
func sanitizePlayer(p Player) Player {
	if p.IsRevealed {
		return p
	}

	return Player{
		ID:           p.ID,
		IsEliminated: p.IsEliminated,
	}
}

func buildPublicPlayersList(players []Player) []Player {
	out := make([]Player, 0, len(players))
	for _, p := range players {
		out = append(out, sanitizePlayer(p))
	}

	return out
}
