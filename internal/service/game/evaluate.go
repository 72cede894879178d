package game

type OutcomeKind string

const (
	OUTCOME_ONGOING           OutcomeKind = "Ongoing"
	OUTCOME_ROUND_WON         OutcomeKind = "RoundWon"
	OUTCOME_ENTER_BLANK_GUESS OutcomeKind = "EnterBlankGuess"
)

// Outcome is the evaluator verdict. The blank-guess signal is its own kind so
// that it is never mistaken for a final blank victory.
type Outcome struct {
	Kind   OutcomeKind `json:"kind"`
	winner Winner
}

func Ongoing() Outcome {
	return Outcome{Kind: OUTCOME_ONGOING, winner: WINNER_NONE}
}

func RoundWon(w Winner) Outcome {
	return Outcome{Kind: OUTCOME_ROUND_WON, winner: w}
}

func EnterBlankGuess() Outcome {
	return Outcome{Kind: OUTCOME_ENTER_BLANK_GUESS, winner: WINNER_BLANK}
}

// Winner maps the outcome onto the flat Winner enum. EnterBlankGuess maps to
// WINNER_BLANK, which in that case is transitional.
func (o Outcome) Winner() Winner {
	if o.winner == "" {
		return WINNER_NONE
	}
	return o.winner
}

func (o Outcome) IsTerminal() bool {
	return o.Kind == OUTCOME_ROUND_WON
}

func (o Outcome) MarshalJSON() ([]byte, error) {
	return mustMarshal(struct {
		Kind   OutcomeKind `json:"kind"`
		Winner Winner      `json:"winner"`
	}{o.Kind, o.Winner()}), nil
}

// CountActive returns the per-role counts among players still in the round.
func CountActive(players []Player) (spies, blanks, civilians int) {
	for _, p := range players {
		if p.IsEliminated {
			continue
		}

		switch p.Role {
		case ROLE_SPY:
			spies++
		case ROLE_BLANK:
			blanks++
		case ROLE_CIVILIAN:
			civilians++
		}
	}

	return spies, blanks, civilians
}

// Evaluate decides whether the round is over. It is a pure function of the
// elimination flags and must be called after every elimination.
func Evaluate(players []Player) Outcome {
	spies, blanks, civilians := CountActive(players)
	active := spies + blanks + civilians

	// 卧底人数不少于其余存活玩家：卧底控制投票
	if spies > 0 && spies >= civilians+blanks {
		return RoundWon(WINNER_SPY)
	}

	if spies == 0 {
		// 卧底全部出局，只剩白板与一名平民：进入白板猜词
		if blanks > 0 && active <= 2 {
			return EnterBlankGuess()
		}

		return RoundWon(WINNER_CIVILIAN)
	}

	return Ongoing()
}

// EvaluateWinner is Evaluate flattened to the Winner enum.
func EvaluateWinner(players []Player) Winner {
	return Evaluate(players).Winner()
}
