package game

import (
	"fmt"

	"go.uber.org/zap"
)

// RoundContext is the mutable state of one round. It is owned by a single
// Round and never handed out; accessors return copies.
type RoundContext struct {
	RoundID   string
	GameStage string
	Settings  GameSettings
	Players   []Player

	// 翻牌进度：下一个要看身份的玩家下标
	RevealIdx int
	// 投票阶段已选中但未确认的玩家
	SelectedID int

	LastEliminatedID int
	LastOutcome      *Outcome

	CivilianWordShown bool
	Winner            Winner
}

func (rc *RoundContext) findPlayer(playerID int) *Player {
	// ids are 1..N in roster order
	if playerID < 1 || playerID > len(rc.Players) {
		return nil
	}

	p := &rc.Players[playerID-1]
	if p.ID != playerID {
		return nil
	}

	return p
}

// activePlayer returns the player if it exists and is still in the round.
func (rc *RoundContext) activePlayer(playerID int) (*Player, error) {
	p := rc.findPlayer(playerID)
	if p == nil {
		return nil, fmt.Errorf("%w: no player with id %d", ErrInvalidSelection, playerID)
	}

	if p.IsEliminated {
		return nil, fmt.Errorf("%w: player %d is already eliminated", ErrInvalidSelection, playerID)
	}

	return p, nil
}

func (rc *RoundContext) CountActive() int {
	spies, blanks, civilians := CountActive(rc.Players)
	return spies + blanks + civilians
}

// eliminate flips the player out and runs the evaluator on the new roster.
func (rc *RoundContext) eliminate(playerID int) (Outcome, error) {
	p, err := rc.activePlayer(playerID)
	if err != nil {
		return Outcome{}, err
	}

	p.IsEliminated = true
	p.IsRevealed = true

	outcome := Evaluate(rc.Players)

	rc.LastEliminatedID = playerID
	rc.LastOutcome = &outcome

	zap.L().Info(
		"玩家出局",
		zap.String("round_id", rc.RoundID),
		zap.Int("player_id", playerID),
		zap.String("role", string(p.Role)),
		zap.String("outcome", string(outcome.Kind)),
		zap.String("winner", string(outcome.Winner())),
	)

	return outcome, nil
}

func (rc *RoundContext) snapshot() Snapshot {
	snap := Snapshot{
		Stage:        rc.GameStage,
		TotalPlayers: len(rc.Players),
		RevealIndex:  rc.RevealIdx,
		SelectedID:   rc.SelectedID,
		ActiveCount:  rc.CountActive(),
		Winner:       rc.Winner,
	}

	if rc.GameStage == STAGE_FINISHED {
		snap.Players = copyPlayers(rc.Players)
		snap.CivilianWord = rc.Settings.WordPair.Civilian
	} else {
		snap.Players = buildPublicPlayersList(rc.Players)
		if rc.CivilianWordShown {
			snap.CivilianWord = rc.Settings.WordPair.Civilian
		}
	}

	if rc.LastOutcome != nil {
		outcome := *rc.LastOutcome
		snap.LastOutcome = &outcome
	}

	if p := rc.findPlayer(rc.LastEliminatedID); p != nil {
		out := *p
		snap.LastOut = &out
	}

	return snap
}
