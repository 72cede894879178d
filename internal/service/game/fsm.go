package game

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Round is the per-round state machine. It owns the roster exclusively; a new
// round is a new Round value, never a reset of an old one.
//
// Round is not safe for concurrent use. The session service serialises calls.
type Round struct {
	ctx     *RoundContext
	handler StageHandler

	createdAt time.Time
}

// NewRound validates the settings, deals the roster and enters the reveal stage.
func NewRound(settings GameSettings, rng IntNer) (*Round, error) {
	players, err := AssignRoles(settings, rng)
	if err != nil {
		return nil, err
	}

	return newRoundFromPlayers(settings, players), nil
}

func newRoundFromPlayers(settings GameSettings, players []Player) *Round {
	ctx := &RoundContext{
		RoundID:  GenID(),
		Settings: settings,
		Players:  players,
		Winner:   WINNER_NONE,
	}

	r := &Round{
		ctx:       ctx,
		handler:   NewRevealStageHandler(),
		createdAt: time.Now(),
	}

	r.handler.SetOnSwitch(r.onSwitch)
	r.handler.OnEnter(r.ctx)

	zap.L().Info(
		"新一局开始",
		zap.String("round_id", ctx.RoundID),
		zap.Int("players", settings.TotalPlayers),
		zap.Int("spies", settings.SpyCount),
		zap.Int("blanks", settings.BlankCount),
	)

	return r
}

func (r *Round) onSwitch(nextStage string) {
	r.ctx.GameStage = nextStage
}

// Handle dispatches one request to the current stage and performs the stage
// switch it asked for.
func (r *Round) Handle(req RequestWrapper) error {
	if err := r.handler.OnHandle(r.ctx, req); err != nil {
		zap.L().Debug(
			"处理请求失败",
			zap.String("round_id", r.ctx.RoundID),
			zap.String("stage", r.handler.Stage()),
			zap.String("request_type", req.ReqType),
			zap.Error(err),
		)

		return err
	}

	if r.ctx.GameStage != r.handler.Stage() {
		r.switchStage()
		r.handler.OnEnter(r.ctx)
	}

	return nil
}

func (r *Round) switchStage() {
	r.handler.OnExit(r.ctx)

	var newHandler StageHandler

	switch r.ctx.GameStage {
	case STAGE_REVEALING:
		newHandler = NewRevealStageHandler()
	case STAGE_VOTING:
		newHandler = NewVoteStageHandler()
	case STAGE_CONFIRMING:
		newHandler = NewConfirmStageHandler()
	case STAGE_BLANK_GUESS:
		newHandler = NewBlankGuessStageHandler()
	case STAGE_FINISHED:
		newHandler = NewFinishStageHandler()
	default:
		// unreachable with the handlers above
		panic(fmt.Sprintf("unknown round stage %q", r.ctx.GameStage))
	}

	newHandler.SetOnSwitch(r.onSwitch)
	r.handler = newHandler
}

func (r *Round) ID() string {
	return r.ctx.RoundID
}

func (r *Round) Stage() string {
	return r.ctx.GameStage
}

func (r *Round) IsFinished() bool {
	return r.ctx.GameStage == STAGE_FINISHED
}

func (r *Round) CreatedAt() time.Time {
	return r.createdAt
}

func (r *Round) Settings() GameSettings {
	return r.ctx.Settings
}

// Players returns a copy of the full roster, roles and words included.
func (r *Round) Players() []Player {
	return copyPlayers(r.ctx.Players)
}

func (r *Round) Snapshot() Snapshot {
	return r.ctx.snapshot()
}

// CurrentCard is the card of the player currently holding the device.
func (r *Round) CurrentCard() (Player, error) {
	if r.ctx.GameStage != STAGE_REVEALING {
		return Player{}, fmt.Errorf("%w: no card to reveal during %s", ErrWrongStage, r.ctx.GameStage)
	}

	return r.ctx.Players[r.ctx.RevealIdx], nil
}

func (r *Round) ConfirmReveal(playerID int) error {
	return r.Handle(WrapRequest(REQ_CONFIRM_REVEAL, ConfirmRevealRequest{PlayerID: playerID}))
}

func (r *Round) Select(playerID int) error {
	return r.Handle(WrapRequest(REQ_SELECT, SelectRequest{PlayerID: playerID}))
}

func (r *Round) Cancel() error {
	return r.Handle(WrapRequest(REQ_CANCEL, CancelEliminationRequest{}))
}

// Confirm eliminates the selected player and returns the evaluator verdict.
func (r *Round) Confirm() (Outcome, error) {
	if err := r.Handle(WrapRequest(REQ_CONFIRM, ConfirmEliminationRequest{})); err != nil {
		return Outcome{}, err
	}

	return *r.ctx.LastOutcome, nil
}

// Eliminate is Select followed by Confirm. It returns the flat Winner so the
// caller can branch between voting on, the blank guess and the result.
func (r *Round) Eliminate(playerID int) (Winner, error) {
	if r.ctx.GameStage != STAGE_VOTING {
		return WINNER_NONE, fmt.Errorf("%w: eliminate during %s", ErrWrongStage, r.ctx.GameStage)
	}

	if err := r.Select(playerID); err != nil {
		return WINNER_NONE, err
	}

	outcome, err := r.Confirm()
	if err != nil {
		return WINNER_NONE, err
	}

	return outcome.Winner(), nil
}

func (r *Round) RevealCivilianWord() (string, error) {
	if err := r.Handle(WrapRequest(REQ_REVEAL_WORD, RevealWordRequest{})); err != nil {
		return "", err
	}

	return r.ctx.Settings.WordPair.Civilian, nil
}

func (r *Round) ResolveBlankGuess(correct bool) (Winner, error) {
	if err := r.Handle(WrapRequest(REQ_BLANK_GUESS, BlankGuessRequest{Correct: &correct})); err != nil {
		return WINNER_NONE, err
	}

	return r.ctx.Winner, nil
}

// Result returns the terminal roster and winner.
func (r *Round) Result() (Result, error) {
	if r.ctx.GameStage != STAGE_FINISHED {
		return Result{}, fmt.Errorf("%w: round is still in %s", ErrWrongStage, r.ctx.GameStage)
	}

	return Result{
		Winner:   r.ctx.Winner,
		WordPair: r.ctx.Settings.WordPair,
		Players:  copyPlayers(r.ctx.Players),
	}, nil
}
