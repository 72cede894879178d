package game

import (
	"fmt"

	"go.uber.org/zap"
)

// 一局游戏分为以下阶段：
// 1. 翻牌阶段（Revealing）：设备依次传给每位玩家，逐个查看自己的身份和词语
// 2. 投票阶段（Voting）：主持人选择一名存活玩家
// 3. 确认阶段（Confirming）：确认或取消淘汰，确认后立即判定胜负
// 4. 白板猜词阶段（BlankGuess）：卧底全灭且只剩白板与一名平民时进入
// 5. 结束阶段（Finished）：不可变，保留完整名单与胜利方
const (
	STAGE_REVEALING   = "Revealing"
	STAGE_VOTING      = "Voting"
	STAGE_CONFIRMING  = "Confirming"
	STAGE_BLANK_GUESS = "BlankGuess"
	STAGE_FINISHED    = "Finished"
)

// StageHandler validates a request against the current stage before mutating
// anything. A rejected request leaves the context untouched.
type StageHandler interface {
	Stage() string

	OnEnter(ctx *RoundContext)
	OnHandle(ctx *RoundContext, req RequestWrapper) error
	OnExit(ctx *RoundContext)

	SetOnSwitch(func(nextStage string))
}

func rejectRequest(ctx *RoundContext, req RequestWrapper) error {
	return fmt.Errorf("%w: %s during %s", ErrWrongStage, req.ReqType, ctx.GameStage)
}

// 翻牌阶段处理器
type revealStageHandler struct {
	onSwitch func(string)
}

func NewRevealStageHandler() *revealStageHandler {
	return &revealStageHandler{}
}

func (rsh *revealStageHandler) Stage() string {
	return STAGE_REVEALING
}

func (rsh *revealStageHandler) OnEnter(ctx *RoundContext) {
	ctx.GameStage = STAGE_REVEALING
	ctx.RevealIdx = 0
}

func (rsh *revealStageHandler) OnHandle(ctx *RoundContext, req RequestWrapper) error {
	if req := TryUnwrapConfirmRevealRequest(req); req != nil {
		current := ctx.Players[ctx.RevealIdx]

		// 只能由当前持有设备的玩家确认，不允许跳过或提前查看
		if req.PlayerID != current.ID {
			return fmt.Errorf(
				"%w: player %d is holding the device, not %d",
				ErrInvalidSelection, current.ID, req.PlayerID,
			)
		}

		ctx.RevealIdx++

		zap.L().Debug(
			"玩家已确认身份",
			zap.String("round_id", ctx.RoundID),
			zap.Int("player_id", current.ID),
		)

		if ctx.RevealIdx >= len(ctx.Players) {
			rsh.onSwitch(STAGE_VOTING)
		}

		return nil
	}

	return rejectRequest(ctx, req)
}

func (rsh *revealStageHandler) OnExit(ctx *RoundContext) {
}

func (rsh *revealStageHandler) SetOnSwitch(onSwitch func(string)) {
	rsh.onSwitch = onSwitch
}

// 投票阶段处理器
type voteStageHandler struct {
	onSwitch func(string)
}

func NewVoteStageHandler() *voteStageHandler {
	return &voteStageHandler{}
}

func (vsh *voteStageHandler) Stage() string {
	return STAGE_VOTING
}

func (vsh *voteStageHandler) OnEnter(ctx *RoundContext) {
	ctx.SelectedID = 0
}

func (vsh *voteStageHandler) OnHandle(ctx *RoundContext, req RequestWrapper) error {
	if req := TryUnwrapSelectRequest(req); req != nil {
		if _, err := ctx.activePlayer(req.PlayerID); err != nil {
			return err
		}

		ctx.SelectedID = req.PlayerID
		vsh.onSwitch(STAGE_CONFIRMING)

		return nil
	}

	return rejectRequest(ctx, req)
}

func (vsh *voteStageHandler) OnExit(ctx *RoundContext) {
}

func (vsh *voteStageHandler) SetOnSwitch(onSwitch func(string)) {
	vsh.onSwitch = onSwitch
}

// 确认淘汰处理器
type confirmStageHandler struct {
	onSwitch func(string)
}

func NewConfirmStageHandler() *confirmStageHandler {
	return &confirmStageHandler{}
}

func (csh *confirmStageHandler) Stage() string {
	return STAGE_CONFIRMING
}

func (csh *confirmStageHandler) OnEnter(ctx *RoundContext) {
}

func (csh *confirmStageHandler) OnHandle(ctx *RoundContext, req RequestWrapper) error {
	if req := TryUnwrapCancelRequest(req); req != nil {
		// 取消：回到选人，不改变任何状态
		csh.onSwitch(STAGE_VOTING)
		return nil
	}

	if req := TryUnwrapConfirmRequest(req); req != nil {
		outcome, err := ctx.eliminate(ctx.SelectedID)
		if err != nil {
			return err
		}

		switch outcome.Kind {
		case OUTCOME_ROUND_WON:
			ctx.Winner = outcome.Winner()
			csh.onSwitch(STAGE_FINISHED)
		case OUTCOME_ENTER_BLANK_GUESS:
			csh.onSwitch(STAGE_BLANK_GUESS)
		default:
			csh.onSwitch(STAGE_VOTING)
		}

		return nil
	}

	return rejectRequest(ctx, req)
}

func (csh *confirmStageHandler) OnExit(ctx *RoundContext) {
	ctx.SelectedID = 0
}

func (csh *confirmStageHandler) SetOnSwitch(onSwitch func(string)) {
	csh.onSwitch = onSwitch
}

// 白板猜词处理器
type blankGuessStageHandler struct {
	onSwitch func(string)
}

func NewBlankGuessStageHandler() *blankGuessStageHandler {
	return &blankGuessStageHandler{}
}

func (bsh *blankGuessStageHandler) Stage() string {
	return STAGE_BLANK_GUESS
}

func (bsh *blankGuessStageHandler) OnEnter(ctx *RoundContext) {
	ctx.CivilianWordShown = false
}

func (bsh *blankGuessStageHandler) OnHandle(ctx *RoundContext, req RequestWrapper) error {
	if req := TryUnwrapRevealWordRequest(req); req != nil {
		ctx.CivilianWordShown = true
		return nil
	}

	if req := TryUnwrapBlankGuessRequest(req); req != nil {
		if req.Correct == nil {
			return fmt.Errorf("%w: blank guess verdict is missing", ErrMalformedRequest)
		}

		// 由主持人裁定，引擎不做判断
		if *req.Correct {
			ctx.Winner = WINNER_BLANK
		} else {
			ctx.Winner = WINNER_CIVILIAN
		}

		bsh.onSwitch(STAGE_FINISHED)

		return nil
	}

	return rejectRequest(ctx, req)
}

func (bsh *blankGuessStageHandler) OnExit(ctx *RoundContext) {
}

func (bsh *blankGuessStageHandler) SetOnSwitch(onSwitch func(string)) {
	bsh.onSwitch = onSwitch
}

// 结束阶段处理器
type finishStageHandler struct {
	onSwitch func(string)
}

func NewFinishStageHandler() *finishStageHandler {
	return &finishStageHandler{}
}

func (fsh *finishStageHandler) Stage() string {
	return STAGE_FINISHED
}

func (fsh *finishStageHandler) OnEnter(ctx *RoundContext) {
	ctx.GameStage = STAGE_FINISHED

	zap.L().Info(
		"本局结束",
		zap.String("round_id", ctx.RoundID),
		zap.String("winner", string(ctx.Winner)),
		zap.Int("active_players", ctx.CountActive()),
	)
}

func (fsh *finishStageHandler) OnHandle(ctx *RoundContext, req RequestWrapper) error {
	return fmt.Errorf("%w (%s)", ErrRoundFinished, req.ReqType)
}

func (fsh *finishStageHandler) OnExit(ctx *RoundContext) {
	// 结束阶段不可离开
	ctx.GameStage = STAGE_FINISHED
}

func (fsh *finishStageHandler) SetOnSwitch(onSwitch func(string)) {
	fsh.onSwitch = onSwitch
}
