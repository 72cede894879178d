package game

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// 请求类型
const (
	REQ_CONFIRM_REVEAL = "ConfirmReveal"
	REQ_SELECT         = "Select"
	REQ_CONFIRM        = "Confirm"
	REQ_CANCEL         = "Cancel"
	REQ_REVEAL_WORD    = "RevealWord"
	REQ_BLANK_GUESS    = "BlankGuess"
)

type RequestWrapper struct {
	ReqType string          `json:"request_type"`
	Data    json.RawMessage `json:"data,omitempty"`

	// Set by in-process callers instead of Data.
	NativeData any `json:"-"`
}

func WrapRequest(reqType string, data any) RequestWrapper {
	return RequestWrapper{
		ReqType:    reqType,
		NativeData: data,
	}
}

// ParseRequest decodes a wrapper sent by a client and checks that its type is
// known and its payload fits that type.
func ParseRequest(msg []byte) (RequestWrapper, error) {
	var wrapper RequestWrapper

	if err := json.Unmarshal(msg, &wrapper); err != nil {
		return RequestWrapper{}, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}

	var ok bool

	switch wrapper.ReqType {
	case REQ_CONFIRM_REVEAL:
		ok = TryUnwrapConfirmRevealRequest(wrapper) != nil
	case REQ_SELECT:
		ok = TryUnwrapSelectRequest(wrapper) != nil
	case REQ_CONFIRM:
		ok = TryUnwrapConfirmRequest(wrapper) != nil
	case REQ_CANCEL:
		ok = TryUnwrapCancelRequest(wrapper) != nil
	case REQ_REVEAL_WORD:
		ok = TryUnwrapRevealWordRequest(wrapper) != nil
	case REQ_BLANK_GUESS:
		req := TryUnwrapBlankGuessRequest(wrapper)
		ok = req != nil && req.Correct != nil
	default:
		return RequestWrapper{}, fmt.Errorf("%w: unknown request type %q", ErrMalformedRequest, wrapper.ReqType)
	}

	if !ok {
		return RequestWrapper{}, fmt.Errorf("%w: bad payload for %s", ErrMalformedRequest, wrapper.ReqType)
	}

	return wrapper, nil
}

func tryUnwrap[T any](wrapper RequestWrapper, reqType string) *T {
	if wrapper.ReqType != reqType {
		return nil
	}

	switch native := wrapper.NativeData.(type) {
	case *T:
		return native
	case T:
		return &native
	}

	var req T

	if len(wrapper.Data) == 0 {
		return &req
	}

	if err := json.Unmarshal(wrapper.Data, &req); err != nil {
		zap.L().Error(
			"Failed to unwrap request",
			zap.String("request_type", reqType),
			zap.Error(err),
		)
		return nil
	}

	return &req
}

func TryUnwrapConfirmRevealRequest(wrapper RequestWrapper) *ConfirmRevealRequest {
	return tryUnwrap[ConfirmRevealRequest](wrapper, REQ_CONFIRM_REVEAL)
}

func TryUnwrapSelectRequest(wrapper RequestWrapper) *SelectRequest {
	return tryUnwrap[SelectRequest](wrapper, REQ_SELECT)
}

func TryUnwrapConfirmRequest(wrapper RequestWrapper) *ConfirmEliminationRequest {
	return tryUnwrap[ConfirmEliminationRequest](wrapper, REQ_CONFIRM)
}

func TryUnwrapCancelRequest(wrapper RequestWrapper) *CancelEliminationRequest {
	return tryUnwrap[CancelEliminationRequest](wrapper, REQ_CANCEL)
}

func TryUnwrapRevealWordRequest(wrapper RequestWrapper) *RevealWordRequest {
	return tryUnwrap[RevealWordRequest](wrapper, REQ_REVEAL_WORD)
}

func TryUnwrapBlankGuessRequest(wrapper RequestWrapper) *BlankGuessRequest {
	return tryUnwrap[BlankGuessRequest](wrapper, REQ_BLANK_GUESS)
}

// 响应类型
const (
	RESP_ERROR = "Error"

	RESP_SNAPSHOT      = "Snapshot"
	RESP_ELIMINATE     = "Eliminate"
	RESP_CIVILIAN_WORD = "CivilianWord"
	RESP_GAME_RESULT   = "GameResult"
	RESP_ROUND_CLOSED  = "RoundClosed"
)

type ResponseWrapper struct {
	RespType string `json:"response_type"`
	Data     any    `json:"data,omitempty"`
	ErrMsg   string `json:"error_message,omitempty"`
}

func WrapResponse(respType string, data any) ResponseWrapper {
	return ResponseWrapper{
		RespType: respType,
		Data:     data,
	}
}

func WrapErrResponse(errMsg string) ResponseWrapper {
	return ResponseWrapper{
		RespType: RESP_ERROR,
		ErrMsg:   errMsg,
	}
}
