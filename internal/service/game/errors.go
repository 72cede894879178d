package game

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSettings means the role counts cannot leave at least one civilian.
	ErrInvalidSettings = errors.New("invalid game settings")
	// ErrInvalidSelection means the chosen player is unknown, already out,
	// or not the one whose turn it is.
	ErrInvalidSelection = errors.New("invalid player selection")
	// ErrWrongStage means the request is not accepted by the current stage.
	ErrWrongStage = errors.New("request not accepted in current stage")
	// ErrMalformedRequest means a request wrapper could not be decoded.
	ErrMalformedRequest = errors.New("malformed request")

	ErrRoundFinished = fmt.Errorf("%w: round already finished", ErrWrongStage)
)
