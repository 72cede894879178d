package http

import (
	"errors"

	"who-is-spy-offline/internal/service"
	"who-is-spy-offline/internal/service/game"
	"who-is-spy-offline/internal/service/words"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return iris.StatusNotFound
	case errors.Is(err, game.ErrWrongStage),
		errors.Is(err, service.ErrNoActiveRound):
		return iris.StatusConflict
	case errors.Is(err, game.ErrInvalidSettings),
		errors.Is(err, game.ErrInvalidSelection),
		errors.Is(err, game.ErrMalformedRequest),
		errors.Is(err, service.ErrUnknownCategory):
		return iris.StatusBadRequest
	case errors.Is(err, words.ErrWordSourceUnavailable):
		return iris.StatusBadGateway
	default:
		return iris.StatusInternalServerError
	}
}

func writeError(ctx iris.Context, err error) {
	status := statusOf(err)

	if status == iris.StatusInternalServerError {
		zap.L().Error("处理请求失败", zap.String("path", ctx.Path()), zap.Error(err))
	}

	ctx.StatusCode(status)
	ctx.JSON(iris.Map{
		"error": err.Error(),
	})
}

func writeBadRequest(ctx iris.Context) {
	ctx.StatusCode(iris.StatusBadRequest)
	ctx.JSON(iris.Map{
		"error": "请求参数无效",
	})
}
