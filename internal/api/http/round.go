package http

import (
	"who-is-spy-offline/internal/service/game"
	"who-is-spy-offline/internal/state"

	"github.com/kataras/iris/v12"
)

func StartRound(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		resp, err := appState.SessionSvc.StartRound(ctx.Request().Context(), ctx.Params().Get("id"))
		if err != nil {
			writeError(ctx, err)
			return
		}

		ctx.StatusCode(iris.StatusCreated)
		ctx.JSON(resp)
	}
}

func AbandonRound(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		if err := appState.SessionSvc.AbandonRound(ctx.Params().Get("id")); err != nil {
			writeError(ctx, err)
			return
		}

		ctx.StatusCode(iris.StatusNoContent)
	}
}

// CurrentCard shows the face-down card of the player holding the device.
func CurrentCard(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		resp, err := appState.SessionSvc.CurrentCard(ctx.Params().Get("id"))
		if err != nil {
			writeError(ctx, err)
			return
		}

		ctx.Header("Cache-Control", "no-store")
		ctx.JSON(resp)
	}
}

// Act takes the same request wrapper as the websocket channel.
func Act(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		body, err := ctx.GetBody()
		if err != nil {
			writeBadRequest(ctx)
			return
		}

		req, err := game.ParseRequest(body)
		if err != nil {
			writeError(ctx, err)
			return
		}

		resp, err := appState.SessionSvc.Act(ctx.Params().Get("id"), req)
		if err != nil {
			writeError(ctx, err)
			return
		}

		ctx.JSON(resp)
	}
}

func RoundResult(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		resp, err := appState.SessionSvc.Result(ctx.Params().Get("id"))
		if err != nil {
			writeError(ctx, err)
			return
		}

		ctx.JSON(resp)
	}
}
