package http

import (
	"fmt"

	"who-is-spy-offline/internal/service"
	"who-is-spy-offline/internal/service/dto"
	"who-is-spy-offline/internal/service/game"
	"who-is-spy-offline/internal/service/words"
	"who-is-spy-offline/internal/state"

	"github.com/kataras/iris/v12"
)

func ListCategories(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		ctx.JSON(dto.CategoryListResponse{
			Categories: words.CATEGORIES,
		})
	}
}

func RecommendedSettings(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		total, err := ctx.URLParamInt("total")
		if err != nil {
			writeBadRequest(ctx)
			return
		}

		if total < game.MIN_PLAYERS || total > game.MAX_PLAYERS {
			writeError(ctx, fmt.Errorf("%w: total players must be between %d and %d", game.ErrInvalidSettings, game.MIN_PLAYERS, game.MAX_PLAYERS))
			return
		}

		ctx.JSON(service.Recommended(total))
	}
}

func CreateSession(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		var req dto.CreateSessionRequest

		// 请求体可以为空，使用默认配置
		if ctx.GetContentLength() > 0 {
			if err := ctx.ReadJSON(&req); err != nil {
				writeBadRequest(ctx)
				return
			}
		}

		resp, err := appState.SessionSvc.CreateSession(ctx.Request().Context(), req)
		if err != nil {
			writeError(ctx, err)
			return
		}

		ctx.StatusCode(iris.StatusCreated)
		ctx.JSON(resp)
	}
}

func GetSession(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		resp, err := appState.SessionSvc.GetSession(ctx.Params().Get("id"))
		if err != nil {
			writeError(ctx, err)
			return
		}

		ctx.JSON(resp)
	}
}

func CloseSession(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		if err := appState.SessionSvc.CloseSession(ctx.Params().Get("id")); err != nil {
			writeError(ctx, err)
			return
		}

		ctx.StatusCode(iris.StatusNoContent)
	}
}

func UpdateSettings(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		var req dto.UpdateSettingsRequest

		if err := ctx.ReadJSON(&req); err != nil {
			writeBadRequest(ctx)
			return
		}

		resp, err := appState.SessionSvc.UpdateSettings(ctx.Params().Get("id"), req)
		if err != nil {
			writeError(ctx, err)
			return
		}

		ctx.JSON(resp)
	}
}

func SelectCategory(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		var req dto.SelectCategoryRequest

		if err := ctx.ReadJSON(&req); err != nil {
			writeBadRequest(ctx)
			return
		}

		resp, err := appState.SessionSvc.SelectCategory(ctx.Request().Context(), ctx.Params().Get("id"), req)
		if err != nil {
			writeError(ctx, err)
			return
		}

		ctx.JSON(resp)
	}
}
