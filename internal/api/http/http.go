package http

import (
	"context"
	"os"
	"time"

	"who-is-spy-offline/internal/api/http/websocket"
	"who-is-spy-offline/internal/state"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

func newApp(appState *state.AppState) *iris.Application {
	app := iris.New()
	app.Logger().SetLevel(appState.Cfg.LogLevel)
	app.UseRouter(accessLog)

	// 前端目录不存在时只提供 API
	if dir := appState.Cfg.StaticDir; dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			app.HandleDir(
				"/",
				iris.Dir(dir),
				iris.DirOptions{
					IndexName: "index.html",
					SPA:       true,
					Compress:  true,
				},
			)
		} else {
			zap.L().Warn("前端目录不可用，仅提供 API", zap.String("static_dir", dir))
		}
	}

	api := app.Party("/api/v1")

	api.Get("/categories", ListCategories(appState))
	api.Get("/settings/recommended", RecommendedSettings(appState))
	api.Get("/qr", ShareQRCode(appState))

	api.Post("/sessions", CreateSession(appState))

	sessions := api.Party("/sessions")
	sessions.Get("/{id}", GetSession(appState))
	sessions.Delete("/{id}", CloseSession(appState))
	sessions.Put("/{id}/settings", UpdateSettings(appState))
	sessions.Put("/{id}/category", SelectCategory(appState))

	sessions.Post("/{id}/rounds", StartRound(appState))
	sessions.Delete("/{id}/rounds", AbandonRound(appState))
	sessions.Get("/{id}/round/card", CurrentCard(appState))
	sessions.Post("/{id}/round/actions", Act(appState))
	sessions.Get("/{id}/round/result", RoundResult(appState))

	api.Get("/ws/session", websocket.WatchSession(appState))

	return app
}

func accessLog(ctx iris.Context) {
	start := time.Now()
	ctx.Next()

	zap.L().Debug(
		"HTTP 请求",
		zap.String("method", ctx.Method()),
		zap.String("path", ctx.Path()),
		zap.Int("status", ctx.GetStatusCode()),
		zap.Duration("elapsed", time.Since(start)),
	)
}

// RunServer serves until ctx is cancelled, then shuts down gracefully.
func RunServer(ctx context.Context, appState *state.AppState) error {
	app := newApp(appState)

	go func() {
		<-ctx.Done()

		zap.L().Info("收到退出信号，关闭服务器")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := app.Shutdown(shutdownCtx); err != nil {
			zap.L().Error("关闭服务器失败", zap.Error(err))
		}
	}()

	return app.Listen(
		appState.Cfg.Addr(),
		iris.WithoutInterruptHandler,
		iris.WithoutServerError(iris.ErrServerClosed),
		iris.WithoutStartupLog,
	)
}
