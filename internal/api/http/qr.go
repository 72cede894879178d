package http

import (
	"net/url"
	"strings"

	"who-is-spy-offline/internal/state"

	"github.com/kataras/iris/v12"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const qrSize = 256

// shareURL is the page the QR code opens: the configured public url, or the
// address this request came in on.
func shareURL(ctx iris.Context, publicURL, sessionID string) string {
	base := strings.TrimRight(publicURL, "/")

	if base == "" {
		scheme := "http"
		if ctx.Request().TLS != nil {
			scheme = "https"
		}
		if proto := ctx.GetHeader("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		base = scheme + "://" + ctx.Host()
	}

	if sessionID == "" {
		return base + "/"
	}

	return base + "/?session=" + url.QueryEscape(sessionID)
}

// ShareQRCode renders a PNG QR code pointing a second screen at the same
// session, e.g. a TV showing the board.
func ShareQRCode(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		sessionID := ctx.URLParam("session_id")

		if sessionID != "" {
			if _, err := appState.SessionSvc.GetSession(sessionID); err != nil {
				writeError(ctx, err)
				return
			}
		}

		target := shareURL(ctx, appState.Cfg.PublicURL, sessionID)

		png, err := qrcode.Encode(target, qrcode.Medium, qrSize)
		if err != nil {
			zap.L().Error("生成二维码失败", zap.String("url", target), zap.Error(err))
			ctx.StatusCode(iris.StatusInternalServerError)
			ctx.JSON(iris.Map{
				"error": "生成二维码失败",
			})
			return
		}

		ctx.ContentType("image/png")
		ctx.Write(png)
	}
}
