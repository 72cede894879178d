package websocket

import (
	"time"

	"who-is-spy-offline/internal/service/game"
	"who-is-spy-offline/internal/state"

	"github.com/gorilla/websocket"
	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

// WatchSession streams round events of one session and accepts facilitator
// actions in the same wrapper format as the HTTP action endpoint.
func WatchSession(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		sessionID := ctx.URLParam("session_id")

		// 升级前先确认会话存在，失败时还能返回普通 HTTP 错误
		session, err := appState.SessionSvc.GetSession(sessionID)
		if err != nil {
			ctx.StatusCode(iris.StatusNotFound)
			ctx.JSON(iris.Map{
				"error": err.Error(),
			})
			return
		}

		events, unsubscribe, err := appState.SessionSvc.Subscribe(sessionID)
		if err != nil {
			ctx.StatusCode(iris.StatusNotFound)
			ctx.JSON(iris.Map{
				"error": err.Error(),
			})
			return
		}
		defer unsubscribe()

		conn, err := upgrader.Upgrade(
			ctx.ResponseWriter(),
			ctx.Request(),
			nil,
		)
		if err != nil {
			zap.L().Error("升级到WebSocket失败", zap.Error(err))
			return
		}

		defer conn.Close()

		clientIP := ctx.RemoteAddr()

		conn.SetReadLimit(MAX_MESSAGE_SIZE)
		conn.SetReadDeadline(time.Now().Add(HEARTBEAT_TIMEOUT))
		conn.SetPongHandler(heartbeatHandler(conn))

		// 只发给当前连接的响应（错误提示、首个快照）
		replyCh := make(chan game.ResponseWrapper, 16)

		if session.Round != nil {
			replyCh <- game.WrapResponse(game.RESP_SNAPSHOT, *session.Round)
		}

		zap.L().Info(
			"WebSocket 连接已建立",
			zap.String("client_ip", clientIP),
			zap.String("session_id", sessionID),
		)

		// 写协程的退出信号
		writeDoneCh := make(chan struct{})
		defer close(writeDoneCh)

		go writeLoop(conn, clientIP, sessionID, events, replyCh, writeDoneCh)

		// 读取协程（主协程）
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(
					err,
					websocket.CloseGoingAway,
					websocket.CloseNormalClosure,
				) {
					zap.L().Error(
						"读取消息失败",
						zap.String("client_ip", clientIP),
						zap.Error(err),
					)
				}

				break
			}

			req, err := game.ParseRequest(msg)
			if err != nil {
				zap.L().Debug(
					"解析消息失败",
					zap.String("client_ip", clientIP),
					zap.Error(err),
				)

				reply(replyCh, game.WrapErrResponse(err.Error()))
				continue
			}

			// 成功时状态变化通过订阅通道广播给所有连接
			if _, err := appState.SessionSvc.Act(sessionID, req); err != nil {
				reply(replyCh, game.WrapErrResponse(err.Error()))
			}
		}

		zap.L().Info(
			"WebSocket 连接处理完成",
			zap.String("client_ip", clientIP),
			zap.String("session_id", sessionID),
		)
	}
}

func reply(replyCh chan<- game.ResponseWrapper, resp game.ResponseWrapper) {
	select {
	case replyCh <- resp:
	default:
		zap.L().Warn("响应通道已满，丢弃响应", zap.String("response_type", resp.RespType))
	}
}

func writeLoop(
	conn *websocket.Conn,
	clientIP string,
	sessionID string,
	events <-chan game.ResponseWrapper,
	replyCh <-chan game.ResponseWrapper,
	doneCh <-chan struct{},
) {
	ticker := time.NewTicker(HEARTBEAT_INTERVAL)
	defer ticker.Stop()

	write := func(resp game.ResponseWrapper) bool {
		conn.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT))

		if err := conn.WriteJSON(resp); err != nil {
			zap.L().Error(
				"发送消息失败",
				zap.String("client_ip", clientIP),
				zap.Error(err),
			)
			return false
		}

		zap.L().Debug(
			"发送消息",
			zap.String("client_ip", clientIP),
			zap.String("response_type", resp.RespType),
		)

		return true
	}

	for {
		select {
		case <-doneCh:
			return

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT))

			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				zap.L().Error(
					"发送心跳失败",
					zap.String("client_ip", clientIP),
					zap.Error(err),
				)
				return
			}

		case resp := <-replyCh:
			if !write(resp) {
				return
			}

		case resp, ok := <-events:
			// 会话被关闭或超时清理
			if !ok {
				zap.L().Info(
					"会话已结束，关闭连接",
					zap.String("session_id", sessionID),
				)

				conn.WriteControl(
					websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
					time.Now().Add(WRITE_TIMEOUT),
				)
				return
			}

			if !write(resp) {
				return
			}
		}
	}
}
