package websocket

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	// 只在本机或局域网内使用
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

const (
	// 心跳间隔
	HEARTBEAT_INTERVAL = 30 * time.Second
	// 心跳超时时间
	HEARTBEAT_TIMEOUT = 45 * time.Second
	// 单次写入超时
	WRITE_TIMEOUT = 10 * time.Second

	// 单条消息上限，动作请求都很小
	MAX_MESSAGE_SIZE = 4096
)

var heartbeatHandler = func(conn *websocket.Conn) func(string) error {
	return func(string) error {
		conn.SetReadDeadline(time.Now().Add(HEARTBEAT_TIMEOUT))
		return nil
	}
}
