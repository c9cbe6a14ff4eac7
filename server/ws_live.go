package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"GuessFM/logger"
)

var liveUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// livePushInterval 是进度推送的间隔
const livePushInterval = 2 * time.Second

// LiveHandler 通过WebSocket周期性推送会话进度
// 供旁观端或前端记分板使用；会话注销后连接随之关闭
func (h *APIHandler) LiveHandler(w http.ResponseWriter, r *http.Request) {
	_, token, ok := h.sessionFromRequest(r)
	if !ok {
		http.Error(w, "No active session", http.StatusForbidden)
		return
	}

	conn, err := liveUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("WebSocket升级失败", logger.ErrorField(err))
		return
	}
	defer conn.Close()

	logger.Debug("进度推送连接建立", logger.String("token", token[:8]))

	// 读协程只用于感知客户端断开
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(livePushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			session, ok := h.registry.Get(token)
			if !ok {
				// 会话已注销，通知客户端后关闭
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
					time.Now().Add(time.Second))
				return
			}

			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(session.Summarize()); err != nil {
				logger.Debug("进度推送失败，连接关闭",
					logger.String("token", token[:8]),
					logger.ErrorField(err))
				return
			}
		}
	}
}
