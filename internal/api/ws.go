package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/akimenko/graphflow/internal/events"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// API доступен браузерным редакторам с других origin
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	wsWriteTimeout = 10 * time.Second

	// wsSendBuffer — ёмкость очереди исходящих событий.
	// Медленный клиент, не выбирающий очередь, отключается.
	wsSendBuffer = 256
)

// wsStreamedTypes — события, транслируемые WebSocket-клиентам.
var wsStreamedTypes = []events.Type{
	events.ExecutionStarted,
	events.ExecutionNodeStarted,
	events.ExecutionNodeCompleted,
	events.ExecutionNodeSkipped,
	events.ExecutionNodeError,
	events.ExecutionProgress,
	events.ExecutionCompleted,
	events.ExecutionCancelled,
	events.ExecutionPaused,
	events.ExecutionResumed,
	events.WorkflowSaved,
}

// ServeWS транслирует события исполнения по WebSocket.
// GET /api/v1/ws
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	send := make(chan events.Event, wsSendBuffer)

	subID := h.bus.SubscribeWith(wsStreamedTypes, func(ev events.Event) {
		select {
		case send <- ev:
		default:
			// Очередь переполнена: клиент не успевает, соединение закроется
		}
	}, events.SubscribeOptions{})

	h.logger.Info("websocket client connected", "remote_addr", r.RemoteAddr)

	done := make(chan struct{})

	// Читатель нужен только для обнаружения закрытия со стороны клиента
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer func() {
		h.bus.Unsubscribe(subID)
		conn.Close()
		h.logger.Info("websocket client disconnected", "remote_addr", r.RemoteAddr)
	}()

	for {
		select {
		case <-done:
			return
		case ev := <-send:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}
}
