package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"stencil/internal/gateway/repository/jobstore"
)

const (
	watchWriteWait = 10 * time.Second
	watchPongWait  = 60 * time.Second
	watchPingEvery = (watchPongWait * 9) / 10
)

var watchUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// HandleWatch streams job events for one run over a websocket. The snapshot
// of already-recorded events is sent first, then live events until the run
// finishes or the client goes away.
func (s *Service) HandleWatch(w http.ResponseWriter, r *http.Request) {
	runID := strings.TrimSpace(r.URL.Query().Get("run_id"))
	if runID == "" {
		http.Error(w, "run_id is required", http.StatusBadRequest)
		return
	}

	conn, err := watchUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	snapshot, live, cancel := s.generator.Hub().Subscribe(runID)
	defer cancel()

	_ = conn.SetReadDeadline(time.Now().Add(watchPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(watchPongWait))
	})

	// Reader goroutine: we never expect inbound messages, but reading drives
	// pong handling and detects the peer closing.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	writeEvent := func(ev jobstore.Event) bool {
		if err := conn.SetWriteDeadline(time.Now().Add(watchWriteWait)); err != nil {
			return false
		}
		return conn.WriteJSON(ev) == nil
	}

	for _, ev := range snapshot {
		if !writeEvent(ev) {
			return
		}
	}

	ping := time.NewTicker(watchPingEvery)
	defer ping.Stop()
	for {
		select {
		case ev, ok := <-live:
			if !ok {
				_ = conn.SetWriteDeadline(time.Now().Add(watchWriteWait))
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "run finished"))
				return
			}
			if !writeEvent(ev) {
				return
			}
		case <-ping.C:
			if err := conn.SetWriteDeadline(time.Now().Add(watchWriteWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}
