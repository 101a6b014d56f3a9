package serve

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"tradepulse/internal/filecache"
	"tradepulse/internal/snapshot"
)

const writeWait = 5 * time.Second

// handleTradeStream pushes the recent trades artifact whenever its version
// changes. The client never needs to send anything.
func (s *Server) handleTradeStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// drain reads so close frames and disconnects are noticed
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.pushInterval)
	defer ticker.Stop()

	var last filecache.Version
	for {
		data, version := s.reader.GetVersioned(snapshot.RecentTrades)
		if version != last && data != nil {
			payload, err := json.Marshal(data)
			if err != nil {
				s.logger.Error("encode stream payload", zap.Error(err))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				s.logger.Debug("websocket client gone", zap.Error(err))
				return
			}
			last = version
		}

		select {
		case <-gone:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}
