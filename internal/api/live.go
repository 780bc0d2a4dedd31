package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/tilecity/internal/engine"
)

// LiveFrame is one message on /api/v1/live. The first frame after connecting
// has Type "hello" and no report.
type LiveFrame struct {
	Type   string                `json:"type"` // "hello" or "month"
	Status Status                `json:"status"`
	Report *engine.MonthlyReport `json:"report,omitempty"`
}

// PublishMonth pushes a month frame to every live client. Wire it to
// engine.Engine.OnMonth. Clients that fall behind miss frames.
func (s *Server) PublishMonth(rep engine.MonthlyReport) {
	b, err := json.Marshal(LiveFrame{Type: "month", Status: s.status(), Report: &rep})
	if err != nil {
		return
	}

	s.liveMu.Lock()
	defer s.liveMu.Unlock()
	for _, ch := range s.live {
		select {
		case ch <- b:
		default:
		}
	}
}

func (s *Server) joinLive() (int, chan []byte, bool) {
	s.liveMu.Lock()
	defer s.liveMu.Unlock()
	if len(s.live) >= maxLiveConns {
		return 0, nil, false
	}
	if s.live == nil {
		s.live = make(map[int]chan []byte)
	}
	s.nextLive++
	ch := make(chan []byte, 8)
	s.live[s.nextLive] = ch
	return s.nextLive, ch, true
}

func (s *Server) leaveLive(id int) {
	s.liveMu.Lock()
	defer s.liveMu.Unlock()
	delete(s.live, id)
}

// LiveClients reports how many websocket clients are connected.
func (s *Server) LiveClients() int {
	s.liveMu.Lock()
	defer s.liveMu.Unlock()
	return len(s.live)
}

// handleLive upgrades to a websocket and pushes a status frame after every
// monthly pass. Client messages are read only to notice disconnects.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	id, out, ok := s.joinLive()
	if !ok {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "server busy"), time.Now().Add(time.Second))
		return
	}
	defer s.leaveLive(id)

	hello, _ := json.Marshal(LiveFrame{Type: "hello", Status: s.status()})
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, hello); err != nil {
		return
	}
	slog.Info("live client connected", "live_id", id)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Writer goroutine.
	writeErr := make(chan error, 1)
	go func() {
		ping := time.NewTicker(30 * time.Second)
		defer ping.Stop()
		for {
			select {
			case <-ctx.Done():
				writeErr <- ctx.Err()
				return
			case b := <-out:
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					writeErr <- err
					return
				}
			case <-ping.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
					writeErr <- err
					return
				}
			}
		}
	}()

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	})
	for {
		_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	cancel()
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))

	// Best-effort wait for the writer to stop so it doesn't outlive conn.
	select {
	case <-writeErr:
	case <-time.After(500 * time.Millisecond):
	}
	slog.Info("live client disconnected", "live_id", id)
}
