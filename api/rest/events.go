package rest

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"golang.org/x/net/websocket"
)

// setupEventRoutes registers the lifecycle event stream.
func (s *Server) setupEventRoutes() {
	s.app.Get("/api/v1/events", adaptor.HTTPHandler(
		websocket.Handler(func(ws *websocket.Conn) {
			s.handleEventStream(ws)
		}),
	))
}

// handleEventStream pushes orchestrator lifecycle events over a WebSocket
// until the client disconnects.
func (s *Server) handleEventStream(ws *websocket.Conn) {
	defer ws.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := s.orch.Subscribe(ctx)

	// Detect client disconnect: the read fails once the peer goes away.
	go func() {
		var discard string
		for {
			if err := websocket.Message.Receive(ws, &discard); err != nil {
				cancel()
				return
			}
		}
	}()

	for event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			continue
		}
		if err := websocket.Message.Send(ws, string(data)); err != nil {
			return
		}
	}
}
