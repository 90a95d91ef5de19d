// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package notify pushes view-invalidation events to connected websocket
// clients so OKR dashboards can refetch instead of polling.
package notify

import (
	"context"
	"net/http"
	"sync"
	"time"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/AleutianAI/AleutianOKR/services/okr/observability"
)

// InvalidationEvent tells a client that the named objectives changed and
// any cached views of them should be refetched.
type InvalidationEvent struct {
	Action       string    `json:"action"`
	ObjectiveIDs []string  `json:"objective_ids"`
	Reason       string    `json:"reason"`
	Timestamp    time.Time `json:"timestamp"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 4 * 1024,
}

// Hub fans invalidation events out to every connected websocket client.
//
// # Description
//
// The hub implements the alignment engine's Notifier interface. Events are
// fire-and-forget: a client that cannot keep up is dropped rather than
// allowed to block the engine, and a dropped client simply reconnects and
// refetches.
//
// # Thread Safety
//
// Safe for concurrent use.
type Hub struct {
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[string]chan InvalidationEvent
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:  logger,
		clients: make(map[string]chan InvalidationEvent),
	}
}

// ObjectivesInvalidated broadcasts an invalidation event to all clients.
// Implements alignment.Notifier.
func (h *Hub) ObjectivesInvalidated(_ context.Context, objectiveIDs []string, reason string) {
	event := InvalidationEvent{
		Action:       "objectives_invalidated",
		ObjectiveIDs: objectiveIDs,
		Reason:       reason,
		Timestamp:    time.Now().UTC(),
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, ch := range h.clients {
		select {
		case ch <- event:
		default:
			// Slow consumer. The writer goroutine drains the channel; a full
			// buffer means the connection is stalled, so skip it.
			h.logger.Warn("dropping invalidation event for slow client", "client_id", id)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWebSocket upgrades the request and streams invalidation events to
// the client until it disconnects.
func (h *Hub) HandleWebSocket() gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			h.logger.Error("failed to upgrade the websocket", "error", err)
			return
		}
		defer ws.Close()

		clientID := uuid.New().String()
		ch := h.register(clientID)
		defer h.unregister(clientID)

		h.logger.Info("invalidation client connected", "client_id", clientID)
		if err := ws.WriteJSON(map[string]any{
			"action":    "subscribed",
			"client_id": clientID,
		}); err != nil {
			return
		}

		// Reader goroutine only watches for the client going away; the
		// protocol is server-to-client.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := ws.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case event := <-ch:
				if err := ws.WriteJSON(event); err != nil {
					h.logger.Info("invalidation client disconnected", "client_id", clientID, "error", err.Error())
					return
				}
			case <-done:
				h.logger.Info("invalidation client disconnected", "client_id", clientID)
				return
			}
		}
	}
}

func (h *Hub) register(clientID string) chan InvalidationEvent {
	ch := make(chan InvalidationEvent, 32)
	h.mu.Lock()
	h.clients[clientID] = ch
	h.mu.Unlock()
	observability.WebsocketClients.Inc()
	return ch
}

func (h *Hub) unregister(clientID string) {
	h.mu.Lock()
	delete(h.clients, clientID)
	h.mu.Unlock()
	observability.WebsocketClients.Dec()
}
