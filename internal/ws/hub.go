// Package ws pushes ranking updates to connected dashboard clients.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"dominoleague/internal/domain"
)

const (
	messageTypeRankings = "rankings"
	messageTypePing     = "ping"
	messageTypePong     = "pong"
)

type message struct {
	Type      string               `json:"type"`
	Entries   []domain.RankingEntry `json:"entries,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}

// Hub tracks connected clients and fans ranking updates out to them. All
// client bookkeeping happens on the Run goroutine.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(logger *slog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			h.logger.Debug("ws client connected", "client_id", client.id)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.logger.Debug("ws client disconnected", "client_id", client.id)

		case payload := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- payload:
				default:
					h.logger.Warn("ws client buffer full, skipping", "client_id", client.id)
				}
			}
		}
	}
}

func (h *Hub) Stop() {
	h.cancel()
}

// add hands a client to the Run loop. It reports false when the hub has
// already stopped, so callers never block on a dead loop.
func (h *Hub) add(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.ctx.Done():
		return false
	}
}

func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.ctx.Done():
	}
}

// BroadcastRankings queues the current standings for every connected client.
// A full broadcast queue drops the update; the next completion resends it.
func (h *Hub) BroadcastRankings(entries []domain.RankingEntry) {
	payload, err := json.Marshal(message{
		Type:      messageTypeRankings,
		Entries:   entries,
		Timestamp: time.Now(),
	})
	if err != nil {
		h.logger.Error("ws encode rankings failed", "err", err)
		return
	}

	select {
	case h.broadcast <- payload:
	default:
		h.logger.Warn("ws broadcast queue full, dropping update")
	}
}
