package websocket

import (
	"context"
	"sync"
	"time"
	"visionserver/internal/dto"
	"visionserver/internal/logger"
	"visionserver/internal/service/status"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

// HubService pushes status snapshots to every connected viewer.
type HubService struct {
	clients    map[*websocket.Conn]bool
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	status     *status.Status
	mutex      sync.RWMutex
	logger     *logger.Logger
}

func NewHubService(st *status.Status, logger *logger.Logger) *HubService {
	return &HubService{
		clients:    make(map[*websocket.Conn]bool),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		status:     st,
		logger:     logger,
	}
}

// Run serves registrations and status updates until ctx is cancelled.
func (h *HubService) Run(ctx context.Context) {
	updates, cancel := h.status.Subscribe()
	defer cancel()
	defer close(h.done)
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			h.logger.Info("Client connected. Total: %d", h.GetClientCount())
			h.send(client, h.status.Snapshot())

		case client := <-h.unregister:
			h.remove(client)
			h.logger.Info("Client disconnected. Total: %d", h.GetClientCount())

		case snapshot, ok := <-updates:
			if !ok {
				return
			}
			h.mutex.RLock()
			clients := make([]*websocket.Conn, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mutex.RUnlock()

			for _, client := range clients {
				h.send(client, snapshot)
			}
		}
	}
}

// send writes one snapshot; a client that cannot keep up is dropped.
func (h *HubService) send(client *websocket.Conn, snapshot dto.StatusSnapshot) {
	client.SetWriteDeadline(time.Now().Add(writeWait))
	if err := client.WriteJSON(snapshot); err != nil {
		h.logger.Error("Error sending message: %v", err)
		h.remove(client)
	}
}

func (h *HubService) remove(client *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		client.Close()
	}
}

func (h *HubService) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for client := range h.clients {
		client.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		client.Close()
		delete(h.clients, client)
	}
}

// Register adds a viewer. When the hub is no longer running the connection is closed.
func (h *HubService) Register(client *websocket.Conn) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

func (h *HubService) Unregister(client *websocket.Conn) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
