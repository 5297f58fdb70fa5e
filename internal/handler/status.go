package handler

import (
	"encoding/json"
	"net/http"
	"visionserver/internal/logger"
	"visionserver/internal/service/status"
	"visionserver/internal/service/websocket"

	gorillaws "github.com/gorilla/websocket"
)

// TextFeedHandler returns the latest status text as plain text.
func TextFeedHandler(st *status.Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(st.Text()))
	}
}

// StatusHandler returns the latest status as JSON.
func StatusHandler(st *status.Status, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")
		if err := json.NewEncoder(w).Encode(st.Snapshot()); err != nil {
			logger.Error("Failed to encode status: %v", err)
		}
	}
}

// StatusWebsocketHandler registers viewers in the HubService to receive status pushes.
// Browser handshakes must come from an origin accepted by originAllowed; requests
// without an Origin header are not from a browser and are let through.
func StatusWebsocketHandler(hub *websocket.HubService, originAllowed func(*http.Request) bool, logger *logger.Logger) http.HandlerFunc {
	upgrader := gorillaws.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return r.Header.Get("Origin") == "" || originAllowed(r)
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}
		connection.SetReadLimit(512)

		hub.Register(connection)
		defer hub.Unregister(connection)

		logger.Info("Status viewer connected")

		for {
			_, _, err := connection.ReadMessage()
			if err != nil {
				if gorillaws.IsCloseError(err, gorillaws.CloseNormalClosure, gorillaws.CloseGoingAway) {
					logger.Info("Status viewer disconnected normally")
				} else {
					logger.Warning("Status viewer disconnected: %v", err)
				}
				break
			}
		}
	}
}
