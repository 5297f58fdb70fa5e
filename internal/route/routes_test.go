package route

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"visionserver/internal/config"
	"visionserver/internal/logger"
	"visionserver/internal/service"
	"visionserver/internal/service/pipeline"
	"visionserver/internal/service/status"
	"visionserver/internal/service/websocket"

	gorillaws "github.com/gorilla/websocket"
)

func setupRouter(t *testing.T) http.Handler {
	router, _ := setupRouterWithHub(t)
	return router
}

func setupRouterWithHub(t *testing.T) (http.Handler, *websocket.HubService) {
	t.Helper()

	st := status.New(status.DefaultInterval)
	opener := func() (pipeline.Source, error) { return nil, io.ErrUnexpectedEOF }
	manager := service.NewManager(opener, nil, nil, nil, st, logger.Discard())
	hub := websocket.NewHubService(st, logger.Discard())
	cfg := &config.Config{StaticDirectory: t.TempDir(), AllowedOrigins: []string{"http://dashboard.local"}}

	return SetupRoutes(manager, hub, cfg, logger.Discard()), hub
}

func TestSetupRoutes(t *testing.T) {
	router := setupRouter(t)

	tests := []struct {
		method   string
		path     string
		expected int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/text_feed", http.StatusOK},
		{http.MethodGet, "/api/status", http.StatusOK},
		{http.MethodPost, "/text_feed", http.StatusMethodNotAllowed},
		{http.MethodGet, "/video_feed", http.StatusInternalServerError}, // camera cannot be opened
		{http.MethodGet, "/logs/debug", http.StatusNotFound},
		{http.MethodGet, "/logs/info", http.StatusNotFound}, // discarding logger has no files
		{http.MethodGet, "/missing", http.StatusNotFound},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		if rec.Code != tt.expected {
			t.Errorf("%s %s = %d, expected %d", tt.method, tt.path, rec.Code, tt.expected)
		}
	}
}

func TestSetupRoutes_CORS(t *testing.T) {
	router := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/text_feed", nil)
	req.Header.Set("Origin", "http://dashboard.local")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://dashboard.local" {
		t.Errorf("Expected allowed origin header, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/text_feed", nil)
	req.Header.Set("Origin", "http://elsewhere.local")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Expected no CORS header for unknown origin, got %q", got)
	}
}

func TestSetupRoutes_WebsocketOrigins(t *testing.T) {
	router, hub := setupRouterWithHub(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	server := httptest.NewServer(router)
	defer server.Close()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/status"

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"http://dashboard.local", true},
		{"", true}, // non-browser client
		{"http://elsewhere.local", false},
	}

	for _, tt := range tests {
		header := http.Header{}
		if tt.origin != "" {
			header.Set("Origin", tt.origin)
		}

		conn, resp, err := gorillaws.DefaultDialer.Dial(url, header)
		if !tt.allowed {
			if err == nil {
				conn.Close()
				t.Errorf("Origin %q: expected handshake to be rejected", tt.origin)
				continue
			}
			if resp == nil || resp.StatusCode != http.StatusForbidden {
				t.Errorf("Origin %q: expected 403, got %v", tt.origin, resp)
			}
			continue
		}

		if err != nil {
			t.Errorf("Origin %q: dial failed: %v", tt.origin, err)
			continue
		}
		var snapshot map[string]any
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		if err := conn.ReadJSON(&snapshot); err != nil {
			t.Errorf("Origin %q: expected a status snapshot, got %v", tt.origin, err)
		}
		conn.Close()
	}
}
