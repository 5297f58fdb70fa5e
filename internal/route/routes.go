package route

import (
	"net/http"
	"visionserver/internal/config"
	"visionserver/internal/handler"
	"visionserver/internal/logger"
	"visionserver/internal/service"
	"visionserver/internal/service/websocket"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// SetupRoutes registers the landing page, the video and status feeds, the log
// endpoints and static files, and wraps the router with CORS handling. The
// status websocket checks handshake origins against the same policy.
func SetupRoutes(manager *service.Manager, hub *websocket.HubService, cfg *config.Config, logger *logger.Logger) http.Handler {
	router := mux.NewRouter()
	st := manager.GetStatus()
	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	})

	// Static files
	router.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDirectory))))

	router.HandleFunc("/", handler.IndexHandler(cfg, st, logger)).Methods(http.MethodGet)
	router.HandleFunc("/video_feed", handler.VideoFeedHandler(manager, logger)).Methods(http.MethodGet)
	router.HandleFunc("/text_feed", handler.TextFeedHandler(st)).Methods(http.MethodGet)

	// API endpoints
	router.HandleFunc("/api/status", handler.StatusHandler(st, logger)).Methods(http.MethodGet)
	router.HandleFunc("/ws/status", handler.StatusWebsocketHandler(hub, c.OriginAllowed, logger)).Methods(http.MethodGet)

	// Log endpoints
	router.HandleFunc("/logs/{level:info|warning|error}", handler.ShowLogsHandler(logger)).Methods(http.MethodGet)
	router.HandleFunc("/logs/{level:info|warning|error}/clear", handler.ClearLogsHandler(logger)).Methods(http.MethodPost)

	return c.Handler(router)
}
