package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	"visionserver/internal/config"
	"visionserver/internal/logger"
	"visionserver/internal/route"
	"visionserver/internal/service"
	"visionserver/internal/service/cv"
	"visionserver/internal/service/distance"
	"visionserver/internal/service/pipeline"
	"visionserver/internal/service/status"
	"visionserver/internal/service/websocket"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config     *config.Config
	logger     *logger.Logger
	status     *status.Status
	detector   *cv.DetectorService
	manager    *service.Manager
	hubService *websocket.HubService
}

func NewApp() *App {
	cfg := config.Load()
	log := logger.NewLogger(cfg)

	st := status.New(cfg.StatusInterval)
	detector := cv.NewDetectorService(cfg, log)

	openCamera := func() (pipeline.Source, error) {
		return cv.OpenCamera(cfg.CameraDevice, log)
	}
	manager := service.NewManager(openCamera, detector, cv.NewOverlay(), cv.NewEncoder(cfg.JPEGQuality), st, log,
		pipeline.WithConfidenceThreshold(cfg.ConfidenceThreshold),
		pipeline.WithEstimator(distance.Estimator{FocalLength: cfg.FocalLength, ReferenceWidth: cfg.ReferenceWidth}),
	)

	return &App{
		config:     cfg,
		logger:     log,
		status:     st,
		detector:   detector,
		manager:    manager,
		hubService: websocket.NewHubService(st, log),
	}
}

// Run serves HTTP until SIGINT/SIGTERM, then shuts down the server, the hub
// and the camera.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer a.logger.Close()

	go a.hubService.Run(ctx)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.config.Port),
		Handler:           route.SetupRoutes(a.manager, a.hubService, a.config, a.logger),
		ReadHeaderTimeout: 10 * time.Second,
		// Request contexts end with ctx so open video streams stop on shutdown.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	a.logger.Info("Object distance camera server")
	a.logger.Info("URL: http://localhost:%d", a.config.Port)
	a.logger.Info("Camera: %s", a.config.CameraDevice)
	a.logger.Info("AI Model: %s", a.config.ModelPath)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			a.manager.Close(context.Background())
			return err
		}
	case <-ctx.Done():
		a.logger.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.Warning("HTTP shutdown: %v", err)
	}
	return a.manager.Close(shutdownCtx)
}
