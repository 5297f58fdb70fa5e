package handler

import (
	"errors"
	"net/http"
	"visionserver/internal/logger"
	"visionserver/internal/service"
	"visionserver/internal/service/pipeline"
)

// VideoFeedHandler streams annotated camera frames as multipart JPEG until the
// pipeline ends or the viewer disconnects.
func VideoFeedHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stream, err := manager.OpenStream()
		if errors.Is(err, service.ErrCameraBusy) {
			logger.Warning("Rejected viewer %s: %v", r.RemoteAddr, err)
			http.Error(w, "Camera is in use by another viewer", http.StatusServiceUnavailable)
			return
		}
		if err != nil {
			logger.Error("Failed to open stream: %v", err)
			http.Error(w, "Camera unavailable", http.StatusInternalServerError)
			return
		}
		defer stream.Close()

		w.Header().Set("Content-Type", pipeline.ContentType)
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		flusher, _ := w.(http.Flusher)
		ctx := r.Context()

		for chunk, err := range stream.Chunks() {
			if err != nil {
				logger.Error("Stream %d stopped: %v", stream.ID(), err)
				return
			}
			if ctx.Err() != nil {
				logger.Info("Viewer %s disconnected from stream %d", r.RemoteAddr, stream.ID())
				return
			}
			if _, err := w.Write(chunk); err != nil {
				logger.Info("Viewer %s disconnected from stream %d: %v", r.RemoteAddr, stream.ID(), err)
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}
