package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/veritext/detector-service/internal/handlers"
	"github.com/veritext/detector-service/internal/services"
)

type Server struct {
	httpAddr         string
	detectionService *services.DetectionService
}

func NewServer(httpAddr string, detectionService *services.DetectionService) *Server {
	return &Server{
		httpAddr:         httpAddr,
		detectionService: detectionService,
	}
}

func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()

	detectionHandler := handlers.NewDetectionHandler(s.detectionService)
	detectionHandler.RegisterRoutes(mux)

	slog.Info("HTTP server starting",
		"addr", s.httpAddr,
		"endpoints", []string{"/v1/detect", "/v1/detect/chunks", "/healthz", "/logs", "/cachestats"})

	return http.ListenAndServe(s.httpAddr, mux)
}
