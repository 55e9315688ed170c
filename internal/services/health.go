package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/veritext/detector-service/internal/cache"
	"github.com/veritext/detector-service/internal/config"
)

type HealthService struct {
	nats      *nats.Conn
	config    *config.Config
	detection *DetectionService
}

type HealthStatus struct {
	ModelName    string      `json:"model_name"`
	State        string      `json:"state"` // loading, ready, failed
	Reason       string      `json:"reason,omitempty"`
	ModelVersion string      `json:"model_version,omitempty"`
	LastActivity time.Time   `json:"last_activity"`
	Cache        cache.Stats `json:"cache"`
	Endpoint     string      `json:"endpoint"`
	NATSTopic    string      `json:"nats_topic"`
	Version      string      `json:"version"`
}

func NewHealthService(natsConn *nats.Conn, cfg *config.Config, detection *DetectionService) *HealthService {
	return &HealthService{
		nats:      natsConn,
		config:    cfg,
		detection: detection,
	}
}

func (h *HealthService) Start(ctx context.Context) error {
	// Subscribe to health check requests for this detector
	healthTopic := fmt.Sprintf("detectors.%s.health", h.config.ModelName)

	_, err := h.nats.Subscribe(healthTopic, func(msg *nats.Msg) {
		status := h.getHealthStatus()

		statusData, err := json.Marshal(status)
		if err != nil {
			slog.Error("Failed to marshal health status", "error", err)
			return
		}

		// Requests carry the reply subject in the payload; fall back to the
		// NATS reply for plain request/reply callers.
		var req struct {
			ReplyTo string `json:"reply_to"`
		}
		_ = json.Unmarshal(msg.Data, &req)

		if req.ReplyTo != "" {
			if err := h.nats.Publish(req.ReplyTo, statusData); err != nil {
				slog.Error("Failed to publish health response", "error", err)
			}
			return
		}
		if err := msg.Respond(statusData); err != nil {
			slog.Error("Failed to respond to health check", "error", err)
		}
	})

	if err != nil {
		return fmt.Errorf("failed to subscribe to health topic: %w", err)
	}

	slog.Info("Health service started", "topic", healthTopic)

	// Publish periodic heartbeats
	go h.publishHeartbeats(ctx)

	return nil
}

func (h *HealthService) publishHeartbeats(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	heartbeatTopic := fmt.Sprintf("detectors.%s.heartbeat", h.config.ModelName)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			status := h.getHealthStatus()
			statusData, err := json.Marshal(status)
			if err != nil {
				continue
			}

			if err := h.nats.Publish(heartbeatTopic, statusData); err != nil {
				slog.Warn("Failed to publish heartbeat", "error", err)
			}
		}
	}
}

func (h *HealthService) getHealthStatus() HealthStatus {
	gw := h.detection.HealthCheck()

	status := HealthStatus{
		ModelName:    h.config.ModelName,
		State:        string(gw.State),
		Reason:       gw.Reason,
		LastActivity: time.Now(),
		Cache:        h.detection.CacheStats(),
		Endpoint:     fmt.Sprintf("http://localhost%s", h.config.HTTPAddr),
		NATSTopic:    h.config.Subject,
		Version:      "1.0.0",
	}
	if info, ok := h.detection.ModelInfo(); ok {
		status.ModelVersion = info.Version
	}
	return status
}
