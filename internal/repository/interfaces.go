package repository

import (
	"context"

	"github.com/veritext/detector-service/internal/models"
)

// Repository aggregates all repository interfaces
type Repository interface {
	Detection() DetectionRepositoryInterface
	Event() EventRepositoryInterface
}

// DetectionRepositoryInterface defines detection logging operations
type DetectionRepositoryInterface interface {
	LogDetection(ctx context.Context, log *models.DetectionLog) error
	GetDetectionLogs(ctx context.Context, limit int) ([]*models.DetectionLog, error)
}

// EventRepositoryInterface defines event logging operations
type EventRepositoryInterface interface {
	LogEvent(ctx context.Context, level, code, msg string, meta map[string]interface{}) error
}
