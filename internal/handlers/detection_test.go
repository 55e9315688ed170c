package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/veritext/detector-service/internal/cache"
	"github.com/veritext/detector-service/internal/classifier"
	"github.com/veritext/detector-service/internal/models"
	"github.com/veritext/detector-service/internal/repository"
	"github.com/veritext/detector-service/internal/services"
)

// captureRepo records the limit passed to GetDetectionLogs.
type captureRepo struct {
	lastLimit int
}

func (r *captureRepo) Detection() repository.DetectionRepositoryInterface {
	return (*captureDetectionRepo)(r)
}

func (r *captureRepo) Event() repository.EventRepositoryInterface { return noopEventRepo{} }

type captureDetectionRepo captureRepo

func (r *captureDetectionRepo) LogDetection(ctx context.Context, log *models.DetectionLog) error {
	return nil
}

func (r *captureDetectionRepo) GetDetectionLogs(ctx context.Context, limit int) ([]*models.DetectionLog, error) {
	r.lastLimit = limit
	return nil, nil
}

type noopEventRepo struct{}

func (noopEventRepo) LogEvent(ctx context.Context, level, code, msg string, meta map[string]interface{}) error {
	return nil
}

func newTestMux(t *testing.T) (*http.ServeMux, *captureRepo) {
	t.Helper()
	gateway := classifier.NewGateway(func() (classifier.Scorer, error) {
		return classifier.New(classifier.DefaultWeights(), classifier.Info{Name: "test", Version: "0"}), nil
	}, time.Second)
	repo := &captureRepo{}
	svc := services.NewDetectionService(gateway, cache.New(8), repo, 800)

	mux := http.NewServeMux()
	NewDetectionHandler(svc).RegisterRoutes(mux)
	return mux, repo
}

func TestLogsLimitClamped(t *testing.T) {
	mux, repo := newTestMux(t)

	tests := []struct {
		query     string
		wantLimit int
	}{
		{"/logs", 50},
		{"/logs?limit=-5", 50},
		{"/logs?limit=0", 50},
		{"/logs?limit=abc", 50},
		{"/logs?limit=10", 10},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.query, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status %d", tt.query, rec.Code)
		}
		if repo.lastLimit != tt.wantLimit {
			t.Errorf("%s: repository saw limit %d, want %d", tt.query, repo.lastLimit, tt.wantLimit)
		}
	}
}

func TestDetectRejectsUnknownMode(t *testing.T) {
	mux, _ := newTestMux(t)

	body := strings.NewReader(`{"input":"some plain text to check","mode":"full"}`)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/detect", body))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown mode, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), string(models.CodeMalformedInput)) {
		t.Errorf("expected malformed_input error code in body, got %s", rec.Body.String())
	}
}
