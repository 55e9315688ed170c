package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/oklog/ulid/v2"

	"github.com/veritext/detector-service/internal/models"
	"github.com/veritext/detector-service/internal/services"
)

type DetectionHandler struct {
	detectionService *services.DetectionService
}

func NewDetectionHandler(detectionService *services.DetectionService) *DetectionHandler {
	return &DetectionHandler{
		detectionService: detectionService,
	}
}

func (h *DetectionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/detect", h.handleDetect)
	mux.HandleFunc("/v1/detect/chunks", h.handleDetectChunks)
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.HandleFunc("/logs", h.handleLogs)
	mux.HandleFunc("/cachestats", h.handleCacheStats)
}

func (h *DetectionHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := h.detectionService.HealthCheck()

	status := http.StatusOK
	if health.State == "failed" {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(health)
}

func (h *DetectionHandler) handleDetect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}

	var httpReq services.DetectionRequest
	if err := json.NewDecoder(r.Body).Decode(&httpReq); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if httpReq.ReqID == "" {
		httpReq.ReqID = "http-" + ulid.Make().String()
	}
	if traceID := r.Header.Get("X-Trace-ID"); traceID != "" {
		httpReq.TraceID = traceID
	}

	response, err := h.detectionService.ProcessDetection(r.Context(), httpReq, "http.detect", "direct", "http-worker")

	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(statusFor(err))
	}
	_ = json.NewEncoder(w).Encode(response)
}

func (h *DetectionHandler) handleDetectChunks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}

	var httpReq struct {
		Input      string `json:"input"`
		ChunkWords int    `json:"chunk_words,omitempty"`
		MaxUnits   int    `json:"max_units,omitempty"`
		Mode       string `json:"mode,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&httpReq); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	chunks, err := h.detectionService.DetectChunks(r.Context(), httpReq.Input, httpReq.ChunkWords, services.DetectionConfig{
		MaxUnits: httpReq.MaxUnits,
		Mode:     models.Mode(httpReq.Mode),
	})

	resp := map[string]interface{}{
		"chunks": chunks,
	}
	if err != nil {
		resp["error"] = err.Error()
		resp["error_code"] = string(models.CodeOf(err))
	}

	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(statusFor(err))
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *DetectionHandler) handleLogs(w http.ResponseWriter, r *http.Request) {
	// Non-positive limits would reach SQLite as LIMIT -n (unlimited).
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}

	logs, err := h.detectionService.GetDetectionLogs(r.Context(), limit)
	if err != nil {
		http.Error(w, "Failed to get logs: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(logs)
}

func (h *DetectionHandler) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(h.detectionService.CacheStats())
}

func statusFor(err error) int {
	switch models.CodeOf(err) {
	case models.CodeEmptyInput, models.CodeMalformedInput:
		return http.StatusBadRequest
	case models.CodeModelUnavailable:
		return http.StatusServiceUnavailable
	case models.CodeInferenceTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
