package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/veritext/detector-service/internal/cache"
	"github.com/veritext/detector-service/internal/classifier"
	"github.com/veritext/detector-service/internal/models"
	"github.com/veritext/detector-service/internal/repository"
	"github.com/veritext/detector-service/internal/textproc"
	"github.com/veritext/detector-service/internal/verdict"
)

type DetectionRequest struct {
	TraceID  string `json:"trace_id,omitempty"`
	ReqID    string `json:"req_id"`
	Input    string `json:"input"`
	MaxUnits int    `json:"max_units,omitempty"`
	Mode     string `json:"mode,omitempty"`
	ReplyTo  string `json:"reply_to,omitempty"`
}

type DetectionResponse struct {
	ReqID         string                  `json:"req_id"`
	Report        *models.DetectionReport `json:"report,omitempty"`
	WordsIn       int                     `json:"words_in"`
	WordsAnalyzed int                     `json:"words_analyzed"`
	CacheHit      bool                    `json:"cache_hit"`
	DurationMs    int64                   `json:"duration_ms"`
	Error         string                  `json:"error,omitempty"`
	ErrorCode     string                  `json:"error_code,omitempty"`
}

// ChunkReport is the per-window result of a batch detection.
type ChunkReport struct {
	Index     int                    `json:"index"`
	StartWord int                    `json:"start_word"`
	EndWord   int                    `json:"end_word"`
	Report    models.DetectionReport `json:"report"`
	CacheHit  bool                   `json:"cache_hit"`
}

// DetectionConfig carries the per-request knobs.
type DetectionConfig struct {
	MaxUnits int
	Mode     models.Mode
}

// DetectionService runs the full pipeline: truncate, score through the
// cache, analyze, assemble.
type DetectionService struct {
	gateway         *classifier.Gateway
	cache           *cache.Cache
	repo            repository.Repository
	defaultMaxUnits int
}

func NewDetectionService(gateway *classifier.Gateway, resultCache *cache.Cache, repo repository.Repository, defaultMaxUnits int) *DetectionService {
	if defaultMaxUnits <= 0 {
		defaultMaxUnits = 800
	}
	return &DetectionService{
		gateway:         gateway,
		cache:           resultCache,
		repo:            repo,
		defaultMaxUnits: defaultMaxUnits,
	}
}

// Detect is the core request/response function. It returns the report, a
// flag telling whether the score came from the cache, and one of the four
// taxonomy errors on failure. A failed request never yields a report.
func (s *DetectionService) Detect(ctx context.Context, text string, cfg DetectionConfig) (*models.DetectionReport, bool, error) {
	maxUnits := cfg.MaxUnits
	if maxUnits <= 0 {
		maxUnits = s.defaultMaxUnits
	}
	mode := cfg.Mode
	switch mode {
	case "":
		mode = models.ModeQuick
	case models.ModeQuick, models.ModeDetailed:
	default:
		return nil, false, models.MalformedInput(fmt.Sprintf("unrecognized mode %q", mode))
	}

	truncated, err := textproc.Truncate(text, maxUnits)
	if err != nil {
		return nil, false, err
	}

	raw, hit, err := s.cache.GetOrCompute(ctx, truncated, func() (models.RawScore, error) {
		return s.gateway.Score(context.Background(), truncated)
	})
	if err != nil {
		return nil, hit, err
	}

	var stats *models.TextStatistics
	if mode == models.ModeDetailed {
		st := textproc.Analyze(truncated)
		stats = &st
	}

	report := verdict.Assemble(raw, stats, mode)
	return &report, hit, nil
}

// DetectChunks splits text into word windows and runs each through the same
// cached pipeline, so re-submitted fragments stay deduplicated.
func (s *DetectionService) DetectChunks(ctx context.Context, text string, chunkWords int, cfg DetectionConfig) ([]ChunkReport, error) {
	if chunkWords <= 0 {
		chunkWords = 400
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, models.EmptyInput("input text is empty or whitespace-only")
	}

	var out []ChunkReport
	for start := 0; start < len(words); start += chunkWords {
		end := start + chunkWords
		if end > len(words) {
			end = len(words)
		}
		chunk := strings.Join(words[start:end], " ")
		report, hit, err := s.Detect(ctx, chunk, cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, ChunkReport{
			Index:     len(out),
			StartWord: start,
			EndWord:   end,
			Report:    *report,
			CacheHit:  hit,
		})
	}
	return out, nil
}

// ProcessDetection wraps Detect with request logging and crash recovery for
// the transport layers.
func (s *DetectionService) ProcessDetection(ctx context.Context, req DetectionRequest, source, replyTo, workerID string) (response *DetectionResponse, err error) {
	start := time.Now()

	traceID := req.TraceID
	if traceID == "" {
		traceID = req.ReqID
	}

	defer func() {
		if r := recover(); r != nil {
			duration := time.Since(start)
			errStr := fmt.Sprintf("service panic: %v", r)

			panicLog := &models.DetectionLog{
				Timestamp:  start,
				TraceID:    traceID,
				ReqID:      req.ReqID,
				WorkerID:   workerID,
				Source:     source,
				ReplyTo:    replyTo,
				Input:      req.Input,
				InputLen:   len(req.Input),
				Mode:       req.Mode,
				DurationMs: duration.Milliseconds(),
				Status:     "panic",
				Error:      errStr,
			}
			s.repo.Detection().LogDetection(ctx, panicLog)

			response = &DetectionResponse{
				ReqID:      req.ReqID,
				DurationMs: duration.Milliseconds(),
				Error:      errStr,
			}
			err = fmt.Errorf("service panic: %v", r)
		}
	}()

	report, hit, detectErr := s.Detect(ctx, req.Input, DetectionConfig{
		MaxUnits: req.MaxUnits,
		Mode:     models.Mode(req.Mode),
	})

	duration := time.Since(start)
	wordsIn := textproc.UnitCount(req.Input)

	// Resolve the effective budget the same way Detect does, so the
	// accounting matches what was actually analyzed.
	effectiveMax := req.MaxUnits
	if effectiveMax <= 0 {
		effectiveMax = s.defaultMaxUnits
	}
	wordsAnalyzed := wordsIn
	if max := textproc.ClampUnits(effectiveMax); wordsAnalyzed > max {
		wordsAnalyzed = max
	}

	status := "ok"
	errStr := ""
	probability := 0.0
	tier := ""
	if detectErr != nil {
		status = "error"
		errStr = detectErr.Error()
		wordsAnalyzed = 0
	} else {
		probability = report.ProbabilityAI
		tier = string(report.ConfidenceTier)
	}

	detectionLog := &models.DetectionLog{
		Timestamp:     start,
		TraceID:       traceID,
		ReqID:         req.ReqID,
		WorkerID:      workerID,
		Source:        source,
		ReplyTo:       replyTo,
		Input:         req.Input,
		InputLen:      len(req.Input),
		WordsIn:       wordsIn,
		WordsAnalyzed: wordsAnalyzed,
		Mode:          req.Mode,
		ProbabilityAI: probability,
		Tier:          tier,
		CacheHit:      hit,
		DurationMs:    duration.Milliseconds(),
		Status:        status,
		Error:         errStr,
	}
	s.repo.Detection().LogDetection(ctx, detectionLog)

	response = &DetectionResponse{
		ReqID:         req.ReqID,
		Report:        report,
		WordsIn:       wordsIn,
		WordsAnalyzed: wordsAnalyzed,
		CacheHit:      hit,
		DurationMs:    duration.Milliseconds(),
	}
	if detectErr != nil {
		response.Error = errStr
		response.ErrorCode = string(models.CodeOf(detectErr))
	}

	return response, detectErr
}

// CacheStats exposes the cache instrumentation counters.
func (s *DetectionService) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// HealthCheck reports the model gateway lifecycle state.
func (s *DetectionService) HealthCheck() classifier.Health {
	return s.gateway.HealthCheck()
}

// ModelInfo returns artifact metadata once the model is loaded.
func (s *DetectionService) ModelInfo() (classifier.Info, bool) {
	return s.gateway.ModelInfo()
}

// GetDetectionLogs retrieves detection logs through the repository.
func (s *DetectionService) GetDetectionLogs(ctx context.Context, limit int) ([]*models.DetectionLog, error) {
	return s.repo.Detection().GetDetectionLogs(ctx, limit)
}

// GetRepository returns the repository for use by other services
func (s *DetectionService) GetRepository() repository.Repository {
	return s.repo
}
