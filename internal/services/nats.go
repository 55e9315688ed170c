package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/veritext/detector-service/internal/config"
	"github.com/veritext/detector-service/internal/models"
)

// generateWorkerID creates a unique worker ID using timestamp and random bytes
func generateWorkerID() string {
	timestamp := time.Now().UnixNano()
	randomBytes := make([]byte, 4)
	rand.Read(randomBytes)
	randomHex := hex.EncodeToString(randomBytes)
	return fmt.Sprintf("worker-%d-%s", timestamp, randomHex)
}

type NATSService struct {
	conn       *nats.Conn
	js         nats.JetStreamContext
	detection  *DetectionService
	cfg        *config.Config
	monitoring *MonitoringService
}

// BatchRequest asks for chunked detection over a long text.
type BatchRequest struct {
	TraceID    string `json:"trace_id,omitempty"`
	ReqID      string `json:"req_id"`
	Input      string `json:"input"`
	ChunkWords int    `json:"chunk_words,omitempty"`
	MaxUnits   int    `json:"max_units,omitempty"`
	Mode       string `json:"mode,omitempty"`
	ReplyTo    string `json:"reply_to,omitempty"`
}

type BatchResponse struct {
	ReqID      string        `json:"req_id"`
	Chunks     []ChunkReport `json:"chunks,omitempty"`
	DurationMs int64         `json:"duration_ms"`
	Error      string        `json:"error,omitempty"`
	ErrorCode  string        `json:"error_code,omitempty"`
}

func NewNATSService(cfg *config.Config, detection *DetectionService) (*NATSService, error) {
	conn, err := nats.Connect(cfg.NatsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	natsService := &NATSService{
		conn:      conn,
		js:        js,
		detection: detection,
		cfg:       cfg,
	}
	natsService.monitoring = NewMonitoringService(conn, cfg, detection)

	return natsService, nil
}

func (s *NATSService) GetConnection() *nats.Conn {
	return s.conn
}

func (s *NATSService) GetMonitoringService() *MonitoringService {
	return s.monitoring
}

func (s *NATSService) Start(ctx context.Context) error {
	if err := s.ensureStream(); err != nil {
		return fmt.Errorf("failed to ensure stream: %w", err)
	}

	consumer, err := s.createConsumer()
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	slog.Info("NATS service starting",
		"stream", s.cfg.Stream,
		"subjects", []string{s.cfg.Subject, s.cfg.BatchSubject},
		"consumer", s.cfg.Durable,
		"concurrency", s.cfg.Concurrency)

	go s.monitoring.Start(ctx)

	for i := 0; i < s.cfg.Concurrency; i++ {
		workerID := generateWorkerID()
		go s.worker(ctx, consumer, workerID)
	}

	// Block until context is cancelled
	<-ctx.Done()
	slog.Info("NATS service shutting down")

	s.conn.Close()
	return nil
}

func (s *NATSService) ensureStream() error {
	subjects := []string{s.cfg.Subject, s.cfg.BatchSubject}

	streamInfo, err := s.js.StreamInfo(s.cfg.Stream)
	if err != nil {
		if err == nats.ErrStreamNotFound {
			_, err = s.js.AddStream(&nats.StreamConfig{
				Name:      s.cfg.Stream,
				Subjects:  subjects,
				MaxMsgs:   int64(s.cfg.MaxMsgs),
				MaxAge:    s.cfg.MaxAge,
				Storage:   nats.FileStorage,
				Retention: nats.WorkQueuePolicy,
			})
			if err != nil {
				return fmt.Errorf("failed to create stream: %w", err)
			}
			slog.Info("Created NATS stream", "name", s.cfg.Stream)
			return nil
		}
		return fmt.Errorf("failed to get stream info: %w", err)
	}

	// Make sure the stream carries both of our subjects
	missing := []string{}
	for _, want := range subjects {
		found := false
		for _, have := range streamInfo.Config.Subjects {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, want)
		}
	}

	if len(missing) > 0 {
		newConfig := streamInfo.Config
		newConfig.Subjects = append(newConfig.Subjects, missing...)
		if _, err = s.js.UpdateStream(&newConfig); err != nil {
			return fmt.Errorf("failed to update stream with new subjects: %w", err)
		}
		slog.Info("Updated NATS stream with new subjects", "name", s.cfg.Stream, "subjects", missing)
	} else {
		slog.Info("NATS stream already exists", "name", s.cfg.Stream, "messages", streamInfo.State.Msgs)
	}

	return nil
}

func (s *NATSService) createConsumer() (*nats.Subscription, error) {
	sub, err := s.js.PullSubscribe("", s.cfg.Durable,
		nats.ManualAck(),
		nats.BindStream(s.cfg.Stream),
		nats.AckWait(s.cfg.AckWait),
		nats.MaxDeliver(s.cfg.MaxDeliver),
		nats.MaxAckPending(s.cfg.MaxAckPending))
	if err != nil {
		return nil, fmt.Errorf("failed to create pull consumer: %w", err)
	}

	slog.Info("Created NATS consumer", "durable", s.cfg.Durable)
	return sub, nil
}

func (s *NATSService) worker(ctx context.Context, consumer *nats.Subscription, workerID string) {
	slog.Info("NATS worker starting", "worker_id", workerID)

	for {
		select {
		case <-ctx.Done():
			slog.Info("NATS worker shutting down", "worker_id", workerID)
			return
		default:
			msgs, err := consumer.Fetch(1, nats.MaxWait(time.Second))
			if err != nil {
				if err == nats.ErrTimeout {
					continue // Normal timeout, continue polling
				}
				slog.Error("Failed to fetch messages", "worker_id", workerID, "error", err)
				time.Sleep(time.Second) // Back off on error
				continue
			}

			for _, msg := range msgs {
				s.monitoring.IncrementPending()
				s.processMessage(ctx, msg, workerID)
				s.monitoring.DecrementPending()
			}
		}
	}
}

func (s *NATSService) processMessage(ctx context.Context, msg *nats.Msg, workerID string) {
	s.monitoring.IncrementActive()
	defer s.monitoring.DecrementActive()

	if strings.Contains(msg.Subject, "detect.batch") {
		s.processBatchMessage(ctx, msg, workerID)
		return
	}
	s.processDetectionMessage(ctx, msg, workerID)
}

func (s *NATSService) processDetectionMessage(ctx context.Context, msg *nats.Msg, workerID string) {
	start := time.Now()

	var req DetectionRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		slog.Error("Failed to parse detection request",
			"worker_id", workerID,
			"error", err,
			"data", string(msg.Data))
		msg.Nak()
		return
	}

	if req.TraceID == "" {
		req.TraceID = req.ReqID
	}

	slog.Debug("Processing NATS detection request",
		"worker_id", workerID,
		"req_id", req.ReqID,
		"trace_id", req.TraceID,
		"subject", msg.Subject)

	response, err := s.detection.ProcessDetection(
		ctx,
		req,
		fmt.Sprintf("nats.%s", msg.Subject),
		req.ReplyTo,
		workerID,
	)

	responseData, marshalErr := json.Marshal(response)
	if marshalErr != nil {
		slog.Error("Failed to marshal response",
			"worker_id", workerID,
			"req_id", req.ReqID,
			"error", marshalErr)
		msg.Nak()
		return
	}

	if req.ReplyTo != "" {
		if publishErr := s.conn.Publish(req.ReplyTo, responseData); publishErr != nil {
			slog.Error("Failed to publish response",
				"worker_id", workerID,
				"req_id", req.ReqID,
				"reply_subject", req.ReplyTo,
				"error", publishErr)
		}
	}

	if ackErr := msg.Ack(); ackErr != nil {
		slog.Error("Failed to acknowledge message",
			"worker_id", workerID,
			"req_id", req.ReqID,
			"error", ackErr)
	}

	duration := time.Since(start)

	if err == nil {
		slog.Info("NATS detection completed",
			"worker_id", workerID,
			"req_id", req.ReqID,
			"duration_ms", duration.Milliseconds(),
			"probability_ai", response.Report.ProbabilityAI,
			"tier", response.Report.ConfidenceTier,
			"cache_hit", response.CacheHit)
	} else {
		slog.Error("NATS detection failed",
			"worker_id", workerID,
			"req_id", req.ReqID,
			"duration_ms", duration.Milliseconds(),
			"error", err)
	}
}

func (s *NATSService) processBatchMessage(ctx context.Context, msg *nats.Msg, workerID string) {
	start := time.Now()

	var req BatchRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		slog.Error("Failed to parse batch request",
			"worker_id", workerID,
			"error", err,
			"data", string(msg.Data))
		msg.Nak()
		return
	}

	if req.TraceID == "" {
		req.TraceID = req.ReqID
	}

	chunks, err := s.detection.DetectChunks(ctx, req.Input, req.ChunkWords, DetectionConfig{
		MaxUnits: req.MaxUnits,
		Mode:     models.Mode(req.Mode),
	})

	response := BatchResponse{
		ReqID:      req.ReqID,
		Chunks:     chunks,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		response.Error = err.Error()
		response.ErrorCode = string(models.CodeOf(err))
	}

	responseData, marshalErr := json.Marshal(response)
	if marshalErr != nil {
		slog.Error("Failed to marshal batch response",
			"worker_id", workerID,
			"req_id", req.ReqID,
			"error", marshalErr)
		msg.Nak()
		return
	}

	if req.ReplyTo != "" {
		if publishErr := s.conn.Publish(req.ReplyTo, responseData); publishErr != nil {
			slog.Error("Failed to publish batch response",
				"worker_id", workerID,
				"req_id", req.ReqID,
				"reply_subject", req.ReplyTo,
				"error", publishErr)
		}
	}

	if ackErr := msg.Ack(); ackErr != nil {
		slog.Error("Failed to acknowledge batch message",
			"worker_id", workerID,
			"req_id", req.ReqID,
			"error", ackErr)
	}

	if err == nil {
		slog.Info("NATS batch detection completed",
			"worker_id", workerID,
			"req_id", req.ReqID,
			"chunks", len(chunks),
			"duration_ms", time.Since(start).Milliseconds())
	} else {
		slog.Error("NATS batch detection failed",
			"worker_id", workerID,
			"req_id", req.ReqID,
			"error", err)
	}
}
