package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/oklog/ulid/v2"
)

// DetectionClient provides a client interface for the detector service
type DetectionClient interface {
	// Detection
	Detect(ctx context.Context, model, input string, opts DetectOptions) (*DetectionResponse, error)
	DetectBatch(ctx context.Context, model, input string, opts BatchOptions) (*BatchResponse, error)

	// Health and discovery
	CheckHealth(ctx context.Context, model string) (*HealthStatus, error)

	// Lifecycle
	Close() error
}

// DetectOptions carries per-request detection knobs.
type DetectOptions struct {
	MaxUnits int
	Mode     string
}

// BatchOptions carries chunked-detection knobs.
type BatchOptions struct {
	ChunkWords int
	MaxUnits   int
	Mode       string
}

// NATSDetectionClient implements DetectionClient over NATS request/reply
type NATSDetectionClient struct {
	conn     *nats.Conn
	clientID string
	timeout  time.Duration
}

// NewNATSClient creates a new NATS-based detection client
func NewNATSClient(natsURL, clientID string) (DetectionClient, error) {
	conn, err := nats.Connect(natsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	if clientID == "" {
		clientID = "detection-client"
	}

	return &NATSDetectionClient{
		conn:     conn,
		clientID: clientID,
		timeout:  30 * time.Second,
	}, nil
}

// Detect submits one text for detection and waits for the verdict.
func (c *NATSDetectionClient) Detect(ctx context.Context, model, input string, opts DetectOptions) (*DetectionResponse, error) {
	topic := fmt.Sprintf("detect.request.%s", model)

	reqID := ulid.Make().String()
	replySubject := fmt.Sprintf("detect.response.%s.%s", c.clientID, reqID)

	request := DetectionRequest{
		ReqID:    reqID,
		Input:    input,
		MaxUnits: opts.MaxUnits,
		Mode:     opts.Mode,
		ReplyTo:  replySubject,
	}

	msg, err := c.sendRequest(ctx, topic, replySubject, request)
	if err != nil {
		return nil, err
	}

	var response DetectionResponse
	if err := json.Unmarshal(msg.Data, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &response, nil
}

// DetectBatch submits a long text for chunked detection.
func (c *NATSDetectionClient) DetectBatch(ctx context.Context, model, input string, opts BatchOptions) (*BatchResponse, error) {
	topic := fmt.Sprintf("detect.batch.%s", model)

	reqID := ulid.Make().String()
	replySubject := fmt.Sprintf("detect.response.%s.%s", c.clientID, reqID)

	request := BatchRequest{
		ReqID:      reqID,
		Input:      input,
		ChunkWords: opts.ChunkWords,
		MaxUnits:   opts.MaxUnits,
		Mode:       opts.Mode,
		ReplyTo:    replySubject,
	}

	msg, err := c.sendRequest(ctx, topic, replySubject, request)
	if err != nil {
		return nil, err
	}

	var response BatchResponse
	if err := json.Unmarshal(msg.Data, &response); err != nil {
		return nil, fmt.Errorf("failed to parse batch response: %w", err)
	}
	return &response, nil
}

func (c *NATSDetectionClient) sendRequest(ctx context.Context, topic, replySubject string, request interface{}) (*nats.Msg, error) {
	slog.Debug("Sending detection request",
		"topic", topic,
		"reply_subject", replySubject)

	requestBytes, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	// Subscribe to the reply subject before publishing
	replyChan := make(chan *nats.Msg, 1)
	sub, err := c.conn.Subscribe(replySubject, func(msg *nats.Msg) {
		replyChan <- msg
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to reply: %w", err)
	}
	defer sub.Unsubscribe()

	if err := c.conn.Publish(topic, requestBytes); err != nil {
		return nil, fmt.Errorf("failed to publish request: %w", err)
	}

	select {
	case msg := <-replyChan:
		slog.Debug("Received response", "reply_subject", replySubject, "response_size", len(msg.Data))
		return msg, nil
	case <-time.After(c.timeout):
		return nil, fmt.Errorf("request timeout after %v", c.timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// CheckHealth checks if a detector is available and healthy
func (c *NATSDetectionClient) CheckHealth(ctx context.Context, model string) (*HealthStatus, error) {
	healthTopic := fmt.Sprintf("detectors.%s.health", model)

	reqID := ulid.Make().String()
	replySubject := fmt.Sprintf("health.response.%s.%s", c.clientID, reqID)

	healthReq := map[string]interface{}{
		"req_id":   reqID,
		"reply_to": replySubject,
	}

	requestBytes, err := json.Marshal(healthReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal health request: %w", err)
	}

	replyChan := make(chan *nats.Msg, 1)
	sub, err := c.conn.Subscribe(replySubject, func(msg *nats.Msg) {
		replyChan <- msg
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to health reply: %w", err)
	}
	defer sub.Unsubscribe()

	if err := c.conn.Publish(healthTopic, requestBytes); err != nil {
		return nil, fmt.Errorf("failed to publish health request: %w", err)
	}

	select {
	case msg := <-replyChan:
		var health HealthStatus
		if err := json.Unmarshal(msg.Data, &health); err != nil {
			return nil, fmt.Errorf("failed to parse health response: %w", err)
		}
		return &health, nil
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("health check timeout")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close shuts down the NATS connection
func (c *NATSDetectionClient) Close() error {
	c.conn.Close()
	return nil
}
