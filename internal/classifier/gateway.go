package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/veritext/detector-service/internal/models"
)

// State is the process-wide model lifecycle state visible to health checks.
type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateFailed  State = "failed"
)

// Health is the gateway's answer to a health check.
type Health struct {
	State  State  `json:"state"`
	Reason string `json:"reason,omitempty"`
}

// Scorer is the opaque scoring function the gateway guards. *Model
// implements it; tests may substitute their own.
type Scorer interface {
	Score(text string) (models.RawScore, error)
}

// Loader produces the scorer on first use. Loading may block for a long
// time (artifact download); it runs at most once per process.
type Loader func() (Scorer, error)

// Gateway owns the model lifecycle: lazy once-per-process load shared by
// all concurrent callers, plus a wall-clock bound on individual calls.
// The loaded scorer is read-only and read concurrently.
type Gateway struct {
	loader  Loader
	timeout time.Duration

	loadOnce sync.Once
	scorer   Scorer
	loadErr  error

	mu     sync.RWMutex
	state  State
	reason string
}

// NewGateway wraps loader. A load failure is remembered and not retried;
// callers see ModelUnavailable until the process restarts.
func NewGateway(loader Loader, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Gateway{
		loader:  loader,
		timeout: timeout,
		state:   StateLoading,
	}
}

// Score runs the model on text. The first call triggers the load; callers
// arriving during the load wait for the same in-flight load rather than
// starting another.
func (g *Gateway) Score(ctx context.Context, text string) (models.RawScore, error) {
	scorer, err := g.load()
	if err != nil {
		return models.RawScore{}, models.ModelUnavailable("model failed to load", err)
	}

	type result struct {
		score models.RawScore
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		score, err := scorer.Score(text)
		ch <- result{score: score, err: err}
	}()

	timer := time.NewTimer(g.timeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		return r.score, r.err
	case <-timer.C:
		return models.RawScore{}, models.InferenceTimeout(fmt.Sprintf("inference exceeded %s", g.timeout))
	case <-ctx.Done():
		return models.RawScore{}, ctx.Err()
	}
}

// Warm triggers the lazy load ahead of the first request.
func (g *Gateway) Warm() error {
	_, err := g.load()
	return err
}

// HealthCheck reports the current lifecycle state.
func (g *Gateway) HealthCheck() Health {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return Health{State: g.state, Reason: g.reason}
}

// ModelInfo returns artifact metadata once the model is ready.
func (g *Gateway) ModelInfo() (Info, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.state != StateReady {
		return Info{}, false
	}
	if m, ok := g.scorer.(*Model); ok {
		return m.Info(), true
	}
	return Info{}, false
}

func (g *Gateway) load() (Scorer, error) {
	g.loadOnce.Do(func() {
		start := time.Now()
		slog.Info("Loading detection model")

		scorer, err := g.loader()

		g.mu.Lock()
		defer g.mu.Unlock()
		if err != nil {
			g.loadErr = err
			g.state = StateFailed
			g.reason = err.Error()
			slog.Error("Model load failed", "error", err)
			return
		}
		g.scorer = scorer
		g.state = StateReady
		slog.Info("Model ready", "duration_ms", time.Since(start).Milliseconds())
	})
	return g.scorer, g.loadErr
}
