package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/veritext/detector-service/internal/cache"
	"github.com/veritext/detector-service/internal/classifier"
	"github.com/veritext/detector-service/internal/models"
	"github.com/veritext/detector-service/internal/repository"
)

const formalText = "The proposed framework demonstrates significant improvements in efficiency. " +
	"Moreover, the results indicate a consistent reduction in overall latency. " +
	"Furthermore, the evaluation confirms that the approach scales reliably under load. " +
	"Additionally, the findings suggest broad applicability across multiple domains."

const casualText = "I went to the store yesterday. Got some milk and eggs. Forgot to buy bread though... typical me lol."

type memRepo struct {
	mu   sync.Mutex
	logs []*models.DetectionLog
}

func (r *memRepo) Detection() repository.DetectionRepositoryInterface { return (*memDetectionRepo)(r) }
func (r *memRepo) Event() repository.EventRepositoryInterface         { return memEventRepo{} }

type memDetectionRepo memRepo

func (r *memDetectionRepo) LogDetection(ctx context.Context, log *models.DetectionLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, log)
	return nil
}

func (r *memDetectionRepo) GetDetectionLogs(ctx context.Context, limit int) ([]*models.DetectionLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.logs)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]*models.DetectionLog, n)
	copy(out, r.logs[len(r.logs)-n:])
	return out, nil
}

type memEventRepo struct{}

func (memEventRepo) LogEvent(ctx context.Context, level, code, msg string, meta map[string]interface{}) error {
	return nil
}

func newTestService(t *testing.T) (*DetectionService, *memRepo) {
	t.Helper()
	gateway := classifier.NewGateway(func() (classifier.Scorer, error) {
		return classifier.New(classifier.DefaultWeights(), classifier.Info{Name: "test", Version: "0"}), nil
	}, time.Second)
	repo := &memRepo{}
	return NewDetectionService(gateway, cache.New(64), repo, 800), repo
}

func TestDetectFormalTextQuick(t *testing.T) {
	svc, _ := newTestService(t)

	report, hit, err := svc.Detect(context.Background(), formalText, DetectionConfig{Mode: models.ModeQuick})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hit {
		t.Error("first detection must miss the cache")
	}
	if report.ConfidenceTier != models.TierHigh {
		t.Errorf("expected High tier for formal text, got %v (p=%v)", report.ConfidenceTier, report.ProbabilityAI)
	}
	if report.Statistics != nil {
		t.Error("quick mode must not include statistics")
	}
}

func TestDetectCasualTextDetailed(t *testing.T) {
	svc, _ := newTestService(t)

	report, _, err := svc.Detect(context.Background(), casualText, DetectionConfig{Mode: models.ModeDetailed})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.ConfidenceTier != models.TierLow {
		t.Errorf("expected Low tier for casual text, got %v (p=%v)", report.ConfidenceTier, report.ProbabilityAI)
	}
	if report.Statistics == nil {
		t.Fatal("detailed mode must include statistics")
	}
	if report.Statistics.WordCount == 0 || report.Statistics.SentenceCount == 0 {
		t.Errorf("statistics look empty: %+v", report.Statistics)
	}
	if len(report.Indicators) == 0 {
		t.Error("detailed mode should surface heuristic indicators")
	}
}

func TestDetectEmptyInput(t *testing.T) {
	svc, _ := newTestService(t)

	for _, input := range []string{"", "   ", "\n\t "} {
		_, _, err := svc.Detect(context.Background(), input, DetectionConfig{})
		if err == nil {
			t.Fatalf("expected error for input %q", input)
		}
		if models.CodeOf(err) != models.CodeEmptyInput {
			t.Errorf("expected empty_input code for %q, got %v", input, models.CodeOf(err))
		}
	}

	// Rejected inputs never reach the cache or the model.
	if stats := svc.CacheStats(); stats.Misses != 0 || stats.Entries != 0 {
		t.Errorf("empty input must not touch the cache: %+v", stats)
	}
}

func TestDetectRepeatedInputHitsCache(t *testing.T) {
	svc, _ := newTestService(t)

	first, hit, err := svc.Detect(context.Background(), formalText, DetectionConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hit {
		t.Error("first call must miss")
	}

	second, hit, err := svc.Detect(context.Background(), formalText, DetectionConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hit {
		t.Error("second identical call must hit the cache")
	}
	if second.ProbabilityAI != first.ProbabilityAI {
		t.Errorf("cached probability must be bit-identical: %v vs %v", second.ProbabilityAI, first.ProbabilityAI)
	}

	stats := svc.CacheStats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("unexpected cache stats: %+v", stats)
	}
}

func TestDetectTruncationSharesCacheEntry(t *testing.T) {
	svc, _ := newTestService(t)

	// Two texts identical in their first 100 words map to the same key
	// once both are truncated to 100 units.
	base := ""
	for i := 0; i < 100; i++ {
		base += "alpha beta gamma delta epsilon "
	}
	longA := base + "first tail sentence here."
	longB := base + "completely different ending words."

	_, hit, err := svc.Detect(context.Background(), longA, DetectionConfig{MaxUnits: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hit {
		t.Error("first call must miss")
	}

	_, hit, err = svc.Detect(context.Background(), longB, DetectionConfig{MaxUnits: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hit {
		t.Error("same truncated prefix must hit the cache")
	}
}

func TestDetectModelUnavailable(t *testing.T) {
	gateway := classifier.NewGateway(func() (classifier.Scorer, error) {
		return nil, errors.New("artifact missing")
	}, time.Second)
	svc := NewDetectionService(gateway, cache.New(64), &memRepo{}, 800)

	_, _, err := svc.Detect(context.Background(), formalText, DetectionConfig{})
	if err == nil {
		t.Fatal("expected error from unavailable model")
	}
	if models.CodeOf(err) != models.CodeModelUnavailable {
		t.Errorf("expected model_unavailable code, got %v", models.CodeOf(err))
	}

	// The failed score must not be memoized.
	if stats := svc.CacheStats(); stats.Entries != 0 {
		t.Errorf("failed detection must not leave cache entries: %+v", stats)
	}
}

func TestProcessDetectionLogsSuccess(t *testing.T) {
	svc, _ := newTestService(t)

	resp, err := svc.ProcessDetection(context.Background(), DetectionRequest{
		ReqID: "req-1",
		Input: formalText,
		Mode:  string(models.ModeQuick),
	}, "nats", "detect.reply.x", "worker-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Report == nil || resp.Report.ConfidenceTier != models.TierHigh {
		t.Errorf("unexpected response report: %+v", resp.Report)
	}
	if resp.WordsIn == 0 || resp.WordsAnalyzed == 0 {
		t.Errorf("expected word accounting in response: %+v", resp)
	}

	logs, err := svc.GetDetectionLogs(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(logs))
	}
	entry := logs[0]
	if entry.Status != "ok" || entry.ReqID != "req-1" || entry.WorkerID != "worker-1" {
		t.Errorf("unexpected log entry: %+v", entry)
	}
	if entry.Tier != string(models.TierHigh) {
		t.Errorf("expected High tier in log, got %q", entry.Tier)
	}
}

func TestProcessDetectionLogsError(t *testing.T) {
	svc, _ := newTestService(t)

	resp, err := svc.ProcessDetection(context.Background(), DetectionRequest{
		ReqID: "req-2",
		Input: "   ",
	}, "http", "", "worker-1")
	if err == nil {
		t.Fatal("expected error for blank input")
	}
	if resp.ErrorCode != string(models.CodeEmptyInput) {
		t.Errorf("expected empty_input error code in response, got %q", resp.ErrorCode)
	}
	if resp.Report != nil {
		t.Error("failed request must not carry a report")
	}

	logs, _ := svc.GetDetectionLogs(context.Background(), 10)
	if len(logs) != 1 || logs[0].Status != "error" {
		t.Fatalf("expected one error log, got %+v", logs)
	}
	if logs[0].WordsAnalyzed != 0 {
		t.Errorf("failed request must log zero analyzed words, got %d", logs[0].WordsAnalyzed)
	}
}

func TestDetectUnknownModeRejected(t *testing.T) {
	svc, _ := newTestService(t)

	for _, mode := range []models.Mode{"full", "Detailed", "QUICK"} {
		_, _, err := svc.Detect(context.Background(), formalText, DetectionConfig{Mode: mode})
		if err == nil {
			t.Fatalf("expected error for mode %q", mode)
		}
		if models.CodeOf(err) != models.CodeMalformedInput {
			t.Errorf("expected malformed_input code for mode %q, got %v", mode, models.CodeOf(err))
		}
	}

	// The empty mode still defaults to quick.
	if _, _, err := svc.Detect(context.Background(), formalText, DetectionConfig{}); err != nil {
		t.Fatalf("empty mode must default to quick: %v", err)
	}
}

func TestProcessDetectionWordAccountingDefaultBudget(t *testing.T) {
	svc, _ := newTestService(t) // default budget 800

	input := strings.TrimSpace(strings.Repeat("one two three four five ", 100)) // 500 words

	resp, err := svc.ProcessDetection(context.Background(), DetectionRequest{
		ReqID: "req-3",
		Input: input,
	}, "http", "", "worker-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.WordsIn != 500 {
		t.Fatalf("expected 500 words in, got %d", resp.WordsIn)
	}
	// With max_units omitted the 800 default applies, so all 500 words
	// are analyzed.
	if resp.WordsAnalyzed != 500 {
		t.Errorf("expected 500 words analyzed under the default budget, got %d", resp.WordsAnalyzed)
	}

	logs, _ := svc.GetDetectionLogs(context.Background(), 1)
	if len(logs) != 1 || logs[0].WordsAnalyzed != 500 {
		t.Errorf("expected 500 analyzed words in the log, got %+v", logs)
	}
}

func TestProcessDetectionWordAccountingExplicitBudget(t *testing.T) {
	svc, _ := newTestService(t)

	input := strings.TrimSpace(strings.Repeat("one two three four five ", 100)) // 500 words

	resp, err := svc.ProcessDetection(context.Background(), DetectionRequest{
		ReqID:    "req-4",
		Input:    input,
		MaxUnits: 150,
	}, "http", "", "worker-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.WordsIn != 500 || resp.WordsAnalyzed != 150 {
		t.Errorf("expected 500 in / 150 analyzed, got %d / %d", resp.WordsIn, resp.WordsAnalyzed)
	}
}

func TestDetectChunks(t *testing.T) {
	svc, _ := newTestService(t)

	text := ""
	for i := 0; i < 3; i++ {
		text += formalText + " "
	}

	chunks, err := svc.DetectChunks(context.Background(), text, 40, DetectionConfig{Mode: models.ModeQuick})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if ch.Index != i {
			t.Errorf("chunk %d has index %d", i, ch.Index)
		}
		if ch.StartWord >= ch.EndWord {
			t.Errorf("chunk %d has empty window: %d..%d", i, ch.StartWord, ch.EndWord)
		}
	}
}

func TestDetectChunksEmpty(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.DetectChunks(context.Background(), " \t ", 400, DetectionConfig{})
	if models.CodeOf(err) != models.CodeEmptyInput {
		t.Errorf("expected empty_input code, got %v", models.CodeOf(err))
	}
}
