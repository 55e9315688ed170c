package verdict

import (
	"testing"

	"github.com/veritext/detector-service/internal/models"
)

func TestTierBoundaries(t *testing.T) {
	tests := []struct {
		pAI       float64
		wantTier  models.Tier
		wantLabel string
	}{
		{0.99, models.TierHigh, LabelHigh},
		{0.8000001, models.TierHigh, LabelHigh},
		{0.80, models.TierMedium, LabelMedium}, // boundary falls to lower tier
		{0.65, models.TierMedium, LabelMedium},
		{0.50, models.TierMedium, LabelMedium},
		{0.4999999, models.TierLow, LabelLow},
		{0.10, models.TierLow, LabelLow},
		{0.0, models.TierLow, LabelLow},
	}

	for _, tt := range tests {
		tier, label := Tier(tt.pAI)
		if tier != tt.wantTier || label != tt.wantLabel {
			t.Errorf("Tier(%v) = (%v, %q), want (%v, %q)", tt.pAI, tier, label, tt.wantTier, tt.wantLabel)
		}
	}
}

func TestAssembleQuickOmitsStatistics(t *testing.T) {
	stats := &models.TextStatistics{WordCount: 42}
	report := Assemble(models.RawScore{AI: 0.9, Human: 0.1}, stats, models.ModeQuick)

	if report.Statistics != nil {
		t.Error("quick mode must omit statistics")
	}
	if report.Indicators != nil {
		t.Error("quick mode must omit indicators")
	}
	if report.ConfidenceTier != models.TierHigh {
		t.Errorf("expected High tier, got %v", report.ConfidenceTier)
	}
	if report.VerdictLabel != LabelHigh {
		t.Errorf("expected %q, got %q", LabelHigh, report.VerdictLabel)
	}
}

func TestAssembleDetailedEmbedsStatistics(t *testing.T) {
	stats := &models.TextStatistics{
		WordCount:         42,
		SentenceCount:     3,
		AvgSentenceLength: 14.0,
	}
	report := Assemble(models.RawScore{AI: 0.3, Human: 0.7}, stats, models.ModeDetailed)

	if report.Statistics == nil {
		t.Fatal("detailed mode must embed statistics")
	}
	if report.Statistics.WordCount != 42 {
		t.Errorf("unexpected statistics: %+v", report.Statistics)
	}
	if report.ConfidenceTier != models.TierLow || report.VerdictLabel != LabelLow {
		t.Errorf("expected Low tier, got %v %q", report.ConfidenceTier, report.VerdictLabel)
	}
}

func TestAssembleProbabilityGap(t *testing.T) {
	report := Assemble(models.RawScore{AI: 0.95, Human: 0.05}, nil, models.ModeQuick)
	if got := report.ProbabilityGap; got < 0.8999 || got > 0.9001 {
		t.Errorf("expected gap ~0.9, got %v", got)
	}
	if len(report.Reasons) == 0 {
		t.Fatal("expected at least one reason")
	}
	if report.Reasons[0] != "model is highly confident the text is AI-generated" {
		t.Errorf("unexpected leading reason: %q", report.Reasons[0])
	}
}

func TestAssembleBorderlineReasons(t *testing.T) {
	report := Assemble(models.RawScore{AI: 0.55, Human: 0.45}, nil, models.ModeQuick)

	var foundClose bool
	for _, r := range report.Reasons {
		if r == "label probabilities are close, possibly mixed or assisted content" {
			foundClose = true
		}
	}
	if !foundClose {
		t.Errorf("expected close-probabilities reason, got %v", report.Reasons)
	}
	if report.ConfidenceTier != models.TierMedium {
		t.Errorf("expected Medium tier, got %v", report.ConfidenceTier)
	}
}
