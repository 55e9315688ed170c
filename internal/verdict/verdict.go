// Package verdict maps a raw model score into the user-facing report.
package verdict

import (
	"math"

	"github.com/veritext/detector-service/internal/models"
	"github.com/veritext/detector-service/internal/textproc"
)

// Verdict labels per confidence tier. The 0.50/0.80 cutoffs are fixed
// configuration defaults; ties fall into the lower tier.
const (
	LabelHigh   = "likely AI-generated"
	LabelMedium = "possibly AI-assisted"
	LabelLow    = "likely human-written"
)

// Assemble builds the final report from the raw score and, in detailed
// mode, the text statistics. Quick mode omits statistics even when they
// were computed. Pure single-pass transformation, no state.
func Assemble(raw models.RawScore, stats *models.TextStatistics, mode models.Mode) models.DetectionReport {
	pAI := raw.AI
	tier, label := Tier(pAI)

	report := models.DetectionReport{
		ProbabilityAI:    pAI,
		ProbabilityHuman: raw.Human,
		ProbabilityGap:   math.Abs(raw.AI - raw.Human),
		ConfidenceTier:   tier,
		VerdictLabel:     label,
		Reasons:          reasons(raw),
	}

	if mode == models.ModeDetailed && stats != nil {
		report.Statistics = stats
		report.Indicators = textproc.Indicators(*stats)
	}

	return report
}

// Tier buckets an AI probability: >0.80 High, [0.50,0.80] Medium,
// <0.50 Low.
func Tier(pAI float64) (models.Tier, string) {
	switch {
	case pAI > 0.80:
		return models.TierHigh, LabelHigh
	case pAI >= 0.50:
		return models.TierMedium, LabelMedium
	default:
		return models.TierLow, LabelLow
	}
}

func reasons(raw models.RawScore) []string {
	var out []string
	gap := math.Abs(raw.AI - raw.Human)

	if raw.AI >= raw.Human {
		switch {
		case raw.AI > 0.9:
			out = append(out, "model is highly confident the text is AI-generated")
		case raw.AI > 0.8:
			out = append(out, "clear AI-generation patterns detected")
		case raw.AI > 0.65:
			out = append(out, "text shows some AI-generation patterns")
		default:
			out = append(out, "weak AI-generation signal, borderline case")
		}
	} else {
		switch {
		case raw.Human > 0.9:
			out = append(out, "model is highly confident the text is human-written")
		case raw.Human > 0.8:
			out = append(out, "clear human writing patterns detected")
		case raw.Human > 0.65:
			out = append(out, "text shows some human writing patterns")
		default:
			out = append(out, "weak human writing signal, borderline case")
		}
	}

	switch {
	case gap > 0.5:
		out = append(out, "large gap between label probabilities, decisive verdict")
	case gap < 0.2:
		out = append(out, "label probabilities are close, possibly mixed or assisted content")
	}

	return out
}
