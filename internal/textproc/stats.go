package textproc

import (
	"math"
	"regexp"
	"strings"

	"github.com/veritext/detector-service/internal/models"
)

var (
	sentenceSplit = regexp.MustCompile(`[.!?]+`)
	punctFinder   = regexp.MustCompile(`[,.!?;:]`)
)

var transitionWords = map[string]struct{}{
	"however": {}, "moreover": {}, "furthermore": {}, "additionally": {},
	"consequently": {}, "therefore": {}, "thus": {}, "hence": {},
}

const wordTrimCutset = ".,!?;:\"'()[]"

// Analyze computes lexical statistics for text. It never fails: degenerate
// input (single word, no sentence boundaries) yields zeroed defaults instead
// of dividing by zero.
func Analyze(text string) models.TextStatistics {
	words := strings.Fields(text)
	sentences := splitSentences(text)

	stats := models.TextStatistics{
		WordCount:     len(words),
		SentenceCount: len(sentences),
	}

	if len(sentences) > 0 {
		stats.AvgSentenceLength = round2(float64(len(words)) / float64(len(sentences)))
	}

	if len(words) > 0 {
		totalLen := 0
		unique := make(map[string]struct{}, len(words))
		transitions := 0
		for _, w := range words {
			totalLen += len(w)
			lw := strings.Trim(strings.ToLower(w), wordTrimCutset)
			if lw == "" {
				continue
			}
			unique[lw] = struct{}{}
			if _, ok := transitionWords[lw]; ok {
				transitions++
			}
		}
		stats.AvgWordLength = round2(float64(totalLen) / float64(len(words)))
		stats.TypeTokenRatio = round3(float64(len(unique)) / float64(len(words)))
		stats.TransitionRatio = round4(float64(transitions) / float64(len(words)))
	}

	if len(text) > 0 {
		punct := punctFinder.FindAllString(text, -1)
		stats.PunctuationRatio = round4(float64(len(punct)) / float64(len(text)))
	}

	if len(sentences) > 1 {
		lengths := make([]float64, len(sentences))
		for i, s := range sentences {
			lengths[i] = float64(len(strings.Fields(s)))
		}
		_, sd := meanStd(lengths)
		stats.SentenceStdDev = round2(sd)
	}

	return stats
}

// Indicators derives human-readable AI writing indicators from statistics.
// The bands mirror the heuristics the report surfaces alongside the model
// probability; they do not influence it.
func Indicators(stats models.TextStatistics) []string {
	var out []string
	if stats.SentenceCount > 1 && stats.SentenceStdDev < 3 {
		out = append(out, "low variation in sentence length")
	}
	if stats.TypeTokenRatio > 0.7 {
		out = append(out, "very high vocabulary diversity")
	}
	if stats.TransitionRatio > 0.05 {
		out = append(out, "heavy use of transition words")
	}
	if stats.AvgSentenceLength >= 15 && stats.AvgSentenceLength <= 25 {
		out = append(out, "average sentence length in the standard 15-25 word band")
	}
	if stats.PunctuationRatio >= 0.03 && stats.PunctuationRatio <= 0.05 {
		out = append(out, "regular punctuation usage")
	}
	return out
}

func splitSentences(text string) []string {
	parts := sentenceSplit.Split(text, -1)
	out := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

func meanStd(values []float64) (mean, sd float64) {
	if len(values) == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	if len(values) == 1 {
		return mean, 0
	}
	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
