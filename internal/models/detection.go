package models

import "time"

// Mode selects how much detail a detection report carries.
type Mode string

const (
	ModeQuick    Mode = "quick"
	ModeDetailed Mode = "detailed"
)

// Tier is the three-level confidence bucketing of the AI probability.
type Tier string

const (
	TierHigh   Tier = "High"
	TierMedium Tier = "Medium"
	TierLow    Tier = "Low"
)

// RawScore is the model's probability distribution over the two labels.
// Human + AI sums to 1 within floating tolerance.
type RawScore struct {
	Human float64 `json:"human"`
	AI    float64 `json:"ai-generated"`
}

// TextStatistics holds lexical metrics derived from the analyzed text.
// They are explanatory only and never feed into the probability.
type TextStatistics struct {
	WordCount         int     `json:"word_count"`
	SentenceCount     int     `json:"sentence_count"`
	AvgSentenceLength float64 `json:"avg_sentence_length"`
	AvgWordLength     float64 `json:"avg_word_length"`
	TypeTokenRatio    float64 `json:"type_token_ratio"`
	PunctuationRatio  float64 `json:"punctuation_ratio"`
	TransitionRatio   float64 `json:"transition_words_ratio"`
	SentenceStdDev    float64 `json:"sentence_length_stddev"`
}

// DetectionReport is the final per-request result handed to callers.
type DetectionReport struct {
	ProbabilityAI    float64         `json:"probability_ai"`
	ProbabilityHuman float64         `json:"probability_human"`
	ProbabilityGap   float64         `json:"probability_gap"`
	ConfidenceTier   Tier            `json:"confidence_tier"`
	VerdictLabel     string          `json:"verdict_label"`
	Reasons          []string        `json:"reasons,omitempty"`
	Indicators       []string        `json:"indicators,omitempty"`
	Statistics       *TextStatistics `json:"statistics,omitempty"`
}

// DetectionLog represents a logged detection request.
type DetectionLog struct {
	Timestamp     time.Time `json:"ts"`
	TraceID       string    `json:"trace_id"`
	ReqID         string    `json:"req_id"`
	WorkerID      string    `json:"worker_id"`
	Source        string    `json:"source"`
	ReplyTo       string    `json:"reply_to"`
	Input         string    `json:"input"`
	InputLen      int       `json:"input_len"`
	WordsIn       int       `json:"words_in"`
	WordsAnalyzed int       `json:"words_analyzed"`
	Mode          string    `json:"mode"`
	ProbabilityAI float64   `json:"probability_ai"`
	Tier          string    `json:"tier"`
	CacheHit      bool      `json:"cache_hit"`
	DurationMs    int64     `json:"dur_ms"`
	Status        string    `json:"status"`
	Error         string    `json:"error"`
}
