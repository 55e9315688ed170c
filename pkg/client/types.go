package client

import "time"

// DetectionRequest represents a request to the detector service
type DetectionRequest struct {
	ReqID    string `json:"req_id"`
	TraceID  string `json:"trace_id,omitempty"`
	Input    string `json:"input"`
	MaxUnits int    `json:"max_units,omitempty"`
	Mode     string `json:"mode,omitempty"`
	ReplyTo  string `json:"reply_to,omitempty"`
}

// Statistics mirrors the detailed-mode statistics block.
type Statistics struct {
	WordCount         int     `json:"word_count"`
	SentenceCount     int     `json:"sentence_count"`
	AvgSentenceLength float64 `json:"avg_sentence_length"`
	AvgWordLength     float64 `json:"avg_word_length"`
	TypeTokenRatio    float64 `json:"type_token_ratio"`
	PunctuationRatio  float64 `json:"punctuation_ratio"`
	TransitionRatio   float64 `json:"transition_words_ratio"`
	SentenceStdDev    float64 `json:"sentence_length_stddev"`
}

// Report is the detection verdict for one text.
type Report struct {
	ProbabilityAI    float64     `json:"probability_ai"`
	ProbabilityHuman float64     `json:"probability_human"`
	ProbabilityGap   float64     `json:"probability_gap"`
	ConfidenceTier   string      `json:"confidence_tier"`
	VerdictLabel     string      `json:"verdict_label"`
	Reasons          []string    `json:"reasons,omitempty"`
	Indicators       []string    `json:"indicators,omitempty"`
	Statistics       *Statistics `json:"statistics,omitempty"`
}

// DetectionResponse represents a response from the detector service
type DetectionResponse struct {
	ReqID         string  `json:"req_id"`
	Report        *Report `json:"report,omitempty"`
	WordsIn       int     `json:"words_in"`
	WordsAnalyzed int     `json:"words_analyzed"`
	CacheHit      bool    `json:"cache_hit"`
	DurationMs    int64   `json:"duration_ms"`
	Error         string  `json:"error,omitempty"`
	ErrorCode     string  `json:"error_code,omitempty"`
}

// BatchRequest asks for chunked detection of a long text.
type BatchRequest struct {
	ReqID      string `json:"req_id"`
	TraceID    string `json:"trace_id,omitempty"`
	Input      string `json:"input"`
	ChunkWords int    `json:"chunk_words,omitempty"`
	MaxUnits   int    `json:"max_units,omitempty"`
	Mode       string `json:"mode,omitempty"`
	ReplyTo    string `json:"reply_to,omitempty"`
}

// ChunkReport is one window of a batch response.
type ChunkReport struct {
	Index     int    `json:"index"`
	StartWord int    `json:"start_word"`
	EndWord   int    `json:"end_word"`
	Report    Report `json:"report"`
	CacheHit  bool   `json:"cache_hit"`
}

// BatchResponse represents a chunked detection response.
type BatchResponse struct {
	ReqID      string        `json:"req_id"`
	Chunks     []ChunkReport `json:"chunks,omitempty"`
	DurationMs int64         `json:"duration_ms"`
	Error      string        `json:"error,omitempty"`
	ErrorCode  string        `json:"error_code,omitempty"`
}

// CacheStats reports the service's memo-table counters.
type CacheStats struct {
	Hits     int64 `json:"hits"`
	Misses   int64 `json:"misses"`
	Entries  int   `json:"entries"`
	Capacity int   `json:"capacity"`
}

// HealthStatus represents detector health information
type HealthStatus struct {
	ModelName    string     `json:"model_name"`
	State        string     `json:"state"`
	Reason       string     `json:"reason,omitempty"`
	ModelVersion string     `json:"model_version,omitempty"`
	LastActivity time.Time  `json:"last_activity"`
	Cache        CacheStats `json:"cache"`
	Endpoint     string     `json:"endpoint"`
	NATSTopic    string     `json:"nats_topic"`
	Version      string     `json:"version"`
}
