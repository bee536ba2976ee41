package analytics

import "time"

type EventType string

const (
	EventQuery      EventType = "query"
	EventZeroResult EventType = "zero_result"
	EventQueryError EventType = "query_error"
)

// QueryEvent describes one resolved (or failed) theme query.
type QueryEvent struct {
	Type      EventType `json:"type"`
	Query     string    `json:"query"`
	Words     []string  `json:"words,omitempty"`
	Themes    []string  `json:"themes"`
	Matched   int       `json:"matched_phrases"`
	LatencyMs int64     `json:"latency_ms"`
	CacheHit  bool      `json:"cache_hit"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// Key is the partition key; events of the same query land together.
func (e QueryEvent) Key() string {
	return e.Query
}
