package metrics

import "time"

// Outcome classifies how a prediction request ended.
type Outcome string

const (
	OutcomeSuccess      Outcome = "success"
	OutcomeMissingField Outcome = "missing_field"
	OutcomeMalformed    Outcome = "malformed_input"
	OutcomeModelError   Outcome = "model_error"
	OutcomeUnavailable  Outcome = "model_unavailable"
)

// ClientError reports whether the outcome was caused by the request.
func (o Outcome) ClientError() bool {
	return o == OutcomeMissingField || o == OutcomeMalformed
}

// PredictionEvent describes one handled prediction request.
type PredictionEvent struct {
	ID              string
	Outcome         Outcome
	Field           string
	Prediction      float64
	Features        []float64
	LocationImputed bool
	Cached          bool
	Latency         time.Duration
	Time            time.Time
}

// MetricsSink records prediction events for observability purposes.
type MetricsSink interface {
	RecordPrediction(ev PredictionEvent) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordPrediction(PredictionEvent) error { return nil }

// Closer is implemented by sinks holding connections.
type Closer interface {
	Close() error
}
