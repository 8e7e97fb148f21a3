// Package metrics defines observability hooks for push operations.
// Implementations may forward to Prometheus; the NoopRecorder allows
// optional injection when metrics are not configured.
package metrics

import "time"

// OutcomeLabel enumerates push result categories for counters.
type OutcomeLabel string

const (
	OutcomeSuccess  OutcomeLabel = "success"
	OutcomeFailed   OutcomeLabel = "failed"
	OutcomeCanceled OutcomeLabel = "canceled"
)

// Recorder defines the hooks the daemon calls around each push.
type Recorder interface {
	ObservePushDuration(d time.Duration)
	IncPushOutcome(outcome OutcomeLabel)
	SetLastPushTime(t time.Time)
	IncWatcherEvents()
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObservePushDuration(time.Duration) {}
func (NoopRecorder) IncPushOutcome(OutcomeLabel)       {}
func (NoopRecorder) SetLastPushTime(time.Time)         {}
func (NoopRecorder) IncWatcherEvents()                 {}
