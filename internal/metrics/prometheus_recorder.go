package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once          sync.Once
	pushDuration  prom.Histogram
	pushOutcomes  *prom.CounterVec
	lastPush      prom.Gauge
	watcherEvents prom.Counter
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.pushDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "framecast",
			Name:      "push_duration_seconds",
			Help:      "Total duration of one render-upload-select cycle",
			Buckets:   prom.DefBuckets,
		})
		pr.pushOutcomes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "framecast",
			Name:      "push_outcomes_total",
			Help:      "Push outcomes by final status",
		}, []string{"outcome"})
		pr.lastPush = prom.NewGauge(prom.GaugeOpts{
			Namespace: "framecast",
			Name:      "last_push_timestamp_seconds",
			Help:      "Unix timestamp of the last successful push",
		})
		pr.watcherEvents = prom.NewCounter(prom.CounterOpts{
			Namespace: "framecast",
			Name:      "watcher_events_total",
			Help:      "Content file change events that triggered a push",
		})
		reg.MustRegister(pr.pushDuration, pr.pushOutcomes, pr.lastPush, pr.watcherEvents)
	})
	return pr
}

func (p *PrometheusRecorder) ObservePushDuration(d time.Duration) {
	if p == nil || p.pushDuration == nil {
		return
	}
	p.pushDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPushOutcome(outcome OutcomeLabel) {
	if p == nil || p.pushOutcomes == nil {
		return
	}
	p.pushOutcomes.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) SetLastPushTime(t time.Time) {
	if p == nil || p.lastPush == nil {
		return
	}
	p.lastPush.Set(float64(t.Unix()))
}

func (p *PrometheusRecorder) IncWatcherEvents() {
	if p == nil || p.watcherEvents == nil {
		return
	}
	p.watcherEvents.Inc()
}
