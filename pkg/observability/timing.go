package observability

import "time"

// Timer measures one request and records it as metrics when stopped.
type Timer struct {
	start   time.Time
	metrics Metrics
	tags    []Tag
}

// StartTimer starts timing. A nil metrics discards the measurements.
func StartTimer(metrics Metrics) *Timer {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &Timer{start: time.Now(), metrics: metrics}
}

// WithTags adds tags to the timer for metrics labeling.
func (t *Timer) WithTags(tags ...Tag) *Timer {
	t.tags = append(t.tags, tags...)
	return t
}

// Elapsed returns the elapsed time without stopping the timer.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// Stop records the request count and duration under operation, and an
// error count when failed is set.
func (t *Timer) Stop(operation string, failed bool) time.Duration {
	duration := time.Since(t.start)
	tags := append(append([]Tag{}, t.tags...), T("operation", operation))

	t.metrics.Counter(MetricHTTPRequests, 1, tags...)
	t.metrics.Timing(MetricHTTPRequestDuration, duration, tags...)
	if failed {
		t.metrics.Counter(MetricHTTPErrors, 1, tags...)
	}
	return duration
}
