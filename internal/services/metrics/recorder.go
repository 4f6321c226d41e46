// Package metrics records latency and outcome of calls to remote services.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	outcomeSuccess = "success"
	outcomeError   = "error"
)

// Recorder measures remote calls into a histogram labelled by bucket and outcome.
type Recorder struct {
	l        *zap.Logger
	duration *prometheus.HistogramVec
}

// NewRecorder creates recorder and registers its collector on reg.
func NewRecorder(l *zap.Logger, reg prometheus.Registerer) (*Recorder, error) {
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "injective_dex",
		Name:      "request_duration_seconds",
		Help:      "Duration of calls to remote services.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"bucket", "outcome"})

	if err := reg.Register(duration); err != nil {
		return nil, err
	}

	return &Recorder{l: l, duration: duration}, nil
}

// Observe records a finished call.
func (r *Recorder) Observe(bucket string, elapsed time.Duration, err error) {
	if r == nil {
		return
	}

	outcome := outcomeSuccess
	if err != nil {
		outcome = outcomeError
		r.l.Warn("remote call failed", zap.String("bucket", bucket), zap.Duration("elapsed", elapsed), zap.Error(err))
	}

	r.duration.WithLabelValues(bucket, outcome).Observe(elapsed.Seconds())
}

// SendAndRecord runs fn and records it under bucket.
func SendAndRecord[T any](ctx context.Context, r *Recorder, bucket string, fn func(ctx context.Context) (T, error)) (T, error) {
	start := time.Now()
	res, err := fn(ctx)
	r.Observe(bucket, time.Since(start), err)

	return res, err
}
