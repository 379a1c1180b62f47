package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics observes gateway synchronization runs.
type SyncMetrics struct {
	runs     *prometheus.CounterVec
	records  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewSyncMetrics registers gateway sync metrics on the provided registerer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gateway_sync_runs_total",
		Help:      "Completed gateway sync runs by terminal status.",
	}, []string{"gateway_type", "status"})
	records := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gateway_sync_records_total",
		Help:      "Records upserted by gateway sync runs, by entity.",
	}, []string{"gateway_type", "entity"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "gateway_sync_duration_seconds",
		Help:      "Duration of gateway sync runs in seconds.",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
	}, []string{"gateway_type"})
	reg.MustRegister(runs, records, duration)
	return &SyncMetrics{
		runs:     runs,
		records:  records,
		duration: duration,
	}
}

// ObserveRun records one finished sync run.
func (s *SyncMetrics) ObserveRun(gatewayType, status string, duration time.Duration) {
	if s == nil || s.runs == nil {
		return
	}
	s.runs.WithLabelValues(normalizeLabel(gatewayType), normalizeLabel(status)).Inc()
	s.duration.WithLabelValues(normalizeLabel(gatewayType)).Observe(duration.Seconds())
}

// AddRecords counts upserted records for one entity type.
func (s *SyncMetrics) AddRecords(gatewayType, entity string, count int) {
	if s == nil || s.records == nil || count <= 0 {
		return
	}
	s.records.WithLabelValues(normalizeLabel(gatewayType), normalizeLabel(entity)).Add(float64(count))
}
