// Package metrics exposes Prometheus collectors for the schedule manager.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "scheduler"

// Recorder counts cache activity, conflict outcomes and storage failures.
// A nil *Recorder discards every observation.
type Recorder struct {
	cacheLookups   *prometheus.CounterVec
	conflictChecks *prometheus.CounterVec
	storageErrors  *prometheus.CounterVec
	sessionsWrites *prometheus.CounterVec
}

// NewRecorder creates collectors and registers them with reg. A nil reg
// leaves the collectors unregistered.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_cache_lookups_total",
			Help:      "Session cache lookups by result.",
		}, []string{"result"}),
		conflictChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conflict_checks_total",
			Help:      "Conflict checks by outcome.",
		}, []string{"status"}),
		storageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_errors_total",
			Help:      "Storage failures by operation.",
		}, []string{"operation"}),
		sessionsWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_writes_total",
			Help:      "Successful session writes by operation.",
		}, []string{"operation"}),
	}
	if reg != nil {
		reg.MustRegister(r.cacheLookups, r.conflictChecks, r.storageErrors, r.sessionsWrites)
	}
	return r
}

// CacheHit records a lookup served from the session cache.
func (r *Recorder) CacheHit() {
	if r == nil {
		return
	}
	r.cacheLookups.WithLabelValues("hit").Inc()
}

// CacheMiss records a lookup that fell through to storage.
func (r *Recorder) CacheMiss() {
	if r == nil {
		return
	}
	r.cacheLookups.WithLabelValues("miss").Inc()
}

// ConflictChecked records the outcome of a conflict check.
func (r *Recorder) ConflictChecked(status string) {
	if r == nil {
		return
	}
	r.conflictChecks.WithLabelValues(status).Inc()
}

// StorageError records a failed repository call.
func (r *Recorder) StorageError(operation string) {
	if r == nil {
		return
	}
	r.storageErrors.WithLabelValues(operation).Inc()
}

// SessionWritten records a successful add, update or delete.
func (r *Recorder) SessionWritten(operation string) {
	if r == nil {
		return
	}
	r.sessionsWrites.WithLabelValues(operation).Inc()
}

// Snapshot is a point-in-time view of the counters, keyed by label value.
type Snapshot struct {
	CacheLookups   map[string]float64
	ConflictChecks map[string]float64
	StorageErrors  map[string]float64
	SessionWrites  map[string]float64
}

// Snapshot collects the current counter values.
func (r *Recorder) Snapshot() Snapshot {
	if r == nil {
		return Snapshot{}
	}
	return Snapshot{
		CacheLookups:   collect(r.cacheLookups),
		ConflictChecks: collect(r.conflictChecks),
		StorageErrors:  collect(r.storageErrors),
		SessionWrites:  collect(r.sessionsWrites),
	}
}

func collect(vec *prometheus.CounterVec) map[string]float64 {
	ch := make(chan prometheus.Metric)
	go func() {
		vec.Collect(ch)
		close(ch)
	}()

	values := make(map[string]float64)
	for metric := range ch {
		var m dto.Metric
		if err := metric.Write(&m); err != nil {
			continue
		}
		labels := m.GetLabel()
		if len(labels) == 0 || m.GetCounter() == nil {
			continue
		}
		values[labels[0].GetValue()] = m.GetCounter().GetValue()
	}
	return values
}
