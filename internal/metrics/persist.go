package metrics

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

// Sample is one persisted counter value. Unlabeled counters leave both label fields empty;
// two-label vectors store the first label value as LabelKey and the second as LabelValue.
type Sample struct {
	Name       string
	LabelKey   string
	LabelValue string
	Value      float64
}

// Store persists counter values between restarts
type Store interface {
	SaveMetrics(ctx context.Context, samples []Sample) error
	GetMetric(ctx context.Context, metricName string) (float64, error)
	GetMetricsWithLabels(ctx context.Context, metricName string) (map[string]map[string]float64, error)
}

var persistMu sync.Mutex

// LoadFrom seeds the counters with the values saved by the previous run
func LoadFrom(ctx context.Context, store Store) {
	persistMu.Lock()
	defer persistMu.Unlock()

	for name, counter := range plainCounters() {
		v, err := store.GetMetric(ctx, name)
		if err != nil {
			log.WithError(err).WithField("metric", name).Warn("Failed to load metric")
			continue
		}
		counter.Add(v)
	}

	alerts, err := store.GetMetricsWithLabels(ctx, "alerts_dispatched")
	if err != nil {
		log.WithError(err).Warn("Failed to load labeled metrics")
		return
	}
	for asset, byDirection := range alerts {
		for direction, value := range byDirection {
			AlertsDispatched.WithLabelValues(asset, direction).Add(value)
		}
	}

	log.Info("Metrics loaded from database.")
}

// SaveTo writes every persisted counter in one batch
func SaveTo(ctx context.Context, store Store) {
	persistMu.Lock()
	defer persistMu.Unlock()

	samples := Snapshot()
	if err := store.SaveMetrics(ctx, samples); err != nil {
		log.WithError(err).Error("Failed to save metrics")
		return
	}

	log.WithField("samples", len(samples)).Info("Metrics saved to database.")
}

// Snapshot reads the current value of every persisted counter
func Snapshot() []Sample {
	var samples []Sample
	for name, counter := range plainCounters() {
		samples = append(samples, Sample{Name: name, Value: GetMetricValue(counter)})
	}
	for labels, value := range collectLabeled(AlertsDispatched, "asset", "direction") {
		samples = append(samples, Sample{Name: "alerts_dispatched", LabelKey: labels[0], LabelValue: labels[1], Value: value})
	}
	return samples
}

func plainCounters() map[string]prometheus.Counter {
	return map[string]prometheus.Counter{
		"commands_processed": CommandsProcessed,
		"messages_handled":   MessagesHandled,
		"notify_failures":    NotifyFailures,
		"render_failures":    RenderFailures,
	}
}
