package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	log "github.com/sirupsen/logrus"
	"sync"
)

const (
	namespace = "pricebot"
	subsystem = "monitor"
)

var (
	Polls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "polls_total",
		Help:      "Spot price fetches attempted, per asset",
	}, []string{"asset"})

	FetchErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "fetch_errors_total",
		Help:      "Failed spot price fetches, per asset and error kind",
	}, []string{"asset", "kind"})

	AlertsDispatched = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "alerts_dispatched_total",
		Help:      "Threshold alerts handed to the notifier",
	}, []string{"asset", "direction"})

	NotifyFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "notify_failures_total",
		Help:      "Notifications the messaging channel did not accept",
	})

	RenderFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "render_failures_total",
		Help:      "Charts that could not be drawn, alert sent as text",
	})

	LastPrice = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "last_price_usd",
		Help:      "Last recorded USD price",
	}, []string{"asset"})

	CycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "cycle_duration_seconds",
		Help:      "Time spent in one poll cycle, fetch to last dispatch",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
	})

	CommandsProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "telegram_bot",
		Name:      "commands_processed",
		Help:      "The total number of processed commands",
	})

	MessagesHandled = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "telegram_bot",
		Name:      "messages_handled",
		Help:      "The total number of handled messages",
	})
)

var registerOnce sync.Once

// Register adds every collector to reg. Safe to call more than once.
func Register(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(Polls, FetchErrors, AlertsDispatched, NotifyFailures, RenderFailures,
			LastPrice, CycleDuration, CommandsProcessed, MessagesHandled)
	})
}

// GetMetricValue reads the current value of a single counter or gauge
func GetMetricValue(metric prometheus.Collector) float64 {
	var metricValue float64
	metricChan := make(chan prometheus.Metric, 1)
	metric.Collect(metricChan)
	close(metricChan)

	metricProto := &dto.Metric{}
	if err := (<-metricChan).Write(metricProto); err != nil {
		log.Printf("Failed to read metric value: %v", err)
		return 0
	}

	if metricProto.Counter != nil {
		metricValue = metricProto.Counter.GetValue()
	} else if metricProto.Gauge != nil {
		metricValue = metricProto.Gauge.GetValue()
	}
	return metricValue
}

// collectLabeled returns the value of every child of a two-label vector keyed by both label values
func collectLabeled(vec prometheus.Collector, first, second string) map[[2]string]float64 {
	out := make(map[[2]string]float64)

	metricChan := make(chan prometheus.Metric, 16)
	go func() {
		vec.Collect(metricChan)
		close(metricChan)
	}()

	for metric := range metricChan {
		metricProto := &dto.Metric{}
		if err := metric.Write(metricProto); err != nil {
			log.Printf("Failed to read labeled metric: %v", err)
			continue
		}
		var a, b string
		for _, label := range metricProto.Label {
			switch label.GetName() {
			case first:
				a = label.GetValue()
			case second:
				b = label.GetValue()
			}
		}
		out[[2]string{a, b}] = metricProto.GetCounter().GetValue()
	}
	return out
}
