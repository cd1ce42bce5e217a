package monitor

import (
	"context"
	"fmt"
	"price-alert-bot/internal/alert"
	"price-alert-bot/internal/history"
	"price-alert-bot/internal/metrics"
	"price-alert-bot/internal/price"
	"price-alert-bot/internal/types"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// SpotFetcher reads the current price of an asset
type SpotFetcher interface {
	FetchSpot(ctx context.Context, asset types.Asset) (types.PriceReading, error)
}

// Dispatcher sends startup and move notifications
type Dispatcher interface {
	DispatchStartup(ctx context.Context, readings map[string]types.PriceReading) error
	DispatchAlert(ctx context.Context, ev types.AlertEvent, other types.PriceReading) error
}

// State of the monitor loop
type State int32

const (
	Starting State = iota
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Phase names the step of a cycle an error happened in
type Phase string

const (
	PhaseFetch    Phase = "fetch"
	PhaseRecord   Phase = "record"
	PhaseDispatch Phase = "dispatch"
)

// CycleError is one recovered failure inside a cycle
type CycleError struct {
	Asset types.Asset
	Phase Phase
	Err   error
}

func (e CycleError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Asset.Symbol, e.Phase, e.Err)
}

// CycleReport summarizes one poll cycle
type CycleReport struct {
	Readings map[string]types.PriceReading
	Alerts   []types.AlertEvent
	Errors   []CycleError
}

// Config wires a Monitor
type Config struct {
	Source     SpotFetcher
	Dispatcher Dispatcher
	History    *history.Store
	Assets     []types.Asset
	Threshold  float64
	Interval   time.Duration
	// StartupAttempts bounds the fetches tried per asset before startup gives up
	StartupAttempts int
	// StartupBackOff builds the wait policy between startup attempts
	StartupBackOff func() backoff.BackOff
	Logger         log.FieldLogger
}

// Monitor polls prices, keeps the baselines and dispatches alerts. It is the only
// writer of its history store.
type Monitor struct {
	cfg   Config
	log   log.FieldLogger
	state atomic.Int32
}

// New creates a monitor in the Starting state
func New(cfg Config) *Monitor {
	if len(cfg.Assets) == 0 {
		cfg.Assets = types.TrackedAssets
	}
	if cfg.History == nil {
		cfg.History = history.NewStore(history.DefaultSize)
	}
	if cfg.StartupAttempts <= 0 {
		cfg.StartupAttempts = 1
	}
	if cfg.StartupBackOff == nil {
		cfg.StartupBackOff = func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 2 * time.Second
			b.MaxInterval = 30 * time.Second
			return b
		}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Monitor{cfg: cfg, log: logger.WithField("component", "monitor")}
}

// State returns the current loop state
func (m *Monitor) State() State {
	return State(m.state.Load())
}

// History exposes the store for read-only consumers
func (m *Monitor) History() *history.Store {
	return m.cfg.History
}

// Run is the single-call form of Start followed by Loop, for callers that have
// nothing to do between the two. It only returns early when no baseline could be
// established.
func (m *Monitor) Run(ctx context.Context) error {
	if err := m.Start(ctx); err != nil {
		m.state.Store(int32(Stopped))
		return err
	}

	return m.Loop(ctx)
}

// Loop polls every interval until ctx is done. Start must have succeeded first.
func (m *Monitor) Loop(ctx context.Context) error {
	m.log.WithFields(log.Fields{
		"interval":  m.cfg.Interval,
		"threshold": m.cfg.Threshold,
	}).Info("🚀 Price monitor running")

	timer := time.NewTimer(m.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			m.state.Store(int32(Stopped))
			m.log.Info("Price monitor stopped")
			return ctx.Err()
		case <-timer.C:
		}

		report := m.Cycle(ctx)
		m.log.WithFields(log.Fields{
			"readings": len(report.Readings),
			"alerts":   len(report.Alerts),
			"errors":   len(report.Errors),
		}).Debug("Cycle finished")
		timer.Reset(m.cfg.Interval)
	}
}

// Start fetches every asset once, records the readings as baselines and sends the
// startup notification. Failing to fetch any asset is fatal; a failed
// notification is only logged.
func (m *Monitor) Start(ctx context.Context) error {
	m.state.Store(int32(Starting))

	readings := make(map[string]types.PriceReading, len(m.cfg.Assets))
	for _, asset := range m.cfg.Assets {
		reading, err := m.fetchBaseline(ctx, asset)
		if err != nil {
			return errors.Wrapf(err, "could not establish %s baseline", asset.Symbol)
		}
		if err := m.cfg.History.Record(asset, reading); err != nil {
			return errors.Wrapf(err, "could not record %s baseline", asset.Symbol)
		}
		metrics.LastPrice.WithLabelValues(asset.Symbol).Set(reading.Value)
		readings[asset.ID] = reading

		m.log.WithFields(log.Fields{"asset": asset.Symbol, "price": reading.Value}).Info("Baseline established")
	}

	if err := m.cfg.Dispatcher.DispatchStartup(ctx, readings); err != nil {
		m.log.WithError(err).Error("❌ Failed to send startup notification")
	}

	m.state.Store(int32(Running))
	return nil
}

func (m *Monitor) fetchBaseline(ctx context.Context, asset types.Asset) (types.PriceReading, error) {
	attempt := 0
	operation := func() (types.PriceReading, error) {
		attempt++
		metrics.Polls.WithLabelValues(asset.Symbol).Inc()

		reading, err := m.cfg.Source.FetchSpot(ctx, asset)
		if err != nil {
			metrics.FetchErrors.WithLabelValues(asset.Symbol, price.Kind(err)).Inc()
			if errors.Is(err, price.ErrInvalidArgument) {
				return reading, backoff.Permanent(err)
			}
			m.logFetchError(asset, err).WithField("attempt", attempt).Warn("Startup fetch failed")
			return reading, err
		}
		return reading, nil
	}

	notify := func(err error, wait time.Duration) {
		m.log.WithFields(log.Fields{"asset": asset.Symbol, "backoff": wait}).Info("Retrying startup fetch")
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(m.cfg.StartupBackOff()),
		backoff.WithMaxTries(uint(m.cfg.StartupAttempts)),
		backoff.WithNotify(notify),
	)
}

// Cycle runs one poll: fetch and record every asset, evaluate each against the
// baseline as it stood before this cycle, dispatch every hit independently and
// advance that asset's baseline. Failures are contained to the asset and phase
// they happened in.
func (m *Monitor) Cycle(ctx context.Context) (report CycleReport) {
	started := time.Now()
	report.Readings = make(map[string]types.PriceReading, len(m.cfg.Assets))

	defer func() {
		if r := recover(); r != nil {
			m.log.WithField("panic", r).Errorf("🔥 Panic recovered in price monitor cycle\n%s", debug.Stack())
			report.Errors = append(report.Errors, CycleError{Phase: PhaseDispatch, Err: errors.Errorf("panic: %v", r)})
		}
		metrics.CycleDuration.Observe(time.Since(started).Seconds())
	}()

	for _, asset := range m.cfg.Assets {
		metrics.Polls.WithLabelValues(asset.Symbol).Inc()

		reading, err := m.cfg.Source.FetchSpot(ctx, asset)
		if err != nil {
			metrics.FetchErrors.WithLabelValues(asset.Symbol, price.Kind(err)).Inc()
			m.logFetchError(asset, err).WithField("phase", PhaseFetch).Warn("Skipping asset this cycle")
			report.Errors = append(report.Errors, CycleError{Asset: asset, Phase: PhaseFetch, Err: err})
			continue
		}

		if err := m.cfg.History.Record(asset, reading); err != nil {
			m.log.WithError(err).WithFields(log.Fields{"asset": asset.Symbol, "phase": PhaseRecord}).Warn("Skipping asset this cycle")
			report.Errors = append(report.Errors, CycleError{Asset: asset, Phase: PhaseRecord, Err: err})
			continue
		}

		metrics.LastPrice.WithLabelValues(asset.Symbol).Set(reading.Value)
		report.Readings[asset.ID] = reading
	}

	// every baseline is read before the first dispatch of the cycle
	baselines := make(map[string]types.PriceReading, len(report.Readings))
	for _, asset := range m.cfg.Assets {
		if _, fetched := report.Readings[asset.ID]; !fetched {
			continue
		}
		if base, ok := m.cfg.History.LastAccepted(asset); ok {
			baselines[asset.ID] = base
		}
	}

	for _, asset := range m.cfg.Assets {
		current, fetched := report.Readings[asset.ID]
		base, hasBase := baselines[asset.ID]
		if !fetched || !hasBase {
			continue
		}

		m.log.WithFields(log.Fields{
			"asset":    asset.Symbol,
			"baseline": base.Value,
			"current":  current.Value,
			"diff":     current.Value - base.Value,
		}).Debug("Evaluated price move")

		ev := alert.Evaluate(asset, base, current, m.cfg.Threshold)
		if ev == nil {
			continue
		}
		report.Alerts = append(report.Alerts, *ev)

		if err := m.cfg.Dispatcher.DispatchAlert(ctx, *ev, m.other(asset, report.Readings)); err != nil {
			m.log.WithError(err).WithFields(log.Fields{"asset": asset.Symbol, "phase": PhaseDispatch}).Error("❌ Failed to dispatch price alert")
			report.Errors = append(report.Errors, CycleError{Asset: asset, Phase: PhaseDispatch, Err: err})
		}

		// the alert counts as sent even if delivery failed; notifications are never retried
		m.cfg.History.AdvanceBaseline(asset, current)
	}

	return report
}

// other picks the reading of the first other tracked asset, from this cycle if it
// was fetched, otherwise its baseline
func (m *Monitor) other(asset types.Asset, readings map[string]types.PriceReading) types.PriceReading {
	for _, a := range m.cfg.Assets {
		if a.ID == asset.ID {
			continue
		}
		if r, ok := readings[a.ID]; ok {
			return r
		}
		if r, ok := m.cfg.History.LastAccepted(a); ok {
			return r
		}
	}
	return types.PriceReading{}
}

func (m *Monitor) logFetchError(asset types.Asset, err error) *log.Entry {
	entry := m.log.WithError(err).WithFields(log.Fields{
		"asset": asset.Symbol,
		"kind":  price.Kind(err),
	})

	var mr *price.MalformedResponseError
	if errors.As(err, &mr) {
		entry = entry.WithField("payload", mr.Payload)
		m.log.Debugf("malformed response from %s:\n%s", mr.Source, spew.Sdump(mr))
	}
	return entry
}
