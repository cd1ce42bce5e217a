package alert

import (
	"context"
	"os"
	"path/filepath"
	"price-alert-bot/internal/metrics"
	"price-alert-bot/internal/types"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// SeriesFetcher fetches the chart window for an asset
type SeriesFetcher interface {
	FetchSeries(ctx context.Context, asset types.Asset, days int) ([]types.PriceReading, error)
}

// Renderer turns price series into a PNG
type Renderer interface {
	Render(req types.ChartRequest, series ...[]types.PriceReading) ([]byte, error)
}

// Notifier delivers a caption with an optional image to the configured chat
type Notifier interface {
	Notify(ctx context.Context, text string, image []byte) error
}

// Journal records every alert handed to the notifier
type Journal interface {
	RecordAlert(ctx context.Context, ev types.AlertEvent, delivered bool) error
}

// Config wires a Dispatcher
type Config struct {
	Source    SeriesFetcher
	Renderer  Renderer
	Notifier  Notifier
	Journal   Journal // optional
	ChartDays int
	ImageDir  string // chart artifacts are written here, skipped when empty
	Logger    log.FieldLogger
}

// Dispatcher renders charts and sends notifications. It keeps no state between calls.
type Dispatcher struct {
	cfg Config
	log log.FieldLogger
}

// startupChartName matches the file name the overview chart has always used
const startupChartName = "xmr_zec.png"

// NewDispatcher creates a dispatcher
func NewDispatcher(cfg Config) *Dispatcher {
	if cfg.ChartDays <= 0 {
		cfg.ChartDays = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Dispatcher{cfg: cfg, log: logger.WithField("component", "dispatcher")}
}

// DispatchStartup sends the combined overview chart with every spot price in the caption
func (d *Dispatcher) DispatchStartup(ctx context.Context, readings map[string]types.PriceReading) error {
	image := d.Overview(ctx)
	text := StartupMessage(readings)

	if err := d.cfg.Notifier.Notify(ctx, text, image); err != nil {
		metrics.NotifyFailures.Inc()
		return errors.Wrap(err, "startup notification")
	}

	d.log.WithField("with_chart", image != nil).Info("Startup notification sent")
	return nil
}

// DispatchAlert sends a single-asset chart for the asset that moved. The other
// asset's price is only logged; it never goes into the message.
func (d *Dispatcher) DispatchAlert(ctx context.Context, ev types.AlertEvent, other types.PriceReading) error {
	logger := d.log.WithFields(log.Fields{
		"asset":     ev.Asset.Symbol,
		"direction": ev.Direction,
		"magnitude": ev.Magnitude,
	})
	if other.Asset.ID != "" {
		logger = logger.WithField("other_"+other.Asset.Symbol, other.Value)
	}

	image := d.single(ctx, ev.Asset)
	text := MoveMessage(ev)

	err := d.cfg.Notifier.Notify(ctx, text, image)
	metrics.AlertsDispatched.WithLabelValues(ev.Asset.Symbol, string(ev.Direction)).Inc()
	if err != nil {
		metrics.NotifyFailures.Inc()
	}

	if d.cfg.Journal != nil {
		if jerr := d.cfg.Journal.RecordAlert(ctx, ev, err == nil); jerr != nil {
			logger.WithError(jerr).Warn("Failed to journal alert")
		}
	}

	if err != nil {
		return errors.Wrapf(err, "%s alert notification", ev.Asset.Symbol)
	}

	logger.WithField("with_chart", image != nil).Info("Price alert sent")
	return nil
}

// Overview renders the two-panel chart of every tracked asset. Nil when rendering failed.
func (d *Dispatcher) Overview(ctx context.Context) []byte {
	series := make([][]types.PriceReading, len(types.TrackedAssets))

	g, gctx := errgroup.WithContext(ctx)
	for i, a := range types.TrackedAssets {
		i, a := i, a
		g.Go(func() error {
			s, err := d.cfg.Source.FetchSeries(gctx, a, d.cfg.ChartDays)
			if err != nil {
				return err
			}
			series[i] = s
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		d.log.WithError(err).Warn("Overview series unavailable, sending text only")
		metrics.RenderFailures.Inc()
		return nil
	}

	return d.render(types.ChartRequest{Mode: types.ChartStartup}, startupChartName, series...)
}

func (d *Dispatcher) single(ctx context.Context, asset types.Asset) []byte {
	s, err := d.cfg.Source.FetchSeries(ctx, asset, d.cfg.ChartDays)
	if err != nil {
		d.log.WithError(err).WithField("asset", asset.Symbol).Warn("Series unavailable, sending text only")
		metrics.RenderFailures.Inc()
		return nil
	}
	return d.render(types.ChartRequest{Mode: types.ChartSingle, Asset: asset}, asset.ID+".png", s)
}

// render never fails the dispatch: a chart that cannot be drawn means a text-only alert
func (d *Dispatcher) render(req types.ChartRequest, name string, series ...[]types.PriceReading) []byte {
	image, err := d.cfg.Renderer.Render(req, series...)
	if err != nil {
		d.log.WithError(err).WithField("mode", req.Mode).Warn("Chart render failed, sending text only")
		metrics.RenderFailures.Inc()
		return nil
	}

	if d.cfg.ImageDir != "" {
		path := filepath.Join(d.cfg.ImageDir, name)
		if err := writeArtifact(path, image); err != nil {
			d.log.WithError(err).WithField("path", path).Warn("Could not write chart artifact")
		}
	}
	return image
}

func writeArtifact(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create image dir")
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(err, "write chart")
	}
	return errors.Wrap(os.Rename(tmp, path), "rename chart")
}
