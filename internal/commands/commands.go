package commands

import (
	"context"
	"price-alert-bot/internal/chart"
	"price-alert-bot/internal/history"
	"price-alert-bot/internal/types"
	"price-alert-bot/lib/translation"
	"time"

	"github.com/dustin/go-humanize"
)

// StateReader gives read-only access to the monitor's price history
type StateReader interface {
	Snapshot(assets []types.Asset) []history.AssetState
}

// OverviewRenderer draws the two-panel chart from freshly fetched series
type OverviewRenderer interface {
	Overview(ctx context.Context) []byte
}

// AlertLister reads the alert journal
type AlertLister interface {
	RecentAlerts(ctx context.Context, limit int) ([]types.AlertRecord, error)
}

// Handler answers the inbound chat commands. It only reads monitor state.
type Handler struct {
	History   StateReader
	Overview  OverviewRenderer
	Journal   AlertLister // optional
	Threshold float64
	Interval  time.Duration
	Cache     *chart.Cache

	now func() time.Time
}

// statsCacheTTL is how long a /stats chart is reused
const statsCacheTTL = 5 * time.Minute

// relTime renders then relative to now, e.g. "5 minutes ago"
func relTime(then, now time.Time) string {
	return humanize.RelTime(then, now, translation.Translate("ago"), translation.Translate("from now"))
}

func (h *Handler) clock() time.Time {
	if h.now != nil {
		return h.now()
	}
	return time.Now()
}
