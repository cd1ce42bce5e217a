package commands

import (
	"context"
	"price-alert-bot/internal/alert"
	"price-alert-bot/internal/types"

	log "github.com/sirupsen/logrus"
)

// CommandStats returns the overview chart and a caption with the baseline prices.
// The image is nil when the chart could not be drawn.
func (h *Handler) CommandStats(ctx context.Context) ([]byte, string) {
	log.Debug("processing command /stats")

	readings := make(map[string]types.PriceReading)
	for _, st := range h.History.Snapshot(types.TrackedAssets) {
		if st.HasBaseline {
			readings[st.Asset.ID] = st.Baseline
		}
	}
	caption := alert.StatsMessage(readings)

	if h.Cache != nil {
		if cached, found := h.Cache.Get("stats"); found {
			log.Debug("returning cached overview chart")
			return cached.ChartData, caption
		}
	}

	image := h.Overview.Overview(ctx)
	if image != nil && h.Cache != nil {
		h.Cache.Set("stats", image, caption, statsCacheTTL)
	}
	return image, caption
}
