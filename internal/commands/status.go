package commands

import (
	"fmt"
	"price-alert-bot/internal/types"
	"price-alert-bot/lib/helpers"
	"price-alert-bot/lib/translation"
	"strings"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
)

// CommandStatus reports the baseline and latest reading of every tracked asset, as MarkdownV2
func (h *Handler) CommandStatus() string {
	log.Debug("processing command /status")

	now := h.clock()
	var b strings.Builder
	b.WriteString("*" + helpers.EscapeMarkdownV2(translation.Translate("status")) + "*\n")

	for _, st := range h.History.Snapshot(types.TrackedAssets) {
		b.WriteString("\n")
		if !st.HasBaseline {
			b.WriteString(helpers.EscapeMarkdownV2(translation.Translate("%s: no price yet", st.Asset.Label())))
			b.WriteString("\n")
			continue
		}

		b.WriteString(fmt.Sprintf("*%s*\n", helpers.EscapeMarkdownV2(st.Asset.Label())))
		b.WriteString(helpers.EscapeMarkdownV2(translation.Translate("▫️ baseline $%s, set %s",
			helpers.FormatUSD(st.Baseline.Value),
			relTime(st.Baseline.Timestamp, now))))
		b.WriteString("\n")
		b.WriteString(helpers.EscapeMarkdownV2(translation.Translate("▫️ last $%s, %s (%s readings)",
			helpers.FormatUSD(st.Latest.Value),
			relTime(st.Latest.Timestamp, now),
			humanize.Comma(int64(st.Count)))))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpers.EscapeMarkdownV2(translation.Translate("threshold $%s, every %s",
		helpers.FormatUSD(h.Threshold), h.Interval)))
	return b.String()
}
