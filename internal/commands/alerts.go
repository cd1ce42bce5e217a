package commands

import (
	"context"
	"fmt"
	"price-alert-bot/internal/types"
	"price-alert-bot/lib/helpers"
	"price-alert-bot/lib/translation"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const recentAlertsLimit = 10

// CommandAlerts lists the most recent journaled alerts, as MarkdownV2
func (h *Handler) CommandAlerts(ctx context.Context) (string, error) {
	log.Debug("processing command /alerts")

	if h.Journal == nil {
		return helpers.EscapeMarkdownV2(translation.Translate("alert journal is disabled")), nil
	}

	alerts, err := h.Journal.RecentAlerts(ctx, recentAlertsLimit)
	if err != nil {
		return "", errors.Wrap(err, "command /alerts")
	}
	if len(alerts) == 0 {
		return helpers.EscapeMarkdownV2(translation.Translate("no alerts sent yet")), nil
	}

	now := h.clock()
	var b strings.Builder
	b.WriteString("*" + helpers.EscapeMarkdownV2(translation.Translate("recent alerts")) + "*\n\n")
	for _, a := range alerts {
		arrow := "↓"
		if a.Direction == types.Up {
			arrow = "↑"
		}
		line := fmt.Sprintf("%s %s $%s → $%s (%s)", a.Symbol, arrow,
			helpers.FormatUSD(a.Magnitude), helpers.FormatUSD(a.Price),
			relTime(a.CreatedAt, now))
		if !a.Delivered {
			line += " " + translation.Translate("not delivered")
		}
		b.WriteString(helpers.EscapeMarkdownV2(line))
		b.WriteString("\n")
	}
	return b.String(), nil
}
