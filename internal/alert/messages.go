package alert

import (
	"price-alert-bot/internal/types"
	"price-alert-bot/lib/helpers"
	"price-alert-bot/lib/translation"
	"strings"
)

// MoveMessage is the caption of a per-asset alert
func MoveMessage(ev types.AlertEvent) string {
	template := "[!] %s ↓ dropped by $%s, current price $%s"
	if ev.Direction == types.Up {
		template = "[!] %s ↑ increased by $%s, current price $%s"
	}
	return translation.Translate(template, ev.Asset.Label(), helpers.FormatUSD(ev.Magnitude), helpers.FormatUSD(ev.Current))
}

// StartupMessage lists the spot price of every tracked asset that has one
func StartupMessage(readings map[string]types.PriceReading) string {
	return overview(translation.Translate("[+] started"), readings)
}

// StatsMessage is the caption of the /stats overview chart
func StatsMessage(readings map[string]types.PriceReading) string {
	return overview(translation.Translate("[+] ok"), readings)
}

func overview(header string, readings map[string]types.PriceReading) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	for _, a := range types.TrackedAssets {
		r, ok := readings[a.ID]
		if !ok {
			continue
		}
		b.WriteString("\n")
		b.WriteString(translation.Translate("[*] %s price: $%s", a.Symbol, helpers.FormatUSD(r.Value)))
	}
	return b.String()
}
