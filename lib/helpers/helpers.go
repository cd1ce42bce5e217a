package helpers

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"strings"
)

var markdownV2Escaper = strings.NewReplacer(
	"\\", "\\\\", ".", "\\.", "-", "\\-", "_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]",
	"(", "\\(", ")", "\\)", "~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#", "+", "\\+",
	"=", "\\=", "|", "\\|", "{", "\\{", "}", "\\}", "!", "\\!",
)

// EscapeMarkdownV2 escapes every character Telegram reserves in MarkdownV2
func EscapeMarkdownV2(text string) string {
	return markdownV2Escaper.Replace(text)
}

// FormatUSD formats a dollar amount with two decimals and thousand separators: 1,234.50
func FormatUSD(amount float64) string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("%.2f", amount)
}

// FormatAxisPrice labels a price axis tick. The number of decimals follows the
// span of the axis so neighbouring ticks never render the same.
func FormatAxisPrice(price, span float64) string {
	decimals := 4
	switch {
	case span >= 50:
		decimals = 0
	case span >= 5:
		decimals = 1
	case span >= 0.5:
		decimals = 2
	}
	p := message.NewPrinter(language.English)
	return p.Sprintf("%.*f", decimals, price)
}
