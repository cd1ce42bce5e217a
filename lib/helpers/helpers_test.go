package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatUSD(t *testing.T) {
	assert.Equal(t, "5.00", FormatUSD(5))
	assert.Equal(t, "104.99", FormatUSD(104.99))
	assert.Equal(t, "1,234.50", FormatUSD(1234.5))
}

func TestFormatAxisPrice(t *testing.T) {
	tests := []struct {
		price, span float64
		want        string
	}{
		{1234.7, 200, "1,235"},
		{352.168, 12, "352.2"},
		{352.168, 3, "352.17"},
		{41.23456, 0.1, "41.2346"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatAxisPrice(tt.price, tt.span))
	}
}

func TestEscapeMarkdownV2(t *testing.T) {
	assert.Equal(t, "monero \\(XMR\\) \\- 1\\.5\\!", EscapeMarkdownV2("monero (XMR) - 1.5!"))
	assert.Equal(t, "a\\\\b", EscapeMarkdownV2("a\\b"))
}
