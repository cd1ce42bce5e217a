package translation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"":            "en",
		"C":           "en",
		"POSIX":       "en",
		"en_US.UTF-8": "en",
		"ru":          "ru",
		"RU_ru":       "ru",
		"pt-BR":       "pt",
		"de_DE@euro":  "de",
	}
	for in, want := range tests {
		assert.Equal(t, want, Normalize(in), in)
	}
}

func TestTranslateFormatsUnknownIDs(t *testing.T) {
	assert.Equal(t, "[*] XMR price: $150.00", Translate("[*] %s price: $%s", "XMR", "150.00"))
}

func TestTranslateUsesRussianCatalog(t *testing.T) {
	Configure("../../locales", "ru_RU.UTF-8")
	t.Cleanup(func() { Configure("../../locales", "en") })

	assert.Equal(t, "ru", GetLanguage())
	assert.Equal(t, "последние оповещения", Translate("recent alerts"))
	assert.Equal(t, "порог $5.00, каждые 5m33s", Translate("threshold $%s, every %s", "5.00", "5m33s"))
	assert.Equal(t, "monero (XMR): цены пока нет", Translate("%s: no price yet", "monero (XMR)"))
}
