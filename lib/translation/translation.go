package translation

import (
	"github.com/leonelquinteros/gotext"
	"strings"
)

const fallbackLanguage = "en"

// Configure loads the message catalog for lang from dir/<lang>/LC_MESSAGES/default.po.
// Missing catalogs fall back to the English message ids.
func Configure(dir, lang string) {
	gotext.Configure(dir, Normalize(lang), "default")
}

// Normalize reduces a locale such as "ru_RU.UTF-8" or "pt-BR" to its language code.
// The POSIX "C" locale and empty values map to English.
func Normalize(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, ".@"); i >= 0 {
		lang = lang[:i]
	}
	if i := strings.IndexAny(lang, "_-"); i >= 0 {
		lang = lang[:i]
	}
	switch lang {
	case "", "c", "posix":
		return fallbackLanguage
	}
	return lang
}

func GetLanguage() string {
	lang := gotext.GetLanguage()

	if lang == "und" || lang == "" {
		return fallbackLanguage
	}

	return lang
}

func Translate(msgID string, vars ...interface{}) string {
	return gotext.Get(msgID, vars...)
}
