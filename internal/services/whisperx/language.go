package whisperx

import (
	"strings"

	"golang.org/x/text/language"
)

// languageCodes maps English names and ISO 639-2/B codes to the ISO 639-1
// codes WhisperX expects. Other codes and BCP 47 tags go through x/text.
var languageCodes = map[string]string{
	"english":    "en",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"italian":    "it",
	"portuguese": "pt",
	"japanese":   "ja",
	"korean":     "ko",
	"chinese":    "zh",
	"russian":    "ru",
	"dutch":      "nl",
	"polish":     "pl",
	"swedish":    "sv",
	"fre":        "fr",
	"ger":        "de",
	"dut":        "nl",
	"chi":        "zh",
}

// LanguageCode normalizes a configured language to a two-letter code. Unknown
// two-letter values pass through; anything else yields "".
func LanguageCode(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	if code, ok := languageCodes[value]; ok {
		return code
	}
	if tag, err := language.Parse(value); err == nil {
		if base, confidence := tag.Base(); confidence != language.No {
			if code := base.String(); len(code) == 2 {
				return code
			}
		}
	}
	if len(value) == 2 {
		return value
	}
	return ""
}
