package locale

import (
	"embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Language represents a supported localization code.
type Language string

const (
	// LangIndonesian is the default presentation language.
	LangIndonesian Language = "id"
	// LangEnglish renders amounts and timestamps in English.
	LangEnglish Language = "en"
)

// ErrUnsupportedLanguage is returned when an unknown language code is requested.
var ErrUnsupportedLanguage = errors.New("locale: unsupported language")

// WIB is Western Indonesia Time, the zone timestamps are presented in.
var WIB = time.FixedZone("WIB", 7*60*60)

//go:embed id.json en.json
var localeFS embed.FS

var (
	locales = map[Language]map[string]string{}
	tags    = map[Language]language.Tag{
		LangIndonesian: language.Indonesian,
		LangEnglish:    language.English,
	}
)

func init() {
	mustLoadLocale(LangIndonesian, "id.json")
	mustLoadLocale(LangEnglish, "en.json")
}

func mustLoadLocale(lang Language, file string) {
	data, err := localeFS.ReadFile(file)
	if err != nil {
		panic(fmt.Sprintf("locale: load %s: %v", lang, err))
	}
	var parsed map[string]string
	if err := json.Unmarshal(data, &parsed); err != nil {
		panic(fmt.Sprintf("locale: parse %s: %v", lang, err))
	}
	locales[lang] = parsed
}

// Translator resolves localized strings and number formats for one language.
type Translator struct {
	lang    Language
	data    map[string]string
	printer *message.Printer
}

// NewTranslator builds a translator for lang, falling back to Indonesian.
func NewTranslator(lang Language) Translator {
	data, ok := locales[lang]
	if !ok {
		lang = LangIndonesian
		data = locales[LangIndonesian]
	}
	return Translator{lang: lang, data: data, printer: message.NewPrinter(tags[lang])}
}

// Lang returns the active language.
func (t Translator) Lang() Language {
	return t.lang
}

// T returns the localized string for key, or key itself when unknown.
func (t Translator) T(key string) string {
	if val, ok := t.data[key]; ok {
		return val
	}
	if t.lang != LangIndonesian {
		if val, ok := locales[LangIndonesian][key]; ok {
			return val
		}
	}
	return key
}

// FormatAmount renders an IDR amount with the language's digit grouping,
// e.g. "Rp 50.000" or "Rp 12,500.50". Whole amounts carry no fraction.
func (t Translator) FormatAmount(amount decimal.Decimal) string {
	var digits string
	if amount.IsInteger() {
		digits = t.printer.Sprintf("%d", amount.IntPart())
	} else {
		digits = t.printer.Sprintf("%.2f", amount.InexactFloat64())
	}
	return t.T("currency.prefix") + " " + digits
}

// FormatTimestamp renders ts in WIB as a long date, e.g.
// "Senin, 19 Oktober 2026 pukul 14.05.09 WIB".
func (t Translator) FormatTimestamp(ts time.Time) string {
	ts = ts.In(WIB)
	sep := t.T("time.separator")
	clock := fmt.Sprintf("%02d%s%02d%s%02d", ts.Hour(), sep, ts.Minute(), sep, ts.Second())
	return fmt.Sprintf("%s, %d %s %d %s %s %s",
		t.T("day."+strconv.Itoa(int(ts.Weekday()))),
		ts.Day(),
		t.T("month."+strconv.Itoa(int(ts.Month()))),
		ts.Year(),
		t.T("time.connector"),
		clock,
		t.T("time.zone"),
	)
}

// ParseLanguage converts a request or config value into a Language. Blank
// input selects Indonesian.
func ParseLanguage(lang string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "", "id", "id-id", "in", "indonesian", "bahasa":
		return LangIndonesian, nil
	case "en", "en-us", "en-gb", "english":
		return LangEnglish, nil
	default:
		return LangIndonesian, errors.Wrapf(ErrUnsupportedLanguage, "%s", lang)
	}
}
