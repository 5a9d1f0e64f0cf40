package locale

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		name   string
		lang   Language
		amount string
		want   string
	}{
		{name: "id whole", lang: LangIndonesian, amount: "50000", want: "Rp 50.000"},
		{name: "id small", lang: LangIndonesian, amount: "999", want: "Rp 999"},
		{name: "id fraction", lang: LangIndonesian, amount: "12500.5", want: "Rp 12.500,50"},
		{name: "en whole", lang: LangEnglish, amount: "1500000", want: "Rp 1,500,000"},
		{name: "en fraction", lang: LangEnglish, amount: "12500.50", want: "Rp 12,500.50"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := NewTranslator(tc.lang).FormatAmount(decimal.RequireFromString(tc.amount))
			if got != tc.want {
				t.Fatalf("FormatAmount(%s) = %q, want %q", tc.amount, got, tc.want)
			}
		})
	}
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2026, 10, 19, 7, 5, 9, 0, time.UTC)
	tests := []struct {
		lang Language
		want string
	}{
		{lang: LangIndonesian, want: "Senin, 19 Oktober 2026 pukul 14.05.09 WIB"},
		{lang: LangEnglish, want: "Monday, 19 October 2026 at 14:05:09 WIB"},
	}
	for _, tc := range tests {
		t.Run(string(tc.lang), func(t *testing.T) {
			if got := NewTranslator(tc.lang).FormatTimestamp(ts); got != tc.want {
				t.Fatalf("FormatTimestamp = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestFormatTimestampCrossesMidnight(t *testing.T) {
	ts := time.Date(2026, 12, 31, 18, 30, 0, 0, time.UTC)
	want := "Jumat, 1 Januari 2027 pukul 01.30.00 WIB"
	if got := NewTranslator(LangIndonesian).FormatTimestamp(ts); got != want {
		t.Fatalf("FormatTimestamp = %q, want %q", got, want)
	}
}

func TestTranslatorFallback(t *testing.T) {
	tr := NewTranslator(Language("xx"))
	if tr.Lang() != LangIndonesian {
		t.Fatalf("Lang = %s, want %s", tr.Lang(), LangIndonesian)
	}
	if got := tr.T("receipt.amount"); got != "Jumlah" {
		t.Fatalf("T(receipt.amount) = %q, want Jumlah", got)
	}
	if got := tr.T("no.such.key"); got != "no.such.key" {
		t.Fatalf("T(no.such.key) = %q", got)
	}
}

func TestLocalesHaveSameKeys(t *testing.T) {
	for key := range locales[LangIndonesian] {
		if _, ok := locales[LangEnglish][key]; !ok {
			t.Fatalf("en.json is missing %q", key)
		}
	}
	for key := range locales[LangEnglish] {
		if _, ok := locales[LangIndonesian][key]; !ok {
			t.Fatalf("id.json is missing %q", key)
		}
	}
}

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		in      string
		want    Language
		wantErr bool
	}{
		{in: "", want: LangIndonesian},
		{in: "ID", want: LangIndonesian},
		{in: "en-US", want: LangEnglish},
		{in: "fr", want: LangIndonesian, wantErr: true},
	}
	for _, tc := range tests {
		got, err := ParseLanguage(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrUnsupportedLanguage) {
				t.Fatalf("ParseLanguage(%q) err = %v, want ErrUnsupportedLanguage", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseLanguage(%q) unexpected error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseLanguage(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}
