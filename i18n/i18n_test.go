package i18n

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestDetectLanguage(t *testing.T) {
	if DetectLanguage("en-US,en;q=0.9") != "en" {
		t.Fatalf("expected en")
	}
	if DetectLanguage("ms-MY,ms;q=0.9,en;q=0.5") != "ms" {
		t.Fatalf("expected ms")
	}
	if DetectLanguage("fr-FR,fr;q=0.8") != "en" {
		t.Fatalf("expected en fallback")
	}
	if DetectLanguage("") != "en" {
		t.Fatalf("expected default en")
	}
}

func TestTranslations(t *testing.T) {
	if T("en", "required") != "Required" {
		t.Fatalf("expected Required")
	}
	if T("ms", "required") != "Wajib diisi" {
		t.Fatalf("expected Wajib diisi")
	}
	// unknown code -> fallback to code
	if T("en", "__nope__") != "__nope__" {
		t.Fatalf("expected fallback to code")
	}
	// unknown language -> fallback to en
	if T("es", "required") != "Required" {
		t.Fatalf("expected en fallback for es lang")
	}
}

func TestMessageTablesHaveSameKeys(t *testing.T) {
	for code := range messages["ms"] {
		if _, ok := messages["en"][code]; !ok {
			t.Errorf("ms code %q missing in en", code)
		}
	}
}

func TestMoney(t *testing.T) {
	if got := Money("en", "RM", decimal.NewFromInt(2500)); got != "RM 2,500.00" {
		t.Fatalf("got %q", got)
	}
	if got := Money("en", "RM", decimal.RequireFromString("105.005")); got != "RM 105.01" {
		t.Fatalf("got %q", got)
	}
	if got := Money("en", "", decimal.NewFromInt(-5)); got != "-5.00" {
		t.Fatalf("got %q", got)
	}
}
