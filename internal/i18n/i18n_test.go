package i18n

import "testing"

func TestInitAndAvailableLocales(t *testing.T) {
	Init("en")
	if GetLang() != "en" {
		t.Fatalf("expected lang 'en', got %q", GetLang())
	}
	av := GetAvailableLocales()
	for _, k := range []string{"en", "de"} {
		if _, ok := av[k]; !ok {
			t.Fatalf("expected available locale %q to be present", k)
		}
	}
	if av["de"] != "Deutsch" {
		t.Fatalf("unexpected display name for de: %q", av["de"])
	}
}

func TestT_BasicAndFormatting(t *testing.T) {
	Init("en")
	if got := T("error.not_found"); got != "No wallet exists for this user." {
		t.Fatalf("unexpected translation: %q", got)
	}
	if got := T("cli.restore_done", 3, 1); got != "Restore finished: 3 imported, 1 skipped." {
		t.Fatalf("unexpected formatted translation: %q", got)
	}

	SetLang("de")
	if GetLang() != "de" {
		t.Fatalf("expected lang 'de', got %q", GetLang())
	}
	if got := T("error.duplicate"); got != "Für diesen Benutzer existiert bereits eine Wallet." {
		t.Fatalf("unexpected German translation: %q", got)
	}
	Init("en")
}

func TestT_UnknownID(t *testing.T) {
	Init("en")
	if got := T("no.such.id"); got != "no.such.id" {
		t.Fatalf("expected id fallback, got %q", got)
	}
}

func TestInit_Fallbacks(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "en"},
		{"fr", "en"},
		{"de-AT", "de"},
		{"fr;q=0.9, de;q=0.8", "de"},
	}
	for _, tt := range tests {
		Init(tt.in)
		if got := GetLang(); got != tt.want {
			t.Errorf("Init(%q): lang = %q, want %q", tt.in, got, tt.want)
		}
	}
	Init("en")
}

func TestTLang(t *testing.T) {
	Init("en")
	if got := TLang("de-DE,de;q=0.9", "error.internal"); got != "Ein interner Fehler ist aufgetreten." {
		t.Fatalf("unexpected: %q", got)
	}
	if GetLang() != "en" {
		t.Fatalf("TLang changed active language to %q", GetLang())
	}
}
