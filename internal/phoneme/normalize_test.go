package phoneme

import "testing"

func TestNormalizeStripsMarkersAndSubstitutes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"stress_and_length", "ˈkæːt", "kæt"},
		{"secondary_stress", "ˌʌndɚˈstænd", "ʌndɚstænd"},
		{"rhotic", "ɹɛd", "red"},
		{"tap", "wɔːɾɚ", "wotɚ"},
		{"tense_vowels", "siː", "sɪ"},
		{"schwa_then_open_mid", "ɜːθə", "əθʌ"},
		{"bird", "bˈɜːd", "bəd"},
		{"schwa", "bəd", "bʌd"},
		{"script_g", "ɡʊd", "gʊd"},
		{"trim", "  kæt \n", "kæt"},
		{"keeps_internal_space", "ðə kæt", "ðʌ kæt"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeWordDropsWhitespace(t *testing.T) {
	if got := NormalizeWord(" ðə  kwɪk\tbɹaʊn "); got != "ðʌkwɪkbraʊn" {
		t.Fatalf("unexpected word normalization: %q", got)
	}
}

func TestNormalizeIsIdempotentForClosedTable(t *testing.T) {
	table, err := NewTable([]Rule{
		{From: "ɹ", To: "r"},
		{From: "ɜ", To: "ə"},
		{From: "ə", To: "ʌ"},
		{From: "ɡ", To: "g"},
	})
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}
	if !table.Closed() {
		t.Fatalf("expected closed table")
	}
	inputs := []string{
		"ðə kwɪk bɹaʊn fɑːks dʒʌmps oʊvɚ ðə leɪzi dɑːɡ",
		"ɜːɹ ɜ ə ʌ",
		"ˈˌː",
		"abc",
	}
	for _, in := range inputs {
		once := table.Normalize(in)
		if twice := table.Normalize(once); twice != once {
			t.Fatalf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
		onceWord := table.NormalizeWord(in)
		if twice := table.NormalizeWord(onceWord); twice != onceWord {
			t.Fatalf("NormalizeWord not idempotent for %q: %q then %q", in, onceWord, twice)
		}
	}
}

func TestDefaultTableKeepsOpenMidDistinct(t *testing.T) {
	if DefaultTable.Closed() {
		t.Fatalf("default table rewrites ə after emitting it from ɜ; it must not report closed")
	}
	if Normalize("bɜːd") == Normalize("bəd") {
		t.Fatalf("ɜ and ə must not collapse in a single pass")
	}
}

func TestTableClosed(t *testing.T) {
	// a is emitted by the second rule but rewritten by the first.
	open, err := NewTable([]Rule{{From: "a", To: "b"}, {From: "c", To: "a"}})
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}
	if open.Closed() {
		t.Fatalf("expected open table")
	}
	if got := open.Normalize("c"); got != "a" {
		t.Fatalf("rules must run in the given order, got %q", got)
	}
}

func TestNewTableAcceptsChainedRules(t *testing.T) {
	table, err := NewTable([]Rule{{From: "c", To: "a"}, {From: "a", To: "b"}})
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}
	if got := table.Normalize("cab"); got != "bbb" {
		t.Fatalf("expected sequential application, got %q", got)
	}
}

func TestNewTableRejectsInvalidRules(t *testing.T) {
	bad := [][]Rule{
		{{From: "ab", To: "c"}},
		{{From: "a", To: ""}},
		{{From: "ˈ", To: "a"}},
		{{From: "a", To: " "}},
		{{From: "a", To: "a"}},
	}
	for _, rules := range bad {
		if _, err := NewTable(rules); err == nil {
			t.Fatalf("expected error for %+v", rules)
		}
	}
}

func TestExtendAppendsRules(t *testing.T) {
	table, err := DefaultTable.Extend([]Rule{{From: "ɚ", To: "r"}})
	if err != nil {
		t.Fatalf("Extend failed: %v", err)
	}
	if got := table.Normalize("wɔːɾɚ"); got != "wotr" {
		t.Fatalf("unexpected normalization: %q", got)
	}
	if len(DefaultTable.Rules()) != 10 {
		t.Fatalf("Extend must not modify the receiver")
	}
}
