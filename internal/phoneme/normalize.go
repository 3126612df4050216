// Package phoneme canonicalizes raw IPA transcriptions into a comparable alphabet.
package phoneme

import (
	"fmt"
	"strings"
	"unicode"
)

// markers are stress and length symbols dropped before any substitution.
const markers = "ˈˌː"

// Rule maps one phoneme symbol onto its canonical replacement.
type Rule struct {
	From string
	To   string
}

// Table is an ordered substitution list. Rules run sequentially, so a later
// rule sees the output of every earlier one.
type Table struct {
	rules []Rule
}

// DefaultTable collapses the near-duplicate phones produced by espeak and
// phoneme recognizers trained on its inventory. It is not closed: ə becomes
// ʌ before ɜ becomes ə, so ɜ and ə stay distinct after one pass.
var DefaultTable = mustTable([]Rule{
	{From: "ɹ", To: "r"},
	{From: "ɾ", To: "t"},
	{From: "i", To: "ɪ"},
	{From: "u", To: "ʊ"},
	{From: "ə", To: "ʌ"},
	{From: "ɜ", To: "ə"},
	{From: "ɛ", To: "e"},
	{From: "ɔ", To: "o"},
	{From: "ɑ", To: "a"},
	{From: "ɡ", To: "g"},
})

// NewTable validates rules and returns a Table. Every rule must map a single
// non-marker symbol onto a single non-whitespace symbol. Rule order is kept
// as given.
func NewTable(rules []Rule) (Table, error) {
	out := make([]Rule, 0, len(rules))
	for i, r := range rules {
		if len([]rune(r.From)) != 1 || len([]rune(r.To)) != 1 {
			return Table{}, fmt.Errorf("rule %d (%q -> %q): from and to must be single symbols", i, r.From, r.To)
		}
		if strings.ContainsAny(r.From, markers) || strings.ContainsAny(r.To, markers) {
			return Table{}, fmt.Errorf("rule %d (%q -> %q): stress and length markers are removed before substitution", i, r.From, r.To)
		}
		if unicode.IsSpace([]rune(r.To)[0]) {
			return Table{}, fmt.Errorf("rule %d (%q -> %q): replacement must not be whitespace", i, r.From, r.To)
		}
		if r.From == r.To {
			return Table{}, fmt.Errorf("rule %d (%q -> %q): rule does not change anything", i, r.From, r.To)
		}
		out = append(out, r)
	}
	return Table{rules: out}, nil
}

// Closed reports whether no symbol the table can emit is rewritten by one of
// its rules. Only closed tables make Normalize idempotent.
func (t Table) Closed() bool {
	for i, r := range t.rules {
		emitted := Table{rules: t.rules[i+1:]}.apply(r.To)
		for _, other := range t.rules {
			if emitted == other.From {
				return false
			}
		}
	}
	return true
}

func mustTable(rules []Rule) Table {
	t, err := NewTable(rules)
	if err != nil {
		panic(err)
	}
	return t
}

// Extend returns a new table with extra rules appended after the receiver's.
func (t Table) Extend(extra []Rule) (Table, error) {
	rules := make([]Rule, 0, len(t.rules)+len(extra))
	rules = append(rules, t.rules...)
	rules = append(rules, extra...)
	return NewTable(rules)
}

// Rules returns a copy of the ordered rules.
func (t Table) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	copy(out, t.rules)
	return out
}

// Normalize strips markers, applies the substitutions in order and trims
// surrounding whitespace.
func (t Table) Normalize(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(markers, r) {
			return -1
		}
		return r
	}, raw)
	return strings.TrimSpace(t.apply(cleaned))
}

// NormalizeWord is Normalize with all internal whitespace removed as well.
func (t Table) NormalizeWord(raw string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, t.Normalize(raw))
}

func (t Table) apply(s string) string {
	for _, r := range t.rules {
		s = strings.ReplaceAll(s, r.From, r.To)
	}
	return s
}

// Normalize applies DefaultTable.
func Normalize(raw string) string {
	return DefaultTable.Normalize(raw)
}

// NormalizeWord applies DefaultTable and drops internal whitespace.
func NormalizeWord(raw string) string {
	return DefaultTable.NormalizeWord(raw)
}
