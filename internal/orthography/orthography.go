// Package orthography converts phonetic transcriptions between the t/th
// (linguist) and d/t (community) conventions.
// Pure functions: strings in, strings out.
package orthography

import (
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// System identifies a transcription convention.
type System int

const (
	// TTH is the t/th system favored by linguists.
	TTH System = iota
	// DT is the d/t system favored by native speakers.
	DT
)

func (s System) String() string {
	if s == DT {
		return "d/t"
	}
	return "t/th"
}

// ParseSystem reads a convention name as written in a Metadata tab:
// "t/th", "tth", "d/t" or "dt", case-insensitively.
func ParseSystem(name string) (System, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "t/th", "tth", "t-th":
		return TTH, true
	case "d/t", "dt", "d-t":
		return DT, true
	}
	return TTH, false
}

// retained lists the non-ASCII symbols that survive diacritic stripping:
// the glottal stop and the null-onset marker.
const retained = "ʔØ"

// Condition restricts a rule to one glottal-stop mode.
type Condition int

const (
	Always Condition = iota
	KeepGlottal
	DropGlottal
)

// Rule rewrites Pattern to Replacement when its condition holds.
type Rule struct {
	Pattern     string
	Replacement string
	When        Condition
}

func (r Rule) applies(keepGlottal bool) bool {
	switch r.When {
	case KeepGlottal:
		return keepGlottal
	case DropGlottal:
		return !keepGlottal
	}
	return true
}

// tthToDT is the t/th → d/t table. Aspirated stops lose aspiration, plain
// stops are voiced, doubled (long) vowels are shortened.
var tthToDT = orderRules([]Rule{
	{Pattern: "kh", Replacement: "k"},
	{Pattern: "th", Replacement: "t"},
	{Pattern: "k", Replacement: "g"},
	{Pattern: "t", Replacement: "d"},
	{Pattern: "c", Replacement: "j"},
	{Pattern: "ii", Replacement: "i"},
	{Pattern: "ee", Replacement: "e"},
	{Pattern: "aa", Replacement: "a"},
	{Pattern: "oo", Replacement: "o"},
	{Pattern: "uu", Replacement: "u"},
	{Pattern: "vv", Replacement: "v"},
	{Pattern: "ʔ", Replacement: "ʔ", When: KeepGlottal},
	{Pattern: "ʔ", Replacement: "'", When: DropGlottal},
})

// orderRules sorts rules longest pattern first, keeping declaration order
// among patterns of equal length.
func orderRules(rules []Rule) []Rule {
	out := slices.Clone(rules)
	slices.SortStableFunc(out, func(a, b Rule) int {
		return utf8.RuneCountInString(b.Pattern) - utf8.RuneCountInString(a.Pattern)
	})
	return out
}

// Rules returns the ordered t/th → d/t rule table.
func Rules() []Rule {
	return slices.Clone(tthToDT)
}

// Strip decomposes s (NFKD) and drops every non-ASCII rune except the
// retained symbols, which removes all combining diacritics.
func Strip(s string) string {
	decomposed := norm.NFKD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if r < utf8.RuneSelf || strings.ContainsRune(retained, r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Converter rewrites t/th transcriptions into the d/t convention.
type Converter struct {
	// KeepGlottalStops preserves "ʔ"; otherwise it becomes an apostrophe.
	KeepGlottalStops bool
}

// ConvertString strips diacritics from s and applies the rule table in a
// single left-to-right pass. Replaced text is never rescanned, so "th"
// becomes "t" and not "d".
func (c Converter) ConvertString(s string) string {
	s = Strip(s)

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		matched := false
		for _, r := range tthToDT {
			if !r.applies(c.KeepGlottalStops) || !strings.HasPrefix(s[i:], r.Pattern) {
				continue
			}
			b.WriteString(r.Replacement)
			i += len(r.Pattern)
			matched = true
			break
		}
		if matched {
			continue
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		b.WriteString(s[i : i+size])
		i += size
	}
	return b.String()
}

// Transcription is phonetic text tagged with its convention.
type Transcription struct {
	Text   string
	System System
}

// Convert returns t in the d/t convention. Text already in d/t is returned
// unchanged, so Convert(Convert(t)) == Convert(t).
func (c Converter) Convert(t Transcription) Transcription {
	if t.System == DT {
		return t
	}
	return Transcription{Text: c.ConvertString(t.Text), System: DT}
}
