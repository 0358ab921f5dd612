// Package annotation turns annotated spreadsheet tabs into the document model:
// layer alignment, row and line assembly, segment building, and the readers
// for the metadata, references, and index tabs.
// Pure functions: sheet grids in, domain structs out. No I/O.
package annotation

import (
	"strings"
	"unicode"

	"github.com/heartmarshall/annotext/internal/domain"
)

// dashVariants are hand-typed stand-ins for the morpheme boundary "-".
const dashVariants = "‐‑‒–—−﹣－"

// scopeSeparator joins a document short name and a lexical gloss.
const scopeSeparator = ":"

// ParseMorphemes aligns a morphemic segmentation layer with its gloss layer.
// Both layers mark morpheme boundaries with "-" and clitic boundaries with "=";
// the marker after token i becomes FollowedBy of unit i. Boundary kinds are
// taken from the gloss layer.
//
// Either layer being empty is not an error: the word has no decomposition and
// the result is nil. Different token counts return *domain.LayerMismatchError.
// A non-empty documentID scopes lexical-root glosses as "documentID:gloss".
func ParseMorphemes(morphemic, gloss, documentID string) ([]domain.MorphemeUnit, error) {
	morphemic = strings.TrimSpace(morphemic)
	gloss = strings.TrimSpace(gloss)
	if morphemic == "" || gloss == "" {
		return nil, nil
	}

	morphemes, _ := splitLayer(morphemic)
	glosses, boundaries := splitLayer(gloss)
	if len(morphemes) != len(glosses) {
		return nil, &domain.LayerMismatchError{
			Morphemic:     morphemic,
			Gloss:         gloss,
			MorphemeCount: len(morphemes),
			GlossCount:    len(glosses),
		}
	}

	units := make([]domain.MorphemeUnit, len(morphemes))
	for i := range morphemes {
		units[i] = domain.MorphemeUnit{
			Morpheme:   morphemes[i],
			Gloss:      ScopeGloss(documentID, glosses[i]),
			FollowedBy: boundaries[i],
		}
	}
	return units, nil
}

// splitLayer splits a segmented layer into trimmed tokens and the boundary
// that follows each token (nil for the last one).
func splitLayer(layer string) ([]string, []*domain.BoundaryKind) {
	var (
		tokens     []string
		boundaries []*domain.BoundaryKind
		cur        strings.Builder
	)
	emit := func(b *domain.BoundaryKind) {
		tokens = append(tokens, strings.TrimSpace(cur.String()))
		boundaries = append(boundaries, b)
		cur.Reset()
	}
	for _, r := range layer {
		switch {
		case r == '-' || strings.ContainsRune(dashVariants, r):
			k := domain.BoundaryMorpheme
			emit(&k)
		case r == '=' || r == '＝':
			k := domain.BoundaryClitic
			emit(&k)
		default:
			cur.WriteRune(r)
		}
	}
	emit(nil)
	return tokens, boundaries
}

// GlossLayer reassembles the gloss layer from units.
func GlossLayer(units []domain.MorphemeUnit) string {
	var b strings.Builder
	for _, u := range units {
		b.WriteString(u.Gloss)
		b.WriteString(u.NextSeparator())
	}
	return b.String()
}

// MorphemeLayer reassembles the morphemic layer from units.
func MorphemeLayer(units []domain.MorphemeUnit) string {
	var b strings.Builder
	for _, u := range units {
		b.WriteString(u.Morpheme)
		b.WriteString(u.NextSeparator())
	}
	return b.String()
}

// ClassifyGloss tells lexical roots from grammatical tags. A gloss with at
// least one lowercase letter ("go", "DOC1:run.fast") is a lexical root;
// anything else ("3SG", "PST", "") is a grammatical tag. Scoped glosses are
// classified by their unscoped part.
func ClassifyGloss(gloss string) domain.GlossKind {
	for _, r := range UnscopedGloss(gloss) {
		if unicode.IsLower(r) {
			return domain.GlossLexicalRoot
		}
	}
	return domain.GlossGrammaticalTag
}

// ScopeGloss prefixes a lexical-root gloss with the document short name.
// Tags, already scoped glosses, and an empty documentID are left alone.
func ScopeGloss(documentID, gloss string) string {
	if documentID == "" || gloss == "" || strings.Contains(gloss, scopeSeparator) {
		return gloss
	}
	if ClassifyGloss(gloss) != domain.GlossLexicalRoot {
		return gloss
	}
	return documentID + scopeSeparator + gloss
}

// UnscopedGloss removes a "document:" prefix if present.
func UnscopedGloss(gloss string) string {
	if _, after, ok := strings.Cut(gloss, scopeSeparator); ok {
		return after
	}
	return gloss
}

// DisplayGloss returns the gloss as shown to readers: lexical roots lose
// their document scope, grammatical tags are returned as is.
func DisplayGloss(gloss string) string {
	if ClassifyGloss(gloss) == domain.GlossLexicalRoot {
		return UnscopedGloss(gloss)
	}
	return gloss
}
