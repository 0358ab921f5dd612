package domain

import "strings"

// SheetGrid is the raw cell text of one spreadsheet tab, row-major.
type SheetGrid [][]string

// Cell returns the trimmed text at (row, col) or "" when out of range.
func (g SheetGrid) Cell(row, col int) string {
	if row < 0 || row >= len(g) || col < 0 || col >= len(g[row]) {
		return ""
	}
	return strings.TrimSpace(g[row][col])
}

// Layer names one of the fixed annotation layers of a content tab.
type Layer string

const (
	LayerSyllabary   Layer = "syllabary"
	LayerPhonetic    Layer = "phonetic"
	LayerMorphemic   Layer = "morphemic"
	LayerGloss       Layer = "gloss"
	LayerTranslation Layer = "translation"
	LayerCommentary  Layer = "commentary"
	LayerPage        Layer = "page"
)

func (l Layer) String() string { return string(l) }

func (l Layer) IsValid() bool {
	switch l {
	case LayerSyllabary, LayerPhonetic, LayerMorphemic, LayerGloss,
		LayerTranslation, LayerCommentary, LayerPage:
		return true
	}
	return false
}

// LayerCell is a single cell of a RawRow tagged with its layer.
type LayerCell struct {
	Layer Layer
	Text  string
}

// RawRow is one spreadsheet row of a content tab. Cells keep column order.
type RawRow struct {
	Number int // 1-based row number in the tab
	Cells  []LayerCell
}

// Get returns the text of the first cell of the given layer.
func (r RawRow) Get(layer Layer) string {
	for _, c := range r.Cells {
		if c.Layer == layer {
			return c.Text
		}
	}
	return ""
}

// IsBlank reports whether every cell of the row is empty.
func (r RawRow) IsBlank() bool {
	for _, c := range r.Cells {
		if strings.TrimSpace(c.Text) != "" {
			return false
		}
	}
	return true
}

// WordLayers holds the per-word annotation layers of one row.
type WordLayers struct {
	Syllabary  string
	Phonetic   string
	Morphemic  string
	Gloss      string
	Commentary string
	// EndsLine is set when the page-marker cell of the row is filled: the word
	// is the last one of a physical manuscript line.
	EndsLine bool
}

// SemanticLine is one annotated clause read from a content tab.
type SemanticLine struct {
	Words       []WordLayers
	Translation string
	Page        int
	Index       int
	EndsPage    bool
}

// BoundaryKind is the marker that follows a morpheme in a segmented layer.
type BoundaryKind int

const (
	BoundaryMorpheme BoundaryKind = iota + 1 // "-"
	BoundaryClitic                           // "="
)

// Separator returns the layer marker for the boundary.
func (b BoundaryKind) Separator() string {
	switch b {
	case BoundaryMorpheme:
		return "-"
	case BoundaryClitic:
		return "="
	}
	return ""
}

func (b BoundaryKind) String() string {
	switch b {
	case BoundaryMorpheme:
		return "morpheme"
	case BoundaryClitic:
		return "clitic"
	}
	return "unknown"
}

// MorphemeUnit is a single morpheme paired with its gloss.
type MorphemeUnit struct {
	Morpheme   string
	Gloss      string
	FollowedBy *BoundaryKind
}

// NextSeparator returns the marker following this unit, or "" for the last unit.
func (u MorphemeUnit) NextSeparator() string {
	if u.FollowedBy == nil {
		return ""
	}
	return u.FollowedBy.Separator()
}

// GlossKind distinguishes lexical roots from grammatical tags.
type GlossKind int

const (
	GlossGrammaticalTag GlossKind = iota
	GlossLexicalRoot
)

func (k GlossKind) String() string {
	if k == GlossLexicalRoot {
		return "lexical_root"
	}
	return "grammatical_tag"
}
