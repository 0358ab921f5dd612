package annotation

import (
	"fmt"

	"github.com/heartmarshall/annotext/internal/domain"
)

// layerAliases maps normalized header labels to layers. Editors name the
// columns inconsistently across sheets.
var layerAliases = map[string]domain.Layer{
	"syllabary":              domain.LayerSyllabary,
	"source":                 domain.LayerSyllabary,
	"cherokee":               domain.LayerSyllabary,
	"phonetic":               domain.LayerPhonetic,
	"phonetics":              domain.LayerPhonetic,
	"simple phonetics":       domain.LayerPhonetic,
	"transcription":          domain.LayerPhonetic,
	"morphemic":              domain.LayerMorphemic,
	"morphemes":              domain.LayerMorphemic,
	"morphemic segmentation": domain.LayerMorphemic,
	"segmentation":           domain.LayerMorphemic,
	"gloss":                  domain.LayerGloss,
	"glosses":                domain.LayerGloss,
	"morpheme gloss":         domain.LayerGloss,
	"translation":            domain.LayerTranslation,
	"english":                domain.LayerTranslation,
	"free translation":       domain.LayerTranslation,
	"commentary":             domain.LayerCommentary,
	"comment":                domain.LayerCommentary,
	"notes":                  domain.LayerCommentary,
	"page":                   domain.LayerPage,
	"page marker":            domain.LayerPage,
	"line break":             domain.LayerPage,
	"break":                  domain.LayerPage,
}

// LayerFromHeader resolves a header cell to its layer.
func LayerFromHeader(label string) (domain.Layer, bool) {
	l, ok := layerAliases[domain.NormalizeKey(label)]
	return l, ok
}

// ReadRows turns a content tab into RawRows. The first row is the header
// naming the layer of each column; columns with unknown headers are ignored.
// A tab without rows yields no rows and no error.
func ReadRows(grid domain.SheetGrid) ([]domain.RawRow, error) {
	if len(grid) == 0 {
		return nil, nil
	}

	type column struct {
		index int
		layer domain.Layer
	}
	var columns []column
	for i := range grid[0] {
		if l, ok := LayerFromHeader(grid.Cell(0, i)); ok {
			columns = append(columns, column{index: i, layer: l})
		}
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("content header names no annotation layer: %w", domain.ErrInvalidDocument)
	}

	rows := make([]domain.RawRow, 0, len(grid)-1)
	for r := 1; r < len(grid); r++ {
		row := domain.RawRow{Number: r + 1, Cells: make([]domain.LayerCell, len(columns))}
		for i, c := range columns {
			row.Cells[i] = domain.LayerCell{Layer: c.layer, Text: grid.Cell(r, c.index)}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
