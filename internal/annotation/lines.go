package annotation

import (
	"fmt"

	"github.com/heartmarshall/annotext/internal/domain"
)

// AssembleLines groups the rows of one page into SemanticLines.
//
// Every non-blank row contributes one word; a blank row closes the current
// line. Translation cells of a line are joined with a space. A row whose only
// filled cell is the translation adds to the translation without a word.
// The last line of the page is flagged EndsPage. A page that produces no line
// returns domain.ErrEmptyPage.
func AssembleLines(rows []domain.RawRow, page int) ([]domain.SemanticLine, error) {
	var (
		lines []domain.SemanticLine
		cur   *domain.SemanticLine
	)
	flush := func() {
		if cur != nil && (len(cur.Words) > 0 || cur.Translation != "") {
			cur.Index = len(lines)
			lines = append(lines, *cur)
		}
		cur = nil
	}

	for _, row := range rows {
		if row.IsBlank() {
			flush()
			continue
		}
		if cur == nil {
			cur = &domain.SemanticLine{Page: page}
		}
		if t := row.Get(domain.LayerTranslation); t != "" {
			cur.Translation = joinText(cur.Translation, t)
		}
		word := domain.WordLayers{
			Syllabary:  row.Get(domain.LayerSyllabary),
			Phonetic:   row.Get(domain.LayerPhonetic),
			Morphemic:  row.Get(domain.LayerMorphemic),
			Gloss:      row.Get(domain.LayerGloss),
			Commentary: row.Get(domain.LayerCommentary),
			EndsLine:   row.Get(domain.LayerPage) != "",
		}
		if hasWord(word) {
			cur.Words = append(cur.Words, word)
		}
	}
	flush()

	if len(lines) == 0 {
		return nil, fmt.Errorf("page %d: %w", page, domain.ErrEmptyPage)
	}
	lines[len(lines)-1].EndsPage = true
	return lines, nil
}

func hasWord(w domain.WordLayers) bool {
	return w.Syllabary != "" || w.Phonetic != "" || w.Morphemic != "" || w.Gloss != "" || w.Commentary != ""
}

func joinText(a, b string) string {
	if a == "" {
		return b
	}
	return a + " " + b
}

// ConcatPages joins per-page lines in page order and renumbers them.
func ConcatPages(pages [][]domain.SemanticLine) []domain.SemanticLine {
	var out []domain.SemanticLine
	for _, lines := range pages {
		for _, l := range lines {
			l.Index = len(out)
			out = append(out, l)
		}
	}
	return out
}
