package annotation

import (
	"fmt"

	"github.com/heartmarshall/annotext/internal/domain"
)

// ValidateDocument checks the structural invariants of an assembled document:
// at least one segment and one word, contiguous segment indices, word indices
// counting up from 1, and for every page at least one word and exactly one
// page-ending word, which is the page's last word.
func ValidateDocument(doc *domain.AnnotatedDocument) error {
	var errs []domain.FieldError
	add := func(field, format string, args ...any) {
		errs = append(errs, domain.FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if len(doc.Segments) == 0 {
		add("segments", "document has no segments")
	}
	if doc.WordCount() == 0 {
		add("words", "document has no words")
	}

	type pageState struct {
		words    int
		ends     int
		lastEnds bool
	}
	pages := make(map[int]*pageState)
	next := 1
	for si, seg := range doc.Segments {
		if seg.Index != si {
			add(fmt.Sprintf("segments[%d].index", si), "is %d", seg.Index)
		}
		for _, w := range seg.Words {
			if w.Index != next {
				add(fmt.Sprintf("words[%d].index", next), "is %d", w.Index)
			}
			next++

			p, ok := pages[w.Page]
			if !ok {
				p = &pageState{}
				pages[w.Page] = p
			}
			p.words++
			p.lastEnds = w.EndsPage
			if w.EndsPage {
				p.ends++
			}
		}
	}

	if doc.WordCount() > 0 {
		for page := 1; page <= doc.Meta.PageCount(); page++ {
			p, ok := pages[page]
			switch {
			case !ok:
				add(fmt.Sprintf("pages[%d]", page), "has no words")
			case p.ends != 1:
				add(fmt.Sprintf("pages[%d]", page), "has %d page-ending words, want 1", p.ends)
			case !p.lastEnds:
				add(fmt.Sprintf("pages[%d]", page), "page end is not the last word")
			}
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("document %s: %w: %w", doc.Meta.ShortName, domain.ErrInvalidDocument, &domain.ValidationError{Errors: errs})
}
