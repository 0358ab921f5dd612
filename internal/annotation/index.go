package annotation

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/heartmarshall/annotext/internal/domain"
)

// ReadIndex reads the index sheet. The first row is a header. Every other
// row is a collection title followed by document sheet ids; rows repeating a
// title extend that collection, and rows with an empty title extend the
// previous one. Full spreadsheet URLs are accepted in place of ids.
func ReadIndex(grid domain.SheetGrid) (domain.SheetIndex, error) {
	var (
		index  domain.SheetIndex
		byName = make(map[string]int)
		last   = -1
	)
	for r := 1; r < len(grid); r++ {
		var ids []string
		for c := 1; c < len(grid[r]); c++ {
			if id := SheetIDFromURL(grid.Cell(r, c)); id != "" {
				ids = append(ids, id)
			}
		}

		title := grid.Cell(r, 0)
		if title == "" {
			if len(ids) == 0 {
				continue
			}
			if last < 0 {
				return domain.SheetIndex{}, domain.NewValidationError(
					fmt.Sprintf("row %d", r+1), "sheet ids without a collection title")
			}
			index.Collections[last].SheetIDs = append(index.Collections[last].SheetIDs, ids...)
			continue
		}

		key := domain.NormalizeKey(title)
		i, ok := byName[key]
		if !ok {
			i = len(index.Collections)
			byName[key] = i
			index.Collections = append(index.Collections, domain.Collection{Title: title})
		}
		index.Collections[i].SheetIDs = append(index.Collections[i].SheetIDs, ids...)
		last = i
	}

	if len(index.Worklist()) == 0 {
		return domain.SheetIndex{}, domain.NewValidationError("index", "names no document sheets")
	}
	return index, nil
}

// SheetIDFromURL extracts the id from a spreadsheet URL of the form
// ".../spreadsheets/d/{id}/...". Anything else is returned trimmed.
func SheetIDFromURL(s string) string {
	s = strings.TrimSpace(s)
	_, rest, ok := strings.Cut(s, "/d/")
	if !ok || !strings.Contains(s, "://") {
		return s
	}
	id, _, _ := strings.Cut(rest, "/")
	return id
}

// DecodeIndex reads a YAML index manifest. Unknown keys are rejected.
func DecodeIndex(r io.Reader) (domain.SheetIndex, error) {
	var index domain.SheetIndex
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&index); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.SheetIndex{}, domain.NewValidationError("index", "manifest is empty")
		}
		return domain.SheetIndex{}, fmt.Errorf("decode index manifest: %w", err)
	}
	if err := validateIndex(index); err != nil {
		return domain.SheetIndex{}, err
	}
	return index, nil
}

func validateIndex(index domain.SheetIndex) error {
	var errs []domain.FieldError
	for ci, c := range index.Collections {
		if strings.TrimSpace(c.Title) == "" {
			errs = append(errs, domain.FieldError{
				Field:   fmt.Sprintf("collections[%d].title", ci),
				Message: "required",
			})
		}
		var walk func(path string, chapters []domain.Chapter)
		walk = func(path string, chapters []domain.Chapter) {
			for i, ch := range chapters {
				p := fmt.Sprintf("%s.chapters[%d]", path, i)
				if ch.Section != "" && !ch.Section.IsValid() {
					errs = append(errs, domain.FieldError{Field: p + ".section", Message: "must be intro or body"})
				}
				if ch.Name == "" {
					errs = append(errs, domain.FieldError{Field: p + ".name", Message: "required"})
				}
				walk(p, ch.Chapters)
			}
		}
		walk(fmt.Sprintf("collections[%d]", ci), c.Chapters)
	}
	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	if len(index.Worklist()) == 0 {
		return domain.NewValidationError("index", "names no document sheets")
	}
	return nil
}
