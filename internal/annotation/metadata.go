package annotation

import (
	"strings"
	"time"

	"github.com/heartmarshall/annotext/internal/domain"
	"github.com/heartmarshall/annotext/internal/orthography"
)

// dateLayouts are the date spellings found in Metadata tabs.
var dateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"01/02/2006",
	"January 2, 2006",
	"2 January 2006",
	"2006-01",
	"2006",
}

// ReadMetadata reads a Metadata tab: one key per row in the first column,
// values in the following columns. Keys are matched case-insensitively.
// Missing title or short name and malformed dates are collected into a
// single *domain.MetadataError.
func ReadMetadata(grid domain.SheetGrid, orderIndex int) (domain.DocumentMetadata, error) {
	meta := domain.DocumentMetadata{OrderIndex: orderIndex}
	var (
		fields []domain.FieldError
		names  []string
		roles  []string
		images domain.PageImages
	)

	for r := range grid {
		values := rowValues(grid, r)
		if len(values) == 0 {
			continue
		}
		first := values[0]

		switch domain.NormalizeKey(grid.Cell(r, 0)) {
		case "title":
			meta.Title = first
		case "document id", "short name", "id":
			meta.ShortName = first
		case "publication":
			meta.Publication = &first
		case "source", "source citation", "citation":
			meta.Source = &first
		case "genre":
			meta.Genre = &first
		case "date", "written at":
			d, ok := parseDate(first)
			if !ok {
				fields = append(fields, domain.FieldError{Field: "date", Message: "cannot parse " + first})
				continue
			}
			meta.Date = &d
		case "contributors", "authors", "people":
			names = splitList(values)
		case "contributor roles", "roles":
			roles = splitList(values)
		case "image source", "images source":
			images.Source = first
		case "image ids", "images", "pages":
			images.IDs = splitList(values)
		case "orthography", "phonetic system", "convention":
			if _, ok := orthography.ParseSystem(first); !ok {
				fields = append(fields, domain.FieldError{Field: "orthography", Message: "unknown convention " + first})
				continue
			}
			meta.Orthography = first
		}
	}

	if meta.Title == "" {
		fields = append(fields, domain.FieldError{Field: "title", Message: "required"})
	}
	switch {
	case meta.ShortName == "":
		fields = append(fields, domain.FieldError{Field: "short_name", Message: "required"})
	case strings.ContainsAny(meta.ShortName, scopeSeparator+" \t"):
		fields = append(fields, domain.FieldError{Field: "short_name", Message: "must not contain spaces or " + scopeSeparator})
	}
	if len(fields) > 0 {
		return domain.DocumentMetadata{}, &domain.MetadataError{Fields: fields}
	}

	for i, name := range names {
		c := domain.Contributor{Name: name}
		if i < len(roles) {
			c.Role = roles[i]
		}
		meta.Contributors = append(meta.Contributors, c)
	}
	if images.Source != "" || len(images.IDs) > 0 {
		meta.PageImages = &images
	}
	return meta, nil
}

// rowValues returns the non-empty cells of row r after the key column.
func rowValues(grid domain.SheetGrid, r int) []string {
	var values []string
	for c := 1; c < len(grid[r]); c++ {
		if v := grid.Cell(r, c); v != "" {
			values = append(values, v)
		}
	}
	return values
}

// splitList splits a single comma-separated cell into items.
func splitList(values []string) []string {
	if len(values) != 1 || !strings.Contains(values[0], ",") {
		return values
	}
	var out []string
	for _, p := range strings.Split(values[0], ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
