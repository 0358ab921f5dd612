// Package workbook reads document spreadsheets exported as .xlsx files. It
// serves offline runs and fixtures: sheet id "abc" is read from {dir}/abc.xlsx.
package workbook

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/xuri/excelize/v2"

	"github.com/heartmarshall/annotext/internal/domain"
)

// Source reads tabs from workbooks in a directory.
type Source struct {
	dir string
	log *slog.Logger
}

// NewSource creates a Source rooted at dir.
func NewSource(dir string, logger *slog.Logger) *Source {
	return &Source{dir: dir, log: logger.With(slog.String("adapter", "workbook"))}
}

// Path returns the workbook file of a sheet id.
func (s *Source) Path(sheetID string) string {
	return filepath.Join(s.dir, sheetID+".xlsx")
}

// FetchSheet returns the cell values of one tab. An empty tabName selects the
// first tab. A missing workbook or tab yields a *domain.FetchError wrapping
// domain.ErrSheetNotFound.
func (s *Source) FetchSheet(ctx context.Context, sheetID, tabName string) (domain.SheetGrid, error) {
	if err := ctx.Err(); err != nil {
		return nil, s.fetchErr(sheetID, tabName, err)
	}
	if sheetID == "" || filepath.Base(sheetID) != sheetID {
		return nil, s.fetchErr(sheetID, tabName, fmt.Errorf("%w: invalid sheet id", domain.ErrSheetNotFound))
	}

	path := s.Path(sheetID)
	f, err := excelize.OpenFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, s.fetchErr(sheetID, tabName, fmt.Errorf("%w: %s", domain.ErrSheetNotFound, path))
		}
		return nil, s.fetchErr(sheetID, tabName, fmt.Errorf("open workbook: %w", err))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	sheet := tabName
	switch {
	case tabName == "" && len(sheets) > 0:
		sheet = sheets[0]
	case !slices.Contains(sheets, tabName):
		return nil, s.fetchErr(sheetID, tabName, fmt.Errorf("%w: no tab %q in %s", domain.ErrSheetNotFound, tabName, path))
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, s.fetchErr(sheetID, tabName, fmt.Errorf("read rows: %w", err))
	}

	s.log.DebugContext(ctx, "workbook tab read",
		slog.String("sheet_id", sheetID),
		slog.String("tab", sheet),
		slog.Int("rows", len(rows)),
	)
	return domain.SheetGrid(rows), nil
}

func (s *Source) fetchErr(sheetID, tab string, err error) error {
	return &domain.FetchError{SheetID: sheetID, Tab: tab, Err: err}
}
