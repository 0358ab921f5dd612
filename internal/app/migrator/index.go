package migrator

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/heartmarshall/annotext/internal/annotation"
	"github.com/heartmarshall/annotext/internal/domain"
)

// LoadIndex reads the migration index from the YAML manifest when one is
// configured, otherwise from the first tab of the index sheet. The index
// sheet fetch goes through the limiter like any other fetch.
func (m *Migrator) LoadIndex(ctx context.Context) (domain.SheetIndex, error) {
	if m.cfg.IndexFile != "" {
		f, err := os.Open(m.cfg.IndexFile)
		if err != nil {
			return domain.SheetIndex{}, fmt.Errorf("open index file: %w", err)
		}
		defer f.Close()

		index, err := annotation.DecodeIndex(f)
		if err != nil {
			return domain.SheetIndex{}, fmt.Errorf("index file %s: %w", m.cfg.IndexFile, err)
		}
		m.log.Info("index loaded", slog.String("file", m.cfg.IndexFile), slog.Int("collections", len(index.Collections)))
		return index, nil
	}

	if m.cfg.IndexSheetID == "" {
		return domain.SheetIndex{}, domain.NewValidationError("index", "neither index file nor index sheet configured")
	}

	f := &fetcher{m: m, sheetID: m.cfg.IndexSheetID}
	grid, err := f.fetch(ctx, "")
	if err != nil {
		return domain.SheetIndex{}, err
	}
	index, err := annotation.ReadIndex(grid)
	if err != nil {
		return domain.SheetIndex{}, fmt.Errorf("index sheet %s: %w", m.cfg.IndexSheetID, err)
	}
	m.log.Info("index loaded", slog.String("sheet_id", m.cfg.IndexSheetID), slog.Int("collections", len(index.Collections)))
	return index, nil
}
