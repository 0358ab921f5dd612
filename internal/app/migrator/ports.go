// Package migrator moves annotated documents from spreadsheets into the
// document store: fetch, parse, validate, and persist, one sheet at a time
// under a fixed fetch budget.
package migrator

import (
	"context"

	"github.com/google/uuid"

	"github.com/heartmarshall/annotext/internal/domain"
)

// SheetSource returns the raw cells of one tab of a spreadsheet.
// An empty tabName selects the first tab.
// Implemented by google.Client and workbook.Source.
type SheetSource interface {
	FetchSheet(ctx context.Context, sheetID, tabName string) (domain.SheetGrid, error)
}

// Store persists migrated documents. All methods use only domain types.
// Implemented by document.Repo.
type Store interface {
	InsertTopCollection(ctx context.Context, title string, orderIndex int) (uuid.UUID, error)
	InsertDocument(ctx context.Context, meta domain.DocumentMetadata, collectionID uuid.UUID, orderIndex int) (uuid.UUID, error)
	// InsertDocumentContents replaces the segments and words of an
	// identified document in one transaction.
	InsertDocumentContents(ctx context.Context, doc *domain.AnnotatedDocument) error
	InsertMorphemeRelations(ctx context.Context, conns []domain.LexicalConnection) (int, error)
	// RunInTx runs fn in one transaction; store calls made with the ctx
	// passed to fn join it.
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
