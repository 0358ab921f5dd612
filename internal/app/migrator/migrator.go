package migrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/annotext/internal/annotation"
	"github.com/heartmarshall/annotext/internal/domain"
	"github.com/heartmarshall/annotext/internal/orthography"
	"github.com/heartmarshall/annotext/internal/ratelimit"
)

// Tab names of a document spreadsheet.
const (
	MetadataTab   = "Metadata"
	ReferencesTab = "References"
)

// PageTab returns the content tab name of page (1-based). Single-page
// documents keep their content in the first tab.
func PageTab(page, pageCount int) string {
	if pageCount <= 1 {
		return ""
	}
	return fmt.Sprintf("Page %d", page)
}

// Config holds migration settings.
type Config struct {
	KeepGlottalStops bool
	// IndexFile is a YAML manifest; when empty the index sheet is used.
	IndexFile    string
	IndexSheetID string
}

// Migrator runs the migration worklist strictly sequentially.
type Migrator struct {
	log     *slog.Logger
	source  SheetSource
	store   Store
	limiter ratelimit.Limiter
	cfg     Config
}

// NewMigrator creates a Migrator. store may be nil for validation runs.
func NewMigrator(log *slog.Logger, source SheetSource, store Store, limiter ratelimit.Limiter, cfg Config) *Migrator {
	return &Migrator{
		log:     log.With(slog.String("component", "migrator")),
		source:  source,
		store:   store,
		limiter: limiter,
		cfg:     cfg,
	}
}

// Run processes every item of the index worklist in order.
//
// ModeValidate attempts every item and records failures. ModeCommit persists
// each document as soon as it is assembled and stops at the first failure;
// documents committed before it stay. Lexical connections of committed
// documents are written once at the end, after an abort too.
//
// Cancellation is observed between items only. The returned error is non-nil
// when the run was cancelled or the connections could not be written; item
// failures are reported in the Report.
func (m *Migrator) Run(ctx context.Context, mode Mode, index domain.SheetIndex) (*Report, error) {
	if mode == ModeCommit && m.store == nil {
		return nil, fmt.Errorf("commit run without a store: %w", domain.ErrValidation)
	}

	items := index.Worklist()
	report := &Report{Mode: mode, Items: make([]ItemOutcome, len(items))}
	for i, it := range items {
		report.Items[i] = ItemOutcome{Item: it, State: StatePending}
	}

	policy := annotation.SkipAndContinue
	if mode == ModeCommit {
		policy = annotation.AbortDocument
	}
	builder := annotation.SegmentBuilder{
		Policy:    policy,
		Converter: orthography.Converter{KeepGlottalStops: m.cfg.KeepGlottalStops},
	}

	m.log.Info("migration started", slog.String("mode", mode.String()), slog.Int("items", len(items)))
	start := time.Now()

	var (
		collections = make(map[int]uuid.UUID)
		conns       []domain.LexicalConnection
		runErr      error
	)
	for i := range items {
		if err := ctx.Err(); err != nil {
			report.Cancelled = true
			runErr = fmt.Errorf("migration cancelled: %w", err)
			break
		}
		// The first fetch of an item waits on the caller's context; once it
		// passes, the item runs to completion.
		if err := m.limiter.Wait(ctx); err != nil {
			report.Cancelled = true
			runErr = fmt.Errorf("migration cancelled: %w", err)
			break
		}

		out := &report.Items[i]
		itemStart := time.Now()
		body := context.WithoutCancel(ctx)

		built, err := m.assemble(body, out, builder)
		if err == nil && mode == ModeCommit {
			err = m.persist(body, out, built, collections)
		}
		out.Duration = time.Since(itemStart)

		if err != nil {
			out.Err = err
			m.setState(out, StateFailed)
			m.log.Warn("item failed",
				slog.String("sheet_id", out.Item.SheetID),
				slog.String("error", err.Error()),
				slog.Duration("duration", out.Duration),
			)
			if mode == ModeCommit {
				report.Aborted = true
				break
			}
			continue
		}

		if mode == ModeCommit {
			conns = append(conns, built.result.Connections...)
			m.setState(out, StateCommitted)
		} else {
			m.setState(out, StateValidated)
		}
		m.log.Info("item done",
			slog.String("sheet_id", out.Item.SheetID),
			slog.String("short_name", out.ShortName),
			slog.String("state", out.State.String()),
			slog.Int("words", out.Words),
			slog.Duration("duration", out.Duration),
		)
	}

	if mode == ModeCommit && len(conns) > 0 {
		n, err := m.store.InsertMorphemeRelations(context.WithoutCancel(ctx), conns)
		report.Relations = n
		if err != nil {
			err = &domain.PersistenceError{Op: "insert morpheme relations", Err: err}
			runErr = errors.Join(runErr, err)
		}
	}

	report.Duration = time.Since(start)
	m.log.Info("migration finished",
		slog.String("mode", mode.String()),
		slog.Int("validated", report.Count(StateValidated)),
		slog.Int("committed", report.Count(StateCommitted)),
		slog.Int("failed", report.Count(StateFailed)),
		slog.Int("relations", report.Relations),
		slog.Bool("aborted", report.Aborted),
		slog.Duration("duration", report.Duration),
	)
	return report, runErr
}

type builtDocument struct {
	doc    *domain.AnnotatedDocument
	result annotation.SegmentResult
}

// assemble fetches and parses one document. The limiter has already been
// waited on for the first fetch.
func (m *Migrator) assemble(ctx context.Context, out *ItemOutcome, builder annotation.SegmentBuilder) (builtDocument, error) {
	sheetID := out.Item.SheetID
	f := &fetcher{m: m, sheetID: sheetID, prewaited: true}

	m.setState(out, StateFetching)
	grid, err := f.fetch(ctx, MetadataTab)
	if err != nil {
		return builtDocument{}, err
	}
	meta, err := annotation.ReadMetadata(grid, out.Item.OrderIndex)
	if err != nil {
		var me *domain.MetadataError
		if errors.As(err, &me) {
			me.SheetID = sheetID
		}
		return builtDocument{}, err
	}
	out.ShortName = meta.ShortName
	out.Title = meta.Title

	refs := annotation.References{}
	grid, err = f.fetch(ctx, ReferencesTab)
	switch {
	case errors.Is(err, domain.ErrSheetNotFound):
		m.log.Debug("no references tab", slog.String("sheet_id", sheetID))
	case err != nil:
		return builtDocument{}, err
	default:
		refs = annotation.ReadReferences(grid)
	}

	pageCount := meta.PageCount()
	pages := make([][]domain.SemanticLine, 0, pageCount)
	for page := 1; page <= pageCount; page++ {
		tab := PageTab(page, pageCount)
		grid, err := f.fetch(ctx, tab)
		if err != nil {
			return builtDocument{}, err
		}
		rows, err := annotation.ReadRows(grid)
		if err != nil {
			return builtDocument{}, fmt.Errorf("sheet %s page %d: %w", sheetID, page, err)
		}
		lines, err := annotation.AssembleLines(rows, page)
		if err != nil {
			return builtDocument{}, fmt.Errorf("sheet %s: %w", sheetID, err)
		}
		pages = append(pages, lines)
	}

	m.setState(out, StateParsing)
	res, err := builder.Build(annotation.ConcatPages(pages), meta, refs)
	if err != nil {
		return builtDocument{}, fmt.Errorf("sheet %s: %w", sheetID, err)
	}
	doc := domain.NewAnnotatedDocument(meta, res.Segments)
	out.Segments = len(doc.Segments)
	out.Words = doc.WordCount()
	out.Connections = len(res.Connections)
	out.Issues = res.Issues

	if err := annotation.ValidateDocument(doc); err != nil {
		return builtDocument{}, fmt.Errorf("sheet %s: %w", sheetID, err)
	}
	if len(res.Issues) > 0 {
		errs := make([]error, len(res.Issues))
		for i, issue := range res.Issues {
			errs[i] = issue
		}
		return builtDocument{}, fmt.Errorf("sheet %s: %w", sheetID, errors.Join(errs...))
	}
	return builtDocument{doc: doc, result: res}, nil
}

// persist writes an assembled document in one transaction: the top
// collection (before its first document), the document row, then its
// contents. A failed document leaves no rows behind.
func (m *Migrator) persist(ctx context.Context, out *ItemOutcome, built builtDocument, collections map[int]uuid.UUID) error {
	m.setState(out, StatePersisting)
	item := out.Item

	var created uuid.UUID
	err := m.store.RunInTx(ctx, func(ctx context.Context) error {
		collectionID, ok := collections[item.CollectionIndex]
		if !ok {
			id, err := m.store.InsertTopCollection(ctx, item.CollectionTitle, item.CollectionIndex)
			if err != nil {
				return &domain.PersistenceError{Op: "insert top collection", SheetID: item.SheetID, Err: err}
			}
			created = id
			collectionID = id
		}

		docID, err := m.store.InsertDocument(ctx, built.doc.Meta, collectionID, item.OrderIndex)
		if err != nil {
			return &domain.PersistenceError{Op: "insert document", SheetID: item.SheetID, Err: err}
		}
		if err := built.doc.AssignID(docID); err != nil {
			return &domain.PersistenceError{Op: "assign document id", SheetID: item.SheetID, Err: err}
		}
		if err := m.store.InsertDocumentContents(ctx, built.doc); err != nil {
			return &domain.PersistenceError{Op: "insert document contents", SheetID: item.SheetID, Err: err}
		}
		return nil
	})
	if err != nil {
		var pe *domain.PersistenceError
		if !errors.As(err, &pe) {
			err = &domain.PersistenceError{Op: "commit document", SheetID: item.SheetID, Err: err}
		}
		return err
	}
	// Only a committed collection id may be reused by later documents.
	if created != uuid.Nil {
		collections[item.CollectionIndex] = created
	}
	return nil
}

func (m *Migrator) setState(out *ItemOutcome, s ItemState) {
	out.State = s
	m.log.Debug("item state",
		slog.String("sheet_id", out.Item.SheetID),
		slog.String("state", s.String()),
	)
}

// fetcher spaces the fetches of one item through the limiter.
type fetcher struct {
	m         *Migrator
	sheetID   string
	prewaited bool
}

func (f *fetcher) fetch(ctx context.Context, tab string) (domain.SheetGrid, error) {
	if f.prewaited {
		f.prewaited = false
	} else if err := f.m.limiter.Wait(ctx); err != nil {
		return nil, &domain.FetchError{SheetID: f.sheetID, Tab: tab, Err: err}
	}

	f.m.log.Debug("fetching tab", slog.String("sheet_id", f.sheetID), slog.String("tab", tab))
	grid, err := f.m.source.FetchSheet(ctx, f.sheetID, tab)
	if err != nil {
		var fe *domain.FetchError
		if errors.As(err, &fe) {
			return nil, err
		}
		return nil, &domain.FetchError{SheetID: f.sheetID, Tab: tab, Err: err}
	}
	return grid, nil
}
