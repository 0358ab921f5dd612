// Package document implements the migrated document store using PostgreSQL.
// A document is written as one aggregate: metadata and contributors first,
// then paragraphs, words and word segments replaced in a single transaction.
package document

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	postgres "github.com/heartmarshall/annotext/internal/adapter/postgres"
	"github.com/heartmarshall/annotext/internal/domain"
)

const defaultBatchSize = 500

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var (
	documentColumns = []string{
		"id", "short_name", "title", "collection_id", "order_index",
		"publication", "source", "genre", "written_at",
		"page_images_source", "page_image_ids",
	}
	paragraphColumns = []string{"id", "document_id", "seq", "translation", "written_at"}
	wordColumns      = []string{
		"id", "document_id", "paragraph_id", "seq", "page",
		"source", "phonetic", "phonetic_dt", "morphemic", "gloss", "commentary",
		"ends_line", "ends_page",
	}
	segmentColumns  = []string{"word_id", "seq", "morpheme", "gloss", "followed_by"}
	relationColumns = []string{"document_short_name", "word_index", "morpheme_index", "gloss", "entry_key"}
)

// Repo provides document persistence backed by PostgreSQL.
type Repo struct {
	pool      postgres.Pool
	txm       *postgres.TxManager
	batchSize int
}

// New creates a document repository. batchSize bounds the rows of one
// multi-row INSERT; non-positive values fall back to 500.
func New(pool postgres.Pool, txm *postgres.TxManager, batchSize int) *Repo {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Repo{pool: pool, txm: txm, batchSize: batchSize}
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// InsertTopCollection creates the collection or updates the order of an
// existing one with the same title. Returns the collection id.
func (r *Repo) InsertTopCollection(ctx context.Context, title string, orderIndex int) (uuid.UUID, error) {
	query, args, err := psql.Insert("top_collections").
		Columns("id", "title", "order_index").
		Values(uuid.New(), title, orderIndex).
		Suffix("ON CONFLICT (title) DO UPDATE SET order_index = EXCLUDED.order_index RETURNING id").
		ToSql()
	if err != nil {
		return uuid.Nil, fmt.Errorf("build top_collection insert: %w", err)
	}

	var id uuid.UUID
	if err := postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return uuid.Nil, postgres.MapError(err, "top_collection", title)
	}
	return id, nil
}

// InsertDocument upserts the document row by short name and replaces its
// contributors. Re-migrating a document keeps its id.
func (r *Repo) InsertDocument(ctx context.Context, meta domain.DocumentMetadata, collectionID uuid.UUID, orderIndex int) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.txm.RunInTx(ctx, func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, r.pool)

		imageSource, imageIDs := pageImages(meta.PageImages)
		query, args, err := psql.Insert("documents").
			Columns(documentColumns...).
			Values(
				uuid.New(), meta.ShortName, meta.Title, collectionID, orderIndex,
				meta.Publication, meta.Source, meta.Genre, meta.Date,
				imageSource, imageIDs,
			).
			Suffix(`ON CONFLICT (short_name) DO UPDATE SET
				title = EXCLUDED.title,
				collection_id = EXCLUDED.collection_id,
				order_index = EXCLUDED.order_index,
				publication = EXCLUDED.publication,
				source = EXCLUDED.source,
				genre = EXCLUDED.genre,
				written_at = EXCLUDED.written_at,
				page_images_source = EXCLUDED.page_images_source,
				page_image_ids = EXCLUDED.page_image_ids,
				updated_at = now()
			RETURNING id`).
			ToSql()
		if err != nil {
			return fmt.Errorf("build document insert: %w", err)
		}
		if err := q.QueryRow(ctx, query, args...).Scan(&id); err != nil {
			return postgres.MapError(err, "document", meta.ShortName)
		}

		if err := r.deleteWhere(ctx, q, "contributors", id); err != nil {
			return postgres.MapError(err, "contributors", meta.ShortName)
		}
		rows := make([][]any, len(meta.Contributors))
		for i, c := range meta.Contributors {
			rows[i] = []any{id, i, c.Name, c.Role}
		}
		if _, err := r.insertRows(ctx, q, "contributors", []string{"document_id", "position", "name", "role"}, rows, ""); err != nil {
			return postgres.MapError(err, "contributors", meta.ShortName)
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// InsertDocumentContents replaces the paragraphs, words and word segments of
// an identified document in one transaction.
func (r *Repo) InsertDocumentContents(ctx context.Context, doc *domain.AnnotatedDocument) error {
	if !doc.HasID() {
		return fmt.Errorf("document %s has no id: %w", doc.Meta.ShortName, domain.ErrValidation)
	}
	docID := doc.Meta.ID
	short := doc.Meta.ShortName

	var paragraphs, words, segments [][]any
	for _, seg := range doc.Segments {
		paragraphs = append(paragraphs, []any{seg.ID, docID, seg.Index, seg.Translation, seg.Date})
		for _, w := range seg.Words {
			words = append(words, []any{
				w.ID, docID, seg.ID, w.Index, w.Page,
				w.Source, w.Phonetic, w.PhoneticDT, w.Morphemic, w.Gloss, w.Commentary,
				w.EndsLine, w.EndsPage,
			})
			for i, u := range w.Units {
				var followedBy *string
				if u.FollowedBy != nil {
					s := u.FollowedBy.Separator()
					followedBy = &s
				}
				segments = append(segments, []any{w.ID, i, u.Morpheme, u.Gloss, followedBy})
			}
		}
	}

	return r.txm.RunInTx(ctx, func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, r.pool)

		if err := r.deleteWhere(ctx, q, "paragraphs", docID); err != nil {
			return postgres.MapError(err, "paragraphs", short)
		}
		if _, err := r.insertRows(ctx, q, "paragraphs", paragraphColumns, paragraphs, ""); err != nil {
			return postgres.MapError(err, "paragraphs", short)
		}
		if _, err := r.insertRows(ctx, q, "words", wordColumns, words, ""); err != nil {
			return postgres.MapError(err, "words", short)
		}
		if _, err := r.insertRows(ctx, q, "word_segments", segmentColumns, segments, ""); err != nil {
			return postgres.MapError(err, "word_segments", short)
		}
		return nil
	})
}

// InsertMorphemeRelations stores lexical connections in chunks within one
// transaction. Existing relations are skipped. Returns the number of rows
// actually inserted.
func (r *Repo) InsertMorphemeRelations(ctx context.Context, conns []domain.LexicalConnection) (int, error) {
	if len(conns) == 0 {
		return 0, nil
	}

	rows := make([][]any, len(conns))
	for i, c := range conns {
		rows[i] = []any{c.DocumentShortName, c.WordIndex, c.MorphemeIndex, c.Gloss, c.EntryKey}
	}

	var inserted int
	err := r.txm.RunInTx(ctx, func(ctx context.Context) error {
		n, err := r.insertRows(ctx, postgres.QuerierFromCtx(ctx, r.pool), "morpheme_relations", relationColumns, rows, "ON CONFLICT DO NOTHING")
		inserted = n
		return err
	})
	if err != nil {
		return 0, postgres.MapError(err, "morpheme_relations", fmt.Sprintf("(%d rows)", len(conns)))
	}
	return inserted, nil
}

// RunInTx runs fn in one transaction. Repo writes made with the ctx passed
// to fn join it instead of opening their own.
func (r *Repo) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.txm.RunInTx(ctx, fn)
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// ListDocuments returns every migrated document with its word count, in
// collection and document order.
func (r *Repo) ListDocuments(ctx context.Context) ([]domain.DocumentSummary, error) {
	query, args, err := psql.Select(
		"d.id", "d.short_name", "d.title",
		"c.title AS collection_title", "d.order_index",
		"count(w.id) AS word_count",
	).
		From("documents d").
		Join("top_collections c ON c.id = d.collection_id").
		LeftJoin("words w ON w.document_id = d.id").
		GroupBy("d.id", "c.id").
		OrderBy("c.order_index", "d.order_index").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build document list: %w", err)
	}

	var out []domain.DocumentSummary
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.pool), &out, query, args...); err != nil {
		return nil, postgres.MapError(err, "documents", "list")
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (r *Repo) deleteWhere(ctx context.Context, q postgres.Querier, table string, documentID uuid.UUID) error {
	query, args, err := psql.Delete(table).Where(squirrel.Eq{"document_id": documentID}).ToSql()
	if err != nil {
		return fmt.Errorf("build %s delete: %w", table, err)
	}
	_, err = q.Exec(ctx, query, args...)
	return err
}

// insertRows writes rows with multi-row INSERT statements of at most
// r.batchSize rows each. Returns the number of affected rows.
func (r *Repo) insertRows(ctx context.Context, q postgres.Querier, table string, columns []string, rows [][]any, suffix string) (int, error) {
	total := 0
	for start := 0; start < len(rows); start += r.batchSize {
		end := min(start+r.batchSize, len(rows))

		b := psql.Insert(table).Columns(columns...)
		for _, row := range rows[start:end] {
			b = b.Values(row...)
		}
		if suffix != "" {
			b = b.Suffix(suffix)
		}
		query, args, err := b.ToSql()
		if err != nil {
			return total, fmt.Errorf("build %s insert: %w", table, err)
		}
		tag, err := q.Exec(ctx, query, args...)
		if err != nil {
			return total, err
		}
		total += int(tag.RowsAffected())
	}
	return total, nil
}

func pageImages(p *domain.PageImages) (*string, []string) {
	if p == nil {
		return nil, []string{}
	}
	ids := p.IDs
	if ids == nil {
		ids = []string{}
	}
	if p.Source == "" {
		return nil, ids
	}
	source := p.Source
	return &source, ids
}
