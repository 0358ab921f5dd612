package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Contributor is a person credited on a document.
type Contributor struct {
	Name string
	Role string
}

// PageImages references the scanned page images of a document.
type PageImages struct {
	Source string
	IDs    []string
}

// DocumentMetadata is read from the Metadata tab of a document sheet.
type DocumentMetadata struct {
	ID           uuid.UUID // assigned by persistence
	Title        string
	ShortName    string
	Publication  *string
	Source       *string
	Genre        *string
	Date         *time.Time
	Contributors []Contributor
	PageImages   *PageImages
	OrderIndex   int
	// Orthography names the convention of the phonetic column ("t/th" when
	// empty).
	Orthography string
}

// PageCount returns the number of content tabs the document spans.
func (m DocumentMetadata) PageCount() int {
	if m.PageImages == nil || len(m.PageImages.IDs) == 0 {
		return 1
	}
	return len(m.PageImages.IDs)
}

// AnnotatedWord is a single word occurrence with its resolved morphemes.
type AnnotatedWord struct {
	ID         uuid.UUID
	Index      int // 1-based position in the document
	Page       int
	Source     string
	Phonetic   string
	PhoneticDT string
	Morphemic  string
	Gloss      string
	Units      []MorphemeUnit
	Commentary string
	EndsLine   bool
	EndsPage   bool
}

// DocumentSegment is an ordered paragraph of a document.
type DocumentSegment struct {
	ID          uuid.UUID
	Index       int
	DocumentID  uuid.UUID
	Date        *time.Time
	Words       []AnnotatedWord
	Translation string
}

// AnnotatedDocument is a fully assembled document ready for persistence.
type AnnotatedDocument struct {
	Meta     DocumentMetadata
	Segments []DocumentSegment
}

// NewAnnotatedDocument creates an AnnotatedDocument without an identifier.
func NewAnnotatedDocument(meta DocumentMetadata, segments []DocumentSegment) *AnnotatedDocument {
	return &AnnotatedDocument{Meta: meta, Segments: segments}
}

// HasID reports whether persistence has assigned the document identifier.
func (d *AnnotatedDocument) HasID() bool {
	return d.Meta.ID != uuid.Nil
}

// AssignID sets the persistence identifier on the document and every segment.
// It may be called once; the document is immutable afterwards.
func (d *AnnotatedDocument) AssignID(id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("document %s: %w", d.Meta.ShortName, ErrValidation)
	}
	if d.HasID() {
		return fmt.Errorf("document %s: %w", d.Meta.ShortName, ErrIDAssigned)
	}
	d.Meta.ID = id
	for i := range d.Segments {
		d.Segments[i].DocumentID = id
	}
	return nil
}

// WordCount returns the number of words across all segments.
func (d *AnnotatedDocument) WordCount() int {
	n := 0
	for _, s := range d.Segments {
		n += len(s.Words)
	}
	return n
}

// LexicalConnection links a morpheme occurrence to an external lexical entry.
type LexicalConnection struct {
	DocumentShortName string
	WordIndex         int
	MorphemeIndex     int
	Gloss             string
	EntryKey          string
}

// DocumentSummary is a migrated document as listed by the store.
type DocumentSummary struct {
	ID              uuid.UUID `db:"id"`
	ShortName       string    `db:"short_name"`
	Title           string    `db:"title"`
	CollectionTitle string    `db:"collection_title"`
	OrderIndex      int       `db:"order_index"`
	Words           int       `db:"word_count"`
}
