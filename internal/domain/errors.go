package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")

	ErrFetch           = errors.New("sheet fetch failed")
	ErrSheetNotFound   = errors.New("sheet or tab not found")
	ErrLayerMismatch   = errors.New("layer token count mismatch")
	ErrMetadata        = errors.New("invalid document metadata")
	ErrPersistence     = errors.New("persistence failed")
	ErrEmptyPage       = errors.New("page has no annotated lines")
	ErrInvalidDocument = errors.New("invalid document")
	ErrIDAssigned      = errors.New("document id already assigned")
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// FetchError reports an unreachable source or a missing sheet/tab.
type FetchError struct {
	SheetID string
	Tab     string
	Err     error
}

func (e *FetchError) Error() string {
	tab := e.Tab
	if tab == "" {
		tab = "<first>"
	}
	return fmt.Sprintf("fetch sheet %s tab %s: %v", e.SheetID, tab, e.Err)
}

func (e *FetchError) Unwrap() []error { return []error{ErrFetch, e.Err} }

// LayerMismatchError reports a word whose morphemic and gloss layers split
// into a different number of tokens.
type LayerMismatchError struct {
	DocumentShortName string
	Page              int
	WordIndex         int
	Morphemic         string
	Gloss             string
	MorphemeCount     int
	GlossCount        int
}

func (e *LayerMismatchError) Error() string {
	var b strings.Builder
	if e.DocumentShortName != "" {
		fmt.Fprintf(&b, "document %s ", e.DocumentShortName)
	}
	if e.Page > 0 {
		fmt.Fprintf(&b, "page %d ", e.Page)
	}
	if e.WordIndex > 0 {
		fmt.Fprintf(&b, "word %d ", e.WordIndex)
	}
	fmt.Fprintf(&b, "%q has %d morphemes but gloss %q has %d", e.Morphemic, e.MorphemeCount, e.Gloss, e.GlossCount)
	return b.String()
}

func (e *LayerMismatchError) Unwrap() error { return ErrLayerMismatch }

// MetadataError reports required metadata fields that are absent or malformed.
type MetadataError struct {
	SheetID string
	Fields  []FieldError
}

func (e *MetadataError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	prefix := "metadata"
	if e.SheetID != "" {
		prefix = "metadata of sheet " + e.SheetID
	}
	return fmt.Sprintf("%s: %s", prefix, strings.Join(parts, "; "))
}

func (e *MetadataError) Unwrap() error { return ErrMetadata }

// PersistenceError wraps a storage failure for the current document.
type PersistenceError struct {
	Op      string
	SheetID string
	Err     error
}

func (e *PersistenceError) Error() string {
	if e.SheetID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s (sheet %s): %v", e.Op, e.SheetID, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }
