// Package doc defines the boundary to the native document engine: the
// characters it extracts and the errors it can report. Everything above this
// package works with plain owned values; no native handles escape the
// extractor implementations.
package doc

import (
	"context"
	"errors"
	"fmt"

	"pdfview/geom"
)

// Character is one extracted character with its bounding box in document
// space. Produced once per page and never mutated afterwards.
type Character struct {
	Rune  rune
	Index int
	Box   geom.Rect
}

// CharacterExtractor supplies, per page, the ordered character sequence of a
// document. Characters are expected in reading order; this package never
// reorders them. A page with no text yields an empty slice, not an error.
type CharacterExtractor interface {
	PageCount() int
	ExtractPage(ctx context.Context, pageNumber int) ([]Character, error)
}

// PageSizer is implemented by extractors that also know page dimensions,
// which the display transform needs.
type PageSizer interface {
	PageSize(pageNumber int) (width, height float64, err error)
}

// ErrDocumentClosed reports that the underlying document became unavailable.
// Unlike an ExtractionError it is fatal to a whole scan.
var ErrDocumentClosed = errors.New("document is closed")

// ExtractionError is a recoverable per-page failure: the page is skipped and
// the scan continues.
type ExtractionError struct {
	Page int
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract page %d: %v", e.Page, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
