package doc

import (
	"context"
	"fmt"
	"time"

	"pdfview/geom"
)

// StaticExtractor serves characters straight from memory. It backs tests and
// fixtures and doubles as a reference implementation of the extractor
// contract: per-page errors, injected latency and page sizes are all
// configurable.
type StaticExtractor struct {
	Pages [][]Character
	Sizes map[int][2]float64 // page -> {width, height}, optional
	Errs  map[int]error      // page -> error to return instead of characters
	Delay time.Duration      // per-page extraction latency
}

var _ CharacterExtractor = (*StaticExtractor)(nil)

func (s *StaticExtractor) PageCount() int { return len(s.Pages) }

func (s *StaticExtractor) ExtractPage(ctx context.Context, pageNumber int) ([]Character, error) {
	if pageNumber < 0 || pageNumber >= len(s.Pages) {
		return nil, &ExtractionError{Page: pageNumber, Err: fmt.Errorf("page out of range")}
	}
	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err, ok := s.Errs[pageNumber]; ok {
		return nil, err
	}
	return s.Pages[pageNumber], nil
}

func (s *StaticExtractor) PageSize(pageNumber int) (width, height float64, err error) {
	if size, ok := s.Sizes[pageNumber]; ok {
		return size[0], size[1], nil
	}
	// US letter by default, matching Typeset's grid.
	return 612, 792, nil
}

// Grid used by Typeset. The values are arbitrary but realistic for a
// monospaced face on a letter-sized page.
const (
	typesetCharWidth  = 6.0
	typesetCharHeight = 10.0
	typesetLeading    = 12.0
	typesetPageTop    = 780.0
)

// Typeset lays text out on a synthetic page grid and returns the resulting
// characters. Lines break at '\n' and, when wrap > 0, after wrap characters.
// Useful for building StaticExtractor fixtures with predictable geometry.
func Typeset(text string, wrap int) []Character {
	chars := make([]Character, 0, len(text))
	line, col := 0, 0
	for _, r := range text {
		top := typesetPageTop - float64(line)*typesetLeading
		box := geom.Rect{
			Left:   float64(col) * typesetCharWidth,
			Bottom: top - typesetCharHeight,
			Right:  float64(col+1) * typesetCharWidth,
			Top:    top,
		}
		if r == '\n' {
			// Line breaks occupy no width.
			box.Right = box.Left
		}
		chars = append(chars, Character{Rune: r, Index: len(chars), Box: box})
		if r == '\n' || (wrap > 0 && col+1 >= wrap) {
			line++
			col = 0
		} else {
			col++
		}
	}
	return chars
}
