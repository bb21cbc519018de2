// Package search implements the in-document search core: substring and
// whole-word matching over page text indexes, merging of matched characters
// into highlight rectangles, a debounced cancellable coordinator and
// stateful match navigation.
package search

import (
	"unicode"

	"pdfview/doc"
	"pdfview/index"
)

// Options selects how queries are matched. It is a value type; two searches
// are "the same" when their query strings and Options compare equal.
type Options struct {
	CaseSensitive bool
	WholeWord     bool
}

// Span is a matched character-index range within one page.
type Span struct {
	Start  int
	Length int
}

// Find scans a page index for query and returns the matched spans in order.
// Matching is greedy, leftmost-first and non-overlapping: once a match is
// accepted the scan resumes past its end, so shorter matches inside an
// accepted one are not reported. Indices are character positions, matching
// Page.Chars. No matches is a valid nil result.
func Find(pg *index.Page, query string, opts Options) []Span {
	needle := []rune(query)
	if len(needle) == 0 || len(pg.Chars) < len(needle) {
		return nil
	}
	if !opts.CaseSensitive {
		for i, r := range needle {
			needle[i] = unicode.ToLower(r)
		}
	}

	var spans []Span
	m := len(needle)
	for i := 0; i+m <= len(pg.Chars); {
		if !matchAt(pg.Chars, i, needle, opts.CaseSensitive) {
			i++
			continue
		}
		if opts.WholeWord && !wholeWordAt(pg.Chars, i, m) {
			i++
			continue
		}
		spans = append(spans, Span{Start: i, Length: m})
		i += m
	}
	return spans
}

func matchAt(chars []doc.Character, at int, needle []rune, caseSensitive bool) bool {
	for j, want := range needle {
		got := chars[at+j].Rune
		if !caseSensitive {
			got = unicode.ToLower(got)
		}
		if got != want {
			return false
		}
	}
	return true
}

// wholeWordAt reports whether the span [at, at+length) is delimited by
// non-alphanumeric (or absent) characters on both sides.
func wholeWordAt(chars []doc.Character, at, length int) bool {
	if at > 0 && isWordRune(chars[at-1].Rune) {
		return false
	}
	if end := at + length; end < len(chars) && isWordRune(chars[end].Rune) {
		return false
	}
	return true
}

func isWordRune(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }
