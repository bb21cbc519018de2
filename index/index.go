// Package index builds and caches per-page text indexes: the extracted
// characters of a page combined into one searchable string plus the
// index-to-character lookup that gives every match its geometry.
package index

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"pdfview/doc"
)

// Page is an immutable text index for a single page. Text is the
// concatenation of the characters' runes; Chars[i].Index == i, so a rune
// offset into the page maps directly to its bounding box.
type Page struct {
	Number int
	Text   string
	Chars  []doc.Character
}

// NewPage builds a Page from extracted characters. The input is copied and
// the copy renumbered to positions within the page; the extractor keeps
// ownership of its slice.
func NewPage(number int, chars []doc.Character) *Page {
	owned := make([]doc.Character, len(chars))
	copy(owned, chars)
	var b strings.Builder
	b.Grow(len(owned))
	for i := range owned {
		owned[i].Index = i
		b.WriteRune(owned[i].Rune)
	}
	return &Page{Number: number, Text: b.String(), Chars: owned}
}

// Cache lazily builds and retains one Page per page of a document. Entries
// are written once and read many times; concurrent requests for the same
// unbuilt page are collapsed through singleflight so the extractor runs at
// most once per page. Closing the cache invalidates every entry.
type Cache struct {
	extractor doc.CharacterExtractor

	group singleflight.Group

	mu     sync.RWMutex
	pages  map[int]*Page
	closed bool
}

func NewCache(extractor doc.CharacterExtractor) *Cache {
	return &Cache{
		extractor: extractor,
		pages:     make(map[int]*Page),
	}
}

// PageCount reports the number of pages in the underlying document.
func (c *Cache) PageCount() int { return c.extractor.PageCount() }

// Extractor returns the extractor backing this cache.
func (c *Cache) Extractor() doc.CharacterExtractor { return c.extractor }

// Get returns the index for pageNumber, building it on first use. A page
// without extractable text yields a Page with an empty string, not an error.
func (c *Cache) Get(ctx context.Context, pageNumber int) (*Page, error) {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return nil, doc.ErrDocumentClosed
	}
	if pg, ok := c.pages[pageNumber]; ok {
		c.mu.RUnlock()
		return pg, nil
	}
	c.mu.RUnlock()

	// The build is detached from any single caller's context: cancelling
	// one waiter must not fail the flight for waiters whose contexts are
	// still live. A cancelled caller only stops waiting; the extraction
	// runs on and its result is cached for the next Get.
	buildCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(strconv.Itoa(pageNumber), func() (any, error) {
		// A concurrent caller may have stored the page while we waited for
		// the flight slot.
		c.mu.RLock()
		pg, ok := c.pages[pageNumber]
		closed := c.closed
		c.mu.RUnlock()
		if closed {
			return nil, doc.ErrDocumentClosed
		}
		if ok {
			return pg, nil
		}

		chars, err := c.extractor.ExtractPage(buildCtx, pageNumber)
		if err != nil {
			return nil, err
		}
		pg = NewPage(pageNumber, chars)

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed {
			return nil, doc.ErrDocumentClosed
		}
		c.pages[pageNumber] = pg
		return pg, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Page), nil
	}
}

// Close discards all entries. Subsequent Gets fail with ErrDocumentClosed.
func (c *Cache) Close() {
	c.mu.Lock()
	c.closed = true
	c.pages = nil
	c.mu.Unlock()
}
