// Package poppler binds the poppler-glib engine and implements the
// character extractor boundary on top of it: per-character text layout in
// document coordinates, page sizes and document lifecycle.
package poppler

/*
#cgo pkg-config: glib-2.0 gio-2.0 poppler-glib

#include <locale.h>
#include <stdlib.h>
#include <poppler/glib/poppler.h>

static PopplerDocument *open_document(const char *filename, int *num_pages) {
	GFile *file = g_file_new_for_path(filename);
	if (file == NULL) {
		return NULL;
	}

	GError *error = NULL;
	GBytes *bytes = g_file_load_bytes(file, NULL, NULL, &error);
	g_object_unref(file);

	if (error != NULL) {
		g_print("Error loading PDF file: %s\n", error->message);
		g_clear_error(&error);
		return NULL;
	}

	PopplerDocument *doc = poppler_document_new_from_bytes(bytes, NULL, &error);
	if (error) {
		g_print("Error creating PDF document: %s\n", error->message);
		g_clear_error(&error);
		g_bytes_unref(bytes);
		return NULL;
	}

	*num_pages = poppler_document_get_n_pages(doc);
	g_bytes_unref(bytes);
	return doc;
}
*/
import "C"

import (
	"context"
	"fmt"
	"sync"
	"unsafe"

	"pdfview/doc"
	"pdfview/geom"
)

// Document wraps a poppler document handle. All methods are safe for
// concurrent use; the handle is released exactly once by Close and never
// escapes this package.
type Document struct {
	mu       sync.Mutex
	cdoc     *C.PopplerDocument
	numPages int

	Path string
}

var (
	_ doc.CharacterExtractor = (*Document)(nil)
	_ doc.PageSizer          = (*Document)(nil)
)

// SetLocale switches the C locale to the system default so poppler decodes
// text as UTF-8. Call once at startup.
func SetLocale() {
	C.setlocale(C.LC_ALL, C.CString(""))
}

func Open(path string) (*Document, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	var numPages C.int
	cdoc := C.open_document(cpath, &numPages)
	if cdoc == nil {
		return nil, fmt.Errorf("poppler: unable to open %s", path)
	}
	return &Document{cdoc: cdoc, numPages: int(numPages), Path: path}, nil
}

// Close releases the document handle. Extractions after Close fail with
// doc.ErrDocumentClosed.
func (d *Document) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cdoc != nil {
		C.g_object_unref(C.gpointer(d.cdoc))
		d.cdoc = nil
	}
}

func (d *Document) PageCount() int { return d.numPages }

// PageSize returns the page dimensions in points.
func (d *Document) PageSize(pageNumber int) (width, height float64, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	page, err := d.pageLocked(pageNumber)
	if err != nil {
		return 0, 0, err
	}
	defer C.g_object_unref(C.gpointer(page))

	var w, h C.double
	C.poppler_page_get_size(page, &w, &h)
	return float64(w), float64(h), nil
}

// ExtractPage returns the page's characters in reading order with their
// bounding boxes in document space (origin bottom-left). Pages without text
// yield an empty slice.
func (d *Document) ExtractPage(ctx context.Context, pageNumber int) ([]doc.Character, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	page, err := d.pageLocked(pageNumber)
	if err != nil {
		return nil, err
	}
	defer C.g_object_unref(C.gpointer(page))

	gtext := C.poppler_page_get_text(page)
	if gtext == nil {
		return nil, nil
	}
	defer C.g_free(C.gpointer(gtext))
	text := C.GoString((*C.char)(gtext))

	var crects *C.PopplerRectangle
	var nRects C.guint
	if C.poppler_page_get_text_layout(page, &crects, &nRects) == C.FALSE {
		return nil, nil
	}
	defer C.g_free(C.gpointer(crects))

	// poppler reports layout boxes with y growing downward from the page
	// top; flip into the bottom-left origin of document space.
	var pw, ph C.double
	C.poppler_page_get_size(page, &pw, &ph)
	pageHeight := float64(ph)

	rects := unsafe.Slice(crects, int(nRects))
	runes := []rune(text)
	count := len(runes)
	if len(rects) < count {
		count = len(rects)
	}

	chars := make([]doc.Character, 0, count)
	for i := 0; i < count; i++ {
		r := rects[i]
		chars = append(chars, doc.Character{
			Rune:  runes[i],
			Index: i,
			Box: geom.Rect{
				Left:   float64(r.x1),
				Bottom: pageHeight - float64(r.y2),
				Right:  float64(r.x2),
				Top:    pageHeight - float64(r.y1),
			},
		})
	}
	return chars, nil
}

// pageLocked loads a page handle. Caller holds d.mu and must unref the
// returned page.
func (d *Document) pageLocked(pageNumber int) (*C.PopplerPage, error) {
	if d.cdoc == nil {
		return nil, doc.ErrDocumentClosed
	}
	if pageNumber < 0 || pageNumber >= d.numPages {
		return nil, &doc.ExtractionError{Page: pageNumber, Err: fmt.Errorf("page out of range")}
	}
	page := C.poppler_document_get_page(d.cdoc, C.int(pageNumber))
	if page == nil {
		return nil, &doc.ExtractionError{Page: pageNumber, Err: fmt.Errorf("unable to load page")}
	}
	return page, nil
}
