package cli

import (
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"pdfview/doc"
	"pdfview/index"
	"pdfview/poppler"
	"pdfview/store"
)

// BuildLibrary extracts every PDF under config.Directory and stores the page
// text in the library database. Files that cannot be opened are logged and
// skipped; a failed page skips only that page.
func BuildLibrary(ctx context.Context, config *Config) error {
	files, err := collectPDFs(config.Directory)
	if err != nil {
		return err
	}
	log.Printf("Found %d files in %s\n", len(files), config.Directory)

	st, err := store.Open(config.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Init(ctx); err != nil {
		return err
	}

	for i, file := range files {
		log.Printf("(%d/%d) Indexing: %s\n", i+1, len(files), file)
		if err := indexFile(ctx, st, file, config.Concurrency); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			log.Println("unable to index", file, ":", err)
		}
	}
	return nil
}

// collectPDFs walks dir recursively and returns every regular .pdf file,
// skipping hidden directories.
func collectPDFs(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && strings.EqualFold(filepath.Ext(path), ".pdf") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// indexFile extracts all pages of one PDF concurrently and stores them.
func indexFile(ctx context.Context, st *store.Store, path string, workers int) error {
	d, err := poppler.Open(path)
	if err != nil {
		return err
	}
	defer d.Close()

	id, err := st.InsertDocument(ctx, store.Document{
		Name:  filepath.Base(path),
		Path:  path,
		Pages: d.PageCount(),
	})
	if err != nil {
		return err
	}

	cache := index.NewCache(d)
	defer cache.Close()

	texts := make([]string, d.PageCount())
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for page := 0; page < d.PageCount(); page++ {
		page := page
		g.Go(func() error {
			pg, err := cache.Get(gctx, page)
			if err != nil {
				var extractErr *doc.ExtractionError
				if errors.As(err, &extractErr) {
					log.Printf("unable to extract page %d of %s\n", page, path)
					return nil
				}
				return err
			}
			texts[page] = pg.Text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	pages := make([]store.PageText, 0, len(texts))
	for page, text := range texts {
		if text == "" {
			continue
		}
		pages = append(pages, store.PageText{DocumentID: id, PageNum: page, Text: text})
	}
	return st.InsertPages(ctx, pages)
}
