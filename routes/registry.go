package routes

import (
	"sync"

	"pdfview/doc"
	"pdfview/index"
	"pdfview/search"
)

// Opener opens the document at path and returns its character extractor.
type Opener func(path string) (doc.CharacterExtractor, error)

// Registry keeps one open document per library id: its extractor, page
// index cache and search engine. Documents are opened on first use and
// released together by Close.
type Registry struct {
	open        Opener
	concurrency int

	mu      sync.Mutex
	entries map[int64]*entry
}

type entry struct {
	extractor doc.CharacterExtractor
	cache     *index.Cache
	engine    *search.Engine
}

func NewRegistry(open Opener, concurrency int) *Registry {
	return &Registry{
		open:        open,
		concurrency: concurrency,
		entries:     make(map[int64]*entry),
	}
}

func (r *Registry) acquire(id int64, path string) (*entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[id]; ok {
		return e, nil
	}

	extractor, err := r.open(path)
	if err != nil {
		return nil, err
	}
	cache := index.NewCache(extractor)
	e := &entry{
		extractor: extractor,
		cache:     cache,
		engine:    search.NewEngine(cache, search.EngineConfig{Concurrency: r.concurrency}),
	}
	r.entries[id] = e
	return e, nil
}

// Close releases every open document.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.entries {
		e.cache.Close()
		if closer, ok := e.extractor.(interface{ Close() }); ok {
			closer.Close()
		}
		delete(r.entries, id)
	}
}
