package routes

import (
	"net/http"

	"pdfview/store"
)

func Setup(mux *http.ServeMux, st *store.Store, reg *Registry) {
	// Indexed library.
	mux.HandleFunc("GET /documents", ListDocuments(st))

	// In-document search with highlight geometry.
	mux.HandleFunc("GET /search", SearchDocument(st, reg))

	// Full-text search across the whole library.
	mux.HandleFunc("GET /library/search", LibrarySearch(st))
}
