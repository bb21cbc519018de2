package routes

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"pdfview/doc"
	"pdfview/geom"
	"pdfview/search"
	"pdfview/store"
)

type documentJSON struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Pages int    `json:"pages"`
}

type matchJSON struct {
	Page    int                `json:"page"`
	Start   int                `json:"start"`
	Length  int                `json:"length"`
	Text    string             `json:"text"`
	Rects   []geom.Rect        `json:"rects"`
	Display []geom.DisplayRect `json:"display,omitempty"`
}

type searchJSON struct {
	Session      string      `json:"session"`
	Query        string      `json:"query"`
	State        string      `json:"state"`
	Matches      []matchJSON `json:"matches"`
	SkippedPages []int       `json:"skipped_pages,omitempty"`
}

type libraryHitJSON struct {
	DocumentID int64  `json:"document_id"`
	Name       string `json:"name"`
	Page       int    `json:"page"`
	Snippet    string `json:"snippet"`
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// ListDocuments returns the indexed library.
func ListDocuments(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docs, err := st.Documents(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		out := make([]documentJSON, 0, len(docs))
		for _, d := range docs {
			out = append(out, documentJSON{ID: d.ID, Name: d.Name, Pages: d.Pages})
		}
		writeJSON(w, out)
	}
}

// SearchDocument runs an in-document search and returns every match with its
// highlight rectangles. With scale and dpi parameters the rectangles are
// also mapped into display space.
func SearchDocument(st *store.Store, reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.URL.Query().Get("doc"), 10, 64)
		if err != nil {
			http.Error(w, "invalid doc id", http.StatusBadRequest)
			return
		}
		query := r.URL.Query().Get("q")
		if query == "" {
			http.Error(w, "missing query", http.StatusBadRequest)
			return
		}
		opts := search.Options{
			CaseSensitive: r.URL.Query().Get("case") == "1",
			WholeWord:     r.URL.Query().Get("word") == "1",
		}
		scale, _ := strconv.ParseFloat(r.URL.Query().Get("scale"), 64)
		dpi, _ := strconv.ParseFloat(r.URL.Query().Get("dpi"), 64)

		rec, err := st.Document(r.Context(), id)
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "document not found", http.StatusNotFound)
			return
		} else if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		entry, err := reg.acquire(id, rec.Path)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		session, err := entry.engine.Run(r.Context(), query, opts)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if session.State == search.Canceled {
			// Client went away mid-scan.
			w.WriteHeader(http.StatusNoContent)
			return
		}

		out := searchJSON{
			Session:      session.ID.String(),
			Query:        session.Query,
			State:        session.State.String(),
			Matches:      make([]matchJSON, 0, len(session.Matches)),
			SkippedPages: session.SkippedPages,
		}

		sizer, _ := entry.extractor.(doc.PageSizer)
		transforms := map[int]geom.Transform{}
		for _, m := range session.Matches {
			mj := matchJSON{
				Page:   m.Page,
				Start:  m.Start,
				Length: m.Length,
				Text:   m.Text,
				Rects:  m.Rects,
			}
			if sizer != nil && scale > 0 && dpi > 0 {
				tr, ok := transforms[m.Page]
				if !ok {
					if _, height, err := sizer.PageSize(m.Page); err == nil {
						tr = geom.NewTransform(scale, dpi, height)
						transforms[m.Page] = tr
						ok = true
					}
				}
				if ok {
					for _, rect := range m.Rects {
						mj.Display = append(mj.Display, tr.ToDisplay(rect))
					}
				}
			}
			out.Matches = append(out.Matches, mj)
		}
		writeJSON(w, out)
	}
}

// LibrarySearch answers full-text queries across every indexed document.
func LibrarySearch(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		if query == "" {
			http.Error(w, "missing query", http.StatusBadRequest)
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		hits, err := st.Search(r.Context(), query, limit)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		out := make([]libraryHitJSON, 0, len(hits))
		for _, h := range hits {
			out = append(out, libraryHitJSON{
				DocumentID: h.DocumentID,
				Name:       h.Name,
				Page:       h.PageNum,
				Snippet:    h.Snippet,
			})
		}
		writeJSON(w, out)
	}
}
