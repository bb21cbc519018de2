package routes_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfview/doc"
	"pdfview/routes"
	"pdfview/store"
)

// newTestServer seeds an in-memory library with one document whose pages come
// from a static extractor instead of a real PDF.
func newTestServer(t *testing.T, extractor *doc.StaticExtractor) (*httptest.Server, int64) {
	t.Helper()

	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Init(context.Background()))

	id, err := st.InsertDocument(context.Background(), store.Document{
		Name:  "physiology.pdf",
		Path:  "/library/physiology.pdf",
		Pages: extractor.PageCount(),
	})
	require.NoError(t, err)

	reg := routes.NewRegistry(func(path string) (doc.CharacterExtractor, error) {
		return extractor, nil
	}, 2)
	t.Cleanup(reg.Close)

	mux := http.NewServeMux()
	routes.Setup(mux, st, reg)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, id
}

func getJSON(t *testing.T, url string, v any) *http.Response {
	t.Helper()
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	if v != nil && res.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(res.Body).Decode(v))
	}
	return res
}

func TestListDocuments(t *testing.T) {
	extractor := &doc.StaticExtractor{
		Pages: [][]doc.Character{doc.Typeset("The pdf format is portable", 0)},
	}
	srv, id := newTestServer(t, extractor)

	var docs []struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Pages int    `json:"pages"`
	}
	res := getJSON(t, srv.URL+"/documents", &docs)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Len(t, docs, 1)
	assert.Equal(t, id, docs[0].ID)
	assert.Equal(t, "physiology.pdf", docs[0].Name)
	assert.Equal(t, 1, docs[0].Pages)
}

func TestSearchDocument(t *testing.T) {
	extractor := &doc.StaticExtractor{
		Pages: [][]doc.Character{
			doc.Typeset("The pdf format is portable", 0),
			doc.Typeset("pdf and pdf again", 0),
		},
	}
	srv, _ := newTestServer(t, extractor)

	var out struct {
		Query   string `json:"query"`
		State   string `json:"state"`
		Matches []struct {
			Page    int     `json:"page"`
			Start   int     `json:"start"`
			Length  int     `json:"length"`
			Text    string  `json:"text"`
			Rects   []any   `json:"rects"`
			Display []any   `json:"display"`
		} `json:"matches"`
	}
	res := getJSON(t, srv.URL+"/search?doc=1&q=pdf", &out)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "pdf", out.Query)
	assert.Equal(t, "completed", out.State)
	require.Len(t, out.Matches, 3)

	first := out.Matches[0]
	assert.Equal(t, 0, first.Page)
	assert.Equal(t, 4, first.Start)
	assert.Equal(t, 3, first.Length)
	assert.Equal(t, "pdf", first.Text)
	assert.NotEmpty(t, first.Rects)
	assert.Empty(t, first.Display, "no display rects without scale and dpi")
}

func TestSearchDocumentDisplayRects(t *testing.T) {
	extractor := &doc.StaticExtractor{
		Pages: [][]doc.Character{doc.Typeset("The pdf format is portable", 0)},
	}
	srv, _ := newTestServer(t, extractor)

	var out struct {
		Matches []struct {
			Display []struct {
				X      float64 `json:"x"`
				Y      float64 `json:"y"`
				Width  float64 `json:"width"`
				Height float64 `json:"height"`
			} `json:"display"`
		} `json:"matches"`
	}
	res := getJSON(t, srv.URL+"/search?doc=1&q=pdf&scale=1&dpi=144", &out)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Len(t, out.Matches, 1)
	require.Len(t, out.Matches[0].Display, 1)

	// "pdf" starts at column 4 on the first typeset line of a 612x792 page.
	// At scale 1 and 144 dpi every document point maps to two pixels.
	d := out.Matches[0].Display[0]
	assert.InDelta(t, 48, d.X, 1e-9)
	assert.InDelta(t, 24, d.Y, 1e-9)
	assert.InDelta(t, 36, d.Width, 1e-9)
	assert.InDelta(t, 20, d.Height, 1e-9)
}

func TestSearchDocumentCaseAndWordFlags(t *testing.T) {
	extractor := &doc.StaticExtractor{
		Pages: [][]doc.Character{doc.Typeset("concatenate cats cat", 0)},
	}
	srv, _ := newTestServer(t, extractor)

	var out struct {
		Matches []struct {
			Start int `json:"start"`
		} `json:"matches"`
	}

	res := getJSON(t, srv.URL+"/search?doc=1&q=cat", &out)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Len(t, out.Matches, 3)

	out.Matches = nil
	res = getJSON(t, srv.URL+"/search?doc=1&q=cat&word=1", &out)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Len(t, out.Matches, 1)
	assert.Equal(t, 17, out.Matches[0].Start)

	out.Matches = nil
	res = getJSON(t, srv.URL+"/search?doc=1&q=CAT&case=1", &out)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Empty(t, out.Matches)
}

func TestSearchDocumentBadRequests(t *testing.T) {
	extractor := &doc.StaticExtractor{
		Pages: [][]doc.Character{doc.Typeset("text", 0)},
	}
	srv, _ := newTestServer(t, extractor)

	res := getJSON(t, srv.URL+"/search?doc=abc&q=x", nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = getJSON(t, srv.URL+"/search?doc=1", nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = getJSON(t, srv.URL+"/search?doc=999&q=x", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestSearchDocumentClientGoneMidScan(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Init(context.Background()))

	id, err := st.InsertDocument(context.Background(), store.Document{
		Name: "slow.pdf", Path: "/library/slow.pdf", Pages: 1,
	})
	require.NoError(t, err)

	extractor := &doc.StaticExtractor{
		Pages: [][]doc.Character{doc.Typeset("The pdf format is portable", 0)},
		Delay: 200 * time.Millisecond,
	}
	reg := routes.NewRegistry(func(string) (doc.CharacterExtractor, error) {
		return extractor, nil
	}, 1)
	t.Cleanup(reg.Close)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	req := httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/search?doc=%d&q=pdf", id), nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	routes.SearchDocument(st, reg)(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestLibrarySearch(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Init(context.Background()))

	id, err := st.InsertDocument(context.Background(), store.Document{
		Name: "physiology.pdf", Path: "/library/physiology.pdf", Pages: 1,
	})
	require.NoError(t, err)
	require.NoError(t, st.InsertPages(context.Background(), []store.PageText{
		{DocumentID: id, PageNum: 0, Text: "The pdf format is portable"},
	}))

	mux := http.NewServeMux()
	routes.Setup(mux, st, routes.NewRegistry(nil, 1))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	var hits []struct {
		DocumentID int64  `json:"document_id"`
		Page       int    `json:"page"`
		Snippet    string `json:"snippet"`
	}
	res := getJSON(t, srv.URL+"/library/search?q=portable", &hits)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Len(t, hits, 1)
	assert.Equal(t, id, hits[0].DocumentID)
	assert.Contains(t, hits[0].Snippet, "<b>portable</b>")

	res = getJSON(t, srv.URL+"/library/search", nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}
