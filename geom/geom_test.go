package geom_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfview/geom"
)

func TestToDisplay(t *testing.T) {
	// A4 page at 100% zoom on a 144 DPI surface: every point becomes 2 pixels.
	tr := geom.NewTransform(1.0, 144, 842)

	r := geom.Rect{Left: 36, Bottom: 806, Right: 136, Top: 826}
	d := tr.ToDisplay(r)

	assert.InDelta(t, 72, d.X, 1e-9)
	assert.InDelta(t, 32, d.Y, 1e-9) // (842-826)*2
	assert.InDelta(t, 200, d.Width, 1e-9)
	assert.InDelta(t, 40, d.Height, 1e-9)
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		scale float64
		dpi   float64
		rect  geom.Rect
	}{
		{"unit scale", 1.0, 72, geom.Rect{Left: 10, Bottom: 20, Right: 110, Top: 40}},
		{"zoomed in", 2.5, 96, geom.Rect{Left: 0, Bottom: 0, Right: 612, Top: 792}},
		{"zoomed out", 0.25, 120.3, geom.Rect{Left: 71.5, Bottom: 33.25, Right: 72.75, Top: 42.125}},
		{"hidpi", 1.33, 218, geom.Rect{Left: 300.7, Bottom: 119.1, Right: 305.2, Top: 131.9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := geom.NewTransform(tt.scale, tt.dpi, 792)
			got := tr.ToDocument(tr.ToDisplay(tt.rect))

			require.InDelta(t, tt.rect.Left, got.Left, 1e-9)
			require.InDelta(t, tt.rect.Bottom, got.Bottom, 1e-9)
			require.InDelta(t, tt.rect.Right, got.Right, 1e-9)
			require.InDelta(t, tt.rect.Top, got.Top, 1e-9)
		})
	}
}

func TestUnion(t *testing.T) {
	a := geom.Rect{Left: 0, Bottom: 10, Right: 5, Top: 20}
	b := geom.Rect{Left: 3, Bottom: 8, Right: 9, Top: 18}

	u := a.Union(b)
	assert.Equal(t, geom.Rect{Left: 0, Bottom: 8, Right: 9, Top: 20}, u)
	assert.Equal(t, u, b.Union(a))
}
