package search

import (
	"math"

	"pdfview/doc"
	"pdfview/geom"
)

// lineOverlapTolerance is the fraction of the smaller character's height by
// which two vertical bands must overlap to count as the same visual line.
const lineOverlapTolerance = 0.5

// MergeRects converts the character range [start, start+length) into one
// bounding rectangle per visual line the range touches, in reading order.
// Consecutive characters whose vertical bands overlap are grouped into one
// line; a line change starts a new rectangle. A single-line range yields
// exactly one rectangle.
func MergeRects(chars []doc.Character, start, length int) []geom.Rect {
	end := start + length
	if start < 0 || length <= 0 || end > len(chars) {
		return nil
	}

	var rects []geom.Rect
	current := chars[start].Box
	prev := chars[start].Box
	for _, c := range chars[start+1 : end] {
		if sameLine(prev, c.Box) {
			current = current.Union(c.Box)
		} else {
			rects = append(rects, current)
			current = c.Box
		}
		prev = c.Box
	}
	return append(rects, current)
}

// sameLine reports whether two adjacent character boxes share a visual line.
func sameLine(a, b geom.Rect) bool {
	overlap := math.Min(a.Top, b.Top) - math.Max(a.Bottom, b.Bottom)
	smaller := math.Min(a.Height(), b.Height())
	return overlap > lineOverlapTolerance*smaller
}
