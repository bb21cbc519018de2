// Package geom holds the two coordinate spaces of the viewer and the
// transform between them. Document space has its origin at the bottom-left
// of a page and is measured in points; display space has its origin at the
// top-left of the rendering surface and is measured in device pixels.
// Converting between the two goes through a Transform.
package geom

import "math"

// PointsPerInch is the resolution of the document coordinate space.
const PointsPerInch = 72.0

// Rect is an axis-aligned rectangle in document space.
type Rect struct {
	Left   float64 `json:"left"`
	Bottom float64 `json:"bottom"`
	Right  float64 `json:"right"`
	Top    float64 `json:"top"`
}

func (r Rect) Width() float64  { return r.Right - r.Left }
func (r Rect) Height() float64 { return r.Top - r.Bottom }

// Union returns the smallest rectangle that contains both r and other.
func (r Rect) Union(other Rect) Rect {
	return Rect{
		Left:   math.Min(r.Left, other.Left),
		Bottom: math.Min(r.Bottom, other.Bottom),
		Right:  math.Max(r.Right, other.Right),
		Top:    math.Max(r.Top, other.Top),
	}
}

// DisplayRect is an axis-aligned rectangle in display space.
type DisplayRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Transform maps rectangles between document space and display space for one
// page. Scale combines the zoom level; DPIRatio is deviceDPI / 72. The
// vertical axis flips because document space grows upward while display
// space grows downward.
type Transform struct {
	Scale      float64
	DPIRatio   float64
	PageHeight float64 // page height in points
}

// NewTransform builds a Transform from a zoom scale, the device DPI and the
// page height in points.
func NewTransform(scale, deviceDPI, pageHeight float64) Transform {
	return Transform{
		Scale:      scale,
		DPIRatio:   deviceDPI / PointsPerInch,
		PageHeight: pageHeight,
	}
}

func (t Transform) factor() float64 { return t.Scale * t.DPIRatio }

// ToDisplay maps a document-space rectangle onto the rendering surface.
func (t Transform) ToDisplay(r Rect) DisplayRect {
	k := t.factor()
	return DisplayRect{
		X:      r.Left * k,
		Y:      (t.PageHeight - r.Top) * k,
		Width:  r.Width() * k,
		Height: r.Height() * k,
	}
}

// ToDocument is the exact inverse of ToDisplay up to floating-point rounding.
func (t Transform) ToDocument(d DisplayRect) Rect {
	k := t.factor()
	left := d.X / k
	top := t.PageHeight - d.Y/k
	return Rect{
		Left:   left,
		Bottom: top - d.Height/k,
		Right:  left + d.Width/k,
		Top:    top,
	}
}
