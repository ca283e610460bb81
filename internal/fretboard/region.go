// Package fretboard turns hand landmarks into finger positions on a virtual
// guitar neck: which string and fret each pressing fingertip is on.
package fretboard

import (
	"errors"
	"fmt"
	"math"
)

// Fretboard dimensions. Standard tuning, no capo.
const (
	NumStrings = 6
	NumFrets   = 12
)

// ErrInvalidRegion is returned for a region whose corners are not ordered.
var ErrInvalidRegion = errors.New("invalid fretboard region")

// Point2D is a point in canvas pixel space.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Cell is one (string, fret) slot of the fretboard grid.
type Cell struct {
	String int `json:"string"`
	Fret   int `json:"fret"`
}

// Region is the axis-aligned rectangle of the canvas mapped onto the neck.
// Strings run as horizontal bands, string 1 at the top; frets run as vertical
// bands, fret 1 at the left.
type Region struct {
	TopLeft     Point2D `json:"top_left"`
	BottomRight Point2D `json:"bottom_right"`
}

// Validate checks that the corners describe a non-empty rectangle.
func (r Region) Validate() error {
	if !(r.TopLeft.X < r.BottomRight.X) || !(r.TopLeft.Y < r.BottomRight.Y) {
		return fmt.Errorf("%w: top-left %+v must be above and left of bottom-right %+v",
			ErrInvalidRegion, r.TopLeft, r.BottomRight)
	}
	return nil
}

// Width returns the horizontal extent of the region.
func (r Region) Width() float64 { return r.BottomRight.X - r.TopLeft.X }

// Height returns the vertical extent of the region.
func (r Region) Height() float64 { return r.BottomRight.Y - r.TopLeft.Y }

// Contains reports whether p lies within the region, edges included.
func (r Region) Contains(p Point2D) bool {
	return p.X >= r.TopLeft.X && p.X <= r.BottomRight.X &&
		p.Y >= r.TopLeft.Y && p.Y <= r.BottomRight.Y
}

// Locate maps a canvas point onto the fretboard grid. It returns false for
// points outside the region; such points never produce a clamped cell.
func (r Region) Locate(p Point2D) (Cell, bool) {
	if !r.Contains(p) {
		return Cell{}, false
	}

	relY := (p.Y - r.TopLeft.Y) / r.Height()
	relX := (p.X - r.TopLeft.X) / r.Width()

	// A point exactly on the bottom or right edge lands one past the last
	// band; clamping folds it back into the last string or fret.
	return Cell{
		String: clamp(int(math.Floor(relY*NumStrings))+1, 1, NumStrings),
		Fret:   clamp(int(math.Floor(relX*NumFrets))+1, 1, NumFrets),
	}, true
}

// StringY returns the y of the centre line of string s, for drawing.
func (r Region) StringY(s int) float64 {
	return r.TopLeft.Y + r.Height()/NumStrings*(float64(s)-0.5)
}

// FretX returns the x of the wire on the right edge of fret f. FretX(0) is
// the nut.
func (r Region) FretX(f int) float64 {
	return r.TopLeft.X + r.Width()/NumFrets*float64(f)
}

// CellCenter returns the canvas point in the middle of a cell.
func (r Region) CellCenter(c Cell) Point2D {
	return Point2D{
		X: r.TopLeft.X + r.Width()/NumFrets*(float64(c.Fret)-0.5),
		Y: r.StringY(c.String),
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Layout positions the fretboard region as fractions of the canvas, so the
// same layout works for any capture resolution.
type Layout struct {
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// DefaultLayout returns the layout used when nothing else is configured.
func DefaultLayout() Layout {
	return Layout{
		Left:   0.15,
		Right:  0.80,
		Top:    0.30,
		Bottom: 0.60,
	}
}

// Validate checks that every fraction is within [0,1] and the edges are ordered.
func (l Layout) Validate() error {
	for _, v := range []float64{l.Left, l.Right, l.Top, l.Bottom} {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("%w: layout fraction %v outside [0,1]", ErrInvalidRegion, v)
		}
	}
	if l.Left >= l.Right || l.Top >= l.Bottom {
		return fmt.Errorf("%w: layout edges out of order", ErrInvalidRegion)
	}
	return nil
}

// Region computes the pixel-space region for a canvas of the given size.
func (l Layout) Region(width, height float64) Region {
	return Region{
		TopLeft:     Point2D{X: width * l.Left, Y: height * l.Top},
		BottomRight: Point2D{X: width * l.Right, Y: height * l.Bottom},
	}
}
