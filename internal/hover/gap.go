package hover

import (
	"math"

	"github.com/gabrielfornes/teagrid/internal/layout"
)

// MinGapTolerance is the narrowest hit band around a gap centreline, in
// layout units.
const MinGapTolerance = 16.0

// Point is a pointer position in layout units.
type Point struct {
	X, Y float64
}

// Rect is an axis-aligned box in layout units.
type Rect struct {
	X, Y, W, H float64
}

func (r Rect) right() float64  { return r.X + r.W }
func (r Rect) bottom() float64 { return r.Y + r.H }

// Box is a rendered cell.
type Box struct {
	Key     layout.Key
	Rect    Rect
	HasNote bool
}

// Orientation is the direction of the gap line.
type Orientation int

const (
	// Vertical gaps separate horizontally adjacent cells.
	Vertical Orientation = iota
	// Horizontal gaps separate vertically adjacent cells.
	Horizontal
)

// Gap is a swap target between two adjacent cells.
type Gap struct {
	A, B        layout.Key
	Orientation Orientation
	// Center is the midpoint of the gap segment, where the affordance is drawn.
	Center Point
}

// Tolerance returns the hit band width for a grid with the given spacing.
func Tolerance(spacing float64) float64 {
	return math.Max(spacing*2, MinGapTolerance)
}

// DetectGap finds the gap nearest to p among those whose hit band contains
// it. ok is false when no gap is close enough or when either adjacent cell
// has no note.
func DetectGap(boxes []Box, p Point, spacing float64) (Gap, bool) {
	byKey := make(map[layout.Key]Box, len(boxes))
	for _, b := range boxes {
		byKey[b.Key] = b
	}
	half := Tolerance(spacing) / 2

	var (
		best     Gap
		bestDist = math.Inf(1)
		bestOK   bool
		found    bool
	)
	consider := func(g Gap, dist float64, ok bool) {
		if dist < bestDist {
			best, bestDist, bestOK, found = g, dist, ok, true
		}
	}

	for _, a := range boxes {
		if b, ok := byKey[layout.Key{Row: a.Key.Row, Col: a.Key.Col + 1}]; ok {
			cx := (a.Rect.right() + b.Rect.X) / 2
			top := math.Max(a.Rect.Y, b.Rect.Y)
			bottom := math.Min(a.Rect.bottom(), b.Rect.bottom())
			dist := math.Abs(p.X - cx)
			if bottom > top && dist <= half && p.Y >= top && p.Y <= bottom {
				consider(Gap{
					A: a.Key, B: b.Key, Orientation: Vertical,
					Center: Point{X: cx, Y: (top + bottom) / 2},
				}, dist, a.HasNote && b.HasNote)
			}
		}
		if b, ok := byKey[layout.Key{Row: a.Key.Row + 1, Col: a.Key.Col}]; ok {
			cy := (a.Rect.bottom() + b.Rect.Y) / 2
			left := math.Max(a.Rect.X, b.Rect.X)
			right := math.Min(a.Rect.right(), b.Rect.right())
			dist := math.Abs(p.Y - cy)
			if right > left && dist <= half && p.X >= left && p.X <= right {
				consider(Gap{
					A: a.Key, B: b.Key, Orientation: Horizontal,
					Center: Point{X: (left + right) / 2, Y: cy},
				}, dist, a.HasNote && b.HasNote)
			}
		}
	}

	if !found || !bestOK {
		return Gap{}, false
	}
	return best, true
}
