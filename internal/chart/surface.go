// Package chart draws the category pie and the spending-over-time line chart
// onto a fixed-size 2D surface.
//
// Renderers are pure functions of their aggregate, the theme and the target
// Surface: layout is computed first (PieLayout, LineLayout) and then replayed
// as a small set of drawing primitives. Two Surfaces ship with the package:
// Recorder keeps the primitives for inspection, Raster paints pixels and
// encodes PNG.
package chart

import "image/color"

// SegmentKind identifies a path segment.
type SegmentKind uint8

const (
	SegMove SegmentKind = iota
	SegLine
	SegArc
	SegClose
)

type (
	// Point is a position in surface pixels, origin top-left, y growing down.
	Point struct {
		X, Y float64
	}

	// Segment is one step of a Path. For SegArc, X/Y is the centre and the arc
	// runs clockwise on screen from Start to End radians (0 points right).
	Segment struct {
		Kind       SegmentKind
		X, Y       float64
		R          float64
		Start, End float64
	}

	// Path is an ordered list of segments.
	Path []Segment

	// Stroke describes an outline.
	Stroke struct {
		Color color.Color
		Width float64
	}
)

// Surface is a fixed-size raster target. Implementations need not be safe for
// concurrent use.
type Surface interface {
	Size() (width, height int)
	// Clear paints the whole surface with c.
	Clear(c color.Color)
	// FillPath fills p. A positive glow asks for a soft halo of the fill colour;
	// implementations may approximate or ignore it.
	FillPath(p Path, fill color.Color, glow float64)
	StrokePath(p Path, s Stroke, glow float64)
	FillCircle(cx, cy, r float64, fill color.Color)
	// Text draws s with its baseline starting at (x, y).
	Text(s string, x, y, size float64, c color.Color)
	// MeasureText returns the advance width of s at the given size.
	MeasureText(s string, size float64) float64
}

func (p Path) MoveTo(x, y float64) Path {
	return append(p, Segment{Kind: SegMove, X: x, Y: y})
}

func (p Path) LineTo(x, y float64) Path {
	return append(p, Segment{Kind: SegLine, X: x, Y: y})
}

func (p Path) Arc(cx, cy, r, start, end float64) Path {
	return append(p, Segment{Kind: SegArc, X: cx, Y: cy, R: r, Start: start, End: end})
}

func (p Path) Close() Path {
	return append(p, Segment{Kind: SegClose})
}

// Polyline returns an open path through pts.
func Polyline(pts []Point) Path {
	p := make(Path, 0, len(pts))
	for i, pt := range pts {
		if i == 0 {
			p = p.MoveTo(pt.X, pt.Y)
			continue
		}
		p = p.LineTo(pt.X, pt.Y)
	}
	return p
}

const placeholderText = "No data"

// drawPlaceholder writes the centred "No data" message used for empty input.
func drawPlaceholder(s Surface, t Theme) {
	const size = 14
	w, h := s.Size()
	tw := s.MeasureText(placeholderText, size)
	s.Text(placeholderText, float64(w)/2-tw/2, float64(h)/2, size, t.Muted)
}
