package chart

import (
	"math"
	"strconv"

	"fintrack/internal/core"
)

const (
	linePadding     = 36
	lineGridLines   = 4 // intervals; the grid has lineGridLines+1 lines
	lineMaxLabels   = 6
	lineWidth       = 2.5
	lineGlow        = 12
	lineMarker      = 3
	lineTextSize    = 12
	lineAxisLabelX  = 6
	lineAxisLabelDY = 4
	lineDateShift   = 20
	lineDateDY      = 16
)

type (
	// LinePoint is one plotted day.
	LinePoint struct {
		Date     string
		Value    float64
		Point    Point
		Labelled bool // date label drawn under this point
	}

	// GridLine is a horizontal guide with its axis value.
	GridLine struct {
		Y     float64
		Value int64
	}

	// Line is the computed geometry for a temporal aggregate.
	Line struct {
		Padding     float64
		Left, Right float64
		Top, Bottom float64
		Max         float64 // vertical scale; never zero
		Points      []LinePoint
		Grid        []GridLine
		LabelStride int
	}
)

// Empty reports whether there is nothing to plot.
func (l Line) Empty() bool { return len(l.Points) == 0 }

// LineLayout maps agg onto a width×height surface. The i-th date sits at
// Left + i/(n-1) of the inner width, with a single date pinned to the left
// edge. Values scale against the largest daily sum, or 1 when that is zero.
func LineLayout(agg core.TemporalAggregate, width, height int) Line {
	const pad = linePadding
	l := Line{
		Padding: pad,
		Left:    pad,
		Right:   float64(width) - pad,
		Top:     pad,
		Bottom:  float64(height) - pad,
		Max:     agg.Max().InexactFloat64(),
	}
	if l.Max <= 0 {
		l.Max = 1
	}
	innerW := l.Right - l.Left
	innerH := l.Bottom - l.Top

	n := len(agg)
	if n == 0 {
		return l
	}
	l.LabelStride = max(1, int(math.Ceil(float64(n)/lineMaxLabels)))
	span := float64(max(n-1, 1))

	l.Points = make([]LinePoint, n)
	for i, dt := range agg {
		v := dt.Amount.InexactFloat64()
		l.Points[i] = LinePoint{
			Date:  dt.Date,
			Value: v,
			Point: Point{
				X: l.Left + float64(i)/span*innerW,
				Y: l.Top + innerH - v/l.Max*innerH,
			},
			Labelled: i%l.LabelStride == 0 || i == n-1,
		}
	}

	l.Grid = make([]GridLine, lineGridLines+1)
	for i := range l.Grid {
		frac := float64(i) / lineGridLines
		l.Grid[i] = GridLine{
			Y:     l.Top + innerH*frac,
			Value: int64(math.Floor(l.Max - frac*l.Max + 0.5)),
		}
	}
	return l
}

// RenderLine clears s and draws spending over time, or a placeholder when agg
// is empty.
func RenderLine(s Surface, agg core.TemporalAggregate, t Theme) {
	w, h := s.Size()
	s.Clear(t.Surface)

	l := LineLayout(agg, w, h)
	if l.Empty() {
		drawPlaceholder(s, t)
		return
	}

	axes := Path{}.
		MoveTo(l.Left, l.Top).
		LineTo(l.Left, l.Bottom).
		LineTo(l.Right, l.Bottom)
	s.StrokePath(axes, Stroke{Color: t.Grid, Width: 1}, 0)

	for _, g := range l.Grid {
		s.Text(strconv.FormatInt(g.Value, 10), lineAxisLabelX, g.Y+lineAxisLabelDY, lineTextSize, t.Muted)
		s.StrokePath(Path{}.MoveTo(l.Left, g.Y).LineTo(l.Right, g.Y), Stroke{Color: t.Grid, Width: 1}, 0)
	}

	pts := make([]Point, len(l.Points))
	for i, p := range l.Points {
		pts[i] = p.Point
	}
	s.StrokePath(Polyline(pts), Stroke{Color: t.Series, Width: lineWidth}, lineGlow)

	for _, p := range l.Points {
		s.FillCircle(p.Point.X, p.Point.Y, lineMarker, t.Series)
	}
	for _, p := range l.Points {
		if p.Labelled {
			s.Text(p.Date, p.Point.X-lineDateShift, l.Bottom+lineDateDY, lineTextSize, t.Muted)
		}
	}
}
