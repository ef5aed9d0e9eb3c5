package chart

import (
	"fmt"
	"image/color"
	"math"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

const (
	pieTopOffset   = 10 // centre sits slightly below the middle to leave room for labels
	pieMargin      = 30
	pieLabelGap    = 16
	pieLabelShift  = 24
	pieLabelSize   = 12
	pieStrokeWidth = 2
	pieGlow        = 14
	pieStartAngle  = -math.Pi / 2
)

var hundred = decimal.NewFromInt(100)

type (
	// Wedge is one slice of the pie.
	Wedge struct {
		Category core.Category
		Amount   decimal.Decimal
		Start    float64 // radians, clockwise on screen from 3 o'clock
		Sweep    float64
		Percent  int64
		Label    string
		LabelAt  Point // anchor on the bisector, just outside the rim
		Color    color.RGBA
	}

	// Pie is the computed geometry for a category aggregate.
	Pie struct {
		Center Point
		Radius float64
		Total  decimal.Decimal
		Wedges []Wedge
	}
)

// End is the angle where w stops.
func (w Wedge) End() float64 { return w.Start + w.Sweep }

// Empty reports whether there is nothing to draw.
func (p Pie) Empty() bool { return len(p.Wedges) == 0 }

// PieLayout computes wedge geometry for agg on a width×height surface. Wedges
// follow the aggregate order starting at 12 o'clock. A zero total yields an
// empty Pie.
func PieLayout(agg core.CategoryAggregate, width, height int) Pie {
	w, h := float64(width), float64(height)
	pie := Pie{
		Center: Point{X: w / 2, Y: h/2 + pieTopOffset},
		Radius: math.Max(0, math.Min(w, h)/2-pieMargin),
		Total:  agg.Total(),
	}
	if !pie.Total.IsPositive() {
		return pie
	}

	pie.Wedges = make([]Wedge, 0, len(agg))
	start := pieStartAngle
	for _, ct := range agg {
		sweep := ct.Amount.Div(pie.Total).InexactFloat64() * 2 * math.Pi
		mid := start + sweep/2
		pct := ct.Amount.Mul(hundred).Div(pie.Total).Round(0).IntPart()
		pie.Wedges = append(pie.Wedges, Wedge{
			Category: ct.Category,
			Amount:   ct.Amount,
			Start:    start,
			Sweep:    sweep,
			Percent:  pct,
			Label:    fmt.Sprintf("%s %d%%", ct.Category, pct),
			LabelAt: Point{
				X: pie.Center.X + math.Cos(mid)*(pie.Radius+pieLabelGap),
				Y: pie.Center.Y + math.Sin(mid)*(pie.Radius+pieLabelGap),
			},
			Color: CategoryColor(ct.Category),
		})
		start += sweep
	}
	// close the circle exactly so rounding never leaves a gap at 12 o'clock
	last := &pie.Wedges[len(pie.Wedges)-1]
	last.Sweep = pieStartAngle + 2*math.Pi - last.Start
	return pie
}

// WedgePath outlines w as a closed sector of p.
func (p Pie) WedgePath(w Wedge) Path {
	return Path{}.
		MoveTo(p.Center.X, p.Center.Y).
		Arc(p.Center.X, p.Center.Y, p.Radius, w.Start, w.End()).
		Close()
}

// RenderPie clears s and draws the category pie, or a placeholder when agg is
// empty or sums to zero.
func RenderPie(s Surface, agg core.CategoryAggregate, t Theme) {
	w, h := s.Size()
	s.Clear(t.Surface)

	pie := PieLayout(agg, w, h)
	if pie.Empty() {
		drawPlaceholder(s, t)
		return
	}

	outline := Stroke{Color: t.WedgeStroke, Width: pieStrokeWidth}
	for _, wd := range pie.Wedges {
		path := pie.WedgePath(wd)
		s.FillPath(path, wd.Color, pieGlow)
		s.StrokePath(path, outline, 0)
		s.Text(wd.Label, wd.LabelAt.X-pieLabelShift, wd.LabelAt.Y, pieLabelSize, t.Label)
	}
}
