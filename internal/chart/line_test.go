package chart

import (
	"bytes"
	"fmt"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func days(n int, amount func(i int) int64) core.TemporalAggregate {
	out := make(core.TemporalAggregate, n)
	for i := range out {
		out[i] = core.DailyTotal{
			Date:   fmt.Sprintf("2024-01-%02d", i+1),
			Amount: decimal.NewFromInt(amount(i)),
		}
	}
	return out
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func assertFiniteOps(t *testing.T, rec *Recorder) {
	t.Helper()
	for i, op := range rec.Ops() {
		assert.True(t, finite(op.X, op.Y, op.R, op.Width, op.Glow), "op %d (%s)", i, op.Kind)
		for _, seg := range op.Path {
			assert.True(t, finite(seg.X, seg.Y, seg.R, seg.Start, seg.End), "op %d segment", i)
		}
	}
}

func TestLineLayout_Scenario(t *testing.T) {
	agg := core.TemporalAggregate{
		{Date: "2024-01-01", Amount: decimal.NewFromInt(150)},
		{Date: "2024-01-02", Amount: decimal.NewFromInt(25)},
	}
	l := LineLayout(agg, 640, 300)

	require.Len(t, l.Points, 2)
	assert.Equal(t, 150.0, l.Max)
	assert.Equal(t, Point{X: 36, Y: 36}, l.Points[0].Point)
	assert.InDelta(t, 604, l.Points[1].Point.X, 1e-9)
	assert.InDelta(t, 36+228-25.0/150*228, l.Points[1].Point.Y, 1e-9)

	values := make([]int64, len(l.Grid))
	for i, g := range l.Grid {
		values[i] = g.Value
	}
	assert.Equal(t, []int64{150, 113, 75, 38, 0}, values)
	assert.Equal(t, 36.0, l.Grid[0].Y)
	assert.Equal(t, 264.0, l.Grid[4].Y)
}

func TestLineLayout_SinglePoint(t *testing.T) {
	l := LineLayout(days(1, func(int) int64 { return 42 }), 640, 300)
	require.Len(t, l.Points, 1)
	p := l.Points[0]
	assert.True(t, finite(p.Point.X, p.Point.Y))
	assert.Equal(t, l.Left, p.Point.X)
	assert.Equal(t, l.Top, p.Point.Y)
	assert.True(t, p.Labelled)

	rec := NewRecorder(640, 300)
	RenderLine(rec, days(1, func(int) int64 { return 42 }), Dark)
	assertFiniteOps(t, rec)
}

func TestLineLayout_ZeroMaxUsesUnitScale(t *testing.T) {
	agg := core.TemporalAggregate{{Date: "2024-01-01", Amount: decimal.Zero}}
	l := LineLayout(agg, 640, 300)
	assert.Equal(t, 1.0, l.Max)
	assert.Equal(t, l.Bottom, l.Points[0].Point.Y)
	assert.Equal(t, int64(1), l.Grid[0].Value)
}

func TestLineLayout_LabelStride(t *testing.T) {
	tests := []struct {
		n    int
		want []int
	}{
		{n: 1, want: []int{0}},
		{n: 6, want: []int{0, 1, 2, 3, 4, 5}},
		{n: 8, want: []int{0, 2, 4, 6, 7}},
		{n: 13, want: []int{0, 3, 6, 9, 12}},
		{n: 31, want: []int{0, 6, 12, 18, 24, 30}},
		{n: 32, want: []int{0, 6, 12, 18, 24, 30, 31}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.n), func(t *testing.T) {
			l := LineLayout(days(tt.n, func(i int) int64 { return int64(i + 1) }), 640, 300)
			var got []int
			for i, p := range l.Points {
				if p.Labelled {
					got = append(got, i)
				}
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderLine_Empty(t *testing.T) {
	rec := NewRecorder(640, 300)
	RenderLine(rec, nil, Light)

	ops := rec.Ops()
	require.Len(t, ops, 2)
	assert.Equal(t, OpClear, ops[0].Kind)
	assert.Equal(t, Light.Surface, ops[0].Color)
	assert.Equal(t, "No data", ops[1].Text)
}

func TestRenderLine_Calls(t *testing.T) {
	rec := NewRecorder(640, 300)
	RenderLine(rec, days(3, func(i int) int64 { return int64(10 * (i + 1)) }), Dark)

	// axes, five gridlines, the series
	assert.Equal(t, 7, rec.Count(OpStroke))
	assert.Equal(t, 3, rec.Count(OpCircle))
	assert.Equal(t, []string{
		"30", "23", "15", "8", "0",
		"2024-01-01", "2024-01-02", "2024-01-03",
	}, rec.Texts())
	assertFiniteOps(t, rec)

	var series []Op
	for _, op := range rec.Ops() {
		if op.Kind == OpStroke && op.Glow > 0 {
			series = append(series, op)
		}
	}
	require.Len(t, series, 1)
	assert.Equal(t, 2.5, series[0].Width)
	assert.Len(t, series[0].Path, 3)
}

func TestRaster_EncodesPNG(t *testing.T) {
	var buf bytes.Buffer
	err := RenderPNG(&buf, 420, 300, func(s Surface) {
		RenderPie(s, catAgg(core.Food, "125", core.Travel, "50"), Dark)
	})
	require.NoError(t, err)

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 420, img.Bounds().Dx())
	assert.Equal(t, 300, img.Bounds().Dy())
	assert.Equal(t, color.RGBAModel.Convert(Dark.Surface), color.RGBAModel.Convert(img.At(1, 1)))
}

func TestRaster_LineAndPlaceholder(t *testing.T) {
	r, err := NewRaster(640, 300)
	require.NoError(t, err)
	RenderLine(r, days(10, func(i int) int64 { return int64(i * i) }), Light)
	assert.Greater(t, r.MeasureText("No data", 14), 0.0)

	var buf bytes.Buffer
	require.NoError(t, r.EncodePNG(&buf))
	assert.NotZero(t, buf.Len())

	_, err = NewRaster(0, 300)
	assert.Error(t, err)
}
