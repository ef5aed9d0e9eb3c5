package chart

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func catAgg(pairs ...any) core.CategoryAggregate {
	out := core.CategoryAggregate{}
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, core.CategoryTotal{
			Category: pairs[i].(core.Category),
			Amount:   decimal.RequireFromString(pairs[i+1].(string)),
		})
	}
	return out
}

func TestPieLayout_Scenario(t *testing.T) {
	pie := PieLayout(catAgg(core.Food, "125", core.Travel, "50"), 420, 300)

	assert.Equal(t, Point{X: 210, Y: 160}, pie.Center)
	assert.InDelta(t, 120, pie.Radius, 1e-9)
	require.Len(t, pie.Wedges, 2)

	food, travel := pie.Wedges[0], pie.Wedges[1]
	assert.InDelta(t, -math.Pi/2, food.Start, 1e-12)
	assert.InDelta(t, 125.0/175*2*math.Pi, food.Sweep, 1e-9)
	assert.InDelta(t, food.End(), travel.Start, 1e-12)
	assert.Equal(t, "Food 71%", food.Label)
	assert.Equal(t, "Travel 29%", travel.Label)
	assert.Equal(t, CategoryColor(core.Food), food.Color)
	assert.Equal(t, CategoryColor(core.Travel), travel.Color)
}

func TestPieLayout_SweepsCoverCircle(t *testing.T) {
	pie := PieLayout(catAgg(
		core.Food, "0.01", core.Travel, "33.33", core.Bills, "1000",
		core.Shopping, "7.77", core.Other, "3",
	), 420, 300)
	require.Len(t, pie.Wedges, 5)

	sum := 0.0
	for i, w := range pie.Wedges {
		assert.Greater(t, w.Sweep, 0.0)
		if i > 0 {
			assert.InDelta(t, pie.Wedges[i-1].End(), w.Start, 1e-9)
		}
		sum += w.Sweep
	}
	assert.InDelta(t, 2*math.Pi, sum, 1e-9)
	assert.InDelta(t, 3*math.Pi/2, pie.Wedges[4].End(), 1e-12)
}

func TestPieLayout_LabelOnBisectorOutsideRim(t *testing.T) {
	pie := PieLayout(catAgg(core.Food, "1"), 420, 300)
	require.Len(t, pie.Wedges, 1)
	w := pie.Wedges[0]
	assert.Equal(t, "Food 100%", w.Label)

	dx, dy := w.LabelAt.X-pie.Center.X, w.LabelAt.Y-pie.Center.Y
	assert.InDelta(t, pie.Radius+16, math.Hypot(dx, dy), 1e-9)
	// a full circle starting at 12 o'clock bisects at 6 o'clock
	assert.InDelta(t, pie.Center.X, w.LabelAt.X, 1e-9)
	assert.Greater(t, w.LabelAt.Y, pie.Center.Y)
}

func TestPieLayout_PercentRounding(t *testing.T) {
	pie := PieLayout(catAgg(core.Food, "1", core.Travel, "1", core.Bills, "1"), 420, 300)
	for _, w := range pie.Wedges {
		assert.Equal(t, int64(33), w.Percent)
	}

	pie = PieLayout(catAgg(core.Food, "1", core.Travel, "7"), 420, 300)
	assert.Equal(t, int64(13), pie.Wedges[0].Percent) // 12.5 rounds half up
	assert.Equal(t, int64(88), pie.Wedges[1].Percent)
}

func TestPieLayout_ZeroTotalIsEmpty(t *testing.T) {
	assert.True(t, PieLayout(core.CategoryAggregate{}, 420, 300).Empty())
	assert.True(t, PieLayout(catAgg(core.Food, "0"), 420, 300).Empty())
}

func TestPieLayout_TinySurfaceClampsRadius(t *testing.T) {
	pie := PieLayout(catAgg(core.Food, "1"), 40, 40)
	assert.Equal(t, 0.0, pie.Radius)
}

func TestCategoryColor_Fallback(t *testing.T) {
	assert.Equal(t, "#9ca3af", Hex(CategoryColor(core.Category(42))))
	assert.Equal(t, "#39ff14", Hex(CategoryColor(core.Food)))
	assert.Equal(t, "#ff1744", Hex(CategoryColor(core.Bills)))

	pie := PieLayout(catAgg(core.Category(42), "5"), 420, 300)
	require.Len(t, pie.Wedges, 1)
	assert.Equal(t, fallbackColor, pie.Wedges[0].Color)
}

func TestRenderPie_Empty(t *testing.T) {
	rec := NewRecorder(420, 300)
	RenderPie(rec, core.CategoryAggregate{}, Dark)

	ops := rec.Ops()
	require.Len(t, ops, 2)
	assert.Equal(t, OpClear, ops[0].Kind)
	assert.Equal(t, Dark.Surface, ops[0].Color)
	assert.Equal(t, OpText, ops[1].Kind)
	assert.Equal(t, "No data", ops[1].Text)
	assert.Equal(t, 14.0, ops[1].Size)
	assert.InDelta(t, 210-rec.MeasureText("No data", 14)/2, ops[1].X, 1e-9)
}

func TestRenderPie_DrawsEveryWedge(t *testing.T) {
	rec := NewRecorder(420, 300)
	RenderPie(rec, catAgg(core.Food, "125", core.Travel, "50"), Light)

	assert.Equal(t, 1, rec.Count(OpClear))
	assert.Equal(t, 2, rec.Count(OpFill))
	assert.Equal(t, 2, rec.Count(OpStroke))
	assert.Equal(t, []string{"Food 71%", "Travel 29%"}, rec.Texts())

	for _, op := range rec.Ops() {
		switch op.Kind {
		case OpFill:
			assert.Equal(t, 14.0, op.Glow)
		case OpStroke:
			assert.Equal(t, 2.0, op.Width)
			assert.Equal(t, Light.WedgeStroke, op.Color)
		}
	}
}

func TestRenderPie_BillsFilterShowsPlaceholder(t *testing.T) {
	records := []core.Record{
		{ID: "a", Date: "2024-01-01", Amount: decimal.NewFromInt(100), Category: core.Food},
		{ID: "b", Date: "2024-01-01", Amount: decimal.NewFromInt(50), Category: core.Travel},
	}
	bills := core.Bills
	selected := core.Select(records, core.FilterCriteria{Category: &bills})

	pie := NewRecorder(420, 300)
	RenderPie(pie, core.AggregateByCategory(selected), Dark)
	assert.Equal(t, []string{"No data"}, pie.Texts())

	line := NewRecorder(640, 300)
	RenderLine(line, core.AggregateByDate(selected), Dark)
	assert.Equal(t, []string{"No data"}, line.Texts())
}

func TestParseTheme(t *testing.T) {
	th, err := ParseTheme("")
	require.NoError(t, err)
	assert.Equal(t, Dark, th)

	th, err = ParseTheme(" LIGHT ")
	require.NoError(t, err)
	assert.Equal(t, Light, th)
	assert.Equal(t, Dark, th.Toggle())
	assert.Equal(t, Light, Dark.Toggle())

	_, err = ParseTheme("sepia")
	assert.Error(t, err)
}
