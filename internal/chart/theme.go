package chart

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"fintrack/internal/core"
)

// Theme holds the colours that depend on the light/dark setting.
type Theme struct {
	Name        string
	Surface     color.RGBA // chart background
	Label       color.RGBA // wedge labels
	Muted       color.RGBA // axis values, date labels, placeholder
	Grid        color.RGBA // axes and gridlines
	WedgeStroke color.RGBA // outline between wedges
	Series      color.RGBA // line and markers
}

var (
	Dark = Theme{
		Name:        "dark",
		Surface:     mustHex("#12121a"),
		Label:       mustHex("#e6f1ff"),
		Muted:       mustHex("#93a4bf"),
		Grid:        color.RGBA{R: 230, G: 241, B: 255, A: 51},
		WedgeStroke: color.RGBA{R: 255, G: 255, B: 255, A: 230},
		Series:      mustHex("#00e5ff"),
	}
	Light = Theme{
		Name:        "light",
		Surface:     mustHex("#f6f8fc"),
		Label:       mustHex("#1b2436"),
		Muted:       mustHex("#5b6b85"),
		Grid:        color.RGBA{R: 27, G: 36, B: 54, A: 51},
		WedgeStroke: color.RGBA{R: 255, G: 255, B: 255, A: 230},
		Series:      mustHex("#0097a7"),
	}
)

// ParseTheme resolves a theme by name. The empty string selects Dark.
func ParseTheme(name string) (Theme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", Dark.Name:
		return Dark, nil
	case Light.Name:
		return Light, nil
	default:
		return Theme{}, fmt.Errorf("unknown theme %q", name)
	}
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t.Name == Light.Name {
		return Dark
	}
	return Light
}

var fallbackColor = mustHex("#9ca3af")

// CategoryColor maps each category to its wedge colour. Values outside the
// closed set get a neutral grey.
func CategoryColor(c core.Category) color.RGBA {
	switch c {
	case core.Food:
		return mustHex("#39ff14")
	case core.Travel:
		return mustHex("#00e5ff")
	case core.Bills:
		return mustHex("#ff1744")
	case core.Shopping:
		return mustHex("#c084fc")
	case core.Other:
		return mustHex("#6366f1")
	default:
		return fallbackColor
	}
}

// Hex formats c as #rrggbb.
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func mustHex(s string) color.RGBA {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "#"), 16, 32)
	if err != nil || len(s) != 7 {
		panic("chart: bad colour literal " + s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}
