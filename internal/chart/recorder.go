package chart

import (
	"image/color"
	"unicode/utf8"
)

// OpKind names a recorded drawing call.
type OpKind string

const (
	OpClear  OpKind = "clear"
	OpFill   OpKind = "fill"
	OpStroke OpKind = "stroke"
	OpCircle OpKind = "circle"
	OpText   OpKind = "text"
)

// Op is one drawing call captured by a Recorder.
type Op struct {
	Kind  OpKind
	Path  Path
	Color color.Color
	Width float64
	Glow  float64
	X, Y  float64
	R     float64
	Size  float64
	Text  string
}

// Recorder is a Surface that keeps every call instead of painting. Text is
// measured with a fixed advance of 0.6em per rune.
type Recorder struct {
	width, height int
	ops           []Op
}

func NewRecorder(width, height int) *Recorder {
	return &Recorder{width: width, height: height}
}

func (r *Recorder) Size() (int, int) { return r.width, r.height }

func (r *Recorder) Clear(c color.Color) {
	r.ops = append(r.ops, Op{Kind: OpClear, Color: c})
}

func (r *Recorder) FillPath(p Path, fill color.Color, glow float64) {
	r.ops = append(r.ops, Op{Kind: OpFill, Path: p, Color: fill, Glow: glow})
}

func (r *Recorder) StrokePath(p Path, s Stroke, glow float64) {
	r.ops = append(r.ops, Op{Kind: OpStroke, Path: p, Color: s.Color, Width: s.Width, Glow: glow})
}

func (r *Recorder) FillCircle(cx, cy, radius float64, fill color.Color) {
	r.ops = append(r.ops, Op{Kind: OpCircle, X: cx, Y: cy, R: radius, Color: fill})
}

func (r *Recorder) Text(s string, x, y, size float64, c color.Color) {
	r.ops = append(r.ops, Op{Kind: OpText, Text: s, X: x, Y: y, Size: size, Color: c})
}

func (r *Recorder) MeasureText(s string, size float64) float64 {
	return float64(utf8.RuneCountInString(s)) * size * 0.6
}

// Ops returns the recorded calls in order.
func (r *Recorder) Ops() []Op { return r.ops }

// Count returns how many calls of kind k were recorded.
func (r *Recorder) Count(k OpKind) int {
	n := 0
	for _, op := range r.ops {
		if op.Kind == k {
			n++
		}
	}
	return n
}

// Texts returns the strings drawn, in order.
func (r *Recorder) Texts() []string {
	var out []string
	for _, op := range r.ops {
		if op.Kind == OpText {
			out = append(out, op.Text)
		}
	}
	return out
}

// Reset drops all recorded calls.
func (r *Recorder) Reset() { r.ops = r.ops[:0] }
