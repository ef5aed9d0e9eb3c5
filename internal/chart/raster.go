package chart

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const glowPasses = 3

var (
	fontOnce sync.Once
	fontErr  error
	goFont   *truetype.Font
)

func regularFont() (*truetype.Font, error) {
	fontOnce.Do(func() {
		goFont, fontErr = truetype.Parse(goregular.TTF)
		if fontErr != nil {
			fontErr = fmt.Errorf("parse embedded font: %w", fontErr)
		}
	})
	return goFont, fontErr
}

// Raster is a Surface backed by an in-memory RGBA image.
type Raster struct {
	dc    *gg.Context
	font  *truetype.Font
	faces map[float64]font.Face
}

// NewRaster allocates a width×height raster with the Go regular font loaded.
func NewRaster(width, height int) (*Raster, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid raster size %dx%d", width, height)
	}
	f, err := regularFont()
	if err != nil {
		return nil, err
	}
	return &Raster{
		dc:    gg.NewContext(width, height),
		font:  f,
		faces: make(map[float64]font.Face),
	}, nil
}

func (r *Raster) Size() (int, int) { return r.dc.Width(), r.dc.Height() }

func (r *Raster) Clear(c color.Color) {
	r.dc.SetColor(c)
	r.dc.Clear()
}

func (r *Raster) FillPath(p Path, fill color.Color, glow float64) {
	r.halo(p, fill, glow)
	r.trace(p)
	r.dc.SetColor(fill)
	r.dc.Fill()
}

func (r *Raster) StrokePath(p Path, s Stroke, glow float64) {
	if glow > 0 {
		r.halo(p, s.Color, glow+s.Width)
	}
	r.trace(p)
	r.dc.SetColor(s.Color)
	r.dc.SetLineWidth(s.Width)
	r.dc.Stroke()
}

func (r *Raster) FillCircle(cx, cy, radius float64, fill color.Color) {
	r.dc.DrawCircle(cx, cy, radius)
	r.dc.SetColor(fill)
	r.dc.Fill()
}

func (r *Raster) Text(s string, x, y, size float64, c color.Color) {
	r.dc.SetFontFace(r.face(size))
	r.dc.SetColor(c)
	r.dc.DrawString(s, x, y)
}

func (r *Raster) MeasureText(s string, size float64) float64 {
	r.dc.SetFontFace(r.face(size))
	w, _ := r.dc.MeasureString(s)
	return w
}

// Image exposes the painted pixels.
func (r *Raster) Image() image.Image { return r.dc.Image() }

// EncodePNG writes the surface as PNG.
func (r *Raster) EncodePNG(w io.Writer) error {
	return r.dc.EncodePNG(w)
}

func (r *Raster) face(size float64) font.Face {
	if f, ok := r.faces[size]; ok {
		return f
	}
	f := truetype.NewFace(r.font, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull})
	r.faces[size] = f
	return f
}

func (r *Raster) trace(p Path) {
	r.dc.ClearPath()
	for _, seg := range p {
		switch seg.Kind {
		case SegMove:
			r.dc.MoveTo(seg.X, seg.Y)
		case SegLine:
			r.dc.LineTo(seg.X, seg.Y)
		case SegArc:
			r.dc.DrawArc(seg.X, seg.Y, seg.R, seg.Start, seg.End)
		case SegClose:
			r.dc.ClosePath()
		}
	}
}

// halo approximates a canvas shadow blur with a few wide translucent strokes.
func (r *Raster) halo(p Path, c color.Color, radius float64) {
	if radius <= 0 {
		return
	}
	cr, cg, cb, _ := c.RGBA()
	for i := glowPasses; i >= 1; i-- {
		r.trace(p)
		r.dc.SetRGBA(float64(cr)/0xffff, float64(cg)/0xffff, float64(cb)/0xffff, 0.07)
		r.dc.SetLineWidth(radius * float64(i) / glowPasses)
		r.dc.Stroke()
	}
}

// RenderPNG draws onto a fresh width×height raster and writes it as PNG.
func RenderPNG(w io.Writer, width, height int, draw func(Surface)) error {
	r, err := NewRaster(width, height)
	if err != nil {
		return err
	}
	draw(r)
	if err := r.EncodePNG(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}
