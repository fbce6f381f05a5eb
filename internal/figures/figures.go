package figures

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/jmalen/pondflux/internal/models"
)

// Figure dimensions and plot margins.
const (
	figWidth  = 900
	figHeight = 560

	marginLeft   = 70
	marginRight  = 30
	marginTop    = 50
	marginBottom = 60
)

var (
	colBackground = color.RGBA{255, 255, 255, 255}
	colAxis       = color.RGBA{60, 60, 60, 255}
	colGrid       = color.RGBA{230, 230, 230, 255}
	colText       = color.RGBA{30, 30, 30, 255}
	colPoint      = color.RGBA{31, 119, 180, 255}
	colLine       = color.RGBA{214, 39, 40, 255}
)

// Scatter is the data for one x-y scatter figure.
type Scatter struct {
	Title  string
	XLabel string
	YLabel string
	X      []float64
	Y      []float64
}

// RenderScatter writes a scatter figure as PNG. Point slices must be the
// same length and free of nulls (callers pair columns first).
func RenderScatter(path string, s Scatter) error {
	if len(s.X) != len(s.Y) {
		return fmt.Errorf("figures: x/y length mismatch: %d vs %d", len(s.X), len(s.Y))
	}
	if len(s.X) == 0 {
		return fmt.Errorf("figures: no points for %q", s.Title)
	}

	img := newCanvas()
	ax := newAxes(rangeOf(s.X), rangeOf(s.Y))
	ax.draw(img, s.Title, s.XLabel, s.YLabel)

	for i := range s.X {
		px, py := ax.project(s.X[i], s.Y[i])
		fillSquare(img, px, py, 3, colPoint)
	}

	return writePNG(path, img)
}

// RenderFluxSeries writes one pond-year's daily flux (points) with the
// center-aligned rolling median overlaid (line) as PNG.
func RenderFluxSeries(path, title string, rows []models.DailyFlux) error {
	var xs, ys []float64
	var mx, my []float64
	for i, r := range rows {
		day := float64(i + 1)
		if r.Flux.Valid {
			xs = append(xs, day)
			ys = append(ys, r.Flux.Float64)
		}
		if r.MedianCenter.Valid {
			mx = append(mx, day)
			my = append(my, r.MedianCenter.Float64)
		}
	}
	if len(xs) == 0 {
		return fmt.Errorf("figures: no flux values for %q", title)
	}

	img := newCanvas()
	yr := rangeOf(ys)
	if len(my) > 0 {
		yr = yr.union(rangeOf(my))
	}
	ax := newAxes(span{1, float64(len(rows))}, yr)
	ax.draw(img, title, "day of season", "bubble flux")

	for i := range xs {
		px, py := ax.project(xs[i], ys[i])
		fillSquare(img, px, py, 2, colPoint)
	}
	for i := 1; i < len(mx); i++ {
		// Break the line where the rolling median has a gap.
		if mx[i]-mx[i-1] > 1 {
			continue
		}
		x0, y0 := ax.project(mx[i-1], my[i-1])
		x1, y1 := ax.project(mx[i], my[i])
		drawLine(img, x0, y0, x1, y1, colLine)
	}

	return writePNG(path, img)
}

// span is an inclusive value range on one axis.
type span struct{ lo, hi float64 }

func rangeOf(vals []float64) span {
	s := span{vals[0], vals[0]}
	for _, v := range vals[1:] {
		if v < s.lo {
			s.lo = v
		}
		if v > s.hi {
			s.hi = v
		}
	}
	return s
}

func (s span) union(o span) span {
	if o.lo < s.lo {
		s.lo = o.lo
	}
	if o.hi > s.hi {
		s.hi = o.hi
	}
	return s
}

// pad widens a degenerate range so projection never divides by zero.
func (s span) pad() span {
	if s.hi == s.lo {
		s.lo--
		s.hi++
	}
	return s
}

type axes struct {
	x, y span
}

func newAxes(x, y span) *axes {
	return &axes{x: x.pad(), y: y.pad()}
}

func (a *axes) project(x, y float64) (int, int) {
	plotW := figWidth - marginLeft - marginRight
	plotH := figHeight - marginTop - marginBottom
	px := marginLeft + int(math.Round((x-a.x.lo)/(a.x.hi-a.x.lo)*float64(plotW)))
	py := figHeight - marginBottom - int(math.Round((y-a.y.lo)/(a.y.hi-a.y.lo)*float64(plotH)))
	return px, py
}

func (a *axes) draw(img *image.RGBA, title, xLabel, yLabel string) {
	// Gridlines and tick labels at 5 divisions per axis.
	const ticks = 5
	for i := 0; i <= ticks; i++ {
		fx := a.x.lo + (a.x.hi-a.x.lo)*float64(i)/ticks
		fy := a.y.lo + (a.y.hi-a.y.lo)*float64(i)/ticks

		px, _ := a.project(fx, a.y.lo)
		_, py := a.project(a.x.lo, fy)

		vline(img, px, marginTop, figHeight-marginBottom, colGrid)
		hline(img, marginLeft, figWidth-marginRight, py, colGrid)

		drawText(img, formatTick(fx), px-10, figHeight-marginBottom+18)
		drawText(img, formatTick(fy), 8, py+4)
	}

	// Axis lines on top of the grid.
	hline(img, marginLeft, figWidth-marginRight, figHeight-marginBottom, colAxis)
	vline(img, marginLeft, marginTop, figHeight-marginBottom, colAxis)

	drawText(img, title, marginLeft, marginTop-20)
	drawText(img, xLabel, figWidth/2-4*len(xLabel), figHeight-16)
	drawText(img, yLabel, 8, marginTop-20)
}

func formatTick(v float64) string {
	if math.Abs(v) >= 100 || v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}

func newCanvas() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, figWidth, figHeight))
	for y := 0; y < figHeight; y++ {
		for x := 0; x < figWidth; x++ {
			img.SetRGBA(x, y, colBackground)
		}
	}
	return img
}

func fillSquare(img *image.RGBA, cx, cy, r int, col color.RGBA) {
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			if image.Pt(x, y).In(img.Bounds()) {
				img.SetRGBA(x, y, col)
			}
		}
	}
}

func hline(img *image.RGBA, x0, x1, y int, col color.RGBA) {
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y, col)
	}
}

func vline(img *image.RGBA, x, y0, y1 int, col color.RGBA) {
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x, y, col)
	}
}

// drawLine steps along the longer axis; figure lines are short enough that
// this stays clean without anti-aliasing.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	dx, dy := x1-x0, y1-y0
	steps := max(abs(dx), abs(dy))
	if steps == 0 {
		img.SetRGBA(x0, y0, col)
		return
	}
	for i := 0; i <= steps; i++ {
		x := x0 + dx*i/steps
		y := y0 + dy*i/steps
		if image.Pt(x, y).In(img.Bounds()) {
			img.SetRGBA(x, y, col)
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func drawText(img *image.RGBA, text string, x, y int) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(colText),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

func writePNG(path string, img *image.RGBA) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("figures: create %s: %w", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("figures: encode %s: %w", path, err)
	}
	return nil
}
