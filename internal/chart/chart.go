// Package chart renders the dashboard bar chart as a PNG image.
package chart

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strconv"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
)

// Image size in pixels.
const (
	Width  = 640
	Height = 360
)

// Axis titles.
const (
	XAxisTitle = "Category"
	YAxisTitle = "Count"
)

// EmptyMessage is drawn instead of bars when there is nothing to plot.
const EmptyMessage = "No items yet"

// Plot area margins.
const (
	marginLeft   = 56
	marginRight  = 16
	marginTop    = 36
	marginBottom = 52
	maxTicks     = 5
)

var (
	background = color.RGBA{0xff, 0xff, 0xff, 0xff}
	ink        = color.RGBA{0x22, 0x22, 0x22, 0xff}
	grid       = color.RGBA{0xe2, 0xe2, 0xe2, 0xff}
	barFill    = color.RGBA{0x3b, 0x82, 0x5c, 0xff}
)

var face = basicfont.Face7x13

// Bar is one category column.
type Bar struct {
	Label string
	Value int
}

// Render draws a vertical bar chart of bars and writes it to w as PNG.
// Bars keep their given order. Negative values are drawn as zero.
func Render(w io.Writer, title string, bars []Bar) error {
	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	fill(img, img.Bounds(), background)

	centerText(img, title, Width/2, marginTop/2+5)

	plot := image.Rect(marginLeft, marginTop, Width-marginRight, Height-marginBottom)

	if len(bars) == 0 {
		centerText(img, EmptyMessage, (plot.Min.X+plot.Max.X)/2, (plot.Min.Y+plot.Max.Y)/2)
		drawAxes(img, plot)
		return encode(w, img)
	}

	maxValue := 0
	for _, b := range bars {
		maxValue = max(maxValue, b.Value)
	}
	step, top := scale(maxValue)

	// Horizontal grid lines with tick labels.
	for v := 0; v <= top; v += step {
		y := plot.Max.Y - v*plot.Dy()/top
		fill(img, image.Rect(plot.Min.X, y, plot.Max.X, y+1), grid)
		label := strconv.Itoa(v)
		text(img, label, plot.Min.X-6-textWidth(label), y+4)
	}

	slot := plot.Dx() / len(bars)
	barWidth := max(slot*2/3, 1)
	for i, b := range bars {
		x0 := plot.Min.X + i*slot + (slot-barWidth)/2
		h := max(b.Value, 0) * plot.Dy() / top
		fill(img, image.Rect(x0, plot.Max.Y-h, x0+barWidth, plot.Max.Y), barFill)

		label := fit(b.Label, slot-2)
		centerText(img, label, x0+barWidth/2, plot.Max.Y+16)
	}

	drawAxes(img, plot)
	return encode(w, img)
}

// scale picks a tick step so at most maxTicks grid lines are drawn, and the
// axis maximum as a multiple of it.
func scale(maxValue int) (step, top int) {
	if maxValue <= 0 {
		return 1, 1
	}
	step = (maxValue + maxTicks - 1) / maxTicks
	top = (maxValue + step - 1) / step * step
	return step, top
}

func drawAxes(img *image.RGBA, plot image.Rectangle) {
	fill(img, image.Rect(plot.Min.X-1, plot.Min.Y, plot.Min.X, plot.Max.Y+1), ink)
	fill(img, image.Rect(plot.Min.X-1, plot.Max.Y, plot.Max.X, plot.Max.Y+1), ink)

	centerText(img, XAxisTitle, (plot.Min.X+plot.Max.X)/2, Height-10)
	verticalText(img, YAxisTitle, 6, (plot.Min.Y+plot.Max.Y)/2)
}

func encode(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encoding chart: %w", err)
	}
	return nil
}

func fill(img draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

func textWidth(s string) int {
	return font.MeasureString(face, s).Ceil()
}

// text draws s with its baseline starting at (x, y).
func text(img draw.Image, s string, x, y int) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(ink),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// centerText draws s horizontally centered on x with its baseline at y.
func centerText(img draw.Image, s string, x, y int) {
	text(img, s, x-textWidth(s)/2, y)
}

// verticalText draws s rotated a quarter turn counterclockwise, reading bottom
// to top, with its left edge at x and vertically centered on y.
func verticalText(img draw.Image, s string, x, y int) {
	w := textWidth(s)
	h := face.Height
	src := image.NewRGBA(image.Rect(0, 0, w, h))
	text(src, s, 0, face.Ascent)

	// Source (sx, sy) lands on (x+sy, y+w/2-sx).
	m := f64.Aff3{
		0, 1, float64(x),
		-1, 0, float64(y + w/2),
	}
	draw.NearestNeighbor.Transform(img, m, src, src.Bounds(), draw.Over, nil)
}

// fit shortens s with a trailing "." until it is at most width pixels wide.
func fit(s string, width int) string {
	if textWidth(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && textWidth(string(r)+".") > width {
		r = r[:len(r)-1]
	}
	if len(r) == 0 {
		return ""
	}
	return string(r) + "."
}
