// Package chart rasterises pie and bar datasets into PNG images with a title
// and a legend.
package chart

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Kind selects the chart geometry.
type Kind string

const (
	KindPie Kind = "pie"
	KindBar Kind = "bar"
)

const (
	defaultWidth  = 800
	defaultHeight = 500
	padding       = 40
	barGapRatio   = 0.25

	legendWidth  = 240
	legendLine   = 18
	legendSwatch = 12
	titleBase    = 26
)

var (
	background = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	axisColor  = color.NRGBA{R: 156, G: 163, B: 175, A: 255}
	emptyColor = color.NRGBA{R: 229, G: 231, B: 235, A: 255}
	textColor  = color.NRGBA{R: 31, G: 41, B: 55, A: 255}
)

// Options is everything the renderer needs.
type Options struct {
	Kind  Kind
	Title string
	// Labels name the values in the legend; no legend is drawn without them.
	Labels []string
	Values []float64
	// Colors are "#RRGGBB" strings cycled across values.
	Colors []string
	Width  int
	Height int
}

// RenderPNG draws opts and returns PNG bytes.
func RenderPNG(opts Options) ([]byte, error) {
	img, err := Render(opts)
	if err != nil {
		return nil, err
	}
	buf := &bytes.Buffer{}
	if err := imaging.Encode(buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode chart png: %w", err)
	}
	return buf.Bytes(), nil
}

// Render draws opts onto a fresh opaque canvas.
func Render(opts Options) (*image.NRGBA, error) {
	w, h := opts.Width, opts.Height
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}
	palette, err := parsePalette(opts.Colors)
	if err != nil {
		return nil, err
	}

	if opts.Kind != KindPie && opts.Kind != KindBar {
		return nil, fmt.Errorf("unsupported chart kind %q", opts.Kind)
	}

	canvas := imaging.New(w, h, background)
	area := canvas.Bounds()
	if len(opts.Labels) > 0 {
		legend := image.Rect(area.Max.X-min(legendWidth, w/3), area.Min.Y, area.Max.X, area.Max.Y)
		area.Max.X = legend.Min.X
		drawLegend(canvas, legend, opts.Labels, opts.Values, palette)
	}
	if opts.Kind == KindPie {
		drawPie(canvas, area, opts.Values, palette)
	} else {
		drawBars(canvas, area, opts.Values, palette)
	}
	if opts.Title != "" {
		drawText(canvas, padding, titleBase, printable(opts.Title, ""))
	}
	return canvas, nil
}

func drawPie(canvas *image.NRGBA, area image.Rectangle, values []float64, palette []color.NRGBA) {
	b := area
	cx, cy := float64(b.Min.X)+float64(b.Dx())/2, float64(b.Min.Y)+float64(b.Dy())/2
	radius := math.Min(float64(b.Dx()), float64(b.Dy()))/2 - padding

	total := 0.0
	for _, v := range values {
		if v > 0 {
			total += v
		}
	}

	// cumulative slice boundaries as fractions of a full turn
	bounds := make([]float64, len(values))
	acc := 0.0
	for i, v := range values {
		if v > 0 && total > 0 {
			acc += v / total
		}
		bounds[i] = acc
	}
	// absorb float drift so the last non-empty slice closes the circle
	for i := len(values) - 1; i >= 0 && total > 0; i-- {
		bounds[i] = 1
		if values[i] > 0 {
			break
		}
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dx, dy := float64(x)+0.5-cx, float64(y)+0.5-cy
			if dx*dx+dy*dy > radius*radius {
				continue
			}
			if total == 0 {
				canvas.SetNRGBA(x, y, emptyColor)
				continue
			}
			// clockwise from twelve o'clock
			angle := math.Atan2(dx, -dy)
			if angle < 0 {
				angle += 2 * math.Pi
			}
			frac := angle / (2 * math.Pi)
			for i, end := range bounds {
				if frac < end {
					canvas.SetNRGBA(x, y, palette[i%len(palette)])
					break
				}
			}
		}
	}
}

func drawBars(canvas *image.NRGBA, area image.Rectangle, values []float64, palette []color.NRGBA) {
	b := area
	plot := image.Rect(b.Min.X+padding, b.Min.Y+padding, b.Max.X-padding, b.Max.Y-padding)

	draw.Draw(canvas, image.Rect(plot.Min.X, plot.Max.Y, plot.Max.X, plot.Max.Y+1), &image.Uniform{C: axisColor}, image.Point{}, draw.Src)
	draw.Draw(canvas, image.Rect(plot.Min.X-1, plot.Min.Y, plot.Min.X, plot.Max.Y+1), &image.Uniform{C: axisColor}, image.Point{}, draw.Src)

	if len(values) == 0 {
		return
	}
	maxValue := 0.0
	for _, v := range values {
		maxValue = math.Max(maxValue, v)
	}
	if maxValue == 0 {
		return
	}

	slot := float64(plot.Dx()) / float64(len(values))
	gap := slot * barGapRatio / 2
	for i, v := range values {
		if v <= 0 {
			continue
		}
		height := int(math.Round(float64(plot.Dy()) * v / maxValue))
		x0 := plot.Min.X + int(math.Round(float64(i)*slot+gap))
		x1 := plot.Min.X + int(math.Round(float64(i+1)*slot-gap))
		rect := image.Rect(x0, plot.Max.Y-height, x1, plot.Max.Y)
		draw.Draw(canvas, rect, &image.Uniform{C: palette[i%len(palette)]}, image.Point{}, draw.Src)
	}
}

// drawLegend lists one swatch and "label: value" line per value inside rect.
// Entries that do not fit are summarised on the last line.
func drawLegend(canvas *image.NRGBA, rect image.Rectangle, labels []string, values []float64, palette []color.NRGBA) {
	lines := (rect.Dy() - 2*padding) / legendLine
	if lines < 1 {
		return
	}
	y := rect.Min.Y + padding
	for i, label := range labels {
		if i == lines-1 && len(labels) > lines {
			drawText(canvas, rect.Min.X, y+legendSwatch-1, fmt.Sprintf("+%d more", len(labels)-i))
			return
		}
		value := 0.0
		if i < len(values) {
			value = values[i]
		}
		swatch := image.Rect(rect.Min.X, y, rect.Min.X+legendSwatch, y+legendSwatch)
		draw.Draw(canvas, swatch, &image.Uniform{C: palette[i%len(palette)]}, image.Point{}, draw.Src)
		text := printable(label, fmt.Sprintf("#%d", i+1)) + ": " + strconv.FormatFloat(value, 'f', -1, 64)
		drawText(canvas, rect.Min.X+legendSwatch+6, y+legendSwatch-1, text)
		y += legendLine
	}
}

func drawText(canvas *image.NRGBA, x, baseline int, text string) {
	d := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(textColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(text)
}

// printable returns s when the built-in face has a glyph for every rune,
// otherwise fallback. Labels outside ASCII keep their legend number, which
// matches the numbered listing of the terminal surface.
func printable(s, fallback string) string {
	for _, r := range s {
		if r < 0x20 || r > 0x7e {
			return fallback
		}
	}
	return s
}

func parsePalette(colors []string) ([]color.NRGBA, error) {
	if len(colors) == 0 {
		return []color.NRGBA{{R: 54, G: 162, B: 235, A: 255}}, nil
	}
	palette := make([]color.NRGBA, 0, len(colors))
	for _, raw := range colors {
		c, err := ParseHex(raw)
		if err != nil {
			return nil, err
		}
		palette = append(palette, c)
	}
	return palette, nil
}

// ParseHex parses "#RRGGBB".
func ParseHex(raw string) (color.NRGBA, error) {
	s := strings.TrimPrefix(strings.TrimSpace(raw), "#")
	if len(s) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", raw)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", raw, err)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}
