package chart

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPieSlicesClockwiseFromTop(t *testing.T) {
	img, err := Render(Options{
		Kind:   KindPie,
		Values: []float64{1, 1},
		Colors: []string{"#FF6384", "#36A2EB"},
		Width:  200,
		Height: 200,
	})
	require.NoError(t, err)

	// right half is the first slice, left half the second
	assert.Equal(t, color.NRGBA{R: 0xFF, G: 0x63, B: 0x84, A: 255}, img.NRGBAAt(130, 100))
	assert.Equal(t, color.NRGBA{R: 0x36, G: 0xA2, B: 0xEB, A: 255}, img.NRGBAAt(70, 100))
	assert.Equal(t, background, img.NRGBAAt(2, 2))
}

func TestRenderPieWithoutDataDrawsPlaceholderDisc(t *testing.T) {
	img, err := Render(Options{Kind: KindPie, Values: []float64{0, 0}, Width: 200, Height: 200})
	require.NoError(t, err)
	assert.Equal(t, emptyColor, img.NRGBAAt(100, 100))
}

func TestRenderBarsScaleToMaximum(t *testing.T) {
	img, err := Render(Options{
		Kind:   KindBar,
		Values: []float64{2, 1},
		Colors: []string{"#36A2EB"},
		Width:  280,
		Height: 280,
	})
	require.NoError(t, err)

	bar := color.NRGBA{R: 0x36, G: 0xA2, B: 0xEB, A: 255}
	// plot area is 200x200 starting at (40,40); first bar full height, second half
	assert.Equal(t, bar, img.NRGBAAt(90, 50))
	assert.Equal(t, background, img.NRGBAAt(190, 100))
	assert.Equal(t, bar, img.NRGBAAt(190, 200))
}

func TestRenderRejectsUnknownKind(t *testing.T) {
	_, err := Render(Options{Kind: "radar"})
	require.Error(t, err)
}

func TestRenderPNGDecodes(t *testing.T) {
	out, err := RenderPNG(Options{Kind: KindBar, Values: []float64{3}})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, defaultWidth, img.Bounds().Dx())
	assert.Equal(t, defaultHeight, img.Bounds().Dy())
}

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#1e40af")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0x1e, G: 0x40, B: 0xaf, A: 255}, c)

	_, err = ParseHex("blue")
	require.Error(t, err)
}

func countColor(img *image.NRGBA, rect image.Rectangle, c color.NRGBA) int {
	n := 0
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if img.NRGBAAt(x, y) == c {
				n++
			}
		}
	}
	return n
}

func TestRenderDrawsLegendAndTitle(t *testing.T) {
	opts := Options{
		Kind:   KindBar,
		Title:  "coursesByTeacher",
		Labels: []string{"Sara Ahmadi", "Ali Rezaei"},
		Values: []float64{2, 1},
		Colors: []string{"#36A2EB"},
		Width:  600,
		Height: 300,
	}
	img, err := Render(opts)
	require.NoError(t, err)

	legend := image.Rect(400, 0, 600, 300)
	bar := color.NRGBA{R: 0x36, G: 0xA2, B: 0xEB, A: 255}
	assert.Equal(t, bar, img.NRGBAAt(405, 45))
	assert.Equal(t, bar, img.NRGBAAt(405, 45+legendLine))
	assert.Positive(t, countColor(img, legend, textColor))
	assert.Positive(t, countColor(img, image.Rect(0, 0, 400, padding), textColor))

	opts.Labels = []string{"Nader Salehi", "Ali Rezaei"}
	other, err := Render(opts)
	require.NoError(t, err)
	assert.NotEqual(t, img.Pix, other.Pix)

	opts.Labels, opts.Title = nil, ""
	plain, err := Render(opts)
	require.NoError(t, err)
	assert.Zero(t, countColor(plain, plain.Bounds(), textColor))
}

func TestRenderLegendSummarisesOverflow(t *testing.T) {
	labels := make([]string, 40)
	values := make([]float64, 40)
	for i := range labels {
		labels[i] = "T"
		values[i] = 1
	}
	img, err := Render(Options{Kind: KindBar, Labels: labels, Values: values, Width: 600, Height: 200})
	require.NoError(t, err)

	// (200 - 2*padding) / legendLine = 6 lines, the last one is the summary
	swatch := color.NRGBA{R: 54, G: 162, B: 235, A: 255}
	assert.Equal(t, swatch, img.NRGBAAt(405, padding+4*legendLine+2))
	assert.NotEqual(t, swatch, img.NRGBAAt(405, padding+5*legendLine+2))
}

func TestPrintableFallsBackOutsideASCII(t *testing.T) {
	assert.Equal(t, "Sara Ahmadi", printable("Sara Ahmadi", "#1"))
	assert.Equal(t, "#1", printable("مریم کریمی", "#1"))
}

func TestDecodeDataURL(t *testing.T) {
	out, err := RenderPNG(Options{Kind: KindPie, Values: []float64{1}, Width: 20, Height: 20})
	require.NoError(t, err)

	got, err := DecodeDataURL("data:image/png;base64," + base64.StdEncoding.EncodeToString(out))
	require.NoError(t, err)
	assert.Equal(t, out, got)

	_, err = DecodeDataURL("data:image/jpeg;base64,AAAA")
	assert.Error(t, err)
	_, err = DecodeDataURL("data:image/png;base64,%%%")
	assert.Error(t, err)
	_, err = DecodeDataURL("data:image/png;base64,")
	assert.Error(t, err)
}
