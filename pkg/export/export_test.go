package export

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRendersPositionalRows(t *testing.T) {
	out, err := NewCSVExporter().Render(Dataset{
		Headers: []string{"STID", "نام"},
		Rows:    [][]string{{"40111415001", "علی"}, {"40111415002"}},
	})
	require.NoError(t, err)

	require.True(t, bytes.HasPrefix(out, utf8BOM))
	assert.Equal(t, "STID,نام\n40111415001,علی\n40111415002,\n", string(out[len(utf8BOM):]))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestPDFExporterEmbedsImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 40, 20))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	img.Set(1, 1, color.NRGBA{R: 255, A: 255})
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, img))

	out, err := NewPDFExporter().RenderImage(buf.Bytes(), "studentsByDepartment")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestPDFExporterRequiresImage(t *testing.T) {
	_, err := NewPDFExporter().RenderImage(nil, "")
	require.Error(t, err)
}
