package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	pageWidth   = 297.0
	pageMargin  = 10.0
	titleHeight = 10.0
)

// PDFExporter wraps a rendered PNG into a single landscape A4 page.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// RenderImage embeds png scaled to the page width. The title is drawn with a
// core font, so it must be Latin-1; callers pass the chart type identifier.
func (e *PDFExporter) RenderImage(png []byte, title string) ([]byte, error) {
	if len(png) == 0 {
		return nil, fmt.Errorf("pdf requires image content")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.AddPage()

	top := pageMargin
	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, titleHeight, title, "", 1, "C", false, 0, "")
		top += titleHeight + 2
	}

	opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	pdf.RegisterImageOptionsReader("chart", opts, bytes.NewReader(png))
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("register chart image: %w", err)
	}
	// height 0 keeps the aspect ratio
	pdf.ImageOptions("chart", pageMargin, top, pageWidth-2*pageMargin, 0, false, opts, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
