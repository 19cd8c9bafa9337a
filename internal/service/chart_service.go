package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/disintegration/imaging"

	"go.uber.org/zap"

	"github.com/noah-isme/records-panel/internal/models"
	"github.com/noah-isme/records-panel/pkg/chart"
	appErrors "github.com/noah-isme/records-panel/pkg/errors"
	"github.com/noah-isme/records-panel/pkg/export"
)

// Chart palette and bar styling as shown in the browser.
var (
	PieColors      = []string{"#FF6384", "#36A2EB", "#FFCE56", "#4BC0C0", "#9966FF", "#FF9F40", "#C9CBCF", "#8BC34A"}
	BarColor       = "#36A2EB"
	BarBorderColor = "#1e40af"
)

// ChartFormat is an export file format.
type ChartFormat string

const (
	ChartFormatPNG ChartFormat = "png"
	ChartFormatPDF ChartFormat = "pdf"
)

// ParseChartFormat validates an export format.
func ParseChartFormat(raw string) (ChartFormat, error) {
	switch f := ChartFormat(strings.ToLower(strings.TrimSpace(raw))); f {
	case ChartFormatPNG, ChartFormatPDF:
		return f, nil
	}
	return "", appErrors.Clone(appErrors.ErrExportUnknownFormat, fmt.Sprintf("unknown export format %q", raw))
}

// Download is a rendered file handed to the user.
type Download struct {
	Filename    string
	ContentType string
	Body        []byte
}

type imageDocumentRenderer interface {
	RenderImage(png []byte, title string) ([]byte, error)
}

// chartSource lists records without notifying, so one chart selection raises
// at most one error notification however many listings it needs.
type chartSource interface {
	Page(ctx context.Context, entity models.Entity, q models.ListQuery) (*models.Page, error)
	Notifier() Notifier
}

// ChartService aggregates listings into chart datasets and renders them.
type ChartService struct {
	source chartSource
	pdf    imageDocumentRenderer
	limit  int
	logger *zap.Logger
}

// NewChartService constructs a ChartService. limit bounds the teacher and
// course listings of the courses-by-teacher chart.
func NewChartService(source chartSource, limit int, logger *zap.Logger, pdf imageDocumentRenderer) *ChartService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limit <= 0 {
		limit = 1000
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ChartService{source: source, pdf: pdf, limit: limit, logger: logger}
}

// Build collects data for chart type t. ChartNone yields a hidden chart. A
// listing failure stops the collection, leaves the remaining values at zero
// and raises one error notification.
func (s *ChartService) Build(ctx context.Context, t models.ChartType, taxonomy models.Taxonomy) models.ChartData {
	switch t {
	case models.ChartStudentsByDepartment:
		return s.studentsByDepartment(ctx, taxonomy)
	case models.ChartCoursesByTeacher:
		return s.coursesByTeacher(ctx)
	}
	return models.ChartData{}
}

func (s *ChartService) studentsByDepartment(ctx context.Context, taxonomy models.Taxonomy) models.ChartData {
	departments := taxonomy.Departments()
	if departments == nil {
		departments = []string{}
	}
	values := make([]float64, len(departments))
	for i, d := range departments {
		page, err := s.source.Page(ctx, models.EntityStudents, models.ListQuery{Limit: 1, Offset: 0, Department: d})
		if err != nil {
			s.failed(models.ChartStudentsByDepartment, err)
			break
		}
		values[i] = float64(page.Total)
	}
	return models.ChartData{
		Type:         models.ChartStudentsByDepartment,
		Kind:         string(chart.KindPie),
		Labels:       departments,
		DatasetLabel: "تعداد دانشجویان",
		Values:       values,
		Colors:       cycle(PieColors, len(departments)),
	}
}

func (s *ChartService) coursesByTeacher(ctx context.Context) models.ChartData {
	data := models.ChartData{
		Type:         models.ChartCoursesByTeacher,
		Kind:         string(chart.KindBar),
		Labels:       []string{},
		DatasetLabel: "تعداد دروس",
		Values:       []float64{},
		BorderColor:  BarBorderColor,
	}

	q := models.ListQuery{Limit: s.limit, Offset: 0}
	teachers, err := s.source.Page(ctx, models.EntityTeachers, q)
	if err != nil {
		s.failed(data.Type, err)
		return data
	}
	courses, err := s.source.Page(ctx, models.EntityCourses, q)
	if err != nil {
		s.failed(data.Type, err)
		return data
	}

	counts := make(map[string]int)
	for _, item := range courses.Items {
		if c, ok := item.(models.Course); ok {
			counts[c.TeacherID]++
		}
	}
	for _, item := range teachers.Items {
		t, ok := item.(models.Teacher)
		if !ok {
			continue
		}
		data.Labels = append(data.Labels, t.FullName())
		data.Values = append(data.Values, float64(counts[t.TeacherID]))
		data.Colors = append(data.Colors, BarColor)
	}
	return data
}

func (s *ChartService) failed(t models.ChartType, err error) {
	s.logger.Debug("chart data degraded", zap.String("chart", string(t)), zap.Error(err))
	notifyError(s.source.Notifier(), "خطا در بارگذاری نمودار: "+detail(err))
}

// Export renders data in format. canvas, when set, is the PNG the browser
// drew for data and is used as is; otherwise the chart is rendered here with
// a legend. Callers check Visible first.
func (s *ChartService) Export(data models.ChartData, format ChartFormat, canvas []byte) (*Download, error) {
	if !data.Visible() {
		return nil, appErrors.ErrPreconditionFailed
	}
	png := canvas
	if len(png) > 0 {
		if _, err := imaging.Decode(bytes.NewReader(png)); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "chart image is not a valid PNG")
		}
	} else {
		var err error
		png, err = chart.RenderPNG(chart.Options{
			Kind:   chart.Kind(data.Kind),
			Title:  string(data.Type),
			Labels: data.Labels,
			Values: data.Values,
			Colors: data.Colors,
		})
		if err != nil {
			return nil, fmt.Errorf("render chart: %w", err)
		}
	}

	name := string(data.Type)
	switch format {
	case ChartFormatPNG:
		return &Download{Filename: name + ".png", ContentType: "image/png", Body: png}, nil
	case ChartFormatPDF:
		doc, err := s.pdf.RenderImage(png, name)
		if err != nil {
			return nil, fmt.Errorf("render chart pdf: %w", err)
		}
		return &Download{Filename: name + ".pdf", ContentType: "application/pdf", Body: doc}, nil
	}
	return nil, appErrors.ErrExportUnknownFormat
}

func cycle(palette []string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = palette[i%len(palette)]
	}
	return out
}
