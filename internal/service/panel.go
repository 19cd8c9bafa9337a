package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/records-panel/internal/models"
	"github.com/noah-isme/records-panel/pkg/debounce"
	appErrors "github.com/noah-isme/records-panel/pkg/errors"
	"github.com/noah-isme/records-panel/pkg/export"
)

// Chart export notifications.
const (
	ChartNotSelectedText = "ابتدا یک نمودار انتخاب کنید"
	ChartDownloadedText  = "نمودار با موفقیت دانلود شد"
)

// PanelDeps are the shared collaborators every Panel is built from.
type PanelDeps struct {
	Backend             RecordsBackend
	Taxonomy            *TaxonomyService
	Recorder            MutationRecorder
	SearchDebounce      time.Duration
	Scheduler           debounce.Scheduler
	TeacherOptionsLimit int
	ChartLimit          int
	Logger              *zap.Logger
}

// PanelSnapshot is the complete rendered state, used for full page renders.
type PanelSnapshot struct {
	Filters models.FilterBarView
	Table   models.TableView
	Modal   models.ModalView
	Chart   models.ChartData
	Charts  models.SelectState
}

// Panel is one user's admin panel: filter bar, table, edit dialog and chart,
// all publishing to a single Surface.
type Panel struct {
	id      string
	surface Surface
	gateway *Gateway
	tax     *TaxonomyService
	table   *TableController
	edits   map[models.Entity]*EditSession
	charts  *ChartService
	csv     *export.CSVExporter
	logger  *zap.Logger
	cancel  context.CancelFunc

	mu       sync.Mutex
	taxonomy models.Taxonomy
	active   *EditSession
	chart    models.ChartData
}

// NewPanel wires a panel for session id on top of surface.
func NewPanel(id string, surface Surface, deps PanelDeps) *Panel {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("panel", id))
	baseCtx, cancel := context.WithCancel(context.Background())

	gateway := NewGateway(deps.Backend, surface, logger)
	table := NewTableController(TableControllerParams{
		Fetcher:        gateway,
		Surface:        surface,
		SearchDebounce: deps.SearchDebounce,
		Scheduler:      deps.Scheduler,
		BaseContext:    baseCtx,
		Logger:         logger,
	})

	p := &Panel{
		id:      id,
		surface: surface,
		gateway: gateway,
		tax:     deps.Taxonomy,
		table:   table,
		edits:   make(map[models.Entity]*EditSession, 3),
		charts:  NewChartService(gateway, deps.ChartLimit, logger, nil),
		csv:     export.NewCSVExporter(),
		logger:  logger,
		cancel:  cancel,
	}
	for _, e := range models.Entities() {
		p.edits[e] = NewEditSession(EditSessionParams{
			Entity:              e,
			Gateway:             gateway,
			Surface:             surface,
			Refresher:           table,
			Recorder:            deps.Recorder,
			TeacherOptionsLimit: deps.TeacherOptionsLimit,
			SessionID:           id,
			Logger:              logger,
		})
	}
	return p
}

// ID is the owning session id.
func (p *Panel) ID() string { return p.id }

// Load fetches the taxonomy, installs it everywhere and renders the table.
// It runs once per page load.
func (p *Panel) Load(ctx context.Context) models.TableView {
	taxonomy := models.Taxonomy{}
	if p.tax != nil {
		taxonomy = p.tax.Load(ctx, p.surface)
	}

	p.mu.Lock()
	p.taxonomy = taxonomy
	chart := p.chart
	p.mu.Unlock()

	p.table.SetTaxonomy(taxonomy)
	for _, e := range p.edits {
		e.SetTaxonomy(taxonomy)
	}
	p.surface.PublishChart(chart)
	return p.table.Refresh(ctx)
}

// Refresh re-renders the table with unchanged filters.
func (p *Panel) Refresh(ctx context.Context) models.TableView {
	return p.table.Refresh(ctx)
}

// ChangeFilter applies one filter control change.
func (p *Panel) ChangeFilter(ctx context.Context, field, value string) error {
	return p.table.ChangeFilter(ctx, field, value)
}

// Search records the search text; the table refreshes after the debounce.
func (p *Panel) Search(text string) {
	p.table.Search(text)
}

// OpenEdit opens the edit dialog for a record. A dialog of another entity
// that is still open is discarded first.
func (p *Panel) OpenEdit(ctx context.Context, entity models.Entity, id string) error {
	edit, err := p.switchTo(entity)
	if err != nil {
		return err
	}
	return edit.Open(ctx, id)
}

// OpenCreate opens an empty dialog for entity.
func (p *Panel) OpenCreate(ctx context.Context, entity models.Entity) error {
	edit, err := p.switchTo(entity)
	if err != nil {
		return err
	}
	return edit.OpenCreate(ctx)
}

func (p *Panel) switchTo(entity models.Entity) (*EditSession, error) {
	edit, ok := p.edits[entity]
	if !ok {
		return nil, appErrors.ErrUnsupportedEntity
	}
	p.mu.Lock()
	prev := p.active
	p.active = edit
	p.mu.Unlock()
	if prev != nil && prev != edit && prev.State() == EditEditing {
		_ = prev.Cancel()
	}
	return edit, nil
}

func (p *Panel) activeEdit() (*EditSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active == nil {
		return nil, appErrors.ErrInvalidState
	}
	return p.active, nil
}

// ModalDepartment handles a department change inside the open dialog.
func (p *Panel) ModalDepartment(ctx context.Context, department string, values FormValues) error {
	edit, err := p.activeEdit()
	if err != nil {
		return err
	}
	return edit.ChangeDepartment(ctx, department, values)
}

// SaveModal submits the open dialog.
func (p *Panel) SaveModal(ctx context.Context, values FormValues) error {
	edit, err := p.activeEdit()
	if err != nil {
		return err
	}
	return edit.Save(ctx, values)
}

// CancelModal closes the open dialog without saving.
func (p *Panel) CancelModal() error {
	edit, err := p.activeEdit()
	if err != nil {
		return err
	}
	return edit.Cancel()
}

// Modal returns the open dialog, if any.
func (p *Panel) Modal() models.ModalView {
	edit, err := p.activeEdit()
	if err != nil {
		return models.ModalView{}
	}
	return edit.Modal()
}

// Delete removes a record after confirmation.
func (p *Panel) Delete(ctx context.Context, entity models.Entity, id string, confirmer Confirmer) error {
	edit, ok := p.edits[entity]
	if !ok {
		return appErrors.ErrUnsupportedEntity
	}
	return edit.Delete(ctx, id, confirmer)
}

// SelectChart builds and shows the chart of type raw; "" hides it.
func (p *Panel) SelectChart(ctx context.Context, raw string) (models.ChartData, error) {
	t, ok := models.ParseChartType(raw)
	if !ok {
		return models.ChartData{}, appErrors.Clone(appErrors.ErrValidation, "unknown chart type")
	}

	p.mu.Lock()
	taxonomy := p.taxonomy
	p.mu.Unlock()

	data := p.charts.Build(ctx, t, taxonomy)

	p.mu.Lock()
	p.chart = data
	p.mu.Unlock()
	p.surface.PublishChart(data)
	return data, nil
}

// Chart returns the selected chart data.
func (p *Panel) Chart() models.ChartData {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.chart
}

// ExportChart renders the selected chart for download. With no chart
// selected it warns and returns ErrPreconditionFailed.
func (p *Panel) ExportChart(format ChartFormat) (*Download, error) {
	return p.ExportCanvas(format, nil)
}

// ExportCanvas is ExportChart for a surface that drew the chart itself:
// canvas is that drawing as PNG and becomes the downloaded image.
func (p *Panel) ExportCanvas(format ChartFormat, canvas []byte) (*Download, error) {
	data := p.Chart()
	if !data.Visible() {
		notifyWarning(p.surface, ChartNotSelectedText)
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no chart selected")
	}
	file, err := p.charts.Export(data, format, canvas)
	if err != nil {
		p.logger.Error("chart export failed", zap.String("chart", string(data.Type)), zap.Error(err))
		notifyError(p.surface, "خطا در دانلود نمودار")
		return nil, err
	}
	notifySuccess(p.surface, ChartDownloadedText)
	return file, nil
}

// ExportTableCSV renders the currently displayed table rows.
func (p *Panel) ExportTableCSV() (*Download, error) {
	table := p.table.Table()
	columns := table.Columns
	if len(columns) > 0 {
		// drop the actions column
		columns = columns[:len(columns)-1]
	}
	rows := make([][]string, 0, len(table.Rows))
	for _, r := range table.Rows {
		rows = append(rows, r.Cells)
	}
	body, err := p.csv.Render(export.Dataset{Headers: columns, Rows: rows})
	if err != nil {
		return nil, err
	}
	return &Download{Filename: string(table.Entity) + ".csv", ContentType: "text/csv; charset=utf-8", Body: body}, nil
}

// Snapshot returns everything needed to render the page.
func (p *Panel) Snapshot() PanelSnapshot {
	chart := p.Chart()
	return PanelSnapshot{
		Filters: p.table.FilterBar(),
		Table:   p.table.Table(),
		Modal:   p.Modal(),
		Chart:   chart,
		Charts:  ChartOptions(chart.Type),
	}
}

// Filter returns the current filter state.
func (p *Panel) Filter() models.FilterState {
	return p.table.Filter()
}

// Surface returns the surface the panel publishes to.
func (p *Panel) Surface() Surface { return p.surface }

// Close stops pending debounced work and disconnects stream subscribers.
func (p *Panel) Close() {
	p.table.Close()
	p.cancel()
	if c, ok := p.surface.(interface{ Close() }); ok {
		c.Close()
	}
}

// ChartOptions lists the chart selector.
func ChartOptions(selected models.ChartType) models.SelectState {
	types := []models.ChartType{models.ChartNone, models.ChartStudentsByDepartment, models.ChartCoursesByTeacher}
	opts := make([]models.SelectOption, 0, len(types))
	for _, t := range types {
		opts = append(opts, models.SelectOption{Value: string(t), Label: t.Title(), Selected: t == selected})
	}
	return models.SelectState{Options: opts}
}
