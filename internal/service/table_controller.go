package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/records-panel/internal/models"
	appErrors "github.com/noah-isme/records-panel/pkg/errors"
	"github.com/noah-isme/records-panel/pkg/debounce"
)

// NoResultsText fills the placeholder row of an empty table.
const NoResultsText = "موردی یافت نشد"

// Filter fields accepted by ChangeFilter.
const (
	FilterFieldEntity     = "entity"
	FilterFieldDepartment = "department"
	FilterFieldMajor      = "major"
	FilterFieldSearch     = "search"
)

type pageFetcher interface {
	FetchPage(ctx context.Context, entity models.Entity, q models.ListQuery) *models.Page
}

// TableControllerParams groups the controller dependencies.
type TableControllerParams struct {
	Fetcher        pageFetcher
	Surface        Surface
	SearchDebounce time.Duration
	Scheduler      debounce.Scheduler
	// BaseContext bounds refreshes that are not tied to a request, such as
	// debounced searches.
	BaseContext context.Context
	Logger      *zap.Logger
}

// TableController owns the filter state and rebuilds the table from it.
type TableController struct {
	fetcher   pageFetcher
	surface   Surface
	debouncer *debounce.Debouncer
	baseCtx   context.Context
	logger    *zap.Logger

	mu         sync.Mutex
	taxonomy   models.Taxonomy
	filter     models.FilterState
	majors     *MajorSync
	generation uint64
	table      models.TableView
	lastQuery  models.ListQuery
}

// NewTableController constructs a controller with the default filter state.
func NewTableController(p TableControllerParams) *TableController {
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	if p.BaseContext == nil {
		p.BaseContext = context.Background()
	}
	if p.SearchDebounce <= 0 {
		p.SearchDebounce = 300 * time.Millisecond
	}
	filter := models.DefaultFilterState()
	return &TableController{
		fetcher:   p.Fetcher,
		surface:   p.Surface,
		debouncer: debounce.New(p.SearchDebounce, p.Scheduler),
		baseCtx:   p.BaseContext,
		logger:    p.Logger,
		filter:    filter,
		majors:    NewMajorSync(SyncFilter, models.Taxonomy{}),
		table:     models.TableView{Entity: filter.Entity, Columns: filter.Entity.Columns(), ColSpan: filter.Entity.ColumnCount(), Rows: []models.TableRow{}, ConfirmDelete: DeleteConfirmation(filter.Entity)},
	}
}

// SetTaxonomy installs a freshly loaded taxonomy.
func (c *TableController) SetTaxonomy(taxonomy models.Taxonomy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.taxonomy = taxonomy
	c.majors.SetTaxonomy(taxonomy)
}

// Refresh rebuilds the table from the current filter state. A response that
// was overtaken by a newer refresh is dropped.
func (c *TableController) Refresh(ctx context.Context) models.TableView {
	c.mu.Lock()
	f := c.filter
	c.majors.Prepopulate(f.Department, f.Major)
	c.majors.Sync(f.Department, f.Major)
	q := f.Query()
	c.generation++
	gen := c.generation
	c.surface.PublishFilters(c.filterBarLocked())
	c.mu.Unlock()

	page := c.fetcher.FetchPage(ctx, f.Entity, q)
	view := BuildTableView(f.Entity, page)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		c.logger.Debug("dropping stale table response", zap.Uint64("generation", gen), zap.Uint64("latest", c.generation))
		return c.table
	}
	c.table = view
	c.lastQuery = q
	c.surface.PublishTable(view)
	return view
}

// ChangeFilter applies one filter control change. Entity and department
// changes reset the major first. Search changes are debounced.
func (c *TableController) ChangeFilter(ctx context.Context, field, value string) error {
	c.mu.Lock()
	switch field {
	case FilterFieldEntity:
		entity, ok := models.ParseEntity(value)
		if !ok {
			c.mu.Unlock()
			return appErrors.Clone(appErrors.ErrUnsupportedEntity, "unsupported entity "+value)
		}
		c.filter.Major = ""
		c.filter.Entity = entity
	case FilterFieldDepartment:
		c.filter.Major = ""
		c.filter.Department = value
	case FilterFieldMajor:
		c.filter.Major = value
	case FilterFieldSearch:
		c.mu.Unlock()
		c.Search(value)
		return nil
	default:
		c.mu.Unlock()
		return appErrors.Clone(appErrors.ErrValidation, "unknown filter field "+field)
	}
	c.mu.Unlock()

	c.Refresh(ctx)
	return nil
}

// Search records the text and schedules a refresh after the quiet window.
// Only the last call of a burst refreshes.
func (c *TableController) Search(text string) {
	c.mu.Lock()
	c.filter.Search = text
	c.mu.Unlock()

	c.debouncer.Call(func() {
		if c.baseCtx.Err() != nil {
			return
		}
		c.Refresh(c.baseCtx)
	})
}

// Filter returns the current filter state.
func (c *TableController) Filter() models.FilterState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// Table returns the last applied table view.
func (c *TableController) Table() models.TableView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.table
}

// LastQuery returns the query behind the current table.
func (c *TableController) LastQuery() models.ListQuery {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastQuery
}

// FilterBar returns the rendered filter controls.
func (c *TableController) FilterBar() models.FilterBarView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filterBarLocked()
}

// MajorSync exposes the filter-bar synchronizer.
func (c *TableController) MajorSync() *MajorSync {
	return c.majors
}

// Close cancels a pending debounced search.
func (c *TableController) Close() {
	c.debouncer.Stop()
}

func (c *TableController) filterBarLocked() models.FilterBarView {
	return models.FilterBarView{
		Entities:     EntityOptions(c.filter.Entity),
		Departments:  DepartmentFilterOptions(c.taxonomy, c.filter.Department),
		Majors:       c.majors.State(),
		MajorVisible: c.filter.Entity == models.EntityStudents,
		Search:       c.filter.Search,
	}
}

// BuildTableView renders a page from scratch. An empty page yields the single
// placeholder row spanning every column.
func BuildTableView(entity models.Entity, page *models.Page) models.TableView {
	view := models.TableView{
		Entity:        entity,
		Columns:       entity.Columns(),
		ColSpan:       entity.ColumnCount(),
		Rows:          []models.TableRow{},
		ConfirmDelete: DeleteConfirmation(entity),
	}
	if page == nil || len(page.Items) == 0 {
		view.Placeholder = NoResultsText
		return view
	}
	view.Total = page.Total
	for _, item := range page.Items {
		view.Rows = append(view.Rows, models.TableRow{ID: item.RecordID(), Cells: item.Cells()})
	}
	return view
}
