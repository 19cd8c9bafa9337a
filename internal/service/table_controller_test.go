package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/records-panel/internal/models"
	appErrors "github.com/noah-isme/records-panel/pkg/errors"
)

func newTestController(backend *fakeBackend, surface *recordingSurface, sched *manualScheduler) *TableController {
	gateway := NewGateway(backend, surface, nil)
	c := NewTableController(TableControllerParams{
		Fetcher:        gateway,
		Surface:        surface,
		SearchDebounce: 300 * time.Millisecond,
		Scheduler:      sched,
	})
	c.SetTaxonomy(testTaxonomy())
	return c
}

func TestTableControllerDepartmentFilterQuery(t *testing.T) {
	backend := newFakeBackend()
	backend.pages[models.EntityStudents] = pageOf(
		models.Student{STID: "S1", FirstName: "علی", LastName: "احمدی", Department: "فنی مهندسی", Major: "کامپیوتر", NationalID: "001"},
		models.Student{STID: "S2", FirstName: "سارا", LastName: "رضایی", Department: "فنی مهندسی", Major: "برق", NationalID: "002"},
	)
	surface := &recordingSurface{}
	c := newTestController(backend, surface, &manualScheduler{})

	require.NoError(t, c.ChangeFilter(context.Background(), FilterFieldDepartment, "فنی مهندسی"))

	calls := backend.listCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, models.EntityStudents, calls[0].Entity)
	assert.Equal(t, models.ListQuery{Limit: 10, Offset: 0, Department: "فنی مهندسی"}, calls[0].Query)
	assert.Len(t, calls[0].Query.Values(), 3)

	table := surface.lastTable()
	assert.False(t, table.Empty())
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "S1", table.Rows[0].ID)
	assert.Len(t, table.Rows[0].Cells, 6)
	assert.Len(t, table.Columns, 7)
}

func TestTableControllerEmptyResultPlaceholder(t *testing.T) {
	surface := &recordingSurface{}
	c := newTestController(newFakeBackend(), surface, &manualScheduler{})

	view := c.Refresh(context.Background())
	assert.True(t, view.Empty())
	assert.Equal(t, NoResultsText, view.Placeholder)
	assert.Equal(t, 7, view.ColSpan)
	assert.Empty(t, view.Rows)

	require.NoError(t, c.ChangeFilter(context.Background(), FilterFieldEntity, "teachers"))
	view = c.Table()
	assert.Equal(t, models.EntityTeachers, view.Entity)
	assert.Equal(t, 6, view.ColSpan)
	assert.Equal(t, NoResultsText, view.Placeholder)
}

func TestTableControllerListingFailureShowsPlaceholderAndOneNotification(t *testing.T) {
	backend := newFakeBackend()
	backend.listErr = appErrors.Wrap(errors.New("dial tcp: refused"), appErrors.ErrBackendUnavailable.Code, appErrors.ErrBackendUnavailable.Status, "")
	surface := &recordingSurface{}
	c := newTestController(backend, surface, &manualScheduler{})

	view := c.Refresh(context.Background())

	assert.True(t, view.Empty())
	notes := surface.notes()
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationError, notes[0].Level)
	assert.Equal(t, "خطا در دریافت داده‌ها: "+UnknownErrorText, notes[0].Message)
}

func TestTableControllerSearchIsDebounced(t *testing.T) {
	backend := newFakeBackend()
	sched := &manualScheduler{}
	c := newTestController(backend, &recordingSurface{}, sched)

	c.Search("A")
	sched.Advance(100 * time.Millisecond)
	c.Search("Al")
	sched.Advance(100 * time.Millisecond)
	c.Search("Ali")
	sched.Advance(299 * time.Millisecond)
	assert.Empty(t, backend.listCalls())

	sched.Advance(time.Millisecond)
	calls := backend.listCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Ali", calls[0].Query.Search)
}

func TestTableControllerSearchTypedAfterFireRefreshesAgain(t *testing.T) {
	backend := newFakeBackend()
	sched := &manualScheduler{}
	c := newTestController(backend, &recordingSurface{}, sched)

	c.Search("Ali")
	sched.Advance(300 * time.Millisecond)
	c.Search("Alis")
	sched.Advance(300 * time.Millisecond)

	calls := backend.listCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "Ali", calls[0].Query.Search)
	assert.Equal(t, "Alis", calls[1].Query.Search)
}

func TestTableControllerCloseCancelsPendingSearch(t *testing.T) {
	backend := newFakeBackend()
	sched := &manualScheduler{}
	c := newTestController(backend, &recordingSurface{}, sched)

	c.Search("Ali")
	c.Close()
	sched.Advance(time.Second)
	assert.Empty(t, backend.listCalls())
}

func TestTableControllerDropsStaleResponse(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})

	backend := newFakeBackend()
	backend.listFn = func(entity models.Entity, q models.ListQuery) (*models.Page, error) {
		if q.Department == "علوم پایه" {
			close(entered)
			<-release
			return pageOf(models.Student{STID: "stale"}), nil
		}
		return pageOf(models.Student{STID: "fresh"}), nil
	}
	surface := &recordingSurface{}
	c := newTestController(backend, surface, &manualScheduler{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = c.ChangeFilter(context.Background(), FilterFieldDepartment, "علوم پایه")
	}()
	<-entered

	require.NoError(t, c.ChangeFilter(context.Background(), FilterFieldDepartment, "فنی مهندسی"))
	close(release)
	<-done

	table := c.Table()
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "fresh", table.Rows[0].ID)
	assert.Equal(t, 1, surface.tableCount())
	assert.Equal(t, "فنی مهندسی", c.LastQuery().Department)
}

func TestTableControllerEntityChangeResetsMajor(t *testing.T) {
	backend := newFakeBackend()
	c := newTestController(backend, &recordingSurface{}, &manualScheduler{})
	ctx := context.Background()

	require.NoError(t, c.ChangeFilter(ctx, FilterFieldDepartment, "فنی مهندسی"))
	require.NoError(t, c.ChangeFilter(ctx, FilterFieldMajor, "کامپیوتر"))
	calls := backend.listCalls()
	assert.Equal(t, "کامپیوتر", calls[len(calls)-1].Query.Major)

	require.NoError(t, c.ChangeFilter(ctx, FilterFieldEntity, "courses"))
	calls = backend.listCalls()
	last := calls[len(calls)-1]
	assert.Equal(t, models.EntityCourses, last.Entity)
	assert.Empty(t, last.Query.Major)
	assert.Equal(t, "فنی مهندسی", last.Query.Department)
	assert.Empty(t, c.Filter().Major)
	assert.False(t, c.FilterBar().MajorVisible)
}

func TestTableControllerDepartmentChangeResetsMajor(t *testing.T) {
	backend := newFakeBackend()
	c := newTestController(backend, &recordingSurface{}, &manualScheduler{})
	ctx := context.Background()

	require.NoError(t, c.ChangeFilter(ctx, FilterFieldDepartment, "فنی مهندسی"))
	require.NoError(t, c.ChangeFilter(ctx, FilterFieldMajor, "برق"))
	require.NoError(t, c.ChangeFilter(ctx, FilterFieldDepartment, "علوم پایه"))

	assert.Empty(t, c.Filter().Major)
	majors := c.FilterBar().Majors
	assert.False(t, majors.Disabled)
	assert.Equal(t, []string{"", "ریاضی", "فیزیک"}, majors.Values())
}

func TestTableControllerFilterBarMajorDisabledWithoutDepartment(t *testing.T) {
	c := newTestController(newFakeBackend(), &recordingSurface{}, &manualScheduler{})
	c.Refresh(context.Background())

	bar := c.FilterBar()
	assert.True(t, bar.MajorVisible)
	assert.True(t, bar.Majors.Disabled)
	require.Len(t, bar.Majors.Options, 1)
	assert.Equal(t, MajorFilterSentinel, bar.Majors.Options[0].Label)
	assert.Equal(t, DepartmentFilterSentinel, bar.Departments.Options[0].Label)
	assert.Len(t, bar.Departments.Options, 3)
}

func TestTableControllerRejectsUnknownInput(t *testing.T) {
	c := newTestController(newFakeBackend(), &recordingSurface{}, &manualScheduler{})

	err := c.ChangeFilter(context.Background(), FilterFieldEntity, "grades")
	assert.ErrorIs(t, err, appErrors.ErrUnsupportedEntity)

	err = c.ChangeFilter(context.Background(), "color", "red")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
