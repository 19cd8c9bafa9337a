package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/noah-isme/records-panel/internal/models"
	"github.com/noah-isme/records-panel/pkg/debounce"
	appErrors "github.com/noah-isme/records-panel/pkg/errors"
)

type listCall struct {
	Entity models.Entity
	Query  models.ListQuery
}

// fakeBackend is an in-memory RecordsBackend.
type fakeBackend struct {
	mu sync.Mutex

	taxonomy models.Taxonomy
	taxErr   error

	pages   map[models.Entity]*models.Page
	listFn  func(entity models.Entity, q models.ListQuery) (*models.Page, error)
	listErr error
	lists   []listCall

	records   map[models.Entity]map[string]interface{}
	getErr    error
	createErr error
	updateErr error
	deleteErr error
	created   []interface{}
	updated   map[string]interface{}
	deleted   []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		pages:   make(map[models.Entity]*models.Page),
		records: make(map[models.Entity]map[string]interface{}),
		updated: make(map[string]interface{}),
	}
}

func (b *fakeBackend) put(entity models.Entity, id string, record interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.records[entity] == nil {
		b.records[entity] = make(map[string]interface{})
	}
	b.records[entity][id] = record
}

func (b *fakeBackend) listCalls() []listCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]listCall(nil), b.lists...)
}

func (b *fakeBackend) Departments(ctx context.Context) (models.Taxonomy, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.taxonomy, b.taxErr
}

func (b *fakeBackend) List(ctx context.Context, entity models.Entity, q models.ListQuery) (*models.Page, error) {
	b.mu.Lock()
	b.lists = append(b.lists, listCall{Entity: entity, Query: q})
	fn, err, page := b.listFn, b.listErr, b.pages[entity]
	b.mu.Unlock()

	if fn != nil {
		return fn(entity, q)
	}
	if err != nil {
		return nil, err
	}
	if page == nil {
		return models.EmptyPage(), nil
	}
	cp := *page
	return &cp, nil
}

// Get round-trips the stored record through JSON into dest, like the real
// client does.
func (b *fakeBackend) Get(ctx context.Context, entity models.Entity, id string, dest interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.getErr != nil {
		return b.getErr
	}
	rec, ok := b.records[entity][id]
	if !ok {
		return appErrors.Clone(appErrors.ErrBackend, "یافت نشد")
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

func (b *fakeBackend) Create(ctx context.Context, entity models.Entity, payload, dest interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.createErr != nil {
		return b.createErr
	}
	b.created = append(b.created, payload)
	if dest == nil {
		return nil
	}
	var echo interface{} = payload
	switch p := payload.(type) {
	case models.Teacher:
		p.TeacherID = "T100"
		echo = p
	case models.Course:
		p.ID = 42
		echo = p
	}
	raw, err := json.Marshal(echo)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

func (b *fakeBackend) Update(ctx context.Context, entity models.Entity, id string, payload interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.updateErr != nil {
		return b.updateErr
	}
	b.updated[id] = payload
	return nil
}

func (b *fakeBackend) Delete(ctx context.Context, entity models.Entity, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.deleteErr != nil {
		return b.deleteErr
	}
	b.deleted = append(b.deleted, id)
	return nil
}

// recordingSurface captures everything published to it.
type recordingSurface struct {
	mu            sync.Mutex
	notifications []models.Notification
	filters       []models.FilterBarView
	tables        []models.TableView
	modals        []models.ModalView
	charts        []models.ChartData
}

func (s *recordingSurface) Notify(n models.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, n)
}

func (s *recordingSurface) PublishFilters(v models.FilterBarView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = append(s.filters, v)
}

func (s *recordingSurface) PublishTable(v models.TableView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = append(s.tables, v)
}

func (s *recordingSurface) PublishModal(v models.ModalView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modals = append(s.modals, v)
}

func (s *recordingSurface) PublishChart(v models.ChartData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.charts = append(s.charts, v)
}

func (s *recordingSurface) notes() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Notification(nil), s.notifications...)
}

func (s *recordingSurface) tableCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tables)
}

func (s *recordingSurface) modalCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.modals)
}

func (s *recordingSurface) lastTable() models.TableView {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.tables) == 0 {
		return models.TableView{}
	}
	return s.tables[len(s.tables)-1]
}

func (s *recordingSurface) lastModal() models.ModalView {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.modals) == 0 {
		return models.ModalView{}
	}
	return s.modals[len(s.modals)-1]
}

// manualScheduler runs callbacks only when the test advances virtual time.
type manualScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*manualTimer
}

type manualTimer struct {
	at        time.Duration
	fn        func()
	cancelled bool
	fired     bool
}

func (t *manualTimer) Cancel() { t.cancelled = true }

func (s *manualScheduler) Schedule(delay time.Duration, fn func()) debounce.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{at: s.now + delay, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

// Advance moves virtual time forward and runs due callbacks in order.
func (s *manualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now += d
	var due []*manualTimer
	for _, t := range s.timers {
		if !t.fired && !t.cancelled && t.at <= s.now {
			t.fired = true
			due = append(due, t)
		}
	}
	s.mu.Unlock()
	for _, t := range due {
		t.fn()
	}
}

type recordingRecorder struct {
	mu     sync.Mutex
	events []models.MutationEvent
}

func (r *recordingRecorder) Record(ctx context.Context, event models.MutationEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func testTaxonomy() models.Taxonomy {
	return models.NewTaxonomy(
		models.TaxonomyEntry{Department: "فنی مهندسی", Majors: []string{"کامپیوتر", "برق"}},
		models.TaxonomyEntry{Department: "علوم پایه", Majors: []string{"ریاضی", "فیزیک"}},
	)
}

func pageOf(records ...models.Record) *models.Page {
	return &models.Page{Items: records, Total: len(records)}
}
