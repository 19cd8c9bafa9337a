package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/records-panel/internal/middleware"
	"github.com/noah-isme/records-panel/internal/models"
	"github.com/noah-isme/records-panel/internal/repository"
	"github.com/noah-isme/records-panel/internal/service"
	"github.com/noah-isme/records-panel/pkg/chart"
	appErrors "github.com/noah-isme/records-panel/pkg/errors"
	"github.com/noah-isme/records-panel/web"
)

const (
	testCookie   = "panel_session"
	testUser     = "admin"
	testPassword = "s3cret"
	testDept     = "فنی مهندسی"
)

type stubBackend struct {
	mu      sync.Mutex
	updated map[string]json.RawMessage
	deleted []string
}

func newStubBackend() *stubBackend {
	return &stubBackend{updated: make(map[string]json.RawMessage)}
}

func (b *stubBackend) Departments(context.Context) (models.Taxonomy, error) {
	return models.NewTaxonomy(models.TaxonomyEntry{Department: testDept, Majors: []string{"کامپیوتر"}}), nil
}

func (b *stubBackend) records(entity models.Entity) []models.Record {
	switch entity {
	case models.EntityStudents:
		return []models.Record{models.Student{STID: "S1", FirstName: "Ali", LastName: "Rezaei", Department: testDept, Major: "کامپیوتر", NationalID: "001"}}
	case models.EntityTeachers:
		return []models.Record{models.Teacher{TeacherID: "T1", FirstName: "Sara", LastName: "Ahmadi", Department: testDept, NationalID: "002"}}
	case models.EntityCourses:
		return []models.Record{models.Course{ID: 42, CourseName: "Algorithms", Units: 3, Department: testDept, TeacherID: "T1"}}
	}
	return nil
}

func (b *stubBackend) List(_ context.Context, entity models.Entity, _ models.ListQuery) (*models.Page, error) {
	items := b.records(entity)
	return &models.Page{Items: items, Total: len(items)}, nil
}

func (b *stubBackend) Get(_ context.Context, entity models.Entity, id string, dest interface{}) error {
	for _, r := range b.records(entity) {
		if r.RecordID() == id {
			raw, err := json.Marshal(r)
			if err != nil {
				return err
			}
			return json.Unmarshal(raw, dest)
		}
	}
	return appErrors.Clone(appErrors.ErrBackend, "not found")
}

func (b *stubBackend) Create(context.Context, models.Entity, interface{}, interface{}) error {
	return nil
}

func (b *stubBackend) Update(_ context.Context, entity models.Entity, id string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updated[string(entity)+"/"+id] = raw
	return nil
}

func (b *stubBackend) Delete(_ context.Context, entity models.Entity, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleted = append(b.deleted, string(entity)+"/"+id)
	return nil
}

type panelTestEnv struct {
	router   *gin.Engine
	backend  *stubBackend
	registry *service.PanelRegistry
}

func newPanelTestEnv(t *testing.T) *panelTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	backend := newStubBackend()
	sessions, err := service.NewSessionService(repository.NewMemorySessionRepository(), nil, nil, service.SessionConfig{
		Secret:        "test-secret",
		TTL:           time.Hour,
		AdminUsername: testUser,
		AdminPassword: testPassword,
	})
	require.NoError(t, err)

	registry := service.NewPanelRegistry(service.PanelDeps{
		Backend:  backend,
		Taxonomy: service.NewTaxonomyService(backend, nil, time.Minute, nil),
	}, 64, nil)
	t.Cleanup(registry.CloseAll)

	tmpl, err := web.Templates()
	require.NoError(t, err)

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	RegisterRoutes(r, RouterDeps{
		Auth:    NewAuthHandler(sessions, registry, CookieConfig{Name: testCookie}, nil),
		Panel:   NewPanelHandler(registry, nil),
		Metrics: NewMetricsHandler(service.NewMetricsService(), nil),
		Session: middleware.Session(sessions, testCookie),
	})
	return &panelTestEnv{router: r, backend: backend, registry: registry}
}

func (e *panelTestEnv) do(req *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *panelTestEnv) post(path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	return e.do(req, cookie)
}

func (e *panelTestEnv) get(path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Accept", "text/html")
	return e.do(req, cookie)
}

func (e *panelTestEnv) login(t *testing.T) *http.Cookie {
	t.Helper()
	w := e.post("/login", url.Values{"username": {testUser}, "password": {testPassword}}, nil)
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/panel", w.Header().Get("Location"))
	for _, c := range w.Result().Cookies() {
		if c.Name == testCookie {
			assert.True(t, c.HttpOnly)
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func (e *panelTestEnv) openPanel(t *testing.T) *http.Cookie {
	t.Helper()
	cookie := e.login(t)
	w := e.get("/panel", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	return cookie
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newPanelTestEnv(t)

	w := env.post("/login", url.Values{"username": {testUser}, "password": {"wrong"}}, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), LoginFailedText)
	assert.Empty(t, w.Result().Cookies())
}

func TestLoginRequiresBothFields(t *testing.T) {
	env := newPanelTestEnv(t)

	w := env.post("/login", url.Values{"username": {testUser}}, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), LoginRequiredText)
}

func TestPanelRequiresLogin(t *testing.T) {
	env := newPanelTestEnv(t)

	w := env.get("/panel", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, middleware.LoginPath, w.Header().Get("Location"))

	w = env.post("/panel/filters", url.Values{"field": {"entity"}, "value": {"teachers"}}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPanelPageRendersInitialTable(t *testing.T) {
	env := newPanelTestEnv(t)
	cookie := env.login(t)

	w := env.get("/panel", cookie)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `id="records"`)
	assert.Contains(t, body, "Rezaei")
	assert.Contains(t, body, testDept)
	assert.Equal(t, 1, env.registry.Len())
}

func TestPanelActionsBeforePageLoadAreRejected(t *testing.T) {
	env := newPanelTestEnv(t)
	cookie := env.login(t)

	w := env.post("/panel/filters", url.Values{"field": {"entity"}, "value": {"teachers"}}, cookie)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), appErrors.ErrSessionNotStarted.Code)
}

func TestFilterChangeSwitchesExportedTable(t *testing.T) {
	env := newPanelTestEnv(t)
	cookie := env.openPanel(t)

	w := env.post("/panel/filters", url.Values{"field": {"entity"}, "value": {"teachers"}}, cookie)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = env.get("/panel/export.csv", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "teachers.csv")
	assert.Contains(t, w.Body.String(), "Ahmadi")
	assert.NotContains(t, w.Body.String(), "عملیات")
}

func TestFilterChangeRejectsUnknownEntity(t *testing.T) {
	env := newPanelTestEnv(t)
	cookie := env.openPanel(t)

	w := env.post("/panel/filters", url.Values{"field": {"entity"}, "value": {"grades"}}, cookie)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEditAndSaveStudent(t *testing.T) {
	env := newPanelTestEnv(t)
	cookie := env.openPanel(t)

	w := env.post("/panel/edit/students/S1", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	var opened struct {
		Data models.ModalView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &opened))
	assert.True(t, opened.Data.Open)
	assert.Equal(t, models.ModalEdit, opened.Data.Mode)

	form := url.Values{
		"student_fname": {"Ali"},
		"student_lname": {"Karimi"},
		"Department":    {testDept},
		"Major":         {"کامپیوتر"},
		"national_id":   {"001"},
	}
	w = env.post("/panel/modal/save", form, cookie)
	require.Equal(t, http.StatusNoContent, w.Code)

	env.backend.mu.Lock()
	raw, ok := env.backend.updated["students/S1"]
	env.backend.mu.Unlock()
	require.True(t, ok)
	assert.Contains(t, string(raw), "Karimi")

	w = env.post("/panel/modal/cancel", nil, cookie)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestEditUnknownEntity(t *testing.T) {
	env := newPanelTestEnv(t)
	cookie := env.openPanel(t)

	w := env.post("/panel/edit/grades/1", nil, cookie)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteRecord(t *testing.T) {
	env := newPanelTestEnv(t)
	cookie := env.openPanel(t)

	w := env.post("/panel/delete/courses/42", nil, cookie)

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"courses/42"}, env.backend.deleted)
}

func TestChartExport(t *testing.T) {
	env := newPanelTestEnv(t)
	cookie := env.openPanel(t)

	w := env.get("/panel/chart/export?format=png", cookie)
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)

	w = env.post("/panel/chart", url.Values{"type": {string(models.ChartStudentsByDepartment)}}, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.get("/panel/chart/export?format=gif", cookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.get("/panel/chart/export?format=png", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))
}

func TestChartExportUsesBrowserCanvas(t *testing.T) {
	env := newPanelTestEnv(t)
	cookie := env.openPanel(t)
	canvas, err := chart.RenderPNG(chart.Options{Kind: chart.KindPie, Values: []float64{1}, Width: 64, Height: 64})
	require.NoError(t, err)
	image := "data:image/png;base64," + base64.StdEncoding.EncodeToString(canvas)

	w := env.post("/panel/chart/export", url.Values{"format": {"png"}, "image": {image}}, cookie)
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)

	w = env.post("/panel/chart", url.Values{"type": {string(models.ChartStudentsByDepartment)}}, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.post("/panel/chart/export", url.Values{"format": {"png"}, "image": {image}}, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, canvas, w.Body.Bytes())

	w = env.post("/panel/chart/export", url.Values{"format": {"pdf"}, "image": {image}}, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	w = env.post("/panel/chart/export", url.Values{"format": {"png"}, "image": {"data:image/png;base64,bm90IGEgcG5n"}}, cookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.post("/panel/chart/export", url.Values{"format": {"png"}, "image": {"https://example.com/chart.png"}}, cookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChartRejectsUnknownType(t *testing.T) {
	env := newPanelTestEnv(t)
	cookie := env.openPanel(t)

	w := env.post("/panel/chart", url.Values{"type": {"pie"}}, cookie)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogoutEndsSession(t *testing.T) {
	env := newPanelTestEnv(t)
	cookie := env.openPanel(t)

	w := env.post("/logout", nil, cookie)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, middleware.LoginPath, w.Header().Get("Location"))
	assert.Equal(t, 0, env.registry.Len())

	w = env.get("/panel", cookie)
	assert.Equal(t, http.StatusSeeOther, w.Code)
}

// streamWriter is a ResponseWriter safe to read while the handler streams.
type streamWriter struct {
	mu     sync.Mutex
	header http.Header
	body   bytes.Buffer
	code   int
}

func newStreamWriter() *streamWriter {
	return &streamWriter{header: make(http.Header)}
}

func (w *streamWriter) Header() http.Header { return w.header }

func (w *streamWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.body.Write(p)
}

func (w *streamWriter) WriteHeader(code int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.code = code
}

func (w *streamWriter) Flush() {}

func (w *streamWriter) CloseNotify() <-chan bool { return make(chan bool) }

func (w *streamWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.body.String()
}

func TestEventsReplayLatestViews(t *testing.T) {
	env := newPanelTestEnv(t)
	cookie := env.openPanel(t)

	req := httptest.NewRequest(http.MethodGet, "/panel/events", nil)
	req.Header.Set("Accept", "text/event-stream")
	req.AddCookie(cookie)
	w := newStreamWriter()

	done := make(chan struct{})
	go func() {
		defer close(done)
		env.router.ServeHTTP(w, req)
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(w.String(), "event:table")
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, w.String(), "event:filters")
	assert.Contains(t, w.String(), "Rezaei")

	env.post("/logout", nil, cookie)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("event stream did not end after logout")
	}
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
}

func TestReadyReportsFailingDependency(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewMetricsHandler(nil, map[string]Pinger{"backend": failingPinger{}})
	r := gin.New()
	r.GET("/ready", h.Ready)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "degraded")
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return appErrors.ErrBackendUnavailable }
