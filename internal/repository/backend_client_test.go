package repository

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/records-panel/internal/models"
	"github.com/noah-isme/records-panel/pkg/config"
	appErrors "github.com/noah-isme/records-panel/pkg/errors"
	"github.com/noah-isme/records-panel/pkg/middleware/requestid"
)

type observation struct {
	resource, operation, outcome string
}

type recordingObserver struct {
	mu    sync.Mutex
	calls []observation
}

func (o *recordingObserver) ObserveBackendCall(resource, operation, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, observation{resource, operation, outcome})
}

func newTestClient(t *testing.T, h http.HandlerFunc) (*BackendClient, *recordingObserver) {
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	obs := &recordingObserver{}
	return NewBackendClient(config.BackendConfig{BaseURL: srv.URL + "/", Timeout: time.Second}, obs, nil), obs
}

func TestBackendClientListStudents(t *testing.T) {
	client, obs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/students", r.URL.Path)
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Equal(t, "فنی مهندسی", r.URL.Query().Get("department"))
		assert.Equal(t, "req-1", r.Header.Get(requestid.HeaderKey))
		_, _ = io.WriteString(w, `{"items":[{"STID":"40111415001","student_fname":"علی","student_lname":"رضایی","Department":"فنی مهندسی","Major":"مهندسی برق","national_id":"0012345678"}],"total":1}`)
	})

	ctx := requestid.WithValue(context.Background(), "req-1")
	page, err := client.List(ctx, models.EntityStudents, models.FilterState{Entity: models.EntityStudents, Department: "فنی مهندسی"}.Query())
	require.NoError(t, err)

	require.Len(t, page.Items, 1)
	assert.Equal(t, 1, page.Total)
	student, ok := page.Items[0].(models.Student)
	require.True(t, ok)
	assert.Equal(t, "علی", student.FirstName)
	assert.Equal(t, []observation{{"students", "list", OutcomeOK}}, obs.calls)
}

func TestBackendClientListNullItems(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"items":null,"total":0}`)
	})

	page, err := client.List(context.Background(), models.EntityCourses, models.ListQuery{Limit: 10})
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
}

func TestBackendClientDepartmentsKeepsOrder(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/departments", r.URL.Path)
		_, _ = io.WriteString(w, `{"اقتصاد":["حسابداری"],"فنی مهندسی":["مهندسی برق","مهندسی عمران"]}`)
	})

	tax, err := client.Departments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"اقتصاد", "فنی مهندسی"}, tax.Departments())
	assert.Equal(t, []string{"مهندسی برق", "مهندسی عمران"}, tax.Majors("فنی مهندسی"))
}

func TestBackendClientStringDetail(t *testing.T) {
	client, obs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"detail":"استاد یافت نشد"}`)
	})

	var teacher models.Teacher
	err := client.Get(context.Background(), models.EntityTeachers, "T1", &teacher)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrBackend))
	assert.Equal(t, "استاد یافت نشد", appErrors.Detail(err, "خطای ناشناخته"))
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
	assert.Equal(t, []observation{{"teachers", "get", OutcomeError}}, obs.calls)
}

func TestBackendClientValidationDetailList(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"detail":[{"loc":["body","PostalCode"],"msg":"کد پستی باید یک عدد ۱۰ رقمی باشد"},{"loc":["body","HPhone"],"msg":"شماره تلفن نامعتبر"}]}`)
	})

	err := client.Update(context.Background(), models.EntityStudents, "1", models.Student{STID: "1"})
	require.Error(t, err)
	assert.Equal(t, "کد پستی باید یک عدد ۱۰ رقمی باشد; شماره تلفن نامعتبر", appErrors.Detail(err, ""))
}

func TestBackendClientErrorWithoutDetail(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `Internal Server Error`)
	})

	err := client.Delete(context.Background(), models.EntityCourses, "3")
	require.Error(t, err)
	assert.Equal(t, "خطای ناشناخته", appErrors.Detail(err, "خطای ناشناخته"))
	assert.Equal(t, http.StatusBadGateway, appErrors.FromError(err).Status)
}

func TestBackendClientTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()
	obs := &recordingObserver{}
	client := NewBackendClient(config.BackendConfig{BaseURL: srv.URL, Timeout: time.Second}, obs, nil)

	_, err := client.List(context.Background(), models.EntityTeachers, models.ListQuery{Limit: 10})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrBackendUnavailable))
	assert.Equal(t, "fallback", appErrors.Detail(err, "fallback"))
	assert.Equal(t, OutcomeUnavailable, obs.calls[0].outcome)
}

func TestBackendClientCreateAndUpdatePayloads(t *testing.T) {
	var got []map[string]interface{}
	var methods []string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		got = append(got, body)
		methods = append(methods, r.Method+" "+r.URL.Path)
		_, _ = io.WriteString(w, `{"id":7,"course_name":"پایگاه داده","units":3,"department":"فنی مهندسی","teacher_id":"T1"}`)
	})

	var created models.Course
	require.NoError(t, client.Create(context.Background(), models.EntityCourses, models.Course{CourseName: "پایگاه داده", Units: 3, Department: "فنی مهندسی", TeacherID: "T1"}, &created))
	assert.Equal(t, 7, created.ID)
	require.NoError(t, client.Update(context.Background(), models.EntityCourses, "7", models.Course{CourseName: "x", Units: 2}))

	assert.Equal(t, []string{"POST /courses", "PUT /courses/7"}, methods)
	_, hasID := got[0]["id"]
	assert.False(t, hasID)
	assert.Equal(t, float64(3), got[0]["units"])
}

func TestParseDetail(t *testing.T) {
	assert.Equal(t, "", parseDetail([]byte(`not json`)))
	assert.Equal(t, "", parseDetail([]byte(`{"detail":null}`)))
	assert.Equal(t, "", parseDetail([]byte(`{"message":"x"}`)))
	assert.Equal(t, "a", parseDetail([]byte(`{"detail":"a"}`)))
	assert.Equal(t, "a; b", parseDetail([]byte(`{"detail":[{"msg":"a"},{"msg":""},{"msg":"b"}]}`)))
}
