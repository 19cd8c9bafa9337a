package service

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/records-panel/internal/models"
	appErrors "github.com/noah-isme/records-panel/pkg/errors"
)

// EditState is the lifecycle of an edit dialog.
type EditState int

const (
	EditClosed EditState = iota
	EditLoading
	EditEditing
	EditSaving
)

func (s EditState) String() string {
	switch s {
	case EditLoading:
		return "loading"
	case EditEditing:
		return "editing"
	case EditSaving:
		return "saving"
	}
	return "closed"
}

// FormValues are submitted form fields keyed by field name.
type FormValues map[string]string

// Confirmer asks the user to confirm a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, message string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, message string) bool

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(ctx context.Context, message string) bool { return f(ctx, message) }

// AlwaysConfirm is used when confirmation already happened on the client.
var AlwaysConfirm Confirmer = ConfirmFunc(func(context.Context, string) bool { return true })

// Refresher re-renders the table with the current filters.
type Refresher interface {
	Refresh(ctx context.Context) models.TableView
}

// MutationRecorder is told about every successful mutation.
type MutationRecorder interface {
	Record(ctx context.Context, event models.MutationEvent)
}

type recordGateway interface {
	pageFetcher
	FetchRecord(ctx context.Context, entity models.Entity, id string, dest interface{}) error
	Create(ctx context.Context, entity models.Entity, payload, dest interface{}) error
	Update(ctx context.Context, entity models.Entity, id string, payload interface{}) error
	Delete(ctx context.Context, entity models.Entity, id string) error
}

// Values written for backend-required fields that the edit forms do not
// expose. They overwrite whatever the record held.
var (
	studentEditDefaults = models.Student{
		IDSNumber: "123456",
		IDSLetter: "الف",
		IDSCode:   "01",
		BornCity:  "تهران",
		HPhone:    "02112345678",
	}
	teacherEditDefaults = models.Teacher{
		Father:     "نام پیش‌فرض",
		IDSNumber:  "123456",
		IDSLetter:  "الف",
		IDSCode:    "01",
		BornCity:   "تهران",
		Address:    "آدرس پیش‌فرض",
		PostalCode: "1234567890",
		HPhone:     "02112345678",
		BirthDate:  "1370/01/01",
	}
)

// EditSessionParams groups EditSession dependencies.
type EditSessionParams struct {
	Entity              models.Entity
	Gateway             recordGateway
	Surface             Surface
	Refresher           Refresher
	Recorder            MutationRecorder
	TeacherOptionsLimit int
	SessionID           string
	Logger              *zap.Logger
}

// EditSession drives the edit/create dialog of one entity:
// Closed -> Loading -> Editing -> (Saving -> Closed) | Closed on cancel.
type EditSession struct {
	entity       models.Entity
	gateway      recordGateway
	surface      Surface
	refresher    Refresher
	recorder     MutationRecorder
	teacherLimit int
	sessionID    string
	logger       *zap.Logger

	mu       sync.Mutex
	taxonomy models.Taxonomy
	state    EditState
	mode     models.ModalMode
	recordID string
	form     models.ModalView
}

// NewEditSession constructs a closed session.
func NewEditSession(p EditSessionParams) *EditSession {
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	if p.TeacherOptionsLimit <= 0 {
		p.TeacherOptionsLimit = 100
	}
	return &EditSession{
		entity:       p.Entity,
		gateway:      p.Gateway,
		surface:      p.Surface,
		refresher:    p.Refresher,
		recorder:     p.Recorder,
		teacherLimit: p.TeacherOptionsLimit,
		sessionID:    p.SessionID,
		logger:       p.Logger.With(zap.String("entity", string(p.Entity))),
	}
}

// Entity returns the entity this session edits.
func (s *EditSession) Entity() models.Entity { return s.entity }

// SetTaxonomy installs the taxonomy used by department and major selects.
func (s *EditSession) SetTaxonomy(taxonomy models.Taxonomy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taxonomy = taxonomy
}

// State returns the current lifecycle state.
func (s *EditSession) State() EditState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Modal returns the dialog as currently rendered.
func (s *EditSession) Modal() models.ModalView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

// Open loads record id and opens the dialog. When the load fails exactly one
// error notification is raised and the dialog keeps what it showed before:
// closed, or the previously open record untouched.
func (s *EditSession) Open(ctx context.Context, id string) error {
	s.mu.Lock()
	if s.state == EditLoading || s.state == EditSaving {
		s.mu.Unlock()
		return appErrors.ErrInvalidState
	}
	prevState, prevMode, prevID, prevForm := s.state, s.mode, s.recordID, s.form
	s.state = EditLoading
	taxonomy := s.taxonomy
	s.mu.Unlock()

	form, err := s.loadForm(ctx, id, taxonomy)
	if err != nil {
		s.mu.Lock()
		if s.state == EditLoading {
			if prevState == EditEditing {
				s.state, s.mode, s.recordID, s.form = prevState, prevMode, prevID, prevForm
			} else {
				s.state = EditClosed
				s.form = models.ModalView{}
			}
		}
		s.mu.Unlock()
		notifyError(s.surface, "خطا در دریافت اطلاعات "+s.entity.Label()+": "+detail(err))
		return err
	}

	s.mu.Lock()
	if s.state != EditLoading {
		s.mu.Unlock()
		return appErrors.ErrInvalidState
	}
	s.state = EditEditing
	s.mode = models.ModalEdit
	s.recordID = id
	s.form = form
	s.surface.PublishModal(form)
	s.mu.Unlock()
	return nil
}

// OpenCreate opens an empty dialog for a new record.
func (s *EditSession) OpenCreate(ctx context.Context) error {
	s.mu.Lock()
	if s.state == EditLoading || s.state == EditSaving {
		s.mu.Unlock()
		return appErrors.ErrInvalidState
	}
	s.state = EditLoading
	taxonomy := s.taxonomy
	s.mu.Unlock()

	form := s.blankForm(ctx, taxonomy)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != EditLoading {
		return appErrors.ErrInvalidState
	}
	s.state = EditEditing
	s.mode = models.ModalCreate
	s.recordID = ""
	s.form = form
	s.surface.PublishModal(form)
	return nil
}

// ChangeDepartment reacts to the department select inside the dialog. The
// student major select and the course teacher select are repopulated for
// the new department; other edits in values are kept.
func (s *EditSession) ChangeDepartment(ctx context.Context, department string, values FormValues) error {
	s.mu.Lock()
	if s.state != EditEditing {
		s.mu.Unlock()
		return appErrors.ErrInvalidState
	}
	form := applyValues(s.form, values)
	setField(&form, departmentField(s.entity), department)
	taxonomy := s.taxonomy
	s.mu.Unlock()

	switch s.entity {
	case models.EntityStudents:
		majors := NewMajorSync(SyncEdit, taxonomy)
		majors.Sync(department, fieldValue(form, "Major"))
		setOptions(&form, "Major", majors.State().Options)
	case models.EntityCourses:
		setOptions(&form, "teacher_id", s.teacherOptions(ctx, department, fieldValue(form, "teacher_id")))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != EditEditing {
		return appErrors.ErrInvalidState
	}
	s.form = form
	s.surface.PublishModal(form)
	return nil
}

// Save submits the dialog. Success closes it, notifies and refreshes the
// table; failure keeps it open with the submitted values.
func (s *EditSession) Save(ctx context.Context, values FormValues) error {
	s.mu.Lock()
	if s.state != EditEditing {
		s.mu.Unlock()
		return appErrors.ErrInvalidState
	}
	s.state = EditSaving
	form := applyValues(s.form, values)
	s.form = form
	mode, id := s.mode, s.recordID
	s.mu.Unlock()

	label := s.entity.Label()
	payload, err := s.payload(form, mode, id)
	if err == nil {
		if mode == models.ModalCreate {
			id, err = s.create(ctx, payload)
		} else {
			err = s.gateway.Update(ctx, s.entity, id, payload)
		}
	}

	if err != nil {
		s.mu.Lock()
		s.state = EditEditing
		s.mu.Unlock()
		if mode == models.ModalCreate {
			notifyError(s.surface, "خطا در ثبت "+label+": "+detail(err))
		} else {
			notifyError(s.surface, "خطا در ذخیره تغییرات: "+detail(err))
		}
		return err
	}

	s.close()
	if mode == models.ModalCreate {
		notifySuccess(s.surface, label+" با موفقیت ثبت شد")
		s.record(ctx, models.AuditActionCreate, id, payload)
	} else {
		notifySuccess(s.surface, "تغییرات "+label+" با موفقیت ذخیره شد")
		s.record(ctx, models.AuditActionUpdate, id, payload)
	}
	s.refresher.Refresh(ctx)
	return nil
}

// Cancel discards the dialog without any backend call.
func (s *EditSession) Cancel() error {
	s.mu.Lock()
	if s.state != EditEditing {
		s.mu.Unlock()
		return appErrors.ErrInvalidState
	}
	s.mu.Unlock()
	s.close()
	return nil
}

// Delete removes record id after confirmation. It is independent of the
// dialog state. A declined confirmation does nothing.
func (s *EditSession) Delete(ctx context.Context, id string, confirmer Confirmer) error {
	label := s.entity.Label()
	if !confirmer.Confirm(ctx, DeleteConfirmation(s.entity)) {
		return nil
	}

	if err := s.gateway.Delete(ctx, s.entity, id); err != nil {
		notifyError(s.surface, "خطا در حذف "+label+": "+detail(err))
		return err
	}

	notifySuccess(s.surface, label+" با موفقیت حذف شد")
	s.record(ctx, models.AuditActionDelete, id, nil)
	s.refresher.Refresh(ctx)
	return nil
}

// DeleteConfirmation is the confirmation question for deleting an entity.
func DeleteConfirmation(entity models.Entity) string {
	return "آیا از حذف این " + entity.Label() + " مطمئن هستید؟"
}

func (s *EditSession) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = EditClosed
	s.recordID = ""
	s.form = models.ModalView{}
	s.surface.PublishModal(s.form)
}

func (s *EditSession) create(ctx context.Context, payload interface{}) (string, error) {
	switch p := payload.(type) {
	case models.Student:
		return p.STID, s.gateway.Create(ctx, s.entity, p, nil)
	case models.Teacher:
		var created models.Teacher
		err := s.gateway.Create(ctx, s.entity, p, &created)
		return created.TeacherID, err
	case models.Course:
		var created models.Course
		err := s.gateway.Create(ctx, s.entity, p, &created)
		return created.RecordID(), err
	}
	return "", appErrors.ErrUnsupportedEntity
}

func (s *EditSession) record(ctx context.Context, action, id string, payload interface{}) {
	if s.recorder == nil {
		return
	}
	var raw json.RawMessage
	if payload != nil {
		if b, err := json.Marshal(payload); err == nil {
			raw = b
		}
	}
	s.recorder.Record(ctx, models.MutationEvent{
		Action:    action,
		Entity:    s.entity,
		RecordID:  id,
		Payload:   raw,
		SessionID: s.sessionID,
	})
}

func (s *EditSession) loadForm(ctx context.Context, id string, taxonomy models.Taxonomy) (models.ModalView, error) {
	switch s.entity {
	case models.EntityStudents:
		var st models.Student
		if err := s.gateway.FetchRecord(ctx, s.entity, id, &st); err != nil {
			return models.ModalView{}, err
		}
		return studentForm(st, models.ModalEdit, taxonomy), nil
	case models.EntityTeachers:
		var t models.Teacher
		if err := s.gateway.FetchRecord(ctx, s.entity, id, &t); err != nil {
			return models.ModalView{}, err
		}
		return teacherForm(t, models.ModalEdit, taxonomy), nil
	case models.EntityCourses:
		var c models.Course
		if err := s.gateway.FetchRecord(ctx, s.entity, id, &c); err != nil {
			return models.ModalView{}, err
		}
		return courseForm(c, models.ModalEdit, taxonomy, s.teacherOptions(ctx, c.Department, c.TeacherID)), nil
	}
	return models.ModalView{}, appErrors.ErrUnsupportedEntity
}

func (s *EditSession) blankForm(ctx context.Context, taxonomy models.Taxonomy) models.ModalView {
	switch s.entity {
	case models.EntityStudents:
		return studentForm(models.Student{}, models.ModalCreate, taxonomy)
	case models.EntityTeachers:
		return teacherForm(models.Teacher{}, models.ModalCreate, taxonomy)
	default:
		return courseForm(models.Course{}, models.ModalCreate, taxonomy, s.teacherOptions(ctx, "", ""))
	}
}

// teacherOptions lists teachers of department for the course dialog. Listing
// failures are absorbed by the gateway and leave only the placeholder.
func (s *EditSession) teacherOptions(ctx context.Context, department, selected string) []models.SelectOption {
	page := s.gateway.FetchPage(ctx, models.EntityTeachers, models.ListQuery{Limit: s.teacherLimit, Offset: 0, Department: department})
	opts := []models.SelectOption{{Value: "", Label: EditPlaceholder}}
	found := selected == ""
	for _, item := range page.Items {
		t, ok := item.(models.Teacher)
		if !ok {
			continue
		}
		opts = append(opts, models.SelectOption{
			Value:    t.TeacherID,
			Label:    t.FullName() + " (" + t.TeacherID + ")",
			Selected: t.TeacherID == selected,
		})
		found = found || t.TeacherID == selected
	}
	if !found {
		opts = append(opts, models.SelectOption{Value: selected, Label: selected, Selected: true})
	}
	return opts
}

// payload builds the request body from the form. Input the backend would
// reject anyway (a non-numeric units value) fails here instead of being
// coerced.
func (s *EditSession) payload(form models.ModalView, mode models.ModalMode, id string) (interface{}, error) {
	v := func(name string) string { return strings.TrimSpace(fieldValue(form, name)) }

	switch s.entity {
	case models.EntityStudents:
		st := models.Student{
			STID:       v("STID"),
			FirstName:  v("student_fname"),
			LastName:   v("student_lname"),
			Father:     v("father"),
			NationalID: v("national_id"),
			Department: v("Department"),
			Major:      v("Major"),
			BirthDate:  v("birth_date"),
			Married:    v("Married"),
			Address:    v("Address"),
			PostalCode: v("PostalCode"),
			IDSNumber:  v("ids_number"),
			IDSLetter:  v("ids_letter"),
			IDSCode:    v("ids_code"),
			BornCity:   v("BornCity"),
			HPhone:     v("HPhone"),
		}
		if mode == models.ModalEdit {
			st.STID = id
			st.IDSNumber = studentEditDefaults.IDSNumber
			st.IDSLetter = studentEditDefaults.IDSLetter
			st.IDSCode = studentEditDefaults.IDSCode
			st.BornCity = studentEditDefaults.BornCity
			st.HPhone = studentEditDefaults.HPhone
		}
		return st, nil
	case models.EntityTeachers:
		t := models.Teacher{
			FirstName:  v("teacher_fname"),
			LastName:   v("teacher_lname"),
			NationalID: v("national_id"),
			Department: v("Department"),
			Father:     v("father"),
			IDSNumber:  v("ids_number"),
			IDSLetter:  v("ids_letter"),
			IDSCode:    v("ids_code"),
			BornCity:   v("BornCity"),
			Address:    v("Address"),
			PostalCode: v("PostalCode"),
			HPhone:     v("HPhone"),
			BirthDate:  v("birth_date"),
		}
		if mode == models.ModalEdit {
			d := teacherEditDefaults
			d.FirstName, d.LastName, d.NationalID, d.Department = t.FirstName, t.LastName, t.NationalID, t.Department
			t = d
		}
		return t, nil
	default:
		units, err := strconv.Atoi(v("units"))
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "units: value is not a valid integer")
		}
		return models.Course{
			CourseName: v("course_name"),
			Units:      units,
			Department: v("department"),
			TeacherID:  v("teacher_id"),
		}, nil
	}
}
