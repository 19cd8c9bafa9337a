package service

import (
	"strconv"

	"github.com/noah-isme/records-panel/internal/models"
)

func text(name, label, value string) models.FormField {
	return models.FormField{Name: name, Label: label, Kind: models.FieldText, Value: value}
}

func readOnly(name, label, value string) models.FormField {
	f := text(name, label, value)
	f.ReadOnly = true
	return f
}

func selectField(name, label, value string, opts []models.SelectOption) models.FormField {
	return models.FormField{Name: name, Label: label, Kind: models.FieldSelect, Value: value, Options: opts}
}

func modalTitle(entity models.Entity, mode models.ModalMode) string {
	if mode == models.ModalCreate {
		return "افزودن " + entity.Label()
	}
	return "ویرایش " + entity.Label()
}

func departmentSelect(name string, taxonomy models.Taxonomy, selected string, mode models.ModalMode) models.FormField {
	opts := DepartmentEditOptions(taxonomy, selected).Options
	if mode == models.ModalCreate || selected == "" {
		opts = append([]models.SelectOption{{Value: "", Label: EditPlaceholder, Selected: selected == ""}}, opts...)
	}
	return selectField(name, "دانشکده", selected, opts)
}

func maritalOptions(selected string) []models.SelectOption {
	opts := []models.SelectOption{{Value: "", Label: EditPlaceholder, Selected: selected == ""}}
	found := selected == ""
	for _, m := range models.MaritalStatuses {
		opts = append(opts, models.SelectOption{Value: m, Label: m, Selected: m == selected})
		found = found || m == selected
	}
	if !found {
		opts = append(opts, models.SelectOption{Value: selected, Label: selected, Selected: true})
	}
	return opts
}

// studentForm builds the student dialog. Edit mode exposes the fields the
// table shows plus the personal details; the identity document fields are
// only asked for on create.
func studentForm(st models.Student, mode models.ModalMode, taxonomy models.Taxonomy) models.ModalView {
	majors := NewMajorSync(SyncEdit, taxonomy)
	majors.Sync(st.Department, st.Major)

	id := text("STID", "شماره دانشجویی", st.STID)
	if mode == models.ModalEdit {
		id.ReadOnly = true
	}
	fields := []models.FormField{
		id,
		text("student_fname", "نام", st.FirstName),
		text("student_lname", "نام خانوادگی", st.LastName),
		text("father", "نام پدر", st.Father),
		text("national_id", "کد ملی", st.NationalID),
		departmentSelect("Department", taxonomy, st.Department, mode),
		selectField("Major", "رشته", st.Major, majors.State().Options),
		text("birth_date", "تاریخ تولد", st.BirthDate),
		selectField("Married", "وضعیت تأهل", st.Married, maritalOptions(st.Married)),
		text("Address", "آدرس", st.Address),
		text("PostalCode", "کد پستی", st.PostalCode),
	}
	if mode == models.ModalCreate {
		fields = append(fields,
			text("ids_number", "شماره شناسنامه", st.IDSNumber),
			text("ids_letter", "حرف سری شناسنامه", st.IDSLetter),
			text("ids_code", "کد سری شناسنامه", st.IDSCode),
			text("BornCity", "محل تولد", st.BornCity),
			text("HPhone", "تلفن ثابت", st.HPhone),
		)
	}
	return models.ModalView{
		Open:     true,
		Entity:   models.EntityStudents,
		Mode:     mode,
		Title:    modalTitle(models.EntityStudents, mode),
		RecordID: st.STID,
		Fields:   fields,
	}
}

// teacherForm builds the teacher dialog. The backend assigns teacher_id, so
// it is shown read-only on edit and absent on create.
func teacherForm(t models.Teacher, mode models.ModalMode, taxonomy models.Taxonomy) models.ModalView {
	var fields []models.FormField
	if mode == models.ModalEdit {
		fields = append(fields, readOnly("teacher_id", "کد استاد", t.TeacherID))
	}
	fields = append(fields,
		text("teacher_fname", "نام", t.FirstName),
		text("teacher_lname", "نام خانوادگی", t.LastName),
		text("national_id", "کد ملی", t.NationalID),
		departmentSelect("Department", taxonomy, t.Department, mode),
	)
	if mode == models.ModalCreate {
		fields = append(fields,
			text("father", "نام پدر", t.Father),
			text("birth_date", "تاریخ تولد", t.BirthDate),
			text("ids_number", "شماره شناسنامه", t.IDSNumber),
			text("ids_letter", "حرف سری شناسنامه", t.IDSLetter),
			text("ids_code", "کد سری شناسنامه", t.IDSCode),
			text("BornCity", "محل تولد", t.BornCity),
			text("Address", "آدرس", t.Address),
			text("PostalCode", "کد پستی", t.PostalCode),
			text("HPhone", "تلفن ثابت", t.HPhone),
		)
	}
	return models.ModalView{
		Open:     true,
		Entity:   models.EntityTeachers,
		Mode:     mode,
		Title:    modalTitle(models.EntityTeachers, mode),
		RecordID: t.TeacherID,
		Fields:   fields,
	}
}

func courseForm(c models.Course, mode models.ModalMode, taxonomy models.Taxonomy, teachers []models.SelectOption) models.ModalView {
	var fields []models.FormField
	recordID := ""
	if mode == models.ModalEdit {
		recordID = c.RecordID()
		fields = append(fields, readOnly("id", "کد درس", recordID))
	}
	units := ""
	if c.Units != 0 || mode == models.ModalEdit {
		units = strconv.Itoa(c.Units)
	}
	fields = append(fields,
		text("course_name", "نام درس", c.CourseName),
		models.FormField{Name: "units", Label: "تعداد واحد", Kind: models.FieldNumber, Value: units},
		departmentSelect("department", taxonomy, c.Department, mode),
		selectField("teacher_id", "استاد", c.TeacherID, teachers),
	)
	return models.ModalView{
		Open:     true,
		Entity:   models.EntityCourses,
		Mode:     mode,
		Title:    modalTitle(models.EntityCourses, mode),
		RecordID: recordID,
		Fields:   fields,
	}
}

func departmentField(entity models.Entity) string {
	if entity == models.EntityCourses {
		return "department"
	}
	return "Department"
}

// applyValues copies submitted values onto the editable fields of form.
// Read-only fields and names the form does not have are ignored.
func applyValues(form models.ModalView, values FormValues) models.ModalView {
	out := form
	out.Fields = make([]models.FormField, len(form.Fields))
	for i, f := range form.Fields {
		f.Options = append([]models.SelectOption(nil), f.Options...)
		if v, ok := values[f.Name]; ok && !f.ReadOnly {
			f.Value = v
			markSelected(&f)
		}
		out.Fields[i] = f
	}
	return out
}

func markSelected(f *models.FormField) {
	for i := range f.Options {
		f.Options[i].Selected = f.Options[i].Value == f.Value
	}
}

func fieldValue(form models.ModalView, name string) string {
	if f := form.Field(name); f != nil {
		return f.Value
	}
	return ""
}

func setField(form *models.ModalView, name, value string) {
	if f := form.Field(name); f != nil && !f.ReadOnly {
		f.Value = value
		markSelected(f)
	}
}

// setOptions replaces a select's options; its value becomes whichever option
// is selected, or "" when none is.
func setOptions(form *models.ModalView, name string, opts []models.SelectOption) {
	f := form.Field(name)
	if f == nil {
		return
	}
	f.Options = opts
	f.Value = models.SelectState{Options: opts}.Selected()
}
