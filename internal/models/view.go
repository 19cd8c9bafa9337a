package models

// NotificationLevel is the toast style.
type NotificationLevel string

const (
	NotificationSuccess NotificationLevel = "success"
	NotificationError   NotificationLevel = "error"
	NotificationWarning NotificationLevel = "warning"
)

// DefaultNotificationDuration is how long a toast stays up, in milliseconds.
const DefaultNotificationDuration = 5000

// Notification is a non-blocking user-facing message.
type Notification struct {
	Level    NotificationLevel `json:"level"`
	Message  string            `json:"message"`
	Duration int               `json:"duration"`
}

// SelectOption is one <option>.
type SelectOption struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected,omitempty"`
}

// SelectState is the full content of a select control.
type SelectState struct {
	Options  []SelectOption `json:"options"`
	Disabled bool           `json:"disabled,omitempty"`
}

// Selected returns the value of the selected option, or "".
func (s SelectState) Selected() string {
	for _, o := range s.Options {
		if o.Selected {
			return o.Value
		}
	}
	return ""
}

// Values lists option values in order.
func (s SelectState) Values() []string {
	out := make([]string, 0, len(s.Options))
	for _, o := range s.Options {
		out = append(out, o.Value)
	}
	return out
}

// Select marks the option with value v selected, if present.
func (s SelectState) Select(v string) SelectState {
	opts := make([]SelectOption, len(s.Options))
	for i, o := range s.Options {
		o.Selected = o.Value == v
		opts[i] = o
	}
	s.Options = opts
	return s
}

// FilterBarView is the rendered state of the filter controls.
type FilterBarView struct {
	Entities     SelectState `json:"entities"`
	Departments  SelectState `json:"departments"`
	Majors       SelectState `json:"majors"`
	MajorVisible bool        `json:"majorVisible"`
	Search       string      `json:"search"`
}

// TableRow is one rendered record with its action target id.
type TableRow struct {
	ID    string   `json:"id"`
	Cells []string `json:"cells"`
}

// TableView is a fully rebuilt table body. When Placeholder is set Rows is
// empty and the placeholder spans ColSpan columns.
type TableView struct {
	Entity        Entity     `json:"entity"`
	Columns       []string   `json:"columns"`
	Rows          []TableRow `json:"rows"`
	Placeholder   string     `json:"placeholder,omitempty"`
	ColSpan       int        `json:"colspan"`
	Total         int        `json:"total"`
	ConfirmDelete string     `json:"confirmDelete"`
}

// Empty reports whether the view shows the no-results row.
func (t TableView) Empty() bool {
	return t.Placeholder != ""
}

// ModalMode distinguishes editing an existing record from creating one.
type ModalMode string

const (
	ModalEdit   ModalMode = "edit"
	ModalCreate ModalMode = "create"
)

// FieldKind selects the form control.
type FieldKind string

const (
	FieldText   FieldKind = "text"
	FieldNumber FieldKind = "number"
	FieldSelect FieldKind = "select"
)

// FormField is one control in a modal form.
type FormField struct {
	Name     string         `json:"name"`
	Label    string         `json:"label"`
	Kind     FieldKind      `json:"kind"`
	Value    string         `json:"value"`
	Options  []SelectOption `json:"options,omitempty"`
	ReadOnly bool           `json:"readonly,omitempty"`
}

// ModalView is the open edit/create dialog, or a closed one.
type ModalView struct {
	Open     bool        `json:"open"`
	Entity   Entity      `json:"entity,omitempty"`
	Mode     ModalMode   `json:"mode,omitempty"`
	Title    string      `json:"title,omitempty"`
	RecordID string      `json:"recordId,omitempty"`
	Fields   []FormField `json:"fields,omitempty"`
}

// Field returns the named field, or nil.
func (m *ModalView) Field(name string) *FormField {
	for i := range m.Fields {
		if m.Fields[i].Name == name {
			return &m.Fields[i]
		}
	}
	return nil
}

// ChartType identifies one of the summary charts.
type ChartType string

const (
	ChartNone                 ChartType = ""
	ChartStudentsByDepartment ChartType = "studentsByDepartment"
	ChartCoursesByTeacher     ChartType = "coursesByTeacher"
)

// ParseChartType validates a raw chart type; "" is valid and means none.
func ParseChartType(raw string) (ChartType, bool) {
	switch t := ChartType(raw); t {
	case ChartNone, ChartStudentsByDepartment, ChartCoursesByTeacher:
		return t, true
	}
	return ChartNone, false
}

// Title is the option label of the chart type.
func (t ChartType) Title() string {
	switch t {
	case ChartStudentsByDepartment:
		return "تعداد دانشجویان بر اساس دانشکده"
	case ChartCoursesByTeacher:
		return "تعداد دروس بر اساس استاد"
	}
	return "انتخاب نمودار"
}

// ChartData is a single-dataset chart as handed to the drawing sink.
type ChartData struct {
	Type         ChartType `json:"type"`
	Kind         string    `json:"kind"`
	Labels       []string  `json:"labels"`
	DatasetLabel string    `json:"datasetLabel"`
	Values       []float64 `json:"values"`
	Colors       []string  `json:"colors"`
	BorderColor  string    `json:"borderColor,omitempty"`
}

// Visible reports whether a chart is selected.
func (c ChartData) Visible() bool {
	return c.Type != ChartNone
}
