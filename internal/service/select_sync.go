package service

import (
	"github.com/noah-isme/records-panel/internal/models"
)

// Fixed option labels.
const (
	DepartmentFilterSentinel = "همه دانشکده‌ها"
	MajorFilterSentinel      = "همه رشته‌ها"
	EditPlaceholder          = "انتخاب کنید"
)

// SyncContext selects the select-population policy.
type SyncContext int

const (
	// SyncFilter: sentinel option, disabled when the department is unknown,
	// guarded against re-rendering for the same department.
	SyncFilter SyncContext = iota
	// SyncEdit: placeholder option, never disabled, always re-rendered.
	SyncEdit
)

// MajorSync keeps a major select consistent with a chosen department.
type MajorSync struct {
	mode     SyncContext
	taxonomy models.Taxonomy
	lastDept string
	state    models.SelectState
}

// NewMajorSync returns a synchronizer in its initial, empty state.
func NewMajorSync(mode SyncContext, taxonomy models.Taxonomy) *MajorSync {
	s := &MajorSync{mode: mode, taxonomy: taxonomy}
	s.state = models.SelectState{Options: []models.SelectOption{s.lead()}, Disabled: mode == SyncFilter}
	return s
}

func (s *MajorSync) lead() models.SelectOption {
	if s.mode == SyncFilter {
		return models.SelectOption{Value: "", Label: MajorFilterSentinel}
	}
	return models.SelectOption{Value: "", Label: EditPlaceholder}
}

// Sync repopulates the select for department, marking selectedMajor when it
// is one of the department's majors. It reports whether the select changed;
// in filter context a repeated department is a no-op.
func (s *MajorSync) Sync(department, selectedMajor string) bool {
	if s.mode == SyncFilter && department == s.lastDept {
		return false
	}

	known := s.taxonomy.Has(department)
	s.state = models.SelectState{Options: s.options(department, selectedMajor)}
	if s.mode == SyncFilter {
		s.state.Disabled = !known
		s.lastDept = department
	}
	return true
}

// Prepopulate rewrites the options for department without consulting or
// updating the guard and without touching the disabled flag. The table
// refresh runs it before Sync.
func (s *MajorSync) Prepopulate(department, selectedMajor string) {
	s.state.Options = s.options(department, selectedMajor)
}

func (s *MajorSync) options(department, selectedMajor string) []models.SelectOption {
	majors := s.taxonomy.Majors(department)
	opts := make([]models.SelectOption, 0, len(majors)+1)
	opts = append(opts, s.lead())
	if department == "" {
		return opts
	}
	for _, m := range majors {
		opts = append(opts, models.SelectOption{Value: m, Label: m, Selected: m == selectedMajor})
	}
	return opts
}

// State returns the current select content.
func (s *MajorSync) State() models.SelectState {
	out := s.state
	out.Options = append([]models.SelectOption(nil), s.state.Options...)
	return out
}

// LastDepartment is the department the guard last rendered for.
func (s *MajorSync) LastDepartment() string {
	return s.lastDept
}

// SetTaxonomy swaps the taxonomy and resets the guard.
func (s *MajorSync) SetTaxonomy(taxonomy models.Taxonomy) {
	*s = *NewMajorSync(s.mode, taxonomy)
}

// DepartmentFilterOptions lists departments for the filter bar behind the
// "all departments" sentinel.
func DepartmentFilterOptions(taxonomy models.Taxonomy, selected string) models.SelectState {
	opts := []models.SelectOption{{Value: "", Label: DepartmentFilterSentinel, Selected: selected == ""}}
	for _, d := range taxonomy.Departments() {
		opts = append(opts, models.SelectOption{Value: d, Label: d, Selected: d == selected})
	}
	return models.SelectState{Options: opts}
}

// DepartmentEditOptions lists departments for a required form field. A
// current value unknown to the taxonomy is kept as an extra option so saving
// does not silently change it.
func DepartmentEditOptions(taxonomy models.Taxonomy, selected string) models.SelectState {
	opts := make([]models.SelectOption, 0, taxonomy.Len()+1)
	found := false
	for _, d := range taxonomy.Departments() {
		opts = append(opts, models.SelectOption{Value: d, Label: d, Selected: d == selected})
		found = found || d == selected
	}
	if !found && selected != "" {
		opts = append(opts, models.SelectOption{Value: selected, Label: selected, Selected: true})
	}
	return models.SelectState{Options: opts}
}

// EntityOptions lists the entity selector.
func EntityOptions(selected models.Entity) models.SelectState {
	opts := make([]models.SelectOption, 0, 3)
	for _, e := range models.Entities() {
		opts = append(opts, models.SelectOption{Value: string(e), Label: e.Title(), Selected: e == selected})
	}
	return models.SelectState{Options: opts}
}
