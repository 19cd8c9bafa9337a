package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/records-panel/internal/models"
)

func TestMajorSyncFilterKnownDepartment(t *testing.T) {
	s := NewMajorSync(SyncFilter, testTaxonomy())

	changed := s.Sync("فنی مهندسی", "برق")

	assert.True(t, changed)
	st := s.State()
	assert.False(t, st.Disabled)
	assert.Equal(t, []string{"", "کامپیوتر", "برق"}, st.Values())
	assert.Equal(t, MajorFilterSentinel, st.Options[0].Label)
	assert.Equal(t, "برق", st.Selected())
}

func TestMajorSyncFilterUnknownDepartmentDisables(t *testing.T) {
	s := NewMajorSync(SyncFilter, testTaxonomy())

	s.Sync("پزشکی", "")

	st := s.State()
	assert.True(t, st.Disabled)
	assert.Equal(t, []string{""}, st.Values())
}

func TestMajorSyncFilterGuardSkipsSameDepartment(t *testing.T) {
	s := NewMajorSync(SyncFilter, testTaxonomy())
	require.True(t, s.Sync("علوم پایه", ""))
	before := s.State()

	assert.False(t, s.Sync("علوم پایه", "فیزیک"))
	assert.Equal(t, before, s.State())
	assert.Equal(t, "علوم پایه", s.LastDepartment())
}

func TestMajorSyncFilterInitialEmptyDepartmentIsNoop(t *testing.T) {
	s := NewMajorSync(SyncFilter, testTaxonomy())

	assert.False(t, s.Sync("", ""))
	assert.True(t, s.State().Disabled)
}

func TestMajorSyncPrepopulateIgnoresGuard(t *testing.T) {
	s := NewMajorSync(SyncFilter, testTaxonomy())
	s.Sync("فنی مهندسی", "")

	s.Prepopulate("فنی مهندسی", "کامپیوتر")

	st := s.State()
	assert.Equal(t, "کامپیوتر", st.Selected())
	assert.False(t, st.Disabled)
	assert.Equal(t, "فنی مهندسی", s.LastDepartment())
}

func TestMajorSyncEditContextAlwaysRepopulates(t *testing.T) {
	s := NewMajorSync(SyncEdit, testTaxonomy())

	assert.True(t, s.Sync("فنی مهندسی", "کامپیوتر"))
	assert.True(t, s.Sync("فنی مهندسی", "برق"))

	st := s.State()
	assert.False(t, st.Disabled)
	assert.Equal(t, EditPlaceholder, st.Options[0].Label)
	assert.Equal(t, "برق", st.Selected())

	s.Sync("پزشکی", "")
	st = s.State()
	assert.False(t, st.Disabled)
	assert.Equal(t, []string{""}, st.Values())
}

func TestMajorSyncUnknownSelectedMajorIsNotMarked(t *testing.T) {
	s := NewMajorSync(SyncEdit, testTaxonomy())
	s.Sync("علوم پایه", "کامپیوتر")
	assert.Equal(t, "", s.State().Selected())
}

func TestDepartmentEditOptionsKeepsUnknownValue(t *testing.T) {
	st := DepartmentEditOptions(testTaxonomy(), "پزشکی")
	assert.Equal(t, []string{"فنی مهندسی", "علوم پایه", "پزشکی"}, st.Values())
	assert.Equal(t, "پزشکی", st.Selected())
}

func TestEntityOptions(t *testing.T) {
	st := EntityOptions(models.EntityCourses)
	assert.Equal(t, []string{"students", "teachers", "courses"}, st.Values())
	assert.Equal(t, "courses", st.Selected())
}
