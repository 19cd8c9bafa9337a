package models

// Entity names one of the record collections exposed by the backend.
type Entity string

const (
	EntityStudents Entity = "students"
	EntityTeachers Entity = "teachers"
	EntityCourses  Entity = "courses"
)

// Entities lists collections in the order the entity selector shows them.
func Entities() []Entity {
	return []Entity{EntityStudents, EntityTeachers, EntityCourses}
}

// ParseEntity validates a raw entity name.
func ParseEntity(raw string) (Entity, bool) {
	e := Entity(raw)
	return e, e.Valid()
}

// Valid reports whether e is a known collection.
func (e Entity) Valid() bool {
	switch e {
	case EntityStudents, EntityTeachers, EntityCourses:
		return true
	}
	return false
}

// Label is the singular noun used in user-facing messages.
func (e Entity) Label() string {
	switch e {
	case EntityStudents:
		return "دانشجو"
	case EntityTeachers:
		return "استاد"
	case EntityCourses:
		return "درس"
	}
	return string(e)
}

// Title is the plural heading used by the entity selector.
func (e Entity) Title() string {
	switch e {
	case EntityStudents:
		return "دانشجویان"
	case EntityTeachers:
		return "اساتید"
	case EntityCourses:
		return "دروس"
	}
	return string(e)
}

// Columns returns the table headers including the trailing actions column.
func (e Entity) Columns() []string {
	switch e {
	case EntityStudents:
		return []string{"شماره دانشجویی", "نام", "نام خانوادگی", "دانشکده", "رشته", "کد ملی", "عملیات"}
	case EntityTeachers:
		return []string{"کد استاد", "نام", "نام خانوادگی", "دانشکده", "کد ملی", "عملیات"}
	case EntityCourses:
		return []string{"کد درس", "نام درس", "تعداد واحد", "دانشکده", "کد استاد", "عملیات"}
	}
	return nil
}

// ColumnCount is the colspan of the empty-result placeholder row.
func (e Entity) ColumnCount() int {
	return len(e.Columns())
}

// SupportsMajor reports whether listings of e accept the Major filter.
func (e Entity) SupportsMajor() bool {
	return e == EntityStudents
}
