package models

import (
	"encoding/json"
	"fmt"
)

// Record is a single listed row of any entity.
type Record interface {
	RecordID() string
	// Cells are the data columns in table order, without the actions column.
	Cells() []string
}

// Page is one listing response. It is replaced wholesale on every fetch.
type Page struct {
	Items []Record
	Total int
}

// EmptyPage is the degraded listing result.
func EmptyPage() *Page {
	return &Page{Items: []Record{}, Total: 0}
}

// DecodeRecord decodes one backend item of the given entity.
func DecodeRecord(entity Entity, raw json.RawMessage) (Record, error) {
	switch entity {
	case EntityStudents:
		var s Student
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return s, nil
	case EntityTeachers:
		var t Teacher
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		return t, nil
	case EntityCourses:
		var c Course
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, fmt.Errorf("decode record: unknown entity %q", entity)
}
