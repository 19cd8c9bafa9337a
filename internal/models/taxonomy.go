package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Taxonomy maps departments to their majors. Iteration order is the order
// the backend sent the keys in, which a Go map would lose.
type Taxonomy struct {
	departments []string
	majors      map[string][]string
}

// TaxonomyEntry is one department with its ordered majors.
type TaxonomyEntry struct {
	Department string
	Majors     []string
}

// NewTaxonomy builds a Taxonomy from ordered entries. Later duplicates of a
// department replace its majors but keep its first position.
func NewTaxonomy(entries ...TaxonomyEntry) Taxonomy {
	t := Taxonomy{majors: make(map[string][]string, len(entries))}
	for _, e := range entries {
		t.add(e.Department, e.Majors)
	}
	return t
}

func (t *Taxonomy) add(dept string, majors []string) {
	if t.majors == nil {
		t.majors = make(map[string][]string)
	}
	if _, ok := t.majors[dept]; !ok {
		t.departments = append(t.departments, dept)
	}
	t.majors[dept] = append([]string(nil), majors...)
}

// Departments returns the department names in stored order.
func (t Taxonomy) Departments() []string {
	return append([]string(nil), t.departments...)
}

// Majors returns the majors of dept in stored order, or nil when unknown.
func (t Taxonomy) Majors(dept string) []string {
	m, ok := t.majors[dept]
	if !ok {
		return nil
	}
	return append([]string(nil), m...)
}

// Has reports whether dept is a known department. The empty string never is.
func (t Taxonomy) Has(dept string) bool {
	if dept == "" {
		return false
	}
	_, ok := t.majors[dept]
	return ok
}

// Len is the number of departments.
func (t Taxonomy) Len() int {
	return len(t.departments)
}

// Entries returns the taxonomy as ordered entries.
func (t Taxonomy) Entries() []TaxonomyEntry {
	out := make([]TaxonomyEntry, 0, len(t.departments))
	for _, d := range t.departments {
		out = append(out, TaxonomyEntry{Department: d, Majors: t.Majors(d)})
	}
	return out
}

// UnmarshalJSON decodes a JSON object of department -> [majors] keeping key order.
func (t *Taxonomy) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("taxonomy: expected object, got %v", tok)
	}

	out := Taxonomy{majors: make(map[string][]string)}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("taxonomy: expected string key, got %v", keyTok)
		}
		var majors []string
		if err := dec.Decode(&majors); err != nil {
			return fmt.Errorf("taxonomy: majors of %q: %w", key, err)
		}
		out.add(key, majors)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*t = out
	return nil
}

// MarshalJSON encodes the taxonomy as an object with keys in stored order.
func (t Taxonomy) MarshalJSON() ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.WriteByte('{')
	for i, dept := range t.departments {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(dept)
		if err != nil {
			return nil, err
		}
		majors := t.majors[dept]
		if majors == nil {
			majors = []string{}
		}
		val, err := json.Marshal(majors)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
