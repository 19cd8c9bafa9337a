package models

import "strconv"

// Course mirrors the backend course resource. ID is an integer assigned by
// the backend.
type Course struct {
	ID         int    `json:"id,omitempty"`
	CourseName string `json:"course_name"`
	Units      int    `json:"units"`
	Department string `json:"department"`
	TeacherID  string `json:"teacher_id"`
}

// RecordID implements Record.
func (c Course) RecordID() string { return strconv.Itoa(c.ID) }

// Cells implements Record.
func (c Course) Cells() []string {
	return []string{strconv.Itoa(c.ID), c.CourseName, strconv.Itoa(c.Units), c.Department, c.TeacherID}
}
