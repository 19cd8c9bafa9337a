package models

// Teacher mirrors the backend teacher resource. TeacherID is assigned by the
// backend and omitted from write payloads.
type Teacher struct {
	TeacherID  string `json:"teacher_id,omitempty"`
	FirstName  string `json:"teacher_fname"`
	LastName   string `json:"teacher_lname"`
	Father     string `json:"father"`
	IDSNumber  string `json:"ids_number"`
	IDSLetter  string `json:"ids_letter"`
	IDSCode    string `json:"ids_code"`
	BornCity   string `json:"BornCity"`
	Address    string `json:"Address"`
	PostalCode string `json:"PostalCode"`
	HPhone     string `json:"HPhone"`
	Department string `json:"Department"`
	NationalID string `json:"national_id"`
	BirthDate  string `json:"birth_date"`
}

// RecordID implements Record.
func (t Teacher) RecordID() string { return t.TeacherID }

// Cells implements Record.
func (t Teacher) Cells() []string {
	return []string{t.TeacherID, t.FirstName, t.LastName, t.Department, t.NationalID}
}

// FullName is "<fname> <lname>".
func (t Teacher) FullName() string {
	return t.FirstName + " " + t.LastName
}
