package models

// Student mirrors the backend student resource. Field names follow the
// backend wire format, including its mixed casing.
type Student struct {
	STID       string `json:"STID"`
	FirstName  string `json:"student_fname"`
	LastName   string `json:"student_lname"`
	Father     string `json:"father"`
	IDSNumber  string `json:"ids_number"`
	IDSLetter  string `json:"ids_letter"`
	IDSCode    string `json:"ids_code"`
	BornCity   string `json:"BornCity"`
	Address    string `json:"Address"`
	PostalCode string `json:"PostalCode"`
	HPhone     string `json:"HPhone"`
	Department string `json:"Department"`
	Major      string `json:"Major"`
	Married    string `json:"Married"`
	NationalID string `json:"national_id"`
	BirthDate  string `json:"birth_date"`
}

// MaritalStatuses are the values the backend accepts for Married.
var MaritalStatuses = []string{"مجرد", "متاهل"}

// RecordID implements Record.
func (s Student) RecordID() string { return s.STID }

// Cells implements Record.
func (s Student) Cells() []string {
	return []string{s.STID, s.FirstName, s.LastName, s.Department, s.Major, s.NationalID}
}
