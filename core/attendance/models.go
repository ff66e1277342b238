package attendance

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

type Session struct {
	ID            string    `json:"id" db:"id"`
	InstitutionID string    `json:"institution_id" db:"institution_id"`
	ClassID       string    `json:"class_id" db:"class_id"`
	SubjectID     string    `json:"subject_id" db:"subject_id"`
	TeacherID     string    `json:"teacher_id" db:"teacher_id"`
	Date          time.Time `json:"date" db:"date"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"` // UTC
}

type Record struct {
	ID        string    `json:"id" db:"id"`
	SessionID string    `json:"session_id" db:"session_id"`
	StudentID string    `json:"student_id" db:"student_id"`
	Present   bool      `json:"present" db:"present"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// NewSession contains information needed to take the attendance of a class.
// Students of the roster missing from Present are recorded absent.
type NewSession struct {
	InstitutionID string          `json:"institution_id"`
	ClassID       string          `json:"class_id" validate:"required"`
	SubjectID     string          `json:"subject_id" validate:"required"`
	TeacherID     string          `json:"teacher_id" validate:"required"`
	Date          string          `json:"date" validate:"required,datetime=2006-01-02"`
	Present       map[string]bool `json:"present"`
}

func (ns *NewSession) Validate(validate *validator.Validate) error {
	ns.InstitutionID = core.CleanString(ns.InstitutionID)
	ns.ClassID = core.CleanString(ns.ClassID)
	ns.SubjectID = core.CleanString(ns.SubjectID)
	ns.TeacherID = core.CleanString(ns.TeacherID)
	ns.Date = core.CleanString(ns.Date)
	return validate.Struct(ns)
}

// ParsedDate returns the session date; call it after Validate.
func (ns NewSession) ParsedDate() time.Time {
	d, _ := time.Parse("2006-01-02", ns.Date)
	return d
}
