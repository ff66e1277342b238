package schedule

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

// Day is a day-of-week token.
type Day string

const (
	Monday    Day = "MON"
	Tuesday   Day = "TUE"
	Wednesday Day = "WED"
	Thursday  Day = "THU"
	Friday    Day = "FRI"
	Saturday  Day = "SAT"
	Sunday    Day = "SUN"
)

var (
	Days = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

	weekdays = map[Day]time.Weekday{
		Monday:    time.Monday,
		Tuesday:   time.Tuesday,
		Wednesday: time.Wednesday,
		Thursday:  time.Thursday,
		Friday:    time.Friday,
		Saturday:  time.Saturday,
		Sunday:    time.Sunday,
	}
)

// ParseDay accepts a token ("MON") or a full english day name ("monday"), case-insensitive.
func ParseDay(s string) (Day, bool) {
	s = core.CleanString(s, true /* lower */)
	for _, d := range Days {
		if s == strings.ToLower(string(d)) || s == strings.ToLower(weekdays[d].String()) {
			return d, true
		}
	}
	return "", false
}

// DayOf returns the Day token of `t`'s weekday.
func DayOf(t time.Time) Day {
	for d, wd := range weekdays {
		if wd == t.Weekday() {
			return d
		}
	}
	return ""
}

func (d Day) Valid() bool {
	_, ok := weekdays[d]
	return ok
}

func (d Day) Weekday() time.Weekday {
	return weekdays[d]
}

// Slot is one weekly recurring teaching slot.
// StartTime and EndTime are zero-padded 24h "HH:MM" strings; the slot covers [StartTime, EndTime).
type Slot struct {
	ID             string    `json:"id" db:"id"`
	InstitutionID  string    `json:"institution_id" db:"institution_id"`
	TeacherID      string    `json:"teacher_id" db:"teacher_id"`
	ClassID        string    `json:"class_id" db:"class_id"`
	SubjectID      string    `json:"subject_id" db:"subject_id"`
	Day            Day       `json:"day_of_week" db:"day_of_week"`
	StartTime      string    `json:"start_time" db:"start_time"`
	EndTime        string    `json:"end_time" db:"end_time"`
	AcademicYearID string    `json:"academic_year_id" db:"academic_year_id"`
	IsActive       bool      `json:"is_active" db:"is_active"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// sameWeekCell reports whether both slots compete for the same teacher on the same day of the same academic year.
func (s Slot) sameWeekCell(o Slot) bool {
	return s.TeacherID == o.TeacherID && s.Day == o.Day && s.AcademicYearID == o.AcademicYearID
}

type AcademicYear struct {
	ID            string    `json:"id" db:"id"`
	InstitutionID string    `json:"institution_id" db:"institution_id"`
	Name          string    `json:"name" db:"name"`
	StartDate     time.Time `json:"start_date" db:"start_date"`
	EndDate       time.Time `json:"end_date" db:"end_date"`
	IsCurrent     bool      `json:"is_current" db:"is_current"`
}

// Contains reports whether the calendar date of `t` falls within the academic year (both ends included).
func (ay AcademicYear) Contains(t time.Time) bool {
	d := core.DateOnly(t)
	return !d.Before(core.DateOnly(ay.StartDate)) && !d.After(core.DateOnly(ay.EndDate))
}

// NewSlot contains information needed to create a new Slot.
type NewSlot struct {
	InstitutionID string `json:"institution_id"`
	TeacherID     string `json:"teacher_id" validate:"required"`
	ClassID       string `json:"class_id" validate:"required"`
	SubjectID     string `json:"subject_id" validate:"required"`
	Day           Day    `json:"day_of_week" validate:"required,weekday"`
	StartTime     string `json:"start_time" validate:"required,hhmm"`
	EndTime       string `json:"end_time" validate:"required,hhmm"`
}

func (ns *NewSlot) Clean() {
	ns.InstitutionID = core.CleanString(ns.InstitutionID)
	ns.TeacherID = core.CleanString(ns.TeacherID)
	ns.ClassID = core.CleanString(ns.ClassID)
	ns.SubjectID = core.CleanString(ns.SubjectID)
	if d, ok := ParseDay(string(ns.Day)); ok {
		ns.Day = d
	}
	ns.StartTime = core.CleanString(ns.StartTime)
	ns.EndTime = core.CleanString(ns.EndTime)
}

func (ns *NewSlot) Validate(validate *validator.Validate) error {
	ns.Clean()
	return validate.Struct(ns)
}

// UpdateSlot defines what information may be provided to modify an existing Slot.
// Empty fields keep their current value.
type UpdateSlot struct {
	ClassID   string `json:"class_id"`
	SubjectID string `json:"subject_id"`
	Day       Day    `json:"day_of_week" validate:"omitempty,weekday"`
	StartTime string `json:"start_time" validate:"omitempty,hhmm"`
	EndTime   string `json:"end_time" validate:"omitempty,hhmm"`
	IsActive  *bool  `json:"is_active"`
}

// Validate fills the blanks from `orig` and validates the resulting slot.
func (us *UpdateSlot) Validate(orig Slot, validate *validator.Validate) error {
	us.ClassID = core.CleanString(us.ClassID)
	if us.ClassID == "" {
		us.ClassID = orig.ClassID
	}
	us.SubjectID = core.CleanString(us.SubjectID)
	if us.SubjectID == "" {
		us.SubjectID = orig.SubjectID
	}
	if us.Day == "" {
		us.Day = orig.Day
	} else if d, ok := ParseDay(string(us.Day)); ok {
		us.Day = d
	}
	us.StartTime = core.CleanString(us.StartTime)
	if us.StartTime == "" {
		us.StartTime = orig.StartTime
	}
	us.EndTime = core.CleanString(us.EndTime)
	if us.EndTime == "" {
		us.EndTime = orig.EndTime
	}
	return validate.Struct(us)
}

// apply returns a copy of `s` with the update applied.
func (us UpdateSlot) apply(s Slot) Slot {
	if us.ClassID != "" {
		s.ClassID = us.ClassID
	}
	if us.SubjectID != "" {
		s.SubjectID = us.SubjectID
	}
	if us.Day != "" {
		s.Day = us.Day
	}
	if us.StartTime != "" {
		s.StartTime = us.StartTime
	}
	if us.EndTime != "" {
		s.EndTime = us.EndTime
	}
	if us.IsActive != nil {
		s.IsActive = *us.IsActive
	}
	return s
}

type QueryFilter struct {
	InstitutionID  string `query:"institution"`
	TeacherID      string `query:"teacher"`
	ClassID        string `query:"class"`
	Day            Day    `query:"day"`
	AcademicYearID string `query:"academic_year"`
	IsActive       *bool  `query:"active"`
}

func (qf *QueryFilter) Clean() {
	qf.InstitutionID = core.CleanString(qf.InstitutionID)
	qf.TeacherID = core.CleanString(qf.TeacherID)
	qf.ClassID = core.CleanString(qf.ClassID)
	qf.AcademicYearID = core.CleanString(qf.AcademicYearID)
	if d, ok := ParseDay(string(qf.Day)); ok {
		qf.Day = d
	} else {
		qf.Day = ""
	}
}

// Match reports whether `s` satisfies every set field of the filter.
func (qf QueryFilter) Match(s Slot) bool {
	return (qf.InstitutionID == "" || s.InstitutionID == qf.InstitutionID) &&
		(qf.TeacherID == "" || s.TeacherID == qf.TeacherID) &&
		(qf.ClassID == "" || s.ClassID == qf.ClassID) &&
		(qf.Day == "" || s.Day == qf.Day) &&
		(qf.AcademicYearID == "" || s.AcademicYearID == qf.AcademicYearID) &&
		(qf.IsActive == nil || s.IsActive == *qf.IsActive)
}
