package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func slot(id, teacher string, day Day, start, end string) Slot {
	return Slot{
		ID:             id,
		TeacherID:      teacher,
		Day:            day,
		StartTime:      start,
		EndTime:        end,
		AcademicYearID: "ay",
		IsActive:       true,
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name           string
		s1, e1, s2, e2 string
		want           bool
	}{
		{name: "partial overlap", s1: "09:00", e1: "10:00", s2: "09:30", e2: "10:30", want: true},
		{name: "touching after", s1: "09:00", e1: "10:00", s2: "10:00", e2: "11:00", want: false},
		{name: "touching before", s1: "10:00", e1: "11:00", s2: "09:00", e2: "10:00", want: false},
		{name: "contained", s1: "08:00", e1: "12:00", s2: "09:00", e2: "10:00", want: true},
		{name: "identical", s1: "09:00", e1: "10:00", s2: "09:00", e2: "10:00", want: true},
		{name: "disjoint", s1: "07:00", e1: "08:00", s2: "13:00", e2: "14:00", want: false},
		{name: "late evening", s1: "21:30", e1: "23:59", s2: "22:00", e2: "23:00", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.s1, tt.e1, tt.s2, tt.e2))
			// symmetric
			assert.Equal(t, tt.want, Overlaps(tt.s2, tt.e2, tt.s1, tt.e1))
		})
	}
}

func TestHasConflict(t *testing.T) {
	a := slot("a", "t1", Monday, "09:00", "10:00")
	existing := []Slot{a}

	inactive := slot("x", "t1", Monday, "09:00", "10:00")
	inactive.IsActive = false
	otherYear := slot("y", "t1", Monday, "09:00", "10:00")
	otherYear.AcademicYearID = "ay-next"

	tests := []struct {
		name      string
		candidate Slot
		existing  []Slot
		excludeID string
		want      bool
	}{
		{name: "B overlaps A", candidate: slot("", "t1", Monday, "09:30", "10:30"), existing: existing, want: true},
		{name: "C touches A", candidate: slot("", "t1", Monday, "10:00", "11:00"), existing: existing, want: false},
		{name: "other day", candidate: slot("", "t1", Tuesday, "09:30", "10:30"), existing: existing, want: false},
		{name: "other teacher", candidate: slot("", "t2", Monday, "09:30", "10:30"), existing: existing, want: false},
		{name: "editing A itself", candidate: slot("a", "t1", Monday, "09:30", "10:30"), existing: existing, excludeID: "a", want: false},
		{name: "inactive slots are ignored", candidate: slot("", "t1", Monday, "09:00", "10:00"), existing: []Slot{inactive}, want: false},
		{name: "other academic year", candidate: slot("", "t1", Monday, "09:00", "10:00"), existing: []Slot{otherYear}, want: false},
		{name: "no slots", candidate: slot("", "t1", Monday, "09:00", "10:00"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasConflict(tt.candidate, tt.existing, tt.excludeID))
		})
	}
}

func TestFindConflict_minGap(t *testing.T) {
	existing := []Slot{slot("a", "t1", Monday, "09:00", "10:00")}

	got, found := FindConflict(slot("", "t1", Monday, "10:00", "11:00"), existing, "", 10*time.Minute)
	assert.True(t, found)
	assert.Equal(t, "a", got.ID)

	_, found = FindConflict(slot("", "t1", Monday, "10:10", "11:00"), existing, "", 10*time.Minute)
	assert.False(t, found)

	_, found = FindConflict(slot("", "t1", Monday, "07:30", "08:55"), existing, "", 10*time.Minute)
	assert.True(t, found)
}

func TestAudit(t *testing.T) {
	inactive := slot("d", "t1", Monday, "09:00", "12:00")
	inactive.IsActive = false

	violations := Audit([]Slot{
		slot("c", "t1", Monday, "10:00", "11:00"),
		slot("b", "t1", Monday, "09:30", "10:30"),
		slot("a", "t1", Monday, "09:00", "10:00"),
		slot("e", "t2", Monday, "09:00", "10:00"),
		slot("f", "t1", Tuesday, "09:00", "10:00"),
		inactive,
	})

	pairs := make([][2]string, 0, len(violations))
	for _, v := range violations {
		pairs = append(pairs, [2]string{v.First.ID, v.Second.ID})
	}
	assert.Equal(t, [][2]string{{"a", "b"}, {"b", "c"}}, pairs)
	assert.Empty(t, Audit([]Slot{slot("a", "t1", Monday, "09:00", "10:00"), slot("c", "t1", Monday, "10:00", "11:00")}))
}

func TestParseDay(t *testing.T) {
	tests := []struct {
		in     string
		want   Day
		wantOk bool
	}{
		{in: "MON", want: Monday, wantOk: true},
		{in: "sun", want: Sunday, wantOk: true},
		{in: " Wednesday ", want: Wednesday, wantOk: true},
		{in: "funday"},
		{in: ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDay(tt.in)
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, Friday, DayOf(time.Date(2026, time.October, 23, 15, 0, 0, 0, time.UTC)))
}
