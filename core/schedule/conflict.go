package schedule

import (
	"fmt"
	"sort"
	"strconv"
	"time"
)

// Overlaps reports whether the half-open intervals [s1, e1) and [s2, e2) intersect.
// Times are zero-padded "HH:MM" strings and compare lexicographically, so touching intervals do not overlap.
func Overlaps(s1, e1, s2, e2 string) bool {
	return s1 < e2 && s2 < e1
}

// HasConflict reports whether `candidate` overlaps any active slot of `existing` held by the same teacher,
// on the same day, in the same academic year. The slot with id `excludeID` (the one being edited) is ignored.
func HasConflict(candidate Slot, existing []Slot, excludeID string) bool {
	_, found := FindConflict(candidate, existing, excludeID, 0)
	return found
}

// FindConflict returns the first slot of `existing` conflicting with `candidate`.
// A positive `minGap` additionally requires that much break between two slots.
func FindConflict(candidate Slot, existing []Slot, excludeID string, minGap time.Duration) (Slot, bool) {
	for _, s := range existing {
		if excludeID != "" && s.ID == excludeID {
			continue
		}
		if !s.IsActive || !candidate.sameWeekCell(s) {
			continue
		}
		if conflicts(candidate, s, minGap) {
			return s, true
		}
	}
	return Slot{}, false
}

func conflicts(a, b Slot, minGap time.Duration) bool {
	if minGap <= 0 {
		return Overlaps(a.StartTime, a.EndTime, b.StartTime, b.EndTime)
	}
	gap := int(minGap / time.Minute)
	as, ae := minutes(a.StartTime), minutes(a.EndTime)
	bs, be := minutes(b.StartTime), minutes(b.EndTime)
	return as < be+gap && bs < ae+gap
}

// minutes converts a "HH:MM" time to minutes since midnight.
func minutes(hhmm string) int {
	if len(hhmm) != 5 {
		return 0
	}
	h, _ := strconv.Atoi(hhmm[:2])
	m, _ := strconv.Atoi(hhmm[3:])
	return h*60 + m
}

// Violation is a pair of active slots breaking the no-overlap rule.
type Violation struct {
	First  Slot `json:"first"`
	Second Slot `json:"second"`
}

func (v Violation) String() string {
	return fmt.Sprintf(
		"teacher %s on %s: %s [%s-%s) overlaps %s [%s-%s)",
		v.First.TeacherID, v.First.Day,
		v.First.ID, v.First.StartTime, v.First.EndTime,
		v.Second.ID, v.Second.StartTime, v.Second.EndTime,
	)
}

// Audit lists every pair of overlapping active slots.
// The conflict gate is check-then-write without locking, so concurrent writers may still slip overlaps in.
func Audit(slots []Slot) []Violation {
	active := make([]Slot, 0, len(slots))
	for _, s := range slots {
		if s.IsActive {
			active = append(active, s)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		a, b := active[i], active[j]
		if a.TeacherID != b.TeacherID {
			return a.TeacherID < b.TeacherID
		}
		if a.AcademicYearID != b.AcademicYearID {
			return a.AcademicYearID < b.AcademicYearID
		}
		if a.Day != b.Day {
			return a.Day.Weekday() < b.Day.Weekday()
		}
		return a.StartTime < b.StartTime
	})

	var violations []Violation
	for i := range active {
		for j := i + 1; j < len(active) && active[i].sameWeekCell(active[j]); j++ {
			// sorted by start time: no later slot of the cell can overlap active[i] either
			if active[j].StartTime >= active[i].EndTime {
				break
			}
			violations = append(violations, Violation{First: active[i], Second: active[j]})
		}
	}
	return violations
}
