package calendar

import (
	"time"

	"github.com/bytedance/sonic"

	"github.com/trezcool/darasa/core/schedule"
)

// DateLayout is the layout of MarkIndex keys.
const DateLayout = "2006-01-02"

// AllDay is the sort surrogate of items without a time of day.
const AllDay = "00:00"

// Tag categorises what happens on a date.
type Tag string

const (
	TagClass Tag = "class"
	TagTest  Tag = "test"
	TagEvent Tag = "event"
)

var tagRanks = map[Tag]int{TagClass: 0, TagTest: 1, TagEvent: 2}

func (t Tag) Valid() bool {
	_, ok := tagRanks[t]
	return ok
}

// Tags is a set of tags, kept in class, test, event order.
type Tags []Tag

func (ts Tags) Has(tag Tag) bool {
	for _, t := range ts {
		if t == tag {
			return true
		}
	}
	return false
}

func (ts Tags) add(tag Tag) Tags {
	if ts.Has(tag) {
		return ts
	}
	i := len(ts)
	for i > 0 && tagRanks[ts[i-1]] > tagRanks[tag] {
		i--
	}
	ts = append(ts, "")
	copy(ts[i+1:], ts[i:])
	ts[i] = tag
	return ts
}

// MarkIndex maps a date key ("2006-01-02") to the tags of that date.
type MarkIndex map[string]Tags

func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

func (mi MarkIndex) mark(date time.Time, tag Tag) {
	key := DateKey(date)
	mi[key] = mi[key].add(tag)
}

// On returns the tags of `date`.
func (mi MarkIndex) On(date time.Time) Tags {
	return mi[DateKey(date)]
}

// Item is a one-off dated entry: an assessment (TagTest) or an event/reminder (TagEvent).
type Item struct {
	ID            string    `json:"id" db:"id"`
	InstitutionID string    `json:"institution_id" db:"institution_id"`
	Kind          Tag       `json:"kind" db:"kind"`
	Title         string    `json:"title" db:"title"`
	Date          time.Time `json:"date" db:"date"`
	// Time is an optional "HH:MM"; empty for all-day items.
	Time      string `json:"time,omitempty" db:"time"`
	ClassID   string `json:"class_id,omitempty" db:"class_id"`
	SubjectID string `json:"subject_id,omitempty" db:"subject_id"`
	TeacherID string `json:"teacher_id,omitempty" db:"teacher_id"`
}

func (it Item) sortTime() string {
	if it.Time == "" {
		return AllDay
	}
	return it.Time
}

// AgendaItem is one line of a day's agenda. Exactly one of Slot and Item is set.
type AgendaItem struct {
	Type Tag
	Time string
	Slot *schedule.Slot
	Item *Item
}

func (ai AgendaItem) MarshalJSON() ([]byte, error) {
	var payload interface{} = ai.Item
	if ai.Slot != nil {
		payload = ai.Slot
	}
	return sonic.ConfigStd.Marshal(struct {
		Type    Tag         `json:"type"`
		Time    string      `json:"time"`
		Payload interface{} `json:"payload"`
	}{ai.Type, ai.Time, payload})
}

// Filter selects whose calendar gets projected. Empty fields match everything.
type Filter struct {
	InstitutionID string `query:"institution"`
	TeacherID     string `query:"teacher"`
	ClassID       string `query:"class"`
}

// ItemFilter selects one-off items dated within [From, To); a zero bound is open.
type ItemFilter struct {
	Filter
	From time.Time
	To   time.Time
}

func (f ItemFilter) Match(it Item) bool {
	return (f.InstitutionID == "" || it.InstitutionID == f.InstitutionID) &&
		(f.TeacherID == "" || it.TeacherID == "" || it.TeacherID == f.TeacherID) &&
		(f.ClassID == "" || it.ClassID == "" || it.ClassID == f.ClassID) &&
		(f.From.IsZero() || !it.Date.Before(f.From)) &&
		(f.To.IsZero() || it.Date.Before(f.To))
}
