package calendar

import (
	"sort"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/schedule"
)

// WeekdayDates returns every date of the month falling on `wd`:
// the first such date, then every 7 days while still in the month.
func WeekdayDates(year int, month time.Month, wd time.Weekday) []time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(wd) - int(first.Weekday()) + 7) % 7

	dates := make([]time.Time, 0, 5)
	for d := first.AddDate(0, 0, offset); d.Month() == month; d = d.AddDate(0, 0, 7) {
		dates = append(dates, d)
	}
	return dates
}

// Projection is the calendar of a Window: date marks plus what is needed to build any day's agenda.
type Projection struct {
	Window Window
	Marks  MarkIndex
	slots  []schedule.Slot
	items  []Item
}

// Project expands the active weekly slots over the window's months and merges the one-off items.
// One-off items are marked on their own date, even outside the window.
func Project(slots []schedule.Slot, items []Item, w Window) *Projection {
	p := &Projection{
		Window: w,
		Marks:  make(MarkIndex),
		slots:  make([]schedule.Slot, 0, len(slots)),
		items:  make([]Item, 0, len(items)),
	}

	weekdays := make(map[time.Weekday]bool, 7)
	for _, s := range slots {
		if !s.IsActive || !s.Day.Valid() {
			continue
		}
		p.slots = append(p.slots, s)
		weekdays[s.Day.Weekday()] = true
	}
	for _, month := range w.Months() {
		for wd := range weekdays {
			for _, d := range WeekdayDates(month.Year(), month.Month(), wd) {
				p.Marks.mark(d, TagClass)
			}
		}
	}

	for _, it := range items {
		if !it.Kind.Valid() {
			continue
		}
		it.Date = core.DateOnly(it.Date)
		p.items = append(p.items, it)
		p.Marks.mark(it.Date, it.Kind)
	}
	return p
}

// AgendaFor lists the slots whose weekday matches `date` and the one-off items dated on it,
// ordered by time of day. All-day items sort as AllDay; ties keep slots before tests before events.
func (p *Projection) AgendaFor(date time.Time) []AgendaItem {
	date = core.DateOnly(date)
	agenda := make([]AgendaItem, 0)

	for i := range p.slots {
		s := p.slots[i]
		if s.Day.Weekday() != date.Weekday() {
			continue
		}
		agenda = append(agenda, AgendaItem{Type: TagClass, Time: s.StartTime, Slot: &s})
	}
	for i := range p.items {
		it := p.items[i]
		if !it.Date.Equal(date) {
			continue
		}
		agenda = append(agenda, AgendaItem{Type: it.Kind, Time: it.sortTime(), Item: &it})
	}

	sort.SliceStable(agenda, func(i, j int) bool {
		if agenda[i].Time != agenda[j].Time {
			return agenda[i].Time < agenda[j].Time
		}
		return tagRanks[agenda[i].Type] < tagRanks[agenda[j].Type]
	})
	return agenda
}
