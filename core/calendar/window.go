package calendar

import (
	"time"

	"github.com/pkg/errors"
)

// Window is the 3-month sliding view centred on Month: the previous, current and next months.
type Window struct {
	Year  int
	Month time.Month
}

func WindowAt(t time.Time) Window {
	return Window{Year: t.Year(), Month: t.Month()}
}

// ParseWindow parses a "2006-01" month.
func ParseWindow(month string) (Window, error) {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return Window{}, errors.Wrap(err, "parsing month")
	}
	return WindowAt(t), nil
}

func (w Window) first() time.Time {
	return time.Date(w.Year, w.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Months returns the first day of each month of the window, in order.
func (w Window) Months() []time.Time {
	cur := w.first()
	return []time.Time{cur.AddDate(0, -1, 0), cur, cur.AddDate(0, 1, 0)}
}

// Start is the first day of the previous month.
func (w Window) Start() time.Time {
	return w.first().AddDate(0, -1, 0)
}

// End is the first day after the window (exclusive).
func (w Window) End() time.Time {
	return w.first().AddDate(0, 2, 0)
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start()) && t.Before(w.End())
}

func (w Window) Next() Window {
	return WindowAt(w.first().AddDate(0, 1, 0))
}

func (w Window) Prev() Window {
	return WindowAt(w.first().AddDate(0, -1, 0))
}

func (w Window) String() string {
	return w.first().Format("2006-01")
}
