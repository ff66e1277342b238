package inmemdb

import (
	"sync"

	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/calendar"
	"github.com/trezcool/darasa/core/roster"
	"github.com/trezcool/darasa/core/schedule"
)

// DB is an in-memory stand-in for the postgres database, used by tests and local demos.
type (
	DB struct {
		slot     *slotTable
		year     *yearTable
		item     *itemTable
		session  *sessionTable
		record   *recordTable
		students *studentTable
	}

	slotTable struct {
		sync.RWMutex
		table map[string]*schedule.Slot
	}

	yearTable struct {
		sync.RWMutex
		table map[string]*schedule.AcademicYear
	}

	itemTable struct {
		sync.RWMutex
		table map[string]*calendar.Item
	}

	sessionTable struct {
		sync.RWMutex
		table map[string]*attendance.Session
	}

	recordTable struct {
		sync.RWMutex
		table map[string]*attendance.Record
	}

	studentTable struct {
		sync.RWMutex
		table map[string][]roster.Student // {classID: roster}
	}
)

func Open() *DB {
	return &DB{
		slot:     &slotTable{table: make(map[string]*schedule.Slot)},
		year:     &yearTable{table: make(map[string]*schedule.AcademicYear)},
		item:     &itemTable{table: make(map[string]*calendar.Item)},
		session:  &sessionTable{table: make(map[string]*attendance.Session)},
		record:   &recordTable{table: make(map[string]*attendance.Record)},
		students: &studentTable{table: make(map[string][]roster.Student)},
	}
}
