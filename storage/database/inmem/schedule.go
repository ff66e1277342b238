package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/schedule"
)

type slotRepository struct {
	db *slotTable
}

var _ schedule.Repository = (*slotRepository)(nil) // interface compliance check

func NewSlotRepository(db *DB) *slotRepository {
	return &slotRepository{db: db.slot}
}

func (repo *slotRepository) CreateSlot(_ context.Context, s schedule.Slot, _ ...core.DBExecutor) (schedule.Slot, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	repo.db.table[s.ID] = &s
	return s, nil
}

func (repo *slotRepository) GetSlot(_ context.Context, id string, _ ...core.DBExecutor) (schedule.Slot, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.table[id]; ok {
		return *s, nil
	}
	return schedule.Slot{}, schedule.ErrNotFound
}

func (repo *slotRepository) QuerySlots(_ context.Context, filter schedule.QueryFilter, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]schedule.Slot, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	slots := make([]schedule.Slot, 0)
	for _, s := range repo.db.table {
		if filter.Match(*s) {
			slots = append(slots, *s)
		}
	}
	sort.Slice(slots, func(i, j int) bool { return lessSlot(slots[i], slots[j], ordering) })
	return slots, nil
}

// lessSlot orders by `ordering`, then by day and start time like the sql repository.
func lessSlot(a, b schedule.Slot, ordering []core.DBOrdering) bool {
	for _, ord := range ordering {
		var av, bv string
		switch ord.Field {
		case "start_time":
			av, bv = a.StartTime, b.StartTime
		case "end_time":
			av, bv = a.EndTime, b.EndTime
		case "created_at":
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt) == ord.Ascending
			}
			continue
		default:
			continue
		}
		if av != bv {
			return (av < bv) == ord.Ascending
		}
	}
	if a.Day != b.Day {
		return a.Day.Weekday() < b.Day.Weekday()
	}
	if a.StartTime != b.StartTime {
		return a.StartTime < b.StartTime
	}
	return a.ID < b.ID
}

func (repo *slotRepository) UpdateSlot(_ context.Context, s schedule.Slot, _ ...core.DBExecutor) (schedule.Slot, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[s.ID]; !ok {
		return schedule.Slot{}, schedule.ErrNotFound
	}
	repo.db.table[s.ID] = &s
	return s, nil
}

type academicYearRepository struct {
	db *yearTable
}

var _ schedule.AcademicYearRepository = (*academicYearRepository)(nil) // interface compliance check

func NewAcademicYearRepository(db *DB) *academicYearRepository {
	return &academicYearRepository{db: db.year}
}

// CreateAcademicYear stores `ay`; a current year demotes the institution's previous current year.
func (repo *academicYearRepository) CreateAcademicYear(_ context.Context, ay schedule.AcademicYear, _ ...core.DBExecutor) (schedule.AcademicYear, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if ay.ID == "" {
		ay.ID = uuid.New().String()
	}
	if ay.IsCurrent {
		for _, other := range repo.db.table {
			if other.InstitutionID == ay.InstitutionID {
				other.IsCurrent = false
			}
		}
	}
	repo.db.table[ay.ID] = &ay
	return ay, nil
}

func (repo *academicYearRepository) GetCurrentAcademicYear(_ context.Context, institutionID string, _ ...core.DBExecutor) (schedule.AcademicYear, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, ay := range repo.db.table {
		if ay.IsCurrent && (institutionID == "" || ay.InstitutionID == institutionID) {
			return *ay, nil
		}
	}
	return schedule.AcademicYear{}, schedule.ErrMissingActiveAcademicYear
}
