package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/schedule"
)

const slotColumns = `id, institution_id, teacher_id, class_id, subject_id, day_of_week, start_time, end_time,
	academic_year_id, is_active, created_at, updated_at`

var slotOrderingFields = map[string]bool{"start_time": true, "end_time": true, "created_at": true}

type slotRepository struct {
	baseRepository
}

var _ schedule.Repository = (*slotRepository)(nil) // interface compliance check

func NewSlotRepository(exec core.DBExecutor) *slotRepository {
	return &slotRepository{baseRepository{exec: exec}}
}

func (repo slotRepository) CreateSlot(ctx context.Context, s schedule.Slot, exec ...core.DBExecutor) (schedule.Slot, error) {
	q := `INSERT INTO schedule_slot (` + slotColumns + `) VALUES (
		:id, :institution_id, :teacher_id, :class_id, :subject_id, :day_of_week, :start_time, :end_time,
		:academic_year_id, :is_active, :created_at, :updated_at)`
	if _, err := repo.getExec(exec).NamedExecContext(ctx, q, s); err != nil {
		return schedule.Slot{}, errors.Wrap(err, "inserting slot")
	}
	return s, nil
}

func (repo slotRepository) GetSlot(ctx context.Context, id string, exec ...core.DBExecutor) (schedule.Slot, error) {
	var s schedule.Slot
	q := `SELECT ` + slotColumns + ` FROM schedule_slot WHERE id = $1`
	if err := repo.getExec(exec).GetContext(ctx, &s, q, id); err != nil {
		return schedule.Slot{}, trapNoRowsErr(err, schedule.ErrNotFound, "selecting slot")
	}
	return s, nil
}

func (repo slotRepository) QuerySlots(ctx context.Context, filter schedule.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]schedule.Slot, error) {
	var w where
	if filter.InstitutionID != "" {
		w.add("institution_id = ?", filter.InstitutionID)
	}
	if filter.TeacherID != "" {
		w.add("teacher_id = ?", filter.TeacherID)
	}
	if filter.ClassID != "" {
		w.add("class_id = ?", filter.ClassID)
	}
	if filter.Day != "" {
		w.add("day_of_week = ?", filter.Day)
	}
	if filter.AcademicYearID != "" {
		w.add("academic_year_id = ?", filter.AcademicYearID)
	}
	if filter.IsActive != nil {
		w.add("is_active = ?", *filter.IsActive)
	}

	q := `SELECT ` + slotColumns + ` FROM schedule_slot` + w.String() +
		orderBy(ordering, slotOrderingFields,
			"array_position(ARRAY['MON','TUE','WED','THU','FRI','SAT','SUN']::varchar[], day_of_week), start_time, id")

	slots := make([]schedule.Slot, 0)
	if err := repo.getExec(exec).SelectContext(ctx, &slots, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting slots")
	}
	return slots, nil
}

func (repo slotRepository) UpdateSlot(ctx context.Context, s schedule.Slot, exec ...core.DBExecutor) (schedule.Slot, error) {
	q := `UPDATE schedule_slot SET
		class_id = :class_id, subject_id = :subject_id, day_of_week = :day_of_week,
		start_time = :start_time, end_time = :end_time, is_active = :is_active, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.getExec(exec).NamedExecContext(ctx, q, s)
	if err != nil {
		return schedule.Slot{}, errors.Wrap(err, "updating slot")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return schedule.Slot{}, schedule.ErrNotFound
	}
	return repo.GetSlot(ctx, s.ID, exec...)
}

type academicYearRepository struct {
	baseRepository
}

var _ schedule.AcademicYearRepository = (*academicYearRepository)(nil) // interface compliance check

func NewAcademicYearRepository(exec core.DBExecutor) *academicYearRepository {
	return &academicYearRepository{baseRepository{exec: exec}}
}

func (repo academicYearRepository) GetCurrentAcademicYear(ctx context.Context, institutionID string, exec ...core.DBExecutor) (schedule.AcademicYear, error) {
	var ay schedule.AcademicYear
	q := `SELECT id, institution_id, name, start_date, end_date, is_current FROM academic_year
		WHERE is_current AND ($1 = '' OR institution_id = $1) LIMIT 1`
	if err := repo.getExec(exec).GetContext(ctx, &ay, q, institutionID); err != nil {
		return schedule.AcademicYear{}, trapNoRowsErr(err, schedule.ErrMissingActiveAcademicYear, "selecting current academic year")
	}
	return ay, nil
}

// CreateAcademicYear stores `ay`; a current year demotes the institution's previous current year.
// It runs in its own transaction unless `exec` is one already.
func (repo academicYearRepository) CreateAcademicYear(ctx context.Context, ay schedule.AcademicYear, exec ...core.DBExecutor) (schedule.AcademicYear, error) {
	err := inTx(ctx, repo.getExec(exec), func(tx core.DBExecutor) error {
		if ay.IsCurrent {
			q := `UPDATE academic_year SET is_current = FALSE WHERE is_current AND institution_id = $1`
			if _, err := tx.ExecContext(ctx, q, ay.InstitutionID); err != nil {
				return errors.Wrap(err, "demoting current academic year")
			}
		}
		q := `INSERT INTO academic_year (id, institution_id, name, start_date, end_date, is_current)
			VALUES (:id, :institution_id, :name, :start_date, :end_date, :is_current)`
		if _, err := tx.NamedExecContext(ctx, q, ay); err != nil {
			return errors.Wrap(err, "inserting academic year")
		}
		return nil
	})
	if err != nil {
		return schedule.AcademicYear{}, err
	}
	return ay, nil
}
