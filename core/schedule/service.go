package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

var (
	// errors
	ErrNotFound                  = errors.New("slot not found")
	ErrMissingActiveAcademicYear = errors.New("no active academic year")
)

// ConflictError is returned when a slot would overlap another active slot of the same teacher.
type ConflictError struct {
	Candidate Slot
	Existing  Slot
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf(
		"schedule conflict: teacher already has a class on %s from %s to %s",
		e.Existing.Day, e.Existing.StartTime, e.Existing.EndTime,
	)
}

func IsConflict(err error) bool {
	_, ok := errors.Cause(err).(*ConflictError)
	return ok
}

type (
	Repository interface {
		CreateSlot(ctx context.Context, slot Slot, exec ...core.DBExecutor) (Slot, error)
		GetSlot(ctx context.Context, id string, exec ...core.DBExecutor) (Slot, error)
		// QuerySlots applies AND operation on available QueryFilter fields.
		QuerySlots(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Slot, error)
		UpdateSlot(ctx context.Context, slot Slot, exec ...core.DBExecutor) (Slot, error)
	}

	AcademicYearRepository interface {
		// GetCurrentAcademicYear returns ErrMissingActiveAcademicYear if the institution has none.
		GetCurrentAcademicYear(ctx context.Context, institutionID string, exec ...core.DBExecutor) (AcademicYear, error)
	}

	ServiceInterface interface {
		CurrentAcademicYear(ctx context.Context, institutionID string) (AcademicYear, error)
		CheckConflict(ctx context.Context, ns NewSlot, excludeID string) (*Slot, error)
		Create(ctx context.Context, ns NewSlot) (Slot, error)
		GetByID(ctx context.Context, id string) (Slot, error)
		Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Slot, error)
		Update(ctx context.Context, id string, us UpdateSlot) (Slot, error)
		Deactivate(ctx context.Context, id string) (Slot, error)
		Audit(ctx context.Context, filter QueryFilter) ([]Violation, error)
	}

	service struct {
		repo     Repository
		yearRepo AcademicYearRepository
		minGap   time.Duration
	}
)

var _ ServiceInterface = (*service)(nil) // interface compliance check

func NewService(repo Repository, yearRepo AcademicYearRepository, conf *core.Config) *service {
	return &service{
		repo:     repo,
		yearRepo: yearRepo,
		minGap:   conf.Schedule.MinGap,
	}
}

func (svc *service) CurrentAcademicYear(ctx context.Context, institutionID string) (AcademicYear, error) {
	ay, err := svc.yearRepo.GetCurrentAcademicYear(ctx, institutionID)
	if err != nil {
		if errors.Cause(err) == ErrMissingActiveAcademicYear {
			return AcademicYear{}, ErrMissingActiveAcademicYear
		}
		return AcademicYear{}, errors.Wrap(err, "getting current academic year")
	}
	return ay, nil
}

// checkTimes guards the service against slots that skipped NewSlot.Validate.
func checkTimes(s Slot) error {
	switch {
	case !s.Day.Valid():
		return core.NewFieldValidationError("day_of_week", "day_of_week must be one of MON, TUE, WED, THU, FRI, SAT, SUN")
	case !core.IsTimeOfDay(s.StartTime):
		return core.NewFieldValidationError("start_time", "start_time must be a 24h time formatted as HH:MM")
	case !core.IsTimeOfDay(s.EndTime):
		return core.NewFieldValidationError("end_time", "end_time must be a 24h time formatted as HH:MM")
	case s.EndTime <= s.StartTime:
		return core.NewFieldValidationError("end_time", endAfterStartText)
	}
	return nil
}

// findConflict loads the teacher's active slots for the candidate's day and academic year and checks them.
func (svc *service) findConflict(ctx context.Context, candidate Slot, excludeID string) (*Slot, error) {
	active := true
	existing, err := svc.repo.QuerySlots(ctx, QueryFilter{
		TeacherID:      candidate.TeacherID,
		Day:            candidate.Day,
		AcademicYearID: candidate.AcademicYearID,
		IsActive:       &active,
	}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying teacher slots")
	}
	if s, found := FindConflict(candidate, existing, excludeID, svc.minGap); found {
		return &s, nil
	}
	return nil, nil
}

func (svc *service) newSlot(ctx context.Context, ns NewSlot) (Slot, error) {
	ay, err := svc.CurrentAcademicYear(ctx, ns.InstitutionID)
	if err != nil {
		return Slot{}, err
	}
	s := Slot{
		InstitutionID:  ns.InstitutionID,
		TeacherID:      ns.TeacherID,
		ClassID:        ns.ClassID,
		SubjectID:      ns.SubjectID,
		Day:            ns.Day,
		StartTime:      ns.StartTime,
		EndTime:        ns.EndTime,
		AcademicYearID: ay.ID,
		IsActive:       true,
	}
	return s, checkTimes(s)
}

// CheckConflict runs the conflict gate without writing anything.
// It returns the conflicting slot, or nil if `ns` fits in the teacher's week.
func (svc *service) CheckConflict(ctx context.Context, ns NewSlot, excludeID string) (*Slot, error) {
	candidate, err := svc.newSlot(ctx, ns)
	if err != nil {
		return nil, err
	}
	return svc.findConflict(ctx, candidate, excludeID)
}

func (svc *service) Create(ctx context.Context, ns NewSlot) (Slot, error) {
	s, err := svc.newSlot(ctx, ns)
	if err != nil {
		return Slot{}, err
	}

	conflict, err := svc.findConflict(ctx, s, "")
	if err != nil {
		return Slot{}, err
	}
	if conflict != nil {
		return Slot{}, &ConflictError{Candidate: s, Existing: *conflict}
	}

	now := core.NowFunc().UTC()
	s.ID = uuid.New().String()
	s.CreatedAt = now
	s.UpdatedAt = now
	return svc.repo.CreateSlot(ctx, s)
}

func (svc *service) GetByID(ctx context.Context, id string) (Slot, error) {
	return svc.repo.GetSlot(ctx, id)
}

func (svc *service) Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Slot, error) {
	return svc.repo.QuerySlots(ctx, filter, ordering)
}

func (svc *service) Update(ctx context.Context, id string, us UpdateSlot) (Slot, error) {
	orig, err := svc.repo.GetSlot(ctx, id)
	if err != nil {
		return Slot{}, err
	}

	s := us.apply(orig)
	if err = checkTimes(s); err != nil {
		return Slot{}, err
	}

	// deactivation never conflicts
	if s.IsActive {
		conflict, err := svc.findConflict(ctx, s, s.ID)
		if err != nil {
			return Slot{}, err
		}
		if conflict != nil {
			return Slot{}, &ConflictError{Candidate: s, Existing: *conflict}
		}
	}

	s.UpdatedAt = core.NowFunc().UTC()
	return svc.repo.UpdateSlot(ctx, s)
}

// Deactivate soft-deletes a slot: it stays stored but leaves the teacher's week.
func (svc *service) Deactivate(ctx context.Context, id string) (Slot, error) {
	inactive := false
	return svc.Update(ctx, id, UpdateSlot{IsActive: &inactive})
}

func (svc *service) Audit(ctx context.Context, filter QueryFilter) ([]Violation, error) {
	active := true
	filter.IsActive = &active
	slots, err := svc.repo.QuerySlots(ctx, filter, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying slots")
	}
	return Audit(slots), nil
}
