package attendance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/roster"
	"github.com/trezcool/darasa/core/schedule"
)

var (
	// errors
	ErrSessionNotFound = errors.New("attendance session not found")
	ErrRecordNotFound  = errors.New("attendance record not found")
	ErrSessionExists   = errors.New("attendance was already taken for this class, subject and date")
	ErrOutsideYear     = errors.New("date is outside the current academic year")
)

type (
	Repository interface {
		Store

		// CreateSession stores the session and its records atomically.
		CreateSession(ctx context.Context, session Session, records []Record, exec ...core.DBExecutor) (Session, error)
		GetSession(ctx context.Context, id string, exec ...core.DBExecutor) (Session, error)
		FindSession(ctx context.Context, classID, subjectID string, date time.Time, exec ...core.DBExecutor) (Session, error)
	}

	ServiceInterface interface {
		TakeAttendance(ctx context.Context, ns NewSession) (Session, []Record, error)
		GetSession(ctx context.Context, id string) (Session, error)
		Records(ctx context.Context, sessionID string) ([]Record, error)
		Roster(ctx context.Context, classID string) ([]roster.Student, error)
		// Engine returns a loaded diff engine for the session.
		Engine(ctx context.Context, sessionID string) (*Engine, error)
	}

	service struct {
		repo    Repository
		rosters roster.Provider
		years   schedule.AcademicYearRepository
		logger  core.Logger
	}
)

var _ ServiceInterface = (*service)(nil) // interface compliance check

func NewService(repo Repository, rosters roster.Provider, years schedule.AcademicYearRepository, logger core.Logger) *service {
	return &service{repo: repo, rosters: rosters, years: years, logger: logger}
}

// TakeAttendance creates a session together with one record per roster student.
// When the institution is given, the date must fall within its current academic year.
func (svc *service) TakeAttendance(ctx context.Context, ns NewSession) (Session, []Record, error) {
	date := ns.ParsedDate()
	if ns.InstitutionID != "" {
		ay, err := svc.years.GetCurrentAcademicYear(ctx, ns.InstitutionID)
		if err != nil {
			return Session{}, nil, errors.Wrap(err, "getting current academic year")
		}
		if !ay.Contains(date) {
			return Session{}, nil, core.NewValidationError(ErrOutsideYear, core.FieldError{Field: "date", Error: ErrOutsideYear.Error()})
		}
	}
	if _, err := svc.repo.FindSession(ctx, ns.ClassID, ns.SubjectID, date); err == nil {
		return Session{}, nil, errSessionExists()
	} else if errors.Cause(err) != ErrSessionNotFound {
		return Session{}, nil, errors.Wrap(err, "finding session")
	}

	students, err := svc.Roster(ctx, ns.ClassID)
	if err != nil {
		return Session{}, nil, err
	}
	enrolled := make(map[string]bool, len(students))
	for _, s := range students {
		enrolled[s.ID] = true
	}
	for studentID := range ns.Present {
		if !enrolled[studentID] {
			return Session{}, nil, core.NewFieldValidationError("present", "student "+studentID+" is not in the class roster")
		}
	}

	now := core.NowFunc().UTC()
	sess := Session{
		ID:            uuid.New().String(),
		InstitutionID: ns.InstitutionID,
		ClassID:       ns.ClassID,
		SubjectID:     ns.SubjectID,
		TeacherID:     ns.TeacherID,
		Date:          date,
		CreatedAt:     now,
	}
	records := make([]Record, 0, len(students))
	for _, s := range students {
		records = append(records, Record{
			ID:        uuid.New().String(),
			SessionID: sess.ID,
			StudentID: s.ID,
			Present:   ns.Present[s.ID],
			UpdatedAt: now,
		})
	}

	if sess, err = svc.repo.CreateSession(ctx, sess, records); err != nil {
		if errors.Cause(err) == ErrSessionExists {
			return Session{}, nil, errSessionExists()
		}
		return Session{}, nil, errors.Wrap(err, "creating session")
	}
	return sess, records, nil
}

func errSessionExists() error {
	return core.NewValidationError(ErrSessionExists, core.FieldError{Field: "date", Error: ErrSessionExists.Error()})
}

func (svc *service) GetSession(ctx context.Context, id string) (Session, error) {
	return svc.repo.GetSession(ctx, id)
}

func (svc *service) Records(ctx context.Context, sessionID string) ([]Record, error) {
	return svc.repo.QueryRecords(ctx, sessionID)
}

func (svc *service) Roster(ctx context.Context, classID string) ([]roster.Student, error) {
	students, err := svc.rosters.ClassRoster(ctx, classID)
	if err != nil {
		if errors.Cause(err) == roster.ErrClassNotFound {
			return nil, core.NewFieldValidationError("class_id", roster.ErrClassNotFound.Error())
		}
		return nil, errors.Wrap(err, "getting class roster")
	}
	return students, nil
}

func (svc *service) Engine(ctx context.Context, sessionID string) (*Engine, error) {
	if _, err := svc.repo.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	e := NewEngine(svc.repo, sessionID, svc.logger)
	if err := e.Load(ctx); err != nil {
		return nil, err
	}
	return e, nil
}
