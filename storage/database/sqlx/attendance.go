package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/storage/database"
)

const (
	sessionColumns = `id, institution_id, class_id, subject_id, teacher_id, date, created_at`
	recordColumns  = `id, session_id, student_id, present, updated_at`
)

type attendanceRepository struct {
	baseRepository
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(exec core.DBExecutor) *attendanceRepository {
	return &attendanceRepository{baseRepository{exec: exec}}
}

func (repo attendanceRepository) CreateSession(ctx context.Context, sess attendance.Session, records []attendance.Record, exec ...core.DBExecutor) (attendance.Session, error) {
	err := inTx(ctx, repo.getExec(exec), func(tx core.DBExecutor) error {
		q := `INSERT INTO attendance_session (` + sessionColumns + `) VALUES (
			:id, :institution_id, :class_id, :subject_id, :teacher_id, :date, :created_at)`
		if _, err := tx.NamedExecContext(ctx, q, sess); err != nil {
			if database.IsUniqueViolation(err) {
				return attendance.ErrSessionExists
			}
			return errors.Wrap(err, "inserting session")
		}
		if len(records) == 0 {
			return nil
		}
		for i := range records {
			records[i].SessionID = sess.ID
		}
		q = `INSERT INTO attendance_record (` + recordColumns + `) VALUES (
			:id, :session_id, :student_id, :present, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, q, records); err != nil {
			return errors.Wrap(err, "inserting records")
		}
		return nil
	})
	if err != nil {
		return attendance.Session{}, err
	}
	return sess, nil
}

func (repo attendanceRepository) GetSession(ctx context.Context, id string, exec ...core.DBExecutor) (attendance.Session, error) {
	var sess attendance.Session
	q := `SELECT ` + sessionColumns + ` FROM attendance_session WHERE id = $1`
	if err := repo.getExec(exec).GetContext(ctx, &sess, q, id); err != nil {
		return attendance.Session{}, trapNoRowsErr(err, attendance.ErrSessionNotFound, "selecting session")
	}
	return sess, nil
}

func (repo attendanceRepository) FindSession(ctx context.Context, classID, subjectID string, date time.Time, exec ...core.DBExecutor) (attendance.Session, error) {
	var sess attendance.Session
	q := `SELECT ` + sessionColumns + ` FROM attendance_session WHERE class_id = $1 AND subject_id = $2 AND date = $3`
	if err := repo.getExec(exec).GetContext(ctx, &sess, q, classID, subjectID, date); err != nil {
		return attendance.Session{}, trapNoRowsErr(err, attendance.ErrSessionNotFound, "selecting session")
	}
	return sess, nil
}

func (repo attendanceRepository) QueryRecords(ctx context.Context, sessionID string, exec ...core.DBExecutor) ([]attendance.Record, error) {
	records := make([]attendance.Record, 0)
	q := `SELECT ` + recordColumns + ` FROM attendance_record WHERE session_id = $1 ORDER BY student_id`
	if err := repo.getExec(exec).SelectContext(ctx, &records, q, sessionID); err != nil {
		return nil, errors.Wrap(err, "selecting records")
	}
	return records, nil
}

func (repo attendanceRepository) UpdateRecordPresence(ctx context.Context, recordID string, present bool, exec ...core.DBExecutor) error {
	q := `UPDATE attendance_record SET present = $2, updated_at = $3 WHERE id = $1`
	res, err := repo.getExec(exec).ExecContext(ctx, q, recordID, present, core.NowFunc().UTC())
	if err != nil {
		return errors.Wrap(err, "updating record")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return attendance.ErrRecordNotFound
	}
	return nil
}
