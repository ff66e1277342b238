package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
)

type attendanceRepository struct {
	sessions *sessionTable
	records  *recordTable
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) *attendanceRepository {
	return &attendanceRepository{sessions: db.session, records: db.record}
}

func (repo *attendanceRepository) CreateSession(_ context.Context, sess attendance.Session, records []attendance.Record, _ ...core.DBExecutor) (attendance.Session, error) {
	repo.sessions.Lock()
	defer repo.sessions.Unlock()
	repo.records.Lock()
	defer repo.records.Unlock()

	for _, other := range repo.sessions.table {
		if other.ClassID == sess.ClassID && other.SubjectID == sess.SubjectID && other.Date.Equal(sess.Date) {
			return attendance.Session{}, attendance.ErrSessionExists
		}
	}
	repo.sessions.table[sess.ID] = &sess
	for i := range records {
		r := records[i]
		r.SessionID = sess.ID
		repo.records.table[r.ID] = &r
	}
	return sess, nil
}

func (repo *attendanceRepository) GetSession(_ context.Context, id string, _ ...core.DBExecutor) (attendance.Session, error) {
	repo.sessions.RLock()
	defer repo.sessions.RUnlock()

	if sess, ok := repo.sessions.table[id]; ok {
		return *sess, nil
	}
	return attendance.Session{}, attendance.ErrSessionNotFound
}

func (repo *attendanceRepository) FindSession(_ context.Context, classID, subjectID string, date time.Time, _ ...core.DBExecutor) (attendance.Session, error) {
	repo.sessions.RLock()
	defer repo.sessions.RUnlock()

	for _, sess := range repo.sessions.table {
		if sess.ClassID == classID && sess.SubjectID == subjectID && sess.Date.Equal(date) {
			return *sess, nil
		}
	}
	return attendance.Session{}, attendance.ErrSessionNotFound
}

func (repo *attendanceRepository) QueryRecords(_ context.Context, sessionID string, _ ...core.DBExecutor) ([]attendance.Record, error) {
	repo.records.RLock()
	defer repo.records.RUnlock()

	records := make([]attendance.Record, 0)
	for _, r := range repo.records.table {
		if r.SessionID == sessionID {
			records = append(records, *r)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].StudentID < records[j].StudentID })
	return records, nil
}

func (repo *attendanceRepository) UpdateRecordPresence(_ context.Context, recordID string, present bool, _ ...core.DBExecutor) error {
	repo.records.Lock()
	defer repo.records.Unlock()

	r, ok := repo.records.table[recordID]
	if !ok {
		return attendance.ErrRecordNotFound
	}
	r.Present = present
	r.UpdatedAt = core.NowFunc().UTC()
	return nil
}
