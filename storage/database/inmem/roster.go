package inmemdb

import (
	"context"

	"github.com/trezcool/darasa/core/roster"
)

type rosterProvider struct {
	db *studentTable
}

var _ roster.Provider = (*rosterProvider)(nil) // interface compliance check

func NewRosterProvider(db *DB) *rosterProvider {
	return &rosterProvider{db: db.students}
}

// SetClassRoster replaces the roster of a class.
func (p *rosterProvider) SetClassRoster(classID string, students []roster.Student) {
	p.db.Lock()
	defer p.db.Unlock()

	cp := make([]roster.Student, 0, len(students))
	for _, s := range students {
		s.ClassID = classID
		cp = append(cp, s)
	}
	p.db.table[classID] = cp
}

func (p *rosterProvider) ClassRoster(_ context.Context, classID string) ([]roster.Student, error) {
	p.db.RLock()
	defer p.db.RUnlock()

	students, ok := p.db.table[classID]
	if !ok {
		return nil, roster.ErrClassNotFound
	}
	return append([]roster.Student(nil), students...), nil
}
