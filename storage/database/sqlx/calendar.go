package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/calendar"
)

const itemColumns = `id, institution_id, kind, title, date, time, class_id, subject_id, teacher_id`

type itemRepository struct {
	baseRepository
}

var _ calendar.ItemRepository = (*itemRepository)(nil) // interface compliance check

func NewItemRepository(exec core.DBExecutor) *itemRepository {
	return &itemRepository{baseRepository{exec: exec}}
}

func (repo itemRepository) CreateItem(ctx context.Context, it calendar.Item, exec ...core.DBExecutor) (calendar.Item, error) {
	if it.ID == "" {
		it.ID = uuid.New().String()
	}
	q := `INSERT INTO calendar_item (` + itemColumns + `) VALUES (
		:id, :institution_id, :kind, :title, :date, :time, :class_id, :subject_id, :teacher_id)`
	if _, err := repo.getExec(exec).NamedExecContext(ctx, q, it); err != nil {
		return calendar.Item{}, errors.Wrap(err, "inserting calendar item")
	}
	return it, nil
}

func (repo itemRepository) QueryItems(ctx context.Context, filter calendar.ItemFilter, exec ...core.DBExecutor) ([]calendar.Item, error) {
	var w where
	if filter.InstitutionID != "" {
		w.add("institution_id = ?", filter.InstitutionID)
	}
	// items not bound to a teacher or class concern everybody
	if filter.TeacherID != "" {
		w.add("(teacher_id = '' OR teacher_id = ?)", filter.TeacherID)
	}
	if filter.ClassID != "" {
		w.add("(class_id = '' OR class_id = ?)", filter.ClassID)
	}
	if !filter.From.IsZero() {
		w.add("date >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		w.add("date < ?", filter.To)
	}

	q := `SELECT ` + itemColumns + ` FROM calendar_item` + w.String() + ` ORDER BY date, id`
	items := make([]calendar.Item, 0)
	if err := repo.getExec(exec).SelectContext(ctx, &items, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting calendar items")
	}
	return items, nil
}
