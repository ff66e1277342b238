package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/calendar"
)

type itemRepository struct {
	db *itemTable
}

var _ calendar.ItemRepository = (*itemRepository)(nil) // interface compliance check

func NewItemRepository(db *DB) *itemRepository {
	return &itemRepository{db: db.item}
}

func (repo *itemRepository) CreateItem(_ context.Context, it calendar.Item, _ ...core.DBExecutor) (calendar.Item, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if it.ID == "" {
		it.ID = uuid.New().String()
	}
	repo.db.table[it.ID] = &it
	return it, nil
}

func (repo *itemRepository) QueryItems(_ context.Context, filter calendar.ItemFilter, _ ...core.DBExecutor) ([]calendar.Item, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	items := make([]calendar.Item, 0)
	for _, it := range repo.db.table {
		if filter.Match(*it) {
			items = append(items, *it)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].Date.Equal(items[j].Date) {
			return items[i].Date.Before(items[j].Date)
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}
