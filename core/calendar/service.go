package calendar

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/schedule"
)

var (
	// errors
	ErrInvalidKind = errors.New("kind must be one of test, event")
)

type (
	ItemRepository interface {
		CreateItem(ctx context.Context, item Item, exec ...core.DBExecutor) (Item, error)
		QueryItems(ctx context.Context, filter ItemFilter, exec ...core.DBExecutor) ([]Item, error)
	}

	// SlotQuerier is the part of the schedule service the calendar reads from.
	SlotQuerier interface {
		Query(ctx context.Context, filter schedule.QueryFilter, ordering []core.DBOrdering) ([]schedule.Slot, error)
	}

	Service struct {
		slots SlotQuerier
		items ItemRepository
	}
)

func NewService(slots SlotQuerier, items ItemRepository) *Service {
	return &Service{slots: slots, items: items}
}

// Load fetches the active slots and the one-off items matching `filter` and projects them over `w`.
// Items are not bounded by the window: each is marked on its own date.
func (svc *Service) Load(ctx context.Context, filter Filter, w Window) (*Projection, error) {
	active := true
	slots, err := svc.slots.Query(ctx, schedule.QueryFilter{
		InstitutionID: filter.InstitutionID,
		TeacherID:     filter.TeacherID,
		ClassID:       filter.ClassID,
		IsActive:      &active,
	}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying slots")
	}

	items, err := svc.items.QueryItems(ctx, ItemFilter{Filter: filter})
	if err != nil {
		return nil, errors.Wrap(err, "querying items")
	}
	return Project(slots, items, w), nil
}

func (svc *Service) CreateItem(ctx context.Context, it Item) (Item, error) {
	if it.Kind != TagTest && it.Kind != TagEvent {
		return Item{}, core.NewValidationError(ErrInvalidKind, core.FieldError{Field: "kind", Error: ErrInvalidKind.Error()})
	}
	if it.Time != "" && !core.IsTimeOfDay(it.Time) {
		return Item{}, core.NewFieldValidationError("time", "time must be a 24h time formatted as HH:MM")
	}
	it.Title = core.CleanString(it.Title)
	it.Date = core.DateOnly(it.Date)
	return svc.items.CreateItem(ctx, it)
}

// Navigator keeps the projection of the window being viewed.
// Loads may finish out of order while the user navigates quickly; only the latest requested one is kept.
type Navigator struct {
	svc    *Service
	filter Filter
	gen    core.Generation

	mu        sync.RWMutex
	current   *Projection
	requested Window
	navigated bool // false until the first request
}

func NewNavigator(svc *Service, filter Filter) *Navigator {
	return &Navigator{svc: svc, filter: filter}
}

// Show loads `w` and makes it current unless a newer request started in the meantime.
// It reports whether the projection was applied.
func (nav *Navigator) Show(ctx context.Context, w Window) (*Projection, bool, error) {
	return nav.load(ctx, func(Window) Window { return w })
}

// Next shows the window after the last requested one.
func (nav *Navigator) Next(ctx context.Context) (*Projection, bool, error) {
	return nav.load(ctx, Window.Next)
}

// Prev shows the window before the last requested one.
func (nav *Navigator) Prev(ctx context.Context) (*Projection, bool, error) {
	return nav.load(ctx, Window.Prev)
}

// load records the window computed by `target` from the last requested one, then loads it.
func (nav *Navigator) load(ctx context.Context, target func(Window) Window) (*Projection, bool, error) {
	nav.mu.Lock()
	from := nav.requested
	if !nav.navigated {
		from = WindowAt(core.NowFunc())
	}
	w := target(from)
	nav.requested, nav.navigated = w, true
	ticket := nav.gen.Next()
	nav.mu.Unlock()

	p, err := nav.svc.Load(ctx, nav.filter, w)
	if err != nil {
		return nil, false, err
	}
	return p, nav.publish(ticket, p), nil
}

func (nav *Navigator) publish(ticket uint64, p *Projection) bool {
	nav.mu.Lock()
	defer nav.mu.Unlock()
	if !nav.gen.IsCurrent(ticket) {
		return false
	}
	nav.current = p
	return true
}

// Current returns the last applied projection, nil before the first one.
func (nav *Navigator) Current() *Projection {
	nav.mu.RLock()
	defer nav.mu.RUnlock()
	return nav.current
}

// Requested returns the window of the latest request, which may still be loading.
func (nav *Navigator) Requested() (Window, bool) {
	nav.mu.RLock()
	defer nav.mu.RUnlock()
	return nav.requested, nav.navigated
}
