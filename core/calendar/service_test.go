package calendar

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/schedule"
)

type slotQuerierMock struct {
	slots []schedule.Slot
}

func (m slotQuerierMock) Query(_ context.Context, filter schedule.QueryFilter, _ []core.DBOrdering) ([]schedule.Slot, error) {
	slots := make([]schedule.Slot, 0)
	for _, s := range m.slots {
		if filter.Match(s) {
			slots = append(slots, s)
		}
	}
	return slots, nil
}

// itemRepositoryMock blocks the n-th QueryItems call (from 0) on gates[n] until it is closed.
type itemRepositoryMock struct {
	mu    sync.Mutex
	items []Item
	gates map[int]chan struct{}
	calls int
}

func (m *itemRepositoryMock) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *itemRepositoryMock) CreateItem(_ context.Context, it Item, _ ...core.DBExecutor) (Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, it)
	return it, nil
}

func (m *itemRepositoryMock) QueryItems(_ context.Context, filter ItemFilter, _ ...core.DBExecutor) ([]Item, error) {
	m.mu.Lock()
	gate := m.gates[m.calls]
	m.calls++
	m.mu.Unlock()
	if gate != nil {
		<-gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]Item, 0)
	for _, it := range m.items {
		if filter.Match(it) {
			items = append(items, it)
		}
	}
	return items, nil
}

func TestService_Load(t *testing.T) {
	slots := slotQuerierMock{slots: []schedule.Slot{
		{ID: "t1-mon", TeacherID: "t1", ClassID: "6A", Day: schedule.Monday, StartTime: "09:00", IsActive: true},
		{ID: "t2-wed", TeacherID: "t2", ClassID: "6B", Day: schedule.Wednesday, StartTime: "09:00", IsActive: true},
	}}
	items := new(itemRepositoryMock)
	svc := NewService(slots, items)
	ctx := context.Background()

	_, err := svc.CreateItem(ctx, Item{Kind: TagTest, Title: "  Quiz ", Date: date(2026, 10, 21), ClassID: "6B"})
	require.NoError(t, err)
	_, err = svc.CreateItem(ctx, Item{Kind: TagEvent, Title: "Assembly", Date: date(2026, 10, 22)})
	require.NoError(t, err)
	assert.Equal(t, "Quiz", items.items[0].Title)

	p, err := svc.Load(ctx, Filter{TeacherID: "t1"}, Window{Year: 2026, Month: time.October})
	require.NoError(t, err)
	assert.Equal(t, Tags{TagClass}, p.Marks.On(date(2026, 10, 19)))
	assert.Equal(t, Tags{TagTest}, p.Marks.On(date(2026, 10, 21)), "t2's slot is filtered out, items without a teacher are not")
	assert.Equal(t, Tags{TagEvent}, p.Marks.On(date(2026, 10, 22)), "school-wide items are always shown")

	p, err = svc.Load(ctx, Filter{ClassID: "6B"}, Window{Year: 2026, Month: time.October})
	require.NoError(t, err)
	assert.Equal(t, Tags{TagClass, TagTest}, p.Marks.On(date(2026, 10, 21)))

	t.Run("items outside the window", func(t *testing.T) {
		// a Monday, far after the window
		_, err := svc.CreateItem(ctx, Item{Kind: TagTest, Title: "Finals", Date: date(2027, 3, 8), Time: "08:00"})
		require.NoError(t, err)

		p, err := svc.Load(ctx, Filter{TeacherID: "t1"}, Window{Year: 2026, Month: time.October})
		require.NoError(t, err)
		assert.Equal(t, Tags{TagTest}, p.Marks.On(date(2027, 3, 8)))
		agenda := p.AgendaFor(date(2027, 3, 8))
		require.Len(t, agenda, 2)
		assert.Equal(t, TagTest, agenda[0].Type)
		assert.Equal(t, "Finals", agenda[0].Item.Title)
		assert.Equal(t, TagClass, agenda[1].Type)
		assert.Equal(t, "09:00", agenda[1].Time)
	})

	t.Run("invalid items", func(t *testing.T) {
		_, err := svc.CreateItem(ctx, Item{Kind: TagClass, Date: date(2026, 10, 22)})
		assert.True(t, core.IsValidationError(err))
		_, err = svc.CreateItem(ctx, Item{Kind: TagTest, Date: date(2026, 10, 22), Time: "25:00"})
		assert.True(t, core.IsValidationError(err))
	})
}

func TestNavigator_dropsStaleProjections(t *testing.T) {
	oct := Window{Year: 2026, Month: time.October}
	nov := oct.Next()

	gate := make(chan struct{})
	items := &itemRepositoryMock{gates: map[int]chan struct{}{0: gate}}
	nav := NewNavigator(NewService(slotQuerierMock{}, items), Filter{})
	ctx := context.Background()

	type result struct {
		p       *Projection
		applied bool
	}
	slow := make(chan result)
	go func() {
		p, applied, err := nav.Show(ctx, oct)
		assert.NoError(t, err)
		slow <- result{p, applied}
	}()

	// wait for the October load to be in flight
	require.Eventually(t, func() bool { return items.callCount() == 1 }, time.Second, time.Millisecond)

	p, applied, err := nav.Show(ctx, nov)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, nov, p.Window)

	close(gate)
	res := <-slow
	assert.False(t, res.applied)
	assert.Equal(t, oct, res.p.Window)
	assert.Equal(t, nov, nav.Current().Window, "the stale October projection must not replace November")

	p, applied, err = nav.Next(ctx)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, nov.Next(), p.Window)

	p, _, err = nav.Prev(ctx)
	require.NoError(t, err)
	assert.Equal(t, nov, p.Window)
}

func TestNavigator_stepsFromTheRequestedWindow(t *testing.T) {
	oct := Window{Year: 2026, Month: time.October}

	gate := make(chan struct{})
	items := &itemRepositoryMock{gates: map[int]chan struct{}{1: gate}}
	nav := NewNavigator(NewService(slotQuerierMock{}, items), Filter{})
	ctx := context.Background()

	_, applied, err := nav.Show(ctx, oct)
	require.NoError(t, err)
	require.True(t, applied)

	slow := make(chan bool)
	go func() {
		_, applied, err := nav.Next(ctx)
		assert.NoError(t, err)
		slow <- applied
	}()

	// the first Next is still loading November
	require.Eventually(t, func() bool { return items.callCount() == 2 }, time.Second, time.Millisecond)
	requested, ok := nav.Requested()
	assert.True(t, ok)
	assert.Equal(t, oct.Next(), requested)
	assert.Equal(t, oct, nav.Current().Window)

	p, applied, err := nav.Next(ctx)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, oct.Next().Next(), p.Window)

	close(gate)
	assert.False(t, <-slow)
	assert.Equal(t, oct.Next().Next(), nav.Current().Window)

	p, _, err = nav.Prev(ctx)
	require.NoError(t, err)
	assert.Equal(t, oct.Next(), p.Window)
}
