package core

import "sync/atomic"

// Generation hands out monotonically increasing tickets so that only the response
// of the most recently issued request gets applied. Zero value is ready to use.
type Generation struct {
	n atomic.Uint64
}

// Next issues a new ticket, invalidating all previous ones.
func (g *Generation) Next() uint64 {
	return g.n.Add(1)
}

// Current returns the latest issued ticket.
func (g *Generation) Current() uint64 {
	return g.n.Load()
}

// IsCurrent reports whether `ticket` is still the latest one.
func (g *Generation) IsCurrent(ticket uint64) bool {
	return g.n.Load() == ticket
}
