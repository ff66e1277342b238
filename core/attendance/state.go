package attendance

import "github.com/pkg/errors"

var (
	// errors
	ErrUnknownRecord = errors.New("record not in the loaded session")
)

// State is the local editing state of a session's attendance: the baseline snapshot as loaded
// and the change-set of records whose local value differs from it.
// Every toggle is compared to the baseline (never to the previous local value) so the change-set stays minimal.
type State struct {
	SessionID string          `json:"session_id"`
	Baseline  map[string]bool `json:"baseline"`
	Changes   map[string]bool `json:"changes"`
}

func NewState(sessionID string, records []Record) *State {
	st := &State{
		SessionID: sessionID,
		Baseline:  make(map[string]bool, len(records)),
		Changes:   make(map[string]bool),
	}
	for _, r := range records {
		st.Baseline[r.ID] = r.Present
	}
	return st
}

// Toggle sets the local presence of a record.
func (st *State) Toggle(recordID string, present bool) error {
	base, ok := st.Baseline[recordID]
	if !ok {
		return ErrUnknownRecord
	}
	if st.Changes == nil {
		st.Changes = make(map[string]bool)
	}
	if present == base {
		delete(st.Changes, recordID)
	} else {
		st.Changes[recordID] = present
	}
	return nil
}

// Value returns the local presence of a record.
func (st *State) Value(recordID string) (present bool, ok bool) {
	if v, changed := st.Changes[recordID]; changed {
		return v, true
	}
	v, ok := st.Baseline[recordID]
	return v, ok
}

// ChangeSet returns a copy of the pending changes.
func (st *State) ChangeSet() map[string]bool {
	cs := make(map[string]bool, len(st.Changes))
	for id, v := range st.Changes {
		cs[id] = v
	}
	return cs
}

func (st *State) Dirty() bool {
	return len(st.Changes) > 0
}
