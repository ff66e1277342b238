package attendance

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/vision"
)

var (
	// errors
	ErrNotLoaded      = errors.New("attendance not loaded")
	ErrCommitDeclined = errors.New("commit declined")
)

// SaveFailure is returned when at least one update of a commit failed.
// Updates are not rolled back: the engine reloads the session from the store instead.
type SaveFailure struct {
	Failed []string // ids of the records that could not be saved
	Err    error
	// ReloadErr is set if the reload following the failure failed too; the engine is then left unloaded.
	ReloadErr error
}

func (e *SaveFailure) Error() string {
	return fmt.Sprintf("saving attendance failed for %d record(s): %v", len(e.Failed), e.Err)
}

func IsSaveFailure(err error) bool {
	_, ok := errors.Cause(err).(*SaveFailure)
	return ok
}

// Store is what the Engine needs from the attendance storage.
type Store interface {
	QueryRecords(ctx context.Context, sessionID string, exec ...core.DBExecutor) ([]Record, error)
	UpdateRecordPresence(ctx context.Context, recordID string, present bool, exec ...core.DBExecutor) error
}

// ConfirmFunc is asked to approve a commit affecting `count` students.
type ConfirmFunc func(count int) bool

// Confirmed approves any commit.
func Confirmed(int) bool { return true }

type CommitResult struct {
	Updated int `json:"updated"`
}

// StageResult tells what a proposal changed in the local state.
type StageResult struct {
	Applied int `json:"applied"`
	// Review lists the detections left for a human to decide, with the record they belong to.
	Review    []ReviewItem       `json:"review"`
	Unmatched []vision.Unmatched `json:"unmatched"`
}

type ReviewItem struct {
	RecordID  string           `json:"record_id"`
	Detection vision.Detection `json:"detection"`
}

// Engine tracks the attendance edits of one session and commits them.
type Engine struct {
	store     Store
	sessionID string
	logger    core.Logger
	gen       core.Generation

	mu      sync.Mutex
	state   *State
	records []Record
}

func NewEngine(store Store, sessionID string, logger core.Logger) *Engine {
	return &Engine{store: store, sessionID: sessionID, logger: logger}
}

// Load fetches the session records, making them the new baseline and discarding any local change.
// A load overtaken by a newer one is dropped.
func (e *Engine) Load(ctx context.Context) error {
	ticket := e.gen.Next()
	records, err := e.store.QueryRecords(ctx, e.sessionID)

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.gen.IsCurrent(ticket) {
		e.logger.Debug("dropping stale attendance load", map[string]interface{}{"session": e.sessionID})
		return nil
	}
	if err != nil {
		e.state = nil
		e.records = nil
		return errors.Wrap(err, "querying records")
	}
	e.state = NewState(e.sessionID, records)
	e.records = records
	return nil
}

func (e *Engine) Loaded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state != nil
}

// Records returns the session records with the local changes applied.
func (e *Engine) Records() []Record {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return nil
	}
	records := make([]Record, 0, len(e.records))
	for _, r := range e.records {
		r.Present, _ = e.state.Value(r.ID)
		records = append(records, r)
	}
	return records
}

func (e *Engine) Toggle(recordID string, present bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return ErrNotLoaded
	}
	return e.state.Toggle(recordID, present)
}

func (e *Engine) ChangeSet() map[string]bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return map[string]bool{}
	}
	return e.state.ChangeSet()
}

// State returns a copy of the local state.
func (e *Engine) State() (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return State{}, ErrNotLoaded
	}
	baseline := make(map[string]bool, len(e.state.Baseline))
	for id, v := range e.state.Baseline {
		baseline[id] = v
	}
	return State{SessionID: e.state.SessionID, Baseline: baseline, Changes: e.state.ChangeSet()}, nil
}

// StageProposal applies the confident detections of a vision proposal as local toggles.
// Detections flagged for review are left at their baseline value.
func (e *Engine) StageProposal(p *vision.Proposal) (StageResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return StageResult{}, ErrNotLoaded
	}

	byStudent := make(map[string]string, len(e.records))
	for _, r := range e.records {
		byStudent[r.StudentID] = r.ID
	}

	res := StageResult{Review: make([]ReviewItem, 0), Unmatched: p.Unmatched}
	for _, d := range p.Entries {
		recordID, ok := byStudent[d.StudentID]
		if !ok {
			continue // student joined the roster after the session was taken
		}
		if d.NeedsReview {
			res.Review = append(res.Review, ReviewItem{RecordID: recordID, Detection: d})
			continue
		}
		if err := e.state.Toggle(recordID, d.Present()); err != nil {
			return StageResult{}, err
		}
		res.Applied++
	}
	return res, nil
}

// Commit saves the change-set. An empty change-set is a no-op.
// Otherwise `confirm` must approve the number of affected students, then one update per changed record
// is issued concurrently and all of them are awaited. Whatever the outcome, the session is reloaded afterwards.
func (e *Engine) Commit(ctx context.Context, confirm ConfirmFunc) (CommitResult, error) {
	changes := e.ChangeSet()
	if len(changes) == 0 {
		return CommitResult{}, nil
	}
	if confirm == nil || !confirm(len(changes)) {
		return CommitResult{}, ErrCommitDeclined
	}

	var (
		g        errgroup.Group
		failedMu sync.Mutex
		failed   []string
	)
	for id, present := range changes {
		id, present := id, present
		g.Go(func() error {
			if err := e.store.UpdateRecordPresence(ctx, id, present); err != nil {
				failedMu.Lock()
				failed = append(failed, id)
				failedMu.Unlock()
				return errors.Wrapf(err, "updating record %s", id)
			}
			return nil
		})
	}
	saveErr := g.Wait()
	reloadErr := e.Load(ctx)

	if saveErr != nil {
		sort.Strings(failed)
		sf := &SaveFailure{Failed: failed, Err: saveErr, ReloadErr: reloadErr}
		e.logger.Error("attendance commit failed", sf, map[string]interface{}{
			"session": e.sessionID,
			"changes": len(changes),
			"failed":  len(failed),
		})
		return CommitResult{Updated: len(changes) - len(failed)}, sf
	}
	if reloadErr != nil {
		return CommitResult{Updated: len(changes)}, errors.Wrap(reloadErr, "reloading records")
	}

	e.logger.Info("attendance committed", map[string]interface{}{"session": e.sessionID, "updated": len(changes)})
	return CommitResult{Updated: len(changes)}, nil
}
