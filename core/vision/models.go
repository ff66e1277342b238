package vision

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/roster"
)

// Mode is the kind of artifact the provider recognised.
type Mode string

const (
	// ModeRollList is a list of the roll numbers of present students; unlisted students are absent.
	ModeRollList Mode = "ROLL_NUMBER_LIST"
	// ModeChart is an attendance chart with one column per date.
	ModeChart Mode = "ATTENDANCE_CHART"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
)

// ProviderError is the single error surfaced for any failure of an extraction:
// missing credentials, transport errors, non-success responses, malformed or schema-invalid output.
type ProviderError struct {
	Reason string
	Err    error
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return "vision provider: " + e.Reason
	}
	return fmt.Sprintf("vision provider: %s: %v", e.Reason, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func IsProviderError(err error) bool {
	_, ok := errors.Cause(err).(*ProviderError)
	return ok
}

func newProviderError(reason string, err error) error {
	return &ProviderError{Reason: reason, Err: err}
}

var (
	// errors
	ErrMissingCredentials = errors.New("missing credentials")
)

// Request is what gets sent to the inference provider.
type Request struct {
	Image    []byte
	MimeType string
	Prompt   string
}

// Provider runs a vision model on an image and returns its free-form text answer.
type Provider interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// ExtractRequest holds an attendance artifact photo and the official roster it is matched against.
type ExtractRequest struct {
	Image      []byte
	MimeType   string
	Roster     []roster.Student
	TargetDate time.Time
}

// Detection is the proposed status of one roster student.
type Detection struct {
	StudentID   string  `json:"student_id"`
	StudentName string  `json:"student_name"`
	RollNumber  string  `json:"roll_number"`
	Status      Status  `json:"status"`
	Confidence  float64 `json:"confidence"`
	// Inferred is set when the status was deduced rather than read: unlisted in a roll list, or missing from a chart.
	Inferred    bool `json:"inferred"`
	NeedsReview bool `json:"needs_review"`
}

func (d Detection) Present() bool {
	return d.Status == StatusPresent
}

// Unmatched is something the provider read that maps to no roster roll number.
type Unmatched struct {
	Raw         string   `json:"raw"`
	Status      Status   `json:"status,omitempty"`
	Confidence  float64  `json:"confidence"`
	Suggestions []string `json:"suggestions"`
}

// Proposal is the outcome of an extraction. It is never applied as-is: it seeds the local
// attendance state, which still goes through the confirm-then-commit flow.
type Proposal struct {
	Mode       Mode        `json:"mode"`
	TargetDate string      `json:"target_date"`
	Entries    []Detection `json:"entries"`
	Unmatched  []Unmatched `json:"unmatched"`
}

// ForReview returns the detections flagged for mandatory human review.
func (p Proposal) ForReview() []Detection {
	var review []Detection
	for _, d := range p.Entries {
		if d.NeedsReview {
			review = append(review, d)
		}
	}
	return review
}
