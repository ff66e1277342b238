package vision

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/roster"
)

const (
	// a suggestion must be at least this similar to the unmatched roll number
	minSuggestionRatio = 0.5
	maxSuggestions     = 3
)

// Matcher turns an attendance artifact photo into a Proposal against the class roster.
type Matcher struct {
	provider   Provider
	validate   *validator.Validate
	sampleSize int
	threshold  float64
	logger     core.Logger
}

func NewMatcher(provider Provider, conf *core.Config, logger core.Logger) *Matcher {
	return &Matcher{
		provider:   provider,
		validate:   newContractValidator(),
		sampleSize: conf.Vision.SampleSize,
		threshold:  conf.Vision.ConfidenceThreshold,
		logger:     logger,
	}
}

// Extract sends the image with a bounded roster sample to the provider and reconciles its answer with the roster.
// Every provider-side failure is returned as a *ProviderError and no partial result is kept.
func (m *Matcher) Extract(ctx context.Context, req ExtractRequest) (*Proposal, error) {
	if len(req.Image) == 0 {
		return nil, core.NewFieldValidationError("image", "image is required")
	}
	if len(req.Roster) == 0 {
		return nil, core.NewFieldValidationError("roster", "the class roster is empty")
	}
	if req.TargetDate.IsZero() {
		return nil, core.NewFieldValidationError("date", "date is required")
	}

	prompt := BuildPrompt(NewPromptInput(req.Roster, m.sampleSize, req.TargetDate))
	text, err := m.provider.Generate(ctx, Request{Image: req.Image, MimeType: req.MimeType, Prompt: prompt})
	if err != nil {
		if core.IsValidationError(err) {
			return nil, err
		}
		if !IsProviderError(err) {
			err = newProviderError("request failed", err)
		}
		m.logger.Error("vision extraction failed", err)
		return nil, err
	}

	resp, err := parseResponse(text, m.validate)
	if err != nil {
		m.logger.Warn("vision response rejected", err, map[string]interface{}{"response": text})
		return nil, err
	}

	p, err := m.reconcile(resp, req)
	if err != nil {
		m.logger.Warn("vision response rejected", err, map[string]interface{}{"response": text})
		return nil, err
	}
	return p, nil
}

type reading struct {
	status     Status
	confidence float64
	// known is false when the provider gave no confidence
	known bool
}

// readings indexes the response entries by normalised roll number.
// Identical duplicates are merged keeping the lowest confidence; contradicting duplicates reject the whole response.
func readings(resp response) (map[string]reading, []string, error) {
	byRoll := make(map[string]reading, len(resp.Entries))
	order := make([]string, 0, len(resp.Entries))
	for _, e := range resp.Entries {
		roll := roster.NormalizeRoll(string(e.Roll))
		r := reading{status: e.Status}
		if r.status == "" {
			r.status = StatusPresent // roll lists only name the present
		}
		if e.Confidence != nil {
			r.confidence = *e.Confidence
			r.known = true
		}

		prev, seen := byRoll[roll]
		if !seen {
			byRoll[roll] = r
			order = append(order, roll)
			continue
		}
		if prev.status != r.status {
			return nil, nil, newProviderError("invalid response", fmt.Errorf("roll %s read both %s and %s", roll, prev.status, r.status))
		}
		if !r.known || (prev.known && r.confidence < prev.confidence) {
			byRoll[roll] = r
		}
	}
	return byRoll, order, nil
}

func (m *Matcher) reconcile(resp response, req ExtractRequest) (*Proposal, error) {
	targetDate := req.TargetDate.Format("2006-01-02")
	if resp.Mode == ModeChart && resp.Date != targetDate {
		return nil, newProviderError("invalid response", fmt.Errorf("chart column %s read instead of %s", resp.Date, targetDate))
	}

	byRoll, order, err := readings(resp)
	if err != nil {
		return nil, err
	}

	p := &Proposal{
		Mode:       resp.Mode,
		TargetDate: targetDate,
		Entries:    make([]Detection, 0, len(req.Roster)),
		Unmatched:  make([]Unmatched, 0),
	}

	// students sharing a roll number cannot be told apart: each gets a detection flagged for review
	inRoster := make(map[string]int, len(req.Roster))
	for _, s := range req.Roster {
		inRoster[roster.NormalizeRoll(s.RollNumber)]++
	}

	for _, s := range req.Roster {
		roll := roster.NormalizeRoll(s.RollNumber)
		d := Detection{StudentID: s.ID, StudentName: s.Name, RollNumber: s.RollNumber}
		if r, ok := byRoll[roll]; ok {
			d.Status = r.status
			d.Confidence = r.confidence
			d.NeedsReview = !r.known || r.confidence < m.threshold
		} else if resp.Mode == ModeRollList {
			d.Status = StatusAbsent
			d.Confidence = 1
			d.Inferred = true
		} else {
			// missing row of a chart: nothing was read for this student
			d.Status = StatusAbsent
			d.Inferred = true
			d.NeedsReview = true
		}
		if inRoster[roll] > 1 {
			d.NeedsReview = true
		}
		p.Entries = append(p.Entries, d)
	}

	for _, roll := range order {
		if inRoster[roll] > 0 {
			continue
		}
		r := byRoll[roll]
		p.Unmatched = append(p.Unmatched, Unmatched{
			Raw:         roll,
			Status:      r.status,
			Confidence:  r.confidence,
			Suggestions: suggestRolls(roll, req.Roster),
		})
	}
	for _, u := range resp.Unreadable {
		var conf float64
		if u.Confidence != nil {
			conf = *u.Confidence
		}
		p.Unmatched = append(p.Unmatched, Unmatched{
			Raw:         u.Raw,
			Confidence:  conf,
			Suggestions: suggestRolls(u.Raw, req.Roster),
		})
	}
	return p, nil
}

// suggestRolls returns the roster roll numbers closest to `raw`, best first.
func suggestRolls(raw string, students []roster.Student) []string {
	type candidate struct {
		roll  string
		ratio float64
	}

	a := strings.Split(roster.NormalizeRoll(raw), "")
	candidates := make([]candidate, 0)
	for _, s := range students {
		b := strings.Split(roster.NormalizeRoll(s.RollNumber), "")
		ratio := difflib.NewMatcher(a, b).Ratio()
		if ratio >= minSuggestionRatio {
			candidates = append(candidates, candidate{roll: s.RollNumber, ratio: ratio})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].ratio > candidates[j].ratio })

	suggestions := make([]string, 0, maxSuggestions)
	for _, c := range candidates {
		if len(suggestions) == maxSuggestions {
			break
		}
		suggestions = append(suggestions, c.roll)
	}
	return suggestions
}
