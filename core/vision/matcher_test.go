package vision_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/roster"
	"github.com/trezcool/darasa/core/vision"
	"github.com/trezcool/darasa/tests"
)

var targetDate = time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC)

func newMatcher(text string) (*vision.Matcher, *testutil.VisionProviderMock) {
	provider := &testutil.VisionProviderMock{Text: text}
	return vision.NewMatcher(provider, testutil.NewConfig(), testutil.NewLogger()), provider
}

func extract(t *testing.T, m *vision.Matcher, rosterSize int) (*vision.Proposal, error) {
	return m.Extract(context.Background(), vision.ExtractRequest{
		Image:      []byte("image"),
		MimeType:   "image/jpeg",
		Roster:     testutil.Students("6A", rosterSize),
		TargetDate: targetDate,
	})
}

func statuses(p *vision.Proposal) map[string]vision.Status {
	got := make(map[string]vision.Status, len(p.Entries))
	for _, d := range p.Entries {
		got[d.RollNumber] = d.Status
	}
	return got
}

func TestMatcher_rollList(t *testing.T) {
	m, _ := newMatcher(`{"mode":"ROLL_NUMBER_LIST","entries":[{"roll":1,"confidence":0.9},{"roll":"3","confidence":0.95},{"roll":"05","confidence":0.8}]}`)

	p, err := extract(t, m, 5)
	require.NoError(t, err)
	assert.Equal(t, vision.ModeRollList, p.Mode)
	assert.Equal(t, "2026-10-19", p.TargetDate)
	assert.Equal(t, map[string]vision.Status{
		"1": vision.StatusPresent,
		"2": vision.StatusAbsent,
		"3": vision.StatusPresent,
		"4": vision.StatusAbsent,
		"5": vision.StatusPresent,
	}, statuses(p))
	assert.Empty(t, p.ForReview())
	assert.Empty(t, p.Unmatched)

	// unlisted students are absent by deduction
	assert.True(t, p.Entries[1].Inferred)
	assert.False(t, p.Entries[0].Inferred)
	assert.Equal(t, "6A-stu-2", p.Entries[1].StudentID)
}

func TestMatcher_confidenceThreshold(t *testing.T) {
	m, _ := newMatcher(`{"mode":"ROLL_NUMBER_LIST","entries":[
		{"roll":1,"confidence":0.75},{"roll":2,"confidence":0.74},{"roll":3}
	]}`)

	p, err := extract(t, m, 3)
	require.NoError(t, err)
	assert.False(t, p.Entries[0].NeedsReview, "the threshold itself is confident enough")
	assert.True(t, p.Entries[1].NeedsReview)
	assert.True(t, p.Entries[2].NeedsReview, "no confidence means review")
	assert.Len(t, p.ForReview(), 2)
}

func TestMatcher_chart(t *testing.T) {
	t.Run("missing rows", func(t *testing.T) {
		m, _ := newMatcher(`{"mode":"ATTENDANCE_CHART","date":"2026-10-19","entries":[
			{"roll":1,"status":"present","confidence":0.9},{"roll":2,"status":"absent","confidence":0.9}
		]}`)

		p, err := extract(t, m, 3)
		require.NoError(t, err)
		assert.Equal(t, vision.ModeChart, p.Mode)
		assert.Equal(t, map[string]vision.Status{
			"1": vision.StatusPresent,
			"2": vision.StatusAbsent,
			"3": vision.StatusAbsent,
		}, statuses(p))
		assert.True(t, p.Entries[2].Inferred)
		assert.True(t, p.Entries[2].NeedsReview)
		assert.False(t, p.Entries[1].NeedsReview)
	})

	for _, tt := range []struct {
		name string
		text string
	}{
		{name: "other date", text: `{"mode":"ATTENDANCE_CHART","date":"2026-10-12","entries":[{"roll":1,"status":"present","confidence":0.9}]}`},
		{name: "no date", text: `{"mode":"ATTENDANCE_CHART","entries":[{"roll":1,"status":"present","confidence":0.9}]}`},
		{name: "no status", text: `{"mode":"ATTENDANCE_CHART","date":"2026-10-19","entries":[{"roll":1,"confidence":0.9}]}`},
	} {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newMatcher(tt.text)
			p, err := extract(t, m, 3)
			assert.Nil(t, p)
			assert.True(t, vision.IsProviderError(err), "err = %v", err)
		})
	}
}

func TestMatcher_rejectsInvalidResponses(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "empty", text: "  "},
		{name: "prose", text: "The photo shows rolls 1 and 3."},
		{name: "unknown mode", text: `{"mode":"SEATING_PLAN","entries":[]}`},
		{name: "unknown field", text: `{"mode":"ROLL_NUMBER_LIST","entries":[],"notes":"blurry"}`},
		{name: "trailing data", text: `{"mode":"ROLL_NUMBER_LIST","entries":[]} {"mode":"ROLL_NUMBER_LIST"}`},
		{name: "confidence out of range", text: `{"mode":"ROLL_NUMBER_LIST","entries":[{"roll":1,"confidence":1.5}]}`},
		{name: "bad status", text: `{"mode":"ROLL_NUMBER_LIST","entries":[{"roll":1,"status":"late"}]}`},
		{name: "roll object", text: `{"mode":"ROLL_NUMBER_LIST","entries":[{"roll":{"n":1}}]}`},
		{name: "contradicting duplicates", text: `{"mode":"ATTENDANCE_CHART","date":"2026-10-19","entries":[
			{"roll":1,"status":"present","confidence":0.9},{"roll":"01","status":"absent","confidence":0.9}
		]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newMatcher(tt.text)
			p, err := extract(t, m, 3)
			assert.Nil(t, p)
			require.Error(t, err)
			assert.True(t, vision.IsProviderError(err), "err = %v", err)
		})
	}
}

func TestMatcher_fencedResponse(t *testing.T) {
	m, _ := newMatcher("```json\n{\"mode\":\"ROLL_NUMBER_LIST\",\"entries\":[{\"roll\":2,\"confidence\":0.9}]}\n```")
	p, err := extract(t, m, 2)
	require.NoError(t, err)
	assert.Equal(t, vision.StatusPresent, p.Entries[1].Status)
}

func TestMatcher_duplicatesKeepLowestConfidence(t *testing.T) {
	m, _ := newMatcher(`{"mode":"ROLL_NUMBER_LIST","entries":[{"roll":1,"confidence":0.9},{"roll":"001","confidence":0.6}]}`)
	p, err := extract(t, m, 2)
	require.NoError(t, err)
	assert.Equal(t, 0.6, p.Entries[0].Confidence)
	assert.True(t, p.Entries[0].NeedsReview)
}

func TestMatcher_unmatched(t *testing.T) {
	m, _ := newMatcher(`{"mode":"ROLL_NUMBER_LIST","entries":[{"roll":1,"confidence":0.9},{"roll":12,"confidence":0.8}],
		"unreadable":[{"raw":"4?","confidence":0.3}]}`)

	p, err := extract(t, m, 5)
	require.NoError(t, err)
	require.Len(t, p.Unmatched, 2)

	assert.Equal(t, "12", p.Unmatched[0].Raw)
	assert.Equal(t, vision.StatusPresent, p.Unmatched[0].Status)
	assert.Equal(t, 0.8, p.Unmatched[0].Confidence)
	assert.Equal(t, []string{"1", "2"}, p.Unmatched[0].Suggestions)

	assert.Equal(t, "4?", p.Unmatched[1].Raw)
	assert.Equal(t, []string{"4"}, p.Unmatched[1].Suggestions)

	// an unmatched roll never marks a roster student
	assert.Equal(t, vision.StatusAbsent, p.Entries[1].Status)
}

func TestMatcher_promptIsBounded(t *testing.T) {
	m, provider := newMatcher(`{"mode":"ROLL_NUMBER_LIST","entries":[]}`)

	_, err := extract(t, m, 40)
	require.NoError(t, err)
	require.Len(t, provider.Prompts, 1)

	prompt := provider.Prompts[0]
	assert.Contains(t, prompt, "from 1 to 40")
	assert.Contains(t, prompt, "2026-10-19")
	assert.Equal(t, 3, strings.Count(prompt, ": Student "))
	assert.Contains(t, prompt, "- 1: Student 1\n")
	assert.Contains(t, prompt, "- 40: Student 40\n")
}

func TestMatcher_providerFailure(t *testing.T) {
	m, provider := newMatcher("")

	provider.Err = errors.New("dial tcp: i/o timeout")
	_, err := extract(t, m, 3)
	require.True(t, vision.IsProviderError(err))
	assert.Contains(t, err.Error(), "i/o timeout")

	pErr := &vision.ProviderError{Reason: "missing credentials", Err: vision.ErrMissingCredentials}
	provider.Err = pErr
	_, err = extract(t, m, 3)
	assert.Equal(t, pErr, err)
}

func TestMatcher_invalidRequest(t *testing.T) {
	m, provider := newMatcher(`{"mode":"ROLL_NUMBER_LIST","entries":[]}`)
	ctx := context.Background()

	_, err := m.Extract(ctx, vision.ExtractRequest{Roster: testutil.Students("6A", 2), TargetDate: targetDate})
	assert.True(t, core.IsValidationError(err))
	_, err = m.Extract(ctx, vision.ExtractRequest{Image: []byte("x"), TargetDate: targetDate})
	assert.True(t, core.IsValidationError(err))
	_, err = m.Extract(ctx, vision.ExtractRequest{Image: []byte("x"), Roster: testutil.Students("6A", 2)})
	assert.True(t, core.IsValidationError(err))
	assert.Zero(t, provider.Calls)
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{in: `{"a":1}`, want: `{"a":1}`},
		{in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{in: "```\n{\"a\":1}\n```\n", want: `{"a":1}`},
		{in: "  ```JSON\n{\"a\":1}```  ", want: `{"a":1}`},
		{in: "```{\"a\":1}```", want: `{"a":1}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, vision.StripFences(tt.in), tt.in)
	}
}

func TestMatcher_sharedRollNumbersNeedReview(t *testing.T) {
	m, _ := newMatcher(`{"mode":"ROLL_NUMBER_LIST","entries":[{"roll":1,"confidence":0.9}]}`)

	p, err := m.Extract(context.Background(), vision.ExtractRequest{
		Image: []byte("image"),
		Roster: []roster.Student{
			{ID: "a", RollNumber: "1", Name: "Amani"},
			{ID: "b", RollNumber: "01", Name: "Baraka"},
			{ID: "c", RollNumber: "2", Name: "Chausiku"},
		},
		TargetDate: targetDate,
	})
	require.NoError(t, err)
	require.Len(t, p.Entries, 3, "every roster student gets a detection")
	assert.Empty(t, p.Unmatched)

	byStudent := make(map[string]vision.Detection, len(p.Entries))
	for _, d := range p.Entries {
		byStudent[d.StudentID] = d
	}
	assert.True(t, byStudent["a"].NeedsReview)
	assert.True(t, byStudent["b"].NeedsReview)
	assert.Equal(t, vision.StatusPresent, byStudent["b"].Status)
	assert.False(t, byStudent["c"].NeedsReview)
	assert.Equal(t, vision.StatusAbsent, byStudent["c"].Status)
}
