package vision

import (
	"fmt"
	"strings"
	"time"

	"github.com/trezcool/darasa/core/roster"
)

const promptTemplate = `You are reading a photo of a school attendance record.

The class roster uses roll numbers %s.
Some roster entries, as "roll number: name":
%s
Decide which kind of document the photo shows and answer with JSON only, no prose, using exactly one of these shapes:

1. A list of roll numbers of the students who are present:
{"mode": "ROLL_NUMBER_LIST", "entries": [{"roll": "<roll number>", "confidence": <0..1>}], "unreadable": [{"raw": "<text>", "confidence": <0..1>}]}

2. An attendance chart with one row per student and one column per date. Read only the column of %s:
{"mode": "ATTENDANCE_CHART", "date": "%s", "entries": [{"roll": "<roll number>", "status": "present" | "absent", "confidence": <0..1>}], "unreadable": [{"raw": "<text>", "confidence": <0..1>}]}

Rules:
- "confidence" is how sure you are of the roll number and status you read, from 0 to 1.
- Report every roll number you can read, even if it does not look like one of the roster's.
- Put anything you cannot read as a roll number in "unreadable".
- Do not guess students you cannot see.`

// PromptInput is the bounded context sent along with the image.
type PromptInput struct {
	Sample     []roster.Student
	MinRoll    int
	MaxRoll    int
	HasRange   bool
	TargetDate time.Time
}

// NewPromptInput samples at most `sampleSize` roster entries and computes the numeric roll range.
func NewPromptInput(students []roster.Student, sampleSize int, targetDate time.Time) PromptInput {
	min, max, ok := roster.RollRange(students)
	return PromptInput{
		Sample:     roster.Sample(students, sampleSize),
		MinRoll:    min,
		MaxRoll:    max,
		HasRange:   ok,
		TargetDate: targetDate,
	}
}

func BuildPrompt(in PromptInput) string {
	rng := "as listed below"
	if in.HasRange {
		rng = fmt.Sprintf("from %d to %d", in.MinRoll, in.MaxRoll)
	}

	var sample strings.Builder
	for _, s := range in.Sample {
		fmt.Fprintf(&sample, "- %s: %s\n", s.RollNumber, s.Name)
	}

	date := in.TargetDate.Format("2006-01-02")
	return fmt.Sprintf(promptTemplate, rng, sample.String(), date, date)
}
