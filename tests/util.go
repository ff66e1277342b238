package testutil

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/roster"
	"github.com/trezcool/darasa/core/schedule"
	"github.com/trezcool/darasa/core/vision"
	logsvc "github.com/trezcool/darasa/services/logger"
)

// NewConfig returns the app config tuned for tests.
func NewConfig() *core.Config {
	conf := core.NewConfig()
	conf.Debug = false
	conf.TestMode = true
	conf.Server.DisableReqLogs = true
	conf.Vision.SampleSize = 3
	conf.Vision.ConfidenceThreshold = 0.75
	conf.Schedule.MinGap = 0
	return conf
}

func NewLogger() core.Logger {
	return logsvc.NewStdLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags))
}

// NewValidator returns a validator with every custom tag and translation registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")

	validate := validator.New()
	core.InitValidators(validate, translator)
	schedule.InitValidators(validate, translator)
	return validate, translator
}

type AcademicYearCreator interface {
	CreateAcademicYear(ctx context.Context, ay schedule.AcademicYear, exec ...core.DBExecutor) (schedule.AcademicYear, error)
}

func CreateAcademicYear(t *testing.T, repo AcademicYearCreator, institutionID string, year int) schedule.AcademicYear {
	ay, err := repo.CreateAcademicYear(context.Background(), schedule.AcademicYear{
		ID:            fmt.Sprintf("ay-%s-%d", institutionID, year),
		InstitutionID: institutionID,
		Name:          fmt.Sprintf("%d-%d", year, year+1),
		StartDate:     time.Date(year, time.September, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(year+1, time.June, 30, 0, 0, 0, 0, time.UTC),
		IsCurrent:     true,
	})
	if err != nil {
		t.Fatalf("CreateAcademicYear() failed: %v", err)
	}
	return ay
}

func CreateSlot(
	t *testing.T,
	svc schedule.ServiceInterface,
	institutionID, teacherID string,
	day schedule.Day,
	start, end string,
	classID ...string,
) schedule.Slot {
	cls := "class-1"
	if len(classID) > 0 {
		cls = classID[0]
	}
	slot, err := svc.Create(context.Background(), schedule.NewSlot{
		InstitutionID: institutionID,
		TeacherID:     teacherID,
		ClassID:       cls,
		SubjectID:     "math",
		Day:           day,
		StartTime:     start,
		EndTime:       end,
	})
	if err != nil {
		t.Fatalf("CreateSlot() failed: %v", err)
	}
	return slot
}

// Students returns a roster of `n` students with roll numbers 1..n.
func Students(classID string, n int) []roster.Student {
	students := make([]roster.Student, 0, n)
	for i := 1; i <= n; i++ {
		students = append(students, roster.Student{
			ID:         fmt.Sprintf("%s-stu-%d", classID, i),
			ClassID:    classID,
			RollNumber: fmt.Sprint(i),
			Name:       fmt.Sprintf("Student %d", i),
		})
	}
	return students
}

// VisionProviderMock answers every request with Text, or fails with Err.
type VisionProviderMock struct {
	Text string
	Err  error

	Calls   int
	Prompts []string
}

func (p *VisionProviderMock) Generate(_ context.Context, req vision.Request) (string, error) {
	p.Calls++
	p.Prompts = append(p.Prompts, req.Prompt)
	if p.Err != nil {
		return "", p.Err
	}
	return p.Text, nil
}
