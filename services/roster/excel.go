package rostersvc

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/roster"
)

var (
	// errors
	ErrNoSheet = errors.New("excel file does not contain any sheets")
)

// ParseRosterSheet reads the first sheet of an .xlsx roster.
// Row 1 is a header; then column A is the roll number, B the name and C an optional student ID
// (generated when missing). Rows without roll number or name are skipped.
func ParseRosterSheet(r io.Reader, classID string) ([]roster.Student, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "opening excel file")
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, ErrNoSheet
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "reading rows of sheet %q", sheet)
	}

	students := make([]roster.Student, 0, len(rows))
	seen := make(map[string]int, len(rows))
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		cell := func(col int) string {
			if col < len(row) {
				return core.CleanString(row[col])
			}
			return ""
		}

		s := roster.Student{ClassID: classID, RollNumber: cell(0), Name: cell(1), ID: cell(2)}
		if s.RollNumber == "" || s.Name == "" {
			continue
		}
		roll := roster.NormalizeRoll(s.RollNumber)
		if prev, dup := seen[roll]; dup {
			return nil, fmt.Errorf("row %d: roll number %s already used on row %d", i+1, s.RollNumber, prev)
		}
		seen[roll] = i + 1
		if s.ID == "" {
			s.ID = uuid.New().String()
		}
		students = append(students, s)
	}
	return students, nil
}

// ImportExcel replaces the roster of `classID` with the students of an .xlsx file.
func (p *RedisProvider) ImportExcel(ctx context.Context, r io.Reader, classID string) (int, error) {
	students, err := ParseRosterSheet(r, classID)
	if err != nil {
		return 0, err
	}
	if err = p.SetClassRoster(ctx, classID, students); err != nil {
		return 0, err
	}
	return len(students), nil
}
