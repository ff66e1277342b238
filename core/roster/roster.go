package roster

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrClassNotFound = errors.New("class not found")
)

// Student is one entry of a class roster.
type Student struct {
	ID         string `json:"id"`
	ClassID    string `json:"class_id"`
	RollNumber string `json:"roll_number"`
	Name       string `json:"name"`
}

// Provider returns class rosters, ordered by roll number.
type Provider interface {
	ClassRoster(ctx context.Context, classID string) ([]Student, error)
}

// NormalizeRoll trims `roll` and drops leading zeros of numeric roll numbers ("007" -> "7").
func NormalizeRoll(roll string) string {
	roll = strings.TrimSpace(roll)
	if n, err := strconv.Atoi(roll); err == nil && n >= 0 {
		return strconv.Itoa(n)
	}
	return strings.ToUpper(roll)
}

// Sample returns at most `n` students spread evenly over the roster, first and last included.
func Sample(students []Student, n int) []Student {
	if n <= 0 {
		return nil
	}
	if len(students) <= n {
		return append([]Student(nil), students...)
	}
	if n == 1 {
		return []Student{students[0]}
	}
	sample := make([]Student, 0, n)
	step := float64(len(students)-1) / float64(n-1)
	for i := 0; i < n; i++ {
		sample = append(sample, students[int(float64(i)*step+0.5)])
	}
	return sample
}

// RollRange returns the smallest and largest numeric roll numbers of the roster.
// ok is false if no roll number is numeric.
func RollRange(students []Student) (min, max int, ok bool) {
	for _, s := range students {
		n, err := strconv.Atoi(strings.TrimSpace(s.RollNumber))
		if err != nil {
			continue
		}
		if !ok || n < min {
			min = n
		}
		if !ok || n > max {
			max = n
		}
		ok = true
	}
	return min, max, ok
}

// SortKey orders roll numbers numerically when possible, falling back to string order.
func SortKey(roll string) (int, string) {
	roll = NormalizeRoll(roll)
	if n, err := strconv.Atoi(roll); err == nil {
		return n, ""
	}
	return int(^uint(0) >> 1), roll
}

// Less reports whether roll number `a` sorts before `b`.
func Less(a, b string) bool {
	an, as := SortKey(a)
	bn, bs := SortKey(b)
	if an != bn {
		return an < bn
	}
	return as < bs
}
