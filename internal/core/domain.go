package core

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the ISO date format exchanged with the expenses API.
const DateLayout = "2006-01-02"

type (
	Date struct {
		time.Time
	}

	Category struct {
		ID   int64
		Name string
	}

	Expense struct {
		ID          int64
		Amount      Money
		Category    string // display name, normalized on ingress
		CategoryID  int64  // zero when the API only sent a name
		Description string
		Date        Date
	}

	// MonthlyReport is the server-computed aggregate for the current month.
	MonthlyReport struct {
		Month string
		Total Money
	}
)

var ErrInvalidDate = errors.New("invalid date")

// ParseDate accepts "2006-01-02" and full timestamps, keeping only the date part.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		s = s[:i]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ISO returns the wire representation, or "" for the zero date.
func (d Date) ISO() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Display formats the date for list rows.
func (d Date) Display() string {
	if d.IsZero() {
		return "Invalid date"
	}
	return d.Format("02 Jan 2006")
}

// DescriptionOrPlaceholder returns the description shown in list rows.
func (e Expense) DescriptionOrPlaceholder() string {
	if strings.TrimSpace(e.Description) == "" {
		return "No description"
	}
	return e.Description
}
