package tasks

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

type Priority int

const (
	PriorityLow Priority = iota + 1
	PriorityMedium
	PriorityHigh
)

func (p Priority) Valid() bool {
	return p >= PriorityLow && p <= PriorityHigh
}

// Weight is the sort weight of p: high=3, medium=2, low=1.
func (p Priority) Weight() int {
	return int(p)
}

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	default:
		return ""
	}
}

func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "l":
		return PriorityLow, nil
	case "medium", "med", "m":
		return PriorityMedium, nil
	case "high", "h":
		return PriorityHigh, nil
	default:
		return 0, fmt.Errorf("unknown priority %q", s)
	}
}

func (p Priority) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid priority %d", int(p))
	}
	return []byte(p.String()), nil
}

func (p *Priority) UnmarshalText(b []byte) error {
	parsed, err := ParsePriority(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Date is a due date. Plain YYYY-MM-DD values are held as UTC midnight;
// anything carrying a time of day keeps it.
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) *Date {
	return &Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func DateAt(t time.Time) *Date {
	return &Date{t: t}
}

// ParseDate accepts YYYY-MM-DD or RFC 3339. An empty string means no date.
func ParseDate(s string) (*Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return &Date{t: t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return &Date{t: t}, nil
}

func (d Date) Time() time.Time { return d.t }

func (d Date) IsZero() bool { return d.t.IsZero() }

func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }

func (d Date) String() string {
	return d.t.Format(dateLayout)
}

func (d Date) MarshalText() ([]byte, error) {
	if d.t.Equal(d.t.Truncate(24*time.Hour)) && d.t.Location() == time.UTC {
		return []byte(d.t.Format(dateLayout)), nil
	}
	return []byte(d.t.Format(time.RFC3339)), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		d.t = time.Time{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = *parsed
	return nil
}

// Task is a single tracked item. Field names are the persisted layout.
type Task struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
	Completed   bool      `json:"completed" yaml:"completed"`
	Priority    Priority  `json:"priority" yaml:"priority"`
	Category    string    `json:"category" yaml:"category"`
	DueDate     *Date     `json:"dueDate" yaml:"dueDate"`
	CreatedAt   time.Time `json:"createdAt" yaml:"createdAt"`
}

func (t Task) clone() Task {
	if t.DueDate != nil {
		d := *t.DueDate
		t.DueDate = &d
	}
	return t
}

// Fields carries the user-editable part of a Task. A zero Priority means medium.
type Fields struct {
	Title       string
	Description string
	Priority    Priority
	Category    string
	DueDate     *Date
}

func (f Fields) normalize() (Fields, error) {
	f.Title = strings.TrimSpace(f.Title)
	if f.Title == "" {
		return f, ErrValidation
	}
	if f.Priority == 0 {
		f.Priority = PriorityMedium
	}
	if !f.Priority.Valid() {
		return f, fmt.Errorf("%w: priority %d", ErrValidation, int(f.Priority))
	}
	if f.DueDate != nil {
		if f.DueDate.IsZero() {
			f.DueDate = nil
		} else {
			d := *f.DueDate
			f.DueDate = &d
		}
	}
	return f, nil
}

// Fields returns the editable part of t, e.g. to seed an edit form.
func (t Task) Fields() Fields {
	return Fields{
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Category:    t.Category,
		DueDate:     t.clone().DueDate,
	}
}
