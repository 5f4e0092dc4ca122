// Package due classifies task due dates relative to a supplied "now".
package due

import (
	"time"

	"taskly/internal/tasks"
)

// SoonWindow is how far ahead a due date counts as due soon.
const SoonWindow = 24 * time.Hour

type Status int

const (
	None Status = iota
	Normal
	DueSoon
	Overdue
)

func (s Status) String() string {
	switch s {
	case Normal:
		return "normal"
	case DueSoon:
		return "due soon"
	case Overdue:
		return "overdue"
	default:
		return "none"
	}
}

// IsOverdue reports whether d is set and strictly before now.
func IsOverdue(d *tasks.Date, now time.Time) bool {
	return d != nil && d.Time().Before(now)
}

// IsDueSoon reports whether d is set, after now, and no more than
// SoonWindow away.
func IsDueSoon(d *tasks.Date, now time.Time) bool {
	if d == nil {
		return false
	}
	diff := d.Time().Sub(now)
	return diff > 0 && diff <= SoonWindow
}

// Classify picks the display state of t. Completed tasks are never
// overdue or due soon.
func Classify(t tasks.Task, now time.Time) Status {
	switch {
	case t.DueDate == nil:
		return None
	case t.Completed:
		return Normal
	case IsOverdue(t.DueDate, now):
		return Overdue
	case IsDueSoon(t.DueDate, now):
		return DueSoon
	default:
		return Normal
	}
}

// Format renders d for display, e.g. "Jun 1, 2024".
func Format(d *tasks.Date) string {
	if d == nil {
		return "No due date"
	}
	return d.Time().Format("Jan 2, 2006")
}
