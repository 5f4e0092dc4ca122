// Package view derives the displayed task list: filters, sorting and the
// category list offered to filter controls.
package view

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"taskly/internal/tasks"
)

// AllCategories is the leading entry of Categories and the string form of
// the match-anything category filter.
const AllCategories = "all"

type Status int

const (
	StatusAll Status = iota
	StatusActive
	StatusCompleted
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusCompleted:
		return "completed"
	default:
		return "all"
	}
}

// Next cycles all -> active -> completed -> all.
func (s Status) Next() Status {
	return (s + 1) % 3
}

func ParseStatus(v string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "all":
		return StatusAll, nil
	case "active":
		return StatusActive, nil
	case "completed", "done":
		return StatusCompleted, nil
	default:
		return StatusAll, fmt.Errorf("unknown status filter %q", v)
	}
}

type SortKey int

const (
	SortCreatedAt SortKey = iota
	SortDueDate
	SortPriority
)

func (k SortKey) String() string {
	switch k {
	case SortDueDate:
		return "dueDate"
	case SortPriority:
		return "priority"
	default:
		return "createdAt"
	}
}

func ParseSort(v string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "createdat", "created":
		return SortCreatedAt, nil
	case "duedate", "due":
		return SortDueDate, nil
	case "priority":
		return SortPriority, nil
	default:
		return SortCreatedAt, fmt.Errorf("unknown sort key %q", v)
	}
}

type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

func (d Direction) Flip() Direction {
	if d == Descending {
		return Ascending
	}
	return Descending
}

func ParseDirection(v string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	default:
		return Ascending, fmt.Errorf("unknown sort direction %q", v)
	}
}

// CategoryFilter matches tasks by exact category. The zero value matches
// everything; ForCategory("") matches only uncategorized tasks.
type CategoryFilter struct {
	name string
	set  bool
}

func ForCategory(name string) CategoryFilter {
	return CategoryFilter{name: name, set: true}
}

// ParseCategory maps "all" to the zero filter and anything else to an
// exact match.
func ParseCategory(v string) CategoryFilter {
	if v == AllCategories {
		return CategoryFilter{}
	}
	return ForCategory(v)
}

func (c CategoryFilter) IsAll() bool { return !c.set }

func (c CategoryFilter) Match(category string) bool {
	return !c.set || c.name == category
}

func (c CategoryFilter) String() string {
	if !c.set {
		return AllCategories
	}
	return c.name
}

// Query selects and orders the view. Its zero value shows every task
// ascending by creation time.
type Query struct {
	Status    Status
	Category  CategoryFilter
	Priority  tasks.Priority // zero matches every priority
	Sort      SortKey
	Direction Direction
}

func (q Query) Match(t tasks.Task) bool {
	switch q.Status {
	case StatusActive:
		if t.Completed {
			return false
		}
	case StatusCompleted:
		if !t.Completed {
			return false
		}
	}
	if !q.Category.Match(t.Category) {
		return false
	}
	if q.Priority != 0 && t.Priority != q.Priority {
		return false
	}
	return true
}

// Apply filters list and returns a stably sorted copy. list is not modified.
func Apply(list []tasks.Task, q Query) []tasks.Task {
	out := make([]tasks.Task, 0, len(list))
	for _, t := range list {
		if q.Match(t) {
			out = append(out, t)
		}
	}
	cmpFn := compareFunc(q.Sort)
	if q.Direction == Descending {
		slices.SortStableFunc(out, func(a, b tasks.Task) int { return -cmpFn(a, b) })
	} else {
		slices.SortStableFunc(out, cmpFn)
	}
	return out
}

func compareFunc(k SortKey) func(a, b tasks.Task) int {
	switch k {
	case SortDueDate:
		return compareDueDate
	case SortPriority:
		return func(a, b tasks.Task) int {
			return cmp.Compare(a.Priority.Weight(), b.Priority.Weight())
		}
	default:
		return func(a, b tasks.Task) int {
			return a.CreatedAt.Compare(b.CreatedAt)
		}
	}
}

// compareDueDate orders undated tasks after dated ones; two undated tasks
// are equal.
func compareDueDate(a, b tasks.Task) int {
	switch {
	case a.DueDate == nil && b.DueDate == nil:
		return 0
	case a.DueDate == nil:
		return 1
	case b.DueDate == nil:
		return -1
	}
	return a.DueDate.Time().Compare(b.DueDate.Time())
}

// Categories lists "all" followed by each distinct non-empty category in
// first-seen order.
func Categories(list []tasks.Task) []string {
	out := []string{AllCategories}
	seen := make(map[string]struct{})
	for _, t := range list {
		if t.Category == "" {
			continue
		}
		if _, ok := seen[t.Category]; ok {
			continue
		}
		seen[t.Category] = struct{}{}
		out = append(out, t.Category)
	}
	return out
}

// Remaining counts incomplete tasks.
func Remaining(list []tasks.Task) int {
	n := 0
	for _, t := range list {
		if !t.Completed {
			n++
		}
	}
	return n
}
