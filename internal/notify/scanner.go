// Package notify runs the periodic due-soon scan and hands newly due tasks
// to a callback.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"taskly/internal/due"
	"taskly/internal/tasks"
)

const DefaultInterval = time.Hour

// Source is the read side of tasks.Store.
type Source interface {
	Tasks() []tasks.Task
}

// Func receives the tasks that became due soon since the previous scan.
type Func func(due []tasks.Task)

// Scanner reports each incomplete task once when it enters the due-soon
// window. A task that leaves the window and comes back is reported again.
type Scanner struct {
	src      Source
	clock    clockwork.Clock
	interval time.Duration
	notify   Func
	logger   *slog.Logger

	mu       sync.Mutex
	notified map[string]struct{}
}

func NewScanner(src Source, clock clockwork.Clock, interval time.Duration, fn Func, logger *slog.Logger) *Scanner {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		src:      src,
		clock:    clock,
		interval: interval,
		notify:   fn,
		logger:   logger,
		notified: make(map[string]struct{}),
	}
}

// Scan checks the current list once and returns the newly due tasks.
func (s *Scanner) Scan() []tasks.Task {
	now := s.clock.Now()

	s.mu.Lock()
	current := make(map[string]struct{})
	var fresh []tasks.Task
	for _, t := range s.src.Tasks() {
		if t.Completed || !due.IsDueSoon(t.DueDate, now) {
			continue
		}
		current[t.ID] = struct{}{}
		if _, seen := s.notified[t.ID]; !seen {
			fresh = append(fresh, t)
		}
	}
	s.notified = current
	s.mu.Unlock()

	s.logger.Debug("due-soon scan", "due_soon", len(current), "new", len(fresh))
	if len(fresh) > 0 && s.notify != nil {
		s.notify(fresh)
	}
	return fresh
}

// Run scans immediately and then once per interval until ctx is done.
func (s *Scanner) Run(ctx context.Context) error {
	s.Scan()

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			s.Scan()
		}
	}
}

// LogFunc returns a Func that logs one line per due task.
func LogFunc(logger *slog.Logger) Func {
	return func(list []tasks.Task) {
		for _, t := range list {
			logger.Info("task is due soon", "id", t.ID, "title", t.Title, "due", due.Format(t.DueDate))
		}
	}
}
