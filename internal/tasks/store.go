// Package tasks holds the task model and the Store that owns the task list.
package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Persister loads and saves the full task list as one unit.
type Persister interface {
	Load(ctx context.Context) ([]Task, error)
	Save(ctx context.Context, tasks []Task) error
}

// Store is the only writer of the task list. Every successful mutation is
// followed by exactly one Save of the whole list.
type Store struct {
	mu      sync.RWMutex
	tasks   []Task
	p       Persister
	clock   clockwork.Clock
	newID   func() string
	logger  *slog.Logger
	loadErr error
}

type Option func(*Store)

func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// NewStore loads the saved list through p. A failed load leaves the store
// empty; the failure is kept in LoadErr.
func NewStore(ctx context.Context, p Persister, clock clockwork.Clock, opts ...Option) *Store {
	s := &Store{
		p:      p,
		clock:  clock,
		newID:  uuid.NewString,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}

	loaded, err := p.Load(ctx)
	if err != nil {
		s.loadErr = &PersistenceError{Op: "load", Err: err}
		s.logger.Warn("loading tasks failed, starting empty", "err", err)
		loaded = nil
	}
	s.tasks = make([]Task, 0, len(loaded))
	s.tasks = append(s.tasks, loaded...)
	return s
}

func (s *Store) LoadErr() error {
	return s.loadErr
}

// Tasks returns a copy of the list in insertion order.
func (s *Store) Tasks() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

func (s *Store) Get(id string) (Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return Task{}, false
	}
	return s.tasks[i].clone(), true
}

func (s *Store) Create(ctx context.Context, f Fields) (Task, error) {
	f, err := f.normalize()
	if err != nil {
		return Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := Task{
		ID:          s.uniqueID(),
		Title:       f.Title,
		Description: f.Description,
		Priority:    f.Priority,
		Category:    f.Category,
		DueDate:     f.DueDate,
		CreatedAt:   s.clock.Now().UTC(),
	}
	s.tasks = append(s.tasks, t)
	return t.clone(), s.save(ctx, "create")
}

// Update replaces the editable fields of the task with the given id. ID,
// Completed and CreatedAt are left alone.
func (s *Store) Update(ctx context.Context, id string, f Fields) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return Task{}, fmt.Errorf("update %s: %w", id, ErrNotFound)
	}
	f, err := f.normalize()
	if err != nil {
		return Task{}, err
	}

	t := &s.tasks[i]
	t.Title = f.Title
	t.Description = f.Description
	t.Priority = f.Priority
	t.Category = f.Category
	t.DueDate = f.DueDate
	return t.clone(), s.save(ctx, "update")
}

func (s *Store) ToggleComplete(ctx context.Context, id string) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return Task{}, fmt.Errorf("toggle %s: %w", id, ErrNotFound)
	}
	s.tasks[i].Completed = !s.tasks[i].Completed
	return s.tasks[i].clone(), s.save(ctx, "toggle")
}

// Delete removes the task with the given id. An unknown id is not an error.
func (s *Store) Delete(ctx context.Context, id string) ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(id); i >= 0 {
		s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	}
	return s.snapshot(), s.save(ctx, "delete")
}

// PurgeCompleted drops every completed task and reports how many went.
func (s *Store) PurgeCompleted(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if !t.Completed {
			kept = append(kept, t)
		}
	}
	removed := len(s.tasks) - len(kept)
	clear(s.tasks[len(kept):])
	s.tasks = kept
	return removed, s.save(ctx, "purge")
}

// save must be called with mu held.
func (s *Store) save(ctx context.Context, op string) error {
	if err := s.p.Save(ctx, s.snapshot()); err != nil {
		s.logger.Warn("saving tasks failed; change kept in memory", "op", op, "err", err)
		return &PersistenceError{Op: op, Err: err}
	}
	return nil
}

func (s *Store) snapshot() []Task {
	out := make([]Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.clone()
	}
	return out
}

func (s *Store) indexOf(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) uniqueID() string {
	for {
		id := s.newID()
		if id != "" && s.indexOf(id) < 0 {
			return id
		}
	}
}
