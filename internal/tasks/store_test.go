package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

type fakePersister struct {
	mu      sync.Mutex
	saved   []Task
	saves   int
	loadErr error
	saveErr error
}

func (f *fakePersister) Load(context.Context) ([]Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return append([]Task(nil), f.saved...), nil
}

func (f *fakePersister) Save(_ context.Context, list []Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append([]Task(nil), list...)
	return nil
}

var testNow = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) (*Store, *fakePersister) {
	t.Helper()
	p := &fakePersister{}
	n := 0
	s := NewStore(context.Background(), p, clockwork.NewFakeClockAt(testNow),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}))
	return s, p
}

func mustCreate(t *testing.T, s *Store, title string) Task {
	t.Helper()
	task, err := s.Create(context.Background(), Fields{Title: title})
	if err != nil {
		t.Fatalf("create %q: %v", title, err)
	}
	return task
}

func TestCreate(t *testing.T) {
	s, p := newTestStore(t)
	task, err := s.Create(context.Background(), Fields{
		Title:    "  Buy milk  ",
		Category: "home",
		DueDate:  NewDate(2024, 3, 11),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Title != "Buy milk" {
		t.Errorf("expected trimmed title, got %q", task.Title)
	}
	if task.Priority != PriorityMedium {
		t.Errorf("expected default priority medium, got %v", task.Priority)
	}
	if task.Completed {
		t.Error("new task should not be completed")
	}
	if !task.CreatedAt.Equal(testNow) {
		t.Errorf("expected createdAt %v, got %v", testNow, task.CreatedAt)
	}
	if p.saves != 1 {
		t.Errorf("expected 1 save, got %d", p.saves)
	}
	if len(p.saved) != 1 || p.saved[0].ID != task.ID {
		t.Fatalf("persisted list mismatch: %+v", p.saved)
	}
}

func TestCreate_BlankTitle(t *testing.T) {
	s, p := newTestStore(t)
	mustCreate(t, s, "first")

	for _, title := range []string{"", "   ", "\t\n"} {
		_, err := s.Create(context.Background(), Fields{Title: title})
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("title %q: expected ErrValidation, got %v", title, err)
		}
	}
	if got := len(s.Tasks()); got != 1 {
		t.Fatalf("expected list unchanged at 1, got %d", got)
	}
	if p.saves != 1 {
		t.Fatalf("rejected creates must not save, got %d saves", p.saves)
	}
}

func TestCreate_AppendsInOrder(t *testing.T) {
	s, _ := newTestStore(t)
	mustCreate(t, s, "a")
	mustCreate(t, s, "b")
	mustCreate(t, s, "c")

	var titles []string
	for _, task := range s.Tasks() {
		titles = append(titles, task.Title)
	}
	if fmt.Sprint(titles) != "[a b c]" {
		t.Fatalf("expected insertion order, got %v", titles)
	}
}

func TestCreate_SkipsTakenID(t *testing.T) {
	p := &fakePersister{saved: []Task{{ID: "dup", Title: "old", Priority: PriorityLow}}}
	ids := []string{"dup", "fresh"}
	s := NewStore(context.Background(), p, clockwork.NewFakeClockAt(testNow),
		WithIDGenerator(func() string {
			id := ids[0]
			ids = ids[1:]
			return id
		}))

	task := mustCreate(t, s, "new")
	if task.ID != "fresh" {
		t.Fatalf("expected generator to be retried past a taken id, got %q", task.ID)
	}
}

func TestUpdate(t *testing.T) {
	s, p := newTestStore(t)
	orig := mustCreate(t, s, "draft")
	if _, err := s.ToggleComplete(context.Background(), orig.ID); err != nil {
		t.Fatal(err)
	}

	got, err := s.Update(context.Background(), orig.ID, Fields{
		Title:       "final",
		Description: "details",
		Priority:    PriorityHigh,
		Category:    "work",
		DueDate:     NewDate(2024, 4, 1),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title != "final" || got.Description != "details" || got.Priority != PriorityHigh || got.Category != "work" {
		t.Fatalf("fields not replaced: %+v", got)
	}
	if got.DueDate == nil || got.DueDate.String() != "2024-04-01" {
		t.Fatalf("expected due date 2024-04-01, got %v", got.DueDate)
	}
	// Identity, completion and creation time are preserved.
	if got.ID != orig.ID || !got.Completed || !got.CreatedAt.Equal(orig.CreatedAt) {
		t.Fatalf("immutable fields changed: %+v", got)
	}
	if p.saves != 3 {
		t.Fatalf("expected 3 saves, got %d", p.saves)
	}
}

func TestUpdate_ClearsDueDate(t *testing.T) {
	s, _ := newTestStore(t)
	task, err := s.Create(context.Background(), Fields{Title: "x", DueDate: NewDate(2024, 1, 1)})
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.Update(context.Background(), task.ID, Fields{Title: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if got.DueDate != nil {
		t.Fatalf("expected due date cleared, got %v", got.DueDate)
	}
}

func TestUpdate_Errors(t *testing.T) {
	s, p := newTestStore(t)
	task := mustCreate(t, s, "keep me")

	if _, err := s.Update(context.Background(), "missing", Fields{Title: "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.Update(context.Background(), task.ID, Fields{Title: "  "}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	got, _ := s.Get(task.ID)
	if got.Title != "keep me" {
		t.Fatalf("failed update must not apply, got %q", got.Title)
	}
	if p.saves != 1 {
		t.Fatalf("failed updates must not save, got %d saves", p.saves)
	}
}

func TestToggleComplete(t *testing.T) {
	s, p := newTestStore(t)
	task := mustCreate(t, s, "toggle")

	on, err := s.ToggleComplete(context.Background(), task.ID)
	if err != nil || !on.Completed {
		t.Fatalf("expected completed after first toggle, got %+v, %v", on, err)
	}
	off, err := s.ToggleComplete(context.Background(), task.ID)
	if err != nil || off.Completed {
		t.Fatalf("expected active after second toggle, got %+v, %v", off, err)
	}
	if p.saves != 3 {
		t.Fatalf("each toggle saves once, got %d saves", p.saves)
	}

	if _, err := s.ToggleComplete(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	s, p := newTestStore(t)
	a := mustCreate(t, s, "a")
	mustCreate(t, s, "b")

	left, err := s.Delete(context.Background(), a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 1 || left[0].Title != "b" {
		t.Fatalf("unexpected list after delete: %+v", left)
	}

	left, err = s.Delete(context.Background(), "does-not-exist")
	if err != nil {
		t.Fatalf("deleting an unknown id should be silent, got %v", err)
	}
	if len(left) != 1 {
		t.Fatalf("expected length unchanged, got %d", len(left))
	}
	if p.saves != 4 {
		t.Fatalf("expected one save per call, got %d", p.saves)
	}
}

func TestPurgeCompleted(t *testing.T) {
	s, _ := newTestStore(t)
	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, mustCreate(t, s, fmt.Sprintf("t%d", i)).ID)
	}
	for _, i := range []int{0, 2, 4} {
		if _, err := s.ToggleComplete(context.Background(), ids[i]); err != nil {
			t.Fatal(err)
		}
	}

	n, err := s.PurgeCompleted(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("expected 3 removed, got %d", n)
	}
	left := s.Tasks()
	if len(left) != 2 || left[0].Title != "t1" || left[1].Title != "t3" {
		t.Fatalf("unexpected survivors: %+v", left)
	}
}

func TestSaveFailureKeepsMutation(t *testing.T) {
	s, p := newTestStore(t)
	p.saveErr = errors.New("disk full")

	task, err := s.Create(context.Background(), Fields{Title: "survives"})
	if !IsPersistence(err) {
		t.Fatalf("expected a persistence error, got %v", err)
	}
	var pe *PersistenceError
	if !errors.As(err, &pe) || pe.Op != "create" {
		t.Fatalf("expected op create, got %+v", pe)
	}
	if _, ok := s.Get(task.ID); !ok {
		t.Fatal("in-memory task should survive a failed save")
	}
}

func TestNewStore_LoadFailureStartsEmpty(t *testing.T) {
	p := &fakePersister{loadErr: errors.New("corrupt")}
	s := NewStore(context.Background(), p, clockwork.NewFakeClockAt(testNow))
	if len(s.Tasks()) != 0 {
		t.Fatal("expected empty list after failed load")
	}
	if !IsPersistence(s.LoadErr()) {
		t.Fatalf("expected load error to be kept, got %v", s.LoadErr())
	}
}

func TestTasksReturnsCopy(t *testing.T) {
	s, _ := newTestStore(t)
	task, err := s.Create(context.Background(), Fields{Title: "x", DueDate: NewDate(2024, 1, 1)})
	if err != nil {
		t.Fatal(err)
	}
	snap := s.Tasks()
	snap[0].Title = "mutated"
	*snap[0].DueDate = *NewDate(1999, 1, 1)

	got, _ := s.Get(task.ID)
	if got.Title != "x" || got.DueDate.String() != "2024-01-01" {
		t.Fatalf("snapshot mutation leaked into store: %+v", got)
	}
}
