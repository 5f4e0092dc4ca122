package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"

	"taskly/internal/config"
	"taskly/internal/notify"
	"taskly/internal/tasks"
	"taskly/internal/view"
)

type mode int

const (
	modeList mode = iota
	modeAdd
	modeMetadata
)

type confirmKind int

const (
	confirmNone confirmKind = iota
	confirmDelete
	confirmPurge
)

// dueSoonMsg carries a scanner batch into the program.
type dueSoonMsg []tasks.Task

type metaState struct {
	taskID      string
	title       string
	description string
	priority    string
	category    string
	due         string
	index       int
}

type Model struct {
	store       *tasks.Store
	cfg         config.Config
	clock       clockwork.Clock
	query       view.Query
	tasks       []tasks.Task
	cursor      int
	mode        mode
	input       textinput.Model
	status      string
	confirm     confirmKind
	pendingDel  *tasks.Task
	pendingKeys string
	persistErr  bool
	meta        *metaState
}

// New builds the list view over store using the configured default query.
func New(store *tasks.Store, cfg config.Config, clock clockwork.Clock) Model {
	ti := textinput.New()
	ti.Placeholder = "Task title"
	ti.CharLimit = 256
	ti.Width = 40

	m := Model{
		store:  store,
		cfg:    cfg,
		clock:  clock,
		query:  cfg.Query(),
		input:  ti,
		mode:   modeList,
		status: fmt.Sprintf("Press '%s' to add, space to toggle, '%s' to delete.", cfg.Keys.Add, cfg.Keys.Delete),
	}
	if err := store.LoadErr(); err != nil {
		m.persistErr = true
		m.status = fmt.Sprintf("Could not load saved tasks: %v", err)
	}
	m.refresh()
	return m
}

// Run starts the TUI and a due-soon scanner feeding it. The scanner stops
// when the program exits.
func Run(ctx context.Context, store *tasks.Store, cfg config.Config, clock clockwork.Clock, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(New(store, cfg, clock), tea.WithContext(ctx))
	scanner := notify.NewScanner(store, clock, cfg.ScanInterval(), func(list []tasks.Task) {
		program.Send(dueSoonMsg(list))
	}, logger)
	go func() {
		if err := scanner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("due-soon scanner stopped", "err", err)
		}
	}()

	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.meta != nil {
			return m.updateMetadataMode(msg.String(), msg)
		}
		if m.confirm != confirmNone {
			return m.updateConfirm(msg.String())
		}
		return m.handleKey(msg)
	case dueSoonMsg:
		titles := make([]string, 0, len(msg))
		for _, t := range msg {
			titles = append(titles, t.Title)
		}
		m.status = "Due soon: " + strings.Join(titles, ", ")
		m.refresh()
	case tea.WindowSizeMsg:
		m.input.Width = msg.Width - 10
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if m.mode == modeAdd {
		return m.updateAddMode(key, msg)
	}
	return m.updateListMode(key)
}

func (m Model) updateAddMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel:
		m.mode = modeList
		m.input.SetValue("")
		m.input.Blur()
		m.status = "Cancelled"
		return m, nil
	case m.cfg.Keys.Confirm:
		created, err := m.store.Create(context.Background(), tasks.Fields{Title: m.input.Value()})
		if errors.Is(err, tasks.ErrValidation) {
			m.status = "Title cannot be empty"
			return m, nil
		}
		m.input.SetValue("")
		m.input.Blur()
		m.mode = modeList
		m.refresh()
		m.selectID(created.ID)
		m.report(err, "Added task")
		return m, nil
	case "tab":
		// Move the typed title into the full form for a new task.
		title := m.input.Value()
		m.input.SetValue("")
		return m.startMetadataEdit(tasks.Task{Title: title, Priority: tasks.PriorityMedium})
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	if key == "ctrl+c" {
		return m, tea.Quit
	}

	// Multi-key bindings such as "sd" collect a prefix first.
	seq := m.pendingKeys + key
	m.pendingKeys = ""
	if sk, ok := m.sortFor(seq); ok {
		m.query.Sort = sk
		m.refresh()
		m.status = "Sort " + sk.String() + " " + m.query.Direction.String()
		return m, nil
	}
	if m.isSortPrefix(seq) {
		m.pendingKeys = seq
		return m, nil
	}

	switch key {
	case m.cfg.Keys.Quit:
		return m, tea.Quit
	case m.cfg.Keys.Down, "down":
		if len(m.tasks) == 0 {
			return m, nil
		}
		m.cursor = clampCursor(m.cursor+1, len(m.tasks))
	case m.cfg.Keys.Up, "up":
		if m.cursor > 0 {
			m.cursor = clampCursor(m.cursor-1, len(m.tasks))
		}
	case m.cfg.Keys.Add:
		m.mode = modeAdd
		m.input.Placeholder = "Task title"
		m.input.SetValue("")
		m.input.Focus()
		m.status = "Add mode: type a title and press Enter, or tab for more fields"
	case m.cfg.Keys.Toggle:
		if len(m.tasks) == 0 {
			return m, nil
		}
		task := m.tasks[m.cursor]
		toggled, err := m.store.ToggleComplete(context.Background(), task.ID)
		if errors.Is(err, tasks.ErrNotFound) {
			m.status = fmt.Sprintf("toggle failed: %v", err)
			m.refresh()
			return m, nil
		}
		m.refresh()
		if toggled.Completed {
			m.report(err, "Marked done")
		} else {
			m.report(err, "Marked active")
		}
	case m.cfg.Keys.Delete:
		if len(m.tasks) == 0 {
			return m, nil
		}
		t := m.tasks[m.cursor]
		m.confirm = confirmDelete
		m.pendingDel = &t
		m.status = fmt.Sprintf("Delete \"%s\"? y/n", t.Title)
	case m.cfg.Keys.Purge:
		done := len(m.store.Tasks()) - view.Remaining(m.store.Tasks())
		if done == 0 {
			m.status = "No completed tasks"
			return m, nil
		}
		m.confirm = confirmPurge
		m.status = fmt.Sprintf("Remove %d completed task(s)? y/n", done)
	case m.cfg.Keys.FilterStatus:
		m.query.Status = m.query.Status.Next()
		m.refresh()
		m.status = "Showing " + m.query.Status.String()
	case m.cfg.Keys.FilterCategory:
		m.query.Category = nextCategory(view.Categories(m.store.Tasks()), m.query.Category)
		m.refresh()
		m.status = "Category: " + m.query.Category.String()
	case m.cfg.Keys.FilterPriority:
		m.query.Priority = nextPriority(m.query.Priority)
		m.refresh()
		m.status = "Priority: " + priorityLabel(m.query.Priority)
	case m.cfg.Keys.SortDirection:
		m.query.Direction = m.query.Direction.Flip()
		m.refresh()
		m.status = "Sort " + m.query.Sort.String() + " " + m.query.Direction.String()
	case m.cfg.Keys.Detail:
		if len(m.tasks) == 0 {
			m.status = "No tasks"
			return m, nil
		}
		task := m.tasks[m.cursor]
		info := fmt.Sprintf("%s • %s • %s", task.Title, humanDone(task.Completed), task.Priority)
		if task.Category != "" {
			info += " • category:" + task.Category
		}
		if task.DueDate != nil {
			info += " • due:" + task.DueDate.String()
		}
		m.status = info
	case m.cfg.Keys.Edit:
		if len(m.tasks) == 0 {
			m.status = "No tasks to edit"
			return m, nil
		}
		return m.startMetadataEdit(m.tasks[m.cursor])
	}
	return m, nil
}

func (m Model) sortFor(seq string) (view.SortKey, bool) {
	switch seq {
	case m.cfg.Keys.SortDue:
		return view.SortDueDate, true
	case m.cfg.Keys.SortPriority:
		return view.SortPriority, true
	case m.cfg.Keys.SortCreated:
		return view.SortCreatedAt, true
	}
	return view.SortCreatedAt, false
}

func (m Model) isSortPrefix(seq string) bool {
	for _, b := range []string{m.cfg.Keys.SortDue, m.cfg.Keys.SortPriority, m.cfg.Keys.SortCreated} {
		if len(b) > len(seq) && strings.HasPrefix(b, seq) {
			return true
		}
	}
	return false
}

func (m Model) updateConfirm(key string) (tea.Model, tea.Cmd) {
	kind := m.confirm
	switch key {
	case "n", "N", m.cfg.Keys.Cancel:
		m.confirm = confirmNone
		m.pendingDel = nil
		if kind == confirmPurge {
			m.status = "Purge cancelled"
		} else {
			m.status = "Delete cancelled"
		}
		return m, nil
	case "y", "Y":
		m.confirm = confirmNone
		if kind == confirmPurge {
			n, err := m.store.PurgeCompleted(context.Background())
			m.refresh()
			m.report(err, fmt.Sprintf("Removed %d completed task(s)", n))
			return m, nil
		}
		if m.pendingDel == nil {
			m.status = "Nothing to delete"
			return m, nil
		}
		_, err := m.store.Delete(context.Background(), m.pendingDel.ID)
		m.pendingDel = nil
		m.refresh()
		m.report(err, "Deleted task")
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) startMetadataEdit(t tasks.Task) (tea.Model, tea.Cmd) {
	due := ""
	if t.DueDate != nil {
		due = t.DueDate.String()
	}
	m.meta = &metaState{
		taskID:      t.ID,
		title:       t.Title,
		description: t.Description,
		priority:    t.Priority.String(),
		category:    t.Category,
		due:         due,
	}
	m.status = "Edit task: tab to move, enter to save/next, esc to cancel"
	if m.meta.isDraft() {
		if strings.TrimSpace(t.Title) != "" {
			m.meta.index = 1
		}
		m.status = "New task: tab to move, enter to save/next, esc to cancel"
	}
	m.input.SetValue(m.meta.currentValue())
	m.input.Placeholder = m.meta.currentLabel()
	m.input.Focus()
	m.mode = modeMetadata
	return m, nil
}

func (m Model) updateMetadataMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel, "esc":
		m.status = "Edit cancelled"
		if m.meta.isDraft() {
			m.status = "Cancelled"
		}
		m.meta = nil
		m.mode = modeList
		m.input.Blur()
		return m, nil
	case "tab", "down":
		m.meta.setCurrentValue(m.input.Value())
		m.meta.index = wrapIndex(m.meta.index+1, len(metaFields()))
		m.input.SetValue(m.meta.currentValue())
		m.input.Placeholder = m.meta.currentLabel()
		m.status = m.metaPrompt()
		return m, nil
	case "shift+tab", "up":
		m.meta.setCurrentValue(m.input.Value())
		m.meta.index = wrapIndex(m.meta.index-1, len(metaFields()))
		m.input.SetValue(m.meta.currentValue())
		m.input.Placeholder = m.meta.currentLabel()
		m.status = m.metaPrompt()
		return m, nil
	case m.cfg.Keys.Confirm, "enter":
		m.meta.setCurrentValue(m.input.Value())
		if m.meta.index >= len(metaFields())-1 {
			return m.saveMetadata()
		}
		m.meta.index++
		m.input.SetValue(m.meta.currentValue())
		m.input.Placeholder = m.meta.currentLabel()
		m.status = m.metaPrompt()
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) saveMetadata() (tea.Model, tea.Cmd) {
	var priority tasks.Priority
	if strings.TrimSpace(m.meta.priority) != "" {
		p, err := tasks.ParsePriority(m.meta.priority)
		if err != nil {
			m.status = fmt.Sprintf("priority invalid: %v", err)
			return m, nil
		}
		priority = p
	}
	dueDate, err := tasks.ParseDate(strings.TrimSpace(m.meta.due))
	if err != nil {
		m.status = fmt.Sprintf("due date invalid: %v", err)
		return m, nil
	}

	fields := tasks.Fields{
		Title:       m.meta.title,
		Description: m.meta.description,
		Priority:    priority,
		Category:    strings.TrimSpace(m.meta.category),
		DueDate:     dueDate,
	}
	taskID := m.meta.taskID
	done := "Task saved"
	if m.meta.isDraft() {
		var created tasks.Task
		created, err = m.store.Create(context.Background(), fields)
		taskID, done = created.ID, "Added task"
	} else {
		_, err = m.store.Update(context.Background(), taskID, fields)
	}
	switch {
	case errors.Is(err, tasks.ErrValidation):
		m.status = "Title cannot be empty"
		return m, nil
	case errors.Is(err, tasks.ErrNotFound):
		m.status = fmt.Sprintf("save failed: %v", err)
		m.meta = nil
		m.mode = modeList
		m.input.Blur()
		m.refresh()
		return m, nil
	}

	m.meta = nil
	m.mode = modeList
	m.input.Blur()
	m.refresh()
	m.selectID(taskID)
	m.report(err, done)
	return m, nil
}

func metaFields() []string {
	return []string{"title", "description", "priority (low/medium/high)", "category", "due date (YYYY-MM-DD)"}
}

// isDraft reports whether the form builds a new task rather than editing one.
func (ms metaState) isDraft() bool {
	return ms.taskID == ""
}

func (ms metaState) currentLabel() string {
	return metaFields()[ms.index]
}

func (ms metaState) values() []string {
	return []string{ms.title, ms.description, ms.priority, ms.category, ms.due}
}

func (ms metaState) currentValue() string {
	return ms.values()[ms.index]
}

func (ms *metaState) setCurrentValue(v string) {
	switch ms.index {
	case 0:
		ms.title = v
	case 1:
		ms.description = v
	case 2:
		ms.priority = v
	case 3:
		ms.category = v
	case 4:
		ms.due = v
	}
}

func (m Model) metaPrompt() string {
	return fmt.Sprintf("Editing %s (field %d of %d). Enter to advance, Esc to cancel, tab to move.",
		m.meta.currentLabel(), m.meta.index+1, len(metaFields()))
}

// refresh recomputes the visible list from the store.
func (m *Model) refresh() {
	m.tasks = view.Apply(m.store.Tasks(), m.query)
	m.cursor = clampCursor(m.cursor, len(m.tasks))
}

func (m *Model) selectID(id string) {
	for i, t := range m.tasks {
		if t.ID == id {
			m.cursor = i
			return
		}
	}
}

// report sets the status after a mutation. A persistence failure keeps the
// change in memory, so the warning sticks until the next successful save.
func (m *Model) report(err error, ok string) {
	if err == nil {
		m.persistErr = false
		m.status = ok
		return
	}
	if tasks.IsPersistence(err) {
		m.persistErr = true
		m.status = ok + ", but saving failed"
		return
	}
	m.status = err.Error()
}

func nextCategory(categories []string, cur view.CategoryFilter) view.CategoryFilter {
	idx := 0
	if !cur.IsAll() {
		for i, c := range categories {
			if c == cur.String() {
				idx = i
				break
			}
		}
	}
	return view.ParseCategory(categories[wrapIndex(idx+1, len(categories))])
}

// nextPriority cycles all -> high -> medium -> low -> all.
func nextPriority(p tasks.Priority) tasks.Priority {
	switch p {
	case 0:
		return tasks.PriorityHigh
	case tasks.PriorityHigh:
		return tasks.PriorityMedium
	case tasks.PriorityMedium:
		return tasks.PriorityLow
	default:
		return 0
	}
}

func priorityLabel(p tasks.Priority) string {
	if p == 0 {
		return "all"
	}
	return p.String()
}

func wrapIndex(idx, n int) int {
	if n <= 0 {
		return 0
	}
	idx %= n
	if idx < 0 {
		idx += n
	}
	return idx
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}

func humanDone(done bool) string {
	if done {
		return "done"
	}
	return "pending"
}
