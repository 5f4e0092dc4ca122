package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"taskly/internal/config"
	"taskly/internal/due"
	"taskly/internal/tasks"
	"taskly/internal/view"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	overdueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	soonStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	doneStyle    = lipgloss.NewStyle().Faint(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	helpStyle    = lipgloss.NewStyle().Faint(true)
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("taskly"))
	b.WriteString("  ")
	b.WriteString(m.renderQuery())
	b.WriteString("\n\n")

	if len(m.tasks) == 0 {
		if len(m.store.Tasks()) == 0 {
			b.WriteString(fmt.Sprintf("No tasks yet. Press '%s' to add one.", m.cfg.Keys.Add))
		} else {
			b.WriteString("No tasks match the current filters.")
		}
		b.WriteString("\n")
	} else {
		b.WriteString(m.renderTaskList())
	}

	b.WriteString("\n")
	switch m.mode {
	case modeMetadata:
		header := "Edit task"
		if m.meta.isDraft() {
			header = "New task"
		}
		b.WriteString(header + " (tab/shift+tab to move, enter to save/next, esc to cancel)")
		b.WriteString("\n\n")
		b.WriteString(m.renderMetaBox())
		b.WriteString("\n")
		b.WriteString(m.input.View())
	case modeAdd:
		b.WriteString("New task (enter to add, tab for more fields)")
		b.WriteString("\n")
		b.WriteString(m.input.View())
	default:
		b.WriteString(m.renderMetadataPanel())
	}

	b.WriteString("\n\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(renderHelp(m.cfg.Keys)))

	return b.String()
}

func (m Model) renderQuery() string {
	q := m.query
	return helpStyle.Render(fmt.Sprintf("status:%s category:%s priority:%s sort:%s %s",
		q.Status, q.Category, priorityLabel(q.Priority), q.Sort, q.Direction))
}

func (m Model) renderStatus() string {
	left := view.Remaining(m.store.Tasks())
	line := fmt.Sprintf("%d %s left", left, plural(left, "task", "tasks"))
	if m.status != "" {
		line += " • " + m.status
	}
	if m.persistErr {
		line += "\n" + warnStyle.Render("Storage unavailable: changes may not survive a restart")
	}
	return line
}

func renderHelp(k config.Keymap) string {
	return fmt.Sprintf("%s/%s move • %s add • %s edit • %s toggle • %s delete • %s purge done • %s/%s/%s filter • %s/%s/%s sort • %s reverse • %s quit",
		k.Up, k.Down, k.Add, k.Edit, keyName(k.Toggle), k.Delete, k.Purge,
		k.FilterStatus, k.FilterCategory, k.FilterPriority,
		k.SortDue, k.SortPriority, k.SortCreated, k.SortDirection, k.Quit)
}

func (m Model) renderTaskList() string {
	now := m.clock.Now()
	var b strings.Builder
	for i, t := range m.tasks {
		cursor := " "
		if m.cursor == i && m.mode == modeList {
			cursor = ">"
		}

		checkbox := "[ ]"
		if t.Completed {
			checkbox = "[x]"
		}

		title := t.Title
		style := lipgloss.NewStyle()
		switch due.Classify(t, now) {
		case due.Overdue:
			title = "Overdue: " + title
			style = overdueStyle
		case due.DueSoon:
			title = "Due soon: " + title
			style = soonStyle
		}
		if t.Completed {
			style = doneStyle
		}

		meta := []string{t.Priority.String()}
		if t.Category != "" {
			meta = append(meta, t.Category)
		}
		if t.DueDate != nil {
			meta = append(meta, due.Format(t.DueDate))
		}

		b.WriteString(fmt.Sprintf("%s %s ", cursor, checkbox))
		b.WriteString(style.Render(title))
		b.WriteString(helpStyle.Render("  " + strings.Join(meta, " · ")))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderMetaBox() string {
	var b strings.Builder
	for i, name := range metaFields() {
		prefix := " "
		if i == m.meta.index {
			prefix = ">"
		}
		val := m.meta.values()[i]
		if strings.TrimSpace(val) == "" {
			val = "(empty)"
		}
		b.WriteString(fmt.Sprintf("%s %-26s : %s\n", prefix, name, val))
	}
	return panelStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) renderMetadataPanel() string {
	if len(m.tasks) == 0 {
		return "No task selected"
	}
	t := m.tasks[clampCursor(m.cursor, len(m.tasks))]
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Title       : %s\n", t.Title))
	b.WriteString(fmt.Sprintf("Description : %s\n", emptyPlaceholder(t.Description)))
	b.WriteString(fmt.Sprintf("Status      : %s\n", humanDone(t.Completed)))
	b.WriteString(fmt.Sprintf("Priority    : %s\n", t.Priority))
	b.WriteString(fmt.Sprintf("Category    : %s\n", emptyPlaceholder(t.Category)))
	b.WriteString(fmt.Sprintf("Due         : %s%s\n", due.Format(t.DueDate), m.dueSuffix(t)))
	b.WriteString(fmt.Sprintf("Created     : %s", t.CreatedAt.Local().Format("Jan 2, 2006 15:04")))
	return panelStyle.Render(b.String())
}

func (m Model) dueSuffix(t tasks.Task) string {
	switch due.Classify(t, m.clock.Now()) {
	case due.Overdue:
		return " (overdue)"
	case due.DueSoon:
		return " (due soon)"
	}
	return ""
}

func emptyPlaceholder(v string) string {
	if strings.TrimSpace(v) == "" {
		return "(empty)"
	}
	return v
}

func keyName(k string) string {
	if k == " " {
		return "space"
	}
	return k
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
