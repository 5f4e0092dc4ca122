package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"taskly/internal/due"
	"taskly/internal/tasks"
	"taskly/internal/view"
)

const shortIDLen = 8

type fieldFlags struct {
	title       string
	description string
	priority    string
	category    string
	due         string
}

func (f *fieldFlags) register(cmd *cobra.Command, withTitle bool) {
	if withTitle {
		cmd.Flags().StringVar(&f.title, "title", "", "task title")
	}
	cmd.Flags().StringVar(&f.description, "desc", "", "description")
	cmd.Flags().StringVar(&f.priority, "priority", "", "low, medium or high")
	cmd.Flags().StringVar(&f.category, "category", "", "category")
	cmd.Flags().StringVar(&f.due, "due", "", "due date (YYYY-MM-DD); empty clears it on edit")
}

// apply overrides base with every flag set on cmd.
func (f *fieldFlags) apply(cmd *cobra.Command, base tasks.Fields) (tasks.Fields, error) {
	changed := cmd.Flags().Changed
	if changed("title") {
		base.Title = f.title
	}
	if changed("desc") {
		base.Description = f.description
	}
	if changed("category") {
		base.Category = strings.TrimSpace(f.category)
	}
	if changed("priority") {
		p, err := tasks.ParsePriority(f.priority)
		if err != nil {
			return base, err
		}
		base.Priority = p
	}
	if changed("due") {
		d, err := tasks.ParseDate(strings.TrimSpace(f.due))
		if err != nil {
			return base, fmt.Errorf("invalid due date %q: %w", f.due, err)
		}
		base.DueDate = d
	}
	return base, nil
}

func newAddCmd(a *app) *cobra.Command {
	var flags fieldFlags
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Example: `  taskly add Pay rent --priority high --category home --due 2024-06-01
  taskly add "Read chapter 3" --desc "before Friday"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := flags.apply(cmd, tasks.Fields{Title: strings.Join(args, " ")})
			if err != nil {
				return err
			}
			t, err := a.store.Create(cmd.Context(), fields)
			if err != nil {
				return fmt.Errorf("adding task: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s: %s\n", shortID(t.ID), t.Title)
			return nil
		},
	}
	flags.register(cmd, false)
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var (
		status, category, priority, sortKey string
		desc                                bool
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Long: `List tasks using the configured default view. Flags narrow or reorder it.

Tasks with no due date sort last when sorting by due date ascending.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := a.cfg.Query()
			flags := cmd.Flags()
			if flags.Changed("status") {
				s, err := view.ParseStatus(status)
				if err != nil {
					return err
				}
				q.Status = s
			}
			if flags.Changed("category") {
				q.Category = view.ParseCategory(category)
			}
			if flags.Changed("priority") && priority != "all" {
				p, err := tasks.ParsePriority(priority)
				if err != nil {
					return err
				}
				q.Priority = p
			}
			if flags.Changed("sort") {
				k, err := view.ParseSort(sortKey)
				if err != nil {
					return err
				}
				q.Sort = k
			}
			if flags.Changed("desc") {
				q.Direction = view.Ascending
				if desc {
					q.Direction = view.Descending
				}
			}

			all := a.store.Tasks()
			printTasks(cmd, view.Apply(all, q), a.clock.Now())
			fmt.Fprintf(cmd.OutOrStdout(), "%d tasks left\n", view.Remaining(all))
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "all", "all, active or completed")
	cmd.Flags().StringVar(&category, "category", view.AllCategories, "category to show, or all")
	cmd.Flags().StringVar(&priority, "priority", "all", "low, medium, high or all")
	cmd.Flags().StringVar(&sortKey, "sort", "createdAt", "createdAt, dueDate or priority")
	cmd.Flags().BoolVar(&desc, "desc", false, "sort descending")
	return cmd
}

func printTasks(cmd *cobra.Command, list []tasks.Task, now time.Time) {
	if len(list) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No tasks.")
		return
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDONE\tPRI\tDUE\tCATEGORY\tTITLE")
	for _, t := range list {
		done := " "
		if t.Completed {
			done = "x"
		}
		dueStr := "-"
		if t.DueDate != nil {
			dueStr = t.DueDate.String()
			switch due.Classify(t, now) {
			case due.Overdue:
				dueStr += " (overdue)"
			case due.DueSoon:
				dueStr += " (due soon)"
			}
		}
		category := t.Category
		if category == "" {
			category = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", shortID(t.ID), done, t.Priority, dueStr, category, t.Title)
	}
	_ = w.Flush()
}

func newEditCmd(a *app) *cobra.Command {
	var flags fieldFlags
	cmd := &cobra.Command{
		Use:     "edit <id>",
		Short:   "Change a task's title, description, priority, category or due date",
		Example: `  taskly edit 3f2a --priority low --due ""`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.resolveID(args[0])
			if err != nil {
				return err
			}
			current, _ := a.store.Get(id)
			fields, err := flags.apply(cmd, current.Fields())
			if err != nil {
				return err
			}
			t, err := a.store.Update(cmd.Context(), id, fields)
			if err != nil {
				return fmt.Errorf("updating task: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s: %s\n", shortID(t.ID), t.Title)
			return nil
		},
	}
	flags.register(cmd, true)
	return cmd
}

func newToggleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Mark a task done, or active again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.resolveID(args[0])
			if err != nil {
				return err
			}
			t, err := a.store.ToggleComplete(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("toggling task: %w", err)
			}
			verb := "Reopened"
			if t.Completed {
				verb = "Completed"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s\n", verb, shortID(t.ID), t.Title)
			return nil
		},
	}
}

func newRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Deleting an unknown id is a no-op, not a failure.
			id, err := a.resolveID(args[0])
			if errors.Is(err, tasks.ErrNotFound) {
				id = args[0]
			} else if err != nil {
				return err
			}
			t, found := a.store.Get(id)
			if _, err := a.store.Delete(cmd.Context(), id); err != nil {
				return fmt.Errorf("deleting task: %w", err)
			}
			if !found {
				fmt.Fprintf(cmd.OutOrStdout(), "No task %s\n", args[0])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s: %s\n", shortID(t.ID), t.Title)
			return nil
		},
	}
}

func newPurgeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Remove every completed task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.store.PurgeCompleted(cmd.Context())
			if err != nil {
				return fmt.Errorf("purging tasks: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d completed task(s)\n", n)
			return nil
		},
	}
}

func newCategoriesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the categories in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, c := range view.Categories(a.store.Tasks()) {
				fmt.Fprintln(cmd.OutOrStdout(), c)
			}
			return nil
		},
	}
}

// resolveID accepts a full id or an unambiguous prefix of one.
func (a *app) resolveID(arg string) (string, error) {
	if arg == "" {
		return "", fmt.Errorf("empty id: %w", tasks.ErrNotFound)
	}
	if _, ok := a.store.Get(arg); ok {
		return arg, nil
	}
	var matches []string
	for _, t := range a.store.Tasks() {
		if strings.HasPrefix(t.ID, arg) {
			matches = append(matches, t.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%s: %w", arg, tasks.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("id prefix %q matches %d tasks", arg, len(matches))
	}
}

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}
