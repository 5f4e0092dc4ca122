// Package cli wires configuration, storage and the task store into cobra
// commands. Without a subcommand it launches the TUI.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"taskly/internal/config"
	"taskly/internal/storage"
	"taskly/internal/tasks"
	"taskly/internal/ui"
)

const logFileName = "taskly.log"

// app holds what the commands share once PersistentPreRunE has run.
type app struct {
	configPath string
	ephemeral  bool

	clock  clockwork.Clock
	stderr io.Writer

	cfg       config.Config
	logger    *slog.Logger
	persister tasks.Persister
	store     *tasks.Store
	close     []func() error
}

// Execute runs the root command against os.Args.
func Execute(ctx context.Context) error {
	a := &app{clock: clockwork.NewRealClock(), stderr: os.Stderr}
	return execute(ctx, a, newRootCmd(a))
}

// execute runs cmd and then releases what setup opened. Cobra skips post-run
// hooks when a command fails, so the cleanup lives here.
func execute(ctx context.Context, a *app, cmd *cobra.Command) error {
	err := cmd.ExecuteContext(ctx)
	if cerr := a.teardown(); err == nil {
		err = cerr
	}
	return err
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{clock: clockwork.NewRealClock(), stderr: os.Stderr})
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "taskly",
		Short: "A personal task manager",
		Long: `taskly keeps a personal task list with priorities, categories and
due dates. Run it without a subcommand for the interactive list.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return ui.Run(cmd.Context(), a.store, a.cfg, a.clock, a.logger)
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default $TASKLY_CONFIG or the user config dir)")
	root.PersistentFlags().BoolVar(&a.ephemeral, "ephemeral", false, "keep tasks in memory only for this run")

	root.AddCommand(
		newAddCmd(a),
		newListCmd(a),
		newEditCmd(a),
		newToggleCmd(a),
		newRmCmd(a),
		newPurgeCmd(a),
		newCategoriesCmd(a),
		newExportCmd(a),
		newWatchCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	if a.configPath == "" {
		a.configPath = config.ResolveConfigPath()
	}
	_, statErr := os.Stat(a.configPath)
	cfg, err := config.LoadOrCreate(a.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a.cfg = cfg
	if errors.Is(statErr, os.ErrNotExist) && cmd.HasParent() {
		fmt.Fprintf(cmd.ErrOrStderr(), "Created default config at %s\n", a.configPath)
	}

	// The TUI owns the terminal, so its logs go to a file.
	logOut := a.stderr
	if !cmd.HasParent() {
		f, err := tea.LogToFile(filepath.Join(filepath.Dir(a.configPath), logFileName), "taskly")
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		a.close = append(a.close, f.Close)
		logOut = f
	}
	a.logger = slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: cfg.Level()}))

	p, err := a.openBackend()
	if err != nil {
		return err
	}
	a.persister = p
	a.store = tasks.NewStore(cmd.Context(), p, a.clock, tasks.WithLogger(a.logger))
	// The TUI shows this in its status line.
	if err := a.store.LoadErr(); err != nil && cmd.HasParent() {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not load saved tasks, starting empty: %v\n", err)
	}
	return nil
}

func (a *app) openBackend() (tasks.Persister, error) {
	if a.ephemeral {
		a.logger.Debug("using in-memory storage")
		return storage.NewMemory(a.cfg.StorageKey), nil
	}
	switch a.cfg.Backend {
	case config.BackendFile:
		a.logger.Debug("using file storage", "path", a.cfg.FilePath)
		return storage.NewFile(a.cfg.FilePath), nil
	default:
		db, err := storage.Open(a.cfg.DBPath, a.cfg.StorageKey)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		a.close = append(a.close, db.Close)
		a.logger.Debug("using sqlite storage", "path", a.cfg.DBPath)
		return db, nil
	}
}

func (a *app) teardown() error {
	var first error
	for i := len(a.close) - 1; i >= 0; i-- {
		if err := a.close[i](); err != nil && first == nil {
			first = err
		}
	}
	a.close = nil
	return first
}
