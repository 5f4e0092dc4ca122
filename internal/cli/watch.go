package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"taskly/internal/notify"
	"taskly/internal/tasks"
)

func newWatchCmd(a *app) *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Log tasks as they become due soon, until interrupted",
		Long: `Scan the task list once now and then on every interval, logging each
incomplete task the first time it comes within a day of its due date.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("interval") {
				interval = a.cfg.ScanInterval()
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a.logger.Info("watching for due tasks", "interval", interval)
			src := &reloader{ctx: ctx, p: a.persister, logger: a.logger}
			s := notify.NewScanner(src, a.clock, interval, notify.LogFunc(a.logger), a.logger)
			if err := s.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", notify.DefaultInterval, "time between scans")
	return cmd
}

// reloader reads the saved list on every scan so tasks written by other
// taskly runs are seen while watch is going. A failed read reuses the last
// list it loaded.
type reloader struct {
	ctx    context.Context
	p      tasks.Persister
	logger *slog.Logger
	last   []tasks.Task
}

func (r *reloader) Tasks() []tasks.Task {
	list, err := r.p.Load(r.ctx)
	if err != nil {
		r.logger.Warn("reloading tasks failed, using previous list", "err", err)
		return r.last
	}
	r.last = list
	return list
}
