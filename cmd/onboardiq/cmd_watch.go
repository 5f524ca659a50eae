package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/simiyu-dess/OnboardIQ/internal/service"
	"github.com/simiyu-dess/OnboardIQ/internal/watch"
)

var watchFlags struct {
	debounce time.Duration
}

var watchCmd = &cobra.Command{
	Use:   "watch DIR",
	Short: "Index DIR and re-index it whenever its documents change",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchFlags.debounce, "debounce", watch.DefaultDebounce, "quiet period before re-indexing")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, log, cleanup, err := openService(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	dir := args[0]
	out := cmd.OutOrStdout()
	if report, err := svc.IndexFiles(ctx, []string{dir}, true); err != nil {
		fmt.Fprintf(out, "initial index failed: %v\n", err)
	} else {
		fmt.Fprintf(out, "Indexed %d files (%d fragments)\n", report.Files, report.Fragments)
	}

	w, err := watch.New(dir, svc, watchFlags.debounce, log)
	if err != nil {
		return err
	}
	w.OnIndexed = func(r service.IndexReport, err error) {
		if err != nil {
			fmt.Fprintf(out, "re-index failed: %v\n", err)
			return
		}
		fmt.Fprintf(out, "Re-indexed %d files (%d fragments)\n", r.Files, r.Fragments)
	}
	if err := w.Start(ctx); err != nil {
		w.Stop()
		return err
	}
	defer w.Stop()

	<-w.Done()
	return nil
}
