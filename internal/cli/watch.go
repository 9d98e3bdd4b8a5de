package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/cogrun/cogrun/internal/config"
	"github.com/cogrun/cogrun/internal/watch"
)

func newWatchCmd() *cobra.Command {
	var (
		cogfile    string
		workers    int
		filter     string
		maxRuntime time.Duration
		failFast   bool
		poll       bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run the cogfile whenever it changes",
		Long:  "Watch runs the cogfile once, then watches it for modifications and re-runs on every change until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadSettings(configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if !cmd.Flags().Changed("cogfile") && cfg.Cogfile != "" {
				cogfile = cfg.Cogfile
			}
			if !cmd.Flags().Changed("workers") && cfg.Workers > 0 {
				workers = cfg.Workers
			}
			if !cmd.Flags().Changed("max-runtime") && cfg.MaxRuntime > 0 {
				maxRuntime = cfg.MaxRuntime
			}
			if !cmd.Flags().Changed("fail-fast") && cfg.FailFast {
				failFast = cfg.FailFast
			}
			return watchAndRun(runOptions{
				cogfile:    cogfile,
				workers:    workers,
				filter:     filter,
				maxRuntime: maxRuntime,
				failFast:   failFast,
				display:    "off", // live modes fight over the terminal across repeated runs
				settings:   cfg,
			}, poll)
		},
	}

	cmd.Flags().StringVar(&cogfile, "cogfile", "cogfile.yml", "path to cogfile")
	cmd.Flags().IntVar(&workers, "workers", 4, "max parallel tasks")
	cmd.Flags().StringVar(&filter, "filter", "", "only run tasks matching ID glob pattern")
	cmd.Flags().DurationVar(&maxRuntime, "max-runtime", 10*time.Minute, "per-task timeout duration")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "stop scheduling new tasks on first failure")
	cmd.Flags().BoolVar(&poll, "poll", false, "poll for changes instead of using inotify")

	return cmd
}

func watchAndRun(opts runOptions, poll bool) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nstopping watch...")
		cancel()
	}()

	runOnce := func(ctx context.Context) {
		if err := runTasks(opts); err != nil {
			fmt.Fprintf(os.Stderr, "run failed: %v\n", err)
		}
	}

	// initial run before waiting for changes
	runOnce(ctx)
	fmt.Fprintf(os.Stdout, "\nwatching %s for changes (ctrl-c to stop)\n", opts.cogfile)

	w, err := watch.New(watch.Config{
		Path:     opts.cogfile,
		PollMode: poll,
		OnChange: func(ctx context.Context) {
			fmt.Fprintf(os.Stdout, "\n%s changed, re-running\n\n", opts.cogfile)
			runOnce(ctx)
			fmt.Fprintf(os.Stdout, "\nwatching %s for changes (ctrl-c to stop)\n", opts.cogfile)
		},
	})
	if err != nil {
		return err
	}
	return w.Run(ctx)
}
