package cli

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/cogrun/cogrun/internal/config"
	"github.com/cogrun/cogrun/internal/history"
	"github.com/cogrun/cogrun/internal/registry"
	"github.com/cogrun/cogrun/internal/reporter"
	"github.com/cogrun/cogrun/internal/task"
)

func newRunCmd() *cobra.Command {
	var (
		cogfile    string
		workers    int
		filter     string
		dryRun     bool
		maxRuntime time.Duration
		failFast   bool
		display    string
	)

	cmd := &cobra.Command{
		Use:   "run [id ...]",
		Short: "Execute cogfile tasks with dependency-aware parallelism",
		Long:  "Run executes every task in the cogfile, or only the tasks named as arguments.",
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
			if !cmd.Flags().Changed("display") && cfg.Display != "" {
				display = cfg.Display
			}
			return runTasks(runOptions{
				cogfile:    cogfile,
				ids:        args,
				workers:    workers,
				filter:     filter,
				dryRun:     dryRun,
				maxRuntime: maxRuntime,
				failFast:   failFast,
				display:    display,
				settings:   cfg,
			})
		},
	}

	cmd.Flags().StringVar(&cogfile, "cogfile", "cogfile.yml", "path to cogfile")
	cmd.Flags().IntVar(&workers, "workers", 4, "max parallel tasks")
	cmd.Flags().StringVar(&filter, "filter", "", "only run tasks matching ID glob pattern")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show execution plan without running")
	cmd.Flags().DurationVar(&maxRuntime, "max-runtime", 10*time.Minute, "per-task timeout duration")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "stop scheduling new tasks on first failure")
	cmd.Flags().StringVar(&display, "display", "auto", "display mode: tui (interactive), live (in-place status), off, auto (detect TTY)")

	return cmd
}

// runOptions holds resolved parameters for a single run invocation.
type runOptions struct {
	cogfile    string
	ids        []string // explicit task IDs; empty means all
	workers    int
	filter     string
	dryRun     bool
	maxRuntime time.Duration
	failFast   bool
	display    string
	settings   *config.Settings
}

// runTasks loads the cogfile, applies the filter and either prints the
// plan (dry run) or executes the graph. Shared by the run and watch
// commands.
func runTasks(opts runOptions) error {
	handlers := builtins()

	cf, err := config.Load(opts.cogfile, handlers)
	if err != nil {
		return fmt.Errorf("load cogfile: %w", err)
	}

	tasks := cf.Tasks
	if len(opts.ids) > 0 {
		tasks, err = selectTasks(tasks, opts.ids)
		if err != nil {
			return err
		}
	}
	if opts.filter != "" {
		tasks = filterTasks(tasks, opts.filter)
		if len(tasks) == 0 {
			return fmt.Errorf("no tasks match filter %q", opts.filter)
		}
	}

	graph, err := task.BuildGraph(tasks)
	if err != nil {
		return fmt.Errorf("build graph: %w", err)
	}

	isTTY := isTerminal()
	textRep := reporter.NewTextReporter(os.Stdout, isTTY)

	if opts.dryRun {
		textRep.PrintHeader(len(tasks), opts.workers)
		textRep.PrintDryRun(graph)
		return nil
	}

	report, err := executeRun(opts, handlers, tasks, graph)
	if err != nil {
		return err
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d tasks failed", report.Failed)
	}
	return nil
}

// executeRun is the execution core: it prepares the run directory, wires
// the registry into the scheduler, drives the live display and persists
// the report.
func executeRun(opts runOptions, handlers *registry.Registry, tasks []task.Task, graph *task.Graph) (*task.RunReport, error) {
	isTTY := isTerminal()
	textRep := reporter.NewTextReporter(os.Stdout, isTTY)

	runBase := ".cogrun"
	if opts.settings != nil && opts.settings.RunDir != "" {
		runBase = opts.settings.RunDir
	}
	runDir := filepath.Join(runBase, time.Now().Format("20060102-150405"))
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, fmt.Errorf("create run dir: %w", err)
	}

	slog.Info("starting run", "tasks", len(tasks), "workers", opts.workers, "run_dir", runDir)
	textRep.PrintHeader(len(tasks), opts.workers)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\ninterrupted, waiting for running tasks to finish...")
		cancel()
	}()

	execFn := func(ctx context.Context, t *task.Task, outputDir string) *task.TaskResult {
		return dispatchTask(ctx, handlers, t, outputDir, opts.maxRuntime)
	}

	start := time.Now()
	sched := task.NewScheduler(graph, task.SchedulerConfig{
		Workers:  opts.workers,
		RunDir:   runDir,
		FailFast: opts.failFast,
		ExecFn:   execFn,
		OnUpdate: func(id string, result *task.TaskResult) {
			slog.Debug("task update", "task", id, "state", result.State)
		},
	})

	displayMode := opts.display
	if displayMode == "" || displayMode == "auto" {
		if isTTY {
			displayMode = "tui"
		} else {
			displayMode = "off"
		}
	}

	var live *reporter.LiveReporter
	var tuiProgram *tea.Program
	switch displayMode {
	case "tui":
		tuiModel := reporter.NewTUIModel(graph, sched.Results, cancel)
		tuiProgram = tea.NewProgram(tuiModel, tea.WithAltScreen())
		go func() {
			if _, err := tuiProgram.Run(); err != nil {
				slog.Warn("TUI error", "error", err)
			}
		}()
	case "live":
		live = reporter.NewLiveReporter(os.Stdout, isTTY, graph, sched.Results)
		live.Start()
	default:
		// "off" or unrecognized, no live display
	}

	results := sched.Run(ctx)
	totalDuration := time.Since(start)

	if tuiProgram != nil {
		tuiProgram.Quit()
		tuiProgram.Wait()
	}
	if live != nil {
		live.Stop()
	}

	report := buildReport(opts.cogfile, opts.workers, opts.filter, results, totalDuration)
	textRep.PrintStatus(graph, results)
	textRep.PrintSummary(report)

	reportPath := filepath.Join(runDir, "report.json")
	if err := reporter.WriteJSONReport(report, reportPath); err != nil {
		slog.Warn("failed to write report", "error", err)
	} else {
		fmt.Fprintf(os.Stdout, "\nReport: %s\n", reportPath)
	}

	recordHistory(opts.settings, report)

	if opts.settings != nil && opts.settings.PostRun != "" {
		runPostHook(ctx, opts.settings.PostRun, runDir)
	}

	return report, nil
}

// dispatchTask runs one task through its registered handler, capturing
// stdout into the task's output directory.
func dispatchTask(ctx context.Context, handlers *registry.Registry, t *task.Task, outputDir string, maxRuntime time.Duration) *task.TaskResult {
	started := time.Now()
	result := &task.TaskResult{
		TaskID:    t.ID,
		Handler:   t.Handler,
		StartedAt: started,
	}
	fail := func(err error) *task.TaskResult {
		result.State = task.StateFailed
		result.Error = err.Error()
		result.EndedAt = time.Now()
		result.Duration = result.EndedAt.Sub(started)
		return result
	}

	h, err := handlers.Lookup(t.Handler)
	if err != nil {
		return fail(err)
	}
	args, err := registry.ValidateArgs(h, t.Args)
	if err != nil {
		return fail(err)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fail(fmt.Errorf("create output dir: %w", err))
	}
	writeTaskMeta(outputDir, t)

	logFile, err := os.Create(filepath.Join(outputDir, "output.log"))
	if err != nil {
		return fail(fmt.Errorf("create output log: %w", err))
	}
	defer func() { _ = logFile.Close() }()

	if maxRuntime > 0 {
		var timeoutCancel context.CancelFunc
		ctx, timeoutCancel = context.WithTimeout(ctx, maxRuntime)
		defer timeoutCancel()
	}

	var buf bytes.Buffer
	out := io.MultiWriter(logFile, &buf)
	runErr := h.Run(ctx, args, out)

	result.EndedAt = time.Now()
	result.Duration = result.EndedAt.Sub(started)
	result.Output = lastLine(buf.String())
	if runErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			runErr = fmt.Errorf("timed out after %s: %w", maxRuntime, runErr)
		}
		result.State = task.StateFailed
		result.Error = runErr.Error()
		return result
	}
	result.State = task.StateCompleted
	return result
}

// lastLine returns the final non-empty line of s, trimmed.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

func buildReport(cogfile string, workers int, filter string, results map[string]*task.TaskResult, duration time.Duration) *task.RunReport {
	report := &task.RunReport{
		Timestamp:     time.Now(),
		Cogfile:       cogfile,
		Workers:       workers,
		Filter:        filter,
		Results:       results,
		TotalTasks:    len(results),
		TotalDuration: duration,
	}

	// deterministic run ID from timestamp + cogfile path
	h := sha256.New()
	fmt.Fprintf(h, "%d|%s", report.Timestamp.UnixNano(), cogfile)
	report.RunID = hex.EncodeToString(h.Sum(nil)[:6])

	for _, r := range results {
		switch r.State {
		case task.StateCompleted:
			report.Completed++
		case task.StateFailed:
			report.Failed++
		case task.StateSkipped:
			report.Skipped++
		}
	}

	return report
}

// recordHistory appends the run outcome to the history database.
// Failures are logged, never fatal.
func recordHistory(cfg *config.Settings, report *task.RunReport) {
	path := history.DefaultPath()
	if cfg != nil && cfg.History != "" {
		path = cfg.History
	}
	store, err := history.Open(path)
	if err != nil {
		slog.Warn("failed to open history db", "error", err)
		return
	}
	defer func() { _ = store.Close() }()
	if err := store.RecordRun(report); err != nil {
		slog.Warn("failed to record run history", "error", err)
	}
}

func runPostHook(ctx context.Context, hook, runDir string) {
	absRunDir, _ := filepath.Abs(runDir)
	hookCmd := exec.CommandContext(ctx, "sh", "-c", hook)
	hookCmd.Env = append(os.Environ(), "COGRUN_RUN_DIR="+absRunDir)
	hookCmd.Stdout = os.Stdout
	hookCmd.Stderr = os.Stderr
	fmt.Fprintf(os.Stdout, "\npost_run: %s\n", hook)
	if err := hookCmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "post_run hook FAILED: %v\n", err)
	}
}

// writeTaskMeta saves a task's definition to its output dir so each run
// output is self-contained without the original cogfile.
func writeTaskMeta(outputDir string, t *task.Task) {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(filepath.Join(outputDir, "task.json"), data, 0o644)
}

// selectTasks returns the tasks whose IDs were requested, preserving
// cogfile order. Unknown IDs are an error.
func selectTasks(tasks []task.Task, ids []string) ([]task.Task, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	var selected []task.Task
	for _, t := range tasks {
		if want[t.ID] {
			selected = append(selected, t)
			delete(want, t.ID)
		}
	}

	if len(want) > 0 {
		unknown := make([]string, 0, len(want))
		for id := range want {
			unknown = append(unknown, id)
		}
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown task ids: %s", strings.Join(unknown, ", "))
	}
	return selected, nil
}

func filterTasks(tasks []task.Task, pattern string) []task.Task {
	var filtered []task.Task
	for _, t := range tasks {
		if matchGlob(t.ID, pattern) {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

// matchGlob does simple glob matching supporting * wildcard.
func matchGlob(s, pattern string) bool {
	if s == pattern {
		return true
	}

	if strings.HasSuffix(pattern, "*") {
		prefix := strings.TrimSuffix(pattern, "*")
		return strings.HasPrefix(s, prefix)
	}

	if strings.HasPrefix(pattern, "*") {
		suffix := strings.TrimPrefix(pattern, "*")
		return strings.HasSuffix(s, suffix)
	}

	if idx := strings.Index(pattern, "*"); idx >= 0 {
		prefix := pattern[:idx]
		suffix := pattern[idx+1:]
		return strings.HasPrefix(s, prefix) && strings.HasSuffix(s, suffix)
	}

	return false
}

// isTerminal checks if stdout is a terminal.
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
