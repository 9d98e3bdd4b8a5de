package reporter

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/cogrun/cogrun/internal/task"
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorDim    = "\033[2m"
)

// TextReporter writes human-readable output to a writer.
type TextReporter struct {
	w     io.Writer
	color bool
}

// NewTextReporter creates a text reporter.
// If w is nil, defaults to os.Stdout. color enables ANSI codes.
func NewTextReporter(w io.Writer, color bool) *TextReporter {
	if w == nil {
		w = os.Stdout
	}
	return &TextReporter{w: w, color: color}
}

// PrintHeader writes the initial banner.
func (r *TextReporter) PrintHeader(totalTasks, workers int) {
	fmt.Fprintf(r.w, "cogrun — %d tasks, %d workers\n\n", totalTasks, workers)
}

// PrintStatus writes a snapshot of all task states.
func (r *TextReporter) PrintStatus(graph *task.Graph, results map[string]*task.TaskResult) {
	var running, completed, failed, skipped, pending []*task.TaskResult

	for _, id := range graph.Order() {
		res := results[id]
		if res == nil {
			continue
		}
		switch res.State {
		case task.StateRunning:
			running = append(running, res)
		case task.StateCompleted:
			completed = append(completed, res)
		case task.StateFailed:
			failed = append(failed, res)
		case task.StateSkipped:
			skipped = append(skipped, res)
		default:
			pending = append(pending, res)
		}
	}

	total := len(results)

	r.printSection("RUNNING", colorCyan, running, total, func(res *task.TaskResult) string {
		elapsed := time.Since(res.StartedAt).Truncate(time.Second)
		return fmt.Sprintf("    %-25s %-35s %s", res.TaskID, r.title(graph, res), elapsed)
	})

	r.printSection("COMPLETED", colorGreen, completed, total, func(res *task.TaskResult) string {
		dur := res.Duration.Truncate(time.Millisecond)
		return fmt.Sprintf("    %-25s %-35s %s  ✓%s", res.TaskID, r.title(graph, res), dur, handlerSuffix(res))
	})

	r.printSection("FAILED", colorRed, failed, total, func(res *task.TaskResult) string {
		dur := res.Duration.Truncate(time.Millisecond)
		return fmt.Sprintf("    %-25s %-35s %s  ✗ %s%s", res.TaskID, r.title(graph, res), dur, res.Error, handlerSuffix(res))
	})

	if len(skipped) > 0 {
		fmt.Fprintf(r.w, "  %sSKIPPED  [%d/%d]%s\n", r.c(colorYellow), len(skipped), total, r.c(colorReset))
		for _, res := range skipped {
			fmt.Fprintf(r.w, "    %s%-25s%s  (%s)\n", r.c(colorDim), res.TaskID, r.c(colorReset), res.Error)
		}
		fmt.Fprintln(r.w)
	}

	if len(pending) > 0 {
		fmt.Fprintf(r.w, "  %sBLOCKED  [%d/%d]%s\n", r.c(colorDim), len(pending), total, r.c(colorReset))
		for _, res := range pending {
			t := graph.Task(res.TaskID)
			dep := ""
			if t != nil && len(t.DependsOn) > 0 {
				dep = fmt.Sprintf("  (waiting: %s)", strings.Join(t.DependsOn, ", "))
			}
			fmt.Fprintf(r.w, "    %s%-25s%s%s\n", r.c(colorDim), res.TaskID, dep, r.c(colorReset))
		}
		fmt.Fprintln(r.w)
	}
}

// PrintSummary writes the final summary line.
func (r *TextReporter) PrintSummary(report *task.RunReport) {
	fmt.Fprintf(r.w, "\n%s--- Summary ---%s\n", r.c(colorCyan), r.c(colorReset))
	fmt.Fprintf(r.w, "Total: %d  ", report.TotalTasks)
	fmt.Fprintf(r.w, "%sCompleted: %d%s  ", r.c(colorGreen), report.Completed, r.c(colorReset))
	fmt.Fprintf(r.w, "%sFailed: %d%s  ", r.c(colorRed), report.Failed, r.c(colorReset))
	fmt.Fprintf(r.w, "%sSkipped: %d%s  ", r.c(colorYellow), report.Skipped, r.c(colorReset))
	fmt.Fprintf(r.w, "Duration: %s", report.TotalDuration.Truncate(time.Millisecond))
	fmt.Fprintln(r.w)
}

// PrintDryRun writes the execution plan without running anything.
func (r *TextReporter) PrintDryRun(graph *task.Graph) {
	fmt.Fprint(r.w, "Execution plan (dry-run):\n\n")

	for i, id := range graph.Order() {
		t := graph.Task(id)
		dep := ""
		if len(t.DependsOn) > 0 {
			dep = fmt.Sprintf(" (after %s)", strings.Join(t.DependsOn, ", "))
		}
		fmt.Fprintf(r.w, "  %d. [P%d] %s — %s%s\n", i+1, t.Priority, id, t.Title, dep)
		fmt.Fprintf(r.w, "     handler: %s\n", t.Handler)
		if len(t.Args) > 0 {
			fmt.Fprintf(r.w, "     args: %s\n", formatArgs(t.Args))
		}
		fmt.Fprintln(r.w)
	}
}

// PrintTasks writes the cogfile task listing in dependency order.
func (r *TextReporter) PrintTasks(graph *task.Graph) {
	fmt.Fprint(r.w, "Cogfile tasks:\n\n")
	for _, id := range graph.Order() {
		t := graph.Task(id)
		dep := ""
		if len(t.DependsOn) > 0 {
			dep = fmt.Sprintf("  (after %s)", strings.Join(t.DependsOn, ", "))
		}
		fmt.Fprintf(r.w, "  %s%-16s%s (%s)  %s%s\n", r.c(colorCyan), id, r.c(colorReset), t.Handler, t.Title, dep)
	}
	fmt.Fprintln(r.w)
}

// PrintHandlers writes the handler listing with parameter schemas.
func (r *TextReporter) PrintHandlers(handlers []HandlerInfo) {
	fmt.Fprint(r.w, "Registered handlers:\n\n")
	for _, h := range handlers {
		fmt.Fprintf(r.w, "  %s%-10s%s %s\n", r.c(colorCyan), h.Name, r.c(colorReset), h.Description)
		for _, p := range h.Params {
			req := ""
			if p.Required {
				req = " (required)"
			} else if p.Default != "" {
				req = fmt.Sprintf(" (default: %s)", p.Default)
			}
			fmt.Fprintf(r.w, "    %s--%s%s  %s%s\n", r.c(colorDim), p.Name, r.c(colorReset), p.Description, req)
		}
	}
	fmt.Fprintln(r.w)
}

// HandlerInfo is a display-friendly handler description.
// Mirrors registry.Handler to avoid a circular import.
type HandlerInfo struct {
	Name        string
	Description string
	Params      []HandlerParam
}

// HandlerParam is one parameter of a HandlerInfo.
type HandlerParam struct {
	Name        string
	Description string
	Required    bool
	Default     string
}

func (r *TextReporter) printSection(label, color string, items []*task.TaskResult, total int, formatter func(*task.TaskResult) string) {
	fmt.Fprintf(r.w, "  %s%s  [%d/%d]%s\n", r.c(color), label, len(items), total, r.c(colorReset))
	for _, res := range items {
		fmt.Fprintln(r.w, formatter(res))
	}
	fmt.Fprintln(r.w)
}

func (r *TextReporter) title(graph *task.Graph, res *task.TaskResult) string {
	if t := graph.Task(res.TaskID); t != nil {
		return t.Title
	}
	return ""
}

func (r *TextReporter) c(code string) string {
	if !r.color {
		return ""
	}
	return code
}

// handlerSuffix returns the handler tag for display, e.g. " (greet)".
func handlerSuffix(res *task.TaskResult) string {
	if res.Handler == "" {
		return ""
	}
	return " (" + res.Handler + ")"
}

// formatArgs renders args as "k=v" pairs in key order.
func formatArgs(args map[string]string) string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	// insertion sort; arg maps are tiny
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, args[k]))
	}
	return strings.Join(parts, " ")
}
