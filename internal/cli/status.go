package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cogrun/cogrun/internal/task"
)

func newStatusCmd() *cobra.Command {
	var runDir string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Inspect results of a completed run",
		RunE: func(cmd *cobra.Command, args []string) error {
			if runDir == "" {
				latest, err := findLatestRunDir(".")
				if err != nil {
					return fmt.Errorf("no --run-dir specified and %w", err)
				}
				runDir = latest
			}
			return showStatus(runDir)
		},
	}

	cmd.Flags().StringVar(&runDir, "run-dir", "", "path to .cogrun/<timestamp> directory (auto-detects latest if omitted)")

	return cmd
}

// findLatestRunDir scans baseDir/.cogrun/ for the most recent run
// directory that contains a report.json.
func findLatestRunDir(baseDir string) (string, error) {
	crDir := fmt.Sprintf("%s/.cogrun", baseDir)
	entries, err := os.ReadDir(crDir)
	if err != nil {
		return "", fmt.Errorf("cannot read .cogrun directory: %w", err)
	}

	// entries are sorted alphabetically; timestamps sort chronologically
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if !e.IsDir() {
			continue
		}
		candidate := fmt.Sprintf("%s/%s", crDir, e.Name())
		if _, err := os.Stat(fmt.Sprintf("%s/report.json", candidate)); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no completed runs found in %s", crDir)
}

func showStatus(runDir string) error {
	reportPath := fmt.Sprintf("%s/report.json", runDir)
	data, err := os.ReadFile(reportPath)
	if err != nil {
		return fmt.Errorf("read report: %w", err)
	}

	var report task.RunReport
	if err := json.Unmarshal(data, &report); err != nil {
		return fmt.Errorf("parse report: %w", err)
	}

	fmt.Printf("Run: %s\n", report.Timestamp.Format("2006-01-02 15:04:05"))
	if report.RunID != "" {
		fmt.Printf("Run ID: %s\n", report.RunID)
	}
	fmt.Printf("Cogfile: %s\n", report.Cogfile)
	fmt.Printf("Workers: %d\n", report.Workers)
	if report.Filter != "" {
		fmt.Printf("Filter: %s\n", report.Filter)
	}
	fmt.Printf("Duration: %s\n\n", report.TotalDuration)

	fmt.Printf("Total: %d  Completed: %d  Failed: %d  Skipped: %d\n\n",
		report.TotalTasks, report.Completed, report.Failed, report.Skipped)

	for id, r := range report.Results {
		line := fmt.Sprintf("  %-30s  %s", id, r.State)
		if r.Error != "" {
			line += fmt.Sprintf("  (%s)", r.Error)
		}
		if r.Duration > 0 {
			line += fmt.Sprintf("  %s", r.Duration)
		}
		fmt.Println(line)
	}

	return nil
}
