package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cogrun/cogrun/internal/config"
	"github.com/cogrun/cogrun/internal/history"
)

func newHistoryCmd() *cobra.Command {
	var (
		dbPath string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "history [task-id]",
		Short: "Show past runs, or past outcomes of one task",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				cfg, err := config.LoadSettings(configFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				dbPath = cfg.History
				if dbPath == "" {
					dbPath = history.DefaultPath()
				}
			}
			store, err := history.Open(dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if len(args) == 1 {
				return showTaskHistory(store, args[0], limit)
			}
			return showRuns(store, limit)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "path to history database (defaults to config or .cogrun/history.db)")
	cmd.Flags().IntVar(&limit, "limit", 10, "max entries to show")

	return cmd
}

func showRuns(store *history.Store, limit int) error {
	runs, err := store.Runs(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no recorded runs")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tWHEN\tCOGFILE\tTASKS\tOK\tFAIL\tSKIP\tDURATION")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			r.RunID,
			r.Timestamp.Format("2006-01-02 15:04"),
			r.Cogfile,
			r.Total, r.Completed, r.Failed, r.Skipped,
			r.Duration.Round(10*time.Millisecond),
		)
	}
	return tw.Flush()
}

func showTaskHistory(store *history.Store, taskID string, limit int) error {
	records, err := store.TaskHistory(taskID, limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Printf("no recorded outcomes for task %q\n", taskID)
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTATE\tHANDLER\tDURATION\tERROR")
	for _, rec := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			rec.RunID, rec.State, rec.Handler, rec.Duration.Round(10*time.Millisecond), rec.Error)
	}
	return tw.Flush()
}
