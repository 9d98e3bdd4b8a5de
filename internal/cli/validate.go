package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cogrun/cogrun/internal/config"
	"github.com/cogrun/cogrun/internal/task"
)

func newValidateCmd() *cobra.Command {
	var cogfile string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a cogfile without running anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateCogfile(cogfile)
		},
	}

	cmd.Flags().StringVar(&cogfile, "cogfile", "cogfile.yml", "path to cogfile")

	return cmd
}

func validateCogfile(path string) error {
	cf, err := config.Load(path, builtins())
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	graph, err := task.BuildGraph(cf.Tasks)
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	handlers := countHandlers(cf.Tasks)
	depth := maxDepth(graph)

	fmt.Printf("valid: %d tasks, %d handlers, max depth %d\n", len(cf.Tasks), handlers, depth)
	return nil
}

func countHandlers(tasks []task.Task) int {
	seen := make(map[string]struct{})
	for _, t := range tasks {
		seen[t.Handler] = struct{}{}
	}
	return len(seen)
}

// maxDepth returns the longest dependency chain length in the graph.
func maxDepth(graph *task.Graph) int {
	depths := make(map[string]int)
	max := 0

	for _, id := range graph.Order() {
		d := 0
		for _, parentID := range graph.Deps(id) {
			if pd, ok := depths[parentID]; ok && pd+1 > d {
				d = pd + 1
			}
		}
		depths[id] = d
		if d > max {
			max = d
		}
	}

	return max
}
