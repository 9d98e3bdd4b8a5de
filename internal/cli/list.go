package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cogrun/cogrun/internal/config"
	"github.com/cogrun/cogrun/internal/registry"
	"github.com/cogrun/cogrun/internal/reporter"
	"github.com/cogrun/cogrun/internal/task"
)

func newListCmd() *cobra.Command {
	var cogfile string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered handlers and cogfile tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadSettings(configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if !cmd.Flags().Changed("cogfile") && cfg.Cogfile != "" {
				cogfile = cfg.Cogfile
			}

			handlers := builtins()
			rep := reporter.NewTextReporter(cmd.OutOrStdout(), isTerminal())
			rep.PrintHandlers(handlerInfos(handlers))

			cf, err := config.Load(cogfile, handlers)
			if err != nil {
				// handlers alone are still worth listing without a cogfile
				if errors.Is(err, os.ErrNotExist) {
					return nil
				}
				return err
			}
			graph, err := task.BuildGraph(cf.Tasks)
			if err != nil {
				return err
			}
			rep.PrintTasks(graph)
			return nil
		},
	}

	cmd.Flags().StringVar(&cogfile, "cogfile", "cogfile.yml", "path to cogfile")

	return cmd
}

// handlerInfos converts the registry into display records.
func handlerInfos(r *registry.Registry) []reporter.HandlerInfo {
	var out []reporter.HandlerInfo
	for _, name := range r.Names() {
		h, err := r.Lookup(name)
		if err != nil {
			continue
		}
		info := reporter.HandlerInfo{
			Name:        h.Name(),
			Description: h.Describe(),
		}
		for _, p := range h.Params() {
			info.Params = append(info.Params, reporter.HandlerParam{
				Name:        p.Name,
				Description: p.Description,
				Required:    p.Required,
				Default:     p.Default,
			})
		}
		out = append(out, info)
	}
	return out
}
