package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cogrun/cogrun/internal/registry"
)

// Version, Commit and BuildDate are set via LDFLAGS at build time.
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

var (
	verbose    bool
	configFile string
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cogrun",
		Short: "Named-task runner with dependency-aware scheduling",
		Long:  "cogrun dispatches named tasks from a YAML cogfile to registered handlers, scheduling independent tasks in parallel.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})))
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&configFile, "config", ".cogrun.yml", "path to config file")

	root.AddCommand(newGreetCmd())
	root.AddCommand(newRunCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newHistoryCmd())
	root.AddCommand(newWatchCmd())
	root.AddCommand(newVersionCmd())

	return root
}

// builtins returns the registry with all built-in handlers.
func builtins() *registry.Registry {
	r := registry.New()
	r.MustRegister(registry.NewGreetHandler(nil))
	r.MustRegister(registry.NewScriptHandler())
	return r
}
