package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cogrun/cogrun/internal/task"
)

// DefaultHandler is used for tasks that declare no handler and cogfiles
// that declare no default.
const DefaultHandler = "greet"

// HandlerSet reports which handler names are dispatchable.
// Satisfied by registry.Registry.
type HandlerSet interface {
	Has(name string) bool
}

// Load reads and validates a cogfile.
func Load(path string, handlers HandlerSet) (*task.Cogfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cogfile: %w", err)
	}

	var cf task.Cogfile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse cogfile: %w", err)
	}

	if cf.DefaultHandler == "" {
		cf.DefaultHandler = DefaultHandler
	}
	for i := range cf.Tasks {
		if cf.Tasks[i].Handler == "" {
			cf.Tasks[i].Handler = cf.DefaultHandler
		}
	}

	if err := validate(&cf, handlers); err != nil {
		return nil, err
	}

	resolveEnvArgs(&cf)

	return &cf, nil
}

// validate checks for duplicate IDs, unknown handlers and dangling
// depends_on references.
func validate(cf *task.Cogfile, handlers HandlerSet) error {
	if len(cf.Tasks) == 0 {
		return fmt.Errorf("cogfile contains no tasks")
	}

	ids := make(map[string]struct{}, len(cf.Tasks))
	for _, t := range cf.Tasks {
		if t.ID == "" {
			return fmt.Errorf("task with empty id")
		}
		if _, dup := ids[t.ID]; dup {
			return fmt.Errorf("duplicate task id: %q", t.ID)
		}
		ids[t.ID] = struct{}{}

		if handlers != nil && !handlers.Has(t.Handler) {
			return fmt.Errorf("task %q uses unknown handler %q", t.ID, t.Handler)
		}
	}

	for _, t := range cf.Tasks {
		for _, dep := range t.DependsOn {
			if _, ok := ids[dep]; !ok {
				return fmt.Errorf("task %q depends on unknown task %q", t.ID, dep)
			}
			if dep == t.ID {
				return fmt.Errorf("task %q depends on itself", t.ID)
			}
		}
	}

	return nil
}

// resolveEnvArgs replaces "env:VAR" argument values with the variable's
// value at load time.
func resolveEnvArgs(cf *task.Cogfile) {
	for i := range cf.Tasks {
		for k, v := range cf.Tasks[i].Args {
			if strings.HasPrefix(v, "env:") {
				cf.Tasks[i].Args[k] = os.Getenv(strings.TrimPrefix(v, "env:"))
			}
		}
	}
}
