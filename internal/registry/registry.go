// Package registry maps task-handler names to callable handlers with
// declared parameter schemas.
package registry

import (
	"context"
	"fmt"
	"io"
	"sort"
)

// ParamSpec declares a single named parameter a handler accepts.
type ParamSpec struct {
	Name        string
	Description string
	Required    bool
	Default     string
}

// Handler is a named, invocable unit of work.
type Handler interface {
	// Name is the identifier tasks reference in the cogfile.
	Name() string
	// Describe is a one-line summary for listings.
	Describe() string
	// Params declares the accepted arguments.
	Params() []ParamSpec
	// Run executes the handler with validated arguments, writing any
	// task output to stdout.
	Run(ctx context.Context, args map[string]string, stdout io.Writer) error
}

// Registry holds registered handlers keyed by name.
type Registry struct {
	handlers map[string]Handler
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds a handler. Duplicate names are an error.
func (r *Registry) Register(h Handler) error {
	name := h.Name()
	if name == "" {
		return fmt.Errorf("handler with empty name")
	}
	if _, dup := r.handlers[name]; dup {
		return fmt.Errorf("duplicate handler: %q", name)
	}
	r.handlers[name] = h
	return nil
}

// MustRegister is Register for built-ins wired at startup.
func (r *Registry) MustRegister(h Handler) {
	if err := r.Register(h); err != nil {
		panic(err)
	}
}

// Lookup returns the handler for a name.
func (r *Registry) Lookup(name string) (Handler, error) {
	h, ok := r.handlers[name]
	if !ok {
		return nil, fmt.Errorf("unknown handler: %q", name)
	}
	return h, nil
}

// Has reports whether a handler is registered under name.
func (r *Registry) Has(name string) bool {
	_, ok := r.handlers[name]
	return ok
}

// Names returns registered handler names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateArgs checks args against the handler's parameter schema and
// fills in declared defaults. Returns the effective argument map.
func ValidateArgs(h Handler, args map[string]string) (map[string]string, error) {
	specs := h.Params()
	known := make(map[string]ParamSpec, len(specs))
	for _, p := range specs {
		known[p.Name] = p
	}

	for name := range args {
		if _, ok := known[name]; !ok {
			return nil, fmt.Errorf("handler %q: unknown argument %q", h.Name(), name)
		}
	}

	effective := make(map[string]string, len(specs))
	for _, p := range specs {
		v, ok := args[p.Name]
		switch {
		case ok:
			effective[p.Name] = v
		case p.Required:
			return nil, fmt.Errorf("handler %q: missing required argument %q", h.Name(), p.Name)
		case p.Default != "":
			effective[p.Name] = p.Default
		}
	}
	return effective, nil
}

// Dispatch validates args and runs the named handler.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]string, stdout io.Writer) error {
	h, err := r.Lookup(name)
	if err != nil {
		return err
	}
	effective, err := ValidateArgs(h, args)
	if err != nil {
		return err
	}
	return h.Run(ctx, effective, stdout)
}
