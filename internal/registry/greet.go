package registry

import (
	"context"
	"io"

	"github.com/cogrun/cogrun/internal/greet"
)

// GreetHandler exposes the greeting task as a registered handler.
type GreetHandler struct {
	greeter *greet.Greeter
}

// NewGreetHandler creates the greet handler. A nil identity uses the OS.
func NewGreetHandler(identity greet.IdentityProvider) *GreetHandler {
	return &GreetHandler{greeter: greet.New(identity)}
}

func (h *GreetHandler) Name() string { return "greet" }

func (h *GreetHandler) Describe() string {
	return "greet someone (if not specified, the current user)"
}

func (h *GreetHandler) Params() []ParamSpec {
	return []ParamSpec{
		{Name: "name", Description: "who to greet; defaults to the current user"},
	}
}

func (h *GreetHandler) Run(_ context.Context, args map[string]string, stdout io.Writer) error {
	return h.greeter.Greet(stdout, args["name"])
}
