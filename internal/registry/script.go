package registry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
)

// ScriptHandler executes shell commands via sh -c.
type ScriptHandler struct{}

// NewScriptHandler creates a new ScriptHandler.
func NewScriptHandler() *ScriptHandler {
	return &ScriptHandler{}
}

func (h *ScriptHandler) Name() string { return "script" }

func (h *ScriptHandler) Describe() string {
	return "run a shell command"
}

func (h *ScriptHandler) Params() []ParamSpec {
	return []ParamSpec{
		{Name: "command", Description: "shell command passed to sh -c", Required: true},
		{Name: "dir", Description: "working directory; defaults to the current directory"},
	}
}

func (h *ScriptHandler) Run(ctx context.Context, args map[string]string, stdout io.Writer) error {
	command := args["command"]
	slog.Debug("spawning script", "command", command, "dir", args["dir"])

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = args["dir"]
	cmd.Stdout = stdout
	cmd.Stderr = stdout

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("script exited: %w", err)
	}
	return nil
}
