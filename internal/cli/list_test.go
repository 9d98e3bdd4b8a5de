package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestListCmd_ShowsHandlersAndTasks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cogfile.yml")
	cogfile := `tasks:
  - id: hello
    handler: greet
  - id: bye
    title: Say goodbye
    handler: script
    args:
      command: echo bye
    depends_on: hello
`
	if err := os.WriteFile(path, []byte(cogfile), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := newListCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--cogfile", path})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("list failed: %v", err)
	}

	got := out.String()
	for _, want := range []string{"Registered handlers", "greet", "script", "Cogfile tasks", "hello", "bye", "after hello"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestListCmd_ToleratesMissingCogfile(t *testing.T) {
	cmd := newListCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--cogfile", filepath.Join(t.TempDir(), "absent.yml")})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("list should tolerate a missing cogfile: %v", err)
	}
	if !strings.Contains(out.String(), "Registered handlers") {
		t.Errorf("handler listing missing:\n%s", out.String())
	}
	if strings.Contains(out.String(), "Cogfile tasks") {
		t.Errorf("task listing should be absent without a cogfile:\n%s", out.String())
	}
}
