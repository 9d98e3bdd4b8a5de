package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// stubSet is a HandlerSet backed by a fixed name list.
type stubSet []string

func (s stubSet) Has(name string) bool {
	for _, n := range s {
		if n == name {
			return true
		}
	}
	return false
}

var knownHandlers = stubSet{"greet", "script"}

func writeCogfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cogfile.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Valid(t *testing.T) {
	content := `
description: demo tasks
tasks:
  - id: hello
    title: Greet someone
    args:
      name: world
  - id: after
    handler: script
    depends_on: hello
    args:
      command: echo done
`
	path := writeCogfile(t, content)
	cf, err := Load(path, knownHandlers)
	if err != nil {
		t.Fatal(err)
	}

	if len(cf.Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(cf.Tasks))
	}
	if cf.DefaultHandler != "greet" {
		t.Errorf("default handler: got %q, want greet", cf.DefaultHandler)
	}
	// default handler filled in
	if cf.Tasks[0].Handler != "greet" {
		t.Errorf("task hello handler: got %q, want greet", cf.Tasks[0].Handler)
	}
	if cf.Tasks[0].Args["name"] != "world" {
		t.Errorf("task hello name arg: got %q", cf.Tasks[0].Args["name"])
	}
	// scalar depends_on promoted to list
	if len(cf.Tasks[1].DependsOn) != 1 || cf.Tasks[1].DependsOn[0] != "hello" {
		t.Errorf("depends_on: got %v, want [hello]", cf.Tasks[1].DependsOn)
	}
}

func TestLoad_DependsOnList(t *testing.T) {
	content := `
tasks:
  - id: a
  - id: b
  - id: c
    depends_on: [a, b]
`
	path := writeCogfile(t, content)
	cf, err := Load(path, knownHandlers)
	if err != nil {
		t.Fatal(err)
	}
	if len(cf.Tasks[2].DependsOn) != 2 {
		t.Errorf("depends_on: got %v, want [a b]", cf.Tasks[2].DependsOn)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"), knownHandlers)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{"empty", "tasks: []", "no tasks"},
		{"empty id", "tasks:\n  - title: x", "empty id"},
		{"duplicate id", "tasks:\n  - id: a\n  - id: a", "duplicate"},
		{"unknown handler", "tasks:\n  - id: a\n    handler: bogus", "unknown handler"},
		{"dangling dep", "tasks:\n  - id: a\n    depends_on: ghost", "unknown task"},
		{"self dep", "tasks:\n  - id: a\n    depends_on: a", "depends on itself"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeCogfile(t, tc.content)
			_, err := Load(path, knownHandlers)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not contain %q", err, tc.wantErr)
			}
		})
	}
}

func TestLoad_EnvArgs(t *testing.T) {
	t.Setenv("COGRUN_TEST_NAME", "zoe")
	content := `
tasks:
  - id: hello
    args:
      name: env:COGRUN_TEST_NAME
`
	path := writeCogfile(t, content)
	cf, err := Load(path, knownHandlers)
	if err != nil {
		t.Fatal(err)
	}
	if got := cf.Tasks[0].Args["name"]; got != "zoe" {
		t.Errorf("env arg: got %q, want zoe", got)
	}
}

func TestLoad_UnvalidatedHandlers(t *testing.T) {
	// nil HandlerSet skips handler checks (used by validate-only paths)
	content := `
tasks:
  - id: a
    handler: anything
`
	path := writeCogfile(t, content)
	if _, err := Load(path, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
