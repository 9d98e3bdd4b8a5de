package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/cogrun/cogrun/internal/task"
)

func TestBuildReport_RunID(t *testing.T) {
	results := map[string]*task.TaskResult{
		"task-1": {TaskID: "task-1", State: task.StateCompleted},
	}

	r := buildReport("cogfile.yml", 2, "", results, 5*time.Second)
	if r.RunID == "" {
		t.Fatal("expected non-empty RunID")
	}
	if len(r.RunID) != 12 {
		t.Errorf("expected 12-char RunID, got %d: %q", len(r.RunID), r.RunID)
	}
}

func TestBuildReport_RunIDDeterministic(t *testing.T) {
	// the hash is computed from timestamp + cogfile path
	results := map[string]*task.TaskResult{}

	r1 := buildReport("a.yml", 1, "", results, 0)
	r2 := buildReport("b.yml", 1, "", results, 0)

	if r1.RunID == r2.RunID {
		t.Error("different cogfiles should produce different RunIDs")
	}
}

func TestBuildReport_Counts(t *testing.T) {
	results := map[string]*task.TaskResult{
		"a": {TaskID: "a", State: task.StateCompleted},
		"b": {TaskID: "b", State: task.StateCompleted},
		"c": {TaskID: "c", State: task.StateFailed},
		"d": {TaskID: "d", State: task.StateSkipped},
	}

	r := buildReport("cogfile.yml", 4, "", results, time.Second)
	if r.TotalTasks != 4 {
		t.Errorf("TotalTasks = %d, want 4", r.TotalTasks)
	}
	if r.Completed != 2 || r.Failed != 1 || r.Skipped != 1 {
		t.Errorf("counts = %d/%d/%d, want 2/1/1", r.Completed, r.Failed, r.Skipped)
	}
}

func TestMatchGlob(t *testing.T) {
	cases := []struct {
		s, pattern string
		want       bool
	}{
		{"build-api", "build-api", true},
		{"build-api", "build-*", true},
		{"build-api", "*-api", true},
		{"build-api", "build*api", true},
		{"build-api", "test-*", false},
		{"build-api", "*-web", false},
		{"build-api", "other", false},
	}
	for _, tc := range cases {
		if got := matchGlob(tc.s, tc.pattern); got != tc.want {
			t.Errorf("matchGlob(%q, %q) = %v, want %v", tc.s, tc.pattern, got, tc.want)
		}
	}
}

func TestFilterTasks(t *testing.T) {
	tasks := []task.Task{
		{ID: "build-api"},
		{ID: "build-web"},
		{ID: "deploy"},
	}

	got := filterTasks(tasks, "build-*")
	if len(got) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(got))
	}
	for _, tk := range got {
		if tk.ID != "build-api" && tk.ID != "build-web" {
			t.Errorf("unexpected task %q in filtered set", tk.ID)
		}
	}
}

func TestSelectTasks(t *testing.T) {
	tasks := []task.Task{
		{ID: "build"},
		{ID: "test"},
		{ID: "deploy"},
	}

	got, err := selectTasks(tasks, []string{"deploy", "build"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(got))
	}
	// cogfile order is preserved regardless of argument order
	if got[0].ID != "build" || got[1].ID != "deploy" {
		t.Errorf("selected = [%s %s], want [build deploy]", got[0].ID, got[1].ID)
	}
}

func TestSelectTasks_UnknownID(t *testing.T) {
	tasks := []task.Task{{ID: "build"}}

	_, err := selectTasks(tasks, []string{"build", "nope", "missing"})
	if err == nil {
		t.Fatal("expected error for unknown task ids")
	}
	if !strings.Contains(err.Error(), "missing, nope") {
		t.Errorf("error should name the unknown ids sorted, got: %v", err)
	}
}

func TestLastLine(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"one\n", "one"},
		{"one\ntwo\n", "two"},
		{"one\ntwo\n\n  \n", "two"},
		{"  spaced  \n", "spaced"},
	}
	for _, tc := range cases {
		if got := lastLine(tc.in); got != tc.want {
			t.Errorf("lastLine(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
