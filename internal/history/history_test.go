package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/cogrun/cogrun/internal/task"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleReport(runID string, ts time.Time) *task.RunReport {
	return &task.RunReport{
		RunID:     runID,
		Timestamp: ts,
		Cogfile:   "cogfile.yml",
		Workers:   4,
		Results: map[string]*task.TaskResult{
			"hello": {
				TaskID:   "hello",
				State:    task.StateCompleted,
				Handler:  "greet",
				Duration: 12 * time.Millisecond,
			},
			"broken": {
				TaskID:   "broken",
				State:    task.StateFailed,
				Handler:  "script",
				Error:    "script exited: exit status 1",
				Duration: 40 * time.Millisecond,
			},
		},
		TotalTasks:    2,
		Completed:     1,
		Failed:        1,
		TotalDuration: time.Second,
	}
}

func TestStore_RecordAndQueryRuns(t *testing.T) {
	s := openTemp(t)

	base := time.Now().Truncate(time.Second)
	if err := s.RecordRun(sampleReport("run-1", base.Add(-time.Hour))); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordRun(sampleReport("run-2", base)); err != nil {
		t.Fatal(err)
	}

	runs, err := s.Runs(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	// newest first
	if runs[0].RunID != "run-2" {
		t.Errorf("expected run-2 first, got %q", runs[0].RunID)
	}
	if runs[0].Completed != 1 || runs[0].Failed != 1 {
		t.Errorf("counts wrong: %+v", runs[0])
	}
	if runs[0].Duration != time.Second {
		t.Errorf("duration: got %v, want 1s", runs[0].Duration)
	}
}

func TestStore_RunsLimit(t *testing.T) {
	s := openTemp(t)

	base := time.Now()
	for i := 0; i < 5; i++ {
		r := sampleReport(string(rune('a'+i)), base.Add(time.Duration(i)*time.Minute))
		if err := s.RecordRun(r); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := s.Runs(3)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 3 {
		t.Errorf("expected 3 runs, got %d", len(runs))
	}
}

func TestStore_TaskHistory(t *testing.T) {
	s := openTemp(t)

	base := time.Now()
	if err := s.RecordRun(sampleReport("run-1", base.Add(-time.Hour))); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordRun(sampleReport("run-2", base)); err != nil {
		t.Fatal(err)
	}

	recs, err := s.TaskHistory("broken", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].RunID != "run-2" {
		t.Errorf("expected run-2 first, got %q", recs[0].RunID)
	}
	if recs[0].State != "FAILED" {
		t.Errorf("state: got %q, want FAILED", recs[0].State)
	}
	if recs[0].Error == "" {
		t.Error("expected error message preserved")
	}

	// unknown task
	recs, err = s.TaskHistory("ghost", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 0 {
		t.Errorf("expected no records, got %d", len(recs))
	}
}

func TestStore_DuplicateRunID(t *testing.T) {
	s := openTemp(t)

	r := sampleReport("same", time.Now())
	if err := s.RecordRun(r); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordRun(r); err == nil {
		t.Error("expected error for duplicate run id")
	}
}
