package task

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ExecFn is the function signature for executing a task.
// Implementations dispatch to a registered handler and return the result.
type ExecFn func(ctx context.Context, t *Task, outputDir string) *TaskResult

// SchedulerConfig holds scheduler parameters.
type SchedulerConfig struct {
	Workers  int
	RunDir   string
	FailFast bool
	ExecFn   ExecFn
	OnUpdate func(id string, result *TaskResult) // called on state changes
}

// Scheduler manages dependency-aware parallel task execution.
type Scheduler struct {
	cfg     SchedulerConfig
	graph   *Graph
	results map[string]*TaskResult
	halted  bool // fail-fast tripped
	mu      sync.Mutex
}

// NewScheduler creates a scheduler for the given task graph.
func NewScheduler(graph *Graph, cfg SchedulerConfig) *Scheduler {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	results := make(map[string]*TaskResult, len(graph.Tasks()))
	for id := range graph.Tasks() {
		results[id] = &TaskResult{
			TaskID: id,
			State:  StatePending,
		}
	}

	return &Scheduler{
		cfg:     cfg,
		graph:   graph,
		results: results,
	}
}

// Run executes all tasks respecting dependencies and parallelism limits.
// Returns all results when complete.
func (s *Scheduler) Run(ctx context.Context) map[string]*TaskResult {
	var wg sync.WaitGroup
	work := make(chan string, len(s.graph.Tasks()))

	// start workers
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range work {
				s.execute(ctx, id, work)
			}
		}()
	}

	// enqueue roots
	for _, id := range s.graph.Roots() {
		s.setState(id, StateReady)
		work <- id
	}

	// wait until every task is terminal, then release the workers
	done := make(chan struct{})
	go func() {
		for {
			if ctx.Err() != nil {
				s.skipUnstarted("run canceled")
			}
			s.mu.Lock()
			allDone := true
			for _, r := range s.results {
				if r.State == StatePending || r.State == StateReady || r.State == StateRunning {
					allDone = false
					break
				}
			}
			s.mu.Unlock()

			if allDone {
				close(done)
				return
			}
			time.Sleep(50 * time.Millisecond)
		}
	}()

	<-done
	close(work)
	wg.Wait()

	return s.results
}

// Results returns a copy of the current state of all task results.
func (s *Scheduler) Results() map[string]*TaskResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make(map[string]*TaskResult, len(s.results))
	for k, v := range s.results {
		cpy := *v
		cp[k] = &cpy
	}
	return cp
}

func (s *Scheduler) execute(ctx context.Context, id string, work chan<- string) {
	s.mu.Lock()
	if s.halted || s.results[id].State != StateReady {
		s.mu.Unlock()
		return
	}
	s.results[id].State = StateRunning
	s.results[id].StartedAt = time.Now()
	s.mu.Unlock()
	s.notify(id)

	t := s.graph.Task(id)
	outputDir := fmt.Sprintf("%s/%s", s.cfg.RunDir, id)
	result := s.cfg.ExecFn(ctx, t, outputDir)

	s.mu.Lock()
	result.TaskID = id
	s.results[id] = result
	s.mu.Unlock()
	s.notify(id)

	if result.State == StateCompleted {
		s.unlockChildren(id, work)
		return
	}
	s.skipDependents(id)
	if s.cfg.FailFast {
		s.mu.Lock()
		s.halted = true
		s.mu.Unlock()
		s.skipUnstarted(fmt.Sprintf("fail-fast: task %q failed", id))
	}
}

// unlockChildren marks children ready once all of their parents completed.
func (s *Scheduler) unlockChildren(id string, work chan<- string) {
	for _, childID := range s.graph.Children(id) {
		s.mu.Lock()
		r := s.results[childID]
		ready := r.State == StatePending && s.depsSatisfiedLocked(childID)
		if ready {
			r.State = StateReady
		}
		s.mu.Unlock()

		if ready {
			s.notify(childID)
			work <- childID
		}
	}
}

// depsSatisfiedLocked reports whether every parent of id completed.
// Caller holds s.mu.
func (s *Scheduler) depsSatisfiedLocked(id string) bool {
	for _, dep := range s.graph.Deps(id) {
		if r := s.results[dep]; r == nil || r.State != StateCompleted {
			return false
		}
	}
	return true
}

func (s *Scheduler) skipDependents(id string) {
	for _, depID := range s.graph.Dependents(id) {
		s.mu.Lock()
		r := s.results[depID]
		changed := r.State == StatePending || r.State == StateReady
		if changed {
			r.State = StateSkipped
			r.Error = fmt.Sprintf("dependency %q failed", id)
		}
		s.mu.Unlock()
		if changed {
			s.notify(depID)
		}
	}
}

// skipUnstarted marks every non-terminal, non-running task as skipped.
func (s *Scheduler) skipUnstarted(reason string) {
	var skipped []string
	s.mu.Lock()
	for id, r := range s.results {
		if r.State == StatePending || r.State == StateReady {
			r.State = StateSkipped
			r.Error = reason
			skipped = append(skipped, id)
		}
	}
	s.mu.Unlock()
	for _, id := range skipped {
		s.notify(id)
	}
}

func (s *Scheduler) setState(id string, state TaskState) {
	s.mu.Lock()
	s.results[id].State = state
	s.mu.Unlock()
}

func (s *Scheduler) notify(id string) {
	if s.cfg.OnUpdate != nil {
		s.mu.Lock()
		cpy := *s.results[id]
		s.mu.Unlock()
		s.cfg.OnUpdate(id, &cpy)
	}
}
