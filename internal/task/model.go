package task

import (
	"time"

	"gopkg.in/yaml.v3"
)

// TaskState represents the execution state of a task.
type TaskState int

const (
	StatePending TaskState = iota
	StateReady
	StateRunning
	StateCompleted
	StateFailed
	StateSkipped // dependency failed
)

func (s TaskState) String() string {
	switch s {
	case StatePending:
		return "PENDING"
	case StateReady:
		return "READY"
	case StateRunning:
		return "RUNNING"
	case StateCompleted:
		return "COMPLETED"
	case StateFailed:
		return "FAILED"
	case StateSkipped:
		return "SKIPPED"
	default:
		return "UNKNOWN"
	}
}

// Task is a single named entry from the cogfile.
type Task struct {
	ID        string            `yaml:"id" json:"id"`
	Title     string            `yaml:"title,omitempty" json:"title,omitempty"`
	Handler   string            `yaml:"handler,omitempty" json:"handler,omitempty"` // default: Cogfile.DefaultHandler
	Args      map[string]string `yaml:"args,omitempty" json:"args,omitempty"`
	Priority  int               `yaml:"priority,omitempty" json:"priority,omitempty"`
	DependsOn DependList        `yaml:"depends_on,omitempty" json:"depends_on,omitempty"`
}

// DependList is a task's dependency list. It decodes from either a
// single scalar or a sequence:
//
//	depends_on: task-a   → ["task-a"]
//	depends_on: [a, b]   → ["a", "b"]
type DependList []string

func (d *DependList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		if s != "" {
			*d = DependList{s}
		}
		return nil
	}
	return node.Decode((*[]string)(d))
}

// Cogfile is the top-level structure of a cogfile.yml.
type Cogfile struct {
	Description    string `yaml:"description,omitempty"`
	DefaultHandler string `yaml:"default_handler,omitempty"` // default: "greet"
	Tasks          []Task `yaml:"tasks"`
}

// TaskResult captures the outcome of executing a single task.
type TaskResult struct {
	TaskID    string        `json:"task_id"`
	State     TaskState     `json:"state"`
	Handler   string        `json:"handler,omitempty"`
	StartedAt time.Time     `json:"started_at,omitempty"`
	EndedAt   time.Time     `json:"ended_at,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	Output    string        `json:"output,omitempty"` // captured handler stdout
	Error     string        `json:"error,omitempty"`
}

// RunReport is the final output of a cogrun execution.
type RunReport struct {
	RunID         string                 `json:"run_id"`
	Timestamp     time.Time              `json:"timestamp"`
	Cogfile       string                 `json:"cogfile"`
	Workers       int                    `json:"workers"`
	Filter        string                 `json:"filter,omitempty"`
	Results       map[string]*TaskResult `json:"results"`
	TotalTasks    int                    `json:"total_tasks"`
	Completed     int                    `json:"completed"`
	Failed        int                    `json:"failed"`
	Skipped       int                    `json:"skipped"`
	TotalDuration time.Duration          `json:"total_duration"`
}
