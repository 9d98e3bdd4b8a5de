package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Settings holds persistent CLI defaults loaded from a config file.
type Settings struct {
	Cogfile    string        `yaml:"cogfile"`     // default cogfile path
	Workers    int           `yaml:"workers"`     // max parallel tasks
	MaxRuntime time.Duration `yaml:"max_runtime"` // per-task timeout
	FailFast   bool          `yaml:"fail_fast"`
	Display    string        `yaml:"display"`  // tui, live, off, auto
	RunDir     string        `yaml:"run_dir"`  // base directory for run artifacts
	History    string        `yaml:"history"`  // path to the history database
	PostRun    string        `yaml:"post_run"` // shell command after a run; $COGRUN_RUN_DIR is set
}

// LoadSettings reads a YAML config file into Settings, after loading a
// .env file if one exists alongside the working directory.
// If the config file does not exist, it returns zero-value Settings and
// nil error.
func LoadSettings(path string) (*Settings, error) {
	// .env values only fill unset variables, never override
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Settings{}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return &s, nil
}
