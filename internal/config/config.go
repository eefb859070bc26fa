// internal/config/config.go
//
// This package handles configuration and the .task-cli directory structure.
// The tracker works without any configuration: tasks live in ./tasks.json.
// A project can drop a .task-cli/config.yaml (or a .env file, or environment
// variables) next to it to move the backing file, tune logging or turn the
// mutation history off.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// ProjectDirName is the directory holding config, logs and history.
	ProjectDirName = ".task-cli"

	defaultTasksFile   = "tasks.json"
	defaultLogLevel    = "info"
	defaultLogFile     = ProjectDirName + "/logs/task-cli.log"
	defaultHistoryFile = ProjectDirName + "/history.log"
)

const defaultProjectConfigYAML = `# task-cli project configuration
version: 1

# Backing file for the task collection, relative to this project.
tasks_file: tasks.json

log:
  # debug | info | warn | error | disabled
  level: info
  file: .task-cli/logs/task-cli.log

# Journal of every add / update / delete / status change.
history:
  enabled: true
  file: .task-cli/history.log
`

// LogConfig controls the diagnostic log.
type LogConfig struct {
	Level string `yaml:"level" env:"TASK_CLI_LOG_LEVEL"`
	File  string `yaml:"file" env:"TASK_CLI_LOG_FILE"`
}

// HistoryConfig controls the mutation journal.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled" env:"TASK_CLI_HISTORY"`
	File    string `yaml:"file" env:"TASK_CLI_HISTORY_FILE"`
}

// ProjectConfig models .task-cli/config.yaml.
type ProjectConfig struct {
	Version   int           `yaml:"version"`
	TasksFile string        `yaml:"tasks_file" env:"TASK_CLI_FILE"`
	Log       LogConfig     `yaml:"log"`
	History   HistoryConfig `yaml:"history"`
}

// Config holds the runtime configuration for one invocation.
type Config struct {
	// WorkDir is the directory the command runs against.
	WorkDir string

	// ProjectDir is WorkDir/.task-cli
	ProjectDir string

	Project ProjectConfig
}

// NewConfig resolves configuration for workDir. Sources are applied in order:
// built-in defaults, .task-cli/config.yaml, .env, then the process environment.
func NewConfig(workDir string) (*Config, error) {
	abs, err := filepath.Abs(workDir)
	if err != nil {
		return nil, fmt.Errorf("config: resolve work dir: %w", err)
	}
	cfg := &Config{
		WorkDir:    abs,
		ProjectDir: filepath.Join(abs, ProjectDirName),
		Project:    defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}
	cfg.Project.applyDefaults()
	cfg.Project.normalize(cfg.WorkDir)
	if err := cfg.Project.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// InitProjectDir creates the .task-cli directory and writes a default
// config.yaml when none exists. It reports whether a file was written.
func InitProjectDir(workDir string) (string, bool, error) {
	dir := filepath.Join(workDir, ProjectDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", false, fmt.Errorf("config: ensure project dir: %w", err)
	}
	path := filepath.Join(dir, "config.yaml")
	created, err := ensureProjectConfig(path)
	if err != nil {
		return "", false, fmt.Errorf("config: write %s: %w", path, err)
	}
	return path, created, nil
}

// ConfigPath returns the on-disk location for the project config file.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.ProjectDir, "config.yaml")
}

// TasksPath returns the absolute path of the backing file.
func (c *Config) TasksPath() string {
	return c.Project.TasksFile
}

// LogPath returns the log file path, or "" when logging is disabled.
func (c *Config) LogPath() string {
	return c.Project.Log.File
}

// LogLevel returns the configured log level name.
func (c *Config) LogLevel() string {
	return c.Project.Log.Level
}

// HistoryPath returns the journal path, or "" when history is disabled.
func (c *Config) HistoryPath() string {
	if !c.Project.History.Enabled {
		return ""
	}
	return c.Project.History.File
}

func (c *Config) loadProjectConfig() error {
	path := c.ConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	parsed := defaultProjectConfig()
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	parsed.applyDefaults()
	c.Project = parsed
	return nil
}

// loadEnv reads WorkDir/.env without overriding variables that are already
// set, then overlays TASK_CLI_* variables onto the project config.
func (c *Config) loadEnv() error {
	envPath := filepath.Join(c.WorkDir, ".env")
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: load %s: %w", envPath, err)
	}
	if err := cleanenv.ReadEnv(&c.Project); err != nil {
		return fmt.Errorf("config: read environment: %w", err)
	}
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version:   1,
		TasksFile: defaultTasksFile,
		Log: LogConfig{
			Level: defaultLogLevel,
			File:  defaultLogFile,
		},
		History: HistoryConfig{
			Enabled: true,
			File:    defaultHistoryFile,
		},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if strings.TrimSpace(pc.TasksFile) == "" {
		pc.TasksFile = defaultTasksFile
	}
	if strings.TrimSpace(pc.Log.Level) == "" {
		pc.Log.Level = defaultLogLevel
	}
	if pc.History.Enabled && strings.TrimSpace(pc.History.File) == "" {
		pc.History.File = defaultHistoryFile
	}
}

func (pc *ProjectConfig) normalize(base string) {
	pc.Log.Level = strings.ToLower(strings.TrimSpace(pc.Log.Level))
	pc.TasksFile = resolvePath(base, pc.TasksFile)
	pc.Log.File = resolvePath(base, pc.Log.File)
	pc.History.File = resolvePath(base, pc.History.File)
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if pc.TasksFile == "" {
		return fmt.Errorf("tasks_file is required")
	}
	switch pc.Log.Level {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled", "off", "none":
	default:
		return fmt.Errorf("log.level %q is not a known level", pc.Log.Level)
	}
	return nil
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	if err := os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644); err != nil {
		return false, err
	}
	return true, nil
}
