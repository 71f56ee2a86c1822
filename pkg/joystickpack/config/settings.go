package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/joystickpack/pkg/joystickpack/event"
	"github.com/randalmurphal/joystickpack/pkg/joystickpack/joystick"
)

// Settings is the file-level configuration.
type Settings struct {
	Subject  SubjectSettings `yaml:"subject" json:"subject"`
	Joystick joystick.Config `yaml:"joystick" json:"joystick"`
	Logging  LoggingSettings `yaml:"logging" json:"logging"`
}

// SubjectSettings mirrors event.SubjectConfig in serializable form.
type SubjectSettings struct {
	MaxObservers  int    `yaml:"max_observers" json:"max_observers"`
	ErrorStrategy string `yaml:"error_strategy" json:"error_strategy"`
	AsyncErrors   string `yaml:"async_errors" json:"async_errors"`
	EnableMetrics bool   `yaml:"enable_metrics" json:"enable_metrics"`
	EnableTracing bool   `yaml:"enable_tracing" json:"enable_tracing"`
	BatchUpdates  bool   `yaml:"batch_updates" json:"batch_updates"`
}

// LoggingSettings selects the log level and handler format.
type LoggingSettings struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" json:"level"`
	// Format is text or json.
	Format string `yaml:"format" json:"format"`
}

// Default returns the settings used for any field a file leaves out.
func Default() Settings {
	return Settings{
		Subject: SubjectSettings{
			ErrorStrategy: string(event.ErrorThrow),
			AsyncErrors:   string(event.AsyncDiscard),
		},
		Joystick: joystick.DefaultConfig(),
		Logging: LoggingSettings{
			Level:  "info",
			Format: "text",
		},
	}
}

// FromFile loads settings from a file, auto-detecting format by extension.
// Supported extensions: .yaml, .yml, .json
func FromFile(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".json":
		return FromJSON(data)
	default:
		return Settings{}, fmt.Errorf("unsupported config file extension: %s", ext)
	}
}

// FromYAML parses YAML data over Default and validates the result.
func FromYAML(data []byte) (Settings, error) {
	s := Default()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse yaml: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// FromJSON parses JSON data over Default and validates the result.
func FromJSON(data []byte) (Settings, error) {
	s := Default()
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse json: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks every section and reports all problems at once.
func (s Settings) Validate() error {
	var errs []string

	if s.Subject.MaxObservers < 0 {
		errs = append(errs, "subject.max_observers cannot be negative")
	}
	if _, err := event.ParseErrorStrategy(s.Subject.ErrorStrategy); err != nil {
		errs = append(errs, "subject.error_strategy: "+err.Error())
	}
	if _, err := event.ParseAsyncErrorPolicy(s.Subject.AsyncErrors); err != nil {
		errs = append(errs, "subject.async_errors: "+err.Error())
	}
	if err := s.Joystick.Validate(); err != nil {
		errs = append(errs, "joystick: "+err.Error())
	}
	if _, err := parseLevel(s.Logging.Level); err != nil {
		errs = append(errs, "logging.level: "+err.Error())
	}
	switch s.Logging.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("logging.format: unsupported format %q", s.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// SubjectConfig converts the subject section. Logger may be nil.
func (s SubjectSettings) SubjectConfig(logger *slog.Logger) (event.SubjectConfig, error) {
	strategy, err := event.ParseErrorStrategy(s.ErrorStrategy)
	if err != nil {
		return event.SubjectConfig{}, err
	}
	policy, err := event.ParseAsyncErrorPolicy(s.AsyncErrors)
	if err != nil {
		return event.SubjectConfig{}, err
	}
	return event.SubjectConfig{
		MaxObservers:  s.MaxObservers,
		EnableMetrics: s.EnableMetrics,
		EnableTracing: s.EnableTracing,
		BatchUpdates:  s.BatchUpdates,
		ErrorStrategy: strategy,
		AsyncErrors:   policy,
		Logger:        logger,
	}, nil
}
