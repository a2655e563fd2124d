// Package config loads orchestrator configuration from defaults, a YAML
// file and environment variables, in that precedence order.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"neuroweave/orchestrator/internal/orchestrator"
)

// Config represents the complete configuration for the orchestrator host.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
	Worker       WorkerConfig       `yaml:"worker"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address      string        `yaml:"address" env:"NW_SERVER_ADDRESS"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"NW_SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"NW_SERVER_WRITE_TIMEOUT"`
	EnableCORS   bool          `yaml:"enable_cors" env:"NW_SERVER_ENABLE_CORS"`
}

// OrchestratorConfig holds the core orchestration parameters.
type OrchestratorConfig struct {
	LeaseDuration    time.Duration `yaml:"lease_duration" env:"NW_LEASE_DURATION"`
	HeartbeatTimeout time.Duration `yaml:"heartbeat_timeout" env:"NW_HEARTBEAT_TIMEOUT"`
	MaxAttempts      int           `yaml:"max_attempts" env:"NW_MAX_ATTEMPTS"`
	SweepInterval    time.Duration `yaml:"sweep_interval" env:"NW_SWEEP_INTERVAL"`
	QueuePolicy      string        `yaml:"queue_policy" env:"NW_QUEUE_POLICY"`
}

// WorkerConfig holds worker-node configuration.
type WorkerConfig struct {
	OrchestratorURL   string        `yaml:"orchestrator_url" env:"NW_WORKER_ORCHESTRATOR_URL"`
	Address           string        `yaml:"address" env:"NW_WORKER_ADDRESS"`
	Capabilities      []string      `yaml:"capabilities" env:"NW_WORKER_CAPABILITIES"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval" env:"NW_WORKER_HEARTBEAT_INTERVAL"`
	PollInterval      time.Duration `yaml:"poll_interval" env:"NW_WORKER_POLL_INTERVAL"`
	RequestTimeout    time.Duration `yaml:"request_timeout" env:"NW_WORKER_REQUEST_TIMEOUT"`
	ScriptTimeout     time.Duration `yaml:"script_timeout" env:"NW_WORKER_SCRIPT_TIMEOUT"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level" env:"NW_LOG_LEVEL"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	core := orchestrator.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Address:      ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			EnableCORS:   false,
		},
		Orchestrator: OrchestratorConfig{
			LeaseDuration:    core.LeaseDuration,
			HeartbeatTimeout: core.HeartbeatTimeout,
			MaxAttempts:      core.MaxAttempts,
			SweepInterval:    core.SweepInterval,
			QueuePolicy:      core.QueuePolicy,
		},
		Worker: WorkerConfig{
			OrchestratorURL:   "http://localhost:8080",
			Address:           "localhost:8081",
			Capabilities:      []string{"script"},
			HeartbeatInterval: 10 * time.Second,
			PollInterval:      2 * time.Second,
			RequestTimeout:    15 * time.Second,
			ScriptTimeout:     30 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Core converts the orchestrator section into the core's config type.
func (c *Config) Core() *orchestrator.Config {
	return &orchestrator.Config{
		LeaseDuration:    c.Orchestrator.LeaseDuration,
		HeartbeatTimeout: c.Orchestrator.HeartbeatTimeout,
		MaxAttempts:      c.Orchestrator.MaxAttempts,
		SweepInterval:    c.Orchestrator.SweepInterval,
		QueuePolicy:      c.Orchestrator.QueuePolicy,
	}
}

// Loader handles configuration loading from multiple sources.
type Loader struct {
	configPath string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// WithConfigPath sets the path to the YAML configuration file.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// Load loads configuration with precedence: defaults < YAML file < env vars.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := applyEnvToStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("failed to apply env overrides: %w", err)
	}

	return cfg, nil
}

func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvToStruct recursively applies environment variables to fields
// carrying an env tag.
func applyEnvToStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if field.Kind() == reflect.Struct {
			if err := applyEnvToStruct(field); err != nil {
				return err
			}
			continue
		}

		envTag := fieldType.Tag.Get("env")
		if envTag == "" {
			continue
		}
		envValue := os.Getenv(envTag)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("invalid value for %s: %w", envTag, err)
		}
	}

	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return fmt.Errorf("field is not settable")
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
			return nil
		}
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(i)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		field.Set(reflect.ValueOf(parts))

	default:
		return fmt.Errorf("unsupported field kind: %s", field.Kind())
	}

	return nil
}

// LoadFromPath is a convenience wrapper for loading from a specific file.
func LoadFromPath(path string) (*Config, error) {
	return NewLoader().WithConfigPath(path).Load()
}
