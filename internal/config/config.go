// Package config loads borderdrill settings from defaults, an optional YAML
// file and BORDERDRILL_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/borderdrill/internal/catalog"
	"github.com/abhisek/borderdrill/internal/llm"
)

// Config is the full application configuration.
type Config struct {
	LLM       llm.Config      `yaml:"llm"`
	Session   SessionConfig   `yaml:"session"`
	Server    ServerConfig    `yaml:"server"`
	Speech    SpeechConfig    `yaml:"speech"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Path is the file the config was read from, empty when none.
	Path string `yaml:"-"`
}

// SessionConfig controls the practice session.
type SessionConfig struct {
	// CallTimeout bounds each generation, evaluation and speech call.
	CallTimeout time.Duration `yaml:"call_timeout"`

	// DefaultPersona pins the officer ("kind", "normal", "strict").
	// Empty means a random officer per question.
	DefaultPersona string `yaml:"default_persona"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// SpeechConfig selects how answers are captured and questions spoken.
type SpeechConfig struct {
	// Recognizer is "google" or "keyboard".
	Recognizer    string `yaml:"recognizer"`
	RecordCommand string `yaml:"record_command"`

	// SayCommand is the text-to-speech command. "none" disables playback.
	SayCommand string `yaml:"say_command"`
	Language   string `yaml:"language"`
	SampleRate int    `yaml:"sample_rate"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	// Mode is "production" (JSON) or "development" (console).
	Mode string `yaml:"mode"`

	// File receives log output. Empty means stderr for serve and no
	// logging for the terminal UI.
	File string `yaml:"file"`
}

// TelemetryConfig controls tracing.
type TelemetryConfig struct {
	// Exporter is "none", "stdout" or "otlp".
	Exporter    string  `yaml:"exporter"`
	Endpoint    string  `yaml:"endpoint"`
	SampleRatio float64 `yaml:"sample_ratio"`
	ServiceName string  `yaml:"service_name"`
}

const (
	RecognizerGoogle   = "google"
	RecognizerKeyboard = "keyboard"
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LLM: llm.DefaultConfig(),
		Session: SessionConfig{
			CallTimeout: 30 * time.Second,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Speech: SpeechConfig{
			Recognizer: RecognizerKeyboard,
			Language:   "en-US",
			SampleRate: 16000,
		},
		Log: LogConfig{
			Mode: "production",
		},
		Telemetry: TelemetryConfig{
			Exporter:    "none",
			SampleRatio: 1.0,
			ServiceName: "borderdrill",
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/borderdrill/config.yaml, falling back
// to ~/.config.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "borderdrill", "config.yaml")
}

// Load builds the configuration. path is the --config flag value; when
// empty BORDERDRILL_CONFIG and then DefaultPath are tried. An explicit
// path that does not exist is an error; a missing default file is not.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv("BORDERDRILL_CONFIG")
		explicit = path != ""
	}
	if !explicit {
		path = DefaultPath()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
			cfg.Path = path
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}

	applyEnv(&cfg)
	if !cfg.LLM.HasKey() {
		if discovered, ok := llm.DiscoverConfig(cfg.LLM); ok {
			cfg.LLM = discovered
		}
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	llm.ApplyEnv(&cfg.LLM)

	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString(&cfg.Session.DefaultPersona, "BORDERDRILL_PERSONA")
	setString(&cfg.Server.Addr, "BORDERDRILL_ADDR")
	setString(&cfg.Speech.Recognizer, "BORDERDRILL_RECOGNIZER")
	setString(&cfg.Speech.RecordCommand, "BORDERDRILL_RECORD_COMMAND")
	setString(&cfg.Speech.SayCommand, "BORDERDRILL_SAY_COMMAND")
	setString(&cfg.Log.Mode, "BORDERDRILL_LOG_MODE")
	setString(&cfg.Log.File, "BORDERDRILL_LOG_FILE")
	setString(&cfg.Telemetry.Exporter, "BORDERDRILL_TRACE_EXPORTER")
	setString(&cfg.Telemetry.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")

	if v := os.Getenv("BORDERDRILL_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("BORDERDRILL_CALL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Session.CallTimeout = d
		}
	}
	if v := os.Getenv("BORDERDRILL_TRACE_SAMPLE_RATIO"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Telemetry.SampleRatio = f
		}
	}
}

// Validate checks the values a practice session depends on. LLM
// credentials are checked separately by LLM.Validate so that commands
// which never call a model can still run.
func (c Config) Validate() error {
	var errs []error
	if c.Session.CallTimeout <= 0 {
		errs = append(errs, fmt.Errorf("session.call_timeout must be positive"))
	}
	if p := c.Session.DefaultPersona; p != "" {
		if _, ok := catalog.PersonaByID(p); !ok {
			errs = append(errs, fmt.Errorf("session.default_persona: unknown persona %q", p))
		}
	}
	switch c.Speech.Recognizer {
	case RecognizerGoogle, RecognizerKeyboard:
	default:
		errs = append(errs, fmt.Errorf("speech.recognizer: unknown recognizer %q", c.Speech.Recognizer))
	}
	switch c.Telemetry.Exporter {
	case "", "none", "stdout", "otlp":
	default:
		errs = append(errs, fmt.Errorf("telemetry.exporter: unknown exporter %q", c.Telemetry.Exporter))
	}
	if r := c.Telemetry.SampleRatio; r < 0 || r > 1 {
		errs = append(errs, fmt.Errorf("telemetry.sample_ratio must be within [0, 1]"))
	}
	return errors.Join(errs...)
}

// Persona resolves the pinned persona, nil when none is configured.
func (c Config) Persona() *catalog.Persona {
	if c.Session.DefaultPersona == "" {
		return nil
	}
	p, ok := catalog.PersonaByID(c.Session.DefaultPersona)
	if !ok {
		return nil
	}
	return &p
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
