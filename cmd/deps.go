package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/borderdrill/internal/catalog"
	"github.com/abhisek/borderdrill/internal/config"
	"github.com/abhisek/borderdrill/internal/evaluation"
	"github.com/abhisek/borderdrill/internal/llm"
	"github.com/abhisek/borderdrill/internal/logger"
	"github.com/abhisek/borderdrill/internal/questiongen"
	"github.com/abhisek/borderdrill/internal/session"
	"github.com/abhisek/borderdrill/internal/speech"
	"github.com/abhisek/borderdrill/internal/store"
)

// logTarget says where a command may write logs.
type logTarget int

const (
	// logStderr logs to stderr unless a file is configured.
	logStderr logTarget = iota
	// logFileOnly logs only when a file is configured; the terminal UI
	// owns the screen.
	logFileOnly
)

// deps holds everything a session needs. Close releases it.
type deps struct {
	cfg       config.Config
	log       *logger.Logger
	store     *store.Store
	provider  llm.Provider
	generator questiongen.Generator
	evaluator evaluation.Evaluator
	closers   []func() error
}

// loadConfig reads the config file named by --config and applies the
// --persona override.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if p, _ := cmd.Flags().GetString("persona"); p != "" {
		cfg.Session.DefaultPersona = p
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg config.LogConfig, target logTarget) (*logger.Logger, error) {
	if target == logFileOnly && cfg.File == "" {
		return logger.Nop(), nil
	}
	return logger.New(cfg.Mode, cfg.File)
}

// buildDeps loads configuration, opens the audit store and builds the
// model-backed generator and evaluator. withStore=false skips the
// database, in which case model calls are not audited.
func buildDeps(ctx context.Context, cmd *cobra.Command, target logTarget, withStore bool) (*deps, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, err := newLogger(cfg.Log, target)
	if err != nil {
		return nil, err
	}
	d := &deps{cfg: cfg, log: log}

	if err := cfg.LLM.Validate(); err != nil {
		return nil, fmt.Errorf("LLM provider not configured: %w", err)
	}

	var repo store.EventRepo
	if withStore {
		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return nil, fmt.Errorf("resolve DB path: %w", err)
		}
		st, err := store.Open(dbPath)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		d.store = st
		d.closers = append(d.closers, st.Close)
		repo = st.EventRepo()
	}

	provider, err := llm.NewProvider(ctx, cfg.LLM, repo, log)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.provider = provider

	d.generator = questiongen.New(provider, questiongen.DefaultConfig())
	d.evaluator = evaluation.New(provider, evaluation.DefaultConfig(), log)

	log.Info("dependencies ready",
		"provider", cfg.LLM.Provider,
		"config", cfg.Path,
		"persona", cfg.Session.DefaultPersona,
	)
	return d, nil
}

// sessionOptions returns the controller template shared by every front end.
func (d *deps) sessionOptions() session.Options {
	return session.Options{
		Generator:   d.generator,
		Evaluator:   d.evaluator,
		Persona:     d.cfg.Persona(),
		CallTimeout: d.cfg.Session.CallTimeout,
		Logger:      d.log,
	}
}

// speaker builds the text-to-speech speaker, nil when playback is off.
func (d *deps) speaker() session.Speaker {
	if d.cfg.Speech.SayCommand == "none" {
		return nil
	}
	return speech.NewCommandSpeaker(d.cfg.Speech.SayCommand)
}

// capture builds the voice-answer pipeline, nil for keyboard input.
func (d *deps) capture(ctx context.Context) (*speech.Capture, error) {
	if d.cfg.Speech.Recognizer != config.RecognizerGoogle {
		return nil, nil
	}
	rec, err := speech.NewGoogleRecognizer(ctx,
		speech.NewCommandSource(d.cfg.Speech.RecordCommand),
		speech.GoogleConfig{
			LanguageCode:    d.cfg.Speech.Language,
			SampleRateHertz: d.cfg.Speech.SampleRate,
			MaxRetries:      2,
		},
		d.log,
	)
	if err != nil {
		return nil, err
	}
	d.closers = append(d.closers, rec.Close)
	return speech.NewCapture(rec), nil
}

// Close releases resources in reverse order of acquisition.
func (d *deps) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		errs = append(errs, d.closers[i]())
	}
	d.closers = nil
	d.log.Sync()
	return errors.Join(errs...)
}

// personaName returns the display name of a pinned persona, else "".
func personaName(p *catalog.Persona) string {
	if p == nil {
		return ""
	}
	return p.DisplayName
}
