package app

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/searchktools/quickly/config"
	"github.com/searchktools/quickly/core"
)

// App wires configuration, logging and the engine together
type App struct {
	cfg    *config.Config
	log    zerolog.Logger
	engine *core.Engine
}

// New creates an application instance
func New(cfg *config.Config) *App {
	log := NewLogger(cfg, os.Stderr)
	return &App{
		cfg:    cfg,
		log:    log,
		engine: core.NewEngineWithOptions(EngineOptions(cfg, &log)),
	}
}

// NewWithEngine creates an application instance with a pre-configured engine
func NewWithEngine(cfg *config.Config, engine *core.Engine) *App {
	return &App{
		cfg:    cfg,
		log:    NewLogger(cfg, os.Stderr),
		engine: engine,
	}
}

// EngineOptions maps cfg onto engine options
func EngineOptions(cfg *config.Config, log *zerolog.Logger) core.Options {
	return core.Options{
		Host:           cfg.Host,
		ReadBufferSize: cfg.ReadBufferSize,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		Workers:        cfg.Workers,
		MaxConnections: cfg.MaxConnections,
		Logger:         log,
	}
}

// NewLogger builds the process logger: human-readable in development,
// JSON lines in production. An unknown level falls back to info.
func NewLogger(cfg *config.Config, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	w := out
	if !cfg.IsProduction() {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).Level(level).With().Timestamp().Str("env", cfg.Env).Logger()
}

// Engine returns the underlying engine for route registration
func (a *App) Engine() *core.Engine {
	return a.engine
}

// Logger returns the application logger
func (a *App) Logger() *zerolog.Logger {
	return &a.log
}

// Run starts the application and exits the process if the server fails
func (a *App) Run() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Serve(ctx); err != nil {
		a.log.Fatal().Err(err).Msg("server startup failed")
	}
}

// Serve runs the engine until ctx is done, then shuts it down
func (a *App) Serve(ctx context.Context) error {
	a.log.Info().
		Str("host", a.cfg.Host).
		Int("port", a.cfg.Port).
		Int("workers", a.cfg.Workers).
		Msg("quickly server starting")

	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			a.log.Info().Msg("shutting down")
			if err := a.engine.Shutdown(); err != nil {
				a.log.Error().Err(err).Msg("shutdown failed")
			}
		case <-done:
		}
	}()

	return a.engine.Run(a.cfg.Port)
}
