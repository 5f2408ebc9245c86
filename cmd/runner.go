package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playlister/internal/engine"
	"github.com/desertthunder/playlister/internal/events"
	"github.com/desertthunder/playlister/internal/repositories"
	"github.com/desertthunder/playlister/internal/shared"
	"github.com/desertthunder/playlister/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config // Used when no config file is found
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, setupCommand, dbCommand, seedCommand, maintenanceCommand, playlistCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig reads the file named by --config. A missing file falls back to the runner's
// config unless the flag was given explicitly.
func (r *Runner) loadConfig(cmd *cli.Command) (*shared.Config, error) {
	path := cmd.String("config")

	if _, err := os.Stat(path); err != nil {
		if cmd.IsSet("config") {
			return nil, fmt.Errorf("%w: %s", shared.ErrMissingConfig, path)
		}
		r.logger.Warn("config file not found, using defaults", "path", path)
	} else {
		config, err := shared.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		r.config = config
	}

	shared.ConfigureLogger(r.logger, r.config.Logging.Level)
	return r.config, nil
}

// env is everything a command needs to touch the domain.
type env struct {
	config  *shared.Config
	store   *repositories.Store
	engine  *engine.Engine
	closers []func() error
}

func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

// open loads configuration, opens and migrates the database, and connects the event
// publisher when one is configured.
func (r *Runner) open(ctx context.Context, cmd *cli.Command) (*env, error) {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	db, err := shared.OpenDatabase(config.Database.Path, config.Database.BusyTimeoutMS)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	e := &env{config: config, store: repositories.NewStore(db), closers: []func() error{db.Close}}

	if err := shared.RunMigrationsContext(ctx, db); err != nil {
		e.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	var publisher events.Publisher = events.Nop{}
	if config.Events.RedisURL != "" {
		redisPublisher, err := events.NewRedisPublisher(ctx, config.Events.RedisURL, config.Events.Channel, r.logger)
		if err != nil {
			e.Close()
			return nil, err
		}
		r.logger.Info("publishing events", "channel", config.Events.Channel)
		publisher = redisPublisher
		e.closers = append(e.closers, redisPublisher.Close)
	}

	e.engine = engine.New(e.store, engine.Options{Publisher: publisher, Logger: r.logger})
	return e, nil
}

// jobs creates a task runner over e.
func (r *Runner) jobs(e *env, workers int) *tasks.Runner {
	return tasks.New(e.store, e.engine, tasks.Options{
		Workers: workers,
		Client:  r.httpClient,
		Logger:  r.logger,
	})
}

// watch prints progress messages until prog is closed; the returned channel closes once
// every message has been written.
func (r *Runner) watch(prog <-chan tasks.ProgressUpdate) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range prog {
			r.writePlain("%s\n", u.Message)
		}
	}()
	return done
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
