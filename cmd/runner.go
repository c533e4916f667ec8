package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/moodmix/internal/shared"
	"github.com/desertthunder/moodmix/internal/tasks"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The engine is built lazily from the --config flag unless one is injected.
type Runner struct {
	config      *shared.Config
	logger      *log.Logger
	output      io.Writer
	engine      *tasks.Engine
	interactive bool
	closers     []func()
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config // skips config resolution when set
	Engine *tasks.Engine  // skips service wiring when set
	Logger *log.Logger
	Output io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	interactive := false
	if opts.Output == nil {
		opts.Output = os.Stdout
		interactive = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	}

	return &Runner{
		config:      opts.Config,
		logger:      opts.Logger,
		output:      opts.Output,
		engine:      opts.Engine,
		interactive: interactive,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, setupCommand, generateCommand, appendCommand,
		historyCommand, showCommand, exportCommand, tokenCommand, rewardsCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Close releases connections opened while wiring the engine.
func (r *Runner) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	r.closers = nil
}

// loadConfig resolves the config named by the command's --config flag once.
func (r *Runner) loadConfig(cmd *cli.Command) (*shared.Config, error) {
	if r.config != nil {
		return r.config, nil
	}

	config, err := shared.ResolveConfig(cmd.String("config"), ".env")
	if err != nil {
		return nil, err
	}
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(config.Log.Level))

	r.config = config
	return config, nil
}

// load returns the engine, wiring store and services from config on first use.
func (r *Runner) load(ctx context.Context, cmd *cli.Command) (*tasks.Engine, error) {
	if r.engine != nil {
		return r.engine, nil
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	engine, closers, err := buildEngine(ctx, config, r.logger)
	r.closers = append(r.closers, closers...)
	if err != nil {
		return nil, err
	}

	r.engine = engine
	return engine, nil
}

// wait runs fn behind a spinner when stdout is a terminal.
func (r *Runner) wait(ctx context.Context, title string, fn func(context.Context) error) error {
	if !r.interactive {
		return fn(ctx)
	}
	return spinner.New().Title(title).Context(ctx).ActionWithErr(fn).Run()
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
	text := fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
