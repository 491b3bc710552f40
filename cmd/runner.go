package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/livesync/internal/auth"
	"github.com/desertthunder/livesync/internal/repositories"
	"github.com/desertthunder/livesync/internal/services"
	"github.com/desertthunder/livesync/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	// source overrides the YouTube client in tests.
	source services.Source
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Source     services.Source
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
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
		source:     opts.Source,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		syncCommand, serveCommand, authCommand, snapshotCommand, configCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// resolveConfig loads the configuration file named by the --config flag,
// falling back to built-in defaults when no file is present.
func (r *Runner) resolveConfig(cmd *cli.Command) (*shared.Config, error) {
	if r.config != nil {
		return r.config, nil
	}

	path := cmd.String("config")
	if path == "" {
		path = "config.toml"
	}

	if _, err := os.Stat(path); err == nil {
		return shared.LoadConfig(path)
	}

	return shared.DefaultConfig(), nil
}

// resolveManifest loads the task manifest from the --manifest flag or the configured path.
func (r *Runner) resolveManifest(cmd *cli.Command, config *shared.Config) (*shared.Manifest, error) {
	path := cmd.String("manifest")
	if path == "" {
		path = config.Sync.Manifest
	}
	if path == "" {
		return nil, fmt.Errorf("%w: no manifest path configured", shared.ErrMissingArgument)
	}

	return shared.LoadManifest(path)
}

// buildSource assembles the credential manager, resilient executor, and API client.
func (r *Runner) buildSource(config *shared.Config) services.Source {
	if r.source != nil {
		return r.source
	}

	manager := auth.NewManager(auth.ManagerOpts{
		Credentials: config.Credentials.YouTube,
		Client:      r.httpClient,
		Logger:      r.logger,
	})

	exec := services.NewExecutor(services.ExecutorOpts{
		Tokens: manager,
		Logger: r.logger,
	})

	return services.NewYouTubeService(services.YouTubeServiceOpts{
		Client:       r.httpClient,
		Executor:     exec,
		Logger:       r.logger,
		DiscoveryCap: config.Sync.DiscoveryCap,
	})
}

// openSnapshots opens the snapshot database. The caller closes the returned handle.
func (r *Runner) openSnapshots(config *shared.Config) (*repositories.SnapshotRepository, *sql.DB, error) {
	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	repo, err := repositories.NewSnapshotRepository(db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	return repo, db, nil
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
