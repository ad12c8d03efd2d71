package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/oneway/internal/api"
	"github.com/felixgeelhaar/oneway/internal/config"
	"github.com/felixgeelhaar/oneway/internal/credential"
	"github.com/felixgeelhaar/oneway/internal/flow"
	"github.com/felixgeelhaar/oneway/internal/gateway"
	"github.com/felixgeelhaar/oneway/internal/log"
	"github.com/felixgeelhaar/oneway/internal/metrics"
	"github.com/felixgeelhaar/oneway/internal/session"
	"github.com/felixgeelhaar/oneway/internal/telemetry"
	"github.com/felixgeelhaar/oneway/internal/tui"
	"github.com/felixgeelhaar/oneway/internal/ux"
	"github.com/felixgeelhaar/oneway/internal/version"
)

// shutdownTimeout bounds the span flush after a command.
const shutdownTimeout = 5 * time.Second

// CommandContext holds everything a command needs, built once per
// invocation from the flags, the config file and the environment.
type CommandContext struct {
	Config     *config.Config
	ConfigPath string

	// Output control
	Format      string
	NoColor     bool
	Interactive bool
	Out         io.Writer
	ErrOut      io.Writer

	Logger   *log.Logger
	Prompter tui.Prompter

	// Set by NewCommandContext only.
	Store   credential.Store
	Session *session.Session
	Gateway *gateway.Client
	API     *api.Client

	Metrics  *metrics.Metrics
	Registry *prometheus.Registry
	Tracing  *telemetry.Provider
}

// newConfigContext resolves configuration, output settings and logging.
func newConfigContext(cmd *cobra.Command, opts Options) (*CommandContext, error) {
	flags := cmd.Flags()

	explicit, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	path, err := config.Path(explicit, opts.Getenv)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(opts.Getenv)

	if flags.Changed("format") {
		cfg.Output.Format, _ = flags.GetString("format")
	}
	if flags.Changed("no-color") {
		cfg.Output.NoColor, _ = flags.GetBool("no-color")
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format, _ = flags.GetString("log-format")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logConfig := log.FromStrings(cfg.Logging.Level, cfg.Logging.Format)
	logConfig.Output = opts.ErrOut
	logger := log.New(logConfig)
	log.SetDefaultLogger(logger)

	return &CommandContext{
		Config:      cfg,
		ConfigPath:  path,
		Format:      cfg.Output.Format,
		NoColor:     cfg.Output.NoColor || opts.Getenv("NO_COLOR") != "",
		Interactive: opts.Interactive(),
		Out:         opts.Out,
		ErrOut:      opts.ErrOut,
		Logger:      logger,
		Prompter:    opts.Prompter,
	}, nil
}

// NewCommandContext extends the config context with the credential store,
// the session and both backend clients.
func NewCommandContext(cmd *cobra.Command, opts Options) (*CommandContext, error) {
	cc, err := newConfigContext(cmd, opts)
	if err != nil {
		return nil, err
	}

	cc.Registry, cc.Metrics = metrics.NewRegistry()
	cc.Tracing, err = telemetry.NewProvider(cmd.Context(),
		cc.Config.TelemetryOptions(version.GetInfo().Short()))
	if err != nil {
		return nil, err
	}

	store, err := credential.Open(cc.Config.StoreOptions())
	if err != nil {
		return nil, err
	}
	cc.Store = store
	cc.Session = session.New(store,
		session.WithLogger(cc.Logger),
		session.WithMetrics(cc.Metrics))

	gwOpts := gateway.DefaultOptions()
	gwOpts.Endpoint = cc.Config.Endpoints.GraphQL
	gwOpts.Timeout = cc.Config.HTTP.Timeout
	gwOpts.Logger = cc.Logger
	gwOpts.Metrics = cc.Metrics
	gwOpts.TracerProvider = cc.Tracing

	cc.Gateway, err = gateway.New(cc.Session, gwOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway: %w", err)
	}
	cc.API = api.NewClient(cc.Config.Endpoints.API, cc.Config.HTTP.Timeout, cc.Logger)
	cc.API.Metrics = cc.Metrics
	cc.API.Tracer = telemetry.Tracer(cc.Tracing)

	cc.Logger.Debug("command context ready",
		"config", cc.ConfigPath,
		"store", cc.Config.Store.Backend,
		"graphql", cc.Config.Endpoints.GraphQL,
		"api", cc.Config.Endpoints.API,
	)
	return cc, nil
}

// withSession builds the full command context for fn and finishes it once fn
// returns.
func withSession(opts Options, fn func(cmd *cobra.Command, args []string, cc *CommandContext) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cc, err := NewCommandContext(cmd, opts)
		if err != nil {
			return err
		}

		ctx, span := telemetry.Tracer(cc.Tracing).Start(cmd.Context(), cmd.CommandPath())
		span.SetAttributes(telemetry.AttrCommandName.String(cmd.CommandPath()))
		cmd.SetContext(ctx)

		err = fn(cmd, args, cc)

		telemetry.RecordError(span, err)
		span.End()
		cc.finish(cmd.CommandPath(), err)
		return err
	}
}

// finish records the command, flushes spans and writes the metrics textfile.
// Failures here are logged and never replace the command's own error.
func (c *CommandContext) finish(command string, err error) {
	c.Metrics.ObserveCommand(command, err)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if serr := c.Tracing.Shutdown(ctx); serr != nil {
		c.Logger.WithError(serr).Warn("failed to flush traces")
	}

	if path := c.Config.MetricsTextfile(); path != "" && c.Registry != nil {
		if werr := metrics.WriteTextfile(path, c.Registry); werr != nil {
			c.Logger.WithError(werr).Warn("failed to write metrics textfile", "path", path)
		}
	}
}

// Deps returns the flow dependencies. Page state transitions are logged at
// debug level.
func (c *CommandContext) Deps() flow.Deps {
	return flow.Deps{
		Session: c.Session,
		Gateway: c.Gateway,
		Probes:  c.API,
		Logger:  c.Logger,
		Observer: func(s flow.State) {
			c.Logger.Debug("page state", "state", s.String())
		},
	}
}

// Render writes data in the selected output format.
func (c *CommandContext) Render(data any) error {
	formatter, err := ux.NewFormatter(c.Format, &ux.FormatterOptions{
		Writer:  c.Out,
		NoColor: c.NoColor,
	})
	if err != nil {
		return err
	}
	return formatter.Format(data)
}

// Notify writes a one-line notice to stderr in text mode. Structured formats
// keep stdout and stderr free of prose.
func (c *CommandContext) Notify(kind, message string) {
	if c.Format != "text" {
		return
	}
	fmt.Fprintln(c.ErrOut, tui.Notice(kind, message, !c.NoColor))
}

// prompting reports whether forms may be shown.
func (c *CommandContext) prompting() bool {
	return c.Interactive && c.Prompter != nil
}

// spin runs fn behind a spinner when the output is an interactive text
// terminal.
func spin[T any](c *CommandContext, title string, fn func() T) T {
	return tui.Spin(c.ErrOut, c.Interactive && c.Format == "text", !c.NoColor, title, fn)
}
