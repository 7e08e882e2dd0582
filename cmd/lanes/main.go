package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	charmLog "github.com/charmbracelet/log"
	"github.com/evanschultz/lanes/internal/adapters/metrics"
	servertransport "github.com/evanschultz/lanes/internal/adapters/server"
	"github.com/evanschultz/lanes/internal/adapters/server/common"
	"github.com/evanschultz/lanes/internal/app"
	"github.com/evanschultz/lanes/internal/config"
	"github.com/evanschultz/lanes/internal/domain"
	"github.com/evanschultz/lanes/internal/generator"
	"github.com/evanschultz/lanes/internal/platform"
	"github.com/evanschultz/lanes/internal/tui"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// version stores a package-level helper value.
var version = "dev"

// program represents program data used by this package.
type program interface {
	Run() (tea.Model, error)
}

// programFactory stores a package-level helper value.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// serveFunc runs the HTTP surfaces; tests swap it to avoid binding ports.
var serveFunc = servertransport.Run

// main handles main.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCommand(os.Stdout, os.Stderr)
	if err := fang.Execute(ctx, root, fang.WithVersion(version)); err != nil {
		os.Exit(1)
	}
}

// run runs the requested command flow.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// rootOptions holds persistent CLI flags shared by every command.
type rootOptions struct {
	configPath string
	appName    string
	devMode    bool
	seedCount  int
	logLevel   string
}

// boardRuntime bundles the wired board and its collaborators for one command.
type boardRuntime struct {
	cfg     config.Config
	logger  *runtimeLogger
	metrics *metrics.Metrics
	service *app.Service
}

// newRootCommand builds the cobra command tree writing to the given streams.
func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	opts := &rootOptions{}
	var (
		serveAlongside  bool
		refreshInterval time.Duration
	)

	rootCmd := &cobra.Command{
		Use:           "lanes",
		Short:         "A four-lane task board",
		Long:          "lanes keeps a large in-memory task board and lets you drag tasks between Backlog, To Do's, In Progress and Completed.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts, stderr, serveAlongside, refreshInterval)
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetVersionTemplate("lanes {{.Version}}\n")

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config TOML (env LANES_CONFIG)")
	flags.StringVar(&opts.appName, "app", "", "application name used for config and data paths (default lanes, env LANES_APP_NAME)")
	flags.BoolVar(&opts.devMode, "dev", false, "use dev mode paths and write a log file (env LANES_DEV_MODE)")
	flags.IntVar(&opts.seedCount, "seed-count", -1, "number of synthetic tasks to seed (overrides board.seed_count)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level override: debug, info, warn or error")

	rootCmd.Flags().BoolVar(&serveAlongside, "serve", false, "also run the HTTP/MCP server while the board is open")
	rootCmd.Flags().DurationVar(&refreshInterval, "refresh", 0, "redraw interval so outside changes show up (default 1s with --serve)")

	rootCmd.AddCommand(
		newServeCommand(opts, stderr),
		newStatsCommand(opts, stdout, stderr),
		newPathsCommand(opts, stdout),
	)
	return rootCmd
}

// newServeCommand builds the `serve` command.
func newServeCommand(opts *rootOptions, stderr io.Writer) *cobra.Command {
	var bind string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the board over HTTP, MCP and Prometheus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := bootstrap(opts, stderr, true)
			if err != nil {
				return err
			}
			defer closeRuntime(rt)

			serverCfg := toServerConfig(rt.cfg)
			if strings.TrimSpace(bind) != "" {
				serverCfg.HTTPBind = bind
			}
			rt.logger.Info("starting server", "bind", serverCfg.HTTPBind, "api", serverCfg.APIEndpoint, "mcp", serverCfg.MCPEndpoint)
			if err := serveFunc(cmd.Context(), serverCfg, serverDependencies(rt)); err != nil {
				rt.logger.Error("server terminated with error", "err", err)
				return fmt.Errorf("run server: %w", err)
			}
			rt.logger.Info("command flow complete", "command", "serve")
			return nil
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "listen address (overrides server.http_bind)")
	return cmd
}

// newStatsCommand builds the `stats` command.
func newStatsCommand(opts *rootOptions, stdout, stderr io.Writer) *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print board counts as JSON",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			rt, err := bootstrap(opts, stderr, true)
			if err != nil {
				return err
			}
			defer closeRuntime(rt)

			if value := strings.TrimSpace(filter); value != "" {
				rt.service.SetFilter(value)
			}
			enc := json.NewEncoder(stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(rt.service.Stats()); err != nil {
				return fmt.Errorf("encode stats: %w", err)
			}
			rt.logger.Info("command flow complete", "command", "stats")
			return nil
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "", "category to filter by, or \"all\"")
	return cmd
}

// newPathsCommand builds the `paths` command.
func newPathsCommand(opts *rootOptions, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config and data paths",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			paths, err := resolvePaths(opts)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(stdout, "app: %s\n", paths.AppName)
			_, _ = fmt.Fprintf(stdout, "dev_mode: %t\n", paths.DevMode)
			_, _ = fmt.Fprintf(stdout, "config: %s\n", paths.ConfigPath)
			_, _ = fmt.Fprintf(stdout, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(stdout, "log_dir: %s\n", paths.LogDir)
			return nil
		},
	}
}

// runTUI runs the interactive board, optionally serving HTTP alongside it.
func runTUI(ctx context.Context, opts *rootOptions, stderr io.Writer, serve bool, refresh time.Duration) error {
	// Console output would corrupt the alt screen.
	rt, err := bootstrap(opts, stderr, false)
	if err != nil {
		return err
	}
	defer closeRuntime(rt)

	if serve && refresh <= 0 {
		refresh = time.Second
	}

	var serveErr chan error
	if serve {
		serveCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		serveErr = make(chan error, 1)
		serverCfg := toServerConfig(rt.cfg)
		rt.logger.Info("starting server alongside tui", "bind", serverCfg.HTTPBind)
		go func() {
			serveErr <- serveFunc(serveCtx, serverCfg, serverDependencies(rt))
		}()
		defer func() {
			cancel()
			if err := <-serveErr; err != nil {
				rt.logger.Error("server terminated with error", "err", err)
			}
		}()
	}

	m := tui.NewModel(rt.service, toTUIOptions(rt.cfg, refresh)...)
	rt.logger.Info("starting tui program loop", "tasks", rt.service.Stats().Total)
	if _, err := programFactory(m).Run(); err != nil {
		rt.logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	rt.logger.Info("command flow complete", "command", "tui")
	return nil
}

// bootstrap resolves paths, loads config and seeds the board.
func bootstrap(opts *rootOptions, stderr io.Writer, console bool) (*boardRuntime, error) {
	paths, err := resolvePaths(opts)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(paths.ConfigPath, config.Default())
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", paths.ConfigPath, err)
	}
	if opts.seedCount >= 0 {
		cfg.Board.SeedCount = opts.seedCount
	}
	if strings.TrimSpace(opts.logLevel) != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	logger, err := newRuntimeLogger(stderr, paths, cfg.Logging, time.Now)
	if err != nil {
		return nil, err
	}
	logger.SetConsoleEnabled(console)
	logger.Info("startup configuration resolved", "config_path", paths.ConfigPath, "explicit", paths.ConfigExplicit, "seed_count", cfg.Board.SeedCount, "dev_mode", paths.DevMode)
	if path := logger.DevLogPath(); path != "" {
		logger.Info("dev file logging enabled", "path", path)
	}

	lanes, err := cfg.DomainLanes()
	if err != nil {
		_ = logger.Close()
		return nil, fmt.Errorf("resolve lanes: %w", err)
	}
	laneIDs := make([]domain.LaneID, 0, len(lanes))
	for _, lane := range lanes {
		laneIDs = append(laneIDs, lane.ID)
	}

	gen := generator.New(generator.Config{Categories: cfg.Board.Categories, Seed: cfg.Board.Seed}, uuid.NewString, time.Now)
	seed, err := gen.Seed(cfg.Board.SeedCount, laneIDs)
	if err != nil {
		_ = logger.Close()
		return nil, fmt.Errorf("seed board: %w", err)
	}

	observer := metrics.New()
	svc, err := app.NewService(gen, seed, app.ServiceConfig{
		Lanes:         lanes,
		DefaultFilter: cfg.Board.DefaultFilter,
		Categories:    cfg.Board.Categories,
		ChangeLogSize: cfg.Board.ChangeLogSize,
	}, app.WithLogger(logger), app.WithObserver(observer))
	if err != nil {
		_ = logger.Close()
		return nil, fmt.Errorf("build board service: %w", err)
	}
	logger.Info("board seeded", "tasks", len(seed), "lanes", len(lanes))

	return &boardRuntime{
		cfg:     cfg,
		logger:  logger,
		metrics: observer,
		service: svc,
	}, nil
}

// closeRuntime releases the log file sink.
func closeRuntime(rt *boardRuntime) {
	if rt == nil {
		return
	}
	if err := rt.logger.Close(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "close log file:", err)
	}
}

// resolvePaths merges the persistent flags with LANES_* variables.
func resolvePaths(opts *rootOptions) (platform.Paths, error) {
	paths, err := platform.Resolve(platform.Options{
		AppName:    opts.appName,
		DevMode:    opts.devMode,
		ConfigPath: opts.configPath,
	})
	if err != nil {
		return platform.Paths{}, fmt.Errorf("resolve paths: %w", err)
	}
	return paths, nil
}

// toServerConfig maps config values onto the server transport config.
func toServerConfig(cfg config.Config) servertransport.Config {
	return servertransport.Config{
		HTTPBind:        cfg.Server.HTTPBind,
		APIEndpoint:     cfg.Server.APIEndpoint,
		MCPEndpoint:     cfg.Server.MCPEndpoint,
		MetricsEndpoint: cfg.Server.MetricsEndpoint,
		ServerName:      "lanes",
		ServerVersion:   version,
	}
}

// serverDependencies wires the board and metrics into server transports.
func serverDependencies(rt *boardRuntime) servertransport.Dependencies {
	return servertransport.Dependencies{
		Board:   common.NewAppServiceAdapter(rt.service),
		Metrics: rt.metrics,
	}
}

// toTUIOptions maps UI config values onto model options.
func toTUIOptions(cfg config.Config, refresh time.Duration) []tui.Option {
	opts := []tui.Option{
		tui.WithWindowRows(cfg.UI.WindowRows),
		tui.WithShowCounts(cfg.UI.ShowCounts),
		tui.WithShowHelp(cfg.UI.ShowHelp),
		tui.WithKeyConfig(tui.KeyConfig{
			PickUp:      cfg.UI.Keys.PickUp,
			Drop:        cfg.UI.Keys.Drop,
			CycleFilter: cfg.UI.Keys.CycleFilter,
			AddTask:     cfg.UI.Keys.AddTask,
			CopyID:      cfg.UI.Keys.CopyID,
		}),
	}
	if refresh > 0 {
		opts = append(opts, tui.WithRefreshInterval(refresh))
	}
	return opts
}

// runtimeLogger fans log events to a styled console sink and an optional dev-file sink.
type runtimeLogger struct {
	sinks          []*charmLog.Logger
	consoleSink    *charmLog.Logger
	consoleEnabled bool
	closeFile      func() error
	devLog         string
}

// newRuntimeLogger configures runtime log sinks from CLI/config state.
func newRuntimeLogger(stderr io.Writer, paths platform.Paths, cfg config.LoggingConfig, now func() time.Time) (*runtimeLogger, error) {
	levelName := strings.TrimSpace(cfg.Level)
	if levelName == "" {
		levelName = "info"
	}
	level, err := charmLog.ParseLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("parse logging level %q: %w", cfg.Level, err)
	}

	if now == nil {
		now = time.Now
	}
	if stderr == nil {
		stderr = io.Discard
	}

	consoleLogger := charmLog.NewWithOptions(stderr, charmLog.Options{
		Level:           level,
		Prefix:          paths.AppName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.TextFormatter,
	})

	logger := &runtimeLogger{
		sinks:          []*charmLog.Logger{consoleLogger},
		consoleSink:    consoleLogger,
		consoleEnabled: true,
	}
	if !paths.DevMode || strings.TrimSpace(paths.LogDir) == "" {
		return logger, nil
	}

	devLogPath := paths.DevLogFile(now().UTC())
	if err := os.MkdirAll(filepath.Dir(devLogPath), 0o755); err != nil {
		return nil, fmt.Errorf("create dev log dir: %w", err)
	}
	logFile, err := os.OpenFile(devLogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open dev log file: %w", err)
	}

	// Keep file output parseable and unstyled while preserving styled console logs.
	fileLogger := charmLog.NewWithOptions(logFile, charmLog.Options{
		Level:           level,
		Prefix:          paths.AppName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.LogfmtFormatter,
	})
	logger.sinks = append(logger.sinks, fileLogger)
	logger.closeFile = logFile.Close
	logger.devLog = devLogPath
	return logger, nil
}

// DevLogPath returns the active dev log file path.
func (l *runtimeLogger) DevLogPath() string {
	if l == nil {
		return ""
	}
	return l.devLog
}

// Close closes the optional dev-file sink.
func (l *runtimeLogger) Close() error {
	if l == nil || l.closeFile == nil {
		return nil
	}
	err := l.closeFile()
	l.closeFile = nil
	if errors.Is(err, os.ErrClosed) {
		return nil
	}
	return err
}

// SetConsoleEnabled toggles whether the console sink receives runtime events.
func (l *runtimeLogger) SetConsoleEnabled(enabled bool) {
	if l == nil {
		return
	}
	l.consoleEnabled = enabled
}

// shouldLogToSink reports whether one sink should receive runtime output.
func (l *runtimeLogger) shouldLogToSink(sink *charmLog.Logger) bool {
	if l == nil || sink == nil {
		return false
	}
	if sink == l.consoleSink && !l.consoleEnabled {
		return false
	}
	return true
}

// Debug logs a debug event to all configured sinks.
func (l *runtimeLogger) Debug(msg any, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if l.shouldLogToSink(sink) {
			sink.Debug(msg, keyvals...)
		}
	}
}

// Info logs an informational event to all configured sinks.
func (l *runtimeLogger) Info(msg any, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if l.shouldLogToSink(sink) {
			sink.Info(msg, keyvals...)
		}
	}
}

// Warn logs a warning event to all configured sinks.
func (l *runtimeLogger) Warn(msg any, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if l.shouldLogToSink(sink) {
			sink.Warn(msg, keyvals...)
		}
	}
}

// Error logs an error event to all configured sinks.
func (l *runtimeLogger) Error(msg any, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if l.shouldLogToSink(sink) {
			sink.Error(msg, keyvals...)
		}
	}
}
