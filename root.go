package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/tonimelisma/putiodown/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath string
	flagJSON       bool
	flagVerbose    bool
	flagQuiet      bool
)

// cliFlags is a snapshot of the global flags taken after parsing.
type cliFlags struct {
	ConfigPath string
	JSON       bool
	Verbose    bool
	Quiet      bool
}

// CLIContext carries what every subcommand needs: the resolved config, a
// logger built from it, and the global flags.
type CLIContext struct {
	Cfg    *config.Resolved
	Logger *slog.Logger
	Flags  cliFlags

	// logCloser closes the rotating log file, if one is open.
	logCloser io.Closer
}

// Statusf prints a status message to stderr unless quiet mode is set.
func (cc *CLIContext) Statusf(format string, args ...any) {
	statusf(cc.Flags.Quiet, format, args...)
}

type cliContextKey struct{}

// mustCLIContext returns the CLIContext stored by the root pre-run hook.
func mustCLIContext(ctx context.Context) *CLIContext {
	cc, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok {
		panic("CLIContext missing from command context")
	}

	return cc
}

// newRootCmd builds and returns the fully-assembled root command with all
// subcommands registered. Called once from main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "putiodown",
		Short:   "put.io file tree lister and downloader",
		Long:    "Enumerate a put.io account breadth-first and download its files.",
		Version: version,
		// Silence Cobra's default error/usage printing; main prints errors.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cc, err := loadCLIContext(cmd)
			if err != nil {
				return err
			}

			cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey{}, cc))

			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())
			if cc.logCloser != nil {
				return cc.logCloser.Close()
			}

			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output in JSON format")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")

	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newWhoamiCmd())
	cmd.AddCommand(newLsCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// loadCLIContext resolves the effective configuration from the four-layer
// override chain and builds the logger. Subcommand flags that override
// config (--dest, --parallel) are read here when the command defines them.
func loadCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	flags := cliFlags{
		ConfigPath: flagConfigPath,
		JSON:       flagJSON,
		Verbose:    flagVerbose,
		Quiet:      flagQuiet,
	}

	cli := config.CLIOverrides{ConfigPath: flags.ConfigPath}

	if f := cmd.Flags().Lookup("dest"); f != nil && f.Changed {
		dest := f.Value.String()
		cli.DownloadDir = &dest
	}

	if cmd.Flags().Changed("parallel") {
		n, err := cmd.Flags().GetInt("parallel")
		if err != nil {
			return nil, err
		}

		cli.ParallelDownloads = &n
	}

	resolved, err := config.Resolve(config.ReadEnvOverrides(), cli, nil)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger, closer := buildLogger(resolved, flags, os.Stderr)

	return &CLIContext{Cfg: resolved, Logger: logger, Flags: flags, logCloser: closer}, nil
}

// logLevel maps the config level to slog. --verbose and --quiet override it
// because CLI flags always win.
func logLevel(cfgLevel string, flags cliFlags) slog.Level {
	level := slog.LevelInfo

	switch cfgLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	if flags.Verbose {
		level = slog.LevelDebug
	}

	if flags.Quiet {
		level = slog.LevelError
	}

	return level
}

// buildLogger creates the slog.Logger for a command. log_format "auto"
// writes text to a terminal and JSON otherwise. With log_file set, records
// are also written to a size-rotated file; the returned closer closes it.
func buildLogger(cfg *config.Resolved, flags cliFlags, stderr io.Writer) (*slog.Logger, io.Closer) {
	opts := &slog.HandlerOptions{Level: logLevel(cfg.LogLevel, flags)}

	format := cfg.LogFormat
	if format == "auto" {
		format = "json"
		if f, ok := stderr.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
			format = "text"
		}
	}

	var (
		w      = stderr
		closer io.Closer
	)

	if cfg.LogFile != "" {
		rotated := &lumberjack.Logger{
			Filename: cfg.LogFile,
			MaxSize:  cfg.MaxSizeMB(),
			MaxAge:   cfg.LogRetentionDays,
		}
		w = io.MultiWriter(stderr, rotated)
		closer = rotated
	}

	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), closer
	}

	return slog.New(slog.NewTextHandler(w, opts)), closer
}

// errLoginHint is returned when a command needs a token and none is saved.
var errLoginHint = errors.New("not logged in: run 'putiodown login' first")
