// Package cmd provides the CLI commands for luabundle.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/luabundle/internal/bundle"
	"github.com/Aman-CERP/luabundle/internal/bundler"
	"github.com/Aman-CERP/luabundle/internal/config"
	lberrors "github.com/Aman-CERP/luabundle/internal/errors"
	"github.com/Aman-CERP/luabundle/internal/logging"
	"github.com/Aman-CERP/luabundle/internal/modpath"
	"github.com/Aman-CERP/luabundle/internal/output"
	"github.com/Aman-CERP/luabundle/internal/watcher"
	"github.com/Aman-CERP/luabundle/pkg/version"
)

// rootOptions holds the root command flags.
type rootOptions struct {
	compile      bool
	entry        string
	namespace    string
	debounce     time.Duration
	configFile   string
	debug        bool
	logFile      string
	noColor      bool
	forcePolling bool
}

// NewRootCmd creates the root command for luabundle CLI.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "luabundle <rootPath> <outputPath>",
		Short: "Bundle a tree of Lua modules into one file",
		Long: `luabundle watches a directory of Lua modules and writes a single
file containing every module behind a lazy require loader.

The output is rebuilt whenever a module changes. With --compile the tree is
bundled once and the command exits.`,
		Version:       version.Version,
		Args:          validateArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd, args[0], args[1], opts)
		},
	}

	cmd.SetVersionTemplate("luabundle version {{.Version}}\n")
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return lberrors.ConfigurationError(err.Error())
	})

	cmd.Flags().BoolVar(&opts.compile, "compile", false, "Bundle once and exit")
	cmd.Flags().StringVar(&opts.entry, "entry", "", "Entry module path (default @src/init.lua)")
	cmd.Flags().StringVar(&opts.namespace, "namespace", "", "Module path namespace replacing rootPath (default src)")
	cmd.Flags().DurationVar(&opts.debounce, "debounce", 0, "Quiet period before a rebuild (default 500ms)")
	cmd.Flags().BoolVar(&opts.forcePolling, "poll", false, "Poll for changes instead of using file system notifications")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "Config file (default ./"+config.FileName+")")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&opts.logFile, "log-file", "", "Also write logs to this file, with rotation")

	cmd.AddCommand(newVersionCmd())

	return cmd
}

// validateArgs requires exactly rootPath and outputPath.
func validateArgs(_ *cobra.Command, args []string) error {
	switch {
	case len(args) == 0:
		return lberrors.ConfigurationError("missing argument: rootPath")
	case len(args) == 1:
		return lberrors.ConfigurationError("missing argument: outputPath")
	case len(args) > 2:
		return lberrors.ConfigurationError(fmt.Sprintf("expected 2 arguments, got %d", len(args)))
	}
	return nil
}

// Execute runs the root command and prints any error.
func Execute() error {
	err := NewRootCmd().Execute()
	if err != nil {
		_, _ = fmt.Fprint(os.Stderr, lberrors.FormatForCLI(err))
	}
	return err
}

// loadConfig merges defaults, files, environment and explicitly set flags.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(".", opts.configFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("entry") {
		cfg.Entry = opts.entry
	}
	if flags.Changed("namespace") {
		cfg.Namespace = opts.namespace
	}
	if flags.Changed("debounce") {
		cfg.Debounce = opts.debounce.String()
	}
	if flags.Changed("poll") {
		cfg.Watch.ForcePolling = opts.forcePolling
	}
	if opts.debug {
		cfg.Logging.Level = "debug"
	}
	if opts.logFile != "" {
		cfg.Logging.File = opts.logFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, cmd *cobra.Command, root, outputPath string, opts *rootOptions) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	cleanup, err := logging.SetupDefault(logging.Config{
		Level:     cfg.Logging.Level,
		FilePath:  cfg.Logging.File,
		MaxSizeMB: cfg.Logging.MaxSizeMB,
		MaxFiles:  cfg.Logging.MaxFiles,
		Stderr:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return lberrors.New(lberrors.ErrCodeConfigInvalid, fmt.Sprintf("failed to set up logging: %v", err), err)
	}
	defer cleanup()

	out := newConsole(cmd, opts.noColor)

	w, err := watcher.NewHybridWatcher(watcher.Options{
		IgnorePattern:   cfg.Watch.IgnorePattern,
		IgnorePatterns:  cfg.Watch.Ignore,
		MaxDepth:        cfg.WatchMaxDepth(),
		FollowSymlinks:  cfg.FollowsSymlinks(),
		AtomicWindow:    cfg.AtomicWindowDuration(),
		PollInterval:    cfg.PollIntervalDuration(),
		ForcePolling:    cfg.Watch.ForcePolling,
		EventBufferSize: watcher.DefaultEventBufferSize,
	})
	if err != nil {
		return lberrors.WatchError(err)
	}

	writer := bundle.NewWriter(outputPath)
	writer.SetLockTimeout(cfg.LockTimeoutDuration())
	builder := bundle.NewBuilder(modpath.Path(cfg.Entry), writer)

	b := bundler.New(bundler.Options{
		Root:      root,
		Namespace: cfg.Namespace,
		Debounce:  cfg.DebounceDuration(),
		Compile:   opts.compile,
	}, builder, out)

	slog.Info("starting",
		slog.String("root", root),
		slog.String("output", outputPath),
		slog.String("entry", cfg.Entry),
		slog.Bool("compile", opts.compile),
		slog.String("watcher", w.WatcherType()))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	var watchErr error
	g.Go(func() error {
		watchErr = w.Start(gctx, root)
		if errors.Is(watchErr, context.Canceled) {
			return nil
		}
		return watchErr
	})
	g.Go(func() error {
		defer func() { _ = w.Stop() }()
		return b.Run(gctx, w.Events(), w.Errors())
	})

	err = g.Wait()
	if watchErr != nil && !errors.Is(watchErr, context.Canceled) {
		return watchErr
	}
	return err
}

// newConsole returns the console writer for stdout.
func newConsole(cmd *cobra.Command, noColor bool) *output.Writer {
	stdout := cmd.OutOrStdout()
	f, _ := stdout.(*os.File)
	return output.NewColor(stdout, output.ShouldUseColor(f, noColor))
}
