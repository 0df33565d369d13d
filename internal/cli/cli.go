package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"keysync/internal/cache"
	"keysync/internal/config"
	"keysync/internal/pipeline"
	"keysync/internal/report"
	"keysync/internal/watch"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// flags shared by every command; zero values mean "not set".
type globalFlags struct {
	configPath string
	sourceDir  string
	extension  string
	primary    string
	secondary  []string
	exclude    []string
	workers    int
	logLevel   string
	reportPath string
}

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	gf := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "keysync [source-dir]",
		Short: "Add placeholder entries for resource keys used in code but missing from properties files",
		Long: `keysync scans a source tree for bundle lookups such as bundle.getString("Key"),
compares the keys with those defined in the configured .properties tables and
appends a generated placeholder for every missing key to the primary table.

Running keysync without a subcommand is the same as 'keysync sync'.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, gf, args, pipeline.Options{})
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&gf.configPath, "config", "c", "", "Path to YAML config file (default keysync.yaml if present)")
	pf.StringVar(&gf.sourceDir, "source", "", "Source directory to scan")
	pf.StringVar(&gf.extension, "ext", "", "Source file extension to scan")
	pf.StringVar(&gf.primary, "primary", "", "Primary properties file (read and written)")
	pf.StringSliceVar(&gf.secondary, "secondary", nil, "Secondary properties files (read only)")
	pf.StringSliceVar(&gf.exclude, "exclude", nil, "Directory names to skip")
	pf.IntVar(&gf.workers, "workers", 0, "Number of files extracted concurrently")
	pf.StringVar(&gf.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&gf.reportPath, "report", "", "Write a run report (.json or .md)")

	rootCmd.AddCommand(syncCmd(gf))
	rootCmd.AddCommand(checkCmd(gf))
	rootCmd.AddCommand(watchCmd(gf))
	rootCmd.AddCommand(defaultsCmd(gf))

	return rootCmd
}

func syncCmd(gf *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sync [source-dir]",
		Short: "Append placeholders for missing keys to the primary table",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, gf, args, pipeline.Options{})
		},
	}
}

func checkCmd(gf *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check [source-dir]",
		Short: "Report missing keys without writing; fails when any are missing",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, gf, args, pipeline.Options{DryRun: true})
		},
	}
}

func watchCmd(gf *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [source-dir]",
		Short: "Sync once, then again whenever sources or tables change",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			debounce, _ := cmd.Flags().GetDuration("debounce")
			return runWatch(cmd, gf, args, debounce)
		},
	}
	cmd.Flags().Duration("debounce", watch.DefaultDebounce, "Quiet period before re-running after a change")
	return cmd
}

func defaultsCmd(gf *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "defaults KEY...",
		Short: "Print the placeholder value generated for each key",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			explain, _ := cmd.Flags().GetBool("explain")
			return runDefaults(cmd, gf, args, explain)
		},
	}
	cmd.Flags().Bool("explain", false, "Also print the rule that produced each value")
	return cmd
}

// loadConfig merges defaults, config file, environment and flags, then validates.
func loadConfig(cmd *cobra.Command, gf *globalFlags, args []string) (*config.Config, error) {
	cfg, err := config.Load(gf.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("source") {
		cfg.SourceDir = gf.sourceDir
	}
	if len(args) > 0 {
		cfg.SourceDir = args[0]
	}
	if flags.Changed("ext") {
		cfg.Extension = gf.extension
	}
	if flags.Changed("primary") {
		cfg.PrimaryTable = gf.primary
	}
	if flags.Changed("secondary") {
		cfg.SecondaryTables = gf.secondary
	}
	if flags.Changed("exclude") {
		cfg.Exclude = gf.exclude
	}
	if flags.Changed("workers") {
		cfg.WorkerCount = gf.workers
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = gf.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	zerolog.SetGlobalLevel(level)

	return cfg, nil
}

// runSync handles the root, `sync` and `check` commands.
func runSync(cmd *cobra.Command, gf *globalFlags, args []string, opts pipeline.Options) error {
	cfg, err := loadConfig(cmd, gf, args)
	if err != nil {
		log.Error().Err(err).Msg("Configuration error")
		return err
	}

	ctx, cancel := setupContext()
	defer cancel()

	runner, err := pipeline.New(cfg)
	if err != nil {
		log.Error().Err(err).Msg("Configuration error")
		return err
	}

	res, runErr := runner.Run(ctx, opts)
	if gf.reportPath != "" && res != nil {
		if err := report.Write(gf.reportPath, report.Build(res)); err != nil {
			log.Warn().Err(err).Str("path", gf.reportPath).Msg("Failed to write report")
		} else {
			log.Info().Str("path", gf.reportPath).Msg("Report written")
		}
	}
	if runErr != nil {
		return runErr
	}

	if opts.DryRun && res.SourceMissing {
		err := fmt.Errorf("source directory %s does not exist", res.SourceDir)
		log.Error().Err(err).Msg("Check failed")
		return err
	}
	if opts.DryRun && res.Missing != nil && res.Missing.Len() > 0 {
		err := fmt.Errorf("%d resource keys are missing", res.Missing.Len())
		log.Error().Err(err).Msg("Check failed")
		return err
	}
	return nil
}

// runWatch handles the `watch` command.
func runWatch(cmd *cobra.Command, gf *globalFlags, args []string, debounce time.Duration) error {
	cfg, err := loadConfig(cmd, gf, args)
	if err != nil {
		log.Error().Err(err).Msg("Configuration error")
		return err
	}

	ctx, cancel := setupContext()
	defer cancel()

	runner, err := pipeline.New(cfg)
	if err != nil {
		log.Error().Err(err).Msg("Configuration error")
		return err
	}
	runner.WithCache(cache.NewExtractionCache())

	w := watch.New(cfg.SourceDir, cfg.Extension, cfg.Tables(), debounce)
	err = w.Run(ctx, func(ctx context.Context) {
		res, err := runner.Run(ctx, pipeline.Options{})
		if err != nil {
			log.Error().Err(err).Msg("Sync failed")
		}
		if gf.reportPath != "" && res != nil {
			if err := report.Write(gf.reportPath, report.Build(res)); err != nil {
				log.Warn().Err(err).Str("path", gf.reportPath).Msg("Failed to write report")
			}
		}
	})
	if err != nil {
		log.Error().Err(err).Msg("Watch failed")
		return err
	}
	return nil
}

// runDefaults handles the `defaults` command.
func runDefaults(cmd *cobra.Command, gf *globalFlags, keys []string, explain bool) error {
	cfg, err := loadConfig(cmd, gf, nil)
	if err != nil {
		log.Error().Err(err).Msg("Configuration error")
		return err
	}

	runner, err := pipeline.New(cfg)
	if err != nil {
		return err
	}
	synth := runner.Synthesizer()

	out := cmd.OutOrStdout()
	for _, key := range keys {
		value, rule := synth.Explain(key)
		if explain {
			fmt.Fprintf(out, "%s = %s\t# %s\n", key, value, rule)
			continue
		}
		fmt.Fprintf(out, "%s = %s\n", key, value)
	}
	return nil
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			log.Warn().Msg("Received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}
