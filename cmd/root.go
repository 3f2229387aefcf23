package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/zjrosen/factorytown/internal/config"
	"github.com/zjrosen/factorytown/internal/log"
	"github.com/zjrosen/factorytown/internal/presentation"
)

var version = "dev"

// annotationNoConfig marks commands that run before a config file exists.
const annotationNoConfig = "factorytown/no-config"

// rootOptions is the state shared by every subcommand: persistent flags
// and the config they resolve to.
type rootOptions struct {
	cfgFile  string
	logLevel string
	logFile  string
	noColor  bool

	cfg      config.Config
	closeLog func()
}

// newRootCmd builds the command tree.
func newRootCmd() (*cobra.Command, *rootOptions) {
	o := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:   "factorytown",
		Short: "Build a game-data model from the Factory Town wiki",
		Long: `Scrape the Factory Town wiki into a model of buildings, items, coins,
recipes and research, and report names that are referenced but never defined.

Pages are cached, so only the first run (or --force) hits the network.`,
		Version:           version,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: o.load,
	}

	rootCmd.PersistentFlags().StringVarP(&o.cfgFile, "config", "c", "",
		"config file (default: "+config.DefaultConfigPath+" or ~/.config/factorytown/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&o.logLevel, "log-level", "",
		"log level: debug, info, warning or error (overrides log.level)")
	rootCmd.PersistentFlags().StringVar(&o.logFile, "log-file", "",
		"write logs to this file instead of stderr (overrides log.file)")
	rootCmd.PersistentFlags().BoolVar(&o.noColor, "no-color", false,
		"disable colored output even on a terminal")

	rootCmd.AddCommand(
		newScrapeCmd(o),
		newRecordsCmd(o),
		newUnresolvedCmd(o),
		newCacheCmd(o),
		newConfigCmd(o),
		newVersionCmd(),
	)
	return rootCmd, o
}

// load reads the config, applies flag overrides and starts logging.
func (o *rootOptions) load(cmd *cobra.Command, _ []string) error {
	cfg := config.Defaults()
	if cmd.Annotations[annotationNoConfig] == "" {
		loaded, used, err := config.Load(o.cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
		defer log.Debug(log.CatConfig, "Using config", "file", used)
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.logFile != "" {
		cfg.Log.File = o.logFile
	}
	if err := config.ValidateLog(cfg.Log); err != nil {
		return err
	}

	level := log.LevelWarn
	if cfg.Log.Level != "" {
		level, _ = log.ParseLevel(cfg.Log.Level)
	}
	closeLog, err := log.Init(log.Options{
		Path:     cfg.ResolvePath(cfg.Log.File),
		Writer:   cmd.ErrOrStderr(),
		MinLevel: level,
	})
	if err != nil {
		return fmt.Errorf("opening log: %w", err)
	}
	o.closeLog = closeLog

	o.cfg = cfg
	return nil
}

func (o *rootOptions) close() {
	if o.closeLog != nil {
		o.closeLog()
		o.closeLog = nil
	}
}

// validated returns the loaded config after checking every section.
func (o *rootOptions) validated() (config.Config, error) {
	if err := o.cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return o.cfg, nil
}

// formatter returns the output formatter for w, honoring --no-color.
func (o *rootOptions) formatter(w io.Writer, asJSON bool) *presentation.Formatter {
	var opts []presentation.Option
	if o.noColor {
		opts = append(opts, presentation.WithColorProfile(termenv.Ascii))
	}
	return presentation.NewFormatter(w, asJSON, opts...)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "factorytown %s\n", version)
			return err
		},
	}
}

// Run executes the command tree with args, printing any error to stderr as
// "factorytown: error: <msg>".
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	rootCmd, o := newRootCmd()
	defer o.close()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "factorytown: error: %s\n", err)
	}
	return err
}

// Execute runs the root command against os.Args until interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
}
