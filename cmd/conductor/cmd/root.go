package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	conductorcfg "github.com/relaykit/conductor/internal/config"
	"github.com/relaykit/conductor/internal/discovery"
	"github.com/relaykit/conductor/internal/logging"
	"github.com/relaykit/conductor/internal/runtime"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
	noColor   bool

	appVersion string
	appCommit  string
	appDate    string

	log *logging.Logger
	rt  runtime.Runtime
)

var rootCmd = &cobra.Command{
	Use:   "conductor",
	Short: "Discover and run self-describing workflow binaries",
	Long: `conductor discovers workflow executables that describe their own
parameters, spawns them as supervised child processes, and streams the
structured events they emit back to the caller.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return setup(cmd.Context())
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion injects build-time version metadata.
func SetVersion(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: .conductor/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "auto",
		"log format (auto, text, json)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false,
		"disable colored output")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// setup loads configuration, builds the logger, runs one discovery scan,
// and constructs the Runtime facade every subcommand depends on.
func setup(ctx context.Context) error {
	loader := conductorcfg.NewLoaderWithViper(viper.GetViper())
	if cfgFile != "" {
		loader = loader.WithConfigFile(cfgFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})

	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolving executable path: %w", err)
	}
	homeDir, _ := os.UserHomeDir()

	catalog := discovery.NewCatalog()
	catalog.Refresh(ctx, discovery.Scanner{ExePath: exePath, HomeDir: homeDir})

	opts := []runtime.Option{
		runtime.WithLogger(log),
	}
	if cfg.Runtime.BroadcastCapacity > 0 {
		opts = append(opts, runtime.WithBroadcastCapacity(cfg.Runtime.BroadcastCapacity))
	}

	rt = runtime.New(catalog, opts...)
	return nil
}
