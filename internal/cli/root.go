package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/curato/internal/model"
)

// Version is overridden at build time with -ldflags "-X ...cli.Version=..."
var Version = "v0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "curato",
	Short: "Curato - ontology statement candidates from free text",
	Long: `Curato finds mentions of ontology terms in sentences and proposes
candidate statements whose terms are each backed by the nearest
textual evidence.

Candidates are proposals for a curator or a downstream ranker.
Curato does not decide whether a statement holds.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "curato %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.curato/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	setDefaults(viper.GetViper(), model.DefaultConfig())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(filepath.Join(home, ".curato"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// CURATO_FETCH_TIMEOUT overrides fetch.timeout
	viper.SetEnvPrefix("CURATO")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every config key so env overrides reach Unmarshal
func setDefaults(v *viper.Viper, cfg *model.Config) {
	v.SetDefault("extraction.case_insensitive", cfg.Extraction.CaseInsensitive)
	v.SetDefault("extraction.extra_pattern", cfg.Extraction.ExtraPattern)
	v.SetDefault("concurrency.workers", cfg.Concurrency.Workers)
	v.SetDefault("concurrency.sources", cfg.Concurrency.Sources)
	v.SetDefault("cache.enabled", cfg.Cache.Enabled)
	v.SetDefault("cache.ttl", cfg.Cache.TTL)
	v.SetDefault("cache.cleanup_interval", cfg.Cache.CleanupInterval)
	v.SetDefault("fetch.timeout", cfg.Fetch.Timeout)
	v.SetDefault("fetch.user_agent", cfg.Fetch.UserAgent)
	v.SetDefault("fetch.max_body_bytes", cfg.Fetch.MaxBodyBytes)
	v.SetDefault("fetch.requests_per_second", cfg.Fetch.RequestsPerSecond)
	v.SetDefault("fetch.burst", cfg.Fetch.Burst)
	v.SetDefault("fetch.respect_robots", cfg.Fetch.RespectRobots)
	v.SetDefault("fetch.http_proxy", cfg.Fetch.HTTPProxy)
	v.SetDefault("fetch.https_proxy", cfg.Fetch.HTTPSProxy)
	v.SetDefault("output.format", cfg.Output.Format)
	v.SetDefault("output.dedupe", cfg.Output.Dedupe)
	v.SetDefault("output.verbose", cfg.Output.Verbose)
}

// loadConfig merges defaults, config file, env and bound flags
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Concurrency.Workers < 1 {
		cfg.Concurrency.Workers = 1
	}
	if cfg.Concurrency.Sources < 1 {
		cfg.Concurrency.Sources = 1
	}
	return cfg, nil
}

// newLogger writes text logs to stderr, at debug level when verbose
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
