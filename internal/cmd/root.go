// Package cmd provides the command-line interface for Kumo.
// It handles flag parsing, configuration loading, and crawl execution.
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/kumocrawl/kumo/internal/config"
	"github.com/kumocrawl/kumo/internal/crawler"
	"github.com/kumocrawl/kumo/internal/logging"
	"github.com/kumocrawl/kumo/internal/storage"
)

var (
	cfgFile   string
	version   string
	buildTime string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "kumo [URLs...]",
	Short: "A polite, concurrent web crawler",
	Long: `Kumo crawls the web outward from a set of seed URLs, following
discovered links breadth-first up to a bounded depth. It honors per-domain
robots.txt policies, bounds concurrent connections, and paces its workers
between requests. Fetched pages are persisted to a SQLite database.`,
	Args: cobra.ArbitraryArgs,
	RunE: runCrawl,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command under ctx so an interrupt cancels a
// running crawl.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetVersionInfo sets version information for the CLI.
func SetVersionInfo(v, bt string) {
	version = v
	buildTime = bt
	rootCmd.Version = fmt.Sprintf("%s (built %s)", version, buildTime)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./kumo.yml)")

	rootCmd.Flags().Bool("show-config", false, "Display effective configuration in YAML and exit")

	rootCmd.Flags().IntP("concurrency", "c", 4, "Number of crawl workers")
	rootCmd.Flags().IntP("max-connections", "n", 8, "Maximum concurrent page fetches")
	rootCmd.Flags().DurationP("delay", "r", 1*time.Second, "Politeness delay between requests per worker")
	rootCmd.Flags().IntP("max-depth", "m", 3, "Maximum link-discovery depth (inclusive)")
	rootCmd.Flags().DurationP("timeout", "t", 30*time.Second, "HTTP request timeout")
	rootCmd.Flags().StringP("user-agent", "u", "Kumo/1.0", "User-Agent header and robots agent token")
	rootCmd.Flags().StringP("database", "d", "./kumo.db", "Path to SQLite page database")
	rootCmd.Flags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.Flags().String("log-file", "", "Log file path (console only if empty)")

	bindFlags := []struct {
		viperKey string
		flagName string
	}{
		{"concurrency", "concurrency"},
		{"max_connections", "max-connections"},
		{"politeness_delay", "delay"},
		{"max_depth", "max-depth"},
		{"request_timeout", "timeout"},
		{"user_agent", "user-agent"},
		{"database_path", "database"},
		{"log_level", "log-level"},
		{"log_file", "log-file"},
	}

	for _, bind := range bindFlags {
		if err := viper.BindPFlag(bind.viperKey, rootCmd.Flags().Lookup(bind.flagName)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to bind flag %s: %v\n", bind.flagName, err)
		}
	}
}

// initConfig reads in the config file and environment variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("kumo")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("KUMO")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

func showCurrentConfig(cfg *config.CrawlConfig) error {
	yamlData, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}

	fmt.Printf("# Effective Kumo configuration\n")
	fmt.Printf("# Config file search path: ./kumo.yml, environment prefix: KUMO_\n\n")
	fmt.Print(string(yamlData))
	return nil
}

func runCrawl(cmd *cobra.Command, args []string) error {
	showConfig, _ := cmd.Flags().GetBool("show-config")

	cfg := config.DefaultConfig()
	cfg.SeedURLs = args

	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if showConfig {
		return showCurrentConfig(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if len(cfg.SeedURLs) == 0 {
		return fmt.Errorf("no seed URLs provided\nUsage: %s [URLs...]", os.Args[0])
	}

	if err := logging.SetDefault(logging.Config{
		Level:      logging.ParseLevel(cfg.LogLevel),
		FilePath:   cfg.LogFile,
		MaxSizeMB:  100,
		MaxBackups: 5,
		Console:    true,
	}); err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0750); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	store, err := storage.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open page store: %w", err)
	}
	defer func() { _ = store.Close() }()

	c := crawler.NewCrawler(cfg, store)
	defer c.Stop()

	for _, seed := range cfg.SeedURLs {
		c.AddSeed(seed, 0)
	}

	if err := c.Start(cmd.Context()); err != nil {
		return err
	}

	return printSummary(store, c.GetStats())
}

func printSummary(store *storage.SQLiteStore, stats crawler.CrawlStats) error {
	pages, err := store.ListPages()
	if err != nil {
		return fmt.Errorf("failed to read crawl results: %w", err)
	}

	fmt.Printf("\nCrawl finished in %v\n", stats.Duration.Round(time.Millisecond))
	fmt.Printf("  Pages stored:    %d\n", stats.PagesStored)
	fmt.Printf("  Robots skipped:  %d\n", stats.RobotsSkipped)
	fmt.Printf("  Depth discarded: %d\n", stats.DepthDiscarded)
	fmt.Printf("  Errors:          %d\n", stats.FetchErrors)

	for _, p := range pages {
		fmt.Printf("  %6d bytes  depth %d  %s\n", p.Size, p.Depth, p.URL)
	}
	return nil
}
