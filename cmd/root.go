// Package cmd provides the command-line interface for glosslink.
//
// Configuration is loaded from multiple sources with clear precedence:
//
//	1. Command-line flags (--glossary, --locale, etc.) - highest priority
//	2. GLOSSLINK_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (GLOSSLINK_SERVER_PORT, etc.)
//	4. Configuration file (.glosslink.yml) - lowest priority
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/glosslink/glosslink/internal/cache"
	"github.com/glosslink/glosslink/internal/config"
	"github.com/glosslink/glosslink/internal/engine"
	"github.com/glosslink/glosslink/internal/logging"
	"github.com/glosslink/glosslink/internal/store"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "glosslink",
	Short: "Glossary term substitution for HTML content",
	Long: `Glosslink rewrites plain-text occurrences of glossary terms in HTML
content into links and abbreviation markup without ever touching
existing markup.

Quick Start:
  glosslink process page.html     Substitute terms in a file
  glosslink terms                 List the glossary definitions
  glosslink serve page.html       Preview a file with live reload
  glosslink version               Show version information

Terms are defined in a YAML glossary file (default glossary.yml); see
the terms command for the entry fields.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .glosslink.yml, can also use GLOSSLINK_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().String("glossary", "", "glossary definitions file (default glossary.yml)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	viper.BindPFlag("glossary.file", rootCmd.PersistentFlags().Lookup("glossary"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig initializes the configuration system. The --config flag
// wins over GLOSSLINK_CONFIG_FILE, which wins over .glosslink.yml in
// the current directory. Missing config files are not an error; the
// defaults apply.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("GLOSSLINK_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".glosslink")
	}

	viper.SetEnvPrefix("GLOSSLINK")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// runtimeEnv bundles everything a command needs to run the engine.
type runtimeEnv struct {
	cfg      *config.Config
	logger   logging.Logger
	glossary *store.YAMLStore
	engine   *engine.Engine
}

// loadRuntime builds the shared runtime from configuration: logger,
// glossary store, cache, and engine.
func loadRuntime() (*runtimeEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Format: "text",
		Output: os.Stderr,
	})

	glossary, err := store.NewYAMLStore(cfg.Glossary.File)
	if err != nil {
		return nil, err
	}

	shared := cache.NewMemoryStore(cfg.Cache.MaxSize)
	eng := engine.New(glossary, glossary, shared, engine.Config{
		BlockedTags: cfg.Engine.BlockedTags,
		CacheTTL:    cfg.Cache.TTL,
	}, logger)

	return &runtimeEnv{cfg: cfg, logger: logger, glossary: glossary, engine: eng}, nil
}
