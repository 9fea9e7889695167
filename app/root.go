package app

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/soocke/pixel-recorder-go/config"
	"github.com/soocke/pixel-recorder-go/debug"
)

var (
	cfgPath    string
	debugMode  bool
	jsonOutput bool
	rootCmd    = &cobra.Command{
		Use:   "pixelrec",
		Short: "pixelrec - screen recorder",
		Long: `pixelrec captures a screen region into a raw recording log, converts
recordings into cached projects and renders project timelines to images.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default is $XDG_CONFIG_HOME/pixel-recorder/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "debug logging and runtime metrics")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func configPath() string {
	if cfgPath != "" {
		return cfgPath
	}
	return config.DefaultPath()
}

// loadConfig reads the config file and applies global flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath())
	if err != nil {
		return nil, err
	}
	if debugMode {
		cfg.Debug = true
	}
	if err := cfg.ExpandPaths(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setup loads the configuration and builds the container for one command.
// Debug mode starts the runtime metric loggers.
func setup(cmd *cobra.Command) (*Container, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := NewLogger(cmd.ErrOrStderr(), cfg.Level())
	if cfg.Debug {
		debug.Start(cmd.Context(), 10*time.Second, logger)
	}
	logger.Debug("config loaded", slog.String("path", configPath()), slog.String("strategy", cfg.Strategy))
	return BuildContainer(cfg, logger)
}

// outputJSON prints v as JSON if --json flag is set, otherwise does nothing.
func outputJSON(w io.Writer, v any) error {
	if !jsonOutput {
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
