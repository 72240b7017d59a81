package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aretw0/mischief"
)

var (
	verbose    bool
	configPath string
	dataDir    string
	readOnly   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mischief",
	Short: "A multi-tenant encrypted note store",
	Long: `Mischief stores notes encrypted at rest and lets their owners share them,
one note at a time or in bulk through access requests.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to mischief.yaml (default: searched upwards from the working directory)")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data", "d", "", "Data directory (overrides the config file)")
	rootCmd.PersistentFlags().BoolVar(&readOnly, "read-only", false, "Open the store in read-only mode")
}

// loadConfig resolves the configuration from flags, the config file and defaults.
// Without --config the file is searched upwards from the working directory and
// a relative data dir is taken from the root that was found.
func loadConfig() mischief.Config {
	path := configPath
	root := ""
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			fatal("Failed to get CWD", err)
		}
		if found, err := mischief.FindConfig(wd); err == nil {
			path = found
			root = filepath.Dir(found)
		}
	}

	cfg := mischief.DefaultConfig()
	if path != "" {
		loaded, err := mischief.LoadConfig(path)
		if err != nil {
			fatal("Failed to load config", err)
		}
		cfg = loaded
		slog.Debug("config loaded", "path", path)
	}

	if dataDir != "" {
		cfg.DataDir = dataDir
	} else if root != "" && !filepath.IsAbs(cfg.DataDir) {
		cfg.DataDir = filepath.Join(root, cfg.DataDir)
	}
	if readOnly {
		cfg.ReadOnly = true
	}
	return cfg
}

// openStore opens the note store described by cfg.
func openStore(ctx context.Context, cfg mischief.Config, opts ...mischief.Option) *mischief.Components {
	opts = append(cfg.Options(), append([]mischief.Option{mischief.WithLogger(slog.Default())}, opts...)...)
	c, err := mischief.Open(ctx, cfg.DataDir, opts...)
	if err != nil {
		fatal("Failed to open store", err)
	}
	return c
}
