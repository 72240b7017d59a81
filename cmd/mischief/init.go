package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var writeConfig bool

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a data directory",
	Long: `Create the data directory, seed the default principals and generate the
encryption key. Existing documents and keys are left untouched.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		c := openStore(context.Background(), cfg)

		if writeConfig {
			cwd, err := os.Getwd()
			if err != nil {
				fatal("Failed to get CWD", err)
			}
			path := filepath.Join(cwd, "mischief.yaml")
			if _, err := os.Stat(path); err == nil {
				fatal("Refusing to overwrite config", fmt.Errorf("%s already exists", path))
			}
			data, err := cfg.Marshal()
			if err != nil {
				fatal("Failed to encode config", err)
			}
			if err := os.WriteFile(path, data, 0o600); err != nil {
				fatal("Failed to write config", err)
			}
			fmt.Println("Wrote", path)
		}

		fmt.Println("Initialized note store in", c.Meta.Path)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&writeConfig, "write-config", false, "Also write mischief.yaml with the effective configuration")
}
