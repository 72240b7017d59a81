package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/mischief"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of mischief",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mischief version %s\n", strings.TrimSpace(mischief.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
