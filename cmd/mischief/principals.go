package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/aretw0/mischief"
)

var principalsCmd = &cobra.Command{
	Use:   "principals",
	Short: "Manage principals",
}

var principalsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List principal names",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		c := openStore(ctx, loadConfig())

		names, err := c.Service.ListPrincipals(ctx)
		if err != nil {
			fatal("Failed to list principals", err)
		}
		for _, name := range names {
			fmt.Println(name)
		}
	},
}

// principalsAddCmd runs as the configured administrator; local access to the
// data directory already implies full control over it.
var principalsAddCmd = &cobra.Command{
	Use:   "add <name> <credential>",
	Short: "Register a new principal",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg := loadConfig()
		c := openStore(ctx, cfg)

		if err := addPrincipal(ctx, c, cfg.Administrator, args[0], args[1], cmd.OutOrStdout()); err != nil {
			fatal("Failed to add principal", err)
		}
	},
}

// addPrincipal registers the principal and reports the name as stored.
func addPrincipal(ctx context.Context, c *mischief.Components, admin, name, credential string, out io.Writer) error {
	stored, err := c.Service.AdminCreatePrincipal(ctx, admin, name, credential)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Wizard %s created\n", stored)
	return nil
}

func init() {
	rootCmd.AddCommand(principalsCmd)
	principalsCmd.AddCommand(principalsListCmd)
	principalsCmd.AddCommand(principalsAddCmd)
}
