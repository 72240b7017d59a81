package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

// notesCmd lists every note as the configured administrator.
var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "List all notes",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg := loadConfig()
		c := openStore(ctx, cfg)

		notes, err := c.Service.AdminListNotes(ctx, cfg.Administrator)
		if err != nil {
			fatal("Failed to list notes", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tOWNER\tCREATED\tSHARED WITH")
		for _, n := range notes {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				n.ID, n.Title, n.Owner, n.CreatedAt.Format(time.RFC3339), strings.Join(n.SharedWith, ","))
		}
		w.Flush()
	},
}

var reapCmd = &cobra.Command{
	Use:   "reap",
	Short: "Remove content blobs no note refers to",
	Long: `Remove content blobs left behind by interrupted creates or deletes.
Blobs are only removed when no note record refers to them.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		c := openStore(ctx, loadConfig())

		reaped, err := c.Service.ReapOrphans(ctx)
		for _, id := range reaped {
			fmt.Println("removed", id)
		}
		if err != nil {
			fatal("Failed to reap orphans", err)
		}
		fmt.Printf("%d orphan blob(s) removed\n", len(reaped))
	},
}

func init() {
	rootCmd.AddCommand(notesCmd)
	rootCmd.AddCommand(reapCmd)
}
