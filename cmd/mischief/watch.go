package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/mischief/pkg/adapters/lifecycle"
	"github.com/aretw0/mischief/pkg/core"
)

var (
	watchPattern string
	watchTypes   []string
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print changes made to the data directory",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		c := openStore(ctx, loadConfig())

		types := make([]core.EventType, 0, len(watchTypes))
		for _, t := range watchTypes {
			types = append(types, core.EventType(t))
		}

		events, err := c.Service.Watch(ctx, watchPattern)
		if err != nil {
			fatal("Failed to watch", err)
		}
		src := lifecycle.NewSource(events, types...)
		if err := src.Start(ctx); err != nil {
			fatal("Failed to start event source", err)
		}

		fmt.Fprintf(os.Stderr, "Watching %s (Ctrl+C to stop)\n", c.Meta.Path)
		for e := range src.Events() {
			if ev, ok := e.(core.Event); ok {
				fmt.Printf("%d %s\n", ev.Timestamp, ev)
				continue
			}
			fmt.Println(e.String())
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVarP(&watchPattern, "pattern", "p", "**", "Glob pattern relative to the data directory")
	watchCmd.Flags().StringSliceVarP(&watchTypes, "type", "t", nil, "Only print events of these types (CREATE, MODIFY, DELETE)")
}
