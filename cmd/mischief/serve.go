package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/aretw0/mischief/pkg/adapters/httpapi"
	"github.com/aretw0/mischief/pkg/adapters/lifecycle"
	"github.com/aretw0/mischief/pkg/core"
)

var (
	listenAddr string
	serveWatch bool
)

const shutdownTimeout = 10 * time.Second

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the note store over HTTP",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg := loadConfig()
		if listenAddr != "" {
			cfg.Listen = listenAddr
		}
		c := openStore(ctx, cfg)

		server := &http.Server{
			Addr:              cfg.Listen,
			Handler:           httpapi.New(c.Service, slog.Default().With("component", "http")),
			ReadHeaderTimeout: 5 * time.Second,
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			slog.Info("listening", "addr", cfg.Listen, "data", c.Meta.Path)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			slog.Info("shutting down")
			return server.Shutdown(shutdownCtx)
		})
		if serveWatch {
			g.Go(func() error {
				return logChanges(gctx, c.Service)
			})
		}

		if err := g.Wait(); err != nil {
			fatal("Server failed", err)
		}
	},
}

// logChanges logs every change made to the data directory until ctx ends.
func logChanges(ctx context.Context, svc *core.Service) error {
	events, err := svc.Watch(ctx, "**")
	if err != nil {
		return fmt.Errorf("failed to watch data dir: %w", err)
	}
	src := lifecycle.NewSource(events)
	if err := src.Start(ctx); err != nil {
		return err
	}
	for e := range src.Events() {
		slog.Info("data dir changed", "event", e.String())
	}
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "Listen address (overrides the config file)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "Log changes made to the data directory")
}
