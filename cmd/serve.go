package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/borderdrill/internal/httpapi"
	"github.com/abhisek/borderdrill/internal/telemetry"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and live session websocket",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	d, err := buildDeps(ctx, cmd, logStderr, true)
	if err != nil {
		return err
	}
	defer d.Close()

	shutdownTracing, err := telemetry.Init(ctx, d.cfg.Telemetry, version, cmd.ErrOrStderr(), d.log)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			d.log.Warn("tracer shutdown failed", "error", err)
		}
	}()

	addr := d.cfg.Server.Addr
	if a, _ := cmd.Flags().GetString("addr"); a != "" {
		addr = a
	}

	router := httpapi.NewRouter(&httpapi.Container{
		Generator:      d.generator,
		Evaluator:      d.evaluator,
		Session:        d.sessionOptions(),
		Logger:         d.log,
		AllowedOrigins: d.cfg.Server.AllowedOrigins,
	})
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d.log.Info("server starting", "addr", addr, "provider", d.cfg.LLM.Provider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		d.log.Info("shutting down server")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	d.log.Info("server exited")
	return nil
}
