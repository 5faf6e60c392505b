package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
)

func main() {
	var (
		addr  string
		debug bool
	)

	app := &cli.Command{
		Name:  "richpad-server",
		Usage: "Relay apply-content commands and content changes between richpad editors",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "Server's network address",
				Sources:     cli.EnvVars("RICHPAD_ADDR"),
				Value:       ":8080",
				Destination: &addr,
			},
			&cli.BoolFlag{
				Name:        "debug",
				Usage:       "Enable debug logs",
				Sources:     cli.EnvVars("RICHPAD_DEBUG"),
				Destination: &debug,
			},
		},
		Action: func(ctx context.Context, _ *cli.Command) error {
			logger := logrus.New()
			logger.SetOutput(os.Stderr)
			if debug {
				logger.SetLevel(logrus.DebugLevel)
			}
			return serve(ctx, addr, logger)
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

// serve runs the hub behind an HTTP server until ctx is cancelled.
func serve(ctx context.Context, addr string, logger *logrus.Logger) error {
	hub := NewHub(logger, color.Output)
	go hub.Run(ctx)

	mux := http.NewServeMux()
	mux.Handle("/", hub)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	// Start the server.
	color.Green("Starting server on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
