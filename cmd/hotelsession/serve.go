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

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/hotel-session/devserver"
	"github.com/jrsteele09/hotel-session/internal/config"
	"github.com/jrsteele09/hotel-session/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func serveCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run a local dev server with the hotel backend's credential endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cfg)
		},
	}
}

func serve(cfg config.Config) error {
	log := logging.New(cfg.GetEnv(), cfg.GetLogLevel())
	displayAppname(cfg.GetAppName())

	handler, err := devserver.New(cfg,
		devserver.WithLogger(log),
		devserver.WithEnv(cfg.GetEnv()),
	)
	if err != nil {
		return fmt.Errorf("[serve] %w", err)
	}
	log.Info().Str("password", devserver.DemoPassword).Msg("demo users seeded")

	server := &http.Server{Addr: cfg.GetPort(), Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	errs := make(chan error, 1)
	go func() { errs <- listenAndServe(log, server) }()

	select {
	case err := <-errs:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(server)
}

func listenAndServe(log zerolog.Logger, server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
