// Package main provides the hotelsession binary: a command line client for
// the hotel backend's session lifecycle, plus a local dev server.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/jrsteele09/hotel-session/internal/config"
	"github.com/spf13/cobra"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "hotelsession"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd(config.New()).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd(cfg config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   appName,
		Short: "Hotel operations session client",
		Long: `hotelsession logs in to the hotel backend, keeps the session's access
credential fresh and sends authenticated requests on your behalf.

Configuration is read from the environment (API_BASE_URL, CREDENTIAL_STORE,
CREDENTIAL_FILE, REDIS_ADDR, SAFETY_MARGIN, ...).`,
		SilenceUsage: true,
	}

	cmd.AddCommand(
		serveCmd(cfg),
		loginCmd(cfg),
		registerCmd(cfg),
		statusCmd(cfg),
		callCmd(cfg),
		logoutCmd(cfg),
		watchCmd(cfg),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
			},
		},
	)
	return cmd
}
