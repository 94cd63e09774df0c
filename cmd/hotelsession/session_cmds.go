package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jrsteele09/hotel-session/authapi"
	"github.com/jrsteele09/hotel-session/credstore"
	"github.com/jrsteele09/hotel-session/internal/config"
	autherrors "github.com/jrsteele09/hotel-session/internal/errors"
	"github.com/jrsteele09/hotel-session/session"
	"github.com/spf13/cobra"
)

// withApp runs fn with a freshly wired app.
func withApp(cmd *cobra.Command, cfg config.Config, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func loginCmd(cfg config.Config) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, cfg, func(ctx context.Context, a *app) error {
				pair, err := a.api.Login(ctx, email, password)
				if err != nil {
					return fmt.Errorf("login failed: %w", err)
				}
				return establish(ctx, cmd.OutOrStdout(), a, pair)
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func registerCmd(cfg config.Config) *cobra.Command {
	var req authapi.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a guest account and log in",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, cfg, func(ctx context.Context, a *app) error {
				pair, err := a.api.Register(ctx, req)
				if err != nil {
					return fmt.Errorf("registration failed: %w", err)
				}
				return establish(ctx, cmd.OutOrStdout(), a, pair)
			})
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "Account password")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "Last name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func establish(ctx context.Context, out io.Writer, a *app, pair *authapi.TokenPair) error {
	if err := a.state.Set(ctx, pair.AccessToken, pair.RefreshToken); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	sess, _ := a.state.Current()
	fmt.Fprintf(out, "Logged in as %s (%s)\n", sess.Subject(), sess.Role())
	return nil
}

func statusCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, cfg, func(ctx context.Context, a *app) error {
				sess, ok := a.state.Current()
				printSession(cmd.OutOrStdout(), sess, ok)
				return nil
			})
		},
	}
}

func printSession(out io.Writer, sess session.Session, ok bool) {
	if !ok {
		fmt.Fprintln(out, "Logged out")
		return
	}
	now := time.Now()
	fmt.Fprintf(out, "Subject:  %s\n", sess.Subject())
	fmt.Fprintf(out, "Role:     %s\n", sess.Role())
	fmt.Fprintf(out, "Access:   expires %s (%s)\n", sess.Access.ExpiresAt.Format(time.RFC3339), describeExpiry(sess.Access.ExpiresAt, now))
	fmt.Fprintf(out, "Refresh:  expires %s (%s)\n", sess.Refresh.ExpiresAt.Format(time.RFC3339), describeExpiry(sess.Refresh.ExpiresAt, now))
}

func describeExpiry(at, now time.Time) string {
	if !at.After(now) {
		return "expired"
	}
	return "in " + at.Sub(now).Round(time.Second).String()
}

func callCmd(cfg config.Config) *cobra.Command {
	var (
		method      string
		body        string
		showMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "call <path>",
		Short: "Send an authenticated request to the hotel API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, cfg, func(ctx context.Context, a *app) error {
				out := cmd.OutOrStdout()
				if showMetrics {
					defer printMetrics(out, a)
				}

				var reqBody io.Reader
				if body != "" {
					reqBody = strings.NewReader(body)
				}
				req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), cfg.GetAPIBaseURL()+"/"+strings.TrimPrefix(args[0], "/"), reqBody)
				if err != nil {
					return err
				}
				if body != "" {
					req.Header.Set("Content-Type", "application/json")
				}

				resp, err := a.httpClient().Do(req)
				if errors.Is(err, autherrors.ErrSessionExpired) {
					return fmt.Errorf("session expired, please log in again: %w", err)
				}
				if err != nil {
					return err
				}
				defer resp.Body.Close()

				fmt.Fprintln(out, resp.Status)
				_, err = io.Copy(out, resp.Body)
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&method, "method", "X", http.MethodGet, "HTTP method")
	cmd.Flags().StringVarP(&body, "data", "d", "", "JSON request body")
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "Print session metrics after the call")
	return cmd
}

func printMetrics(out io.Writer, a *app) {
	families, err := a.registry.Gather()
	if err != nil {
		a.log.Warn().Err(err).Msg("failed to gather metrics")
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels = append(labels, l.GetName()+"="+l.GetValue())
			}
			fmt.Fprintf(out, "%s{%s} %g\n", mf.GetName(), strings.Join(labels, ","), m.GetCounter().GetValue())
		}
	}
}

func logoutCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the session and its stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, cfg, func(ctx context.Context, a *app) error {
				a.state.Clear(ctx)
				fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
				return nil
			})
		},
	}
}

// watchCmd follows the credential file and reports session changes made by
// any process sharing it.
func watchCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow session changes in the credential file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, cfg, func(ctx context.Context, a *app) error {
				file, ok := a.store.(*credstore.File)
				if !ok {
					return fmt.Errorf("watch needs the file credential store, got %q", cfg.GetCredentialStore())
				}

				out := cmd.OutOrStdout()
				sess, ok := a.state.Current()
				printSession(out, sess, ok)
				cancel := a.state.Subscribe(func(sess session.Session, ok bool) {
					fmt.Fprintf(out, "--- session changed at %s\n", time.Now().Format(time.Kitchen))
					printSession(out, sess, ok)
				})
				defer cancel()

				ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
				defer stop()
				return file.Watch(ctx, func() { a.state.Reload(ctx) })
			})
		},
	}
}
