package gate

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jrsteele09/hotel-session/clock"
	"github.com/jrsteele09/hotel-session/credential"
	autherrors "github.com/jrsteele09/hotel-session/internal/errors"
	"github.com/jrsteele09/hotel-session/internal/metrics"
	"github.com/jrsteele09/hotel-session/refresh"
	"github.com/jrsteele09/hotel-session/session"
	"github.com/rs/zerolog"
)

// Refresher obtains a fresh access credential for a session the caller saw as
// stale.
type Refresher interface {
	EnsureFreshSince(ctx context.Context, seen session.Session) (credential.Credential, error)
}

var _ Refresher = (*refresh.Coordinator)(nil)

// Gate decides, per outgoing request, which credential to attach.
type Gate struct {
	state     *session.State
	refresher Refresher
	clock     clock.Clock
	margin    time.Duration
	log       zerolog.Logger
	metrics   *metrics.Metrics
}

type Option func(*Gate)

func WithClock(c clock.Clock) Option {
	return func(g *Gate) {
		g.clock = c
	}
}

func WithSafetyMargin(d time.Duration) Option {
	return func(g *Gate) {
		g.margin = d
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(g *Gate) {
		g.log = log
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gate) {
		g.metrics = m
	}
}

func New(state *session.State, refresher Refresher, options ...Option) *Gate {
	g := &Gate{
		state:     state,
		refresher: refresher,
		clock:     clock.System(),
		margin:    refresh.DefaultSafetyMargin,
		log:       zerolog.Nop(),
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

// Prepare returns a clone of req carrying the credential to send it with.
// Without a session the clone is unauthenticated. If the session cannot be
// refreshed it returns ErrSessionExpired and the request must not be sent.
func (g *Gate) Prepare(ctx context.Context, req *http.Request) (*http.Request, error) {
	cred, err := g.credential(ctx)
	if autherrors.Is(err, autherrors.ErrNoSession) {
		g.metrics.Gate(metrics.DecisionAnonymous)
		g.log.Debug().Str("path", req.URL.Path).Msg("no session, sending unauthenticated")
		return req.Clone(ctx), nil
	}
	if err != nil {
		return nil, fmt.Errorf("[gate Prepare] %w", err)
	}

	out := req.Clone(ctx)
	out.Header.Set("Authorization", "Bearer "+cred.Raw)
	return out, nil
}

// credential returns the access credential to attach, refreshing it first when
// it is within the safety margin of expiry.
func (g *Gate) credential(ctx context.Context) (credential.Credential, error) {
	retried := false
	for {
		sess, ok := g.state.Current()
		if !ok {
			return credential.Credential{}, autherrors.ErrNoSession
		}

		if sess.Access.ValidAt(g.clock.Now(), g.margin) {
			g.metrics.Gate(metrics.DecisionFast)
			return sess.Access, nil
		}

		g.log.Debug().Str("subject", sess.Subject()).Time("expires_at", sess.Access.ExpiresAt).Msg("access credential stale, refreshing")
		cred, err := g.refresher.EnsureFreshSince(ctx, sess)
		switch {
		case err == nil:
			g.metrics.Gate(metrics.DecisionRefreshed)
			return cred, nil
		case autherrors.Is(err, autherrors.ErrSessionChanged) && !retried:
			// Re-evaluate once against whatever session replaced it.
			retried = true
			continue
		case autherrors.Is(err, autherrors.ErrNoSession):
			return credential.Credential{}, err
		case autherrors.Is(err, autherrors.ErrRefreshExpired), autherrors.Is(err, autherrors.ErrRefreshFailed):
			g.metrics.Gate(metrics.DecisionExpired)
			return credential.Credential{}, fmt.Errorf("%w: %w", autherrors.ErrSessionExpired, err)
		default:
			return credential.Credential{}, err
		}
	}
}
