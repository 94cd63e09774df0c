package refresh

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/hotel-session/clock"
	"github.com/jrsteele09/hotel-session/credential"
	autherrors "github.com/jrsteele09/hotel-session/internal/errors"
	"github.com/jrsteele09/hotel-session/internal/metrics"
	"github.com/jrsteele09/hotel-session/session"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultExchangeTimeout = 10 * time.Second
	DefaultSafetyMargin    = 5 * time.Second
)

// Coordinator exchanges the refresh credential for a new access credential,
// with at most one exchange in flight per session.
type Coordinator struct {
	state     *session.State
	exchanger Exchanger
	clock     clock.Clock
	margin    time.Duration
	timeout   time.Duration
	log       zerolog.Logger
	metrics   *metrics.Metrics

	// Keyed by session.Key, so a flight started for one session is never
	// joined by callers of the next one.
	flights singleflight.Group
}

type Option func(*Coordinator)

func WithClock(c clock.Clock) Option {
	return func(co *Coordinator) {
		co.clock = c
	}
}

// WithSafetyMargin sets how long before expiry an access credential counts as
// stale. It should match the gate's margin.
func WithSafetyMargin(d time.Duration) Option {
	return func(co *Coordinator) {
		co.margin = d
	}
}

// WithExchangeTimeout bounds each network exchange. A timeout is a failed refresh.
func WithExchangeTimeout(d time.Duration) Option {
	return func(co *Coordinator) {
		co.timeout = d
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(co *Coordinator) {
		co.log = log
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(co *Coordinator) {
		co.metrics = m
	}
}

func New(state *session.State, exchanger Exchanger, options ...Option) *Coordinator {
	c := &Coordinator{
		state:     state,
		exchanger: exchanger,
		clock:     clock.System(),
		margin:    DefaultSafetyMargin,
		timeout:   DefaultExchangeTimeout,
		log:       zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *Coordinator) SafetyMargin() time.Duration {
	return c.margin
}

// EnsureFresh exchanges the current session's refresh credential and returns
// the new access credential. Concurrent callers share one exchange and see the
// same outcome. Every error except ErrNoSession and ctx errors means the
// session is gone or was replaced.
func (c *Coordinator) EnsureFresh(ctx context.Context) (credential.Credential, error) {
	sess, ok := c.state.Current()
	if !ok {
		return credential.Credential{}, autherrors.ErrNoSession
	}
	return c.join(ctx, sess)
}

// EnsureFreshSince is EnsureFresh for a caller that decided to refresh based
// on the session snapshot seen. If an exchange settled between that snapshot
// and now, the already-refreshed credential is returned without a new exchange.
func (c *Coordinator) EnsureFreshSince(ctx context.Context, seen session.Session) (credential.Credential, error) {
	sess, ok := c.state.Current()
	if !ok {
		return credential.Credential{}, autherrors.ErrNoSession
	}
	if sess.Access.Raw != seen.Access.Raw && sess.Access.ValidAt(c.clock.Now(), c.margin) {
		return sess.Access, nil
	}
	return c.join(ctx, sess)
}

func (c *Coordinator) join(ctx context.Context, sess session.Session) (credential.Credential, error) {
	ch := c.flights.DoChan(string(sess.Key()), func() (any, error) {
		return c.exchange(sess)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return credential.Credential{}, res.Err
		}
		return res.Val.(credential.Credential), nil
	case <-ctx.Done():
		// The flight carries on for the other callers.
		return credential.Credential{}, ctx.Err()
	}
}

// exchange runs once per flight. It is detached from every caller's context:
// only the exchange timeout can cut it short.
func (c *Coordinator) exchange(sess session.Session) (credential.Credential, error) {
	key := sess.Key()
	log := c.log.With().Str("op", uuid.NewString()).Str("subject", sess.Subject()).Logger()
	stateCtx := context.Background()

	if sess.Refresh.ExpiredAt(c.clock.Now()) {
		if !c.state.ClearIf(stateCtx, key) {
			return c.stale(log)
		}
		c.metrics.Refresh(metrics.OutcomeExpired)
		log.Info().Time("refresh_expires_at", sess.Refresh.ExpiresAt).Msg("refresh credential expired, session cleared")
		return credential.Credential{}, autherrors.ErrRefreshExpired
	}

	log.Debug().Msg("refreshing access credential")
	started := time.Now()

	exCtx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	access, refresh, err := c.exchanger.Exchange(exCtx, sess.Refresh.Raw)
	if err != nil {
		return c.fail(log, key, err)
	}

	if refresh == "" {
		refresh = sess.Refresh.Raw
	}
	installed, applied, err := c.state.SetIf(stateCtx, key, access, refresh)
	if !applied {
		return c.stale(log)
	}
	if err != nil {
		return c.fail(log, key, err)
	}

	c.metrics.Refresh(metrics.OutcomeSuccess)
	log.Info().
		Dur("took", time.Since(started)).
		Time("expires_at", installed.Access.ExpiresAt).
		Bool("rotated", installed.Refresh.Raw != sess.Refresh.Raw).
		Msg("access credential refreshed")
	return installed.Access, nil
}

func (c *Coordinator) fail(log zerolog.Logger, key session.Key, cause error) (credential.Credential, error) {
	if !c.state.ClearIf(context.Background(), key) {
		return c.stale(log)
	}
	c.metrics.Refresh(metrics.OutcomeFailed)
	log.Warn().Err(cause).Msg("refresh failed, session cleared")
	return credential.Credential{}, fmt.Errorf("%w: %w", autherrors.ErrRefreshFailed, cause)
}

// stale discards the result of a flight whose session was logged out or
// replaced while it ran.
func (c *Coordinator) stale(log zerolog.Logger) (credential.Credential, error) {
	c.metrics.Refresh(metrics.OutcomeStale)
	log.Info().Msg("session changed during refresh, result discarded")
	return credential.Credential{}, autherrors.ErrSessionChanged
}
