package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jrsteele09/hotel-session/authapi"
	"github.com/jrsteele09/hotel-session/credential"
	"github.com/jrsteele09/hotel-session/credstore"
	"github.com/jrsteele09/hotel-session/gate"
	"github.com/jrsteele09/hotel-session/internal/config"
	"github.com/jrsteele09/hotel-session/internal/logging"
	"github.com/jrsteele09/hotel-session/internal/metrics"
	"github.com/jrsteele09/hotel-session/refresh"
	"github.com/jrsteele09/hotel-session/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// app is the client side wiring shared by every session command.
type app struct {
	cfg      config.Config
	log      zerolog.Logger
	store    credstore.Store
	state    *session.State
	api      *authapi.Client
	gate     *gate.Gate
	registry *prometheus.Registry
	closers  []func() error
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	a := &app{
		cfg:      cfg,
		log:      logging.New(cfg.GetEnv(), cfg.GetLogLevel()),
		registry: prometheus.NewRegistry(),
	}

	store, err := a.openStore()
	if err != nil {
		return nil, err
	}
	a.store = store
	a.state = session.New(ctx, store, credential.NewDecoder(), session.WithLogger(a.log))

	a.api = authapi.NewClient(cfg.GetAPIBaseURL(),
		authapi.WithHTTPClient(&http.Client{Timeout: cfg.GetHTTPTimeout()}),
		authapi.WithPaths(cfg.GetLoginPath(), cfg.GetRegisterPath(), cfg.GetRefreshPath()),
	)

	m := metrics.New(a.registry)
	coordinator := refresh.New(a.state, refresh.NewHTTPExchanger(a.api),
		refresh.WithSafetyMargin(cfg.GetSafetyMargin()),
		refresh.WithExchangeTimeout(cfg.GetRefreshTimeout()),
		refresh.WithLogger(a.log),
		refresh.WithMetrics(m),
	)
	a.gate = gate.New(a.state, coordinator,
		gate.WithSafetyMargin(cfg.GetSafetyMargin()),
		gate.WithLogger(a.log),
		gate.WithMetrics(m),
	)
	return a, nil
}

func (a *app) openStore() (credstore.Store, error) {
	switch a.cfg.GetCredentialStore() {
	case config.StoreFile:
		return credstore.NewFile(a.cfg.GetCredentialFile(), credstore.WithFileLogger(a.log)), nil
	case config.StoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     a.cfg.GetRedisAddr(),
			Password: a.cfg.GetRedisPassword(),
			DB:       a.cfg.GetRedisDB(),
		})
		a.closers = append(a.closers, rdb.Close)
		return credstore.NewRedis(rdb, a.cfg.GetRedisKeyPrefix(), a.cfg.GetProfile()), nil
	case config.StoreMemory:
		return credstore.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown credential store %q", a.cfg.GetCredentialStore())
	}
}

// httpClient sends requests through the gate with the configured timeout.
func (a *app) httpClient() *http.Client {
	c := a.gate.Client()
	c.Timeout = a.cfg.GetHTTPTimeout()
	return c
}

func (a *app) Close() {
	for _, closer := range a.closers {
		if err := closer(); err != nil {
			a.log.Warn().Err(err).Msg("close failed")
		}
	}
}
