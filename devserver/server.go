// Package devserver is a local stand-in for the hotel backend's credential
// endpoints, used for manual testing of the client and for end-to-end tests.
package devserver

import (
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/jrsteele09/hotel-session/clock"
	"github.com/jrsteele09/hotel-session/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

type Server struct {
	env       string
	mux       *http.ServeMux
	routes    []string
	log       zerolog.Logger
	issuer    *Issuer
	directory *Directory
	rotate    bool
	registry  *prometheus.Registry

	refreshCount atomic.Int64
	refreshes    *prometheus.CounterVec
}

type Option func(*serverOptions)

type serverOptions struct {
	clock     clock.Clock
	log       zerolog.Logger
	directory *Directory
	env       string
}

func WithClock(c clock.Clock) Option {
	return func(o *serverOptions) {
		o.clock = c
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(o *serverOptions) {
		o.log = log
	}
}

// WithDirectory replaces the default directory of demo users.
func WithDirectory(d *Directory) Option {
	return func(o *serverOptions) {
		o.directory = d
	}
}

func WithEnv(env string) Option {
	return func(o *serverOptions) {
		o.env = env
	}
}

func New(cfg config.DevServerConfig, options ...Option) (*Server, error) {
	opts := serverOptions{
		clock: clock.System(),
		log:   zerolog.Nop(),
	}
	for _, opt := range options {
		opt(&opts)
	}

	if opts.directory == nil {
		opts.directory = NewDirectory()
		if err := opts.directory.SeedDemoUsers(); err != nil {
			return nil, err
		}
	}

	s := &Server{
		env:       opts.env,
		mux:       http.NewServeMux(),
		log:       opts.log,
		issuer:    NewIssuer(NewHMACSigner(cfg.GetSigningSecret()), opts.clock, cfg.GetAccessTokenTTL(), cfg.GetRefreshTokenTTL()),
		directory: opts.directory,
		rotate:    cfg.GetRotateRefreshTokens(),
		registry:  prometheus.NewRegistry(),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hotelsession",
			Subsystem: "devserver",
			Name:      "refresh_requests_total",
			Help:      "Refresh requests handled by the dev server, by result.",
		}, []string{"result"}),
	}
	s.registry.MustRegister(s.refreshes)

	s.initRoutes()
	s.logRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// RefreshCount is the number of refresh requests received, accepted or not.
func (s *Server) RefreshCount() int64 {
	return s.refreshCount.Load()
}

func (s *Server) Issuer() *Issuer {
	return s.issuer
}

func (s *Server) Directory() *Directory {
	return s.directory
}

func (s *Server) initRoutes() {
	api := []func(http.HandlerFunc) http.HandlerFunc{s.LoggingMiddleware, s.RecoverMiddleware}

	s.RegisterRouteFunc("POST "+OpenLoginRoute, ChainMiddleware(s.LoginHandler(), api...))
	s.RegisterRouteFunc("POST "+OpenRegisterRoute, ChainMiddleware(s.RegisterHandler(), api...))
	s.RegisterRouteFunc("POST "+OpenRefreshRoute, ChainMiddleware(s.RefreshHandler(), api...))
	s.RegisterRouteFunc("GET "+APIMeRoute, ChainMiddleware(s.MeHandler(), append(api, s.RequireAuth())...))
	s.RegisterRouteHandler("GET "+MetricsRoute, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		method, path, found := strings.Cut(route, " ")
		if !found {
			method, path = "", route
		}
		s.log.Info().Str("method", method).Str("path", path).Msg("route")
	}
}
