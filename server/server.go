package server

import (
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/vineyard-dashboard/internal/config"
	"github.com/jrsteele09/vineyard-dashboard/internal/metrics"
	"github.com/jrsteele09/vineyard-dashboard/session"
	"github.com/rs/zerolog/log"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeJSON = "application/json; charset=utf-8"
)

type Server struct {
	env       string
	mux       *http.ServeMux
	routes    []string
	config    config.Config
	sessions  *session.Registry
	collector *metrics.Collector
	limiter   *LoginLimiter
	sanitizer *Sanitizer
	pages     map[string]*template.Template
	assets    assets
	nowTime   func() time.Time
}

// Option configures a Server
type Option func(*Server)

// WithMetrics exposes collector on /metrics
func WithMetrics(collector *metrics.Collector) Option {
	return func(s *Server) {
		s.collector = collector
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Server) {
		s.nowTime = nowFunc
	}
}

func New(cfg config.Config, sessions *session.Registry, options ...Option) (*Server, error) {
	pages, err := parsePages()
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to parse templates: %w", err)
	}
	static, err := loadAssets()
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to load static assets: %w", err)
	}

	s := &Server{
		env:       cfg.GetEnv(),
		mux:       http.NewServeMux(),
		config:    cfg,
		sessions:  sessions,
		sanitizer: NewSanitizer(),
		pages:     pages,
		assets:    static,
		nowTime:   time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	s.limiter = NewLoginLimiter(cfg.GetLoginRatePerMinute(), s.nowTime)

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Sweep drops expired sessions and idle login limiters
func (s *Server) Sweep() {
	removed := s.sessions.Sweep()
	limiters := s.limiter.Sweep()
	if removed > 0 || limiters > 0 {
		log.Debug().Int("sessions", removed).Int("limiters", limiters).Msg("swept idle state")
	}
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Debug().Msgf("[%-19s] %s", colourMethod(method), path)
}

func logError(method, path, message string) {
	log.Warn().Msgf("[%-19s] %s %s", colourMethod(method), path, Red+message+ResetColor)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
