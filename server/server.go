package server

import (
	"net/http"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/campusworks/go-session-service/auth"
	"github.com/campusworks/go-session-service/internal/config"
	"github.com/campusworks/go-session-service/limiter"
)

// OidcConfig bundles the discovered provider, the oauth2 exchange config,
// and the ID token verifier for the external identity provider.
type OidcConfig struct {
	OidcProvider *oidc.Provider
	OAuth2Config *oauth2.Config
	OidcVerifier *oidc.IDTokenVerifier
}

// Server is the HTTP boundary of the session subsystem. It decodes and
// validates request payloads, runs them through the middleware chain, and
// delegates every credential flow to the SessionService.
type Server struct {
	env           string // Environment (e.g., "DEV", "PROD")
	mux           *http.ServeMux
	routes        []string
	config        config.Config
	auth          *auth.SessionService
	globalLimiter limiter.Limiter
	logger        zerolog.Logger

	oidcOnce sync.Once
	oidc     OidcConfig
	oidcErr  error
}

func New(cfg config.Config, authService *auth.SessionService, globalLimiter limiter.Limiter, logger zerolog.Logger) (*Server, error) {
	if authService == nil {
		return nil, errors.New("[Server New] auth service is required")
	}
	if globalLimiter == nil {
		return nil, errors.New("[Server New] global limiter is required")
	}

	s := &Server{
		mux:           http.NewServeMux(),
		config:        cfg,
		auth:          authService,
		globalLimiter: globalLimiter,
		logger:        logger,
	}
	s.env = cfg.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		s.logger.Debug().Str("route", route).Msg("registered")
	}
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
