package server

import "net/http"

func (s *Server) initRoutes() {
	// Credential flows
	s.RegisterRouteFunc("POST "+RouteRegister, s.apiChain(s.RegisterHandler()))
	s.RegisterRouteFunc("POST "+RouteLogin, s.apiChain(s.LoginHandler()))
	s.RegisterRouteFunc("POST "+RouteRefresh, s.apiChain(s.RefreshHandler()))
	s.RegisterRouteFunc("POST "+RouteLogout, s.apiChain(s.LogoutHandler()))

	// Flows requiring an authenticated subject
	s.RegisterRouteFunc("POST "+RouteLogoutAll, s.apiChain(s.LogoutAllHandler(), s.RequireAuth()))
	s.RegisterRouteFunc("POST "+RoutePassword, s.apiChain(s.ChangePasswordHandler(), s.RequireAuth()))
	s.RegisterRouteFunc("POST "+RouteEmail, s.apiChain(s.ChangeEmailHandler(), s.RequireAuth()))

	// External identity exchange (disabled without OIDC config)
	if s.config.OidcEnabled() {
		s.RegisterRouteFunc("GET "+RouteOAuth, s.apiChain(s.OAuthRedirectHandler()))
		s.RegisterRouteFunc("GET "+RouteCallback, s.apiChain(s.OAuthCallbackHandler()))
		s.RegisterRouteFunc("POST "+RouteCallback, s.apiChain(s.OAuthCallbackHandler())) // For form_post response mode
	}
}

// apiChain applies the standard API middleware plus any route-specific
// middleware: logging, recovery, CORS, and the global traffic budget.
func (s *Server) apiChain(h http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	chained := []func(http.HandlerFunc) http.HandlerFunc{
		s.LoggingMiddleware,
		s.RecoverMiddleware,
		s.CorsMiddleware,
		s.RateLimitMiddleware(s.globalLimiter),
	}
	chained = append(chained, mw...)
	return ChainMiddleware(h, chained...)
}
