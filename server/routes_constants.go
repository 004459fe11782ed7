package server

// Route paths for the auth API.
const (
	RouteRegister  = "/auth/register"
	RouteLogin     = "/auth/login"
	RouteRefresh   = "/auth/refresh"
	RouteLogout    = "/auth/logout"
	RouteLogoutAll = "/auth/logout-all"
	RoutePassword  = "/auth/password"
	RouteEmail     = "/auth/email"
	RouteOAuth     = "/auth/oauth"
	RouteCallback  = "/auth/callback"
)
