package server

import (
	"net/http"
	"time"
)

const (
	// accessTokenCookie carries the short-lived access token.
	accessTokenCookie = "accessToken"
	// refreshTokenCookie carries the long-lived refresh token.
	refreshTokenCookie = "refreshToken"
)

// setAuthCookies delivers both tokens as HttpOnly cookies alongside the
// response body. Production gets Secure + SameSite=Strict; anything else
// relaxes to Lax without Secure so local development works over plain HTTP.
func (s *Server) setAuthCookies(w http.ResponseWriter, accessToken, refreshToken string) {
	s.setTokenCookie(w, accessTokenCookie, accessToken, s.accessCookieTTL())
	s.setTokenCookie(w, refreshTokenCookie, refreshToken, s.refreshCookieTTL())
}

// clearAuthCookies expires both token cookies.
func (s *Server) clearAuthCookies(w http.ResponseWriter) {
	s.setTokenCookie(w, accessTokenCookie, "", -time.Second)
	s.setTokenCookie(w, refreshTokenCookie, "", -time.Second)
}

func (s *Server) setTokenCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	sameSite := http.SameSiteLaxMode
	if s.config.IsProduction() {
		sameSite = http.SameSiteStrictMode
	}

	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: sameSite,
		MaxAge:   int(ttl / time.Second),
	})
}

func (s *Server) accessCookieTTL() time.Duration {
	return s.config.GetAccessTokenExpiry()
}

func (s *Server) refreshCookieTTL() time.Duration {
	return s.config.GetRefreshTokenExpiry()
}
