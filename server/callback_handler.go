package server

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/campusworks/go-session-service/users"
)

const (
	// oauthStateCookie tracks the state parameter across the redirect
	oauthStateCookie = "oauth_state"
	// oauthNonceCookie tracks the ID token nonce across the redirect
	oauthNonceCookie = "oauth_nonce"
)

// generateRandomString creates a random base64url string
func generateRandomString(length int) string {
	b := make([]byte, length)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// OAuthRedirectHandler starts the external-identity flow: it stores state
// and nonce in short-lived cookies and redirects to the provider.
func (s *Server) OAuthRedirectHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		oidcConfig, err := s.getOidcConfig(r.Context())
		if err != nil {
			s.logger.Error().Err(err).Msg("oidc provider unavailable")
			writeErrorMessage(w, http.StatusServiceUnavailable, "identity provider unavailable")
			return
		}

		state := generateRandomString(32)
		nonce := generateRandomString(32)
		s.setFlowCookie(w, r, oauthStateCookie, state)
		s.setFlowCookie(w, r, oauthNonceCookie, nonce)

		http.Redirect(w, r, oidcConfig.OAuth2Config.AuthCodeURL(state, oidc.Nonce(nonce)), http.StatusFound)
	}
}

// OAuthCallbackHandler completes the external-identity flow: it exchanges
// the authorization code, verifies the ID token, and delegates the verified
// claims to the same issuance path as a first-party login.
func (s *Server) OAuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// r.FormValue works for both query params and POST form data
		state := r.FormValue("state")
		code := r.FormValue("code")
		errorParam := r.FormValue("error")

		if errorParam != "" {
			writeErrorMessage(w, http.StatusBadRequest, fmt.Sprintf("authorization failed: %s", errorParam))
			return
		}
		if code == "" || state == "" {
			writeErrorMessage(w, http.StatusBadRequest, "missing code or state parameter")
			return
		}

		stateCookie, err := r.Cookie(oauthStateCookie)
		if err != nil || stateCookie.Value != state {
			writeErrorMessage(w, http.StatusBadRequest, "invalid state parameter")
			return
		}

		oidcConfig, err := s.getOidcConfig(r.Context())
		if err != nil {
			s.logger.Error().Err(err).Msg("oidc provider unavailable")
			writeErrorMessage(w, http.StatusServiceUnavailable, "identity provider unavailable")
			return
		}

		oauth2Token, err := oidcConfig.OAuth2Config.Exchange(r.Context(), code)
		if err != nil {
			writeErrorMessage(w, http.StatusUnauthorized, "token exchange failed")
			return
		}

		rawIDToken, ok := oauth2Token.Extra("id_token").(string)
		if !ok {
			writeErrorMessage(w, http.StatusUnauthorized, "no ID token in response")
			return
		}

		idToken, err := oidcConfig.OidcVerifier.Verify(r.Context(), rawIDToken)
		if err != nil {
			writeErrorMessage(w, http.StatusUnauthorized, "ID token verification failed")
			return
		}

		// Extract and validate claims in one pass
		var claims struct {
			Nonce         string `json:"nonce"`
			Sub           string `json:"sub"`
			Email         string `json:"email"`
			EmailVerified bool   `json:"email_verified"`
			GivenName     string `json:"given_name"`
			FamilyName    string `json:"family_name"`
		}
		if err := idToken.Claims(&claims); err != nil {
			writeErrorMessage(w, http.StatusUnauthorized, "failed to extract claims")
			return
		}

		// Validate nonce to prevent replay attacks
		nonceCookie, err := r.Cookie(oauthNonceCookie)
		if err != nil || claims.Nonce != nonceCookie.Value {
			writeErrorMessage(w, http.StatusUnauthorized, "invalid nonce")
			return
		}

		session, err := s.auth.ExchangeExternalIdentity(r.Context(), users.ExternalIdentity{
			Subject:   claims.Sub,
			Email:     claims.Email,
			FirstName: claims.GivenName,
			LastName:  claims.FamilyName,
			Verified:  claims.EmailVerified,
		})
		if err != nil {
			s.writeServiceError(w, err)
			return
		}

		s.setAuthCookies(w, session.AccessToken, session.RefreshToken)
		writeSession(w, http.StatusOK, session)
	}
}

// getOidcConfig discovers the external provider once and caches the result
// for the life of the process.
func (s *Server) getOidcConfig(ctx context.Context) (OidcConfig, error) {
	s.oidcOnce.Do(func() {
		provider, err := oidc.NewProvider(ctx, s.config.GetOidcIssuer())
		if err != nil {
			s.oidcErr = fmt.Errorf("failed to create OIDC provider: %w", err)
			return
		}

		s.oidc = OidcConfig{
			OidcProvider: provider,
			OAuth2Config: &oauth2.Config{
				ClientID:     s.config.GetOidcClientID(),
				ClientSecret: s.config.GetOidcClientSecret(),
				Endpoint:     provider.Endpoint(),
				RedirectURL:  s.config.GetBaseURL() + RouteCallback,
				Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
			},
			OidcVerifier: provider.Verifier(&oidc.Config{
				ClientID: s.config.GetOidcClientID(),
			}),
		}
	})
	return s.oidc, s.oidcErr
}

func (s *Server) setFlowCookie(w http.ResponseWriter, r *http.Request, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   300, // long enough for the round trip to the provider
	})
}
