package server

import (
	"net/http"
	"net/mail"

	"github.com/campusworks/go-session-service/auth"
	"github.com/campusworks/go-session-service/limiter"
)

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken,omitempty"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type changeEmailRequest struct {
	Password string `json:"password"`
	NewEmail string `json:"newEmail"`
}

// RegisterHandler creates an account and issues the first token pair.
func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := decodeJSON(r, &req); err != nil {
			writeErrorMessage(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if !validEmail(req.Email) || req.Password == "" {
			writeErrorMessage(w, http.StatusBadRequest, "email and password are required")
			return
		}

		session, err := s.auth.Register(r.Context(), auth.RegisterRequest{
			Email:     req.Email,
			Password:  req.Password,
			FirstName: req.FirstName,
			LastName:  req.LastName,
		})
		if err != nil {
			s.writeServiceError(w, err)
			return
		}

		s.setAuthCookies(w, session.AccessToken, session.RefreshToken)
		writeSession(w, http.StatusCreated, session)
	}
}

// LoginHandler validates credentials under the login budget for the
// caller's client key.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(r, &req); err != nil {
			writeErrorMessage(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.Email == "" || req.Password == "" {
			writeErrorMessage(w, http.StatusBadRequest, "email and password are required")
			return
		}

		session, err := s.auth.Login(r.Context(), req.Email, req.Password, limiter.ClientKey(r))
		if err != nil {
			s.writeServiceError(w, err)
			return
		}

		s.setAuthCookies(w, session.AccessToken, session.RefreshToken)
		writeSession(w, http.StatusOK, session)
	}
}

// RefreshHandler rotates a refresh token. The token may arrive in the JSON
// body or the refresh cookie; the body takes precedence for explicit API
// callers.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := s.auth.Refresh(r.Context(), s.refreshTokenFromRequest(r))
		if err != nil {
			s.writeServiceError(w, err)
			return
		}

		s.setAuthCookies(w, session.AccessToken, session.RefreshToken)
		writeSession(w, http.StatusOK, session)
	}
}

// LogoutHandler revokes the presented refresh token (if any) and clears the
// cookies. Always succeeds from the caller's perspective.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.auth.Logout(r.Context(), s.refreshTokenFromRequest(r)); err != nil {
			s.logger.Warn().Err(err).Msg("logout revoke failed")
		}
		s.clearAuthCookies(w)
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

// LogoutAllHandler revokes every refresh token for the authenticated
// subject.
func (s *Server) LogoutAllHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsFromContext(r.Context())
		if !ok {
			writeErrorMessage(w, http.StatusUnauthorized, "missing access token")
			return
		}

		if err := s.auth.LogoutAll(r.Context(), claims.UserID); err != nil {
			s.writeServiceError(w, err)
			return
		}

		s.clearAuthCookies(w)
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

// ChangePasswordHandler updates the password and revokes every outstanding
// refresh token for the subject.
func (s *Server) ChangePasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsFromContext(r.Context())
		if !ok {
			writeErrorMessage(w, http.StatusUnauthorized, "missing access token")
			return
		}

		var req changePasswordRequest
		if err := decodeJSON(r, &req); err != nil {
			writeErrorMessage(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.CurrentPassword == "" || req.NewPassword == "" {
			writeErrorMessage(w, http.StatusBadRequest, "current and new passwords are required")
			return
		}

		if err := s.auth.ChangePassword(r.Context(), claims.UserID, req.CurrentPassword, req.NewPassword); err != nil {
			s.writeServiceError(w, err)
			return
		}

		s.clearAuthCookies(w)
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

// ChangeEmailHandler updates the email address after re-verifying the
// password. Sessions survive an email change.
func (s *Server) ChangeEmailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsFromContext(r.Context())
		if !ok {
			writeErrorMessage(w, http.StatusUnauthorized, "missing access token")
			return
		}

		var req changeEmailRequest
		if err := decodeJSON(r, &req); err != nil {
			writeErrorMessage(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.Password == "" || !validEmail(req.NewEmail) {
			writeErrorMessage(w, http.StatusBadRequest, "password and a valid new email are required")
			return
		}

		if err := s.auth.ChangeEmail(r.Context(), claims.UserID, req.Password, req.NewEmail); err != nil {
			s.writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

// refreshTokenFromRequest prefers the JSON body over the cookie.
func (s *Server) refreshTokenFromRequest(r *http.Request) string {
	var req refreshRequest
	if err := decodeJSON(r, &req); err == nil && req.RefreshToken != "" {
		return req.RefreshToken
	}
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func validEmail(email string) bool {
	if email == "" {
		return false
	}
	_, err := mail.ParseAddress(email)
	return err == nil
}
