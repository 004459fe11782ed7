package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/campusworks/go-session-service/auth"
	"github.com/campusworks/go-session-service/users"
)

const contentTypeJSON = "application/json; charset=utf-8"

// sessionResponse is the success payload for every credential flow.
type sessionResponse struct {
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"refreshToken"`
	User         users.Summary `json:"user"`
}

type errorResponse struct {
	Error             string `json:"error"`
	RetryAfterSeconds int    `json:"retryAfterSeconds,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeSession(w http.ResponseWriter, status int, session *auth.Session) {
	writeJSON(w, status, sessionResponse{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		User:         session.User,
	})
}

func writeErrorMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeRateLimited(w http.ResponseWriter, retryAfter time.Duration) {
	rle := &auth.RateLimitedError{RetryAfter: retryAfter}
	w.Header().Set("Retry-After", fmt.Sprintf("%d", rle.RetryAfterSeconds()))
	writeJSON(w, http.StatusTooManyRequests, errorResponse{
		Error:             "too many requests",
		RetryAfterSeconds: rle.RetryAfterSeconds(),
	})
}

// writeServiceError maps the service taxonomy to HTTP statuses. Anything
// outside the taxonomy is logged in full server-side and surfaces only a
// generic message in production.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	var rle *auth.RateLimitedError
	if errors.As(err, &rle) {
		w.Header().Set("Retry-After", fmt.Sprintf("%d", rle.RetryAfterSeconds()))
		writeJSON(w, http.StatusTooManyRequests, errorResponse{
			Error:             "too many requests",
			RetryAfterSeconds: rle.RetryAfterSeconds(),
		})
		return
	}

	switch {
	case errors.Is(err, auth.InvalidCredentialsErr), errors.Is(err, auth.UnauthorizedErr):
		writeErrorMessage(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.AccountDeactivatedErr), errors.Is(err, auth.EmailUnverifiedErr):
		writeErrorMessage(w, http.StatusForbidden, err.Error())
	case errors.Is(err, auth.EmailTakenErr):
		writeErrorMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, auth.UserNotFoundErr):
		writeErrorMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, auth.PasswordPolicyErr):
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error().Err(err).Msg("unhandled service error")
		message := err.Error()
		if s.config.IsProduction() {
			message = "internal error"
		}
		writeErrorMessage(w, http.StatusInternalServerError, message)
	}
}

// decodeJSON decodes a request body into dst, refusing unknown fields so
// malformed payloads fail at the boundary instead of deep in the service.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
