package refresh

import (
	"errors"
	"fmt"
	"time"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// ErrTokenNotFound is returned by Validate when no live record exists for
// the presented token — either it was never issued, it was revoked, or it
// expired and was reaped.
var ErrTokenNotFound = errors.New("refresh token not found")

// Manager owns the durable refresh-token records. Cryptographic validity is
// the codec's concern; the manager answers the second half of the exchange
// invariant — does a non-expired record still exist for this token.
type Manager struct {
	repo Repo
	ttl  time.Duration
}

// NewManager creates a refresh token record manager.
func NewManager(repo Repo, ttl time.Duration) *Manager {
	return &Manager{
		repo: repo,
		ttl:  ttl,
	}
}

// Persist stores the record for a freshly issued refresh token.
func (m *Manager) Persist(token, userID string) error {
	if err := m.repo.Upsert(&StoredRefreshToken{
		Token:     token,
		UserID:    userID,
		ExpiresAt: NowTimeFunc().Add(m.ttl),
	}); err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

// Validate looks up the record for token and checks its expiry. An expired
// record is deleted on the way out and reported as not found.
func (m *Manager) Validate(token string) (*StoredRefreshToken, error) {
	rt, err := m.repo.Get(token)
	if err != nil {
		return nil, ErrTokenNotFound
	}
	if NowTimeFunc().After(rt.ExpiresAt) {
		_, _ = m.repo.Delete(token)
		return nil, ErrTokenNotFound
	}
	return rt, nil
}

// Consume deletes the record for token and reports whether this caller won
// the delete. Rotation only proceeds for the winner, which keeps the
// delete-old/insert-new sequence a compare-and-delete rather than a blind
// delete.
func (m *Manager) Consume(token string) (bool, error) {
	return m.repo.Delete(token)
}

// Revoke removes the record for token. Revoking an unknown or already
// revoked token is a no-op.
func (m *Manager) Revoke(token string) error {
	_, err := m.repo.Delete(token)
	return err
}

// RevokeAll removes every record held by the user. Used by logout-everywhere
// and password change.
func (m *Manager) RevokeAll(userID string) error {
	return m.repo.DeleteByUserID(userID)
}
