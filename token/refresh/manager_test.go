package refresh_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/campusworks/go-session-service/token/refresh"
	refreshrepofake "github.com/campusworks/go-session-service/token/refresh/repofake"
)

func TestPersistAndValidate(t *testing.T) {
	repo := refreshrepofake.NewFakeRefreshTokenRepo()
	m := refresh.NewManager(repo, 7*24*time.Hour)

	require.NoError(t, m.Persist("token-1", "user-1"))

	rt, err := m.Validate("token-1")
	require.NoError(t, err)
	require.Equal(t, "user-1", rt.UserID)
}

func TestValidateUnknownToken(t *testing.T) {
	m := refresh.NewManager(refreshrepofake.NewFakeRefreshTokenRepo(), time.Hour)

	_, err := m.Validate("never-issued")
	require.ErrorIs(t, err, refresh.ErrTokenNotFound)
}

func TestValidateExpiredTokenIsReaped(t *testing.T) {
	repo := refreshrepofake.NewFakeRefreshTokenRepo()
	m := refresh.NewManager(repo, time.Hour)

	issuedAt := time.Now()
	refresh.NowTimeFunc = func() time.Time { return issuedAt }
	defer func() { refresh.NowTimeFunc = time.Now }()

	require.NoError(t, m.Persist("token-1", "user-1"))

	refresh.NowTimeFunc = func() time.Time { return issuedAt.Add(2 * time.Hour) }
	_, err := m.Validate("token-1")
	require.ErrorIs(t, err, refresh.ErrTokenNotFound)

	// The expired record was removed on the way out
	require.Equal(t, 0, repo.CountForUser("user-1"))
}

func TestConsumeIsSingleUse(t *testing.T) {
	m := refresh.NewManager(refreshrepofake.NewFakeRefreshTokenRepo(), time.Hour)
	require.NoError(t, m.Persist("token-1", "user-1"))

	won, err := m.Consume("token-1")
	require.NoError(t, err)
	require.True(t, won)

	// The second consumer lost the race
	won, err = m.Consume("token-1")
	require.NoError(t, err)
	require.False(t, won)
}

func TestRevokeIsIdempotent(t *testing.T) {
	m := refresh.NewManager(refreshrepofake.NewFakeRefreshTokenRepo(), time.Hour)
	require.NoError(t, m.Persist("token-1", "user-1"))

	require.NoError(t, m.Revoke("token-1"))
	require.NoError(t, m.Revoke("token-1"))
	require.NoError(t, m.Revoke("never-issued"))
}

func TestRevokeAllClearsEveryDevice(t *testing.T) {
	repo := refreshrepofake.NewFakeRefreshTokenRepo()
	m := refresh.NewManager(repo, time.Hour)

	require.NoError(t, m.Persist("laptop", "user-1"))
	require.NoError(t, m.Persist("phone", "user-1"))
	require.NoError(t, m.Persist("tablet", "user-1"))
	require.NoError(t, m.Persist("other", "user-2"))

	require.NoError(t, m.RevokeAll("user-1"))

	require.Equal(t, 0, repo.CountForUser("user-1"))
	require.Equal(t, 1, repo.CountForUser("user-2"))
}
