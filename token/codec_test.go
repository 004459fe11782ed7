package token_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/campusworks/go-session-service/token"
	"github.com/campusworks/go-session-service/users"
)

const (
	accessSecret  = "test-access-secret"
	refreshSecret = "test-refresh-secret"
)

func newTestCodec(t *testing.T) *token.Codec {
	t.Helper()
	codec, err := token.NewCodec(accessSecret, refreshSecret, 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)
	return codec
}

func testUser() *users.User {
	return &users.User{
		ID:    "user-1",
		Email: "john.doe@example.com",
		Role:  users.RoleStudent,
	}
}

func TestNewCodecConfiguration(t *testing.T) {
	tests := []struct {
		name          string
		accessSecret  string
		refreshSecret string
		accessTTL     time.Duration
		refreshTTL    time.Duration
		wantErr       bool
	}{
		{"valid", accessSecret, refreshSecret, time.Minute, time.Hour, false},
		{"missing access secret", "", refreshSecret, time.Minute, time.Hour, true},
		{"missing refresh secret", accessSecret, "", time.Minute, time.Hour, true},
		{"identical secrets", accessSecret, accessSecret, time.Minute, time.Hour, true},
		{"zero access TTL", accessSecret, refreshSecret, 0, time.Hour, true},
		{"negative refresh TTL", accessSecret, refreshSecret, time.Minute, -time.Hour, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := token.NewCodec(tt.accessSecret, tt.refreshSecret, tt.accessTTL, tt.refreshTTL)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	codec := newTestCodec(t)
	user := testUser()

	tokenStr, err := codec.IssueAccess(user)
	require.NoError(t, err)
	require.NotEmpty(t, tokenStr)

	claims, err := codec.VerifyAccess(tokenStr)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)
	require.Equal(t, user.Email, claims.Email)
	require.Equal(t, user.Role, claims.Role)
}

func TestAccessTokenExpiry(t *testing.T) {
	codec := newTestCodec(t)

	issuedAt := time.Now()
	token.NowTimeFunc = func() time.Time { return issuedAt }
	defer func() { token.NowTimeFunc = time.Now }()

	tokenStr, err := codec.IssueAccess(testUser())
	require.NoError(t, err)

	// Still valid just inside the TTL
	token.NowTimeFunc = func() time.Time { return issuedAt.Add(14 * time.Minute) }
	_, err = codec.VerifyAccess(tokenStr)
	require.NoError(t, err)

	// Invalid once the TTL has lapsed
	token.NowTimeFunc = func() time.Time { return issuedAt.Add(16 * time.Minute) }
	_, err = codec.VerifyAccess(tokenStr)
	require.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	codec := newTestCodec(t)

	tokenStr, err := codec.IssueRefresh("user-1")
	require.NoError(t, err)

	userID, err := codec.VerifyRefresh(tokenStr)
	require.NoError(t, err)
	require.Equal(t, "user-1", userID)
}

func TestRefreshTokensAreUniquePerIssue(t *testing.T) {
	codec := newTestCodec(t)

	first, err := codec.IssueRefresh("user-1")
	require.NoError(t, err)
	second, err := codec.IssueRefresh("user-1")
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestTokenTypesAreNotInterchangeable(t *testing.T) {
	codec := newTestCodec(t)

	accessToken, err := codec.IssueAccess(testUser())
	require.NoError(t, err)
	refreshToken, err := codec.IssueRefresh("user-1")
	require.NoError(t, err)

	// A refresh token must never verify as an access token, and vice versa
	_, err = codec.VerifyAccess(refreshToken)
	require.ErrorIs(t, err, token.ErrInvalidToken)
	_, err = codec.VerifyRefresh(accessToken)
	require.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	codec := newTestCodec(t)

	for _, tokenStr := range []string{"", "not-a-token", "a.b.c"} {
		_, err := codec.VerifyAccess(tokenStr)
		require.ErrorIs(t, err, token.ErrInvalidToken)
	}
}
