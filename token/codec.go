package token

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/campusworks/go-session-service/users"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// ErrInvalidToken is returned by the verify methods for every structural,
// cryptographic, or expiry failure. Callers treat verification as a
// boolean-like outcome and never learn why a token was rejected.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the decoded payload of an access token.
type Claims struct {
	UserID   string
	Email    string
	Role     users.RoleType
	IssuedAt time.Time
	Expiry   time.Time
}

type accessClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwtlib.RegisteredClaims
}

type refreshClaims struct {
	jwtlib.RegisteredClaims
}

// Codec signs and verifies access and refresh tokens with distinct HMAC
// secrets. Keeping the secrets separate means a refresh token can never be
// accepted where an access token is expected, even if verification code is
// misapplied.
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewCodec creates a token codec. A missing secret is a configuration error
// and should abort startup.
func NewCodec(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) (*Codec, error) {
	if accessSecret == "" {
		return nil, errors.New("[token.NewCodec] access token secret is not configured")
	}
	if refreshSecret == "" {
		return nil, errors.New("[token.NewCodec] refresh token secret is not configured")
	}
	if accessSecret == refreshSecret {
		return nil, errors.New("[token.NewCodec] access and refresh secrets must differ")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("[token.NewCodec] token TTLs must be positive")
	}

	return &Codec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}, nil
}

// AccessTTL returns the configured access token lifetime.
func (c *Codec) AccessTTL() time.Duration { return c.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

// IssueAccess creates a signed access token for the user.
func (c *Codec) IssueAccess(user *users.User) (string, error) {
	now := NowTimeFunc()
	claims := accessClaims{
		Email: user.Email,
		Role:  string(user.Role),
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(c.accessTTL)),
			ID:        uuid.New().String(),
		},
	}

	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(c.accessSecret)
}

// IssueRefresh creates a signed refresh token for the subject. The jti claim
// gives every issued token its own identity, so the same user can hold many
// concurrent refresh tokens across devices.
func (c *Codec) IssueRefresh(userID string) (string, error) {
	now := NowTimeFunc()
	claims := refreshClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(c.refreshTTL)),
			ID:        uuid.New().String(),
		},
	}

	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(c.refreshSecret)
}

// VerifyAccess checks signature and expiry of an access token and returns
// its claims. Any failure maps to ErrInvalidToken.
func (c *Codec) VerifyAccess(tokenStr string) (*Claims, error) {
	claims := &accessClaims{}
	if err := c.parse(tokenStr, claims, c.accessSecret); err != nil {
		return nil, ErrInvalidToken
	}

	return &Claims{
		UserID:   claims.Subject,
		Email:    claims.Email,
		Role:     users.RoleType(claims.Role),
		IssuedAt: claims.IssuedAt.Time,
		Expiry:   claims.ExpiresAt.Time,
	}, nil
}

// VerifyRefresh checks signature and expiry of a refresh token and returns
// the subject it was issued to. Any failure maps to ErrInvalidToken.
func (c *Codec) VerifyRefresh(tokenStr string) (string, error) {
	claims := &refreshClaims{}
	if err := c.parse(tokenStr, claims, c.refreshSecret); err != nil {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func (c *Codec) parse(tokenStr string, claims jwtlib.Claims, secret []byte) error {
	parsed, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (any, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	}, jwtlib.WithExpirationRequired(), jwtlib.WithTimeFunc(func() time.Time { return NowTimeFunc() }))
	if err != nil {
		return err
	}
	if !parsed.Valid {
		return ErrInvalidToken
	}
	return nil
}
