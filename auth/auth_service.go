package auth

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/campusworks/go-session-service/limiter"
	"github.com/campusworks/go-session-service/token"
	"github.com/campusworks/go-session-service/token/refresh"
	"github.com/campusworks/go-session-service/users"
)

// Repos holds all repository dependencies for the SessionService
type Repos struct {
	Users         users.UserRepo // Repository for account data
	RefreshTokens refresh.Repo   // Repository for refresh token records
}

// Session is returned by every successful credential flow: the issued token
// pair plus the normalized user summary.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         users.Summary
}

// RegisterRequest is the validated payload for account creation.
type RegisterRequest struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// SessionService orchestrates the credential flows: registration, login,
// token rotation, revocation, and the external-identity exchange. It owns
// issuance policy; durable state lives behind the injected repositories.
type SessionService struct {
	repos         Repos
	codec         *token.Codec
	refreshTokens *refresh.Manager
	loginLimiter  limiter.Limiter

	requireVerifiedEmail bool
	logger               zerolog.Logger
	nowTime              func() time.Time // nowTime function (injectable for testing)
}

// SessionServiceOption defines a function type to modify the SessionService instance.
type SessionServiceOption func(*SessionService)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) SessionServiceOption {
	return func(s *SessionService) {
		s.nowTime = nowFunc
	}
}

// WithLogger sets the service logger.
func WithLogger(logger zerolog.Logger) SessionServiceOption {
	return func(s *SessionService) {
		s.logger = logger
	}
}

// WithRequireVerifiedEmail gates login on a confirmed email address.
// Disabled by default.
func WithRequireVerifiedEmail(require bool) SessionServiceOption {
	return func(s *SessionService) {
		s.requireVerifiedEmail = require
	}
}

// NewSessionService initializes a new SessionService with required dependencies.
// Optional configuration can be provided via options (e.g., WithNowTime for testing).
func NewSessionService(
	repos Repos,
	codec *token.Codec,
	loginLimiter limiter.Limiter,
	options ...SessionServiceOption,
) (*SessionService, error) {
	// Validate required parameters
	if repos.Users == nil {
		return nil, errors.New("[NewSessionService] Users repo is required")
	}
	if repos.RefreshTokens == nil {
		return nil, errors.New("[NewSessionService] RefreshTokens repo is required")
	}
	if codec == nil {
		return nil, errors.New("[NewSessionService] codec is required")
	}
	if loginLimiter == nil {
		return nil, errors.New("[NewSessionService] loginLimiter is required")
	}

	service := &SessionService{
		repos:         repos,
		codec:         codec,
		refreshTokens: refresh.NewManager(repos.RefreshTokens, codec.RefreshTTL()),
		loginLimiter:  loginLimiter,
		logger:        zerolog.Nop(),
		nowTime:       time.Now,
	}

	// Apply optional configuration
	for _, opt := range options {
		opt(service)
	}

	return service, nil
}

// Register creates an account with its default profile and issues the first
// token pair. A duplicate email surfaces as EmailTakenErr.
func (s *SessionService) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	if err := users.ValidatePasswordStrength(req.Password); err != nil {
		return nil, errors.Wrap(PasswordPolicyErr, err.Error())
	}

	passwordHash, err := users.HashPassword(req.Password)
	if err != nil {
		return nil, errors.Wrap(err, "[Register] HashPassword")
	}

	user := &users.User{
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         users.RoleStudent,
		Profile: users.Profile{
			FirstName: req.FirstName,
			LastName:  req.LastName,
		},
		DateJoined: s.nowTime(),
	}

	if err := s.repos.Users.Create(user); err != nil {
		if errors.Is(err, users.ErrDuplicateEmail) {
			return nil, EmailTakenErr
		}
		return nil, errors.Wrap(err, "[Register] Users.Create")
	}

	return s.issueSession(user)
}

// Login validates credentials and issues a token pair. The login budget is
// consumed before any credential work so an exhausted budget never reaches
// the password hash, and a successful login resets the caller's budget.
func (s *SessionService) Login(ctx context.Context, email, password, clientKey string) (*Session, error) {
	res, err := s.loginLimiter.Consume(ctx, clientKey)
	if err != nil {
		return nil, errors.Wrap(err, "[Login] loginLimiter.Consume")
	}
	if !res.Allowed {
		return nil, &RateLimitedError{RetryAfter: res.RetryAfter}
	}

	user, err := s.repos.Users.GetByEmail(email)
	if err != nil {
		// Don't reveal whether the account exists
		return nil, InvalidCredentialsErr
	}

	if user.Blocked {
		return nil, AccountDeactivatedErr
	}

	if s.requireVerifiedEmail && !user.Verified {
		return nil, EmailUnverifiedErr
	}

	if !users.CheckPasswordHash(password, user.PasswordHash) {
		return nil, InvalidCredentialsErr
	}

	if err := s.repos.Users.SetLastLogin(user.ID); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("failed to record last login")
	}

	if err := s.loginLimiter.Reset(ctx, clientKey); err != nil {
		s.logger.Warn().Err(err).Msg("failed to reset login budget")
	}

	return s.issueSession(user)
}

// Refresh exchanges a refresh token for a fresh access+refresh pair. The
// token must verify cryptographically AND still have a live record; both
// checks are mandatory, so a revoked token fails even when its signature is
// intact. The old record is consumed before the new pair is minted, which
// makes each refresh token single-use.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	userID, err := s.codec.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, UnauthorizedErr
	}

	record, err := s.refreshTokens.Validate(refreshToken)
	if err != nil || record.UserID != userID {
		return nil, UnauthorizedErr
	}

	consumed, err := s.refreshTokens.Consume(refreshToken)
	if err != nil {
		return nil, errors.Wrap(err, "[Refresh] refreshTokens.Consume")
	}
	if !consumed {
		// A concurrent request already rotated this token
		return nil, UnauthorizedErr
	}

	user, err := s.repos.Users.GetByID(userID)
	if err != nil {
		return nil, UnauthorizedErr
	}
	if user.Blocked {
		return nil, AccountDeactivatedErr
	}

	return s.issueSession(user)
}

// Logout revokes the presented refresh token. Revoking a missing or already
// revoked token still succeeds: logout is idempotent by design.
func (s *SessionService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.refreshTokens.Revoke(refreshToken); err != nil {
		return errors.Wrap(err, "[Logout] refreshTokens.Revoke")
	}
	return nil
}

// LogoutAll revokes every refresh token held by the user, ending the
// session on every device.
func (s *SessionService) LogoutAll(ctx context.Context, userID string) error {
	if err := s.refreshTokens.RevokeAll(userID); err != nil {
		return errors.Wrap(err, "[LogoutAll] refreshTokens.RevokeAll")
	}
	return nil
}

// ChangePassword re-verifies the current password, stores the new hash, and
// revokes every refresh token for the user — forcing re-login on all
// devices is the deliberate trade-off for a possibly compromised password.
func (s *SessionService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.repos.Users.GetByID(userID)
	if err != nil {
		return UserNotFoundErr
	}

	if !users.CheckPasswordHash(currentPassword, user.PasswordHash) {
		return InvalidCredentialsErr
	}

	if err := users.ValidatePasswordStrength(newPassword); err != nil {
		return errors.Wrap(PasswordPolicyErr, err.Error())
	}

	passwordHash, err := users.HashPassword(newPassword)
	if err != nil {
		return errors.Wrap(err, "[ChangePassword] HashPassword")
	}

	if err := s.repos.Users.UpdatePasswordHash(user.ID, passwordHash); err != nil {
		return errors.Wrap(err, "[ChangePassword] Users.UpdatePasswordHash")
	}

	if err := s.refreshTokens.RevokeAll(user.ID); err != nil {
		return errors.Wrap(err, "[ChangePassword] refreshTokens.RevokeAll")
	}

	return nil
}

// ChangeEmail re-verifies the password and updates the address. Existing
// sessions survive: unlike a password compromise, an email change does not
// invalidate the credentials they were issued under. Policy choice, not an
// oversight.
func (s *SessionService) ChangeEmail(ctx context.Context, userID, password, newEmail string) error {
	user, err := s.repos.Users.GetByID(userID)
	if err != nil {
		return UserNotFoundErr
	}

	if !users.CheckPasswordHash(password, user.PasswordHash) {
		return InvalidCredentialsErr
	}

	if err := s.repos.Users.UpdateEmail(user.ID, newEmail); err != nil {
		if errors.Is(err, users.ErrDuplicateEmail) {
			return EmailTakenErr
		}
		return errors.Wrap(err, "[ChangeEmail] Users.UpdateEmail")
	}

	return nil
}

// ExchangeExternalIdentity turns a pre-verified identity claim from an OIDC
// callback into a first-party session. An existing account is updated, not
// duplicated; a deactivated account is refused even though the external
// identity itself was valid.
func (s *SessionService) ExchangeExternalIdentity(ctx context.Context, identity users.ExternalIdentity) (*Session, error) {
	user, created, err := s.repos.Users.FindOrCreate(identity)
	if err != nil {
		return nil, errors.Wrap(err, "[ExchangeExternalIdentity] Users.FindOrCreate")
	}

	if user.Blocked {
		return nil, AccountDeactivatedErr
	}

	if !created {
		if err := s.repos.Users.SetLastLogin(user.ID); err != nil {
			s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("failed to record last login")
		}
		if identity.Verified && !user.Verified {
			if err := s.repos.Users.SetVerified(user.ID, true); err != nil {
				s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("failed to promote verified flag")
			}
			user.Verified = true
		}
	}

	return s.issueSession(user)
}

// VerifyAccess validates an access token and returns its claims. Used by
// the HTTP layer's auth middleware.
func (s *SessionService) VerifyAccess(tokenStr string) (*token.Claims, error) {
	claims, err := s.codec.VerifyAccess(tokenStr)
	if err != nil {
		return nil, UnauthorizedErr
	}
	return claims, nil
}

func (s *SessionService) issueSession(user *users.User) (*Session, error) {
	accessToken, err := s.codec.IssueAccess(user)
	if err != nil {
		return nil, errors.Wrap(err, "[issueSession] IssueAccess")
	}

	refreshToken, err := s.codec.IssueRefresh(user.ID)
	if err != nil {
		return nil, errors.Wrap(err, "[issueSession] IssueRefresh")
	}

	if err := s.refreshTokens.Persist(refreshToken, user.ID); err != nil {
		return nil, errors.Wrap(err, "[issueSession] refreshTokens.Persist")
	}

	return &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user.Summary(),
	}, nil
}
