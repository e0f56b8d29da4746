package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/courseloop/academy-server-go/internal/audit"
	"github.com/courseloop/academy-server-go/internal/config"
	"github.com/courseloop/academy-server-go/internal/database"
	apperrors "github.com/courseloop/academy-server-go/internal/errors"
	"github.com/courseloop/academy-server-go/internal/model"
	redisclient "github.com/courseloop/academy-server-go/internal/redis"
	"github.com/courseloop/academy-server-go/internal/repository"
	"github.com/courseloop/academy-server-go/internal/util"
)

// RedeemOutcome is the result of a successful magic link redemption.
// SessionToken is empty when the user still has to set a password; the
// caller routes them to the setup flow instead of the dashboard.
type RedeemOutcome struct {
	User               *model.User
	NeedsPasswordSetup bool
	SessionToken       string
	SessionExpiresAt   time.Time
}

// SessionOutcome carries a freshly established session.
type SessionOutcome struct {
	User             *model.User
	SessionToken     string
	SessionExpiresAt time.Time
}

// AuthService owns the credential lifecycle: magic link redemption,
// first-time password setup, password sign-in and sessions.
type AuthService struct {
	db          database.TxRunner
	users       repository.UserRepository
	links       repository.MagicLinkRepository
	sessions    repository.SessionRepository
	rateLimiter *RateLimiter
	cfg         *config.Config
}

func NewAuthService(
	db database.TxRunner,
	users repository.UserRepository,
	links repository.MagicLinkRepository,
	sessions repository.SessionRepository,
	rateLimiter *RateLimiter,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		db:          db,
		users:       users,
		links:       links,
		sessions:    sessions,
		rateLimiter: rateLimiter,
		cfg:         cfg,
	}
}

// RedeemToken authenticates a magic link exactly once. Classification
// order: unknown hash, already used, expired. The mark-used update is
// conditional so two concurrent redemptions of the same token cannot
// both succeed; the loser observes zero rows and fails as token_used.
func (s *AuthService) RedeemToken(ctx context.Context, rawToken, ip string) (*RedeemOutcome, error) {
	if rawToken == "" {
		return nil, apperrors.MissingToken()
	}

	token, err := s.links.FindByTokenHash(ctx, util.HashToken(rawToken))
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if token == nil {
		s.auditRejected(ctx, "", ip, "invalid_token")
		return nil, apperrors.InvalidToken()
	}
	if token.UsedAt != nil {
		s.auditRejected(ctx, token.UserID, ip, "token_used")
		return nil, apperrors.TokenUsed()
	}
	if token.Expired(time.Now()) {
		s.auditRejected(ctx, token.UserID, ip, "token_expired")
		return nil, apperrors.TokenExpired()
	}

	var user *model.User
	txErr := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		links := s.links.WithTx(tx)
		users := s.users.WithTx(tx)

		consumed, err := links.Consume(ctx, token.ID)
		if err != nil {
			return fmt.Errorf("consume token: %w", err)
		}
		if !consumed {
			// Lost the race against a concurrent redemption.
			return apperrors.TokenUsed()
		}

		if err := users.MarkEmailVerified(ctx, token.UserID); err != nil {
			return fmt.Errorf("mark email verified: %w", err)
		}

		user, err = users.FindByID(ctx, token.UserID)
		if err != nil {
			return fmt.Errorf("load token owner: %w", err)
		}
		if user == nil {
			return apperrors.InvalidToken()
		}
		return nil
	})
	if txErr != nil {
		if appErr, ok := apperrors.AsAppError(txErr); ok {
			return nil, appErr
		}
		return nil, apperrors.Database(txErr)
	}

	audit.Log(ctx, audit.Event{
		Type:   audit.EventMagicLinkRedeemed,
		UserID: user.ID,
		Email:  user.Email,
		IP:     ip,
	})

	outcome := &RedeemOutcome{User: user}
	if !user.HasPassword() || user.MustSetPassword {
		outcome.NeedsPasswordSetup = true
		return outcome, nil
	}

	sessionToken, expiresAt, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	outcome.SessionToken = sessionToken
	outcome.SessionExpiresAt = expiresAt
	return outcome, nil
}

// SetupPassword stores a user's first password credential. One-time
// only: a user who already has a password gets a conflict, never a
// silent overwrite.
func (s *AuthService) SetupPassword(ctx context.Context, userID, password string) (*SessionOutcome, error) {
	if len(password) < config.MinPasswordLength {
		return nil, apperrors.ValidationError(
			fmt.Sprintf("password must be at least %d characters", config.MinPasswordLength))
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if user == nil {
		return nil, apperrors.NotFound("user")
	}
	if user.HasPassword() {
		return nil, apperrors.PasswordAlreadySet()
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return nil, apperrors.Internal("failed to hash password").WithCause(err)
	}

	updated, err := s.users.SetPassword(ctx, user.ID, hash)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if !updated {
		// A concurrent setup won; same outcome as the pre-check.
		return nil, apperrors.PasswordAlreadySet()
	}

	audit.Log(ctx, audit.Event{
		Type:   audit.EventPasswordSet,
		UserID: user.ID,
		Email:  user.Email,
	})

	sessionToken, expiresAt, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &SessionOutcome{User: user, SessionToken: sessionToken, SessionExpiresAt: expiresAt}, nil
}

// Login performs password sign-in. Failures are deliberately uniform
// except for users who never finished setup, who are routed back to it.
func (s *AuthService) Login(ctx context.Context, email, password, ip string) (*SessionOutcome, error) {
	allowed, resetAt := s.rateLimiter.CheckLimit(
		ctx, redisclient.LoginLimitKey(ip), config.LoginRateLimitPerMin, time.Minute)
	if !allowed {
		audit.Log(ctx, audit.Event{
			Type:  audit.EventRateLimitExceed,
			Email: email,
			IP:    ip,
			Details: map[string]interface{}{
				"scope":    "login",
				"reset_at": resetAt.Format(time.RFC3339),
			},
		})
		return nil, apperrors.RateLimitExceeded()
	}

	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if user == nil {
		s.auditLoginFailure(ctx, email, ip, "unknown email")
		return nil, apperrors.InvalidCredentials()
	}
	if !user.HasPassword() || user.MustSetPassword {
		return nil, apperrors.PasswordNotSet()
	}
	if !util.CheckPasswordHash(password, *user.PasswordHash) {
		s.auditLoginFailure(ctx, email, ip, "wrong password")
		return nil, apperrors.InvalidCredentials()
	}

	sessionToken, expiresAt, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	audit.Log(ctx, audit.Event{
		Type:   audit.EventLoginSuccess,
		UserID: user.ID,
		Email:  user.Email,
		IP:     ip,
	})

	return &SessionOutcome{User: user, SessionToken: sessionToken, SessionExpiresAt: expiresAt}, nil
}

// Logout revokes the session carrying the given raw token. Unknown
// tokens are a no-op.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}
	if err := s.sessions.DeleteByTokenHash(ctx, s.hashSessionToken(rawToken)); err != nil {
		return apperrors.Database(err)
	}
	audit.Log(ctx, audit.Event{Type: audit.EventLogout})
	return nil
}

// Authenticate resolves a raw session token to its user. Expired or
// unknown sessions fail as unauthorized.
func (s *AuthService) Authenticate(ctx context.Context, rawToken string) (*model.User, error) {
	if rawToken == "" {
		return nil, apperrors.Unauthorized("not signed in")
	}

	session, err := s.sessions.FindByTokenHash(ctx, s.hashSessionToken(rawToken))
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if session == nil {
		return nil, apperrors.Unauthorized("session expired or revoked")
	}

	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if user == nil {
		return nil, apperrors.Unauthorized("session user no longer exists")
	}
	return user, nil
}

// ResendLink issues a fresh long-lived magic link for an existing user.
// The response never reveals whether the email is registered; the link
// itself travels out of band through the mail integration observing the
// issuance audit trail.
func (s *AuthService) ResendLink(ctx context.Context, email, ip string) error {
	normalized := strings.TrimSpace(strings.ToLower(email))
	if normalized == "" {
		return apperrors.MissingRequired("email")
	}

	allowed, _ := s.rateLimiter.CheckLimit(
		ctx, redisclient.ResendLimitKey(normalized), config.ResendLinkLimitPerHour, time.Hour)
	if !allowed {
		audit.Log(ctx, audit.Event{
			Type:    audit.EventRateLimitExceed,
			Email:   normalized,
			IP:      ip,
			Details: map[string]interface{}{"scope": "resend_link"},
		})
		return apperrors.RateLimitExceeded()
	}

	user, err := s.users.FindByEmail(ctx, normalized)
	if err != nil {
		return apperrors.Database(err)
	}
	if user == nil {
		// Pretend success so the endpoint cannot be used to probe for
		// registered addresses.
		log.Info().Str("email", normalized).Msg("resend link requested for unknown email")
		return nil
	}

	rawToken, err := util.GenerateToken()
	if err != nil {
		return apperrors.Internal("failed to generate sign-in token").WithCause(err)
	}

	token, err := s.links.Create(ctx, model.CreateMagicLinkTokenParams{
		UserID:    user.ID,
		TokenHash: util.HashToken(rawToken),
		ExpiresAt: time.Now().Add(s.cfg.ResendLinkTTL()),
	})
	if err != nil {
		return apperrors.Database(err)
	}

	audit.Log(ctx, audit.Event{
		Type:   audit.EventMagicLinkIssued,
		UserID: user.ID,
		Email:  user.Email,
		IP:     ip,
		Details: map[string]interface{}{
			"token_id":   token.ID,
			"expires_at": token.ExpiresAt.Format(time.RFC3339),
		},
	})

	log.Info().
		Str("userId", user.ID).
		Str("magicLink", fmt.Sprintf("%s/auth/magic-link?token=%s",
			strings.TrimRight(s.cfg.PublicBaseURL, "/"), rawToken)).
		Msg("sign-in link issued, hand off to mail delivery")

	return nil
}

func (s *AuthService) createSession(ctx context.Context, userID string) (string, time.Time, error) {
	rawToken, err := util.GenerateToken()
	if err != nil {
		return "", time.Time{}, apperrors.Internal("failed to generate session token").WithCause(err)
	}

	expiresAt := time.Now().Add(s.cfg.SessionTTL())
	_, err = s.sessions.Create(ctx, model.CreateSessionParams{
		UserID:    userID,
		TokenHash: s.hashSessionToken(rawToken),
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return "", time.Time{}, apperrors.Database(err)
	}
	return rawToken, expiresAt, nil
}

// hashSessionToken keys the hash with the session secret so a leaked
// database dump alone cannot be replayed as cookies.
func (s *AuthService) hashSessionToken(rawToken string) string {
	return util.HmacSHA256(s.cfg.SessionSecret, rawToken)
}

func (s *AuthService) auditRejected(ctx context.Context, userID, ip, reason string) {
	audit.Log(ctx, audit.Event{
		Type:    audit.EventMagicLinkRejected,
		UserID:  userID,
		IP:      ip,
		Details: map[string]interface{}{"reason": reason},
	})
}

func (s *AuthService) auditLoginFailure(ctx context.Context, email, ip, reason string) {
	audit.Log(ctx, audit.Event{
		Type:    audit.EventLoginFailure,
		Email:   email,
		IP:      ip,
		Details: map[string]interface{}{"reason": reason},
	})
}
