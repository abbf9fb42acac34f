package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"time"

	"github.com/BradenHooton/auth-service/internal/auth"
	"github.com/BradenHooton/auth-service/internal/metrics"
	"github.com/BradenHooton/auth-service/internal/models"
	pkglogger "github.com/BradenHooton/auth-service/pkg/logger"
)

const twoFAEmailSubject = "2FA Code"

// AuthService handles authentication business logic. It only ever returns
// the outward errors from models (ErrInvalidInput, ErrIncorrectCredentials, ...).
type AuthService struct {
	users        UserStore
	bannedTokens BannedTokenStore
	twoFACodes   TwoFACodeStore
	email        EmailClient
	tm           *auth.TokenManager
	timingDelay  *auth.TimingDelay
	metrics      MetricsRecorder
	logger       *slog.Logger
	auditLogger  *pkglogger.AuditLogger
}

// NewAuthService creates a new AuthService
func NewAuthService(users UserStore, bannedTokens BannedTokenStore, twoFACodes TwoFACodeStore, email EmailClient, tm *auth.TokenManager, timingDelay *auth.TimingDelay, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AuthService {
	return &AuthService{
		users:        users,
		bannedTokens: bannedTokens,
		twoFACodes:   twoFACodes,
		email:        email,
		tm:           tm,
		timingDelay:  timingDelay,
		logger:       logger,
		auditLogger:  auditLogger,
	}
}

// SetMetrics installs a recorder for operation outcomes
func (s *AuthService) SetMetrics(m MetricsRecorder) {
	s.metrics = m
}

// LoginResult is either a session (Token set) or a pending 2FA challenge
type LoginResult struct {
	Token          string
	ExpiresAt      time.Time
	Requires2FA    bool
	LoginAttemptID string
}

// TokenTTL is the lifetime of issued session tokens
func (s *AuthService) TokenTTL() time.Duration {
	return s.tm.TTL()
}

// Signup registers a new account
func (s *AuthService) Signup(ctx context.Context, rawEmail, rawPassword string, requires2FA bool) error {
	email, err := models.ParseEmail(rawEmail)
	if err != nil {
		s.record(ctx, pkglogger.EventSignup, metrics.OutcomeInvalidInput, "", "invalid_email")
		return models.ErrInvalidInput
	}
	password, err := models.ParsePassword(rawPassword)
	if err != nil {
		s.record(ctx, pkglogger.EventSignup, metrics.OutcomeInvalidInput, email.String(), "invalid_password")
		return models.ErrInvalidInput
	}

	err = s.users.AddUser(ctx, models.NewUser{Email: email, Password: password, Requires2FA: requires2FA})
	if err != nil {
		if errors.Is(err, models.ErrUserAlreadyExists) {
			s.record(ctx, pkglogger.EventSignup, metrics.OutcomeConflict, email.String(), "user_exists")
			return models.ErrConflict
		}
		s.logger.Error("failed to add user", slog.Any("error", err))
		s.record(ctx, pkglogger.EventSignup, metrics.OutcomeError, email.String(), "store_error")
		return models.ErrInternalServer
	}

	s.logger.Info("user signed up", slog.String("email", pkglogger.SanitizedEmail(email.String())), slog.Bool("requires_2fa", requires2FA))
	s.record(ctx, pkglogger.EventSignup, metrics.OutcomeSuccess, email.String(), "")
	return nil
}

// Login checks credentials and either issues a session or starts a 2FA challenge
func (s *AuthService) Login(ctx context.Context, rawEmail, rawPassword string) (*LoginResult, error) {
	start := time.Now()

	email, err := models.ParseEmail(rawEmail)
	if err != nil {
		s.record(ctx, pkglogger.EventLogin, metrics.OutcomeInvalidInput, "", "invalid_email")
		return nil, models.ErrInvalidInput
	}
	password, err := models.ParsePassword(rawPassword)
	if err != nil {
		s.record(ctx, pkglogger.EventLogin, metrics.OutcomeInvalidInput, email.String(), "invalid_password")
		return nil, models.ErrInvalidInput
	}

	if err := s.users.ValidateUser(ctx, email.String(), password.String()); err != nil {
		if !errors.Is(err, models.ErrInvalidCredentials) && !errors.Is(err, models.ErrUserNotFound) {
			s.logger.Error("failed to validate user", slog.Any("error", err))
		}
		return nil, s.rejectLogin(ctx, start, email, "invalid_credentials")
	}

	user, err := s.users.GetUser(ctx, email.String())
	if err != nil {
		s.logger.Error("validated user could not be loaded", slog.Any("error", err))
		return nil, s.rejectLogin(ctx, start, email, "user_lookup_failed")
	}

	if !user.Requires2FA {
		result, err := s.issueSession(email)
		if err != nil {
			s.record(ctx, pkglogger.EventLogin, metrics.OutcomeError, email.String(), "token_issue_failed")
			return nil, err
		}
		s.logger.Info("user logged in", slog.String("email", pkglogger.SanitizedEmail(email.String())))
		s.record(ctx, pkglogger.EventLogin, metrics.OutcomeSuccess, email.String(), "")
		return result, nil
	}

	id := models.NewLoginAttemptID()
	code, err := models.NewTwoFACode()
	if err != nil {
		s.logger.Error("failed to generate 2fa code", slog.Any("error", err))
		s.record(ctx, pkglogger.EventLogin, metrics.OutcomeError, email.String(), "code_generation_failed")
		return nil, models.ErrInternalServer
	}

	if err := s.storeChallenge(ctx, email, id, code); err != nil {
		s.logger.Error("failed to store 2fa challenge", slog.Any("error", err))
		s.record(ctx, pkglogger.EventLogin, metrics.OutcomeError, email.String(), "challenge_store_failed")
		return nil, models.ErrInternalServer
	}

	if err := s.email.Send(ctx, email, twoFAEmailSubject, code.String()); err != nil {
		s.logger.Error("failed to send 2fa code", slog.Any("error", err))
		s.record(ctx, pkglogger.EventLogin, metrics.OutcomeError, email.String(), "email_send_failed")
		return nil, models.ErrInternalServer
	}

	s.logger.Info("2fa challenge issued", slog.String("email", pkglogger.SanitizedEmail(email.String())))
	s.record(ctx, pkglogger.EventLogin, metrics.OutcomeChallenge, email.String(), "")
	return &LoginResult{Requires2FA: true, LoginAttemptID: id.String()}, nil
}

// storeChallenge saves a fresh challenge. A still pending one from an earlier
// login is superseded; removal is keyed on its id so a concurrent verification
// of the old challenge cannot delete the new one.
func (s *AuthService) storeChallenge(ctx context.Context, email models.Email, id models.LoginAttemptID, code models.TwoFACode) error {
	err := s.twoFACodes.AddCode(ctx, email, id, code)
	if !errors.Is(err, models.ErrChallengeExists) {
		return err
	}

	staleID, _, err := s.twoFACodes.GetCode(ctx, email)
	switch {
	case errors.Is(err, models.ErrLoginAttemptIDNotFound):
	case err != nil:
		return err
	default:
		if err := s.twoFACodes.RemoveCode(ctx, email, staleID); err != nil && !errors.Is(err, models.ErrLoginAttemptIDNotFound) {
			return err
		}
	}
	return s.twoFACodes.AddCode(ctx, email, id, code)
}

func (s *AuthService) rejectLogin(ctx context.Context, start time.Time, email models.Email, reason string) error {
	s.timingDelay.WaitFrom(ctx, start)
	s.logger.Info("login failed: invalid credentials")
	s.record(ctx, pkglogger.EventLogin, metrics.OutcomeRejected, email.String(), reason)
	return models.ErrIncorrectCredentials
}

// Verify2FA consumes a pending challenge and issues a session
func (s *AuthService) Verify2FA(ctx context.Context, rawEmail, rawAttemptID, rawCode string) (*LoginResult, error) {
	email, err := models.ParseEmail(rawEmail)
	if err != nil {
		s.record(ctx, pkglogger.EventVerify2FA, metrics.OutcomeInvalidInput, "", "invalid_email")
		return nil, models.ErrInvalidInput
	}
	attemptID, err := models.ParseLoginAttemptID(rawAttemptID)
	if err != nil {
		s.record(ctx, pkglogger.EventVerify2FA, metrics.OutcomeInvalidInput, email.String(), "invalid_login_attempt_id")
		return nil, models.ErrInvalidInput
	}
	code, err := models.ParseTwoFACode(rawCode)
	if err != nil {
		s.record(ctx, pkglogger.EventVerify2FA, metrics.OutcomeInvalidInput, email.String(), "invalid_code")
		return nil, models.ErrInvalidInput
	}

	storedID, storedCode, err := s.twoFACodes.GetCode(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrLoginAttemptIDNotFound) {
			s.record(ctx, pkglogger.EventVerify2FA, metrics.OutcomeRejected, email.String(), "no_pending_challenge")
			return nil, models.ErrIncorrectCredentials
		}
		s.logger.Error("failed to load 2fa challenge", slog.Any("error", err))
		s.record(ctx, pkglogger.EventVerify2FA, metrics.OutcomeError, email.String(), "store_error")
		return nil, models.ErrInternalServer
	}

	idMatch := subtle.ConstantTimeCompare([]byte(attemptID.String()), []byte(storedID.String())) == 1
	codeMatch := subtle.ConstantTimeCompare([]byte(code.String()), []byte(storedCode.String())) == 1
	if !idMatch || !codeMatch {
		s.record(ctx, pkglogger.EventVerify2FA, metrics.OutcomeRejected, email.String(), "challenge_mismatch")
		return nil, models.ErrIncorrectCredentials
	}

	// Whoever removes the challenge first wins. A concurrent duplicate, or a
	// challenge superseded by a re-login since GetCode, gets 401.
	if err := s.twoFACodes.RemoveCode(ctx, email, storedID); err != nil {
		if errors.Is(err, models.ErrLoginAttemptIDNotFound) {
			s.record(ctx, pkglogger.EventVerify2FA, metrics.OutcomeRejected, email.String(), "challenge_consumed")
			return nil, models.ErrIncorrectCredentials
		}
		s.logger.Error("failed to remove 2fa challenge", slog.Any("error", err))
		s.record(ctx, pkglogger.EventVerify2FA, metrics.OutcomeError, email.String(), "store_error")
		return nil, models.ErrInternalServer
	}

	result, err := s.issueSession(email)
	if err != nil {
		s.record(ctx, pkglogger.EventVerify2FA, metrics.OutcomeError, email.String(), "token_issue_failed")
		return nil, err
	}

	s.logger.Info("2fa verified", slog.String("email", pkglogger.SanitizedEmail(email.String())))
	s.record(ctx, pkglogger.EventVerify2FA, metrics.OutcomeSuccess, email.String(), "")
	return result, nil
}

// Logout bans token for the rest of its lifetime
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		s.record(ctx, pkglogger.EventLogout, metrics.OutcomeInvalidInput, "", "missing_token")
		return models.ErrMissingToken
	}

	claims, err := s.tm.Validate(token)
	if err != nil {
		s.logger.Debug("logout with invalid token", slog.Any("error", err))
		s.record(ctx, pkglogger.EventLogout, metrics.OutcomeRejected, "", "invalid_token")
		return models.ErrInvalidToken
	}

	if err := s.bannedTokens.StoreToken(ctx, token); err != nil {
		if errors.Is(err, models.ErrTokenAlreadyBanned) {
			s.record(ctx, pkglogger.EventLogout, metrics.OutcomeRejected, claims.Email(), "already_logged_out")
			return models.ErrAlreadyLoggedOut
		}
		s.logger.Error("failed to ban token", slog.Any("error", err))
		s.record(ctx, pkglogger.EventLogout, metrics.OutcomeError, claims.Email(), "store_error")
		return models.ErrInternalServer
	}

	s.logger.Info("user logged out", slog.String("email", pkglogger.SanitizedEmail(claims.Email())))
	s.record(ctx, pkglogger.EventLogout, metrics.OutcomeSuccess, claims.Email(), "")
	return nil
}

// VerifyToken reports whether token is a live session
func (s *AuthService) VerifyToken(ctx context.Context, token string) (*models.TokenClaims, error) {
	banned, err := s.bannedTokens.IsTokenBanned(ctx, token)
	if err != nil {
		s.logger.Error("failed to check banned token", slog.Any("error", err))
		s.recordMetric("verify_token", metrics.OutcomeError)
		return nil, models.ErrInternalServer
	}
	if banned {
		s.recordMetric("verify_token", metrics.OutcomeRejected)
		return nil, models.ErrInvalidToken
	}

	claims, err := s.tm.Validate(token)
	if err != nil {
		s.recordMetric("verify_token", metrics.OutcomeRejected)
		return nil, models.ErrInvalidToken
	}

	s.recordMetric("verify_token", metrics.OutcomeSuccess)
	return claims, nil
}

func (s *AuthService) issueSession(email models.Email) (*LoginResult, error) {
	token, expiresAt, err := s.tm.Issue(email)
	if err != nil {
		s.logger.Error("failed to issue token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) record(ctx context.Context, event, outcome, email, reason string) {
	s.recordMetric(event, outcome)
	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType:     event,
		Email:         email,
		Success:       outcome == metrics.OutcomeSuccess || outcome == metrics.OutcomeChallenge,
		FailureReason: reason,
	})
}

func (s *AuthService) recordMetric(operation, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordAuthOperation(operation, outcome)
	}
}
