package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"veritel/internal/audit"
	dErrors "veritel/pkg/domain-errors"
	"veritel/pkg/requestcontext"
)

const defaultTokenTTL = 12 * time.Hour

// Service authenticates the admin operator and manages token lifecycle.
// There is a single admin account configured from the environment; the
// revocation list makes logout effective before token expiry.
type Service struct {
	tokens      *TokenService
	revocations RevocationList

	adminLogin        string
	adminPasswordHash []byte

	tokenTTL time.Duration
	logger   *slog.Logger
	audit    audit.Publisher
}

// Option configures optional service dependencies.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) {
		if publisher != nil {
			s.audit = publisher
		}
	}
}

func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

func NewService(tokens *TokenService, revocations RevocationList, adminLogin, adminPasswordHash string, opts ...Option) *Service {
	s := &Service{
		tokens:            tokens,
		revocations:       revocations,
		adminLogin:        adminLogin,
		adminPasswordHash: []byte(adminPasswordHash),
		tokenTTL:          defaultTokenTTL,
		logger:            slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Login verifies the operator credentials and issues an access token.
// Login and password failures are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, login, password string) (string, time.Duration, error) {
	now := requestcontext.Now(ctx)

	if login != s.adminLogin {
		return "", 0, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword(s.adminPasswordHash, []byte(password)); err != nil {
		return "", 0, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	token, err := s.tokens.Issue(login, now, s.tokenTTL)
	if err != nil {
		return "", 0, fmt.Errorf("issuing access token: %w", err)
	}

	s.emitAudit(ctx, audit.Event{
		Action:  audit.ActionAdminLogin,
		Actor:   login,
		Subject: login,
	})
	s.logger.InfoContext(ctx, "admin logged in", "login", login)

	return token, s.tokenTTL, nil
}

// Logout revokes the presented token for the remainder of its lifetime.
func (s *Service) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.tokens.Validate(tokenString)
	if err != nil {
		return err
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.revocations.Revoke(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}

	s.logger.InfoContext(ctx, "admin logged out", "login", claims.Subject)
	return nil
}

// Authenticate validates a token and confirms it has not been revoked.
// It returns the admin login carried by the token.
func (s *Service) Authenticate(ctx context.Context, tokenString string) (string, error) {
	claims, err := s.tokens.Validate(tokenString)
	if err != nil {
		return "", err
	}

	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return "", fmt.Errorf("checking revocation list: %w", err)
	}
	if revoked {
		return "", dErrors.New(dErrors.CodeUnauthorized, "token has been revoked")
	}

	return claims.Subject, nil
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	filled := audit.Fill(event, requestcontext.Now(ctx))
	filled.RequestID = requestcontext.RequestID(ctx)
	if err := s.audit.Emit(ctx, filled); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", filled.Action, "error", err)
	}
}
