package session

import (
	"context"

	"go.uber.org/zap"

	"auth-backend/internal/account"
	"auth-backend/internal/apperr"
	"auth-backend/internal/auth"
	"auth-backend/internal/logger"
	"auth-backend/internal/metrics"
	"auth-backend/internal/policy"
	"auth-backend/internal/worker"
)

// PermissionResolver is implemented by *policy.Service.
type PermissionResolver interface {
	PermissionsForRole(role string) (policy.Permissions, error)
}

// Service implements the two operations the HTTP layer exposes: creating a
// session for a login and resolving the caller's permissions.
type Service struct {
	accounts account.Finder
	tokens   *auth.TokenService
	policy   PermissionResolver
	workers  *worker.Pool
	metrics  *metrics.Metrics
}

// NewService wires the session operations. m may be nil.
func NewService(accounts account.Finder, tokens *auth.TokenService, perms PermissionResolver, workers *worker.Pool, m *metrics.Metrics) *Service {
	return &Service{
		accounts: accounts,
		tokens:   tokens,
		policy:   perms,
		workers:  workers,
		metrics:  m,
	}
}

// CreateSession looks up the account for login and signs an access token
// for role plus a refresh token.
func (s *Service) CreateSession(ctx context.Context, login string, role auth.Role) (auth.TokenPair, error) {
	a, err := s.accounts.FindByLogin(ctx, login)
	if err != nil {
		return auth.TokenPair{}, err
	}

	var pair auth.TokenPair
	g := s.workers.Group(ctx)
	g.Go(func() (err error) {
		pair.AccessToken, err = s.tokens.GenerateAccessToken(a, role)
		return err
	})
	g.Go(func() (err error) {
		pair.RefreshToken, err = s.tokens.GenerateRefreshToken(a)
		return err
	})
	if err := g.Wait(); err != nil {
		return auth.TokenPair{}, err
	}

	if s.metrics != nil {
		s.metrics.SessionsIssued.WithLabelValues(role.String()).Inc()
	}
	logger.From(ctx).Info("session created", logger.AccountID(a.ID), logger.Role(role.String()))
	return pair, nil
}

// IdentityFromHeader resolves the Authorization header and records the
// outcome.
func (s *Service) IdentityFromHeader(header string) (auth.Identity, error) {
	identity, err := s.tokens.IdentityFromHeader(header)
	if s.metrics != nil {
		s.metrics.TokenVerifications.WithLabelValues(verificationResult(identity, err)).Inc()
	}
	return identity, err
}

// PermissionsFor returns the permission map for an already resolved identity.
func (s *Service) PermissionsFor(ctx context.Context, identity auth.Identity) (policy.Permissions, error) {
	perms, err := s.policy.PermissionsForRole(identity.Role)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.PermissionLookups.WithLabelValues(identity.Role).Inc()
	}
	logger.From(ctx).Debug("permissions resolved",
		logger.AccountID(identity.AccountID), logger.Role(identity.Role), zap.Int("resources", len(perms)))
	return perms, nil
}

// ResolvePermissions is the header-to-permissions operation. A missing
// header resolves Guest's permissions and never fails.
func (s *Service) ResolvePermissions(ctx context.Context, header string) (policy.Permissions, error) {
	identity, err := s.IdentityFromHeader(header)
	if err != nil {
		return nil, err
	}
	return s.PermissionsFor(ctx, identity)
}

func verificationResult(identity auth.Identity, err error) string {
	switch {
	case err == nil && identity.IsGuest():
		return "guest"
	case err == nil:
		return "valid"
	case apperr.IsKind(err, apperr.KindMalformedRequest):
		return "malformed"
	default:
		return "invalid"
	}
}
