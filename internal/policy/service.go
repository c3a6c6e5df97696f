package policy

import (
	"slices"
	"strings"

	"go.uber.org/zap"

	"auth-backend/internal/apperr"
	"auth-backend/internal/logger"
)

// Permissions maps a resource to the actions allowed on it.
type Permissions map[string][]string

// Enforcer is the read-only slice of the casbin API the service needs.
// *casbin.SyncedEnforcer satisfies it.
type Enforcer interface {
	GetImplicitPermissionsForUser(user string, domain ...string) ([][]string, error)
}

// Service resolves roles to permission maps against a policy loaded once at
// start. It holds no mutable state and is safe for concurrent use.
type Service struct {
	enforcer Enforcer
	log      *zap.Logger
}

// NewService wraps a loaded enforcer.
func NewService(e Enforcer) *Service {
	return &Service{enforcer: e, log: logger.Named("policy")}
}

// PermissionsForRole returns every (resource, action) reachable by role,
// grouped by resource. Each action appears once per resource, in the order
// the enforcer first emits it; a rule repeated by an inherited role adds
// nothing. A role with no rules gets an empty map.
func (s *Service) PermissionsForRole(role string) (Permissions, error) {
	result := Permissions{}
	if role == "" {
		return result, nil
	}

	tuples, err := s.enforcer.GetImplicitPermissionsForUser(role)
	if err != nil {
		return nil, apperr.Policy(err)
	}

	for _, t := range tuples {
		resource, action, ok := split(t)
		if !ok {
			s.log.Warn("skipping malformed policy row",
				logger.Role(role), zap.Strings("row", t))
			continue
		}
		if !slices.Contains(result[resource], action) {
			result[resource] = append(result[resource], action)
		}
	}
	return result, nil
}

// split reads a (subject, action, resource) tuple.
func split(t []string) (resource, action string, ok bool) {
	if len(t) < 3 {
		return "", "", false
	}
	action, resource = strings.TrimSpace(t[1]), strings.TrimSpace(t[2])
	if action == "" || resource == "" {
		return "", "", false
	}
	return resource, action, true
}
