package auth

import (
	"errors"
	"fmt"
)

// Role is the closed set of roles a session may be issued for. The same
// string is the RBAC subject in the policy.
type Role string

const (
	RoleUser Role = "User"
	RoleSpec Role = "Spec"
)

// GuestRole is the policy subject for callers without a credential. It is
// not issuable.
const GuestRole = "Guest"

var ErrUnknownRole = errors.New("unknown role")

var roles = []Role{RoleUser, RoleSpec}

// Roles lists the issuable roles in declaration order.
func Roles() []Role {
	out := make([]Role, len(roles))
	copy(out, roles)
	return out
}

// ParseRole accepts only the exact enumerated names.
func ParseRole(s string) (Role, error) {
	for _, r := range roles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

func (r Role) String() string { return string(r) }
