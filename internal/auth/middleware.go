package auth

import (
	"github.com/gofiber/fiber/v2"
)

const identityKey = "identity"

// Authenticator turns an Authorization header value into an Identity.
// *TokenService implements it.
type Authenticator interface {
	IdentityFromHeader(header string) (Identity, error)
}

// IdentityMiddleware resolves the Authorization header of every request into
// an Identity stored on the context. Requests without the header continue
// as Guest; invalid credentials stop the chain.
func IdentityMiddleware(a Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, err := a.IdentityFromHeader(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return err
		}
		c.Locals(identityKey, identity)
		return c.Next()
	}
}

// CurrentIdentity returns the identity set by IdentityMiddleware, or Guest.
func CurrentIdentity(c *fiber.Ctx) Identity {
	if identity, ok := c.Locals(identityKey).(Identity); ok {
		return identity
	}
	return Guest()
}
