package middleware

import (
	"context"
	"strings"

	"mutualaid/internal/authz"

	"github.com/gofiber/fiber/v2"
)

const callerLocal = "caller"

// CallerResolver turns a raw bearer token into a caller. An empty token yields
// an anonymous caller; a token that fails verification yields an invalid one.
type CallerResolver interface {
	Identify(ctx context.Context, token string) authz.Caller
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
// When allowQuery is set the "token" query parameter is used as a fallback,
// for browsers that cannot set headers on WebSocket upgrades.
func BearerToken(c *fiber.Ctx, allowQuery bool) string {
	authHeader := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if authHeader != "" {
		scheme, token, found := strings.Cut(authHeader, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") {
			// Malformed header: surface as an invalid credential rather than none.
			return authHeader
		}
		return strings.TrimSpace(token)
	}
	if allowQuery {
		return c.Query("token")
	}
	return ""
}

// Identify resolves the caller for every request without rejecting any.
// Decisions are left to the authorization engine.
func Identify(resolver CallerResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := BearerToken(c, strings.HasSuffix(c.Path(), "/ws"))
		caller := resolver.Identify(c.UserContext(), token)

		c.Locals(callerLocal, caller)
		if caller.IsAuthenticated() {
			c.Locals("userID", caller.UserID)
			c.SetUserContext(WithUserID(c.UserContext(), caller.UserID))
		}
		return c.Next()
	}
}

// CallerFrom returns the caller stored by Identify, or an anonymous caller.
func CallerFrom(c *fiber.Ctx) authz.Caller {
	if caller, ok := c.Locals(callerLocal).(authz.Caller); ok {
		return caller
	}
	return authz.Anonymous()
}
