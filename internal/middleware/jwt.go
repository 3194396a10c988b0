package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/hana-ti/home-planner/internal/auth"
	"github.com/hana-ti/home-planner/internal/identity"
)

// JWTAuth returns a middleware that validates JWT access tokens and checks token version.
// Expired tokens are reported on the auth event channel before the request is rejected.
func JWTAuth(tokens *auth.Service, repo identity.Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr, ok := bearerToken(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		claims, err := tokens.ParseAccessToken(tokenStr)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				tokens.Expired(claims.Subject)
				return fiber.NewError(http.StatusUnauthorized, "token expired")
			}
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}

		user, err := repo.FindByID(c.UserContext(), claims.Subject)
		if err != nil || user.TokenVersion != claims.Version {
			return fiber.NewError(http.StatusUnauthorized, "token invalidated")
		}

		c.Locals("user_id", claims.Subject)
		c.Locals("token_version", claims.Version)
		return c.Next()
	}
}

// OptionalJWT identifies the caller when a valid bearer token is present and
// lets anonymous requests through otherwise.
func OptionalJWT(tokens *auth.Service, repo identity.Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr, ok := bearerToken(c)
		if !ok {
			return c.Next()
		}
		claims, err := tokens.ParseAccessToken(tokenStr)
		if err != nil {
			return c.Next()
		}
		if user, err := repo.FindByID(c.UserContext(), claims.Subject); err == nil && user.TokenVersion == claims.Version {
			c.Locals("user_id", claims.Subject)
		}
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	authz := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(authz[len("Bearer "):])
	return token, token != ""
}
