package middleware

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// RequireAdmin lets through only the listed user ids. It runs after JWTAuth;
// an empty list closes the route to everyone.
func RequireAdmin(userIDs []string) fiber.Handler {
	allowed := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		allowed[id] = struct{}{}
	}
	return func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		if _, ok := allowed[userID]; !ok || userID == "" {
			return fiber.NewError(http.StatusForbidden, "operator access required")
		}
		return c.Next()
	}
}
