package middleware

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/hana-ti/home-planner/internal/logging"
)

const requestIDLocal = "request_id"

// RequestID ensures each request carries an X-Request-ID and stores a logger
// tagged with it in the user context, so services log with the same id.
func RequestID(logger *slog.Logger) fiber.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *fiber.Ctx) error {
		reqID := c.Get(fiber.HeaderXRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set(fiber.HeaderXRequestID, reqID)
		c.Locals(requestIDLocal, reqID)
		c.SetUserContext(logging.WithLogger(c.UserContext(), logger.With(slog.String("request_id", reqID))))
		return c.Next()
	}
}

// GetRequestID returns the id assigned by RequestID, or "".
func GetRequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(requestIDLocal).(string)
	return id
}
