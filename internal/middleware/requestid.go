package middleware

import (
	"tichmi/internal/util"

	"github.com/gofiber/fiber/v2"
)

// RequestIDHeader is the response header carrying the per-request ULID.
const RequestIDHeader = "X-Request-ID"

// RequestIDKey is the fiber.Ctx locals key for the request id.
const RequestIDKey = "request_id"

// RequestID tags every request with a ULID, echoing an incoming id when the
// client supplies one.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if id == "" {
			id = util.NewULID()
		}
		c.Locals(RequestIDKey, id)
		c.Set(RequestIDHeader, id)
		return c.Next()
	}
}
