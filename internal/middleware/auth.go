package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/weprint/agent/pkg/response"
)

// RequireToken guards every route with the shared bearer token. Both a
// bare token and the "Bearer <token>" form are accepted, matching what the
// cloud side and curl users actually send.
func RequireToken(token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		presented := strings.TrimSpace(c.Get("Authorization"))
		presented = strings.TrimPrefix(presented, "Bearer ")

		if presented == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			return response.Unauthorized(c, "Invalid or missing token")
		}
		return c.Next()
	}
}
