package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/PowerBio/internal/app/enrich"
)

// RequestHeaders exposes the request headers of c to the enricher. The result
// reads from c, so it must not outlive the handler.
func RequestHeaders(c *fiber.Ctx) enrich.Headers {
	return enrich.HeaderFunc(func(key string) string {
		return c.Get(key)
	})
}
