package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/PowerBio/internal/app/repository"
	"github.com/sifan077/PowerBio/internal/app/service"
	"go.uber.org/zap"
)

// Resolver is the redirect lookup used by RedirectHandler.
type Resolver interface {
	Resolve(ctx context.Context, code string) (service.Resolution, error)
}

// RedirectDeps groups dependencies required by redirect handlers.
type RedirectDeps struct {
	Logger   *zap.Logger
	Resolver Resolver
}

// RedirectHandler serves short-link redirects and the health probe.
type RedirectHandler struct {
	logger   *zap.Logger
	resolver Resolver
}

// NewRedirectHandler creates a redirect handler with the provided dependencies.
func NewRedirectHandler(deps RedirectDeps) *RedirectHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedirectHandler{
		logger:   logger,
		resolver: deps.Resolver,
	}
}

// Register wires redirect routes onto the provided router.
func (h *RedirectHandler) Register(router fiber.Router) {
	router.Get("/health", h.Health)
	router.Get("/r/:code", h.Redirect)
}

// Health is a simple endpoint so we know the service is running.
func (h *RedirectHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": "PowerBio",
		"status":  "ok",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Redirect handles GET /r/:code. The click is counted after the response.
func (h *RedirectHandler) Redirect(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Short link not found",
		})
	}

	res, err := h.resolver.Resolve(c.UserContext(), code)
	if err != nil {
		if errors.Is(err, repository.ErrShortLinkNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Short link not found",
			})
		}
		h.logger.Error("failed to resolve short link", zap.Error(err), zap.String("code", code))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}

	h.logger.Debug("redirecting short link",
		zap.String("code", code),
		zap.String("target", res.URL),
		zap.Bool("cache_hit", res.CacheHit),
	)
	return c.Redirect(res.URL, fiber.StatusFound)
}
