package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/PowerBio/internal/app/service"
	"github.com/sifan077/PowerBio/internal/http/middleware"
	"go.uber.org/zap"
)

// AnalyticsDeps groups dependencies required by analytics handlers.
type AnalyticsDeps struct {
	Logger    *zap.Logger
	Analytics service.AnalyticsService
	// Auth guards the overview; RateLimit guards ingestion. Both are optional.
	Auth      fiber.Handler
	RateLimit fiber.Handler
}

// AnalyticsHandler implements event ingestion and the owner overview.
type AnalyticsHandler struct {
	logger    *zap.Logger
	analytics service.AnalyticsService
	auth      fiber.Handler
	rateLimit fiber.Handler
}

// NewAnalyticsHandler creates an analytics handler with the provided dependencies.
func NewAnalyticsHandler(deps AnalyticsDeps) *AnalyticsHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsHandler{
		logger:    logger,
		analytics: deps.Analytics,
		auth:      deps.Auth,
		rateLimit: deps.RateLimit,
	}
}

// Register wires analytics routes onto the provided router.
func (h *AnalyticsHandler) Register(router fiber.Router) {
	analytics := router.Group("/analytics")
	{
		analytics.Post("/events/view", chain(h.rateLimit, h.RecordView)...)
		analytics.Post("/events/click", chain(h.rateLimit, h.RecordClick)...)
		analytics.Get("/overview", chain(h.auth, h.Overview)...)
	}
}

// EventRequest is the body of both ingestion endpoints.
type EventRequest struct {
	ProfileID string `json:"profileId"`
	BlockID   string `json:"blockId,omitempty"`
	URL       string `json:"url,omitempty"`
}

// RecordView handles POST /analytics/events/view
func (h *AnalyticsHandler) RecordView(c *fiber.Ctx) error {
	var req EventRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	id, err := h.analytics.RecordView(c.UserContext(), service.EventInput{
		ProfileID: req.ProfileID,
		URL:       req.URL,
		Headers:   middleware.RequestHeaders(c),
	})
	if err != nil {
		return respondError(c, h.logger, "failed to record view event", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"eventId": id,
	})
}

// RecordClick handles POST /analytics/events/click
func (h *AnalyticsHandler) RecordClick(c *fiber.Ctx) error {
	var req EventRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	id, err := h.analytics.RecordClick(c.UserContext(), service.EventInput{
		ProfileID: req.ProfileID,
		BlockID:   req.BlockID,
		URL:       req.URL,
		Headers:   middleware.RequestHeaders(c),
	})
	if err != nil {
		return respondError(c, h.logger, "failed to record click event", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"eventId": id,
	})
}

// Overview handles GET /analytics/overview?profileId=&period=
func (h *AnalyticsHandler) Overview(c *fiber.Ctx) error {
	overview, err := h.analytics.Overview(c.UserContext(),
		middleware.UserID(c),
		c.Query("profileId"),
		c.Query("period"),
	)
	if err != nil {
		return respondError(c, h.logger, "failed to build analytics overview", err)
	}
	return c.JSON(overview)
}

// chain drops nil middleware in front of the final handler.
func chain(handlers ...fiber.Handler) []fiber.Handler {
	out := make([]fiber.Handler, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}
