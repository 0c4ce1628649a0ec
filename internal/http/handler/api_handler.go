package handler

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/PowerBio/internal/app/model"
	"github.com/sifan077/PowerBio/internal/app/service"
	"github.com/sifan077/PowerBio/internal/http/middleware"
	"go.uber.org/zap"
)

// APIDeps groups dependencies required by API handlers.
type APIDeps struct {
	Logger *zap.Logger
	Links  service.ShortLinkService
	// PublicURL is the base of generated short URLs, e.g. https://pb.link.
	PublicURL string
	Auth      fiber.Handler
}

// APIHandler implements the link management endpoints.
type APIHandler struct {
	logger    *zap.Logger
	links     service.ShortLinkService
	publicURL string
	auth      fiber.Handler
}

// NewAPIHandler creates an API handler with the provided dependencies.
func NewAPIHandler(deps APIDeps) *APIHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandler{
		logger:    logger,
		links:     deps.Links,
		publicURL: strings.TrimRight(deps.PublicURL, "/"),
		auth:      deps.Auth,
	}
}

// Register wires API routes onto the provided router.
func (h *APIHandler) Register(router fiber.Router) {
	api := router.Group("/api", chain(h.auth)...)
	{
		links := api.Group("/links")
		{
			links.Post("/", h.GenerateLink)
			links.Post("/short", h.ShortenLink)
			links.Get("/", h.ListLinks)
			links.Get("/:id", h.GetLink)
			links.Delete("/:id", h.DeleteLink)
		}
	}
}

// GenerateLinkRequest is the body of POST /api/links.
type GenerateLinkRequest struct {
	ProfileID         string          `json:"profileId"`
	UTM               model.UTMParams `json:"utm"`
	GenerateShortCode bool            `json:"generateShortCode"`
}

// ShortenLinkRequest is the body of POST /api/links/short.
type ShortenLinkRequest struct {
	ProfileID string `json:"profileId"`
	URL       string `json:"url"`
}

// LinkResponse is a stored link plus its public short URL.
type LinkResponse struct {
	ID        string          `json:"id"`
	ProfileID string          `json:"profileId"`
	FullURL   string          `json:"fullUrl"`
	UTM       model.UTMParams `json:"utmParams"`
	ShortCode *string         `json:"shortCode"`
	ShortURL  *string         `json:"shortUrl"`
	Clicks    int64           `json:"clicks"`
	CreatedAt time.Time       `json:"createdAt"`
}

// GenerateLink handles POST /api/links
func (h *APIHandler) GenerateLink(c *fiber.Ctx) error {
	var req GenerateLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.ProfileID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "profileId is required",
		})
	}

	link, err := h.links.Generate(c.UserContext(), middleware.UserID(c), service.GenerateLinkInput{
		ProfileID:         req.ProfileID,
		UTM:               req.UTM,
		GenerateShortCode: req.GenerateShortCode,
	})
	if err != nil {
		return respondError(c, h.logger, "failed to generate link", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "UTM link generated successfully",
		"link":    h.toResponse(link),
	})
}

// ShortenLink handles POST /api/links/short
func (h *APIHandler) ShortenLink(c *fiber.Ctx) error {
	var req ShortenLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	link, err := h.links.Create(c.UserContext(), middleware.UserID(c), req.ProfileID, req.URL)
	if err != nil {
		return respondError(c, h.logger, "failed to create short link", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"link": h.toResponse(link),
	})
}

// ListLinks handles GET /api/links
func (h *APIHandler) ListLinks(c *fiber.Ctx) error {
	links, err := h.links.List(c.UserContext(), middleware.UserID(c), c.Query("profileId"))
	if err != nil {
		return respondError(c, h.logger, "failed to list links", err)
	}

	items := make([]LinkResponse, len(links))
	for i := range links {
		items[i] = h.toResponse(&links[i])
	}
	return c.JSON(fiber.Map{
		"items": items,
	})
}

// GetLink handles GET /api/links/:id
func (h *APIHandler) GetLink(c *fiber.Ctx) error {
	link, err := h.links.Get(c.UserContext(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, "failed to get link", err)
	}
	return c.JSON(h.toResponse(link))
}

// DeleteLink handles DELETE /api/links/:id
func (h *APIHandler) DeleteLink(c *fiber.Ctx) error {
	if err := h.links.Delete(c.UserContext(), middleware.UserID(c), c.Params("id")); err != nil {
		return respondError(c, h.logger, "failed to delete link", err)
	}
	return c.JSON(fiber.Map{
		"message": "Link deleted successfully",
	})
}

func (h *APIHandler) toResponse(link *model.ShortLink) LinkResponse {
	resp := LinkResponse{
		ID:        link.ID,
		ProfileID: link.ProfileID,
		FullURL:   link.FullURL,
		UTM:       link.UTM,
		ShortCode: link.Code,
		Clicks:    link.Clicks,
		CreatedAt: link.CreatedAt,
	}
	if code := link.ShortCode(); code != "" {
		shortURL := fmt.Sprintf("%s/r/%s", h.publicURL, code)
		resp.ShortURL = &shortURL
	}
	return resp
}
