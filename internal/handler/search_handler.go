package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/brightdocs/brightdocs/internal/domain"
	"github.com/brightdocs/brightdocs/internal/port"
	"github.com/brightdocs/brightdocs/internal/service"
)

// SearchHandler exposes the semantic search endpoint.
type SearchHandler struct {
	search       *service.SearchService
	defaultLimit int
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(search *service.SearchService, defaultLimit int) *SearchHandler {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	return &SearchHandler{search: search, defaultLimit: defaultLimit}
}

// Register sets up the search route.
func (h *SearchHandler) Register(router fiber.Router) {
	router.Post("/search", h.Search)
}

// Search answers a natural-language query with ranked, excerpted results.
func (h *SearchHandler) Search(c fiber.Ctx) error {
	var body struct {
		Query      string `json:"query"`
		Limit      *int   `json:"limit"`
		CategoryID string `json:"categoryId"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	limit := h.defaultLimit
	if body.Limit != nil {
		limit = *body.Limit
	}

	results, err := h.search.Search(c.Context(), body.Query, limit, body.CategoryID)
	if err != nil {
		if errors.Is(err, port.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		slog.Error("search failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "search failed"})
	}

	if results == nil {
		results = []domain.SearchResult{}
	}
	return c.JSON(fiber.Map{"results": results})
}
