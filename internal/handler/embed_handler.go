package handler

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/brightdocs/brightdocs/internal/port"
	"github.com/brightdocs/brightdocs/internal/service"
)

// EmbedHandler exposes the content ingestion endpoint.
type EmbedHandler struct {
	ingest *service.IngestService
}

// NewEmbedHandler creates a new embed handler.
func NewEmbedHandler(ingest *service.IngestService) *EmbedHandler {
	return &EmbedHandler{ingest: ingest}
}

// Register sets up the embed route.
func (h *EmbedHandler) Register(router fiber.Router) {
	router.Post("/embed", h.Embed)
}

// Embed re-ingests one content item: chunk, embed, and replace its stored
// chunk set.
func (h *EmbedHandler) Embed(c fiber.Ctx) error {
	var body struct {
		ContentItemID string `json:"contentItemId"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(body.ContentItemID) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "contentItemId is required"})
	}

	chunksCreated, err := h.ingest.Ingest(c.Context(), body.ContentItemID)
	if err != nil {
		if errors.Is(err, port.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		// Provider, store, and not-found failures are not distinguished to
		// the caller at this boundary.
		slog.Error("ingestion failed", "content_item_id", body.ContentItemID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to embed content"})
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"chunksCreated": chunksCreated,
	})
}
