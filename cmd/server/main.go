package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/brightdocs/brightdocs/internal/adapter/ai"
	"github.com/brightdocs/brightdocs/internal/adapter/store"
	"github.com/brightdocs/brightdocs/internal/handler"
	"github.com/brightdocs/brightdocs/internal/mcp"
	"github.com/brightdocs/brightdocs/internal/middleware"
	"github.com/brightdocs/brightdocs/internal/port"
	"github.com/brightdocs/brightdocs/internal/service"
	"github.com/brightdocs/brightdocs/pkg/config"

	_ "github.com/lib/pq"
)

func main() {
	// ── Load .env file ───────────────────────────────────────────────────
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	// ── Configuration ────────────────────────────────────────────────────
	cfg := config.Load()

	slog.Info("🚀 Starting BrightDocs KB search",
		"port", cfg.Port,
		"embedding_provider", cfg.EmbeddingProvider,
		"embedding_dimension", cfg.EmbeddingDimension,
		"mcp_enabled", cfg.MCPEnabled,
	)

	// ── Database ─────────────────────────────────────────────────────────
	pgStore, err := store.NewPostgresStore(cfg.DatabaseURL, cfg.EmbeddingDimension)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pgStore.Close()

	vectorStore := store.NewVectorStore(pgStore, cfg.EmbeddingDimension)

	// ── Embedding provider ───────────────────────────────────────────────
	var provider port.EmbeddingProvider
	switch cfg.EmbeddingProvider {
	case "openai":
		provider = ai.NewOpenAIProvider(ai.OpenAIConfig{
			APIKey:     cfg.OpenAIAPIKey,
			Model:      cfg.OpenAIEmbedModel,
			MaxRetries: cfg.EmbedMaxRetries,
		})
	default:
		provider = ai.NewOllamaProvider(ai.OllamaConfig{
			BaseURL:    cfg.OllamaURL,
			Model:      cfg.OllamaEmbedModel,
			Token:      cfg.OllamaToken,
			MaxRetries: cfg.EmbedMaxRetries,
		})
	}

	// ── Services ─────────────────────────────────────────────────────────
	ingestService := service.NewIngestService(pgStore, provider, vectorStore, service.IngestConfig{
		Chunking: service.ChunkConfig{
			MaxSize: cfg.ChunkSize,
			Overlap: cfg.ChunkOverlap,
		},
		Dimension:   cfg.EmbeddingDimension,
		Concurrency: cfg.EmbedConcurrency,
	})
	searchService := service.NewSearchService(provider, vectorStore, service.SearchConfig{
		MaxLimit:      cfg.SearchMaxLimit,
		ExcerptLength: cfg.ExcerptLength,
	})

	// ── Fiber App ────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
	}))

	// Audit middleware (logs all requests)
	app.Use(middleware.AuditMiddleware(pgStore))

	// Health check
	app.Get("/api/v1/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"app":     cfg.AppName,
			"version": "1.0.0",
		})
	})

	// ── Protected Routes ─────────────────────────────────────────────────
	jwtMiddleware := middleware.JWTMiddleware(middleware.JWTConfig{
		Secret:    cfg.JWTSecret,
		Issuer:    cfg.JWTIssuer,
		ExpiresIn: time.Duration(cfg.JWTExpiration) * time.Hour,
	})

	api := app.Group("/", jwtMiddleware)

	embedHandler := handler.NewEmbedHandler(ingestService)
	embedHandler.Register(api)

	searchHandler := handler.NewSearchHandler(searchService, cfg.SearchDefaultLimit)
	searchHandler.Register(api)

	// ── MCP Server (separate port) ───────────────────────────────────────
	if cfg.MCPEnabled {
		mcpServer := mcp.NewServer(searchService, ingestService, cfg.MCPPort)
		go func() {
			if err := mcpServer.Start(); err != nil {
				slog.Error("MCP server failed", "error", err)
			}
		}()
	}

	// ── Start ────────────────────────────────────────────────────────────
	slog.Info("🌐 Fiber listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
