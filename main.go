package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/Tormknd/RecipeMe/config"
	"github.com/Tormknd/RecipeMe/handlers"
	"github.com/Tormknd/RecipeMe/internal/acquire"
	"github.com/Tormknd/RecipeMe/internal/extract"
	"github.com/Tormknd/RecipeMe/internal/gemini"
	"github.com/Tormknd/RecipeMe/internal/jobs"
	"github.com/Tormknd/RecipeMe/internal/ratelimit"
	"github.com/Tormknd/RecipeMe/internal/store"
	"github.com/Tormknd/RecipeMe/internal/worker"
	"github.com/Tormknd/RecipeMe/middleware"
)

func main() {
	config.InitLogger()
	log := config.Log

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	if err := config.InitSupabase(cfg); err != nil {
		log.Fatalf("Failed to initialize Supabase: %v", err)
	}

	supabaseStore := store.NewSupabaseStore(config.SupabaseClient, log)

	dispatcher := worker.NewDispatcher(cfg.Workers, cfg.QueueSize, log)
	dispatcher.Run()

	reaper := jobs.NewReaper(supabaseStore, log)
	orchestrator := jobs.NewOrchestrator(
		supabaseStore,
		reaper,
		ratelimit.NewLimiter(supabaseStore, log),
		supabaseStore,
		acquire.NewAcquirer(acquire.NewScraperClient(cfg.ScraperURL, log), acquire.NewReader(), log),
		extract.NewExtractor(gemini.NewClient(cfg.GeminiAPIKey, log, gemini.WithModel(cfg.GeminiModel)), log),
		dispatcher,
		log,
	)

	handler := handlers.NewApplicationHandler(supabaseStore, orchestrator, reaper, log)

	app := fiber.New(fiber.Config{
		// Up to 5 images of 10 MB each plus multipart overhead.
		BodyLimit: 52 * 1024 * 1024,
	})

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000",
		AllowHeaders:     "Origin, Content-Type, Accept, X-User-ID",
		AllowCredentials: true,
	}))
	app.Use(middleware.RequestLogger())

	// Health check route
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  "ok",
			"message": "RecipeMe API is healthy",
		})
	})

	// API v1 routes, all scoped to the authenticated user
	apiV1 := app.Group("/api/v1", middleware.RequireUser())

	apiV1.Post("/recipes/ingest", handler.IngestRecipe)
	apiV1.Get("/recipes/:id/status", handler.GetRecipeStatus)
	apiV1.Post("/recipes/:id/retry", handler.RetryRecipe)

	apiV1.Get("/recipes", handler.ListRecipes)
	apiV1.Post("/recipes", handler.CreateRecipe)
	apiV1.Get("/recipes/:id", handler.GetRecipe)
	apiV1.Patch("/recipes/:id", handler.UpdateRecipe)
	apiV1.Put("/recipes/:id/notes", handler.UpdateRecipeNotes)
	apiV1.Delete("/recipes/:id", handler.DeleteRecipe)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info("Shutting down...")
		_ = app.Shutdown()
	}()

	log.Infof("Starting RecipeMe API on port %s...", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}

	// Let in-flight background jobs finish writing their terminal state.
	dispatcher.Stop()
}
