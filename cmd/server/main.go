package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"concierge/internal/config"
	"concierge/internal/database"
	"concierge/internal/handlers"
	"concierge/internal/locale"
	"concierge/internal/logging"
	"concierge/internal/services"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting Concierge Server...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	}

	// Load and validate configuration; missing credentials fail here, before
	// any message is processed.
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}
	log.Printf("📋 Configuration loaded (Port: %s)", cfg.Port)

	// MongoDB
	db, err := database.NewMongoDB(cfg.MongoURI)
	if err != nil {
		log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
	}
	defer db.Close(context.Background())

	// Localization catalogs
	catalog, err := locale.Load(cfg.LocalesDir)
	if err != nil {
		log.Fatalf("❌ Failed to load locale catalogs: %v", err)
	}

	// Services
	userService := services.NewUserService(db)
	assistantService := services.NewAssistantService(cfg, userService)
	telegramService := services.NewTelegramService(cfg.TelegramBotToken)
	calendarService := services.NewCalendarService(db)

	extractionService := services.NewExtractionService(assistantService, catalog)
	commandClassifier := services.NewCommandClassifier(userService, telegramService, catalog, calendarService)
	registrationService := services.NewRegistrationService(userService, extractionService, catalog)
	contextBuilder := services.NewContextBuilder(catalog)

	router := services.NewMessageRouter(
		userService,
		assistantService,
		telegramService,
		commandClassifier,
		registrationService,
		contextBuilder,
	)

	// Handlers
	webhookHandler := handlers.NewWebhookHandler(cfg, router, telegramService)
	healthHandler := handlers.NewHealthHandler()

	// Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Concierge v1.0",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	// Prometheus metrics middleware
	prometheus := fiberprometheus.New("concierge")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// Routes
	app.Get("/health", healthHandler.Handle)
	app.Post("/webhook/:secret", webhookHandler.TelegramWebhook)

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")
		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	log.Printf("✅ Server listening on :%s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Server error: %v", err)
	}

	log.Println("👋 Server stopped")
}
