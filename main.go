package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/Ananth-NQI/orderbot-backend/database"
	"github.com/Ananth-NQI/orderbot-backend/internal/config"
	"github.com/Ananth-NQI/orderbot-backend/internal/handlers"
	"github.com/Ananth-NQI/orderbot-backend/internal/routes"
	"github.com/Ananth-NQI/orderbot-backend/internal/services"
	"github.com/Ananth-NQI/orderbot-backend/internal/storage"
)

const version = "1.0.0"

func main() {
	// Load .env file for local development
	if os.Getenv("INSTANCE_CONNECTION_NAME") == "" {
		if path := config.LoadEnvFiles(); path != "" {
			log.Printf("🔍 Loaded environment from %s", path)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Message catalog
	messages := services.DefaultMessages()
	if cfg.MessagesFile != "" {
		messages, err = services.LoadMessages(cfg.MessagesFile)
		if err != nil {
			log.Fatal("Failed to load messages:", err)
		}
		log.Printf("✅ Messages loaded from %s", cfg.MessagesFile)
	}

	// Initialize storage
	var archive storage.OrderArchive
	if cfg.UseMemoryStore {
		log.Println("⚠️  Using in-memory order archive (not for production!)")
		archive = storage.NewMemoryOrderArchive()
	} else {
		log.Println("📦 Connecting to PostgreSQL database...")
		db, err := database.Connect(cfg.Database)
		if err != nil {
			log.Fatal("Failed to connect to database:", err)
		}

		log.Println("🔄 Running database migrations...")
		if err := database.Migrate(db); err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
		log.Println("✅ Database migrations completed!")

		archive = storage.NewDatabaseOrderArchive(db)
		log.Println("✅ Using PostgreSQL order archive")
	}
	sessions := storage.NewMemorySessionStore()

	// Initialize Twilio service
	var sender services.Sender = services.LogSender{}
	if cfg.Twilio.Configured() {
		twilioService, err := services.NewTwilioService(cfg.Twilio)
		if err != nil {
			log.Fatal("Failed to initialize Twilio service:", err)
		}
		sender = twilioService
		log.Println("✅ Twilio service initialized")
	} else {
		log.Println("⚠️  Twilio credentials not found - replies will only be logged")
	}

	filter := services.NewAccessFilter(cfg.AllowedChats, cfg.BotIdentity)
	if filter.Size() == 0 {
		log.Println("⚠️  ALLOWED_CHATS is empty - no chat will be served")
	}

	extractor := services.NewLLMExtractor(messages,
		services.WithBaseURL(cfg.LLM.BaseURL),
		services.WithModel(cfg.LLM.Model),
		services.WithAPIKey(cfg.LLM.APIKey),
		services.WithSampling(cfg.LLM.Temperature, cfg.LLM.MaxTokens),
	)

	conversation := services.NewConversationService(sessions, archive, filter, extractor, sender, messages, services.ConversationConfig{
		FinalizeKeyword:  cfg.FinalizeKeyword,
		SilentFinalized:  cfg.FinalizedReply == config.FinalizedReplySilent,
		GreetingDelay:    cfg.GreetingDelay,
		ExtractorTimeout: cfg.ExtractorTimeout,
	})
	dispatcher := services.NewDispatcher(conversation, 0)

	log.Println("✅ All services initialized")

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "OrderBot Backend v" + version,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	routes.SetupRoutes(app, cfg, routes.Handlers{
		WhatsApp: handlers.NewWhatsAppHandler(dispatcher, conversation, cfg.BotIdentity),
		Health:   handlers.NewHealthHandler(version, storageType(cfg), cfg.Twilio.Configured(), archive, sessions),
		Orders:   handlers.NewOrderHandler(archive),
	})

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	drained := make(chan struct{})

	go func() {
		defer close(drained)
		<-c
		log.Println("\n🛑 Gracefully shutting down...")
		log.Println("⏹️  Shutting down server...")
		_ = app.Shutdown()
		log.Println("⏹️  Draining chat queues...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := dispatcher.Stop(ctx); err != nil {
			log.Printf("⚠️  Chat queues not drained: %v", err)
		}
	}()

	// Start server
	log.Println("========================================")
	log.Printf("🚀 OrderBot Backend starting on port %s", cfg.Port)
	log.Printf("📊 Archive: %s", storageType(cfg))
	log.Printf("🌍 Environment: %s", cfg.Environment)
	log.Printf("📱 WhatsApp: %s", whatsAppStatus(cfg))
	log.Printf("🤖 Extractor: %s (%s)", cfg.LLM.BaseURL, cfg.LLM.Model)
	log.Printf("👥 Allowed chats: %d", filter.Size())
	log.Println("========================================")

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
	<-drained
	log.Println("👋 Shutdown complete")
}

func storageType(cfg *config.Config) string {
	if cfg.UseMemoryStore {
		return "In-Memory (Testing)"
	}
	return "PostgreSQL Database"
}

func whatsAppStatus(cfg *config.Config) string {
	if !cfg.Twilio.Configured() {
		return "Not configured"
	}
	return "Configured"
}
