package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vitaleevo/namtechpro-sub001/internal/config"
	"github.com/vitaleevo/namtechpro-sub001/internal/database"
	"github.com/vitaleevo/namtechpro-sub001/internal/handler"
	"github.com/vitaleevo/namtechpro-sub001/internal/middleware"
	"github.com/vitaleevo/namtechpro-sub001/internal/repository"
	"github.com/vitaleevo/namtechpro-sub001/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	cfg := config.Load()

	// Database
	db, err := database.NewPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(context.Background(), db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations applied successfully")

	// Repositories
	sessionRepo := repository.NewSessionRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	leadRepo := repository.NewLeadRepository(db)

	// Services
	hub := service.NewChatHub()
	webhooks := service.NewOpsWebhookService(cfg.SupportWebhookURL, cfg.LeadsWebhookURL)
	sessionSvc := service.NewSessionService(sessionRepo, hub)
	handoffSvc := service.NewHandoffService(sessionRepo, messageRepo, hub, webhooks)
	chatSvc := service.NewChatService(sessionRepo, messageRepo, service.NewBotScript(), handoffSvc, hub)
	sweeper := service.NewIdleSweeper(sessionRepo, hub, cfg.ChatIdleTimeout)

	// Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
		BodyLimit:    1 * 1024 * 1024, // 1MB
	})

	app.Use(recover.New())
	app.Use(middleware.Logger())
	app.Use(middleware.CORS(cfg.AllowedOrigins))

	// Health
	healthH := handler.NewHealthHandler(db)
	app.Get("/health", healthH.Health)
	app.Get("/ready", healthH.Ready)

	// API v1
	v1 := app.Group("/api/v1")

	// Visitor chat widget (public, rate-limited)
	chatH := handler.NewChatHandler(sessionSvc, chatSvc)
	chat := v1.Group("/chat", middleware.RateLimit(60, time.Minute))
	chat.Post("/sessions", chatH.StartSession)
	chat.Get("/sessions/:id", chatH.GetSession)
	chat.Put("/sessions/:id/name", chatH.SetName)
	chat.Post("/sessions/:id/messages", chatH.SendMessage)
	chat.Post("/sessions/:id/select", chatH.SelectOption)
	chat.Get("/sessions/:id/messages", chatH.GetMessages)

	// Contact leads (public intake)
	leadH := handler.NewLeadHandler(leadRepo, webhooks)
	v1.Post("/leads", middleware.RateLimit(10, time.Minute), leadH.Create)

	// Operator console (JWT from the identity provider)
	operatorH := handler.NewOperatorHandler(sessionSvc, chatSvc, handoffSvc)
	console := v1.Group("/console", middleware.OperatorAuth(cfg.JWTSecret))
	console.Get("/sessions", operatorH.ListSessions)
	console.Get("/sessions/attention", operatorH.ListAttention)
	console.Get("/sessions/:id/messages", operatorH.GetMessages)
	console.Post("/sessions/:id/claim", operatorH.Claim)
	console.Post("/sessions/:id/release", operatorH.Release)
	console.Post("/sessions/:id/close", operatorH.Close)
	console.Post("/sessions/:id/messages", operatorH.SendMessage)
	console.Get("/leads", leadH.List)

	// WebSocket (widget + console push)
	wsH := handler.NewWSHandler(hub, sessionSvc, cfg.JWTSecret)
	app.Get("/ws", wsH.Upgrade)

	// Background workers
	go hub.Run()
	if err := sweeper.Start(cfg.ChatSweepInterval); err != nil {
		log.Fatalf("Failed to start idle sweeper: %v", err)
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	log.Printf("NamTech Pro backend running on :%s (%s)", cfg.Port, cfg.Env)

	<-quit
	log.Println("Shutting down...")
	_ = app.ShutdownWithTimeout(5 * time.Second)
	sweeper.Stop()
	hub.Shutdown()
	log.Println("Server stopped")
}
