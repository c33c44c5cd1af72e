package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"coop-memberhub/internal/adapters/http/middleware"
	"coop-memberhub/internal/adapters/http/routes"
	"coop-memberhub/internal/adapters/persistence/models"
	"coop-memberhub/internal/config"
	"coop-memberhub/internal/core/domain"
	"coop-memberhub/internal/core/services"

	"github.com/gofiber/fiber/v2"

	_ "coop-memberhub/docs" // Swagger docs
)

// @title Coop MemberHub API
// @version 1.0
// @description Organizational hierarchy and member transfer workflow API
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@coop.example.org

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host api.coop.example.org
// @BasePath /api/v1
// @schemes https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase(db)

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	// Seed root unit and admin account
	if err := config.NewSeeder(db).Run(); err != nil {
		log.Printf("⚠️ Warning: Failed to seed database: %v", err)
	}

	// Role capability table, shared by reference with the services
	perms := domain.DefaultPermissions()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Coop MemberHub API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes (pass db and cfg for dependency injection)
	transferService := routes.Setup(app, db, cfg, perms)

	// Start expiration sweep scheduler
	sweepService := services.NewSweepService(transferService, cfg.Transfer.SweepSchedule)
	if err := sweepService.Start(); err != nil {
		log.Fatalf("❌ Failed to start sweep scheduler: %v", err)
	}
	defer sweepService.Stop()

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
