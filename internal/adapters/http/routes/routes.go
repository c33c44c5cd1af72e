package routes

import (
	"time"

	"coop-memberhub/internal/adapters/http/handlers"
	"coop-memberhub/internal/adapters/http/middleware"
	"coop-memberhub/internal/adapters/persistence/repositories"
	"coop-memberhub/internal/config"
	"coop-memberhub/internal/core/domain"
	"coop-memberhub/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Setup configures all routes for the application and returns the transfer
// service so the caller can hand it to the sweep scheduler.
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config, perms *domain.Permissions) *services.TransferService {
	// Initialize repositories
	orgRepo := repositories.NewOrgRepository(db)
	memberRepo := repositories.NewMemberRepository(db)
	transferRepo := repositories.NewTransferRepository(db)
	logRepo := repositories.NewApprovalLogRepository(db)

	// Initialize services
	notifyService := services.NewNotificationService()
	scopeService := services.NewScopeService(orgRepo)
	orgService := services.NewOrgService(db, orgRepo, memberRepo)
	memberService := services.NewMemberService(memberRepo, orgRepo, perms)
	transferService := services.NewTransferService(
		db,
		transferRepo,
		logRepo,
		orgRepo,
		memberRepo,
		scopeService,
		notifyService,
		perms,
		cfg.Transfer.GraceMonths,
	)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg, db)
	orgHandler := handlers.NewOrgHandler(orgService, scopeService, memberService)
	memberHandler := handlers.NewMemberHandler(memberService)
	transferHandler := handlers.NewTransferHandler(transferService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	// Org routes
	orgRoutes := apiV1.Group("/org")
	orgRoutes.Use(middleware.AuthMiddleware(cfg))
	setupOrgRoutes(orgRoutes, orgHandler, perms)

	// Member directory routes (Officer/Admin)
	memberRoutes := apiV1.Group("/members")
	memberRoutes.Use(middleware.AuthMiddleware(cfg))
	setupMemberRoutes(memberRoutes, memberHandler)

	// Transfer routes
	transferRoutes := apiV1.Group("/transfers")
	transferRoutes.Use(middleware.AuthMiddleware(cfg))
	setupTransferRoutes(transferRoutes, transferHandler)

	// Admin maintenance routes
	adminRoutes := apiV1.Group("/admin")
	adminRoutes.Use(middleware.AuthMiddleware(cfg))
	adminRoutes.Use(middleware.AdminOnly())
	adminRoutes.Post("/transfers/sweep", middleware.StrictRateLimiter(), transferHandler.Sweep)

	return transferService
}

// setupOrgRoutes configures org hierarchy routes
func setupOrgRoutes(router fiber.Router, handler *handlers.OrgHandler, perms *domain.Permissions) {
	// Reads (any authenticated caller); tree and scope tolerate short staleness
	router.Get("/tree", middleware.CacheControl(time.Minute), handler.GetTree)
	router.Get("/units/:id", handler.GetUnit)
	router.Get("/units/:id/scope", middleware.CacheControl(time.Minute), handler.GetScope)

	// Mutations and maintenance (permission-gated, ADMIN by default)
	manageRoutes := router.Group("")
	manageRoutes.Use(middleware.Permission(perms.CanManageOrg))

	manageRoutes.Post("/units", handler.CreateUnit)
	manageRoutes.Put("/units/:id", handler.UpdateUnit)
	manageRoutes.Delete("/units/:id", handler.DeleteUnit)
	manageRoutes.Post("/units/:id/repair-path", middleware.StrictRateLimiter(), handler.RepairPath)
	manageRoutes.Post("/units/:id/recount", middleware.StrictRateLimiter(), handler.Recount)

	// Unit member listing (Officer/Admin)
	officerRoutes := router.Group("")
	officerRoutes.Use(middleware.OfficerOrAdmin())
	officerRoutes.Get("/units/:id/members", handler.ListUnitMembers)
}

// setupMemberRoutes configures member directory routes (Officer/Admin)
func setupMemberRoutes(router fiber.Router, handler *handlers.MemberHandler) {
	router.Get("/search", middleware.OfficerOrAdmin(), handler.Search)
	router.Get("/:id", handler.GetByID)
}

// setupTransferRoutes configures transfer workflow routes
func setupTransferRoutes(router fiber.Router, handler *handlers.TransferHandler) {
	router.Post("/", middleware.WriteRateLimiter(), handler.Create)
	router.Get("/", handler.List)
	router.Get("/my", handler.ListMine)
	router.Get("/:id", middleware.NoCacheHeaders(), handler.GetByID)
	router.Get("/:id/logs", handler.GetLogs)
	router.Delete("/:id", handler.Cancel)

	// Approval stages (Officer/Admin; unit matching enforced by the service)
	approverRoutes := router.Group("")
	approverRoutes.Use(middleware.OfficerOrAdmin())
	approverRoutes.Put("/:id/out-approve", middleware.WriteRateLimiter(), handler.OutApprove)
	approverRoutes.Put("/:id/in-approve", middleware.WriteRateLimiter(), handler.InApprove)
}
