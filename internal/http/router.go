package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarium/internal/auth"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies, improving testability
// and reducing parameter count.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())

	// Apply CSRF protection if auth is enabled
	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies, cfg.AuthService))
	}

	// Session runs after CSRF so session context isn't overwritten by
	// CSRF's request replacement
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}

	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	}

	// Register auth routes if auth service is available
	if cfg.AuthService != nil && cfg.AuthService.IsAuthEnabled() {
		authController := auth.NewAuthController(cfg.AuthService, cfg.SessionManager, cfg.AuthConfig)
		authController.RegisterRoutes(router)
	}

	health := NewHealthController(cfg.Database, cfg.Version)
	sectionsController := NewSectionsController(cfg.CatalogService, cfg.AuditService)
	booksController := NewBooksController(cfg.CatalogService, cfg.LendingService, cfg.FileStore, cfg.AuditService)
	lendingController := NewLendingController(cfg.LendingService, cfg.AuditService)
	ratingsController := NewRatingsController(cfg.RatingsService)
	statsController := NewStatsController(cfg.CatalogService)
	auditController := NewAuditController(cfg.AuditService)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Catalog browsing
	router.GET("/api/sections", sectionsController.ListSections)
	router.GET("/api/sections/:id", sectionsController.GetSection)
	router.GET("/api/sections/:id/books", sectionsController.GetSectionBooks)
	router.GET("/api/books", booksController.ListBooks)
	router.GET("/api/books/:id", booksController.GetBook)
	router.GET("/api/search", booksController.Search)
	router.GET("/api/books/:id/ratings", ratingsController.BookRatings)

	// Reader endpoints
	router.GET("/api/books/:id/download", booksController.DownloadBook)
	router.POST("/api/books/:id/request", lendingController.RequestBook)
	router.DELETE("/api/books/:id/request", lendingController.CancelRequest)
	router.POST("/api/books/:id/return", lendingController.ReturnBook)
	router.POST("/api/books/:id/ratings", ratingsController.RateBook)
	router.GET("/api/me/requests", lendingController.MyRequests)
	router.GET("/api/me/loans", lendingController.MyLoans)

	// Librarian endpoints
	admin := router.Group("/api/admin")
	if cfg.AuthMiddleware != nil {
		admin.Use(cfg.AuthMiddleware.RequireAdmin())
	}

	// The explicit sweep endpoint stays outside the swept group so it
	// reports the loans it revoked itself.
	admin.POST("/loans/sweep", lendingController.SweepExpired)

	// Expired loans are revoked at admin request entry so listings never
	// show loans that are already past due.
	swept := admin.Group("", lendingController.SweepOnEntry())

	swept.POST("/sections", sectionsController.CreateSection)
	swept.PATCH("/sections/:id", sectionsController.UpdateSection)
	swept.DELETE("/sections/:id", sectionsController.DeleteSection)
	swept.POST("/books", booksController.CreateBook)
	swept.PATCH("/books/:id", booksController.UpdateBook)
	swept.DELETE("/books/:id", booksController.DeleteBook)

	swept.GET("/requests", lendingController.ListRequests)
	swept.POST("/requests/:id/approve", lendingController.ApproveRequest)
	swept.POST("/requests/:id/reject", lendingController.RejectRequest)
	swept.GET("/loans", lendingController.ListLoans)
	swept.DELETE("/loans/:id", lendingController.RevokeLoan)

	swept.GET("/stats", statsController.GetStatistics)
	swept.GET("/audit", auditController.GetAuditEvents)

	// Task management endpoints
	if cfg.TaskClient != nil {
		tasksController := NewTasksController(cfg.TaskClient)
		swept.GET("/tasks/types", tasksController.ListTaskTypes)
		swept.GET("/tasks/:id", tasksController.GetTaskStatus)
		swept.POST("/tasks/:type/run", tasksController.RunTask)
	}

	return router
}
