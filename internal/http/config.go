package http

import (
	"github.com/mrlokans/librarium/internal/audit"
	"github.com/mrlokans/librarium/internal/auth"
	"github.com/mrlokans/librarium/internal/catalog"
	"github.com/mrlokans/librarium/internal/config"
	"github.com/mrlokans/librarium/internal/database"
	"github.com/mrlokans/librarium/internal/lending"
	"github.com/mrlokans/librarium/internal/ratings"
	"github.com/mrlokans/librarium/internal/storage"
	"github.com/mrlokans/librarium/internal/tasks"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router. This replaces a long parameter list
// in NewRouter for better maintainability.
type RouterConfig struct {
	// Core dependencies
	Database       *database.Database
	CatalogService *catalog.Service
	LendingService *lending.Service
	RatingsService *ratings.Service
	AuditService   *audit.Service
	FileStore      *storage.FileStore

	// Authentication
	AuthService    *auth.Service
	AuthMiddleware *auth.Middleware
	SessionManager *auth.SessionManager
	AuthConfig     config.Auth
	CSRFSecret     []byte
	SecureCookies  bool

	// Task queue client (optional)
	TaskClient *tasks.Client

	// Application info
	Version string
}
