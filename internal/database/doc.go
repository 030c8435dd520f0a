// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations
//	├── sections/        # Section CRUD
//	├── books/           # Book CRUD and search
//	├── lending/         # Book requests and issued books
//	├── ratings/         # Book ratings
//	├── audit/           # Audit event log
//	└── users/           # User lookups
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	// Initialize database connection
//	db, err := database.NewDatabase("./librarium.db")
//
//	// Create domain-specific repositories
//	sectionsRepo := sections.NewRepository(db.DB)
//	lendingRepo := lending.NewRepository(db.DB)
//
// Repositories own the queries; business rules and transaction boundaries
// live in the service packages (internal/lending, internal/catalog,
// internal/ratings), which construct per-transaction repositories where
// multi-step operations must be atomic.
package database
