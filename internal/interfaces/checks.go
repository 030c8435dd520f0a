package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/librarium/internal/audit"
	"github.com/mrlokans/librarium/internal/catalog"
	"github.com/mrlokans/librarium/internal/lending"
	"github.com/mrlokans/librarium/internal/scheduler"
	"github.com/mrlokans/librarium/internal/storage"
	"github.com/mrlokans/librarium/internal/tasks"
)

// =============================================================================
// Storage
// =============================================================================

// FileStore implementations
var _ catalog.FileStore = (*storage.FileStore)(nil)

// =============================================================================
// Background Maintenance
// =============================================================================

// Expired loan sweeping implementations
var _ tasks.ExpiredLoanRevoker = (*lending.Service)(nil)
var _ scheduler.LoanSweeper = (*lending.Service)(nil)

// SweepRecorder implementations
var _ tasks.SweepRecorder = (*audit.Service)(nil)

// AuditEventCleaner implementations
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)
