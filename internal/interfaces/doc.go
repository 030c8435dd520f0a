// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Storage
//
//   - catalog.FileStore: on-disk book file storage (internal/catalog/service.go)
//
// ## Background Maintenance
//
//   - tasks.ExpiredLoanRevoker / scheduler.LoanSweeper: revoke overdue loans
//     (internal/tasks/revoke_expired.go, internal/scheduler/expiry_sweep.go)
//   - tasks.SweepRecorder: record sweep outcomes in the audit log
//   - tasks.AuditEventCleaner: prune old audit events
//
// # Adding a New Background Task
//
// To add a new queued maintenance task:
//
//  1. Define the task and its queue in internal/tasks/
//
//     type RebuildSearchIndexTask struct{}
//
//     func (t RebuildSearchIndexTask) Config() backlite.QueueConfig {
//         return backlite.QueueConfig{Name: "rebuild_search_index", ...}
//     }
//
//  2. Register the queue in internal/entrypoint/entrypoint.go
//
//  3. Expose it in the admin task controller (internal/http/tasks.go)
package interfaces
