package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// ExpiredLoanRevoker provides the ability to revoke loans whose return
// date has passed.
type ExpiredLoanRevoker interface {
	RevokeExpired() (int64, error)
}

// SweepRecorder records the outcome of an expiry sweep in the audit log.
type SweepRecorder interface {
	LogSweep(revoked int64, err error)
}

// RevokeExpiredTask sweeps issued books and revokes every loan past its
// return date. The sweep itself is idempotent, so retries are safe.
type RevokeExpiredTask struct{}

// Config returns the queue configuration for expiry sweep tasks.
func (t RevokeExpiredTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "revoke_expired",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// RevokeExpiredProcessor creates a processor function for RevokeExpiredTask.
// The recorder is optional; when nil the sweep is not audited.
func RevokeExpiredProcessor(revoker ExpiredLoanRevoker, recorder SweepRecorder) backlite.QueueProcessor[RevokeExpiredTask] {
	return func(ctx context.Context, task RevokeExpiredTask) error {
		if revoker == nil {
			return fmt.Errorf("loan revoker not configured")
		}

		revoked, err := revoker.RevokeExpired()
		if recorder != nil {
			recorder.LogSweep(revoked, err)
		}
		if err != nil {
			return fmt.Errorf("revoke expired loans: %w", err)
		}

		if revoked > 0 {
			log.Printf("[TASK] Revoked %d expired loans", revoked)
		}
		return nil
	}
}

// NewRevokeExpiredQueue creates a backlite queue for expiry sweep tasks.
func NewRevokeExpiredQueue(revoker ExpiredLoanRevoker, recorder SweepRecorder) backlite.Queue {
	return backlite.NewQueue(RevokeExpiredProcessor(revoker, recorder))
}
