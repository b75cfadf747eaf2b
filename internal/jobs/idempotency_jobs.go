package jobs

import (
	"context"

	"payhub-backend/internal/logger"
)

// PurgeIdempotencyRecords deletes stored responses older than the retention window
func (jr *JobRunner) PurgeIdempotencyRecords() {
	jr.runWithRecovery("PurgeIdempotencyRecords", func() {
		deleted, err := jr.purgeIdempotencyRecords(context.Background())
		if err != nil {
			logger.Error("Failed to purge idempotency records", "error", err)
			return
		}
		logger.Info("Purged idempotency records", "deleted", deleted)
	})
}

func (jr *JobRunner) purgeIdempotencyRecords(ctx context.Context) (int64, error) {
	cutoff := jr.now().Add(-jr.config.Idempotency.Retention())
	return jr.repos.Idempotency.DeleteOlderThan(ctx, cutoff)
}
