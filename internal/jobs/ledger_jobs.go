package jobs

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"payhub-backend/internal/logger"
	"payhub-backend/internal/repository"
)

// AuditResult summarises one pass of AuditLedgerStatuses
type AuditResult struct {
	Audited  int
	Repaired int64
	Failed   int64
}

// AuditLedgerStatuses recomputes the status of recently changed ledgers and
// repairs any that no longer match their fees, remissions and payments.
func (jr *JobRunner) AuditLedgerStatuses() {
	jr.runWithRecovery("AuditLedgerStatuses", func() {
		result, err := jr.auditLedgerStatuses(context.Background())
		if err != nil {
			logger.Error("Failed to audit ledger statuses", "error", err)
			return
		}
		logger.Info("Audited ledger statuses",
			"audited", result.Audited,
			"repaired", result.Repaired,
			"failed", result.Failed)
	})
}

func (jr *JobRunner) auditLedgerStatuses(ctx context.Context) (AuditResult, error) {
	cfg := jr.config.Scheduler
	until := jr.now()
	cursor := repository.LedgerCursor{DateUpdated: until.Add(-time.Duration(cfg.AuditLookbackHours) * time.Hour)}

	var (
		audited          int
		repaired, failed atomic.Int64
	)
	for {
		page, err := jr.repos.Ledgers.ListUpdatedAfter(ctx, cursor, until, cfg.AuditBatchSize)
		if err != nil {
			return AuditResult{Audited: audited, Repaired: repaired.Load(), Failed: failed.Load()}, err
		}

		var g errgroup.Group
		g.SetLimit(cfg.AuditConcurrency)
		for _, c := range page {
			ref := c.Reference
			g.Go(func() error {
				status, drifted, err := jr.services.Ledger.RecalculateStatus(ctx, ref)
				if err != nil {
					// one bad ledger must not stop the rest of the batch
					logger.Error("Failed to recalculate ledger status", "reference", ref, "error", err)
					failed.Add(1)
					return nil
				}
				if drifted {
					logger.Info("Repaired ledger status", "reference", ref, "status", status)
					repaired.Add(1)
				}
				return nil
			})
		}
		_ = g.Wait()
		audited += len(page)

		if len(page) < cfg.AuditBatchSize {
			break
		}
		cursor = page[len(page)-1]
	}

	return AuditResult{Audited: audited, Repaired: repaired.Load(), Failed: failed.Load()}, nil
}
