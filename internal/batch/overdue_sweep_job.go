package batch

import (
	"context"
	"credit-ledger/internal/domain/loan"
	"credit-ledger/internal/domain/shopkeeper"
	"credit-ledger/internal/event"
	"credit-ledger/internal/infrastructure/monitoring"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// OverdueSweepJob walks every shopkeeper's book once a day and publishes one
// event per overdue loan so the notification surface can alert the owner.
type OverdueSweepJob struct {
	shopkeeperRepo shopkeeper.Repository
	ledger         loan.LedgerService
	pub            event.EventPublisher
	clock          loan.Clock
	logger         *slog.Logger
}

func NewOverdueSweepJob(
	shopkeeperRepo shopkeeper.Repository,
	ledger loan.LedgerService,
	pub event.EventPublisher,
	clock loan.Clock,
	logger *slog.Logger,
) *OverdueSweepJob {
	if shopkeeperRepo == nil || ledger == nil || logger == nil {
		panic("OverdueSweepJob dependencies cannot be nil")
	}
	if clock == nil {
		clock = time.Now
	}
	return &OverdueSweepJob{
		shopkeeperRepo: shopkeeperRepo,
		ledger:         ledger,
		pub:            pub,
		clock:          clock,
		logger:         logger.With("job", "OverdueSweep"),
	}
}

func (j *OverdueSweepJob) Run(ctx context.Context) error {
	startTime := time.Now()
	today := j.clock()
	j.logger.InfoContext(ctx, "Starting daily overdue sweep job.")

	shopkeeperIDs, err := j.shopkeeperRepo.ListIDs(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to list shopkeepers, aborting job.", slog.Any("error", err))
		return fmt.Errorf("cannot run job, failed to list shopkeepers: %w", err)
	}
	j.logger.InfoContext(ctx, "Fetched shopkeeper IDs.", slog.Int("count", len(shopkeeperIDs)))

	if len(shopkeeperIDs) == 0 {
		j.logger.InfoContext(ctx, "No shopkeepers found to process.")
		j.logger.InfoContext(ctx, "Overdue sweep job finished.", slog.Duration("duration", time.Since(startTime)))
		return nil
	}

	var wg sync.WaitGroup
	var processedCount, overdueCount, publishedCount, errorCount atomic.Int32

	for _, ownerID := range shopkeeperIDs {
		wg.Add(1)
		go func(currentOwnerID int64) {
			defer wg.Done()

			logCtx := j.logger.With(slog.Int64("ownerID", currentOwnerID))

			logCtx.DebugContext(ctx, "Computing overdue accounts for shopkeeper.")
			overdue, err := j.ledger.OverdueAccounts(ctx, currentOwnerID, today)
			if err != nil {
				logCtx.ErrorContext(ctx, "Failed to compute overdue accounts", slog.Any("error", err))
				errorCount.Add(1)
				return
			}

			overdueCount.Add(int32(len(overdue)))
			for _, acct := range overdue {
				if j.pub == nil {
					continue
				}
				ev := event.LoanOverdueEvent{
					OwnerID:      currentOwnerID,
					LoanID:       acct.Loan.ID,
					CustomerID:   acct.Loan.CustomerID,
					CustomerName: acct.CustomerName,
					Outstanding:  acct.Outstanding.StringFixed(2),
					DueDate:      acct.Loan.DueDate,
					Timestamp:    time.Now(),
				}
				if pubErr := j.pub.PublishLoanOverdue(ctx, ev); pubErr != nil {
					logCtx.ErrorContext(ctx, "Failed to publish overdue event",
						slog.Int64("loanID", acct.Loan.ID), slog.Any("error", pubErr))
					errorCount.Add(1)
					continue
				}
				monitoring.RecordOverdueNotification()
				publishedCount.Add(1)
			}
			processedCount.Add(1)

		}(ownerID)
	}

	wg.Wait()
	duration := time.Since(startTime)
	summaryLog := j.logger.With(
		slog.Duration("duration", duration),
		slog.Int("total_shopkeepers", len(shopkeeperIDs)),
		slog.Int("shopkeepers_processed", int(processedCount.Load())),
		slog.Int("loans_found_overdue", int(overdueCount.Load())),
		slog.Int("events_published", int(publishedCount.Load())),
		slog.Int("errors_encountered", int(errorCount.Load())),
	)
	if errorCount.Load() > 0 {
		summaryLog.WarnContext(ctx, "Overdue sweep job finished with errors.")
		return fmt.Errorf("job completed with %d errors", errorCount.Load())
	}

	summaryLog.InfoContext(ctx, "Overdue sweep job finished successfully.")
	return nil
}
