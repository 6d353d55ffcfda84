package jobs

import (
	"context"
	"fmt"
	"time"

	"gearloan-backend/internal/logger"
	"gearloan-backend/internal/repository"
	"gearloan-backend/internal/utils"

	"github.com/google/uuid"
)

// StockDrift is an item whose counters disagree with its bookings:
// available + held should always equal total.
type StockDrift struct {
	ItemID    uuid.UUID
	ItemName  string
	Available int32
	Held      int32
	Total     int32
}

// Missing is how many units the ledger cannot account for. Negative means
// more units are accounted for than exist.
func (d StockDrift) Missing() int32 {
	return d.Total - d.Available - d.Held
}

// FindStockDrift compares every item with the quantities held by approved
// and active bookings. It only reads; fixing drift is an admin decision.
func (jr *JobRunner) FindStockDrift(ctx context.Context) ([]StockDrift, error) {
	var drift []StockDrift
	err := jr.store.WithTx(ctx, func(repos repository.Repositories) error {
		items, err := repos.Items.List(ctx, repository.ItemFilter{})
		if err != nil {
			return fmt.Errorf("list items: %w", err)
		}
		held, err := repos.Bookings.HeldQuantities(ctx)
		if err != nil {
			return fmt.Errorf("held quantities: %w", err)
		}
		for _, it := range items {
			if it.AvailableStock+held[it.ID] != it.TotalStock {
				drift = append(drift, StockDrift{
					ItemID:    it.ID,
					ItemName:  it.Name,
					Available: it.AvailableStock,
					Held:      held[it.ID],
					Total:     it.TotalStock,
				})
			}
		}
		return nil
	})
	return drift, err
}

// ReconcileStock logs every item whose stock counters drifted
func (jr *JobRunner) ReconcileStock() {
	jr.runWithRecovery("ReconcileStock", func(ctx context.Context) error {
		drift, err := jr.FindStockDrift(ctx)
		if err != nil {
			return err
		}
		for _, d := range drift {
			logger.Error("Stock drift detected",
				"item_id", d.ItemID,
				"item_name", d.ItemName,
				"available", d.Available,
				"held", d.Held,
				"total", d.Total,
				"missing", d.Missing(),
			)
		}
		logger.Info("Stock reconciled", "drifted_items", len(drift))
		return nil
	})
}

// today is the current date in the booking time zone
func (jr *JobRunner) today() time.Time {
	return utils.TruncateToDate(jr.now().In(jr.config.Booking.Location()))
}

// ReportOverdueReturns logs active bookings whose end date has passed
func (jr *JobRunner) ReportOverdueReturns() {
	jr.runWithRecovery("ReportOverdueReturns", func(ctx context.Context) error {
		today := jr.today()
		overdue, err := jr.store.Repos().Bookings.ListOverdue(ctx, today)
		if err != nil {
			return fmt.Errorf("list overdue bookings: %w", err)
		}
		for _, b := range overdue {
			days := int(today.Sub(b.EndDate).Hours() / 24)
			logger.Warn("Booking overdue for return",
				"booking_id", b.ID,
				"user_id", b.UserID,
				"user_name", b.UserName,
				"end_date", utils.FormatDate(b.EndDate),
				"days_overdue", days,
			)
		}
		logger.Info("Overdue returns reported", "count", len(overdue))
		return nil
	})
}

// HealthProbe checks the store is reachable
func (jr *JobRunner) HealthProbe() {
	jr.runWithRecovery("HealthProbe", jr.probe)
}
