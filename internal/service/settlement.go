package service

import (
	"context"
	"fmt"
	"strings"

	"gearloan-backend/internal/domain"
	"gearloan-backend/internal/logger"
	"gearloan-backend/internal/repository"
	"gearloan-backend/internal/utils"

	"github.com/google/uuid"
)

// CompleteReturn settles a returned booking. Healthy units go back to
// available stock, broken units are retired from the total, fines and the
// final bill are computed here regardless of what the caller sent.
func (s *bookingService) CompleteReturn(ctx context.Context, caller domain.Caller, bookingID uuid.UUID, req ReturnRequest) (*ReturnResult, error) {
	logger.EnterMethod("bookingService.CompleteReturn", "bookingID", bookingID, "brokenRecords", len(req.Broken))

	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	reported := make(map[uuid.UUID]BrokenReport, len(req.Broken))
	for _, r := range req.Broken {
		if r.Count < 0 {
			return nil, domain.BadRequest("broken count for item %s must not be negative", r.ItemID)
		}
		if _, dup := reported[r.ItemID]; dup {
			return nil, domain.BadRequest("item %s is reported more than once", r.ItemID)
		}
		reported[r.ItemID] = r
	}

	var (
		result *ReturnResult
		prev   domain.BookingStatus
		moves  []stockMove
	)
	err := s.store.WithTx(ctx, func(repos repository.Repositories) error {
		b, err := repos.Bookings.GetForUpdate(ctx, bookingID)
		if err != nil {
			return notFoundAs(err, "booking %s", bookingID)
		}
		prev = b.Status
		if b.Status == domain.BookingStatusCompleted {
			return domain.Conflict("booking %s is already completed", bookingID)
		}
		if !b.Status.HoldsStock() {
			return domain.Conflict("booking %s is %s, only approved or active bookings can be returned", bookingID, b.Status)
		}

		for itemID := range reported {
			if itemID == uuid.Nil || b.LineForItem(itemID) == nil {
				return domain.BadRequest("item %s is not part of booking %s", itemID, bookingID)
			}
		}

		lines := make([]utils.SettlementLine, len(b.Lines))
		for i, l := range b.Lines {
			lines[i] = utils.SettlementLine{
				Quantity:        l.Quantity,
				Broken:          reported[l.ItemID].Count,
				ReplacementCost: l.ReplacementCost,
			}
			if lines[i].Broken > l.Quantity {
				return domain.BadRequest("%d broken %q reported but only %d rented", lines[i].Broken, l.ItemName, l.Quantity)
			}
		}
		settled, err := utils.Settle(b.TotalRentalCost, lines)
		if err != nil {
			return domain.BadRequest("%v", err)
		}

		var records []domain.BrokenItemRecord
		for i, l := range b.Lines {
			r, ok := reported[l.ItemID]
			if !ok || r.Count == 0 {
				continue
			}
			fine := utils.DamageFine(l.ReplacementCost, r.Count)
			if r.Cost != nil && !r.Cost.Equal(fine) {
				return domain.BadRequest("cost for %d broken %q must be %s, got %s", r.Count, l.ItemName, fine.StringFixed(2), r.Cost.StringFixed(2))
			}
			records = append(records, domain.BrokenItemRecord{
				ItemID:   l.ItemID,
				ItemName: l.ItemName,
				Count:    lines[i].Broken,
				Cost:     fine,
			})
		}
		if req.FinalBillAmount != nil && !req.FinalBillAmount.Equal(settled.FinalBill) {
			return domain.BadRequest("final bill must be %s, got %s", settled.FinalBill.StringFixed(2), req.FinalBillAmount.StringFixed(2))
		}

		for i, l := range b.Lines {
			healthy, broken := settled.Healthy[i], lines[i].Broken
			if l.ItemID == uuid.Nil {
				logger.Warn("skipping settlement stock for deleted item", "booking_id", bookingID, "item_name", l.ItemName)
				continue
			}
			if err := repos.Items.AdjustStock(ctx, l.ItemID, healthy, -broken); err != nil {
				return fmt.Errorf("settle stock for item %s: %w", l.ItemID, err)
			}
			moves = append(moves, stockMove{l.ItemID, healthy, -broken, "return"})
		}

		notes := strings.TrimSpace(req.AdminNotes)
		if notes == "" {
			notes = b.AdminNotes
		}
		if err := repos.Bookings.Complete(ctx, bookingID, settled.FinalBill, notes, records); err != nil {
			return err
		}

		result = &ReturnResult{
			BookingID:   bookingID,
			Status:      domain.BookingStatusCompleted,
			RentalCost:  settled.RentalCost,
			DamageFine:  settled.DamageFine,
			FinalBill:   settled.FinalBill,
			BrokenItems: records,
		}
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("bookingService.CompleteReturn", err, "bookingID", bookingID)
		return nil, err
	}

	logMoves(moves)
	logger.StatusChange(bookingID.String(), string(prev), string(domain.BookingStatusCompleted), caller.UserID.String())
	logger.Info("booking settled",
		"booking_id", bookingID,
		"damage_fine", result.DamageFine.StringFixed(2),
		"final_bill", result.FinalBill.StringFixed(2),
	)
	logger.ExitMethod("bookingService.CompleteReturn", "bookingID", bookingID)
	return result, nil
}
