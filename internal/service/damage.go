package service

import (
	"context"
	"strings"

	"gearloan-backend/internal/domain"
	"gearloan-backend/internal/logger"
	"gearloan-backend/internal/repository"
	"gearloan-backend/internal/utils"

	"github.com/google/uuid"
)

const maxPickupSlots = 3

// ReportDamage lets the renter record pre-existing damage. Reports are only
// accepted on the first day of the rental.
func (s *bookingService) ReportDamage(ctx context.Context, caller domain.Caller, lineID uuid.UUID, description, photoRef string) (uuid.UUID, error) {
	logger.EnterMethod("bookingService.ReportDamage", "lineID", lineID)

	report := &domain.DamageReport{
		LineID:      lineID,
		ReporterID:  caller.UserID,
		Description: strings.TrimSpace(description),
		PhotoRef:    strings.TrimSpace(photoRef),
	}

	err := s.store.WithTx(ctx, func(repos repository.Repositories) error {
		line, err := repos.Bookings.GetLine(ctx, lineID)
		if err != nil {
			return notFoundAs(err, "booking line %s", lineID)
		}
		b, err := repos.Bookings.GetForUpdate(ctx, line.BookingID)
		if err != nil {
			return notFoundAs(err, "booking %s", line.BookingID)
		}
		if b.UserID != caller.UserID {
			return domain.Forbidden("only the renter can report damage on this booking")
		}
		if report.Description == "" {
			return domain.BadRequest("a damage description is required")
		}
		if !b.Status.HoldsStock() {
			return domain.Conflict("damage can only be reported on approved or active bookings")
		}
		if !utils.SameDate(s.today(), b.StartDate) {
			return domain.Conflict("damage can only be reported on the first day of the rental (%s)", utils.FormatDate(b.StartDate))
		}
		return repos.Bookings.AddDamageReport(ctx, report)
	})
	if err != nil {
		logger.ExitMethodWithError("bookingService.ReportDamage", err, "lineID", lineID)
		return uuid.Nil, err
	}

	logger.Info("damage reported", "report_id", report.ID, "line_id", lineID, "reporter_id", caller.UserID)
	logger.ExitMethod("bookingService.ReportDamage", "reportID", report.ID)
	return report.ID, nil
}

// ProposePickupSlots replaces the pickup windows offered for an approved booking
func (s *bookingService) ProposePickupSlots(ctx context.Context, caller domain.Caller, bookingID uuid.UUID, slots []PickupSlotRequest) ([]domain.PickupSlot, error) {
	logger.EnterMethod("bookingService.ProposePickupSlots", "bookingID", bookingID, "slots", len(slots))

	if len(slots) == 0 || len(slots) > maxPickupSlots {
		return nil, domain.BadRequest("propose between 1 and %d pickup slots", maxPickupSlots)
	}

	var out []domain.PickupSlot
	err := s.store.WithTx(ctx, func(repos repository.Repositories) error {
		b, err := repos.Bookings.GetForUpdate(ctx, bookingID)
		if err != nil {
			return notFoundAs(err, "booking %s", bookingID)
		}
		if b.UserID != caller.UserID && !caller.IsAdmin() {
			return domain.Forbidden("booking %s belongs to another user", bookingID)
		}
		if b.Status != domain.BookingStatusApproved {
			return domain.Conflict("pickup slots can only be proposed for approved bookings, booking is %s", b.Status)
		}

		out = make([]domain.PickupSlot, 0, len(slots))
		for _, sl := range slots {
			if !sl.Start.Before(sl.End) {
				return domain.BadRequest("pickup slot must end after it starts")
			}
			if utils.TruncateToDate(sl.Start.In(s.loc)).After(b.StartDate) {
				return domain.BadRequest("pickup must be no later than the start date %s", utils.FormatDate(b.StartDate))
			}
			out = append(out, domain.PickupSlot{StartsAt: sl.Start.UTC(), EndsAt: sl.End.UTC()})
		}
		return repos.Bookings.ReplacePickupSlots(ctx, bookingID, out)
	})
	if err != nil {
		logger.ExitMethodWithError("bookingService.ProposePickupSlots", err, "bookingID", bookingID)
		return nil, err
	}

	logger.ExitMethod("bookingService.ProposePickupSlots", "bookingID", bookingID)
	return out, nil
}
