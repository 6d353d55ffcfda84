package service

import (
	"context"
	"strings"

	"gearloan-backend/internal/domain"
	"gearloan-backend/internal/logger"
	"gearloan-backend/internal/repository"

	"github.com/google/uuid"
)

// SetStatus moves a booking along the state machine and keeps stock in step:
// entering a holding status reserves, leaving one releases.
func (s *bookingService) SetStatus(ctx context.Context, caller domain.Caller, bookingID uuid.UUID, status string) (domain.BookingStatus, error) {
	logger.EnterMethod("bookingService.SetStatus", "bookingID", bookingID, "status", status)

	if err := requireAdmin(caller); err != nil {
		return "", err
	}
	next, err := domain.ParseBookingStatus(status)
	if err != nil {
		return "", domain.BadRequest("%v", err)
	}
	if next == domain.BookingStatusCompleted {
		return "", domain.BadRequest("bookings are completed through the return endpoint")
	}

	var (
		prev  domain.BookingStatus
		moves []stockMove
	)
	err = s.store.WithTx(ctx, func(repos repository.Repositories) error {
		b, err := repos.Bookings.GetForUpdate(ctx, bookingID)
		if err != nil {
			return notFoundAs(err, "booking %s", bookingID)
		}
		prev = b.Status
		if !prev.CanTransitionTo(next) {
			return domain.Conflict("cannot change booking from %s to %s", prev, next)
		}

		wasHolding, willHold := prev.HoldsStock(), next.HoldsStock()
		switch {
		case wasHolding && !willHold:
			moves, err = release(ctx, repos, b)
		case !wasHolding && willHold:
			moves, err = reserve(ctx, repos, b)
		}
		if err != nil {
			return err
		}

		return repos.Bookings.UpdateStatus(ctx, bookingID, next)
	})
	if err != nil {
		logger.ExitMethodWithError("bookingService.SetStatus", err, "bookingID", bookingID)
		return "", err
	}

	logMoves(moves)
	logger.StatusChange(bookingID.String(), string(prev), string(next), caller.UserID.String())
	logger.ExitMethod("bookingService.SetStatus", "bookingID", bookingID)
	return next, nil
}

// ModifyAndApprove lowers line quantities of a pending booking and approves it
// in one step. Any reduction must be explained in the admin notes.
func (s *bookingService) ModifyAndApprove(ctx context.Context, caller domain.Caller, bookingID uuid.UUID, adminNotes string, changes []LineChange) (domain.BookingStatus, error) {
	logger.EnterMethod("bookingService.ModifyAndApprove", "bookingID", bookingID, "changes", len(changes))

	if err := requireAdmin(caller); err != nil {
		return "", err
	}
	notes := strings.TrimSpace(adminNotes)

	var moves []stockMove
	err := s.store.WithTx(ctx, func(repos repository.Repositories) error {
		b, err := repos.Bookings.GetForUpdate(ctx, bookingID)
		if err != nil {
			return notFoundAs(err, "booking %s", bookingID)
		}
		if b.Status != domain.BookingStatusPending {
			return domain.Conflict("only pending bookings can be modified, booking is %s", b.Status)
		}

		seen := make(map[uuid.UUID]bool, len(changes))
		changed := false
		for _, c := range changes {
			line := b.Line(c.LineID)
			if line == nil {
				return domain.NotFound("line %s not found in booking %s", c.LineID, bookingID)
			}
			if seen[c.LineID] {
				return domain.BadRequest("line %s is listed more than once", c.LineID)
			}
			seen[c.LineID] = true
			if c.NewQuantity < 1 || c.NewQuantity > line.OriginalQuantity {
				return domain.BadRequest("quantity for %q must be between 1 and %d", line.ItemName, line.OriginalQuantity)
			}
			if c.NewQuantity != line.Quantity {
				changed = true
			}
		}
		if changed && notes == "" {
			return domain.BadRequest("an admin note is required when quantities are changed")
		}

		for _, c := range changes {
			line := b.Line(c.LineID)
			if c.NewQuantity == line.Quantity {
				continue
			}
			if err := repos.Bookings.UpdateLineQuantity(ctx, c.LineID, c.NewQuantity); err != nil {
				return notFoundAs(err, "line %s", c.LineID)
			}
			line.Quantity = c.NewQuantity
		}
		if notes != "" {
			if err := repos.Bookings.UpdateAdminNotes(ctx, bookingID, notes); err != nil {
				return err
			}
		}

		moves, err = reserve(ctx, repos, b)
		if err != nil {
			return err
		}
		return repos.Bookings.UpdateStatus(ctx, bookingID, domain.BookingStatusApproved)
	})
	if err != nil {
		logger.ExitMethodWithError("bookingService.ModifyAndApprove", err, "bookingID", bookingID)
		return "", err
	}

	logMoves(moves)
	logger.StatusChange(bookingID.String(), string(domain.BookingStatusPending), string(domain.BookingStatusApproved), caller.UserID.String())
	logger.ExitMethod("bookingService.ModifyAndApprove", "bookingID", bookingID)
	return domain.BookingStatusApproved, nil
}
