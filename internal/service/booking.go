package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gearloan-backend/internal/domain"
	"gearloan-backend/internal/logger"
	"gearloan-backend/internal/repository"
	"gearloan-backend/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type bookingService struct {
	store repository.Store
	now   Clock
	loc   *time.Location
}

// NewBookingService wires the booking lifecycle. loc decides which calendar
// day "today" is for damage reporting and pickup slots.
func NewBookingService(store repository.Store, now Clock, loc *time.Location) BookingService {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &bookingService{store: store, now: now, loc: loc}
}

// today is the current calendar date in the booking time zone
func (s *bookingService) today() time.Time {
	return utils.TruncateToDate(s.now().In(s.loc))
}

func (s *bookingService) CreateBooking(ctx context.Context, caller domain.Caller, req CreateBookingRequest) (uuid.UUID, error) {
	logger.EnterMethod("bookingService.CreateBooking", "userID", caller.UserID, "lines", len(req.Lines))

	start := utils.TruncateToDate(req.StartDate)
	end := utils.TruncateToDate(req.EndDate)
	days, err := utils.RentalDays(start, end)
	if err != nil {
		return uuid.Nil, domain.BadRequest("end date must not be before start date")
	}
	if len(req.Lines) == 0 {
		return uuid.Nil, domain.BadRequest("a booking needs at least one item")
	}
	seen := make(map[uuid.UUID]bool, len(req.Lines))
	for _, l := range req.Lines {
		if l.Quantity < 1 {
			return uuid.Nil, domain.BadRequest("quantity for item %s must be at least 1", l.ItemID)
		}
		if seen[l.ItemID] {
			return uuid.Nil, domain.BadRequest("item %s appears more than once", l.ItemID)
		}
		seen[l.ItemID] = true
	}

	booking := &domain.Booking{
		UserID:          caller.UserID,
		StartDate:       start,
		EndDate:         end,
		Status:          domain.BookingStatusPending,
		TotalRentalCost: decimal.Zero,
	}

	err = s.store.WithTx(ctx, func(repos repository.Repositories) error {
		for _, l := range req.Lines {
			item, err := repos.Items.GetByID(ctx, l.ItemID)
			if err != nil {
				return notFoundAs(err, "item %s", l.ItemID)
			}
			if l.Quantity > item.AvailableStock {
				return domain.Conflict("only %d of %q available, %d requested", item.AvailableStock, item.Name, l.Quantity)
			}
			cost := utils.LineCost(item.PricePerDay, l.Quantity, days)
			booking.TotalRentalCost = booking.TotalRentalCost.Add(cost)
			booking.Lines = append(booking.Lines, domain.BookingLine{
				ItemID:           item.ID,
				ItemName:         item.Name,
				Quantity:         l.Quantity,
				OriginalQuantity: l.Quantity,
				PricePerDay:      item.PricePerDay,
				ReplacementCost:  item.ReplacementCost,
			})
		}
		return repos.Bookings.Create(ctx, booking)
	})
	if err != nil {
		logger.ExitMethodWithError("bookingService.CreateBooking", err, "userID", caller.UserID)
		return uuid.Nil, err
	}

	logger.Info("booking requested",
		"booking_id", booking.ID,
		"user_id", caller.UserID,
		"days", days,
		"total_rental_cost", booking.TotalRentalCost.StringFixed(2),
	)
	logger.ExitMethod("bookingService.CreateBooking", "bookingID", booking.ID)
	return booking.ID, nil
}

func (s *bookingService) ListMyBookings(ctx context.Context, caller domain.Caller) ([]domain.Booking, error) {
	return s.store.Repos().Bookings.List(ctx, repository.BookingFilter{UserID: caller.UserID})
}

func (s *bookingService) ListBookings(ctx context.Context, caller domain.Caller, status string) ([]domain.Booking, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	filter := repository.BookingFilter{}
	if status != "" {
		st, err := domain.ParseBookingStatus(status)
		if err != nil {
			return nil, domain.BadRequest("%v", err)
		}
		filter.Status = st
	}
	return s.store.Repos().Bookings.List(ctx, filter)
}

func (s *bookingService) GetBooking(ctx context.Context, caller domain.Caller, bookingID uuid.UUID) (*domain.Booking, error) {
	b, err := s.store.Repos().Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, notFoundAs(err, "booking %s", bookingID)
	}
	if b.UserID != caller.UserID && !caller.IsAdmin() {
		return nil, domain.Forbidden("booking %s belongs to another user", bookingID)
	}
	return b, nil
}

// stockMove is a ledger delta applied inside a transaction, logged after commit
type stockMove struct {
	itemID         uuid.UUID
	availableDelta int32
	totalDelta     int32
	reason         string
}

func logMoves(moves []stockMove) {
	for _, m := range moves {
		logger.StockMovement(m.itemID.String(), m.availableDelta, m.totalDelta, m.reason)
	}
}

// reserve takes every line's quantity out of available stock. The first
// line that cannot be covered aborts the whole reservation.
func reserve(ctx context.Context, repos repository.Repositories, b *domain.Booking) ([]stockMove, error) {
	moves := make([]stockMove, 0, len(b.Lines))
	for _, l := range b.Lines {
		if l.ItemID == uuid.Nil {
			return nil, domain.Conflict("%q is no longer in the catalog", l.ItemName)
		}
		err := repos.Items.AdjustStock(ctx, l.ItemID, -l.Quantity, 0)
		switch {
		case err == nil:
		case errors.Is(err, repository.ErrInsufficientStock):
			return nil, domain.Conflict("not enough %q in stock to reserve %d", l.ItemName, l.Quantity)
		case errors.Is(err, repository.ErrNotFound):
			return nil, domain.Conflict("%q is no longer in the catalog", l.ItemName)
		default:
			return nil, fmt.Errorf("reserve item %s: %w", l.ItemID, err)
		}
		moves = append(moves, stockMove{l.ItemID, -l.Quantity, 0, "reserve"})
	}
	return moves, nil
}

// release returns every line's quantity to available stock
func release(ctx context.Context, repos repository.Repositories, b *domain.Booking) ([]stockMove, error) {
	moves := make([]stockMove, 0, len(b.Lines))
	for _, l := range b.Lines {
		if l.ItemID == uuid.Nil {
			logger.Warn("skipping release for deleted item", "booking_id", b.ID, "item_name", l.ItemName)
			continue
		}
		if err := repos.Items.AdjustStock(ctx, l.ItemID, l.Quantity, 0); err != nil {
			return nil, fmt.Errorf("release item %s: %w", l.ItemID, err)
		}
		moves = append(moves, stockMove{l.ItemID, l.Quantity, 0, "release"})
	}
	return moves, nil
}
