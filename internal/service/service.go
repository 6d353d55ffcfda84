package service

import (
	"context"
	"time"

	"gearloan-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LineRequest struct {
	ItemID   uuid.UUID
	Quantity int32
}

type CreateBookingRequest struct {
	StartDate time.Time
	EndDate   time.Time
	Lines     []LineRequest
}

type LineChange struct {
	LineID      uuid.UUID
	NewQuantity int32
}

// BrokenReport is the admin's count of damaged or lost units of one item.
// Cost is optional; when given it must match the computed fine.
type BrokenReport struct {
	ItemID uuid.UUID
	Count  int32
	Cost   *decimal.Decimal
}

type ReturnRequest struct {
	Broken          []BrokenReport
	FinalBillAmount *decimal.Decimal
	AdminNotes      string
}

type ReturnResult struct {
	BookingID   uuid.UUID
	Status      domain.BookingStatus
	RentalCost  decimal.Decimal
	DamageFine  decimal.Decimal
	FinalBill   decimal.Decimal
	BrokenItems []domain.BrokenItemRecord
}

type PickupSlotRequest struct {
	Start time.Time
	End   time.Time
}

type ItemInput struct {
	Name            string
	Category        string
	Description     string
	PricePerDay     decimal.Decimal
	ReplacementCost decimal.Decimal
	ImageURL        string
	TotalStock      int32
	AvailableStock  *int32 // defaults to TotalStock on create; ignored on update
}

type BookingService interface {
	CreateBooking(ctx context.Context, caller domain.Caller, req CreateBookingRequest) (uuid.UUID, error)
	SetStatus(ctx context.Context, caller domain.Caller, bookingID uuid.UUID, status string) (domain.BookingStatus, error)
	ModifyAndApprove(ctx context.Context, caller domain.Caller, bookingID uuid.UUID, adminNotes string, changes []LineChange) (domain.BookingStatus, error)
	CompleteReturn(ctx context.Context, caller domain.Caller, bookingID uuid.UUID, req ReturnRequest) (*ReturnResult, error)
	ReportDamage(ctx context.Context, caller domain.Caller, lineID uuid.UUID, description, photoRef string) (uuid.UUID, error)
	ProposePickupSlots(ctx context.Context, caller domain.Caller, bookingID uuid.UUID, slots []PickupSlotRequest) ([]domain.PickupSlot, error)
	ListMyBookings(ctx context.Context, caller domain.Caller) ([]domain.Booking, error)
	ListBookings(ctx context.Context, caller domain.Caller, status string) ([]domain.Booking, error)
	GetBooking(ctx context.Context, caller domain.Caller, bookingID uuid.UUID) (*domain.Booking, error)
}

type ItemService interface {
	ListItems(ctx context.Context, category string) ([]domain.Item, error)
	GetItem(ctx context.Context, id uuid.UUID) (*domain.Item, error)
	CreateItem(ctx context.Context, caller domain.Caller, in ItemInput) (*domain.Item, error)
	UpdateItem(ctx context.Context, caller domain.Caller, id uuid.UUID, in ItemInput) (*domain.Item, error)
	RestockItem(ctx context.Context, caller domain.Caller, id uuid.UUID, delta int32) (*domain.Item, error)
	DeleteItem(ctx context.Context, caller domain.Caller, id uuid.UUID) error
}

type UserService interface {
	ListUsers(ctx context.Context, caller domain.Caller) ([]domain.User, error)
	UpdateUserRole(ctx context.Context, caller domain.Caller, userID uuid.UUID, role string) (*domain.User, error)
	DeleteUser(ctx context.Context, caller domain.Caller, userID uuid.UUID) error
}

type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
}

// Clock returns the current instant
type Clock func() time.Time
