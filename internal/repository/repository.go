package repository

import (
	"context"
	"errors"
	"time"

	"gearloan-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrInsufficientStock means a stock delta would leave 0 <= available <= total
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrDuplicate         = errors.New("duplicate record")
)

type ItemFilter struct {
	Category domain.ItemCategory // empty means all
}

type ItemRepository interface {
	Create(ctx context.Context, item *domain.Item) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Item, error)
	List(ctx context.Context, filter ItemFilter) ([]domain.Item, error)
	// Update writes descriptive fields and prices; stock counters are untouched.
	Update(ctx context.Context, item *domain.Item) error
	Delete(ctx context.Context, id uuid.UUID) error

	// AdjustStock applies both deltas in one conditional write. The write is
	// refused with ErrInsufficientStock when the result would break
	// 0 <= available <= total.
	AdjustStock(ctx context.Context, id uuid.UUID, availableDelta, totalDelta int32) error
}

type BookingFilter struct {
	UserID uuid.UUID            // uuid.Nil means all users
	Status domain.BookingStatus // empty means all statuses
}

type BookingRepository interface {
	// Create inserts the booking and its lines
	Create(ctx context.Context, booking *domain.Booking) error
	// GetByID loads the booking with lines, damage reports, broken items and pickup slots
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	// GetForUpdate loads the booking and its lines, locking the booking row
	// until the surrounding transaction ends
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	// List returns bookings newest first, with lines
	List(ctx context.Context, filter BookingFilter) ([]domain.Booking, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.BookingStatus) error
	UpdateAdminNotes(ctx context.Context, id uuid.UUID, notes string) error
	UpdateLineQuantity(ctx context.Context, lineID uuid.UUID, quantity int32) error
	// Complete stores the settlement outcome and moves the booking to COMPLETED
	Complete(ctx context.Context, id uuid.UUID, finalBill decimal.Decimal, notes string, broken []domain.BrokenItemRecord) error

	GetLine(ctx context.Context, lineID uuid.UUID) (*domain.BookingLine, error)
	AddDamageReport(ctx context.Context, report *domain.DamageReport) error
	ReplacePickupSlots(ctx context.Context, bookingID uuid.UUID, slots []domain.PickupSlot) error

	// CountOpenForItem counts PENDING, APPROVED and ACTIVE bookings renting the item
	CountOpenForItem(ctx context.Context, itemID uuid.UUID) (int, error)
	// CountOpenForUser counts PENDING, APPROVED and ACTIVE bookings of the user
	CountOpenForUser(ctx context.Context, userID uuid.UUID) (int, error)
	// HeldQuantities sums line quantities of stock-holding bookings per item
	HeldQuantities(ctx context.Context) (map[uuid.UUID]int32, error)
	// ListOverdue returns ACTIVE bookings whose end date is before the given date
	ListOverdue(ctx context.Context, before time.Time) ([]domain.Booking, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role domain.UserRole) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Repositories is the set of repositories bound to one unit of work
type Repositories struct {
	Items    ItemRepository
	Bookings BookingRepository
	Users    UserRepository
}

// Transactor runs fn atomically. Every write made through the repositories
// handed to fn is committed when fn returns nil and discarded otherwise.
type Transactor interface {
	WithTx(ctx context.Context, fn func(repos Repositories) error) error
}

// Store is a complete persistence backend
type Store interface {
	Transactor
	Repos() Repositories
	Ping(ctx context.Context) error
	Close() error
}
