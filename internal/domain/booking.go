package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusApproved  BookingStatus = "APPROVED"
	BookingStatusRejected  BookingStatus = "REJECTED"
	BookingStatusActive    BookingStatus = "ACTIVE"
	BookingStatusCompleted BookingStatus = "COMPLETED"
)

// AllBookingStatuses lists every status in lifecycle order.
var AllBookingStatuses = []BookingStatus{
	BookingStatusPending,
	BookingStatusApproved,
	BookingStatusRejected,
	BookingStatusActive,
	BookingStatusCompleted,
}

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusApproved, BookingStatusRejected},
	BookingStatusApproved:  {BookingStatusActive, BookingStatusRejected},
	BookingStatusActive:    {BookingStatusCompleted},
	BookingStatusRejected:  {},
	BookingStatusCompleted: {},
}

// ParseBookingStatus accepts a status name in any letter case.
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := bookingTransitions[status]; !ok {
		return "", fmt.Errorf("unknown booking status: %q", s)
	}
	return status, nil
}

// HoldsStock reports whether units of a booking in this status are subtracted
// from available stock. Every status is listed explicitly.
func (s BookingStatus) HoldsStock() bool {
	switch s {
	case BookingStatusApproved, BookingStatusActive:
		return true
	case BookingStatusPending, BookingStatusRejected, BookingStatusCompleted:
		return false
	default:
		return false
	}
}

func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusRejected || s == BookingStatusCompleted
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, candidate := range bookingTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

type Booking struct {
	ID              uuid.UUID           `json:"id"`
	UserID          uuid.UUID           `json:"user_id"`
	UserName        string              `json:"user_name,omitempty"` // Populated on admin listings
	StartDate       time.Time           `json:"start_date"`
	EndDate         time.Time           `json:"end_date"`
	Status          BookingStatus       `json:"status"`
	TotalRentalCost decimal.Decimal     `json:"total_rental_cost"`
	FinalBillAmount decimal.NullDecimal `json:"final_bill_amount"`
	AdminNotes      string              `json:"admin_notes"`
	Lines           []BookingLine       `json:"lines"`
	BrokenItems     []BrokenItemRecord  `json:"broken_items,omitempty"`
	PickupSlots     []PickupSlot        `json:"pickup_slots,omitempty"`
	CreatedOn       time.Time           `json:"created_on"`
	UpdatedOn       time.Time           `json:"updated_on"`
}

// Line returns the line with the given id, or nil.
func (b *Booking) Line(lineID uuid.UUID) *BookingLine {
	for i := range b.Lines {
		if b.Lines[i].ID == lineID {
			return &b.Lines[i]
		}
	}
	return nil
}

// LineForItem returns the line renting the given item, or nil.
func (b *Booking) LineForItem(itemID uuid.UUID) *BookingLine {
	for i := range b.Lines {
		if b.Lines[i].ItemID == itemID {
			return &b.Lines[i]
		}
	}
	return nil
}

// BookingLine is one item type within a booking. Price fields are snapshots
// taken from the item when the booking was created.
type BookingLine struct {
	ID               uuid.UUID       `json:"id"`
	BookingID        uuid.UUID       `json:"booking_id"`
	ItemID           uuid.UUID       `json:"item_id"` // uuid.Nil once the item has been deleted
	ItemName         string          `json:"item_name"`
	Quantity         int32           `json:"quantity"`
	OriginalQuantity int32           `json:"original_quantity"`
	PricePerDay      decimal.Decimal `json:"price_per_day"`
	ReplacementCost  decimal.Decimal `json:"replacement_cost"`
	DamageReports    []DamageReport  `json:"damage_reports,omitempty"`
}

type DamageReport struct {
	ID          uuid.UUID `json:"id"`
	LineID      uuid.UUID `json:"line_id"`
	ReporterID  uuid.UUID `json:"reporter_id"`
	Description string    `json:"description"`
	PhotoRef    string    `json:"photo_ref,omitempty"`
	CreatedOn   time.Time `json:"created_on"`
}

// BrokenItemRecord is written once at settlement and never changed.
type BrokenItemRecord struct {
	ID        uuid.UUID       `json:"id"`
	BookingID uuid.UUID       `json:"booking_id"`
	ItemID    uuid.UUID       `json:"item_id"`
	ItemName  string          `json:"item_name"`
	Count     int32           `json:"count"`
	Cost      decimal.Decimal `json:"cost"`
	CreatedOn time.Time       `json:"created_on"`
}

type PickupSlot struct {
	ID        uuid.UUID `json:"id"`
	BookingID uuid.UUID `json:"booking_id"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
}
