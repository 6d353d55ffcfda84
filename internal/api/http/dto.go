package http

import (
	"time"

	"gearloan-backend/internal/domain"
	"gearloan-backend/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Requests

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type itemRequest struct {
	Name            string          `json:"name" validate:"required,max=200"`
	Category        string          `json:"category" validate:"required"`
	Description     string          `json:"description" validate:"required"`
	PricePerDay     decimal.Decimal `json:"price_per_day"`
	ReplacementCost decimal.Decimal `json:"replacement_cost"`
	ImageURL        string          `json:"image_url" validate:"omitempty,url"`
	TotalStock      int32           `json:"total_stock" validate:"gte=0"`
	AvailableStock  *int32          `json:"available_stock,omitempty" validate:"omitempty,gte=0"`
}

type restockRequest struct {
	Delta int32 `json:"delta" validate:"required"`
}

type bookingLineRequest struct {
	ItemID   uuid.UUID `json:"item_id" validate:"required"`
	Quantity int32     `json:"quantity" validate:"gte=1"`
}

type createBookingRequest struct {
	StartDate string               `json:"start_date" validate:"required"`
	EndDate   string               `json:"end_date" validate:"required"`
	Items     []bookingLineRequest `json:"items" validate:"required,min=1,dive"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

type lineChangeRequest struct {
	LineID      uuid.UUID `json:"line_id" validate:"required"`
	NewQuantity int32     `json:"new_quantity"`
}

type modifyApproveRequest struct {
	AdminNotes string              `json:"admin_notes"`
	Changes    []lineChangeRequest `json:"changes" validate:"dive"`
}

type brokenItemRequest struct {
	ItemID uuid.UUID        `json:"item_id" validate:"required"`
	Count  int32            `json:"count"`
	Cost   *decimal.Decimal `json:"cost,omitempty"`
}

type returnRequest struct {
	BrokenItems     []brokenItemRequest `json:"broken_items" validate:"dive"`
	FinalBillAmount *decimal.Decimal    `json:"final_bill_amount,omitempty"`
	AdminNotes      string              `json:"admin_notes"`
}

type damageReportRequest struct {
	Description string `json:"description" validate:"required,max=2000"`
	PhotoRef    string `json:"photo_ref" validate:"max=500"`
}

type pickupSlotRequest struct {
	Start time.Time `json:"start" validate:"required"`
	End   time.Time `json:"end" validate:"required"`
}

type pickupSlotsRequest struct {
	Slots []pickupSlotRequest `json:"slots" validate:"required,min=1,max=3,dive"`
}

type roleRequest struct {
	Role string `json:"role" validate:"required,oneof=USER ADMIN user admin"`
}

type uploadRequest struct {
	ContentType string `json:"content_type" validate:"required"`
}

// Responses. Money is rendered with two decimals.

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

type userResponse struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Role      domain.UserRole `json:"role"`
	CreatedOn time.Time       `json:"created_on"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, CreatedOn: u.CreatedOn}
}

type itemResponse struct {
	ID              uuid.UUID           `json:"id"`
	Name            string              `json:"name"`
	Category        domain.ItemCategory `json:"category"`
	Description     string              `json:"description"`
	PricePerDay     string              `json:"price_per_day"`
	ReplacementCost string              `json:"replacement_cost"`
	ImageURL        string              `json:"image_url,omitempty"`
	TotalStock      int32               `json:"total_stock"`
	AvailableStock  int32               `json:"available_stock"`
}

func toItemResponse(it *domain.Item) itemResponse {
	return itemResponse{
		ID:              it.ID,
		Name:            it.Name,
		Category:        it.Category,
		Description:     it.Description,
		PricePerDay:     money(it.PricePerDay),
		ReplacementCost: money(it.ReplacementCost),
		ImageURL:        it.ImageURL,
		TotalStock:      it.TotalStock,
		AvailableStock:  it.AvailableStock,
	}
}

type damageReportResponse struct {
	ID          uuid.UUID `json:"id"`
	ReporterID  uuid.UUID `json:"reporter_id"`
	Description string    `json:"description"`
	PhotoRef    string    `json:"photo_ref,omitempty"`
	CreatedOn   time.Time `json:"created_on"`
}

type bookingLineResponse struct {
	ID               uuid.UUID              `json:"id"`
	ItemID           *uuid.UUID             `json:"item_id"`
	ItemName         string                 `json:"item_name"`
	Quantity         int32                  `json:"quantity"`
	OriginalQuantity int32                  `json:"original_quantity"`
	PricePerDay      string                 `json:"price_per_day"`
	ReplacementCost  string                 `json:"replacement_cost"`
	DamageReports    []damageReportResponse `json:"damage_reports,omitempty"`
}

type brokenItemResponse struct {
	ItemID   *uuid.UUID `json:"item_id"`
	ItemName string     `json:"item_name"`
	Count    int32      `json:"count"`
	Cost     string     `json:"cost"`
}

type pickupSlotResponse struct {
	ID    uuid.UUID `json:"id"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type bookingResponse struct {
	ID              uuid.UUID             `json:"id"`
	UserID          uuid.UUID             `json:"user_id"`
	UserName        string                `json:"user_name,omitempty"`
	StartDate       string                `json:"start_date"`
	EndDate         string                `json:"end_date"`
	Status          domain.BookingStatus  `json:"status"`
	TotalRentalCost string                `json:"total_rental_cost"`
	FinalBillAmount *string               `json:"final_bill_amount"`
	AdminNotes      string                `json:"admin_notes,omitempty"`
	Lines           []bookingLineResponse `json:"lines"`
	BrokenItems     []brokenItemResponse  `json:"broken_items,omitempty"`
	PickupSlots     []pickupSlotResponse  `json:"pickup_slots,omitempty"`
	CreatedOn       time.Time             `json:"created_on"`
}

func optionalID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func toBrokenItems(records []domain.BrokenItemRecord) []brokenItemResponse {
	out := make([]brokenItemResponse, 0, len(records))
	for _, r := range records {
		out = append(out, brokenItemResponse{
			ItemID:   optionalID(r.ItemID),
			ItemName: r.ItemName,
			Count:    r.Count,
			Cost:     money(r.Cost),
		})
	}
	return out
}

func toPickupSlots(slots []domain.PickupSlot) []pickupSlotResponse {
	out := make([]pickupSlotResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, pickupSlotResponse{ID: s.ID, Start: s.StartsAt, End: s.EndsAt})
	}
	return out
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	resp := bookingResponse{
		ID:              b.ID,
		UserID:          b.UserID,
		UserName:        b.UserName,
		StartDate:       utils.FormatDate(b.StartDate),
		EndDate:         utils.FormatDate(b.EndDate),
		Status:          b.Status,
		TotalRentalCost: money(b.TotalRentalCost),
		AdminNotes:      b.AdminNotes,
		Lines:           make([]bookingLineResponse, 0, len(b.Lines)),
		BrokenItems:     toBrokenItems(b.BrokenItems),
		PickupSlots:     toPickupSlots(b.PickupSlots),
		CreatedOn:       b.CreatedOn,
	}
	if b.FinalBillAmount.Valid {
		bill := money(b.FinalBillAmount.Decimal)
		resp.FinalBillAmount = &bill
	}
	for _, l := range b.Lines {
		lr := bookingLineResponse{
			ID:               l.ID,
			ItemID:           optionalID(l.ItemID),
			ItemName:         l.ItemName,
			Quantity:         l.Quantity,
			OriginalQuantity: l.OriginalQuantity,
			PricePerDay:      money(l.PricePerDay),
			ReplacementCost:  money(l.ReplacementCost),
		}
		for _, d := range l.DamageReports {
			lr.DamageReports = append(lr.DamageReports, damageReportResponse{
				ID:          d.ID,
				ReporterID:  d.ReporterID,
				Description: d.Description,
				PhotoRef:    d.PhotoRef,
				CreatedOn:   d.CreatedOn,
			})
		}
		resp.Lines = append(resp.Lines, lr)
	}
	return resp
}

type returnResponse struct {
	BookingID   uuid.UUID            `json:"booking_id"`
	Status      domain.BookingStatus `json:"status"`
	RentalCost  string               `json:"rental_cost"`
	DamageFine  string               `json:"damage_fine"`
	FinalBill   string               `json:"final_bill_amount"`
	BrokenItems []brokenItemResponse `json:"broken_items"`
}
