package http

import (
	"net/http"

	"gearloan-backend/internal/domain"
	"gearloan-backend/internal/service"
	"gearloan-backend/internal/utils"
)

func (h *Handlers) CreateBooking(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req createBookingRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	start, err := utils.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, r, domain.BadRequest("start_date: %v", err))
		return
	}
	end, err := utils.ParseDate(req.EndDate)
	if err != nil {
		writeError(w, r, domain.BadRequest("end_date: %v", err))
		return
	}
	lines := make([]service.LineRequest, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, service.LineRequest{ItemID: it.ItemID, Quantity: it.Quantity})
	}

	id, err := h.Bookings.CreateBooking(r.Context(), c, service.CreateBookingRequest{
		StartDate: start,
		EndDate:   end,
		Lines:     lines,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"booking_id": id})
}

func (h *Handlers) writeBookings(w http.ResponseWriter, bookings []domain.Booking) {
	out := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		out = append(out, toBookingResponse(&bookings[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) ListMyBookings(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	bookings, err := h.Bookings.ListMyBookings(r.Context(), c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.writeBookings(w, bookings)
}

func (h *Handlers) ListBookings(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	bookings, err := h.Bookings.ListBookings(r.Context(), c, r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.writeBookings(w, bookings)
}

func (h *Handlers) GetBooking(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.Bookings.GetBooking(r.Context(), c, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(b))
}

func (h *Handlers) SetBookingStatus(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req statusRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	status, err := h.Bookings.SetStatus(r.Context(), c, id, req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"booking_id": id, "status": status})
}

func (h *Handlers) ModifyAndApprove(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req modifyApproveRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	changes := make([]service.LineChange, 0, len(req.Changes))
	for _, ch := range req.Changes {
		changes = append(changes, service.LineChange{LineID: ch.LineID, NewQuantity: ch.NewQuantity})
	}
	status, err := h.Bookings.ModifyAndApprove(r.Context(), c, id, req.AdminNotes, changes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"booking_id": id, "status": status})
}

func (h *Handlers) CompleteReturn(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req returnRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	broken := make([]service.BrokenReport, 0, len(req.BrokenItems))
	for _, b := range req.BrokenItems {
		broken = append(broken, service.BrokenReport{ItemID: b.ItemID, Count: b.Count, Cost: b.Cost})
	}
	res, err := h.Bookings.CompleteReturn(r.Context(), c, id, service.ReturnRequest{
		Broken:          broken,
		FinalBillAmount: req.FinalBillAmount,
		AdminNotes:      req.AdminNotes,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, returnResponse{
		BookingID:   res.BookingID,
		Status:      res.Status,
		RentalCost:  money(res.RentalCost),
		DamageFine:  money(res.DamageFine),
		FinalBill:   money(res.FinalBill),
		BrokenItems: toBrokenItems(res.BrokenItems),
	})
}

func (h *Handlers) ReportDamage(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	lineID, err := pathID(r, "lineId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req damageReportRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	reportID, err := h.Bookings.ReportDamage(r.Context(), c, lineID, req.Description, req.PhotoRef)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "report_id": reportID})
}

func (h *Handlers) ProposePickupSlots(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req pickupSlotsRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	slots := make([]service.PickupSlotRequest, 0, len(req.Slots))
	for _, s := range req.Slots {
		slots = append(slots, service.PickupSlotRequest{Start: s.Start, End: s.End})
	}
	out, err := h.Bookings.ProposePickupSlots(r.Context(), c, id, slots)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPickupSlots(out))
}
