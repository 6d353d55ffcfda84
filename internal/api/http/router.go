package http

import (
	"net/http"

	"gearloan-backend/internal/domain"

	"github.com/gorilla/mux"
)

// NewRouter registers every route under its security-table name. uploads may be
// nil, in which case the photo routes are left out.
func NewRouter(h *Handlers, uploads *UploadHandler, auth *AuthMiddleware) *mux.Router {
	router := mux.NewRouter()
	router.Use(RecoveryMiddleware, LoggingMiddleware, auth.Handler)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, domain.NotFound("no route for %s %s", r.Method, r.URL.Path))
	})

	router.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet).Name("healthz")

	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/auth/register", h.Register).Methods(http.MethodPost).Name("auth.register")
	api.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost).Name("auth.login")

	api.HandleFunc("/items", h.ListItems).Methods(http.MethodGet).Name("items.list")
	api.HandleFunc("/items", h.CreateItem).Methods(http.MethodPost).Name("items.create")
	api.HandleFunc("/items/{id}", h.GetItem).Methods(http.MethodGet).Name("items.get")
	api.HandleFunc("/items/{id}", h.UpdateItem).Methods(http.MethodPut).Name("items.update")
	api.HandleFunc("/items/{id}", h.DeleteItem).Methods(http.MethodDelete).Name("items.delete")
	api.HandleFunc("/items/{id}/restock", h.RestockItem).Methods(http.MethodPost).Name("items.restock")

	// /bookings/mine is registered before /bookings/{id}
	api.HandleFunc("/bookings", h.CreateBooking).Methods(http.MethodPost).Name("bookings.create")
	api.HandleFunc("/bookings", h.ListBookings).Methods(http.MethodGet).Name("bookings.list")
	api.HandleFunc("/bookings/mine", h.ListMyBookings).Methods(http.MethodGet).Name("bookings.mine")
	api.HandleFunc("/bookings/{id}", h.GetBooking).Methods(http.MethodGet).Name("bookings.get")
	api.HandleFunc("/bookings/{id}/status", h.SetBookingStatus).Methods(http.MethodPut).Name("bookings.status")
	api.HandleFunc("/bookings/{id}/modify-approve", h.ModifyAndApprove).Methods(http.MethodPost).Name("bookings.modify_approve")
	api.HandleFunc("/bookings/{id}/return", h.CompleteReturn).Methods(http.MethodPost).Name("bookings.return")
	api.HandleFunc("/bookings/{id}/pickup-slots", h.ProposePickupSlots).Methods(http.MethodPut).Name("bookings.pickup_slots")
	api.HandleFunc("/booking-lines/{lineId}/damage-reports", h.ReportDamage).Methods(http.MethodPost).Name("booking_lines.damage")

	api.HandleFunc("/users", h.ListUsers).Methods(http.MethodGet).Name("users.list")
	api.HandleFunc("/users/{id}/role", h.UpdateUserRole).Methods(http.MethodPut).Name("users.role")
	api.HandleFunc("/users/{id}", h.DeleteUser).Methods(http.MethodDelete).Name("users.delete")

	if uploads != nil {
		api.HandleFunc("/uploads", uploads.CreateUpload).Methods(http.MethodPost).Name("uploads.create")
		api.HandleFunc("/upload/{token}", uploads.HandleUpload).Methods(http.MethodPut).Name("storage.upload")
		api.HandleFunc("/download/{key}", uploads.HandleDownload).Methods(http.MethodGet).Name("storage.download")
	}

	return router
}
