package service_test

import (
	"context"
	"testing"
	"time"

	"gearloan-backend/internal/domain"
	"gearloan-backend/internal/repository/memory"
	"gearloan-backend/internal/service"
	"gearloan-backend/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var zurich = time.FixedZone("CEST", 2*60*60)

// fixture is a memory-backed set of services with one admin and one member
type fixture struct {
	store    *memory.Store
	bookings service.BookingService
	items    service.ItemService
	users    service.UserService
	now      time.Time
	admin    domain.Caller
	member   domain.Caller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: memory.NewStore(),
		now:   time.Date(2026, 7, 1, 10, 0, 0, 0, zurich),
	}
	clock := func() time.Time { return f.now }
	f.bookings = service.NewBookingService(f.store, clock, zurich)
	f.items = service.NewItemService(f.store)
	f.users = service.NewUserService(f.store)
	f.admin = f.addUser(t, "admin@example.com", domain.UserRoleAdmin)
	f.member = f.addUser(t, "member@example.com", domain.UserRoleUser)
	return f
}

func (f *fixture) addUser(t *testing.T, email string, role domain.UserRole) domain.Caller {
	t.Helper()
	u := &domain.User{Name: email, Email: email, PasswordHash: "x", Role: role}
	require.NoError(t, f.store.Repos().Users.Create(context.Background(), u))
	return domain.Caller{UserID: u.ID, Role: role}
}

func (f *fixture) addItem(t *testing.T, name string, stock int32, price, replacement string) uuid.UUID {
	t.Helper()
	it := &domain.Item{
		Name:            name,
		Category:        domain.ItemCategoryShelter,
		Description:     name,
		PricePerDay:     decimal.RequireFromString(price),
		ReplacementCost: decimal.RequireFromString(replacement),
		TotalStock:      stock,
		AvailableStock:  stock,
	}
	require.NoError(t, f.store.Repos().Items.Create(context.Background(), it))
	return it.ID
}

func (f *fixture) item(t *testing.T, id uuid.UUID) *domain.Item {
	t.Helper()
	it, err := f.store.Repos().Items.GetByID(context.Background(), id)
	require.NoError(t, err)
	return it
}

func (f *fixture) booking(t *testing.T, id uuid.UUID) *domain.Booking {
	t.Helper()
	b, err := f.store.Repos().Bookings.GetByID(context.Background(), id)
	require.NoError(t, err)
	return b
}

func (f *fixture) book(t *testing.T, caller domain.Caller, start, end string, lines ...service.LineRequest) uuid.UUID {
	t.Helper()
	s, err := utils.ParseDate(start)
	require.NoError(t, err)
	e, err := utils.ParseDate(end)
	require.NoError(t, err)
	id, err := f.bookings.CreateBooking(context.Background(), caller, service.CreateBookingRequest{
		StartDate: s,
		EndDate:   e,
		Lines:     lines,
	})
	require.NoError(t, err)
	return id
}

func (f *fixture) setStatus(t *testing.T, id uuid.UUID, status domain.BookingStatus) {
	t.Helper()
	_, err := f.bookings.SetStatus(context.Background(), f.admin, id, string(status))
	require.NoError(t, err)
}

func line(itemID uuid.UUID, qty int32) service.LineRequest {
	return service.LineRequest{ItemID: itemID, Quantity: qty}
}

func kindOf(err error) domain.ErrorKind {
	return domain.KindOf(err)
}
