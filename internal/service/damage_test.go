package service_test

import (
	"context"
	"testing"
	"time"

	"gearloan-backend/internal/domain"
	"gearloan-backend/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportDamage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tent := f.addItem(t, "Tent", 5, "10.00", "150.00")
	id := f.book(t, f.member, "2026-07-01", "2026-07-03", line(tent, 2))
	lineID := f.booking(t, id).Lines[0].ID

	_, err := f.bookings.ReportDamage(ctx, f.member, lineID, "torn fly", "")
	assert.Equal(t, domain.KindConflict, kindOf(err), "pending bookings cannot take reports")

	f.setStatus(t, id, domain.BookingStatusApproved)

	_, err = f.bookings.ReportDamage(ctx, f.admin, lineID, "torn fly", "")
	assert.Equal(t, domain.KindForbidden, kindOf(err))

	_, err = f.bookings.ReportDamage(ctx, f.member, lineID, "   ", "")
	assert.Equal(t, domain.KindBadRequest, kindOf(err))

	_, err = f.bookings.ReportDamage(ctx, f.member, uuid.New(), "torn fly", "")
	assert.Equal(t, domain.KindNotFound, kindOf(err))

	reportID, err := f.bookings.ReportDamage(ctx, f.member, lineID, "torn fly", "photos/fly.jpg")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, reportID)

	b := f.booking(t, id)
	require.Len(t, b.Lines[0].DamageReports, 1)
	rep := b.Lines[0].DamageReports[0]
	assert.Equal(t, "torn fly", rep.Description)
	assert.Equal(t, "photos/fly.jpg", rep.PhotoRef)
	assert.Equal(t, f.member.UserID, rep.ReporterID)

	// the next day is outside the window even while active
	f.setStatus(t, id, domain.BookingStatusActive)
	f.now = f.now.Add(24 * time.Hour)
	_, err = f.bookings.ReportDamage(ctx, f.member, lineID, "bent pole", "")
	assert.Equal(t, domain.KindConflict, kindOf(err))
}

func TestReportDamage_UsesBookingTimeZone(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tent := f.addItem(t, "Tent", 5, "10.00", "150.00")
	id := f.book(t, f.member, "2026-07-01", "2026-07-03", line(tent, 1))
	f.setStatus(t, id, domain.BookingStatusApproved)
	lineID := f.booking(t, id).Lines[0].ID

	// 23:30 UTC on June 30 is already July 1 in the booking zone
	f.now = time.Date(2026, 6, 30, 23, 30, 0, 0, time.UTC)
	_, err := f.bookings.ReportDamage(ctx, f.member, lineID, "scratched", "")
	assert.NoError(t, err)
}

func TestProposePickupSlots(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	other := f.addUser(t, "other@example.com", domain.UserRoleUser)
	tent := f.addItem(t, "Tent", 5, "10.00", "150.00")
	id := f.book(t, f.member, "2026-07-03", "2026-07-05", line(tent, 1))

	slot := func(day, hour int) service.PickupSlotRequest {
		start := time.Date(2026, 7, day, hour, 0, 0, 0, zurich)
		return service.PickupSlotRequest{Start: start, End: start.Add(time.Hour)}
	}

	_, err := f.bookings.ProposePickupSlots(ctx, f.member, id, []service.PickupSlotRequest{slot(2, 9)})
	assert.Equal(t, domain.KindConflict, kindOf(err), "booking must be approved")

	f.setStatus(t, id, domain.BookingStatusApproved)

	_, err = f.bookings.ProposePickupSlots(ctx, other, id, []service.PickupSlotRequest{slot(2, 9)})
	assert.Equal(t, domain.KindForbidden, kindOf(err))

	_, err = f.bookings.ProposePickupSlots(ctx, f.member, id, nil)
	assert.Equal(t, domain.KindBadRequest, kindOf(err))

	_, err = f.bookings.ProposePickupSlots(ctx, f.member, id, []service.PickupSlotRequest{slot(1, 9), slot(1, 10), slot(2, 9), slot(2, 10)})
	assert.Equal(t, domain.KindBadRequest, kindOf(err))

	_, err = f.bookings.ProposePickupSlots(ctx, f.member, id, []service.PickupSlotRequest{slot(4, 9)})
	assert.Equal(t, domain.KindBadRequest, kindOf(err), "pickup after the start date")

	backwards := slot(2, 9)
	backwards.End = backwards.Start.Add(-time.Minute)
	_, err = f.bookings.ProposePickupSlots(ctx, f.member, id, []service.PickupSlotRequest{backwards})
	assert.Equal(t, domain.KindBadRequest, kindOf(err))

	_, err = f.bookings.ProposePickupSlots(ctx, f.member, id, []service.PickupSlotRequest{slot(1, 9), slot(2, 9)})
	require.NoError(t, err)

	slots, err := f.bookings.ProposePickupSlots(ctx, f.admin, id, []service.PickupSlotRequest{slot(3, 8)})
	require.NoError(t, err)
	require.Len(t, slots, 1)

	b := f.booking(t, id)
	require.Len(t, b.PickupSlots, 1, "a new proposal replaces the old one")
	assert.True(t, b.PickupSlots[0].StartsAt.Equal(slot(3, 8).Start))
}
