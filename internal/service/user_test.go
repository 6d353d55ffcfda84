package service_test

import (
	"context"
	"testing"
	"time"

	"gearloan-backend/internal/domain"
	"gearloan-backend/internal/security"
	"gearloan-backend/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateUserRole(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	u, err := f.users.UpdateUserRole(ctx, f.admin, f.member.UserID, "admin")
	require.NoError(t, err)
	assert.Equal(t, domain.UserRoleAdmin, u.Role)

	_, err = f.users.UpdateUserRole(ctx, f.admin, f.admin.UserID, "USER")
	assert.Equal(t, domain.KindForbidden, kindOf(err))
	_, err = f.users.UpdateUserRole(ctx, f.admin, f.member.UserID, "owner")
	assert.Equal(t, domain.KindBadRequest, kindOf(err))
	_, err = f.users.UpdateUserRole(ctx, f.admin, uuid.New(), "USER")
	assert.Equal(t, domain.KindNotFound, kindOf(err))
}

func TestDeleteUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tent := f.addItem(t, "Tent", 5, "10.00", "150.00")
	id := f.book(t, f.member, "2026-07-01", "2026-07-03", line(tent, 1))

	assert.Equal(t, domain.KindForbidden, kindOf(f.users.DeleteUser(ctx, f.member, f.admin.UserID)))
	assert.Equal(t, domain.KindForbidden, kindOf(f.users.DeleteUser(ctx, f.admin, f.admin.UserID)))
	assert.Equal(t, domain.KindConflict, kindOf(f.users.DeleteUser(ctx, f.admin, f.member.UserID)))

	f.setStatus(t, id, domain.BookingStatusRejected)
	require.NoError(t, f.users.DeleteUser(ctx, f.admin, f.member.UserID))

	users, err := f.users.ListUsers(ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	_, err = f.bookings.GetBooking(ctx, f.admin, id)
	assert.Equal(t, domain.KindNotFound, kindOf(err))
}

func TestAuth_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tokens := security.NewTokenManager("0123456789abcdef0123456789abcdef", time.Hour)
	auth := service.NewAuthService(f.store, tokens)

	user, err := auth.Register(ctx, "Hiker", "Hiker@Example.com", "trailmix42")
	require.NoError(t, err)
	assert.Equal(t, "hiker@example.com", user.Email)
	assert.Equal(t, domain.UserRoleUser, user.Role)
	assert.NotEqual(t, "trailmix42", user.PasswordHash)

	_, err = auth.Register(ctx, "Again", "hiker@example.com", "trailmix42")
	assert.Equal(t, domain.KindConflict, kindOf(err))
	_, err = auth.Register(ctx, "Short", "short@example.com", "abc")
	assert.Equal(t, domain.KindBadRequest, kindOf(err))
	_, err = auth.Register(ctx, "Bad", "not-an-email", "trailmix42")
	assert.Equal(t, domain.KindBadRequest, kindOf(err))

	token, logged, err := auth.Login(ctx, "HIKER@example.com", "trailmix42")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)

	claims, err := tokens.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, domain.UserRoleUser, claims.Role)

	_, _, err = auth.Login(ctx, "hiker@example.com", "wrong-password")
	assert.Equal(t, domain.KindUnauthorized, kindOf(err))
	_, _, err = auth.Login(ctx, "nobody@example.com", "trailmix42")
	assert.Equal(t, domain.KindUnauthorized, kindOf(err))
}
