package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gearloan-backend/internal/domain"
	"gearloan-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedItem(t *testing.T, s *Store, total int32) *domain.Item {
	t.Helper()
	item := &domain.Item{
		Name:            "Tent",
		Category:        domain.ItemCategoryShelter,
		PricePerDay:     decimal.NewFromInt(10),
		ReplacementCost: decimal.NewFromInt(100),
		TotalStock:      total,
		AvailableStock:  total,
	}
	require.NoError(t, s.Repos().Items.Create(context.Background(), item))
	return item
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	item := seedItem(t, s, 5)

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(repos repository.Repositories) error {
		require.NoError(t, repos.Items.AdjustStock(ctx, item.ID, -3, 0))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Repos().Items.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(5), got.AvailableStock)
}

func TestWithTxCommits(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	item := seedItem(t, s, 5)

	err := s.WithTx(ctx, func(repos repository.Repositories) error {
		return repos.Items.AdjustStock(ctx, item.ID, 2, -1)
	})
	assert.ErrorIs(t, err, repository.ErrInsufficientStock)

	err = s.WithTx(ctx, func(repos repository.Repositories) error {
		return repos.Items.AdjustStock(ctx, item.ID, -2, 0)
	})
	require.NoError(t, err)

	got, _ := s.Repos().Items.GetByID(ctx, item.ID)
	assert.Equal(t, int32(3), got.AvailableStock)
	assert.Equal(t, int32(5), got.TotalStock)
}

func TestRepositoriesRejectUseAfterTx(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	item := seedItem(t, s, 1)

	var leaked repository.Repositories
	require.NoError(t, s.WithTx(ctx, func(repos repository.Repositories) error {
		leaked = repos
		return nil
	}))
	_, err := leaked.Items.GetByID(ctx, item.ID)
	assert.Error(t, err)
}

func TestConcurrentReservationsOfLastUnits(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	item := seedItem(t, s, 2)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.WithTx(ctx, func(repos repository.Repositories) error {
				cur, err := repos.Items.GetByID(ctx, item.ID)
				if err != nil {
					return err
				}
				// widen the race window; the lock must still serialize us
				time.Sleep(5 * time.Millisecond)
				if cur.AvailableStock < 2 {
					return repository.ErrInsufficientStock
				}
				return repos.Items.AdjustStock(ctx, item.ID, -2, 0)
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if errors.Is(err, repository.ErrInsufficientStock) {
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)
	got, _ := s.Repos().Items.GetByID(ctx, item.ID)
	assert.Equal(t, int32(0), got.AvailableStock)
}

func TestDeleteItemKeepsLineSnapshots(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	repos := s.Repos()
	item := seedItem(t, s, 1)

	user := &domain.User{Name: "Kim", Email: "kim@example.com", Role: domain.UserRoleUser}
	require.NoError(t, repos.Users.Create(ctx, user))

	booking := &domain.Booking{
		UserID: user.ID,
		Status: domain.BookingStatusRejected,
		Lines:  []domain.BookingLine{{ItemID: item.ID, ItemName: item.Name, Quantity: 1, OriginalQuantity: 1}},
	}
	require.NoError(t, repos.Bookings.Create(ctx, booking))
	require.NoError(t, repos.Items.Delete(ctx, item.ID))

	got, err := repos.Bookings.GetByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, got.Lines[0].ItemID)
	assert.Equal(t, "Tent", got.Lines[0].ItemName)
	assert.Equal(t, "Kim", got.UserName)
}

func TestUserEmailUnique(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.Repos().Users.Create(ctx, &domain.User{Email: "a@example.com"}))
	err := s.Repos().Users.Create(ctx, &domain.User{Email: " A@Example.com"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}
