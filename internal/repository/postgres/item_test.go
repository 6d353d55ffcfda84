package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"gearloan-backend/internal/domain"
	"gearloan-backend/internal/repository"
	"gearloan-backend/internal/repository/postgres"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var itemCols = []string{"id", "name", "category", "description", "price_per_day", "replacement_cost", "image_url", "total_stock", "available_stock", "created_on", "updated_on"}

func TestItemRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewItemRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		item := &domain.Item{
			Name:            "Two-person tent",
			Category:        domain.ItemCategoryShelter,
			Description:     "Lightweight",
			PricePerDay:     decimal.RequireFromString("12.50"),
			ReplacementCost: decimal.RequireFromString("250"),
			TotalStock:      5,
			AvailableStock:  5,
		}

		mock.ExpectExec("INSERT INTO items").
			WithArgs(sqlmock.AnyArg(), item.Name, item.Category, item.Description, item.PricePerDay, item.ReplacementCost,
				"", int32(5), int32(5), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Create(ctx, item)
		assert.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, item.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Stock check violation", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO items").
			WillReturnError(&pq.Error{Code: "23514", Constraint: "items_stock_bounds"})

		err := repo.Create(ctx, &domain.Item{Name: "Broken", TotalStock: 1, AvailableStock: 2})
		assert.ErrorIs(t, err, repository.ErrInsufficientStock)
	})
}

func TestItemRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewItemRepository(db)
	ctx := context.Background()
	id := uuid.New()

	t.Run("Success", func(t *testing.T) {
		now := time.Now()
		rows := sqlmock.NewRows(itemCols).
			AddRow(id.String(), "Lantern", "LIGHTING", "", "4.00", "30.00", "", 3, 2, now, now)
		mock.ExpectQuery("SELECT (.+) FROM items WHERE id = \\$1").
			WithArgs(id).
			WillReturnRows(rows)

		item, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, item.ID)
		assert.Equal(t, domain.ItemCategoryLighting, item.Category)
		assert.True(t, decimal.RequireFromString("4").Equal(item.PricePerDay))
		assert.Equal(t, int32(2), item.AvailableStock)
	})

	t.Run("Not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM items WHERE id = \\$1").
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(itemCols))

		_, err := repo.GetByID(ctx, id)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestItemRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewItemRepository(db)
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM items WHERE category = \\$1 ORDER BY name").
		WithArgs(domain.ItemCategoryCooking).
		WillReturnRows(sqlmock.NewRows(itemCols).
			AddRow(uuid.NewString(), "Stove", "COOKING", "", "6.00", "80.00", "", 4, 4, now, now).
			AddRow(uuid.NewString(), "Pot set", "COOKING", "", "2.00", "25.00", "", 6, 1, now, now))

	items, err := repo.List(context.Background(), repository.ItemFilter{Category: domain.ItemCategoryCooking})
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, "Pot set", items[1].Name)
}

func TestItemRepository_AdjustStock(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewItemRepository(db)
	ctx := context.Background()
	id := uuid.New()

	t.Run("Reserve succeeds", func(t *testing.T) {
		mock.ExpectExec("UPDATE items").
			WithArgs(id, int32(-2), int32(0), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.AdjustStock(ctx, id, -2, 0))
	})

	t.Run("Guard refuses", func(t *testing.T) {
		mock.ExpectExec("UPDATE items").
			WithArgs(id, int32(-3), int32(0), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		err := repo.AdjustStock(ctx, id, -3, 0)
		assert.ErrorIs(t, err, repository.ErrInsufficientStock)
	})

	t.Run("Missing item", func(t *testing.T) {
		mock.ExpectExec("UPDATE items").
			WithArgs(id, int32(1), int32(-1), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		err := repo.AdjustStock(ctx, id, 1, -1)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("Driver failure", func(t *testing.T) {
		mock.ExpectExec("UPDATE items").
			WillReturnError(errors.New("connection reset"))

		err := repo.AdjustStock(ctx, id, 1, 0)
		assert.EqualError(t, err, "connection reset")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItemRepository_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewItemRepository(db)
	id := uuid.New()

	mock.ExpectExec("DELETE FROM items WHERE id = \\$1").
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.Delete(context.Background(), id)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
