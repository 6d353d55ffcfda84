package postgres

import (
	"context"
	"fmt"
	"time"

	"gearloan-backend/internal/domain"
	"gearloan-backend/internal/logger"
	"gearloan-backend/internal/repository"

	"github.com/google/uuid"
)

type itemRepository struct {
	db DBTX
}

func NewItemRepository(db DBTX) repository.ItemRepository {
	return &itemRepository{db: db}
}

const itemColumns = `id, name, category, description, price_per_day, replacement_cost, image_url, total_stock, available_stock, created_on, updated_on`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*domain.Item, error) {
	var it domain.Item
	err := row.Scan(&it.ID, &it.Name, &it.Category, &it.Description, &it.PricePerDay, &it.ReplacementCost,
		&it.ImageURL, &it.TotalStock, &it.AvailableStock, &it.CreatedOn, &it.UpdatedOn)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *itemRepository) Create(ctx context.Context, it *domain.Item) error {
	logger.EnterMethod("itemRepository.Create", "name", it.Name)

	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	now := time.Now().UTC()
	it.CreatedOn = now
	it.UpdatedOn = now

	query := `INSERT INTO items (` + itemColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	logger.DatabaseCall("INSERT", "items")
	res, err := r.db.ExecContext(ctx, query, it.ID, it.Name, it.Category, it.Description, it.PricePerDay,
		it.ReplacementCost, it.ImageURL, it.TotalStock, it.AvailableStock, it.CreatedOn, it.UpdatedOn)
	logResult("INSERT items", res, err)
	if err != nil {
		err = mapError(err)
		logger.ExitMethodWithError("itemRepository.Create", err)
		return err
	}

	logger.ExitMethod("itemRepository.Create", "itemID", it.ID)
	return nil
}

func (r *itemRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`
	logger.DatabaseCall("SELECT", "items", "itemID", id)
	it, err := scanItem(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	return it, nil
}

func (r *itemRepository) List(ctx context.Context, filter repository.ItemFilter) ([]domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items`
	var args []any
	if filter.Category != "" {
		query += ` WHERE category = $1`
		args = append(args, filter.Category)
	}
	query += ` ORDER BY name, id`

	logger.DatabaseCall("SELECT", "items", "category", filter.Category)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

func (r *itemRepository) Update(ctx context.Context, it *domain.Item) error {
	it.UpdatedOn = time.Now().UTC()
	query := `UPDATE items SET name=$1, category=$2, description=$3, price_per_day=$4, replacement_cost=$5, image_url=$6, updated_on=$7 WHERE id=$8`
	logger.DatabaseCall("UPDATE", "items", "itemID", it.ID)
	res, err := r.db.ExecContext(ctx, query, it.Name, it.Category, it.Description, it.PricePerDay,
		it.ReplacementCost, it.ImageURL, it.UpdatedOn, it.ID)
	logResult("UPDATE items", res, err)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}

func (r *itemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	logger.DatabaseCall("DELETE", "items", "itemID", id)
	res, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	logResult("DELETE items", res, err)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}

func (r *itemRepository) AdjustStock(ctx context.Context, id uuid.UUID, availableDelta, totalDelta int32) error {
	logger.EnterMethod("itemRepository.AdjustStock", "itemID", id, "availableDelta", availableDelta, "totalDelta", totalDelta)

	// The guard makes concurrent reservations of the last units mutually exclusive.
	query := `UPDATE items
	          SET available_stock = available_stock + $2, total_stock = total_stock + $3, updated_on = $4
	          WHERE id = $1 AND available_stock + $2 >= 0 AND available_stock + $2 <= total_stock + $3`
	logger.DatabaseCall("UPDATE", "items.stock", "itemID", id)
	res, err := r.db.ExecContext(ctx, query, id, availableDelta, totalDelta, time.Now().UTC())
	logResult("UPDATE items.stock", res, err)
	if err != nil {
		err = mapError(err)
		logger.ExitMethodWithError("itemRepository.AdjustStock", err, "itemID", id)
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM items WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return repository.ErrNotFound
		}
		return fmt.Errorf("%w: item %s", repository.ErrInsufficientStock, id)
	}

	logger.ExitMethod("itemRepository.AdjustStock", "itemID", id)
	return nil
}
