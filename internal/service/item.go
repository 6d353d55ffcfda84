package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gearloan-backend/internal/domain"
	"gearloan-backend/internal/logger"
	"gearloan-backend/internal/repository"

	"github.com/google/uuid"
)

type itemService struct {
	store repository.Store
}

func NewItemService(store repository.Store) ItemService {
	return &itemService{store: store}
}

func (s *itemService) ListItems(ctx context.Context, category string) ([]domain.Item, error) {
	filter := repository.ItemFilter{}
	if strings.TrimSpace(category) != "" {
		c, err := domain.ParseItemCategory(category)
		if err != nil {
			return nil, domain.BadRequest("%v", err)
		}
		filter.Category = c
	}
	return s.store.Repos().Items.List(ctx, filter)
}

func (s *itemService) GetItem(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	item, err := s.store.Repos().Items.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "item %s", id)
	}
	return item, nil
}

// validateItem checks the descriptive fields shared by create and update
func validateItem(in ItemInput) (*domain.Item, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.BadRequest("item name is required")
	}
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return nil, domain.BadRequest("item description is required")
	}
	category, err := domain.ParseItemCategory(in.Category)
	if err != nil {
		return nil, domain.BadRequest("%v", err)
	}
	if !in.PricePerDay.IsPositive() {
		return nil, domain.BadRequest("price per day must be greater than 0")
	}
	if in.ReplacementCost.IsNegative() {
		return nil, domain.BadRequest("replacement cost must not be negative")
	}
	return &domain.Item{
		Name:            name,
		Category:        category,
		Description:     desc,
		PricePerDay:     in.PricePerDay.Round(2),
		ReplacementCost: in.ReplacementCost.Round(2),
		ImageURL:        strings.TrimSpace(in.ImageURL),
	}, nil
}

func (s *itemService) CreateItem(ctx context.Context, caller domain.Caller, in ItemInput) (*domain.Item, error) {
	logger.EnterMethod("itemService.CreateItem", "name", in.Name)

	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	item, err := validateItem(in)
	if err != nil {
		return nil, err
	}
	if in.TotalStock < 1 {
		return nil, domain.BadRequest("total stock must be at least 1")
	}
	item.TotalStock = in.TotalStock
	item.AvailableStock = in.TotalStock
	if in.AvailableStock != nil {
		item.AvailableStock = *in.AvailableStock
	}
	if err := item.CheckStock(); err != nil {
		return nil, domain.BadRequest("available stock must be between 0 and total stock")
	}

	if err := s.store.Repos().Items.Create(ctx, item); err != nil {
		logger.ExitMethodWithError("itemService.CreateItem", err)
		return nil, fmt.Errorf("create item: %w", err)
	}

	logger.StockMovement(item.ID.String(), item.AvailableStock, item.TotalStock, "create")
	logger.ExitMethod("itemService.CreateItem", "itemID", item.ID)
	return item, nil
}

func (s *itemService) UpdateItem(ctx context.Context, caller domain.Caller, id uuid.UUID, in ItemInput) (*domain.Item, error) {
	logger.EnterMethod("itemService.UpdateItem", "itemID", id)

	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	changes, err := validateItem(in)
	if err != nil {
		return nil, err
	}

	var out *domain.Item
	err = s.store.WithTx(ctx, func(repos repository.Repositories) error {
		item, err := repos.Items.GetByID(ctx, id)
		if err != nil {
			return notFoundAs(err, "item %s", id)
		}
		item.Name = changes.Name
		item.Category = changes.Category
		item.Description = changes.Description
		item.PricePerDay = changes.PricePerDay
		item.ReplacementCost = changes.ReplacementCost
		item.ImageURL = changes.ImageURL
		if err := repos.Items.Update(ctx, item); err != nil {
			return notFoundAs(err, "item %s", id)
		}
		out = item
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("itemService.UpdateItem", err, "itemID", id)
		return nil, err
	}

	logger.ExitMethod("itemService.UpdateItem", "itemID", id)
	return out, nil
}

// RestockItem adds delta units to both counters. A negative delta retires idle
// units and is refused when fewer than -delta are available.
func (s *itemService) RestockItem(ctx context.Context, caller domain.Caller, id uuid.UUID, delta int32) (*domain.Item, error) {
	logger.EnterMethod("itemService.RestockItem", "itemID", id, "delta", delta)

	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if delta == 0 {
		return nil, domain.BadRequest("restock delta must not be zero")
	}

	var out *domain.Item
	err := s.store.WithTx(ctx, func(repos repository.Repositories) error {
		err := repos.Items.AdjustStock(ctx, id, delta, delta)
		switch {
		case err == nil:
		case errors.Is(err, repository.ErrInsufficientStock):
			return domain.Conflict("cannot retire %d units of item %s, they are not all idle", -delta, id)
		default:
			return notFoundAs(err, "item %s", id)
		}
		out, err = repos.Items.GetByID(ctx, id)
		return err
	})
	if err != nil {
		logger.ExitMethodWithError("itemService.RestockItem", err, "itemID", id)
		return nil, err
	}

	logger.StockMovement(id.String(), delta, delta, "restock")
	logger.ExitMethod("itemService.RestockItem", "itemID", id)
	return out, nil
}

func (s *itemService) DeleteItem(ctx context.Context, caller domain.Caller, id uuid.UUID) error {
	logger.EnterMethod("itemService.DeleteItem", "itemID", id)

	if err := requireAdmin(caller); err != nil {
		return err
	}
	err := s.store.WithTx(ctx, func(repos repository.Repositories) error {
		if _, err := repos.Items.GetByID(ctx, id); err != nil {
			return notFoundAs(err, "item %s", id)
		}
		open, err := repos.Bookings.CountOpenForItem(ctx, id)
		if err != nil {
			return err
		}
		if open > 0 {
			return domain.Conflict("item %s is part of %d open booking(s)", id, open)
		}
		return notFoundAs(repos.Items.Delete(ctx, id), "item %s", id)
	})
	if err != nil {
		logger.ExitMethodWithError("itemService.DeleteItem", err, "itemID", id)
		return err
	}

	logger.ExitMethod("itemService.DeleteItem", "itemID", id)
	return nil
}
