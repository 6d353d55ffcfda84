package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ItemCategory string

const (
	ItemCategoryShelter  ItemCategory = "SHELTER"
	ItemCategoryCooking  ItemCategory = "COOKING"
	ItemCategorySleeping ItemCategory = "SLEEPING"
	ItemCategoryLighting ItemCategory = "LIGHTING"
	ItemCategoryOther    ItemCategory = "OTHER"
)

var ItemCategories = []ItemCategory{
	ItemCategoryShelter,
	ItemCategoryCooking,
	ItemCategorySleeping,
	ItemCategoryLighting,
	ItemCategoryOther,
}

func ParseItemCategory(s string) (ItemCategory, error) {
	c := ItemCategory(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range ItemCategories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown item category: %q", s)
}

type Item struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Category        ItemCategory    `json:"category"`
	Description     string          `json:"description"`
	PricePerDay     decimal.Decimal `json:"price_per_day"`
	ReplacementCost decimal.Decimal `json:"replacement_cost"`
	ImageURL        string          `json:"image_url"`
	TotalStock      int32           `json:"total_stock"`
	AvailableStock  int32           `json:"available_stock"`
	CreatedOn       time.Time       `json:"created_on"`
	UpdatedOn       time.Time       `json:"updated_on"`
}

// CheckStock verifies 0 <= available <= total.
func (i *Item) CheckStock() error {
	if i.AvailableStock < 0 {
		return fmt.Errorf("item %s: available stock %d is negative", i.ID, i.AvailableStock)
	}
	if i.AvailableStock > i.TotalStock {
		return fmt.Errorf("item %s: available stock %d exceeds total stock %d", i.ID, i.AvailableStock, i.TotalStock)
	}
	return nil
}
