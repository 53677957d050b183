package catalog

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"campus-eats-api/models"
	"campus-eats-api/orders"
)

// Service answers price lookups against the authoritative menu. The
// orchestrator consults it at order creation so client-submitted prices
// are never trusted.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) Restaurant(ctx context.Context, id uint) (*models.Restaurant, error) {
	var r models.Restaurant
	err := s.db.WithContext(ctx).First(&r, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, orders.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// PriceLookup returns the current name/price snapshot for the requested
// item ids. Items of other restaurants are treated as unknown; removed
// items simply do not appear in the result.
func (s *Service) PriceLookup(ctx context.Context, restaurantID uint, itemIDs []uint) (map[uint]orders.PricedItem, error) {
	var items []models.MenuItem
	err := s.db.WithContext(ctx).
		Where("restaurant_id = ? AND id IN ?", restaurantID, itemIDs).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uint]orders.PricedItem, len(items))
	for _, it := range items {
		out[it.ID] = orders.PricedItem{
			Name:        it.Name,
			Price:       it.Price,
			IsPublished: it.IsPublished,
		}
	}
	return out, nil
}
