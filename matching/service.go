package matching

import (
	"context"

	"gorm.io/gorm"

	"campus-eats-api/models"
	"campus-eats-api/orders"
)

// Service surfaces READY, unassigned orders to eligible riders. Actual
// claiming is delegated to the orchestrator, whose conditional update
// guarantees exactly one rider wins per order.
type Service struct {
	db     *gorm.DB
	store  *orders.Store
	orders *orders.Service
}

func NewService(db *gorm.DB, store *orders.Store, orderSvc *orders.Service) *Service {
	return &Service{db: db, store: store, orders: orderSvc}
}

// ListAvailableOrders returns claimable orders for one rider, scoped to
// the rider's university and ordered oldest-first for FIFO fairness.
// Riders that are not online and available see nothing.
func (s *Service) ListAvailableOrders(ctx context.Context, riderID uint) ([]models.Order, error) {
	profile, err := s.store.RiderProfile(ctx, riderID)
	if err != nil {
		return nil, err
	}
	if !profile.CanTakeOrders() {
		return nil, orders.ErrRiderUnavailable
	}

	var rider models.User
	if err := s.db.WithContext(ctx).First(&rider, riderID).Error; err != nil {
		return nil, err
	}
	return s.store.FindAvailable(ctx, rider.University)
}

// Claim delegates to the orchestrator's atomic claim.
func (s *Service) Claim(ctx context.Context, orderID, riderID uint) (*models.Order, error) {
	return s.orders.RiderClaimOrder(ctx, orderID, riderID)
}
