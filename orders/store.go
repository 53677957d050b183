package orders

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"campus-eats-api/models"
)

// writeTimeout bounds every store mutation so no operation blocks
// indefinitely; on timeout the conditional-update pattern guarantees
// all-or-nothing.
const writeTimeout = 5 * time.Second

// Store is the durable, transactional record of orders. All status
// mutations go through conditional UPDATEs predicated on the expected
// current status; RowsAffected == 1 is the success signal, 0 means a
// concurrent writer got there first.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, o *models.Order) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return s.db.WithContext(ctx).Create(o).Error
}

func (s *Store) Get(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	err := s.db.WithContext(ctx).Preload("Items").First(&o, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// GetDetailed loads an order with all relations for API responses and
// notification fan-out.
func (s *Store) GetDetailed(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	err := s.db.WithContext(ctx).
		Preload("Items.MenuItem").
		Preload("Student").
		Preload("Restaurant.Owner").
		Preload("Rider").
		Preload("StatusHistory").
		First(&o, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Store) GetByPaymentRef(ctx context.Context, ref string) (*models.Order, error) {
	var o models.Order
	err := s.db.WithContext(ctx).Where("payment_ref = ?", ref).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ConditionalUpdate applies patch only if the order is still in the
// expected status. Returns false when the predicate no longer holds.
func (s *Store) ConditionalUpdate(ctx context.Context, id uint, expected models.OrderStatus, patch map[string]interface{}) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(patch)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// AssignRider sets the rider only while the order is in the expected
// status and still unassigned, optionally advancing the status in the
// same write.
func (s *Store) AssignRider(ctx context.Context, id uint, expected models.OrderStatus, riderID uint, newStatus models.OrderStatus) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ? AND rider_id IS NULL", id, expected).
		Updates(map[string]interface{}{
			"rider_id": riderID,
			"status":   newStatus,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Claim is the rider self-service assignment: succeeds only if the
// order is READY and unassigned at write time, so exactly one of any
// number of concurrent claimers wins.
func (s *Store) Claim(ctx context.Context, id uint, riderID uint) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ? AND rider_id IS NULL", id, models.StatusReady).
		Update("rider_id", riderID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DeliverAndCredit transitions PICKED_UP → DELIVERED and credits the
// rider's lifetime stats in the same transaction.
func (s *Store) DeliverAndCredit(ctx context.Context, id uint, riderID uint, earnings float64, now time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	won := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ? AND rider_id = ?", id, models.StatusPickedUp, riderID).
			Updates(map[string]interface{}{
				"status":       models.StatusDelivered,
				"delivered_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return nil
		}
		won = true
		return tx.Model(&models.RiderProfile{}).
			Where("user_id = ?", riderID).
			Updates(map[string]interface{}{
				"total_deliveries": gorm.Expr("total_deliveries + 1"),
				"total_earnings":   gorm.Expr("total_earnings + ?", earnings),
			}).Error
	})
	if err != nil {
		return false, err
	}
	return won, nil
}

// Rate writes the one-time rating; the predicate makes it immutable
// after the first success.
func (s *Store) Rate(ctx context.Context, id uint, rating int, review string, now time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ? AND rating IS NULL", id, models.StatusDelivered).
		Updates(map[string]interface{}{
			"rating":   rating,
			"review":   review,
			"rated_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// SetPaymentStatus only ever writes the payment axis, never delivery
// status.
func (s *Store) SetPaymentStatus(ctx context.Context, id uint, status models.PaymentStatus) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Update("payment_status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindAvailable returns READY, unassigned orders oldest-first, scoped to
// a university when one is given.
func (s *Store) FindAvailable(ctx context.Context, university string) ([]models.Order, error) {
	var out []models.Order
	q := s.db.WithContext(ctx).
		Preload("Restaurant").
		Joins("JOIN restaurants ON restaurants.id = orders.restaurant_id").
		Where("orders.status = ? AND orders.rider_id IS NULL", models.StatusReady)
	if university != "" {
		q = q.Where("restaurants.university = ?", university)
	}
	err := q.Order("orders.created_at asc, orders.id asc").Find(&out).Error
	return out, err
}

func (s *Store) ListByStudent(ctx context.Context, studentID uint) ([]models.Order, error) {
	var out []models.Order
	err := s.db.WithContext(ctx).
		Preload("Items").Preload("Restaurant").
		Where("student_id = ?", studentID).
		Order("created_at desc").Find(&out).Error
	return out, err
}

func (s *Store) ListByRestaurant(ctx context.Context, restaurantID uint, status models.OrderStatus) ([]models.Order, error) {
	var out []models.Order
	q := s.db.WithContext(ctx).
		Preload("Items").Preload("Student").Preload("Rider").
		Where("restaurant_id = ?", restaurantID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("created_at desc").Find(&out).Error
	return out, err
}

func (s *Store) ListByRider(ctx context.Context, riderID uint) ([]models.Order, error) {
	var out []models.Order
	err := s.db.WithContext(ctx).
		Preload("Items").Preload("Restaurant").Preload("Student").
		Where("rider_id = ?", riderID).
		Order("updated_at desc").Find(&out).Error
	return out, err
}

// RiderProfile looks up the delivery profile for a rider user.
func (s *Store) RiderProfile(ctx context.Context, userID uint) (*models.RiderProfile, error) {
	var p models.RiderProfile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// RefreshRestaurantRating recomputes the restaurant aggregate from all
// rated orders.
func (s *Store) RefreshRestaurantRating(ctx context.Context, restaurantID uint) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return s.db.WithContext(ctx).Model(&models.Restaurant{}).
		Where("id = ?", restaurantID).
		Update("rating", gorm.Expr(
			"(SELECT COALESCE(AVG(rating), 0) FROM orders WHERE restaurant_id = ? AND rating IS NOT NULL)",
			restaurantID,
		)).Error
}

// SetRiderAvailability flips the rider's online/available flags,
// creating the profile on first use.
func (s *Store) SetRiderAvailability(ctx context.Context, userID uint, online, available bool) (*models.RiderProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	var p models.RiderProfile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		p = models.RiderProfile{UserID: userID, IsOnline: online, IsAvailable: available}
		if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
			return nil, err
		}
		return &p, nil
	}
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Model(&p).Updates(map[string]interface{}{
		"is_online":    online,
		"is_available": available,
	}).Error
	if err != nil {
		return nil, err
	}
	p.IsOnline = online
	p.IsAvailable = available
	return &p, nil
}

func (s *Store) AppendHistory(ctx context.Context, h *models.OrderStatusHistory) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return s.db.WithContext(ctx).Create(h).Error
}
