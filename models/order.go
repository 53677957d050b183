package models

import "time"

// OrderStatus represents all possible delivery states of an order
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusAccepted  OrderStatus = "ACCEPTED"
	StatusPreparing OrderStatus = "PREPARING"
	StatusReady     OrderStatus = "READY"
	StatusPickedUp  OrderStatus = "PICKED_UP"
	StatusDelivered OrderStatus = "DELIVERED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// PaymentStatus is an independent axis from delivery status — payment can
// fail or succeed regardless of kitchen or delivery progress
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

type Order struct {
	ID           uint        `json:"id" gorm:"primaryKey"`
	OrderNumber  string      `json:"order_number" gorm:"uniqueIndex;not null"`
	StudentID    uint        `json:"student_id" gorm:"not null"`
	Student      User        `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	RestaurantID uint        `json:"restaurant_id" gorm:"not null"`
	Restaurant   Restaurant  `json:"restaurant,omitempty" gorm:"foreignKey:RestaurantID"`
	RiderID      *uint       `json:"rider_id"`
	Rider        *User       `json:"rider,omitempty" gorm:"foreignKey:RiderID"`
	Status       OrderStatus `json:"status" gorm:"not null;default:'PENDING'"`

	PaymentStatus PaymentStatus `json:"payment_status" gorm:"not null;default:'PENDING'"`
	PaymentMethod string        `json:"payment_method"`
	PaymentRef    string        `json:"payment_ref" gorm:"index"`

	// Money fields are computed server-side from snapshotted prices and are
	// never recomputed after creation
	Subtotal    float64 `json:"subtotal"`
	DeliveryFee float64 `json:"delivery_fee"`
	Total       float64 `json:"total"`

	DeliveryAddress string      `json:"delivery_address" gorm:"not null"`
	Notes           string      `json:"notes"`
	Items           []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID"`

	RejectionReason string     `json:"rejection_reason,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	DeliveredAt     *time.Time `json:"delivered_at,omitempty"`

	// Post-delivery feedback, settable exactly once after DELIVERED
	Rating  *int       `json:"rating,omitempty"`
	Review  string     `json:"review,omitempty"`
	RatedAt *time.Time `json:"rated_at,omitempty"`

	StatusHistory []OrderStatusHistory `json:"status_history,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

type OrderItem struct {
	ID         uint     `json:"id" gorm:"primaryKey"`
	OrderID    uint     `json:"order_id" gorm:"not null"`
	MenuItemID uint     `json:"menu_item_id" gorm:"not null"`
	MenuItem   MenuItem `json:"menu_item,omitempty" gorm:"foreignKey:MenuItemID"`
	Name       string   `json:"name"`                       // snapshot name at time of order
	UnitPrice  float64  `json:"unit_price" gorm:"not null"` // snapshot price at time of order
	Quantity   int      `json:"quantity" gorm:"not null"`
	LineTotal  float64  `json:"line_total"`
}

// OrderStatusHistory tracks every status change — audit trail
type OrderStatusHistory struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	OrderID    uint        `json:"order_id" gorm:"not null"`
	FromStatus OrderStatus `json:"from_status"`
	ToStatus   OrderStatus `json:"to_status" gorm:"not null"`
	ChangedBy  uint        `json:"changed_by"` // user ID who triggered the transition
	Note       string      `json:"note"`
	CreatedAt  time.Time   `json:"created_at"`
}
