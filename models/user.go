package models

import (
	"time"
)

// UserRole defines allowed roles in the system
type UserRole string

const (
	RoleStudent    UserRole = "student"
	RoleRestaurant UserRole = "restaurant"
	RoleRider      UserRole = "rider"
	RoleAdmin      UserRole = "admin"
)

type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Role         UserRole  `json:"role" gorm:"not null;default:'student'"`
	Phone        string    `json:"phone"`
	University   string    `json:"university"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RiderProfile holds delivery-agent availability and lifetime stats.
// A rider never owns orders; orders reference the rider via Order.RiderID.
type RiderProfile struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	UserID          uint      `json:"user_id" gorm:"uniqueIndex;not null"`
	User            User      `json:"user,omitempty" gorm:"foreignKey:UserID"`
	IsOnline        bool      `json:"is_online" gorm:"default:false"`
	IsAvailable     bool      `json:"is_available" gorm:"default:false"`
	TotalDeliveries int       `json:"total_deliveries" gorm:"default:0"`
	TotalEarnings   float64   `json:"total_earnings" gorm:"default:0"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CanTakeOrders reports whether the rider may receive new work.
// Both flags must be true.
func (r *RiderProfile) CanTakeOrders() bool {
	return r.IsOnline && r.IsAvailable
}
