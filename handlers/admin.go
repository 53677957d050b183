package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"campus-eats-api/middleware"
	"campus-eats-api/models"
	"campus-eats-api/orders"
)

type AdminHandler struct {
	db  *gorm.DB
	svc *orders.Service
}

func NewAdminHandler(db *gorm.DB, svc *orders.Service) *AdminHandler {
	return &AdminHandler{db: db, svc: svc}
}

// GetAllOrders returns all orders with full detail plus a status summary
func (h *AdminHandler) GetAllOrders(c *gin.Context) {
	var list []models.Order
	query := h.db.Preload("Items.MenuItem").
		Preload("Student").Preload("Restaurant").Preload("Rider").Preload("StatusHistory")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if studentID := c.Query("student_id"); studentID != "" {
		query = query.Where("student_id = ?", studentID)
	}
	if restaurantID := c.Query("restaurant_id"); restaurantID != "" {
		query = query.Where("restaurant_id = ?", restaurantID)
	}

	query.Order("created_at desc").Find(&list)

	summary := map[string]int{}
	var totalRevenue float64
	for _, o := range list {
		summary[string(o.Status)]++
		if o.Status == models.StatusDelivered {
			totalRevenue += o.Total
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"order_summary": summary,
		"total_revenue": totalRevenue,
		"count":         len(list),
		"orders":        list,
	})
}

type AssignRiderRequest struct {
	RiderID uint `json:"rider_id" binding:"required"`
}

// AssignRider attaches a rider to a PENDING or ACCEPTED order
func (h *AdminHandler) AssignRider(c *gin.Context) {
	orderID, ok := parseID(c)
	if !ok {
		return
	}

	var req AssignRiderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.svc.AssignRider(c.Request.Context(), orderID, req.RiderID, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rider assigned", "order": order})
}

// GetAllUsers returns all users, optionally filtered by role
func (h *AdminHandler) GetAllUsers(c *gin.Context) {
	var users []models.User
	query := h.db
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	query.Find(&users)
	c.JSON(http.StatusOK, gin.H{"count": len(users), "users": users})
}

// GetAllRestaurants returns all restaurants including unapproved ones
func (h *AdminHandler) GetAllRestaurants(c *gin.Context) {
	var restaurants []models.Restaurant
	h.db.Preload("Owner").Preload("MenuItems").Find(&restaurants)
	c.JSON(http.StatusOK, gin.H{"count": len(restaurants), "restaurants": restaurants})
}

// ApproveRestaurant flips the approval flag so the restaurant can take orders
func (h *AdminHandler) ApproveRestaurant(c *gin.Context) {
	var restaurant models.Restaurant
	if err := h.db.First(&restaurant, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant not found"})
		return
	}
	h.db.Model(&restaurant).Update("is_approved", true)
	c.JSON(http.StatusOK, gin.H{"message": "Restaurant approved", "restaurant_id": restaurant.ID})
}
