package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"campus-eats-api/models"
	"campus-eats-api/statemachine"
)

type PublicHandler struct {
	db *gorm.DB
}

func NewPublicHandler(db *gorm.DB) *PublicHandler {
	return &PublicHandler{db: db}
}

// ListRestaurants returns all approved restaurants (public)
func (h *PublicHandler) ListRestaurants(c *gin.Context) {
	var restaurants []models.Restaurant
	query := h.db.Where("is_approved = ?", true)

	if cuisine := c.Query("cuisine"); cuisine != "" {
		query = query.Where("cuisine LIKE ?", "%"+cuisine+"%")
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}
	if university := c.Query("university"); university != "" {
		query = query.Where("university = ?", university)
	}

	query.Find(&restaurants)
	c.JSON(http.StatusOK, gin.H{"count": len(restaurants), "restaurants": restaurants})
}

// GetRestaurant returns one restaurant's public profile
func (h *PublicHandler) GetRestaurant(c *gin.Context) {
	var restaurant models.Restaurant
	if err := h.db.First(&restaurant, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurant": restaurant})
}

// GetMenu returns a restaurant's published menu items
func (h *PublicHandler) GetMenu(c *gin.Context) {
	var restaurant models.Restaurant
	if err := h.db.First(&restaurant, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant not found"})
		return
	}

	var items []models.MenuItem
	query := h.db.Where("restaurant_id = ? AND is_published = ?", restaurant.ID, true)
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	query.Find(&items)

	c.JSON(http.StatusOK, gin.H{
		"restaurant": restaurant.Name,
		"is_open":    restaurant.IsOpen,
		"count":      len(items),
		"menu":       items,
	})
}

// GetStateMachineInfo documents the order status graph
func (h *PublicHandler) GetStateMachineInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"statuses": []models.OrderStatus{
			models.StatusPending, models.StatusAccepted, models.StatusPreparing,
			models.StatusReady, models.StatusPickedUp, models.StatusDelivered,
			models.StatusCancelled,
		},
		"transitions":      statemachine.AllTransitions(),
		"payment_statuses": []models.PaymentStatus{models.PaymentPending, models.PaymentPaid, models.PaymentFailed, models.PaymentRefunded},
	})
}
