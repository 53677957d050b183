package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"campus-eats-api/middleware"
	"campus-eats-api/models"
)

type RestaurantHandler struct {
	db *gorm.DB
}

func NewRestaurantHandler(db *gorm.DB) *RestaurantHandler {
	return &RestaurantHandler{db: db}
}

type RestaurantRequest struct {
	Name        string  `json:"name" binding:"required"`
	Cuisine     string  `json:"cuisine"`
	Address     string  `json:"address"`
	University  string  `json:"university"`
	Description string  `json:"description"`
	DeliveryFee float64 `json:"delivery_fee"`
	IsOpen      *bool   `json:"is_open"`
}

// CreateRestaurant registers the owner's restaurant (pending admin approval)
func (h *RestaurantHandler) CreateRestaurant(c *gin.Context) {
	ownerID := middleware.GetUserID(c)

	var existing models.Restaurant
	if err := h.db.Where("owner_id = ?", ownerID).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "You already have a restaurant"})
		return
	}

	var req RestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	restaurant := models.Restaurant{
		OwnerID:     ownerID,
		Name:        req.Name,
		Cuisine:     req.Cuisine,
		Address:     req.Address,
		University:  req.University,
		Description: req.Description,
		DeliveryFee: req.DeliveryFee,
		IsOpen:      true,
	}
	if err := h.db.Create(&restaurant).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create restaurant"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "Restaurant created, waiting for admin approval",
		"restaurant": restaurant,
	})
}

// GetMyRestaurant returns the owner's restaurant with its menu
func (h *RestaurantHandler) GetMyRestaurant(c *gin.Context) {
	ownerID := middleware.GetUserID(c)
	var restaurant models.Restaurant
	if err := h.db.Preload("MenuItems").Where("owner_id = ?", ownerID).First(&restaurant).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No restaurant found for your account"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurant": restaurant})
}

// UpdateRestaurant updates profile fields including the open/closed flag
func (h *RestaurantHandler) UpdateRestaurant(c *gin.Context) {
	ownerID := middleware.GetUserID(c)
	var restaurant models.Restaurant
	if err := h.db.Where("owner_id = ?", ownerID).First(&restaurant).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No restaurant found for your account"})
		return
	}

	var req RestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{
		"name":         req.Name,
		"cuisine":      req.Cuisine,
		"address":      req.Address,
		"university":   req.University,
		"description":  req.Description,
		"delivery_fee": req.DeliveryFee,
	}
	if req.IsOpen != nil {
		updates["is_open"] = *req.IsOpen
	}
	h.db.Model(&restaurant).Updates(updates)

	c.JSON(http.StatusOK, gin.H{"message": "Restaurant updated", "restaurant": restaurant})
}

type MenuItemRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	Category    string  `json:"category"`
	IsPublished *bool   `json:"is_published"`
	IsVeg       bool    `json:"is_veg"`
}

// AddMenuItem adds an item to the owner's menu
func (h *RestaurantHandler) AddMenuItem(c *gin.Context) {
	ownerID := middleware.GetUserID(c)
	var restaurant models.Restaurant
	if err := h.db.Where("owner_id = ?", ownerID).First(&restaurant).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No restaurant found for your account"})
		return
	}

	var req MenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item := models.MenuItem{
		RestaurantID: restaurant.ID,
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		Category:     req.Category,
		IsPublished:  true,
		IsVeg:        req.IsVeg,
	}
	if req.IsPublished != nil {
		item.IsPublished = *req.IsPublished
	}
	if err := h.db.Create(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add menu item"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Menu item added", "item": item})
}

// UpdateMenuItem edits an existing item. Historical orders keep their
// snapshotted prices.
func (h *RestaurantHandler) UpdateMenuItem(c *gin.Context) {
	ownerID := middleware.GetUserID(c)
	var restaurant models.Restaurant
	if err := h.db.Where("owner_id = ?", ownerID).First(&restaurant).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No restaurant found for your account"})
		return
	}

	var item models.MenuItem
	if err := h.db.Where("id = ? AND restaurant_id = ?", c.Param("itemId"), restaurant.ID).First(&item).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Menu item not found"})
		return
	}

	var req MenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{
		"name":        req.Name,
		"description": req.Description,
		"price":       req.Price,
		"category":    req.Category,
		"is_veg":      req.IsVeg,
	}
	if req.IsPublished != nil {
		updates["is_published"] = *req.IsPublished
	}
	h.db.Model(&item).Updates(updates)

	c.JSON(http.StatusOK, gin.H{"message": "Menu item updated", "item": item})
}

// DeleteMenuItem removes an item from the menu
func (h *RestaurantHandler) DeleteMenuItem(c *gin.Context) {
	ownerID := middleware.GetUserID(c)
	var restaurant models.Restaurant
	if err := h.db.Where("owner_id = ?", ownerID).First(&restaurant).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No restaurant found for your account"})
		return
	}

	res := h.db.Where("id = ? AND restaurant_id = ?", c.Param("itemId"), restaurant.ID).Delete(&models.MenuItem{})
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Menu item not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Menu item deleted"})
}
