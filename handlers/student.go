package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"campus-eats-api/middleware"
	"campus-eats-api/orders"
)

type StudentHandler struct {
	svc *orders.Service
}

func NewStudentHandler(svc *orders.Service) *StudentHandler {
	return &StudentHandler{svc: svc}
}

type PlaceOrderRequest struct {
	RestaurantID    uint   `json:"restaurant_id" binding:"required"`
	DeliveryAddress string `json:"delivery_address" binding:"required"`
	Notes           string `json:"notes"`
	PaymentMethod   string `json:"payment_method"`
	Items           []struct {
		MenuItemID uint `json:"menu_item_id" binding:"required"`
		Quantity   int  `json:"quantity" binding:"required,min=1"`
	} `json:"items" binding:"required,min=1"`
}

// PlaceOrder creates a new order (student only). Prices come from the
// menu catalog, never from the request body.
func (h *StudentHandler) PlaceOrder(c *gin.Context) {
	studentID := middleware.GetUserID(c)

	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cmd := orders.CreateCommand{
		StudentID:       studentID,
		RestaurantID:    req.RestaurantID,
		DeliveryAddress: req.DeliveryAddress,
		Notes:           req.Notes,
		PaymentMethod:   req.PaymentMethod,
	}
	for _, it := range req.Items {
		cmd.Items = append(cmd.Items, orders.ItemRequest{MenuItemID: it.MenuItemID, Quantity: it.Quantity})
	}

	order, err := h.svc.CreateOrder(c.Request.Context(), cmd)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed successfully",
		"order":   order,
	})
}

// GetMyOrders returns all orders for the logged-in student
func (h *StudentHandler) GetMyOrders(c *gin.Context) {
	studentID := middleware.GetUserID(c)
	list, err := h.svc.ListByStudent(c.Request.Context(), studentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(list), "orders": list})
}

// GetOrderDetail returns a single order's full detail with history
func (h *StudentHandler) GetOrderDetail(c *gin.Context) {
	studentID := middleware.GetUserID(c)
	orderID, ok := parseID(c)
	if !ok {
		return
	}

	order, err := h.svc.Get(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	if order.StudentID != studentID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	elapsed := time.Since(order.CreatedAt).Minutes()
	c.JSON(http.StatusOK, gin.H{
		"order":           order,
		"minutes_elapsed": int(elapsed),
	})
}

// CancelOrder cancels an order while it is still PENDING or ACCEPTED
func (h *StudentHandler) CancelOrder(c *gin.Context) {
	studentID := middleware.GetUserID(c)
	orderID, ok := parseID(c)
	if !ok {
		return
	}

	order, err := h.svc.CancelOrder(c.Request.Context(), orderID, studentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order cancelled successfully", "order": order})
}

// MarkReceived confirms delivery from the student side (PICKED_UP → DELIVERED)
func (h *StudentHandler) MarkReceived(c *gin.Context) {
	studentID := middleware.GetUserID(c)
	orderID, ok := parseID(c)
	if !ok {
		return
	}

	order, err := h.svc.MarkReceived(c.Request.Context(), orderID, studentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order marked as received", "order": order})
}

type RateOrderRequest struct {
	Rating int    `json:"rating" binding:"required,min=1,max=5"`
	Review string `json:"review"`
}

// RateOrder stores the one-time post-delivery rating
func (h *StudentHandler) RateOrder(c *gin.Context) {
	studentID := middleware.GetUserID(c)
	orderID, ok := parseID(c)
	if !ok {
		return
	}

	var req RateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.svc.RateOrder(c.Request.Context(), orderID, studentID, req.Rating, req.Review)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Thanks for your feedback", "order": order})
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return 0, false
	}
	return uint(id), true
}
