package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"campus-eats-api/events"
	"campus-eats-api/middleware"
	"campus-eats-api/models"
	"campus-eats-api/orders"
)

type RestaurantOrderHandler struct {
	db  *gorm.DB
	svc *orders.Service
	bus events.Bus
}

func NewRestaurantOrderHandler(db *gorm.DB, svc *orders.Service, bus events.Bus) *RestaurantOrderHandler {
	return &RestaurantOrderHandler{db: db, svc: svc, bus: bus}
}

func (h *RestaurantOrderHandler) ownRestaurant(c *gin.Context) (*models.Restaurant, bool) {
	ownerID := middleware.GetUserID(c)
	var restaurant models.Restaurant
	if err := h.db.Where("owner_id = ?", ownerID).First(&restaurant).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No restaurant found for your account"})
		return nil, false
	}
	return &restaurant, true
}

// GetRestaurantOrders returns all orders for the restaurant owner with a
// per-status dashboard summary
func (h *RestaurantOrderHandler) GetRestaurantOrders(c *gin.Context) {
	restaurant, ok := h.ownRestaurant(c)
	if !ok {
		return
	}

	list, err := h.svc.ListByRestaurant(c.Request.Context(), restaurant.ID, models.OrderStatus(c.Query("status")))
	if err != nil {
		respondError(c, err)
		return
	}

	summary := map[string]int{}
	for _, o := range list {
		summary[string(o.Status)]++
	}

	c.JSON(http.StatusOK, gin.H{
		"restaurant":    restaurant.Name,
		"order_summary": summary,
		"count":         len(list),
		"orders":        list,
	})
}

type OrderDecisionRequest struct {
	Action orders.Decision `json:"action" binding:"required,oneof=accept reject"`
	Reason string          `json:"reason"`
}

// DecideOrder accepts or rejects a PENDING order. Accepting an order with
// a pre-assigned rider lands directly on PREPARING.
func (h *RestaurantOrderHandler) DecideOrder(c *gin.Context) {
	restaurant, ok := h.ownRestaurant(c)
	if !ok {
		return
	}
	orderID, ok := parseID(c)
	if !ok {
		return
	}

	var req OrderDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.svc.AcceptOrRejectOrder(c.Request.Context(), orderID, restaurant.ID, req.Action, req.Reason, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order " + string(req.Action) + "ed",
		"order":   order,
	})
}

type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

// UpdateOrderStatus drives kitchen transitions (ACCEPTED → PREPARING → READY)
func (h *RestaurantOrderHandler) UpdateOrderStatus(c *gin.Context) {
	restaurant, ok := h.ownRestaurant(c)
	if !ok {
		return
	}
	orderID, ok := parseID(c)
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.svc.AdvanceKitchenStatus(c.Request.Context(), orderID, restaurant.ID, req.Status, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "Order status updated",
		"order_id":       order.ID,
		"current_status": order.Status,
	})
}

// LiveOrders streams order-changed events for the owner's restaurant as
// server-sent events. The stream is advisory; dashboards re-poll the
// order list on reconnect.
func (h *RestaurantOrderHandler) LiveOrders(c *gin.Context) {
	restaurant, ok := h.ownRestaurant(c)
	if !ok {
		return
	}

	ch, cancel := h.bus.Subscribe(restaurant.ID)
	defer cancel()

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		select {
		case e, open := <-ch:
			if !open {
				return false
			}
			c.SSEvent("order.updated", e)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
