package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campus-eats-api/matching"
	"campus-eats-api/middleware"
	"campus-eats-api/models"
	"campus-eats-api/orders"
)

type RiderHandler struct {
	svc      *orders.Service
	matching *matching.Service
	store    *orders.Store
}

func NewRiderHandler(svc *orders.Service, matchingSvc *matching.Service, store *orders.Store) *RiderHandler {
	return &RiderHandler{svc: svc, matching: matchingSvc, store: store}
}

// GetAvailableOrders lists READY, unassigned orders the rider may claim,
// oldest first
func (h *RiderHandler) GetAvailableOrders(c *gin.Context) {
	riderID := middleware.GetUserID(c)
	list, err := h.matching.ListAvailableOrders(c.Request.Context(), riderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(list), "orders": list})
}

// GetMyDeliveries returns all orders assigned to the logged-in rider
func (h *RiderHandler) GetMyDeliveries(c *gin.Context) {
	riderID := middleware.GetUserID(c)
	list, err := h.svc.ListByRider(c.Request.Context(), riderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(list), "orders": list})
}

// ClaimOrder is the atomic self-service claim; of any number of
// concurrent claimers exactly one succeeds
func (h *RiderHandler) ClaimOrder(c *gin.Context) {
	riderID := middleware.GetUserID(c)
	orderID, ok := parseID(c)
	if !ok {
		return
	}

	order, err := h.matching.Claim(c.Request.Context(), orderID, riderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order claimed", "order": order})
}

// PickupOrder transitions READY → PICKED_UP for the assigned rider
func (h *RiderHandler) PickupOrder(c *gin.Context) {
	riderID := middleware.GetUserID(c)
	orderID, ok := parseID(c)
	if !ok {
		return
	}

	order, err := h.svc.AdvanceDeliveryStatus(c.Request.Context(), orderID, riderID, models.StatusPickedUp)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order picked up successfully", "order": order})
}

// DeliverOrder transitions PICKED_UP → DELIVERED and credits the rider
func (h *RiderHandler) DeliverOrder(c *gin.Context) {
	riderID := middleware.GetUserID(c)
	orderID, ok := parseID(c)
	if !ok {
		return
	}

	order, err := h.svc.AdvanceDeliveryStatus(c.Request.Context(), orderID, riderID, models.StatusDelivered)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order delivered successfully", "order": order})
}

type AvailabilityRequest struct {
	IsOnline    *bool `json:"is_online" binding:"required"`
	IsAvailable *bool `json:"is_available" binding:"required"`
}

// SetAvailability toggles the rider's online/available flags
func (h *RiderHandler) SetAvailability(c *gin.Context) {
	riderID := middleware.GetUserID(c)

	var req AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.store.SetRiderAvailability(c.Request.Context(), riderID, *req.IsOnline, *req.IsAvailable)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Availability updated", "profile": profile})
}
