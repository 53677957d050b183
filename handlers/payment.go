package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campus-eats-api/models"
	"campus-eats-api/orders"
)

// PaymentHandler receives the external gateway's result callbacks. It
// only ever touches the payment axis of an order.
type PaymentHandler struct {
	svc    *orders.Service
	secret string
}

func NewPaymentHandler(svc *orders.Service, secret string) *PaymentHandler {
	return &PaymentHandler{svc: svc, secret: secret}
}

type PaymentWebhookRequest struct {
	Reference string               `json:"reference" binding:"required"`
	Status    models.PaymentStatus `json:"status" binding:"required"`
}

// Webhook applies the gateway's verdict to the matching order
func (h *PaymentHandler) Webhook(c *gin.Context) {
	if c.GetHeader("X-Webhook-Secret") != h.secret {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid webhook secret"})
		return
	}

	var req PaymentWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.svc.ApplyPaymentResult(c.Request.Context(), req.Reference, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":        "Payment status recorded",
		"order_id":       order.ID,
		"payment_status": order.PaymentStatus,
	})
}
