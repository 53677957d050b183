package notify

import (
	"context"
	"log/slog"
	"time"

	"campus-eats-api/models"
)

// TemplateKind selects the message template for a send.
type TemplateKind string

const (
	KindOrderPlaced    TemplateKind = "order_placed"
	KindOrderAccepted  TemplateKind = "order_accepted"
	KindOrderRejected  TemplateKind = "order_rejected"
	KindOrderPreparing TemplateKind = "order_preparing"
	KindOrderReady     TemplateKind = "order_ready"
	KindRiderAssigned  TemplateKind = "rider_assigned"
	KindOrderPickedUp  TemplateKind = "order_picked_up"
	KindOrderDelivered TemplateKind = "order_delivered"
	KindOrderCancelled TemplateKind = "order_cancelled"
	KindPaymentUpdate  TemplateKind = "payment_update"
)

// Channel is one outbound delivery mechanism (email, whatsapp). The
// wire mechanics live behind this interface.
type Channel interface {
	Name() string
	Send(ctx context.Context, recipient string, kind TemplateKind, payload map[string]interface{}) error
}

// sendTimeout bounds each outbound call so a stuck gateway cannot hold
// up the dispatch loop.
const sendTimeout = 10 * time.Second

// Dispatcher translates an order-state change into per-audience
// messages. Each send is independent and failure-isolated: a failed
// send is logged and never blocks the other parties, nor does it roll
// back the order mutation that triggered it. Duplicate notifications
// are possible under retry; consumers must tolerate them.
type Dispatcher struct {
	channels []Channel
	log      *slog.Logger
}

func NewDispatcher(log *slog.Logger, channels ...Channel) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{channels: channels, log: log}
}

// OrderUpdated fans the change out to the student, the restaurant owner
// and the rider (when one is attached). It never returns an error.
func (d *Dispatcher) OrderUpdated(o *models.Order, kind TemplateKind) {
	payload := map[string]interface{}{
		"order_number": o.OrderNumber,
		"status":       string(o.Status),
		"total":        o.Total,
	}

	type target struct {
		audience  string
		recipient string
	}
	targets := []target{
		{"student", o.Student.Email},
		{"restaurant", o.Restaurant.Owner.Email},
	}
	if o.Rider != nil {
		targets = append(targets, target{"rider", o.Rider.Phone})
	}

	for _, t := range targets {
		if t.recipient == "" {
			d.log.Debug("notification target has no address",
				"audience", t.audience, "order", o.OrderNumber)
			continue
		}
		for _, ch := range d.channels {
			ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
			err := ch.Send(ctx, t.recipient, kind, payload)
			cancel()
			if err != nil {
				d.log.Error("notification send failed",
					"channel", ch.Name(),
					"audience", t.audience,
					"order", o.OrderNumber,
					"error", err)
			}
		}
	}
}

// KindForStatus maps a committed delivery status onto the template used
// to announce it.
func KindForStatus(status models.OrderStatus) TemplateKind {
	switch status {
	case models.StatusPending:
		return KindOrderPlaced
	case models.StatusAccepted:
		return KindOrderAccepted
	case models.StatusPreparing:
		return KindOrderPreparing
	case models.StatusReady:
		return KindOrderReady
	case models.StatusPickedUp:
		return KindOrderPickedUp
	case models.StatusDelivered:
		return KindOrderDelivered
	case models.StatusCancelled:
		return KindOrderCancelled
	}
	return TemplateKind(string(status))
}
