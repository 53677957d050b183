package orders

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"campus-eats-api/events"
	"campus-eats-api/models"
	"campus-eats-api/notify"
	"campus-eats-api/statemachine"
)

// Catalog is the menu collaborator, consulted only at order creation to
// defeat client-supplied price tampering.
type Catalog interface {
	Restaurant(ctx context.Context, id uint) (*models.Restaurant, error)
	PriceLookup(ctx context.Context, restaurantID uint, itemIDs []uint) (map[uint]PricedItem, error)
}

// PricedItem is the authoritative name/price snapshot for one menu item.
type PricedItem struct {
	Name        string
	Price       float64
	IsPublished bool
}

// Notifier receives committed order changes for best-effort fan-out. It
// must never return an error or panic.
type Notifier interface {
	OrderUpdated(o *models.Order, kind notify.TemplateKind)
}

// Service is the single authority that mutates order status. Every
// mutating operation is validate → conditional write → (outside the
// atomic boundary) notify + publish.
type Service struct {
	store    *Store
	catalog  Catalog
	notifier Notifier
	bus      events.Bus
	log      *slog.Logger
}

func NewService(store *Store, catalog Catalog, notifier Notifier, bus events.Bus, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, catalog: catalog, notifier: notifier, bus: bus, log: log}
}

// readRetries bounds retries of idempotent reads; mutations are never
// auto-retried.
const readRetries = 3

type ItemRequest struct {
	MenuItemID uint
	Quantity   int
}

type CreateCommand struct {
	StudentID       uint
	RestaurantID    uint
	DeliveryAddress string
	Notes           string
	PaymentMethod   string
	Items           []ItemRequest
}

type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// CreateOrder re-prices every line item from the authoritative catalog,
// dropping unknown or unpublished ids, and persists the order as
// PENDING/payment PENDING.
func (s *Service) CreateOrder(ctx context.Context, cmd CreateCommand) (*models.Order, error) {
	rest, err := s.catalog.Restaurant(ctx, cmd.RestaurantID)
	if err != nil {
		return nil, err
	}
	if !rest.IsOpen || !rest.IsApproved {
		return nil, ErrRestaurantUnavailable
	}

	ids := make([]uint, 0, len(cmd.Items))
	for _, it := range cmd.Items {
		ids = append(ids, it.MenuItemID)
	}
	priced, err := s.catalog.PriceLookup(ctx, cmd.RestaurantID, ids)
	if err != nil {
		return nil, err
	}

	var items []models.OrderItem
	var subtotal float64
	for _, it := range cmd.Items {
		p, ok := priced[it.MenuItemID]
		if !ok || !p.IsPublished || it.Quantity < 1 {
			continue
		}
		line := p.Price * float64(it.Quantity)
		subtotal += line
		items = append(items, models.OrderItem{
			MenuItemID: it.MenuItemID,
			Name:       p.Name,
			UnitPrice:  p.Price,
			Quantity:   it.Quantity,
			LineTotal:  line,
		})
	}
	if len(items) == 0 {
		return nil, ErrInvalidItems
	}

	order := models.Order{
		OrderNumber:     newOrderNumber(),
		StudentID:       cmd.StudentID,
		RestaurantID:    cmd.RestaurantID,
		Status:          models.StatusPending,
		PaymentStatus:   models.PaymentPending,
		PaymentMethod:   cmd.PaymentMethod,
		PaymentRef:      uuid.NewString(),
		Subtotal:        subtotal,
		DeliveryFee:     rest.DeliveryFee,
		Total:           subtotal + rest.DeliveryFee,
		DeliveryAddress: cmd.DeliveryAddress,
		Notes:           cmd.Notes,
		Items:           items,
	}
	if err := s.store.Create(ctx, &order); err != nil {
		return nil, err
	}
	s.appendHistory(ctx, order.ID, "", models.StatusPending, cmd.StudentID, "Order placed by student")
	s.emit(order.ID, notify.KindOrderPlaced)

	if full, err := s.store.GetDetailed(ctx, order.ID); err == nil {
		return full, nil
	}
	return &order, nil
}

// AcceptOrRejectOrder is the restaurant's decision on a PENDING order.
// Accepting an order that already carries a rider fast-paths straight to
// PREPARING; rejecting requires a reason and lands on CANCELLED.
func (s *Service) AcceptOrRejectOrder(ctx context.Context, orderID, restaurantID uint, action Decision, reason string, actedBy uint) (*models.Order, error) {
	o, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	// "not found" also covers an order already processed or owned by a
	// different restaurant
	if o.RestaurantID != restaurantID || o.Status != models.StatusPending {
		return nil, ErrNotFound
	}

	switch action {
	case DecisionReject:
		if strings.TrimSpace(reason) == "" {
			return nil, ErrReasonRequired
		}
		now := time.Now()
		ok, err := s.store.ConditionalUpdate(ctx, o.ID, models.StatusPending, map[string]interface{}{
			"status":           models.StatusCancelled,
			"rejected_at":      now,
			"cancelled_at":     now,
			"rejection_reason": reason,
		})
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: order is no longer PENDING", ErrInvalidTransition)
		}
		s.appendHistory(ctx, o.ID, models.StatusPending, models.StatusCancelled, actedBy, "Rejected by restaurant: "+reason)
		s.emit(o.ID, notify.KindOrderRejected)

	case DecisionAccept:
		target := models.StatusAccepted
		note := "Accepted by restaurant"
		if o.RiderID != nil {
			// rider pre-assignment fast-paths the flow
			target = models.StatusPreparing
			note = "Accepted by restaurant (rider already assigned)"
		}
		ok, err := s.store.ConditionalUpdate(ctx, o.ID, models.StatusPending, map[string]interface{}{
			"status": target,
		})
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: order is no longer PENDING", ErrInvalidTransition)
		}
		s.appendHistory(ctx, o.ID, models.StatusPending, target, actedBy, note)
		s.emit(o.ID, notify.KindOrderAccepted)

	default:
		return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidTransition, action)
	}

	return s.store.GetDetailed(ctx, o.ID)
}

// AssignRider attaches a rider while the order is still PENDING or
// ACCEPTED and unassigned. Assignment before acceptance does not advance
// the status past PENDING; on an ACCEPTED order it advances to
// PREPARING.
func (s *Service) AssignRider(ctx context.Context, orderID, riderID, assignedBy uint) (*models.Order, error) {
	o, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.RiderID != nil {
		return nil, ErrAlreadyAssigned
	}
	if o.Status != models.StatusPending && o.Status != models.StatusAccepted {
		return nil, fmt.Errorf("%w: rider can only be assigned while PENDING or ACCEPTED, order is %s",
			ErrInvalidTransition, o.Status)
	}

	profile, err := s.store.RiderProfile(ctx, riderID)
	if err != nil {
		return nil, err
	}
	if !profile.CanTakeOrders() {
		return nil, ErrRiderUnavailable
	}

	newStatus := o.Status
	if o.Status == models.StatusAccepted {
		newStatus = models.StatusPreparing
	}
	ok, err := s.store.AssignRider(ctx, o.ID, o.Status, riderID, newStatus)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.assignConflict(ctx, o.ID)
	}
	s.appendHistory(ctx, o.ID, o.Status, newStatus, assignedBy, "Rider assigned")
	s.emit(o.ID, notify.KindRiderAssigned)
	return s.store.GetDetailed(ctx, o.ID)
}

// RiderClaimOrder is the rider's self-service claim of a READY,
// unassigned order. The conditional write arbitrates concurrent claims:
// exactly one rider wins.
func (s *Service) RiderClaimOrder(ctx context.Context, orderID, riderID uint) (*models.Order, error) {
	profile, err := s.store.RiderProfile(ctx, riderID)
	if err != nil {
		return nil, err
	}
	if !profile.CanTakeOrders() {
		return nil, ErrRiderUnavailable
	}

	ok, err := s.store.Claim(ctx, orderID, riderID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.assignConflict(ctx, orderID)
	}
	s.appendHistory(ctx, orderID, models.StatusReady, models.StatusReady, riderID, "Order claimed by rider")
	s.emit(orderID, notify.KindRiderAssigned)
	return s.store.GetDetailed(ctx, orderID)
}

// assignConflict turns a lost conditional assignment into the right
// failure class: AlreadyAssigned when another rider holds the order,
// InvalidTransition otherwise.
func (s *Service) assignConflict(ctx context.Context, orderID uint) error {
	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if o.RiderID != nil {
		return ErrAlreadyAssigned
	}
	return fmt.Errorf("%w: order is %s", ErrInvalidTransition, o.Status)
}

// AdvanceDeliveryStatus is driven by the assigned rider only:
// READY → PICKED_UP and PICKED_UP → DELIVERED. Delivery credits the
// rider's lifetime stats atomically with the status write.
func (s *Service) AdvanceDeliveryStatus(ctx context.Context, orderID, riderID uint, next models.OrderStatus) (*models.Order, error) {
	if next != models.StatusPickedUp && next != models.StatusDelivered {
		return nil, fmt.Errorf("%w: riders may only move orders to PICKED_UP or DELIVERED", ErrUnauthorized)
	}
	o, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.RiderID == nil || *o.RiderID != riderID {
		return nil, fmt.Errorf("%w: you are not the assigned rider", ErrUnauthorized)
	}
	if err := statemachine.CheckTransition(o.Status, next); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}

	var ok bool
	if next == models.StatusDelivered {
		ok, err = s.store.DeliverAndCredit(ctx, o.ID, riderID, o.DeliveryFee, time.Now())
	} else {
		ok, err = s.store.ConditionalUpdate(ctx, o.ID, o.Status, map[string]interface{}{
			"status": next,
		})
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: order moved concurrently, re-fetch and retry", ErrInvalidTransition)
	}
	s.appendHistory(ctx, o.ID, o.Status, next, riderID, "Delivery status advanced by rider")
	s.emit(o.ID, notify.KindForStatus(next))
	return s.store.GetDetailed(ctx, o.ID)
}

// AdvanceKitchenStatus is driven by the owning restaurant:
// ACCEPTED → PREPARING and PREPARING → READY.
func (s *Service) AdvanceKitchenStatus(ctx context.Context, orderID, restaurantID uint, next models.OrderStatus, actedBy uint) (*models.Order, error) {
	if next != models.StatusPreparing && next != models.StatusReady {
		return nil, fmt.Errorf("%w: restaurants may only move orders to PREPARING or READY", ErrUnauthorized)
	}
	o, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.RestaurantID != restaurantID {
		return nil, ErrNotFound
	}
	if err := statemachine.CheckTransition(o.Status, next); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}

	ok, err := s.store.ConditionalUpdate(ctx, o.ID, o.Status, map[string]interface{}{
		"status": next,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: order moved concurrently, re-fetch and retry", ErrInvalidTransition)
	}
	s.appendHistory(ctx, o.ID, o.Status, next, actedBy, "Kitchen status advanced")
	s.emit(o.ID, notify.KindForStatus(next))
	return s.store.GetDetailed(ctx, o.ID)
}

// CancelOrder is the student's cancellation, allowed only before the
// kitchen starts (PENDING or ACCEPTED).
func (s *Service) CancelOrder(ctx context.Context, orderID, studentID uint) (*models.Order, error) {
	o, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.StudentID != studentID {
		return nil, ErrNotFound
	}
	if o.Status != models.StatusPending && o.Status != models.StatusAccepted {
		return nil, fmt.Errorf("%w: too late to cancel, order is %s", ErrInvalidTransition, o.Status)
	}

	ok, err := s.store.ConditionalUpdate(ctx, o.ID, o.Status, map[string]interface{}{
		"status":       models.StatusCancelled,
		"cancelled_at": time.Now(),
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: order moved concurrently, re-fetch and retry", ErrInvalidTransition)
	}
	s.appendHistory(ctx, o.ID, o.Status, models.StatusCancelled, studentID, "Order cancelled by student")
	s.emit(o.ID, notify.KindOrderCancelled)
	return s.store.GetDetailed(ctx, o.ID)
}

// MarkReceived is the student-confirmed alternative to rider-confirmed
// delivery. The rider is still credited; the conditional update makes
// sure only one of the two delivered paths wins.
func (s *Service) MarkReceived(ctx context.Context, orderID, studentID uint) (*models.Order, error) {
	o, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.StudentID != studentID {
		return nil, ErrNotFound
	}
	if o.Status != models.StatusPickedUp {
		return nil, fmt.Errorf("%w: order can only be marked received while PICKED_UP, is %s", ErrInvalidTransition, o.Status)
	}

	var ok bool
	if o.RiderID != nil {
		ok, err = s.store.DeliverAndCredit(ctx, o.ID, *o.RiderID, o.DeliveryFee, time.Now())
	} else {
		ok, err = s.store.ConditionalUpdate(ctx, o.ID, models.StatusPickedUp, map[string]interface{}{
			"status":       models.StatusDelivered,
			"delivered_at": time.Now(),
		})
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: order moved concurrently, re-fetch and retry", ErrInvalidTransition)
	}
	s.appendHistory(ctx, o.ID, models.StatusPickedUp, models.StatusDelivered, studentID, "Receipt confirmed by student")
	s.emit(o.ID, notify.KindOrderDelivered)
	return s.store.GetDetailed(ctx, o.ID)
}

// RateOrder writes the one-time post-delivery rating and refreshes the
// restaurant's aggregate rating.
func (s *Service) RateOrder(ctx context.Context, orderID, studentID uint, rating int, review string) (*models.Order, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	o, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.StudentID != studentID {
		return nil, ErrNotFound
	}
	if o.Rating != nil {
		return nil, ErrAlreadyRated
	}
	if o.Status != models.StatusDelivered {
		return nil, fmt.Errorf("%w: only DELIVERED orders can be rated, order is %s", ErrInvalidTransition, o.Status)
	}

	ok, err := s.store.Rate(ctx, o.ID, rating, review, time.Now())
	if err != nil {
		return nil, err
	}
	if !ok {
		if refreshed, rerr := s.store.Get(ctx, o.ID); rerr == nil && refreshed.Rating != nil {
			return nil, ErrAlreadyRated
		}
		return nil, fmt.Errorf("%w: order is no longer ratable", ErrInvalidTransition)
	}
	if err := s.store.RefreshRestaurantRating(ctx, o.RestaurantID); err != nil {
		s.log.Error("failed to refresh restaurant rating", "restaurant", o.RestaurantID, "error", err)
	}
	return s.store.GetDetailed(ctx, o.ID)
}

// ApplyPaymentResult records the gateway's verdict for the order matched
// by payment reference. It only ever writes the payment axis.
func (s *Service) ApplyPaymentResult(ctx context.Context, reference string, status models.PaymentStatus) (*models.Order, error) {
	switch status {
	case models.PaymentPaid, models.PaymentFailed, models.PaymentRefunded:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidPaymentStatus, status)
	}
	o, err := s.store.GetByPaymentRef(ctx, reference)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetPaymentStatus(ctx, o.ID, status); err != nil {
		return nil, err
	}
	s.emit(o.ID, notify.KindPaymentUpdate)
	return s.store.GetDetailed(ctx, o.ID)
}

// Get returns one order with all relations.
func (s *Service) Get(ctx context.Context, orderID uint) (*models.Order, error) {
	return s.store.GetDetailed(ctx, orderID)
}

func (s *Service) ListByStudent(ctx context.Context, studentID uint) ([]models.Order, error) {
	return s.store.ListByStudent(ctx, studentID)
}

func (s *Service) ListByRestaurant(ctx context.Context, restaurantID uint, status models.OrderStatus) ([]models.Order, error) {
	return s.store.ListByRestaurant(ctx, restaurantID, status)
}

func (s *Service) ListByRider(ctx context.Context, riderID uint) ([]models.Order, error) {
	return s.store.ListByRider(ctx, riderID)
}

// getOrder reads with a bounded retry; only reads are retried, never
// mutations.
func (s *Service) getOrder(ctx context.Context, id uint) (*models.Order, error) {
	var lastErr error
	for attempt := 0; attempt < readRetries; attempt++ {
		o, err := s.store.Get(ctx, id)
		if err == nil {
			return o, nil
		}
		if err == ErrNotFound || ctx.Err() != nil {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (s *Service) appendHistory(ctx context.Context, orderID uint, from, to models.OrderStatus, by uint, note string) {
	h := models.OrderStatusHistory{
		OrderID:    orderID,
		FromStatus: from,
		ToStatus:   to,
		ChangedBy:  by,
		Note:       note,
	}
	if err := s.store.AppendHistory(ctx, &h); err != nil {
		s.log.Error("failed to append order history", "order", orderID, "error", err)
	}
}

// emit hands off to the notifier and event bus after the mutation
// committed, asynchronously w.r.t. the caller's response. Failures here
// never roll back or surface as a caller-visible error.
func (s *Service) emit(orderID uint, kind notify.TemplateKind) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		o, err := s.store.GetDetailed(ctx, orderID)
		if err != nil {
			s.log.Error("skipping side effects, order re-read failed", "order", orderID, "error", err)
			return
		}
		if s.bus != nil {
			s.bus.Publish(events.OrderEvent{
				OrderID:      o.ID,
				OrderNumber:  o.OrderNumber,
				RestaurantID: o.RestaurantID,
				Status:       o.Status,
				UpdatedAt:    o.UpdatedAt,
			})
		}
		if s.notifier != nil {
			s.notifier.OrderUpdated(o, kind)
		}
	}()
}

func newOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return "CE-" + time.Now().Format("20060102") + "-" + suffix
}
