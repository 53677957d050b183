package events

import (
	"sync"
	"time"

	"campus-eats-api/models"
)

// OrderEvent is published on every committed order mutation. The stream
// is advisory only; a missed event is recoverable by polling the order
// store directly.
type OrderEvent struct {
	OrderID      uint               `json:"order_id"`
	OrderNumber  string             `json:"order_number"`
	RestaurantID uint               `json:"restaurant_id"`
	Status       models.OrderStatus `json:"status"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// Bus is an injectable publish/subscribe abstraction scoped to the
// orchestrator's lifetime. Delivery is at-most-once, best-effort.
type Bus interface {
	Publish(e OrderEvent)
	// Subscribe registers a live view for one restaurant. The returned
	// cancel func must be called when the subscriber goes away.
	Subscribe(restaurantID uint) (<-chan OrderEvent, func())
}

const subscriberBuffer = 16

// MemoryBus is the in-process Bus used by the single-binary deployment.
// A subscriber that falls behind its buffer silently drops events.
type MemoryBus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[uint]map[int]chan OrderEvent
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[uint]map[int]chan OrderEvent)}
}

func (b *MemoryBus) Publish(e OrderEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs[e.RestaurantID] {
		select {
		case ch <- e:
		default:
			// subscriber is slow; drop rather than block the publisher
		}
	}
}

func (b *MemoryBus) Subscribe(restaurantID uint) (<-chan OrderEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[restaurantID] == nil {
		b.subs[restaurantID] = make(map[int]chan OrderEvent)
	}
	id := b.nextID
	b.nextID++
	ch := make(chan OrderEvent, subscriberBuffer)
	b.subs[restaurantID][id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[restaurantID][id]; ok {
			delete(b.subs[restaurantID], id)
			close(sub)
		}
	}
	return ch, cancel
}
