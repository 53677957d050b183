package orders_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"campus-eats-api/models"
	"campus-eats-api/orders"
)

// Concurrent claims of the same READY order: exactly one rider wins,
// every loser sees a conflict, and the winner's id is the one persisted.
func TestConcurrentClaimsExactlyOneWinner(t *testing.T) {
	f := newFixture(t)
	o := f.driveToReady(t)

	const riders = 8
	ids := make([]uint, riders)
	ids[0] = f.rider.ID
	for i := 1; i < riders; i++ {
		u := seedRider(t, f.db, "rider"+string(rune('a'+i))+"@campus.edu", "State U", true, true)
		ids[i] = u.ID
	}

	var wg sync.WaitGroup
	errs := make([]error, riders)
	var winners []uint
	var mu sync.Mutex

	for i := 0; i < riders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.RiderClaimOrder(context.Background(), o.ID, ids[i])
			errs[i] = err
			if err == nil {
				mu.Lock()
				winners = append(winners, ids[i])
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if len(winners) != 1 {
		t.Fatalf("winners = %d, want exactly 1", len(winners))
	}
	for i, err := range errs {
		if err == nil {
			continue
		}
		if !errors.Is(err, orders.ErrAlreadyAssigned) {
			t.Errorf("loser %d: got %v, want ErrAlreadyAssigned", i, err)
		}
	}

	got := f.reload(t, o.ID)
	if got.RiderID == nil || *got.RiderID != winners[0] {
		t.Errorf("persisted rider = %v, want %d", got.RiderID, winners[0])
	}
	if got.Status != models.StatusReady {
		t.Errorf("status = %s, want READY", got.Status)
	}
}

// Rider-confirmed delivery racing the student's receipt confirmation:
// both target DELIVERED, but the rider must be credited exactly once.
func TestDeliverRacesMarkReceived(t *testing.T) {
	f := newFixture(t)
	o := f.driveToPickedUp(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, results[0] = f.svc.AdvanceDeliveryStatus(ctx, o.ID, f.rider.ID, models.StatusDelivered)
	}()
	go func() {
		defer wg.Done()
		_, results[1] = f.svc.MarkReceived(ctx, o.ID, f.student.ID)
	}()
	wg.Wait()

	wins := 0
	for i, err := range results {
		if err == nil {
			wins++
			continue
		}
		if !errors.Is(err, orders.ErrInvalidTransition) {
			t.Errorf("path %d: got %v, want nil or ErrInvalidTransition", i, err)
		}
	}
	if wins < 1 {
		t.Fatal("neither delivery path succeeded")
	}

	got := f.reload(t, o.ID)
	if got.Status != models.StatusDelivered {
		t.Errorf("status = %s, want DELIVERED", got.Status)
	}
	if got.DeliveredAt == nil {
		t.Error("expected delivered_at to be stamped")
	}
	p := f.riderProfile(t, f.rider.ID)
	if p.TotalDeliveries != 1 {
		t.Errorf("total deliveries = %d, want exactly 1", p.TotalDeliveries)
	}
	if p.TotalEarnings != got.DeliveryFee {
		t.Errorf("total earnings = %v, want %v", p.TotalEarnings, got.DeliveryFee)
	}
}

// An admin assignment racing a rider's self-service claim of the same
// order must also resolve to a single assignee.
func TestAssignRacesClaim(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o := f.placeOrder(t)
	if _, err := f.svc.AcceptOrRejectOrder(ctx, o.ID, f.restaurant.ID, orders.DecisionAccept, "", f.owner.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	second := seedRider(t, f.db, "rider2@campus.edu", "State U", true, true)

	var wg sync.WaitGroup
	results := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, results[0] = f.svc.AssignRider(ctx, o.ID, f.rider.ID, f.owner.ID)
	}()
	go func() {
		defer wg.Done()
		// the claim only succeeds if the kitchen already reached READY,
		// which it has not; it must fail cleanly, never corrupt
		_, results[1] = f.svc.RiderClaimOrder(ctx, o.ID, second.ID)
	}()
	wg.Wait()

	got := f.reload(t, o.ID)
	if got.RiderID == nil {
		t.Fatal("expected an assignee")
	}
	if *got.RiderID != f.rider.ID {
		t.Errorf("assignee = %d, want %d", *got.RiderID, f.rider.ID)
	}
	if results[0] != nil {
		t.Errorf("admin assignment failed: %v", results[0])
	}
	if results[1] == nil {
		t.Error("claim of a non-READY order unexpectedly succeeded")
	}
}
