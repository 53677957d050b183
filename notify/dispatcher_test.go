package notify

import (
	"context"
	"errors"
	"testing"

	"campus-eats-api/models"
)

type recordedSend struct {
	recipient string
	kind      TemplateKind
}

// fakeChannel records sends and optionally fails every one of them.
type fakeChannel struct {
	name  string
	fail  bool
	sends []recordedSend
}

func (c *fakeChannel) Name() string { return c.name }

func (c *fakeChannel) Send(_ context.Context, recipient string, kind TemplateKind, _ map[string]interface{}) error {
	c.sends = append(c.sends, recordedSend{recipient: recipient, kind: kind})
	if c.fail {
		return errors.New("gateway down")
	}
	return nil
}

func detailedOrder(withRider bool) *models.Order {
	o := &models.Order{
		OrderNumber: "CE-20260831-ABC123",
		Status:      models.StatusReady,
		Total:       370,
		Student:     models.User{Email: "student@campus.edu"},
		Restaurant: models.Restaurant{
			Owner: models.User{Email: "owner@campus.edu"},
		},
	}
	if withRider {
		o.Rider = &models.User{Phone: "+1000000001"}
	}
	return o
}

func TestOrderUpdatedFansOutToAllAudiences(t *testing.T) {
	ch := &fakeChannel{name: "email"}
	d := NewDispatcher(nil, ch)

	d.OrderUpdated(detailedOrder(true), KindOrderReady)

	if len(ch.sends) != 3 {
		t.Fatalf("sends = %d, want 3 (student, restaurant, rider)", len(ch.sends))
	}
	want := map[string]bool{
		"student@campus.edu": false,
		"owner@campus.edu":   false,
		"+1000000001":        false,
	}
	for _, s := range ch.sends {
		if s.kind != KindOrderReady {
			t.Errorf("kind = %s, want %s", s.kind, KindOrderReady)
		}
		if _, ok := want[s.recipient]; !ok {
			t.Errorf("unexpected recipient %q", s.recipient)
		}
		want[s.recipient] = true
	}
	for r, seen := range want {
		if !seen {
			t.Errorf("recipient %q never notified", r)
		}
	}
}

func TestOrderUpdatedSkipsRiderWhenUnassigned(t *testing.T) {
	ch := &fakeChannel{name: "email"}
	d := NewDispatcher(nil, ch)

	d.OrderUpdated(detailedOrder(false), KindOrderAccepted)

	if len(ch.sends) != 2 {
		t.Fatalf("sends = %d, want 2", len(ch.sends))
	}
}

func TestOrderUpdatedSkipsEmptyAddresses(t *testing.T) {
	ch := &fakeChannel{name: "email"}
	d := NewDispatcher(nil, ch)

	o := detailedOrder(true)
	o.Student.Email = ""

	d.OrderUpdated(o, KindOrderReady)

	for _, s := range ch.sends {
		if s.recipient == "" {
			t.Error("dispatched to an empty address")
		}
	}
	if len(ch.sends) != 2 {
		t.Errorf("sends = %d, want 2", len(ch.sends))
	}
}

// One broken channel must not starve the healthy one: every audience
// still gets its message on the working channel.
func TestOrderUpdatedIsolatesChannelFailures(t *testing.T) {
	broken := &fakeChannel{name: "whatsapp", fail: true}
	healthy := &fakeChannel{name: "email"}
	d := NewDispatcher(nil, broken, healthy)

	d.OrderUpdated(detailedOrder(true), KindOrderDelivered)

	if len(broken.sends) != 3 {
		t.Errorf("broken channel attempts = %d, want 3", len(broken.sends))
	}
	if len(healthy.sends) != 3 {
		t.Errorf("healthy channel sends = %d, want 3", len(healthy.sends))
	}
}

func TestKindForStatus(t *testing.T) {
	cases := map[models.OrderStatus]TemplateKind{
		models.StatusPending:   KindOrderPlaced,
		models.StatusAccepted:  KindOrderAccepted,
		models.StatusPreparing: KindOrderPreparing,
		models.StatusReady:     KindOrderReady,
		models.StatusPickedUp:  KindOrderPickedUp,
		models.StatusDelivered: KindOrderDelivered,
		models.StatusCancelled: KindOrderCancelled,
	}
	for status, want := range cases {
		if got := KindForStatus(status); got != want {
			t.Errorf("KindForStatus(%s) = %s, want %s", status, got, want)
		}
	}
}
