package matching_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"campus-eats-api/catalog"
	"campus-eats-api/matching"
	"campus-eats-api/models"
	"campus-eats-api/orders"
)

type world struct {
	db       *gorm.DB
	store    *orders.Store
	orderSvc *orders.Service
	svc      *matching.Service
}

func newWorld(t *testing.T) *world {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.RiderProfile{},
		&models.Restaurant{},
		&models.MenuItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusHistory{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	store := orders.NewStore(db)
	orderSvc := orders.NewService(store, catalog.NewService(db), nil, nil, nil)
	return &world{
		db:       db,
		store:    store,
		orderSvc: orderSvc,
		svc:      matching.NewService(db, store, orderSvc),
	}
}

func (w *world) seedRider(t *testing.T, email, university string, online, available bool) models.User {
	t.Helper()
	u := models.User{
		Name:       "Rider",
		Email:      email,
		Role:       models.RoleRider,
		University: university,
	}
	if err := w.db.Create(&u).Error; err != nil {
		t.Fatalf("seed rider: %v", err)
	}
	p := models.RiderProfile{UserID: u.ID, IsOnline: online, IsAvailable: available}
	if err := w.db.Create(&p).Error; err != nil {
		t.Fatalf("seed rider profile: %v", err)
	}
	return u
}

// seedReadyOrder creates a READY, unassigned order at a restaurant in
// the given university and returns it.
func (w *world) seedReadyOrder(t *testing.T, university string) *models.Order {
	t.Helper()
	ctx := context.Background()

	owner := models.User{Name: "Owner", Email: uuid.NewString() + "@campus.edu", Role: models.RoleRestaurant, University: university}
	if err := w.db.Create(&owner).Error; err != nil {
		t.Fatalf("seed owner: %v", err)
	}
	student := models.User{Name: "Student", Email: uuid.NewString() + "@campus.edu", Role: models.RoleStudent, University: university}
	if err := w.db.Create(&student).Error; err != nil {
		t.Fatalf("seed student: %v", err)
	}
	rest := models.Restaurant{
		OwnerID: owner.ID, Name: "Testaurant", University: university,
		IsOpen: true, IsApproved: true, DeliveryFee: 15,
	}
	if err := w.db.Create(&rest).Error; err != nil {
		t.Fatalf("seed restaurant: %v", err)
	}
	item := models.MenuItem{RestaurantID: rest.ID, Name: "Wrap", Price: 90, IsPublished: true}
	if err := w.db.Create(&item).Error; err != nil {
		t.Fatalf("seed menu item: %v", err)
	}

	o, err := w.orderSvc.CreateOrder(ctx, orders.CreateCommand{
		StudentID:       student.ID,
		RestaurantID:    rest.ID,
		DeliveryAddress: "Lab 3",
		Items:           []orders.ItemRequest{{MenuItemID: item.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if _, err := w.orderSvc.AcceptOrRejectOrder(ctx, o.ID, rest.ID, orders.DecisionAccept, "", owner.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := w.orderSvc.AdvanceKitchenStatus(ctx, o.ID, rest.ID, models.StatusPreparing, owner.ID); err != nil {
		t.Fatalf("preparing: %v", err)
	}
	if _, err := w.orderSvc.AdvanceKitchenStatus(ctx, o.ID, rest.ID, models.StatusReady, owner.ID); err != nil {
		t.Fatalf("ready: %v", err)
	}
	return o
}

func TestListAvailableOrdersScopesByUniversity(t *testing.T) {
	w := newWorld(t)
	here := w.seedReadyOrder(t, "State U")
	w.seedReadyOrder(t, "Tech Institute")
	rider := w.seedRider(t, "rider@campus.edu", "State U", true, true)

	got, err := w.svc.ListAvailableOrders(context.Background(), rider.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("orders = %d, want 1", len(got))
	}
	if got[0].ID != here.ID {
		t.Errorf("got order %d, want %d", got[0].ID, here.ID)
	}
}

func TestListAvailableOrdersFIFO(t *testing.T) {
	w := newWorld(t)
	first := w.seedReadyOrder(t, "State U")
	second := w.seedReadyOrder(t, "State U")
	rider := w.seedRider(t, "rider@campus.edu", "State U", true, true)

	got, err := w.svc.ListAvailableOrders(context.Background(), rider.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("orders = %d, want 2", len(got))
	}
	if got[0].ID != first.ID || got[1].ID != second.ID {
		t.Errorf("order sequence = [%d %d], want oldest first [%d %d]",
			got[0].ID, got[1].ID, first.ID, second.ID)
	}
}

func TestListAvailableOrdersHidesClaimedOrders(t *testing.T) {
	w := newWorld(t)
	o := w.seedReadyOrder(t, "State U")
	claimer := w.seedRider(t, "claimer@campus.edu", "State U", true, true)
	rider := w.seedRider(t, "rider@campus.edu", "State U", true, true)

	if _, err := w.svc.Claim(context.Background(), o.ID, claimer.ID); err != nil {
		t.Fatalf("claim: %v", err)
	}

	got, err := w.svc.ListAvailableOrders(context.Background(), rider.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("claimed order still visible: %d results", len(got))
	}
}

func TestListAvailableOrdersRequiresAvailability(t *testing.T) {
	w := newWorld(t)
	w.seedReadyOrder(t, "State U")

	offline := w.seedRider(t, "offline@campus.edu", "State U", false, true)
	_, err := w.svc.ListAvailableOrders(context.Background(), offline.ID)
	if !errors.Is(err, orders.ErrRiderUnavailable) {
		t.Fatalf("offline rider: expected ErrRiderUnavailable, got %v", err)
	}

	busy := w.seedRider(t, "busy@campus.edu", "State U", true, false)
	_, err = w.svc.ListAvailableOrders(context.Background(), busy.ID)
	if !errors.Is(err, orders.ErrRiderUnavailable) {
		t.Fatalf("busy rider: expected ErrRiderUnavailable, got %v", err)
	}

	_, err = w.svc.ListAvailableOrders(context.Background(), 99999)
	if !errors.Is(err, orders.ErrNotFound) {
		t.Fatalf("unknown rider: expected ErrNotFound, got %v", err)
	}
}

func TestClaimDelegatesAtomically(t *testing.T) {
	w := newWorld(t)
	o := w.seedReadyOrder(t, "State U")
	a := w.seedRider(t, "a@campus.edu", "State U", true, true)
	b := w.seedRider(t, "b@campus.edu", "State U", true, true)

	if _, err := w.svc.Claim(context.Background(), o.ID, a.ID); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	_, err := w.svc.Claim(context.Background(), o.ID, b.ID)
	if !errors.Is(err, orders.ErrAlreadyAssigned) {
		t.Fatalf("second claim: expected ErrAlreadyAssigned, got %v", err)
	}
}
