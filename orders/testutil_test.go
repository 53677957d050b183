package orders_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"campus-eats-api/catalog"
	"campus-eats-api/models"
	"campus-eats-api/orders"
)

// setupTestDB opens a private in-memory database. A single connection
// keeps concurrent writers serialized the way a real store's row locks
// would.
func setupTestDB(t *testing.T) *gorm.DB {
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
	return db
}

// fixture is a fully seeded marketplace: one open approved restaurant
// with two menu items, one student, one online+available rider.
type fixture struct {
	db         *gorm.DB
	store      *orders.Store
	svc        *orders.Service
	student    models.User
	owner      models.User
	restaurant models.Restaurant
	burger     models.MenuItem
	fries      models.MenuItem
	rider      models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupTestDB(t)
	store := orders.NewStore(db)
	svc := orders.NewService(store, catalog.NewService(db), nil, nil, nil)

	f := &fixture{db: db, store: store, svc: svc}
	f.student = seedUser(t, db, models.RoleStudent, "student@campus.edu", "State U")
	f.owner = seedUser(t, db, models.RoleRestaurant, "owner@campus.edu", "State U")
	f.restaurant = seedRestaurant(t, db, f.owner.ID, "State U", true, true, 20)
	f.burger = seedMenuItem(t, db, f.restaurant.ID, "Burger", 150, true)
	f.fries = seedMenuItem(t, db, f.restaurant.ID, "Fries", 50, true)
	f.rider = seedRider(t, db, "rider@campus.edu", "State U", true, true)
	return f
}

func seedUser(t *testing.T, db *gorm.DB, role models.UserRole, email, university string) models.User {
	t.Helper()
	u := models.User{
		Name:         "Test " + string(role),
		Email:        email,
		PasswordHash: "x",
		Role:         role,
		Phone:        "+1000000000",
		University:   university,
	}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func seedRestaurant(t *testing.T, db *gorm.DB, ownerID uint, university string, open, approved bool, fee float64) models.Restaurant {
	t.Helper()
	r := models.Restaurant{
		OwnerID:     ownerID,
		Name:        "Testaurant",
		Cuisine:     "Grill",
		University:  university,
		IsOpen:      open,
		IsApproved:  approved,
		DeliveryFee: fee,
	}
	if err := db.Create(&r).Error; err != nil {
		t.Fatalf("seed restaurant: %v", err)
	}
	return r
}

func seedMenuItem(t *testing.T, db *gorm.DB, restaurantID uint, name string, price float64, published bool) models.MenuItem {
	t.Helper()
	m := models.MenuItem{
		RestaurantID: restaurantID,
		Name:         name,
		Price:        price,
		IsPublished:  published,
	}
	if err := db.Create(&m).Error; err != nil {
		t.Fatalf("seed menu item: %v", err)
	}
	return m
}

func seedRider(t *testing.T, db *gorm.DB, email, university string, online, available bool) models.User {
	t.Helper()
	u := seedUser(t, db, models.RoleRider, email, university)
	p := models.RiderProfile{UserID: u.ID, IsOnline: online, IsAvailable: available}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed rider profile: %v", err)
	}
	return u
}

func (f *fixture) placeOrder(t *testing.T) *models.Order {
	t.Helper()
	o, err := f.svc.CreateOrder(context.Background(), orders.CreateCommand{
		StudentID:       f.student.ID,
		RestaurantID:    f.restaurant.ID,
		DeliveryAddress: "Dorm 4, Room 12",
		PaymentMethod:   "card",
		Items: []orders.ItemRequest{
			{MenuItemID: f.burger.ID, Quantity: 2},
			{MenuItemID: f.fries.ID, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	return o
}

// driveToReady walks a fresh order through accept → preparing → ready.
func (f *fixture) driveToReady(t *testing.T) *models.Order {
	t.Helper()
	ctx := context.Background()
	o := f.placeOrder(t)
	if _, err := f.svc.AcceptOrRejectOrder(ctx, o.ID, f.restaurant.ID, orders.DecisionAccept, "", f.owner.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := f.svc.AdvanceKitchenStatus(ctx, o.ID, f.restaurant.ID, models.StatusPreparing, f.owner.ID); err != nil {
		t.Fatalf("preparing: %v", err)
	}
	if _, err := f.svc.AdvanceKitchenStatus(ctx, o.ID, f.restaurant.ID, models.StatusReady, f.owner.ID); err != nil {
		t.Fatalf("ready: %v", err)
	}
	return o
}

// driveToPickedUp additionally claims and picks up with the fixture rider.
func (f *fixture) driveToPickedUp(t *testing.T) *models.Order {
	t.Helper()
	ctx := context.Background()
	o := f.driveToReady(t)
	if _, err := f.svc.RiderClaimOrder(ctx, o.ID, f.rider.ID); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if _, err := f.svc.AdvanceDeliveryStatus(ctx, o.ID, f.rider.ID, models.StatusPickedUp); err != nil {
		t.Fatalf("pickup: %v", err)
	}
	return o
}

func (f *fixture) reload(t *testing.T, id uint) *models.Order {
	t.Helper()
	o, err := f.store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("reload order %d: %v", id, err)
	}
	return o
}

func (f *fixture) riderProfile(t *testing.T, userID uint) *models.RiderProfile {
	t.Helper()
	p, err := f.store.RiderProfile(context.Background(), userID)
	if err != nil {
		t.Fatalf("rider profile: %v", err)
	}
	return p
}
