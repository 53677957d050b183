package routes

import (
	"github.com/gin-gonic/gin"

	"campus-eats-api/handlers"
	"campus-eats-api/middleware"
	"campus-eats-api/models"
)

// Handlers bundles the constructed handler set for route registration.
type Handlers struct {
	Auth             *handlers.AuthHandler
	Public           *handlers.PublicHandler
	Student          *handlers.StudentHandler
	Restaurant       *handlers.RestaurantHandler
	RestaurantOrders *handlers.RestaurantOrderHandler
	Rider            *handlers.RiderHandler
	Admin            *handlers.AdminHandler
	Payment          *handlers.PaymentHandler
}

func SetupRoutes(r *gin.Engine, h Handlers) {
	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		public.POST("/auth/register", h.Auth.Register)
		public.POST("/auth/login", h.Auth.Login)

		public.GET("/restaurants", h.Public.ListRestaurants)
		public.GET("/restaurants/:id", h.Public.GetRestaurant)
		public.GET("/restaurants/:id/menu", h.Public.GetMenu)

		public.GET("/state-machine", h.Public.GetStateMachineInfo)

		// Inbound gateway callback, authenticated by shared secret
		public.POST("/payments/webhook", h.Payment.Webhook)
	}

	// ── Authenticated routes ───────────────────────────────────────
	auth := r.Group("/api")
	auth.Use(middleware.AuthRequired())
	{
		auth.GET("/profile", h.Auth.GetProfile)
	}

	// ── Student routes ─────────────────────────────────────────────
	student := r.Group("/api/student")
	student.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleStudent))
	{
		student.POST("/orders", h.Student.PlaceOrder)
		student.GET("/orders", h.Student.GetMyOrders)
		student.GET("/orders/:id", h.Student.GetOrderDetail)
		student.PUT("/orders/:id/cancel", h.Student.CancelOrder)
		student.PUT("/orders/:id/received", h.Student.MarkReceived)
		student.POST("/orders/:id/rating", h.Student.RateOrder)
	}

	// ── Restaurant owner routes ────────────────────────────────────
	restaurant := r.Group("/api/restaurant")
	restaurant.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleRestaurant))
	{
		restaurant.POST("/", h.Restaurant.CreateRestaurant)
		restaurant.GET("/", h.Restaurant.GetMyRestaurant)
		restaurant.PUT("/", h.Restaurant.UpdateRestaurant)

		restaurant.POST("/menu", h.Restaurant.AddMenuItem)
		restaurant.PUT("/menu/:itemId", h.Restaurant.UpdateMenuItem)
		restaurant.DELETE("/menu/:itemId", h.Restaurant.DeleteMenuItem)

		restaurant.GET("/orders", h.RestaurantOrders.GetRestaurantOrders)
		restaurant.GET("/orders/live", h.RestaurantOrders.LiveOrders)
		restaurant.PUT("/orders/:id/decision", h.RestaurantOrders.DecideOrder)
		restaurant.PUT("/orders/:id/status", h.RestaurantOrders.UpdateOrderStatus)
	}

	// ── Rider routes ───────────────────────────────────────────────
	rider := r.Group("/api/rider")
	rider.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleRider))
	{
		rider.GET("/orders/available", h.Rider.GetAvailableOrders)
		rider.GET("/orders/my-deliveries", h.Rider.GetMyDeliveries)
		rider.PUT("/orders/:id/claim", h.Rider.ClaimOrder)
		rider.PUT("/orders/:id/pickup", h.Rider.PickupOrder)
		rider.PUT("/orders/:id/deliver", h.Rider.DeliverOrder)
		rider.PUT("/availability", h.Rider.SetAvailability)
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := r.Group("/api/admin")
	admin.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleAdmin))
	{
		admin.GET("/orders", h.Admin.GetAllOrders)
		admin.PUT("/orders/:id/assign", h.Admin.AssignRider)
		admin.GET("/users", h.Admin.GetAllUsers)
		admin.GET("/restaurants", h.Admin.GetAllRestaurants)
		admin.PUT("/restaurants/:id/approve", h.Admin.ApproveRestaurant)
	}
}
