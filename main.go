package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"campus-eats-api/catalog"
	"campus-eats-api/config"
	"campus-eats-api/events"
	"campus-eats-api/handlers"
	"campus-eats-api/matching"
	"campus-eats-api/notify"
	"campus-eats-api/orders"
	"campus-eats-api/routes"
)

func main() {
	config.Load()
	config.SetupLogger()

	mode := os.Getenv("GIN_MODE")
	if mode == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.InitDB()
	if err != nil {
		slog.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connected and migrated")

	// Core wiring: store → orchestrator → matching, with the event bus
	// and notification channels injected
	store := orders.NewStore(db)
	bus := events.NewMemoryBus()
	dispatcher := notify.NewDispatcher(slog.Default(),
		notify.NewEmailChannel(slog.Default()),
		notify.NewWhatsAppChannel(slog.Default()),
	)
	orderSvc := orders.NewService(store, catalog.NewService(db), dispatcher, bus, slog.Default())
	matchingSvc := matching.NewService(db, store, orderSvc)

	r := gin.Default()

	// CORS middleware for frontend integration
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "Campus Eats Order API",
			"version": "1.0.0",
		})
	})

	routes.SetupRoutes(r, routes.Handlers{
		Auth:             handlers.NewAuthHandler(db),
		Public:           handlers.NewPublicHandler(db),
		Student:          handlers.NewStudentHandler(orderSvc),
		Restaurant:       handlers.NewRestaurantHandler(db),
		RestaurantOrders: handlers.NewRestaurantOrderHandler(db, orderSvc, bus),
		Rider:            handlers.NewRiderHandler(orderSvc, matchingSvc, store),
		Admin:            handlers.NewAdminHandler(db, orderSvc),
		Payment:          handlers.NewPaymentHandler(orderSvc, config.WebhookSecret),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		slog.Info("server running", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	slog.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	slog.Info("server stopped")
}
