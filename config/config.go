package config

import (
	"log/slog"
	"os"

	"github.com/glebarez/sqlite"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"campus-eats-api/models"
)

// JWTSecret used to sign tokens — read from env or fallback
var JWTSecret = []byte(getEnv("JWT_SECRET", "campus_eats_super_secret_2024"))

// WebhookSecret authenticates the payment gateway's callback
var WebhookSecret = getEnv("PAYMENT_WEBHOOK_SECRET", "campus_eats_webhook_secret")

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Load reads the optional .env file and re-reads the secrets so a local
// .env can override the fallbacks.
func Load() {
	_ = godotenv.Load()
	JWTSecret = []byte(getEnv("JWT_SECRET", "campus_eats_super_secret_2024"))
	WebhookSecret = getEnv("PAYMENT_WEBHOOK_SECRET", "campus_eats_webhook_secret")
}

// SetupLogger installs a JSON slog handler as the process default.
func SetupLogger() {
	level := slog.LevelInfo
	if getEnv("LOG_LEVEL", "") == "debug" {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// InitDB opens the database and migrates all models.
func InitDB() (*gorm.DB, error) {
	dsn := getEnv("DB_PATH", "campus_eats.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

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
		return nil, err
	}
	return db, nil
}
