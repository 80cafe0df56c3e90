package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/aloeflora/mpesa-gateway/config"
	"github.com/aloeflora/mpesa-gateway/daraja"
	"github.com/aloeflora/mpesa-gateway/handlers"
	"github.com/aloeflora/mpesa-gateway/models"
	"github.com/aloeflora/mpesa-gateway/payments"
	"github.com/aloeflora/mpesa-gateway/store"
)

func main() {
	_ = godotenv.Load()

	// Database connection
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := db.AutoMigrate(&models.Transaction{}); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	cfg := config.Load()
	if cfg.ShortCode == "" || cfg.Passkey == "" {
		log.Fatal("MPESA_SHORT_CODE and MPESA_PASSKEY must be set")
	}
	if cfg.ConsumerKey == "" || cfg.ConsumerSecret == "" {
		log.Fatal("MPESA_CONSUMER_KEY and MPESA_CONSUMER_SECRET must be set")
	}
	if cfg.CallbackURL == "" {
		log.Fatal("MPESA_CALLBACK_URL must be set")
	}

	tokens := daraja.NewOAuthTokenSource(cfg.BaseURL, cfg.ConsumerKey, cfg.ConsumerSecret)
	client := daraja.NewClient(cfg.BaseURL, tokens)
	st := store.NewGormStore(db)
	svc := payments.NewService(st, client, cfg)

	paymentHandler := handlers.NewPaymentHandler(svc, tokens)
	txHandler := handlers.NewTransactionHandler(st)

	app := fiber.New()

	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
		AllowHeaders: "Content-Type, Authorization",
	}))

	// Routes
	app.Get("/health", paymentHandler.Health)
	app.Get("/api/token", paymentHandler.Token)
	app.Post("/api/stkpush", paymentHandler.STKPush)
	app.Post("/api/callback", paymentHandler.Callback)
	app.Post("/api/stkquery", paymentHandler.STKQuery)
	app.Get("/api/transactions", txHandler.ListTransactions)
	app.Get("/api/transactions/:id", txHandler.GetTransaction)

	port := os.Getenv("PORT")
	if port == "" {
		port = "9000"
	}
	fmt.Println("Server running on http://localhost:" + port)
	log.Fatal(app.Listen(":" + port))
}
