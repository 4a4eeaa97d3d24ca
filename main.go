package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"

	"storefront/internal/config"
	"storefront/internal/gateway"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	cfg := config.Load(viper.New())

	// --- Catalog storage ---
	productRepo, err := newProductRepository(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize catalog storage: %v", err)
	}
	if cfg.SeedCatalog {
		seedProducts(productRepo)
	}

	// --- RabbitMQ (optional) ---
	var publisher services.EventPublisher
	var mqClient *rabbitmq.Client
	if cfg.RabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Exchange: cfg.RabbitMQExchange})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		defer mqClient.Close()
		publisher = mqClient
	} else {
		log.Println("RABBITMQ_URL not set, checkout events are not published.")
	}

	// --- Services ---
	paymentGateway := newPaymentGateway(cfg, productRepo)
	catalog := services.NewCatalogSource(productRepo, cfg.CatalogRefreshInterval)
	sessions := services.NewSessionRegistry(paymentGateway, publisher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go catalog.Run(ctx)
	go sweepSessions(ctx, sessions, cfg.SessionIdleTTL)

	if mqClient != nil {
		handler := func(msg amqp.Delivery) error {
			return sessions.HandleConfirmation(msg.Body)
		}
		if err := mqClient.ConsumePaymentConfirmations(handler); err != nil {
			log.Printf("Failed to start RabbitMQ consumer: %v", err)
		}
	}

	app := newApp(catalog, sessions, cfg.IdentityJWTSecret, cfg.CheckoutReturnURL)

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", cfg.AppPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")
	cancel()

	// product streams never end on their own
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}

// newApp builds the Fiber app with all routes registered.
func newApp(catalog *services.CatalogSource, sessions *services.SessionRegistry, identitySecret, checkoutReturnURL string) *fiber.App {
	app := fiber.New()

	app.Use(recover.New())
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		_, catalogReady := catalog.Latest()
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"catalog":  catalogReady,
			"sessions": sessions.Len(),
		})
	})

	apiV1 := app.Group("/api/v1", middleware.CartSession(), middleware.Identity(identitySecret))

	handlers.NewProductHandler(catalog, sessions).RegisterRoutes(apiV1)
	handlers.NewCartHandler(catalog, sessions).RegisterRoutes(apiV1)
	handlers.NewCheckoutHandler(sessions, checkoutReturnURL).RegisterRoutes(apiV1)
	handlers.NewNavHandler(sessions).RegisterRoutes(apiV1)

	return app
}

func newProductRepository(cfg config.Config) (repositories.ProductRepository, error) {
	if cfg.DatabaseDriver == "memory" {
		return repositories.NewMockProductRepository(), nil
	}
	db, err := repositories.OpenDatabase(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	return repositories.NewGORMProductRepository(db), nil
}

func newPaymentGateway(cfg config.Config, productRepo repositories.ProductRepository) services.PaymentGateway {
	var pg services.PaymentGateway
	switch cfg.GatewayDriver {
	case "stripe":
		pg = gateway.NewStripeClient(gateway.StripeConfig{
			SecretKey:  cfg.StripeSecretKey,
			Currency:   cfg.StripeCurrency,
			SuccessURL: cfg.CheckoutSuccessURL,
			CancelURL:  cfg.CheckoutCancelURL,
			APIURL:     cfg.StripeAPIURL,
		})
	default:
		pg = gateway.NewHTTPClient(gateway.HTTPConfig{
			URL:     cfg.GatewayURL,
			APIKey:  cfg.GatewayAPIKey,
			Timeout: cfg.GatewayTimeout,
		})
	}

	if cfg.GatewayVerifyPrices {
		pg = gateway.NewPriceVerifier(pg, productRepo)
	}
	return pg
}

func sweepSessions(ctx context.Context, sessions *services.SessionRegistry, maxIdle time.Duration) {
	if maxIdle <= 0 {
		return
	}
	ticker := time.NewTicker(maxIdle / 4)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Sweep(maxIdle); n > 0 {
				log.Printf("Dropped %d idle cart sessions", n)
			}
		}
	}
}

// seedProducts populates an empty catalog with some initial data.
func seedProducts(repo repositories.ProductRepository) {
	existing, err := repo.GetAll()
	if err != nil {
		log.Printf("Error reading catalog before seeding: %v", err)
		return
	}
	if len(existing) > 0 {
		return
	}

	products := []models.Product{
		{Title: "Ceramic Mug", Description: "Hand-glazed 350ml mug", Price: decimal.RequireFromString("12.50"), ImageURL: "https://images.example.com/mug.jpg"},
		{Title: "Desk Lamp", Description: "Warm LED desk lamp", Price: decimal.RequireFromString("39.99"), ImageURL: "https://images.example.com/lamp.jpg"},
		{Title: "Linen Tote", Description: "Everyday carry bag", Price: decimal.RequireFromString("18.00"), ImageURL: "https://images.example.com/tote.jpg"},
	}

	for i := range products {
		if err := repo.Create(&products[i]); err != nil {
			log.Printf("Error seeding product %s: %v", products[i].Title, err)
		} else {
			log.Printf("Seeded product: %s (ID: %s)", products[i].Title, products[i].ID)
		}
	}
}
