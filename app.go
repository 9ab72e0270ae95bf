package main

import (
	"fmt"
	"log"
	"time"

	"webstudio/internal/config"
	"webstudio/internal/handlers"
	"webstudio/internal/metrics"
	"webstudio/internal/middleware"
	"webstudio/internal/models"
	"webstudio/internal/repositories"
	"webstudio/internal/services"
	"webstudio/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const simulatedAuthLatency = 1500 * time.Millisecond

// App is the wired service: the fiber app plus the session services behind it.
type App struct {
	Fiber    *fiber.App
	Auth     *services.AuthService
	Cart     *services.CartService
	Payments *services.PaymentService
	Orders   *services.OrderService
	MQ       *rabbitmq.Client

	closers []func() error
}

// NewApp builds storage, services and handlers from cfg.
// Collectors are registered with reg.
func NewApp(cfg *config.Config, reg *prometheus.Registry) (*App, error) {
	a := &App{}

	store, closeStore, err := openKVStore(cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeStore)

	var templateRepo *repositories.YAMLTemplateRepository
	if cfg.CatalogFile != "" {
		templateRepo, err = repositories.NewTemplateRepositoryFromFile(cfg.CatalogFile)
	} else {
		templateRepo, err = repositories.NewDefaultTemplateRepository()
	}
	if err != nil {
		a.Close()
		return nil, err
	}

	var publisher services.OrderEventPublisher
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Exchange: services.OrderExchange})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize RabbitMQ client: %w", err)
		}
		a.MQ = mqClient
		a.closers = append(a.closers, mqClient.Close)
		publisher = mqClient
	} else {
		log.Println("RABBITMQ_URL is not set, order events will not be published")
	}

	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	authLatency := time.Duration(0)
	paymentLatency := map[models.PaymentMethodType]time.Duration(nil)
	if cfg.SimulateLatency {
		authLatency = simulatedAuthLatency
		paymentLatency = services.DefaultProviderLatency
	}

	notifier := services.LogNotifier{}
	limiter := services.NewRateLimiter(cfg.RateLimits, nil, m)
	a.Auth = services.NewAuthService(repositories.NewKVIdentityRepository(store), limiter, services.AuthConfig{
		JWTSecret:     cfg.JWTSecret,
		TokenDuration: cfg.TokenDuration,
		AdminEmails:   cfg.AdminEmails,
		Latency:       authLatency,
		Providers:     services.DefaultProviders(authLatency),
	})
	a.Auth.Restore()

	a.Cart = services.NewCartService(notifier, m)
	a.Payments = services.NewPaymentService(services.DefaultPaymentMethods(), services.NewSimulatedProcessor(paymentLatency), nil)
	a.Orders = services.NewOrderService(
		repositories.NewKVOrderRepository(store),
		a.Auth,
		a.Payments,
		publisher,
		notifier,
		m,
		services.OrderConfig{
			DeliveryLeadTime: cfg.DeliveryLeadTime,
			AssetBaseURL:     cfg.AssetBaseURL,
		},
	)
	prefs := repositories.NewPreferencesRepository(store, nil)

	app := fiber.New(fiber.Config{AppName: appName})
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		mq := "disabled"
		if a.MQ != nil {
			mq = "connected"
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"storage":  cfg.StorageDriver,
			"rabbitMQ": mq,
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	protect := middleware.AuthRequired(a.Auth)
	apiV1 := app.Group("/api/v1")
	handlers.NewAuthHandler(a.Auth).RegisterRoutes(apiV1, protect)
	handlers.NewCatalogHandler(templateRepo).RegisterRoutes(apiV1)
	handlers.NewCartHandler(a.Cart, templateRepo).RegisterRoutes(apiV1)
	handlers.NewPaymentHandler(a.Payments).RegisterRoutes(apiV1)
	handlers.NewPreferencesHandler(prefs).RegisterRoutes(apiV1)
	handlers.NewOrderHandler(a.Orders, a.Cart, templateRepo).RegisterRoutes(apiV1, protect)

	a.Fiber = app
	return a, nil
}

// Close releases the broker connection and the database.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}
	a.closers = nil
}

func openKVStore(cfg *config.Config) (repositories.KVStore, func() error, error) {
	var dialector gorm.Dialector
	switch cfg.StorageDriver {
	case config.StorageMemory:
		return repositories.NewMockKVStore(), func() error { return nil }, nil
	case config.StorageSQLite:
		dialector = sqlite.Open(cfg.DatabaseDSN)
	case config.StoragePostgres:
		dialector = postgres.Open(cfg.DatabaseDSN)
	default:
		return nil, nil, fmt.Errorf("unknown storage driver: %s", cfg.StorageDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to %s database: %w", cfg.StorageDriver, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to access database handle: %w", err)
	}
	store, err := repositories.NewGORMKVStore(db)
	if err != nil {
		sqlDB.Close()
		return nil, nil, err
	}
	log.Printf("Using %s storage", cfg.StorageDriver)
	return store, sqlDB.Close, nil
}
