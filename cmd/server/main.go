package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"ride-engine/internal/app"
	"ride-engine/internal/bus"
	"ride-engine/internal/config"
	"ride-engine/internal/geo"
	"ride-engine/internal/handler"
	"ride-engine/internal/location"
	internalRedis "ride-engine/internal/redis"
	"ride-engine/internal/repository/postgres"
	"ride-engine/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Wire dependencies.
	geoIndex := geo.New()
	server := wireServer(db, redisClient, geoIndex, nrApp, cfg)

	// Periodically sweep stale driver positions out of the Geo Index so a
	// driver who drops offline without calling /availability stops being
	// offered to matching.
	go runStaleSweeper(geoIndex, cfg.Location.StalenessSeconds)

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func runStaleSweeper(geoIndex *geo.Index, staleness time.Duration) {
	ticker := time.NewTicker(staleness)
	defer ticker.Stop()
	for range ticker.C {
		if n := geoIndex.Sweep(staleness); n > 0 {
			log.Printf("geo index: swept %d stale driver positions", n)
		}
	}
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(db *sql.DB, redisClient *redis.Client, geoIndex *geo.Index, nrApp *newrelic.Application, cfg *config.Config) *http.Server {
	// Initialize the Update Bus and Redis-backed stores.
	updateBus := bus.New(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)
	idempotencyStore := internalRedis.NewIdempotencyStore(redisClient)
	positionCache := internalRedis.NewPositionCache(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)

	// Initialize repositories.
	riderRepo := postgres.NewRiderRepository(db)
	driverRepo := postgres.NewDriverRepository(db)
	rideRepo := postgres.NewRideRepository(db)
	tripRepo := postgres.NewTripRepository(db)
	rideEventRepo := postgres.NewRideEventRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)
	pricingRepo := postgres.NewPricingConfigRepository(db)
	surgeZoneRepo := postgres.NewSurgeZoneRepository(db)
	driverLocationRepo := postgres.NewDriverLocationRepository(db)
	receiptRepo := postgres.NewReceiptRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	refundRepo := postgres.NewRefundRepository(db)
	earningRepo := postgres.NewEarningRepository(db)

	// Initialize the Location Ingest Pipeline, backed by the driver
	// lookup adapter so it knows which driver's pings require a live
	// geo.Index position and which ride to fan them out to.
	driverLookup := service.NewDriverLookup(driverRepo, tripRepo)
	locationPipeline := location.New(location.Config{
		BatchSize:     cfg.Location.BatchSize,
		BatchInterval: cfg.Location.BatchInterval,
		HighWaterMark: cfg.Location.HighWaterMark,
	}, geoIndex, driverLocationRepo, driverLookup, updateBus)

	// Initialize services.
	notificationService := service.NewNotificationService(notificationRepo)
	receiptService := service.NewReceiptService(receiptRepo)
	surgeService := service.NewSurgeService(surgeZoneRepo)
	matchingService := service.NewMatchingService(
		db, geoIndex, lockStore, updateBus,
		service.MatchingConfig{
			MaxAttempts:    cfg.Matching.MaxAttempts,
			Backoff:        cfg.Matching.Backoff,
			SearchRadiusKm: cfg.Matching.SearchRadiusKm,
		},
		driverRepo, rideRepo, rideEventRepo, notificationService,
	)
	rideService := service.NewRideService(
		geoIndex, lockStore, updateBus, cacheStore,
		rideRepo, tripRepo, driverRepo, rideEventRepo, pricingRepo,
		surgeService, matchingService, notificationService,
	)
	tripService := service.NewTripService(
		db, geoIndex, updateBus,
		tripRepo, rideRepo, driverRepo, riderRepo, rideEventRepo, earningRepo,
		receiptService, notificationService,
	)
	psp := service.NewMockPSP()
	paymentService := service.NewPaymentService(paymentRepo, refundRepo, tripRepo, idempotencyStore, psp, notificationService)
	driverService := service.NewDriverService(locationPipeline, geoIndex, positionCache, cacheStore, driverRepo)

	// Initialize handlers.
	riderHandler := handler.NewRiderHandler(riderRepo, rideService)
	rideHandler := handler.NewRideHandler(rideService, rideRepo)
	driverHandler := handler.NewDriverHandler(driverService, matchingService, driverRepo)
	tripHandler := handler.NewTripHandler(tripService, tripRepo)
	paymentHandler := handler.NewPaymentHandler(paymentService)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		RiderHandler:   riderHandler,
		RideHandler:    rideHandler,
		DriverHandler:  driverHandler,
		TripHandler:    tripHandler,
		PaymentHandler: paymentHandler,
		RedisClient:    redisClient,
		NewRelicApp:    nrApp,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
