package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dungeun/codeB-core-engine/internal"
	"github.com/dungeun/codeB-core-engine/internal/domain"
	"github.com/dungeun/codeB-core-engine/internal/handler/api"
	"github.com/dungeun/codeB-core-engine/internal/middleware"
	"github.com/dungeun/codeB-core-engine/internal/repository"
	"github.com/dungeun/codeB-core-engine/internal/router"
	"github.com/dungeun/codeB-core-engine/internal/routes"
	"github.com/dungeun/codeB-core-engine/internal/service"
	"github.com/dungeun/codeB-core-engine/internal/telemetry"
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database/sql connection for migrations
	logger.Info("Connecting to database...")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	// Verify database connection
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	logger.Info("Database connection established")

	// Run migrations
	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize pgx connection pool for application
	pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	// Initialize store
	store := repository.NewStore(pool)

	// Pricing rules from config
	pricing := domain.Pricing{
		TaxRate:               cfg.Commerce.TaxRate,
		FreeShippingThreshold: cfg.Commerce.FreeShippingThreshold,
		FlatShippingFee:       cfg.Commerce.FlatShippingFee,
	}

	// Initialize services
	cartService := service.NewCartService(store, pricing)
	orderService := service.NewOrderService(store)
	productService := service.NewProductService(store)
	logger.Info("Services initialized")

	// Initialize metrics
	httpMetrics := middleware.NewMetrics("commerce")
	businessMetrics := telemetry.NewBusinessMetrics("commerce")

	// Build route dependencies
	apiDeps := routes.APIDeps{
		CartHandler:    api.NewCartHandler(cartService, pricing, businessMetrics, logger),
		OrderHandler:   api.NewOrderHandler(orderService, businessMetrics, logger),
		ProductHandler: api.NewProductHandler(productService, logger),
	}

	// Create router and register routes
	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		httpMetrics.Middleware,
		middleware.WithIdentity,
		middleware.WithRequestLogger(logger),
		router.Logger(logger),
	)

	// Metrics endpoint (no auth required, but should be protected in production via firewall)
	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		httpMetrics.Handler().ServeHTTP(w, req)
	})

	// Health check endpoint
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if err := pool.Ping(req.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	routes.RegisterAPIRoutes(r, apiDeps)

	// CORS wraps the whole router so preflight OPTIONS requests are answered
	// before method-based route matching.
	var handler http.Handler = r
	if len(cfg.CORSAllowedOrigins) > 0 {
		handler = router.CORS(cfg.CORSAllowedOrigins)(handler)
	}

	// Start server
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	logger.Info("Server stopped")

	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
