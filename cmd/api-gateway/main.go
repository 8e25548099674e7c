package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	_ "github.com/veloca-labs/mds-api/api/swagger"
	"github.com/veloca-labs/mds-api/internal/handler"
	"github.com/veloca-labs/mds-api/internal/middleware"
	"github.com/veloca-labs/mds-api/internal/repository"
	"github.com/veloca-labs/mds-api/internal/service"
	"github.com/veloca-labs/mds-api/pkg/cache"
	"github.com/veloca-labs/mds-api/pkg/config"
	"github.com/veloca-labs/mds-api/pkg/database"
	"github.com/veloca-labs/mds-api/pkg/jobs"
	"github.com/veloca-labs/mds-api/pkg/logger"
	corsmiddleware "github.com/veloca-labs/mds-api/pkg/middleware/cors"
	reqidmiddleware "github.com/veloca-labs/mds-api/pkg/middleware/requestid"
	"github.com/veloca-labs/mds-api/pkg/storage"
)

// @title MDS API
// @version 1.0.0
// @description Manufacturing and distribution management API
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	factoryRepo := repository.NewFactoryRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	modelRepo := repository.NewProductModelRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	technicianRepo := repository.NewTechnicianRepository(db)
	replacementRepo := repository.NewReplacementRepository(db)
	billingRepo := repository.NewBillingRepository(db)
	exportJobRepo := repository.NewExportJobRepository(db)

	metricsService := service.NewMetricsService()

	var cacheService *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheService = service.NewCacheService(cacheRepo, metricsService, cfg.Dashboard.CacheTTL, logr, true)
	} else {
		cacheService = service.NewCacheService(nil, metricsService, cfg.Dashboard.CacheTTL, logr, false)
	}

	// Services.
	authService := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "mds-api",
		SingleSession:      cfg.JWT.SingleSession,
	})
	userService := service.NewUserService(userRepo, nil, logr)
	factoryService := service.NewFactoryService(factoryRepo, nil, logr)
	catalogService := service.NewCatalogService(categoryRepo, modelRepo, nil, logr)
	productService := service.NewProductService(productRepo, modelRepo, nil, logr)
	orderService := service.NewOrderService(orderRepo, modelRepo, userRepo, nil, logr)
	saleService := service.NewSaleService(saleRepo, productRepo, modelRepo, customerRepo, nil, logr)
	customerService := service.NewCustomerService(customerRepo, nil, logr)
	technicianService := service.NewTechnicianService(technicianRepo, nil, logr)
	replacementService := service.NewReplacementService(
		replacementRepo, saleRepo, productRepo, modelRepo, customerRepo,
		technicianRepo, billingRepo, userRepo, nil, logr,
	)
	billingService := service.NewBillingService(billingRepo, userRepo, nil, logr)
	dashboardService := service.NewDashboardService(service.DashboardServiceParams{
		Replacements: replacementRepo,
		Orders:       orderRepo,
		Factories:    factoryRepo,
		Models:       modelRepo,
		Products:     productRepo,
		Technicians:  technicianRepo,
		Customers:    customerRepo,
		Cache:        cacheService,
		Logger:       logr,
		CacheTTL:     cfg.Dashboard.CacheTTL,
	})

	exportStorage, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	mediaStorage, err := storage.NewLocalStorage(cfg.Media.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init media storage", "error", err)
	}

	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportService := service.NewExportService(service.ExportServiceParams{
		Repo:         exportJobRepo,
		Factories:    factoryRepo,
		Technicians:  technicianRepo,
		Replacements: replacementRepo,
		Storage:      exportStorage,
		Signer:       signer,
		Metrics:      metricsService,
		Logger:       logr,
		Config:       service.ExportConfig{ResultTTL: cfg.Exports.SignedURLTTL},
	})

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var exportQueue *jobs.Queue
	if cfg.Exports.Enabled {
		exportQueue = jobs.NewQueue("exports", exportService.Process, jobs.QueueConfig{
			Workers:    cfg.Exports.WorkerConcurrency,
			MaxRetries: cfg.Exports.WorkerRetries,
			Logger:     logr,
		})
		exportQueue.Start(rootCtx)
		defer exportQueue.Stop()
		exportService.AttachQueue(exportQueue)

		go func() {
			ticker := time.NewTicker(cfg.Exports.CleanupInterval)
			defer ticker.Stop()
			for {
				select {
				case <-rootCtx.Done():
					return
				case <-ticker.C:
					removed, cleanupErr := exportService.Cleanup(cfg.Exports.SignedURLTTL)
					if cleanupErr != nil {
						logr.Sugar().Warnw("export cleanup failed", "error", cleanupErr)
						continue
					}
					if len(removed) > 0 {
						logr.Sugar().Infow("expired export files removed", "count", len(removed))
					}
				}
			}
		}()
	}

	// Handlers.
	handlers := &apiHandlers{
		auth:        handler.NewAuthHandler(authService),
		users:       handler.NewUserHandler(userService),
		factories:   handler.NewFactoryHandler(factoryService),
		catalog:     handler.NewCatalogHandler(catalogService),
		products:    handler.NewProductHandler(productService, saleService),
		orders:      handler.NewOrderHandler(orderService),
		sales:       handler.NewSaleHandler(saleService),
		customers:   handler.NewCustomerHandler(customerService),
		technicians: handler.NewTechnicianHandler(technicianService),
		replacement: handler.NewReplacementHandler(replacementService, customerService, mediaStorage),
		billing:     handler.NewBillingHandler(billingService),
		exports:     handler.NewExportHandler(exportService),
		dashboard:   handler.NewDashboardHandler(dashboardService),
		metrics:     handler.NewMetricsHandler(metricsService),
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))
	r.Use(middleware.WithResponseMeta())

	registerRoutes(r, cfg, handlers, authService, userRepo)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if serveErr := srv.ListenAndServe(); serveErr != nil && serveErr != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", serveErr)
		}
	}()

	<-rootCtx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("graceful shutdown failed", "error", err)
	}
}
