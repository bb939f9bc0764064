package server

import (
	"fmt"
	"net/http"
	"time"

	"shop-catalog/internal/config"
	"shop-catalog/internal/database"
	custommiddleware "shop-catalog/internal/middleware"
	"shop-catalog/internal/observability"
	"shop-catalog/internal/repository"
	"shop-catalog/internal/service"
	"shop-catalog/internal/storage"
	"shop-catalog/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Dependencies are the external resources the server is built on
type Dependencies struct {
	Database database.Service
	Redis    redis.UniversalClient
	Images   storage.ImageStore
	Registry *prometheus.Registry
}

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	deps   Dependencies
}

func NewServer(cfg *config.Config, logger *zap.Logger, deps Dependencies) *Server {
	db := deps.Database.DB()
	metrics := observability.NewMetrics(deps.Registry)
	images := metrics.InstrumentStore(deps.Images)

	// Create router
	router := chi.NewRouter()

	for _, mw := range custommiddleware.DefaultMiddlewareStack(cfg.Server.TrustProxyHeaders) {
		router.Use(mw)
	}
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(observability.HTTPMetricsMiddleware(metrics))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.IsDevelopment()))

	router.Get("/health", healthHandler(deps.Database))
	router.Method(http.MethodGet, "/metrics", metrics.Handler())

	// Initialize repositories
	tx := database.NewTxManager(db)
	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	productRepo := repository.NewProductRepository(db)
	imageRepo := repository.NewImageRepository(db)

	// Initialize services
	userService := service.NewUserService(userRepo, refreshTokenRepo, tx, cfg.JWT)
	categoryService := service.NewCategoryService(categoryRepo, productRepo, tx)
	productService := service.NewProductService(productRepo, categoryRepo, imageRepo, images, tx, logger)
	imageService := service.NewImageService(productRepo, imageRepo, images, tx, cfg.Storage.MaxUploadBytes(), logger)

	authMiddleware := custommiddleware.AuthMiddleware(userService, logger)
	credentialLimiter := custommiddleware.RateLimitMiddleware(deps.Redis, custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.Requests,
		Window:            time.Duration(cfg.RateLimit.Window) * time.Second,
		KeyPrefix:         "rate_limit:credentials",
	}, logger)

	// Register routes
	transport.NewUserHandler(userService, logger).RegisterRoutes(router, authMiddleware, credentialLimiter)
	transport.NewCategoryHandler(categoryService, logger).RegisterRoutes(router, authMiddleware)
	transport.NewProductHandler(productService, logger).RegisterRoutes(router, authMiddleware)
	transport.NewImageHandler(imageService, cfg.Storage.MaxUploadBytes(), logger).RegisterRoutes(router)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		deps:   deps,
	}

	return server
}

func healthHandler(db database.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := db.Health()
		status := http.StatusOK
		if stats["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		custommiddleware.RespondWithJSON(w, status, stats)
	}
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.deps.Redis != nil {
		if err := s.deps.Redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	if s.deps.Database != nil {
		if err := s.deps.Database.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
