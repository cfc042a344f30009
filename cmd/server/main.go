package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pos/backend/internal/application/catalog"
	"github.com/pos/backend/internal/application/identity"
	"github.com/pos/backend/internal/application/partner"
	"github.com/pos/backend/internal/application/purchasing"
	"github.com/pos/backend/internal/application/sales"
	domainidentity "github.com/pos/backend/internal/domain/identity"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/infrastructure/auth"
	"github.com/pos/backend/internal/infrastructure/config"
	"github.com/pos/backend/internal/infrastructure/logger"
	"github.com/pos/backend/internal/infrastructure/persistence"
	"github.com/pos/backend/internal/interfaces/http/handler"
	"github.com/pos/backend/internal/interfaces/http/middleware"
	"github.com/pos/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() { _ = logger.Sync(log) }()

	log.Info("Starting server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database
	gormLogger := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLogger)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()
	log.Info("Database connected",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.DBName),
	)

	if cfg.App.Env == "development" {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to run auto-migration", zap.Error(err))
		}
		log.Info("Auto-migration completed")
	}

	// Repositories
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	supplierRepo := persistence.NewGormSupplierRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	saleRepo := persistence.NewGormSaleRepository(db.DB)
	purchaseRepo := persistence.NewGormPurchaseRepository(db.DB)
	saleTxScope := persistence.NewGormSaleTransactionScope(db.DB)
	purchaseTxScope := persistence.NewGormPurchaseTransactionScope(db.DB)

	// Token blacklist: Redis when reachable, in-memory otherwise.
	// A restart then forgets revoked tokens, acceptable outside production.
	var blacklist auth.TokenBlacklist
	redisBlacklist, err := auth.NewRedisTokenBlacklist(auth.RedisTokenBlacklistConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		if cfg.App.Env == "production" {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		log.Warn("Redis unavailable, using in-memory token blacklist", zap.Error(err))
		blacklist = auth.NewInMemoryTokenBlacklist()
	} else {
		blacklist = redisBlacklist
		log.Info("Redis connected", zap.String("host", cfg.Redis.Host))
	}

	jwtService := auth.NewJWTService(cfg.JWT)

	// Application services
	categoryService := catalog.NewCategoryService(categoryRepo)
	productService := catalog.NewProductService(productRepo, categoryRepo)
	customerService := partner.NewCustomerService(customerRepo)
	supplierService := partner.NewSupplierService(supplierRepo)
	saleService := sales.NewSaleService(saleRepo, productRepo, customerRepo, saleTxScope)
	purchaseService := purchasing.NewPurchaseService(purchaseRepo, productRepo, supplierRepo, purchaseTxScope)
	authService := identity.NewAuthService(userRepo, jwtService, blacklist, log)
	userService := identity.NewUserService(userRepo, blacklist, log)

	if err := bootstrapAdmin(context.Background(), userRepo, cfg.Admin, log); err != nil {
		log.Fatal("Failed to bootstrap admin account", zap.Error(err))
	}

	// HTTP handlers
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	productHandler := handler.NewProductHandler(productService)
	categoryHandler := handler.NewCategoryHandler(categoryService)
	customerHandler := handler.NewCustomerHandler(customerService)
	supplierHandler := handler.NewSupplierHandler(supplierService)
	saleHandler := handler.NewSaleHandler(saleService)
	purchaseHandler := handler.NewPurchaseHandler(purchaseService)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Failed to set trusted proxies", zap.Error(err))
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.GET("/health", healthHandler(db, log))

	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: blacklist,
		Logger:         log,
		SkipPaths: []string{
			"/api/v1/auth/login",
			"/api/v1/auth/refresh",
		},
	}

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	adminOnly := middleware.RequireRole(string(domainidentity.RoleAdmin))

	r.Register(router.NewDomainGroup("auth", "/auth").
		POST("/login", authHandler.Login).
		POST("/refresh", authHandler.Refresh).
		POST("/logout", authHandler.Logout).
		GET("/me", authHandler.Me).
		PUT("/password", authHandler.ChangePassword))

	r.Register(router.NewDomainGroup("products", "/products").
		POST("", adminOnly, productHandler.Create).
		GET("", productHandler.List).
		GET("/:id", productHandler.GetByID).
		GET("/barcode/:barcode", productHandler.GetByBarcode).
		PUT("/:id", adminOnly, productHandler.Update).
		POST("/:id/stock", adminOnly, productHandler.AdjustStock).
		DELETE("/:id", adminOnly, productHandler.Delete))

	r.Register(router.NewDomainGroup("categories", "/categories").
		POST("", adminOnly, categoryHandler.Create).
		GET("", categoryHandler.List).
		GET("/:id", categoryHandler.GetByID).
		PUT("/:id", adminOnly, categoryHandler.Update).
		DELETE("/:id", adminOnly, categoryHandler.Delete))

	r.Register(router.NewDomainGroup("customers", "/customers").
		POST("", customerHandler.Create).
		GET("", customerHandler.List).
		GET("/:id", customerHandler.GetByID).
		GET("/phone/:phone", customerHandler.GetByPhone).
		PUT("/:id", customerHandler.Update).
		DELETE("/:id", adminOnly, customerHandler.Delete))

	r.Register(router.NewDomainGroup("suppliers", "/suppliers").
		Use(adminOnly).
		POST("", supplierHandler.Create).
		GET("", supplierHandler.List).
		GET("/:id", supplierHandler.GetByID).
		PUT("/:id", supplierHandler.Update).
		DELETE("/:id", supplierHandler.Delete))

	r.Register(router.NewDomainGroup("sales", "/sales").
		POST("", saleHandler.Create).
		GET("", saleHandler.List).
		GET("/summary", saleHandler.Summary).
		GET("/:id", saleHandler.GetByID).
		POST("/:id/items", saleHandler.AddItem).
		PUT("/:id/items/:itemId", saleHandler.UpdateItem).
		DELETE("/:id/items/:itemId", saleHandler.RemoveItem).
		POST("/:id/complete", saleHandler.Complete).
		POST("/:id/reopen", saleHandler.Reopen).
		POST("/:id/cancel", saleHandler.Cancel).
		DELETE("/:id", saleHandler.Delete))

	r.Register(router.NewDomainGroup("purchases", "/purchases").
		Use(adminOnly).
		POST("", purchaseHandler.Create).
		GET("", purchaseHandler.List).
		GET("/:id", purchaseHandler.GetByID).
		POST("/:id/items", purchaseHandler.AddItem).
		PUT("/:id/items/:itemId", purchaseHandler.UpdateItem).
		DELETE("/:id/items/:itemId", purchaseHandler.RemoveItem).
		POST("/:id/complete", purchaseHandler.Complete).
		POST("/:id/reopen", purchaseHandler.Reopen).
		POST("/:id/cancel", purchaseHandler.Cancel).
		DELETE("/:id", purchaseHandler.Delete))

	r.Register(router.NewDomainGroup("users", "/users").
		Use(adminOnly).
		POST("", userHandler.Create).
		GET("", userHandler.List).
		GET("/:id", userHandler.GetByID).
		PUT("/:id", userHandler.Update).
		POST("/:id/password", userHandler.ResetPassword).
		DELETE("/:id", userHandler.Delete))

	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}

	log.Info("Server stopped")
}

// bootstrapAdmin creates the initial admin account when the user store is
// empty, so a fresh deployment can log in without seeding the database by
// hand. Bails out quietly once any user exists.
func bootstrapAdmin(ctx context.Context, userRepo domainidentity.UserRepository, cfg config.AdminConfig, log *zap.Logger) error {
	count, err := userRepo.Count(ctx, shared.Filter{})
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if cfg.Password == "" {
		log.Warn("No users exist and admin.password is not set, skipping admin bootstrap")
		return nil
	}

	admin, err := domainidentity.NewUser(cfg.Username, cfg.Password, domainidentity.RoleAdmin)
	if err != nil {
		return err
	}
	if err := userRepo.Save(ctx, admin); err != nil {
		return err
	}

	log.Info("Bootstrap admin account created", zap.String("username", cfg.Username))
	return nil
}

// healthHandler reports liveness and database connectivity. Registered
// outside the versioned API so load balancers can probe it unauthenticated.
func healthHandler(db *persistence.Database, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			log.Error("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "down",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"database": "up",
			"time":     time.Now().UTC().Format(time.RFC3339),
		})
	}
}
