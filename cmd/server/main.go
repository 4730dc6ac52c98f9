package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-retail-pos/internal/auth"
	"go-retail-pos/internal/backup"
	"go-retail-pos/internal/catalog"
	"go-retail-pos/internal/config"
	"go-retail-pos/internal/database"
	"go-retail-pos/internal/handlers"
	"go-retail-pos/internal/ledger"
	"go-retail-pos/internal/middleware"
	"go-retail-pos/internal/sales"
	"go-retail-pos/internal/scheduler"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}).
		With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := database.Connect(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	log.Info().Str("path", cfg.DBPath).Msg("database ready")

	auth.Init(cfg.JWTSecret)

	// Core services
	store := catalog.NewStore(db)
	customers := ledger.New(db)
	engine := sales.NewEngine(db, store, customers)

	manager, err := backup.NewManager(backup.Options{
		DB:               db,
		DBPath:           cfg.DBPath,
		UploadsDir:       cfg.UploadsDir,
		BackupDir:        cfg.BackupDir,
		ConfigPath:       cfg.BackupConfigPath,
		ExtraConfigFiles: []string{".env"},
		Logger:           log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize backup manager")
	}

	// Automatic backups run beside the request handlers; their
	// failures are logged by the scheduler, never surfaced here.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if backupCfg := manager.Config(); backupCfg.AutoBackupEnabled {
		interval := time.Duration(backupCfg.BackupIntervalHours) * time.Hour
		go scheduler.New(manager, interval, log).Run(ctx)
	}

	// Handlers
	authHandler := &handlers.AuthHandler{DB: db}
	productHandler := &handlers.ProductHandler{Store: store, UploadsDir: cfg.UploadsDir, BaseURL: cfg.BaseURL}
	customerHandler := &handlers.CustomerHandler{Ledger: customers}
	saleHandler := &handlers.SaleHandler{Engine: engine}
	backupHandler := &handlers.BackupHandler{Manager: manager}
	reportHandler := &handlers.ReportHandler{DB: db}

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"status": "online"}) })
	r.POST("/login", authHandler.Login)
	r.Static("/uploads", cfg.UploadsDir)

	// Only opens if we explicitly allow it in .env
	if cfg.AllowRegistration {
		r.POST("/register", authHandler.Register)
		log.Warn().Msg("registration route is OPEN; disable this in production")
	}

	// --- PROTECTED ROUTES ---
	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware())
	{
		// PUBLIC TO STAFF & ADMIN
		api.GET("/products", productHandler.GetProducts)
		api.GET("/products/scan/:barcode", productHandler.ScanProduct)
		api.GET("/categories", productHandler.GetCategories)
		api.POST("/checkout", saleHandler.ProcessSale)
		api.GET("/customers", customerHandler.GetCustomers)
		api.GET("/customers/:id", customerHandler.GetCustomer)
		api.POST("/customers", customerHandler.AddCustomer)
		api.GET("/dashboard", reportHandler.GetDashboardStats)

		// MANAGER AND UP
		manage := api.Group("/")
		manage.Use(middleware.RequireRole("manager"))
		{
			manage.POST("/upload", productHandler.UploadImage)
			manage.POST("/products", productHandler.AddProduct)
			manage.PUT("/products/:id", productHandler.UpdateProduct)
			manage.POST("/products/:id/restock", productHandler.RestockProduct)
			manage.DELETE("/products/:id", productHandler.DeleteProduct)
			manage.POST("/categories", productHandler.AddCategory)
			manage.DELETE("/categories/:id", productHandler.DeleteCategory)
			manage.GET("/reports", reportHandler.GetSalesReport)
			manage.GET("/reports/range", reportHandler.GetRangedReport)
			manage.GET("/reports/valuation", reportHandler.GetStockValuation)
		}

		// ADMIN ONLY
		admin := api.Group("/")
		admin.Use(middleware.RequireRole("admin"))
		{
			admin.POST("/backups", backupHandler.CreateBackup)
			admin.GET("/backups", backupHandler.ListBackups)
			admin.POST("/backups/restore", backupHandler.RestoreBackup)
			admin.POST("/backups/cleanup", backupHandler.CleanupRetention)
			admin.GET("/backups/config", backupHandler.GetConfig)
			admin.PUT("/backups/config", backupHandler.UpdateConfig)
		}
	}

	log.Info().Str("url", cfg.BaseURL).Msg("server starting")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server failed to start")
	}
}
