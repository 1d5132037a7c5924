package main

import (
	"context"
	"os"

	_ "microfin/api/swagger" // swagger docs
	"microfin/internal/database"
	"microfin/internal/handler"
	"microfin/internal/middleware"
	"microfin/internal/repository"
	"microfin/internal/service"
	"microfin/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Microfin Loan Engine API
// @version         1.0
// @description     Loan accounting and approval engine: savings/adashe ledger, staged disbursement and withdrawal approvals, repayment schedules and delinquency tiers.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	if err := godotenv.Load("configs/.env"); err != nil {
		logger.Warn("No configs/.env file found or error loading it")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "microfin"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		logger.Fatalf("Database connection failed: %v", err)
	}
	logger.Info("Connected to PostgreSQL successfully.")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(logger)
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	loanRepo := repository.NewLoanRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	withdrawalRepo := repository.NewWithdrawalRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	borrowerRepo := repository.NewBorrowerRepository(db)
	locks := service.NewLoanLocker()

	ledgerService := service.NewLedgerService(loanRepo, paymentRepo, activityRepo, txManager, locks, wsHub)
	approvalService := service.NewApprovalService(loanRepo, withdrawalRepo, paymentRepo, activityRepo, txManager, locks, wsHub)
	loanService := service.NewLoanService(loanRepo, borrowerRepo, paymentRepo, withdrawalRepo, activityRepo, txManager, locks, logger)
	borrowerService := service.NewBorrowerService(borrowerRepo, activityRepo, txManager)
	activityService := service.NewActivityService(activityRepo)
	reportService := service.NewReportService(db, paymentRepo)

	// Initialize Handlers
	loanHandler := handler.NewLoanHandler(loanService)
	ledgerHandler := handler.NewLedgerHandler(ledgerService)
	approvalHandler := handler.NewApprovalHandler(approvalService)
	borrowerHandler := handler.NewBorrowerHandler(borrowerService)
	activityHandler := handler.NewActivityHandler(activityService)
	reportHandler := handler.NewReportHandler(reportService)

	// Nightly delinquency sweep recomputes DPD and risk tiers
	scheduler := cron.New()
	if _, err := scheduler.AddFunc("0 1 * * *", func() {
		if err := loanService.RefreshDelinquency(context.Background()); err != nil {
			logger.WithError(err).Error("Delinquency sweep failed")
		}
	}); err != nil {
		logger.Fatalf("Failed to schedule delinquency sweep: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	loanHandler.RegisterRoutes(router.Group(""))
	ledgerHandler.RegisterRoutes(router.Group(""))
	approvalHandler.RegisterRoutes(router.Group(""))
	borrowerHandler.RegisterRoutes(router.Group(""))
	activityHandler.RegisterRoutes(router.Group(""))
	reportHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Infof("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		logger.Fatalf("Server failed: %v", err)
	}
}
