package main

import (
	"context"
	"os"

	_ "toolcrib/api/swagger" // swagger docs
	"toolcrib/internal/database"
	"toolcrib/internal/handler"
	"toolcrib/internal/metrics"
	"toolcrib/internal/middleware"
	"toolcrib/internal/repository"
	"toolcrib/internal/service"
	"toolcrib/internal/session"
	"toolcrib/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// @title           Tool Crib API
// @version         1.0
// @description     Shop floor tool, kit and chemical inventory with a procurement workflow.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := godotenv.Load("configs/.env"); err != nil {
		log.Info("No configs/.env file found, relying on environment")
	}

	dsn := "postgres://" + envOr("DB_USER", "postgres") +
		":" + envOr("DB_PASSWORD", "postgres") +
		"@" + envOr("DB_HOST", "localhost") +
		":" + envOr("DB_PORT", "5432") +
		"/" + envOr("DB_NAME", "toolcrib") +
		"?sslmode=" + envOr("DB_SSLMODE", "disable")

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.WithError(err).Fatal("Database connection failed")
	}
	log.Info("Connected to PostgreSQL")

	// Sessions live in Redis so expiry survives restarts and scales out.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     envOr("REDIS_ADDR", "localhost:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.WithError(err).Fatal("Redis connection failed")
	}
	sessions := session.NewRedisStore(redisClient)

	// WebSocket hub for live inventory/order events
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Permission middleware needs the DB handle for role lookups
	middleware.InitPermissionMiddleware(db)

	// Repositories
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	deptRepo := repository.NewDepartmentRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	tokenRepo := repository.NewRefreshTokenRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	toolRepo := repository.NewToolRepository(db)
	checkoutRepo := repository.NewCheckoutRepository(db)
	calibRepo := repository.NewCalibrationRepository(db)
	kitRepo := repository.NewKitRepository(db)
	chemicalRepo := repository.NewChemicalRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	// Services
	authService := service.NewAuthService(userRepo, tokenRepo, roleRepo, settingRepo, sessions)
	userService := service.NewUserService(userRepo, roleRepo, auditRepo, txManager)
	deptService := service.NewDepartmentService(deptRepo, auditRepo, txManager)
	roleService := service.NewRoleService(db)
	toolService := service.NewToolService(toolRepo, checkoutRepo, calibRepo, auditRepo, txManager, wsHub)
	kitService := service.NewKitService(kitRepo, auditRepo, txManager, wsHub)
	chemicalService := service.NewChemicalService(chemicalRepo, auditRepo, txManager, wsHub)
	orderService := service.NewOrderService(orderRepo, userRepo, auditRepo, txManager, wsHub)
	auditService := service.NewAuditService(auditRepo)
	dashService := service.NewDashboardService(toolRepo, checkoutRepo, kitRepo, chemicalRepo, orderRepo)

	if err := roleService.SeedDefaultRolesAndPermissions(context.Background()); err != nil {
		log.WithError(err).Fatal("Failed to seed roles and permissions")
	}

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	deptHandler := handler.NewDepartmentHandler(deptService)
	roleHandler := handler.NewRoleHandler(roleService)
	toolHandler := handler.NewToolHandler(toolService)
	kitHandler := handler.NewKitHandler(kitService)
	chemicalHandler := handler.NewChemicalHandler(chemicalService)
	orderHandler := handler.NewOrderHandler(orderService)
	auditHandler := handler.NewAuditHandler(auditService)
	dashHandler := handler.NewDashboardHandler(dashService)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(log))
	router.Use(metrics.Instrument())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{
		envOr("FRONTEND_ORIGIN", "http://localhost:5173"),
		"http://127.0.0.1:5173",
	}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check and Prometheus metrics
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})
	router.GET("/metrics", metrics.Handler())

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Stored uploads (order documents, calibration certificates)
	router.GET("/files/*path", middleware.RequireAuth(), handler.DownloadFile)

	// Register API Routes
	api := router.Group("")
	authHandler.RegisterRoutes(api)
	userHandler.RegisterRoutes(api)
	deptHandler.RegisterRoutes(api)
	roleHandler.RegisterRoutes(api)
	toolHandler.RegisterRoutes(api)
	kitHandler.RegisterRoutes(api)
	chemicalHandler.RegisterRoutes(api)
	orderHandler.RegisterRoutes(api)
	auditHandler.RegisterRoutes(api)
	dashHandler.RegisterRoutes(api)

	port := envOr("PORT", "8080")
	log.WithField("port", port).Info("Server listening")
	if err := router.Run(":" + port); err != nil {
		log.WithError(err).Fatal("Server failed")
	}
}
