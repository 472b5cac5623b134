package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/eventreg-api/internal/config"
	"github.com/yourusername/eventreg-api/internal/handler"
	"github.com/yourusername/eventreg-api/internal/middleware"
	pgRepo "github.com/yourusername/eventreg-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/eventreg-api/internal/repository/redis"
	"github.com/yourusername/eventreg-api/internal/service"
	"github.com/yourusername/eventreg-api/pkg/auth"
	"github.com/yourusername/eventreg-api/pkg/database"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Loading configuration from %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Repositories
	regRepo := pgRepo.NewRegistrationRepo(db)
	eventRepo := pgRepo.NewEventRepo(db)
	adminRepo := pgRepo.NewAdminRepo(db)

	otpRepo, err := redisRepo.NewOTPRepo(redisClient, cfg.OTP.OTPExpiry(), cfg.OTP.LockoutWindow())
	if err != nil {
		log.Printf("Failed to initialize OTPRepo: %v", err)
		os.Exit(1)
	}
	locker, err := redisRepo.NewLocker(redisClient, time.Duration(cfg.OTP.LockWaitSeconds)*time.Second)
	if err != nil {
		log.Printf("Failed to initialize Locker: %v", err)
		os.Exit(1)
	}

	// Email sender
	var emailService service.EmailService
	if cfg.Email.Provider == "resend" {
		emailService, err = service.NewResendEmailService(cfg.Email.ResendAPIKey, cfg.Email.From)
		if err != nil {
			log.Printf("Failed to initialize ResendEmailService: %v", err)
			os.Exit(1)
		}
	} else {
		log.Println("Email provider is 'noop': outbound email will only be logged")
		emailService = &service.NoopEmailService{}
	}

	tokenService, err := auth.NewTokenService(cfg.Admin.TokenSecret, time.Duration(cfg.Admin.TokenTTLMinutes)*time.Minute)
	if err != nil {
		log.Printf("Failed to initialize TokenService: %v", err)
		os.Exit(1)
	}

	// Services
	registrationService, err := service.NewRegistrationService(regRepo, emailService)
	if err != nil {
		log.Printf("Failed to initialize RegistrationService: %v", err)
		os.Exit(1)
	}
	otpService, err := service.NewOTPService(
		adminRepo, otpRepo, locker, emailService, tokenService,
		cfg.OTP.CodeLength, cfg.OTP.OTPExpiry(), cfg.OTP.MaxFailures, cfg.OTP.LockoutWindow(), cfg.OTP.Pepper,
	)
	if err != nil {
		log.Printf("Failed to initialize OTPService: %v", err)
		os.Exit(1)
	}
	eventService, err := service.NewEventService(eventRepo, regRepo, cfg.Event.DefaultSlots)
	if err != nil {
		log.Printf("Failed to initialize EventService: %v", err)
		os.Exit(1)
	}

	actionHandler := handler.NewActionHandler(registrationService, otpService, eventService, tokenService)
	authMiddleware := middleware.NewAuthMiddleware(tokenService)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	isProduction := gin.Mode() == gin.ReleaseMode

	router := gin.New()
	router.Use(gin.Logger())
	// A panic anywhere in a handler becomes a generic error envelope;
	// internals never reach the client.
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Printf("[Recovery] panic: %v", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, handler.Envelope{
			Status:    "error",
			Success:   false,
			Message:   "something went wrong, please try again",
			Data:      gin.H{},
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}))
	router.Use(middleware.RequestID())

	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"https://events.vishnu.edu.in", "http://localhost:5173", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := router.Group("/api")
	{
		api.GET("/health", actionHandler.Health)
		api.POST("/actions",
			rateLimiter.LimitActions(
				middleware.DefaultActionRateLimitConfig(),
				middleware.OTPRateLimitConfig(),
			),
			actionHandler.HandleAction,
		)

		adminRoutes := api.Group("/registrations")
		adminRoutes.Use(authMiddleware.RequireAdmin())
		{
			adminRoutes.GET("/export", actionHandler.ExportRegistrations)
		}
	}

	router.GET("/ws/slots", actionHandler.SlotsFeed)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	if err := redisClient.Close(); err != nil {
		log.Printf("Error closing Redis client: %v", err)
	}

	log.Println("Server exited properly")
}
