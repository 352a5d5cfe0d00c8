package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"oyakatsu/internal/config"
	"oyakatsu/internal/database"
	"oyakatsu/internal/handlers"
	"oyakatsu/internal/models"
	"oyakatsu/internal/notify"
	"oyakatsu/internal/repository"
	"oyakatsu/internal/security"
	"oyakatsu/internal/service"
	"oyakatsu/internal/token"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env if present; real deployments set the environment directly
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Token manager
	tokenManager, err := token.NewManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	if err != nil {
		log.Fatalf("Failed to initialize token manager: %v", err)
	}

	// Code delivery (SES for email targets, log fallback otherwise)
	sender, err := notify.NewEmailSender(context.Background(), cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName)
	if err != nil {
		log.Fatalf("Failed to initialize email sender: %v", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	verificationRepo := repository.NewVerificationRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	familyRepo := repository.NewFamilyRepository(db)
	deviceRepo := repository.NewDeviceRepository(db)

	// Initialize services
	verificationService := service.NewVerificationService(verificationRepo, sender)
	tokenService := service.NewTokenService(tokenManager, tokenRepo)
	authService := service.NewAuthService(userRepo, verificationService, tokenService)
	familyService := service.NewFamilyService(familyRepo, cfg.InviteBaseURL)
	userService := service.NewUserService(userRepo, deviceRepo)

	// Initialize handlers
	rateLimiter := security.NewRateLimiter(10, time.Minute)
	middleware := handlers.NewMiddleware(authService, rateLimiter)
	authHandler := handlers.NewAuthHandler(authService, verificationService)
	userHandler := handlers.NewUserHandler(userService)
	familyHandler := handlers.NewFamilyHandler(familyService)

	// Setup routes
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handlers.Health)

	// Auth routes
	mux.HandleFunc("POST /v1/auth/send-code", middleware.RateLimit(authHandler.SendCode))
	mux.HandleFunc("POST /v1/auth/verify-code", authHandler.VerifyCode)
	mux.HandleFunc("POST /v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /v1/auth/login", middleware.RateLimit(authHandler.Login))
	mux.HandleFunc("POST /v1/auth/refresh", authHandler.Refresh)
	mux.HandleFunc("POST /v1/auth/logout", middleware.Authenticate(authHandler.Logout))

	// User routes
	mux.HandleFunc("GET /v1/users/me", middleware.Authenticate(userHandler.Me))
	mux.HandleFunc("PATCH /v1/users/me", middleware.Authenticate(userHandler.UpdateProfile))
	mux.HandleFunc("POST /v1/users/me/role", middleware.Authenticate(userHandler.SetRole))
	mux.HandleFunc("POST /v1/users/me/device-token", middleware.Authenticate(userHandler.RegisterDevice))
	mux.HandleFunc("POST /v1/users/me/avatar", middleware.Authenticate(userHandler.UploadAvatar))

	// Family routes
	mux.HandleFunc("POST /v1/families", middleware.Authenticate(middleware.RequireRole(models.RoleParent, familyHandler.Create)))
	mux.HandleFunc("GET /v1/families", middleware.Authenticate(familyHandler.List))
	mux.HandleFunc("GET /v1/families/{id}", middleware.Authenticate(familyHandler.Get))
	mux.HandleFunc("GET /v1/families/{id}/members", middleware.Authenticate(familyHandler.Members))
	mux.HandleFunc("GET /v1/families/{id}/invite-code", middleware.Authenticate(familyHandler.GetInviteCode))
	mux.HandleFunc("POST /v1/families/{id}/invite-code", middleware.Authenticate(familyHandler.RegenerateInviteCode))
	mux.HandleFunc("POST /v1/families/join", middleware.Authenticate(middleware.RequireRole(models.RoleChild, familyHandler.Join)))
	mux.HandleFunc("POST /v1/families/{id}/leave", middleware.Authenticate(familyHandler.Leave))

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background cleanup of expired codes and tokens
	go cleanupExpired(verificationService, tokenService)

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
}

// cleanupExpired periodically prunes expired verification codes and refresh
// tokens. Expiry is enforced at read time; this only keeps tables small.
func cleanupExpired(verificationService *service.VerificationService, tokenService *service.TokenService) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		if err := verificationService.CleanupExpired(); err != nil {
			log.Printf("Error cleaning up expired codes: %v", err)
		} else {
			log.Println("Expired verification codes cleaned up")
		}

		if err := tokenService.CleanupExpired(); err != nil {
			log.Printf("Error cleaning up expired tokens: %v", err)
		} else {
			log.Println("Expired refresh tokens cleaned up")
		}
	}
}
