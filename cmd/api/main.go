package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/nishiko/matsuri-backend/internal/config"
	"github.com/nishiko/matsuri-backend/internal/domain"
	"github.com/nishiko/matsuri-backend/internal/handler"
	"github.com/nishiko/matsuri-backend/internal/middleware"
	"github.com/nishiko/matsuri-backend/internal/repository/postgres"
	"github.com/nishiko/matsuri-backend/internal/repository/storage"
	"github.com/nishiko/matsuri-backend/internal/service"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Connect to database
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	// Verify database connection
	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	// Initialize repositories
	eventRepo := postgres.NewEventRepository(pool)
	walletRepo := postgres.NewWalletRepository(pool)
	partRepo := postgres.NewPartRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	purchaseRepo := postgres.NewPurchaseRepository(pool)
	studentRepo := postgres.NewStudentRepository(pool)
	teacherRepo := postgres.NewTeacherRepository(pool)

	// Receipt storage is optional: without S3 credentials the API runs with
	// receipt endpoints disabled.
	var receiptStorage storage.ReceiptRepository
	if cfg.S3.AccessKeyID != "" {
		s3Repo, err := storage.NewS3ReceiptRepository(context.Background(), cfg.S3)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize receipt storage")
		}
		receiptStorage = s3Repo
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("Receipt storage enabled")
	} else {
		log.Warn().Msg("S3 credentials not set, receipt uploads disabled")
	}

	// Initialize services
	eventService := service.NewEventService(eventRepo)
	walletService := service.NewWalletService(walletRepo, eventRepo, teacherRepo, studentRepo)
	partService := service.NewPartService(partRepo, walletRepo, studentRepo)
	productService := service.NewProductService(productRepo)
	purchaseService := service.NewPurchaseService(purchaseRepo, partRepo, productRepo)
	approvalService := service.NewApprovalService(purchaseRepo, partRepo, walletRepo)
	budgetService := service.NewBudgetService(partRepo, walletRepo)
	receiptService := service.NewReceiptService(receiptStorage, purchaseRepo, partRepo)

	// Create actor provider adapter for auth middleware
	actorProvider := &actorProviderAdapter{
		students:     studentRepo,
		teachers:     teacherRepo,
		adminAuthIDs: cfg.AdminAuthIDs,
	}

	// Initialize auth middleware
	authMiddleware, err := middleware.NewAuthMiddleware(cfg.Auth0Domain, cfg.Auth0Audience, actorProvider)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create auth middleware")
	}
	rateLimiter := middleware.NewRateLimiter()

	// Initialize handlers
	eventHandler := handler.NewEventHandler(eventService, walletService)
	walletHandler := handler.NewWalletHandler(walletService, partService)
	partHandler := handler.NewPartHandler(partService)
	purchaseHandler := handler.NewPurchaseHandler(purchaseService, approvalService)
	budgetHandler := handler.NewBudgetHandler(budgetService)
	productHandler := handler.NewProductHandler(productService)
	receiptHandler := handler.NewReceiptHandler(receiptService)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Register API routes
	handler.RegisterRoutes(e, authMiddleware, rateLimiter, eventHandler, walletHandler, partHandler, purchaseHandler, budgetHandler, productHandler, receiptHandler)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// actorProviderAdapter resolves JWT subjects to actors: configured admin
// subjects first, then registered students, then teachers.
type actorProviderAdapter struct {
	students     domain.StudentRepository
	teachers     domain.TeacherRepository
	adminAuthIDs []string
}

// GetActorByAuthID implements middleware.ActorProvider
func (a *actorProviderAdapter) GetActorByAuthID(authID string) (*domain.Actor, error) {
	for _, adminID := range a.adminAuthIDs {
		if authID == adminID {
			return &domain.Actor{Kind: domain.ActorAdmin, Name: "admin"}, nil
		}
	}

	student, err := a.students.GetByAuthID(authID)
	if err == nil {
		return &domain.Actor{ID: student.ID, Kind: domain.ActorStudent, Name: student.Name, Email: student.Email}, nil
	}
	if !errors.Is(err, domain.ErrStudentNotFound) {
		return nil, err
	}

	teacher, err := a.teachers.GetByAuthID(authID)
	if err != nil {
		return nil, err
	}
	return &domain.Actor{ID: teacher.ID, Kind: domain.ActorTeacher, Name: teacher.Name, Email: teacher.Email}, nil
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			log.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
