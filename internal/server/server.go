// Package server hosts the admissions portal API.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/admitd-dev/admitd/internal/catalog"
	"github.com/admitd-dev/admitd/internal/config"
	"github.com/admitd-dev/admitd/internal/identity"
	"github.com/admitd-dev/admitd/internal/models"
	"github.com/admitd-dev/admitd/internal/session"
	"github.com/admitd-dev/admitd/internal/tasks"
)

// Server represents the HTTP server
type Server struct {
	router      *gin.Engine
	db          *gorm.DB
	config      *config.Config
	logger      zerolog.Logger
	identity    *identity.Service // nil when the provider is not configured
	profiles    session.ProfileStore
	asynqClient *asynq.Client
	version     string
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger, version string) (*Server, error) {
	db, err := initDatabase(cfg, zlog)
	if err != nil {
		return nil, err
	}

	// Run database migrations
	if err := models.AutoMigrate(db); err != nil {
		return nil, err
	}

	// Initialize the identity provider. Without credentials all auth
	// operations report a configuration error instead of failing hard.
	var identityService *identity.Service
	if cfg.Identity.Configured() {
		identityService, err = identity.NewService(db, cfg.Identity.AnonKey, zlog)
		if err != nil {
			return nil, err
		}
	} else {
		zlog.Warn().Msg("AUTH_URL / AUTH_ANON_KEY not set - auth operations disabled")
	}

	// Register custom validators on gin's binding engine
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
			_, err := models.ParseRole(fl.Field().String())
			return err == nil
		})
	}

	// Seed the course catalog
	if cfg.CourseCatalog != "" {
		file, err := catalog.Load(cfg.CourseCatalog)
		if err != nil {
			return nil, err
		}
		if err := catalog.Sync(db, file, zlog); err != nil {
			return nil, err
		}
	}

	// Initialize Asynq client for enqueueing tasks
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr: cfg.Redis.Address,
	})

	server := &Server{
		db:          db,
		config:      cfg,
		logger:      zlog,
		identity:    identityService,
		profiles:    session.GormProfiles{DB: db},
		asynqClient: asynqClient,
		version:     version,
	}

	server.setupRouter()

	return server, nil
}

// initDatabase opens the configured database. A postgres:// URL selects the
// hosted driver, anything else is treated as a local sqlite path.
func initDatabase(cfg *config.Config, zlog zerolog.Logger) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				LogLevel:                  logger.Error,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             200 * time.Millisecond,
			},
		),
	}

	var (
		db  *gorm.DB
		err error
	)
	if strings.HasPrefix(cfg.Database.URL, "postgres://") || strings.HasPrefix(cfg.Database.URL, "postgresql://") {
		db, err = gorm.Open(postgres.Open(cfg.Database.URL), gormConfig)
	} else {
		db, err = gorm.Open(sqlite.Open(cfg.Database.URL), gormConfig)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(8)
	sqlDB.SetMaxIdleConns(4)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if db.Dialector.Name() == "sqlite" {
		// WAL mode must be set first for optimal concurrency
		pragmas := []string{
			"PRAGMA journal_mode=WAL",
			"PRAGMA synchronous=NORMAL",
			"PRAGMA busy_timeout=5000",
			"PRAGMA foreign_keys=1",
		}
		for _, pragma := range pragmas {
			if err := db.Exec(pragma).Error; err != nil {
				zlog.Warn().Str("pragma", pragma).Err(err).Msg("Failed to apply pragma")
			}
		}
	}

	return db, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	// CORS middleware
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{s.config.Server.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint (no auth required)
	s.router.GET("/health", s.healthCheck)

	// Public endpoints
	s.router.POST("/api/auth/register", s.register)
	s.router.POST("/api/auth/login", s.login)
	s.router.GET("/api/courses", s.listCourses)
	s.router.POST("/api/enquiries", s.optionalAuthMiddleware(), s.createEnquiry)

	// Authenticated API routes
	api := s.router.Group("/api")
	api.Use(s.authMiddleware())
	{
		api.POST("/auth/logout", s.logout)
		api.GET("/auth/me", s.getCurrentUser)

		api.GET("/profile", s.getProfile)
		api.PATCH("/profile", s.updateProfile)

		api.GET("/enquiries", s.listEnquiries)
		api.GET("/enquiries/:id", s.getEnquiry)

		staff := []models.Role{models.RoleCounselor, models.RoleAdmin}
		api.PATCH("/enquiries/:id/status", s.requireRoles(staff...), s.updateEnquiryStatus)
		api.POST("/enquiries/:id/responses", s.requireRoles(staff...), s.createEnquiryResponse)

		api.POST("/enrollments", s.requireRoles(models.RoleStudent), s.createEnrollment)
		api.GET("/enrollments", s.listEnrollments)
		api.GET("/enrollments/:id", s.getEnrollment)
		api.PATCH("/enrollments/:id/status", s.requireRoles(staff...), s.updateEnrollmentStatus)

		api.POST("/payments", s.requireRoles(models.RoleStudent), s.createPayment)
		api.GET("/payments", s.listPayments)
		api.PATCH("/payments/:id/status", s.requireRoles(models.RoleAdmin), s.updatePaymentStatus)

		api.POST("/courses", s.requireRoles(models.RoleAdmin), s.createCourse)
		api.PUT("/courses/:id", s.requireRoles(models.RoleAdmin), s.updateCourse)
		api.DELETE("/courses/:id", s.requireRoles(models.RoleAdmin), s.deleteCourse)

		api.GET("/notifications", s.listNotifications)
		api.PATCH("/notifications/:id/read", s.markNotificationRead)

		api.POST("/followups", s.requireRoles(models.RoleCounselor), s.createFollowUp)
		api.GET("/followups", s.requireRoles(models.RoleCounselor), s.listFollowUps)
		api.PATCH("/followups/:id/done", s.requireRoles(models.RoleCounselor), s.markFollowUpDone)

		api.GET("/stats", s.requireRoles(staff...), s.getStats)

		// User management (admin only)
		userRoutes := api.Group("/users")
		userRoutes.Use(s.requireRoles(models.RoleAdmin))
		{
			userRoutes.GET("", s.listUsers)
			userRoutes.POST("", s.createUser)
			userRoutes.DELETE("/:id", s.deleteUser)
		}
	}

	// Role dashboards. The generic path redirects once to the role's own path.
	dashboards := s.router.Group("")
	dashboards.Use(s.authMiddleware())
	{
		dashboards.GET("/dashboard", s.genericDashboard)
		dashboards.GET("/counselor/dashboard", s.requireRoles(models.RoleCounselor), s.counselorDashboard)
		dashboards.GET("/admin/dashboard", s.requireRoles(models.RoleAdmin), s.adminDashboard)
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "admitd-api",
	})
}

// Router exposes the configured router for tests
func (s *Server) Router() *gin.Engine {
	return s.router
}

// GetDB returns the database connection for use by workers
func (s *Server) GetDB() *gorm.DB {
	return s.db
}

// enqueueNotification hands a notification to the worker. Delivery failures
// are logged, never surfaced to the request that triggered them.
func (s *Server) enqueueNotification(userID, title, message string) {
	if userID == "" {
		return
	}
	task, err := tasks.NewNotificationDeliverTask(userID, title, message)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to build notification task")
		return
	}
	if _, err := s.asynqClient.Enqueue(task, asynq.Queue("default")); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to enqueue notification")
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := ":" + s.config.Server.Port

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		ReadHeaderTimeout: 30 * time.Second,
		IdleTimeout:       300 * time.Second,
	}

	go func() {
		s.logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	<-sigChan
	s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")

	if err := s.asynqClient.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("Error closing Asynq client")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Error closing database")
		}
	}

	s.logger.Info().Msg("Server shutdown complete")
	return nil
}
