package http

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	fiberSwagger "github.com/swaggo/fiber-swagger"
	"go.uber.org/zap"

	"github.com/voxel-density-service/internal/config"
	"github.com/voxel-density-service/internal/delivery/http/handler"
	"github.com/voxel-density-service/internal/delivery/http/middleware"
	"github.com/voxel-density-service/internal/pkg/errors"
)

// HealthChecker - зависимость, состояние которой отдается в /health
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Server - HTTP сервер на основе Fiber
type Server struct {
	app    *fiber.App
	config *config.Config
	logger *zap.Logger
	checks map[string]HealthChecker

	// Handlers
	voxelHandler *handler.VoxelHandler
	statsHandler *handler.StatsHandler
	jobHandler   *handler.JobHandler
}

// NewServer - создание нового HTTP сервера
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	checks map[string]HealthChecker,
	voxelHandler *handler.VoxelHandler,
	statsHandler *handler.StatsHandler,
	jobHandler *handler.JobHandler,
) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "Voxel Density Service",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
		BodyLimit:    64 * 1024 * 1024,
		ErrorHandler: customErrorHandler(logger),
	})

	s := &Server{
		app:          app,
		config:       cfg,
		logger:       logger,
		checks:       checks,
		voxelHandler: voxelHandler,
		statsHandler: statsHandler,
		jobHandler:   jobHandler,
	}

	s.setupMiddlewares()
	s.setupRoutes()

	return s
}

// App - доступ к fiber.App (для тестов)
func (s *Server) App() *fiber.App {
	return s.app
}

// setupMiddlewares - настройка middleware
func (s *Server) setupMiddlewares() {
	s.app.Use(middleware.Recovery(s.logger))
	s.app.Use(middleware.Logger(s.logger))
	s.app.Use(middleware.CORS(s.config.Server.CORSOrigins))
	s.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
}

// setupRoutes - настройка маршрутов
func (s *Server) setupRoutes() {
	// Swagger documentation route
	s.app.Get("/swagger/*", fiberSwagger.WrapHandler)

	api := s.app.Group("/api/v1")

	// Health check
	api.Get("/health", s.health)

	// Voxel routes
	api.Post("/voxels", s.voxelHandler.Voxelize)
	api.Post("/voxels/estimate", s.voxelHandler.Estimate)

	// Dataset routes
	api.Get("/datasets", s.statsHandler.ListDatasets)
	api.Get("/datasets/:dataset/voxels", s.voxelHandler.GetDatasetVoxels)
	api.Get("/datasets/:dataset/stats", s.statsHandler.GetDatasetStatistics)

	// Async jobs
	api.Post("/jobs", s.jobHandler.Submit)
	api.Get("/jobs/:id", s.jobHandler.GetResult)
}

func (s *Server) health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := "healthy"
	deps := fiber.Map{}
	for name, check := range s.checks {
		if err := check.Health(ctx); err != nil {
			s.logger.Warn("Health check failed", zap.String("dependency", name), zap.Error(err))
			deps[name] = "unhealthy"
			status = "degraded"
			continue
		}
		deps[name] = "healthy"
	}

	code := fiber.StatusOK
	if status != "healthy" {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"status":       status,
		"dependencies": deps,
		"time":         time.Now(),
	})
}

// Start - запуск HTTP сервера
func (s *Server) Start() error {
	addr := s.config.GetServerAddr()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))
	return s.app.Listen(addr)
}

// Shutdown - graceful shutdown HTTP сервера
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.app.ShutdownWithContext(ctx)
}

// customErrorHandler - кастомный обработчик ошибок
func customErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		appErr := errors.ErrInternalServer

		var fe *fiber.Error
		var ae *errors.AppError
		switch {
		case stderrors.As(err, &ae):
			code = ae.StatusCode
			appErr = ae
		case stderrors.As(err, &fe):
			code = fe.Code
			appErr = errors.New("HTTP_ERROR", fe.Message, fe.Code)
		}

		logger.Error("HTTP Error",
			zap.String("path", c.Path()),
			zap.Int("status", code),
			zap.Error(err),
		)

		return c.Status(code).JSON(fiber.Map{"error": appErr})
	}
}
