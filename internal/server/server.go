package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"todo/internal/config"
	"todo/internal/database"
	"todo/internal/handler"
	"todo/internal/middleware"
	"todo/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	Engine  *gin.Engine
	Handler http.Handler
	Config  *config.Config
	Logger  *log.Logger

	closeStore func(context.Context) error
}

// NewLogger builds the process logger: text output while developing, JSON otherwise.
func NewLogger(cfg *config.Config) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	logger := log.New()
	logger.SetLevel(level)
	if cfg.Development() {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&log.JSONFormatter{})
	}
	return logger, nil
}

func Init(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Server, error) {
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	engine := NewRouter(handler.NewTodoHandler(store), cfg.Development(), logger)
	return &Server{
		Engine:     engine,
		Handler:    WithCORS(engine, cfg.CORSOrigins),
		Config:     cfg,
		Logger:     logger,
		closeStore: closeStore,
	}, nil
}

// NewRouter wires the todo API routes.
func NewRouter(h *handler.TodoHandler, development bool, logger *log.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(logger), middleware.ErrorHandler(development, logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	todos := r.Group("/api/todos")
	{
		todos.GET("", h.List)
		todos.POST("", h.Create)
		// /reorder must stay registered next to /:id, gin prefers the static segment.
		todos.PUT("/reorder", h.Reorder)
		todos.GET("/:id", h.GetByID)
		todos.PUT("/:id", h.Update)
		todos.DELETE("/:id", h.Delete)
	}
	return r
}

// WithCORS lets the browser page, served from another port, call the API.
func WithCORS(h http.Handler, origins []string) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(h)
}

func openStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (handler.TodoStore, func(context.Context) error, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		if err := database.Migrate(cfg.MigrationURL()); err != nil {
			return nil, nil, err
		}
		db, err := database.OpenPostgres(cfg.PostgresDSN(), logger)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		logger.WithField("host", cfg.DBHost).Info("Connected to PostgreSQL")
		return repository.NewTodoRepository(db), func(context.Context) error { return sqlDB.Close() }, nil

	case config.DriverMongo:
		client, coll, err := database.OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewMongoTodoRepository(coll)
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, err
		}
		logger.WithField("database", cfg.MongoDatabase).Info("Connected to MongoDB")
		return repo, client.Disconnect, nil
	}
	return nil, nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
}

func (s *Server) Run() {
	Serve(":"+s.Config.ServerPort, s.Handler, s.Logger)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.closeStore(ctx); err != nil {
		s.Logger.WithError(err).Warn("Failed to close database connection")
	}
}

// Serve runs h on addr until SIGINT or SIGTERM, then shuts down gracefully.
func Serve(addr string, h http.Handler, logger *log.Logger) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("addr", addr).Info("Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Failed to listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited properly")
}
