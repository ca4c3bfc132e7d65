// Package server initializes and runs the application server.
// It configures storage, the media uploader and the HTTP router,
// and handles graceful shutdown on OS signals.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iudanet/gophergram/internal/media"
	"github.com/iudanet/gophergram/internal/server/config"
	"github.com/iudanet/gophergram/internal/server/handlers"
	"github.com/iudanet/gophergram/internal/server/middleware"
	"github.com/iudanet/gophergram/internal/server/storage/sqlite"
)

const shutdownTimeout = 5 * time.Second

// App связывает конфигурацию, хранилище и HTTP сервер
type App struct {
	config  *config.Config
	logger  *slog.Logger
	storage *sqlite.Storage
	version string
}

// NewApp создает приложение: открывает базу и применяет миграции
func NewApp(ctx context.Context, cfg *config.Config, version string) (*App, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	store, err := sqlite.New(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	return &App{
		config:  cfg,
		logger:  logger,
		storage: store,
		version: version,
	}, nil
}

// Router собирает маршруты приложения.
// Маршруты постов (кроме чтения) требуют bearer token;
// маршруты пользователей исторически открыты
func (app *App) Router(uploader media.Uploader) chi.Router {
	userHandler := handlers.NewUserHandler(app.logger, app.storage)
	postHandler := handlers.NewPostHandler(app.logger, app.storage, app.storage, uploader)
	healthHandler := handlers.NewHealthHandler(app.logger, app.storage, app.version)

	notFound := handlers.NotFound(app.logger)

	r := chi.NewRouter()
	r.Use(middleware.RecoveryMiddleware(app.logger))
	r.Use(middleware.LoggingWithSkip(app.logger, []string{"/health"}))

	r.Get("/health", healthHandler.Health)

	r.Post("/user/signup", userHandler.Signup)
	r.Post("/user/login", userHandler.Login)
	r.Get("/api/user", userHandler.List)
	r.Get("/api/user/{id}", userHandler.GetByID)
	r.Put("/api/user/{id}", userHandler.Update)
	r.Delete("/api/user/{id}", userHandler.Delete)
	r.Patch("/user/follow/{id}", userHandler.Follow)
	r.Patch("/user/unfollow/{id}", userHandler.Unfollow)

	r.Get("/post/{id}", postHandler.GetByID)

	// Защищенные маршруты постов
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(app.logger, app.storage))
		r.Post("/post/publish", postHandler.Publish)
		r.Put("/api/post/{id}", postHandler.Update)
		r.Delete("/api/delete-post/{id}", postHandler.Delete)
		r.Patch("/post/like/{id}", postHandler.Like)
		r.Patch("/post/unlike/{id}", postHandler.Unlike)
		r.Patch("/post/comment/{id}", postHandler.Comment)
		r.Patch("/post/edit-comment/{id}", postHandler.EditComment)
		r.Patch("/post/delete-comment/{id}", postHandler.DeleteComment)
	})

	// Любой несовпавший маршрут или метод - фиксированный 404
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	return r
}

// Run запускает HTTP сервер и блокируется до SIGINT/SIGTERM/SIGQUIT
// или ошибки сервера, после чего выполняет graceful shutdown
func (app *App) Run(ctx context.Context) error {
	defer func() {
		if err := app.storage.Close(); err != nil {
			app.logger.Error("failed to close storage", slog.Any("error", err))
		}
	}()

	uploader, err := media.NewS3Uploader(ctx, media.S3Config{
		RootUser:     app.config.S3RootUser,
		RootPassword: app.config.S3RootPassword,
		Bucket:       app.config.S3Bucket,
		Region:       app.config.S3Region,
		BaseEndpoint: app.config.S3BaseEndpoint,
	})
	if err != nil {
		return fmt.Errorf("uploader init error: %w", err)
	}

	srv := &http.Server{
		Addr:    app.config.Addr,
		Handler: app.Router(uploader),
	}

	// Канал для перехвата сигналов ОС
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info("server starting", slog.String("addr", app.config.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case sig := <-sigs:
		app.logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	app.logger.Info("server stopped")
	return nil
}
