package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pomodoro/timer/internal/config"
	"pomodoro/timer/internal/db"
	"pomodoro/timer/internal/handler"
	"pomodoro/timer/internal/repository"
	"pomodoro/timer/internal/router"
	"pomodoro/timer/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := config.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.RunMigrations(database, db.MigrationSource(cfg.MigrationsDir)); err != nil {
		return err
	}

	userRepo := repository.NewUserRepository(database)
	pomodoroRepo := repository.NewPomodoroRepository(database)

	authService := service.NewAuthService(userRepo, cfg.TimerDefaults, cfg.JWTSecret, cfg.TokenTTL)
	pomodoroService := service.NewPomodoroService(pomodoroRepo, service.PomodoroOptions{
		AutoStartDelay: cfg.AutoStartDelay,
		Logger:         logger,
	})
	defer pomodoroService.Shutdown()

	authHandler := handler.NewAuthHandler(authService)
	pomodoroHandler := handler.NewPomodoroHandler(pomodoroService)

	engine := router.New(logger, authService, authHandler, pomodoroHandler, cfg.CORSOrigins)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", server.Addr)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	// Event streams only end when their timers close.
	pomodoroService.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
