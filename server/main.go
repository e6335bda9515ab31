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

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"github.com/chepyr/go-task-tracker/internal/access"
	"github.com/chepyr/go-task-tracker/internal/auth"
	"github.com/chepyr/go-task-tracker/internal/config"
	"github.com/chepyr/go-task-tracker/internal/db"
	"github.com/chepyr/go-task-tracker/internal/handlers"
	"github.com/chepyr/go-task-tracker/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env file not found, relying on environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	dbConn := initDB(cfg.Database)
	defer func() {
		if err := dbConn.Close(); err != nil {
			log.Printf("Error closing database connection: %v", err)
		}
	}()

	handler := initHandler(cfg, dbConn)
	defer handler.RateLimiter.Stop()

	server := initServer(cfg.Server, handler)
	startServer(server)
}

func initDB(cfg config.DatabaseConfig) *sqlx.DB {
	dbConn, err := db.Connect(cfg.Driver, cfg.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.Migrate(ctx, dbConn); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}
	return dbConn
}

func initHandler(cfg *config.Config, dbConn *sqlx.DB) *handlers.Handler {
	if cfg.Auth.ElevationPolicy == access.ElevationSelfService {
		log.Println("WARNING: role elevation is self-service, any authenticated user can become ADMIN")
	}

	users := db.NewUserRepository(dbConn)
	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TokenTTL)
	hub := handlers.NewWSHub()
	tasks := service.NewTaskService(db.NewTaskRepository(dbConn), users, hub)

	return &handlers.Handler{
		Auth:     service.NewAuthService(users, auth.NewPasswordHasher(cfg.Auth.BcryptCost), tokens, cfg.Auth.ElevationPolicy),
		Tasks:    tasks,
		Comments: service.NewCommentService(db.NewCommentRepository(dbConn), tasks, hub),
		// login and register attempts per client IP
		RateLimiter:    handlers.NewRateLimiter(cfg.RateLimit.Limit, cfg.RateLimit.Window),
		WSHub:          hub,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
	}
}

func initServer(cfg config.ServerConfig, handler *handlers.Handler) *http.Server {
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Shutdown does not track hijacked websocket connections
	server.RegisterOnShutdown(handler.WSHub.Close)
	return server
}

func startServer(server *http.Server) {
	log.Printf("Starting server on %s", server.Addr)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown failed: %v", err)
	}
	log.Println("Server stopped")
}
