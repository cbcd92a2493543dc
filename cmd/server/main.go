package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/joho/godotenv"

	"github.com/novak29/thrive/internal/config"
	"github.com/novak29/thrive/internal/database"
	mongorepo "github.com/novak29/thrive/internal/repository/mongo"
	"github.com/novak29/thrive/internal/service"
	httphandlers "github.com/novak29/thrive/internal/transport/http/handlers"
	"github.com/novak29/thrive/internal/transport/http/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Database
	client, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Printf("Error disconnecting from database: %v", err)
		}
	}()
	log.Println("Connected to database")

	// Repositories
	userRepo := mongorepo.NewUserRepo(client.Database(cfg.MongoDB))
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Creating indexes: %v", err)
	}

	// Services
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL, cfg.BcryptCost)

	// Handlers
	authHandler := httphandlers.NewAuthHandler(authService)

	// Auth middleware
	auth := middleware.Auth(cfg.JWTSecret)

	// Routes
	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Protected
	mux.Handle("GET /api/auth/me", auth(http.HandlerFunc(authHandler.Me)))
	mux.Handle("PUT /api/auth/profile", auth(http.HandlerFunc(authHandler.UpdateProfile)))
	mux.Handle("POST /api/auth/logout", auth(http.HandlerFunc(authHandler.Logout)))

	// Start server with access logging and CORS
	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("Starting server on %s", addr)
	log.Fatal(http.ListenAndServe(addr, handlers.LoggingHandler(os.Stdout, middleware.CORS(mux))))
}
