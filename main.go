package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tapEmpireAPI/handlers"
	"tapEmpireAPI/internal/notification"
	"tapEmpireAPI/internal/storage"
	"tapEmpireAPI/middleware"
	"tapEmpireAPI/services"
)

var (
	dbPool              *pgxpool.Pool
	localStore          *services.LocalStore
	selector            *storage.Selector
	hostedBackend       *services.HostedBackend
	migrationService    *services.MigrationService
	notificationService *services.NotificationService
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	clerkSecretKey := os.Getenv("CLERK_SECRET_KEY")
	if clerkSecretKey == "" {
		log.Fatal("CLERK_SECRET_KEY environment variable is not set")
	}
	clerk.SetKey(clerkSecretKey)
	log.Println("Clerk initialized successfully")

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		log.Fatal("Failed to parse database URL:", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatal("Failed to create connection pool:", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Fatal("Failed to ping database:", err)
	}
	log.Println("Successfully connected to hosted database")

	localPath := os.Getenv("LOCAL_STORE_PATH")
	if localPath == "" {
		localPath = "./staging.db"
	}
	localStore, err = services.OpenLocalStore(localPath)
	if err != nil {
		log.Fatal("Failed to open local staging store:", err)
	}
	log.Printf("Local staging store opened at %s", localPath)

	hostedBackend = services.NewHostedBackend(dbPool)
	selector = storage.NewSelector(func() (storage.Backend, error) {
		return hostedBackend, nil
	})

	backendType := storage.BackendType(os.Getenv("STORAGE_BACKEND"))
	if backendType == "" {
		backendType = storage.BackendHosted
	}
	if err := selector.SetBackendType(backendType); err != nil {
		log.Fatal("Failed to select storage backend:", err)
	}
	log.Printf("Active storage backend: %s", selector.BackendType())

	migrationService = services.NewMigrationService(localStore)
	notificationService = services.NewNotificationService(hostedBackend)

	fcmService, err := notification.NewFCMService("./serviceAccountKey.json")
	if err != nil {
		log.Printf("Warning: Could not initialize FCM: %v", err)
	} else {
		notificationService.SetPushProvider(fcmService)
		log.Println("FCM Push Provider initialized successfully")
	}

	middleware.InitPrometheus()
}

func main() {
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
		if err := localStore.Close(); err != nil {
			log.Printf("Failed to close local store: %v", err)
		}
	}()

	userHandler := handlers.NewUserHandler(selector, hostedBackend)
	gameHandler := handlers.NewGameHandler(selector, notificationService)
	pvpHandler := handlers.NewPvPHandler(selector)
	adminHandler := handlers.NewAdminHandler(hostedBackend)
	migrationHandler := handlers.NewMigrationHandler(selector, localStore, migrationService, notificationService)

	r := mux.NewRouter()

	go middleware.CleanupVisitors()

	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := dbPool.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "tapEmpire-api"}`))
	}).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	// The admin endpoints authenticate on their own; they stay off
	// the shared auth middleware.
	api.HandleFunc("/admin/verify-role", adminHandler.VerifyRole).Methods("POST")
	api.HandleFunc("/admin/config", adminHandler.GetGameConfig).Methods("GET")

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware)

	protected.HandleFunc("/profile", userHandler.CreateProfile).Methods("POST")
	protected.HandleFunc("/profile", userHandler.GetProfile).Methods("GET")
	protected.HandleFunc("/profile", userHandler.UpdateProfile).Methods("PUT")
	protected.HandleFunc("/settings", userHandler.GetSettings).Methods("GET")
	protected.HandleFunc("/settings", userHandler.UpdateSettings).Methods("PUT")
	protected.HandleFunc("/statistics", userHandler.GetStatistics).Methods("GET")
	protected.HandleFunc("/clicks", userHandler.RecordClick).Methods("POST")
	protected.HandleFunc("/clicks", userHandler.GetClickCount).Methods("GET")
	protected.HandleFunc("/streak", userHandler.GetStreak).Methods("GET")
	protected.HandleFunc("/streak", userHandler.UpdateStreak).Methods("PUT")
	protected.HandleFunc("/streak/reset", userHandler.ResetStreak).Methods("POST")
	protected.HandleFunc("/devices", userHandler.RegisterDevice).Methods("POST")

	protected.HandleFunc("/power-ups", gameHandler.GetPowerUps).Methods("GET")
	protected.HandleFunc("/power-ups", gameHandler.AddPowerUp).Methods("POST")
	protected.HandleFunc("/power-ups/{type}/use", gameHandler.UsePowerUp).Methods("POST")

	protected.HandleFunc("/clans", gameHandler.CreateClan).Methods("POST")
	protected.HandleFunc("/clans/{clanID}", gameHandler.GetClan).Methods("GET")
	protected.HandleFunc("/clans/{clanID}/members", gameHandler.AddClanMember).Methods("POST")
	protected.HandleFunc("/clans/{clanID}/members", gameHandler.RemoveClanMember).Methods("DELETE")

	protected.HandleFunc("/referrals", gameHandler.CreateReferral).Methods("POST")
	protected.HandleFunc("/referrals", gameHandler.GetReferrals).Methods("GET")
	protected.HandleFunc("/referrals/{referralID}/complete", gameHandler.CompleteReferral).Methods("POST")

	protected.HandleFunc("/pvp/matches", pvpHandler.CreateMatch).Methods("POST")
	protected.HandleFunc("/pvp/matches", pvpHandler.GetPlayerMatches).Methods("GET")
	protected.HandleFunc("/pvp/matches/{matchID}", pvpHandler.GetMatch).Methods("GET")
	protected.HandleFunc("/pvp/matches/{matchID}/score", pvpHandler.UpdateScore).Methods("PUT")
	protected.HandleFunc("/pvp/matches/{matchID}/complete", pvpHandler.CompleteMatch).Methods("POST")

	protected.HandleFunc("/leaderboard", pvpHandler.GetLeaderboard).Methods("GET")
	protected.HandleFunc("/leaderboard/rank", pvpHandler.GetPlayerRank).Methods("GET")

	protected.HandleFunc("/migration", migrationHandler.MigrateUserData).Methods("POST")

	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorilllaHandlers.AllowCredentials(),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3333"
	}
	port = ":" + port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server shutdown complete")
}
