package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ruralpay/atm/docs"
	"github.com/ruralpay/atm/internal/config"
	"github.com/ruralpay/atm/internal/database"
	"github.com/ruralpay/atm/internal/handlers"
	"github.com/ruralpay/atm/internal/hsm"
	"github.com/ruralpay/atm/internal/metrics"
	mW "github.com/ruralpay/atm/internal/middleware"
	"github.com/ruralpay/atm/internal/services"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title ATM Terminal API
// @version 1.0
// @description Card sessions, PIN verification and cash transactions for a teller machine
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	config.Load(*configPath)
	atmConfig := config.LoadATMConfig()

	docs.SwaggerInfo.Host = "localhost:" + viper.GetString("server.port")

	// PIN vault
	vault, err := hsm.NewPINVault(hsm.Config{
		Time:      viper.GetUint32("argon2.time"),
		Memory:    viper.GetUint32("argon2.memory"),
		Threads:   uint8(viper.GetUint("argon2.threads")),
		KeyLength: viper.GetUint32("argon2.key_length"),
		Pepper:    []byte(viper.GetString("hsm.pin_pepper")),
	})
	if err != nil {
		log.Fatalf("Failed to initialize PIN vault: %v", err)
	}

	repo := services.NewAccountRepository(vault)
	seeds, err := config.SeedAccounts()
	if err != nil {
		log.Fatalf("Failed to read accounts: %v", err)
	}
	if err := repo.Seed(seeds); err != nil {
		log.Fatalf("Failed to load accounts: %v", err)
	}

	// Journal
	var journal services.Journal = services.NewMemoryJournal()
	if viper.GetBool("database.enabled") {
		db := database.MustOpenJournal(context.Background())
		defer db.Close()
		journal = services.NewPostgresJournal(db)
	} else {
		log.Println("Database disabled, journal kept in memory")
	}

	// Token revocation
	redisClient := database.InitRedis(context.Background())
	if redisClient != nil {
		defer redisClient.Close()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	tokens := services.NewTokenService(viper.GetString("jwt.secret_key"), config.TokenExpiry(), redisClient)
	atmService := services.NewATMService(atmConfig, repo, journal, tokens, hsm.NewAuditLogger(), m)
	atmHandler := handlers.NewATMHandler(atmService, atmConfig)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status":         "healthy",
			"terminalId":     atmConfig.TerminalID,
			"activeSessions": atmService.ActiveSessions(),
		})
	})

	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// API routes
	r.Mount("/api/v1", atmHandler.Routes(tokens))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Session expiry
	go func() {
		ticker := time.NewTicker(atmConfig.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				atmService.CleanupExpiredSessions()
			}
		}
	}()

	port := viper.GetString("server.port")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Terminal %s listening on :%s", atmConfig.TerminalID, port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()

	log.Println("Server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
