package main

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/aqibcreates/teachreach-backend/internal/config"
	"github.com/aqibcreates/teachreach-backend/internal/database"
	"github.com/aqibcreates/teachreach-backend/internal/handlers"
	"github.com/aqibcreates/teachreach-backend/internal/lifecycle"
	"github.com/aqibcreates/teachreach-backend/internal/middleware"
	"github.com/aqibcreates/teachreach-backend/internal/routes"
	"github.com/aqibcreates/teachreach-backend/internal/services"
	"github.com/aqibcreates/teachreach-backend/internal/storage"
)

func main() {
	// Load env
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	// Connect to PostgreSQL (orders side-store)
	log.Printf("Connecting to PostgreSQL...")
	if err := database.ConnectPostgres(cfg.PostgresURI); err != nil {
		log.Fatal("Failed to connect to PostgreSQL:", err)
	}
	defer database.DisconnectPostgres()

	// Connect to Redis (sessions, rate limiting, pub/sub)
	log.Printf("Connecting to Redis...")
	if err := database.ConnectRedis(cfg.RedisURI); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer database.DisconnectRedis()

	// Connect to MongoDB (mask password in the log)
	log.Printf("Connecting to MongoDB...")
	if cfg.MongoURI != "" && strings.Contains(cfg.MongoURI, "@") {
		parts := strings.Split(cfg.MongoURI, "@")
		if strings.Contains(parts[0], ":") {
			userPass := strings.Split(parts[0], ":")
			if len(userPass) >= 3 {
				log.Printf("MongoDB URI: %s", strings.Replace(cfg.MongoURI, userPass[2], "***", 1))
			}
		}
	}
	if err := database.Connect(cfg.MongoURI); err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer database.Disconnect()

	store := storage.NewMongoStore(database.DB)
	if err := store.EnsureIndexes(context.Background()); err != nil {
		log.Printf("⚠️  WARNING: failed to ensure MongoDB indexes: %v", err)
	} else {
		log.Println("✅ MongoDB indexes ensured")
	}

	// Seed the service catalog on first boot
	if err := services.SeedCatalog(context.Background(), database.DB); err != nil {
		log.Printf("⚠️  WARNING: failed to seed service catalog: %v", err)
	}

	// Wire the account lifecycle manager
	sessions := services.NewRedisSessions(database.RedisClient)
	manager := lifecycle.NewManager(
		store,
		sessions,
		services.LogDelivery{},
		services.NewRedisAccountEvents(database.RedisClient),
		cfg.AdminEmail,
	)
	handlers.InitLifecycle(manager)

	// Cross-instance event subscribers (session refresh + DM fan-out)
	services.StartAccountEventSubscriber(context.Background(), database.RedisClient, sessions)
	services.StartMessageSubscriber(context.Background(), database.RedisClient)

	// Initialize Cloudinary (optional; uploads disabled without credentials)
	if cfg.CloudinaryName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		if err := handlers.InitCloudinaryService(cfg); err != nil {
			log.Printf("Warning: Failed to initialize Cloudinary: %v", err)
			log.Println("File uploads will not be available")
		} else {
			log.Println("✅ Cloudinary service initialized")
		}
	} else {
		log.Println("Warning: Cloudinary credentials not found. File uploads will not be available")
	}

	// Setup router
	r := chi.NewRouter()

	// Custom CORS: set headers and respond to OPTIONS with 200 so preflight never gets 403
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Production: SecurityHeaders → GlobalRateLimit → LoginRateLimit
	// Non-production: Redis-based rate limit only
	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity() {
			r.Use(mw)
		}
		log.Println("✅ Production security enabled (security headers, per-IP + login rate limiting)")
	} else {
		r.Use(middleware.RateLimitMiddleware)
	}

	// Health check (no rate limit exemption needed; cheap endpoint)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	routes.SetupRoutes(r)

	log.Printf("🚀 %s backend running on :%s", cfg.AppName, cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
