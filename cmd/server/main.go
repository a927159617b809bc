package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"Postboard/internal/api/middleware"
	"Postboard/internal/api/routes"
	"Postboard/internal/auth"
	"Postboard/internal/cache"
	"Postboard/internal/config"
	"Postboard/internal/core/posts"
	"Postboard/internal/db/memory"
	"Postboard/internal/db/mongodb"
	postgresRepo "Postboard/internal/db/postgres"
	"Postboard/internal/messaging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	if cfg.IsProduction() {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage
	postRepo, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to open post store: ", err)
	}
	defer closeStore()

	// Optional cache
	postCache, closeCache, err := openCache(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to open cache: ", err)
	}
	defer closeCache()

	// Optional event publishing
	var events posts.EventPublisher
	if cfg.NATSURL != "" {
		conn, err := messaging.Connect(cfg.NATSURL, 10, 2*time.Second)
		if err != nil {
			log.Fatal("Failed to connect to NATS: ", err)
		}
		defer conn.Close()
		events = messaging.NewNATSPublisher(conn)
		log.Printf("Publishing post events to %s", cfg.NATSURL)
	}

	// Token verification
	verifier, err := newVerifier(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to configure token verification: ", err)
	}

	validator, err := posts.NewValidator(cfg.PostTextMin, cfg.PostTextMax)
	if err != nil {
		log.Fatal("Failed to create validator: ", err)
	}

	postService := posts.NewPostService(postRepo, validator, postCache, events, slog.Default())

	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.CorsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.TokenHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}).Handler)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	r.Use(rateLimiter.Middleware)

	routes.RegisterHealthRoutes(r)
	routes.RegisterPostRoutes(r, postService, validator, middleware.NewAuthMiddleware(verifier))

	if cfg.IsProduction() {
		routes.RegisterWebRoutes(r, cfg.StaticDir)
		log.Printf("Serving web client from %s", cfg.StaticDir)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Postboard starting on port %s (store=%s cache=%s)", cfg.Port, cfg.StoreDriver, cfg.CacheDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func openStore(ctx context.Context, cfg config.Config) (posts.Repository, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		log.Println("Using in-memory post store (data is lost on restart)")
		return memory.NewPostRepository(), func() {}, nil

	case config.StoreMongo:
		client, err := mongodb.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		db := client.Database(cfg.MongoDatabase)
		if err := mongodb.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		log.Printf("Connected to MongoDB database %s", cfg.MongoDatabase)
		return mongodb.NewPostRepository(db), func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Printf("Failed to disconnect MongoDB client: %v", err)
			}
		}, nil

	default:
		db, err := postgresRepo.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		log.Println("Connected to PostgreSQL")

		if err := postgresRepo.Migrate(db, cfg.MigrationsDir); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		log.Println("Migrations completed successfully")

		return postgresRepo.NewPostRepository(db), func() { _ = db.Close() }, nil
	}
}

func openCache(ctx context.Context, cfg config.Config) (posts.Cache, func(), error) {
	switch cfg.CacheDriver {
	case config.CacheNone:
		return nil, func() {}, nil

	case config.CacheRedis:
		client, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("Caching posts in Redis at %s", cfg.RedisAddr)
		return cache.NewRedisCache(client, cfg.CacheTTL, slog.Default()), func() { _ = client.Close() }, nil

	default:
		return cache.NewLRUCache(cfg.CacheSize, cfg.CacheTTL), func() {}, nil
	}
}

func newVerifier(ctx context.Context, cfg config.Config) (*auth.Verifier, error) {
	authCfg := auth.Config{
		Secret: []byte(cfg.JWTSecret),
		Issuer: cfg.JWTIssuer,
	}

	if cfg.JWTJWKSURL != "" {
		keys, err := auth.NewRemoteKeySet(ctx, cfg.JWTJWKSURL, 15*time.Minute)
		if err != nil {
			return nil, fmt.Errorf("failed to load JWKS: %w", err)
		}
		authCfg.Keys = keys
	}

	if cfg.JWTJWKSFile != "" {
		data, err := os.ReadFile(cfg.JWTJWKSFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read JWKS file: %w", err)
		}
		keys, err := auth.NewStaticKeySet(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse JWKS file: %w", err)
		}
		authCfg.Keys = keys
	}

	return auth.NewVerifier(authCfg)
}
