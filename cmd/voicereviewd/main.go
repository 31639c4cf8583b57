package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/savcinema/voicereview-service/docs"
	"github.com/savcinema/voicereview-service/internal/cache"
	"github.com/savcinema/voicereview-service/internal/config"
	"github.com/savcinema/voicereview-service/internal/events"
	"github.com/savcinema/voicereview-service/internal/http/handlers/activemovie"
	"github.com/savcinema/voicereview-service/internal/http/handlers/auth"
	"github.com/savcinema/voicereview-service/internal/http/handlers/catalog"
	mediaHandlers "github.com/savcinema/voicereview-service/internal/http/handlers/media"
	"github.com/savcinema/voicereview-service/internal/http/handlers/reviews"
	wsHandler "github.com/savcinema/voicereview-service/internal/http/handlers/websocket"
	"github.com/savcinema/voicereview-service/internal/http/middleware"
	"github.com/savcinema/voicereview-service/internal/services/media"
	"github.com/savcinema/voicereview-service/internal/storage/postgres"
	"github.com/savcinema/voicereview-service/internal/tmdb"
	"github.com/savcinema/voicereview-service/internal/utils/password"
	ws "github.com/savcinema/voicereview-service/internal/websocket"
)

// @title Voice Review Service API
// @version 1.0
// @description Pin an active movie and moderate anonymous voice reviews.
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// load config
	cfg := config.MustLoad()

	// database setup
	store, err := postgres.NewPostgres(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	slog.Info("Connected to Postgres database")

	seedAdmin(store, cfg)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	slog.Info("Connected to Redis")

	mediaSvc, err := media.NewService(cfg)
	if err != nil {
		log.Fatal("Failed to initialize media service:", err)
	}

	tmdbClient := tmdb.NewClient(cfg)
	cacheSvc := cache.NewCacheService(store, redisClient)
	rateLimits := middleware.NewRateLimitConfig(redisClient)

	hub := ws.NewHub()
	go hub.Run()
	publisher := events.NewEventPublisher(hub)

	authMW := middleware.AuthMiddleware(cfg.JWTSecret)
	mediaH := mediaHandlers.NewMediaHandlers(mediaSvc)

	// setup server
	router := http.NewServeMux()

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	// public surface
	router.HandleFunc("GET /public/active-movie", activemovie.Get(cacheSvc))
	router.Handle("POST /public/reviews",
		rateLimits.RateLimitedHandler(middleware.ActionSubmitReview, reviews.Submit(store, mediaSvc, publisher)))
	router.HandleFunc("POST /public/upload-url", mediaH.GenerateUploadURL())

	// auth
	router.HandleFunc("POST /auth/login", auth.Login(store, cfg.JWTSecret))

	// admin surface
	router.Handle("GET /admin/active-movie", authMW(activemovie.GetAuthoritative(store)))
	router.Handle("POST /admin/active-movie", authMW(activemovie.Set(store, tmdbClient, cacheSvc, publisher)))
	router.Handle("GET /admin/catalog/search", authMW(catalog.Search(tmdbClient)))
	router.Handle("GET /admin/reviews", authMW(reviews.List(store)))
	router.Handle("PATCH /admin/reviews/{id}", authMW(reviews.Update(store, publisher)))
	router.Handle("DELETE /admin/reviews/{id}", authMW(reviews.Delete(store, mediaSvc)))
	router.Handle("GET /admin/cache/stats", authMW(cache.GetCacheStats(redisClient)))
	router.Handle("POST /admin/cache/clear", authMW(cache.ClearCache(redisClient)))
	router.HandleFunc("GET /admin/ws", wsHandler.WebSocketHandler(hub, cfg.JWTSecret))

	router.Handle("GET /swagger/", httpSwagger.WrapHandler)

	server := http.Server{
		Addr:    cfg.HTTPServer.Address,
		Handler: router,
	}

	log.Println("server started on", cfg.HTTPServer.Address)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %s", err)
		}
	}()

	<-done

	slog.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = server.Shutdown(ctx)
	if err != nil {
		slog.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
		return
	}

	slog.Info("Server stopped")
}

// seedAdmin creates the bootstrap admin account on first start.
func seedAdmin(store *postgres.Postgres, cfg *config.Config) {
	if cfg.Admin.Email == "" || cfg.Admin.Password == "" {
		return
	}

	count, err := store.CountAdminUsers()
	if err != nil {
		log.Fatal("Failed to count admin users:", err)
	}
	if count > 0 {
		return
	}

	hash, err := password.HashPassword(cfg.Admin.Password)
	if err != nil {
		log.Fatal("Failed to hash bootstrap admin password:", err)
	}

	adminID, err := store.CreateAdminUser(cfg.Admin.Email, hash)
	if err != nil {
		log.Fatal("Failed to seed admin user:", err)
	}
	slog.Info("Seeded bootstrap admin user", slog.String("admin_id", adminID), slog.String("email", cfg.Admin.Email))
}
