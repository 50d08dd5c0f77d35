package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tlemoine/blog-platform/backend/internal/admin"
	"github.com/tlemoine/blog-platform/backend/internal/auth"
	"github.com/tlemoine/blog-platform/backend/internal/blog"
	"github.com/tlemoine/blog-platform/backend/internal/config"
	"github.com/tlemoine/blog-platform/backend/internal/middleware"
	"github.com/tlemoine/blog-platform/backend/internal/store"
	"github.com/tlemoine/blog-platform/backend/internal/users"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	// ── PostgreSQL (users) ───────────────────────────────────
	pgPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("postgres connect: %v", err)
	}
	defer pgPool.Close()
	pgStore := store.NewPostgresStore(pgPool)
	if err := pgStore.Migrate(ctx); err != nil {
		log.Fatalf("postgres migrate: %v", err)
	}

	// ── MongoDB (content graph) ──────────────────────────────
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("mongo connect: %v", err)
	}
	defer mongoClient.Disconnect(ctx)
	mongoStore := store.NewMongoStore(mongoClient.Database(cfg.MongoDB))
	if err := mongoStore.EnsureIndexes(ctx); err != nil {
		log.Fatalf("mongo indexes: %v", err)
	}

	// ── Redis (stats cache) ──────────────────────────────────
	rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connect: %v", err)
	}
	defer rdb.Close()
	statsCache := store.NewCache(rdb, cfg.StatsCacheTTL)

	// ── MinIO (image uploads) ────────────────────────────────
	minioStore, err := store.NewMinioStore(
		ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
		cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL,
	)
	if err != nil {
		log.Fatalf("minio connect: %v", err)
	}

	// ── Services & handlers ──────────────────────────────────
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	blogSvc := blog.NewService(mongoStore, pgStore, minioStore)

	authHandler := auth.NewHandler(pgStore, tokens)
	blogHandler := blog.NewHandler(blogSvc, minioStore, cfg.MaxUploadBytes)
	usersHandler := users.NewHandler(pgStore, blogSvc, minioStore, cfg.MaxUploadBytes)
	adminHandler := admin.NewHandler(blogSvc, pgStore, statsCache)

	requireAuth := middleware.RequireAuth(tokens, pgStore)

	// ── Router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.ClientOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/uploads/*", blogHandler.ServeUpload)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.With(requireAuth).Get("/me", authHandler.Me)
	})

	r.Route("/posts", func(r chi.Router) {
		r.Get("/", blogHandler.ListPosts)
		r.Get("/category/{id}", blogHandler.PostsByCategory)
		r.With(requireAuth).Post("/", blogHandler.CreatePost)
		r.With(requireAuth).Get("/user", blogHandler.MyPosts)
		r.With(requireAuth).Get("/user/{userID}", blogHandler.UserPosts)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", blogHandler.GetPost)
			r.With(requireAuth).Put("/", blogHandler.UpdatePost)
			r.With(requireAuth).Delete("/", blogHandler.DeletePost)

			r.Get("/likes", blogHandler.ListLikes)
			r.With(requireAuth).Post("/likes", blogHandler.LikePost)
			r.With(requireAuth).Delete("/likes", blogHandler.UnlikePost)
			r.With(requireAuth).Get("/likes/status", blogHandler.LikeStatus)

			r.Get("/comments", blogHandler.PostComments)
			r.With(requireAuth).Post("/comments", blogHandler.CreatePostComment)
		})
	})

	r.Route("/categories", func(r chi.Router) {
		r.Get("/", blogHandler.ListCategories)
		r.Get("/{id}", blogHandler.GetCategory)
		r.Get("/{id}/posts", blogHandler.CategoryPosts)
		r.With(requireAuth).Post("/", blogHandler.CreateCategory)
		r.With(requireAuth).Put("/{id}", blogHandler.UpdateCategory)
		r.With(requireAuth).Delete("/{id}", blogHandler.DeleteCategory)
	})

	r.Route("/comments", func(r chi.Router) {
		r.Get("/", blogHandler.ListComments)
		r.Get("/post/{postID}", blogHandler.CommentsByPost)
		r.With(requireAuth).Post("/", blogHandler.CreateComment)
		r.With(requireAuth).Put("/{id}", blogHandler.UpdateComment)
		r.With(requireAuth).Delete("/{id}", blogHandler.DeleteComment)
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", usersHandler.List)
		r.Get("/me", usersHandler.Me)
		r.Put("/profile", usersHandler.UpdateProfile)
		r.Delete("/profile", usersHandler.DeleteProfile)
		r.Delete("/me", usersHandler.DeleteProfile)
		r.Delete("/{id}", usersHandler.Delete)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(middleware.RequireAdmin)

		r.Get("/stats", adminHandler.Stats)
		r.Get("/users", adminHandler.Users)
		r.Delete("/users/{id}", usersHandler.Delete)
		r.Patch("/users/{id}/role", adminHandler.SetRole)
		r.Get("/posts", adminHandler.Posts)
		r.Delete("/posts/{id}", adminHandler.DeletePost)
		r.Get("/comments", adminHandler.Comments)
		r.Delete("/comments/{id}", adminHandler.DeleteComment)
		r.Get("/categories", adminHandler.Categories)
		r.Post("/categories", blogHandler.CreateCategory)
		r.Put("/categories/{id}", blogHandler.UpdateCategory)
		r.Delete("/categories/{id}", blogHandler.DeleteCategory)
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  time.Minute,
		WriteTimeout: time.Minute,
	}

	go func() {
		log.Printf("Backend listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	srv.Shutdown(shutCtx)
}
