package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/inkwell-blog/blogserver/config"
	"github.com/inkwell-blog/blogserver/internal/auth"
	"github.com/inkwell-blog/blogserver/internal/db"
	"github.com/inkwell-blog/blogserver/internal/handlers"
	"github.com/inkwell-blog/blogserver/internal/mq"
	"github.com/inkwell-blog/blogserver/internal/services"
	"github.com/inkwell-blog/blogserver/internal/storage"
	"github.com/inkwell-blog/blogserver/internal/store"
)

// Server wraps the API HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	events     *mq.MQ
}

// New constructs the API server: database, repositories, services,
// token issuer, optional media storage and event broker, and routes.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	if strings.TrimSpace(cfg.JWT.Secret) == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	media, err := storage.FromConfig(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	if media != nil {
		if err := media.EnsureBucket(ctx); err != nil {
			_ = dbConn.Close()
			return nil, err
		}
	}

	events, err := mq.FromConfig(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	postRepo := store.NewPostRepository(dbConn)
	userRepo := store.NewUserRepository(dbConn)

	issuer := auth.NewIssuer(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	userService := services.NewUserService(userRepo)
	postService := services.NewPostService(postRepo, media, events, slog.Default())

	authMiddleware := handlers.RequireAuth(issuer)
	authHandler := handlers.NewAuthHandler(userService, issuer)
	postHandler := handlers.NewPostHandler(postService)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/api", func(r chi.Router) {
		r.Route("/token", func(r chi.Router) {
			handlers.TokenRouter(r, authHandler)
		})
		r.Route("/auth", func(r chi.Router) {
			handlers.AuthRouter(r, authHandler, authMiddleware)
		})
		r.Route("/posts", func(r chi.Router) {
			handlers.PostRouter(r, postService, authMiddleware)
		})
		r.Get("/recent-posts/", postHandler.RecentPosts)
		if media != nil {
			r.Route("/media", func(r chi.Router) {
				handlers.MediaRouter(r, media)
			})
		}
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		events:     events,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.events != nil {
		_ = s.events.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}
