// Package web is the server-rendered frontend tier. It never touches
// the database: every operation goes through the backend JSON API, with
// the issued access token relayed from a cookie-keyed server-side
// session.
package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/inkwell-blog/blogserver/config"
	"github.com/inkwell-blog/blogserver/internal/web/client"
)

// Server wraps the frontend HTTP server.
type Server struct {
	httpServer *http.Server
	sessions   *scs.SessionManager
	api        *client.Client
	apiBaseURL string
	logger     *slog.Logger
}

// New constructs the frontend server against the configured backend.
func New(cfg config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		sessions:   newSessionManager(),
		api:        client.New(cfg.APIBaseURL, 10*time.Second),
		apiBaseURL: cfg.APIBaseURL,
		logger:     logger,
	}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Use(s.sessions.LoadAndSave)

	// public
	router.Get("/", s.home)
	router.Get("/posts/", s.allPosts)
	router.Get("/posts/{postID}/", s.postDetail)
	router.Get("/login/", s.login)
	router.Post("/login/", s.login)
	router.Get("/register/", s.register)
	router.Post("/register/", s.register)

	// private
	router.Group(func(r chi.Router) {
		r.Use(s.requireLogin)
		r.Get("/logout/", s.logout)
		r.Get("/create-post/", s.createPost)
		r.Post("/create-post/", s.createPost)
		r.Get("/posts/{postID}/update/", s.updatePost)
		r.Post("/posts/{postID}/update/", s.updatePost)
		r.Get("/posts/{postID}/delete/", s.deletePost)
		r.Post("/posts/{postID}/delete/", s.deletePost)
		r.Get("/profile/", s.profile)
		r.Post("/profile/", s.profile)
	})

	port := cfg.WebPort
	if port == 0 {
		port = 8081
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	return s.httpServer.Close()
}
