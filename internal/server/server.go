// Package server wires the liber API together: database, services,
// handlers, middleware and routes.
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config → sqlite.DB → UserDB / LinkDB / FolderDB
//	             → UserService, AuthService, HandleService, LinkService, FolderService
//	             → handlers → chi routes
//
// All dependencies are built in New (the composition root); nothing else in
// the codebase constructs its own collaborators.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/chankruze/liber/internal/auth"
	"github.com/chankruze/liber/internal/avatar"
	"github.com/chankruze/liber/internal/config"
	"github.com/chankruze/liber/internal/handler"
	"github.com/chankruze/liber/internal/middleware"
	sqliteRepo "github.com/chankruze/liber/internal/repository/sqlite"
	"github.com/chankruze/liber/internal/service"
)

const shutdownTimeout = 30 * time.Second

// Server owns the router and the database connection.
type Server struct {
	router  *chi.Mux
	handler http.Handler
	config  *config.Config
	logger  *slog.Logger
	db      *sqliteRepo.DB
	tokens  *auth.TokenService
}

// New opens the database, runs migrations and builds the route tree.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sqliteRepo.New(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	tokens, err := auth.NewTokenServiceWithTTL(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
		tokens: tokens,
	}
	s.setupRoutes()

	s.handler = cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.Origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	}).Handler(s.router)

	return s, nil
}

// Handler returns the root HTTP handler (CORS in front of the router).
func (s *Server) Handler() http.Handler {
	return s.handler
}

// setupRoutes builds every service and handler and mounts the routes.
//
// ROUTES:
//
//	GET    /healthz
//	POST   /auth/register | /auth/login | /auth/refresh
//	GET    /auth/me                          (auth)
//	GET    /auth/github/login | /callback    (when GitHub is configured)
//	GET    /handles/{handle} | /{handle}/details
//	GET    /users | /users/{id}              (auth)
//	PATCH  /users/{id}  DELETE /users/{id}   (auth, self only)
//	GET    /links/u/{userId}
//	POST   /links  GET /links  GET|PATCH|DELETE /links/{id}        (auth)
//	PATCH|DELETE /links/{id}/f/{folderId}                          (auth)
//	GET    /folders/u/{ownerId} | /folders/{id}/links              (optional auth)
//	POST   /folders  GET /folders  GET|PATCH|DELETE /folders/{id}  (auth)
//
// MIDDLEWARE ORDER:
// RequestID → RealIP → Logger → Recoverer. RealIP runs before the logger and
// the register handler so both see the client address.
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	users := s.db.Users()
	links := s.db.Links()
	folders := s.db.Folders()

	passwords := auth.NewPasswordService(s.config.Bcrypt.Cost)

	userService := service.NewUserService(users, links, folders, passwords, avatar.NewIdenticon(avatar.DefaultSize), s.logger)
	authService := service.NewAuthService(userService, s.tokens, passwords, s.logger)
	handleService := service.NewHandleService(userService)
	linkService := service.NewLinkService(links, folders, s.logger)
	folderService := service.NewFolderService(folders, linkService, s.logger)

	var github handler.GitHubExchanger
	if s.config.GitHub.Enabled() {
		github = auth.NewGitHubProvider(s.config.GitHub.ClientID, s.config.GitHub.ClientSecret, s.config.GitHub.CallbackURL)
	}

	authHandler := handler.NewAuthHandler(authService, github, s.logger)
	userHandler := handler.NewUserHandler(userService, s.logger)
	handleHandler := handler.NewHandleHandler(handleService, s.logger)
	linkHandler := handler.NewLinkHandler(linkService, s.logger)
	folderHandler := handler.NewFolderHandler(folderService, s.logger)
	healthHandler := handler.NewHealthHandler(s.db, s.logger)

	requireAuth := auth.RequireAuth(s.tokens)
	optionalAuth := auth.OptionalAuth(s.tokens)

	s.router.Get("/healthz", healthHandler.HandleHealth)

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/refresh", authHandler.HandleRefresh)
		r.With(requireAuth).Get("/me", authHandler.HandleMe)

		if github != nil {
			r.Get("/github/login", authHandler.HandleGitHubLogin)
			r.Get("/github/callback", authHandler.HandleGitHubCallback)
		}
	})

	s.router.Route("/handles", func(r chi.Router) {
		r.Get("/{handle}", handleHandler.HandleAvailability)
		r.Get("/{handle}/details", handleHandler.HandleDetails)
	})

	s.router.Route("/users", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", userHandler.HandleList)
		r.Get("/{id}", userHandler.HandleGet)
		r.Patch("/{id}", userHandler.HandleUpdate)
		r.Delete("/{id}", userHandler.HandleDelete)
	})

	s.router.Route("/links", func(r chi.Router) {
		r.Get("/u/{userId}", linkHandler.HandleListPublic)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", linkHandler.HandleCreate)
			r.Get("/", linkHandler.HandleList)
			r.Get("/{id}", linkHandler.HandleGet)
			r.Patch("/{id}", linkHandler.HandleUpdate)
			r.Delete("/{id}", linkHandler.HandleDelete)
			r.Patch("/{id}/f/{folderId}", linkHandler.HandleAddToFolder)
			r.Delete("/{id}/f/{folderId}", linkHandler.HandleRemoveFromFolder)
		})
	})

	s.router.Route("/folders", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Get("/u/{ownerId}", folderHandler.HandleListByOwner)
			r.Get("/{id}/links", folderHandler.HandleListLinks)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", folderHandler.HandleCreate)
			r.Get("/", folderHandler.HandleList)
			r.Get("/{id}", folderHandler.HandleGet)
			r.Patch("/{id}", folderHandler.HandleUpdate)
			r.Delete("/{id}", folderHandler.HandleDelete)
		})
	})
}

// Close releases the database.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start serves HTTP until SIGINT/SIGTERM, then drains in-flight requests for
// up to 30 seconds and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
			slog.Bool("github", s.config.GitHub.Enabled()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
