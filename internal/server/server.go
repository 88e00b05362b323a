package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/irrigafacil/apiserver/config"
	"github.com/irrigafacil/apiserver/internal/auth"
	"github.com/irrigafacil/apiserver/internal/db"
	"github.com/irrigafacil/apiserver/internal/handlers"
	"github.com/irrigafacil/apiserver/internal/mq"
	"github.com/irrigafacil/apiserver/internal/notify"
	"github.com/irrigafacil/apiserver/internal/services"
	"github.com/irrigafacil/apiserver/internal/social"
	"github.com/irrigafacil/apiserver/internal/store"
)

// Server wraps the HTTP server, router and shared resources.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	broker     mq.Broker
}

// New constructs a fully wired Server. A missing JWT secret fails here:
// the process must never come up able to mint unsigned or default-signed
// tokens.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("JWT_SECRET: %w", err)
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	resetRepo := store.NewResetTokenRepository(dbConn)
	zoneRepo := store.NewZoneRepository(dbConn)

	broker, notifier := buildNotifier(ctx, cfg, logger)

	authService := services.NewAuthService(userRepo, resetRepo, tokens, notifier, logger, cfg.Mail.ResetLinkBase)
	socialService := services.NewSocialService(userRepo, tokens)
	zoneService := services.NewZoneService(zoneRepo)

	providers := buildProviders(cfg.OAuth)
	requireAuth := handlers.RequireAuth(tokens)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	handlers.AuthRouter(router, authService, logger)
	router.Route("/auth", func(r chi.Router) {
		handlers.SocialRouter(r, providers, socialService, cfg.OAuth.ClientDeepLink, logger)
	})
	router.Route("/perfil", func(r chi.Router) {
		r.Use(requireAuth)
		handlers.ProfileRouter(r, authService, logger)
	})
	router.Route("/zonas", func(r chi.Router) {
		r.Use(requireAuth)
		handlers.ZoneRouter(r, zoneService, logger)
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
		broker:     broker,
	}, nil
}

// buildNotifier picks the configured broker backend, falling back to
// log-only delivery when none is set up.
func buildNotifier(ctx context.Context, cfg config.Config, logger *slog.Logger) (mq.Broker, notify.Notifier) {
	if strings.TrimSpace(cfg.RabbitMQ.URL) != "" {
		broker, err := mq.NewRabbitBroker(cfg.RabbitMQ)
		if err == nil {
			return broker, notify.NewBrokerNotifier(broker)
		}
		logger.Error("rabbitmq unavailable, falling back to log notifier", "error", err)
	}
	if strings.TrimSpace(cfg.PubSub.ProjectID) != "" {
		broker, err := mq.NewPubSubBroker(ctx, cfg.PubSub)
		if err == nil {
			return broker, notify.NewBrokerNotifier(broker)
		}
		logger.Error("pubsub unavailable, falling back to log notifier", "error", err)
	}
	return nil, notify.NewLogNotifier(logger)
}

func buildProviders(cfg config.OAuthConfig) social.Registry {
	providers := social.Registry{}
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		redirect := cfg.CallbackBaseURL + "/auth/google/callback"
		providers[social.ProviderGoogle] = social.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, redirect)
	}
	if cfg.FacebookClientID != "" && cfg.FacebookClientSecret != "" {
		redirect := cfg.CallbackBaseURL + "/auth/facebook/callback"
		providers[social.ProviderFacebook] = social.NewFacebookProvider(cfg.FacebookClientID, cfg.FacebookClientSecret, redirect)
	}
	return providers
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
	if s.broker != nil {
		_ = s.broker.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}
