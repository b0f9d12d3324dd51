package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	v1 "github.com/gosuda/tenantdesk/internal/api/v1"
	"github.com/gosuda/tenantdesk/internal/api/ws"
	"github.com/gosuda/tenantdesk/internal/config"
	"github.com/gosuda/tenantdesk/internal/server/middleware"
)

// Deps are the services the HTTP layer dispatches to. PubSub may be nil, in
// which case live collection feeds answer 503.
type Deps struct {
	Data        v1.DataService
	Auth        v1.AuthService
	Provisioner v1.Provisioner
	Inventory   v1.InventoryService
	PubSub      ws.Subscriber
}

// Server is the HTTP server that wires all application routes and middleware.
type Server struct {
	router     chi.Router
	httpServer *http.Server
}

// New creates a Server with all routes wired. ctx bounds the background
// sweepers of the rate limiters.
func New(ctx context.Context, cfg *config.Config, deps Deps) *Server {
	router := chi.NewRouter()

	// Global middleware stack.
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Logger)
	router.Use(chimw.Recoverer)
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	hub := ws.NewHub(deps.PubSub)
	authn := middleware.Auth(cfg.JWT.Secret)
	limit := middleware.RateLimit(ctx, cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)

	s := &Server{
		router: router,
		httpServer: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}

	// Mount API routes on /api/v1 with four sub-groups:
	// 1. Unauthenticated login/refresh, limited per client IP.
	// 2. Any signed-in actor: collections and /me.
	// 3. Tenant members only: inventory stock edits.
	// 4. Platform owner only: provisioning, seed, reset.
	router.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(ctx, cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst))
			registerAuthRoutes(newAPI(r, "TenantDesk Auth API", true), deps)
		})

		r.Group(func(r chi.Router) {
			r.Use(authn)
			r.Use(limit)
			registerAPIRoutes(newAPI(r, "TenantDesk API", false), deps)
		})

		r.Group(func(r chi.Router) {
			r.Use(authn)
			r.Use(middleware.RequireTenant())
			r.Use(limit)
			registerTenantRoutes(newAPI(r, "TenantDesk Tenant API", false), deps)
		})

		r.Group(func(r chi.Router) {
			r.Use(authn)
			r.Use(middleware.RequireOwner())
			registerAdminRoutes(newAPI(r, "TenantDesk Admin API", false), deps)
		})
	})

	// WebSocket routes.
	router.Route("/ws", func(r chi.Router) {
		r.Use(authn)
		registerWSRoutes(r, hub)
	})

	// Health check (unauthenticated).
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return s
}

// newAPI builds a huma API on one chi group. Only one group serves the
// OpenAPI document and docs UI, since all groups share the /api/v1 mux.
func newAPI(r chi.Router, title string, docs bool) huma.API {
	apiConfig := huma.DefaultConfig(title, "1.0.0")
	apiConfig.Servers = []*huma.Server{
		{URL: "/api/v1"},
	}
	if !docs {
		apiConfig.OpenAPIPath = ""
		apiConfig.DocsPath = ""
		apiConfig.SchemasPath = ""
	}
	return humachi.New(r, apiConfig)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins listening for HTTP requests.
func (s *Server) Start(_ context.Context) error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
