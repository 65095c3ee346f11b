package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/rasync/internal/api/handler"
	"github.com/mcoot/rasync/internal/api/middleware"
	"github.com/mcoot/rasync/internal/api/response"
	basemw "github.com/mcoot/rasync/internal/middleware"
	"github.com/mcoot/rasync/internal/web/sse"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger            *slog.Logger
	APIToken          string
	AccountService    handler.AccountService
	SessionController handler.SessionController
	Hub               *sse.Hub
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	accountHandler := handler.NewAccountHandler(cfg.AccountService)
	sessionHandler := handler.NewSessionHandler(cfg.SessionController)
	eventsHandler := handler.NewEventsHandler(cfg.Hub, cfg.SessionController, cfg.Logger)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.APIToken)
	loggingMiddleware := basemw.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(loggingMiddleware)
	api.Use(recoveryMiddleware)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler(cfg.Hub)).Methods(http.MethodGet)

	protected := api.NewRoute().Subrouter()
	protected.Use(authMiddleware)

	// Account routes
	protected.HandleFunc("/account", accountHandler.Get).Methods(http.MethodGet)
	protected.HandleFunc("/account/login", accountHandler.Login).Methods(http.MethodPost)
	protected.HandleFunc("/account/logout", accountHandler.Logout).Methods(http.MethodPost)

	// Session routes
	protected.HandleFunc("/session", sessionHandler.Load).Methods(http.MethodPost)
	protected.HandleFunc("/session", sessionHandler.End).Methods(http.MethodDelete)
	protected.HandleFunc("/session/snapshot", sessionHandler.Snapshot).Methods(http.MethodGet)
	protected.HandleFunc("/session/events", sessionHandler.Events).Methods(http.MethodPost)
	protected.HandleFunc("/submissions/retry", sessionHandler.Retry).Methods(http.MethodPost)

	// Notification stream
	protected.HandleFunc("/events", eventsHandler.Stream).Methods(http.MethodGet)

	return r
}

func healthHandler(hub *sse.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, response.HealthResponse{
			Status:     "ok",
			SSEClients: hub.ClientCount(),
		})
	}
}
