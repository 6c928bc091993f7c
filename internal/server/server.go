package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/osse101/RecipeForge_Go/internal/database"
	"github.com/osse101/RecipeForge_Go/internal/handler"
	"github.com/osse101/RecipeForge_Go/internal/logger"
	"github.com/osse101/RecipeForge_Go/internal/metrics"
	"github.com/osse101/RecipeForge_Go/internal/player"
	"github.com/osse101/RecipeForge_Go/internal/recipe"
	"github.com/osse101/RecipeForge_Go/internal/sse"
)

// Config holds the HTTP surface settings
type Config struct {
	Port           int
	APIKey         string
	TrustedProxies []string
	ServiceName    string
	MaxBodyBytes   int64
	Detector       DetectorConfig
}

// Deps are the services the routes call into. DBPool is nil with the file
// storage backend; Events is nil when streaming is off.
type Deps struct {
	Recipes recipe.Service
	Players *player.Directory
	DBPool  database.Pool
	Events  *sse.Hub
}

type Server struct {
	httpServer *http.Server
	router     chi.Router
}

// NewServer creates a new Server instance
func NewServer(cfg Config, deps Deps) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxRequestBodySize
	}

	r := chi.NewRouter()

	// Chi middleware executes in order defined (outermost to innermost)
	proxies := NewTrustedProxies(cfg.TrustedProxies)
	detector := NewSuspiciousActivityDetector(cfg.Detector)

	r.Use(SecurityHeadersMiddleware())
	r.Use(AuthMiddleware(cfg.APIKey, proxies, detector))
	r.Use(SecurityLoggingMiddleware(proxies, detector))
	r.Use(RequestSizeLimitMiddleware(cfg.MaxBodyBytes))
	r.Use(metrics.Middleware)
	r.Use(loggingMiddleware)

	// Health check routes (unversioned)
	r.Get("/healthz", handler.HandleHealthz())
	r.Get("/readyz", handler.HandleReadyz(deps.Recipes, deps.DBPool))
	r.Get("/version", handler.HandleVersion(cfg.ServiceName, deps.Recipes))
	r.Handle("/metrics", promhttp.Handler())

	recipes := handler.NewRecipeHandler(deps.Recipes)
	crafts := handler.NewCraftHandler(deps.Recipes, deps.Players)
	players := handler.NewPlayerHandler(deps.Recipes, deps.Players)
	admin := handler.NewAdminHandler(deps.Recipes, deps.Players)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", recipes.HandleList)
			r.Post("/", recipes.HandleRegister)
			r.Get("/ids", recipes.HandleIDs)
			r.Post("/reload", recipes.HandleReload)
			r.Post("/unregister", recipes.HandleBulkUnregister)

			r.Route("/{recipeID}", func(r chi.Router) {
				r.Get("/", recipes.HandleGet)
				r.Put("/", recipes.HandleUpdate)
				r.Delete("/", recipes.HandleUnregister)
				r.Post("/save", recipes.HandleSave)
				r.Get("/persisted", recipes.HandlePersisted)
				r.Delete("/crafts", crafts.HandlePrune)
			})
		})

		r.Route("/crafts", func(r chi.Router) {
			r.Post("/", crafts.HandleRecordCraft)
			r.Get("/check", crafts.HandleCheck)
			r.Post("/flush", crafts.HandleFlush)
		})

		r.Route("/worlds/{world}", func(r chi.Router) {
			r.Delete("/crafts", crafts.HandleCleanupWorld)
			r.Get("/crafts/{recipeID}", crafts.HandleWorldCount)
			r.Get("/players", players.HandleWorldPlayers)
		})

		r.Route("/players/{playerID}", func(r chi.Router) {
			r.Delete("/", players.HandleForget)
			r.Put("/presence", players.HandleJoin)
			r.Get("/presence", players.HandleGetPresence)
			r.Delete("/presence", players.HandleLeave)
			r.Get("/crafts/{recipeID}", players.HandlePlayerCrafts)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Get("/metrics", admin.HandleGetMetrics)
			r.Get("/players", players.HandleStats)
		})

		if deps.Events != nil {
			r.Get("/events", sse.Handler(deps.Events))
		}
	})

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           r,
			ReadHeaderTimeout: DefaultReadHeaderTimeout,
		},
		router: r,
	}
}

// Handler returns the fully wrapped router
func (s *Server) Handler() http.Handler {
	return s.router
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if !rw.written {
		rw.statusCode = statusCode
		rw.written = true
		rw.ResponseWriter.WriteHeader(statusCode)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying flusher
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// quietPaths are served without request logging
var quietPaths = []string{"/healthz", "/readyz", "/metrics"}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, p := range quietPaths {
			if strings.HasPrefix(r.URL.Path, p) {
				next.ServeHTTP(w, r)
				return
			}
		}

		start := time.Now()

		// A caller-supplied id lets a plugin correlate its own logs
		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" {
			requestID = logger.GenerateRequestID()
		}
		w.Header().Set(HeaderRequestID, requestID)

		ctx := logger.WithRequestID(r.Context(), requestID)
		r = r.WithContext(ctx)
		log := logger.FromContext(ctx)

		log.Info(LogMsgRequestStarted,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"content_length", r.ContentLength,
			"user_agent", r.UserAgent())
		log.Debug(LogMsgRequestHeaders, "headers", redactHeaders(r.Header))

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		log.Info(LogMsgRequestCompleted,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds())
	})
}

// redactHeaders copies h with credentials masked
func redactHeaders(h http.Header) http.Header {
	out := make(http.Header, len(h))
	for k, v := range h {
		if strings.EqualFold(k, HeaderAPIKey) || strings.EqualFold(k, HeaderAuthorization) {
			out[k] = []string{RedactedValue}
		} else {
			out[k] = v
		}
	}
	return out
}

// Start starts the server
func (s *Server) Start() error {
	slog.Default().Info(LogMsgServerStarting, "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	slog.Default().Info(LogMsgServerStopping)
	return s.httpServer.Shutdown(ctx)
}
