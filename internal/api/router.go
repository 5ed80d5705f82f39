package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"

	"github.com/erazemk/inventaris/internal/auth"
	"github.com/erazemk/inventaris/internal/logging"
	"github.com/erazemk/inventaris/internal/model"
	"github.com/erazemk/inventaris/internal/observability"
)

// ItemStore is the persistence the item handlers need.
type ItemStore interface {
	List(ctx context.Context, filter string) ([]model.Item, error)
	Get(ctx context.Context, id int64) (*model.Item, error)
	Create(ctx context.Context, f model.ItemFields) (*model.Item, error)
	Update(ctx context.Context, id int64, f model.ItemFields) (*model.Item, error)
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context) (*model.Stats, error)
	SetImage(ctx context.Context, id int64, image []byte, mime string) error
	Image(ctx context.Context, id int64) ([]byte, string, error)
	Ping(ctx context.Context) error
}

// Deps are the collaborators NewRouter wires together.
type Deps struct {
	Items   ItemStore
	Gate    *auth.Gate
	Logger  *zap.Logger
	Metrics *observability.Metrics

	// CORSOrigins defaults to "*".
	CORSOrigins []string
	// LoginRatePerMinute limits login attempts per client IP. Zero disables the limit.
	LoginRatePerMinute int
}

// NewRouter creates the HTTP handler with all endpoints registered under /api
// and Prometheus metrics on /metrics.
func NewRouter(d Deps) http.Handler {
	logger := logging.Named(d.Logger, "api")

	authHandler := &AuthHandler{Gate: d.Gate, Logger: logger, Metrics: d.Metrics}
	itemsHandler := &ItemsHandler{Items: d.Items, Logger: logger}
	systemHandler := &SystemHandler{Items: d.Items, Logger: logger, Now: time.Now}

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		AccessLog(logger),
		middleware.Recoverer,
		SecureHeaders(logger),
		cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:         300,
		}),
		d.Metrics.Middleware,
	)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.With(loginLimiter(d.LoginRatePerMinute)).Post("/login", authHandler.Login)
		r.Get("/health", systemHandler.Health)

		// Public reads.
		r.Get("/items", itemsHandler.List)
		r.Get("/items/{id}", itemsHandler.Get)
		r.Get("/items/{id}/image", itemsHandler.GetImage)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(d.Gate, logger))

			r.Post("/logout", authHandler.Logout)
			r.Post("/items", itemsHandler.Create)
			r.Put("/items/{id}", itemsHandler.Update)
			r.Delete("/items/{id}", itemsHandler.Delete)
			r.Put("/items/{id}/image", itemsHandler.UploadImage)
			r.Get("/stats", systemHandler.Stats)
		})
	})

	return r
}

func loginLimiter(perMinute int) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(perMinute, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			jsonError(w, http.StatusTooManyRequests, "Too many login attempts, try again later")
		}),
	)
}
