// Package mockapi is an in-memory rendition of the petsocial REST backend,
// used for local runs of the client and for integration tests.
package mockapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/petsocial/petsocial/libs/auth"
	"github.com/petsocial/petsocial/libs/httpx"
	otelx "github.com/petsocial/petsocial/libs/otel"
)

const (
	defaultBasePath   = "/api"
	defaultAccessTTL  = time.Hour
	defaultRefreshTTL = 30 * 24 * time.Hour
	maxBodyBytes      = 6 << 20
	handlerTimeout    = 30 * time.Second
)

type Config struct {
	Secret     string
	BasePath   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Providers  []string
	Workday    Workday
	Logger     *slog.Logger
	Now        func() time.Time

	// RateLimit, when set, runs ahead of every handler.
	RateLimit httpx.Middleware
	Tracing   bool
}

type Server struct {
	cfg   Config
	state *state
}

func New(cfg Config) *Server {
	if cfg.Secret == "" {
		cfg.Secret = "petsocial-dev-secret"
	}
	if cfg.BasePath == "" {
		cfg.BasePath = defaultBasePath
	}
	cfg.BasePath = "/" + strings.Trim(cfg.BasePath, "/")
	if cfg.BasePath == "/" {
		cfg.BasePath = ""
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = defaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = defaultRefreshTTL
	}
	if len(cfg.Providers) == 0 {
		cfg.Providers = []string{"google", "facebook"}
	}
	if cfg.Workday.Start == "" {
		cfg.Workday.Start = "09:00"
	}
	if cfg.Workday.End == "" {
		cfg.Workday.End = "17:00"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Server{cfg: cfg, state: newState()}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.health)

	mux.HandleFunc("GET /auth/providers", s.providers)
	mux.HandleFunc("POST /auth/login", s.login)
	mux.HandleFunc("POST /auth/refresh", s.refresh)
	mux.HandleFunc("POST /auth/logout", s.logout)

	mux.HandleFunc("GET /appointments/available-times/{businessId}", s.availableTimes)
	mux.HandleFunc("POST /appointments/schedule", s.requireUser(s.schedule))
	mux.HandleFunc("GET /appointments/my", s.requireUser(s.myAppointments))
	mux.HandleFunc("DELETE /appointments/{id}", s.requireUser(s.cancel))

	mux.HandleFunc("GET /business", s.listBusinesses)
	mux.HandleFunc("GET /business/{id}", s.getBusiness)
	mux.HandleFunc("GET /business/{id}/services", s.businessServices)
	mux.HandleFunc("POST /business", s.requireUser(s.createBusiness))

	mux.HandleFunc("GET /ui-config", s.getUIConfig)
	mux.HandleFunc("PUT /ui-config", s.requireUser(s.putUIConfig))
	mux.HandleFunc("POST /upload", s.requireUser(s.upload))
	mux.HandleFunc("GET /uploads/{name}", s.serveUpload)

	var h http.Handler = mux
	if s.cfg.BasePath != "" {
		h = http.StripPrefix(s.cfg.BasePath, h)
	}
	h = httpx.Chain(h,
		httpx.WithRequestID,
		httpx.WithAccessLog(s.cfg.Logger),
		s.cfg.RateLimit,
		httpx.WithBodyLimit(maxBodyBytes),
		httpx.WithTimeout(handlerTimeout),
	)
	if s.cfg.Tracing {
		h = otelx.Handler(h, "mock-backend")
	}
	return h
}

type userHandler func(w http.ResponseWriter, r *http.Request, userID string)

func (s *Server) requireUser(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") || len(strings.TrimSpace(header)) <= len("Bearer ") {
			writeError(w, http.StatusUnauthorized, "missing or invalid Authorization header")
			return
		}
		claims, err := auth.ParseAndVerifyHS256(strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")), s.cfg.Secret)
		if err != nil || claims.ExpiredAt(s.cfg.Now()) {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next(w, r, claims.Sub)
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	writeRaw(w, status, body)
}

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody(msg))
}

func errorBody(msg string) map[string]any {
	return map[string]any{"success": false, "message": msg}
}
