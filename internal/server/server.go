// Package server exposes the calculator over HTTP: a public API for
// the calculator page and a basic-auth admin API for catalog, FAQ,
// settings, and quote management.
package server

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/deelab/costcalc/internal/catalog"
	"github.com/deelab/costcalc/internal/config"
	"github.com/deelab/costcalc/internal/store"
)

type Server struct {
	cfg     *config.Config
	store   store.Store
	catalog *catalog.Provider
	quotes  *quoteLimiter
	router  *chi.Mux
}

func NewServer(cfg *config.Config, st store.Store) *Server {
	s := &Server{
		cfg:     cfg,
		store:   st,
		catalog: catalog.NewProvider(st),
		quotes:  newQuoteLimiter(cfg.Quotes.RatePerMinute, cfg.Quotes.RateBurst),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealthz)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/annotation-types", s.handleListActiveTypes)
		r.Get("/faq", s.handleListActiveFAQ)
		r.Get("/contact-settings", s.handleGetSetting(settingContact))
		r.Get("/important-notes", s.handleGetSetting(settingNotes))
		r.Get("/site-settings", s.handleGetSetting(settingSite))
		r.Post("/estimate", s.handleEstimate)
		r.Post("/quote-request", s.handleQuoteRequest)

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.basicAuth)

			r.Route("/annotation-types", func(r chi.Router) {
				r.Get("/", s.handleListAllTypes)
				r.Post("/", s.handleCreateType)
				r.Put("/{id}", s.handleUpdateType)
				r.Post("/{id}/toggle", s.handleToggleType)
				r.Delete("/{id}", s.handleDeleteType)
			})

			r.Route("/faq", func(r chi.Router) {
				r.Get("/", s.handleListAllFAQ)
				r.Post("/", s.handleCreateFAQ)
				r.Post("/reorder", s.handleReorderFAQ)
				r.Put("/{id}", s.handleUpdateFAQ)
				r.Post("/{id}/toggle", s.handleToggleFAQ)
				r.Delete("/{id}", s.handleDeleteFAQ)
			})

			r.Get("/appearance-settings", s.handleGetSetting(settingAppearance))
			r.Put("/contact-settings", s.handlePutSetting(settingContact))
			r.Put("/important-notes", s.handlePutSetting(settingNotes))
			r.Put("/site-settings", s.handlePutSetting(settingSite))
			r.Put("/appearance-settings", s.handlePutSetting(settingAppearance))

			r.Route("/quotes", func(r chi.Router) {
				r.Get("/", s.handleListQuotes)
				r.Get("/export", s.handleExportQuotes)
				r.Get("/{id}", s.handleGetQuote)
				r.Delete("/{id}", s.handleDeleteQuote)
			})
		})
	})

	s.router = r
	return s
}

// Handler returns the root http.Handler, exported for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zap.L().Error("server shutdown", zap.Error(err))
		}
	}()

	zap.L().Info("starting server", zap.Int("port", s.cfg.Server.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server listen")
	}
	return nil
}

func (s *Server) basicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// No configured password means the admin API is disabled.
		if s.cfg.Admin.Password == "" {
			writeError(w, http.StatusForbidden, "admin api disabled")
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || !credentialsMatch(user, s.cfg.Admin.User) || !credentialsMatch(pass, s.cfg.Admin.Password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="costcalc admin"`)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// credentialsMatch compares a supplied credential against the
// configured one in constant time. Both sides are hashed first so the
// comparison does not leak the configured length either.
func credentialsMatch(supplied, configured string) bool {
	a := sha256.Sum256([]byte(supplied))
	b := sha256.Sum256([]byte(configured))
	return subtle.ConstantTimeCompare(a[:], b[:]) == 1
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
