package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goldenoak/threadline/pkg/service/worker"
	"github.com/goldenoak/threadline/pkg/usecase"
	"github.com/goldenoak/threadline/pkg/utils/logging"
	"github.com/goldenoak/threadline/pkg/utils/safe"
)

// Server serves the dashboard API over the use case layer
type Server struct {
	router *chi.Mux
	uc     *usecase.UseCases
	cache  *worker.HistoryRefreshWorker
}

// Options configures the Server
type Options func(*Server)

// WithHistoryCache serves dashboard polls from the refresh worker's cached
// view when no per-request window override is given.
func WithHistoryCache(cache *worker.HistoryRefreshWorker) Options {
	return func(s *Server) {
		s.cache = cache
	}
}

// New creates the HTTP server over the given use cases
func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Route("/chat-history", func(r chi.Router) {
			r.Get("/", s.chatHistoryHandler)
			r.Delete("/conversations/{conversationID}", s.deleteConversationHandler)
		})
		r.Post("/interactions", s.ingestHandler)
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	safe.Write(r.Context(), w, []byte(`{"status":"ok"}`))
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
