// Package httpapi serves question generation, answer evaluation and a live
// practice session over HTTP and websockets.
package httpapi

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/abhisek/borderdrill/internal/evaluation"
	"github.com/abhisek/borderdrill/internal/logger"
	"github.com/abhisek/borderdrill/internal/questiongen"
	"github.com/abhisek/borderdrill/internal/session"
)

// Container holds all dependencies for the router.
type Container struct {
	Generator questiongen.Generator
	Evaluator evaluation.Evaluator

	// Session is the template for websocket sessions. Generator and
	// Evaluator default to the ones above; OnChange is set per connection.
	Session session.Options

	Logger *logger.Logger

	// AllowedOrigins lists CORS and websocket origins. Empty allows all.
	AllowedOrigins []string
}

// NewRouter creates the API router with all endpoints.
func NewRouter(c *Container) http.Handler {
	if c.Logger == nil {
		c.Logger = logger.Nop()
	}
	if c.Session.Generator == nil {
		c.Session.Generator = c.Generator
	}
	if c.Session.Evaluator == nil {
		c.Session.Evaluator = c.Evaluator
	}
	if c.Session.Logger == nil {
		c.Session.Logger = c.Logger
	}

	r := mux.NewRouter()
	r.Use(corsMiddleware(c.AllowedOrigins))

	api := &apiHandler{gen: c.Generator, eval: c.Evaluator, log: c.Logger.With("component", "httpapi")}
	ws := newSessionHandler(c.Session, c.AllowedOrigins, c.Logger)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	v := r.PathPrefix("/api").Subrouter()
	v.HandleFunc("/generate-question", api.GenerateQuestion).Methods("POST", "OPTIONS")
	v.HandleFunc("/evaluate-answer", api.EvaluateAnswer).Methods("POST", "OPTIONS")
	v.HandleFunc("/catalog", api.Catalog).Methods("GET", "OPTIONS")
	v.HandleFunc("/session/ws", ws.ServeWS).Methods("GET")

	return otelhttp.NewHandler(r, "borderdrill.http",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

func originAllowed(allowed []string, origin string) bool {
	return len(allowed) == 0 || origin == "" || slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
}

func corsMiddleware(allowed []string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case len(allowed) == 0:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "" && originAllowed(allowed, origin):
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", strings.Join([]string{"Content-Type", "Authorization"}, ", "))

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
