package httpserver

import (
	"net/http"

	"github.com/go-chi/cors"
)

// Routes defines HTTP endpoints.
type Routes struct {
	Weather http.Handler
	Live    http.HandlerFunc
	Health  http.HandlerFunc
	Metrics http.Handler
}

// NewRouter sets up HTTP routing. allowedOrigins restricts cross-origin reads
// of the query endpoint; empty means any origin.
func NewRouter(routes Routes, allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	withCORS := cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		MaxAge:         300,
	})

	mux := http.NewServeMux()
	if routes.Weather != nil {
		mux.Handle("/api/weather", withCORS(method(http.MethodGet, routes.Weather.ServeHTTP)))
	}
	if routes.Live != nil {
		mux.Handle("/ws", method(http.MethodGet, routes.Live))
	}
	if routes.Health != nil {
		mux.Handle("/health", method(http.MethodGet, routes.Health))
	}
	if routes.Metrics != nil {
		mux.Handle("/metrics", method(http.MethodGet, routes.Metrics.ServeHTTP))
	}
	return mux
}

func method(expected string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler(w, r)
	}
}
