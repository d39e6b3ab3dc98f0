package httpapi

import (
	"net/http"
	"slices"

	"github.com/rs/cors"
	"github.com/vvka-141/intake/internal/metrics"
	"github.com/vvka-141/intake/pkg/intake"
)

// newCORS answers preflights and sets CORS headers for allowed origins.
// It never rejects a request by itself; newOriginGate does that.
func newCORS(allowedOrigins []string) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
}

// newOriginGate refuses requests carrying an Origin outside allowedOrigins
// before any route runs. Requests without an Origin header pass.
func newOriginGate(allowedOrigins []string, collector *metrics.Collector, logger intake.Logger, next http.Handler) http.Handler {
	allowAll := slices.Contains(allowedOrigins, "*")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" || allowAll || slices.Contains(allowedOrigins, origin) {
			next.ServeHTTP(w, r)
			return
		}

		logger.Error("CORS Error: Origin %s is not allowed.", origin)
		collector.ObserveRejectedOrigin()
		writeJSON(w, http.StatusForbidden, messageResponse{Message: "Not allowed by CORS"})
	})
}
