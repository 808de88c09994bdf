package middleware

import (
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
)

// clients without a browser origin
var allowedUserAgentPrefixes = []string{
	"curl/",
	"test-agent",
	"TrainingLog/",
}

var corsAllowedHeaders = strings.Join([]string{
	"Accept",
	"Content-Type",
	"Content-Length",
	"Accept-Encoding",
	"Authorization",
	AuthTokenHeader,
	OwnerIDHeader,
}, ", ")

// Cors lets through requests from the given origins or from known
// non-browser clients. Everything else gets a 403.
func Cors(allowedOrigins []string) func(next http.Handler) http.Handler {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[strings.TrimSuffix(o, "/")] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if !origins[origin] && !knownUserAgent(r.UserAgent()) {
				log.Warnf("CORS: origin [%s] / agent [%s] not allowed for path [%s]", origin, r.UserAgent(), r.URL.Path)
				w.WriteHeader(http.StatusForbidden)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Headers", corsAllowedHeaders)
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Add("Vary", "Origin")

			next.ServeHTTP(w, r)
		})
	}
}

func knownUserAgent(userAgent string) bool {
	for _, prefix := range allowedUserAgentPrefixes {
		if strings.HasPrefix(userAgent, prefix) {
			return true
		}
	}
	return false
}
