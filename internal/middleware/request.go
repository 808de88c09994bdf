package middleware

import (
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"
)

func LogRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Tracef(" ====> request [%s] path: [%s] [owner: %s] [UA: %s]",
				r.Method, r.URL.Path, r.Header.Get(OwnerIDHeader), r.Header.Get("User-Agent"),
			)
			next.ServeHTTP(w, r)
		})
	}
}

// DrainAndCloseRequest drains what the handler left of the request body and closes it,
// so the connection can be reused.
func DrainAndCloseRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			if r.Body != nil {
				_, _ = io.Copy(io.Discard, r.Body)
				_ = r.Body.Close()
			}
		})
	}
}
