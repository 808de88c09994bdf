package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/2beens/traininglog/internal/telemetry/metrics"
	"github.com/2beens/traininglog/pkg"

	log "github.com/sirupsen/logrus"
)

// PanicRecovery turns a panicking handler into a 500 response.
// The panic is logged with the owner it happened for, if known.
func PanicRecovery(metricsManager *metrics.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				ownerID, _ := pkg.OwnerIDFromContext(r.Context())
				log.WithFields(log.Fields{
					"method": r.Method,
					"path":   r.URL.Path,
					"owner":  ownerID,
				}).Errorf("panic while handling request: %v\n%s", rec, debug.Stack())

				if metricsManager != nil {
					metricsManager.CounterHandleRequestPanic.Inc()
				}
				pkg.WriteResponse(w, pkg.ContentType.Text, "internal error", http.StatusInternalServerError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
