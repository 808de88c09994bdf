package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/2beens/traininglog/internal/telemetry/tracing"
	"github.com/2beens/traininglog/pkg"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	AuthTokenHeader = "X-TRAININGLOG-TOKEN"
	OwnerIDHeader   = "X-Owner-ID"
)

type AuthMiddlewareHandler struct {
	apiSecret    string
	allowedPaths map[string]bool
}

func NewAuthMiddlewareHandler(apiSecret string) *AuthMiddlewareHandler {
	return &AuthMiddlewareHandler{
		apiSecret: apiSecret,
		allowedPaths: map[string]bool{
			"/":       true,
			"/health": true,
		},
	}
}

// AuthCheck lets through requests carrying the API secret, and puts the
// owner from the X-Owner-ID header into the request context.
func (h *AuthMiddlewareHandler) AuthCheck() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracing.GlobalTracer.Start(r.Context(), "middleware.auth")
			defer span.End()

			if r.Method == http.MethodOptions {
				w.Header().Add("Allow", "GET, POST, PUT, DELETE, OPTIONS")
				w.WriteHeader(http.StatusOK)
				span.SetStatus(codes.Ok, "options-ok")
				return
			}

			if h.allowedPaths[r.URL.Path] {
				span.SetStatus(codes.Ok, "ok")
				next.ServeHTTP(w, r)
				return
			}

			authToken := r.Header.Get(AuthTokenHeader)
			if authToken == "" {
				log.Tracef("[missing token] [auth middleware] unauthorized => %s", r.URL.Path)
				http.Error(w, "no can do", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "missing-auth-token")
				return
			}
			if h.apiSecret == "" || subtle.ConstantTimeCompare([]byte(authToken), []byte(h.apiSecret)) != 1 {
				log.Tracef("[invalid token] [auth middleware] unauthorized => %s", r.URL.Path)
				http.Error(w, "no can do", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "invalid-auth-token")
				return
			}

			ownerID := strings.TrimSpace(r.Header.Get(OwnerIDHeader))
			if ownerID == "" {
				log.Tracef("[missing owner] [auth middleware] => %s", r.URL.Path)
				http.Error(w, "owner not set", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "missing-owner")
				return
			}
			span.SetAttributes(attribute.String("owner", ownerID))

			span.SetStatus(codes.Ok, "ok")
			next.ServeHTTP(w, r.WithContext(pkg.ContextWithOwnerID(ctx, ownerID)))
		})
	}
}
