package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vogiaan1904/ticketbottle-checkout/internal/monitoring"
	"github.com/vogiaan1904/ticketbottle-checkout/internal/service"
	pkgErrors "github.com/vogiaan1904/ticketbottle-checkout/pkg/errors"
	"github.com/vogiaan1904/ticketbottle-checkout/pkg/response"
)

type ctxKey string

const claimsKey ctxKey = "claims"

func claimsFrom(ctx context.Context) *service.Claims {
	claims, _ := ctx.Value(claimsKey).(*service.Claims)
	return claims
}

// Authenticate requires a bearer token and stores its claims on the
// request context.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			response.Error(w, pkgErrors.NewHTTPError(http.StatusUnauthorized, 401, "Missing bearer token"))
			return
		}

		claims, err := h.tokenSvc.Parse(token)
		if err != nil {
			h.respondError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

// RequireHost gates the venue-facing endpoints. The services trust the
// identity delivered here; authentication never happens below this
// layer.
func (h *Handler) RequireHost(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFrom(r.Context())
		if claims == nil || claims.Role != service.RoleHost {
			response.Error(w, pkgErrors.NewHTTPError(http.StatusForbidden, 403, "Host role required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimit counts hits per caller in Redis so the limit holds across
// instances.
func (h *Handler) RateLimit(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := r.RemoteAddr
			if host, _, found := strings.Cut(r.RemoteAddr, ":"); found {
				caller = host
			}
			if claims := claimsFrom(r.Context()); claims != nil {
				caller = claims.Subject
			}

			count, err := h.rlRepo.Hit(r.Context(), scope, caller, h.rlConf.Window)
			if err != nil {
				// Fail open on limiter errors.
				h.l.Errorf(r.Context(), "delivery.http.RateLimit: %v", err)
				next.ServeHTTP(w, r)
				return
			}
			if count > int64(h.rlConf.Requests) {
				h.respondError(w, r, service.ErrRateLimited)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Metrics records request duration per route pattern.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		monitoring.ObserveHTTPRequest(r.Method, path, strconv.Itoa(sw.status), time.Since(start))
	})
}
