package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"approved-premises-workers/internal/common/metrics"
	"approved-premises-workers/internal/models"
	"approved-premises-workers/internal/store/postgres"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type ctxKey string

const (
	ctxKeyRequestID ctxKey = "request_id"
	ctxKeyUser      ctxKey = "user"
)

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", reqID)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyRequestID, reqID)))
	})
}

func (h *Handler) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.logger.Error("panic serving request", map[string]interface{}{
					"path":      r.URL.Path,
					"panic":     rec,
					"requestId": requestIDFromContext(r.Context()),
				})
				writeProblem(w, r, newProblem(http.StatusInternalServerError, "There was an unexpected problem"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	})
}

// authMiddleware resolves the bearer token to a known user.
func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			writeProblem(w, r, newProblem(http.StatusUnauthorized, "A bearer token is required"))
			return
		}

		info, err := h.tokens.ValidateToken(r.Context(), token)
		if err != nil {
			h.logger.Warn("token rejected", map[string]interface{}{
				"error":     err.Error(),
				"requestId": requestIDFromContext(r.Context()),
			})
			writeProblem(w, r, newProblem(http.StatusUnauthorized, "The bearer token is not valid"))
			return
		}

		user, err := h.users.FindByDeliusUsername(r.Context(), info.DeliusUsername())
		if err != nil {
			if !errors.Is(err, postgres.ErrUserNotFound) {
				h.logger.Error("user lookup failed", map[string]interface{}{
					"username": info.DeliusUsername(),
					"error":    err.Error(),
				})
				writeProblem(w, r, newProblem(http.StatusInternalServerError, "There was an unexpected problem"))
				return
			}
			writeProblem(w, r, newProblem(http.StatusUnauthorized, "The user is not known to this service"))
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyUser, user)))
	})
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return token, token != ""
}

func userFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(ctxKeyUser).(*models.User)
	return u, ok
}

func requestIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return s
	}
	return ""
}
