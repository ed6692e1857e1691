// Package api exposes assessment decisions over HTTP.
package api

import (
	"context"
	"net/http"

	"approved-premises-workers/internal/assessment"
	"approved-premises-workers/internal/common/auth"
	"approved-premises-workers/internal/common/logger"
	"approved-premises-workers/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Decider interface {
	Accept(ctx context.Context, cmd assessment.AcceptCommand) (assessment.Result, error)
	Reject(ctx context.Context, cmd assessment.RejectCommand) (assessment.Result, error)
}

type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*auth.TokenInfo, error)
}

type UserFinder interface {
	FindByDeliusUsername(ctx context.Context, username string) (*models.User, error)
}

// ReadinessCheck reports whether a dependency can serve requests.
type ReadinessCheck func(ctx context.Context) error

type Handler struct {
	decider Decider
	tokens  TokenValidator
	users   UserFinder
	checks  map[string]ReadinessCheck
	logger  logger.Logger
}

func NewHandler(decider Decider, tokens TokenValidator, users UserFinder, checks map[string]ReadinessCheck, log logger.Logger) *Handler {
	return &Handler{
		decider: decider,
		tokens:  tokens,
		users:   users,
		checks:  checks,
		logger:  log.WithFields(map[string]interface{}{"component": "api"}),
	}
}

func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(h.recoverMiddleware)
	r.Use(metricsMiddleware)

	r.Get("/health", h.health)
	r.Get("/ready", h.ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/assessments/{assessmentId}", func(r chi.Router) {
		r.Use(h.authMiddleware)
		r.Post("/acceptance", h.acceptAssessment)
		r.Post("/rejection", h.rejectAssessment)
	})
	return r
}
