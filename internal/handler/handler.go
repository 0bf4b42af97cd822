// Package handler exposes the planner over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/rodaje/rodaje/internal/config"
	"github.com/rodaje/rodaje/internal/middleware"
	"github.com/rodaje/rodaje/pkg/distance"
	apperrors "github.com/rodaje/rodaje/pkg/errors"
	"github.com/rodaje/rodaje/pkg/logger"
	"github.com/rodaje/rodaje/pkg/model"
	"github.com/rodaje/rodaje/pkg/scheduler"
)

const maxBodyBytes = 8 << 20

// PlanStore persists one plan per project.
type PlanStore interface {
	Save(ctx context.Context, projectID string, plan model.Plan) error
	Load(ctx context.Context, projectID string) (model.Plan, error)
	Delete(ctx context.Context, projectID string) error
}

// DistanceStore persists manual distances per project.
type DistanceStore interface {
	Upsert(ctx context.Context, projectID string, entries []distance.PairEntry) error
	List(ctx context.Context, projectID string) ([]distance.PairEntry, error)
}

// HealthCheck checks one dependency.
type HealthCheck func(ctx context.Context) error

// Deps are the collaborators of the handlers. Only Planner is required.
type Deps struct {
	Planner   *scheduler.Planner
	Plans     PlanStore
	Distances DistanceStore
	Provider  distance.Provider
	Defaults  config.PlannerConfig
	Checks    map[string]HealthCheck
	Version   string
	BuildTime string
}

// Handler serves the API.
type Handler struct {
	deps Deps
}

// New creates a Handler.
func New(deps Deps) *Handler {
	if deps.Planner == nil {
		deps.Planner = scheduler.NewPlanner()
	}
	return &Handler{deps: deps}
}

// RouterConfig configures NewRouter.
type RouterConfig struct {
	RateLimit   int // per IP per minute
	Timeout     time.Duration
	Metrics     http.Handler
	MetricsPath string
}

// NewRouter wires the middleware chain and every route.
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Metrics)
	r.Use(middleware.Logging)
	r.Use(middleware.Recovery)
	r.Use(middleware.SecurityHeaders)

	r.Get("/health", h.Health)
	r.Get("/version", h.VersionInfo)
	if cfg.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, cfg.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimit))
		if cfg.Timeout > 0 {
			r.Use(chimiddleware.Timeout(cfg.Timeout))
		}

		r.Post("/plans/generate", h.Generate)
		r.Post("/plans/validate", h.Validate)
		r.Post("/plans/edit", h.Edit)
		r.Post("/plans/evaluate-move", h.EvaluateMove)
		r.Post("/plans/stats", h.Stats)
		r.Post("/days/recalculate", h.RecalculateDay)
		r.Post("/distances/matrix", h.DistanceMatrix)
		r.Get("/projects/{projectID}/plan", h.LoadPlan)
		r.Delete("/projects/{projectID}/plan", h.DeletePlan)
		r.Get("/constraints/library", h.ConstraintLibrary)
		r.Get("/strategies", h.Strategies)
	})
	return r
}

func decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInvalidInput, "cuerpo de la petición no válido")
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func toAppError(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var ve *apperrors.ValidationErrors
	if errors.As(err, &ve) {
		return ve.ToAppError()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(err, apperrors.CodeTimeout, "tiempo de cálculo agotado")
	}
	return apperrors.Wrap(err, apperrors.CodeInternal, "error interno")
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := toAppError(err)
	status := appErr.HTTPStatus
	if status == 0 {
		status = apperrors.GetHTTPStatus(appErr)
	}
	ev := logger.WithContext(r.Context()).Warn()
	if status >= http.StatusInternalServerError {
		ev = logger.WithContext(r.Context()).Error()
	}
	ev.Err(err).Str("code", string(appErr.Code)).Msg("request failed")

	respondJSON(w, status, map[string]interface{}{
		"error":   true,
		"code":    appErr.Code,
		"message": appErr.Message,
		"details": appErr.Details,
		"fields":  appErr.Fields,
	})
}
