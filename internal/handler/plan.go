package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rodaje/rodaje/internal/metrics"
	"github.com/rodaje/rodaje/pkg/distance"
	"github.com/rodaje/rodaje/pkg/edit"
	apperrors "github.com/rodaje/rodaje/pkg/errors"
	"github.com/rodaje/rodaje/pkg/logger"
	"github.com/rodaje/rodaje/pkg/model"
	"github.com/rodaje/rodaje/pkg/scheduler"
	"github.com/rodaje/rodaje/pkg/scheduler/solver"
	"github.com/rodaje/rodaje/pkg/stats"
	"github.com/rodaje/rodaje/pkg/validator"
)

// GenerateResponse is the body of a successful generation.
type GenerateResponse struct {
	Success    bool                `json:"success"`
	Message    string              `json:"message,omitempty"`
	Plan       model.Plan          `json:"plan"`
	Report     *validator.Report   `json:"report"`
	Summary    *stats.Summary      `json:"summary"`
	Statistics *solver.Statistics  `json:"statistics"`
	Distances  distance.AutoResult `json:"distances"`
	Persisted  bool                `json:"persisted"`
	Duration   string              `json:"duration"`
}

// Generate handles POST /api/v1/plans/generate. With ?persist=true the plan replaces the
// project's stored plan.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req scheduler.Request
	if err := decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	persist, _ := strconv.ParseBool(r.URL.Query().Get("persist"))
	if persist {
		if err := h.requireStore(req.ProjectID); err != nil {
			respondError(w, r, err)
			return
		}
	}

	ctx := r.Context()
	if req.ProjectID != "" {
		ctx = logger.ContextWithProject(ctx, req.ProjectID)
	}
	req.Options = h.deps.Defaults.Defaults(req.Options)

	if req.ProjectID != "" && h.deps.Distances != nil {
		stored, err := h.deps.Distances.List(ctx, req.ProjectID)
		if err != nil {
			respondError(w, r, err)
			return
		}
		// request entries are applied last so they win
		req.ManualDistances = append(stored, req.ManualDistances...)
	}

	strategy := req.Strategy
	if strategy == "" {
		strategy = solver.StrategyGreedy
	}

	res, err := h.deps.Planner.Generate(ctx, req)
	if err != nil {
		metrics.RecordPlanGeneration(strategy, false, 0, 0)
		respondError(w, r, err)
		return
	}
	metrics.RecordPlanGeneration(strategy, true, res.Duration, len(res.Plan.Days))
	recordReport(res.Report)

	if persist {
		if err := h.deps.Plans.Save(ctx, req.ProjectID, res.Plan); err != nil {
			respondError(w, r, err)
			return
		}
	}

	respondJSON(w, http.StatusOK, GenerateResponse{
		Success:    true,
		Message:    res.Message,
		Plan:       res.Plan,
		Report:     res.Report,
		Summary:    res.Summary,
		Statistics: res.Statistics,
		Distances:  res.Distances,
		Persisted:  persist,
		Duration:   res.Duration.String(),
	})
}

func recordReport(rep *validator.Report) {
	if rep == nil {
		return
	}
	metrics.SetPlanScore(rep.Score)
	for _, f := range rep.Findings {
		metrics.RecordFinding(string(f.Rule), string(f.Severity))
	}
}

func (h *Handler) requireStore(projectID string) error {
	if h.deps.Plans == nil {
		return apperrors.New(apperrors.CodeInvalidInput, "la persistencia no está configurada")
	}
	if projectID == "" {
		return apperrors.InvalidInput("projectId", "es obligatorio para guardar el plan")
	}
	return nil
}

// PlanRequest carries a plan and the rule settings to check it with.
type PlanRequest struct {
	Plan    model.Plan             `json:"plan"`
	Options model.Options          `json:"options"`
	Rules   map[string]interface{} `json:"rules,omitempty"`
}

func (h *Handler) validator(opts model.Options, rules map[string]interface{}) *validator.Validator {
	opts = h.deps.Defaults.Defaults(opts).WithDefaults()
	return validator.New(&validator.Config{Options: opts, Rules: rules})
}

// ValidateResponse is the body of a validation.
type ValidateResponse struct {
	Plan   model.Plan        `json:"plan"`
	Report *validator.Report `json:"report"`
}

// Validate handles POST /api/v1/plans/validate. The returned plan carries the findings as
// day warnings.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := req.Options.Validate(); err != nil {
		respondError(w, r, err)
		return
	}
	plan, report := h.validator(req.Options, req.Rules).Annotate(req.Plan)
	respondJSON(w, http.StatusOK, ValidateResponse{Plan: plan, Report: report})
}

// EditRequest applies one command to a plan.
type EditRequest struct {
	PlanRequest
	Command edit.Command `json:"command"`
	Persist bool         `json:"persist,omitempty"`
}

// EditResponse is the edited plan, revalidated.
type EditResponse struct {
	Plan   model.Plan        `json:"plan"`
	Report *validator.Report `json:"report"`
	Saved  bool              `json:"saved"`
}

// Edit handles POST /api/v1/plans/edit. A rejected command leaves nothing changed.
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	var req EditRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.Persist {
		if err := h.requireStore(req.Plan.ProjectID); err != nil {
			respondError(w, r, err)
			return
		}
	}

	edited, err := req.Command.Apply(req.Plan)
	metrics.RecordEditCommand(req.Command.Op, err == nil)
	if err != nil {
		respondError(w, r, err)
		return
	}
	plan, report := h.validator(req.Options, req.Rules).Annotate(edited)

	if req.Persist {
		if err := h.deps.Plans.Save(r.Context(), plan.ProjectID, plan); err != nil {
			respondError(w, r, err)
			return
		}
	}
	respondJSON(w, http.StatusOK, EditResponse{Plan: plan, Report: report, Saved: req.Persist})
}

// MoveRequest asks what moving a scene would change.
type MoveRequest struct {
	PlanRequest
	SceneID  string `json:"sceneId"`
	ToDay    int    `json:"toDay"`
	Position *int   `json:"position,omitempty"`
}

// EvaluateMove handles POST /api/v1/plans/evaluate-move.
func (h *Handler) EvaluateMove(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	pos := -1
	if req.Position != nil {
		pos = *req.Position
	}
	ev, err := edit.NewEvaluator(h.validator(req.Options, req.Rules)).EvaluateMove(req.Plan, req.SceneID, req.ToDay, pos)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, ev)
}

// Stats handles POST /api/v1/plans/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	opts := h.deps.Defaults.Defaults(req.Options).WithDefaults()
	respondJSON(w, http.StatusOK, stats.AnalyzeWithOptions(req.Plan, opts))
}

// LoadPlan handles GET /api/v1/projects/{projectID}/plan.
func (h *Handler) LoadPlan(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	if h.deps.Plans == nil {
		respondError(w, r, apperrors.NotFound("plan", projectID))
		return
	}
	plan, err := h.deps.Plans.Load(r.Context(), projectID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, plan)
}

// DeletePlan handles DELETE /api/v1/projects/{projectID}/plan.
func (h *Handler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	if h.deps.Plans == nil {
		respondError(w, r, apperrors.NotFound("plan", projectID))
		return
	}
	if err := h.deps.Plans.Delete(r.Context(), projectID); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
