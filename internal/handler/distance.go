package handler

import (
	"net/http"

	"github.com/rodaje/rodaje/internal/metrics"
	"github.com/rodaje/rodaje/pkg/distance"
	apperrors "github.com/rodaje/rodaje/pkg/errors"
	"github.com/rodaje/rodaje/pkg/logger"
	"github.com/rodaje/rodaje/pkg/model"
)

// MatrixRequest asks for the distances between locations.
type MatrixRequest struct {
	ProjectID       string               `json:"projectId,omitempty"`
	Locations       []model.Location     `json:"locations"`
	ManualDistances []distance.PairEntry `json:"manualDistances,omitempty"`
	Zones           map[string]string    `json:"zones,omitempty"`
	UseProvider     bool                 `json:"useProvider,omitempty"`
	Overwrite       bool                 `json:"overwrite,omitempty"`
	// Save stores ManualDistances for ProjectID.
	Save bool `json:"save,omitempty"`
}

// MatrixResponse lists every known pair with the zone and proximity views built from them.
type MatrixResponse struct {
	Entries   []distance.PairEntry      `json:"entries"`
	Result    distance.AutoResult       `json:"result"`
	Source    string                    `json:"source"`
	Zones     []distance.ZoneGroup      `json:"zones"`
	Proximity []distance.ProximityScore `json:"proximity"`
	Saved     int                       `json:"saved"`
}

// DistanceMatrix handles POST /api/v1/distances/matrix.
func (h *Handler) DistanceMatrix(w http.ResponseWriter, r *http.Request) {
	var req MatrixRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if len(req.Locations) == 0 {
		respondError(w, r, apperrors.InvalidInput("locations", "al menos una localización"))
		return
	}
	ctx := r.Context()

	manual := req.ManualDistances
	if req.ProjectID != "" && h.deps.Distances != nil {
		stored, err := h.deps.Distances.List(ctx, req.ProjectID)
		if err != nil {
			respondError(w, r, err)
			return
		}
		manual = append(stored, manual...)
	}

	idx := distance.NewIndex()
	for _, e := range manual {
		if err := idx.Set(e.A, e.B, e.DistanceKm, e.DurationMinutes, distance.SourceManual); err != nil {
			respondError(w, r, err)
			return
		}
	}

	resp := MatrixResponse{Source: metrics.LookupFallback}
	filled := false
	if req.UseProvider && h.deps.Provider != nil {
		res, err := idx.Fill(ctx, h.deps.Provider, req.Locations, req.Overwrite)
		if err == nil {
			resp.Result, resp.Source, filled = res, h.deps.Provider.Name(), true
		} else {
			logger.WithContext(ctx).Warn().Err(err).Msg("routing provider failed, using great-circle distances")
		}
	}
	if !filled {
		resp.Result = idx.AutoCalculate(req.Locations, distance.AutoOptions{
			Overwrite:       req.Overwrite,
			AverageSpeedKmh: h.deps.Defaults.AverageSpeedKmh,
		})
		metrics.RecordDistanceLookup(metrics.LookupFallback)
	}

	if req.Save && len(req.ManualDistances) > 0 {
		if h.deps.Distances == nil || req.ProjectID == "" {
			respondError(w, r, apperrors.InvalidInput("save", "requiere projectId y persistencia configurada"))
			return
		}
		if err := h.deps.Distances.Upsert(ctx, req.ProjectID, req.ManualDistances); err != nil {
			respondError(w, r, err)
			return
		}
		resp.Saved = len(req.ManualDistances)
	}

	resp.Entries = idx.Entries()
	resp.Zones = idx.ZoneGroups(req.Locations, req.Zones)
	resp.Proximity = idx.ProximityScores(req.Locations)
	respondJSON(w, http.StatusOK, resp)
}
