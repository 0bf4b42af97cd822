package handler

import (
	"net/http"

	"github.com/rodaje/rodaje/pkg/model"
	"github.com/rodaje/rodaje/pkg/scheduler/timing"
)

// RecalculateRequest is a day as edited by hand. Pinned location or time of day are kept.
type RecalculateRequest struct {
	Day model.ShootingDay `json:"day"`
}

// RecalculateResponse is the day with derived fields recomputed and each scene priced.
type RecalculateResponse struct {
	Day          model.ShootingDay  `json:"day"`
	TotalMinutes float64            `json:"totalMinutes"`
	Breakdown    []timing.SceneTime `json:"breakdown"`
}

// RecalculateDay handles POST /api/v1/days/recalculate.
func (h *Handler) RecalculateDay(w http.ResponseWriter, r *http.Request) {
	var req RecalculateRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := model.ValidateScenes(req.Day.Scenes); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, RecalculateResponse{
		Day:          timing.RecalculateDay(req.Day),
		TotalMinutes: timing.DayMinutes(req.Day.Scenes),
		Breakdown:    timing.SceneBreakdown(req.Day.Scenes),
	})
}
