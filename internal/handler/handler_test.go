package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodaje/rodaje/internal/constraints"
	"github.com/rodaje/rodaje/pkg/distance"
	apperrors "github.com/rodaje/rodaje/pkg/errors"
	"github.com/rodaje/rodaje/pkg/model"
)

type memPlans struct {
	mu    sync.Mutex
	plans map[string]model.Plan
}

func (m *memPlans) Save(_ context.Context, projectID string, plan model.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.plans == nil {
		m.plans = make(map[string]model.Plan)
	}
	m.plans[projectID] = plan.Clone()
	return nil
}

func (m *memPlans) Load(_ context.Context, projectID string) (model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[projectID]
	if !ok {
		return model.Plan{}, apperrors.NotFound("plan", projectID)
	}
	return p, nil
}

func (m *memPlans) Delete(_ context.Context, projectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plans[projectID]; !ok {
		return apperrors.NotFound("plan", projectID)
	}
	delete(m.plans, projectID)
	return nil
}

type memDistances struct {
	entries map[string][]distance.PairEntry
}

func (m *memDistances) Upsert(_ context.Context, projectID string, entries []distance.PairEntry) error {
	if m.entries == nil {
		m.entries = make(map[string][]distance.PairEntry)
	}
	m.entries[projectID] = append(m.entries[projectID], entries...)
	return nil
}

func (m *memDistances) List(_ context.Context, projectID string) ([]distance.PairEntry, error) {
	return m.entries[projectID], nil
}

func newTestRouter(deps Deps) http.Handler {
	return NewRouter(New(deps), RouterConfig{})
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func newScene(id, location string, tod model.TimeOfDay, eighths int, cast ...string) model.Scene {
	return model.Scene{ID: id, LocationName: location, TimeOfDay: tod, PageEighths: eighths, Characters: cast}
}

func generateBody(projectID string) map[string]interface{} {
	return map[string]interface{}{
		"projectId": projectID,
		"scenes": []model.Scene{
			newScene("1", "CASA", model.TimeDay, 8, "ANA"),
			newScene("2", "CASA", model.TimeDay, 8, "ANA"),
			newScene("3", "PUERTO", model.TimeNight, 8, "LUIS"),
		},
		"options": map[string]interface{}{"startDate": "2026-03-02"},
	}
}

func TestGenerate(t *testing.T) {
	h := newTestRouter(Deps{})
	rec := do(t, h, http.MethodPost, "/api/v1/plans/generate", generateBody(""))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp GenerateResponse
	decodeBody(t, rec, &resp)
	assert.True(t, resp.Success)
	assert.False(t, resp.Persisted)
	require.NotEmpty(t, resp.Plan.Days)
	assert.Equal(t, 3, resp.Plan.SceneCount())
	require.NotNil(t, resp.Report)
	require.NotNil(t, resp.Summary)
	assert.Equal(t, 3, resp.Summary.TotalScenes)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestGenerate_InvalidInput(t *testing.T) {
	h := newTestRouter(Deps{})
	rec := do(t, h, http.MethodPost, "/api/v1/plans/generate", map[string]interface{}{
		"scenes": []model.Scene{{ID: "", PageEighths: 0}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]interface{}
	decodeBody(t, rec, &body)
	assert.Equal(t, string(apperrors.CodeInvalidInput), body["code"])
	assert.NotEmpty(t, body["fields"])
}

func TestGenerate_MalformedJSON(t *testing.T) {
	h := newTestRouter(Deps{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/plans/generate", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerate_UnknownStrategy(t *testing.T) {
	h := newTestRouter(Deps{})
	body := generateBody("")
	body["strategy"] = "tabu"
	rec := do(t, h, http.MethodPost, "/api/v1/plans/generate", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), string(apperrors.CodeUnknownStrategy))
}

func TestGenerate_PersistAndLoad(t *testing.T) {
	store := &memPlans{}
	h := newTestRouter(Deps{Plans: store})

	rec := do(t, h, http.MethodPost, "/api/v1/plans/generate?persist=true", generateBody("serie-1"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp GenerateResponse
	decodeBody(t, rec, &resp)
	assert.True(t, resp.Persisted)

	rec = do(t, h, http.MethodGet, "/api/v1/projects/serie-1/plan", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var loaded model.Plan
	decodeBody(t, rec, &loaded)
	assert.Len(t, loaded.Days, len(resp.Plan.Days))

	rec = do(t, h, http.MethodGet, "/api/v1/projects/otra/plan", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/v1/projects/serie-1/plan", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodGet, "/api/v1/projects/serie-1/plan", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, h, http.MethodDelete, "/api/v1/projects/serie-1/plan", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGenerate_PersistRequiresStore(t *testing.T) {
	h := newTestRouter(Deps{})
	rec := do(t, h, http.MethodPost, "/api/v1/plans/generate?persist=true", generateBody("serie-1"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	h = newTestRouter(Deps{Plans: &memPlans{}})
	rec = do(t, h, http.MethodPost, "/api/v1/plans/generate?persist=true", generateBody(""))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "project id is required")
}

func minorAtNightPlan() model.Plan {
	minor := newScene("m", "PUERTO", model.TimeNight, 4, "NIÑA")
	minor.ComplexityFactors = map[string]interface{}{model.FactorMinors: true}
	d := model.NewShootingDay(1)
	d.Scenes = []model.Scene{minor}
	return model.Plan{Days: []model.ShootingDay{d}}
}

func TestValidate(t *testing.T) {
	h := newTestRouter(Deps{})
	rec := do(t, h, http.MethodPost, "/api/v1/plans/validate", PlanRequest{Plan: minorAtNightPlan()})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp ValidateResponse
	decodeBody(t, rec, &resp)
	found := false
	for _, f := range resp.Report.Findings {
		if f.Rule == "minors_at_night" {
			found = true
		}
	}
	assert.True(t, found)
	assert.NotEmpty(t, resp.Plan.Days[0].Warnings)
}

func twoDayPlan() model.Plan {
	d1 := model.NewShootingDay(1)
	d1.Scenes = []model.Scene{newScene("a", "CASA", model.TimeDay, 8), newScene("b", "CASA", model.TimeDay, 8)}
	d2 := model.NewShootingDay(2)
	d2.Scenes = []model.Scene{newScene("c", "PUERTO", model.TimeDay, 8)}
	return model.Plan{ProjectID: "serie-1", Days: []model.ShootingDay{d1, d2}}
}

func TestEdit_MoveScene(t *testing.T) {
	store := &memPlans{}
	h := newTestRouter(Deps{Plans: store})
	rec := do(t, h, http.MethodPost, "/api/v1/plans/edit", map[string]interface{}{
		"plan":    twoDayPlan(),
		"command": map[string]interface{}{"op": "move_scene", "sceneId": "b", "toDay": 2},
		"persist": true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp EditResponse
	decodeBody(t, rec, &resp)
	assert.True(t, resp.Saved)
	require.Len(t, resp.Plan.Days, 2)
	assert.Len(t, resp.Plan.Days[0].Scenes, 1)
	assert.Len(t, resp.Plan.Days[1].Scenes, 2)
	assert.Equal(t, 8, resp.Plan.Days[0].TotalEighths, "source day recalculated")

	saved, err := store.Load(context.Background(), "serie-1")
	require.NoError(t, err)
	assert.Len(t, saved.Days[1].Scenes, 2)
}

func TestEdit_Rejected(t *testing.T) {
	h := newTestRouter(Deps{})
	rec := do(t, h, http.MethodPost, "/api/v1/plans/edit", map[string]interface{}{
		"plan":    twoDayPlan(),
		"command": map[string]interface{}{"op": "move_scene", "sceneId": "zzz", "toDay": 2},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/plans/edit", map[string]interface{}{
		"plan":    twoDayPlan(),
		"command": map[string]interface{}{"op": "teleport"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEvaluateMove(t *testing.T) {
	h := newTestRouter(Deps{})
	rec := do(t, h, http.MethodPost, "/api/v1/plans/evaluate-move", map[string]interface{}{
		"plan":    twoDayPlan(),
		"sceneId": "c",
		"toDay":   1,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var ev map[string]interface{}
	decodeBody(t, rec, &ev)
	assert.Contains(t, ev, "feasible")
	assert.Contains(t, ev, "recommendation")
}

func TestStats(t *testing.T) {
	h := newTestRouter(Deps{})
	rec := do(t, h, http.MethodPost, "/api/v1/plans/stats", PlanRequest{Plan: twoDayPlan()})
	require.Equal(t, http.StatusOK, rec.Code)

	var summary map[string]interface{}
	decodeBody(t, rec, &summary)
	assert.EqualValues(t, 2, summary["totalDays"])
}

func TestRecalculateDay(t *testing.T) {
	h := newTestRouter(Deps{})
	day := model.NewShootingDay(1)
	day.Scenes = []model.Scene{newScene("a", "CASA", model.TimeDay, 8), newScene("b", "PUERTO", model.TimeNight, 4)}
	day.Location = "PUERTO"
	day.LocationPinned = true

	rec := do(t, h, http.MethodPost, "/api/v1/days/recalculate", RecalculateRequest{Day: day})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp RecalculateResponse
	decodeBody(t, rec, &resp)
	assert.Len(t, resp.Breakdown, 2)
	assert.True(t, resp.Breakdown[1].FullSetup, "location change means a full setup")
	assert.Greater(t, resp.Day.EstimatedHours, 0.0)
	assert.Equal(t, "PUERTO", resp.Day.Location, "pinned location kept")
	assert.Equal(t, []string{"CASA", "PUERTO"}, resp.Day.Locations)

	rec = do(t, h, http.MethodPost, "/api/v1/days/recalculate", RecalculateRequest{
		Day: model.ShootingDay{Scenes: []model.Scene{{ID: "x"}}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDistanceMatrix(t *testing.T) {
	store := &memDistances{}
	h := newTestRouter(Deps{Distances: store})

	body := MatrixRequest{
		ProjectID: "serie-1",
		Locations: []model.Location{
			{ID: "A", Name: "Casa", Zone: "norte", Latitude: model.Coord(40.41), Longitude: model.Coord(-3.70)},
			{ID: "B", Name: "Puerto", Zone: "norte", Latitude: model.Coord(40.45), Longitude: model.Coord(-3.60)},
			{ID: "C", Name: "Faro"},
		},
		ManualDistances: []distance.PairEntry{{A: "A", B: "C", Entry: distance.Entry{DistanceKm: 3, DurationMinutes: 6}}},
		Save:            true,
	}
	rec := do(t, h, http.MethodPost, "/api/v1/distances/matrix", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp MatrixResponse
	decodeBody(t, rec, &resp)
	assert.Len(t, resp.Entries, 2)
	assert.Equal(t, 1, resp.Result.Calculated)
	assert.Equal(t, 1, resp.Result.Skipped)
	assert.Equal(t, 1, resp.Saved)
	assert.Len(t, store.entries["serie-1"], 1)
	require.NotEmpty(t, resp.Zones)
	assert.Equal(t, "norte", resp.Zones[0].Zone)
	assert.Len(t, resp.Proximity, 3)

	rec = do(t, h, http.MethodPost, "/api/v1/distances/matrix", MatrixRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	h := newTestRouter(Deps{Checks: map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
	}})
	rec := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	h = newTestRouter(Deps{Checks: map[string]HealthCheck{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	}})
	rec = do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestCatalogEndpoints(t *testing.T) {
	h := newTestRouter(Deps{Version: "1.2.3"})

	rec := do(t, h, http.MethodGet, "/api/v1/constraints/library", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var lib constraints.LibraryResponse
	decodeBody(t, rec, &lib)
	assert.Len(t, lib.Library, len(constraints.GetLibrary()))

	rec = do(t, h, http.MethodGet, "/api/v1/strategies", nil)
	assert.Contains(t, rec.Body.String(), "greedy")

	rec = do(t, h, http.MethodGet, "/version", nil)
	assert.Contains(t, rec.Body.String(), "1.2.3")
}

func TestMetricsRoute(t *testing.T) {
	h := NewRouter(New(Deps{}), RouterConfig{
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("# metrics"))
		}),
	})
	rec := do(t, h, http.MethodGet, "/metrics", nil)
	assert.Equal(t, "# metrics", rec.Body.String())
}
