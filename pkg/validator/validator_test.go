package validator

import (
	"strings"
	"testing"

	apperrors "github.com/rodaje/rodaje/pkg/errors"
	"github.com/rodaje/rodaje/pkg/model"
	"github.com/rodaje/rodaje/pkg/scheduler/constraint"
	"github.com/rodaje/rodaje/pkg/scheduler/timing"
)

func createScene(id, location string, tod model.TimeOfDay, eighths int, characters ...string) model.Scene {
	return model.Scene{ID: id, LocationName: location, TimeOfDay: tod, PageEighths: eighths, Characters: characters}
}

func createPlan(days ...[]model.Scene) model.Plan {
	plan := model.Plan{}
	for i, scenes := range days {
		d := model.NewShootingDay(i + 1)
		d.Scenes = scenes
		plan.Days = append(plan.Days, timing.RecalculateDay(d))
	}
	return plan
}

func TestValidator_CleanPlan(t *testing.T) {
	plan := createPlan(
		[]model.Scene{createScene("1", "CASA", model.TimeDay, 8, "ANA")},
		[]model.Scene{createScene("2", "CASA", model.TimeDay, 8, "ANA")},
	)

	report := New(nil).Validate(plan)
	if !report.Valid {
		t.Errorf("Expected valid plan, got findings %+v", report.Findings)
	}
	if len(report.Findings) != 0 {
		t.Errorf("Expected no findings, got %d", len(report.Findings))
	}
	if report.Score != 100 {
		t.Errorf("Score = %v, want 100", report.Score)
	}
}

func TestValidator_FatalDay(t *testing.T) {
	// 56 eighths of action at one location: well over 12 hours
	var scenes []model.Scene
	for _, id := range []string{"1", "2", "3", "4", "5", "6", "7"} {
		s := createScene(id, "CASA", model.TimeDay, 8)
		s.ComplexityFactors = map[string]interface{}{model.FactorAction: true}
		scenes = append(scenes, s)
	}
	plan := createPlan(scenes)
	if plan.Days[0].EstimatedHours <= 12 {
		t.Fatalf("fixture should exceed 12 h, got %.1f", plan.Days[0].EstimatedHours)
	}

	report := New(&Config{Options: model.Options{MaxEighthsPerDay: 200}}).Validate(plan)
	if report.Valid {
		t.Error("a day over 12 h makes the plan invalid")
	}
	if report.Count(model.SeverityFatal) != 1 {
		t.Fatalf("Expected 1 fatal finding, got %v", report.Counts)
	}
	f := report.Findings[0]
	if f.Severity != model.SeverityFatal || f.Rule != constraint.TypeMaxWorkdayHours || !f.Hard {
		t.Errorf("most severe finding first, got %+v", f)
	}
	if !strings.Contains(f.Message, "jornada máxima excedida") {
		t.Errorf("unexpected message %q", f.Message)
	}
}

func TestValidator_MinorsAtNight(t *testing.T) {
	minor := createScene("m", "CASA", model.TimeNight, 4, "NIÑA")
	minor.ComplexityFactors = map[string]interface{}{model.FactorMinors: true}
	plan := createPlan([]model.Scene{minor})

	report := New(nil).Validate(plan)
	if report.Valid {
		t.Error("minors at night is a hard violation")
	}
	found := report.ForDay(1)
	if len(found) != 1 || found[0].Severity != model.SeverityWarning || found[0].SceneID != "m" {
		t.Errorf("unexpected findings %+v", found)
	}
}

func TestValidator_FindingCodes(t *testing.T) {
	minor := createScene("m", "CASA", model.TimeNight, 4, "NIÑA")
	minor.ComplexityFactors = map[string]interface{}{model.FactorMinors: true}
	plan := createPlan(
		[]model.Scene{minor},
		[]model.Scene{createScene("big", "PUERTO", model.TimeDay, 48)},
	)

	codes := make(map[constraint.Type]apperrors.Code)
	for _, f := range New(nil).Validate(plan).Findings {
		codes[f.Rule] = f.Code
	}
	if codes[constraint.TypeMinorsAtNight] != apperrors.CodeConstraintViolation {
		t.Errorf("minors at night code = %q", codes[constraint.TypeMinorsAtNight])
	}
	if codes[constraint.TypeOversizedScene] != apperrors.CodeOversizedScene {
		t.Errorf("oversized scene code = %q, findings %v", codes[constraint.TypeOversizedScene], codes)
	}
	if c, ok := codes[constraint.TypeMaxWorkdayHours]; !ok || c != apperrors.CodeConstraintViolation {
		t.Errorf("fatal hours code = %q", c)
	}
}

func TestValidator_RuleOverrides(t *testing.T) {
	plan := createPlan(
		[]model.Scene{createScene("1", "A", model.TimeDay, 2), createScene("2", "B", model.TimeDay, 2)},
	)
	report := New(&Config{
		Options: model.DefaultOptions(),
		Rules:   map[string]interface{}{"max_locations_per_day": 1},
	}).Validate(plan)

	if !report.Valid {
		t.Error("advisories never invalidate a plan")
	}
	if report.Count(model.SeverityAdvisory) != 1 {
		t.Errorf("Expected one advisory, got %v", report.Counts)
	}
}

func TestValidator_AnnotateDoesNotMutate(t *testing.T) {
	var days [][]model.Scene
	for i := 0; i < 8; i++ {
		days = append(days, []model.Scene{createScene(string(rune('a'+i)), "CASA", model.TimeDay, 8, "ANA")})
	}
	days[0] = append(days[0], createScene("x", "CASA", model.TimeDay, 4, "PEDRO"))
	days[7] = append(days[7], createScene("y", "CASA", model.TimeDay, 4, "PEDRO"))
	plan := createPlan(days...)
	plan.Days[3].Warnings = []string{"stale"}

	v := New(nil)
	annotated, report := v.Annotate(plan)

	if plan.Days[3].Warnings[0] != "stale" || plan.Warnings != nil {
		t.Error("Annotate must not modify its input")
	}
	if len(annotated.Days[3].Warnings) != 0 {
		t.Errorf("stale warnings should be replaced, got %v", annotated.Days[3].Warnings)
	}

	// 8 consecutive undated days: weekly rest breach on day 7
	if len(annotated.Days[6].Warnings) != 1 || !strings.Contains(annotated.Days[6].Warnings[0], "sin día de descanso") {
		t.Errorf("day 7 warnings = %v", annotated.Days[6].Warnings)
	}
	// PEDRO waits 6 days: below the idle limit, so no plan warning
	if len(annotated.Warnings) != 0 {
		t.Errorf("plan warnings = %v", annotated.Warnings)
	}
	if report.Valid {
		t.Error("weekly rest breach is a hard violation")
	}

	for i := range plan.Days {
		if len(annotated.Days[i].Scenes) != len(plan.Days[i].Scenes) {
			t.Fatalf("day %d scenes changed", i+1)
		}
	}

	again, _ := v.Annotate(annotated)
	for i := range again.Days {
		if strings.Join(again.Days[i].Warnings, "|") != strings.Join(annotated.Days[i].Warnings, "|") {
			t.Errorf("Annotate is not idempotent on day %d", i+1)
		}
	}
}

func TestValidator_IdleDaysOnPlan(t *testing.T) {
	var days [][]model.Scene
	for i := 0; i < 6; i++ {
		days = append(days, []model.Scene{createScene(string(rune('a'+i)), "CASA", model.TimeDay, 8, "ANA")})
	}
	plan := createPlan(days...)
	// dated with a long break for MARTA
	dates := []string{"2026-03-02", "2026-03-03", "2026-03-04", "2026-03-16", "2026-03-17", "2026-03-18"}
	for i := range plan.Days {
		plan.Days[i].Date = dates[i]
	}
	plan.Days[0].Scenes = append(plan.Days[0].Scenes, createScene("m1", "CASA", model.TimeDay, 2, "MARTA"))
	plan.Days[5].Scenes = append(plan.Days[5].Scenes, createScene("m2", "CASA", model.TimeDay, 2, "MARTA"))
	plan.Days[0] = timing.RecalculateDay(plan.Days[0])
	plan.Days[5] = timing.RecalculateDay(plan.Days[5])

	annotated, _ := New(nil).Annotate(plan)
	if len(annotated.Warnings) != 2 {
		t.Fatalf("Expected idle warnings for ANA and MARTA, got %v", annotated.Warnings)
	}
	for _, w := range annotated.Warnings {
		if !strings.HasPrefix(w, "[advisory]") || !strings.Contains(w, "días de espera") {
			t.Errorf("unexpected plan warning %q", w)
		}
	}
}
