package repository

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodaje/rodaje/pkg/model"
)

func TestDayRow_RoundTrip(t *testing.T) {
	day := model.NewShootingDay(3)
	day.Date = "2026-03-04"
	day.Scenes = []model.Scene{{ID: "12", LocationName: "CASA", TimeOfDay: model.TimeNight, PageEighths: 6, Characters: []string{"ANA"}}}
	day.Location = "CASA"
	day.Locations = []string{"CASA"}
	day.Characters = []string{"ANA"}
	day.TimeOfDay = model.TimeNight
	day.TotalEighths = 6
	day.EstimatedHours = 2.4
	day.Warnings = []string{"[advisory] aviso"}
	day.Notes = "grúa"

	row, err := toRow(day, "greedy")
	require.NoError(t, err)
	assert.True(t, row.Date.Valid)
	assert.Equal(t, "greedy", row.Strategy)

	back, err := row.toDay()
	require.NoError(t, err)
	assert.Equal(t, day.ID, back.ID)
	assert.Equal(t, "2026-03-04", back.Date)
	assert.Equal(t, day.Scenes, back.Scenes)
	assert.Equal(t, day.Characters, back.Characters)
	assert.Equal(t, day.Warnings, back.Warnings)
	assert.Equal(t, model.TimeNight, back.TimeOfDay)
	assert.Equal(t, "grúa", back.Notes)
}

func TestDayRow_EmptyDay(t *testing.T) {
	day := model.ShootingDay{DayNumber: 1, TimeOfDay: model.TimeDay}

	row, err := toRow(day, "")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, row.ID, "missing ids are generated")
	assert.False(t, row.Date.Valid)
	assert.JSONEq(t, `[]`, string(row.Characters))
	assert.JSONEq(t, `[]`, string(row.Warnings))

	back, err := row.toDay()
	require.NoError(t, err)
	assert.Empty(t, back.Date)
	assert.NotNil(t, back.Scenes)
	assert.NotNil(t, back.Locations)
}

func TestDayRow_BadDate(t *testing.T) {
	_, err := toRow(model.ShootingDay{DayNumber: 1, Date: "4/3/2026"}, "")
	assert.Error(t, err)
}

func TestDayRow_KeepsPins(t *testing.T) {
	day := model.NewShootingDay(2)
	day.Location = "FARO"
	day.LocationPinned = true
	day.TimeOfDayPinned = true
	day.TimeOfDay = model.TimeNight

	row, err := toRow(day, "")
	require.NoError(t, err)
	back, err := row.toDay()
	require.NoError(t, err)
	assert.True(t, back.LocationPinned)
	assert.True(t, back.TimeOfDayPinned)
	assert.Equal(t, "FARO", back.Location)
}

func TestPlanRow_RoundTrip(t *testing.T) {
	plan := model.Plan{
		ID:         uuid.New(),
		Strategy:   "concentrated",
		Unassigned: []model.Scene{{ID: "7", LocationName: "PUERTO", PageEighths: 3}},
		Warnings:   []string{"[advisory] ANA espera 9 días"},
	}
	row, err := toPlanRow(plan)
	require.NoError(t, err)

	back, err := row.toPlan("serie-1")
	require.NoError(t, err)
	assert.Equal(t, plan.ID, back.ID)
	assert.Equal(t, "serie-1", back.ProjectID)
	assert.Equal(t, "concentrated", back.Strategy)
	assert.Equal(t, plan.Unassigned, back.Unassigned)
	assert.Equal(t, plan.Warnings, back.Warnings)
	assert.NotNil(t, back.Days)

	empty, err := toPlanRow(model.Plan{})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, empty.ID)
	assert.JSONEq(t, `[]`, string(empty.Unassigned))
	back, err = empty.toPlan("x")
	require.NoError(t, err)
	assert.Nil(t, back.Unassigned)
	assert.Nil(t, back.Warnings)
}
