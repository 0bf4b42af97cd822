package repository

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodaje/rodaje/internal/database"
	apperrors "github.com/rodaje/rodaje/pkg/errors"
	"github.com/rodaje/rodaje/pkg/model"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}
	sqlDB, err := sql.Open("postgres", dbURL)
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db := &database.DB{DB: sqlDB}
	require.NoError(t, db.Migrate(context.Background()))
	return db
}

func TestPlanRepository_SaveLoad(t *testing.T) {
	db := openTestDB(t)
	repo := NewPlanRepository(db)
	ctx := context.Background()
	projectID := "test-" + uuid.NewString()

	day := model.NewShootingDay(1)
	day.Date = "2026-03-02"
	day.Scenes = []model.Scene{{ID: "1", LocationName: "CASA", TimeOfDay: model.TimeDay, PageEighths: 8}}
	day.Location = "CASA"
	day.Locations = []string{"CASA"}
	day.TimeOfDay = model.TimeDay
	day.TotalEighths = 8
	day.EstimatedHours = 2.3
	day.LocationPinned = true

	plan := model.Plan{
		ID:         uuid.New(),
		Strategy:   "greedy",
		Days:       []model.ShootingDay{day},
		Unassigned: []model.Scene{{ID: "2", LocationName: "PUERTO", TimeOfDay: model.TimeNight, PageEighths: 4}},
		Warnings:   []string{"[advisory] aviso de plan"},
	}
	require.NoError(t, repo.Save(ctx, projectID, plan))

	loaded, err := repo.Load(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, plan.ID, loaded.ID)
	assert.Equal(t, "greedy", loaded.Strategy)
	require.Len(t, loaded.Days, 1)
	assert.True(t, loaded.Days[0].LocationPinned)
	assert.Equal(t, "2026-03-02", loaded.Days[0].Date)
	assert.Equal(t, plan.Unassigned, loaded.Unassigned)
	assert.Equal(t, plan.Warnings, loaded.Warnings)

	// every day deleted: the unassigned scenes still come back
	emptied := plan.Clone()
	emptied.Unassigned = append(emptied.Unassigned, emptied.Days[0].Scenes...)
	emptied.Days = nil
	require.NoError(t, repo.Save(ctx, projectID, emptied))
	loaded, err = repo.Load(ctx, projectID)
	require.NoError(t, err)
	assert.Empty(t, loaded.Days)
	assert.Len(t, loaded.Unassigned, 2)

	require.NoError(t, repo.Delete(ctx, projectID))
	_, err = repo.Load(ctx, projectID)
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
	assert.True(t, apperrors.Is(repo.Delete(ctx, projectID), apperrors.CodeNotFound))
}
