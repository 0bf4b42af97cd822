package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	apperrors "github.com/rodaje/rodaje/pkg/errors"
	"github.com/rodaje/rodaje/pkg/model"
)

// PlanRepository stores a project's current plan: a header row in plans and one row per
// shooting day in shooting_days.
type PlanRepository struct {
	db DB
}

// NewPlanRepository creates the repository.
func NewPlanRepository(db DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// planRow is the column layout of plans.
type planRow struct {
	ID         uuid.UUID
	Strategy   string
	Unassigned []byte
	Warnings   []byte
}

func toPlanRow(p model.Plan) (planRow, error) {
	r := planRow{ID: p.ID, Strategy: p.Strategy}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	unassigned := p.Unassigned
	if unassigned == nil {
		unassigned = []model.Scene{}
	}
	var err error
	if r.Unassigned, err = json.Marshal(unassigned); err != nil {
		return r, err
	}
	if r.Warnings, err = json.Marshal(nonNil(p.Warnings)); err != nil {
		return r, err
	}
	return r, nil
}

func (r planRow) toPlan(projectID string) (model.Plan, error) {
	p := model.Plan{ID: r.ID, ProjectID: projectID, Strategy: r.Strategy, Days: []model.ShootingDay{}}
	if err := json.Unmarshal(r.Unassigned, &p.Unassigned); err != nil {
		return p, fmt.Errorf("unassigned scenes: %w", err)
	}
	if len(p.Unassigned) == 0 {
		p.Unassigned = nil
	}
	if err := json.Unmarshal(r.Warnings, &p.Warnings); err != nil {
		return p, fmt.Errorf("plan warnings: %w", err)
	}
	if len(p.Warnings) == 0 {
		p.Warnings = nil
	}
	return p, nil
}

// dayRow is the column layout of shooting_days.
type dayRow struct {
	ID              uuid.UUID
	DayNumber       int
	Date            sql.NullTime
	LocationName    string
	LocationID      string
	Locations       pq.StringArray
	TimeOfDay       string
	Scenes          []byte
	Characters      []byte
	TotalEighths    int
	EstimatedHours  float64
	Warnings        []byte
	Notes           string
	Strategy        string
	LocationPinned  bool
	TimeOfDayPinned bool
}

func toRow(d model.ShootingDay, strategy string) (dayRow, error) {
	r := dayRow{
		ID:              d.ID,
		DayNumber:       d.DayNumber,
		LocationName:    d.Location,
		LocationID:      d.LocationID,
		Locations:       pq.StringArray(d.Locations),
		TimeOfDay:       string(d.TimeOfDay),
		TotalEighths:    d.TotalEighths,
		EstimatedHours:  d.EstimatedHours,
		Notes:           d.Notes,
		Strategy:        strategy,
		LocationPinned:  d.LocationPinned,
		TimeOfDayPinned: d.TimeOfDayPinned,
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if d.Date != "" {
		t, err := model.ParseDate(d.Date)
		if err != nil {
			return r, fmt.Errorf("day %d date: %w", d.DayNumber, err)
		}
		r.Date = sql.NullTime{Time: t, Valid: true}
	}

	var err error
	if r.Scenes, err = json.Marshal(d.Scenes); err != nil {
		return r, err
	}
	if r.Characters, err = json.Marshal(nonNil(d.Characters)); err != nil {
		return r, err
	}
	if r.Warnings, err = json.Marshal(nonNil(d.Warnings)); err != nil {
		return r, err
	}
	return r, nil
}

func (r dayRow) toDay() (model.ShootingDay, error) {
	d := model.ShootingDay{
		ID:              r.ID,
		DayNumber:       r.DayNumber,
		Location:        r.LocationName,
		LocationID:      r.LocationID,
		Locations:       nonNil([]string(r.Locations)),
		TimeOfDay:       model.TimeOfDay(r.TimeOfDay),
		TotalEighths:    r.TotalEighths,
		EstimatedHours:  r.EstimatedHours,
		Notes:           r.Notes,
		LocationPinned:  r.LocationPinned,
		TimeOfDayPinned: r.TimeOfDayPinned,
	}
	if r.Date.Valid {
		d.Date = r.Date.Time.Format(model.DateLayout)
	}
	if err := json.Unmarshal(r.Scenes, &d.Scenes); err != nil {
		return d, fmt.Errorf("day %d scenes: %w", r.DayNumber, err)
	}
	if err := json.Unmarshal(r.Characters, &d.Characters); err != nil {
		return d, fmt.Errorf("day %d characters: %w", r.DayNumber, err)
	}
	if len(r.Warnings) > 0 {
		if err := json.Unmarshal(r.Warnings, &d.Warnings); err != nil {
			return d, fmt.Errorf("day %d warnings: %w", r.DayNumber, err)
		}
	}
	if len(d.Warnings) == 0 {
		d.Warnings = nil
	}
	if d.Scenes == nil {
		d.Scenes = []model.Scene{}
	}
	return d, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Save replaces the stored plan of projectID with plan. A plan without days is still stored,
// so its unassigned scenes survive.
func (r *PlanRepository) Save(ctx context.Context, projectID string, plan model.Plan) error {
	header, err := toPlanRow(plan)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInvalidInput, "plan cannot be stored")
	}
	rows := make([]dayRow, 0, len(plan.Days))
	for _, d := range plan.Days {
		row, err := toRow(d, plan.Strategy)
		if err != nil {
			return apperrors.Wrap(err, apperrors.CodeInvalidInput, "plan cannot be stored")
		}
		rows = append(rows, row)
	}

	err = inTx(ctx, r.db, func(db DB) error {
		const upsertPlan = `
			INSERT INTO plans (project_id, plan_id, strategy, unassigned, warnings, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (project_id) DO UPDATE SET
				plan_id = EXCLUDED.plan_id,
				strategy = EXCLUDED.strategy,
				unassigned = EXCLUDED.unassigned,
				warnings = EXCLUDED.warnings,
				updated_at = EXCLUDED.updated_at
		`
		now := time.Now()
		if _, err := db.ExecContext(ctx, upsertPlan,
			projectID, header.ID, header.Strategy, header.Unassigned, header.Warnings, now,
		); err != nil {
			return err
		}
		if _, err := db.ExecContext(ctx, "DELETE FROM shooting_days WHERE project_id = $1", projectID); err != nil {
			return err
		}
		const query = `
			INSERT INTO shooting_days (
				id, project_id, day_number, shooting_date, location_name, location_id, locations,
				time_of_day, scenes, characters, total_eighths, estimated_hours, warnings, notes,
				strategy, location_pinned, tod_pinned, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		`
		for _, row := range rows {
			if _, err := db.ExecContext(ctx, query,
				row.ID, projectID, row.DayNumber, row.Date, row.LocationName, row.LocationID, row.Locations,
				row.TimeOfDay, row.Scenes, row.Characters, row.TotalEighths, row.EstimatedHours, row.Warnings, row.Notes,
				row.Strategy, row.LocationPinned, row.TimeOfDayPinned, now,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "save plan")
	}
	return nil
}

// Load returns the stored plan of projectID, or NOT_FOUND when none was saved.
func (r *PlanRepository) Load(ctx context.Context, projectID string) (model.Plan, error) {
	var header planRow
	err := r.db.QueryRowContext(ctx,
		"SELECT plan_id, strategy, unassigned, warnings FROM plans WHERE project_id = $1", projectID,
	).Scan(&header.ID, &header.Strategy, &header.Unassigned, &header.Warnings)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Plan{}, apperrors.NotFound("plan", projectID)
	}
	if err != nil {
		return model.Plan{}, apperrors.Wrap(err, apperrors.CodeDatabaseError, "load plan")
	}
	plan, err := header.toPlan(projectID)
	if err != nil {
		return model.Plan{}, apperrors.Wrap(err, apperrors.CodeDatabaseError, "decode plan")
	}

	const query = `
		SELECT id, day_number, shooting_date, location_name, location_id, locations, time_of_day,
			scenes, characters, total_eighths, estimated_hours, warnings, notes, strategy,
			location_pinned, tod_pinned
		FROM shooting_days
		WHERE project_id = $1
		ORDER BY day_number
	`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return model.Plan{}, apperrors.Wrap(err, apperrors.CodeDatabaseError, "load plan")
	}
	defer rows.Close()

	for rows.Next() {
		row, err := scanDay(rows)
		if err != nil {
			return model.Plan{}, apperrors.Wrap(err, apperrors.CodeDatabaseError, "scan day")
		}
		d, err := row.toDay()
		if err != nil {
			return model.Plan{}, apperrors.Wrap(err, apperrors.CodeDatabaseError, "decode day")
		}
		plan.Days = append(plan.Days, d)
	}
	if err := rows.Err(); err != nil {
		return model.Plan{}, apperrors.Wrap(err, apperrors.CodeDatabaseError, "load plan")
	}
	return plan, nil
}

// Delete removes the stored plan of projectID. Deleting a missing plan returns NOT_FOUND.
func (r *PlanRepository) Delete(ctx context.Context, projectID string) error {
	var removed int64
	err := inTx(ctx, r.db, func(db DB) error {
		if _, err := db.ExecContext(ctx, "DELETE FROM shooting_days WHERE project_id = $1", projectID); err != nil {
			return err
		}
		res, err := db.ExecContext(ctx, "DELETE FROM plans WHERE project_id = $1", projectID)
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "delete plan")
	}
	if removed == 0 {
		return apperrors.NotFound("plan", projectID)
	}
	return nil
}

func scanDay(s Scanner) (dayRow, error) {
	var r dayRow
	err := s.Scan(
		&r.ID, &r.DayNumber, &r.Date, &r.LocationName, &r.LocationID, &r.Locations, &r.TimeOfDay,
		&r.Scenes, &r.Characters, &r.TotalEighths, &r.EstimatedHours, &r.Warnings, &r.Notes, &r.Strategy,
		&r.LocationPinned, &r.TimeOfDayPinned,
	)
	return r, err
}
