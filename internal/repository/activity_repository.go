package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/room-scheduling-api/internal/models"
)

const scheduleEntryColumns = `id, activity_id, day_of_week, to_char(start_time, 'HH24:MI') AS start_time, to_char(end_time, 'HH24:MI') AS end_time, active`

// ActivityRepository reads activities, their weekly schedule and participation counts.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository constructs the repository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// FindByID loads an activity with its full schedule. It returns sql.ErrNoRows when absent.
func (r *ActivityRepository) FindByID(ctx context.Context, id string) (*models.Activity, error) {
	const query = `SELECT id, name, capacity_max, active, created_at, updated_at FROM activities WHERE id = $1`
	var activity models.Activity
	if err := r.db.GetContext(ctx, &activity, query, id); err != nil {
		return nil, err
	}

	entries, err := r.ListScheduleEntries(ctx, id, 0, false)
	if err != nil {
		return nil, err
	}
	activity.Schedule = entries
	return &activity, nil
}

// ListScheduleEntries returns schedule rows for an activity, optionally limited to one
// day (day > 0) and to active rows.
func (r *ActivityRepository) ListScheduleEntries(ctx context.Context, activityID string, day int, activeOnly bool) ([]models.WeeklyScheduleEntry, error) {
	query := `SELECT ` + scheduleEntryColumns + ` FROM activity_schedule_entries WHERE activity_id = $1`
	args := []interface{}{activityID}
	if day > 0 {
		query += fmt.Sprintf(" AND day_of_week = $%d", len(args)+1)
		args = append(args, day)
	}
	if activeOnly {
		query += " AND active = TRUE"
	}
	query += " ORDER BY day_of_week ASC, start_time ASC"

	var entries []models.WeeklyScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list schedule entries: %w", err)
	}
	return entries, nil
}

// CountActiveParticipants returns how many members actively take part in the activity.
func (r *ActivityRepository) CountActiveParticipants(ctx context.Context, activityID string) (int, error) {
	const query = `SELECT COUNT(*) FROM activity_participants WHERE activity_id = $1 AND status = 'ACTIVE'`
	var count int
	if err := r.db.GetContext(ctx, &count, query, activityID); err != nil {
		return 0, fmt.Errorf("count active participants: %w", err)
	}
	return count, nil
}
