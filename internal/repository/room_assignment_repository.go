package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/room-scheduling-api/internal/models"
)

const roomAssignmentColumns = `ra.id, ra.activity_id, ra.room_id, ra.status, ra.priority, ra.note,
       ra.assigned_at, ra.unassigned_at, ra.created_at, ra.updated_at`

const roomAssignmentDetailQuery = `SELECT ` + roomAssignmentColumns + `,
       a.name AS activity_name, r.name AS room_name
FROM room_assignments ra
JOIN activities a ON a.id = ra.activity_id
JOIN rooms r ON r.id = ra.room_id`

// RoomAssignmentRepository persists activity-room bindings.
type RoomAssignmentRepository struct {
	db *sqlx.DB
}

// NewRoomAssignmentRepository constructs the repository.
func NewRoomAssignmentRepository(db *sqlx.DB) *RoomAssignmentRepository {
	return &RoomAssignmentRepository{db: db}
}

// Create inserts a new assignment, filling id and timestamps when absent.
func (r *RoomAssignmentRepository) Create(ctx context.Context, assignment *models.RoomAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if assignment.AssignedAt.IsZero() {
		assignment.AssignedAt = now
	}
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = now
	}
	assignment.UpdatedAt = now

	const query = `INSERT INTO room_assignments (id, activity_id, room_id, status, priority, note, assigned_at, unassigned_at, created_at, updated_at)
		VALUES (:id, :activity_id, :room_id, :status, :priority, :note, :assigned_at, :unassigned_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create room assignment: %w", err)
	}
	return nil
}

// Update persists the mutable fields of an assignment.
func (r *RoomAssignmentRepository) Update(ctx context.Context, assignment *models.RoomAssignment) error {
	assignment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE room_assignments
SET status = :status, priority = :priority, note = :note, unassigned_at = :unassigned_at, updated_at = :updated_at
WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, assignment)
	if err != nil {
		return fmt.Errorf("update room assignment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated assignment rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes an assignment permanently.
func (r *RoomAssignmentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM room_assignments WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete room assignment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted assignment rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindByID loads an assignment with display names. It returns sql.ErrNoRows when absent.
func (r *RoomAssignmentRepository) FindByID(ctx context.Context, id string) (*models.RoomAssignmentDetail, error) {
	query := roomAssignmentDetailQuery + ` WHERE ra.id = $1`
	var assignment models.RoomAssignmentDetail
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// FindActiveByActivityAndRoom returns the active binding of the pair, or nil when none exists.
func (r *RoomAssignmentRepository) FindActiveByActivityAndRoom(ctx context.Context, activityID, roomID string) (*models.RoomAssignment, error) {
	const query = `SELECT ` + roomAssignmentColumns + ` FROM room_assignments ra
WHERE ra.activity_id = $1 AND ra.room_id = $2 AND ra.status = 'ACTIVE'
LIMIT 1`
	var assignment models.RoomAssignment
	if err := r.db.GetContext(ctx, &assignment, query, activityID, roomID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active room assignment: %w", err)
	}
	return &assignment, nil
}

// ListActiveByRoom returns active bindings of the room, skipping the bindings of excludeActivityIDs.
func (r *RoomAssignmentRepository) ListActiveByRoom(ctx context.Context, roomID string, excludeActivityIDs []string) ([]models.RoomAssignmentDetail, error) {
	query := roomAssignmentDetailQuery + ` WHERE ra.room_id = $1 AND ra.status = 'ACTIVE'`
	args := []interface{}{roomID}
	if len(excludeActivityIDs) > 0 {
		query += ` AND ra.activity_id <> ALL($2)`
		args = append(args, pq.Array(excludeActivityIDs))
	}
	query += ` ORDER BY ra.priority DESC, ra.assigned_at ASC`

	var assignments []models.RoomAssignmentDetail
	if err := r.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, fmt.Errorf("list active room assignments: %w", err)
	}
	return assignments, nil
}

// ListByActivity returns every assignment of the activity, active ones first.
func (r *RoomAssignmentRepository) ListByActivity(ctx context.Context, activityID string) ([]models.RoomAssignmentDetail, error) {
	query := roomAssignmentDetailQuery + ` WHERE ra.activity_id = $1 ORDER BY ra.status ASC, ra.priority DESC, ra.assigned_at DESC`
	var assignments []models.RoomAssignmentDetail
	if err := r.db.SelectContext(ctx, &assignments, query, activityID); err != nil {
		return nil, fmt.Errorf("list activity room assignments: %w", err)
	}
	return assignments, nil
}

// ListByRoom returns assignments of the room, optionally active only.
func (r *RoomAssignmentRepository) ListByRoom(ctx context.Context, roomID string, activeOnly bool) ([]models.RoomAssignmentDetail, error) {
	query := roomAssignmentDetailQuery + ` WHERE ra.room_id = $1`
	if activeOnly {
		query += ` AND ra.status = 'ACTIVE'`
	}
	query += ` ORDER BY ra.status ASC, ra.priority DESC, ra.assigned_at DESC`

	var assignments []models.RoomAssignmentDetail
	if err := r.db.SelectContext(ctx, &assignments, query, roomID); err != nil {
		return nil, fmt.Errorf("list room assignments: %w", err)
	}
	return assignments, nil
}

// CountByRoom returns the number of active and total assignments of the room.
func (r *RoomAssignmentRepository) CountByRoom(ctx context.Context, roomID string) (active int, total int, err error) {
	const query = `SELECT COUNT(*) FILTER (WHERE status = 'ACTIVE') AS active, COUNT(*) AS total
FROM room_assignments WHERE room_id = $1`
	var counts struct {
		Active int `db:"active"`
		Total  int `db:"total"`
	}
	if err := r.db.GetContext(ctx, &counts, query, roomID); err != nil {
		return 0, 0, fmt.Errorf("count room assignments: %w", err)
	}
	return counts.Active, counts.Total, nil
}
