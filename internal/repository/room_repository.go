package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/room-scheduling-api/internal/models"
)

const roomColumns = `r.id, r.name, r.capacity, r.room_type, r.active,
       ARRAY(SELECT re.equipment_id FROM room_equipment re WHERE re.room_id = r.id ORDER BY re.equipment_id)::text AS equipment_ids,
       r.created_at, r.updated_at`

// RoomRepository reads rooms and their equipment.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository constructs the repository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// FindByID loads a room. It returns sql.ErrNoRows when absent.
func (r *RoomRepository) FindByID(ctx context.Context, id string) (*models.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms r WHERE r.id = $1`
	var room models.Room
	if err := r.db.GetContext(ctx, &room, query, id); err != nil {
		return nil, err
	}
	return &room, nil
}

// ListCandidates returns active rooms able to seat filter.MinCapacity, tightest fit first.
func (r *RoomRepository) ListCandidates(ctx context.Context, filter models.RoomCandidateFilter) ([]models.Room, error) {
	conditions := []string{"r.active = TRUE", "r.capacity >= $1"}
	args := []interface{}{filter.MinCapacity}
	if filter.RoomType != "" {
		conditions = append(conditions, fmt.Sprintf("r.room_type = $%d", len(args)+1))
		args = append(args, filter.RoomType)
	}

	query := `SELECT ` + roomColumns + ` FROM rooms r WHERE ` + strings.Join(conditions, " AND ") + ` ORDER BY r.capacity ASC, r.name ASC`
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query, args...); err != nil {
		return nil, fmt.Errorf("list candidate rooms: %w", err)
	}
	return rooms, nil
}

// ListActive returns every active room ordered by name, or only ids when provided.
func (r *RoomRepository) ListActive(ctx context.Context, ids []string) ([]models.Room, error) {
	base := `SELECT ` + roomColumns + ` FROM rooms r WHERE r.active = TRUE`
	var (
		query string
		args  []interface{}
		err   error
	)
	if len(ids) > 0 {
		query, args, err = sqlx.In(base+` AND r.id IN (?) ORDER BY r.name ASC`, ids)
		if err != nil {
			return nil, fmt.Errorf("build room id filter: %w", err)
		}
		query = r.db.Rebind(query)
	} else {
		query = base + ` ORDER BY r.name ASC`
	}

	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query, args...); err != nil {
		return nil, fmt.Errorf("list active rooms: %w", err)
	}
	return rooms, nil
}
