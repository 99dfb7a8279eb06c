package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/room-scheduling-api/internal/models"
)

// PunctualReservationRepository reads one-off room bookings.
type PunctualReservationRepository struct {
	db *sqlx.DB
}

// NewPunctualReservationRepository constructs the repository.
func NewPunctualReservationRepository(db *sqlx.DB) *PunctualReservationRepository {
	return &PunctualReservationRepository{db: db}
}

// ListActiveByRoom returns active reservations of the room that end after notExpiredAt.
func (r *PunctualReservationRepository) ListActiveByRoom(ctx context.Context, roomID string, notExpiredAt time.Time) ([]models.PunctualReservation, error) {
	const query = `SELECT id, room_id, title, start_at, end_at, active FROM punctual_reservations
WHERE room_id = $1 AND active = TRUE AND end_at > $2
ORDER BY start_at ASC`
	var reservations []models.PunctualReservation
	if err := r.db.SelectContext(ctx, &reservations, query, roomID, notExpiredAt); err != nil {
		return nil, fmt.Errorf("list punctual reservations: %w", err)
	}
	return reservations, nil
}

// CountActiveByRoom counts active, non-expired reservations of the room.
func (r *PunctualReservationRepository) CountActiveByRoom(ctx context.Context, roomID string, notExpiredAt time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM punctual_reservations WHERE room_id = $1 AND active = TRUE AND end_at > $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, roomID, notExpiredAt); err != nil {
		return 0, fmt.Errorf("count punctual reservations: %w", err)
	}
	return count, nil
}

// SectionReservationRepository reads weekly bookings owned by course sections.
type SectionReservationRepository struct {
	db *sqlx.DB
}

// NewSectionReservationRepository constructs the repository.
func NewSectionReservationRepository(db *sqlx.DB) *SectionReservationRepository {
	return &SectionReservationRepository{db: db}
}

// ListByRoomAndDay returns the room's section bookings on the named day.
func (r *SectionReservationRepository) ListByRoomAndDay(ctx context.Context, roomID, dayName string) ([]models.SectionReservation, error) {
	const query = `SELECT id, room_id, section_name, day_name, to_char(start_time, 'HH24:MI') AS start_time, to_char(end_time, 'HH24:MI') AS end_time
FROM section_reservations
WHERE room_id = $1 AND UPPER(day_name) = UPPER($2)
ORDER BY start_time ASC`
	var reservations []models.SectionReservation
	if err := r.db.SelectContext(ctx, &reservations, query, roomID, dayName); err != nil {
		return nil, fmt.Errorf("list section reservations: %w", err)
	}
	return reservations, nil
}

// CountByRoom counts every section booking of the room.
func (r *SectionReservationRepository) CountByRoom(ctx context.Context, roomID string) (int, error) {
	const query = `SELECT COUNT(*) FROM section_reservations WHERE room_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, roomID); err != nil {
		return 0, fmt.Errorf("count section reservations: %w", err)
	}
	return count, nil
}
