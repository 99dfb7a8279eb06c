package models

import "time"

// PunctualReservation is a one-off booking of a room for an absolute time range.
type PunctualReservation struct {
	ID      string    `db:"id" json:"id"`
	RoomID  string    `db:"room_id" json:"room_id"`
	Title   string    `db:"title" json:"title"`
	StartAt time.Time `db:"start_at" json:"start_at"`
	EndAt   time.Time `db:"end_at" json:"end_at"`
	Active  bool      `db:"active" json:"active"`
}

// SectionReservation is a weekly booking owned by the course sections subsystem.
type SectionReservation struct {
	ID          string `db:"id" json:"id"`
	RoomID      string `db:"room_id" json:"room_id"`
	SectionName string `db:"section_name" json:"section_name"`
	DayName     string `db:"day_name" json:"day_name"`
	StartTime   string `db:"start_time" json:"start_time"`
	EndTime     string `db:"end_time" json:"end_time"`
}
