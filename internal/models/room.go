package models

import (
	"time"

	"github.com/lib/pq"
)

// Room is a bookable physical space.
type Room struct {
	ID           string         `db:"id" json:"id"`
	Name         string         `db:"name" json:"name"`
	Capacity     int            `db:"capacity" json:"capacity"`
	RoomType     *string        `db:"room_type" json:"room_type,omitempty"`
	Active       bool           `db:"active" json:"active"`
	EquipmentIDs pq.StringArray `db:"equipment_ids" json:"equipment_ids"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// RoomCandidateFilter narrows the rooms considered for a suggestion.
type RoomCandidateFilter struct {
	MinCapacity int
	RoomType    string
}
