package models

import (
	"fmt"
	"time"
)

// AssignmentStatus is the lifecycle state of a room assignment.
type AssignmentStatus string

const (
	AssignmentActive   AssignmentStatus = "ACTIVE"
	AssignmentInactive AssignmentStatus = "INACTIVE"
)

// TransitionTo validates a status change. Staying in the same state is rejected.
func (s AssignmentStatus) TransitionTo(next AssignmentStatus) error {
	switch {
	case s == AssignmentActive && next == AssignmentInactive,
		s == AssignmentInactive && next == AssignmentActive:
		return nil
	case s == next:
		return fmt.Errorf("assignment is already %s", s)
	default:
		return fmt.Errorf("cannot move assignment from %q to %q", s, next)
	}
}

// RoomAssignment binds an activity to a room.
type RoomAssignment struct {
	ID           string           `db:"id" json:"id"`
	ActivityID   string           `db:"activity_id" json:"activity_id"`
	RoomID       string           `db:"room_id" json:"room_id"`
	Status       AssignmentStatus `db:"status" json:"status"`
	Priority     int              `db:"priority" json:"priority"`
	Note         *string          `db:"note" json:"note,omitempty"`
	AssignedAt   time.Time        `db:"assigned_at" json:"assigned_at"`
	UnassignedAt *time.Time       `db:"unassigned_at" json:"unassigned_at,omitempty"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
}

// IsActive reports whether the assignment currently holds the room.
func (a *RoomAssignment) IsActive() bool {
	return a != nil && a.Status == AssignmentActive
}

// RoomAssignmentDetail enriches an assignment with display names.
type RoomAssignmentDetail struct {
	RoomAssignment
	ActivityName string `db:"activity_name" json:"activity_name"`
	RoomName     string `db:"room_name" json:"room_name"`
}
