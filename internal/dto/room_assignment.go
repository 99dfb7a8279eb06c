package dto

import (
	"time"

	"github.com/noah-isme/room-scheduling-api/internal/models"
)

// AssignRoomRequest binds an activity to a room.
type AssignRoomRequest struct {
	ActivityID string  `json:"activityId" validate:"required"`
	RoomID     string  `json:"roomId" validate:"required"`
	Priority   int     `json:"priority" validate:"min=0"`
	Note       *string `json:"note" validate:"omitempty,max=500"`
}

// RoomRequest is one room of a bulk assignment.
type RoomRequest struct {
	RoomID   string  `json:"roomId" validate:"required"`
	Priority int     `json:"priority" validate:"min=0"`
	Note     *string `json:"note" validate:"omitempty,max=500"`
}

// BulkAssignRequest assigns an activity to several rooms independently.
type BulkAssignRequest struct {
	ActivityID string        `json:"activityId" validate:"required"`
	Rooms      []RoomRequest `json:"rooms" validate:"required,min=1,dive"`
}

// BulkAssignError reports why one room of a bulk request failed.
type BulkAssignError struct {
	RoomID  string      `json:"roomId"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// BulkAssignResult lists what was created and what failed.
type BulkAssignResult struct {
	Created      []models.RoomAssignment `json:"created"`
	Errors       []BulkAssignError       `json:"errors"`
	TotalCreated int                     `json:"totalCreated"`
	TotalErrors  int                     `json:"totalErrors"`
}

// DeassignRequest ends an active assignment.
type DeassignRequest struct {
	UnassignedAt *time.Time `json:"unassignedAt"`
	Note         *string    `json:"note" validate:"omitempty,max=500"`
}

// UpdateRoomAssignmentRequest patches assignment fields without booking checks.
type UpdateRoomAssignmentRequest struct {
	Priority     *int       `json:"priority" validate:"omitempty,min=0"`
	Note         *string    `json:"note" validate:"omitempty,max=500"`
	Active       *bool      `json:"active"`
	UnassignedAt *time.Time `json:"unassignedAt"`
}

// ChangeRoomRequest moves an activity from its current room to RoomID.
type ChangeRoomRequest struct {
	RoomID                   string  `json:"roomId" validate:"required"`
	Priority                 int     `json:"priority" validate:"min=0"`
	Note                     *string `json:"note" validate:"omitempty,max=500"`
	RestorePreviousOnFailure *bool   `json:"restorePreviousOnFailure"`
}

// ChangeRoomResult reports the outcome of a room change.
type ChangeRoomResult struct {
	Previous   models.RoomAssignment `json:"previous"`
	Assignment models.RoomAssignment `json:"assignment"`
}

// RoomAssignmentQuery filters room listings.
type RoomAssignmentQuery struct {
	ActiveOnly bool `form:"activeOnly" json:"activeOnly"`
}
