package dto

import "github.com/noah-isme/room-scheduling-api/internal/models"

// AvailabilityResult is the non-mutating preview of binding an activity to a room.
type AvailabilityResult struct {
	ActivityID         string            `json:"activityId"`
	RoomID             string            `json:"roomId"`
	Available          bool              `json:"available"`
	Conflicts          []models.Conflict `json:"conflicts"`
	CapacitySufficient bool              `json:"capacitySufficient"`
	ParticipantsActual int               `json:"participantsActual"`
	RoomCapacity       int               `json:"roomCapacity"`
	Notes              []string          `json:"notes"`
}

// SuggestionCriteria narrows room suggestions.
type SuggestionCriteria struct {
	MinCapacity       *int     `form:"minCapacity" json:"minCapacity"`
	RoomType          string   `form:"roomType" json:"roomType"`
	RequiredEquipment []string `form:"equipment" json:"requiredEquipment"`
}

// RankedRoom is one scored candidate room.
type RankedRoom struct {
	Room                 models.Room       `json:"room"`
	Available            bool              `json:"available"`
	Conflicts            []models.Conflict `json:"conflicts"`
	ConflictCount        int               `json:"conflictCount"`
	CapacitySufficient   bool              `json:"capacitySufficient"`
	RequiredCapacity     int               `json:"requiredCapacity"`
	HasRequiredEquipment bool              `json:"hasRequiredEquipment"`
	Score                float64           `json:"score"`
	Notes                []string          `json:"notes,omitempty"`
}

// OccupancyExportQuery selects rooms and format for an occupancy export.
type OccupancyExportQuery struct {
	Format  string   `form:"format" json:"format"`
	RoomIDs []string `form:"roomId" json:"roomIds"`
}
