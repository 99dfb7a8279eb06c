package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/room-scheduling-api/internal/dto"
	appErrors "github.com/noah-isme/room-scheduling-api/pkg/errors"
	"github.com/noah-isme/room-scheduling-api/pkg/response"
)

type roomAvailabilityService interface {
	VerifyAvailability(ctx context.Context, activityID, roomID string, excludeAssignmentID *string) (*dto.AvailabilityResult, error)
	SuggestRooms(ctx context.Context, activityID string, criteria dto.SuggestionCriteria) ([]dto.RankedRoom, error)
}

// RoomAvailabilityHandler serves read-only availability previews and room suggestions.
type RoomAvailabilityHandler struct {
	service roomAvailabilityService
}

// NewRoomAvailabilityHandler builds a new handler.
func NewRoomAvailabilityHandler(service roomAvailabilityService) *RoomAvailabilityHandler {
	return &RoomAvailabilityHandler{service: service}
}

// Verify godoc
// @Summary Preview whether an activity fits a room
// @Tags Room Availability
// @Produce json
// @Param activityId path string true "Activity ID"
// @Param roomId path string true "Room ID"
// @Param excludeAssignmentId query string false "Assignment to ignore, e.g. when previewing a move"
// @Success 200 {object} response.Envelope
// @Router /activities/{activityId}/rooms/{roomId}/availability [get]
func (h *RoomAvailabilityHandler) Verify(c *gin.Context) {
	var exclude *string
	if raw := strings.TrimSpace(c.Query("excludeAssignmentId")); raw != "" {
		exclude = &raw
	}
	result, err := h.service.VerifyAvailability(c.Request.Context(), c.Param("activityId"), c.Param("roomId"), exclude)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Suggest godoc
// @Summary Rank candidate rooms for an activity
// @Tags Room Availability
// @Produce json
// @Param activityId path string true "Activity ID"
// @Param minCapacity query int false "Minimum capacity (defaults to the activity requirement)"
// @Param roomType query string false "Room type filter"
// @Param equipment query []string false "Required equipment IDs" collectionFormat(multi)
// @Success 200 {object} response.Envelope
// @Router /activities/{activityId}/room-suggestions [get]
func (h *RoomAvailabilityHandler) Suggest(c *gin.Context) {
	var criteria dto.SuggestionCriteria
	if err := c.ShouldBindQuery(&criteria); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid suggestion criteria"))
		return
	}
	criteria.RequiredEquipment = splitList(criteria.RequiredEquipment)
	rooms, err := h.service.SuggestRooms(c.Request.Context(), c.Param("activityId"), criteria)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SetMeta(c, "total", len(rooms))
	response.JSON(c, http.StatusOK, rooms)
}

// splitList flattens repeated and comma separated query values.
func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}
