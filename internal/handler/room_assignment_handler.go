package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/room-scheduling-api/internal/dto"
	"github.com/noah-isme/room-scheduling-api/internal/models"
	appErrors "github.com/noah-isme/room-scheduling-api/pkg/errors"
	"github.com/noah-isme/room-scheduling-api/pkg/response"
)

type roomAssignmentService interface {
	Assign(ctx context.Context, req dto.AssignRoomRequest) (*models.RoomAssignment, error)
	AssignMultiple(ctx context.Context, req dto.BulkAssignRequest) (*dto.BulkAssignResult, error)
	Deassign(ctx context.Context, id string, req dto.DeassignRequest) (*models.RoomAssignment, error)
	Reactivate(ctx context.Context, id string) (*models.RoomAssignment, error)
	Update(ctx context.Context, id string, req dto.UpdateRoomAssignmentRequest) (*models.RoomAssignment, error)
	Delete(ctx context.Context, id string) error
	ChangeRoom(ctx context.Context, activityID, oldRoomID string, req dto.ChangeRoomRequest) (*dto.ChangeRoomResult, error)
	Get(ctx context.Context, id string) (*models.RoomAssignmentDetail, error)
	ListByActivity(ctx context.Context, activityID string) ([]models.RoomAssignmentDetail, error)
	ListByRoom(ctx context.Context, roomID string, activeOnly bool) ([]models.RoomAssignmentDetail, error)
}

// RoomAssignmentHandler exposes activity to room binding endpoints.
type RoomAssignmentHandler struct {
	service roomAssignmentService
}

// NewRoomAssignmentHandler builds a new handler.
func NewRoomAssignmentHandler(service roomAssignmentService) *RoomAssignmentHandler {
	return &RoomAssignmentHandler{service: service}
}

// Assign godoc
// @Summary Assign a room to an activity
// @Tags Room Assignments
// @Accept json
// @Produce json
// @Param payload body dto.AssignRoomRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /room-assignments [post]
func (h *RoomAssignmentHandler) Assign(c *gin.Context) {
	var req dto.AssignRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid room assignment payload"))
		return
	}
	assignment, err := h.service.Assign(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "room assigned", assignment)
}

// AssignMultiple godoc
// @Summary Assign several rooms to an activity
// @Description Each room is attempted independently; failures are reported per room.
// @Tags Room Assignments
// @Accept json
// @Produce json
// @Param payload body dto.BulkAssignRequest true "Bulk assignment payload"
// @Success 200 {object} response.Envelope
// @Router /room-assignments/bulk [post]
func (h *RoomAssignmentHandler) AssignMultiple(c *gin.Context) {
	var req dto.BulkAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid bulk assignment payload"))
		return
	}
	result, err := h.service.AssignMultiple(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusOK
	if result.TotalCreated > 0 && result.TotalErrors == 0 {
		status = http.StatusCreated
	}
	response.JSON(c, status, result)
}

// Get godoc
// @Summary Get a room assignment
// @Tags Room Assignments
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /room-assignments/{id} [get]
func (h *RoomAssignmentHandler) Get(c *gin.Context) {
	assignment, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment)
}

// Update godoc
// @Summary Patch a room assignment
// @Description Updates priority, note or status without re-running capacity and conflict checks.
// @Tags Room Assignments
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body dto.UpdateRoomAssignmentRequest true "Fields to update"
// @Success 200 {object} response.Envelope
// @Router /room-assignments/{id} [patch]
func (h *RoomAssignmentHandler) Update(c *gin.Context) {
	var req dto.UpdateRoomAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid room assignment payload"))
		return
	}
	assignment, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.WithMessage(c, http.StatusOK, "room assignment updated", assignment)
}

// Delete godoc
// @Summary Delete a room assignment
// @Tags Room Assignments
// @Param id path string true "Assignment ID"
// @Success 204
// @Router /room-assignments/{id} [delete]
func (h *RoomAssignmentHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Deassign godoc
// @Summary Deactivate a room assignment
// @Tags Room Assignments
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body dto.DeassignRequest false "Deassignment details"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /room-assignments/{id}/deassign [post]
func (h *RoomAssignmentHandler) Deassign(c *gin.Context) {
	var req dto.DeassignRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid deassign payload"))
		return
	}
	assignment, err := h.service.Deassign(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.WithMessage(c, http.StatusOK, "room unassigned", assignment)
}

// Reactivate godoc
// @Summary Reactivate an inactive room assignment
// @Tags Room Assignments
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /room-assignments/{id}/reactivate [post]
func (h *RoomAssignmentHandler) Reactivate(c *gin.Context) {
	assignment, err := h.service.Reactivate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.WithMessage(c, http.StatusOK, "room assignment reactivated", assignment)
}

// ChangeRoom godoc
// @Summary Move an activity to another room
// @Tags Room Assignments
// @Accept json
// @Produce json
// @Param activityId path string true "Activity ID"
// @Param roomId path string true "Current room ID"
// @Param payload body dto.ChangeRoomRequest true "Target room"
// @Success 200 {object} response.Envelope
// @Router /activities/{activityId}/rooms/{roomId}/change [post]
func (h *RoomAssignmentHandler) ChangeRoom(c *gin.Context) {
	var req dto.ChangeRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid change room payload"))
		return
	}
	result, err := h.service.ChangeRoom(c.Request.Context(), c.Param("activityId"), c.Param("roomId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.WithMessage(c, http.StatusOK, "room changed", result)
}

// ListByActivity godoc
// @Summary List room assignments of an activity
// @Tags Room Assignments
// @Produce json
// @Param activityId path string true "Activity ID"
// @Success 200 {object} response.Envelope
// @Router /activities/{activityId}/room-assignments [get]
func (h *RoomAssignmentHandler) ListByActivity(c *gin.Context) {
	items, err := h.service.ListByActivity(c.Request.Context(), c.Param("activityId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// ListByRoom godoc
// @Summary List room assignments of a room
// @Tags Room Assignments
// @Produce json
// @Param roomId path string true "Room ID"
// @Param activeOnly query bool false "Only active assignments"
// @Success 200 {object} response.Envelope
// @Router /rooms/{roomId}/room-assignments [get]
func (h *RoomAssignmentHandler) ListByRoom(c *gin.Context) {
	var query dto.RoomAssignmentQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	items, err := h.service.ListByRoom(c.Request.Context(), c.Param("roomId"), query.ActiveOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// bindOptionalJSON accepts an empty body as the zero value.
func bindOptionalJSON(c *gin.Context, dest interface{}) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(dest); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
