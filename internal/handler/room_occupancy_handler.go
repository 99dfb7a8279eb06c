package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/room-scheduling-api/internal/dto"
	"github.com/noah-isme/room-scheduling-api/internal/middleware"
	"github.com/noah-isme/room-scheduling-api/internal/models"
	"github.com/noah-isme/room-scheduling-api/internal/service"
	appErrors "github.com/noah-isme/room-scheduling-api/pkg/errors"
	"github.com/noah-isme/room-scheduling-api/pkg/response"
)

type roomOccupancyService interface {
	GetRoomOccupancy(ctx context.Context, roomID string) (*models.RoomOccupancy, bool, error)
	ExportOccupancy(ctx context.Context, format string, roomIDs []string) (*service.ExportDocument, error)
}

// RoomOccupancyHandler exposes occupancy summaries and exports.
type RoomOccupancyHandler struct {
	service roomOccupancyService
}

// NewRoomOccupancyHandler builds a new handler.
func NewRoomOccupancyHandler(service roomOccupancyService) *RoomOccupancyHandler {
	return &RoomOccupancyHandler{service: service}
}

// Get godoc
// @Summary Occupancy summary of a room
// @Tags Room Occupancy
// @Produce json
// @Param roomId path string true "Room ID"
// @Success 200 {object} response.Envelope
// @Router /rooms/{roomId}/occupancy [get]
func (h *RoomOccupancyHandler) Get(c *gin.Context) {
	summary, hit, err := h.service.GetRoomOccupancy(c.Request.Context(), c.Param("roomId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, summary)
}

// Export godoc
// @Summary Export occupancy of active rooms
// @Tags Room Occupancy
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv (default) or pdf"
// @Param roomId query []string false "Restrict to these rooms" collectionFormat(multi)
// @Success 200 {file} file
// @Router /rooms/occupancy/export [get]
func (h *RoomOccupancyHandler) Export(c *gin.Context) {
	var query dto.OccupancyExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export parameters"))
		return
	}
	doc, err := h.service.ExportOccupancy(c.Request.Context(), query.Format, splitList(query.RoomIDs))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, doc.Filename, doc.ContentType, doc.Payload)
}
