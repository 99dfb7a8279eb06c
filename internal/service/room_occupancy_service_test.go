package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/room-scheduling-api/internal/models"
	appErrors "github.com/noah-isme/room-scheduling-api/pkg/errors"
)

func seedOccupancy(h *schedulingHarness) {
	h.world.addActivity("A", 1, "1 08:00-09:00")
	h.world.addActivity("B", 1, "2 08:00-09:00")
	h.world.addRoom("R", 10)
	h.world.addRoom("S", 20)
	h.world.bind("A", "R")
	old := h.world.bind("B", "R")
	old.Status = models.AssignmentInactive
	h.world.punctual = append(h.world.punctual,
		models.PunctualReservation{ID: "p1", RoomID: "R", Title: "Open day", StartAt: fixedNow.Add(48 * time.Hour), EndAt: fixedNow.Add(50 * time.Hour), Active: true},
		models.PunctualReservation{ID: "p2", RoomID: "R", Title: "Past", StartAt: fixedNow.Add(-50 * time.Hour), EndAt: fixedNow.Add(-48 * time.Hour), Active: true},
		models.PunctualReservation{ID: "p3", RoomID: "R", Title: "Cancelled", StartAt: fixedNow.Add(48 * time.Hour), EndAt: fixedNow.Add(50 * time.Hour), Active: false},
	)
	h.world.sections = append(h.world.sections,
		models.SectionReservation{ID: "s1", RoomID: "R", SectionName: "Bio", DayName: "MONDAY", StartTime: "10:00", EndTime: "11:00"},
		models.SectionReservation{ID: "s2", RoomID: "R", SectionName: "Bio", DayName: "THURSDAY", StartTime: "10:00", EndTime: "11:00"},
	)
}

func TestGetRoomOccupancyCountsAndCaches(t *testing.T) {
	h := newSchedulingHarness(t, RoomAssignmentConfig{})
	seedOccupancy(h)
	ctx := context.Background()

	occupancy, hit, err := h.occupancy.GetRoomOccupancy(ctx, "R")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, models.RoomOccupancy{
		RoomID:               "R",
		RoomName:             "Room R",
		ActiveAssignments:    1,
		TotalAssignments:     2,
		PunctualReservations: 1,
		SectionReservations:  2,
		TotalBookings:        4,
	}, *occupancy)

	cached, hit, err := h.occupancy.GetRoomOccupancy(ctx, "R")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, *occupancy, *cached)

	h.occupancy.InvalidateRoom(ctx, "R")
	_, hit, err = h.occupancy.GetRoomOccupancy(ctx, "R")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestPurgeCacheDropsOnlyOccupancySummaries(t *testing.T) {
	h := newSchedulingHarness(t, RoomAssignmentConfig{})
	seedOccupancy(h)
	ctx := context.Background()

	for _, roomID := range []string{"R", "S"} {
		_, _, err := h.occupancy.GetRoomOccupancy(ctx, roomID)
		require.NoError(t, err)
	}
	require.NoError(t, h.occupancy.cache.Set(ctx, "other:key", 1, 0))

	require.NoError(t, h.occupancy.PurgeCache(ctx))

	for _, roomID := range []string{"R", "S"} {
		_, hit, err := h.occupancy.GetRoomOccupancy(ctx, roomID)
		require.NoError(t, err)
		assert.False(t, hit, "room %s", roomID)
	}
	var other int
	hit, err := h.occupancy.cache.Get(ctx, "other:key", &other)
	require.NoError(t, err)
	assert.True(t, hit)

	h.occupancy.cache = nil
	assert.NoError(t, h.occupancy.PurgeCache(ctx))
}

func TestGetRoomOccupancyWithoutCache(t *testing.T) {
	h := newSchedulingHarness(t, RoomAssignmentConfig{})
	seedOccupancy(h)
	h.occupancy.cache = nil

	occupancy, hit, err := h.occupancy.GetRoomOccupancy(context.Background(), "S")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Zero(t, occupancy.TotalBookings)

	_, _, err = h.occupancy.GetRoomOccupancy(context.Background(), "missing")
	requireAppError(t, err, appErrors.ErrNotFound.Code)
}

func TestExportOccupancyCSV(t *testing.T) {
	h := newSchedulingHarness(t, RoomAssignmentConfig{})
	seedOccupancy(h)

	doc, err := h.occupancy.ExportOccupancy(context.Background(), "csv", nil)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", doc.ContentType)
	assert.True(t, strings.HasSuffix(doc.Filename, ".csv"))

	lines := strings.Split(strings.TrimSpace(string(doc.Payload)), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Active assignments")
	assert.Equal(t, "Room R,1,2,1,2,4", strings.TrimSpace(lines[1]))
	assert.Equal(t, "Room S,0,0,0,0,0", strings.TrimSpace(lines[2]))
}

func TestExportOccupancyFiltersAndFormats(t *testing.T) {
	h := newSchedulingHarness(t, RoomAssignmentConfig{})
	seedOccupancy(h)
	ctx := context.Background()

	doc, err := h.occupancy.ExportOccupancy(ctx, "pdf", []string{"S"})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.True(t, strings.HasPrefix(string(doc.Payload), "%PDF"))

	_, err = h.occupancy.ExportOccupancy(ctx, "xlsx", nil)
	requireAppError(t, err, appErrors.ErrValidation.Code)
}
