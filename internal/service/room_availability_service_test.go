package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/room-scheduling-api/internal/dto"
	"github.com/noah-isme/room-scheduling-api/internal/models"
	"github.com/noah-isme/room-scheduling-api/internal/scheduling"
	appErrors "github.com/noah-isme/room-scheduling-api/pkg/errors"
)

func TestVerifyAvailabilityFreeRoom(t *testing.T) {
	h := newSchedulingHarness(t, RoomAssignmentConfig{})
	h.world.addActivity("A", 8, "1 18:00-19:00")
	h.world.addRoom("R", 10)

	result, err := h.availability.VerifyAvailability(context.Background(), "A", "R", nil)
	require.NoError(t, err)
	assert.True(t, result.Available)
	assert.True(t, result.CapacitySufficient)
	assert.Equal(t, 8, result.ParticipantsActual)
	assert.Equal(t, 10, result.RoomCapacity)
	assert.Empty(t, result.Conflicts)
	assert.Empty(t, result.Notes)
}

func TestVerifyAvailabilityWithoutScheduleIsNotAnError(t *testing.T) {
	h := newSchedulingHarness(t, RoomAssignmentConfig{})
	h.world.addActivity("A", 8)
	h.world.addRoom("R", 10)

	result, err := h.availability.VerifyAvailability(context.Background(), "A", "R", nil)
	require.NoError(t, err)
	assert.False(t, result.Available)
	require.Len(t, result.Notes, 1)
	assert.Contains(t, result.Notes[0], "no active schedule")
}

func TestVerifyAvailabilityReportsProblemsAsData(t *testing.T) {
	h := newSchedulingHarness(t, RoomAssignmentConfig{})
	h.world.addActivity("A", 12, "1 18:00-19:00")
	h.world.addActivity("B", 2, "1 18:30-19:30")
	room := h.world.addRoom("R", 10)
	room.Active = false
	h.world.bind("B", "R")

	result, err := h.availability.VerifyAvailability(context.Background(), "A", "R", nil)
	require.NoError(t, err)
	assert.False(t, result.Available)
	assert.False(t, result.CapacitySufficient)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, models.ConflictActivity, result.Conflicts[0].Kind)
	assert.ElementsMatch(t, []string{
		"room has conflicting bookings",
		"active participants exceed room capacity",
		"room is inactive",
	}, result.Notes)
}

func TestVerifyAvailabilityExcludesGivenAssignment(t *testing.T) {
	h := newSchedulingHarness(t, RoomAssignmentConfig{})
	h.world.addActivity("A", 4, "1 18:00-19:00")
	h.world.addActivity("B", 2, "1 18:30-19:30")
	h.world.addRoom("R", 10)
	bound := h.world.bind("B", "R")
	ctx := context.Background()

	result, err := h.availability.VerifyAvailability(ctx, "A", "R", &bound.ID)
	require.NoError(t, err)
	assert.True(t, result.Available)

	_, err = h.availability.VerifyAvailability(ctx, "A", "R", strPtr("missing"))
	requireAppError(t, err, appErrors.ErrNotFound.Code)
}

func TestVerifyAvailabilityKeepsSelfExclusionWithExcludedAssignment(t *testing.T) {
	h := newSchedulingHarness(t, RoomAssignmentConfig{})
	h.world.addActivity("A", 4, "1 18:00-19:00")
	h.world.addActivity("B", 2, "3 10:00-11:00")
	h.world.addActivity("C", 2, "1 18:30-19:30")
	h.world.addRoom("R", 10)
	h.world.bind("A", "R")
	other := h.world.bind("B", "R")
	ctx := context.Background()

	result, err := h.availability.VerifyAvailability(ctx, "A", "R", nil)
	require.NoError(t, err)
	assert.True(t, result.Available)
	assert.Empty(t, result.Conflicts)

	result, err = h.availability.VerifyAvailability(ctx, "A", "R", &other.ID)
	require.NoError(t, err)
	assert.True(t, result.Available)
	assert.Empty(t, result.Conflicts)

	h.world.bind("C", "R")
	result, err = h.availability.VerifyAvailability(ctx, "A", "R", &other.ID)
	require.NoError(t, err)
	assert.False(t, result.Available)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, "C", result.Conflicts[0].SourceID)
}

func TestVerifyAvailabilityNotFound(t *testing.T) {
	h := newSchedulingHarness(t, RoomAssignmentConfig{})
	h.world.addActivity("A", 1, "1 08:00-09:00")
	h.world.addRoom("R", 10)
	ctx := context.Background()

	_, err := h.availability.VerifyAvailability(ctx, "missing", "R", nil)
	requireAppError(t, err, appErrors.ErrNotFound.Code)
	_, err = h.availability.VerifyAvailability(ctx, "A", "missing", nil)
	requireAppError(t, err, appErrors.ErrNotFound.Code)
}

func TestSuggestRoomsRanksConflictFreeRoomFirst(t *testing.T) {
	h := newSchedulingHarness(t, RoomAssignmentConfig{})
	h.world.addActivity("A", 8, "1 18:00-19:00")
	h.world.addActivity("B", 2, "1 18:00-18:30")
	h.world.addRoom("BUSY", 10, "projector")
	h.world.addRoom("FREE", 10, "projector")
	h.world.bind("B", "BUSY")

	ranked, err := h.availability.SuggestRooms(context.Background(), "A", dto.SuggestionCriteria{RequiredEquipment: []string{"projector"}})
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "FREE", ranked[0].Room.ID)
	assert.True(t, ranked[0].Available)
	assert.True(t, ranked[0].HasRequiredEquipment)
	assert.Equal(t, float64(120), ranked[0].Score)
	assert.Equal(t, "BUSY", ranked[1].Room.ID)
	assert.False(t, ranked[1].Available)
	assert.Equal(t, 1, ranked[1].ConflictCount)
	assert.Equal(t, float64(70), ranked[1].Score)
	assert.Greater(t, ranked[0].Score, ranked[1].Score)
}

func TestSuggestRoomsWithoutScheduleFlagsEveryRoom(t *testing.T) {
	h := newSchedulingHarness(t, RoomAssignmentConfig{})
	h.world.addActivity("A", 8)
	h.world.addActivity("B", 2, "1 18:00-18:30")
	h.world.addRoom("R1", 10)
	h.world.addRoom("R2", 12)
	h.world.bind("B", "R1")

	ranked, err := h.availability.SuggestRooms(context.Background(), "A", dto.SuggestionCriteria{})
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	for _, room := range ranked {
		assert.False(t, room.Available, "room %s", room.Room.ID)
		assert.Empty(t, room.Conflicts)
		assert.True(t, room.CapacitySufficient)
		require.Len(t, room.Notes, 1)
		assert.Contains(t, room.Notes[0], "no active schedule")
	}
}

func TestSuggestRoomsScoresNeverNegative(t *testing.T) {
	h := newSchedulingHarness(t, RoomAssignmentConfig{})
	h.world.addActivity("A", 2, "1 08:00-09:00", "2 08:00-09:00", "3 08:00-09:00")
	h.world.addActivity("B", 2, "1 08:00-09:00", "2 08:00-09:00", "3 08:00-09:00")
	h.world.addRoom("HALL", 300)
	h.world.bind("B", "HALL")

	ranked, err := h.availability.SuggestRooms(context.Background(), "A", dto.SuggestionCriteria{RequiredEquipment: []string{"piano"}})
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, 3, ranked[0].ConflictCount)
	assert.Equal(t, float64(0), ranked[0].Score)
}

func TestSuggestRoomsResolvesRequiredCapacity(t *testing.T) {
	h := newSchedulingHarness(t, RoomAssignmentConfig{})
	activity := h.world.addActivity("A", 6, "1 08:00-09:00")
	activity.CapacityMax = intPtr(15)
	h.world.addRoom("TINY", 8)
	h.world.addRoom("MID", 16)
	h.world.addRoom("BIG", 60)

	ranked, err := h.availability.SuggestRooms(context.Background(), "A", dto.SuggestionCriteria{MinCapacity: intPtr(10)})
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "MID", ranked[0].Room.ID)
	assert.Equal(t, 15, ranked[0].RequiredCapacity)
	assert.Equal(t, float64(120), ranked[0].Score)
	assert.Equal(t, "BIG", ranked[1].Room.ID)
	assert.Equal(t, float64(120-22.5), ranked[1].Score)
}

func TestSuggestRoomsKeepsCapacityOrderOnTies(t *testing.T) {
	h := newSchedulingHarness(t, RoomAssignmentConfig{})
	h.world.addActivity("A", 5, "1 08:00-09:00")
	h.world.addRoom("R30", 30)
	h.world.addRoom("R10", 10)
	h.world.addRoom("R20", 20)

	ranked, err := h.availability.SuggestRooms(context.Background(), "A", dto.SuggestionCriteria{})
	require.NoError(t, err)
	require.Len(t, ranked, 3)
	assert.Equal(t, "R10", ranked[0].Room.ID)
	assert.Equal(t, "R20", ranked[1].Room.ID)
	assert.Equal(t, "R30", ranked[2].Room.ID)
}

func TestSuggestRoomsRejectsNegativeMinimum(t *testing.T) {
	h := newSchedulingHarness(t, RoomAssignmentConfig{})
	h.world.addActivity("A", 5, "1 08:00-09:00")

	_, err := h.availability.SuggestRooms(context.Background(), "A", dto.SuggestionCriteria{MinCapacity: intPtr(-1)})
	requireAppError(t, err, appErrors.ErrValidation.Code)
}

func TestSuggestRoomsUsesConfiguredWeights(t *testing.T) {
	h := newSchedulingHarness(t, RoomAssignmentConfig{})
	h.world.addActivity("A", 5, "1 08:00-09:00")
	h.world.addRoom("R", 10)

	weights := scheduling.DefaultScoreWeights()
	weights.Base = 10
	svc := NewRoomAvailabilityService(activityRepoStub{w: h.world}, roomRepoStub{w: h.world}, roomAssignmentRepoStub{w: h.world},
		h.detector, weights, nil, zap.NewNop())

	ranked, err := svc.SuggestRooms(context.Background(), "A", dto.SuggestionCriteria{})
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, float64(30), ranked[0].Score)
}

func TestPunctualSourceUsesSchedulingTimezone(t *testing.T) {
	w := newFakeWorld()
	room := w.addRoom("R", 10)
	// 23:30 UTC on Sunday is 00:30 Monday in Madrid (UTC+1 in March).
	start := time.Date(2026, 3, 8, 23, 30, 0, 0, time.UTC)
	w.punctual = append(w.punctual, models.PunctualReservation{
		ID: "p1", RoomID: "R", Title: "Night shift", StartAt: start, EndAt: start.Add(time.Hour), Active: true,
	})
	madrid, err := time.LoadLocation("Europe/Madrid")
	require.NoError(t, err)

	source := NewPunctualBookingSource(punctualRepoStub{w: w}, madrid, clock)
	monday := scheduling.Interval{Day: scheduling.Monday, Start: scheduling.MustParseClock("00:00"), End: scheduling.MustParseClock("01:00")}
	conflicts, err := source.FindOverlapping(context.Background(), room, monday, nil)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "00:30", conflicts[0].Start)
	assert.Equal(t, "01:00", conflicts[0].End)

	utcSource := NewPunctualBookingSource(punctualRepoStub{w: w}, time.UTC, clock)
	conflicts, err = utcSource.FindOverlapping(context.Background(), room, monday, nil)
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestDetectConflictsUnionsSourcesWithoutDedup(t *testing.T) {
	h := newSchedulingHarness(t, RoomAssignmentConfig{})
	h.world.addActivity("B", 2, "5 10:00-12:00")
	h.world.addRoom("R", 10)
	h.world.bind("B", "R")
	h.world.sections = append(h.world.sections,
		models.SectionReservation{ID: "s1", RoomID: "R", SectionName: "Chem", DayName: "friday", StartTime: "11:00", EndTime: "13:00"})

	candidates := []scheduling.Interval{
		{Day: scheduling.Friday, Start: scheduling.MustParseClock("09:00"), End: scheduling.MustParseClock("11:30")},
		{Day: scheduling.Friday, Start: scheduling.MustParseClock("12:00"), End: scheduling.MustParseClock("13:00")},
	}
	conflicts, err := h.detector.DetectConflicts(context.Background(), "R", candidates, nil)
	require.NoError(t, err)
	require.Len(t, conflicts, 3)
	assert.Equal(t, models.ConflictActivity, conflicts[0].Kind)
	assert.Equal(t, models.ConflictSection, conflicts[1].Kind)
	assert.Equal(t, models.ConflictSection, conflicts[2].Kind)
	assert.Equal(t, "12:00", conflicts[2].Start)

	_, err = h.detector.DetectConflicts(context.Background(), "missing", candidates, nil)
	requireAppError(t, err, appErrors.ErrNotFound.Code)
}
