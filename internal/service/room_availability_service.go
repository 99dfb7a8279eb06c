package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/room-scheduling-api/internal/dto"
	"github.com/noah-isme/room-scheduling-api/internal/models"
	"github.com/noah-isme/room-scheduling-api/internal/scheduling"
	appErrors "github.com/noah-isme/room-scheduling-api/pkg/errors"
)

type roomCandidateLister interface {
	FindByID(ctx context.Context, id string) (*models.Room, error)
	ListCandidates(ctx context.Context, filter models.RoomCandidateFilter) ([]models.Room, error)
}

type assignmentFinder interface {
	FindByID(ctx context.Context, id string) (*models.RoomAssignmentDetail, error)
}

const noScheduleNote = "activity has no active schedule; nothing to check"

// RoomAvailabilityService answers read-only "can this activity use this room" questions.
// Its answers are advisory; mutations re-check under the room lock.
type RoomAvailabilityService struct {
	activities  activityReader
	rooms       roomCandidateLister
	assignments assignmentFinder
	detector    roomConflictDetector
	weights     scheduling.ScoreWeights
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewRoomAvailabilityService constructs the service. Zero weights fall back to the defaults.
func NewRoomAvailabilityService(
	activities activityReader,
	rooms roomCandidateLister,
	assignments assignmentFinder,
	detector roomConflictDetector,
	weights scheduling.ScoreWeights,
	metrics *MetricsService,
	logger *zap.Logger,
) *RoomAvailabilityService {
	if weights == (scheduling.ScoreWeights{}) {
		weights = scheduling.DefaultScoreWeights()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomAvailabilityService{
		activities:  activities,
		rooms:       rooms,
		assignments: assignments,
		detector:    detector,
		weights:     weights,
		metrics:     metrics,
		logger:      logger,
	}
}

// VerifyAvailability previews binding activityID to roomID. Conflicts and capacity shortfalls
// are reported in the result, never returned as errors.
func (s *RoomAvailabilityService) VerifyAvailability(ctx context.Context, activityID, roomID string, excludeAssignmentID *string) (*dto.AvailabilityResult, error) {
	activity, err := s.loadActivity(ctx, activityID)
	if err != nil {
		return nil, err
	}
	room, err := s.loadRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	result := &dto.AvailabilityResult{
		ActivityID:   activity.ID,
		RoomID:       room.ID,
		Conflicts:    make([]models.Conflict, 0),
		RoomCapacity: room.Capacity,
		Notes:        make([]string, 0),
	}

	slots, err := activeSlots(activity)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		result.Notes = append(result.Notes, noScheduleNote)
		return result, nil
	}

	exclude := []string{activity.ID}
	if excludeAssignmentID != nil && *excludeAssignmentID != "" {
		existing, err := s.assignments.FindByID(ctx, *excludeAssignmentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "room assignment not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room assignment")
		}
		if existing.ActivityID != activity.ID {
			exclude = append(exclude, existing.ActivityID)
		}
	}

	participants, err := s.activities.CountActiveParticipants(ctx, activity.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count participants")
	}
	result.ParticipantsActual = participants
	result.CapacitySufficient = participants <= room.Capacity

	conflicts, err := s.detector.DetectForRoom(ctx, room, slots, exclude)
	if err != nil {
		return nil, err
	}
	result.Conflicts = conflicts

	if len(conflicts) > 0 {
		result.Notes = append(result.Notes, "room has conflicting bookings")
	}
	if !result.CapacitySufficient {
		result.Notes = append(result.Notes, "active participants exceed room capacity")
	}
	if !room.Active {
		result.Notes = append(result.Notes, "room is inactive")
	}
	if !activity.Active {
		result.Notes = append(result.Notes, "activity is inactive")
	}
	result.Available = len(conflicts) == 0 && result.CapacitySufficient && room.Active && activity.Active
	return result, nil
}

// SuggestRooms ranks every candidate room able to seat the activity, best score first.
// Unavailable rooms are returned too, flagged as such. Without an active schedule no room
// is reported available; rooms are still ranked by capacity and equipment.
func (s *RoomAvailabilityService) SuggestRooms(ctx context.Context, activityID string, criteria dto.SuggestionCriteria) ([]dto.RankedRoom, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveSuggestion(time.Since(start)) }()

	minCapacity := 0
	if criteria.MinCapacity != nil {
		if *criteria.MinCapacity < 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "minCapacity must not be negative")
		}
		minCapacity = *criteria.MinCapacity
	}

	activity, err := s.loadActivity(ctx, activityID)
	if err != nil {
		return nil, err
	}
	slots, err := activeSlots(activity)
	if err != nil {
		return nil, err
	}
	participants, err := s.activities.CountActiveParticipants(ctx, activity.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count participants")
	}
	required := scheduling.RequiredCapacity(minCapacity, participants, activity.CapacityMax)

	candidates, err := s.rooms.ListCandidates(ctx, models.RoomCandidateFilter{MinCapacity: required, RoomType: criteria.RoomType})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list candidate rooms")
	}

	scheduled := len(slots) > 0
	ranked := make([]dto.RankedRoom, 0, len(candidates))
	for i := range candidates {
		room := candidates[i]
		conflicts := make([]models.Conflict, 0)
		var notes []string
		if scheduled {
			conflicts, err = s.detector.DetectForRoom(ctx, &room, slots, []string{activity.ID})
			if err != nil {
				return nil, err
			}
		} else {
			notes = []string{noScheduleNote}
		}
		hasEquipment := scheduling.HasEquipment(room.EquipmentIDs, criteria.RequiredEquipment)
		ranked = append(ranked, dto.RankedRoom{
			Room:                 room,
			Available:            scheduled && len(conflicts) == 0,
			Notes:                notes,
			Conflicts:            conflicts,
			ConflictCount:        len(conflicts),
			CapacitySufficient:   room.Capacity >= required,
			RequiredCapacity:     required,
			HasRequiredEquipment: hasEquipment,
			Score: s.weights.Score(scheduling.ScoreInput{
				Conflicts:            len(conflicts),
				Capacity:             room.Capacity,
				RequiredCapacity:     required,
				HasRequiredEquipment: hasEquipment,
			}),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	s.logger.Debug("rooms ranked",
		zap.String("activity_id", activity.ID),
		zap.Int("required_capacity", required),
		zap.Bool("scheduled", scheduled),
		zap.Int("candidates", len(ranked)))
	return ranked, nil
}

func (s *RoomAvailabilityService) loadActivity(ctx context.Context, id string) (*models.Activity, error) {
	activity, err := s.activities.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity")
	}
	return activity, nil
}

func (s *RoomAvailabilityService) loadRoom(ctx context.Context, id string) (*models.Room, error) {
	room, err := s.rooms.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}
	return room, nil
}
