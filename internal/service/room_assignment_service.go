package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/room-scheduling-api/internal/dto"
	"github.com/noah-isme/room-scheduling-api/internal/models"
	"github.com/noah-isme/room-scheduling-api/internal/scheduling"
	appErrors "github.com/noah-isme/room-scheduling-api/pkg/errors"
	"github.com/noah-isme/room-scheduling-api/pkg/lock"
)

type activityReader interface {
	FindByID(ctx context.Context, id string) (*models.Activity, error)
	CountActiveParticipants(ctx context.Context, activityID string) (int, error)
}

type roomAssignmentStore interface {
	Create(ctx context.Context, assignment *models.RoomAssignment) error
	Update(ctx context.Context, assignment *models.RoomAssignment) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*models.RoomAssignmentDetail, error)
	FindActiveByActivityAndRoom(ctx context.Context, activityID, roomID string) (*models.RoomAssignment, error)
	ListByActivity(ctx context.Context, activityID string) ([]models.RoomAssignmentDetail, error)
	ListByRoom(ctx context.Context, roomID string, activeOnly bool) ([]models.RoomAssignmentDetail, error)
}

type roomConflictDetector interface {
	DetectForRoom(ctx context.Context, room *models.Room, candidates []scheduling.Interval, excludeActivityIDs []string) ([]models.Conflict, error)
}

type occupancyInvalidator interface {
	InvalidateRoom(ctx context.Context, roomID string)
}

// RoomAssignmentConfig tunes the assignment workflow.
type RoomAssignmentConfig struct {
	// CompensateChangeRoom reactivates the previous assignment when ChangeRoom
	// cannot bind the new room. Requests may override it.
	CompensateChangeRoom bool
	Now                  func() time.Time
}

// RoomAssignmentService manages the lifecycle of activity-room bindings.
type RoomAssignmentService struct {
	activities  activityReader
	rooms       roomReader
	assignments roomAssignmentStore
	detector    roomConflictDetector
	locker      lock.Locker
	occupancy   occupancyInvalidator
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         RoomAssignmentConfig
}

// NewRoomAssignmentService wires the service. A nil locker disables room locking.
func NewRoomAssignmentService(
	activities activityReader,
	rooms roomReader,
	assignments roomAssignmentStore,
	detector roomConflictDetector,
	locker lock.Locker,
	occupancy occupancyInvalidator,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg RoomAssignmentConfig,
) *RoomAssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &RoomAssignmentService{
		activities:  activities,
		rooms:       rooms,
		assignments: assignments,
		detector:    detector,
		locker:      locker,
		occupancy:   occupancy,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
	}
}

// Assign binds an activity to a room after validating state, capacity and conflicts.
func (s *RoomAssignmentService) Assign(ctx context.Context, req dto.AssignRoomRequest) (*models.RoomAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	assignment, err := s.assign(ctx, req.ActivityID, req.RoomID, req.Priority, req.Note)
	s.metrics.RecordAssignment("assign", outcomeOf(err))
	return assignment, err
}

func (s *RoomAssignmentService) assign(ctx context.Context, activityID, roomID string, priority int, note *string) (*models.RoomAssignment, error) {
	activity, err := s.loadActivity(ctx, activityID)
	if err != nil {
		return nil, err
	}
	if !activity.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "inactive activity")
	}
	slots, err := activeSlots(activity)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "activity has no active schedule")
	}

	room, err := s.loadRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "inactive room")
	}

	var created *models.RoomAssignment
	err = s.withRoomLock(ctx, room.ID, func() error {
		existing, err := s.assignments.FindActiveByActivityAndRoom(ctx, activity.ID, room.ID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing assignment")
		}
		if existing != nil {
			return appErrors.Clone(appErrors.ErrConflict, "duplicate active assignment")
		}

		if err := s.ensureBookable(ctx, activity, room, slots); err != nil {
			return err
		}

		assignment := &models.RoomAssignment{
			ActivityID: activity.ID,
			RoomID:     room.ID,
			Status:     models.AssignmentActive,
			Priority:   priority,
			Note:       note,
			AssignedAt: s.cfg.Now().UTC(),
		}
		if err := s.assignments.Create(ctx, assignment); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create room assignment")
		}
		created = assignment
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateOccupancy(ctx, room.ID)
	s.logger.Info("room assigned",
		zap.String("assignment_id", created.ID),
		zap.String("activity_id", activity.ID),
		zap.String("room_id", room.ID))
	return created, nil
}

// Deassign ends an active assignment at when (defaults to now).
func (s *RoomAssignmentService) Deassign(ctx context.Context, id string, req dto.DeassignRequest) (*models.RoomAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid deassign payload")
	}
	assignment, err := s.deassign(ctx, id, req.UnassignedAt, req.Note)
	s.metrics.RecordAssignment("deassign", outcomeOf(err))
	return assignment, err
}

func (s *RoomAssignmentService) deassign(ctx context.Context, id string, when *time.Time, note *string) (*models.RoomAssignment, error) {
	detail, err := s.loadAssignment(ctx, id)
	if err != nil {
		return nil, err
	}
	assignment := detail.RoomAssignment
	if err := assignment.Status.TransitionTo(models.AssignmentInactive); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidState.Code, appErrors.ErrInvalidState.Status, "assignment is already inactive")
	}

	unassignedAt := s.cfg.Now().UTC()
	if when != nil && !when.IsZero() {
		unassignedAt = when.UTC()
	}
	assignment.Status = models.AssignmentInactive
	assignment.UnassignedAt = &unassignedAt
	if note != nil {
		assignment.Note = note
	}
	if err := s.assignments.Update(ctx, &assignment); err != nil {
		return nil, s.mapStoreError(err, "failed to deassign room")
	}

	s.invalidateOccupancy(ctx, assignment.RoomID)
	s.logger.Info("room deassigned",
		zap.String("assignment_id", assignment.ID),
		zap.String("activity_id", assignment.ActivityID),
		zap.String("room_id", assignment.RoomID))
	return &assignment, nil
}

// Reactivate re-runs the booking checks as of now and flips an inactive assignment back to active.
func (s *RoomAssignmentService) Reactivate(ctx context.Context, id string) (*models.RoomAssignment, error) {
	assignment, err := s.reactivate(ctx, id)
	s.metrics.RecordAssignment("reactivate", outcomeOf(err))
	return assignment, err
}

func (s *RoomAssignmentService) reactivate(ctx context.Context, id string) (*models.RoomAssignment, error) {
	detail, err := s.loadAssignment(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := detail.Status.TransitionTo(models.AssignmentActive); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidState.Code, appErrors.ErrInvalidState.Status, "assignment is already active")
	}

	activity, err := s.loadActivity(ctx, detail.ActivityID)
	if err != nil {
		return nil, err
	}
	if !activity.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "inactive activity")
	}
	slots, err := activeSlots(activity)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "activity has no active schedule")
	}
	room, err := s.loadRoom(ctx, detail.RoomID)
	if err != nil {
		return nil, err
	}
	if !room.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "inactive room")
	}

	var reactivated models.RoomAssignment
	err = s.withRoomLock(ctx, room.ID, func() error {
		current, err := s.loadAssignment(ctx, id)
		if err != nil {
			return err
		}
		if err := current.Status.TransitionTo(models.AssignmentActive); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInvalidState.Code, appErrors.ErrInvalidState.Status, "assignment is already active")
		}
		existing, err := s.assignments.FindActiveByActivityAndRoom(ctx, activity.ID, room.ID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing assignment")
		}
		if existing != nil {
			return appErrors.Clone(appErrors.ErrConflict, "duplicate active assignment")
		}
		if err := s.ensureBookable(ctx, activity, room, slots); err != nil {
			return err
		}

		reactivated = current.RoomAssignment
		reactivated.Status = models.AssignmentActive
		reactivated.UnassignedAt = nil
		if err := s.assignments.Update(ctx, &reactivated); err != nil {
			return s.mapStoreError(err, "failed to reactivate room assignment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateOccupancy(ctx, room.ID)
	s.logger.Info("room assignment reactivated",
		zap.String("assignment_id", reactivated.ID),
		zap.String("activity_id", reactivated.ActivityID),
		zap.String("room_id", reactivated.RoomID))
	return &reactivated, nil
}

// Update patches an assignment for administrative correction. It does not run conflict or
// capacity checks; it only refuses to create a second active binding for the same pair.
func (s *RoomAssignmentService) Update(ctx context.Context, id string, req dto.UpdateRoomAssignmentRequest) (*models.RoomAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment update payload")
	}
	assignment, err := s.update(ctx, id, req)
	s.metrics.RecordAssignment("update", outcomeOf(err))
	return assignment, err
}

func (s *RoomAssignmentService) update(ctx context.Context, id string, req dto.UpdateRoomAssignmentRequest) (*models.RoomAssignment, error) {
	detail, err := s.loadAssignment(ctx, id)
	if err != nil {
		return nil, err
	}
	assignment := detail.RoomAssignment
	staysActive := assignment.IsActive()
	if req.Active != nil {
		staysActive = *req.Active
	}
	if req.UnassignedAt != nil && staysActive {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unassignedAt can only be set on an inactive assignment")
	}
	if req.Priority != nil {
		assignment.Priority = *req.Priority
	}
	if req.Note != nil {
		assignment.Note = req.Note
	}
	if req.UnassignedAt != nil {
		at := req.UnassignedAt.UTC()
		assignment.UnassignedAt = &at
	}

	activating := req.Active != nil && *req.Active && !assignment.IsActive()
	if req.Active != nil && !*req.Active && assignment.IsActive() {
		assignment.Status = models.AssignmentInactive
		if assignment.UnassignedAt == nil {
			now := s.cfg.Now().UTC()
			assignment.UnassignedAt = &now
		}
	}

	persist := func() error {
		if err := s.assignments.Update(ctx, &assignment); err != nil {
			return s.mapStoreError(err, "failed to update room assignment")
		}
		return nil
	}

	if activating {
		assignment.Status = models.AssignmentActive
		assignment.UnassignedAt = nil
		err = s.withRoomLock(ctx, assignment.RoomID, func() error {
			existing, err := s.assignments.FindActiveByActivityAndRoom(ctx, assignment.ActivityID, assignment.RoomID)
			if err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing assignment")
			}
			if existing != nil && existing.ID != assignment.ID {
				return appErrors.Clone(appErrors.ErrConflict, "duplicate active assignment")
			}
			return persist()
		})
	} else {
		err = persist()
	}
	if err != nil {
		return nil, err
	}

	s.invalidateOccupancy(ctx, assignment.RoomID)
	s.logger.Info("room assignment updated",
		zap.String("assignment_id", assignment.ID),
		zap.String("status", string(assignment.Status)))
	return &assignment, nil
}

// Delete hard-deletes an assignment regardless of its state.
func (s *RoomAssignmentService) Delete(ctx context.Context, id string) error {
	err := s.delete(ctx, id)
	s.metrics.RecordAssignment("delete", outcomeOf(err))
	return err
}

func (s *RoomAssignmentService) delete(ctx context.Context, id string) error {
	detail, err := s.loadAssignment(ctx, id)
	if err != nil {
		return err
	}
	if err := s.assignments.Delete(ctx, id); err != nil {
		return s.mapStoreError(err, "failed to delete room assignment")
	}
	s.invalidateOccupancy(ctx, detail.RoomID)
	s.logger.Info("room assignment deleted",
		zap.String("assignment_id", id),
		zap.String("status", string(detail.Status)))
	return nil
}

// ChangeRoom deassigns the activity's active binding to oldRoomID and assigns it to req.RoomID.
// The two steps are not atomic. When compensation is enabled (config or request) a failed
// assign reactivates the previous binding; otherwise the activity is left without that room.
func (s *RoomAssignmentService) ChangeRoom(ctx context.Context, activityID, oldRoomID string, req dto.ChangeRoomRequest) (*dto.ChangeRoomResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid change room payload")
	}
	result, err := s.changeRoom(ctx, activityID, oldRoomID, req)
	s.metrics.RecordAssignment("change_room", outcomeOf(err))
	return result, err
}

func (s *RoomAssignmentService) changeRoom(ctx context.Context, activityID, oldRoomID string, req dto.ChangeRoomRequest) (*dto.ChangeRoomResult, error) {
	current, err := s.assignments.FindActiveByActivityAndRoom(ctx, activityID, oldRoomID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current assignment")
	}
	if current == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no active assignment for activity in room")
	}

	previous, err := s.deassign(ctx, current.ID, nil, nil)
	if err != nil {
		return nil, err
	}

	assigned, assignErr := s.assign(ctx, activityID, req.RoomID, req.Priority, req.Note)
	if assignErr != nil {
		compensate := s.cfg.CompensateChangeRoom
		if req.RestorePreviousOnFailure != nil {
			compensate = *req.RestorePreviousOnFailure
		}
		if !compensate {
			s.logger.Warn("room change left activity without previous room",
				zap.String("activity_id", activityID),
				zap.String("previous_room_id", oldRoomID),
				zap.String("target_room_id", req.RoomID),
				zap.Error(assignErr))
			return nil, assignErr
		}
		if _, err := s.reactivate(ctx, previous.ID); err != nil {
			s.logger.Error("failed to restore previous room assignment",
				zap.String("assignment_id", previous.ID),
				zap.Error(err))
		} else {
			s.logger.Info("previous room assignment restored", zap.String("assignment_id", previous.ID))
		}
		return nil, assignErr
	}

	return &dto.ChangeRoomResult{Previous: *previous, Assignment: *assigned}, nil
}

// AssignMultiple assigns the activity to each requested room in order. Failures are collected
// per room and never roll back rooms already assigned.
func (s *RoomAssignmentService) AssignMultiple(ctx context.Context, req dto.BulkAssignRequest) (*dto.BulkAssignResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk assignment payload")
	}

	result := &dto.BulkAssignResult{
		Created: make([]models.RoomAssignment, 0, len(req.Rooms)),
		Errors:  make([]dto.BulkAssignError, 0),
	}
	for _, room := range req.Rooms {
		assignment, err := s.assign(ctx, req.ActivityID, room.RoomID, room.Priority, room.Note)
		s.metrics.RecordAssignment("assign_multiple", outcomeOf(err))
		if err != nil {
			appErr := appErrors.FromError(err)
			result.Errors = append(result.Errors, dto.BulkAssignError{
				RoomID:  room.RoomID,
				Code:    appErr.Code,
				Message: appErr.Message,
				Details: appErr.Details,
			})
			continue
		}
		result.Created = append(result.Created, *assignment)
	}
	result.TotalCreated = len(result.Created)
	result.TotalErrors = len(result.Errors)
	return result, nil
}

// Get returns one assignment with display names.
func (s *RoomAssignmentService) Get(ctx context.Context, id string) (*models.RoomAssignmentDetail, error) {
	return s.loadAssignment(ctx, id)
}

// ListByActivity returns every assignment of the activity.
func (s *RoomAssignmentService) ListByActivity(ctx context.Context, activityID string) ([]models.RoomAssignmentDetail, error) {
	if _, err := s.loadActivity(ctx, activityID); err != nil {
		return nil, err
	}
	assignments, err := s.assignments.ListByActivity(ctx, activityID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list room assignments")
	}
	return assignments, nil
}

// ListByRoom returns assignments of the room, optionally active only.
func (s *RoomAssignmentService) ListByRoom(ctx context.Context, roomID string, activeOnly bool) ([]models.RoomAssignmentDetail, error) {
	if _, err := s.loadRoom(ctx, roomID); err != nil {
		return nil, err
	}
	assignments, err := s.assignments.ListByRoom(ctx, roomID, activeOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list room assignments")
	}
	return assignments, nil
}

// ensureBookable runs the capacity and conflict checks shared by Assign and Reactivate.
func (s *RoomAssignmentService) ensureBookable(ctx context.Context, activity *models.Activity, room *models.Room, slots []scheduling.Interval) error {
	participants, err := s.activities.CountActiveParticipants(ctx, activity.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count participants")
	}
	if participants > room.Capacity {
		return appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrCapacityExceeded, "active participants exceed room capacity"),
			map[string]int{"participants": participants, "capacity": room.Capacity},
		)
	}

	conflicts, err := s.detector.DetectForRoom(ctx, room, slots, []string{activity.ID})
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return conflictError(conflicts)
	}
	return nil
}

func (s *RoomAssignmentService) withRoomLock(ctx context.Context, roomID string, fn func() error) error {
	if s.locker == nil {
		return fn()
	}
	start := time.Now()
	release, err := s.locker.Acquire(ctx, roomLockKey(roomID))
	s.metrics.ObserveLockWait(err == nil, time.Since(start))
	if err != nil {
		if errors.Is(err, lock.ErrTimeout) {
			return appErrors.Clone(appErrors.ErrResourceLocked, "room is being modified, retry later")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock room")
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			if errors.Is(err, lock.ErrLockLost) {
				s.logger.Error("room lock expired while held", zap.String("room_id", roomID), zap.Error(err))
				return
			}
			s.logger.Warn("failed to release room lock", zap.String("room_id", roomID), zap.Error(err))
		}
	}()
	return fn()
}

func (s *RoomAssignmentService) loadActivity(ctx context.Context, id string) (*models.Activity, error) {
	activity, err := s.activities.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity")
	}
	return activity, nil
}

func (s *RoomAssignmentService) loadRoom(ctx context.Context, id string) (*models.Room, error) {
	room, err := s.rooms.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}
	return room, nil
}

func (s *RoomAssignmentService) loadAssignment(ctx context.Context, id string) (*models.RoomAssignmentDetail, error) {
	assignment, err := s.assignments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room assignment")
	}
	return assignment, nil
}

func (s *RoomAssignmentService) mapStoreError(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "room assignment not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func (s *RoomAssignmentService) invalidateOccupancy(ctx context.Context, roomID string) {
	if s.occupancy != nil {
		s.occupancy.InvalidateRoom(ctx, roomID)
	}
}

func roomLockKey(roomID string) string {
	return "room:" + roomID
}

// activeSlots converts the activity's active schedule into weekly intervals.
func activeSlots(activity *models.Activity) ([]scheduling.Interval, error) {
	entries := activity.ActiveSchedule()
	slots := make([]scheduling.Interval, 0, len(entries))
	for _, entry := range entries {
		slot, err := entry.Interval()
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "activity schedule entry is malformed")
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

func conflictError(conflicts []models.Conflict) error {
	detail := &models.ConflictError{Message: "room is already booked during the requested schedule", Conflicts: conflicts}
	return appErrors.WithDetails(
		appErrors.Wrap(detail, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, detail.Message),
		detail,
	)
}

func outcomeOf(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	appErr := appErrors.FromError(err)
	switch appErr.Code {
	case appErrors.ErrConflict.Code:
		return OutcomeConflict
	case appErrors.ErrCapacityExceeded.Code:
		return OutcomeCapacity
	case appErrors.ErrInternal.Code:
		return OutcomeError
	default:
		return OutcomeRejected
	}
}
