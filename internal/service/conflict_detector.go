package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/room-scheduling-api/internal/models"
	"github.com/noah-isme/room-scheduling-api/internal/scheduling"
	appErrors "github.com/noah-isme/room-scheduling-api/pkg/errors"
)

// BookingSource reports bookings of one kind that overlap a candidate weekly slot in a room.
type BookingSource interface {
	Kind() models.ConflictKind
	FindOverlapping(ctx context.Context, room *models.Room, candidate scheduling.Interval, excludeActivityIDs []string) ([]models.Conflict, error)
}

type roomReader interface {
	FindByID(ctx context.Context, id string) (*models.Room, error)
}

type activeAssignmentLister interface {
	ListActiveByRoom(ctx context.Context, roomID string, excludeActivityIDs []string) ([]models.RoomAssignmentDetail, error)
}

type scheduleEntryLister interface {
	ListScheduleEntries(ctx context.Context, activityID string, day int, activeOnly bool) ([]models.WeeklyScheduleEntry, error)
}

type punctualReservationLister interface {
	ListActiveByRoom(ctx context.Context, roomID string, notExpiredAt time.Time) ([]models.PunctualReservation, error)
}

type sectionReservationLister interface {
	ListByRoomAndDay(ctx context.Context, roomID, dayName string) ([]models.SectionReservation, error)
}

// ConflictDetector unions the conflicts reported by every registered booking source.
type ConflictDetector struct {
	rooms   roomReader
	sources []BookingSource
	metrics *MetricsService
	logger  *zap.Logger
}

// NewConflictDetector builds a detector over the given sources.
func NewConflictDetector(rooms roomReader, sources []BookingSource, metrics *MetricsService, logger *zap.Logger) *ConflictDetector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictDetector{rooms: rooms, sources: sources, metrics: metrics, logger: logger}
}

// DetectConflicts loads the room and checks every candidate interval against every source.
// Bindings of excludeActivityIDs are not reported as ACTIVITY conflicts.
func (d *ConflictDetector) DetectConflicts(ctx context.Context, roomID string, candidates []scheduling.Interval, excludeActivityIDs []string) ([]models.Conflict, error) {
	room, err := d.rooms.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}
	return d.DetectForRoom(ctx, room, candidates, excludeActivityIDs)
}

// DetectForRoom is DetectConflicts for an already loaded room. Results are concatenated
// in candidate then source order; the same booking may appear once per source and candidate.
func (d *ConflictDetector) DetectForRoom(ctx context.Context, room *models.Room, candidates []scheduling.Interval, excludeActivityIDs []string) ([]models.Conflict, error) {
	conflicts := make([]models.Conflict, 0)
	for _, candidate := range candidates {
		for _, source := range d.sources {
			found, err := source.FindOverlapping(ctx, room, candidate, excludeActivityIDs)
			if err != nil {
				d.logger.Error("booking source failed",
					zap.String("kind", string(source.Kind())),
					zap.String("room_id", room.ID),
					zap.Error(err))
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to detect conflicts")
			}
			conflicts = append(conflicts, found...)
		}
	}
	d.metrics.RecordConflicts(conflicts)
	return conflicts, nil
}

// ActivityBookingSource finds weekly slots of other activities actively bound to the room.
type ActivityBookingSource struct {
	assignments activeAssignmentLister
	schedules   scheduleEntryLister
	logger      *zap.Logger
}

// NewActivityBookingSource constructs the source.
func NewActivityBookingSource(assignments activeAssignmentLister, schedules scheduleEntryLister, logger *zap.Logger) *ActivityBookingSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityBookingSource{assignments: assignments, schedules: schedules, logger: logger}
}

// Kind implements BookingSource.
func (s *ActivityBookingSource) Kind() models.ConflictKind { return models.ConflictActivity }

// FindOverlapping implements BookingSource.
func (s *ActivityBookingSource) FindOverlapping(ctx context.Context, room *models.Room, candidate scheduling.Interval, excludeActivityIDs []string) ([]models.Conflict, error) {
	bound, err := s.assignments.ListActiveByRoom(ctx, room.ID, excludeActivityIDs)
	if err != nil {
		return nil, err
	}

	var conflicts []models.Conflict
	for _, assignment := range bound {
		entries, err := s.schedules.ListScheduleEntries(ctx, assignment.ActivityID, int(candidate.Day), true)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			slot, err := entry.Interval()
			if err != nil {
				s.logger.Warn("skipping malformed schedule entry", zap.String("entry_id", entry.ID), zap.Error(err))
				continue
			}
			if conflict, ok := buildConflict(models.ConflictActivity, room, candidate, slot); ok {
				conflict.SourceID = assignment.ActivityID
				conflict.SourceName = assignment.ActivityName
				conflicts = append(conflicts, conflict)
			}
		}
	}
	return conflicts, nil
}

// PunctualBookingSource finds one-off reservations whose weekly projection overlaps the slot.
type PunctualBookingSource struct {
	reservations punctualReservationLister
	location     *time.Location
	now          func() time.Time
}

// NewPunctualBookingSource constructs the source. Reservation days and clock times are read in loc.
func NewPunctualBookingSource(reservations punctualReservationLister, loc *time.Location, now func() time.Time) *PunctualBookingSource {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &PunctualBookingSource{reservations: reservations, location: loc, now: now}
}

// Kind implements BookingSource.
func (s *PunctualBookingSource) Kind() models.ConflictKind { return models.ConflictPunctual }

// FindOverlapping implements BookingSource.
func (s *PunctualBookingSource) FindOverlapping(ctx context.Context, room *models.Room, candidate scheduling.Interval, _ []string) ([]models.Conflict, error) {
	reservations, err := s.reservations.ListActiveByRoom(ctx, room.ID, s.now())
	if err != nil {
		return nil, err
	}

	var conflicts []models.Conflict
	for _, reservation := range reservations {
		slot := scheduling.IntervalFromRange(reservation.StartAt, reservation.EndAt, s.location)
		if conflict, ok := buildConflict(models.ConflictPunctual, room, candidate, slot); ok {
			conflict.SourceID = reservation.ID
			conflict.SourceName = reservation.Title
			conflicts = append(conflicts, conflict)
		}
	}
	return conflicts, nil
}

// SectionBookingSource finds weekly course-section bookings on the candidate day.
type SectionBookingSource struct {
	reservations sectionReservationLister
	logger       *zap.Logger
}

// NewSectionBookingSource constructs the source.
func NewSectionBookingSource(reservations sectionReservationLister, logger *zap.Logger) *SectionBookingSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SectionBookingSource{reservations: reservations, logger: logger}
}

// Kind implements BookingSource.
func (s *SectionBookingSource) Kind() models.ConflictKind { return models.ConflictSection }

// FindOverlapping implements BookingSource.
func (s *SectionBookingSource) FindOverlapping(ctx context.Context, room *models.Room, candidate scheduling.Interval, _ []string) ([]models.Conflict, error) {
	reservations, err := s.reservations.ListByRoomAndDay(ctx, room.ID, candidate.Day.Name())
	if err != nil {
		return nil, err
	}

	var conflicts []models.Conflict
	for _, reservation := range reservations {
		slot, err := scheduling.NewInterval(candidate.Day, reservation.StartTime, reservation.EndTime)
		if err != nil {
			s.logger.Warn("skipping malformed section reservation", zap.String("reservation_id", reservation.ID), zap.Error(err))
			continue
		}
		if conflict, ok := buildConflict(models.ConflictSection, room, candidate, slot); ok {
			conflict.SourceID = reservation.ID
			conflict.SourceName = reservation.SectionName
			conflicts = append(conflicts, conflict)
		}
	}
	return conflicts, nil
}

func buildConflict(kind models.ConflictKind, room *models.Room, candidate, booking scheduling.Interval) (models.Conflict, bool) {
	window, ok := scheduling.Intersection(candidate, booking)
	if !ok {
		return models.Conflict{}, false
	}
	return models.Conflict{
		Kind:         kind,
		DayOfWeek:    int(window.Day),
		DayName:      window.Day.Name(),
		Start:        window.Start.String(),
		End:          window.End.String(),
		BookingStart: booking.Start.String(),
		BookingEnd:   booking.End.String(),
		RoomID:       room.ID,
		RoomName:     room.Name,
	}, true
}
