package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/room-scheduling-api/internal/models"
	appErrors "github.com/noah-isme/room-scheduling-api/pkg/errors"
	"github.com/noah-isme/room-scheduling-api/pkg/export"
)

const occupancyCachePrefix = "occupancy:room:"

type activeRoomLister interface {
	FindByID(ctx context.Context, id string) (*models.Room, error)
	ListActive(ctx context.Context, ids []string) ([]models.Room, error)
}

type assignmentCounter interface {
	CountByRoom(ctx context.Context, roomID string) (active int, total int, err error)
}

type punctualReservationCounter interface {
	CountActiveByRoom(ctx context.Context, roomID string, notExpiredAt time.Time) (int, error)
}

type sectionReservationCounter interface {
	CountByRoom(ctx context.Context, roomID string) (int, error)
}

// ExportDocument is a rendered occupancy report.
type ExportDocument struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// RoomOccupancyService summarises how busy rooms are.
type RoomOccupancyService struct {
	rooms       activeRoomLister
	assignments assignmentCounter
	punctual    punctualReservationCounter
	sections    sectionReservationCounter
	cache       *CacheService
	cacheTTL    time.Duration
	now         func() time.Time
	logger      *zap.Logger
}

// NewRoomOccupancyService constructs the service. cache may be nil.
func NewRoomOccupancyService(
	rooms activeRoomLister,
	assignments assignmentCounter,
	punctual punctualReservationCounter,
	sections sectionReservationCounter,
	cache *CacheService,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *RoomOccupancyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomOccupancyService{
		rooms:       rooms,
		assignments: assignments,
		punctual:    punctual,
		sections:    sections,
		cache:       cache,
		cacheTTL:    cacheTTL,
		now:         time.Now,
		logger:      logger,
	}
}

// GetRoomOccupancy returns booking counts for the room, served from cache when possible.
// The second return value reports a cache hit.
func (s *RoomOccupancyService) GetRoomOccupancy(ctx context.Context, roomID string) (*models.RoomOccupancy, bool, error) {
	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}

	key := occupancyCachePrefix + room.ID
	var cached models.RoomOccupancy
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	occupancy, err := s.count(ctx, room)
	if err != nil {
		return nil, false, err
	}
	_ = s.cache.Set(ctx, key, occupancy, s.cacheTTL)
	return occupancy, false, nil
}

// InvalidateRoom drops the cached summary of roomID.
func (s *RoomOccupancyService) InvalidateRoom(ctx context.Context, roomID string) {
	if err := s.cache.Delete(ctx, occupancyCachePrefix+roomID); err != nil {
		s.logger.Warn("occupancy cache invalidation failed", zap.String("room_id", roomID), zap.Error(err))
	}
}

// PurgeCache drops every cached occupancy summary. It runs at startup so summaries written
// by a previous release, or left behind by a failed invalidation, are never served.
func (s *RoomOccupancyService) PurgeCache(ctx context.Context) error {
	if err := s.cache.Invalidate(ctx, occupancyCachePrefix+"*"); err != nil {
		return fmt.Errorf("purge occupancy cache: %w", err)
	}
	return nil
}

// ExportOccupancy renders the occupancy of the given active rooms (all when roomIDs is empty).
func (s *RoomOccupancyService) ExportOccupancy(ctx context.Context, format string, roomIDs []string) (*ExportDocument, error) {
	exporter, err := export.ForFormat(format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unsupported export format")
	}

	rooms, err := s.rooms.ListActive(ctx, roomIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rooms")
	}

	generatedAt := s.now().UTC()
	dataset := export.Dataset{
		Title:       "Room occupancy",
		Headers:     []string{"Room", "Active assignments", "Total assignments", "Punctual reservations", "Section reservations", "Total bookings"},
		GeneratedAt: generatedAt,
	}
	for i := range rooms {
		occupancy, err := s.count(ctx, &rooms[i])
		if err != nil {
			return nil, err
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Room":                  occupancy.RoomName,
			"Active assignments":    strconv.Itoa(occupancy.ActiveAssignments),
			"Total assignments":     strconv.Itoa(occupancy.TotalAssignments),
			"Punctual reservations": strconv.Itoa(occupancy.PunctualReservations),
			"Section reservations":  strconv.Itoa(occupancy.SectionReservations),
			"Total bookings":        strconv.Itoa(occupancy.TotalBookings),
		})
	}

	payload, err := exporter.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render occupancy export")
	}
	return &ExportDocument{
		Filename:    fmt.Sprintf("room-occupancy-%s.%s", generatedAt.Format("20060102-150405"), exporter.Extension()),
		ContentType: exporter.ContentType(),
		Payload:     payload,
	}, nil
}

func (s *RoomOccupancyService) count(ctx context.Context, room *models.Room) (*models.RoomOccupancy, error) {
	active, total, err := s.assignments.CountByRoom(ctx, room.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count room assignments")
	}
	punctual, err := s.punctual.CountActiveByRoom(ctx, room.ID, s.now())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count punctual reservations")
	}
	sections, err := s.sections.CountByRoom(ctx, room.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count section reservations")
	}
	return &models.RoomOccupancy{
		RoomID:               room.ID,
		RoomName:             room.Name,
		ActiveAssignments:    active,
		TotalAssignments:     total,
		PunctualReservations: punctual,
		SectionReservations:  sections,
		TotalBookings:        active + punctual + sections,
	}, nil
}
