package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/room-scheduling-api/internal/models"
	"github.com/noah-isme/room-scheduling-api/internal/scheduling"
	appErrors "github.com/noah-isme/room-scheduling-api/pkg/errors"
	"github.com/noah-isme/room-scheduling-api/pkg/lock"
)

// fixedNow is a Sunday; the following Monday is 2026-03-02.
var fixedNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

// fakeWorld is an in-memory data store shared by the repository stubs below.
type fakeWorld struct {
	mu           sync.Mutex
	activities   map[string]*models.Activity
	participants map[string]int
	rooms        map[string]*models.Room
	assignments  map[string]*models.RoomAssignment
	order        []string
	punctual     []models.PunctualReservation
	sections     []models.SectionReservation
	seq          int
	failCreate   error
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{
		activities:   map[string]*models.Activity{},
		participants: map[string]int{},
		rooms:        map[string]*models.Room{},
		assignments:  map[string]*models.RoomAssignment{},
	}
}

func (w *fakeWorld) addRoom(id string, capacity int, equipment ...string) *models.Room {
	room := &models.Room{ID: id, Name: "Room " + id, Capacity: capacity, Active: true, EquipmentIDs: equipment}
	w.rooms[id] = room
	return room
}

// addActivity registers an activity; slots are "DAY HH:MM-HH:MM" with DAY in 1..7.
func (w *fakeWorld) addActivity(id string, participants int, slots ...string) *models.Activity {
	activity := &models.Activity{ID: id, Name: "Activity " + id, Active: true}
	for i, raw := range slots {
		var day int
		var start, end string
		parts := strings.Fields(raw)
		fmt.Sscanf(parts[0], "%d", &day)
		bounds := strings.Split(parts[1], "-")
		start, end = bounds[0], bounds[1]
		activity.Schedule = append(activity.Schedule, models.WeeklyScheduleEntry{
			ID:         fmt.Sprintf("%s-entry-%d", id, i),
			ActivityID: id,
			DayOfWeek:  day,
			StartTime:  start,
			EndTime:    end,
			Active:     true,
		})
	}
	w.activities[id] = activity
	w.participants[id] = participants
	return activity
}

func (w *fakeWorld) bind(activityID, roomID string) *models.RoomAssignment {
	w.seq++
	assignment := &models.RoomAssignment{
		ID:         fmt.Sprintf("seed-%d", w.seq),
		ActivityID: activityID,
		RoomID:     roomID,
		Status:     models.AssignmentActive,
		AssignedAt: fixedNow.Add(-24 * time.Hour),
	}
	w.assignments[assignment.ID] = assignment
	w.order = append(w.order, assignment.ID)
	return assignment
}

func (w *fakeWorld) activeFor(activityID, roomID string) []models.RoomAssignment {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []models.RoomAssignment
	for _, id := range w.order {
		a := w.assignments[id]
		if a != nil && a.ActivityID == activityID && a.RoomID == roomID && a.IsActive() {
			out = append(out, *a)
		}
	}
	return out
}

func (w *fakeWorld) detail(a *models.RoomAssignment) models.RoomAssignmentDetail {
	detail := models.RoomAssignmentDetail{RoomAssignment: *a}
	if activity, ok := w.activities[a.ActivityID]; ok {
		detail.ActivityName = activity.Name
	}
	if room, ok := w.rooms[a.RoomID]; ok {
		detail.RoomName = room.Name
	}
	return detail
}

type activityRepoStub struct{ w *fakeWorld }

func (s activityRepoStub) FindByID(ctx context.Context, id string) (*models.Activity, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	activity, ok := s.w.activities[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *activity
	cp.Schedule = append([]models.WeeklyScheduleEntry(nil), activity.Schedule...)
	return &cp, nil
}

func (s activityRepoStub) CountActiveParticipants(ctx context.Context, activityID string) (int, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	return s.w.participants[activityID], nil
}

func (s activityRepoStub) ListScheduleEntries(ctx context.Context, activityID string, day int, activeOnly bool) ([]models.WeeklyScheduleEntry, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	activity, ok := s.w.activities[activityID]
	if !ok {
		return nil, nil
	}
	var out []models.WeeklyScheduleEntry
	for _, entry := range activity.Schedule {
		if day > 0 && entry.DayOfWeek != day {
			continue
		}
		if activeOnly && !entry.Active {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

type roomRepoStub struct{ w *fakeWorld }

func (s roomRepoStub) FindByID(ctx context.Context, id string) (*models.Room, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	room, ok := s.w.rooms[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *room
	return &cp, nil
}

func (s roomRepoStub) ListCandidates(ctx context.Context, filter models.RoomCandidateFilter) ([]models.Room, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	var out []models.Room
	for _, room := range s.w.rooms {
		if !room.Active || room.Capacity < filter.MinCapacity {
			continue
		}
		if filter.RoomType != "" && (room.RoomType == nil || *room.RoomType != filter.RoomType) {
			continue
		}
		out = append(out, *room)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Capacity != out[j].Capacity {
			return out[i].Capacity < out[j].Capacity
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s roomRepoStub) ListActive(ctx context.Context, ids []string) ([]models.Room, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	wanted := map[string]bool{}
	for _, id := range ids {
		wanted[id] = true
	}
	var out []models.Room
	for _, room := range s.w.rooms {
		if room.Active && (len(ids) == 0 || wanted[room.ID]) {
			out = append(out, *room)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type roomAssignmentRepoStub struct{ w *fakeWorld }

func (s roomAssignmentRepoStub) Create(ctx context.Context, assignment *models.RoomAssignment) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	if s.w.failCreate != nil {
		return s.w.failCreate
	}
	for _, existing := range s.w.assignments {
		if existing.IsActive() && existing.ActivityID == assignment.ActivityID && existing.RoomID == assignment.RoomID {
			return fmt.Errorf("duplicate key value violates unique constraint")
		}
	}
	s.w.seq++
	if assignment.ID == "" {
		assignment.ID = fmt.Sprintf("ra-%d", s.w.seq)
	}
	cp := *assignment
	s.w.assignments[cp.ID] = &cp
	s.w.order = append(s.w.order, cp.ID)
	return nil
}

func (s roomAssignmentRepoStub) Update(ctx context.Context, assignment *models.RoomAssignment) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	if _, ok := s.w.assignments[assignment.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *assignment
	s.w.assignments[cp.ID] = &cp
	return nil
}

func (s roomAssignmentRepoStub) Delete(ctx context.Context, id string) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	if _, ok := s.w.assignments[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.w.assignments, id)
	return nil
}

func (s roomAssignmentRepoStub) FindByID(ctx context.Context, id string) (*models.RoomAssignmentDetail, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	assignment, ok := s.w.assignments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	detail := s.w.detail(assignment)
	return &detail, nil
}

func (s roomAssignmentRepoStub) FindActiveByActivityAndRoom(ctx context.Context, activityID, roomID string) (*models.RoomAssignment, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	for _, id := range s.w.order {
		a, ok := s.w.assignments[id]
		if ok && a.IsActive() && a.ActivityID == activityID && a.RoomID == roomID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (s roomAssignmentRepoStub) list(match func(*models.RoomAssignment) bool) []models.RoomAssignmentDetail {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	var out []models.RoomAssignmentDetail
	for _, id := range s.w.order {
		a, ok := s.w.assignments[id]
		if ok && match(a) {
			out = append(out, s.w.detail(a))
		}
	}
	return out
}

func (s roomAssignmentRepoStub) ListActiveByRoom(ctx context.Context, roomID string, excludeActivityIDs []string) ([]models.RoomAssignmentDetail, error) {
	return s.list(func(a *models.RoomAssignment) bool {
		for _, excluded := range excludeActivityIDs {
			if a.ActivityID == excluded {
				return false
			}
		}
		return a.RoomID == roomID && a.IsActive()
	}), nil
}

func (s roomAssignmentRepoStub) ListByActivity(ctx context.Context, activityID string) ([]models.RoomAssignmentDetail, error) {
	return s.list(func(a *models.RoomAssignment) bool { return a.ActivityID == activityID }), nil
}

func (s roomAssignmentRepoStub) ListByRoom(ctx context.Context, roomID string, activeOnly bool) ([]models.RoomAssignmentDetail, error) {
	return s.list(func(a *models.RoomAssignment) bool {
		return a.RoomID == roomID && (!activeOnly || a.IsActive())
	}), nil
}

func (s roomAssignmentRepoStub) CountByRoom(ctx context.Context, roomID string) (int, int, error) {
	all := s.list(func(a *models.RoomAssignment) bool { return a.RoomID == roomID })
	active := 0
	for _, a := range all {
		if a.IsActive() {
			active++
		}
	}
	return active, len(all), nil
}

type punctualRepoStub struct{ w *fakeWorld }

func (s punctualRepoStub) ListActiveByRoom(ctx context.Context, roomID string, notExpiredAt time.Time) ([]models.PunctualReservation, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	var out []models.PunctualReservation
	for _, r := range s.w.punctual {
		if r.RoomID == roomID && r.Active && r.EndAt.After(notExpiredAt) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s punctualRepoStub) CountActiveByRoom(ctx context.Context, roomID string, notExpiredAt time.Time) (int, error) {
	list, _ := s.ListActiveByRoom(ctx, roomID, notExpiredAt)
	return len(list), nil
}

type sectionRepoStub struct{ w *fakeWorld }

func (s sectionRepoStub) ListByRoomAndDay(ctx context.Context, roomID, dayName string) ([]models.SectionReservation, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	var out []models.SectionReservation
	for _, r := range s.w.sections {
		if r.RoomID == roomID && strings.EqualFold(r.DayName, dayName) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s sectionRepoStub) CountByRoom(ctx context.Context, roomID string) (int, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	count := 0
	for _, r := range s.w.sections {
		if r.RoomID == roomID {
			count++
		}
	}
	return count, nil
}

type memoryCacheRepo struct {
	mu      sync.Mutex
	entries map[string][]byte
	deletes []string
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.entries, key)
		m.deletes = append(m.deletes, key)
	}
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

type schedulingHarness struct {
	world        *fakeWorld
	detector     *ConflictDetector
	assignments  *RoomAssignmentService
	availability *RoomAvailabilityService
	occupancy    *RoomOccupancyService
	cache        *memoryCacheRepo
	metrics      *MetricsService
}

func newSchedulingHarness(t *testing.T, cfg RoomAssignmentConfig) *schedulingHarness {
	t.Helper()
	w := newFakeWorld()
	logger := zap.NewNop()
	metrics := NewMetricsService()

	activities := activityRepoStub{w: w}
	rooms := roomRepoStub{w: w}
	assignments := roomAssignmentRepoStub{w: w}

	detector := NewConflictDetector(rooms, []BookingSource{
		NewActivityBookingSource(assignments, activities, logger),
		NewPunctualBookingSource(punctualRepoStub{w: w}, time.UTC, clock),
		NewSectionBookingSource(sectionRepoStub{w: w}, logger),
	}, metrics, logger)

	cacheRepo := newMemoryCacheRepo()
	cache := NewCacheService(cacheRepo, metrics, time.Minute, logger, true)
	occupancy := NewRoomOccupancyService(rooms, assignments, punctualRepoStub{w: w}, sectionRepoStub{w: w}, cache, time.Minute, logger)
	occupancy.now = clock

	if cfg.Now == nil {
		cfg.Now = clock
	}
	svc := NewRoomAssignmentService(activities, rooms, assignments, detector, lock.NewLocalLocker(time.Second), occupancy, metrics, nil, logger, cfg)
	availability := NewRoomAvailabilityService(activities, rooms, assignments, detector, scheduling.ScoreWeights{}, metrics, logger)

	return &schedulingHarness{
		world:        w,
		detector:     detector,
		assignments:  svc,
		availability: availability,
		occupancy:    occupancy,
		cache:        cacheRepo,
		metrics:      metrics,
	}
}

func requireAppError(t *testing.T, err error, code string) *appErrors.Error {
	t.Helper()
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, code, appErr.Code, "unexpected error: %v", err)
	return appErr
}

func strPtr(v string) *string { return &v }
func boolPtr(v bool) *bool     { return &v }
func intPtr(v int) *int        { return &v }
