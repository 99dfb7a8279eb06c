package models

import (
	"time"

	"github.com/noah-isme/room-scheduling-api/internal/scheduling"
)

// Activity is a recurring weekly programme that needs a room.
type Activity struct {
	ID          string                `db:"id" json:"id"`
	Name        string                `db:"name" json:"name"`
	CapacityMax *int                  `db:"capacity_max" json:"capacity_max,omitempty"`
	Active      bool                  `db:"active" json:"active"`
	Schedule    []WeeklyScheduleEntry `db:"-" json:"schedule"`
	CreatedAt   time.Time             `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time             `db:"updated_at" json:"updated_at"`
}

// ActiveSchedule returns the schedule entries that still apply.
func (a *Activity) ActiveSchedule() []WeeklyScheduleEntry {
	var out []WeeklyScheduleEntry
	for _, entry := range a.Schedule {
		if entry.Active {
			out = append(out, entry)
		}
	}
	return out
}

// WeeklyScheduleEntry is one day/time slot of an activity.
type WeeklyScheduleEntry struct {
	ID         string `db:"id" json:"id"`
	ActivityID string `db:"activity_id" json:"activity_id"`
	DayOfWeek  int    `db:"day_of_week" json:"day_of_week"`
	StartTime  string `db:"start_time" json:"start_time"`
	EndTime    string `db:"end_time" json:"end_time"`
	Active     bool   `db:"active" json:"active"`
}

// Interval converts the entry into the weekly interval model.
func (e WeeklyScheduleEntry) Interval() (scheduling.Interval, error) {
	return scheduling.NewInterval(scheduling.ScheduleDay(e.DayOfWeek), e.StartTime, e.EndTime)
}
