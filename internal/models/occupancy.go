package models

// RoomOccupancy aggregates booking counts for one room.
type RoomOccupancy struct {
	RoomID               string `json:"room_id"`
	RoomName             string `json:"room_name"`
	ActiveAssignments    int    `json:"active_assignments"`
	TotalAssignments     int    `json:"total_assignments"`
	PunctualReservations int    `json:"punctual_reservations"`
	SectionReservations  int    `json:"section_reservations"`
	TotalBookings        int    `json:"total_bookings"`
}
