package models

// ConflictKind identifies which booking source produced a conflict.
type ConflictKind string

const (
	ConflictActivity ConflictKind = "ACTIVITY"
	ConflictPunctual ConflictKind = "PUNCTUAL"
	ConflictSection  ConflictKind = "SECTION"
)

// Conflict describes one booking standing in the way of a candidate slot.
// Start/End is the overlapping window; BookingStart/BookingEnd are the booking's own bounds.
type Conflict struct {
	Kind         ConflictKind `json:"kind"`
	SourceID     string       `json:"source_id"`
	SourceName   string       `json:"source_name"`
	DayOfWeek    int          `json:"day_of_week"`
	DayName      string       `json:"day_name"`
	Start        string       `json:"start"`
	End          string       `json:"end"`
	BookingStart string       `json:"booking_start"`
	BookingEnd   string       `json:"booking_end"`
	RoomID       string       `json:"room_id"`
	RoomName     string       `json:"room_name"`
}

// ConflictError carries every conflict found for a rejected booking.
type ConflictError struct {
	Message   string     `json:"message"`
	Conflicts []Conflict `json:"conflicts"`
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
