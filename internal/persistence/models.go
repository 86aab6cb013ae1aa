package persistence

import "time"

// Booking is the stored representation of a reservation request. Date and
// times are kept as the canonical text produced at ingest; unparsable values
// stay verbatim.
type Booking struct {
	ID              string
	Name            string
	Email           string
	Phone           string
	PartySize       string
	Date            string
	StartTime       string
	EndTime         string
	Room            string
	Notes           string
	Status          string
	Conflicts       []Conflict
	ConflictSummary string
	CalendarEventID string
	DecidedBy       string
	DecidedAt       *time.Time
	RowNumber       int
	CreatedAt       time.Time
}

// Conflict is an overlap recorded against a booking at ingest time.
type Conflict struct {
	BookingID string `json:"bookingId"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Room      string `json:"room"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}
