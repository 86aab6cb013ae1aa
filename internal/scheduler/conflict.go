// Package scheduler implements the interval-overlap conflict detector for
// room bookings. It is a pure function over an already-bounded window of
// recent bookings; callers decide how the window is fetched and how the
// result is presented. Conflicts are advisory and never block a booking.
package scheduler

import (
	"strings"

	"github.com/HenryDev1553/discord-bot-system/internal/normalize"
)

// Booking is the minimal view of a booking the detector needs. Start and End
// carry the canonical "HH:MM" representation; values that failed upstream
// normalization are excluded from comparison rather than matched.
type Booking struct {
	ID    string
	Name  string
	Email string
	Room  string
	Date  string
	Start string
	End   string
	// Live reports whether the booking still counts toward conflict scope
	// (pending or confirmed). Cancelled and error-flagged bookings never
	// block new submissions.
	Live bool
}

// Conflict describes one existing booking that overlaps the candidate.
type Conflict struct {
	BookingID string
	Name      string
	Email     string
	Room      string
	Date      string
	Start     string
	End       string
}

// DetectConflicts reports every existing live booking that overlaps the
// candidate on the same date and room. Overlap is half-open: [s1,e1) and
// [s2,e2) conflict iff s1 < e2 && s2 < e1, so a booking ending at 10:00
// never conflicts with one starting at 10:00. Room matching is exact after
// trimming, case-sensitive. An existing entry whose id equals the
// candidate's id is skipped so a resubmitted row does not conflict with
// itself.
//
// Overnight intervals (end <= start) are compared on their same-day minute
// values; the calendar mapping is where the next-day interpretation is
// applied.
func DetectConflicts(existing []Booking, candidate Booking) []Conflict {
	candidateStart, okStart := normalize.MinutesOfDay(candidate.Start)
	candidateEnd, okEnd := normalize.MinutesOfDay(candidate.End)
	if !okStart || !okEnd {
		return nil
	}

	candidateRoom := strings.TrimSpace(candidate.Room)

	var conflicts []Conflict
	for _, other := range existing {
		if candidate.ID != "" && other.ID == candidate.ID {
			continue
		}
		if !other.Live {
			continue
		}
		if other.Date != candidate.Date {
			continue
		}
		if strings.TrimSpace(other.Room) != candidateRoom {
			continue
		}

		otherStart, ok := normalize.MinutesOfDay(other.Start)
		if !ok {
			continue
		}
		otherEnd, ok := normalize.MinutesOfDay(other.End)
		if !ok {
			continue
		}

		if candidateStart < otherEnd && otherStart < candidateEnd {
			conflicts = append(conflicts, Conflict{
				BookingID: other.ID,
				Name:      other.Name,
				Email:     other.Email,
				Room:      other.Room,
				Date:      other.Date,
				Start:     other.Start,
				End:       other.End,
			})
		}
	}

	return conflicts
}
