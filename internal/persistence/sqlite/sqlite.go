package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/HenryDev1553/discord-bot-system/internal/persistence"
)

// Storage is the SQLite backed implementation of the persistence contracts.
type Storage struct {
	pool   *ConnectionPool
	retry  *RetryHelper
	mapper *ErrorMapper
}

// Open connects to the SQLite database behind dsn.
func Open(dsn string) (*Storage, error) {
	pool, err := NewConnectionPool(dsn)
	if err != nil {
		return nil, err
	}
	return &Storage{
		pool:   pool,
		retry:  NewRetryHelper(DefaultRetryConfig()),
		mapper: NewErrorMapper(),
	}, nil
}

// Close releases the underlying connection pool.
func (s *Storage) Close() error {
	return s.pool.Close()
}

// Ping verifies database connectivity.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

var schemaStatements = []string{`
CREATE TABLE IF NOT EXISTS bookings (
	id                TEXT PRIMARY KEY,
	name              TEXT NOT NULL,
	email             TEXT NOT NULL,
	phone             TEXT NOT NULL DEFAULT '',
	party_size        TEXT NOT NULL DEFAULT '1',
	date              TEXT NOT NULL,
	start_time        TEXT NOT NULL,
	end_time          TEXT NOT NULL,
	room              TEXT NOT NULL,
	notes             TEXT NOT NULL DEFAULT '',
	status            TEXT NOT NULL DEFAULT 'pending',
	conflicts         TEXT NOT NULL DEFAULT '[]',
	conflict_summary  TEXT NOT NULL DEFAULT '',
	calendar_event_id TEXT NOT NULL DEFAULT '',
	decided_by        TEXT NOT NULL DEFAULT '',
	decided_at        TIMESTAMP,
	sheet_row         INTEGER NOT NULL DEFAULT 0,
	created_at        TIMESTAMP NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_created_at ON bookings (created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_email ON bookings (email)`,
}

// Migrate creates the schema when it does not exist yet. The statements are
// idempotent and applied in a single transaction so a partially created
// schema is never left behind.
func (s *Storage) Migrate(ctx context.Context) error {
	err := s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		for _, stmt := range schemaStatements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

const bookingColumns = `id, name, email, phone, party_size, date, start_time, end_time, room, notes,
	status, conflicts, conflict_summary, calendar_event_id, decided_by, decided_at, sheet_row, created_at`

// CreateBooking stores a new booking record.
func (s *Storage) CreateBooking(ctx context.Context, b persistence.Booking) error {
	conflicts, err := json.Marshal(b.Conflicts)
	if err != nil {
		return fmt.Errorf("failed to encode conflicts for %s: %w", b.ID, err)
	}

	var decidedAt sql.NullTime
	if b.DecidedAt != nil {
		decidedAt = sql.NullTime{Time: *b.DecidedAt, Valid: true}
	}

	return s.retry.WithRetry(ctx, func() error {
		_, err := s.pool.DB().ExecContext(ctx, `
			INSERT INTO bookings (`+bookingColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			b.ID, b.Name, b.Email, b.Phone, b.PartySize, b.Date, b.StartTime, b.EndTime, b.Room, b.Notes,
			b.Status, string(conflicts), b.ConflictSummary, b.CalendarEventID, b.DecidedBy, decidedAt, b.RowNumber, b.CreatedAt,
		)
		return err
	})
}

// GetBooking retrieves a booking by id.
func (s *Storage) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	row := s.pool.DB().QueryRowContext(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE id = ?`, id)

	b, err := scanBooking(row)
	if err != nil {
		return persistence.Booking{}, s.mapper.MapError(err)
	}
	return b, nil
}

// ListRecent returns the newest bookings first, at most limit entries.
func (s *Storage) ListRecent(ctx context.Context, limit int) ([]persistence.Booking, error) {
	rows, err := s.pool.DB().QueryContext(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, s.mapper.MapError(err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

// ListByEmail returns the newest bookings for an email, case-insensitively.
func (s *Storage) ListByEmail(ctx context.Context, email string, limit int) ([]persistence.Booking, error) {
	rows, err := s.pool.DB().QueryContext(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE email = ? COLLATE NOCASE
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, email, limit)
	if err != nil {
		return nil, s.mapper.MapError(err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

// UpdateStatus writes the decided status and audit fields for a booking.
func (s *Storage) UpdateStatus(ctx context.Context, id, status, decidedBy string, decidedAt time.Time) error {
	return s.retry.WithRetry(ctx, func() error {
		result, err := s.pool.DB().ExecContext(ctx, `
			UPDATE bookings
			SET status = ?, decided_by = ?, decided_at = ?
			WHERE id = ?`,
			status, decidedBy, decidedAt, id)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}
		return nil
	})
}

// SetCalendarEventID records or clears the calendar event for a booking.
func (s *Storage) SetCalendarEventID(ctx context.Context, id, eventID string) error {
	return s.retry.WithRetry(ctx, func() error {
		result, err := s.pool.DB().ExecContext(ctx, `
			UPDATE bookings
			SET calendar_event_id = ?
			WHERE id = ?`, eventID, id)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}
		return nil
	})
}

// CountByStatus reports how many bookings exist per status label.
func (s *Storage) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := s.pool.DB().QueryContext(ctx, `
		SELECT status, COUNT(*)
		FROM bookings
		GROUP BY status`)
	if err != nil {
		return nil, s.mapper.MapError(err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (persistence.Booking, error) {
	var b persistence.Booking
	var conflicts string
	var decidedAt sql.NullTime

	err := row.Scan(
		&b.ID, &b.Name, &b.Email, &b.Phone, &b.PartySize, &b.Date, &b.StartTime, &b.EndTime, &b.Room, &b.Notes,
		&b.Status, &conflicts, &b.ConflictSummary, &b.CalendarEventID, &b.DecidedBy, &decidedAt, &b.RowNumber, &b.CreatedAt,
	)
	if err != nil {
		return persistence.Booking{}, err
	}

	if decidedAt.Valid {
		t := decidedAt.Time
		b.DecidedAt = &t
	}
	if conflicts != "" && conflicts != "[]" {
		if err := json.Unmarshal([]byte(conflicts), &b.Conflicts); err != nil {
			return persistence.Booking{}, fmt.Errorf("failed to decode conflicts for %s: %w", b.ID, err)
		}
	}
	return b, nil
}

func collectBookings(rows *sql.Rows) ([]persistence.Booking, error) {
	var bookings []persistence.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}
