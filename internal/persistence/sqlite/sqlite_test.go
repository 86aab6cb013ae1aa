package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/HenryDev1553/discord-bot-system/internal/persistence"
)

func openTestStorage(t *testing.T) *Storage {
	t.Helper()

	path := filepath.Join(t.TempDir(), "bookings.db")
	storage, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open storage: %v", err)
	}
	if err := storage.Migrate(context.Background()); err != nil {
		_ = storage.Close()
		t.Fatalf("failed to migrate storage: %v", err)
	}
	t.Cleanup(func() { _ = storage.Close() })
	return storage
}

func testBooking(id string, createdAt time.Time) persistence.Booking {
	return persistence.Booking{
		ID:        id,
		Name:      "Alice Nguyen",
		Email:     "alice@example.com",
		Phone:     "+84 90 000 0000",
		PartySize: "4",
		Date:      "05/07/2025",
		StartTime: "18:00",
		EndTime:   "20:00",
		Room:      "Rooftop",
		Notes:     "window seat",
		Status:    "pending",
		RowNumber: 7,
		CreatedAt: createdAt,
	}
}

func TestCreateAndGetBooking(t *testing.T) {
	t.Parallel()

	storage := openTestStorage(t)
	ctx := context.Background()
	created := time.Date(2025, time.July, 1, 10, 0, 0, 0, time.UTC)

	b := testBooking("row-7", created)
	b.Conflicts = []persistence.Conflict{{
		BookingID: "row-3",
		Name:      "Bob Tran",
		Email:     "bob@example.com",
		Room:      "Rooftop",
		Date:      "05/07/2025",
		StartTime: "19:00",
		EndTime:   "21:00",
	}}
	b.ConflictSummary = "Scheduling conflicts detected:\n- Bob Tran booked Rooftop on 05/07/2025 from 19:00 to 21:00"

	if err := storage.CreateBooking(ctx, b); err != nil {
		t.Fatalf("CreateBooking returned error: %v", err)
	}

	got, err := storage.GetBooking(ctx, "row-7")
	if err != nil {
		t.Fatalf("GetBooking returned error: %v", err)
	}

	if got.Name != b.Name || got.Email != b.Email || got.Room != b.Room {
		t.Errorf("got = %+v", got)
	}
	if got.Status != "pending" {
		t.Errorf("Status = %q, want pending", got.Status)
	}
	if got.DecidedAt != nil {
		t.Errorf("DecidedAt = %v, want nil", got.DecidedAt)
	}
	if len(got.Conflicts) != 1 || got.Conflicts[0].BookingID != "row-3" {
		t.Errorf("Conflicts = %+v", got.Conflicts)
	}
	if got.ConflictSummary != b.ConflictSummary {
		t.Errorf("ConflictSummary = %q", got.ConflictSummary)
	}
	if got.RowNumber != 7 {
		t.Errorf("RowNumber = %d, want 7", got.RowNumber)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
	}
}

func TestCreateBookingDuplicateID(t *testing.T) {
	t.Parallel()

	storage := openTestStorage(t)
	ctx := context.Background()
	created := time.Date(2025, time.July, 1, 10, 0, 0, 0, time.UTC)

	if err := storage.CreateBooking(ctx, testBooking("row-7", created)); err != nil {
		t.Fatalf("CreateBooking returned error: %v", err)
	}
	err := storage.CreateBooking(ctx, testBooking("row-7", created))
	if !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("error = %v, want ErrDuplicate", err)
	}
}

func TestGetBookingNotFound(t *testing.T) {
	t.Parallel()

	storage := openTestStorage(t)

	_, err := storage.GetBooking(context.Background(), "row-404")
	if !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestListRecentOrdersNewestFirst(t *testing.T) {
	t.Parallel()

	storage := openTestStorage(t)
	ctx := context.Background()
	base := time.Date(2025, time.July, 1, 10, 0, 0, 0, time.UTC)

	for i := 1; i <= 5; i++ {
		b := testBooking(fmt.Sprintf("row-%d", i), base.Add(time.Duration(i)*time.Minute))
		if err := storage.CreateBooking(ctx, b); err != nil {
			t.Fatalf("CreateBooking returned error: %v", err)
		}
	}

	bookings, err := storage.ListRecent(ctx, 3)
	if err != nil {
		t.Fatalf("ListRecent returned error: %v", err)
	}
	if len(bookings) != 3 {
		t.Fatalf("len = %d, want 3", len(bookings))
	}
	for i, want := range []string{"row-5", "row-4", "row-3"} {
		if bookings[i].ID != want {
			t.Errorf("bookings[%d].ID = %q, want %q", i, bookings[i].ID, want)
		}
	}
}

func TestListByEmailIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	storage := openTestStorage(t)
	ctx := context.Background()
	base := time.Date(2025, time.July, 1, 10, 0, 0, 0, time.UTC)

	alice := testBooking("row-1", base)
	if err := storage.CreateBooking(ctx, alice); err != nil {
		t.Fatalf("CreateBooking returned error: %v", err)
	}
	bob := testBooking("row-2", base.Add(time.Minute))
	bob.Email = "bob@example.com"
	if err := storage.CreateBooking(ctx, bob); err != nil {
		t.Fatalf("CreateBooking returned error: %v", err)
	}

	bookings, err := storage.ListByEmail(ctx, "ALICE@Example.COM", 5)
	if err != nil {
		t.Fatalf("ListByEmail returned error: %v", err)
	}
	if len(bookings) != 1 || bookings[0].ID != "row-1" {
		t.Errorf("bookings = %+v, want only row-1", bookings)
	}
}

func TestUpdateStatus(t *testing.T) {
	t.Parallel()

	storage := openTestStorage(t)
	ctx := context.Background()
	created := time.Date(2025, time.July, 1, 10, 0, 0, 0, time.UTC)

	if err := storage.CreateBooking(ctx, testBooking("row-7", created)); err != nil {
		t.Fatalf("CreateBooking returned error: %v", err)
	}

	decidedAt := created.Add(time.Hour)
	if err := storage.UpdateStatus(ctx, "row-7", "confirmed", "operator@example.com", decidedAt); err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}

	got, err := storage.GetBooking(ctx, "row-7")
	if err != nil {
		t.Fatalf("GetBooking returned error: %v", err)
	}
	if got.Status != "confirmed" || got.DecidedBy != "operator@example.com" {
		t.Errorf("got = %+v", got)
	}
	if got.DecidedAt == nil || !got.DecidedAt.Equal(decidedAt) {
		t.Errorf("DecidedAt = %v, want %v", got.DecidedAt, decidedAt)
	}
}

func TestUpdateStatusNotFound(t *testing.T) {
	t.Parallel()

	storage := openTestStorage(t)

	err := storage.UpdateStatus(context.Background(), "row-404", "confirmed", "operator@example.com", time.Now())
	if !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestSetCalendarEventID(t *testing.T) {
	t.Parallel()

	storage := openTestStorage(t)
	ctx := context.Background()
	created := time.Date(2025, time.July, 1, 10, 0, 0, 0, time.UTC)

	if err := storage.CreateBooking(ctx, testBooking("row-7", created)); err != nil {
		t.Fatalf("CreateBooking returned error: %v", err)
	}

	if err := storage.SetCalendarEventID(ctx, "row-7", "evt-42"); err != nil {
		t.Fatalf("SetCalendarEventID returned error: %v", err)
	}
	got, err := storage.GetBooking(ctx, "row-7")
	if err != nil {
		t.Fatalf("GetBooking returned error: %v", err)
	}
	if got.CalendarEventID != "evt-42" {
		t.Errorf("CalendarEventID = %q, want evt-42", got.CalendarEventID)
	}

	if err := storage.SetCalendarEventID(ctx, "row-7", ""); err != nil {
		t.Fatalf("clearing event id returned error: %v", err)
	}
	got, err = storage.GetBooking(ctx, "row-7")
	if err != nil {
		t.Fatalf("GetBooking returned error: %v", err)
	}
	if got.CalendarEventID != "" {
		t.Errorf("CalendarEventID = %q after clear, want empty", got.CalendarEventID)
	}
}

func TestCountByStatus(t *testing.T) {
	t.Parallel()

	storage := openTestStorage(t)
	ctx := context.Background()
	base := time.Date(2025, time.July, 1, 10, 0, 0, 0, time.UTC)

	statuses := []string{"pending", "pending", "confirmed", "cancelled", "error-flagged"}
	for i, status := range statuses {
		b := testBooking(fmt.Sprintf("row-%d", i+1), base.Add(time.Duration(i)*time.Minute))
		b.Status = status
		if err := storage.CreateBooking(ctx, b); err != nil {
			t.Fatalf("CreateBooking returned error: %v", err)
		}
	}

	counts, err := storage.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("CountByStatus returned error: %v", err)
	}
	want := map[string]int{"pending": 2, "confirmed": 1, "cancelled": 1, "error-flagged": 1}
	for status, n := range want {
		if counts[status] != n {
			t.Errorf("counts[%q] = %d, want %d", status, counts[status], n)
		}
	}
}

func TestWithTransactionCommitsOnSuccess(t *testing.T) {
	t.Parallel()

	storage := openTestStorage(t)
	ctx := context.Background()
	b := testBooking("row-7", time.Date(2025, time.July, 1, 10, 0, 0, 0, time.UTC))

	err := storage.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO bookings (`+bookingColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			b.ID, b.Name, b.Email, b.Phone, b.PartySize, b.Date, b.StartTime, b.EndTime, b.Room, b.Notes,
			b.Status, "[]", b.ConflictSummary, b.CalendarEventID, b.DecidedBy, sql.NullTime{}, b.RowNumber, b.CreatedAt,
		)
		return err
	})
	if err != nil {
		t.Fatalf("WithTransaction returned error: %v", err)
	}

	if _, err := storage.GetBooking(ctx, "row-7"); err != nil {
		t.Errorf("GetBooking after commit returned error: %v", err)
	}
}

func TestWithTransactionRollsBackOnError(t *testing.T) {
	t.Parallel()

	storage := openTestStorage(t)
	ctx := context.Background()
	b := testBooking("row-7", time.Date(2025, time.July, 1, 10, 0, 0, 0, time.UTC))
	boom := errors.New("boom")

	err := storage.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO bookings (`+bookingColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			b.ID, b.Name, b.Email, b.Phone, b.PartySize, b.Date, b.StartTime, b.EndTime, b.Room, b.Notes,
			b.Status, "[]", b.ConflictSummary, b.CalendarEventID, b.DecidedBy, sql.NullTime{}, b.RowNumber, b.CreatedAt,
		); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTransaction error = %v, want %v", err, boom)
	}

	if _, err := storage.GetBooking(ctx, "row-7"); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("GetBooking after rollback error = %v, want %v", err, persistence.ErrNotFound)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	t.Parallel()

	storage := openTestStorage(t)
	if err := storage.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate returned error: %v", err)
	}
}
