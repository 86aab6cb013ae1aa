package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/HenryDev1553/discord-bot-system/internal/booking"
	"github.com/HenryDev1553/discord-bot-system/internal/mail"
	"github.com/HenryDev1553/discord-bot-system/internal/testfixtures"
)

func TestStoreAdapterRoundTrip(t *testing.T) {
	harness := testfixtures.NewSQLiteHarness(t)
	store := newStoreAdapter(harness.Bookings)
	ctx := context.Background()

	fixture := testfixtures.NewBookingFixture(
		testfixtures.WithConflicts(
			"Scheduling conflicts detected",
			booking.ConflictNotice{BookingID: "row-earlier", Name: "Bob Tran", Room: "Rooftop"},
		),
		testfixtures.WithNotes("window table please"),
	)
	created, err := store.CreateBooking(ctx, fixture.Booking())
	if err != nil {
		t.Fatalf("creating booking: %v", err)
	}
	if created.ID != fixture.ID || created.State != booking.StatePending {
		t.Errorf("created = %+v", created)
	}
	if len(created.Conflicts) != 1 || created.Conflicts[0].BookingID != "row-earlier" {
		t.Errorf("conflicts did not survive the store: %+v", created.Conflicts)
	}
	if created.Notes != "window table please" {
		t.Errorf("notes = %q", created.Notes)
	}
}

func TestStoreAdapterStatusAndCounts(t *testing.T) {
	harness := testfixtures.NewSQLiteHarness(t)
	store := newStoreAdapter(harness.Bookings)
	ctx := context.Background()

	pending := testfixtures.NewBookingFixture()
	flagged := testfixtures.NewBookingFixture()
	for _, f := range []testfixtures.BookingFixture{pending, flagged} {
		if _, err := store.CreateBooking(ctx, f.Booking()); err != nil {
			t.Fatalf("creating booking %s: %v", f.ID, err)
		}
	}

	decidedAt := testfixtures.ReferenceTime().Add(2 * time.Hour)
	if err := store.WriteStatus(ctx, flagged.ID, booking.StateError, "operator@example.com", decidedAt); err != nil {
		t.Fatalf("writing status: %v", err)
	}

	stored, err := store.GetBooking(ctx, flagged.ID)
	if err != nil {
		t.Fatalf("fetching booking: %v", err)
	}
	if stored.State != booking.StateError {
		t.Errorf("state = %v, want error", stored.State)
	}
	if stored.DecidedBy != "operator@example.com" || stored.DecidedAt == nil {
		t.Errorf("decision audit fields = %q, %v", stored.DecidedBy, stored.DecidedAt)
	}

	counts, err := store.CountByState(ctx)
	if err != nil {
		t.Fatalf("counting: %v", err)
	}
	if counts[booking.StatePending] != 1 || counts[booking.StateError] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

func TestStoreAdapterNotFoundMapping(t *testing.T) {
	harness := testfixtures.NewSQLiteHarness(t)
	store := newStoreAdapter(harness.Bookings)

	_, err := store.GetBooking(context.Background(), "row-404")
	if !errors.Is(err, booking.ErrNotFound) {
		t.Fatalf("expected booking.ErrNotFound, got %v", err)
	}

	err = store.SetCalendarEvent(context.Background(), "row-404", "evt-1")
	if !errors.Is(err, booking.ErrNotFound) {
		t.Fatalf("expected booking.ErrNotFound from SetCalendarEvent, got %v", err)
	}
}

func TestNotifierAdapterSendsRenderedMessage(t *testing.T) {
	var received struct {
		To      string `json:"to"`
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(payload, &received); err != nil {
			t.Errorf("decoding bridge payload: %v", err)
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	notifier := newNotifierAdapter(mail.NewClient(server.URL, time.Second), mail.Identity{
		CompanyName:  "Bookings Team",
		CompanyEmail: "bookings@example.com",
	})

	fixture := testfixtures.NewBookingFixture(
		testfixtures.WithCustomer("Alice Nguyen", "alice@example.com"),
	)
	if err := notifier.SendConfirmation(context.Background(), fixture.Booking()); err != nil {
		t.Fatalf("sending confirmation: %v", err)
	}

	if received.To != "alice@example.com" {
		t.Errorf("to = %q", received.To)
	}
	if !strings.HasPrefix(received.Subject, "Booking confirmed") {
		t.Errorf("subject = %q", received.Subject)
	}
	if !strings.Contains(received.Body, "Alice Nguyen") {
		t.Errorf("body missing customer name: %q", received.Body)
	}
}

func TestBookingDetailsMapping(t *testing.T) {
	fixture := testfixtures.NewBookingFixture(
		testfixtures.WithCustomer("Bob Tran", "bob@example.com"),
		testfixtures.WithSlot("06/07/2025", "09:00", "11:00"),
		testfixtures.WithPartySize("6"),
	)

	details := toBookingDetails(fixture.Booking())
	if details.Name != "Bob Tran" || details.Email != "bob@example.com" {
		t.Errorf("details identity = %+v", details)
	}
	if details.Date != "06/07/2025" || details.StartTime != "09:00" || details.EndTime != "11:00" {
		t.Errorf("details slot = %+v", details)
	}
	if details.PartySize != "6" {
		t.Errorf("party size = %q", details.PartySize)
	}
}
