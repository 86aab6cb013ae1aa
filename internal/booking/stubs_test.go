package booking

import (
	"context"
	"sync"
	"time"
)

// memStore is an in-memory BookingStore used across the package tests. The
// mutex matters for the concurrency tests; everything else treats it as a
// plain map.
type memStore struct {
	mu             sync.Mutex
	bookings       map[string]Booking
	order          []string
	statusWrites   int
	eventWrites    []string
	createErr      error
	getErr         error
	listRecentErr  error
	listByEmailErr error
	writeStatusErr error
	setEventErr    error
	countErr       error
	lastEmailLimit int
}

func newMemStore() *memStore {
	return &memStore{bookings: make(map[string]Booking)}
}

func (m *memStore) seed(bookings ...Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range bookings {
		m.bookings[b.ID] = b
		m.order = append(m.order, b.ID)
	}
}

func (m *memStore) CreateBooking(_ context.Context, b Booking) (Booking, error) {
	if m.createErr != nil {
		return Booking{}, m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[b.ID] = b
	m.order = append(m.order, b.ID)
	return b, nil
}

func (m *memStore) GetBooking(_ context.Context, id string) (Booking, error) {
	if m.getErr != nil {
		return Booking{}, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return Booking{}, ErrNotFound
	}
	return b, nil
}

func (m *memStore) ListRecent(_ context.Context, limit int) ([]Booking, error) {
	if m.listRecentErr != nil {
		return nil, m.listRecentErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]Booking, 0, limit)
	for i := len(m.order) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, m.bookings[m.order[i]])
	}
	return result, nil
}

func (m *memStore) ListByEmail(_ context.Context, email string, limit int) ([]Booking, error) {
	m.lastEmailLimit = limit
	if m.listByEmailErr != nil {
		return nil, m.listByEmailErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]Booking, 0, limit)
	for i := len(m.order) - 1; i >= 0 && len(result) < limit; i-- {
		b := m.bookings[m.order[i]]
		if b.Customer.Email == email {
			result = append(result, b)
		}
	}
	return result, nil
}

func (m *memStore) WriteStatus(_ context.Context, id string, state State, decidedBy string, decidedAt time.Time) error {
	if m.writeStatusErr != nil {
		return m.writeStatusErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return ErrNotFound
	}
	b.State = state
	b.DecidedBy = decidedBy
	b.DecidedAt = &decidedAt
	m.bookings[id] = b
	m.statusWrites++
	return nil
}

func (m *memStore) SetCalendarEvent(_ context.Context, id, eventID string) error {
	if m.setEventErr != nil {
		return m.setEventErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return ErrNotFound
	}
	b.CalendarEventID = eventID
	m.bookings[id] = b
	m.eventWrites = append(m.eventWrites, eventID)
	return nil
}

func (m *memStore) CountByState(_ context.Context) (map[State]int, error) {
	if m.countErr != nil {
		return nil, m.countErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[State]int)
	for _, b := range m.bookings {
		counts[b.State]++
	}
	return counts, nil
}

func (m *memStore) get(id string) Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bookings[id]
}

// stubCalendar counts calls and can fail the first N create attempts;
// createFailures of -1 fails every attempt.
type stubCalendar struct {
	mu             sync.Mutex
	createCalls    int
	createFailures int
	createErr      error
	nextEventID    string
	lastSpec       EventSpec
	deleted        []string
	deleteErr      error
	events         []CalendarEvent
	listErr        error
	listCalls      int
}

func (c *stubCalendar) CreateEvent(_ context.Context, spec EventSpec) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.createCalls++
	c.lastSpec = spec
	if c.createFailures != 0 {
		if c.createFailures > 0 {
			c.createFailures--
		}
		return "", c.createErr
	}
	if c.nextEventID == "" {
		return "event-1", nil
	}
	return c.nextEventID, nil
}

func (c *stubCalendar) DeleteEvent(_ context.Context, eventID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deleteErr != nil {
		return c.deleteErr
	}
	c.deleted = append(c.deleted, eventID)
	return nil
}

func (c *stubCalendar) ListEvents(_ context.Context, _, _ time.Time) ([]CalendarEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listCalls++
	if c.listErr != nil {
		return nil, c.listErr
	}
	return c.events, nil
}

func (c *stubCalendar) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.createCalls
}

// stubNotifier counts deliveries and can fail the first N attempts; failures
// of -1 fails every attempt.
type stubNotifier struct {
	mu            sync.Mutex
	confirmations int
	cancellations int
	failures      int
	err           error
}

func (n *stubNotifier) deliver() error {
	if n.failures != 0 {
		if n.failures > 0 {
			n.failures--
		}
		return n.err
	}
	return nil
}

func (n *stubNotifier) SendConfirmation(_ context.Context, _ Booking) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmations++
	return n.deliver()
}

func (n *stubNotifier) SendCancellation(_ context.Context, _ Booking) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancellations++
	return n.deliver()
}

func (n *stubNotifier) sent() (int, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.confirmations, n.cancellations
}

func fastRetry(maxAttempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  maxAttempts,
		InitialDelay: time.Millisecond,
		Factor:       2.0,
		MaxDelay:     10 * time.Millisecond,
	}
}

func pendingBooking(id string) Booking {
	return Booking{
		ID: id,
		Customer: Customer{
			Name:      "Alice Nguyen",
			Email:     "alice@example.com",
			Phone:     "+84 90 000 0000",
			PartySize: "4",
		},
		Date:      "05/07/2025",
		StartTime: "18:00",
		EndTime:   "20:00",
		Room:      "Rooftop",
		State:     StatePending,
		CreatedAt: time.Date(2025, time.July, 1, 10, 0, 0, 0, time.UTC),
	}
}
