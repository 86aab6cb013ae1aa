package testfixtures

import (
	"log/slog"
	"time"

	"github.com/HenryDev1553/discord-bot-system/internal/booking"
)

// ServiceFactory assists tests with constructing booking services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("booking"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("booking")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// BookingServiceDeps captures dependencies for constructing a booking service.
// Calendar and Notifier may be nil, matching a deployment without the
// corresponding bridge configured.
type BookingServiceDeps struct {
	Store       booking.BookingStore
	Calendar    booking.CalendarProvider
	Notifier    booking.NotificationSender
	Service     booking.ServiceConfig
	Effects     booking.OrchestratorConfig
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewBookingService builds a booking service and its side effect orchestrator
// from the supplied dependencies combined with the factory defaults.
func (f *ServiceFactory) NewBookingService(deps BookingServiceDeps) *booking.Service {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	effects := booking.NewOrchestratorWithLogger(
		deps.Store,
		deps.Calendar,
		deps.Notifier,
		deps.Effects,
		now,
		deps.Logger,
	)
	return booking.NewServiceWithLogger(
		deps.Store,
		effects,
		deps.Service,
		idGen,
		now,
		deps.Logger,
	)
}
