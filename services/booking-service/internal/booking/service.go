package booking

import (
	"context"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/apptbook/libs/db"
	otelx "github.com/md-rashed-zaman/apptbook/libs/otel"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/metrics"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"
	"go.opentelemetry.io/otel/trace"
)

type Deps struct {
	DB           db.Querier
	Catalog      CatalogStore
	Schedules    ScheduleStore
	Appointments AppointmentStore
	Idempotency  IdempotencyStore
	Outbox       EventStore
	Cache        ScheduleCache
	Zone         availability.Zone
	Metrics      *metrics.BookingMetrics
	Logger       *slog.Logger
	Now          func() time.Time
}

// Service implements the booking operations on top of the stores. Every write that
// touches more than one row runs in a single pgx transaction.
type Service struct {
	db           db.Querier
	catalog      CatalogStore
	schedules    ScheduleStore
	appointments AppointmentStore
	idempotency  IdempotencyStore
	outbox       EventStore
	cache        ScheduleCache
	zone         availability.Zone
	metrics      *metrics.BookingMetrics
	logger       *slog.Logger
	now          func() time.Time
	tracer       trace.Tracer
}

func New(d Deps) *Service {
	if d.Cache == nil {
		d.Cache = noCache{}
	}
	if d.Logger == nil {
		d.Logger = slog.New(slog.DiscardHandler)
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Service{
		db:           d.DB,
		catalog:      d.Catalog,
		schedules:    d.Schedules,
		appointments: d.Appointments,
		idempotency:  d.Idempotency,
		outbox:       d.Outbox,
		cache:        d.Cache,
		zone:         d.Zone,
		metrics:      d.Metrics,
		logger:       d.Logger,
		now:          d.Now,
		tracer:       otelx.Tracer("booking-service/booking"),
	}
}

// Zone is the business time zone used for every local-to-instant conversion.
func (s *Service) Zone() availability.Zone {
	return s.zone
}

type noCache struct{}

func (noCache) Get(context.Context, string) ([]model.ScheduleWindow, bool) { return nil, false }
func (noCache) Set(context.Context, string, []model.ScheduleWindow) {}
func (noCache) Invalidate(context.Context, string) {}
