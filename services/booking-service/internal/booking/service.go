// Package booking implements slot listing and the calendar-serialized booking transaction.
package booking

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/bookora/libs/metrics"
	otelx "github.com/md-rashed-zaman/bookora/libs/otel"
	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/availability"
	"go.opentelemetry.io/otel/trace"
)

const maxNotesLen = 2000

type Options struct {
	Policy   availability.Policy
	Location *time.Location
	Clock    Clock
	NewID    func() string
	Logger   *slog.Logger
	Metrics  *metrics.Collector
}

// Service is the in-process API the HTTP layer calls.
type Service struct {
	catalog Catalog
	store   Store

	policy  availability.Policy
	loc     *time.Location
	now     Clock
	newID   func() string
	logger  *slog.Logger
	metrics *metrics.Collector
	tracer  trace.Tracer
}

func NewService(catalog Catalog, store Store, opts Options) *Service {
	if opts.Policy == (availability.Policy{}) {
		opts.Policy = availability.DefaultPolicy()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.NewString() }
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		catalog: catalog,
		store:   store,
		policy:  opts.Policy,
		loc:     opts.Location,
		now:     opts.Clock,
		newID:   opts.NewID,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		tracer:  otelx.Tracer("booking-service/booking"),
	}
}

func (s *Service) Location() *time.Location { return s.loc }

func (s *Service) count(operation, outcome string) {
	if s.metrics != nil {
		s.metrics.BookingsTotal.WithLabelValues(operation, outcome).Inc()
	}
}

func outcomeOf(err error) string {
	switch KindOf(err) {
	case KindInvalidInput:
		return "invalid"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindUnavailable:
		return "unavailable"
	}
	return "error"
}
