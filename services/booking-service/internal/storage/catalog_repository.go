package storage

import (
	"context"
	"time"

	"github.com/md-rashed-zaman/bookora/libs/db"
	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/model"
)

// CatalogRepository reads calendars, their weekly rules and services. The rows are owned by
// the provider administration flow; this service never writes them.
type CatalogRepository struct {
	pool *db.Pool
}

var _ booking.Catalog = (*CatalogRepository)(nil)

func NewCatalogRepository(pool *db.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

func (r *CatalogRepository) Calendar(ctx context.Context, calendarID string) (model.Calendar, error) {
	var c model.Calendar
	err := r.pool.QueryRow(ctx, `
		SELECT id, provider_id, name
		FROM calendars
		WHERE id = $1
	`, calendarID).Scan(&c.ID, &c.ProviderID, &c.Name)
	if db.IsNotFound(err) {
		return model.Calendar{}, model.ErrNotFound
	}
	if err != nil {
		return model.Calendar{}, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT weekday, start_minute, end_minute
		FROM weekly_rules
		WHERE calendar_id = $1
		ORDER BY weekday, start_minute
	`, calendarID)
	if err != nil {
		return model.Calendar{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var weekday, start, end int16
		if err := rows.Scan(&weekday, &start, &end); err != nil {
			return model.Calendar{}, err
		}
		c.Rules = append(c.Rules, model.WeeklyRule{
			Weekday: model.Weekday(weekday),
			Start:   model.ClockTime(start),
			End:     model.ClockTime(end),
		})
	}
	if rows.Err() != nil {
		return model.Calendar{}, rows.Err()
	}
	return c, nil
}

func (r *CatalogRepository) Service(ctx context.Context, serviceID string) (model.Service, error) {
	var s model.Service
	var minutes int32
	err := r.pool.QueryRow(ctx, `
		SELECT id, calendar_id, name, duration_minutes, is_active
		FROM services
		WHERE id = $1
	`, serviceID).Scan(&s.ID, &s.CalendarID, &s.Name, &minutes, &s.Active)
	if db.IsNotFound(err) {
		return model.Service{}, model.ErrNotFound
	}
	if err != nil {
		return model.Service{}, err
	}
	s.Duration = time.Duration(minutes) * time.Minute
	return s, nil
}
