package availability

import (
	"fmt"
	"time"

	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/interval"
	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/model"
)

const dayLayout = "2006-01-02"

// Day is a civil date in the deployment's canonical time zone.
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

func ParseDay(s string) (Day, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return Day{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return DayOf(t, time.UTC), nil
}

func DayOf(t time.Time, loc *time.Location) Day {
	y, m, d := t.In(loc).Date()
	return Day{Year: y, Month: m, Day: d}
}

func (d Day) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func (d Day) Weekday() model.Weekday {
	return model.WeekdayOf(time.Date(d.Year, d.Month, d.Day, 12, 0, 0, 0, time.UTC))
}

// Window is [00:00, next day 00:00) in loc; 23 or 25 hours long on DST transitions.
func (d Day) Window(loc *time.Location) interval.Interval {
	start := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
	end := time.Date(d.Year, d.Month, d.Day+1, 0, 0, 0, 0, loc)
	return interval.Interval{Start: start, End: end}
}

// Expand anchors rule on this day in loc.
func (d Day) Expand(rule model.WeeklyRule, loc *time.Location) interval.Interval {
	return interval.Interval{
		Start: rule.Start.On(d.Year, d.Month, d.Day, loc),
		End:   rule.End.On(d.Year, d.Month, d.Day, loc),
	}
}
