package availability

import (
	"sort"
	"time"

	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/interval"
	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/model"
)

// Policy holds the deployment-wide slot recommendation constants.
type Policy struct {
	// Step quantizes candidate starts from each rule's opening time.
	Step time.Duration
	// Buffer is turnover time appended after every service when testing a candidate.
	Buffer time.Duration
	// LeadTime rejects candidates starting sooner than now+LeadTime.
	LeadTime time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		Step:     30 * time.Minute,
		Buffer:   15 * time.Minute,
		LeadTime: 2 * time.Hour,
	}
}

// Request is everything ComputeSlots reads. Occupied should hold every blackout and confirmed
// booking intersecting Day's window; intervals outside the window are harmless.
type Request struct {
	Rules    []model.WeeklyRule
	Occupied []interval.Interval
	Day      Day
	Location *time.Location
	Duration time.Duration
	Now      time.Time
}

// ComputeSlots returns the ascending, de-duplicated bookable start instants for req.Day.
// It has no side effects and never fails: a closed or fully booked day yields nil.
func ComputeSlots(req Request, p Policy) []time.Time {
	if req.Duration <= 0 || p.Step <= 0 || p.Buffer < 0 {
		return nil
	}
	loc := req.Location
	if loc == nil {
		loc = time.UTC
	}

	weekday := req.Day.Weekday()
	span := req.Duration + p.Buffer
	earliest := req.Now.Add(p.LeadTime)
	occupied := interval.NewSorted(req.Occupied)

	var out []time.Time
	for _, rule := range req.Rules {
		if rule.Weekday != weekday || !rule.Valid() {
			continue
		}
		out = append(out, walkWindow(req.Day.Expand(rule, loc), span, p.Step, earliest, occupied)...)
	}
	return sortUnique(out)
}

// walkWindow steps through window and keeps every start whose inflated interval
// [t, t+span) fits the window, is not before earliest and misses occupied.
func walkWindow(window interval.Interval, span, step time.Duration, earliest time.Time, occupied interval.Sorted) []time.Time {
	if window.Empty() || window.Start.Add(span).After(window.End) {
		return nil
	}

	var slots []time.Time
	for t := window.Start; !t.Add(span).After(window.End); t = t.Add(step) {
		if t.Before(earliest) {
			continue
		}
		if occupied.Overlaps(interval.New(t, span)) {
			continue
		}
		slots = append(slots, t)
	}
	return slots
}

func sortUnique(in []time.Time) []time.Time {
	if len(in) < 2 {
		return in
	}
	sort.Slice(in, func(i, j int) bool { return in[i].Before(in[j]) })
	out := in[:1]
	for _, t := range in[1:] {
		if !t.Equal(out[len(out)-1]) {
			out = append(out, t)
		}
	}
	return out
}
