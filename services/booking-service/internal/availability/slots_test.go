package availability

import (
	"testing"
	"time"

	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/interval"
	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/model"
)

// 2026-01-26 is a Monday.
var monday = Day{Year: 2026, Month: time.January, Day: 26}

func at(h, m int) time.Time {
	return time.Date(2026, time.January, 26, h, m, 0, 0, time.UTC)
}

func mondayNineToFive() []model.WeeklyRule {
	return []model.WeeklyRule{{Weekday: model.Monday, Start: model.Clock(9, 0), End: model.Clock(17, 0)}}
}

func quarterHourPolicy() Policy {
	p := DefaultPolicy()
	p.Step = 15 * time.Minute
	return p
}

func contains(slots []time.Time, want time.Time) bool {
	for _, s := range slots {
		if s.Equal(want) {
			return true
		}
	}
	return false
}

func TestComputeSlots_LeadTimeAndRuleEnd(t *testing.T) {
	slots := ComputeSlots(Request{
		Rules:    mondayNineToFive(),
		Day:      monday,
		Location: time.UTC,
		Duration: 30 * time.Minute,
		Now:      at(8, 0),
	}, quarterHourPolicy())

	if len(slots) == 0 {
		t.Fatal("expected slots")
	}
	if !slots[0].Equal(at(10, 0)) {
		t.Fatalf("expected first slot 10:00, got %s", slots[0].Format(time.RFC3339))
	}
	if last := slots[len(slots)-1]; !last.Equal(at(16, 15)) {
		t.Fatalf("expected last slot 16:15, got %s", last.Format(time.RFC3339))
	}
}

func TestComputeSlots_DefaultGrid(t *testing.T) {
	slots := ComputeSlots(Request{
		Rules:    mondayNineToFive(),
		Day:      monday,
		Location: time.UTC,
		Duration: 30 * time.Minute,
		Now:      at(8, 0),
	}, DefaultPolicy())

	// 10:00, 10:30 ... 16:00; 16:30 would need until 17:15.
	if len(slots) != 13 {
		t.Fatalf("expected 13 slots, got %d", len(slots))
	}
	if !slots[0].Equal(at(10, 0)) || !slots[12].Equal(at(16, 0)) {
		t.Fatalf("unexpected range %s..%s", slots[0].Format(time.Kitchen), slots[12].Format(time.Kitchen))
	}
}

func TestComputeSlots_BufferAgainstBooking(t *testing.T) {
	slots := ComputeSlots(Request{
		Rules:    mondayNineToFive(),
		Occupied: []interval.Interval{{Start: at(10, 0), End: at(10, 30)}},
		Day:      monday,
		Location: time.UTC,
		Duration: 30 * time.Minute,
		Now:      at(6, 0),
	}, quarterHourPolicy())

	if contains(slots, at(9, 45)) {
		t.Fatal("09:45 must be excluded: 09:45-10:30 inflated interval hits the booking")
	}
	for _, want := range []time.Time{at(9, 0), at(10, 30)} {
		if !contains(slots, want) {
			t.Fatalf("expected %s to survive", want.Format(time.Kitchen))
		}
	}
	if contains(slots, at(10, 0)) || contains(slots, at(10, 15)) {
		t.Fatal("starts inside the booking must be excluded")
	}
}

func TestComputeSlots_LeadBoundaryInclusive(t *testing.T) {
	slots := ComputeSlots(Request{
		Rules:    mondayNineToFive(),
		Day:      monday,
		Location: time.UTC,
		Duration: 30 * time.Minute,
		Now:      at(8, 1),
	}, DefaultPolicy())
	if contains(slots, at(10, 0)) {
		t.Fatal("10:00 is before now+lead (10:01)")
	}
	if !slots[0].Equal(at(10, 30)) {
		t.Fatalf("expected 10:30 first, got %s", slots[0].Format(time.Kitchen))
	}

	slots = ComputeSlots(Request{
		Rules:    mondayNineToFive(),
		Day:      monday,
		Location: time.UTC,
		Duration: 30 * time.Minute,
		Now:      at(7, 30),
	}, DefaultPolicy())
	if !slots[0].Equal(at(9, 30)) {
		t.Fatalf("expected start exactly at now+lead to be accepted, got %s", slots[0].Format(time.Kitchen))
	}
}

func TestComputeSlots_OverlappingRulesAreUnioned(t *testing.T) {
	rules := []model.WeeklyRule{
		{Weekday: model.Monday, Start: model.Clock(9, 0), End: model.Clock(12, 0)},
		{Weekday: model.Monday, Start: model.Clock(11, 0), End: model.Clock(13, 0)},
		{Weekday: model.Tuesday, Start: model.Clock(9, 0), End: model.Clock(17, 0)},
	}
	slots := ComputeSlots(Request{
		Rules:    rules,
		Day:      monday,
		Location: time.UTC,
		Duration: 30 * time.Minute,
		Now:      at(0, 0),
	}, DefaultPolicy())

	for i := 1; i < len(slots); i++ {
		if !slots[i].After(slots[i-1]) {
			t.Fatalf("slots not strictly ascending at %d: %v", i, slots)
		}
	}
	// 09:00..11:00 from the first rule, 11:00..12:00 from the second; 11:00 appears once.
	want := []time.Time{at(9, 0), at(9, 30), at(10, 0), at(10, 30), at(11, 0), at(11, 30), at(12, 0)}
	if len(slots) != len(want) {
		t.Fatalf("expected %d slots, got %d: %v", len(want), len(slots), slots)
	}
	for i := range want {
		if !slots[i].Equal(want[i]) {
			t.Fatalf("slot %d: expected %s, got %s", i, want[i].Format(time.Kitchen), slots[i].Format(time.Kitchen))
		}
	}
}

func TestComputeSlots_Blackout(t *testing.T) {
	slots := ComputeSlots(Request{
		Rules:    mondayNineToFive(),
		Occupied: []interval.Interval{{Start: at(12, 0), End: at(14, 0)}},
		Day:      monday,
		Location: time.UTC,
		Duration: 60 * time.Minute,
		Now:      at(0, 0),
	}, DefaultPolicy())

	block := interval.Interval{Start: at(12, 0), End: at(14, 0)}
	for _, s := range slots {
		if interval.Overlaps(interval.New(s, 75*time.Minute), block) {
			t.Fatalf("slot %s collides with blackout", s.Format(time.Kitchen))
		}
	}
	if !contains(slots, at(10, 30)) || contains(slots, at(11, 0)) || !contains(slots, at(14, 0)) {
		t.Fatalf("unexpected slots around blackout: %v", slots)
	}
}

func TestComputeSlots_EmptyCases(t *testing.T) {
	base := Request{
		Rules:    []model.WeeklyRule{{Weekday: model.Monday, Start: model.Clock(9, 0), End: model.Clock(9, 30)}},
		Day:      monday,
		Location: time.UTC,
		Duration: 30 * time.Minute,
		Now:      at(0, 0),
	}
	if got := ComputeSlots(base, DefaultPolicy()); len(got) != 0 {
		t.Fatalf("duration+buffer longer than the window must yield nothing, got %v", got)
	}

	closed := base
	closed.Day = Day{Year: 2026, Month: time.January, Day: 27}
	if got := ComputeSlots(closed, DefaultPolicy()); len(got) != 0 {
		t.Fatalf("no rules on Tuesday, got %v", got)
	}

	zero := base
	zero.Duration = 0
	if got := ComputeSlots(zero, DefaultPolicy()); got != nil {
		t.Fatalf("zero duration must yield nothing, got %v", got)
	}

	full := base
	full.Rules = mondayNineToFive()
	full.Occupied = []interval.Interval{{Start: at(0, 0), End: at(23, 0)}}
	if got := ComputeSlots(full, DefaultPolicy()); len(got) != 0 {
		t.Fatalf("fully blacked out day must yield nothing, got %v", got)
	}
}

func TestComputeSlots_Idempotent(t *testing.T) {
	req := Request{
		Rules:    mondayNineToFive(),
		Occupied: []interval.Interval{{Start: at(13, 0), End: at(13, 45)}},
		Day:      monday,
		Location: time.UTC,
		Duration: 45 * time.Minute,
		Now:      at(7, 0),
	}
	a := ComputeSlots(req, DefaultPolicy())
	b := ComputeSlots(req, DefaultPolicy())
	if len(a) != len(b) {
		t.Fatalf("length changed: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			t.Fatalf("slot %d differs", i)
		}
	}
}

func TestComputeSlots_LocationAnchorsRules(t *testing.T) {
	loc := time.FixedZone("UTC+6", 6*60*60)
	slots := ComputeSlots(Request{
		Rules:    mondayNineToFive(),
		Day:      monday,
		Location: loc,
		Duration: 30 * time.Minute,
		Now:      time.Date(2026, time.January, 25, 0, 0, 0, 0, time.UTC),
	}, DefaultPolicy())
	if len(slots) == 0 {
		t.Fatal("expected slots")
	}
	if want := time.Date(2026, time.January, 26, 3, 0, 0, 0, time.UTC); !slots[0].Equal(want) {
		t.Fatalf("expected 09:00 local (03:00Z), got %s", slots[0].UTC().Format(time.RFC3339))
	}
}

func TestDay(t *testing.T) {
	d, err := ParseDay("2026-01-26")
	if err != nil {
		t.Fatalf("ParseDay: %v", err)
	}
	if d != monday || d.Weekday() != model.Monday || d.String() != "2026-01-26" {
		t.Fatalf("unexpected day %v weekday %d", d, d.Weekday())
	}
	if _, err := ParseDay("26/01/2026"); err == nil {
		t.Fatal("expected error for wrong layout")
	}

	w := d.Window(time.UTC)
	if !w.Start.Equal(at(0, 0)) || w.End.Sub(w.Start) != 24*time.Hour {
		t.Fatalf("unexpected window %v", w)
	}
}
