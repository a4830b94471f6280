package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/model"
)

// Seed is the catalog a memory store starts with:
//
//	{
//	  "calendars": [{"id": "cal-1", "provider_id": "prov-1", "name": "Dr. Rahman",
//	                 "rules": [{"weekday": 0, "start": "09:00", "end": "17:00"}]}],
//	  "services":  [{"id": "svc-1", "calendar_id": "cal-1", "name": "Consultation", "duration_minutes": 30}],
//	  "blackouts": [{"id": "bo-1", "calendar_id": "cal-1", "start": "2026-02-02T12:00:00Z",
//	                 "end": "2026-02-02T13:00:00Z", "reason": "lunch"}]
//	}
//
// Weekdays run from 0 (Monday) to 6 (Sunday). Services are active unless "active" is false.
type Seed struct {
	Calendars []SeedCalendar `json:"calendars"`
	Services  []SeedService  `json:"services"`
	Blackouts []SeedBlackout `json:"blackouts"`
}

type SeedCalendar struct {
	ID         string     `json:"id"`
	ProviderID string     `json:"provider_id"`
	Name       string     `json:"name"`
	Rules      []SeedRule `json:"rules"`
}

type SeedRule struct {
	Weekday int    `json:"weekday"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

type SeedService struct {
	ID              string `json:"id"`
	CalendarID      string `json:"calendar_id"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes"`
	Active          *bool  `json:"active,omitempty"`
}

type SeedBlackout struct {
	ID         string    `json:"id"`
	CalendarID string    `json:"calendar_id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Reason     string    `json:"reason"`
}

func ReadSeed(r io.Reader) (Seed, error) {
	var seed Seed
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&seed); err != nil {
		return Seed{}, fmt.Errorf("decode catalog seed: %w", err)
	}
	return seed, nil
}

// LoadSeedFile reads path and loads it into m.
func LoadSeedFile(m *Memory, path string) (Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return Seed{}, fmt.Errorf("open catalog seed: %w", err)
	}
	defer f.Close()

	seed, err := ReadSeed(f)
	if err != nil {
		return Seed{}, err
	}
	if err := m.Load(seed); err != nil {
		return Seed{}, fmt.Errorf("%s: %w", path, err)
	}
	return seed, nil
}

// Load validates the whole seed before storing any of it.
func (m *Memory) Load(seed Seed) error {
	calendars := make(map[string]model.Calendar, len(seed.Calendars))
	for _, sc := range seed.Calendars {
		if sc.ID == "" || sc.ProviderID == "" {
			return fmt.Errorf("calendar %q: id and provider_id are required", sc.ID)
		}
		if _, dup := calendars[sc.ID]; dup {
			return fmt.Errorf("calendar %q: duplicate id", sc.ID)
		}
		cal := model.Calendar{ID: sc.ID, ProviderID: sc.ProviderID, Name: sc.Name}
		for i, sr := range sc.Rules {
			rule, err := sr.rule()
			if err != nil {
				return fmt.Errorf("calendar %q rule %d: %w", sc.ID, i, err)
			}
			cal.Rules = append(cal.Rules, rule)
		}
		calendars[sc.ID] = cal
	}

	m.mu.RLock()
	known := func(id string) bool {
		if _, ok := calendars[id]; ok {
			return true
		}
		_, ok := m.calendars[id]
		return ok
	}
	var services []model.Service
	for _, ss := range seed.Services {
		if ss.ID == "" || !known(ss.CalendarID) {
			m.mu.RUnlock()
			return fmt.Errorf("service %q: unknown calendar %q", ss.ID, ss.CalendarID)
		}
		if ss.DurationMinutes <= 0 {
			m.mu.RUnlock()
			return fmt.Errorf("service %q: duration_minutes must be positive", ss.ID)
		}
		active := ss.Active == nil || *ss.Active
		services = append(services, model.Service{
			ID:         ss.ID,
			CalendarID: ss.CalendarID,
			Name:       ss.Name,
			Duration:   time.Duration(ss.DurationMinutes) * time.Minute,
			Active:     active,
		})
	}
	var blackouts []model.Blackout
	for _, sb := range seed.Blackouts {
		if !known(sb.CalendarID) {
			m.mu.RUnlock()
			return fmt.Errorf("blackout %q: unknown calendar %q", sb.ID, sb.CalendarID)
		}
		if !sb.End.After(sb.Start) {
			m.mu.RUnlock()
			return fmt.Errorf("blackout %q: end must be after start", sb.ID)
		}
		blackouts = append(blackouts, model.Blackout{
			ID:         sb.ID,
			CalendarID: sb.CalendarID,
			Start:      sb.Start,
			End:        sb.End,
			Reason:     sb.Reason,
		})
	}
	m.mu.RUnlock()

	for _, c := range calendars {
		m.PutCalendar(c)
	}
	for _, s := range services {
		m.PutService(s)
	}
	for _, b := range blackouts {
		m.AddBlackout(b)
	}
	return nil
}

func (sr SeedRule) rule() (model.WeeklyRule, error) {
	start, err := model.ParseClock(sr.Start)
	if err != nil {
		return model.WeeklyRule{}, err
	}
	end, err := parseRuleEnd(sr.End)
	if err != nil {
		return model.WeeklyRule{}, err
	}
	rule := model.WeeklyRule{Weekday: model.Weekday(sr.Weekday), Start: start, End: end}
	if !rule.Valid() {
		return model.WeeklyRule{}, fmt.Errorf("weekday %d %s-%s is not a valid window", sr.Weekday, sr.Start, sr.End)
	}
	return rule, nil
}

// parseRuleEnd also accepts "24:00" so a rule can run until midnight.
func parseRuleEnd(s string) (model.ClockTime, error) {
	if s == "24:00" {
		return model.Clock(24, 0), nil
	}
	return model.ParseClock(s)
}
