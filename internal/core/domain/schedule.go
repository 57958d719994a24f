package domain

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"time"
)

// ScheduleKind tags the variant held by a Schedule.
type ScheduleKind string

const (
	ScheduleRecurrence ScheduleKind = "recurrence" // budget section
	ScheduleDay        ScheduleKind = "day"        // bills section
	ScheduleDate       ScheduleKind = "date"       // goals section
	ScheduleLegacy     ScheduleKind = ""           // untagged plain string
)

// Recurrence values accepted for budget items.
const (
	EveryMonth = "every-month"
	EveryCheck = "every-check"
)

// DateLayout is the layout of goal dates and legacy string due dates.
const DateLayout = "2006-01-02"

var isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// IsISODate reports whether s looks like a bare YYYY-MM-DD date.
func IsISODate(s string) bool {
	return isoDatePattern.MatchString(s)
}

// Schedule is the due information of a BudgetItem. Exactly one of the
// variant fields is meaningful, selected by Kind.
type Schedule struct {
	Kind ScheduleKind
	// Value holds the recurrence, the ISO date, or the legacy string.
	Value string
	// Day holds the day of month for ScheduleDay.
	Day int
	// raw keeps unknown or unreadable values so they survive a round trip.
	// An unreadable value has an empty Kind and Value and reads as no due.
	raw json.RawMessage
}

// Recurrence builds a budget schedule.
func Recurrence(value string) *Schedule {
	return &Schedule{Kind: ScheduleRecurrence, Value: value}
}

// DayOfMonth builds a bills schedule.
func DayOfMonth(day int) *Schedule {
	return &Schedule{Kind: ScheduleDay, Day: day}
}

// OnDate builds a goals schedule.
func OnDate(date string) *Schedule {
	return &Schedule{Kind: ScheduleDate, Value: date}
}

// LegacyString builds an untagged schedule, as older documents stored it.
func LegacyString(s string) *Schedule {
	return &Schedule{Kind: ScheduleLegacy, Value: s}
}

// Time parses a date schedule. ok is false for every other variant or an unparsable date.
func (s *Schedule) Time() (time.Time, bool) {
	if s == nil || s.Kind != ScheduleDate || s.Value == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, s.Value)
	if err != nil {
		// Older clients sometimes stored a full timestamp.
		if t, err = time.Parse(time.RFC3339Nano, s.Value); err != nil {
			return time.Time{}, false
		}
	}
	return t, true
}

type taggedSchedule struct {
	Type  ScheduleKind    `json:"type"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON writes the tagged object form, or a bare string for legacy values.
func (s Schedule) MarshalJSON() ([]byte, error) {
	if s.raw != nil {
		return s.raw, nil
	}
	switch s.Kind {
	case ScheduleLegacy:
		return json.Marshal(s.Value)
	case ScheduleDay:
		return json.Marshal(struct {
			Type  ScheduleKind `json:"type"`
			Value int          `json:"value"`
		}{s.Kind, s.Day})
	default:
		return json.Marshal(struct {
			Type  ScheduleKind `json:"type"`
			Value string       `json:"value"`
		}{s.Kind, s.Value})
	}
}

// UnmarshalJSON accepts the tagged object form and the legacy plain string.
// Legacy strings are kept as-is here; upgrading them is Migrate's job.
func (s *Schedule) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var str string
		if err := json.Unmarshal(trimmed, &str); err != nil {
			return err
		}
		*s = Schedule{Kind: ScheduleLegacy, Value: str}
		return nil
	}

	var tagged taggedSchedule
	if len(trimmed) == 0 || trimmed[0] != '{' || json.Unmarshal(trimmed, &tagged) != nil {
		// Unreadable shapes are kept verbatim and read as no due.
		*s = Schedule{raw: append(json.RawMessage(nil), trimmed...)}
		return nil
	}

	switch tagged.Type {
	case ScheduleDay:
		day, err := scalarInt(tagged.Value)
		if err != nil {
			*s = Schedule{raw: append(json.RawMessage(nil), trimmed...)}
			return nil
		}
		*s = Schedule{Kind: ScheduleDay, Day: day}
	case ScheduleRecurrence, ScheduleDate:
		*s = Schedule{Kind: tagged.Type, Value: scalarString(tagged.Value)}
	default:
		*s = Schedule{Kind: tagged.Type, raw: append(json.RawMessage(nil), trimmed...)}
	}
	return nil
}

// scalarInt reads a JSON number or numeric string; null reads as zero.
func scalarInt(raw json.RawMessage) (int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return int(n), nil
	}
	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return 0, err
	}
	if str == "" {
		return 0, nil
	}
	return strconv.Atoi(str)
}

// scalarString reads a JSON string, or the literal text of any other scalar.
func scalarString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	return string(raw)
}
