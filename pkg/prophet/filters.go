package prophet

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeFilter is a start or end bound of a search.
type TimeFilter interface {
	json.Marshaler
	Validate() error
}

// TimeUnit is the unit of a relative time filter.
type TimeUnit string

// Relative time units.
const (
	UnitMinutes TimeUnit = "minutes"
	UnitHours   TimeUnit = "hours"
	UnitDays    TimeUnit = "days"
	UnitWeeks   TimeUnit = "weeks"
)

// NowFilter is the current server time.
type NowFilter struct{}

// Now returns a filter for the current time.
func Now() NowFilter { return NowFilter{} }

// Validate always succeeds.
func (NowFilter) Validate() error { return nil }

// MarshalJSON implements json.Marshaler.
func (NowFilter) MarshalJSON() ([]byte, error) {
	return []byte(`{"now":true}`), nil
}

// RelativeTime is a bound expressed as Value units before now.
type RelativeTime struct {
	Value int
	Unit  TimeUnit
}

// MinutesAgo returns a filter n minutes before now.
func MinutesAgo(n int) RelativeTime { return RelativeTime{Value: n, Unit: UnitMinutes} }

// HoursAgo returns a filter n hours before now.
func HoursAgo(n int) RelativeTime { return RelativeTime{Value: n, Unit: UnitHours} }

// DaysAgo returns a filter n days before now.
func DaysAgo(n int) RelativeTime { return RelativeTime{Value: n, Unit: UnitDays} }

// WeeksAgo returns a filter n weeks before now.
func WeeksAgo(n int) RelativeTime { return RelativeTime{Value: n, Unit: UnitWeeks} }

// Validate rejects non-positive values.
func (r RelativeTime) Validate() error {
	if r.Value <= 0 {
		return &ValidationError{
			Message: fmt.Sprintf("%d %s: value must be positive", r.Value, r.Unit),
			Field:   "relative.value",
			Err:     ErrNonPositiveRelative,
		}
	}

	return nil
}

// MarshalJSON implements json.Marshaler.
func (r RelativeTime) MarshalJSON() ([]byte, error) {
	err := r.Validate()
	if err != nil {
		return nil, err
	}

	type relative struct {
		Value int      `json:"value"`
		Unit  TimeUnit `json:"unit"`
	}

	return json.Marshal(map[string]relative{"relative": {Value: r.Value, Unit: r.Unit}})
}

// AbsoluteTime is a fixed instant sent as an ISO-8601 string.
type AbsoluteTime struct {
	Date string
}

// At returns a filter for t.
func At(t time.Time) AbsoluteTime {
	return AbsoluteTime{Date: t.Format(time.RFC3339)}
}

// AtString returns a filter for an ISO-8601 date string, passed through as is.
func AtString(date string) AbsoluteTime {
	return AbsoluteTime{Date: date}
}

// Validate checks that a date is set.
func (a AbsoluteTime) Validate() error {
	if a.Date == "" {
		return &ValidationError{Message: "absolute date is empty", Field: "absolute.date", Err: ErrInvalidTimestamp}
	}

	return nil
}

// MarshalJSON implements json.Marshaler.
func (a AbsoluteTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]map[string]string{"absolute": {"date": a.Date}})
}

// ParseTimeFilter parses "now", a relative duration such as "15m", "24h",
// "7d" or "2w", or an RFC 3339 timestamp.
func ParseTimeFilter(s string) (TimeFilter, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "now") {
		return Now(), nil
	}

	if len(s) >= 2 {
		units := map[byte]TimeUnit{'m': UnitMinutes, 'h': UnitHours, 'd': UnitDays, 'w': UnitWeeks}
		if unit, ok := units[s[len(s)-1]]; ok {
			if n, err := strconv.Atoi(s[:len(s)-1]); err == nil {
				rel := RelativeTime{Value: n, Unit: unit}
				if err := rel.Validate(); err != nil {
					return nil, err
				}

				return rel, nil
			}
		}
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
	}

	return At(t), nil
}

// SortOrder is asc or desc.
type SortOrder string

// Sort orders.
const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Sort orders results by a field. An empty Order means descending.
type Sort struct {
	Field string    `json:"field"`
	Order SortOrder `json:"order"`
}

// Asc sorts field ascending.
func Asc(field string) Sort { return Sort{Field: field, Order: SortAsc} }

// Desc sorts field descending.
func Desc(field string) Sort { return Sort{Field: field, Order: SortDesc} }

// Validate accepts an empty, asc or desc order.
func (s Sort) Validate() error {
	switch s.Order {
	case "", SortAsc, SortDesc:
		return nil
	default:
		return &ValidationError{Message: fmt.Sprintf("invalid order %q", s.Order), Field: "sort", Err: ErrInvalidSortOrder}
	}
}

// MarshalJSON fills in desc when no order is set.
func (s Sort) MarshalJSON() ([]byte, error) {
	err := s.Validate()
	if err != nil {
		return nil, err
	}

	order := s.Order
	if order == "" {
		order = SortDesc
	}

	type plain Sort

	return json.Marshal(plain{Field: s.Field, Order: order})
}

// ParseSort parses "field" or "field:asc" / "field:desc".
func ParseSort(s string) (Sort, error) {
	field, order, _ := strings.Cut(s, ":")
	sort := Sort{Field: strings.TrimSpace(field), Order: SortOrder(strings.ToLower(strings.TrimSpace(order)))}

	return sort, sort.Validate()
}
