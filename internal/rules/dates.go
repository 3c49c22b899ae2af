package rules

import (
	"time"

	"borgo/internal/domain"
)

// Day strips the time of day, keeping the calendar date as seen in t's location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EffectiveLeadDays prefers the field override over the category fallback.
func EffectiveLeadDays(rule *domain.DateRule, categoryLead int) int {
	if rule != nil && rule.MinLeadDays != nil {
		return *rule.MinLeadDays
	}
	return categoryLead
}

// EarliestDate is the first day that passes the lead-time check.
func EarliestDate(today time.Time, rule *domain.DateRule, categoryLead int) time.Time {
	today = Day(today)
	if lead := EffectiveLeadDays(rule, categoryLead); lead > 0 {
		return today.AddDate(0, 0, lead)
	}
	return today
}

// IsDateSelectable reports whether date may be picked given today's date.
func IsDateSelectable(date, today time.Time, rule *domain.DateRule, categoryLead int) bool {
	date = Day(date)
	if date.Before(EarliestDate(today, rule, categoryLead)) {
		return false
	}
	if rule != nil {
		iso := date.Format(time.DateOnly)
		for _, u := range rule.UnavailableDates {
			if u == iso {
				return false
			}
		}
	}
	return true
}

// SelectableDates lists the selectable ISO dates in [from, to]. full, when
// non-nil, removes days whose capacity counter is exhausted.
func SelectableDates(from, to, today time.Time, rule *domain.DateRule, categoryLead int, full func(iso string) bool) []string {
	var out []string
	from, to = Day(from), Day(to)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if !IsDateSelectable(d, today, rule, categoryLead) {
			continue
		}
		iso := d.Format(time.DateOnly)
		if full != nil && full(iso) {
			continue
		}
		out = append(out, iso)
	}
	return out
}
